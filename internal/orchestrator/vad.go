package orchestrator

import (
	"context"
	"math"
)

// energyVAD is a root-mean-square energy threshold speech detector. It
// implements the orchestrator/audio.VADClient interface the teacher
// built around an inference-service VAD model; no local VAD model
// ships in the example corpus, so this is a deliberate stdlib-only
// fallback — documented in the design ledger — rather than a
// fabricated dependency.
type energyVAD struct {
	threshold float32
}

func newEnergyVAD(threshold float32) *energyVAD {
	if threshold <= 0 {
		threshold = 0.015
	}
	return &energyVAD{threshold: threshold}
}

// DetectSpeech estimates a speech probability from raw little-endian
// float32 PCM by computing RMS energy over the window and squashing it
// into (0,1) with a simple ratio against the threshold.
func (v *energyVAD) DetectSpeech(_ context.Context, raw []byte, _ int32) (float32, bool, error) {
	samples := bytesToFloat32LE(raw)
	if len(samples) == 0 {
		return 0, false, nil
	}

	var sumSquares float64
	for _, s := range samples {
		sumSquares += float64(s) * float64(s)
	}
	rms := math.Sqrt(sumSquares / float64(len(samples)))

	prob := float32(rms) / v.threshold
	if prob > 1 {
		prob = 1
	}
	return prob, rms > float64(v.threshold), nil
}

// ResetVAD is a no-op: energyVAD carries no cross-window state of its own
// (the caller's per-device vadState owns the speech/silence buffers).
func (v *energyVAD) ResetVAD(_ context.Context) error { return nil }

func bytesToFloat32LE(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		bits := uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}
