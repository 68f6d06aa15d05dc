package stt

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// supportedLanguages mirrors whisper.cpp's multilingual model vocabulary.
var supportedLanguages = []string{
	"en", "zh", "de", "es", "ru", "ko", "fr", "ja", "pt", "tr", "pl",
	"ca", "nl", "ar", "sv", "it", "id", "hi", "fi", "vi", "he", "uk",
	"el", "ms", "cs", "ro", "da", "hu", "ta", "no", "th", "ur", "hr",
	"bg", "lt", "la", "mi", "ml", "cy", "sk", "te", "fa", "lv", "bn",
	"sr", "az", "sl", "kn", "et", "mk", "br", "eu", "is", "hy", "ne",
	"mn", "bs", "kk", "sq", "sw", "gl", "mr", "pa", "si", "km", "sn",
	"yo", "so", "af", "oc", "ka", "be", "tg", "sd", "gu", "am", "yi",
	"lo", "uz", "fo", "ht", "ps", "tk", "nn", "mt", "sa", "lb", "my",
	"bo", "tl", "mg", "as", "tt", "haw", "ln", "ha", "ba", "jw", "su",
}

const whisperSampleRate = 16000

// PrepareAudio downmixes to mono, resamples to whisper.cpp's required
// 16kHz, and optionally normalizes and gates the signal. Ported from
// savant-stt's audio_utils module (prepare_audio_for_whisper and its
// helpers: convert_to_mono, resample_audio, normalize_audio,
// apply_noise_gate).
func PrepareAudio(samples []float32, sampleRate int, channels int, normalize bool, gate bool) []float32 {
	mono := ConvertToMono(samples, channels)
	if sampleRate != whisperSampleRate && sampleRate > 0 {
		mono = ResampleAudio(mono, sampleRate, whisperSampleRate)
	}
	if normalize {
		mono = NormalizeAudio(mono)
	}
	if gate {
		mono = ApplyNoiseGate(mono, 0.01)
	}
	return mono
}

// ConvertToMono averages interleaved channel samples down to one
// channel. A channels value of 1 or less returns samples unchanged.
func ConvertToMono(samples []float32, channels int) []float32 {
	if channels <= 1 || len(samples) == 0 {
		return samples
	}
	frames := len(samples) / channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// ResampleAudio linearly interpolates samples from one rate to another.
func ResampleAudio(samples []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || len(samples) == 0 {
		return samples
	}
	ratio := float64(fromRate) / float64(toRate)
	outLen := int(float64(len(samples)) / ratio)
	out := make([]float32, outLen)
	for i := 0; i < outLen; i++ {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)
		if srcIdx+1 < len(samples) {
			out[i] = samples[srcIdx]*float32(1-frac) + samples[srcIdx+1]*float32(frac)
		} else if srcIdx < len(samples) {
			out[i] = samples[srcIdx]
		}
	}
	return out
}

// NormalizeAudio scales samples so the loudest peak sits at 0.95 of
// full scale, preventing clipping while maximizing signal.
func NormalizeAudio(samples []float32) []float32 {
	if len(samples) == 0 {
		return samples
	}
	var peak float32
	for _, s := range samples {
		if abs := float32(math.Abs(float64(s))); abs > peak {
			peak = abs
		}
	}
	if peak == 0 {
		return samples
	}
	scale := 0.95 / peak
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = s * scale
	}
	return out
}

// ApplyNoiseGate zeroes samples below the given amplitude threshold.
func ApplyNoiseGate(samples []float32, threshold float32) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		if float32(math.Abs(float64(s))) < threshold {
			out[i] = 0
		} else {
			out[i] = s
		}
	}
	return out
}

// readWAV parses a canonical PCM WAV file into float32 samples, its
// sample rate, and channel count. The corpus's Go whisper.cpp callers
// hand-roll WAV parsing via encoding/binary rather than pulling in a
// WAV library, so this follows the same approach.
func readWAV(path string) ([]float32, int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, 0, err
	}
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, 0, fmt.Errorf("not a RIFF/WAVE file: %s", path)
	}

	var channels int
	var sampleRate int
	var bitsPerSample int
	var dataOffset, dataSize int

	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch chunkID {
		case "fmt ":
			if body+16 > len(data) {
				return nil, 0, 0, fmt.Errorf("truncated fmt chunk in %s", path)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			dataOffset = body
			dataSize = chunkSize
		}

		pos = body + chunkSize
		if chunkSize%2 == 1 {
			pos++
		}
	}

	if dataOffset == 0 || dataSize == 0 {
		return nil, 0, 0, fmt.Errorf("no data chunk found in %s", path)
	}
	if dataOffset+dataSize > len(data) {
		dataSize = len(data) - dataOffset
	}

	switch bitsPerSample {
	case 16:
		raw := data[dataOffset : dataOffset+dataSize]
		samples := make([]float32, len(raw)/2)
		for i := range samples {
			v := int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2]))
			samples[i] = float32(v) / 32768.0
		}
		return samples, sampleRate, channels, nil
	case 32:
		raw := data[dataOffset : dataOffset+dataSize]
		samples := make([]float32, len(raw)/4)
		for i := range samples {
			bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
			samples[i] = math.Float32frombits(bits)
		}
		return samples, sampleRate, channels, nil
	default:
		return nil, 0, 0, fmt.Errorf("unsupported bits-per-sample %d in %s", bitsPerSample, path)
	}
}
