// Package changedetect is the sole authority deciding whether a newly
// captured frame differs enough from the previous one to justify
// downstream OCR and vision work. It computes a perceptual hash over a
// downsampled grayscale projection of the frame so that cursor movement
// and small animations don't trip the gate.
//
// The hash and its Hamming distance are diagnostic and gating values
// only — this package never uses them as a content-addressed dedup key,
// resolving the ambiguity the source left open.
package changedetect

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/corona10/goimagehash"
)

// hashBits is the width of goimagehash.PerceptionHash's output, used to
// normalize Hamming distance into a [0,1] change score.
const hashBits = 64

// DefaultThreshold is the minimum change score considered significant.
const DefaultThreshold = 0.05

// Detector tracks the previous frame's hash and scores new frames
// against it. Not safe to share across unrelated capture sessions —
// construct one per session (or call Reset between sessions).
type Detector struct {
	mu        sync.RWMutex
	threshold float64
	lastHash  *goimagehash.ImageHash
}

// New creates a Detector gating on the given significance threshold. A
// non-positive threshold falls back to DefaultThreshold.
func New(threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{threshold: threshold}
}

// Result is the outcome of scoring one frame.
type Result struct {
	Score       float64 // 0 (identical) .. 1 (maximally different)
	Significant bool
	Hash        uint64
}

// Score decodes imgData and compares its perceptual hash against the
// previously scored frame. The first frame scored is always significant
// (there is nothing to compare against yet).
func (d *Detector) Score(imgData []byte) (Result, error) {
	img, _, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return Result{}, err
	}
	return d.ScoreImage(img)
}

// ScoreImage is Score for an already-decoded image.
func (d *Detector) ScoreImage(img image.Image) (Result, error) {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return Result{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lastHash == nil {
		d.lastHash = hash
		return Result{Score: 1, Significant: true, Hash: hash.GetHash()}, nil
	}

	dist, err := d.lastHash.Distance(hash)
	if err != nil {
		d.lastHash = hash
		return Result{Score: 1, Significant: true, Hash: hash.GetHash()}, nil
	}

	score := float64(dist) / hashBits
	d.lastHash = hash
	return Result{
		Score:       score,
		Significant: score >= d.threshold,
		Hash:        hash.GetHash(),
	}, nil
}

// Reset clears the tracked hash, so the next frame scored is treated as
// the first frame of a new session.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastHash = nil
}

// Threshold returns the configured significance threshold.
func (d *Detector) Threshold() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.threshold
}

// SetThreshold updates the significance threshold at runtime.
func (d *Detector) SetThreshold(threshold float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if threshold > 0 {
		d.threshold = threshold
	}
}
