// Package orchestrator is the ingest loop: it pulls frames and audio off
// the platform capture layer, runs them through change detection,
// OCR/vision, STT/speaker-ID, and the reactive coding-problem detector,
// writes the results to storage and the timeline, and republishes every
// step as a ProcessingEvent for live consumers (the RPC surface, the
// capture daemon's --watch status).
package orchestrator

import "time"

// Orchestrator-level tuning constants not already covered by
// internal/config (those are process configuration; these are fixed
// shapes of the ingest loop itself).
const (
	// EventChannelBuffer bounds the ProcessingEvent fan-out channel. It
	// is large, not unbounded, by design: a bounded channel with a
	// drop-and-count policy gives the same "never block downstream"
	// guarantee as an unbounded one without letting memory grow
	// without limit when a consumer stalls.
	EventChannelBuffer = 1024

	// ActivityWindowEntries bounds how many recent OCR/transcript
	// excerpts are kept for the reactive detector's rolling context.
	ActivityWindowEntries = 30
	ActivityWindowBuffer  = 100

	// StageTimeout bounds each of the OCR and vision stages run
	// concurrently over one frame.
	StageTimeout = 4 * time.Second

	// VADCleanupInterval is how often stale per-device VAD state is
	// swept.
	VADCleanupInterval = 5 * time.Minute

	// MinWordsForActivityRecord is the minimum word count an OCR
	// excerpt or transcript segment needs before it is worth queuing
	// for batched storage.
	MinWordsForActivityRecord = 3
)
