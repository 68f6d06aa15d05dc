package orchestrator

import (
	"time"

	"github.com/watchloop/observatory/internal/reactive"
)

// ProcessingEvent is the closed tagged union published on a Manager's
// event channel. FrameProcessed, TextExtracted, TaskDetected,
// QuestionDetected, CodingProblemDetected, and SolutionGenerated are its
// only implementations; ProcessingError carries a non-fatal failure
// surfaced from any stage. Callers switch on Kind(), never the concrete
// type, the same discipline internal/timeline's TimelineEvent enforces.
type ProcessingEvent interface {
	isProcessingEvent()
	Kind() EventKind
	Timestamp() time.Time
}

// EventKind discriminates the concrete type behind a ProcessingEvent.
type EventKind int

const (
	EventFrameProcessed EventKind = iota
	EventTextExtracted
	EventTaskDetected
	EventQuestionDetected
	EventCodingProblemDetected
	EventSolutionGenerated
	EventProcessingError
)

func (k EventKind) String() string {
	switch k {
	case EventFrameProcessed:
		return "frame_processed"
	case EventTextExtracted:
		return "text_extracted"
	case EventTaskDetected:
		return "task_detected"
	case EventQuestionDetected:
		return "question_detected"
	case EventCodingProblemDetected:
		return "coding_problem_detected"
	case EventSolutionGenerated:
		return "solution_generated"
	case EventProcessingError:
		return "processing_error"
	default:
		return "unknown"
	}
}

// FrameProcessed reports that a captured frame cleared the change-detection
// gate and was run through OCR/vision.
type FrameProcessed struct {
	FrameID     string
	Time        time.Time
	ChangeScore float64
	AppName     string
}

func (FrameProcessed) isProcessingEvent()       {}
func (FrameProcessed) Kind() EventKind           { return EventFrameProcessed }
func (e FrameProcessed) Timestamp() time.Time    { return e.Time }

// TextExtracted carries one frame's OCR output.
type TextExtracted struct {
	FrameID string
	Time    time.Time
	Text    string
	WordCount int
	Confidence float32
}

func (TextExtracted) isProcessingEvent()     {}
func (TextExtracted) Kind() EventKind        { return EventTextExtracted }
func (e TextExtracted) Timestamp() time.Time { return e.Time }

// TaskDetected carries a vision-layer activity classification for a frame.
type TaskDetected struct {
	FrameID    string
	Time       time.Time
	Activity   string
	Confidence float32
}

func (TaskDetected) isProcessingEvent()     {}
func (TaskDetected) Kind() EventKind        { return EventTaskDetected }
func (e TaskDetected) Timestamp() time.Time { return e.Time }

// QuestionDetected reports a spoken or typed question surfaced from an
// audio transcript.
type QuestionDetected struct {
	Time     time.Time
	Question string
	Source   string // "user" or "system"
}

func (QuestionDetected) isProcessingEvent()     {}
func (QuestionDetected) Kind() EventKind        { return EventQuestionDetected }
func (e QuestionDetected) Timestamp() time.Time { return e.Time }

// CodingProblemDetected carries a reactive-detector classification.
type CodingProblemDetected struct {
	Time    time.Time
	Problem reactive.DetectedCodingProblem
}

func (CodingProblemDetected) isProcessingEvent()     {}
func (CodingProblemDetected) Kind() EventKind        { return EventCodingProblemDetected }
func (e CodingProblemDetected) Timestamp() time.Time { return e.Time }

// SolutionGenerated carries a reactive-detector generated solution for a
// previously detected problem.
type SolutionGenerated struct {
	Time     time.Time
	Solution reactive.GeneratedSolution
}

func (SolutionGenerated) isProcessingEvent()     {}
func (SolutionGenerated) Kind() EventKind        { return EventSolutionGenerated }
func (e SolutionGenerated) Timestamp() time.Time { return e.Time }

// ProcessingError surfaces a non-fatal failure from any ingest stage.
// It is never used for conditions that are not errors (an empty OCR
// result, a cooldown-gated detector skip) — those are silently dropped
// or counted, not surfaced.
type ProcessingError struct {
	Time  time.Time
	Stage string
	Err   error
}

func (ProcessingError) isProcessingEvent()     {}
func (ProcessingError) Kind() EventKind        { return EventProcessingError }
func (e ProcessingError) Timestamp() time.Time { return e.Time }
