package orchestrator

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/watchloop/observatory/internal/trace"
)

func TestEventKindString(t *testing.T) {
	cases := map[EventKind]string{
		EventFrameProcessed:       "frame_processed",
		EventTextExtracted:        "text_extracted",
		EventTaskDetected:         "task_detected",
		EventQuestionDetected:     "question_detected",
		EventCodingProblemDetected: "coding_problem_detected",
		EventSolutionGenerated:    "solution_generated",
		EventProcessingError:      "processing_error",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("EventKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestIsQuestionDetectsTrailingMark(t *testing.T) {
	if !isQuestion("is this working?") {
		t.Error("expected trailing '?' to be detected as a question")
	}
}

func TestIsQuestionDetectsInterrogativeLead(t *testing.T) {
	if !isQuestion("how do I fix this bug") {
		t.Error("expected 'how' lead-in to be detected as a question")
	}
}

func TestIsQuestionRejectsStatement(t *testing.T) {
	if isQuestion("the build passed") {
		t.Error("expected a plain statement to not be detected as a question")
	}
}

func TestEnergyVADDetectsLoudSamples(t *testing.T) {
	vad := newEnergyVAD(0.1)
	loud := make([]float32, 512)
	for i := range loud {
		loud[i] = 0.5
	}
	prob, isSpeech, err := vad.DetectSpeech(context.Background(), Float32ToBytesForTest(loud), 16000)
	if err != nil {
		t.Fatalf("DetectSpeech returned error: %v", err)
	}
	if !isSpeech {
		t.Error("expected loud samples to be classified as speech")
	}
	if prob < 0.5 {
		t.Errorf("prob = %v, want a high confidence for loud audio", prob)
	}
}

func TestEnergyVADRejectsSilence(t *testing.T) {
	vad := newEnergyVAD(0.1)
	silence := make([]float32, 512)
	_, isSpeech, err := vad.DetectSpeech(context.Background(), Float32ToBytesForTest(silence), 16000)
	if err != nil {
		t.Fatalf("DetectSpeech returned error: %v", err)
	}
	if isSpeech {
		t.Error("expected silence to not be classified as speech")
	}
}

// Float32ToBytesForTest mirrors orchestrator/audio.Float32ToBytes so this
// test doesn't need to import that package just for a byte encoding helper.
func Float32ToBytesForTest(samples []float32) []byte {
	out := make([]byte, 0, len(samples)*4)
	buf := make([]byte, 4)
	for _, s := range samples {
		bits := math.Float32bits(s)
		buf[0] = byte(bits)
		buf[1] = byte(bits >> 8)
		buf[2] = byte(bits >> 16)
		buf[3] = byte(bits >> 24)
		out = append(out, buf...)
	}
	return out
}

func TestEmitDropsOnFullChannel(t *testing.T) {
	m := &Manager{
		events:   make(chan ProcessingEvent, 1),
		counters: trace.Counts(),
	}
	m.emit(context.Background(), FrameProcessed{Time: time.Now()})
	m.emit(context.Background(), FrameProcessed{Time: time.Now()})

	select {
	case <-m.events:
	default:
		t.Fatal("expected the first event to have been buffered")
	}

	select {
	case <-m.events:
		t.Fatal("expected the second event to have been dropped, not buffered")
	default:
	}
}

func TestSetRecordingTogglesIsRecording(t *testing.T) {
	m := &Manager{}
	if m.isRecording() {
		t.Fatal("expected a fresh Manager to start unrecorded")
	}
	m.SetRecording(true)
	if !m.isRecording() {
		t.Error("expected SetRecording(true) to be observed by isRecording")
	}
}
