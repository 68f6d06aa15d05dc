package stt

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseWhisperModel(t *testing.T) {
	cases := map[string]WhisperModel{
		"base.en":  ModelBaseEn,
		"base-en":  ModelBaseEn,
		"large-v3": ModelLargeV3,
		"TINY":     ModelTiny,
	}
	for input, want := range cases {
		got, err := ParseWhisperModel(input)
		if err != nil {
			t.Fatalf("ParseWhisperModel(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Errorf("ParseWhisperModel(%q) = %q, want %q", input, got, want)
		}
	}

	if _, err := ParseWhisperModel("nonexistent"); err == nil {
		t.Error("expected error for unknown model name")
	}
}

func TestModelManagerAvailability(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewModelManager(dir)
	if err != nil {
		t.Fatalf("NewModelManager: %v", err)
	}

	if mgr.IsModelAvailable(ModelTinyEn) {
		t.Fatal("model should not be available before creation")
	}

	path := mgr.GetModelPath(ModelTinyEn)
	if err := os.WriteFile(path, []byte("fake model bytes"), 0o644); err != nil {
		t.Fatalf("write fake model: %v", err)
	}

	if !mgr.IsModelAvailable(ModelTinyEn) {
		t.Error("model should be available after writing file")
	}

	available := mgr.ListAvailableModels()
	if len(available) != 1 || available[0] != ModelTinyEn {
		t.Errorf("ListAvailableModels() = %v, want [%v]", available, ModelTinyEn)
	}

	best, ok := mgr.GetBestAvailableModel()
	if !ok || best != ModelTinyEn {
		t.Errorf("GetBestAvailableModel() = (%v, %v), want (%v, true)", best, ok, ModelTinyEn)
	}

	if err := mgr.DeleteModel(ModelTinyEn); err != nil {
		t.Fatalf("DeleteModel: %v", err)
	}
	if mgr.IsModelAvailable(ModelTinyEn) {
		t.Error("model should not be available after deletion")
	}
}

func TestModelManagerDirectoryLayout(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewModelManager(dir)
	if err != nil {
		t.Fatalf("NewModelManager: %v", err)
	}
	want := filepath.Join(dir, "savant-ai", "models")
	if mgr.ModelsDirectory() != want {
		t.Errorf("ModelsDirectory() = %q, want %q", mgr.ModelsDirectory(), want)
	}
}

func TestConvertToMonoAveragesChannels(t *testing.T) {
	stereo := []float32{1.0, 0.0, 0.5, 0.5, -1.0, 1.0}
	mono := ConvertToMono(stereo, 2)
	want := []float32{0.5, 0.5, 0.0}
	if len(mono) != len(want) {
		t.Fatalf("ConvertToMono() len = %d, want %d", len(mono), len(want))
	}
	for i := range want {
		if mono[i] != want[i] {
			t.Errorf("mono[%d] = %v, want %v", i, mono[i], want[i])
		}
	}
}

func TestConvertToMonoPassthroughForMono(t *testing.T) {
	samples := []float32{0.1, 0.2, 0.3}
	got := ConvertToMono(samples, 1)
	if len(got) != len(samples) {
		t.Fatalf("expected passthrough, got len %d", len(got))
	}
}

func TestResampleAudioChangesLength(t *testing.T) {
	samples := make([]float32, 32000) // 2s at 16kHz
	for i := range samples {
		samples[i] = float32(i%100) / 100.0
	}
	resampled := ResampleAudio(samples, 16000, 8000)
	wantLen := 16000
	if diff := len(resampled) - wantLen; diff < -1 || diff > 1 {
		t.Errorf("ResampleAudio() len = %d, want ~%d", len(resampled), wantLen)
	}
}

func TestResampleAudioNoopWhenRatesMatch(t *testing.T) {
	samples := []float32{0.1, 0.2, 0.3}
	got := ResampleAudio(samples, 16000, 16000)
	if len(got) != len(samples) {
		t.Errorf("expected passthrough when rates match, got len %d", len(got))
	}
}

func TestNormalizeAudioScalesToPeak(t *testing.T) {
	samples := []float32{0.1, -0.2, 0.4}
	normalized := NormalizeAudio(samples)
	var peak float32
	for _, s := range normalized {
		if abs := s; abs < 0 {
			abs = -abs
		} else if s > peak {
			peak = s
		}
	}
	if peak < 0.9 || peak > 1.0 {
		t.Errorf("normalized peak = %v, want close to 0.95", peak)
	}
}

func TestNormalizeAudioHandlesSilence(t *testing.T) {
	samples := []float32{0, 0, 0}
	got := NormalizeAudio(samples)
	for _, s := range got {
		if s != 0 {
			t.Errorf("expected silence to remain silent, got %v", s)
		}
	}
}

func TestApplyNoiseGateZeroesQuietSamples(t *testing.T) {
	samples := []float32{0.005, 0.5, -0.002, -0.8}
	gated := ApplyNoiseGate(samples, 0.01)
	want := []float32{0, 0.5, 0, -0.8}
	for i := range want {
		if gated[i] != want[i] {
			t.Errorf("gated[%d] = %v, want %v", i, gated[i], want[i])
		}
	}
}

func TestFormatMarkdownIncludesSegments(t *testing.T) {
	r := Result{
		Text:           "hello world",
		Language:       "en",
		ModelUsed:      "base.en",
		ProcessingTime: 2 * time.Second,
		Segments: []Segment{
			{Text: "hello", StartTime: 0, EndTime: 1.5},
			{Text: "world", StartTime: 1.5, EndTime: 2.8},
		},
	}
	md := FormatMarkdown(r)
	if !contains(md, "hello") || !contains(md, "world") {
		t.Errorf("FormatMarkdown() missing segment text: %s", md)
	}
	if !contains(md, "base.en") {
		t.Errorf("FormatMarkdown() missing model name: %s", md)
	}
}

func TestFormatPlainTranscriptJoinsSegments(t *testing.T) {
	r := Result{Segments: []Segment{
		{Text: "hello"},
		{Text: "world"},
	}}
	got := FormatPlainTranscript(r)
	want := "hello world"
	if got != want {
		t.Errorf("FormatPlainTranscript() = %q, want %q", got, want)
	}
}

func TestProcessorTranscribeFailsWithoutModel(t *testing.T) {
	p := NewProcessor(DefaultConfig())
	if p.IsLoaded() {
		t.Fatal("fresh processor should not report loaded")
	}
	_, err := p.Transcribe(nil, []float32{0, 0, 0}, 16000, 1)
	if err == nil {
		t.Fatal("expected error when transcribing without a loaded model")
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || (len(substr) > 0 && indexOf(s, substr) >= 0))
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
