package timeline

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestSyncWindowNextWindowAdvancesByNonOverlappingPortion(t *testing.T) {
	start := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	w := NewSyncWindow(start, 30, 5)
	next := w.NextWindow()

	wantStart := start.Add(25 * time.Second)
	if !next.StartTime.Equal(wantStart) {
		t.Errorf("NextWindow().StartTime = %v, want %v", next.StartTime, wantStart)
	}
}

func TestSyncWindowContainsTimestamp(t *testing.T) {
	start := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	w := NewSyncWindow(start, 30, 0)

	if !w.ContainsTimestamp(start.Add(10 * time.Second)) {
		t.Error("expected timestamp inside window to be contained")
	}
	if w.ContainsTimestamp(start.Add(31 * time.Second)) {
		t.Error("expected timestamp past window end to not be contained")
	}
}

func TestSyncWindowOverlapWith(t *testing.T) {
	start := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	a := NewSyncWindow(start, 30, 0)
	b := NewSyncWindow(start.Add(20*time.Second), 30, 0)

	overlap, ok := a.OverlapWith(b)
	if !ok {
		t.Fatal("expected overlapping windows to report an overlap")
	}
	if !overlap.StartTime.Equal(start.Add(20 * time.Second)) {
		t.Errorf("overlap start = %v, want %v", overlap.StartTime, start.Add(20*time.Second))
	}

	c := NewSyncWindow(start.Add(time.Hour), 30, 0)
	if _, ok := a.OverlapWith(c); ok {
		t.Error("expected disjoint windows to report no overlap")
	}
}

func TestManagerAddEventSkipsDuplicateID(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	ev := VideoEvent{EventID: "v1", Time: time.Now(), Type: VideoFrameCaptured, Confidence: 0.9}

	m.AddVideoEvent(ctx, ev)
	m.AddVideoEvent(ctx, ev)

	if got := m.Stats().TotalEvents; got != 1 {
		t.Errorf("TotalEvents after duplicate insert = %d, want 1", got)
	}
}

func TestManagerEventsInWindowFiltersByTimestamp(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	// Recent, since the default retention evicts events older than 24h on insert.
	base := time.Now()

	m.AddVideoEvent(ctx, VideoEvent{EventID: "v1", Time: base, Type: VideoFrameCaptured, Confidence: 0.8})
	m.AddVideoEvent(ctx, VideoEvent{EventID: "v2", Time: base.Add(time.Hour), Type: VideoFrameCaptured, Confidence: 0.8})

	window := NewSyncWindow(base, 30, 0)
	events := m.VideoEventsInWindow(window)
	if len(events) != 1 || events[0].EventID != "v1" {
		t.Errorf("VideoEventsInWindow() = %+v, want only v1", events)
	}
}

func TestManagerCleanupIsIdempotent(t *testing.T) {
	m := NewManagerWithConfig(RetentionPolicy{
		MaxTimelineDuration: time.Hour,
		AutoCleanupEnabled:  true,
	}, DefaultCompactionConfig())
	ctx := context.Background()

	m.AddVideoEvent(ctx, VideoEvent{EventID: "old", Time: time.Now().Add(-2 * time.Hour), Type: VideoFrameCaptured})
	m.AddVideoEvent(ctx, VideoEvent{EventID: "recent", Time: time.Now(), Type: VideoFrameCaptured})

	m.maybeCleanup(ctx)
	afterFirst := m.Stats().TotalEvents

	m.maybeCleanup(ctx)
	afterSecond := m.Stats().TotalEvents

	if afterFirst != afterSecond {
		t.Errorf("cleanup is not idempotent: first=%d second=%d", afterFirst, afterSecond)
	}
	if afterFirst != 1 {
		t.Errorf("TotalEvents after cleanup = %d, want 1 (old event evicted)", afterFirst)
	}
	if _, ok := m.EventByID("old"); ok {
		t.Error("expected evicted event to no longer be indexed")
	}
}

func TestManagerCompactionIsIdempotent(t *testing.T) {
	m := NewManagerWithConfig(DefaultRetentionPolicy(), CompactionConfig{
		Enabled:             true,
		CompactionThreshold: 2,
		MinEventInterval:    time.Second,
	})
	ctx := context.Background()
	// Recent, since the default retention evicts events older than 24h on insert.
	base := time.Now()

	m.AddVideoEvent(ctx, VideoEvent{EventID: "a", Time: base, Type: VideoFrameCaptured})
	m.AddVideoEvent(ctx, VideoEvent{EventID: "b", Time: base.Add(200 * time.Millisecond), Type: VideoFrameCaptured})

	firstCount := m.Stats().TotalEvents
	m.maybeCompact(ctx)
	secondCount := m.Stats().TotalEvents
	m.maybeCompact(ctx)
	thirdCount := m.Stats().TotalEvents

	if firstCount != secondCount || secondCount != thirdCount {
		t.Errorf("compaction changed event count across repeats: %d, %d, %d", firstCount, secondCount, thirdCount)
	}
}

func TestSyncManagerCorrelateEventsSimpleScenario(t *testing.T) {
	s := NewSyncManager(DefaultSyncManagerConfig())
	// Recent, since the default retention evicts events older than 24h on insert.
	base := time.Now()

	ctx := context.Background()
	video :=VideoEvent{EventID: "v1", Time: base, Type: VideoScreenContentChanged, Confidence: 0.85}
	audio := AudioEvent{EventID: "a1", Time: base.Add(400 * time.Millisecond), Type: AudioSpeechStarted, Confidence: 0.8}

	if err := s.AddVideoEvent(ctx, video); err != nil {
		t.Fatalf("AddVideoEvent: %v", err)
	}
	if err := s.AddAudioEvent(ctx, audio); err != nil {
		t.Fatalf("AddAudioEvent: %v", err)
	}

	window := NewSyncWindow(base.Add(-time.Second), 5, 0)
	synced, err := s.SynchronizeWindow(ctx, window)
	if err != nil {
		t.Fatalf("SynchronizeWindow: %v", err)
	}

	if len(synced.Correlations) != 1 {
		t.Fatalf("Correlations = %d, want 1", len(synced.Correlations))
	}
	c := synced.Correlations[0]
	if math.Abs(float64(c.Strength)-0.92) > 0.001 {
		t.Errorf("Strength = %v, want ~0.92", c.Strength)
	}
	if c.TimeOffsetMs != -400 {
		t.Errorf("TimeOffsetMs = %d, want -400", c.TimeOffsetMs)
	}
}

func TestSyncManagerGenerateInsightsSimpleDetectsMultitasking(t *testing.T) {
	s := NewSyncManager(DefaultSyncManagerConfig())

	correlations := make([]EventCorrelation, 0, 4)
	for i := 0; i < 4; i++ {
		correlations = append(correlations, EventCorrelation{
			CorrelationID: "c",
			Strength:      0.5,
			Type:          CorrelationTemporal,
		})
	}

	insights := s.generateInsightsSimple(correlations)
	if len(insights) != 1 {
		t.Fatalf("insights = %d, want 1", len(insights))
	}
	if insights[0].Type != InsightMultitaskingDetected {
		t.Errorf("insight type = %v, want MultitaskingDetected", insights[0].Type)
	}
	if math.Abs(float64(insights[0].Confidence)-0.5) > 0.001 {
		t.Errorf("confidence = %v, want 0.5", insights[0].Confidence)
	}
}

func TestSyncManagerCalculateConfidenceScoresOverallQuality(t *testing.T) {
	s := NewSyncManager(DefaultSyncManagerConfig())
	video := []VideoEvent{{EventID: "v1", Confidence: 0.9}, {EventID: "v2", Confidence: 0.7}}
	audio := []AudioEvent{{EventID: "a1", Confidence: 0.8}}
	correlations := []EventCorrelation{{Strength: 0.92, TimeOffsetMs: -400, Type: CorrelationTemporal}}

	scores := s.calculateConfidenceScores(video, audio, correlations)
	wantQuality := float32(1) / float32(3)
	if math.Abs(float64(scores.OverallSyncQuality-wantQuality)) > 0.001 {
		t.Errorf("OverallSyncQuality = %v, want %v", scores.OverallSyncQuality, wantQuality)
	}
	wantActivity := float32(0.8)
	if math.Abs(float64(scores.ActivityClassification-wantActivity)) > 0.001 {
		t.Errorf("ActivityClassification = %v, want %v", scores.ActivityClassification, wantActivity)
	}
}
