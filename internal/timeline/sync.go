package timeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/watchloop/observatory/internal/trace"
)

// CorrelationAlgorithm names a strategy SyncManager can use to link
// video and audio events together. Only TemporalProximity is currently
// implemented; the rest are accepted in SyncManagerConfig so a caller's
// configuration round-trips, matching the teacher's forward-declared
// enum that the Rust original also left partially wired.
type CorrelationAlgorithm string

const (
	AlgorithmTemporalProximity    CorrelationAlgorithm = "temporal_proximity"
	AlgorithmSemanticSimilarity   CorrelationAlgorithm = "semantic_similarity"
	AlgorithmCausalInference      CorrelationAlgorithm = "causal_inference"
	AlgorithmPatternMatching      CorrelationAlgorithm = "pattern_matching"
	AlgorithmStatisticalCorrelation CorrelationAlgorithm = "statistical_correlation"
)

// SyncManagerConfig tunes window sizing and the thresholds the
// correlation and insight passes apply.
type SyncManagerConfig struct {
	DefaultWindowSizeSeconds uint32
	WindowOverlapSeconds     uint32
	MaxTimeOffsetMs          int64
	MinCorrelationStrength   float32
	EnablePredictiveSync     bool
	MaxEventsPerWindow       int
	CorrelationAlgorithms    []CorrelationAlgorithm
}

// DefaultSyncManagerConfig matches the teacher's tuning defaults.
func DefaultSyncManagerConfig() SyncManagerConfig {
	return SyncManagerConfig{
		DefaultWindowSizeSeconds: 30,
		WindowOverlapSeconds:     5,
		MaxTimeOffsetMs:          5000,
		MinCorrelationStrength:   0.3,
		EnablePredictiveSync:     true,
		MaxEventsPerWindow:       100,
		CorrelationAlgorithms: []CorrelationAlgorithm{
			AlgorithmTemporalProximity,
			AlgorithmSemanticSimilarity,
			AlgorithmCausalInference,
		},
	}
}

// SyncManager correlates the video and audio events recorded on a
// Manager's timeline into SynchronizedContexts, the Go analogue of the
// teacher's MultimodalSyncManager.
type SyncManager struct {
	timeline *Manager
	config   SyncManagerConfig
}

// NewSyncManager builds a SyncManager over its own fresh Manager.
func NewSyncManager(config SyncManagerConfig) *SyncManager {
	return &SyncManager{timeline: NewManager(), config: config}
}

// NewSyncManagerOver builds a SyncManager over an existing Manager,
// letting a caller share one timeline across multiple sync policies.
func NewSyncManagerOver(timeline *Manager, config SyncManagerConfig) *SyncManager {
	return &SyncManager{timeline: timeline, config: config}
}

// AddVideoEvent records a video event and triggers a sync pass once
// enough recent events have accumulated.
func (s *SyncManager) AddVideoEvent(ctx context.Context, event VideoEvent) error {
	s.timeline.AddVideoEvent(ctx, event)
	return s.maybeTriggerSync(ctx)
}

// AddAudioEvent records an audio event and triggers a sync pass once
// enough recent events have accumulated.
func (s *SyncManager) AddAudioEvent(ctx context.Context, event AudioEvent) error {
	s.timeline.AddAudioEvent(ctx, event)
	return s.maybeTriggerSync(ctx)
}

// SynchronizeWindow correlates the events inside window and derives
// fused insights and confidence scores from the result.
func (s *SyncManager) SynchronizeWindow(ctx context.Context, window SyncWindow) (SynchronizedContext, error) {
	_, span := trace.StartSpan(ctx, "timeline_synchronize_window")
	defer span.End()

	videoEvents := s.timeline.VideoEventsInWindow(window)
	audioEvents := s.timeline.AudioEventsInWindow(window)

	correlations := s.correlateEventsSimple(videoEvents, audioEvents)
	insights := s.generateInsightsSimple(correlations)
	confidence := s.calculateConfidenceScores(videoEvents, audioEvents, correlations)

	span.SetAttr("video_events", len(videoEvents))
	span.SetAttr("audio_events", len(audioEvents))
	span.SetAttr("correlations", len(correlations))

	return SynchronizedContext{
		Timestamp:        window.StartTime,
		VideoEvents:      videoEvents,
		AudioEvents:      audioEvents,
		Correlations:     correlations,
		FusedInsights:    insights,
		ConfidenceScores: confidence,
	}, nil
}

// GetSynchronizedContext builds a window centered on timestamp and
// synchronizes it.
func (s *SyncManager) GetSynchronizedContext(ctx context.Context, timestamp time.Time) (SynchronizedContext, error) {
	half := time.Duration(s.config.DefaultWindowSizeSeconds/2) * time.Second
	window := NewSyncWindow(timestamp.Add(-half), s.config.DefaultWindowSizeSeconds, s.config.WindowOverlapSeconds)
	return s.SynchronizeWindow(ctx, window)
}

// GetContextTimeline walks non-overlapping windows from start to end,
// synchronizing each one in turn.
func (s *SyncManager) GetContextTimeline(ctx context.Context, start, end time.Time) ([]SynchronizedContext, error) {
	var contexts []SynchronizedContext
	current := start
	for current.Before(end) {
		window := NewSyncWindow(current, s.config.DefaultWindowSizeSeconds, 0)
		if window.EndTime.After(end) {
			break
		}
		ctxResult, err := s.SynchronizeWindow(ctx, window)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, ctxResult)
		current = current.Add(time.Duration(s.config.DefaultWindowSizeSeconds) * time.Second)
	}
	return contexts, nil
}

// maybeTriggerSync synchronizes the trailing window once recent event
// volume crosses half of MaxEventsPerWindow.
func (s *SyncManager) maybeTriggerSync(ctx context.Context) error {
	recent := s.timeline.RecentEventsCount(time.Duration(s.config.DefaultWindowSizeSeconds) * time.Second)
	if recent < s.config.MaxEventsPerWindow/2 {
		return nil
	}

	now := time.Now()
	window := NewSyncWindow(now.Add(-time.Duration(s.config.DefaultWindowSizeSeconds)*time.Second),
		s.config.DefaultWindowSizeSeconds, s.config.WindowOverlapSeconds)
	_, err := s.SynchronizeWindow(ctx, window)
	return err
}

// calculateConfidenceScores derives the six trust metrics from a
// correlated window, matching the teacher's per-field formulas exactly.
func (s *SyncManager) calculateConfidenceScores(videoEvents []VideoEvent, audioEvents []AudioEvent, correlations []EventCorrelation) ConfidenceScores {
	totalEvents := len(videoEvents) + len(audioEvents)
	correlatedEvents := len(correlations)

	var overallSyncQuality float32
	if totalEvents > 0 {
		overallSyncQuality = float32(correlatedEvents) / float32(totalEvents)
	}

	denom := float32(maxInt(len(correlations), 1))

	var temporalSum float32
	for _, c := range correlations {
		offsetScore := float32(1.0) - minFloat32(absInt64(c.TimeOffsetMs)/float32(s.config.MaxTimeOffsetMs), 1.0)
		temporalSum += c.Strength * offsetScore
	}
	temporalAlignment := temporalSum / denom

	var semanticSum float32
	for _, c := range correlations {
		if c.Type == CorrelationSemantic {
			semanticSum += c.Strength
		}
	}
	semanticCoherence := semanticSum / denom

	var causalSum float32
	for _, c := range correlations {
		if c.CausalRelationship != nil {
			causalSum += c.Strength
		}
	}
	causalInference := causalSum / denom

	var speakerSum float32
	for _, c := range correlations {
		if c.Type == CorrelationSpeakerVisual {
			speakerSum += c.Strength
		}
	}
	speakerIdentification := speakerSum / denom

	var activitySum float32
	for _, e := range videoEvents {
		activitySum += e.Confidence
	}
	activityClassification := activitySum / float32(maxInt(len(videoEvents), 1))

	return ConfidenceScores{
		OverallSyncQuality:     overallSyncQuality,
		TemporalAlignment:      temporalAlignment,
		SemanticCoherence:      semanticCoherence,
		CausalInference:        causalInference,
		SpeakerIdentification:  speakerIdentification,
		ActivityClassification: activityClassification,
	}
}

// correlateEventsSimple pairs every video event against every audio
// event in the window and keeps the pairs whose temporal proximity
// clears MinCorrelationStrength, the Go analogue of the teacher's
// correlate_events_simple temporal-proximity pass.
func (s *SyncManager) correlateEventsSimple(videoEvents []VideoEvent, audioEvents []AudioEvent) []EventCorrelation {
	var correlations []EventCorrelation
	for _, v := range videoEvents {
		for _, a := range audioEvents {
			timeDiffMs := v.Timestamp().Sub(a.Timestamp()).Milliseconds()
			if absInt64(timeDiffMs) > s.config.MaxTimeOffsetMs {
				continue
			}
			strength := float32(1.0) - absInt64(timeDiffMs)/float32(s.config.MaxTimeOffsetMs)
			if strength < s.config.MinCorrelationStrength {
				continue
			}
			correlations = append(correlations, EventCorrelation{
				CorrelationID: uuid.New().String(),
				VideoEventID:  v.EventID,
				AudioEventID:  a.EventID,
				Type:          CorrelationTemporal,
				Strength:      strength,
				TimeOffsetMs:  timeDiffMs,
			})
		}
	}
	return correlations
}

// generateInsightsSimple emits a MultitaskingDetected insight once
// correlation volume in the window passes a fixed threshold, the Go
// analogue of the teacher's generate_insights_simple.
func (s *SyncManager) generateInsightsSimple(correlations []EventCorrelation) []FusedInsight {
	if len(correlations) <= 3 {
		return nil
	}

	var strengthSum float32
	supporting := make([]string, 0, len(correlations))
	for _, c := range correlations {
		strengthSum += c.Strength
		supporting = append(supporting, c.CorrelationID)
	}

	return []FusedInsight{{
		InsightID:        uuid.New().String(),
		Type:             InsightMultitaskingDetected,
		Description:      fmt.Sprintf("High activity detected with %d correlated events", len(correlations)),
		SupportingEvents: supporting,
		Confidence:       strengthSum / float32(len(correlations)),
		Actionable:       false,
	}}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minFloat32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func absInt64(v int64) float32 {
	if v < 0 {
		return float32(-v)
	}
	return float32(v)
}
