// Package timeline fuses video and audio events into a single ordered
// history, correlates them inside sliding windows, and derives fused
// insights and confidence scores from the correlations found.
// Grounded on original_source/crates/savant-sync/src/{lib,timeline}.rs.
package timeline

import "time"

// EventKind discriminates the concrete type behind a TimelineEvent.
type EventKind int

const (
	EventKindVideo EventKind = iota
	EventKindAudio
	EventKindSync
	EventKindSystem
)

func (k EventKind) String() string {
	switch k {
	case EventKindVideo:
		return "video"
	case EventKindAudio:
		return "audio"
	case EventKindSync:
		return "sync"
	case EventKindSystem:
		return "system"
	default:
		return "unknown"
	}
}

// TimelineEvent is the closed tagged union stored on a Manager's
// timeline: VideoEvent, AudioEvent, SyncEvent, and SystemEvent are its
// only implementations. Callers outside this package switch on Kind(),
// never on the concrete type.
type TimelineEvent interface {
	isTimelineEvent()
	Kind() EventKind
	ID() string
	Timestamp() time.Time
}

// VideoEventType enumerates the kinds of visual events the capture and
// OCR/vision pipelines can emit onto the timeline.
type VideoEventType string

const (
	VideoFrameCaptured        VideoEventType = "frame_captured"
	VideoApplicationDetected  VideoEventType = "application_detected"
	VideoActivityClassified   VideoEventType = "activity_classified"
	VideoScreenContentChanged VideoEventType = "screen_content_changed"
	VideoUIInteraction        VideoEventType = "ui_interaction"
	VideoWindowStateChanged   VideoEventType = "window_state_changed"
	VideoTextExtracted        VideoEventType = "text_extracted"
	VideoErrorDetected        VideoEventType = "error_detected"
)

// VideoEventMetadata carries the optional detail a VideoEvent can attach,
// depending on its VideoEventType.
type VideoEventMetadata struct {
	ApplicationName *string
	ActivityType    *string
	TextContent     *string
	UIElements      []string
	ChangeScore     *float32
}

// VideoEvent is one visual observation, timestamped for correlation
// against the audio timeline.
type VideoEvent struct {
	EventID    string
	Time       time.Time
	Type       VideoEventType
	FrameID    *string
	Metadata   VideoEventMetadata
	Confidence float32
}

func (VideoEvent) isTimelineEvent()        {}
func (e VideoEvent) Kind() EventKind       { return EventKindVideo }
func (e VideoEvent) ID() string            { return e.EventID }
func (e VideoEvent) Timestamp() time.Time  { return e.Time }

// AudioEventType enumerates the kinds of audio events the capture and
// speech pipelines can emit onto the timeline.
type AudioEventType string

const (
	AudioSpeechStarted          AudioEventType = "speech_started"
	AudioSpeechEnded            AudioEventType = "speech_ended"
	AudioSpeakerChanged         AudioEventType = "speaker_changed"
	AudioTranscriptionAvailable AudioEventType = "transcription_available"
	AudioSourceDetected         AudioEventType = "audio_source_detected"
	AudioVolumeChanged          AudioEventType = "volume_changed"
	AudioBackgroundNoiseChanged AudioEventType = "background_noise_changed"
	AudioQualityChanged         AudioEventType = "audio_quality_changed"
)

// AudioEventMetadata carries the optional detail an AudioEvent can attach,
// depending on its AudioEventType.
type AudioEventMetadata struct {
	SpeakerID         *string
	Transcription     *string
	AudioSource       *string
	VolumeLevel       *float32
	AudioQualityScore *float32
	Language          *string
}

// AudioEvent is one auditory observation, timestamped for correlation
// against the video timeline.
type AudioEvent struct {
	EventID    string
	Time       time.Time
	Type       AudioEventType
	SegmentID  *string
	Metadata   AudioEventMetadata
	Confidence float32
}

func (AudioEvent) isTimelineEvent()        {}
func (e AudioEvent) Kind() EventKind       { return EventKindAudio }
func (e AudioEvent) ID() string            { return e.EventID }
func (e AudioEvent) Timestamp() time.Time  { return e.Time }

// SyncEventType names the kind of bookkeeping occurrence a SyncEvent
// records about the sync manager's own operation.
type SyncEventType string

const (
	SyncWindowProcessed      SyncEventType = "window_processed"
	SyncCorrelationDetected  SyncEventType = "correlation_detected"
	SyncInsightGenerated     SyncEventType = "insight_generated"
	SyncIssueDetected        SyncEventType = "sync_issue_detected"
	SyncTimelineCompacted    SyncEventType = "timeline_compacted"
)

// SyncEvent records one occurrence in the sync manager's own operation,
// e.g. a window being processed or a compaction pass running.
type SyncEvent struct {
	EventID        string
	Time           time.Time
	SyncType       SyncEventType
	AffectedEvents []string
	SyncQuality    float32
}

func (SyncEvent) isTimelineEvent()        {}
func (e SyncEvent) Kind() EventKind       { return EventKindSync }
func (e SyncEvent) ID() string            { return e.EventID }
func (e SyncEvent) Timestamp() time.Time  { return e.Time }

// SystemEventType names the kind of operational occurrence a
// SystemEvent records.
type SystemEventType string

const (
	SystemSessionStarted       SystemEventType = "session_started"
	SystemSessionEnded         SystemEventType = "session_ended"
	SystemConfigurationChanged SystemEventType = "configuration_changed"
	SystemErrorOccurred        SystemEventType = "error_occurred"
	SystemPerformanceMetrics   SystemEventType = "performance_metrics"
	SystemDataCompaction       SystemEventType = "data_compaction"
)

// PerformanceMetrics is the optional payload a PerformanceMetrics-typed
// SystemEvent carries.
type PerformanceMetrics struct {
	ProcessingTimeMs  uint64
	MemoryUsageMB     float32
	EventsProcessed   int
	CorrelationsFound int
	SyncQualityScore  float32
}

// SystemEventMetadata carries the optional detail a SystemEvent can
// attach, depending on its SystemEventType.
type SystemEventMetadata struct {
	SessionID       *string
	ErrorMessage    *string
	PerformanceData *PerformanceMetrics
	ConfigChanges   []string
}

// SystemEvent records an operational occurrence such as a session
// boundary, a configuration change, or an error.
type SystemEvent struct {
	EventID  string
	Time     time.Time
	Type     SystemEventType
	Metadata SystemEventMetadata
}

func (SystemEvent) isTimelineEvent()        {}
func (e SystemEvent) Kind() EventKind       { return EventKindSystem }
func (e SystemEvent) ID() string            { return e.EventID }
func (e SystemEvent) Timestamp() time.Time  { return e.Time }

// CorrelationType names the basis on which a video/audio event pair was
// linked.
type CorrelationType string

const (
	CorrelationTemporal         CorrelationType = "temporal"
	CorrelationCausal           CorrelationType = "causal"
	CorrelationSemantic         CorrelationType = "semantic"
	CorrelationSpeakerVisual    CorrelationType = "speaker_visual"
	CorrelationApplicationAudio CorrelationType = "application_audio"
	CorrelationActivityCoherent CorrelationType = "activity_coherent"
)

// CausalRelationship narrows a correlation to a direction of causation,
// when one can be inferred.
type CausalRelationship string

const (
	CausalVideoTriggersAudio CausalRelationship = "video_triggers_audio"
	CausalAudioTriggersVideo CausalRelationship = "audio_triggers_video"
	CausalCommonCause        CausalRelationship = "common_cause"
	CausalCoincidental       CausalRelationship = "coincidental"
)

// EventCorrelation links one video event to one audio event discovered
// within the same sync window.
type EventCorrelation struct {
	CorrelationID      string
	VideoEventID       string
	AudioEventID       string
	Type               CorrelationType
	Strength           float32
	TimeOffsetMs       int64
	CausalRelationship *CausalRelationship
}

// InsightType names the category of a FusedInsight.
type InsightType string

const (
	InsightSpeakerIdentification InsightType = "speaker_identification"
	InsightActivityTransition    InsightType = "activity_transition"
	InsightApplicationAudioMap   InsightType = "application_audio_mapping"
	InsightWorkflowPattern       InsightType = "workflow_pattern"
	InsightProductivityInsight   InsightType = "productivity_insight"
	InsightCollaborationEvent    InsightType = "collaboration_event"
	InsightLearningOpportunity   InsightType = "learning_opportunity"
	InsightProblemIndicator      InsightType = "problem_indicator"
	InsightContextSwitch         InsightType = "context_switch"
	InsightMultitaskingDetected  InsightType = "multitasking_detected"
)

// FusedInsight is a higher-order observation derived from a set of
// correlations, optionally carrying suggested follow-up actions.
type FusedInsight struct {
	InsightID        string
	Type             InsightType
	Description      string
	SupportingEvents []string
	Confidence       float32
	Actionable       bool
	SuggestedActions []string
}

// ConfidenceScores summarizes how much a SynchronizedContext's
// correlations and insights should be trusted.
type ConfidenceScores struct {
	OverallSyncQuality     float32
	TemporalAlignment      float32
	SemanticCoherence      float32
	CausalInference        float32
	SpeakerIdentification  float32
	ActivityClassification float32
}

// SynchronizedContext is the fused result of correlating the video and
// audio events found inside one SyncWindow.
type SynchronizedContext struct {
	Timestamp        time.Time
	VideoEvents      []VideoEvent
	AudioEvents      []AudioEvent
	Correlations     []EventCorrelation
	FusedInsights    []FusedInsight
	ConfidenceScores ConfidenceScores
}

// SyncWindow is a span of time events are correlated within;
// consecutive windows can overlap to avoid missing correlations that
// straddle a boundary.
type SyncWindow struct {
	StartTime         time.Time
	EndTime           time.Time
	WindowSizeSeconds uint32
	OverlapSeconds    uint32
}

// NewSyncWindow builds a window of the given size starting at start.
func NewSyncWindow(start time.Time, windowSizeSeconds, overlapSeconds uint32) SyncWindow {
	return SyncWindow{
		StartTime:         start,
		EndTime:           start.Add(time.Duration(windowSizeSeconds) * time.Second),
		WindowSizeSeconds: windowSizeSeconds,
		OverlapSeconds:    overlapSeconds,
	}
}

// NextWindow returns the window that follows this one, advanced by the
// non-overlapping portion of the window size.
func (w SyncWindow) NextWindow() SyncWindow {
	offset := w.WindowSizeSeconds - w.OverlapSeconds
	newStart := w.StartTime.Add(time.Duration(offset) * time.Second)
	return NewSyncWindow(newStart, w.WindowSizeSeconds, w.OverlapSeconds)
}

// ContainsTimestamp reports whether t falls within [StartTime, EndTime].
func (w SyncWindow) ContainsTimestamp(t time.Time) bool {
	return !t.Before(w.StartTime) && !t.After(w.EndTime)
}

// OverlapWith returns the window covering the intersection of w and
// other, or false if they do not overlap.
func (w SyncWindow) OverlapWith(other SyncWindow) (SyncWindow, bool) {
	start := w.StartTime
	if other.StartTime.After(start) {
		start = other.StartTime
	}
	end := w.EndTime
	if other.EndTime.Before(end) {
		end = other.EndTime
	}
	if !start.Before(end) {
		return SyncWindow{}, false
	}
	duration := uint32(end.Sub(start).Seconds())
	return NewSyncWindow(start, duration, 0), true
}

// Stats summarizes the current contents of a Manager's timeline.
type Stats struct {
	TotalEvents       int
	VideoEvents       int
	AudioEvents       int
	SyncEvents        int
	SystemEvents      int
	EarliestTimestamp *time.Time
	LatestTimestamp   *time.Time
}
