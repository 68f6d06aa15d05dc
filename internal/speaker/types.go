// Package speaker implements voice-embedding-based speaker
// identification: a confidence-thresholded matcher, an exponential
// moving average update rule, profile merge, and duplicate detection.
// Grounded on original_source/crates/savant-db/src/
// speaker_identification.rs.
package speaker

import "time"

// Speaker is one known voice profile.
type Speaker struct {
	ID                    string
	Name                  *string
	DisplayName           *string
	ConfidenceThreshold   float32
	TotalConversationTime float32
	TotalConversations    int64
	LastInteraction       *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Embedding is a fixed-dimension voice biometric vector.
type Embedding struct {
	Vector     []float32
	SpeakerID  string
	Confidence float32
}

// MatchMethod records how a speaker match was produced.
type MatchMethod string

const (
	MatchVoiceEmbedding MatchMethod = "voice_embedding"
	MatchTextPatterns   MatchMethod = "text_patterns"
	MatchManual         MatchMethod = "manual"
	MatchUnknown        MatchMethod = "unknown"
)

// Match is the result of an identification attempt.
type Match struct {
	SpeakerID    string
	Confidence   float32
	Method       MatchMethod
	IsNewSpeaker bool
}

// DuplicatePair names two speakers whose embeddings are suspiciously
// similar.
type DuplicatePair struct {
	SpeakerA   string
	SpeakerB   string
	Similarity float32
}

const (
	// defaultConfidenceThreshold is the minimum cosine similarity an
	// embedding match must clear to be accepted.
	defaultConfidenceThreshold float32 = 0.75
	// duplicateThreshold flags any pair of stored embeddings above
	// this similarity as a likely duplicate profile.
	duplicateThreshold float32 = 0.9
	// emaOld and emaNew weight the running average UpdateEmbedding
	// applies: 70% history, 30% new sample. Identify does not call it,
	// so a match alone leaves the stored embedding unchanged.
	emaOld float32 = 0.7
	emaNew float32 = 0.3
)
