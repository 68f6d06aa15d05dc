package speaker

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/watchloop/observatory/internal/apperrors"
	"github.com/watchloop/observatory/internal/trace"
)

// Identifier matches incoming voice/text samples against known speaker
// profiles, backed by the shared relational store's speakers table. The
// embedding cache is exclusively owned here; callers outside this
// package only ever see Match/Speaker snapshots, never the live cache.
type Identifier struct {
	db        *sql.DB
	mu        sync.RWMutex
	cache     map[string]Embedding
	threshold float32
}

// NewIdentifier wraps db (expected to already have the speakers,
// segments, and speaker_aliases tables migrated in).
func NewIdentifier(db *sql.DB) *Identifier {
	return &Identifier{
		db:        db,
		cache:     make(map[string]Embedding),
		threshold: defaultConfidenceThreshold,
	}
}

// LoadEmbeddings populates the in-memory cache from every speaker row
// that has a stored voice embedding. Rows with malformed blobs are
// skipped rather than failing the whole load.
func (id *Identifier) LoadEmbeddings(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "speaker_load_embeddings")
	defer span.End()

	rows, err := id.db.QueryContext(ctx,
		`SELECT id, voice_embedding, confidence_threshold FROM speakers WHERE voice_embedding IS NOT NULL`)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "query speaker embeddings")
	}
	defer rows.Close()

	id.mu.Lock()
	defer id.mu.Unlock()

	loaded := 0
	for rows.Next() {
		var speakerID string
		var blob []byte
		var threshold float32
		if err := rows.Scan(&speakerID, &blob, &threshold); err != nil {
			return apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "scan speaker embedding row")
		}

		vector, err := DeserializeEmbedding(blob)
		if err != nil {
			trace.Logger(ctx).Warn("skipping malformed speaker embedding", "speaker_id", speakerID, "error", err)
			continue
		}

		id.cache[speakerID] = Embedding{Vector: vector, SpeakerID: speakerID, Confidence: threshold}
		loaded++
	}
	span.SetAttr("loaded", loaded)
	return rows.Err()
}

// Identify compares embedding against the cache and returns the best
// match whose similarity clears the speaker's confidence threshold.
// Returns (Match{}, false) when no cached speaker qualifies.
func (id *Identifier) Identify(embedding []float32) (Match, bool) {
	id.mu.RLock()
	defer id.mu.RUnlock()

	var best Match
	var bestSimilarity float32 = -1
	found := false

	for speakerID, cached := range id.cache {
		similarity := CosineSimilarity(embedding, cached.Vector)
		threshold := cached.Confidence
		if threshold <= 0 {
			threshold = id.threshold
		}
		if similarity >= threshold && similarity > bestSimilarity {
			bestSimilarity = similarity
			best = Match{SpeakerID: speakerID, Confidence: similarity, Method: MatchVoiceEmbedding}
			found = true
		}
	}
	return best, found
}

// wake phrases and notification markers used by the text-pattern
// fallback when voice embeddings are unavailable.
var (
	wakePhrases         = []string{"hey siri", "ok google"}
	notificationMarkers = []string{"notification", "alert"}
)

// IdentifyByText is a fallback classifier for when no voice embedding
// is available: it looks for wake phrases (attributed to "user") and
// notification/alert language (attributed to "system").
func IdentifyByText(text string) (Match, bool) {
	lower := strings.ToLower(text)

	for _, phrase := range wakePhrases {
		if strings.Contains(lower, phrase) {
			return Match{SpeakerID: "user", Confidence: 0.8, Method: MatchTextPatterns}, true
		}
	}
	for _, marker := range notificationMarkers {
		if strings.Contains(lower, marker) {
			return Match{SpeakerID: "system", Confidence: 0.7, Method: MatchTextPatterns}, true
		}
	}
	return Match{}, false
}

// CreateSpeaker inserts a new speaker profile, optionally seeded with a
// voice embedding, and returns its generated id.
func (id *Identifier) CreateSpeaker(ctx context.Context, name *string, embedding []float32) (string, error) {
	speakerID := uuid.New().String()
	now := time.Now().UTC()

	var blob []byte
	if embedding != nil {
		blob = SerializeEmbedding(embedding)
	}

	_, err := id.db.ExecContext(ctx,
		`INSERT INTO speakers
		   (id, name, display_name, voice_embedding, confidence_threshold,
		    total_conversation_time, total_conversations, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		speakerID, name, name, blob, id.threshold, now, now)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "insert speaker")
	}

	if embedding != nil {
		id.mu.Lock()
		id.cache[speakerID] = Embedding{Vector: embedding, SpeakerID: speakerID, Confidence: id.threshold}
		id.mu.Unlock()
	}
	return speakerID, nil
}

// UpdateEmbedding folds a new sample into a speaker's stored embedding
// via the exponential moving average (70% existing, 30% new), and
// persists the result in the same call.
func (id *Identifier) UpdateEmbedding(ctx context.Context, speakerID string, newSample []float32) error {
	id.mu.RLock()
	current, ok := id.cache[speakerID]
	id.mu.RUnlock()

	var updated []float32
	if ok {
		updated = weightedAverage(current.Vector, newSample, emaOld, emaNew)
	} else {
		updated = newSample
	}

	blob := SerializeEmbedding(updated)
	_, err := id.db.ExecContext(ctx,
		`UPDATE speakers SET voice_embedding = ?, updated_at = ? WHERE id = ?`,
		blob, time.Now().UTC(), speakerID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "update speaker embedding")
	}

	id.mu.Lock()
	id.cache[speakerID] = Embedding{Vector: updated, SpeakerID: speakerID, Confidence: id.threshold}
	id.mu.Unlock()
	return nil
}

// ListSpeakers returns every speaker profile, ordered by total
// conversation time descending.
func (id *Identifier) ListSpeakers(ctx context.Context) ([]Speaker, error) {
	rows, err := id.db.QueryContext(ctx,
		`SELECT id, name, display_name, confidence_threshold,
		        total_conversation_time, total_conversations,
		        last_interaction, created_at, updated_at
		 FROM speakers
		 ORDER BY total_conversation_time DESC`)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "list speakers")
	}
	defer rows.Close()

	var speakers []Speaker
	for rows.Next() {
		var s Speaker
		var lastInteraction sql.NullTime
		if err := rows.Scan(&s.ID, &s.Name, &s.DisplayName, &s.ConfidenceThreshold,
			&s.TotalConversationTime, &s.TotalConversations,
			&lastInteraction, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "scan speaker row")
		}
		if lastInteraction.Valid {
			s.LastInteraction = &lastInteraction.Time
		}
		speakers = append(speakers, s)
	}
	return speakers, rows.Err()
}

// MergeSpeakers moves every segment from secondary to primary, sums
// their aggregate statistics, records a merge alias, and deletes
// secondary. Runs inside a single transaction so partial merges never
// persist.
func (id *Identifier) MergeSpeakers(ctx context.Context, primaryID, secondaryID string) error {
	tx, err := id.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "begin merge transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE segments SET speaker = ? WHERE speaker = ?`, primaryID, secondaryID); err != nil {
		return apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "reassign segments")
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		UPDATE speakers SET
		  total_conversation_time = total_conversation_time + (
		    SELECT total_conversation_time FROM speakers WHERE id = ?
		  ),
		  total_conversations = total_conversations + (
		    SELECT total_conversations FROM speakers WHERE id = ?
		  ),
		  updated_at = ?
		WHERE id = ?`,
		secondaryID, secondaryID, now, primaryID); err != nil {
		return apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "combine speaker statistics")
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO speaker_aliases (id, primary_speaker_id, alias_name, merge_confidence, source)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), primaryID, fmt.Sprintf("merged_speaker_%s", secondaryID), 1.0, "manual"); err != nil {
		return apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "record merge alias")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM speakers WHERE id = ?`, secondaryID); err != nil {
		return apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "delete merged speaker")
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "commit speaker merge")
	}

	id.mu.Lock()
	delete(id.cache, secondaryID)
	id.mu.Unlock()
	return nil
}

// FindPotentialDuplicates compares every pair of cached embeddings and
// flags pairs with similarity above duplicateThreshold.
func (id *Identifier) FindPotentialDuplicates() []DuplicatePair {
	id.mu.RLock()
	defer id.mu.RUnlock()

	embeddings := make([]Embedding, 0, len(id.cache))
	for _, e := range id.cache {
		embeddings = append(embeddings, e)
	}

	var duplicates []DuplicatePair
	for i := 0; i < len(embeddings); i++ {
		for j := i + 1; j < len(embeddings); j++ {
			similarity := CosineSimilarity(embeddings[i].Vector, embeddings[j].Vector)
			if similarity > duplicateThreshold {
				duplicates = append(duplicates, DuplicatePair{
					SpeakerA:   embeddings[i].SpeakerID,
					SpeakerB:   embeddings[j].SpeakerID,
					Similarity: similarity,
				})
			}
		}
	}
	return duplicates
}
