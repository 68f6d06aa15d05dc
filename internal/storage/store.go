package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/watchloop/observatory/internal/apperrors"
	"github.com/watchloop/observatory/internal/orchestrator/memory"
	"github.com/watchloop/observatory/internal/trace"
)

// Store is the top-level database handle: conversation/segment CRUD,
// filtered queries, full-text search, and the high-frequency tier
// writers. Satisfies internal/orchestrator/memory.Store.
type Store struct {
	db *sql.DB
}

var _ memory.Store = (*Store)(nil)

// Open connects to (creating if necessary) the sqlite database at
// path and applies any pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindFatal, apperrors.CodeSchemaCorrupt, "open database")
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindFatal, apperrors.CodeSchemaCorrupt, "set busy_timeout")
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindFatal, apperrors.CodeSchemaCorrupt, "enable foreign_keys")
	}

	m, err := newMigrator(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := m.migrateUp(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// DefaultPath returns the conventional database location under a
// user-data directory: dataDir/savant-ai/transcripts.db.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "savant-ai", "transcripts.db")
}

// DB exposes the underlying connection pool for packages (speaker,
// query) that need to share it rather than open their own.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// CreateConversation inserts a new conversation and returns its id.
func (s *Store) CreateConversation(ctx context.Context, title, context_ *string) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, title, start_time, context) VALUES (?, ?, ?, ?)`,
		id, title, now, context_)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "insert conversation")
	}
	return id, nil
}

// StoreSegment inserts one transcript segment against conversationID
// under seg.ID, or under a freshly generated id when seg.ID is empty.
// Inserting an id that already exists fails.
func (s *Store) StoreSegment(ctx context.Context, conversationID string, seg Segment) (string, error) {
	id := seg.ID
	if id == "" {
		id = uuid.New().String()
	}
	timestamp := seg.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO segments
		   (id, conversation_id, timestamp, speaker, audio_source, text, start_time, end_time, confidence, metadata_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, conversationID, timestamp, seg.Speaker, seg.AudioSource, seg.Text,
		seg.StartTime, seg.EndTime, seg.Confidence, seg.MetadataJSON)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "insert segment")
	}
	return id, nil
}

// BatchStore implements memory.Store: each batched item becomes one
// segment under a freshly created untitled conversation, attributed to
// its source (ocr/stt/vision) rather than a named speaker.
func (s *Store) BatchStore(ctx context.Context, items []memory.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	ctx, span := trace.StartSpan(ctx, "storage_batch_store")
	defer span.End()

	convID, err := s.CreateConversation(ctx, nil, nil)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "begin batch store transaction")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO segments (id, conversation_id, timestamp, speaker, audio_source, text, start_time, end_time)
		 VALUES (?, ?, ?, ?, ?, ?, 0, 0)`)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "prepare batch insert")
	}
	defer stmt.Close()

	stored := 0
	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, uuid.New().String(), convID, now, "unknown", item.Source, item.Text); err != nil {
			span.SetAttr("error", err.Error())
			continue
		}
		stored++
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "commit batch store")
	}
	span.SetAttr("stored", stored)
	return stored, nil
}

// QuerySegments composes q's optional filters into a parameterized
// SELECT, ordered by timestamp and paginated by limit/offset.
func (s *Store) QuerySegments(ctx context.Context, q Query) ([]Segment, error) {
	var b strings.Builder
	b.WriteString(`SELECT id, conversation_id, timestamp, speaker, audio_source, text, start_time, end_time, confidence, metadata_json FROM segments WHERE 1=1`)
	var args []any

	if q.ConversationID != nil {
		b.WriteString(" AND conversation_id = ?")
		args = append(args, *q.ConversationID)
	}
	if q.Speaker != nil {
		b.WriteString(" AND speaker = ?")
		args = append(args, *q.Speaker)
	}
	if q.AudioSource != nil {
		b.WriteString(" AND audio_source = ?")
		args = append(args, *q.AudioSource)
	}
	if q.TextContains != nil {
		b.WriteString(" AND text LIKE ?")
		args = append(args, "%"+*q.TextContains+"%")
	}
	if q.StartTime != nil {
		b.WriteString(" AND timestamp >= ?")
		args = append(args, *q.StartTime)
	}
	if q.EndTime != nil {
		b.WriteString(" AND timestamp <= ?")
		args = append(args, *q.EndTime)
	}

	b.WriteString(" ORDER BY timestamp")

	limit := int64(100)
	if q.Limit != nil {
		limit = *q.Limit
	}
	b.WriteString(" LIMIT ?")
	args = append(args, limit)

	if q.Offset != nil {
		b.WriteString(" OFFSET ?")
		args = append(args, *q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "query segments")
	}
	defer rows.Close()

	var segments []Segment
	for rows.Next() {
		var seg Segment
		if err := rows.Scan(&seg.ID, &seg.ConversationID, &seg.Timestamp, &seg.Speaker, &seg.AudioSource,
			&seg.Text, &seg.StartTime, &seg.EndTime, &seg.Confidence, &seg.MetadataJSON); err != nil {
			return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "scan segment row")
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// GetSpeakerStats aggregates conversation time, segment count, and
// average confidence by speaker.
func (s *Store) GetSpeakerStats(ctx context.Context) ([]SpeakerStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT speaker,
		       COUNT(DISTINCT conversation_id) AS conversation_count,
		       SUM(end_time - start_time) AS total_duration,
		       COUNT(*) AS total_segments,
		       AVG(COALESCE(confidence, 0.0)) AS avg_confidence
		FROM segments
		GROUP BY speaker
		ORDER BY total_duration DESC`)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "query speaker stats")
	}
	defer rows.Close()

	var stats []SpeakerStats
	for rows.Next() {
		var st SpeakerStats
		if err := rows.Scan(&st.Speaker, &st.ConversationCount, &st.TotalDurationSeconds,
			&st.TotalSegments, &st.AvgConfidence); err != nil {
			return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "scan speaker stats row")
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// ListConversations returns conversations newest-first, each annotated
// with its segment count, summed duration, and distinct speakers.
func (s *Store) ListConversations(ctx context.Context, limit *int64) ([]Conversation, error) {
	query := `
		SELECT c.id, c.title, c.start_time, c.end_time, c.context,
		       COUNT(seg.id) AS segment_count,
		       COALESCE(SUM(seg.end_time - seg.start_time), 0) AS total_duration,
		       GROUP_CONCAT(DISTINCT seg.speaker) AS participants
		FROM conversations c
		LEFT JOIN segments seg ON c.id = seg.conversation_id
		GROUP BY c.id
		ORDER BY c.start_time DESC`
	args := []any{}
	if limit != nil {
		query += " LIMIT ?"
		args = append(args, *limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "list conversations")
	}
	defer rows.Close()

	var conversations []Conversation
	for rows.Next() {
		var c Conversation
		var participants sql.NullString
		if err := rows.Scan(&c.ID, &c.Title, &c.StartTime, &c.EndTime, &c.Context,
			&c.SegmentCount, &c.TotalDuration, &participants); err != nil {
			return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "scan conversation row")
		}
		if participants.Valid && participants.String != "" {
			for _, p := range strings.Split(participants.String, ",") {
				c.Participants = append(c.Participants, strings.TrimSpace(p))
			}
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

// ExportConversation returns every segment belonging to conversationID
// alongside export metadata, ready for JSON serialization by a caller.
func (s *Store) ExportConversation(ctx context.Context, conversationID string) (map[string]any, error) {
	convID := conversationID
	segments, err := s.QuerySegments(ctx, Query{ConversationID: &convID})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"conversation_id": conversationID,
		"exported_at":     time.Now().UTC(),
		"segments":        segments,
	}, nil
}

// TextSearch runs a full-text query over segment text via the
// segments_fts virtual table, returning the matching segments ranked by
// relevance.
func (s *Store) TextSearch(ctx context.Context, query string, limit int) ([]Segment, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.conversation_id, s.timestamp, s.speaker, s.audio_source,
		       s.text, s.start_time, s.end_time, s.confidence, s.metadata_json
		FROM segments_fts f
		JOIN segments s ON s.rowid = f.rowid
		WHERE segments_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "full-text search")
	}
	defer rows.Close()

	var segments []Segment
	for rows.Next() {
		var seg Segment
		if err := rows.Scan(&seg.ID, &seg.ConversationID, &seg.Timestamp, &seg.Speaker, &seg.AudioSource,
			&seg.Text, &seg.StartTime, &seg.EndTime, &seg.Confidence, &seg.MetadataJSON); err != nil {
			return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "scan search result row")
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// StoreVideoFrame upserts one high-frequency frame row, ignoring
// duplicate (session_id, frame_hash) pairs so repeated ingestion of the
// same frame is idempotent.
func (s *Store) StoreVideoFrame(ctx context.Context, f VideoFrame) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO hf_video_frames
		  (timestamp_ms, session_id, frame_hash, change_score, file_path, screen_resolution, active_app, processing_flags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, frame_hash) DO NOTHING`,
		f.TimestampMs, f.SessionID, f.FrameHash, f.ChangeScore, f.FilePath, f.ScreenResolution, f.ActiveApp, f.ProcessingFlags)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "insert video frame")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "read inserted frame id")
	}
	return id, nil
}

// StoreTextExtractions bulk-inserts one OCR pass's word rows against
// frameID.
func (s *Store) StoreTextExtractions(ctx context.Context, frameID int64, words []TextExtraction) error {
	if len(words) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "begin text extraction batch")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO hf_text_extractions
		  (frame_id, word_text, confidence, bbox_x, bbox_y, bbox_width, bbox_height, font_size_estimate, text_type, line_id, paragraph_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "prepare text extraction insert")
	}
	defer stmt.Close()

	for _, w := range words {
		if _, err := stmt.ExecContext(ctx, frameID, w.WordText, w.Confidence,
			w.BBoxX, w.BBoxY, w.BBoxWidth, w.BBoxHeight, w.FontSizeEstimate, w.TextType, w.LineID, w.ParagraphID); err != nil {
			return apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "insert text extraction row")
		}
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "commit text extraction batch")
	}
	return nil
}

// StoreDetectedTask persists one reactive-detector finding.
func (s *Store) StoreDetectedTask(ctx context.Context, task DetectedTask) error {
	id := task.ID
	if id == "" {
		id = uuid.New().String()
	}
	detectedAt := task.DetectedAt
	if detectedAt.IsZero() {
		detectedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hf_detected_tasks
		  (id, frame_id, detected_at, problem_type, language, platform, confidence, problem_text, solution_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, task.FrameID, detectedAt, task.ProblemType, task.Language, task.Platform,
		task.Confidence, task.ProblemText, task.SolutionCode)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "insert detected task")
	}
	return nil
}

// RecentFrames returns the most recently captured high-frequency frames,
// newest first.
func (s *Store) RecentFrames(ctx context.Context, limit int) ([]VideoFrame, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp_ms, session_id, frame_hash, change_score, file_path, screen_resolution, active_app, processing_flags
		FROM hf_video_frames ORDER BY timestamp_ms DESC LIMIT ?`, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "query recent frames")
	}
	defer rows.Close()

	var frames []VideoFrame
	for rows.Next() {
		var f VideoFrame
		if err := rows.Scan(&f.ID, &f.TimestampMs, &f.SessionID, &f.FrameHash, &f.ChangeScore,
			&f.FilePath, &f.ScreenResolution, &f.ActiveApp, &f.ProcessingFlags); err != nil {
			return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "scan frame row")
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// OCRLine is one extracted-text row joined back to its source frame's
// timestamp, the shape `captured ocr` reports.
type OCRLine struct {
	FrameID     int64
	TimestampMs int64
	Text        string
	Confidence  float64
}

// TextSince returns every distinct OCR word run captured at or after
// sinceMs, most recent frame first, each row's Text joining that
// frame's words in extraction order.
func (s *Store) TextSince(ctx context.Context, sinceMs int64, limit int) ([]OCRLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.timestamp_ms, GROUP_CONCAT(t.word_text, ' '), AVG(t.confidence)
		FROM hf_video_frames f
		JOIN hf_text_extractions t ON t.frame_id = f.id
		WHERE f.timestamp_ms >= ?
		GROUP BY f.id
		ORDER BY f.timestamp_ms DESC
		LIMIT ?`, sinceMs, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "query extracted text")
	}
	defer rows.Close()

	var lines []OCRLine
	for rows.Next() {
		var l OCRLine
		if err := rows.Scan(&l.FrameID, &l.TimestampMs, &l.Text, &l.Confidence); err != nil {
			return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "scan text row")
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// SearchFrameText returns on-screen OCR text whose word run contains
// query as a substring, most recent frame first. There is no FTS table
// over hf_text_extractions (unlike segments_fts for conversation text)
// since high-frequency OCR rows churn too fast to justify an index;
// a LIKE scan over the grouped text is adequate at this tier's retention
// window (`cleanup --older-than` keeps it bounded).
func (s *Store) SearchFrameText(ctx context.Context, query string, limit int) ([]OCRLine, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp_ms, text, confidence FROM (
			SELECT f.id AS id, f.timestamp_ms AS timestamp_ms,
			       GROUP_CONCAT(t.word_text, ' ') AS text, AVG(t.confidence) AS confidence
			FROM hf_video_frames f
			JOIN hf_text_extractions t ON t.frame_id = f.id
			GROUP BY f.id
		) WHERE text LIKE '%' || ? || '%'
		ORDER BY timestamp_ms DESC
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "search frame text")
	}
	defer rows.Close()

	var lines []OCRLine
	for rows.Next() {
		var l OCRLine
		if err := rows.Scan(&l.FrameID, &l.TimestampMs, &l.Text, &l.Confidence); err != nil {
			return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "scan search row")
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// CleanupOlderThan deletes every high-frequency frame (and its cascaded
// text extractions/detected tasks) whose timestamp is before cutoff,
// and returns the number of frames removed. Conversations/segments are
// untouched: cleanup only ever prunes the high-frequency tier, per
// spec.md's `cleanup --older-than DAYS` scope.
func (s *Store) CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UnixMilli()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "begin cleanup transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM hf_text_extractions WHERE frame_id IN (SELECT id FROM hf_video_frames WHERE timestamp_ms < ?)`, cutoffMs); err != nil {
		return 0, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "cleanup text extractions")
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM hf_detected_tasks WHERE frame_id IN (SELECT id FROM hf_video_frames WHERE timestamp_ms < ?)`, cutoffMs); err != nil {
		return 0, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "cleanup detected tasks")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM hf_video_frames WHERE timestamp_ms < ?`, cutoffMs)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "cleanup video frames")
	}
	if err := tx.Commit(); err != nil {
		return 0, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "commit cleanup")
	}
	return res.RowsAffected()
}

// SessionFrames returns every frame captured under sessionID, oldest
// first, for `captured export --session ID`.
func (s *Store) SessionFrames(ctx context.Context, sessionID string) ([]VideoFrame, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp_ms, session_id, frame_hash, change_score, file_path, screen_resolution, active_app, processing_flags
		FROM hf_video_frames WHERE session_id = ? ORDER BY timestamp_ms ASC`, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "query session frames")
	}
	defer rows.Close()

	var frames []VideoFrame
	for rows.Next() {
		var f VideoFrame
		if err := rows.Scan(&f.ID, &f.TimestampMs, &f.SessionID, &f.FrameHash, &f.ChangeScore,
			&f.FilePath, &f.ScreenResolution, &f.ActiveApp, &f.ProcessingFlags); err != nil {
			return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "scan frame row")
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// RecordAppUsage accumulates focus time for app on session/day,
// incrementing focus_switches on each call.
func (s *Store) RecordAppUsage(ctx context.Context, appName, sessionID, day string, seconds float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_usage (app_name, session_id, day, total_seconds, focus_switches)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(app_name, session_id, day) DO UPDATE SET
		  total_seconds = total_seconds + excluded.total_seconds,
		  focus_switches = focus_switches + 1`,
		appName, sessionID, day, seconds)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, fmt.Sprintf("record app usage for %s", appName))
	}
	return nil
}
