package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/watchloop/observatory/internal/orchestrator/memory"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenAppliesMigrations(t *testing.T) {
	store := newTestStore(t)
	var count int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("query schema_migrations: %v", err)
	}
	if count < 3 {
		t.Errorf("applied migrations = %d, want at least 3", count)
	}
}

func TestCreateConversationAndStoreSegment(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	title := "standup"
	convID, err := store.CreateConversation(ctx, &title, nil)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	segID, err := store.StoreSegment(ctx, convID, Segment{
		Speaker:     "alice",
		AudioSource: "microphone",
		Text:        "let's sync on the API",
		StartTime:   0,
		EndTime:     2.5,
	})
	if err != nil {
		t.Fatalf("StoreSegment: %v", err)
	}
	if segID == "" {
		t.Error("expected non-empty segment id")
	}

	segments, err := store.QuerySegments(ctx, Query{ConversationID: &convID})
	if err != nil {
		t.Fatalf("QuerySegments: %v", err)
	}
	if len(segments) != 1 || segments[0].Text != "let's sync on the API" {
		t.Errorf("QuerySegments() = %+v, want one segment with the inserted text", segments)
	}
}

func TestQuerySegmentsFiltersBySpeakerAndText(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	convID, err := store.CreateConversation(ctx, nil, nil)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	seed := []Segment{
		{Speaker: "alice", AudioSource: "mic", Text: "discussing the roadmap"},
		{Speaker: "bob", AudioSource: "mic", Text: "discussing the budget"},
		{Speaker: "alice", AudioSource: "mic", Text: "wrapping up"},
	}
	for _, seg := range seed {
		if _, err := store.StoreSegment(ctx, convID, seg); err != nil {
			t.Fatalf("StoreSegment: %v", err)
		}
	}

	speaker := "alice"
	segments, err := store.QuerySegments(ctx, Query{ConversationID: &convID, Speaker: &speaker})
	if err != nil {
		t.Fatalf("QuerySegments: %v", err)
	}
	if len(segments) != 2 {
		t.Errorf("alice segments = %d, want 2", len(segments))
	}

	text := "budget"
	filtered, err := store.QuerySegments(ctx, Query{ConversationID: &convID, TextContains: &text})
	if err != nil {
		t.Fatalf("QuerySegments: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Speaker != "bob" {
		t.Errorf("text filter = %+v, want bob's segment only", filtered)
	}
}

func TestBatchStoreSatisfiesMemoryStore(t *testing.T) {
	store := newTestStore(t)
	var _ memory.Store = store

	ctx := context.Background()
	items := []memory.Item{
		{Text: "func main() {}", Source: "ocr"},
		{Text: "hello world", Source: "stt"},
	}

	stored, err := store.BatchStore(ctx, items)
	if err != nil {
		t.Fatalf("BatchStore: %v", err)
	}
	if stored != 2 {
		t.Errorf("BatchStore() stored = %d, want 2", stored)
	}
}

func TestTextSearchFindsInsertedSegment(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	convID, err := store.CreateConversation(ctx, nil, nil)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if _, err := store.StoreSegment(ctx, convID, Segment{
		Speaker: "alice", AudioSource: "mic", Text: "two sum algorithm challenge",
	}); err != nil {
		t.Fatalf("StoreSegment: %v", err)
	}

	results, err := store.TextSearch(ctx, "algorithm", 10)
	if err != nil {
		t.Fatalf("TextSearch: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("TextSearch() returned %d results, want 1", len(results))
	}
}

func TestVideoFrameInsertIsIdempotentByHash(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	frame := VideoFrame{TimestampMs: 1000, SessionID: "s1", FrameHash: "abc123", ChangeScore: 0.5}
	id1, err := store.StoreVideoFrame(ctx, frame)
	if err != nil {
		t.Fatalf("StoreVideoFrame: %v", err)
	}
	if _, err := store.StoreVideoFrame(ctx, frame); err != nil {
		t.Fatalf("StoreVideoFrame (duplicate): %v", err)
	}

	var count int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM hf_video_frames WHERE session_id = ?`, "s1").Scan(&count); err != nil {
		t.Fatalf("count frames: %v", err)
	}
	if count != 1 {
		t.Errorf("duplicate frame insert created %d rows, want 1", count)
	}
	if id1 == 0 {
		t.Error("expected non-zero frame id")
	}
}

func TestStoreTextExtractionsAndDetectedTask(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	frameID, err := store.StoreVideoFrame(ctx, VideoFrame{TimestampMs: 2000, SessionID: "s2", FrameHash: "h2", ChangeScore: 0.8})
	if err != nil {
		t.Fatalf("StoreVideoFrame: %v", err)
	}

	err = store.StoreTextExtractions(ctx, frameID, []TextExtraction{
		{WordText: "def", Confidence: 0.95, BBoxX: 10, BBoxY: 10, BBoxWidth: 20, BBoxHeight: 10, LineID: 0, ParagraphID: 0},
		{WordText: "twoSum", Confidence: 0.9, BBoxX: 35, BBoxY: 10, BBoxWidth: 40, BBoxHeight: 10, LineID: 0, ParagraphID: 0},
	})
	if err != nil {
		t.Fatalf("StoreTextExtractions: %v", err)
	}

	var wordCount int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM hf_text_extractions WHERE frame_id = ?`, frameID).Scan(&wordCount); err != nil {
		t.Fatalf("count extractions: %v", err)
	}
	if wordCount != 2 {
		t.Errorf("extraction rows = %d, want 2", wordCount)
	}

	lang := "python"
	platform := "LeetCode"
	if err := store.StoreDetectedTask(ctx, DetectedTask{
		FrameID: &frameID, ProblemType: "algorithm_challenge", Language: &lang, Platform: &platform, Confidence: 0.85,
	}); err != nil {
		t.Fatalf("StoreDetectedTask: %v", err)
	}

	var taskCount int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM hf_detected_tasks WHERE frame_id = ?`, frameID).Scan(&taskCount); err != nil {
		t.Fatalf("count tasks: %v", err)
	}
	if taskCount != 1 {
		t.Errorf("detected task rows = %d, want 1", taskCount)
	}
}

func TestRecentFramesOrdersNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, hash := range []string{"h1", "h2", "h3"} {
		if _, err := store.StoreVideoFrame(ctx, VideoFrame{
			TimestampMs: int64(1000 * (i + 1)), SessionID: "s1", FrameHash: hash, ChangeScore: 0.5,
		}); err != nil {
			t.Fatalf("StoreVideoFrame: %v", err)
		}
	}

	frames, err := store.RecentFrames(ctx, 2)
	if err != nil {
		t.Fatalf("RecentFrames: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("len(frames) = %d, want 2", len(frames))
	}
	if frames[0].FrameHash != "h3" || frames[1].FrameHash != "h2" {
		t.Errorf("frames = %+v, want newest-first [h3, h2]", frames)
	}
}

func TestTextSinceJoinsWordsPerFrame(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	frameID, err := store.StoreVideoFrame(ctx, VideoFrame{TimestampMs: 5000, SessionID: "s1", FrameHash: "h1", ChangeScore: 0.5})
	if err != nil {
		t.Fatalf("StoreVideoFrame: %v", err)
	}
	if err := store.StoreTextExtractions(ctx, frameID, []TextExtraction{
		{WordText: "hello", Confidence: 0.9, LineID: 0, ParagraphID: 0},
		{WordText: "world", Confidence: 0.8, LineID: 0, ParagraphID: 0},
	}); err != nil {
		t.Fatalf("StoreTextExtractions: %v", err)
	}

	lines, err := store.TextSince(ctx, 0, 10)
	if err != nil {
		t.Fatalf("TextSince: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if lines[0].Text != "hello world" {
		t.Errorf("Text = %q, want %q", lines[0].Text, "hello world")
	}
}

func TestSearchFrameTextMatchesSubstring(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	frameID, err := store.StoreVideoFrame(ctx, VideoFrame{TimestampMs: 1000, SessionID: "s1", FrameHash: "h1", ChangeScore: 0.5})
	if err != nil {
		t.Fatalf("StoreVideoFrame: %v", err)
	}
	if err := store.StoreTextExtractions(ctx, frameID, []TextExtraction{
		{WordText: "def", Confidence: 0.9, LineID: 0, ParagraphID: 0},
		{WordText: "twoSum", Confidence: 0.9, LineID: 0, ParagraphID: 0},
	}); err != nil {
		t.Fatalf("StoreTextExtractions: %v", err)
	}

	lines, err := store.SearchFrameText(ctx, "twoSum", 10)
	if err != nil {
		t.Fatalf("SearchFrameText: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}

	none, err := store.SearchFrameText(ctx, "nonexistent", 10)
	if err != nil {
		t.Fatalf("SearchFrameText: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("len(none) = %d, want 0", len(none))
	}
}

func TestCleanupOlderThanPrunesOldFramesOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.StoreVideoFrame(ctx, VideoFrame{TimestampMs: 1000, SessionID: "s1", FrameHash: "old", ChangeScore: 0.5}); err != nil {
		t.Fatalf("StoreVideoFrame: %v", err)
	}
	recentMs := time.Now().UnixMilli()
	if _, err := store.StoreVideoFrame(ctx, VideoFrame{TimestampMs: recentMs, SessionID: "s1", FrameHash: "new", ChangeScore: 0.5}); err != nil {
		t.Fatalf("StoreVideoFrame: %v", err)
	}

	deleted, err := store.CleanupOlderThan(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("CleanupOlderThan: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	frames, err := store.RecentFrames(ctx, 10)
	if err != nil {
		t.Fatalf("RecentFrames: %v", err)
	}
	if len(frames) != 1 || frames[0].FrameHash != "new" {
		t.Errorf("frames after cleanup = %+v, want only the recent frame", frames)
	}
}

func TestSessionFramesOrdersOldestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, hash := range []string{"a", "b"} {
		if _, err := store.StoreVideoFrame(ctx, VideoFrame{
			TimestampMs: int64(1000 * (i + 1)), SessionID: "export-session", FrameHash: hash, ChangeScore: 0.5,
		}); err != nil {
			t.Fatalf("StoreVideoFrame: %v", err)
		}
	}

	frames, err := store.SessionFrames(ctx, "export-session")
	if err != nil {
		t.Fatalf("SessionFrames: %v", err)
	}
	if len(frames) != 2 || frames[0].FrameHash != "a" || frames[1].FrameHash != "b" {
		t.Errorf("frames = %+v, want oldest-first [a, b]", frames)
	}
}

func TestRecordAppUsageAccumulates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.RecordAppUsage(ctx, "vscode", "s1", "2026-07-31", 30); err != nil {
		t.Fatalf("RecordAppUsage: %v", err)
	}
	if err := store.RecordAppUsage(ctx, "vscode", "s1", "2026-07-31", 45); err != nil {
		t.Fatalf("RecordAppUsage: %v", err)
	}

	var total float64
	var switches int
	if err := store.db.QueryRow(`SELECT total_seconds, focus_switches FROM app_usage WHERE app_name = ? AND session_id = ? AND day = ?`,
		"vscode", "s1", "2026-07-31").Scan(&total, &switches); err != nil {
		t.Fatalf("read app_usage: %v", err)
	}
	if total != 75 {
		t.Errorf("total_seconds = %v, want 75", total)
	}
	if switches != 2 {
		t.Errorf("focus_switches = %v, want 2", switches)
	}
}

func TestListConversationsIncludesParticipants(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	convID, err := store.CreateConversation(ctx, nil, nil)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	for _, speaker := range []string{"alice", "bob"} {
		if _, err := store.StoreSegment(ctx, convID, Segment{Speaker: speaker, AudioSource: "mic", Text: "hi"}); err != nil {
			t.Fatalf("StoreSegment: %v", err)
		}
	}

	conversations, err := store.ListConversations(ctx, nil)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(conversations) != 1 {
		t.Fatalf("ListConversations() = %d conversations, want 1", len(conversations))
	}
	if conversations[0].SegmentCount != 2 {
		t.Errorf("SegmentCount = %d, want 2", conversations[0].SegmentCount)
	}
	if len(conversations[0].Participants) != 2 {
		t.Errorf("Participants = %v, want 2 entries", conversations[0].Participants)
	}
}
