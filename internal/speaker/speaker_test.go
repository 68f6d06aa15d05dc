package speaker

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	for _, stmt := range []string{
		`CREATE TABLE speakers (
			id TEXT PRIMARY KEY, name TEXT, display_name TEXT, voice_embedding BLOB,
			confidence_threshold REAL NOT NULL DEFAULT 0.75,
			total_conversation_time REAL NOT NULL DEFAULT 0,
			total_conversations INTEGER NOT NULL DEFAULT 0,
			last_interaction DATETIME, created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL)`,
		`CREATE TABLE segments (id TEXT PRIMARY KEY, speaker TEXT)`,
		`CREATE TABLE speaker_aliases (id TEXT PRIMARY KEY, primary_speaker_id TEXT NOT NULL,
			alias_name TEXT, merge_confidence REAL, source TEXT)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec schema: %v", err)
		}
	}
	return db
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}
	c := []float32{1, 0, 0}

	if got := CosineSimilarity(a, b); got > 1e-6 || got < -1e-6 {
		t.Errorf("orthogonal vectors similarity = %v, want 0", got)
	}
	if got := CosineSimilarity(a, c); got < 0.999999 {
		t.Errorf("identical vectors similarity = %v, want 1", got)
	}
}

func TestCosineSimilarityZeroNorm(t *testing.T) {
	if got := CosineSimilarity([]float32{0, 0}, []float32{1, 2}); got != 0 {
		t.Errorf("zero-norm similarity = %v, want 0", got)
	}
}

func TestEmbeddingSerializationRoundTrip(t *testing.T) {
	original := []float32{1.0, 2.5, -3.7, 0.0}
	blob := SerializeEmbedding(original)
	if len(blob) != len(original)*4 {
		t.Fatalf("blob len = %d, want %d", len(blob), len(original)*4)
	}

	decoded, err := DeserializeEmbedding(blob)
	if err != nil {
		t.Fatalf("DeserializeEmbedding: %v", err)
	}
	for i := range original {
		if diff := decoded[i] - original[i]; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("decoded[%d] = %v, want %v", i, decoded[i], original[i])
		}
	}
}

func TestDeserializeEmbeddingRejectsMisalignedBlob(t *testing.T) {
	if _, err := DeserializeEmbedding([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for blob length not divisible by 4")
	}
}

func TestIdentifyByTextWakePhrase(t *testing.T) {
	match, ok := IdentifyByText("Hey Siri, what's the weather")
	if !ok || match.SpeakerID != "user" || match.Method != MatchTextPatterns {
		t.Errorf("IdentifyByText wake phrase = %+v, %v", match, ok)
	}
}

func TestIdentifyByTextNotificationMarker(t *testing.T) {
	match, ok := IdentifyByText("You have a new notification")
	if !ok || match.SpeakerID != "system" {
		t.Errorf("IdentifyByText notification = %+v, %v", match, ok)
	}
}

func TestIdentifyByTextNoMatch(t *testing.T) {
	if _, ok := IdentifyByText("just a regular sentence"); ok {
		t.Error("expected no match for unremarkable text")
	}
}

func TestCreateAndIdentifySpeaker(t *testing.T) {
	db := newTestDB(t)
	id := NewIdentifier(db)
	ctx := context.Background()

	embedding := make([]float32, 512)
	embedding[0] = 1.0

	speakerID, err := id.CreateSpeaker(ctx, nil, embedding)
	if err != nil {
		t.Fatalf("CreateSpeaker: %v", err)
	}

	match, ok := id.Identify(embedding)
	if !ok || match.SpeakerID != speakerID {
		t.Fatalf("Identify() = %+v, %v, want match on %s", match, ok, speakerID)
	}
}

func TestIdentifyRejectsBelowThreshold(t *testing.T) {
	db := newTestDB(t)
	id := NewIdentifier(db)
	ctx := context.Background()

	embedding := make([]float32, 4)
	embedding[0] = 1.0
	if _, err := id.CreateSpeaker(ctx, nil, embedding); err != nil {
		t.Fatalf("CreateSpeaker: %v", err)
	}

	dissimilar := make([]float32, 4)
	dissimilar[3] = 1.0
	if _, ok := id.Identify(dissimilar); ok {
		t.Error("expected no match for orthogonal embedding")
	}
}

func TestUpdateEmbeddingAppliesEMA(t *testing.T) {
	db := newTestDB(t)
	id := NewIdentifier(db)
	ctx := context.Background()

	initial := []float32{1, 0}
	speakerID, err := id.CreateSpeaker(ctx, nil, initial)
	if err != nil {
		t.Fatalf("CreateSpeaker: %v", err)
	}

	if err := id.UpdateEmbedding(ctx, speakerID, []float32{0, 1}); err != nil {
		t.Fatalf("UpdateEmbedding: %v", err)
	}

	id.mu.RLock()
	updated := id.cache[speakerID].Vector
	id.mu.RUnlock()

	wantX, wantY := float32(0.7), float32(0.3)
	if diff := updated[0] - wantX; diff > 1e-5 || diff < -1e-5 {
		t.Errorf("updated[0] = %v, want %v", updated[0], wantX)
	}
	if diff := updated[1] - wantY; diff > 1e-5 || diff < -1e-5 {
		t.Errorf("updated[1] = %v, want %v", updated[1], wantY)
	}
}

func TestMergeSpeakersTransfersSegmentsAndStats(t *testing.T) {
	db := newTestDB(t)
	id := NewIdentifier(db)
	ctx := context.Background()

	primary, err := id.CreateSpeaker(ctx, nil, nil)
	if err != nil {
		t.Fatalf("CreateSpeaker(primary): %v", err)
	}
	secondary, err := id.CreateSpeaker(ctx, nil, nil)
	if err != nil {
		t.Fatalf("CreateSpeaker(secondary): %v", err)
	}

	if _, err := db.Exec(`UPDATE speakers SET total_conversation_time = 100, total_conversations = 10 WHERE id = ?`, primary); err != nil {
		t.Fatalf("seed primary stats: %v", err)
	}
	if _, err := db.Exec(`UPDATE speakers SET total_conversation_time = 50, total_conversations = 5 WHERE id = ?`, secondary); err != nil {
		t.Fatalf("seed secondary stats: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := db.Exec(`INSERT INTO segments (id, speaker) VALUES (?, ?)`, uuidFor(i), secondary); err != nil {
			t.Fatalf("seed segment: %v", err)
		}
	}

	if err := id.MergeSpeakers(ctx, primary, secondary); err != nil {
		t.Fatalf("MergeSpeakers: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM segments WHERE speaker = ?`, primary).Scan(&count); err != nil {
		t.Fatalf("count segments: %v", err)
	}
	if count != 5 {
		t.Errorf("segments reassigned to primary = %d, want 5", count)
	}

	var totalTime float64
	var totalConvos int64
	if err := db.QueryRow(`SELECT total_conversation_time, total_conversations FROM speakers WHERE id = ?`, primary).
		Scan(&totalTime, &totalConvos); err != nil {
		t.Fatalf("read merged stats: %v", err)
	}
	if totalTime != 150 || totalConvos != 15 {
		t.Errorf("merged stats = (%v, %v), want (150, 15)", totalTime, totalConvos)
	}

	var remaining int
	if err := db.QueryRow(`SELECT COUNT(*) FROM speakers WHERE id = ?`, secondary).Scan(&remaining); err != nil {
		t.Fatalf("count secondary: %v", err)
	}
	if remaining != 0 {
		t.Error("secondary speaker should have been deleted")
	}

	var aliasCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM speaker_aliases WHERE primary_speaker_id = ?`, primary).Scan(&aliasCount); err != nil {
		t.Fatalf("count aliases: %v", err)
	}
	if aliasCount != 1 {
		t.Errorf("alias rows = %d, want 1", aliasCount)
	}
}

func TestFindPotentialDuplicates(t *testing.T) {
	db := newTestDB(t)
	id := NewIdentifier(db)
	ctx := context.Background()

	base := make([]float32, 16)
	base[0] = 1.0
	nearDuplicate := make([]float32, 16)
	nearDuplicate[0] = 0.99
	nearDuplicate[1] = 0.05
	different := make([]float32, 16)
	different[15] = 1.0

	if _, err := id.CreateSpeaker(ctx, nil, base); err != nil {
		t.Fatalf("CreateSpeaker: %v", err)
	}
	if _, err := id.CreateSpeaker(ctx, nil, nearDuplicate); err != nil {
		t.Fatalf("CreateSpeaker: %v", err)
	}
	if _, err := id.CreateSpeaker(ctx, nil, different); err != nil {
		t.Fatalf("CreateSpeaker: %v", err)
	}

	duplicates := id.FindPotentialDuplicates()
	if len(duplicates) != 1 {
		t.Fatalf("FindPotentialDuplicates() returned %d pairs, want 1: %+v", len(duplicates), duplicates)
	}
	if duplicates[0].Similarity <= duplicateThreshold {
		t.Errorf("duplicate similarity = %v, want > %v", duplicates[0].Similarity, duplicateThreshold)
	}
}

func uuidFor(i int) string {
	return "segment-" + string(rune('a'+i))
}
