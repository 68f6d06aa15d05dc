package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/watchloop/observatory/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	ctx := context.Background()
	store, err := storage.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestResourceReaderConversationsReturnsJSON(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if _, err := store.CreateConversation(ctx, nil, nil); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	reader := resourceReader(store)
	content, mimeType, err := reader(ctx, uriConversations)
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	if mimeType != "application/json" {
		t.Errorf("mimeType = %q, want application/json", mimeType)
	}
	if len(content) == 0 {
		t.Error("content is empty")
	}
}

func TestResourceReaderRejectsUnknownURI(t *testing.T) {
	store := newTestStore(t)
	reader := resourceReader(store)
	if _, _, err := reader(context.Background(), "observatory://not-a-resource"); err == nil {
		t.Error("reader(unknown uri): want error, got nil")
	}
}
