package memory

import (
	"context"
	"sync"
	"testing"
	"time"
)

type mockStore struct {
	mu    sync.Mutex
	calls [][]Item
	err   error
}

func (m *mockStore) BatchStore(_ context.Context, items []Item) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, items)
	if m.err != nil {
		return 0, m.err
	}
	return len(items), nil
}

func (m *mockStore) getCalls() [][]Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestBatcher_FlushOnMaxSize(t *testing.T) {
	mock := &mockStore{}
	b := NewBatcher(mock, 3, time.Hour)

	b.Add("a", "audio")
	b.Add("b", "audio")
	if len(b.items) != 2 {
		t.Errorf("expected 2 items before flush, got %d", len(b.items))
	}

	b.Add("c", "audio")
	b.wg.Wait()

	if len(b.items) != 0 {
		t.Errorf("expected items cleared after max-size flush, got %d", len(b.items))
	}
	calls := mock.getCalls()
	if len(calls) != 1 || len(calls[0]) != 3 {
		t.Errorf("expected one flush of 3 items, got %v", calls)
	}
}

func TestBatcher_AddAccumulatesItems(t *testing.T) {
	b := NewBatcher(nil, 100, time.Hour)

	b.mu.Lock()
	b.items = append(b.items, Item{Text: "test1", Source: "audio"})
	b.items = append(b.items, Item{Text: "test2", Source: "screen"})
	count := len(b.items)
	b.mu.Unlock()

	if count != 2 {
		t.Errorf("expected 2 items, got %d", count)
	}
}

func TestBatcher_StopFlushesRemaining(t *testing.T) {
	mock := &mockStore{}
	b := NewBatcher(mock, 100, time.Hour)

	b.Add("remaining", "audio")
	b.Stop()

	calls := mock.getCalls()
	if len(calls) != 1 || len(calls[0]) != 1 {
		t.Errorf("expected stop to flush remaining item, got %v", calls)
	}
}
