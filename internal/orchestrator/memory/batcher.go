// Package memory batches ingested activity items before handing them to
// the durable event store, so a burst of frames/utterances produces one
// write instead of many.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/watchloop/observatory/internal/trace"
)

// Item is a unit of activity text queued for storage (an OCR excerpt, a
// transcript segment, a detected UI element description).
type Item struct {
	Text   string
	Source string
}

// Store persists a batch of items and reports how many were accepted.
// Satisfied by internal/storage's event writer.
type Store interface {
	BatchStore(ctx context.Context, items []Item) (int, error)
}

// Batcher accumulates items and flushes them in batches, either once
// maxSize is reached or after flushDelay of inactivity.
type Batcher struct {
	store      Store
	maxSize    int
	flushDelay time.Duration
	mu         sync.Mutex
	items      []Item
	timer      *time.Timer
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

// NewBatcher creates an item batcher writing through store.
func NewBatcher(store Store, maxSize int, flushDelay time.Duration) *Batcher {
	if maxSize <= 0 {
		maxSize = DefaultBatcherMaxSize
	}
	if flushDelay <= 0 {
		flushDelay = DefaultBatcherFlushDelay
	}
	return &Batcher{
		store:      store,
		maxSize:    maxSize,
		flushDelay: flushDelay,
		items:      make([]Item, 0, maxSize),
		stopCh:     make(chan struct{}),
	}
}

// Add queues an item for batched storage.
func (b *Batcher) Add(text, source string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append(b.items, Item{Text: text, Source: source})

	if len(b.items) >= b.maxSize {
		b.flushLocked()
		return
	}

	// Start or reset timer for delayed flush
	if b.timer == nil {
		b.timer = time.AfterFunc(b.flushDelay, b.timerFlush)
	} else {
		b.timer.Reset(b.flushDelay)
	}
}

func (b *Batcher) timerFlush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked()
}

func (b *Batcher) flushLocked() {
	if len(b.items) == 0 {
		return
	}
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	items := b.items
	b.items = make([]Item, 0, b.maxSize)

	if b.store == nil {
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, span := trace.StartSpan(context.Background(), "memory_batch_flush")
		defer span.End()
		span.SetAttr("count", len(items))

		log := trace.Logger(ctx)
		stored, err := b.store.BatchStore(ctx, items)
		if err != nil {
			span.SetAttr("error", err.Error())
			log.Warn("batch store failed", "error", err, "count", len(items))
		} else {
			log.Debug("batch stored", "stored", stored, "submitted", len(items))
		}
	}()
}

// Flush forces immediate flush of pending items.
func (b *Batcher) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked()
}

// Stop stops the batcher and flushes remaining items.
func (b *Batcher) Stop() {
	close(b.stopCh)
	b.Flush()
	b.wg.Wait()
}
