// Package eventstream fans out orchestrator.ProcessingEvents to
// websocket subscribers: the live feed behind `cmd/captured status
// --watch`. Grounded on the teacher's cmd/server connection-registry
// idiom (a registered set of live connections, each fed off a fan-out
// point so one slow reader never blocks another), rebuilt here against
// ProcessingEvent instead of the teacher's TranscriptEvent/
// AutoAnswerEvent pair.
package eventstream

import (
	"sync"

	"github.com/watchloop/observatory/internal/orchestrator"
)

// Broadcaster fans out ProcessingEvents to every currently registered
// subscriber. Publish never blocks on a slow subscriber: each
// subscriber owns a bounded channel, and a full channel drops the
// event for that subscriber only, the same non-blocking discipline
// Manager.emit already applies to its own consumers.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[chan orchestrator.ProcessingEvent]struct{}
}

// NewBroadcaster returns an empty Broadcaster ready to accept subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan orchestrator.ProcessingEvent]struct{})}
}

// Subscribe registers a new subscriber and returns its event channel
// plus an unsubscribe function the caller must invoke exactly once
// when done (typically via defer).
func (b *Broadcaster) Subscribe() (<-chan orchestrator.ProcessingEvent, func()) {
	ch := make(chan orchestrator.ProcessingEvent, 32)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}

// Publish fans ev out to every current subscriber.
func (b *Broadcaster) Publish(ev orchestrator.ProcessingEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SubscriberCount reports how many subscribers are currently registered.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
