package eventstream

import (
	"testing"
	"time"

	"github.com/watchloop/observatory/internal/orchestrator"
)

func TestBroadcasterPublishReachesAllSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch1, unsub1 := b.Subscribe()
	defer unsub1()
	ch2, unsub2 := b.Subscribe()
	defer unsub2()

	ev := orchestrator.FrameProcessed{FrameID: "f1", Time: time.Now()}
	b.Publish(ev)

	for _, ch := range []<-chan orchestrator.ProcessingEvent{ch1, ch2} {
		select {
		case got := <-ch:
			if got.Kind() != orchestrator.EventFrameProcessed {
				t.Errorf("Kind() = %v, want EventFrameProcessed", got.Kind())
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for published event")
		}
	}
}

func TestBroadcasterUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroadcaster()
	ch, unsub := b.Subscribe()
	unsub()

	b.Publish(orchestrator.FrameProcessed{FrameID: "f1", Time: time.Now()})

	if _, ok := <-ch; ok {
		t.Error("expected channel closed after unsubscribe, got a value")
	}
}

func TestBroadcasterSubscriberCount(t *testing.T) {
	b := NewBroadcaster()
	if got := b.SubscriberCount(); got != 0 {
		t.Fatalf("SubscriberCount() = %d, want 0", got)
	}
	_, unsub := b.Subscribe()
	if got := b.SubscriberCount(); got != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", got)
	}
	unsub()
	if got := b.SubscriberCount(); got != 0 {
		t.Fatalf("SubscriberCount() = %d, want 0 after unsubscribe", got)
	}
}

func TestBroadcasterDropsWhenSubscriberFull(t *testing.T) {
	b := NewBroadcaster()
	_, unsub := b.Subscribe()
	defer unsub()

	for i := 0; i < 64; i++ {
		b.Publish(orchestrator.FrameProcessed{FrameID: "flood", Time: time.Now()})
	}
}
