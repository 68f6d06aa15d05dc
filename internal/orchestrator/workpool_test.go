package orchestrator

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkPoolBoundsConcurrency(t *testing.T) {
	p := &workPool{sem: make(chan struct{}, 2)}

	var current, max int32
	observe := func() {
		n := atomic.AddInt32(&current, 1)
		for {
			m := atomic.LoadInt32(&max)
			if n <= m || atomic.CompareAndSwapInt32(&max, m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&current, -1)
	}

	for i := 0; i < 6; i++ {
		p.run(observe)
	}
	p.wait()

	if max > 2 {
		t.Errorf("observed %d concurrent tasks, want at most 2", max)
	}
}

func TestWorkPoolAcquireRelease(t *testing.T) {
	p := newWorkPool()
	p.acquire()
	done := make(chan struct{})
	go func() {
		p.release()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("release did not unblock a future acquire")
	}
}
