package daemon

import (
	"sync"
	"time"
)

// debouncer coalesces bursts of triggers into one request on out after the
// input has been quiet for delay. out is buffered by the caller; a request is
// dropped when one is already pending.
type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	out   chan<- struct{}
}

func newDebouncer(delay time.Duration, out chan<- struct{}) *debouncer {
	return &debouncer{delay: delay, out: out}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { request(d.out) })
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

// request enqueues a rebuild unless one is already pending.
func request(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
