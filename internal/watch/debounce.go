package watch

import (
	"slices"
	"sync"
	"time"
)

// Batcher collects file names and emits them together once no new name has
// arrived for the quiet window. It is safe for concurrent use.
type Batcher struct {
	window time.Duration
	emit   func([]string)

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]bool
	stopped bool
}

// NewBatcher creates a Batcher that waits for window of silence before
// emitting every name seen since the last emission, sorted.
func NewBatcher(window time.Duration, emit func([]string)) *Batcher {
	return &Batcher{
		window:  window,
		emit:    emit,
		pending: make(map[string]bool),
	}
}

// Add records a name and restarts the quiet window.
func (b *Batcher) Add(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}
	b.pending[name] = true

	if b.timer != nil {
		b.timer.Reset(b.window)
		return
	}
	b.timer = time.AfterFunc(b.window, b.flush)
}

func (b *Batcher) flush() {
	b.mu.Lock()
	names := b.drain()
	b.timer = nil
	b.mu.Unlock()
	if len(names) > 0 {
		b.emit(names)
	}
}

// drain must be called with mu held.
func (b *Batcher) drain() []string {
	names := make([]string, 0, len(b.pending))
	for n := range b.pending {
		names = append(names, n)
	}
	clear(b.pending)
	slices.Sort(names)
	return names
}

// Stop cancels the pending timer and emits what was collected. After Stop
// returns, Add is a no-op.
func (b *Batcher) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	names := b.drain()
	b.mu.Unlock()

	if len(names) > 0 {
		b.emit(names)
	}
}
