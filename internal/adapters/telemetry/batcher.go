// Package telemetry turns scheduler spans into renderer events through OpenTelemetry.
package telemetry

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

const (
	// DefaultSizeLimit is the pending byte count that forces a flush.
	DefaultSizeLimit = 4096
	// DefaultTimeLimit is how long output may stay buffered.
	DefaultTimeLimit = 50 * time.Millisecond
)

var errBatcherClosed = errors.New("output batcher is closed")

// OutputBatcher coalesces task output into chunks before handing it to a renderer.
// A flush happens when sizeLimit bytes are pending or timeLimit after the first
// buffered write. It is safe for concurrent use.
type OutputBatcher struct {
	sizeLimit int
	timeLimit time.Duration
	onFlush   func([]byte)

	mu      sync.Mutex
	pending bytes.Buffer
	timer   *time.Timer
	closed  bool
}

// NewOutputBatcher returns an OutputBatcher. Non-positive limits select the defaults.
func NewOutputBatcher(sizeLimit int, timeLimit time.Duration, onFlush func([]byte)) *OutputBatcher {
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}
	return &OutputBatcher{
		sizeLimit: sizeLimit,
		timeLimit: timeLimit,
		onFlush:   onFlush,
	}
}

// Write buffers p.
func (b *OutputBatcher) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, errBatcherClosed
	}

	n, _ := b.pending.Write(p)
	switch {
	case b.pending.Len() >= b.sizeLimit:
		b.flushLocked()
	case b.timer == nil:
		b.timer = time.AfterFunc(b.timeLimit, b.Flush)
	}
	return n, nil
}

// Flush hands pending output to the callback.
func (b *OutputBatcher) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked()
}

// Close flushes pending output and rejects further writes.
func (b *OutputBatcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.flushLocked()
	b.closed = true
	return nil
}

// flushLocked must be called with mu held. Holding the lock keeps chunks
// ordered, so onFlush must not block.
func (b *OutputBatcher) flushLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if b.pending.Len() == 0 {
		return
	}

	data := bytes.Clone(b.pending.Bytes())
	b.pending.Reset()
	if b.onFlush != nil {
		b.onFlush(data)
	}
}
