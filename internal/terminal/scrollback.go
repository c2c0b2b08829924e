package terminal

import (
	"sync"

	"github.com/charmbracelet/x/ansi"
)

// Scrollback is a thread-safe ring buffer keeping the most recent output of
// a session so a reconnecting client can repaint.
type Scrollback struct {
	mu   sync.RWMutex
	data []byte
	head int // index of the oldest byte
	size int // bytes held
}

// NewScrollback creates a buffer holding at most capacity bytes. A zero
// capacity keeps nothing.
func NewScrollback(capacity int) *Scrollback {
	if capacity < 0 {
		capacity = 0
	}
	return &Scrollback{data: make([]byte, capacity)}
}

// Write appends p, evicting the oldest bytes once full. It never fails.
func (b *Scrollback) Write(p []byte) (int, error) {
	n := len(p)
	capacity := len(b.data)
	if capacity == 0 {
		return n, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(p) >= capacity {
		copy(b.data, p[len(p)-capacity:])
		b.head = 0
		b.size = capacity
		return n, nil
	}

	tail := (b.head + b.size) % capacity
	written := copy(b.data[tail:], p)
	copy(b.data, p[written:])

	b.size += len(p)
	if b.size > capacity {
		b.head = (b.head + b.size - capacity) % capacity
		b.size = capacity
	}
	return n, nil
}

// Bytes returns a copy of the buffered output, oldest first.
func (b *Scrollback) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]byte, b.size)
	if b.size == 0 {
		return out
	}
	n := copy(out, b.data[b.head:min(b.head+b.size, len(b.data))])
	copy(out[n:], b.data[:b.size-n])
	return out
}

// Len returns the number of buffered bytes.
func (b *Scrollback) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Reset discards buffered output.
func (b *Scrollback) Reset() {
	b.mu.Lock()
	b.head, b.size = 0, 0
	b.mu.Unlock()
}

// PlainText returns output with terminal escape sequences removed, for
// consumers that want what the user saw rather than how it was drawn.
func PlainText(output []byte) string {
	return ansi.Strip(string(output))
}
