package runner

import (
	"sync"
)

// capBuffer keeps only the first maxBytes written to it. Unlike a tail
// buffer, the head is what matters here: output comparison starts at byte
// zero, and anything past the bound already means the test is errored.
type capBuffer struct {
	maxBytes int

	mu       sync.Mutex
	total    int64
	contents []byte
}

func newCapBuffer(maxBytes int) *capBuffer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxOutputBytes
	}
	return &capBuffer{maxBytes: maxBytes}
}

func (b *capBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	b.total += int64(n)
	if room := b.maxBytes - len(b.contents); room > 0 {
		if len(p) > room {
			p = p[:room]
		}
		b.contents = append(b.contents, p...)
	}
	// Report full success so the child never sees a write error; the
	// truncation is surfaced through the Result instead.
	return n, nil
}

func (b *capBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.contents)
}

func (b *capBuffer) TotalBytes() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

func (b *capBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total > int64(len(b.contents))
}
