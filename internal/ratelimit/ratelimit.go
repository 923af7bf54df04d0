// Package ratelimit caps per-read chunk size and, optionally, aggregate
// throughput for a stream. Transport uses it both to bound how much a
// single Read call can buffer and as the chunk boundary that drives
// per-file progress events.
package ratelimit

import (
	"io"
	"sync"
	"time"
)

// MaxChunk is the largest read any wrapped reader will return from a
// single Read call, regardless of the caller's buffer size.
const MaxChunk = 64 * 1024

// Limiter controls throughput across all readers sharing it.
// Safe for concurrent use.
type Limiter struct {
	mu        sync.Mutex
	rate      int64 // bytes per second
	available int64
	last      time.Time
}

// NewLimiter creates a limiter that allows bytesPerSec throughput.
func NewLimiter(bytesPerSec int64) *Limiter {
	return &Limiter{
		rate:      bytesPerSec,
		available: bytesPerSec, // start with a full bucket
		last:      time.Now(),
	}
}

// wait blocks until n bytes of capacity are available, then consumes them.
func (l *Limiter) wait(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(l.last)
	l.last = now
	l.available += int64(elapsed.Seconds() * float64(l.rate))
	if l.available > l.rate {
		l.available = l.rate
	}

	l.available -= int64(n)
	if l.available >= 0 {
		return
	}

	deficit := -l.available
	sleepTime := time.Duration(float64(deficit) / float64(l.rate) * float64(time.Second))
	l.mu.Unlock()
	time.Sleep(sleepTime)
	l.mu.Lock()
	l.last = time.Now()
	l.available = 0
}

// chunkedReader wraps an io.Reader, capping every Read at chunkSize and
// invoking onChunk with the number of bytes returned, optionally after
// waiting on a shared Limiter.
type chunkedReader struct {
	r         io.Reader
	chunkSize int
	limiter   *Limiter
	onChunk   func(n int)
}

// NewChunkedReader wraps r so that no single Read returns more than
// chunkSize bytes, calling onChunk after each successful read. Reads
// are not throttled; use NewLimitedReader for that.
func NewChunkedReader(r io.Reader, chunkSize int, onChunk func(n int)) io.Reader {
	return &chunkedReader{r: r, chunkSize: chunkSize, onChunk: onChunk}
}

// NewLimitedReader is like NewChunkedReader but also throttles to
// limiter's configured bytes-per-second rate.
func NewLimitedReader(r io.Reader, chunkSize int, limiter *Limiter, onChunk func(n int)) io.Reader {
	return &chunkedReader{r: r, chunkSize: chunkSize, limiter: limiter, onChunk: onChunk}
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if c.chunkSize > 0 && len(p) > c.chunkSize {
		p = p[:c.chunkSize]
	}

	n, err := c.r.Read(p)
	if n > 0 {
		if c.limiter != nil {
			c.limiter.wait(n)
		}
		if c.onChunk != nil {
			c.onChunk(n)
		}
	}
	return n, err
}
