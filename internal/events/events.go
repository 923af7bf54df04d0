// Package events carries progress notifications from pipeline tasks to a
// renderer, generalizing the teacher's JSON-lines progress.Reporter into a
// typed event bus that can drive either a live terminal renderer or the
// same machine-readable stream.
package events

// EventKind identifies what happened to a named unit of work.
type EventKind int

const (
	Started EventKind = iota
	Progress
	Done
	Close
)

// Event is one notification on the bus. Size is the total expected size
// for a Started event (0 or negative if unknown). Delta is the number of bytes
// transferred since the last Progress event for the same Name. Err is
// set on a Done event that failed.
type Event struct {
	Kind  EventKind
	Name  string
	Size  int64
	Delta int64
	Err   error
}

// Sink is the producer-facing interface: the narrow surface pipeline
// tasks depend on, so tests can assert against a fake instead of driving
// a real renderer.
type Sink interface {
	Started(name string, size int64)
	Progress(name string, delta int64)
	Done(name string, err error)
}

// Bus is a Sink backed by a bounded channel, decoupling producers (which
// must never block on a slow renderer) from whatever is draining Events.
type Bus struct {
	ch chan Event
}

// NewBus creates a bus with the given channel capacity. A capacity of 0
// still works but serializes producers against the renderer.
func NewBus(capacity int) *Bus {
	return &Bus{ch: make(chan Event, capacity)}
}

// Events returns the channel a renderer should range over.
func (b *Bus) Events() <-chan Event {
	return b.ch
}

func (b *Bus) Started(name string, size int64) {
	b.ch <- Event{Kind: Started, Name: name, Size: size}
}

func (b *Bus) Progress(name string, delta int64) {
	b.ch <- Event{Kind: Progress, Name: name, Delta: delta}
}

func (b *Bus) Done(name string, err error) {
	b.ch <- Event{Kind: Done, Name: name, Err: err}
}

// CloseBus sends a final Close event and closes the channel. Call once,
// after every producer goroutine has returned.
func (b *Bus) CloseBus() {
	b.ch <- Event{Kind: Close}
	close(b.ch)
}

// NopSink discards every event. Useful where a Sink is required but no
// rendering is wanted, such as internal diff passes.
type NopSink struct{}

func (NopSink) Started(string, int64)  {}
func (NopSink) Progress(string, int64) {}
func (NopSink) Done(string, error)     {}
