package events

import "ecochain/core/types"

// Event represents a structured state change emitted by an engine.
type Event interface {
	EventType() string
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (gateway streams, the
// audit indexer).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies Emitter while discarding everything. Engines default
// to it so emission is always optional.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Buffer collects events during a transaction so they can be flushed only
// after the state change commits, or dropped on rollback.
type Buffer struct {
	pending []Event
}

// Emit appends the event to the pending buffer.
func (b *Buffer) Emit(e Event) {
	if e == nil {
		return
	}
	b.pending = append(b.pending, e)
}

// Flush forwards all pending events to sink and clears the buffer. A nil sink
// just clears.
func (b *Buffer) Flush(sink Emitter) {
	for _, e := range b.pending {
		if sink != nil {
			sink.Emit(e)
		}
	}
	b.pending = nil
}

// Discard drops all pending events without forwarding them.
func (b *Buffer) Discard() {
	b.pending = nil
}
