package events

import "sync"

// DefaultRecorderCapacity bounds the in-memory event window when callers do
// not specify one.
const DefaultRecorderCapacity = 1024

// Recorder retains the most recent events in memory so the RPC surface can
// serve them to external indexers. The buffer is bounded; once full the
// oldest events are dropped.
type Recorder struct {
	mu       sync.RWMutex
	capacity int
	sequence uint64
	entries  []RecordedEvent
}

// RecordedEvent pairs an emitted event with its position in the append-only
// feed. Sequence numbers are monotonically increasing and never reused.
type RecordedEvent struct {
	Sequence uint64
	Event    Event
}

// NewRecorder constructs a recorder with the provided capacity. Non-positive
// capacities fall back to DefaultRecorderCapacity.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultRecorderCapacity
	}
	return &Recorder{capacity: capacity}
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sequence++
	r.entries = append(r.entries, RecordedEvent{Sequence: r.sequence, Event: evt})
	if len(r.entries) > r.capacity {
		r.entries = r.entries[len(r.entries)-r.capacity:]
	}
}

// Since returns every retained event with a sequence strictly greater than
// the supplied cursor, oldest first.
func (r *Recorder) Since(cursor uint64) []RecordedEvent {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RecordedEvent, 0, len(r.entries))
	for _, entry := range r.entries {
		if entry.Sequence > cursor {
			out = append(out, entry)
		}
	}
	return out
}

// Latest returns up to limit of the most recent events, oldest first.
func (r *Recorder) Latest(limit int) []RecordedEvent {
	if r == nil || limit <= 0 {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit > len(r.entries) {
		limit = len(r.entries)
	}
	out := make([]RecordedEvent, limit)
	copy(out, r.entries[len(r.entries)-limit:])
	return out
}
