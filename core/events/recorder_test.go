package events

import (
	"fmt"
	"testing"
)

type testEvent string

func (e testEvent) EventType() string { return string(e) }

func TestRecorderRetainsRecentEvents(t *testing.T) {
	recorder := NewRecorder(3)
	for i := 1; i <= 5; i++ {
		recorder.Emit(testEvent(fmt.Sprintf("evt-%d", i)))
	}

	latest := recorder.Latest(10)
	if len(latest) != 3 {
		t.Fatalf("retained %d events, want 3", len(latest))
	}
	if latest[0].Event.EventType() != "evt-3" || latest[2].Event.EventType() != "evt-5" {
		t.Fatalf("unexpected window: %v", latest)
	}
	// sequence numbers survive eviction
	if latest[0].Sequence != 3 || latest[2].Sequence != 5 {
		t.Fatalf("unexpected sequences: %v", latest)
	}
}

func TestRecorderSince(t *testing.T) {
	recorder := NewRecorder(10)
	for i := 1; i <= 4; i++ {
		recorder.Emit(testEvent(fmt.Sprintf("evt-%d", i)))
	}

	tail := recorder.Since(2)
	if len(tail) != 2 {
		t.Fatalf("since(2) returned %d events, want 2", len(tail))
	}
	if tail[0].Sequence != 3 || tail[1].Sequence != 4 {
		t.Fatalf("unexpected tail: %v", tail)
	}
	if len(recorder.Since(99)) != 0 {
		t.Fatalf("future cursor must return nothing")
	}
}
