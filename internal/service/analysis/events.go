package analysis

import (
	"sync"

	"github.com/google/uuid"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
)

// eventLog is a fixed size ring of engine events; the oldest event is
// overwritten once the ring is full.
type eventLog struct {
	mu    sync.Mutex
	ring  []analysis.Event
	next  int
	full  bool
	clock analysis.Clock
}

func newEventLog(size int, clock analysis.Clock) *eventLog {
	return &eventLog{ring: make([]analysis.Event, size), clock: clock}
}

func (l *eventLog) record(ev analysis.Event) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = l.clock.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.ring[l.next] = ev
	l.next = (l.next + 1) % len(l.ring)
	if l.next == 0 {
		l.full = true
	}
}

// list returns events oldest first.
func (l *eventLog) list() []analysis.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.full {
		return append([]analysis.Event(nil), l.ring[:l.next]...)
	}
	out := make([]analysis.Event, 0, len(l.ring))
	out = append(out, l.ring[l.next:]...)
	return append(out, l.ring[:l.next]...)
}
