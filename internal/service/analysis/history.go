package analysis

import (
	"container/list"
	"sort"
	"sync"
	"time"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
)

type historyEntry struct {
	resp   *analysis.Response
	stored time.Time
}

// history retains completed responses by id. It is bounded both in size
// (least recently stored or read goes first) and in age.
type history struct {
	mu      sync.Mutex
	order   *list.List
	entries map[string]*list.Element
	size    int
	ttl     time.Duration
	clock   analysis.Clock
}

func newHistory(size int, ttl time.Duration, clock analysis.Clock) *history {
	return &history{
		order:   list.New(),
		entries: make(map[string]*list.Element),
		size:    size,
		ttl:     ttl,
		clock:   clock,
	}
}

func (h *history) add(resp *analysis.Response) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	if el, ok := h.entries[resp.ID]; ok {
		el.Value = &historyEntry{resp: resp, stored: now}
		h.order.MoveToFront(el)
		return
	}
	h.entries[resp.ID] = h.order.PushFront(&historyEntry{resp: resp, stored: now})
	for h.order.Len() > h.size {
		h.removeElement(h.order.Back())
	}
}

func (h *history) get(id string) (*analysis.Response, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	el, ok := h.entries[id]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*historyEntry)
	if h.expired(entry, h.clock.Now()) {
		h.removeElement(el)
		return nil, false
	}
	h.order.MoveToFront(el)
	return entry.resp, true
}

// list returns live responses, most recently stored first.
func (h *history) list() []*analysis.Response {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	var live []*historyEntry
	var stale []*list.Element
	for el := h.order.Front(); el != nil; el = el.Next() {
		entry := el.Value.(*historyEntry)
		if h.expired(entry, now) {
			stale = append(stale, el)
			continue
		}
		live = append(live, entry)
	}
	for _, el := range stale {
		h.removeElement(el)
	}

	// Reads reorder the list, so order by store time
	sort.SliceStable(live, func(i, j int) bool { return live[i].stored.After(live[j].stored) })
	out := make([]*analysis.Response, len(live))
	for i, e := range live {
		out[i] = e.resp
	}
	return out
}

func (h *history) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.order.Len()
}

func (h *history) expired(e *historyEntry, now time.Time) bool {
	return h.ttl > 0 && now.Sub(e.stored) > h.ttl
}

func (h *history) removeElement(el *list.Element) {
	entry := h.order.Remove(el).(*historyEntry)
	delete(h.entries, entry.resp.ID)
}
