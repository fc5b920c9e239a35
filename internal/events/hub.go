package events

import (
	"sort"
	"sync"
	"sync/atomic"
)

const subscriberBuffer = 64

// Subscription is one listener on the hub. C is closed by Unsubscribe.
type Subscription struct {
	C chan Event

	types   map[string]bool // empty means every type
	dropped atomic.Int64
}

func (s *Subscription) wants(typ string) bool {
	return len(s.types) == 0 || s.types[typ]
}

// Dropped counts events this subscriber missed because its buffer was full.
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }

// Hub fans crawl events out to subscribers without ever blocking the
// crawler. It remembers the latest event of each type so a new subscriber can
// be told how the last crawl went.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	latest map[string]retained
	seq    uint64
}

type retained struct {
	seq uint64
	e   Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{}), latest: make(map[string]retained)}
}

// Subscribe registers a listener for the given event types, or for all of
// them when none are named.
func (h *Hub) Subscribe(types ...string) *Subscription {
	s := &Subscription{C: make(chan Event, subscriberBuffer)}
	for _, t := range types {
		if t != "" {
			if s.types == nil {
				s.types = make(map[string]bool)
			}
			s.types[t] = true
		}
	}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.C)
}

func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e.Type != TypeCaseEnriched {
		h.seq++
		h.latest[e.Type] = retained{seq: h.seq, e: e}
	}
	for s := range h.subs {
		if !s.wants(e.Type) {
			continue
		}
		select {
		case s.C <- e:
		default:
			s.dropped.Add(1)
		}
	}
}

// Latest returns the most recent event of each requested type (all retained
// types when none are named), oldest first. Per-case events are not retained.
func (h *Hub) Latest(types ...string) []Event {
	h.mu.Lock()
	var kept []retained
	if len(types) == 0 {
		for _, r := range h.latest {
			kept = append(kept, r)
		}
	} else {
		for _, t := range types {
			if r, ok := h.latest[t]; ok {
				kept = append(kept, r)
			}
		}
	}
	h.mu.Unlock()

	sort.Slice(kept, func(i, j int) bool { return kept[i].seq < kept[j].seq })
	out := make([]Event, len(kept))
	for i, r := range kept {
		out[i] = r.e
	}
	return out
}
