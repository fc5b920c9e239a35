package poll

import (
	"sync"
	"sync/atomic"
	"time"

	"courtparser-engine/internal/scrape/types"
)

// Tracker keeps the shared crawl status in an atomic.Value the HTTP API reads.
// Several schedule loops may run at once; Running stays true until the last
// one ends.
type Tracker struct {
	mu     sync.Mutex
	active int
	val    *atomic.Value // types.ScrapeStatus
}

func NewTracker(val *atomic.Value) *Tracker {
	if val.Load() == nil {
		val.Store(types.ScrapeStatus{})
	}
	return &Tracker{val: val}
}

func (t *Tracker) Status() types.ScrapeStatus {
	return t.val.Load().(types.ScrapeStatus)
}

func (t *Tracker) Begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active++
	st := t.Status()
	st.Running = true
	st.LastRunAt = time.Now().Format(time.RFC3339)
	t.val.Store(st)
}

func (t *Tracker) End(sum Summary, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active > 0 {
		t.active--
	}
	st := t.Status()
	st.Running = t.active > 0
	st.LastCases = sum.Cases
	st.LastDecisions = sum.Decisions
	if err != nil {
		st.LastError = err.Error()
	} else {
		st.LastError = ""
		st.LastOkAt = time.Now().Format(time.RFC3339)
	}
	t.val.Store(st)
}
