package httpapi

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"courtparser-engine/internal/events"
	"courtparser-engine/internal/scrape/types"
)

const defaultKeepalive = 20 * time.Second

// EventsHandler streams crawl events as server-sent events. Each frame is
// named after its event type, so a browser EventSource can listen per type.
type EventsHandler struct {
	Hub         *events.Hub
	CrawlStatus *atomic.Value // types.ScrapeStatus
	Keepalive   time.Duration
}

// ServeSSE accepts ?type=crawl_finished,batch_published to narrow the stream.
// A new client first gets the tracker state as a crawl_status event, then the
// latest retained crawl events, then live ones.
func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	filter := queryList(r.URL.Query(), "type")
	for _, t := range filter {
		if !slices.Contains(events.Types, t) {
			WriteError(w, r, http.StatusBadRequest, "unknown_event_type",
				fmt.Sprintf("unknown event type %q, want one of %s", t, strings.Join(events.Types, ",")))
			return
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "streaming unsupported")
		return
	}

	sub := h.Hub.Subscribe(filter...)
	defer h.Hub.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	var seq int
	send := func(e events.Event) error {
		seq++
		if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, e.Type, e.JSON()); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	reqID := RequestIDFrom(r.Context())
	if len(filter) == 0 || slices.Contains(filter, events.TypeCrawlStatus) {
		var st types.ScrapeStatus
		if h.CrawlStatus != nil {
			st, _ = h.CrawlStatus.Load().(types.ScrapeStatus)
		}
		if send(events.MakeEvent(reqID, events.TypeCrawlStatus, 1, st)) != nil {
			return
		}
	}
	// an event published during replay may arrive twice
	for _, e := range h.Hub.Latest(filter...) {
		if send(e) != nil {
			return
		}
	}

	every := h.Keepalive
	if every <= 0 {
		every = defaultKeepalive
	}
	tick := time.NewTicker(every)
	defer tick.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			if send(e) != nil {
				return
			}
		}
	}
}
