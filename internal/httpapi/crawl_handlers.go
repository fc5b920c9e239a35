package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync/atomic"

	"courtparser-engine/internal/scrape/types"
)

type CrawlHandler struct {
	CrawlStatus *atomic.Value // types.ScrapeStatus
	RunCrawl    func(ctx context.Context, regions []string) error
}

type runCrawlReq struct {
	Regions []string `json:"regions"`
}

func (h CrawlHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, _ := h.CrawlStatus.Load().(types.ScrapeStatus)
	WriteJSON(w, http.StatusOK, st)
}

// Run starts a crawl in the background; progress shows up in /crawl/status
// and on /events.
func (h CrawlHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req runCrawlReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}

	st, _ := h.CrawlStatus.Load().(types.ScrapeStatus)
	if st.Running {
		WriteError(w, r, http.StatusConflict, "crawl_running", "a crawl is already running")
		return
	}

	go func() {
		if err := h.RunCrawl(context.Background(), req.Regions); err != nil {
			log.Printf("[crawl] manual run: %v", err)
		}
	}()

	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true, "regions": req.Regions})
}
