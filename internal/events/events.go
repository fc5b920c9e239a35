package events

import (
	"encoding/json"
	"time"
)

const (
	TypeCrawlStarted   = "crawl_started"
	TypeCrawlFinished  = "crawl_finished"
	TypeCaseEnriched   = "case_enriched"
	TypeBatchPublished = "batch_published"

	// TypeCrawlStatus greets every SSE client with the tracker state.
	TypeCrawlStatus = "crawl_status"
)

// Types lists every event type a client may filter on.
var Types = []string{TypeCrawlStatus, TypeCrawlStarted, TypeCrawlFinished, TypeCaseEnriched, TypeBatchPublished}

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type CrawlStarted struct {
	RunID   string   `json:"runId"`
	Unit    string   `json:"unit"`
	Regions []string `json:"regions,omitempty"`
}

type CrawlFinished struct {
	RunID        string `json:"runId"`
	Unit         string `json:"unit"`
	Cases        int    `json:"cases"`
	WithDecision int    `json:"withDecision"`
	Pages        int    `json:"pages"`
	Error        string `json:"error,omitempty"`
}

type CaseEnriched struct {
	Unit         string `json:"unit"`
	CaseNumber   string `json:"caseNumber"`
	HasDecision  bool   `json:"hasDecision"`
	DecisionType string `json:"decisionType"`
}

type BatchPublished struct {
	RunID   string `json:"runId"`
	Topic   string `json:"topic"`
	Records int    `json:"records"`
}

func MakeEvent(reqID, typ string, v int, data any) Event {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	return Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
}

// JSON is the wire form sent to SSE clients.
func (e Event) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Emit publishes a v1 event on a possibly nil hub.
func Emit(h *Hub, typ string, data any) {
	if h == nil {
		return
	}
	h.Publish(MakeEvent("", typ, 1, data))
}
