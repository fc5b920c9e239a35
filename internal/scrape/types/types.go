package types

import (
	"context"

	"courtparser-engine/internal/domain"
)

// ScrapeResult is one unit's output: the cases of one region group (or one
// sudact query). Finalize, when set, runs after the batch was published.
type ScrapeResult struct {
	Source   string
	Region   string
	Cases    []domain.CaseRecord
	Pages    int
	Finalize func(context.Context) error
}

type ScrapeStatus struct {
	LastRunAt     string `json:"last_run_at"`
	LastOkAt      string `json:"last_ok_at"`
	LastError     string `json:"last_error"`
	LastCases     int    `json:"last_cases"`
	LastDecisions int    `json:"last_decisions"`
	Running       bool   `json:"running"`
}

// Fetcher is a unit of scraping work the poller can schedule.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (ScrapeResult, error)
}
