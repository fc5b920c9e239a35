package httpapi

import (
	"context"
	"database/sql"
	"sync/atomic"

	"courtparser-engine/internal/archive"
	"courtparser-engine/internal/config"
	"courtparser-engine/internal/events"
	"courtparser-engine/internal/regions"
)

type Deps struct {
	DB *sql.DB

	Hub     *events.Hub
	Regions *regions.Table
	Storage archive.Storage // nil when archiving is off

	// Atomic stores
	CfgVal      *atomic.Value // stores config.Config
	CrawlStatus *atomic.Value // stores types.ScrapeStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
	Applied     func(config.Config) // optional, runs after PUT /config

	// Crawl entrypoint (inject for testability). Empty regions means the
	// configured schedule.
	RunCrawl func(ctx context.Context, regions []string) error
}

// CorsOrigins reads app.cors_origins from the live config.
func (d Deps) CorsOrigins() []string {
	if d.CfgVal == nil {
		return nil
	}
	cfg, _ := d.CfgVal.Load().(config.Config)
	return cfg.App.CorsOrigins
}
