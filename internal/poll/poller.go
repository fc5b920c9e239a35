package poll

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"courtparser-engine/internal/config"
	"courtparser-engine/internal/scheduler"
	"courtparser-engine/internal/scrape/types"
)

// Engine runs crawls with the live config.
type Engine struct {
	Deps    Deps
	CfgVal  *atomic.Value // config.Config
	Tracker *Tracker
}

func (e *Engine) cfg() config.Config {
	return e.CfgVal.Load().(config.Config)
}

// Run crawls the given units once and records the outcome in the tracker.
func (e *Engine) Run(ctx context.Context, units []Unit) (Summary, error) {
	cfg := e.cfg()
	fetchers, err := Fetchers(cfg, e.Deps, units)
	if err != nil {
		return Summary{}, err
	}
	return e.run(ctx, cfg, fetchers)
}

// RunSudact runs the sudact query once.
func (e *Engine) RunSudact(ctx context.Context) (Summary, error) {
	cfg := e.cfg()
	return e.run(ctx, cfg, []types.Fetcher{SudactFetcher(cfg)})
}

func (e *Engine) run(ctx context.Context, cfg config.Config, fetchers []types.Fetcher) (Summary, error) {
	e.Tracker.Begin()
	sum, err := RunOnce(ctx, e.Deps, cfg, fetchers)
	e.Tracker.End(sum, err)
	return sum, err
}

// StartPoller registers one schedule loop per unit (and one for sudact when
// enabled). Units and cadences are read from the config at start; a config
// change takes effect on the next engine start.
func StartPoller(ctx context.Context, e *Engine) {
	cfg := e.cfg()
	units := ScheduledUnits(cfg, e.Deps.Regions)

	for _, u := range units {
		u := u
		go scheduler.Every(ctx, u.Every, "poll:"+u.Name, func(ctx context.Context) error {
			_, err := e.Run(ctx, []Unit{u})
			return err
		})
	}
	if cfg.Sudact.Enabled {
		every := config.Every(cfg.Sudact.Every, 6*time.Hour)
		go scheduler.Every(ctx, every, "poll:sudact", func(ctx context.Context) error {
			_, err := e.RunSudact(ctx)
			return err
		})
	}
	log.Printf("[poll] scheduled units=%d sudact=%v", len(units), cfg.Sudact.Enabled)
}
