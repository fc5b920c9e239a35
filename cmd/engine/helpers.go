package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"

	"courtparser-engine/internal/browser"
	"courtparser-engine/internal/config"
	"courtparser-engine/internal/events"
	"courtparser-engine/internal/poll"
	"courtparser-engine/internal/regions"
	"courtparser-engine/internal/store"
)

// app is the engine state shared by the commands.
type app struct {
	dataDir string
	cfgPath string
	cfgVal  atomic.Value // config.Config
	status  atomic.Value // types.ScrapeStatus

	db       *store.DB
	lock     *flock.Flock
	launcher *browser.Launcher
	hub      *events.Hub
	table    *regions.Table
	engine   *poll.Engine
}

func loadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[engine] .env: %v", err)
	}
}

func resolveDataDir() string {
	if d := strings.TrimSpace(dataDirFlag); d != "" {
		return d
	}
	if d := strings.TrimSpace(os.Getenv("COURTPARSER_DATA_DIR")); d != "" {
		return d
	}
	return "."
}

// openApp loads config, opens the database and wires the poll engine. With
// exclusive set it also takes the data-dir lock so two engines never write
// the same database.
func openApp(exclusive bool) (*app, error) {
	loadEnv()

	a := &app{dataDir: resolveDataDir(), hub: events.NewHub(), table: regions.Default()}
	if err := os.MkdirAll(a.dataDir, 0o755); err != nil {
		return nil, err
	}

	if exclusive {
		a.lock = flock.New(filepath.Join(a.dataDir, "engine.lock"))
		ok, err := a.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("lock data dir: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("another engine is already running on %s", a.dataDir)
		}
	}

	path, err := config.EnsureUserConfig(a.dataDir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("config bootstrap failed: %w", err)
	}
	a.cfgPath = path
	cfg, err := a.loadCfg()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	_, vr := config.NormalizeAndValidate(cfg)
	if !vr.OK() {
		a.Close()
		return nil, config.Validate(cfg)
	}
	for _, w := range vr.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	a.cfgVal.Store(cfg)
	poll.ApplyBackoff(cfg)

	a.db, err = store.Open(filepath.Join(a.dataDir, "courtparser.db"))
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := store.Migrate(a.db.Pool); err != nil {
		a.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	a.launcher = browser.NewLauncher(poll.LaunchOptions(cfg))
	deps := poll.Deps{
		DB:      a.db.Pool,
		Sink:    store.NewSink(a.db.Pool, poll.SinkOptions(cfg)),
		Hub:     a.hub,
		Regions: a.table,
		Pages:   a.launcher.NewPage,
		Limiter: poll.CaseLimiter(cfg),
	}
	a.engine = &poll.Engine{Deps: deps, CfgVal: &a.cfgVal, Tracker: poll.NewTracker(&a.status)}
	return a, nil
}

func (a *app) loadCfg() (config.Config, error) {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return cfg, err
	}
	if cfg.App.DataDir == "" {
		cfg.App.DataDir = a.dataDir
	}
	return cfg, nil
}

func (a *app) cfg() config.Config {
	return a.cfgVal.Load().(config.Config)
}

func (a *app) Close() {
	if a.launcher != nil {
		if err := a.launcher.Close(); err != nil {
			log.Printf("[engine] browser close: %v", err)
		}
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.lock != nil {
		_ = a.lock.Unlock()
	}
}
