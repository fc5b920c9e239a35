package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"courtparser-engine/internal/httpapi"
	"courtparser-engine/internal/poll"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API and the scheduled crawls.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg()
	arch, err := poll.NewArchiver(ctx, cfg, a.engine.Deps)
	if err != nil {
		log.Printf("[archive] disabled: %v", err)
	}
	a.engine.Deps.Archiver = arch

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	deps := httpapi.Deps{
		DB:          a.db.Pool,
		Hub:         a.hub,
		Regions:     a.table,
		CfgVal:      &a.cfgVal,
		CrawlStatus: &a.status,
		UserCfgPath: a.cfgPath,
		LoadCfg:     a.loadCfg,
		Applied:     poll.ApplyBackoff,
		RunCrawl: func(_ context.Context, regions []string) error {
			units := poll.ScheduledUnits(a.cfg(), a.table)
			if len(regions) > 0 {
				units = poll.AdHocUnits(a.table, regions)
			}
			_, err := a.engine.Run(ctx, units)
			return err
		},
	}
	if arch != nil {
		deps.Storage = arch.Storage()
	}
	mux := httpapi.NewMux(deps)

	token, err := httpapi.RandomToken(16)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           httpapi.Handler(mux, deps.CorsOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}
	mux.HandleFunc("/shutdown", httpapi.ShutdownHandler(token, cancel))

	ln, err := net.Listen("tcp", cfg.App.Addr)
	if err != nil {
		return err
	}
	log.Printf("engine listening on http://%s (data=%s)", ln.Addr(), a.dataDir)
	log.Printf("[engine] shutdown token: %s", token)

	poll.StartPoller(ctx, a.engine)

	go func() {
		<-ctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = srv.Shutdown(sctx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
