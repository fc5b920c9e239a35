package httpapi

import "net/http"

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{}.Health,
	}))

	// Cases
	cs := CasesHandler{DB: d.DB}
	mux.HandleFunc("/cases", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cs.List,
	}))
	mux.HandleFunc("/cases/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cs.GetByPath,
	}))

	// Crawl
	crh := CrawlHandler{CrawlStatus: d.CrawlStatus, RunCrawl: d.RunCrawl}
	mux.HandleFunc("/crawl/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: crh.Status,
	}))
	mux.HandleFunc("/crawl/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: crh.Run,
	}))

	// Regions
	rh := RegionsHandler{Table: d.Regions}
	mux.HandleFunc("/regions", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.List,
	}))
	mux.HandleFunc("/regions/resolve", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.Resolve,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
		Regions:     d.Regions,
		Applied:     d.Applied,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/s3", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetS3Secret,
	}))

	// Archived decisions
	dh := DecisionsHandler{DB: d.DB, Storage: d.Storage}
	mux.HandleFunc("/decisions/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: dh.GetByPath,
	}))

	// DB maintenance
	mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: DBHandler{DB: d.DB}.Checkpoint,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub, CrawlStatus: d.CrawlStatus}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}

// Handler wraps the mux with the standard middleware chain. allowedOrigins
// may be nil, which admits loopback pages only.
func Handler(mux http.Handler, allowedOrigins func() []string) http.Handler {
	return Chain(mux, RequestID, Recover, AccessLog, CorsFor(allowedOrigins))
}
