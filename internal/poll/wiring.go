package poll

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"courtparser-engine/internal/archive"
	"courtparser-engine/internal/browser"
	"courtparser-engine/internal/config"
	"courtparser-engine/internal/domain"
	"courtparser-engine/internal/regions"
	"courtparser-engine/internal/scrape/court"
	"courtparser-engine/internal/scrape/decision"
	"courtparser-engine/internal/scrape/sudact"
	"courtparser-engine/internal/scrape/types"
	"courtparser-engine/internal/scrape/util"
	"courtparser-engine/internal/secrets"
	"courtparser-engine/internal/store"
)

func SiteFrom(cfg config.Config) court.Site {
	s := court.DefaultSite()
	if v := cfg.Site.Origin; v != "" {
		s.Origin = v
	}
	if v := cfg.Site.SearchPath; v != "" {
		s.SearchPath = v
	}
	if v := cfg.Site.CaseType; v != "" {
		s.CaseType = v
	}
	if v := cfg.Site.Category; v != "" {
		s.Category = v
	}
	if v := cfg.Site.Subcategory; v != "" {
		s.Subcategory = v
	}
	if v := cfg.Site.CategoryLabel; v != "" {
		s.CategoryLabel = v
	}
	if v := cfg.Site.SubcategoryLabel; v != "" {
		s.SubcategoryLabel = v
	}
	return s
}

func CrawlOptions(cfg config.Config) court.Options {
	o := court.DefaultOptions()
	c := cfg.Crawl
	if c.MaxPages > 0 {
		o.MaxPages = c.MaxPages
	}
	o.CaseDelay = config.Ms(c.CaseDelayMs)
	o.PageDelay = config.Ms(c.PageDelayMs)
	if c.ParseAttempts > 0 {
		o.ParseAttempts = c.ParseAttempts
	}
	o.ParseRetryDelay = config.Ms(c.ParseRetryDelayMs)
	if c.SettleTimeoutMs > 0 {
		o.SettleTimeout = config.Ms(c.SettleTimeoutMs)
	}
	if t := cfg.Browser.TimeoutMs; t > 0 {
		o.FormTimeout = config.Ms(t)
		o.NavTimeout = config.Ms(t)
	}
	return o
}

func DecisionRules(cfg config.Config) (decision.Rules, error) {
	return decision.DefaultRules().With(cfg.Decision)
}

func LaunchOptions(cfg config.Config) browser.LaunchOptions {
	return browser.LaunchOptions{
		Headless:       cfg.Browser.Headless,
		ExecutablePath: cfg.Browser.ExecutablePath,
		UserAgent:      cfg.Browser.UserAgent,
		DefaultTimeout: config.Ms(cfg.Browser.TimeoutMs),
		InstallDriver:  cfg.Browser.InstallDriver,
	}
}

// ApplyBackoff installs the configured polling schedule for browser waits.
func ApplyBackoff(cfg config.Config) {
	browser.SetBackoff(config.Ms(cfg.Crawl.BackoffInitialMs), config.Ms(cfg.Crawl.BackoffMaxMs))
}

func SinkOptions(cfg config.Config) store.SinkOptions {
	o := store.DefaultSinkOptions()
	if cfg.Sink.MaxRetries > 0 {
		o.MaxRetries = cfg.Sink.MaxRetries
	}
	if cfg.Sink.RetryBackoffMs > 0 {
		o.RetryBackoff = config.Ms(cfg.Sink.RetryBackoffMs)
	}
	return o
}

func TopicSpec(cfg config.Config) store.TopicSpec {
	s := store.DefaultTopicSpec()
	if cfg.Sink.Partitions > 0 {
		s.Partitions = cfg.Sink.Partitions
	}
	if cfg.Sink.Replication > 0 {
		s.Replication = cfg.Sink.Replication
	}
	if cfg.Sink.RetentionHours > 0 {
		s.Retention = time.Duration(cfg.Sink.RetentionHours) * time.Hour
	}
	return s
}

// NewArchiver returns nil when archiving is disabled.
func NewArchiver(ctx context.Context, cfg config.Config, deps Deps) (*archive.Archiver, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	sc := archive.StorageConfig{
		Type:       archive.StorageType(cfg.Archive.Type),
		LocalPath:  cfg.Archive.LocalPath,
		S3Bucket:   cfg.Archive.S3Bucket,
		S3Region:   cfg.Archive.S3Region,
		S3Endpoint: cfg.Archive.S3Endpoint,
	}
	if sc.LocalPath == "" {
		sc.LocalPath = filepath.Join(cfg.App.DataDir, "decisions")
	}
	if sc.Type == archive.StorageTypeS3 {
		sc.AWSAccessKey = cfg.Archive.S3AccessKeyID
		sc.AWSSecretKey = strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY"))
		if sc.AWSSecretKey == "" && sc.AWSAccessKey != "" {
			secret, err := secrets.GetS3Secret(secrets.S3KeyringAccount(cfg))
			if err != nil {
				log.Printf("[archive] %v; falling back to default AWS credentials", err)
			}
			sc.AWSSecretKey = secret
		}
	}
	st, err := archive.NewStorage(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("archive storage: %w", err)
	}
	return archive.NewArchiver(st, deps.DB, cfg.Browser.UserAgent, config.Ms(cfg.Browser.TimeoutMs)*2), nil
}

// Unit names one crawl: a label and the regions it covers.
type Unit struct {
	Name    string
	Regions []string
	Every   time.Duration
}

// ScheduledUnits expands the schedule section. all_regions adds one unit per
// region of the table.
func ScheduledUnits(cfg config.Config, tbl *regions.Table) []Unit {
	var out []Unit
	for _, e := range cfg.Schedule.Units {
		out = append(out, Unit{Name: e.Name, Regions: e.Regions, Every: config.Every(e.Every, 30*time.Minute)})
	}
	if cfg.Schedule.AllRegions {
		every := config.Every(cfg.Schedule.AllRegionsEvery, 5*time.Minute)
		for _, r := range tbl.AllRegions() {
			out = append(out, Unit{Name: r, Regions: []string{r}, Every: every})
		}
	}
	return out
}

// AdHocUnits groups requested regions by district, one unit per district.
func AdHocUnits(tbl *regions.Table, requested []string) []Unit {
	var out []Unit
	for _, g := range tbl.Groups(requested) {
		out = append(out, Unit{Name: g.District, Regions: g.Regions})
	}
	return out
}

// CaseLimiter is the per-host courtesy limiter for case visits.
func CaseLimiter(cfg config.Config) *util.HostLimiter {
	return util.NewIntervalLimiter(CrawlOptions(cfg).CaseDelay)
}

// Fetchers builds one court fetcher per unit, each with its own crawler. All
// crawlers share deps.Limiter.
func Fetchers(cfg config.Config, deps Deps, units []Unit) ([]types.Fetcher, error) {
	rules, err := DecisionRules(cfg)
	if err != nil {
		return nil, err
	}
	site := SiteFrom(cfg)
	opts := CrawlOptions(cfg)
	dopts := decision.DefaultOptions()
	if cfg.Crawl.SettleTimeoutMs > 0 {
		dopts.SettleTimeout = config.Ms(cfg.Crawl.SettleTimeoutMs)
	}

	lim := deps.Limiter
	if lim == nil {
		lim = CaseLimiter(cfg)
	}

	var out []types.Fetcher
	for _, u := range units {
		ext := decision.NewExtractor(rules, site.Origin, dopts)
		cr := court.NewCrawler(site, opts, deps.Regions, ext)
		cr.ShareLimiter(lim)
		name := u.Name
		cr.OnCase = func(rec domain.CaseRecord) { emitCase(deps, name, rec) }
		out = append(out, court.NewUnit(u.Name, u.Regions, deps.Regions, site, cr, deps.Pages))
	}
	return out, nil
}

func SudactFetcher(cfg config.Config) types.Fetcher {
	return sudact.New(sudact.Config{
		BaseURL:     cfg.Sudact.BaseURL,
		Query:       cfg.Sudact.Query,
		UserAgent:   cfg.Browser.UserAgent,
		Timeout:     config.Ms(cfg.Browser.TimeoutMs),
		MinInterval: time.Second,
	})
}
