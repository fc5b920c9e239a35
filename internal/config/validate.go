package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"courtparser-engine/internal/regions"
	"courtparser-engine/internal/scrape/decision"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy and what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	// ---- app ----
	out.App.CorsOrigins = trimList(out.App.CorsOrigins)
	for i, o := range out.App.CorsOrigins {
		u, err := url.Parse(o)
		if err != nil || u.Scheme == "" || u.Host == "" || (u.Path != "" && u.Path != "/") {
			res.addErr("app.cors_origins[%d] must be a bare origin like http://localhost:5173, got %q", i, o)
		}
	}

	// ---- site ----
	if u, err := url.Parse(strings.TrimSpace(out.Site.Origin)); err != nil || u.Scheme == "" || u.Host == "" {
		res.addErr("site.origin must be an absolute URL")
	}
	if strings.TrimSpace(out.Site.CaseType) == "" {
		res.addErr("site.case_type is required")
	}
	if out.Site.Category == "" || out.Site.Subcategory == "" {
		res.addErr("site.category and site.subcategory are required")
	}

	// ---- crawl ----
	if out.Crawl.MaxPages < 1 {
		res.addErr("crawl.max_pages must be >= 1")
	} else if out.Crawl.MaxPages > 100 {
		res.addWarn("crawl.max_pages is high (%d); one unit may run for hours.", out.Crawl.MaxPages)
	}
	if out.Crawl.ParallelUnits < 1 {
		res.addErr("crawl.parallel_units must be >= 1")
	} else if out.Crawl.ParallelUnits > 4 {
		res.addWarn("crawl.parallel_units=%d starts that many browsers at once.", out.Crawl.ParallelUnits)
	}
	if out.Crawl.CaseDelayMs < 0 || out.Crawl.PageDelayMs < 0 {
		res.addErr("crawl delays must be >= 0")
	} else if out.Crawl.CaseDelayMs < 500 {
		res.addWarn("crawl.case_delay_ms is very low (%d) and may get the crawler blocked.", out.Crawl.CaseDelayMs)
	}
	if out.Crawl.ParseAttempts < 1 {
		res.addErr("crawl.parse_attempts must be >= 1")
	}
	if out.Crawl.BackoffInitialMs < 0 || out.Crawl.BackoffMaxMs < out.Crawl.BackoffInitialMs {
		res.addErr("crawl.backoff_max_ms must be >= backoff_initial_ms >= 0")
	}

	// ---- decision ----
	if r := out.Decision; r.MinRequired < 0 || r.MinOptional < 0 || r.MinParagraphs < 0 {
		res.addErr("decision thresholds must be >= 0")
	}
	if rules, err := decision.DefaultRules().With(out.Decision); err != nil {
		res.addErr("decision: %v", err)
	} else {
		if rules.MinRequired > len(rules.Required) {
			res.addErr("decision.min_required=%d but only %d required markers are set; no decision text could pass", rules.MinRequired, len(rules.Required))
		}
		if rules.MinOptional > len(rules.Optional) {
			res.addErr("decision.min_optional=%d but only %d optional markers are set; no decision text could pass", rules.MinOptional, len(rules.Optional))
		}
		if rules.MaxParagraphs > 0 && rules.MinParagraphs > rules.MaxParagraphs {
			res.addErr("decision.min_paragraphs (%d) cannot exceed decision.max_paragraphs (%d)", rules.MinParagraphs, rules.MaxParagraphs)
		}
		for i, m := range out.Decision.Required {
			if strings.TrimSpace(m) == "" {
				res.addErr("decision.required[%d] is empty and would match every page", i)
			}
		}
		for i, ext := range out.Decision.FileExtensions {
			if !strings.HasPrefix(ext, ".") {
				res.addErr("decision.file_extensions[%d] must start with a dot, got %q", i, ext)
			}
		}
	}

	// ---- schedule ----
	tbl := regions.Default()
	names := map[string]bool{}
	for i := range out.Schedule.Units {
		u := &out.Schedule.Units[i]
		u.Name = strings.TrimSpace(u.Name)
		u.Regions = trimList(u.Regions)
		if u.Name == "" {
			res.addErr("schedule.units[%d].name is required", i)
		} else if names[u.Name] {
			res.addErr("schedule.units[%d].name %q is duplicated", i, u.Name)
		}
		names[u.Name] = true
		checkEvery(&res, fmt.Sprintf("schedule.units[%d].every", i), u.Every)
		if len(u.Regions) == 0 {
			res.addErr("schedule.units[%d] (%q) lists no regions", i, u.Name)
		}
		for _, r := range u.Regions {
			if !tbl.Known(r) {
				res.addWarn("schedule.units[%d]: region %q is not in the region table; it will be searched under %s.", i, r, tbl.DefaultDistrict())
			}
		}
	}
	if out.Schedule.AllRegions {
		checkEvery(&res, "schedule.all_regions_every", out.Schedule.AllRegionsEvery)
	}
	if len(out.Schedule.Units) == 0 && !out.Schedule.AllRegions && !out.Sudact.Enabled {
		res.addWarn("nothing is scheduled; crawls only run on demand.")
	}

	// ---- sink ----
	if strings.TrimSpace(out.Sink.Topic) == "" {
		res.addErr("sink.topic is required")
	}
	if out.Sink.Partitions < 1 || out.Sink.Replication < 1 {
		res.addErr("sink.partitions and sink.replication must be >= 1")
	}
	if out.Sink.MaxRetries < 1 {
		res.addErr("sink.max_retries must be >= 1")
	}
	if out.Sink.RetentionHours <= 0 {
		res.addWarn("sink.retention_hours is %d; messages are never cleaned up.", out.Sink.RetentionHours)
	}

	// ---- sudact ----
	if out.Sudact.Enabled {
		if strings.TrimSpace(out.Sudact.Query) == "" {
			res.addErr("sudact.query is required when sudact.enabled=true")
		}
		checkEvery(&res, "sudact.every", out.Sudact.Every)
	}

	// ---- archive (secret key is in keychain, not here) ----
	if out.Archive.Enabled {
		switch out.Archive.Type {
		case "", "local":
		case "s3":
			if strings.TrimSpace(out.Archive.S3Bucket) == "" {
				res.addErr("archive.s3_bucket is required when archive.type=s3")
			}
		default:
			res.addErr("archive.type must be local or s3, got %q", out.Archive.Type)
		}
	}

	return out, res
}

func checkEvery(res *Validation, field, s string) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	switch {
	case err != nil:
		res.addErr("%s must be a duration like 30m, got %q", field, s)
	case d <= 0:
		res.addErr("%s must be > 0", field)
	case d < time.Minute:
		res.addWarn("%s is very low (%s); the court site may block the crawler.", field, d)
	}
}
