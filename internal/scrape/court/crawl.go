package court

import (
	"context"
	"fmt"
	"log"
	"strings"

	"courtparser-engine/internal/browser"
	"courtparser-engine/internal/domain"
	"courtparser-engine/internal/regions"
	"courtparser-engine/internal/scrape/types"
	"courtparser-engine/internal/scrape/util"
)

// Enricher visits a case page and fills in details and decision status.
type Enricher interface {
	Enrich(ctx context.Context, page browser.Page, rec *domain.CaseRecord)
}

// Crawler runs one search end to end on a single page. It is not safe for
// concurrent use on the same page; separate units use separate pages.
type Crawler struct {
	site     Site
	opts     Options
	form     *FormFiller
	tree     *TreeSelector
	parser   *ResultParser
	pager    *Paginator
	enricher Enricher
	limiter  *util.HostLimiter

	// OnCase, when set, is called after each case was enriched.
	OnCase func(rec domain.CaseRecord)
}

func NewCrawler(site Site, opts Options, tbl *regions.Table, enr Enricher) *Crawler {
	parser := NewResultParser(site, opts)
	return &Crawler{
		site:     site,
		opts:     opts,
		form:     NewFormFiller(site, opts),
		tree:     NewTreeSelector(tbl, opts),
		parser:   parser,
		pager:    NewPaginator(parser, opts),
		enricher: enr,
		limiter:  util.NewIntervalLimiter(opts.CaseDelay),
	}
}

// ShareLimiter makes the crawler space case visits through l, so crawlers
// running side by side keep one courtesy rate per host.
func (c *Crawler) ShareLimiter(l *util.HostLimiter) {
	if l != nil {
		c.limiter = l
	}
}

func (c *Crawler) Limiter() *util.HostLimiter { return c.limiter }

// Crawl fills the form, selects regions, pages through results and enriches
// every case. The error is non-nil only when the form or the search itself
// failed; the cases gathered so far are returned either way.
func (c *Crawler) Crawl(ctx context.Context, page browser.Page, cc CrawlContext) ([]domain.CaseRecord, int, error) {
	log.Printf("[crawl] start district=%q region=%q", cc.FederalDistrict, cc.Region)

	if err := c.search(ctx, page, cc); err != nil {
		log.Printf("[crawl] search failed region=%q: %v", cc.Region, err)
		return nil, 0, err
	}

	first, err := c.parser.ParseWithRetry(ctx, page, cc)
	if err != nil {
		log.Printf("[crawl] first page region=%q: %v", cc.Region, err)
	}
	if len(first) == 0 {
		log.Printf("[crawl] no cases region=%q", cc.Region)
		return nil, 1, nil
	}

	cases, pages := c.pager.Walk(ctx, page, cc, first)
	log.Printf("[crawl] collected cases=%d pages=%d region=%q", len(cases), pages, cc.Region)

	c.enrichAll(ctx, page, cases)
	return cases, pages, nil
}

func (c *Crawler) search(ctx context.Context, page browser.Page, cc CrawlContext) error {
	if err := c.form.Open(ctx, page); err != nil {
		return err
	}
	if err := c.form.Fill(ctx, page); err != nil {
		return err
	}
	ProbeRegionControls(page)
	if err := c.tree.Select(ctx, page, cc.Regions); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("[crawl] region selection skipped, searching unfiltered: %v", err)
	}
	return c.form.Submit(ctx, page)
}

func (c *Crawler) enrichAll(ctx context.Context, page browser.Page, cases []domain.CaseRecord) {
	for i := range cases {
		if ctx.Err() != nil {
			log.Printf("[crawl] cancelled after %d/%d cases", i, len(cases))
			return
		}
		if err := c.limiter.WaitURL(ctx, cases[i].Link); err != nil {
			return
		}
		c.enricher.Enrich(ctx, page, &cases[i])
		if c.OnCase != nil {
			c.OnCase(cases[i])
		}
	}
}

// Report summarises one unit's output.
type Report struct {
	Total        int
	WithDecision int
	Embedded     int
	External     int
}

func Summarize(cases []domain.CaseRecord) Report {
	r := Report{Total: len(cases)}
	for _, c := range cases {
		if !c.HasDecision {
			continue
		}
		r.WithDecision++
		if c.IsEmbeddedDecision() {
			r.Embedded++
		} else {
			r.External++
		}
	}
	return r
}

// SuccessRate is the share of cases with a decision, in percent.
func (r Report) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.WithDecision) * 100 / float64(r.Total)
}

// Format renders the report block written to the log after each unit.
func (r Report) Format(region string, cases []domain.CaseRecord, sample int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "region=%q total=%d with_decision=%d embedded=%d external=%d success=%.1f%%",
		region, r.Total, r.WithDecision, r.Embedded, r.External, r.SuccessRate())
	for i, c := range cases {
		if i >= sample {
			fmt.Fprintf(&b, "\n  ... %d more", len(cases)-sample)
			break
		}
		fmt.Fprintf(&b, "\n  %s | %s | %s", c.CaseNumber, util.Truncate(c.Title, 60), c.DecisionType)
	}
	return b.String()
}

// PageFactory opens a fresh browser page for one unit.
type PageFactory func() (browser.Page, error)

// Unit is one scheduled crawl for a group of regions. It satisfies
// types.Fetcher.
type Unit struct {
	name    string
	regions []string
	table   *regions.Table
	site    Site
	crawler *Crawler
	pages   PageFactory
}

func NewUnit(name string, regionNames []string, tbl *regions.Table, site Site, crawler *Crawler, pages PageFactory) *Unit {
	return &Unit{name: name, regions: regionNames, table: tbl, site: site, crawler: crawler, pages: pages}
}

func (u *Unit) Name() string { return u.name }

func (u *Unit) Regions() []string { return append([]string(nil), u.regions...) }

func (u *Unit) Crawler() *Crawler { return u.crawler }

func (u *Unit) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	cc := ContextFor(u.table, u.site, u.regions)
	res := types.ScrapeResult{Source: "court:" + u.name, Region: cc.Region}

	page, err := u.pages()
	if err != nil {
		return res, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	cases, pages, err := u.crawler.Crawl(ctx, page, cc)
	res.Cases, res.Pages = cases, pages
	log.Printf("[crawl] report %s", Summarize(cases).Format(cc.Region, cases, 10))
	if err != nil {
		return res, fmt.Errorf("crawl %s: %w", u.name, err)
	}
	return res, nil
}
