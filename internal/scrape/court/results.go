package court

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"courtparser-engine/internal/browser"
	"courtparser-engine/internal/domain"
	"courtparser-engine/internal/scrape/util"
)

// ResultParser turns one rendered results page into case records.
type ResultParser struct {
	site Site
	opts Options
}

func NewResultParser(site Site, opts Options) *ResultParser {
	return &ResultParser{site: site, opts: opts}
}

// resultStrategy extracts what it can from a results document. Strategies
// are tried in order; the first non-empty output wins.
type resultStrategy struct {
	name string
	run  func(r *ResultParser, doc *goquery.Document, cc CrawlContext) []domain.CaseRecord
}

var resultStrategies = []resultStrategy{
	{"tables", (*ResultParser).tableStrategy},
	{"rows", (*ResultParser).rowStrategy},
	{"anchors", (*ResultParser).anchorStrategy},
}

// Parse runs the strategies over doc. Output never holds an empty or
// repeated case number.
func (r *ResultParser) Parse(doc *goquery.Document, cc CrawlContext) []domain.CaseRecord {
	for _, s := range resultStrategies {
		cases := r.runStrategy(s, doc, cc)
		if len(cases) > 0 {
			log.Printf("[results] strategy=%s cases=%d", s.name, len(cases))
			return cases
		}
	}
	return nil
}

func (r *ResultParser) runStrategy(s resultStrategy, doc *goquery.Document, cc CrawlContext) (out []domain.CaseRecord) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[results] strategy=%s panic: %v", s.name, rec)
			out = nil
		}
	}()
	return dedupe(s.run(r, doc, cc))
}

// ParseWithRetry waits for a results table and parses the page, retrying
// while nothing was found. An empty page after all attempts is returned as
// an empty result.
func (r *ResultParser) ParseWithRetry(ctx context.Context, page browser.Page, cc CrawlContext) ([]domain.CaseRecord, error) {
	return r.parseAttempts(ctx, page, cc, r.opts.ParseAttempts)
}

// ParseOnce is ParseWithRetry with a single attempt.
func (r *ResultParser) ParseOnce(ctx context.Context, page browser.Page, cc CrawlContext) ([]domain.CaseRecord, error) {
	return r.parseAttempts(ctx, page, cc, 1)
}

func (r *ResultParser) parseAttempts(ctx context.Context, page browser.Page, cc CrawlContext, attempts int) ([]domain.CaseRecord, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := page.WaitVisible(ctx, selBorderedTable, r.opts.TableTimeout); err != nil {
			_ = page.WaitVisible(ctx, selAnyTable, r.opts.AnyTableTimeout)
		}

		cases, err := r.parsePage(page, cc)
		if err != nil {
			lastErr = err
			log.Printf("[results] attempt %d/%d: %v", attempt, attempts, err)
		} else if len(cases) > 0 {
			return cases, nil
		} else {
			lastErr = nil
			log.Printf("[results] attempt %d/%d: no cases", attempt, attempts)
		}

		if attempt < attempts {
			if err := util.Sleep(ctx, r.opts.ParseRetryDelay); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}

func (r *ResultParser) parsePage(page browser.Page, cc CrawlContext) ([]domain.CaseRecord, error) {
	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("page content: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse results html: %w", err)
	}
	if banner := util.CleanText(doc.Find(selCountBanner).First().Text()); banner != "" {
		log.Printf("[results] %s", banner)
	}
	return r.Parse(doc, cc), nil
}

// Each bordered table is one case: a header row (court, case link) and a
// details row (dates, parties).
func (r *ResultParser) tableStrategy(doc *goquery.Document, cc CrawlContext) []domain.CaseRecord {
	tables := doc.Find(selBorderedTable)
	if tables.Length() == 0 {
		tables = doc.Find(selAnyTable)
	}

	var out []domain.CaseRecord
	tables.Each(func(_ int, t *goquery.Selection) {
		header := t.Find("tr.active").First()
		details := t.Find("tr:not(.active)").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.Find("td").Length() >= 2
		}).First()
		if header.Length() == 0 || details.Length() == 0 {
			return
		}
		hc := header.Find("td")
		a := hc.Eq(1).Find("a").First()
		if a.Length() == 0 {
			return
		}
		dc := details.Find("td")
		out = append(out, r.record(cc, listing{
			court:   hc.Eq(0).Text(),
			number:  a.Text(),
			href:    a.AttrOr("href", ""),
			dates:   dc.Eq(0).Text(),
			parties: dc.Eq(1).Text(),
		}))
	})
	return out
}

// Flat markup: a non-header row carries the link itself, the court sits in
// the row above.
func (r *ResultParser) rowStrategy(doc *goquery.Document, cc CrawlContext) []domain.CaseRecord {
	var out []domain.CaseRecord
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.HasClass("active") {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		a := cells.Find("a").First()
		if a.Length() == 0 {
			return
		}
		out = append(out, r.record(cc, listing{
			court:   courtAbove(row),
			number:  a.Text(),
			href:    a.AttrOr("href", ""),
			dates:   cells.Eq(0).Text(),
			parties: cells.Eq(1).Text(),
		}))
	})
	return out
}

var hasDigit = regexp.MustCompile(`\d`)

// Last resort: every case-detail anchor, with context rebuilt from the rows
// around it.
func (r *ResultParser) anchorStrategy(doc *goquery.Document, cc CrawlContext) []domain.CaseRecord {
	var out []domain.CaseRecord
	doc.Find(selCaseAnchor).Each(func(_ int, a *goquery.Selection) {
		number := a.Text()
		if !hasDigit.MatchString(number) {
			return
		}
		l := listing{number: number, href: a.AttrOr("href", ""), court: domain.NotSpecified}

		row := a.Closest("tr")
		switch {
		case row.Length() == 0:
		case row.HasClass("active"):
			cells := row.Find("td")
			l.court = cells.Eq(0).Text()
			next := row.NextAllFiltered("tr").First().Find("td")
			l.dates, l.parties = next.Eq(0).Text(), next.Eq(1).Text()
		default:
			cells := row.Find("td")
			l.dates, l.parties = cells.Eq(0).Text(), cells.Eq(1).Text()
			l.court = courtAbove(row)
		}
		out = append(out, r.record(cc, l))
	})
	return out
}

func courtAbove(row *goquery.Selection) string {
	prev := row.PrevAllFiltered("tr").First()
	if court := util.CleanField(prev.Find("td").First().Text()); court != "" {
		return court
	}
	return domain.NotSpecified
}

type listing struct {
	court, number, href, dates, parties string
}

func (r *ResultParser) record(cc CrawlContext, l listing) domain.CaseRecord {
	court := util.CleanField(l.court)
	if court == "" {
		court = domain.NotSpecified
	}
	number := util.CleanField(l.number)
	d := util.ExtractDates(l.dates)
	plaintiff, defendant := util.ExtractParties(l.parties)

	rec := domain.CaseRecord{
		Title:           fmt.Sprintf("%s - %s", court, number),
		Link:            util.Absolute(r.site.Origin, l.href),
		CaseNumber:      number,
		CourtType:       court,
		Description:     fmt.Sprintf("Поступило: %s, Решение: %s", d.Received, d.Decision),
		Subject:         fmt.Sprintf("Истец: %s | Ответчик: %s", plaintiff, defendant),
		FederalDistrict: cc.FederalDistrict,
		Region:          cc.Region,
		CaseCategory:    cc.Category,
		CaseSubcategory: cc.Subcategory,
		Plaintiff:       plaintiff,
		Defendant:       defendant,
		ReceivedDate:    d.ReceivedAt,
		CaseMovements:   []domain.CaseMovement{},
	}
	rec.ResetDecision()
	return rec
}

// dedupe drops records without a case number and keeps the first of each.
func dedupe(in []domain.CaseRecord) []domain.CaseRecord {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, c := range in {
		if c.CaseNumber == "" || seen[c.CaseNumber] {
			continue
		}
		seen[c.CaseNumber] = true
		out = append(out, c)
	}
	return out
}
