package decision

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"courtparser-engine/internal/browser"
	"courtparser-engine/internal/domain"
)

const (
	selShowOriginal = "#show-original-link"
	selOriginalLink = "#original-link a[target='_blank']"
)

type Options struct {
	SettleTimeout time.Duration
	LinkTimeout   time.Duration
}

func DefaultOptions() Options {
	return Options{SettleTimeout: 5 * time.Second, LinkTimeout: 5 * time.Second}
}

// Extractor enriches case records from their detail pages.
type Extractor struct {
	rules  Rules
	origin string
	opts   Options
}

func NewExtractor(rules Rules, origin string, opts Options) *Extractor {
	return &Extractor{rules: rules, origin: origin, opts: opts}
}

func (e *Extractor) Rules() Rules { return e.rules }

// Enrich visits rec.Link and fills details and decision status. It never
// fails: a navigation error or a panic leaves the record in the check-error
// state, and no decision found is the ordinary "Не найдено" outcome.
func (e *Extractor) Enrich(ctx context.Context, page browser.Page, rec *domain.CaseRecord) {
	rec.ResetDecision()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[decision] panic case=%q: %v", rec.CaseNumber, r)
			rec.MarkCheckError()
		}
	}()

	if err := e.enrich(ctx, page, rec); err != nil {
		log.Printf("[decision] check failed case=%q: %v", rec.CaseNumber, err)
		rec.MarkCheckError()
	}
}

func (e *Extractor) enrich(ctx context.Context, page browser.Page, rec *domain.CaseRecord) error {
	if rec.Link == "" {
		return fmt.Errorf("record has no link")
	}
	if err := page.Goto(ctx, rec.Link); err != nil {
		return fmt.Errorf("open case page: %w", err)
	}
	e.settle(ctx, page)

	doc, html, err := e.snapshot(page)
	if err != nil {
		return err
	}
	ExtractDetails(doc, rec)

	if e.originalLink(ctx, page, rec) {
		if doc, html, err = e.snapshot(page); err != nil {
			return err
		}
	}

	f, ok := e.rules.Detect(&Snapshot{Doc: doc, HTML: html, Link: rec.Link, Origin: e.origin})
	if !ok {
		log.Printf("[decision] not found case=%q", rec.CaseNumber)
		return nil
	}

	rec.HasDecision = true
	rec.DecisionLink = f.Link
	rec.DecisionType = f.Type
	if f.Embedded {
		rec.DecisionContent = f.Content
		if f.Date != nil {
			rec.DecisionDate = f.Date
		}
	}
	log.Printf("[decision] found case=%q type=%q strategy=%s", rec.CaseNumber, f.Type, f.Strategy)
	return nil
}

func (e *Extractor) snapshot(page browser.Page) (*goquery.Document, string, error) {
	html, err := page.Content()
	if err != nil {
		return nil, "", fmt.Errorf("page content: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, "", fmt.Errorf("parse case page: %w", err)
	}
	return doc, html, nil
}

// originalLink reveals and reads the link to the court's own site. Reports
// whether the page was touched.
func (e *Extractor) originalLink(ctx context.Context, page browser.Page, rec *domain.CaseRecord) bool {
	btn, err := page.Query(selShowOriginal)
	if err != nil {
		return false
	}
	if err := btn.Click(); err != nil {
		log.Printf("[decision] show original link case=%q: %v", rec.CaseNumber, err)
		return false
	}
	if err := page.WaitVisible(ctx, selOriginalLink, e.opts.LinkTimeout); err != nil {
		log.Printf("[decision] original link did not appear case=%q", rec.CaseNumber)
		return true
	}
	a, err := page.Query(selOriginalLink)
	if err != nil {
		return true
	}
	if href := strings.TrimSpace(browser.AttrOf(a, "href")); href != "" {
		rec.OriginalCaseLink = href
	}
	return true
}

func (e *Extractor) settle(ctx context.Context, page browser.Page) {
	if err := browser.Settle(ctx, page, e.opts.SettleTimeout); err != nil && ctx.Err() == nil {
		log.Printf("[decision] page still changing after %s", e.opts.SettleTimeout)
	}
}
