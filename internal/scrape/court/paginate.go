package court

import (
	"context"
	"fmt"
	"log"
	"regexp"

	"courtparser-engine/internal/browser"
	"courtparser-engine/internal/domain"
	"courtparser-engine/internal/scrape/util"
)

type Paginator struct {
	parser *ResultParser
	opts   Options
}

func NewPaginator(parser *ResultParser, opts Options) *Paginator {
	return &Paginator{parser: parser, opts: opts}
}

// Walk follows page links 2..MaxPages, appending each page's cases to
// first. It stops quietly when the pagination block or the next page link is
// missing, when a page yields nothing, or on any error. Returns the cases and
// the number of pages read (first page included).
func (p *Paginator) Walk(ctx context.Context, page browser.Page, cc CrawlContext, first []domain.CaseRecord) ([]domain.CaseRecord, int) {
	all := append([]domain.CaseRecord(nil), first...)
	pages := 1

	for n := 2; n <= p.opts.MaxPages; n++ {
		if ctx.Err() != nil {
			log.Printf("[paginate] cancelled before page %d", n)
			break
		}
		more, err := p.next(ctx, page, cc, n)
		if err != nil {
			log.Printf("[paginate] page %d: %v", n, err)
			break
		}
		if more == nil {
			break
		}
		if len(more) == 0 {
			log.Printf("[paginate] page %d empty, stopping", n)
			break
		}
		pages++
		all = append(all, more...)
		log.Printf("[paginate] page %d cases=%d total=%d", n, len(more), len(all))
	}
	return dedupe(all), pages
}

// next returns nil, nil when there is no link to page n.
func (p *Paginator) next(ctx context.Context, page browser.Page, cc CrawlContext, n int) ([]domain.CaseRecord, error) {
	if !browser.Exists(page, selPagination) {
		log.Printf("[paginate] no pagination block, done")
		return nil, nil
	}
	link, err := pageLink(page, n)
	if err != nil {
		log.Printf("[paginate] no link to page %d, done", n)
		return nil, nil
	}

	if err := util.Sleep(ctx, p.opts.PageDelay); err != nil {
		return nil, err
	}
	if err := page.ClickAndWait(ctx, p.opts.NavTimeout, link.Click); err != nil {
		return nil, fmt.Errorf("page %d: %w", n, err)
	}
	if err := browser.Settle(ctx, page, p.opts.SettleTimeout); err != nil && ctx.Err() != nil {
		return nil, err
	}

	parse := p.parser.ParseWithRetry
	if _, err := pageLink(page, n+1); err != nil {
		// last page by its own pagination, an empty read is final
		parse = p.parser.ParseOnce
	}
	cases, err := parse(ctx, page, cc)
	if err != nil {
		return nil, err
	}
	if cases == nil {
		cases = []domain.CaseRecord{}
	}
	return cases, nil
}

// pageLink finds an anchor addressed at exactly page n (page=2 must not
// match page=20).
func pageLink(page browser.Page, n int) (browser.Element, error) {
	want := regexp.MustCompile(fmt.Sprintf(`[?&]page=%d(?:\D|$)`, n))
	links, err := page.QueryAll(fmt.Sprintf("a[href*='page=%d']", n))
	if err != nil {
		return nil, err
	}
	for _, a := range links {
		if want.MatchString(browser.AttrOf(a, "href")) {
			return a, nil
		}
	}
	return nil, browser.ErrNotFound
}
