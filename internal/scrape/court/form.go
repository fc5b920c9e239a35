package court

import (
	"context"
	"errors"
	"fmt"
	"log"

	"courtparser-engine/internal/browser"
)

// ErrFormUnavailable means the search form (or one of its dependent
// dropdowns) never showed up. It ends the crawl unit.
var ErrFormUnavailable = errors.New("search form unavailable")

type FormFiller struct {
	site Site
	opts Options
}

func NewFormFiller(site Site, opts Options) *FormFiller {
	return &FormFiller{site: site, opts: opts}
}

// Open navigates to the search page and waits for the first dropdown.
func (f *FormFiller) Open(ctx context.Context, page browser.Page) error {
	url := f.site.SearchURL()
	log.Printf("[form] opening %s", url)
	if err := page.Goto(ctx, url); err != nil {
		return fmt.Errorf("open search form: %w", err)
	}
	if err := page.WaitVisible(ctx, selCaseType, f.opts.FormTimeout); err != nil {
		return fmt.Errorf("%w: case type select: %v", ErrFormUnavailable, err)
	}
	return nil
}

// Fill sets case type, category and subcategory in that order. Each
// dropdown is only populated after its parent changed, so every step waits
// for the next select before touching it.
func (f *FormFiller) Fill(ctx context.Context, page browser.Page) error {
	steps := []struct {
		name, selector, value string
	}{
		{"case type", selCaseType, f.site.CaseType},
		{"category", selCategory, f.site.Category},
		{"subcategory", selSubcategory, f.site.Subcategory},
	}
	for i, st := range steps {
		if i > 0 {
			if err := page.WaitVisible(ctx, st.selector, f.opts.DropdownTimeout); err != nil {
				return fmt.Errorf("%w: %s select: %v", ErrFormUnavailable, st.name, err)
			}
		}
		if err := page.Select(st.selector, st.value); err != nil {
			return fmt.Errorf("select %s=%s: %w", st.name, st.value, err)
		}
		log.Printf("[form] %s=%s", st.name, st.value)
	}
	return nil
}

// ProbeRegionControls reports whether anything region- or court-like is on
// the page. Absence is only a warning.
func ProbeRegionControls(page browser.Page) bool {
	els, err := page.QueryAll(selRegionProbe)
	if err != nil || len(els) == 0 {
		log.Printf("[form] warning: no region controls found on search page")
		return false
	}
	return true
}

// Submit runs the search and waits for the results navigation.
func (f *FormFiller) Submit(ctx context.Context, page browser.Page) error {
	err := page.ClickAndWait(ctx, f.opts.NavTimeout, func() error {
		return page.Click(selSearchButton)
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return nil
}
