// Package court drives the extended-search workflow of the court decisions
// site: form, region tree, result pages and the per-case enrichment loop.
package court

import (
	"strings"
	"time"

	"courtparser-engine/internal/regions"
)

const DefaultOrigin = "https://www.xn--90afdbaav0bd1afy6eub5d.xn--p1ai"

// selectors of the extended search page
const (
	selCaseType     = "#extendedSearch_case_type"
	selCategory     = "#extendedSearch_sub_category_1"
	selSubcategory  = "#extendedSearch_sub_category_2"
	selSearchButton = "#extendedSearch_search"
	selRegionProbe  = "[class*='court'], [class*='region'], button, a, input[type='button']"

	selBorderedTable = "table.table-bordered"
	selAnyTable      = "table"
	selCountBanner   = ".count"
	selPagination    = ".pagination"
	selCaseAnchor    = "a[href*='/extended']"
)

// Site describes the search target: where the form lives, which option codes
// to pick, and the labels stamped onto produced records.
type Site struct {
	Origin           string
	SearchPath       string
	CaseType         string
	Category         string
	Subcategory      string
	CategoryLabel    string
	SubcategoryLabel string
}

func DefaultSite() Site {
	return Site{
		Origin:           DefaultOrigin,
		SearchPath:       "/extended-search",
		CaseType:         "gr_first",
		Category:         "46",
		Subcategory:      "53",
		CategoryLabel:    "Имущественные споры",
		SubcategoryLabel: "Иски о взыскании сумм по договору займа, кредитному договору",
	}
}

func (s Site) SearchURL() string {
	return strings.TrimRight(s.Origin, "/") + "/" + strings.TrimLeft(s.SearchPath, "/")
}

// Options holds crawl limits and wait budgets.
type Options struct {
	MaxPages        int
	PageDelay       time.Duration
	CaseDelay       time.Duration
	ParseAttempts   int
	ParseRetryDelay time.Duration

	FormTimeout     time.Duration
	DropdownTimeout time.Duration
	NavTimeout      time.Duration
	TableTimeout    time.Duration
	AnyTableTimeout time.Duration
	TreeTimeout     time.Duration
	SettleTimeout   time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxPages:        10,
		PageDelay:       5 * time.Second,
		CaseDelay:       2 * time.Second,
		ParseAttempts:   3,
		ParseRetryDelay: 2 * time.Second,

		FormTimeout:     30 * time.Second,
		DropdownTimeout: 15 * time.Second,
		NavTimeout:      30 * time.Second,
		TableTimeout:    10 * time.Second,
		AnyTableTimeout: 5 * time.Second,
		TreeTimeout:     15 * time.Second,
		SettleTimeout:   5 * time.Second,
	}
}

// CrawlContext is the per-invocation search context. It is passed down
// explicitly and stamped onto every record the crawl produces.
type CrawlContext struct {
	FederalDistrict string
	Region          string
	// Regions are the tree nodes to tick; a bare district is allowed.
	Regions     []string
	Category    string
	Subcategory string
}

const (
	defaultRegion = "Республика Татарстан"
)

// ContextFor builds the context for a region request. Without regions it
// targets the default district and region. A district name among the input
// sets the district; otherwise the district of the first region is used.
func ContextFor(tbl *regions.Table, site Site, requested []string) CrawlContext {
	cc := CrawlContext{Category: site.CategoryLabel, Subcategory: site.SubcategoryLabel}

	var district string
	var actual []string
	for _, r := range requested {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if tbl.IsDistrict(r) {
			if district == "" {
				district = tbl.Resolve(r)
			}
			continue
		}
		actual = append(actual, tbl.Canonical(r))
	}

	switch {
	case district == "" && len(actual) == 0:
		cc.FederalDistrict = tbl.DefaultDistrict()
		cc.Regions = []string{defaultRegion}
	case len(actual) == 0:
		cc.FederalDistrict = district
		cc.Regions = []string{district}
	case district == "":
		cc.FederalDistrict = tbl.Resolve(actual[0])
		cc.Regions = actual
	default:
		cc.FederalDistrict = district
		cc.Regions = actual
	}
	cc.Region = strings.Join(cc.Regions, ", ")
	return cc
}
