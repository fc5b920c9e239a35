package court

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"courtparser-engine/internal/browser/browsertest"
)

func pagedSite(t *testing.T, total int) *browsertest.Page {
	t.Helper()
	url := func(n int) string { return fmt.Sprintf("https://court.test/extended-search?page=%d", n) }

	render := func(n int) string {
		var links []int
		if n < total {
			links = append(links, n+1)
		}
		num := fmt.Sprintf("2-%d/2024", n)
		return resultsPage(pagination(links...), caseTable("Суд", num, fmt.Sprintf("/extended/%d", n), "", ""))
	}

	p := browsertest.New(url(1), render(1))
	for n := 2; n <= total; n++ {
		p.Routes[url(n)] = render(n)
		p.On(fmt.Sprintf("a[href$='page=%d']", n), browsertest.Navigate(url(n)))
	}
	return p
}

func TestWalkStopsAtMaxPages(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.MaxPages = 3
	parser := NewResultParser(testSite(), opts)

	page := pagedSite(t, 10)
	first, err := parser.ParseWithRetry(ctx, page, tatarstan())
	require.NoError(t, err)

	cases, pages := NewPaginator(parser, opts).Walk(ctx, page, tatarstan(), first)
	require.Equal(t, 3, pages)
	require.Len(t, cases, 3)
	require.Equal(t, "2-3/2024", cases[2].CaseNumber)
}

func TestWalkStopsWhenLinksRunOut(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.MaxPages = 10
	parser := NewResultParser(testSite(), opts)

	page := pagedSite(t, 2)
	first, _ := parser.ParseWithRetry(ctx, page, tatarstan())
	cases, pages := NewPaginator(parser, opts).Walk(ctx, page, tatarstan(), first)
	require.Equal(t, 2, pages)
	require.Len(t, cases, 2)
}

func TestWalkWithoutPagination(t *testing.T) {
	ctx := context.Background()
	parser := NewResultParser(testSite(), testOptions())
	page := browsertest.New("https://court.test/r", resultsPage("", caseTable("Суд", "2-1/2024", "/extended/1", "", "")))

	first, _ := parser.ParseWithRetry(ctx, page, tatarstan())
	cases, pages := NewPaginator(parser, testOptions()).Walk(ctx, page, tatarstan(), first)
	require.Equal(t, 1, pages)
	require.Len(t, cases, 1)
	require.Equal(t, []string(nil), filterClicks(page.Actions()))
}

func TestPageLinkIsExact(t *testing.T) {
	page := browsertest.New("https://court.test/r", resultsPage(pagination(20, 21)))
	_, err := pageLink(page, 2)
	require.Error(t, err)

	page = browsertest.New("https://court.test/r", resultsPage(pagination(2, 20)))
	a, err := pageLink(page, 2)
	require.NoError(t, err)
	href, _ := a.Attr("href")
	require.Equal(t, "/extended-search?page=2", href)
}

func TestWalkEmptyPageStops(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	parser := NewResultParser(testSite(), opts)

	page := browsertest.New("https://court.test/r?page=1",
		resultsPage(pagination(2), caseTable("Суд", "2-1/2024", "/extended/1", "", "")))
	page.Routes["https://court.test/r?page=2"] = resultsPage(pagination(3))
	page.On("a[href$='page=2']", browsertest.Navigate("https://court.test/r?page=2"))

	first, _ := parser.ParseWithRetry(ctx, page, tatarstan())
	cases, pages := NewPaginator(parser, opts).Walk(ctx, page, tatarstan(), first)
	require.Equal(t, 1, pages)
	require.Len(t, cases, 1)
}

func TestWalkWaitsForSlowPages(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.MaxPages = 3
	parser := NewResultParser(testSite(), opts)

	page := browsertest.New("https://court.test/r?page=1",
		resultsPage(pagination(2), caseTable("Суд", "2-1/2024", "/extended/1", "", "")))
	page.Routes["https://court.test/r?page=2"] = resultsPage(pagination(3), caseTable("Суд", "2-2/2024", "/extended/2", "", ""))
	page.Routes["https://court.test/r?page=3"] = resultsPage("", caseTable("Суд", "2-3/2024", "/extended/3", "", ""))
	page.On("a[href$='page=2']", browsertest.NavigateLater("https://court.test/r?page=2"))
	page.On("a[href$='page=3']", browsertest.NavigateLater("https://court.test/r?page=3"))

	first, _ := parser.ParseWithRetry(ctx, page, tatarstan())
	cases, pages := NewPaginator(parser, opts).Walk(ctx, page, tatarstan(), first)
	require.Equal(t, 3, pages)
	require.Len(t, cases, 3)
	require.Equal(t, []string{"2-1/2024", "2-2/2024", "2-3/2024"},
		[]string{cases[0].CaseNumber, cases[1].CaseNumber, cases[2].CaseNumber})
}

func TestWalkStopsWhenPageLinkDoesNotNavigate(t *testing.T) {
	ctx := context.Background()
	parser := NewResultParser(testSite(), testOptions())
	page := browsertest.New("https://court.test/r?page=1",
		resultsPage(pagination(2), caseTable("Суд", "2-1/2024", "/extended/1", "", "")))

	first, _ := parser.ParseWithRetry(ctx, page, tatarstan())
	cases, pages := NewPaginator(parser, testOptions()).Walk(ctx, page, tatarstan(), first)
	require.Equal(t, 1, pages)
	require.Len(t, cases, 1)
	require.Equal(t, "https://court.test/r?page=1", page.URL())
}

func TestWalkReadsLastEmptyPageOnce(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.ParseAttempts = 3
	parser := NewResultParser(testSite(), opts)

	page := browsertest.New("https://court.test/r?page=1",
		resultsPage(pagination(2), caseTable("Суд", "2-1/2024", "/extended/1", "", "")))
	page.Routes["https://court.test/r?page=2"] = resultsPage("")
	page.On("a[href$='page=2']", browsertest.Navigate("https://court.test/r?page=2"))

	first, _ := parser.ParseWithRetry(ctx, page, tatarstan())

	tableWaits := 0
	page.OnWait = func(_ *browsertest.Page, sel string, _ int) {
		if sel == selBorderedTable {
			tableWaits++
		}
	}
	cases, pages := NewPaginator(parser, opts).Walk(ctx, page, tatarstan(), first)
	require.Equal(t, 1, pages)
	require.Len(t, cases, 1)
	require.Equal(t, 1, tableWaits)
}

func filterClicks(actions []string) []string {
	var out []string
	for _, a := range actions {
		if len(a) > 5 && a[:5] == "click" {
			out = append(out, a)
		}
	}
	return out
}
