package poll

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"courtparser-engine/internal/config"
	"courtparser-engine/internal/domain"
	"courtparser-engine/internal/events"
	"courtparser-engine/internal/regions"
	"courtparser-engine/internal/scrape/court"
	"courtparser-engine/internal/scrape/types"
	"courtparser-engine/internal/store"
)

type stubFetcher struct {
	name  string
	cases []domain.CaseRecord
	err   error
	final *atomic.Bool
}

func (s stubFetcher) Name() string { return s.name }

func (s stubFetcher) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	res := types.ScrapeResult{Source: s.name, Cases: s.cases, Pages: 1}
	if s.final != nil {
		res.Finalize = func(context.Context) error { s.final.Store(true); return nil }
	}
	return res, s.err
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "poll.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db.Pool))
	return Deps{
		DB:      db.Pool,
		Sink:    store.NewSink(db.Pool, store.SinkOptions{MaxRetries: 1}),
		Hub:     events.NewHub(),
		Regions: regions.Default(),
	}
}

func decided(num string) domain.CaseRecord {
	return domain.CaseRecord{CaseNumber: num, Link: "https://court.test/" + num, HasDecision: true,
		DecisionType: "Решение", DecisionLink: "https://court.test/d/" + num + ".pdf"}
}

func drain(sub *events.Subscription) map[string]int {
	out := map[string]int{}
	for {
		select {
		case e := <-sub.C:
			out[e.Type]++
		default:
			return out
		}
	}
}

func TestRunOncePublishesEveryUnit(t *testing.T) {
	deps := testDeps(t)
	sub := deps.Hub.Subscribe()
	cfg := config.Default()

	var finalized atomic.Bool
	fetchers := []types.Fetcher{
		stubFetcher{name: "a", cases: []domain.CaseRecord{decided("1"), {CaseNumber: "2", DecisionType: domain.DecisionNotFound}}, final: &finalized},
		// partial results of a failed unit are still published
		stubFetcher{name: "b", cases: []domain.CaseRecord{decided("3")}, err: errors.New("form gone")},
		stubFetcher{name: "c"},
	}

	sum, err := RunOnce(context.Background(), deps, cfg, fetchers)
	require.NoError(t, err)
	require.Equal(t, 3, sum.Units)
	require.Equal(t, 3, sum.Cases)
	require.Equal(t, 2, sum.Decisions)
	require.Equal(t, 3, sum.Published)
	require.True(t, finalized.Load())

	stored, err := store.ListCases(context.Background(), deps.DB, store.ListCasesOpts{})
	require.NoError(t, err)
	require.Len(t, stored, 3)

	got := drain(sub)
	require.Equal(t, 3, got[events.TypeCrawlStarted])
	require.Equal(t, 3, got[events.TypeCrawlFinished])
	require.Equal(t, 2, got[events.TypeBatchPublished])
}

func TestRunOnceReportsPublishFailure(t *testing.T) {
	deps := testDeps(t)
	_, err := deps.DB.Exec(`DROP TABLE cases;`)
	require.NoError(t, err)

	_, err = RunOnce(context.Background(), deps, config.Default(), []types.Fetcher{stubFetcher{name: "a", cases: []domain.CaseRecord{decided("1")}}})
	require.ErrorIs(t, err, store.ErrPublishFailed)
}

func TestTracker(t *testing.T) {
	var val atomic.Value
	tr := NewTracker(&val)
	require.False(t, tr.Status().Running)

	tr.Begin()
	tr.Begin()
	tr.End(Summary{Cases: 4, Decisions: 1}, nil)
	require.True(t, tr.Status().Running)
	require.Equal(t, 4, tr.Status().LastCases)
	require.NotEmpty(t, tr.Status().LastOkAt)

	tr.End(Summary{}, errors.New("boom"))
	st := tr.Status()
	require.False(t, st.Running)
	require.Equal(t, "boom", st.LastError)
}

func TestScheduledUnits(t *testing.T) {
	cfg := config.Default()
	units := ScheduledUnits(cfg, regions.Default())
	require.Len(t, units, 1)
	require.Equal(t, "tatarstan", units[0].Name)
	require.Equal(t, 30*time.Minute, units[0].Every)

	cfg.Schedule.AllRegions = true
	units = ScheduledUnits(cfg, regions.Default())
	require.Len(t, units, 1+len(regions.Default().AllRegions()))
	require.Equal(t, 5*time.Minute, units[1].Every)
	require.Equal(t, []string{units[1].Name}, units[1].Regions)
}

func TestAdHocUnitsGroupByDistrict(t *testing.T) {
	units := AdHocUnits(regions.Default(), []string{"Калмыкия", "Москва", "Ростовская область"})
	require.Len(t, units, 2)
	require.Equal(t, "Центральный федеральный округ", units[0].Name)
	require.Equal(t, []string{"Калмыкия", "Ростовская область"}, units[1].Regions)
}

func TestFetchersShareOneLimiter(t *testing.T) {
	deps := testDeps(t)
	cfg := config.Default()
	cfg.Schedule.AllRegions = true
	deps.Limiter = CaseLimiter(cfg)

	scheduled, err := Fetchers(cfg, deps, ScheduledUnits(cfg, deps.Regions))
	require.NoError(t, err)
	require.Greater(t, len(scheduled), 80)
	adhoc, err := Fetchers(cfg, deps, AdHocUnits(deps.Regions, []string{"Москва", "Калмыкия"}))
	require.NoError(t, err)

	for _, f := range append(scheduled, adhoc...) {
		require.Same(t, deps.Limiter, f.(*court.Unit).Crawler().Limiter(), f.Name())
	}

	deps.Limiter = nil
	own, err := Fetchers(cfg, deps, AdHocUnits(deps.Regions, []string{"Москва", "Калмыкия"}))
	require.NoError(t, err)
	require.Len(t, own, 2)
	require.Same(t, own[0].(*court.Unit).Crawler().Limiter(), own[1].(*court.Unit).Crawler().Limiter())
}

func TestFetchersAndWiring(t *testing.T) {
	deps := testDeps(t)
	cfg := config.Default()
	cfg.Crawl.MaxPages = 3
	cfg.Decision.MinParagraphs = 8

	fs, err := Fetchers(cfg, deps, []Unit{{Name: "kalmykia", Regions: []string{"Калмыкия"}}})
	require.NoError(t, err)
	require.Len(t, fs, 1)
	require.Equal(t, "kalmykia", fs[0].Name())
	require.Equal(t, []string{"Калмыкия"}, unitRegions(fs[0]))

	require.Equal(t, 3, CrawlOptions(cfg).MaxPages)
	require.Equal(t, 2*time.Second, CrawlOptions(cfg).CaseDelay)
	rules, err := DecisionRules(cfg)
	require.NoError(t, err)
	require.Equal(t, 8, rules.MinParagraphs)
	require.Equal(t, 20, rules.MaxParagraphs)

	require.Equal(t, "gr_first", SiteFrom(cfg).CaseType)
	require.Equal(t, 7*24*time.Hour, TopicSpec(cfg).Retention)
	require.Equal(t, "sudact", SudactFetcher(cfg).Name())

	arch, err := NewArchiver(context.Background(), cfg, deps)
	require.NoError(t, err)
	require.Nil(t, arch)
}
