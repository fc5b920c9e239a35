package poll

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"courtparser-engine/internal/archive"
	"courtparser-engine/internal/config"
	"courtparser-engine/internal/domain"
	"courtparser-engine/internal/events"
	"courtparser-engine/internal/regions"
	"courtparser-engine/internal/scrape/court"
	"courtparser-engine/internal/scrape/types"
	"courtparser-engine/internal/scrape/util"
	"courtparser-engine/internal/store"
)

// Deps are the long-lived collaborators of a poll run.
type Deps struct {
	DB       *sql.DB
	Sink     *store.Sink
	Hub      *events.Hub
	Regions  *regions.Table
	Pages    court.PageFactory
	Archiver *archive.Archiver // nil when archiving is off

	// Limiter spaces case visits across every unit and run. Nil gives each
	// Fetchers call its own.
	Limiter *util.HostLimiter
}

// Summary is what one run produced.
type Summary struct {
	RunID     string
	Units     int
	Cases     int
	Decisions int
	Published int
	Archived  int
}

// RunOnce fetches all units (at most crawl.parallel_units at a time), then
// publishes each unit's batch. A unit that fails to fetch is logged and its
// partial cases are still published. The error is non-nil when any batch
// could not be published.
func RunOnce(ctx context.Context, deps Deps, cfg config.Config, fetchers []types.Fetcher) (Summary, error) {
	sum := Summary{RunID: uuid.NewString(), Units: len(fetchers)}
	if len(fetchers) == 0 {
		return sum, nil
	}

	limit := cfg.Crawl.ParallelUnits
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	results := make(chan types.ScrapeResult, len(fetchers))
	for _, f := range fetchers {
		f := f
		g.Go(func() error {
			events.Emit(deps.Hub, events.TypeCrawlStarted, events.CrawlStarted{RunID: sum.RunID, Unit: f.Name(), Regions: unitRegions(f)})

			log.Printf("[poll] running unit=%s", f.Name())
			res, err := f.Fetch(gctx)

			fin := events.CrawlFinished{RunID: sum.RunID, Unit: f.Name(), Cases: len(res.Cases), Pages: res.Pages}
			fin.WithDecision = court.Summarize(res.Cases).WithDecision
			if err != nil {
				fin.Error = err.Error()
				log.Printf("[poll] unit=%s error: %v", f.Name(), err)
			}
			events.Emit(deps.Hub, events.TypeCrawlFinished, fin)

			results <- res
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	topic := cfg.Sink.Topic
	if err := deps.Sink.EnsureTopic(ctx, topic, TopicSpec(cfg)); err != nil {
		return sum, fmt.Errorf("%w: %w", store.ErrPublishFailed, err)
	}

	var errs []error
	for res := range results {
		sum.Cases += len(res.Cases)
		sum.Decisions += court.Summarize(res.Cases).WithDecision
		if len(res.Cases) == 0 {
			continue
		}

		n, err := deps.Sink.PublishBatchWithRetry(ctx, topic, res.Cases)
		if err != nil {
			log.Printf("[poll] publish source=%s: %v", res.Source, err)
			errs = append(errs, fmt.Errorf("%s: %w", res.Source, err))
			continue
		}
		sum.Published += n
		events.Emit(deps.Hub, events.TypeBatchPublished, events.BatchPublished{RunID: sum.RunID, Topic: topic, Records: n})

		if deps.Archiver != nil {
			sum.Archived += deps.Archiver.ArchiveAll(ctx, res.Cases)
		}
		if res.Finalize != nil {
			if err := res.Finalize(ctx); err != nil {
				log.Printf("[poll] finalize source=%s: %v", res.Source, err)
			}
		}
	}

	if n, err := deps.Sink.Cleanup(ctx); err != nil {
		log.Printf("[poll] cleanup: %v", err)
	} else if n > 0 {
		log.Printf("[poll] cleanup removed=%d", n)
	}

	log.Printf("[poll] run=%s units=%d cases=%d decisions=%d published=%d archived=%d",
		sum.RunID, sum.Units, sum.Cases, sum.Decisions, sum.Published, sum.Archived)
	return sum, errors.Join(errs...)
}

func unitRegions(f types.Fetcher) []string {
	if u, ok := f.(interface{ Regions() []string }); ok {
		return u.Regions()
	}
	return nil
}

func emitCase(deps Deps, unit string, rec domain.CaseRecord) {
	events.Emit(deps.Hub, events.TypeCaseEnriched, events.CaseEnriched{
		Unit:         unit,
		CaseNumber:   rec.CaseNumber,
		HasDecision:  rec.HasDecision,
		DecisionType: rec.DecisionType,
	})
}
