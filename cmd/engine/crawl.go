package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"courtparser-engine/internal/poll"
	"courtparser-engine/internal/scrape/court"
)

var (
	crawlRegions  []string
	crawlMaxPages int
	crawlPublish  bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl [--region <name>]... [--max-pages N] [--publish]",
	Short: "Runs one crawl and prints the report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(crawlPublish)
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := a.cfg()
		if crawlMaxPages > 0 {
			cfg.Crawl.MaxPages = crawlMaxPages
			a.cfgVal.Store(cfg)
		}

		units := poll.ScheduledUnits(cfg, a.table)
		if len(crawlRegions) > 0 {
			units = poll.AdHocUnits(a.table, crawlRegions)
		}
		if len(units) == 0 {
			return fmt.Errorf("nothing to crawl: pass --region or configure schedule.units")
		}

		if crawlPublish {
			sum, err := a.engine.Run(cmd.Context(), units)
			fmt.Printf("run=%s units=%d cases=%d decisions=%d published=%d\n",
				sum.RunID, sum.Units, sum.Cases, sum.Decisions, sum.Published)
			return err
		}

		fetchers, err := poll.Fetchers(cfg, a.engine.Deps, units)
		if err != nil {
			return err
		}
		for _, f := range fetchers {
			res, err := f.Fetch(cmd.Context())
			if err != nil {
				log.Printf("[crawl] %s: %v", f.Name(), err)
			}
			fmt.Println(court.Summarize(res.Cases).Format(res.Region, res.Cases, 20))
		}
		return nil
	},
}

func init() {
	crawlCmd.Flags().StringArrayVar(&crawlRegions, "region", nil, "Region or federal district to crawl (repeatable)")
	crawlCmd.Flags().IntVar(&crawlMaxPages, "max-pages", 0, "Override crawl.max_pages")
	crawlCmd.Flags().BoolVar(&crawlPublish, "publish", false, "Publish the results to the sink")
	rootCmd.AddCommand(crawlCmd)
}
