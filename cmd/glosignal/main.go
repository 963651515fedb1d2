package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/glosignal/glosignal/internal/aggregate"
	"github.com/glosignal/glosignal/internal/config"
	"github.com/glosignal/glosignal/internal/enrich"
	"github.com/glosignal/glosignal/internal/extract"
	"github.com/glosignal/glosignal/internal/hn"
	"github.com/glosignal/glosignal/internal/logging"
	"github.com/glosignal/glosignal/internal/proxy"
	"github.com/glosignal/glosignal/internal/store"
)

// keepCycles bounds how much trend history the archive retains.
const keepCycles = 288 // one day at 5-minute polls

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "glosignal",
	Short: "glosignal - trending tech news aggregation pipeline",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := log.InfoLevel
		if verbose {
			level = log.DebugLevel
		}
		logging.Init(level)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll sources on a fixed interval, enriching each fresh cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			logging.Info("shutting down")
			cancel()
		}()

		pipeline := buildPipeline(cfg)

		// First cycle immediately, then on the fixed interval.
		pipeline.cycle(ctx, st)
		ticker := time.NewTicker(cfg.Poll.Interval())
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				// Let an in-flight enrichment finish persisting before
				// the store closes.
				pipeline.wg.Wait()
				return nil
			case <-ticker.C:
				pipeline.cycle(ctx, st)
			}
		}
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single aggregation+enrichment cycle and print JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		p := buildPipeline(cfg)
		ctx := context.Background()

		stories := p.orchestrator.Aggregate(ctx)
		if len(stories) == 0 {
			return fmt.Errorf("no stories: primary feed unavailable")
		}
		stories = p.enricher.Enrich(ctx, stories)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stories)
	},
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the most recent archived cycle as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer st.Close()

		_, stories, err := st.LatestCycle()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stories)
	},
}

// pipeline bundles the orchestrator and enricher built from one config.
// wg tracks in-flight background enrichment so shutdown can drain it.
type pipeline struct {
	orchestrator *aggregate.Orchestrator
	enricher     *enrich.Pipeline
	wg           sync.WaitGroup
}

func buildPipeline(cfg config.Config) *pipeline {
	fetcher := proxy.New(cfg.Proxies)
	ranker := hn.New(cfg.Ranking.TopURL, cfg.Ranking.ItemURL)
	extractor := extract.New(fetcher)
	ai := enrich.NewAIClient(cfg.AI.URL)

	return &pipeline{
		orchestrator: aggregate.New(fetcher, ranker, cfg),
		enricher:     enrich.New(extractor, ai),
	}
}

// cycle runs one aggregation pass, archives it, and enriches it in the
// background. An empty aggregation is "retry on next poll", not an error.
func (p *pipeline) cycle(ctx context.Context, st *store.Store) {
	stories := p.orchestrator.Aggregate(ctx)
	if len(stories) == 0 {
		logging.Warn("empty cycle, retrying on next poll")
		return
	}

	cycleID, err := st.SaveCycle(stories, time.Now())
	if err != nil {
		logging.Error("failed to archive cycle", "error", err)
		return
	}
	if err := st.PruneCycles(keepCycles); err != nil {
		logging.Warn("failed to prune old cycles", "error", err)
	}

	// Enrichment must not delay the next poll tick. Results are tied to
	// this cycle's ID so a new cycle can never absorb stale enrichment.
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		enriched := p.enricher.Enrich(ctx, stories)
		if err := st.UpdateEnrichment(cycleID, enriched); err != nil {
			logging.Error("failed to persist enrichment", "cycle", cycleID, "error", err)
		}
	}()
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(runCmd, onceCmd, latestCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
