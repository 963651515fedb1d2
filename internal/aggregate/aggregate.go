// Package aggregate fans out the concurrent fetches of all sources and
// joins them into the ranked, tagged, scored story collection.
package aggregate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/glosignal/glosignal/internal/config"
	"github.com/glosignal/glosignal/internal/correlate"
	"github.com/glosignal/glosignal/internal/feed"
	"github.com/glosignal/glosignal/internal/logging"
	"github.com/glosignal/glosignal/internal/proxy"
	"github.com/glosignal/glosignal/internal/story"
	"github.com/glosignal/glosignal/internal/topics"
)

// Ranker supplies the ranking-API front page. Satisfied by *hn.Client.
type Ranker interface {
	FrontPage(ctx context.Context) []correlate.RankedEntry
}

// Fetcher retrieves a page body through the relay layer.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) proxy.Result
}

// Orchestrator builds one story collection per poll cycle.
type Orchestrator struct {
	fetcher    Fetcher
	ranker     Ranker
	primary    config.FeedConfig
	secondary  []config.FeedConfig
	rankPage   string // fmt pattern for the discussion permalink
	selfDomain string

	// now is swappable for deterministic tests.
	now func() time.Time
}

// New creates an Orchestrator for the configured sources.
func New(f Fetcher, r Ranker, cfg config.Config) *Orchestrator {
	return &Orchestrator{
		fetcher:    f,
		ranker:     r,
		primary:    cfg.Primary,
		secondary:  cfg.Secondary,
		rankPage:   cfg.Ranking.ItemPage,
		selfDomain: story.ExtractDomain(cfg.Primary.URL),
		now:        time.Now,
	}
}

// Aggregate fetches all sources concurrently and returns the scored story
// collection. The primary feed is mandatory: its failure yields an empty
// slice and a logged error. Every other source is an optional enhancement
// defaulting to empty on failure. Callers treat an empty result as "retry
// on next poll", never as fatal.
func (o *Orchestrator) Aggregate(ctx context.Context) []story.Story {
	var (
		primaryRes proxy.Result
		ranked     []correlate.RankedEntry
		secondary  = make([][]string, len(o.secondary))
	)

	// All-settle fan-out: every branch records its own result and returns
	// nil so a failed secondary never cancels its siblings.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		primaryRes = o.fetcher.Fetch(gctx, o.primary.URL)
		return nil
	})
	g.Go(func() error {
		ranked = o.ranker.FrontPage(gctx)
		return nil
	})
	for i, sec := range o.secondary {
		i, sec := i, sec
		g.Go(func() error {
			secondary[i] = o.fetchTitles(gctx, sec)
			return nil
		})
	}
	_ = g.Wait() // branches never return errors

	if !primaryRes.OK {
		logging.Error("primary feed fetch failed", "feed", o.primary.Name, "reason", primaryRes.Reason)
		return []story.Story{}
	}

	items, err := feed.ParseItems(primaryRes.Body)
	if err != nil {
		logging.Error("primary feed parse failed", "feed", o.primary.Name, "error", err)
		return []story.Story{}
	}

	now := o.now()
	stories := make([]story.Story, 0, len(items))
	for i, item := range items {
		stories = append(stories, o.buildStory(item, i, now, ranked, secondary))
	}

	logging.Info("aggregation complete",
		"stories", len(stories), "ranked", len(ranked), "secondaries", len(secondary))
	return stories
}

// buildStory composes the decomposer, classifier and correlator output for
// one primary item. Feed order is preserved; rank is the zero-based feed
// position.
func (o *Orchestrator) buildStory(item feed.Item, rank int, now time.Time, ranked []correlate.RankedEntry, secondary [][]string) story.Story {
	title := feed.CleanTitle(item.Title)
	desc := feed.Decompose(item.Description, o.selfDomain)

	link := desc.ArticleURL
	if link == "" {
		link = item.Link
	}
	domain := story.ExtractDomain(link)

	score := correlate.Score(correlate.Signals{
		Title:       title,
		Domain:      domain,
		FeedRank:    rank,
		PublishedAt: item.Published,
		Now:         now,
		Ranked:      ranked,
		Secondary:   secondary,
	})

	s := story.Story{
		Title:          title,
		Link:           link,
		Domain:         domain,
		Snippet:        desc.Snippet,
		Summary:        desc.Snippet,
		RelatedSources: desc.SourceNames,
		RelatedLinks:   desc.SourceLinks,
		SourceCount:    len(desc.SourceNames) + 1,
		Topics:         topics.Classify(title),
		PublishedAt:    item.Published,
		DisplayAge:     story.DisplayAge(item.Published, now),
		Urgency:        story.UrgencyFor(item.Published, now),
		TrendScore:     score.Score,
		Trending:       score.Trending,
	}
	if score.Match != nil && o.rankPage != "" {
		s.HNUrl = fmt.Sprintf(o.rankPage, score.Match.ID)
	}
	if o.selfDomain != "" && strings.Contains(item.Link, o.selfDomain) {
		s.DiscussionURL = item.Link
	}
	return s
}

// fetchTitles retrieves one secondary feed through the relay layer and
// parses titles only. Unavailability maps to an empty slice.
func (o *Orchestrator) fetchTitles(ctx context.Context, cfg config.FeedConfig) []string {
	res := o.fetcher.Fetch(ctx, cfg.URL)
	if !res.OK {
		logging.Debug("secondary feed unavailable", "feed", cfg.Name, "reason", res.Reason)
		return nil
	}
	titles, err := feed.ParseTitles(res.Body)
	if err != nil {
		logging.Debug("secondary feed parse failed", "feed", cfg.Name, "error", err)
		return nil
	}
	return titles
}
