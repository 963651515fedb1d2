// Package enrich runs the best-effort second pass that upgrades each
// story's content after initial aggregation: scraped article text first,
// then optional AI summarization on top. Enrichment never blocks or fails
// the caller; the worst outcome for any story is "less content than ideal".
package enrich

import (
	"context"
	"sync"

	"github.com/glosignal/glosignal/internal/extract"
	"github.com/glosignal/glosignal/internal/logging"
	"github.com/glosignal/glosignal/internal/story"
)

// batchSize bounds peak outbound concurrency against relay rate limits.
// Batch N+1 does not start until batch N fully settles; this is deliberate
// backpressure, not an optimization target.
const batchSize = 6

// maxRelatedAttempts caps how many related links are tried after the
// primary link yields no deep extract.
const maxRelatedAttempts = 3

// Extractor pulls content out of one article URL. Satisfied by
// *extract.Extractor.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) *extract.Content
}

// Summarizer escalates raw extracted text to an AI backend. Satisfied by
// *AIClient.
type Summarizer interface {
	Enabled() bool
	Summarize(ctx context.Context, title, text string) (*Summary, error)
}

// outcome is one story's enrichment result. A zero outcome means total
// failure: no summary, no extract, no alternate source.
type outcome struct {
	summary     string
	deepExtract []string
	rawText     string
	altSource   string
}

// Pipeline enriches a story collection, returning a new slice and leaving
// the input untouched.
type Pipeline struct {
	extractor Extractor
	ai        Summarizer
}

// New creates a Pipeline. ai may be a disabled client; Phase 2 is then
// skipped entirely.
func New(e Extractor, ai Summarizer) *Pipeline {
	return &Pipeline{extractor: e, ai: ai}
}

// Enrich attempts content extraction and AI summarization for every story.
// Results are keyed by story link so a filtered or reordered collection can
// never mismatch. Each story's failure is isolated; the merged collection
// always has the same length and order as the input.
func (p *Pipeline) Enrich(ctx context.Context, stories []story.Story) []story.Story {
	outcomes := p.scrapePhase(ctx, stories)

	if p.ai != nil && p.ai.Enabled() {
		p.aiPhase(ctx, stories, outcomes)
	}

	merged := make([]story.Story, len(stories))
	for i, s := range stories {
		merged[i] = s
		o, ok := outcomes[s.Link]
		if !ok {
			continue
		}
		if o.summary != "" {
			merged[i].Summary = o.summary
		} else {
			merged[i].Summary = s.Snippet
		}
		merged[i].DeepExtract = o.deepExtract
		merged[i].AltSource = o.altSource
	}
	return merged
}

// scrapePhase runs Phase 1: fixed-size concurrent batches of article
// scraping with per-story fallback to related links.
func (p *Pipeline) scrapePhase(ctx context.Context, stories []story.Story) map[string]*outcome {
	outcomes := make(map[string]*outcome, len(stories))
	var mu sync.Mutex

	for start := 0; start < len(stories); start += batchSize {
		end := start + batchSize
		if end > len(stories) {
			end = len(stories)
		}

		var wg sync.WaitGroup
		for _, s := range stories[start:end] {
			wg.Add(1)
			go func(s story.Story) {
				defer wg.Done()
				o := p.extractWithFallbacks(ctx, s)
				mu.Lock()
				outcomes[s.Link] = o
				mu.Unlock()
			}(s)
		}
		wg.Wait()

		if ctx.Err() != nil {
			break
		}
	}
	return outcomes
}

// extractWithFallbacks tries the primary link, then up to three related
// links in order, recording which related source supplied the content.
// When every attempt fails it retains whatever partial summary the primary
// attempt produced.
func (p *Pipeline) extractWithFallbacks(ctx context.Context, s story.Story) *outcome {
	primary := p.extractor.Extract(ctx, s.Link)
	if primary != nil && primary.DeepExtract != nil {
		return &outcome{
			summary:     primary.Summary,
			deepExtract: primary.DeepExtract,
			rawText:     primary.RawText,
		}
	}

	attempts := len(s.RelatedLinks)
	if attempts > maxRelatedAttempts {
		attempts = maxRelatedAttempts
	}
	for i := 0; i < attempts; i++ {
		alt := p.extractor.Extract(ctx, s.RelatedLinks[i])
		if alt == nil || alt.DeepExtract == nil {
			continue
		}
		name := ""
		if i < len(s.RelatedSources) {
			name = s.RelatedSources[i]
		}
		if name == "" {
			name = story.ExtractDomain(s.RelatedLinks[i])
		}
		return &outcome{
			summary:     alt.Summary,
			deepExtract: alt.DeepExtract,
			rawText:     alt.RawText,
			altSource:   name,
		}
	}

	o := &outcome{}
	if primary != nil {
		o.summary = primary.Summary
	}
	return o
}

// aiPhase runs Phase 2: batched AI escalation for every story whose scrape
// produced raw text. Any failure leaves the Phase-1 result unchanged.
func (p *Pipeline) aiPhase(ctx context.Context, stories []story.Story, outcomes map[string]*outcome) {
	for start := 0; start < len(stories); start += batchSize {
		end := start + batchSize
		if end > len(stories) {
			end = len(stories)
		}

		var wg sync.WaitGroup
		for _, s := range stories[start:end] {
			o := outcomes[s.Link]
			if o == nil || o.rawText == "" {
				continue
			}
			wg.Add(1)
			go func(s story.Story, o *outcome) {
				defer wg.Done()
				sum, err := p.ai.Summarize(ctx, s.Title, o.rawText)
				if err != nil {
					logging.Debug("ai summarization skipped", "story", s.Title, "error", err)
					return
				}
				o.summary = sum.Summary
				o.deepExtract = sum.DeepExtract
			}(s, o)
		}
		wg.Wait()

		if ctx.Err() != nil {
			return
		}
	}
}
