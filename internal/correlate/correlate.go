// Package correlate decides whether two headlines cover the same story and
// turns cross-source signals into a per-story trend score.
package correlate

import (
	"strings"
	"time"

	"github.com/glosignal/glosignal/internal/topics"
)

// overlapThreshold is the absolute number of shared keywords two titles
// need before they count as the same story. Titles with fewer than three
// non-stop words can never match.
const overlapThreshold = 3

// Keywords tokenizes text into lowercase alphabetic runs longer than two
// characters, dropping stop words.
func Keywords(text string) []string {
	lower := strings.ToLower(text)
	var words []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 2 && !topics.IsStopWord(b.String()) {
			words = append(words, b.String())
		}
		b.Reset()
	}
	for _, r := range lower {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return words
}

// TitlesOverlap reports whether two titles share at least three keywords.
// The check is symmetric.
func TitlesOverlap(a, b string) bool {
	wordsA := Keywords(a)
	wordsB := Keywords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return false
	}
	setB := make(map[string]struct{}, len(wordsB))
	for _, w := range wordsB {
		setB[w] = struct{}{}
	}
	matches := 0
	for _, w := range wordsA {
		if _, ok := setB[w]; ok {
			matches++
		}
	}
	return matches >= overlapThreshold
}

// RankedEntry is one entry from the story-ranking API, used as a secondary
// trending signal.
type RankedEntry struct {
	ID     int
	Title  string
	Domain string
	Score  int
}

// Signals carries everything the scorer needs for a single primary-feed item.
type Signals struct {
	Title       string
	Domain      string
	FeedRank    int // zero-based position in the primary feed
	PublishedAt time.Time
	Now         time.Time

	Ranked    []RankedEntry // ranking-API front page
	Secondary [][]string    // one title list per secondary feed
}

// Result is the outcome of trend scoring.
type Result struct {
	Score    int
	Trending bool
	// Match is the first ranking-API entry that matched by domain or title
	// overlap, nil when none did.
	Match *RankedEntry
}

// trendingFloor is the score at which a story counts as trending.
const trendingFloor = 2

// hotScore is the ranking-API score above which a match earns a second point.
const hotScore = 200

// Score accumulates the trend signals for one story:
// top-five feed rank, recency under three hours, a ranking-API match
// (with a bonus for a hot entry), and one point per corroborating
// secondary feed. Matching is first-match per collection.
func Score(s Signals) Result {
	var res Result

	if s.FeedRank < 5 {
		res.Score++
	}

	if !s.PublishedAt.IsZero() && s.Now.Sub(s.PublishedAt) < 3*time.Hour {
		res.Score++
	}

	for i := range s.Ranked {
		entry := &s.Ranked[i]
		if (entry.Domain != "" && entry.Domain == s.Domain) || TitlesOverlap(entry.Title, s.Title) {
			res.Match = entry
			res.Score++
			if entry.Score > hotScore {
				res.Score++
			}
			break
		}
	}

	for _, titles := range s.Secondary {
		for _, t := range titles {
			if TitlesOverlap(t, s.Title) {
				res.Score++
				break
			}
		}
	}

	res.Trending = res.Score >= trendingFloor
	return res
}
