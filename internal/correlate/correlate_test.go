package correlate

import (
	"testing"
	"time"
)

func TestKeywords(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"OpenAI launches new model", []string{"openai", "launches", "model"}},
		{"The a an is", nil},
		{"EU to probe Big-Tech merger", []string{"probe", "big", "tech", "merger"}},
		{"", nil},
	}

	for _, tt := range tests {
		got := Keywords(tt.input)
		if len(got) != len(tt.expected) {
			t.Errorf("Keywords(%q) = %v, want %v", tt.input, got, tt.expected)
			continue
		}
		for i, w := range got {
			if w != tt.expected[i] {
				t.Errorf("Keywords(%q)[%d] = %q, want %q", tt.input, i, w, tt.expected[i])
			}
		}
	}
}

func TestTitlesOverlap(t *testing.T) {
	tests := []struct {
		a, b     string
		expected bool
	}{
		{
			"Boeing 737 MAX grounded indefinitely by FAA after safety concerns",
			"FAA grounds Boeing safety review keeps 737 MAX grounded indefinitely",
			true,
		},
		{
			"Apple announces new iPhone",
			"Boeing grounded by FAA",
			false,
		},
		// Fewer than three shared non-stop words can never match.
		{"Apple iPhone", "Apple iPhone", false},
		{"", "", false},
	}

	for _, tt := range tests {
		if got := TitlesOverlap(tt.a, tt.b); got != tt.expected {
			t.Errorf("TitlesOverlap(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestTitlesOverlapSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Boeing 737 MAX grounded indefinitely", "FAA grounds Boeing 737 MAX indefinitely"},
		{"Apple iPhone event", "Google Pixel event"},
		{"OpenAI raises billions in funding round", "OpenAI funding round values startup in billions"},
	}
	for _, p := range pairs {
		if TitlesOverlap(p[0], p[1]) != TitlesOverlap(p[1], p[0]) {
			t.Errorf("TitlesOverlap not symmetric for %q / %q", p[0], p[1])
		}
	}
}

func TestScoreRankAndRecency(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Ranked 2nd, published 10 minutes ago, no secondary matches anywhere.
	res := Score(Signals{
		Title:       "Company X raises $50M Series B",
		Domain:      "techcrunch.com",
		FeedRank:    1,
		PublishedAt: now.Add(-10 * time.Minute),
		Now:         now,
	})
	if res.Score != 2 {
		t.Errorf("Score = %d, want 2 (rank + recency)", res.Score)
	}
	if !res.Trending {
		t.Error("expected trending at score 2")
	}
	if res.Match != nil {
		t.Error("expected no ranking-API match")
	}
}

func TestScoreRankedMatch(t *testing.T) {
	now := time.Now()
	ranked := []RankedEntry{
		{ID: 1, Title: "Unrelated story about gardens and weather patterns", Domain: "example.org", Score: 500},
		{ID: 2, Title: "Company X raises huge Series B funding round", Domain: "techcrunch.com", Score: 150},
		{ID: 3, Title: "Company X raises Series B round too", Domain: "techcrunch.com", Score: 900},
	}

	res := Score(Signals{
		Title:       "Company X raises $50M Series B",
		Domain:      "techcrunch.com",
		FeedRank:    10,
		PublishedAt: now.Add(-24 * time.Hour),
		Now:         now,
		Ranked:      ranked,
	})

	// First match wins, not best match: entry 2 (score 150) is chosen even
	// though entry 3 scores higher, so no hot-entry bonus.
	if res.Match == nil || res.Match.ID != 2 {
		t.Fatalf("Match = %+v, want entry 2", res.Match)
	}
	if res.Score != 1 {
		t.Errorf("Score = %d, want 1 (match only, no hot bonus)", res.Score)
	}
	if res.Trending {
		t.Error("score 1 must not be trending")
	}
}

func TestScoreHotBonus(t *testing.T) {
	now := time.Now()
	res := Score(Signals{
		Title:    "Some story",
		Domain:   "example.com",
		FeedRank: 10,
		Now:      now,
		Ranked:   []RankedEntry{{ID: 7, Domain: "example.com", Score: 201}},
	})
	if res.Score != 2 {
		t.Errorf("Score = %d, want 2 (match + hot bonus)", res.Score)
	}
}

func TestScoreSecondaryFeeds(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	title := "Quantum computing milestone reached researchers claim breakthrough"

	res := Score(Signals{
		Title:       title,
		FeedRank:    0,
		PublishedAt: now.Add(-1 * time.Hour),
		Now:         now,
		Ranked: []RankedEntry{
			{ID: 1, Title: "Researchers claim quantum computing breakthrough milestone", Domain: "nature.com", Score: 300},
		},
		Secondary: [][]string{
			{"Quantum computing breakthrough milestone claimed by researchers"},
			{"Researchers reach quantum milestone in computing breakthrough"},
		},
	})

	// rank + recency + match + hot + two secondary feeds = 6
	if res.Score != 6 {
		t.Errorf("Score = %d, want 6", res.Score)
	}
	if !res.Trending {
		t.Error("expected trending")
	}
}

func TestScoreBounds(t *testing.T) {
	// Rank, recency, ranked match and hot bonus contribute at most 4, plus
	// one point per secondary feed; with two feeds the ceiling is 6.
	now := time.Now()
	title := "Quantum computing milestone reached researchers claim breakthrough"
	res := Score(Signals{
		Title:       title,
		Domain:      "nature.com",
		FeedRank:    0,
		PublishedAt: now,
		Now:         now,
		Ranked:      []RankedEntry{{ID: 1, Title: title, Domain: "nature.com", Score: 1000}},
		Secondary:   [][]string{{title}, {title}},
	})
	if res.Score < 0 || res.Score > 6 {
		t.Errorf("Score = %d, want within [0, 6]", res.Score)
	}
	if res.Score != 6 {
		t.Errorf("Score = %d, want maximal 6", res.Score)
	}
	if res.Trending != (res.Score >= 2) {
		t.Error("Trending must equal score >= 2")
	}
}
