package story

import (
	"testing"
	"time"
)

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.theverge.com/2026/3/1/article", "theverge.com"},
		{"https://techcrunch.com/story", "techcrunch.com"},
		{"http://news.ycombinator.com/item?id=1", "news.ycombinator.com"},
		{"not a url", ""},
		{"", ""},
		{"/relative/path", ""},
	}

	for _, tt := range tests {
		if got := ExtractDomain(tt.url); got != tt.expected {
			t.Errorf("ExtractDomain(%q) = %q, want %q", tt.url, got, tt.expected)
		}
	}
}

func TestDisplayAge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		published time.Time
		expected  string
	}{
		{now.Add(-12 * time.Minute), "12m ago"},
		{now.Add(-59 * time.Minute), "59m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-23 * time.Hour), "23h ago"},
		{time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC), "Jan 2"},
		{time.Time{}, ""},
		{now.Add(2 * time.Minute), "0m ago"}, // future timestamps clamp to zero
	}

	for _, tt := range tests {
		if got := DisplayAge(tt.published, now); got != tt.expected {
			t.Errorf("DisplayAge(%v) = %q, want %q", tt.published, got, tt.expected)
		}
	}
}

func TestUrgencyFor(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		published time.Time
		expected  Urgency
	}{
		{now.Add(-10 * time.Minute), UrgencyJustIn},
		{now.Add(-29 * time.Minute), UrgencyJustIn},
		{now.Add(-31 * time.Minute), UrgencyDeveloping},
		{now.Add(-119 * time.Minute), UrgencyDeveloping},
		{now.Add(-3 * time.Hour), UrgencyNone},
		{time.Time{}, UrgencyNone},
	}

	for _, tt := range tests {
		if got := UrgencyFor(tt.published, now); got != tt.expected {
			t.Errorf("UrgencyFor(%v) = %q, want %q", tt.published, got, tt.expected)
		}
	}
}
