// Package story defines the trending news item model shared by the
// aggregation and enrichment stages.
package story

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Urgency labels how fresh a story was at classification time. It is a
// snapshot taken when the story is built, never re-derived later.
type Urgency string

const (
	UrgencyJustIn     Urgency = "Just in"
	UrgencyDeveloping Urgency = "Developing"
	UrgencyNone       Urgency = ""
)

// Story is one aggregated, scored, topic-tagged news item.
//
// RelatedSources and RelatedLinks are parallel slices of the same length.
// Topics always holds at least one tag. A story's identity is its Link.
// All fields are frozen at creation except Summary, DeepExtract and
// AltSource, which enrichment may upgrade.
type Story struct {
	Title  string
	Link   string
	Domain string

	Snippet string // short summary from the feed description, "" if none
	Summary string // best available summary; starts equal to Snippet

	DeepExtract []string // extracted/generated body paragraphs, nil until enrichment
	AltSource   string   // related source that supplied the extract, "" if primary

	RelatedSources []string
	RelatedLinks   []string
	SourceCount    int // 1 + len(RelatedSources)

	Topics []string

	PublishedAt time.Time
	DisplayAge  string
	Urgency     Urgency

	Trending   bool
	TrendScore int

	HNUrl         string // deep link to the ranking-API discussion page
	DiscussionURL string // the aggregator's own permalink, "" if absent
}

// ExtractDomain returns the hostname of rawURL with any leading "www."
// stripped, or "" if the URL cannot be parsed.
func ExtractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// DisplayAge renders the age of published relative to now: "12m ago" under
// an hour, "3h ago" under a day, otherwise a short month-day date.
func DisplayAge(published, now time.Time) string {
	if published.IsZero() {
		return ""
	}
	diff := now.Sub(published)
	mins := int(diff.Minutes())
	if mins < 0 {
		mins = 0
	}
	if mins < 60 {
		return fmt.Sprintf("%dm ago", mins)
	}
	hours := int(diff.Hours())
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}
	return published.Format("Jan 2")
}

// UrgencyFor labels stories under 30 minutes old "Just in" and stories
// under 2 hours old "Developing".
func UrgencyFor(published, now time.Time) Urgency {
	if published.IsZero() {
		return UrgencyNone
	}
	age := now.Sub(published)
	switch {
	case age < 30*time.Minute:
		return UrgencyJustIn
	case age < 2*time.Hour:
		return UrgencyDeveloping
	default:
		return UrgencyNone
	}
}
