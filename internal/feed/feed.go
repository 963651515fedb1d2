// Package feed decodes the primary syndication feed, lightweight title-only
// secondary feeds, and the rich-text description field of primary items.
package feed

import (
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// maxItems caps how many items are read from any feed.
const maxItems = 20

// Item is one entry of the primary feed. Missing sub-elements default to
// the zero value.
type Item struct {
	Title       string
	Link        string
	Description string
	Published   time.Time
}

// attributionRe matches a trailing parenthetical source attribution such as
// "(The Information)" or "(Joe Smith/TechCrunch)".
var attributionRe = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// CleanTitle strips the trailing parenthetical source attribution from a
// primary-feed headline.
func CleanTitle(raw string) string {
	return strings.TrimSpace(attributionRe.ReplaceAllString(raw, ""))
}

// ParseItems decodes syndication XML into at most 20 items. Malformed XML
// yields a nil slice and an error; callers treat that as an empty feed.
func ParseItems(xml string) ([]Item, error) {
	parsed, err := gofeed.NewParser().ParseString(xml)
	if err != nil {
		return nil, err
	}

	n := len(parsed.Items)
	if n > maxItems {
		n = maxItems
	}

	items := make([]Item, 0, n)
	for _, entry := range parsed.Items[:n] {
		var published time.Time
		if entry.PublishedParsed != nil {
			published = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			published = *entry.UpdatedParsed
		}
		items = append(items, Item{
			Title:       entry.Title,
			Link:        entry.Link,
			Description: entry.Description,
			Published:   published,
		})
	}
	return items, nil
}

// ParseTitles decodes syndication XML into at most 20 titles. Used for
// cross-referencing secondary sources where only headlines matter.
func ParseTitles(xml string) ([]string, error) {
	parsed, err := gofeed.NewParser().ParseString(xml)
	if err != nil {
		return nil, err
	}

	n := len(parsed.Items)
	if n > maxItems {
		n = maxItems
	}

	titles := make([]string, 0, n)
	for _, entry := range parsed.Items[:n] {
		titles = append(titles, entry.Title)
	}
	return titles, nil
}
