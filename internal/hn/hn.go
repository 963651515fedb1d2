// Package hn reads the story-ranking API: a JSON list of numeric IDs plus a
// per-ID detail fetch. Entries without a target URL are dropped. Any fetch
// or decode failure degrades to an empty collection.
package hn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/glosignal/glosignal/internal/correlate"
	"github.com/glosignal/glosignal/internal/logging"
	"github.com/glosignal/glosignal/internal/story"
)

const (
	maxStories    = 30 // detail-fetch the first 30 ranked IDs
	maxConcurrent = 10
)

// item is the ranking API's detail payload.
type item struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Score int    `json:"score"`
}

// Client fetches the ranked front page.
type Client struct {
	topURL  string
	itemURL string // fmt pattern with one %d
	client  *http.Client
}

// New creates a Client for the given endpoints.
func New(topURL, itemURL string) *Client {
	return &Client{
		topURL:  topURL,
		itemURL: itemURL,
		client:  &http.Client{Timeout: 6 * time.Second},
	}
}

// FrontPage returns ranked entries in rank order. It never returns an
// error; unavailability of the ranking API is a normal condition and maps
// to an empty slice.
func (c *Client) FrontPage(ctx context.Context) []correlate.RankedEntry {
	ids, err := c.fetchIDs(ctx)
	if err != nil {
		logging.Debug("ranking API unavailable", "error", err)
		return nil
	}
	if len(ids) > maxStories {
		ids = ids[:maxStories]
	}

	// Fetch details in parallel but keep rank order in the result.
	results := make([]*item, len(ids))
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrent)
	for i, id := range ids {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			it, err := c.fetchItem(ctx, id)
			if err != nil {
				return
			}
			results[i] = it
		}(i, id)
	}
	wg.Wait()

	entries := make([]correlate.RankedEntry, 0, len(results))
	for _, it := range results {
		if it == nil || it.URL == "" {
			continue
		}
		entries = append(entries, correlate.RankedEntry{
			ID:     it.ID,
			Title:  it.Title,
			Domain: story.ExtractDomain(it.URL),
			Score:  it.Score,
		})
	}
	return entries
}

func (c *Client) fetchIDs(ctx context.Context) ([]int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.topURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %s", resp.Status)
	}

	var ids []int
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return nil, fmt.Errorf("decode id list: %w", err)
	}
	return ids, nil
}

func (c *Client) fetchItem(ctx context.Context, id int) (*item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(c.itemURL, id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %s", resp.Status)
	}

	var it item
	if err := json.NewDecoder(resp.Body).Decode(&it); err != nil {
		return nil, err
	}
	return &it, nil
}
