package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// aiTimeout bounds each summarization call. Generation is slow; page
// fetches get a much tighter budget.
const aiTimeout = 15 * time.Second

// maxAIInput is the character budget for raw text sent to the backend.
const maxAIInput = 4000

// Summary is the structured result of an AI summarization call.
type Summary struct {
	Summary     string   `json:"summary"`
	DeepExtract []string `json:"deepExtract"`
}

// AIClient talks to the summarization backend. A client with an empty URL
// is disabled and refuses all calls.
type AIClient struct {
	url    string
	client *http.Client
}

// NewAIClient creates a client for the backend at url. An empty url
// disables AI enrichment.
func NewAIClient(url string) *AIClient {
	return &AIClient{
		url:    url,
		client: &http.Client{Timeout: aiTimeout},
	}
}

// Enabled reports whether a backend is configured.
func (c *AIClient) Enabled() bool {
	return c != nil && c.url != ""
}

// Summarize sends title and raw article text to the backend and returns
// its structured summary. Text beyond the input budget is dropped.
func (c *AIClient) Summarize(ctx context.Context, title, text string) (*Summary, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ai backend not configured")
	}
	if len(text) > maxAIInput {
		text = text[:maxAIInput]
	}

	payload, err := json.Marshal(map[string]string{"title": title, "text": text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("summarize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("summarize status %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	var s Summary
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	if s.Summary == "" || len(s.DeepExtract) == 0 {
		return nil, fmt.Errorf("summary response missing fields")
	}
	return &s, nil
}
