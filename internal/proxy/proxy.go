// Package proxy resolves HTTP GETs through an ordered list of third-party
// relay endpoints with per-attempt timeouts and fallback. Relays are
// unreliable by design; every failure mode collapses to a Failed result and
// never escapes this layer as an error.
package proxy

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/glosignal/glosignal/internal/logging"
)

// minBodyLen guards against relay error pages served with a 200 status.
const minBodyLen = 500

// fetchTimeout bounds each individual relay attempt.
const fetchTimeout = 6 * time.Second

// Result is the explicit outcome of a proxied fetch. Body is only valid
// when OK is true; Reason records why the last relay attempt failed.
type Result struct {
	Body   string
	OK     bool
	Reason string
}

// Failed builds a failure result.
func Failed(reason string) Result {
	return Result{Reason: reason}
}

// Fetcher issues GETs for a target URL through relay endpoints in order.
type Fetcher struct {
	relays  []string
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// New creates a Fetcher over the given relay prefixes. Each relay is a URL
// prefix to which the encoded target URL is appended.
func New(relays []string) *Fetcher {
	return &Fetcher{
		relays: relays,
		client: &http.Client{
			// Per-attempt deadlines come from the request context.
			Timeout: 0,
		},
		// Relays throttle aggressively; stay under two requests a second
		// with a small burst for the initial fan-out.
		limiter: rate.NewLimiter(rate.Limit(2), 6),
		timeout: fetchTimeout,
	}
}

// WithTimeout returns a copy of the Fetcher using the given per-attempt
// timeout. Used by tests and by callers with slower upstreams.
func (f *Fetcher) WithTimeout(d time.Duration) *Fetcher {
	clone := *f
	clone.timeout = d
	return &clone
}

// Fetch tries each relay in order and returns the first plausible body.
// A response is plausible when the status is 200 and the body is longer
// than minBodyLen. All relays exhausted yields a Failed result.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) Result {
	last := "no relays configured"

	for _, relay := range f.relays {
		if err := f.limiter.Wait(ctx); err != nil {
			return Failed(err.Error())
		}

		body, reason := f.attempt(ctx, relay+url.QueryEscape(targetURL))
		if reason == "" {
			return Result{Body: body, OK: true}
		}
		last = reason
		logging.Debug("relay attempt failed", "relay", relay, "target", targetURL, "reason", reason)

		if ctx.Err() != nil {
			return Failed(ctx.Err().Error())
		}
	}

	return Failed(last)
}

// attempt performs a single relay GET. It returns the body and an empty
// reason on success, or a non-empty reason on any failure.
func (f *Fetcher) attempt(ctx context.Context, relayURL string) (string, string) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, relayURL, nil)
	if err != nil {
		return "", "bad request: " + err.Error()
	}
	req.Header.Set("User-Agent", "glosignal/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "request failed: " + err.Error()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "status " + resp.Status
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "read body: " + err.Error()
	}
	if len(raw) <= minBodyLen {
		return "", "body too short"
	}

	return string(raw), ""
}
