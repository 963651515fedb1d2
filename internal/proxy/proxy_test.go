package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func relayServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL + "/?url="
}

func longBody() string {
	return strings.Repeat("article content ", 64)
}

func TestFetchSuccess(t *testing.T) {
	var gotTarget string
	relay := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotTarget = r.URL.Query().Get("url")
		w.Write([]byte(longBody()))
	})

	f := New([]string{relay})
	res := f.Fetch(context.Background(), "https://example.com/feed?page=2")

	if !res.OK {
		t.Fatalf("Fetch failed: %s", res.Reason)
	}
	if res.Body != longBody() {
		t.Errorf("Body = %d bytes, want relay body", len(res.Body))
	}
	if gotTarget != "https://example.com/feed?page=2" {
		t.Errorf("relay received target %q, want the decoded original", gotTarget)
	}
}

func TestFetchFallsBackOnError(t *testing.T) {
	bad := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	good := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(longBody()))
	})

	f := New([]string{bad, good})
	res := f.Fetch(context.Background(), "https://example.com/a")

	if !res.OK {
		t.Fatalf("Fetch failed: %s", res.Reason)
	}
}

func TestFetchRejectsShortBody(t *testing.T) {
	short := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Access Denied"))
	})

	f := New([]string{short})
	res := f.Fetch(context.Background(), "https://example.com/a")

	if res.OK {
		t.Fatal("expected failure for a short relay error page")
	}
	if res.Reason != "body too short" {
		t.Errorf("Reason = %q, want %q", res.Reason, "body too short")
	}
}

func TestFetchAllRelaysExhausted(t *testing.T) {
	down := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})

	f := New([]string{down, down})
	res := f.Fetch(context.Background(), "https://example.com/a")

	if res.OK {
		t.Fatal("expected failure when every relay errors")
	}
	if !strings.Contains(res.Reason, "status") {
		t.Errorf("Reason = %q, want the last attempt's status", res.Reason)
	}
}

func TestFetchNoRelays(t *testing.T) {
	f := New(nil)
	res := f.Fetch(context.Background(), "https://example.com/a")

	if res.OK || res.Reason != "no relays configured" {
		t.Errorf("got %+v, want no-relays failure", res)
	}
}

func TestFetchTimeout(t *testing.T) {
	slow := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(longBody()))
	})

	f := New([]string{slow}).WithTimeout(50 * time.Millisecond)
	res := f.Fetch(context.Background(), "https://example.com/a")

	if res.OK {
		t.Fatal("expected timeout failure")
	}
}

func TestFetchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New([]string{"http://127.0.0.1:0/?url="})
	res := f.Fetch(ctx, "https://example.com/a")

	if res.OK {
		t.Fatal("expected failure with a cancelled context")
	}
}

func TestFailedResult(t *testing.T) {
	res := Failed("relay down")
	if res.OK || res.Body != "" || res.Reason != "relay down" {
		t.Errorf("Failed() = %+v", res)
	}
}
