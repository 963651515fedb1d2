package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glosignal/glosignal/internal/config"
	"github.com/glosignal/glosignal/internal/enrich"
)

// upstreamStub plays the completion API, returning text as the model output.
func upstreamStub(t *testing.T, status int, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") == "" {
			t.Error("upstream request missing x-api-key")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("upstream request missing anthropic-version")
		}
		if status != http.StatusOK {
			http.Error(w, "upstream unhappy", status)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": text}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(upstream string) *Server {
	return New(config.SummarizerConfig{
		Listen:   ":0",
		Upstream: upstream,
		Model:    "claude-sonnet-4-5-20250929",
		APIKey:   "test-key",
	})
}

func postSummarize(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Origin", "https://glosignal.example")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestSummarize(t *testing.T) {
	up := upstreamStub(t, http.StatusOK, `{"summary": "The news.", "deepExtract": ["One.", "Two."]}`)
	s := newTestServer(up.URL)

	w := postSummarize(t, s, `{"title": "Headline", "text": "Article body."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var sum enrich.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Summary != "The news." || len(sum.DeepExtract) != 2 {
		t.Errorf("response = %+v", sum)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://glosignal.example" {
		t.Errorf("Allow-Origin = %q, want the caller's origin mirrored", got)
	}
}

func TestSummarizeFencedModelOutput(t *testing.T) {
	up := upstreamStub(t, http.StatusOK,
		"Here you go:\n```json\n{\"summary\": \"S.\", \"deepExtract\": [\"P.\"]}\n```")
	s := newTestServer(up.URL)

	w := postSummarize(t, s, `{"title": "T", "text": "X"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestSummarizeMissingFields(t *testing.T) {
	s := newTestServer("http://127.0.0.1:0")
	for _, body := range []string{
		`{}`,
		`{"title": "T"}`,
		`{"text": "X"}`,
		`not json`,
	} {
		if w := postSummarize(t, s, body); w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestSummarizeUpstreamError(t *testing.T) {
	up := upstreamStub(t, http.StatusInternalServerError, "")
	s := newTestServer(up.URL)

	w := postSummarize(t, s, `{"title": "T", "text": "X"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestSummarizeUnparseableModelOutput(t *testing.T) {
	up := upstreamStub(t, http.StatusOK, "I cannot summarize this article.")
	s := newTestServer(up.URL)

	w := postSummarize(t, s, `{"title": "T", "text": "X"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestPreflight(t *testing.T) {
	s := newTestServer("http://127.0.0.1:0")
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://glosignal.example")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("Allow-Methods = %q", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer("http://127.0.0.1:0")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want * without an Origin header", got)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body %q is not JSON: %v", w.Body.String(), err)
	}
	if body["error"] == "" {
		t.Errorf("body = %v, want a JSON error", body)
	}
}

func TestMethodNotAllowedMirrorsOrigin(t *testing.T) {
	s := newTestServer("http://127.0.0.1:0")
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("Origin", "https://glosignal.example")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://glosignal.example" {
		t.Errorf("Allow-Origin = %q, want the caller's origin mirrored", got)
	}
}

func TestNotFound(t *testing.T) {
	s := newTestServer("http://127.0.0.1:0")
	req := httptest.NewRequest(http.MethodPost, "/nope", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *enrich.Summary
	}{
		{
			name: "plain json",
			text: `{"summary": "S", "deepExtract": ["a"]}`,
			want: &enrich.Summary{Summary: "S", DeepExtract: []string{"a"}},
		},
		{
			name: "tagged fence",
			text: "```json\n{\"summary\": \"S\", \"deepExtract\": [\"a\"]}\n```",
			want: &enrich.Summary{Summary: "S", DeepExtract: []string{"a"}},
		},
		{
			name: "bare fence with preamble",
			text: "Sure!\n```\n{\"summary\": \"S\", \"deepExtract\": [\"a\"]}\n```\nDone.",
			want: &enrich.Summary{Summary: "S", DeepExtract: []string{"a"}},
		},
		{
			name: "prose",
			text: "No JSON here.",
			want: nil,
		},
		{
			name: "fenced garbage",
			text: "```\nnot json either\n```",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.text)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
			if got == nil {
				return
			}
			if got.Summary != tt.want.Summary || len(got.DeepExtract) != len(tt.want.DeepExtract) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
