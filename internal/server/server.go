// Package server implements the AI summarization backend: a small HTTP
// service that forwards article text to a language-model completion API
// with a fixed system prompt and returns a strict JSON summary. It emits
// permissive CORS headers mirroring the caller's origin so browser clients
// can reach it directly.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/glosignal/glosignal/internal/config"
	"github.com/glosignal/glosignal/internal/logging"
)

// maxInputChars caps the article text forwarded upstream.
const maxInputChars = 4000

const systemPrompt = `You are a tech news summarizer for GloSignal. Given an article's title and text, generate:
1. "summary": A crisp 1-2 sentence summary of the key news (what happened and why it matters)
2. "deepExtract": An array of 3-4 short paragraphs (2-3 sentences each) covering the most important details, implications, and context

Be direct and informative. No filler phrases like "In a move that..." or "This comes as...". Lead with the news.

Respond ONLY with valid JSON: { "summary": "...", "deepExtract": ["...", "...", "..."] }`

// Server is the summarization backend.
type Server struct {
	cfg    config.SummarizerConfig
	router *mux.Router
	client *http.Client
	server *http.Server
}

// New creates a Server from configuration.
func New(cfg config.SummarizerConfig) *Server {
	s := &Server{
		cfg:    cfg,
		router: mux.NewRouter(),
		client: &http.Client{Timeout: 60 * time.Second},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/", s.handleSummarize).Methods(http.MethodPost)
	s.router.HandleFunc("/", s.handlePreflight).Methods(http.MethodOptions)
	// mux's built-in method-mismatch handler replies without a body or CORS
	// headers, so route it through our JSON error path.
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.handleNotAllowed)
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start launches the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	}
	logging.Info("summarizer listening", "addr", s.cfg.Listen, "model", s.cfg.Model)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func corsHeaders(w http.ResponseWriter, origin string) {
	if origin == "" {
		origin = "*"
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("Access-Control-Max-Age", "86400")
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	corsHeaders(w, r.Header.Get("Origin"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusNotFound, map[string]string{"error": "Not found"})
}

// summarizeRequest is the caller's payload.
type summarizeRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" || req.Text == "" {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "Missing text or title"})
		return
	}

	text := req.Text
	if len(text) > maxInputChars {
		text = text[:maxInputChars]
	}

	content, err := s.complete(r.Context(), req.Title, text)
	if err != nil {
		logging.Error("upstream completion failed", "error", err)
		writeJSON(w, r, http.StatusBadGateway, map[string]string{"error": "AI API error", "detail": err.Error()})
		return
	}

	parsed := ExtractJSON(content)
	if parsed == nil || parsed.Summary == "" || len(parsed.DeepExtract) == 0 {
		writeJSON(w, r, http.StatusBadGateway, map[string]string{"error": "Failed to parse AI response"})
		return
	}

	writeJSON(w, r, http.StatusOK, parsed)
}

// complete calls the upstream messages API and returns the model's text.
func (s *Server) complete(ctx context.Context, title, text string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model":      s.cfg.Model,
		"max_tokens": 512,
		"system":     systemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": fmt.Sprintf("Title: %s\n\nArticle text:\n%s", title, text)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Upstream, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upstream response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream status %s: %s", resp.Status, bytes.TrimSpace(raw))
	}

	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode upstream response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("upstream response empty")
	}
	return parsed.Content[0].Text, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	corsHeaders(w, r.Header.Get("Origin"))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
