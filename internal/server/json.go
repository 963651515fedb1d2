package server

import (
	"encoding/json"
	"regexp"

	"github.com/glosignal/glosignal/internal/enrich"
)

// fenceRe matches a Markdown code fence, optionally tagged "json".
var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSON defensively parses the model output as a summary, stripping a
// wrapping code fence when the model ignores the JSON-only instruction.
// Returns nil when no valid JSON can be recovered.
func ExtractJSON(text string) *enrich.Summary {
	var s enrich.Summary
	if err := json.Unmarshal([]byte(text), &s); err == nil {
		return &s
	}
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		if err := json.Unmarshal([]byte(m[1]), &s); err == nil {
			return &s
		}
	}
	return nil
}
