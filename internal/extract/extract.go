// Package extract pulls a short summary and meaningful body paragraphs out
// of arbitrary third-party article HTML. Extraction is best-effort:
// selectors are heuristics, not a contract, and many pages will
// legitimately yield nothing.
package extract

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/glosignal/glosignal/internal/proxy"
)

const (
	summaryLen   = 200
	paragraphLen = 300

	minParagraphLen = 60  // visible text shorter than this is boilerplate
	minMetaDescLen  = 40  // meta descriptions shorter than this are skipped
	dedupePrefixLen = 80  // paragraphs sharing this prefix are duplicates
	minRawTextLen   = 100 // raw text shorter than this is useless for AI input

	maxDeepParagraphs = 4
	maxRawParagraphs  = 8
)

// contentSelectors lists likely article-body containers. Several commonly
// match the same node on real pages, hence the dedupe pass below.
var contentSelectors = strings.Join([]string{
	"article p", `[class*="article"] p`, `[class*="story"] p`,
	`[class*="post"] p`, `[class*="content"] p`, "main p",
	".entry-content p", ".body p", "#article-body p",
}, ", ")

// skipRe matches bylines, photo credits, share prompts and similar
// boilerplate paragraph prefixes.
var skipRe = regexp.MustCompile(`(?i)^(by |photo |image |credit |published |updated |share |comment|advertisement|subscribe|sign up|newsletter)`)

var spaceRe = regexp.MustCompile(`\s+`)

// Content is the extracted form of one article page.
type Content struct {
	Summary     string   // short summary, "" if none found
	DeepExtract []string // up to four body paragraphs, nil if none
	RawText     string   // up to eight paragraphs for AI input, "" if too short
}

// Fetcher retrieves a page body. Satisfied by *proxy.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) proxy.Result
}

// Extractor fetches article pages and extracts their content.
type Extractor struct {
	fetcher Fetcher
}

// New creates an Extractor over the given fetcher.
func New(f Fetcher) *Extractor {
	return &Extractor{fetcher: f}
}

// Extract fetches pageURL and extracts its content. It returns nil when the
// fetch fails or the page yields neither a summary nor paragraphs.
func (e *Extractor) Extract(ctx context.Context, pageURL string) *Content {
	res := e.fetcher.Fetch(ctx, pageURL)
	if !res.OK {
		return nil
	}
	return FromHTML(res.Body, pageURL)
}

// FromHTML extracts content from an already-fetched HTML document. pageURL
// is used only by the readability fallback for resolving relative links.
func FromHTML(html, pageURL string) *Content {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	metaDesc := metaDescription(doc)
	paragraphs := bodyParagraphs(doc)
	if len(paragraphs) == 0 {
		paragraphs = readabilityParagraphs(html, pageURL)
	}

	var summary string
	if len(metaDesc) >= minMetaDescLen {
		summary = CleanSummary(metaDesc, summaryLen)
	} else if len(paragraphs) > 0 {
		summary = CleanSummary(paragraphs[0], summaryLen)
	}

	var deep []string
	for i, p := range paragraphs {
		if i == maxDeepParagraphs {
			break
		}
		deep = append(deep, CleanSummary(p, paragraphLen))
	}

	raw := paragraphs
	if len(raw) > maxRawParagraphs {
		raw = raw[:maxRawParagraphs]
	}
	rawText := strings.Join(raw, "\n\n")
	if len(rawText) <= minRawTextLen {
		rawText = ""
	}

	if summary == "" && deep == nil {
		return nil
	}
	return &Content{Summary: summary, DeepExtract: deep, RawText: rawText}
}

// metaDescription reads the page's short description, preferring the
// Open Graph tag, then the standard tag, then the Twitter card.
func metaDescription(doc *goquery.Document) string {
	for _, sel := range []string{
		`meta[property="og:description"]`,
		`meta[name="description"]`,
		`meta[name="twitter:description"]`,
	} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok && content != "" {
			return content
		}
	}
	return ""
}

// bodyParagraphs collects paragraph text from likely content containers,
// dropping short and boilerplate paragraphs and deduplicating overlapping
// selector matches by leading prefix.
func bodyParagraphs(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var out []string

	doc.Find(contentSelectors).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) <= minParagraphLen || skipRe.MatchString(text) {
			return
		}
		key := text
		if len(key) > dedupePrefixLen {
			key = key[:dedupePrefixLen]
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, text)
	})

	return out
}

// readabilityParagraphs is the fallback when the selector heuristics find
// nothing: run the page through readability and split its text content.
func readabilityParagraphs(html, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	article, err := readability.FromReader(strings.NewReader(html), base)
	if err != nil {
		return nil
	}

	var out []string
	for _, block := range strings.Split(article.TextContent, "\n") {
		text := strings.TrimSpace(block)
		if len(text) > minParagraphLen && !skipRe.MatchString(text) {
			out = append(out, text)
		}
	}
	return out
}

// CleanSummary collapses whitespace and truncates text to maxLen, cutting
// at the last sentence boundary past the midpoint when one exists,
// otherwise hard-truncating and appending "...". Already-short input is
// returned unchanged.
func CleanSummary(text string, maxLen int) string {
	clean := strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}

	truncated := runes[:maxLen]
	for i := maxLen - 2; i > maxLen/2; i-- {
		if truncated[i] == '.' && truncated[i+1] == ' ' {
			return string(truncated[:i+1])
		}
	}
	return string(truncated) + "..."
}
