package feed

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxRelated caps the number of related-source mentions kept per story.
const maxRelated = 5

// Description is the decomposed form of a primary item's rich-text
// description: the canonical article URL, a short snippet, and named
// secondary-coverage mentions. SourceNames and SourceLinks are parallel.
type Description struct {
	ArticleURL  string
	Snippet     string
	SourceNames []string
	SourceLinks []string
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	ellipsisRe   = regexp.MustCompile(`\s*…\s*$`)
)

// Decompose parses the description HTML fragment. The canonical article URL
// is the first external anchor not pointing back at selfDomain; the snippet
// is the plain text after the first em dash; related sources come from
// anchors after the first, capped at five pairs in document order.
func Decompose(html, selfDomain string) Description {
	var d Description

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return d
	}

	anchors := doc.Find("a[href]")
	anchors.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if isExternal(href, selfDomain) {
			d.ArticleURL = href
			return false
		}
		return true
	})

	d.Snippet = snippetAfterDash(doc.Text())

	anchors.Each(func(i int, sel *goquery.Selection) {
		if i == 0 || len(d.SourceNames) >= maxRelated {
			return
		}
		href, _ := sel.Attr("href")
		name := strings.TrimSpace(sel.Text())
		if len(name) > 2 && len(name) < 60 && isExternal(href, selfDomain) {
			d.SourceNames = append(d.SourceNames, name)
			d.SourceLinks = append(d.SourceLinks, href)
		}
	})

	return d
}

// isExternal reports whether href is an absolute http(s) link that does not
// point back at the aggregator's own domain.
func isExternal(href, selfDomain string) bool {
	if !strings.HasPrefix(href, "http") {
		return false
	}
	return selfDomain == "" || !strings.Contains(href, selfDomain)
}

// snippetAfterDash extracts the whitespace-normalized text following the
// first em dash, normalizing a trailing ellipsis character to "...".
func snippetAfterDash(text string) string {
	idx := strings.Index(text, "—")
	if idx < 0 {
		return ""
	}
	snippet := strings.TrimSpace(text[idx+len("—"):])
	snippet = whitespaceRe.ReplaceAllString(snippet, " ")
	snippet = ellipsisRe.ReplaceAllString(snippet, "...")
	return strings.TrimSpace(snippet)
}
