// Package topics maps story titles to topic tags via keyword rules.
package topics

import (
	"strings"
	"unicode"
)

// Rule binds a topic tag to the case-insensitive substrings that trigger it.
type Rule struct {
	Tag      string
	Keywords []string
}

// Rules is evaluated in order; earlier tags win when a title matches more
// than two rules.
var Rules = []Rule{
	{Tag: "AI", Keywords: []string{"ai", "artificial intelligence", "chatgpt", "openai", "llm", "generative", "copilot", "gemini", "claude", "machine learning", "deep learning", "neural", "gpt", "anthropic", "midjourney", "stable diffusion", "perplexity"}},
	{Tag: "Apple", Keywords: []string{"apple", "iphone", "ipad", "mac", "ios", "macos", "wwdc", "airpods", "vision pro", "app store", "tim cook", "siri"}},
	{Tag: "Google", Keywords: []string{"google", "alphabet", "android", "chrome", "youtube", "pixel", "waymo", "deepmind"}},
	{Tag: "Microsoft", Keywords: []string{"microsoft", "windows", "azure", "xbox", "linkedin", "bing", "teams", "satya nadella"}},
	{Tag: "Meta", Keywords: []string{"meta", "facebook", "instagram", "whatsapp", "threads", "zuckerberg", "quest"}},
	{Tag: "Amazon", Keywords: []string{"amazon", "aws", "alexa", "prime", "bezos"}},
	{Tag: "Crypto", Keywords: []string{"crypto", "bitcoin", "ethereum", "blockchain", "nft", "web3", "defi", "coinbase", "binance"}},
	{Tag: "Funding", Keywords: []string{"raises", "funding", "valuation", "series a", "series b", "series c", "ipo", "venture", "investors", "billion-dollar", "acquisition", "acquires", "acquired", "merger"}},
	{Tag: "Security", Keywords: []string{"hack", "breach", "vulnerability", "cybersecurity", "ransomware", "malware", "privacy", "surveillance", "exploit", "data leak"}},
	{Tag: "Startups", Keywords: []string{"startup", "launches", "founded", "y combinator", "techstars"}},
	{Tag: "EVs", Keywords: []string{"tesla", "ev ", "electric vehicle", "rivian", "lucid", "charging", "elon musk"}},
	{Tag: "Social", Keywords: []string{"twitter", "tiktok", "snapchat", "social media", "x.com", "bluesky", "mastodon"}},
	{Tag: "Space", Keywords: []string{"spacex", "nasa", "rocket", "satellite", "orbit", "starship", "launch", "mars", "moon"}},
	{Tag: "Policy", Keywords: []string{"regulation", "antitrust", "lawsuit", "legislation", "congress", "fcc", "ftc", "eu ", "european commission", "ban", "fine", "ruling", "court", "senate", "doj", "subpoena", "dhs", "executive order"}},
	{Tag: "Chips", Keywords: []string{"chip", "semiconductor", "nvidia", "amd", "intel", "tsmc", "qualcomm", "arm", "gpu"}},
	{Tag: "Gaming", Keywords: []string{"gaming", "game", "playstation", "nintendo", "steam", "epic games", "unity", "unreal"}},
	{Tag: "Cloud", Keywords: []string{"cloud", "saas", "infrastructure", "kubernetes", "serverless", "databricks", "snowflake"}},
	{Tag: "Health", Keywords: []string{"health", "biotech", "medical", "fda", "drug", "clinical", "genomic", "crispr", "pharma"}},
	{Tag: "Telecom", Keywords: []string{"5g", "6g", "telecom", "broadband", "spectrum", "carrier", "verizon", "at&t", "t-mobile"}},
	{Tag: "Robotics", Keywords: []string{"robot", "drone", "autonomous", "self-driving", "humanoid"}},
}

const maxTags = 2

// Classify returns 1-2 topic tags for a title. The first two matching rules
// in table order win; if nothing matches, a deterministic fallback picks the
// first distinctive capitalized word, or "Tech" as a last resort. The result
// is never empty.
func Classify(title string) []string {
	lower := strings.ToLower(title)

	var matched []string
	for _, rule := range Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, rule.Tag)
				break
			}
		}
		if len(matched) == maxTags {
			break
		}
	}
	if len(matched) > 0 {
		return matched
	}
	return []string{fallbackTopic(title)}
}

// fallbackTopic scans for the first capitalized non-stop-word token that is
// not the leading word of the title. Title-case on the first word carries no
// signal, so it is skipped.
func fallbackTopic(title string) string {
	words := strings.Fields(title)
	for i, raw := range words {
		w := stripNonAlpha(raw)
		if len(w) < 3 {
			continue
		}
		if IsStopWord(strings.ToLower(w)) {
			continue
		}
		if i > 0 && unicode.IsUpper(rune(w[0])) {
			return w
		}
	}
	return "Tech"
}

// stripNonAlpha drops everything except letters and apostrophes.
func stripNonAlpha(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '\'' {
			return r
		}
		return -1
	}, s)
}
