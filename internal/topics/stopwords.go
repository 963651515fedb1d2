package topics

// stopWords are common English words excluded from keyword comparison and
// fallback topic selection.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "a", "an", "is", "are", "was", "were", "in", "on", "at", "to",
		"for", "of", "and", "or", "with", "that", "this", "from", "by", "as",
		"its", "it", "has", "have", "had", "be", "been", "but", "not", "will",
		"can", "may", "new", "how", "why", "what", "who", "says", "said",
		"more", "about", "into", "over", "after", "some", "just", "than",
		"also", "would", "could", "should", "their", "they", "them", "being",
		"other", "which", "when", "where", "there", "these", "those",
	} {
		stopWords[w] = struct{}{}
	}
}

// IsStopWord reports whether the lowercased word carries no topical signal.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}
