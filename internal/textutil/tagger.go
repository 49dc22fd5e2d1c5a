package textutil

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"
)

// DefaultKeywords is the AI/tech vocabulary used when none is configured.
var DefaultKeywords = []string{
	"ai", "artificial intelligence", "machine learning", "ml", "deep learning",
	"neural network", "gpt", "chatgpt", "openai", "google", "microsoft",
	"programming", "coding", "python", "javascript", "react", "vue",
	"startup", "tech", "technology", "innovation", "automation",
}

const defaultMaxTags = 10

// Tagger matches a fixed keyword list against text in one pass.
type Tagger struct {
	keywords []string
	matcher  *ahocorasick.Matcher
	max      int
}

// NewTagger builds a case-insensitive tagger; max <= 0 means 10.
func NewTagger(keywords []string, max int) *Tagger {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	if max <= 0 {
		max = defaultMaxTags
	}

	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			lowered = append(lowered, k)
		}
	}

	return &Tagger{
		keywords: lowered,
		matcher:  ahocorasick.NewStringMatcher(lowered),
		max:      max,
	}
}

// Tags returns the title-cased keywords found in any of the texts, sorted
// and capped.
func (t *Tagger) Tags(texts ...string) []string {
	if t == nil || len(t.keywords) == 0 {
		return nil
	}

	haystack := strings.ToLower(strings.Join(texts, " "))
	seen := map[string]struct{}{}
	for _, idx := range t.matcher.Match([]byte(haystack)) {
		seen[titleCase(t.keywords[idx])] = struct{}{}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	if len(tags) > t.max {
		tags = tags[:t.max]
	}
	return tags
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
