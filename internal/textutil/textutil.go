// Package textutil holds the stateless text cleanup applied to fetched
// entries before they are stored or sent to the model.
package textutil

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
)

const blockSelector = "p, div, li, br, h1, h2, h3, h4, h5, h6, blockquote, pre, tr"

// StripHTML returns the visible text of an HTML fragment with block
// boundaries kept as line breaks.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return NormalizeSpace(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return NormalizeSpace(fragment)
	}
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml("\n")
	})
	return NormalizeSpace(doc.Text())
}

// StripMarkdown renders markdown and keeps only its text, so links become
// their label and emphasis markers disappear.
func StripMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return NormalizeSpace(md)
	}
	return StripHTML(buf.String())
}

// NormalizeSpace collapses runs of spaces inside lines and runs of blank
// lines into a single paragraph break.
func NormalizeSpace(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// Truncate cuts text to max runes and marks the cut with "...".
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max]) + "..."
}

// FirstNonEmpty returns the first value that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
