package parser

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagPattern    = regexp.MustCompile(`<[^>]{0,256}>`)
	unsafePattern = regexp.MustCompile(`[\\/:*?"<>|]`)
)

// maxStemLen bounds synthesized file stems.
const maxStemLen = 80

// CleanText strips markup tags, decodes HTML entities (named and numeric)
// and collapses whitespace. Used on regex-captured fragments; goquery
// selections already come back clean.
func CleanText(fragment string) string {
	text := tagPattern.ReplaceAllString(fragment, " ")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}

// SafeStem turns a page title into a filesystem-safe file stem: unsafe
// characters stripped, whitespace collapsed, bounded length. Never empty —
// falls back to "subtitle".
func SafeStem(title string) string {
	stem := unsafePattern.ReplaceAllString(title, " ")
	stem = strings.Join(strings.Fields(stem), " ")

	if len(stem) > maxStemLen {
		// Truncate by bytes, then drop any half-cut UTF-8 sequence.
		stem = strings.ToValidUTF8(stem[:maxStemLen], "")
		stem = strings.TrimSpace(stem)
	}
	if stem == "" {
		return "subtitle"
	}
	return stem
}
