// Package request builds normalized search requests from free-form input.
// Normalization is total: it has no failure modes and is idempotent.
package request

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/subseek/subseek/internal/models"
)

// languageAliases maps common language spellings to canonical codes.
// Unknown codes pass through unchanged.
var languageAliases = map[string]string{
	"chs":     "zh-cn",
	"cht":     "zh-tw",
	"zh-hans": "zh-cn",
	"zh-hant": "zh-tw",
	"chi":     "zh-cn",
	"eng":     "en",
	"jpn":     "ja",
	"kor":     "ko",
}

// Normalize turns raw query text, optional numeric constraints (zero means
// unset) and raw language preferences into a canonical models.Request.
func Normalize(query string, year, season, episode int, languages []string) models.Request {
	collapsed := collapseWhitespace(query)
	lower := strings.ToLower(collapsed)

	langs := canonicalLanguages(languages)

	return models.Request{
		Query:       collapsed,
		QueryLower:  lower,
		Tokens:      Tokenize(lower),
		Year:        year,
		Season:      season,
		Episode:     episode,
		Languages:   langs,
		Fingerprint: fingerprint(lower, year, season, episode, langs),
	}
}

// Tokenize splits text on runs of characters that are neither Unicode
// letters nor digits, lowercases, deduplicates and sorts the result.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	sort.Strings(tokens)
	return tokens
}

// canonicalLanguages trims, lowercases and alias-maps each language,
// dropping empties and deduplicating while preserving first-seen order.
// The order defines ranking preference, most preferred first.
func canonicalLanguages(languages []string) []string {
	seen := make(map[string]struct{}, len(languages))
	out := make([]string, 0, len(languages))
	for _, raw := range languages {
		lang := strings.ToLower(strings.TrimSpace(raw))
		if lang == "" {
			continue
		}
		if canonical, ok := languageAliases[lang]; ok {
			lang = canonical
		}
		if _, ok := seen[lang]; ok {
			continue
		}
		seen[lang] = struct{}{}
		out = append(out, lang)
	}
	return out
}

// fingerprint joins the normalized query, constraints and the *sorted*
// canonical language set with fixed delimiters. Sorting the languages here
// makes the fingerprint order-independent even though the preference list
// itself is order-sensitive for ranking.
func fingerprint(queryLower string, year, season, episode int, languages []string) string {
	sorted := make([]string, len(languages))
	copy(sorted, languages)
	sort.Strings(sorted)

	parts := []string{
		queryLower,
		optionalInt(year),
		optionalInt(season),
		optionalInt(episode),
		strings.Join(sorted, ","),
	}
	return strings.Join(parts, "|")
}

// collapseWhitespace folds every whitespace run into a single space and
// trims the ends.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func optionalInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
