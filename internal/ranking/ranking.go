// Package ranking orders catalog candidates against a normalized request.
// Scoring is pure and deterministic: identical inputs in any order produce
// identical ordered results.
package ranking

import (
	"fmt"
	"math"
	"sort"

	"github.com/subseek/subseek/internal/models"
	"github.com/subseek/subseek/internal/request"
)

// catalogBoosts is a static per-catalog additive bonus reflecting trust and
// freshness of the source.
var catalogBoosts = map[string]float64{
	"subku": 6,
	"mock":  1,
}

// Score weights.
const (
	overlapScale       = 60
	firstLanguageBonus = 30
	otherLanguageBonus = 20
	languageMissMalus  = -10
	popularityCap      = 15
	hearingImpairedPen = -2
)

// formatBonuses prefers plain text subtitles over styled ones over web
// tracks: plain files survive the most players and converters.
var formatBonuses = map[models.Format]float64{
	models.FormatSRT: 8,
	models.FormatASS: 5,
	models.FormatVTT: 4,
}

// Rank scores all candidates against req and returns the top
// min(limit, len(candidates)) in descending order, with 1-based ranks.
// The input slice is not modified.
func Rank(req models.Request, candidates []models.Candidate, limit int) []models.RankedCandidate {
	ranked := make([]models.RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		score, reasons := scoreCandidate(req, c)
		ranked = append(ranked, models.RankedCandidate{
			Candidate: c,
			Score:     score,
			Reasons:   reasons,
		})
	}

	// Total order: equal scores fall back to download count, then catalog
	// id, then candidate id. This is what makes the result independent of
	// input order.
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Candidate.Downloads != b.Candidate.Downloads {
			return a.Candidate.Downloads > b.Candidate.Downloads
		}
		if a.Candidate.Catalog != b.Candidate.Catalog {
			return a.Candidate.Catalog < b.Candidate.Catalog
		}
		return a.Candidate.ID < b.Candidate.ID
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// scoreCandidate accumulates all scoring contributions and their reasons.
func scoreCandidate(req models.Request, c models.Candidate) (float64, []string) {
	var score float64
	var reasons []string

	if req.HasTokens() {
		matched := overlapCount(req.Tokens, c.Title)
		contribution := float64(matched) / float64(len(req.Tokens)) * overlapScale
		score += contribution
		reasons = append(reasons, fmt.Sprintf("query overlap %d/%d (%+.1f)", matched, len(req.Tokens), contribution))
	}

	if bonus, reason := languageBonus(req.Languages, c.Language); reason != "" {
		score += bonus
		reasons = append(reasons, reason)
	}

	if boost, ok := catalogBoosts[c.Catalog]; ok {
		score += boost
		reasons = append(reasons, fmt.Sprintf("catalog %s boost (%+.0f)", c.Catalog, boost))
	}

	popularity := math.Min(popularityCap, math.Log10(float64(c.Downloads)+1)*5)
	score += popularity
	reasons = append(reasons, fmt.Sprintf("popularity %d downloads (%+.1f)", c.Downloads, popularity))

	if bonus, ok := formatBonuses[c.Format]; ok {
		score += bonus
		reasons = append(reasons, fmt.Sprintf("format %s (%+.0f)", c.Format, bonus))
	}

	if c.HearingImpaired {
		score += hearingImpairedPen
		reasons = append(reasons, fmt.Sprintf("hearing impaired (%+d)", hearingImpairedPen))
	}

	return score, reasons
}

// overlapCount counts how many request tokens appear in the candidate's own
// tokenized title.
func overlapCount(reqTokens []string, title string) int {
	titleTokens := make(map[string]struct{})
	for _, tok := range request.Tokenize(title) {
		titleTokens[tok] = struct{}{}
	}

	var matched int
	for _, tok := range reqTokens {
		if _, ok := titleTokens[tok]; ok {
			matched++
		}
	}
	return matched
}

// languageBonus scores the candidate language against the preference list:
// full bonus for the most preferred language, a smaller one for any other
// preference, a penalty when preferences exist but none match, and nothing
// when no preferences were supplied.
func languageBonus(preferences []string, language string) (float64, string) {
	if len(preferences) == 0 {
		return 0, ""
	}
	if language == preferences[0] {
		return firstLanguageBonus, fmt.Sprintf("preferred language %s (%+d)", language, firstLanguageBonus)
	}
	for _, pref := range preferences[1:] {
		if language == pref {
			return otherLanguageBonus, fmt.Sprintf("accepted language %s (%+d)", language, otherLanguageBonus)
		}
	}
	return languageMissMalus, fmt.Sprintf("language %s not preferred (%+d)", language, languageMissMalus)
}
