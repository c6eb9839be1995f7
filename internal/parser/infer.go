package parser

import (
	"regexp"
	"strings"

	"github.com/subseek/subseek/internal/models"
)

var (
	assWordPattern = regexp.MustCompile(`(?i)\b(ass|ssa)\b`)
	srtWordPattern = regexp.MustCompile(`(?i)\b(srt|subrip)\b`)
	vttWordPattern = regexp.MustCompile(`(?i)\b(vtt|webvtt)\b`)
)

// InferFormat infers a subtitle format from listing text using whole-word
// vocabulary matches. Advanced-subtitle markers beat plain-subtitle markers;
// the web-track format is the fallback when nothing matches.
func InferFormat(text string) models.Format {
	switch {
	case assWordPattern.MatchString(text):
		return models.FormatASS
	case srtWordPattern.MatchString(text):
		return models.FormatSRT
	case vttWordPattern.MatchString(text):
		return models.FormatVTT
	default:
		return models.FormatVTT
	}
}

var (
	simplifiedMarkers  = []string{"简体", "简中", "chs"}
	traditionalMarkers = []string{"繁体", "繁體", "繁中", "cht", "big5"}
	englishMarkers     = []string{"english", "英文", "eng"}
	bilingualMarkers   = []string{"双语", "雙語", "中英"}
)

// InferLanguage infers the candidate language from combined title+hint
// text. Priority: simplified Chinese, traditional Chinese, English,
// bilingual (treated as simplified+English), then generic Chinese.
func InferLanguage(text string) string {
	lower := strings.ToLower(text)
	switch {
	case containsAnyMarker(lower, simplifiedMarkers):
		return "zh-cn"
	case containsAnyMarker(lower, traditionalMarkers):
		return "zh-tw"
	case containsAnyMarker(lower, englishMarkers):
		return "en"
	case containsAnyMarker(lower, bilingualMarkers):
		return "zh-cn"
	default:
		return "zh"
	}
}

var hearingImpairedMarkers = []string{"听障", "聽障", "sdh", "hearing impaired", "cc字幕"}

func inferHearingImpaired(text string) bool {
	return containsAnyMarker(strings.ToLower(text), hearingImpairedMarkers)
}

func containsAnyMarker(lower string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
