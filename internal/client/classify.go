package client

import (
	"strings"

	"github.com/subseek/subseek/internal/apperrors"
)

// rateLimitSignatures are case-insensitive substrings that mark a
// rate-limit page or message.
var rateLimitSignatures = []string{
	"too many requests",
	"rate limit",
	"访问过于频繁",
	"请求过于频繁",
	"操作频繁",
}

// antiBotSignatures are case-insensitive substrings that mark challenge
// pages: platform names, CDN challenge markers, captcha prompts, CJK
// verification phrases and known challenge-script filenames.
var antiBotSignatures = []string{
	"cloudflare",
	"just a moment",
	"attention required",
	"challenge-platform",
	"cf-chl",
	"jschl-answer",
	"turnstile",
	"ddos-guard",
	"captcha",
	"verify you are human",
	"安全验证",
	"人机验证",
	"滑动验证",
	"请完成验证",
}

// Classify maps an HTTP status and a whitespace-collapsed body snippet to a
// bad-response classification. First match wins: rate limiting beats
// anti-bot beats the generic bucket.
func Classify(status int, snippet string) apperrors.Classification {
	lower := strings.ToLower(snippet)

	if status == 429 || containsAny(lower, rateLimitSignatures) {
		return apperrors.ClassRateLimit
	}
	if status == 401 || status == 403 || containsAny(lower, antiBotSignatures) {
		return apperrors.ClassAntiBot
	}
	return apperrors.ClassBadResponse
}

// LooksLikeChallenge reports whether text reads like an anti-bot wall.
// Catalog providers run this on raw documents before parsing: a challenge
// page can "parse" successfully into nonsense.
func LooksLikeChallenge(text string) bool {
	return containsAny(strings.ToLower(text), antiBotSignatures)
}

// LooksLikeRateLimit reports whether text reads like a rate-limit message.
func LooksLikeRateLimit(text string) bool {
	return containsAny(strings.ToLower(text), rateLimitSignatures)
}

func containsAny(lower string, signatures []string) bool {
	for _, sig := range signatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}
