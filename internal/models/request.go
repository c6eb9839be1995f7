package models

// Request is a normalized, immutable search request.
// Build instances through the request package; a zero Request is valid and
// matches nothing.
type Request struct {
	// Query is the whitespace-collapsed original query text.
	Query string `json:"query"`

	// QueryLower is Query lowercased, used for case-insensitive matching.
	QueryLower string `json:"queryLower"`

	// Tokens is the deduplicated, lexicographically sorted token set derived
	// from QueryLower. Tokens are split on non-letter/non-digit boundaries.
	Tokens []string `json:"tokens"`

	// Year, Season and Episode are optional constraints; zero means unset.
	Year    int `json:"year,omitempty"`
	Season  int `json:"season,omitempty"`
	Episode int `json:"episode,omitempty"`

	// Languages is the deduplicated canonical language preference list,
	// most preferred first. Order matters for ranking, not for Fingerprint.
	Languages []string `json:"languages"`

	// Fingerprint is a deterministic key for the request: equal requests
	// (modulo whitespace, case and language aliasing/order) share it.
	Fingerprint string `json:"fingerprint"`
}

// HasTokens reports whether the request carries any query signal.
func (r Request) HasTokens() bool {
	return len(r.Tokens) > 0
}
