package models

// Candidate represents one subtitle listing returned by a catalog search.
// Candidates are never mutated after creation; the caller owns returned slices.
type Candidate struct {
	// ID is the candidate identifier in the catalog's provider namespace,
	// e.g. "subku-48264".
	ID string `json:"id"`

	// Catalog is the id of the catalog that produced this candidate.
	Catalog string `json:"catalog"`

	// Title is the free-text listing title as extracted from the catalog.
	Title string `json:"title"`

	// Language is a single BCP-47-ish language tag, e.g. "zh-cn".
	Language string `json:"language"`

	// Format is the subtitle file format advertised by the listing.
	Format Format `json:"format"`

	// Downloads is the non-negative download counter shown by the catalog.
	Downloads int `json:"downloads"`

	// HearingImpaired is set when the listing is marked as an SDH/CC subtitle.
	HearingImpaired bool `json:"hearingImpaired,omitempty"`

	// Release is the optional release name the subtitle was made for.
	Release string `json:"release,omitempty"`
}

// RankedCandidate is a Candidate with its assigned score, the ordered
// human-readable reasons behind the score, and its 1-based rank.
type RankedCandidate struct {
	Candidate Candidate `json:"candidate"`
	Score     float64   `json:"score"`
	Reasons   []string  `json:"reasons"`
	Rank      int       `json:"rank"`
}
