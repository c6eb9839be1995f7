package models

// DownloadPlan describes how to fetch one subtitle file.
// Plans are computed fresh per request and must not be cached across
// processes: resolved URLs may be single-use or signed.
type DownloadPlan struct {
	Catalog     string `json:"catalog"`
	CandidateID string `json:"candidateId"`
	FileName    string `json:"fileName"`

	// URL is the absolute source URL to fetch the subtitle bytes from.
	URL string `json:"url"`

	Format Format `json:"format"`
}

// DownloadedPayload is a DownloadPlan together with the fetched raw bytes.
// Writing the content to storage is the caller's job.
type DownloadedPayload struct {
	Plan    DownloadPlan `json:"plan"`
	Content []byte       `json:"content"`
}

// SubtitleFile is a single subtitle entry unwrapped from a downloaded
// payload, which may have arrived as a bare file or inside a zip/rar pack.
type SubtitleFile struct {
	FileName string `json:"fileName"`
	Content  []byte `json:"content"`
}

// Health is the result of a catalog reachability probe.
// A gated catalog (challenge page) reports OK with a degraded message
// rather than a hard failure.
type Health struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
