// Package catalog implements the subtitle sources behind a single
// capability interface: the scraped subku catalog and a deterministic mock.
// The set of catalogs is closed and selected by configuration.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/subseek/subseek/internal/models"
)

// Catalog is the uniform contract every subtitle source implements.
// Candidate and plan identifiers live in the catalog's own id namespace
// ("subku-…", "mock-…") so the caller can route them back.
type Catalog interface {
	// ID returns the catalog identifier.
	ID() string

	// Search returns candidate listings matching the request. An empty
	// token set short-circuits to no results without an upstream call.
	Search(ctx context.Context, req models.Request) ([]models.Candidate, error)

	// ResolveDownloadPlan resolves a candidate id into a fresh download
	// plan. Plans must not be reused across processes.
	ResolveDownloadPlan(ctx context.Context, id string) (*models.DownloadPlan, error)

	// FetchBytes resolves the plan and downloads the subtitle content.
	FetchBytes(ctx context.Context, id string) (*models.DownloadedPayload, error)

	// HealthCheck probes reachability. Best-effort; never panics.
	HealthCheck(ctx context.Context) models.Health
}

// stripNamespace validates and removes the catalog's id prefix. The inner
// id must be purely alphanumeric; anything else reads as unknown.
func stripNamespace(catalogID, id string) (string, bool) {
	prefix := catalogID + "-"
	if !strings.HasPrefix(id, prefix) {
		return "", false
	}
	inner := strings.TrimPrefix(id, prefix)
	if inner == "" || !alphanumeric(inner) {
		return "", false
	}
	return inner, true
}

func alphanumeric(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// namespaceID renders an inner catalog id into the provider namespace.
func namespaceID(catalogID, inner string) string {
	return fmt.Sprintf("%s-%s", catalogID, inner)
}

// matchesConstraints checks year/season/episode constraints by token
// presence in the candidate title: the bare year as a substring, season and
// episode as zero-padded sNN/eNN tokens.
func matchesConstraints(req models.Request, title string) bool {
	lower := strings.ToLower(title)
	if req.Year != 0 && !strings.Contains(lower, fmt.Sprintf("%d", req.Year)) {
		return false
	}
	if req.Season != 0 && !strings.Contains(lower, fmt.Sprintf("s%02d", req.Season)) {
		return false
	}
	if req.Episode != 0 && !strings.Contains(lower, fmt.Sprintf("e%02d", req.Episode)) {
		return false
	}
	return true
}
