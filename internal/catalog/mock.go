package catalog

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/subseek/subseek/internal/apperrors"
	"github.com/subseek/subseek/internal/models"
)

const mockID = "mock"

// mockCatalog is an offline catalog that fabricates candidates
// deterministically from the request fingerprint. It exists for demos and
// integration tests: identical requests always yield identical candidates,
// plans, and bytes, with no network involved.
type mockCatalog struct{}

// NewMock creates the deterministic offline catalog.
func NewMock() Catalog {
	return &mockCatalog{}
}

func (m *mockCatalog) ID() string {
	return mockID
}

var mockLanguages = []string{"en", "zh-cn", "zh-tw"}

var mockFormats = []models.Format{models.FormatSRT, models.FormatASS, models.FormatVTT}

func (m *mockCatalog) Search(_ context.Context, req models.Request) ([]models.Candidate, error) {
	if !req.HasTokens() {
		return nil, nil
	}

	seed := fingerprintSeed(req.Fingerprint)
	count := int(seed%3) + 2

	languages := req.Languages
	if len(languages) == 0 {
		languages = mockLanguages
	}

	candidates := make([]models.Candidate, 0, count)
	for i := 0; i < count; i++ {
		entry := seed + uint64(i)*0x9e3779b97f4a7c15
		candidates = append(candidates, models.Candidate{
			ID:              namespaceID(mockID, fmt.Sprintf("%x", entry)),
			Catalog:         mockID,
			Title:           mockTitle(req, i),
			Language:        languages[i%len(languages)],
			Format:          mockFormats[int(entry)%len(mockFormats)],
			Downloads:       int(entry % 5000),
			HearingImpaired: entry%7 == 0,
		})
	}
	return candidates, nil
}

// mockTitle fabricates a title that satisfies the request's own
// year/season/episode constraints so fabricated candidates survive filtering.
func mockTitle(req models.Request, index int) string {
	parts := []string{req.Query}
	if req.Year != 0 {
		parts = append(parts, fmt.Sprintf("%d", req.Year))
	}
	if req.Season != 0 || req.Episode != 0 {
		parts = append(parts, fmt.Sprintf("S%02dE%02d", req.Season, req.Episode))
	}
	parts = append(parts, fmt.Sprintf("variant %d", index+1))
	return strings.Join(parts, " ")
}

func (m *mockCatalog) ResolveDownloadPlan(_ context.Context, id string) (*models.DownloadPlan, error) {
	inner, ok := stripNamespace(mockID, id)
	if !ok {
		return nil, apperrors.NewNotFound(mockID, "subtitle", id)
	}

	seed := fingerprintSeed(inner)
	format := mockFormats[int(seed)%len(mockFormats)]
	fileName := fmt.Sprintf("mock-%s%s", inner, format.Extension())

	return &models.DownloadPlan{
		Catalog:     mockID,
		CandidateID: id,
		FileName:    fileName,
		URL:         "mock://subtitle/" + fileName,
		Format:      format,
	}, nil
}

func (m *mockCatalog) FetchBytes(ctx context.Context, id string) (*models.DownloadedPayload, error) {
	plan, err := m.ResolveDownloadPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	content := fmt.Sprintf("1\n00:00:01,000 --> 00:00:03,000\nfixture subtitle %s\n", plan.CandidateID)
	return &models.DownloadedPayload{Plan: *plan, Content: []byte(content)}, nil
}

func (m *mockCatalog) HealthCheck(context.Context) models.Health {
	return models.Health{OK: true, Message: "ok"}
}

// fingerprintSeed hashes a fingerprint (or id) into a stable 64-bit seed.
func fingerprintSeed(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
