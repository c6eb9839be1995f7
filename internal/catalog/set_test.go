package catalog

import (
	"context"
	"testing"

	"github.com/subseek/subseek/internal/apperrors"
	"github.com/subseek/subseek/internal/models"
	"github.com/subseek/subseek/internal/request"
)

// stubCatalog scripts per-operation results for Set routing tests.
type stubCatalog struct {
	id         string
	candidates []models.Candidate
	searchErr  error
	plan       *models.DownloadPlan
}

func (s *stubCatalog) ID() string { return s.id }

func (s *stubCatalog) Search(context.Context, models.Request) ([]models.Candidate, error) {
	return s.candidates, s.searchErr
}

func (s *stubCatalog) ResolveDownloadPlan(_ context.Context, id string) (*models.DownloadPlan, error) {
	if s.plan == nil {
		return nil, apperrors.NewNotFound(s.id, "subtitle", id)
	}
	return s.plan, nil
}

func (s *stubCatalog) FetchBytes(ctx context.Context, id string) (*models.DownloadedPayload, error) {
	plan, err := s.ResolveDownloadPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.DownloadedPayload{Plan: *plan, Content: []byte("stub")}, nil
}

func (s *stubCatalog) HealthCheck(context.Context) models.Health {
	return models.Health{OK: true, Message: "ok"}
}

func TestSetSearch_Concatenates(t *testing.T) {
	set := NewSetFrom(
		&stubCatalog{id: "alpha", candidates: []models.Candidate{{ID: "alpha-1", Catalog: "alpha"}}},
		&stubCatalog{id: "beta", candidates: []models.Candidate{{ID: "beta-1", Catalog: "beta"}}},
	)

	candidates, err := set.Search(context.Background(), request.Normalize("q", 0, 0, 0, nil))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].ID != "alpha-1" || candidates[1].ID != "beta-1" {
		t.Errorf("Expected registration-order concatenation, got %v", candidates)
	}
}

func TestSetSearch_PartialFailureKeepsResults(t *testing.T) {
	set := NewSetFrom(
		&stubCatalog{id: "alpha", searchErr: apperrors.NewNetwork("alpha", "http://a", nil)},
		&stubCatalog{id: "beta", candidates: []models.Candidate{{ID: "beta-1", Catalog: "beta"}}},
	)

	candidates, err := set.Search(context.Background(), request.Normalize("q", 0, 0, 0, nil))
	if err != nil {
		t.Fatalf("Expected partial success, got error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ID != "beta-1" {
		t.Errorf("Expected surviving catalog's candidates, got %v", candidates)
	}
}

func TestSetSearch_TotalFailureReturnsFirstError(t *testing.T) {
	set := NewSetFrom(
		&stubCatalog{id: "alpha", searchErr: apperrors.NewTimeout("alpha", "http://a", nil)},
		&stubCatalog{id: "beta", searchErr: apperrors.NewNetwork("beta", "http://b", nil)},
	)

	_, err := set.Search(context.Background(), request.Normalize("q", 0, 0, 0, nil))
	if apperrors.KindOf(err) != apperrors.KindTimeout {
		t.Errorf("Expected first catalog's error, got %v", err)
	}
}

func TestSetRouting(t *testing.T) {
	plan := &models.DownloadPlan{Catalog: "alpha", CandidateID: "alpha-7", FileName: "x.srt", URL: "http://a/x.srt", Format: models.FormatSRT}
	set := NewSetFrom(
		&stubCatalog{id: "alpha", plan: plan},
		&stubCatalog{id: "beta"},
	)

	got, err := set.ResolveDownloadPlan(context.Background(), "alpha-7")
	if err != nil {
		t.Fatalf("ResolveDownloadPlan failed: %v", err)
	}
	if got != plan {
		t.Errorf("Expected routing to alpha's plan, got %+v", got)
	}

	payload, err := set.FetchBytes(context.Background(), "alpha-7")
	if err != nil {
		t.Fatalf("FetchBytes failed: %v", err)
	}
	if string(payload.Content) != "stub" {
		t.Errorf("Unexpected payload content: %q", payload.Content)
	}
}

func TestSetRouting_UnknownPrefix(t *testing.T) {
	set := NewSetFrom(&stubCatalog{id: "alpha"})

	for _, id := range []string{"gamma-1", "alpha", ""} {
		if _, err := set.ResolveDownloadPlan(context.Background(), id); apperrors.KindOf(err) != apperrors.KindNotFound {
			t.Errorf("ID %q: expected not-found, got %v", id, err)
		}
	}
}

func TestSetGetAndIDs(t *testing.T) {
	set := NewSetFrom(&stubCatalog{id: "alpha"}, &stubCatalog{id: "beta"})

	if _, ok := set.Get("alpha"); !ok {
		t.Error("Expected alpha catalog present")
	}
	if _, ok := set.Get("gamma"); ok {
		t.Error("Expected gamma catalog absent")
	}

	ids := set.IDs()
	if len(ids) != 2 || ids[0] != "alpha" || ids[1] != "beta" {
		t.Errorf("Unexpected ids %v", ids)
	}
}

func TestSetHealthCheck(t *testing.T) {
	set := NewSetFrom(&stubCatalog{id: "alpha"}, &stubCatalog{id: "beta"})

	health := set.HealthCheck(context.Background())
	if len(health) != 2 || !health["alpha"].OK || !health["beta"].OK {
		t.Errorf("Unexpected health report %v", health)
	}
}
