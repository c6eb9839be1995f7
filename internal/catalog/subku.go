package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/subseek/subseek/internal/apperrors"
	"github.com/subseek/subseek/internal/cache"
	"github.com/subseek/subseek/internal/client"
	"github.com/subseek/subseek/internal/config"
	"github.com/subseek/subseek/internal/metrics"
	"github.com/subseek/subseek/internal/models"
	"github.com/subseek/subseek/internal/parser"
)

const subkuID = "subku"

// subkuCatalog scrapes the subku subtitle site. Downloads go through a
// two-stage gate: the /down/{id} page establishes a session cookie and
// yields an exchange token, then a JSON call resolves the actual file URL.
type subkuCatalog struct {
	client         *client.Client
	searchParser   *parser.SearchParser
	downloadParser *parser.DownloadParser

	// searchCache holds serialized search results keyed by request
	// fingerprint. Nil disables caching. Download plans are never cached:
	// resolved URLs are session-bound.
	searchCache cache.Cache
}

// NewSubku creates the subku catalog on top of a configured client.
// searchCache may be nil.
func NewSubku(c *client.Client, searchCache cache.Cache) Catalog {
	return &subkuCatalog{
		client:         c,
		searchParser:   parser.NewSearchParser(),
		downloadParser: parser.NewDownloadParser(),
		searchCache:    searchCache,
	}
}

func (s *subkuCatalog) ID() string {
	return subkuID
}

func (s *subkuCatalog) Search(ctx context.Context, req models.Request) ([]models.Candidate, error) {
	if !req.HasTokens() {
		return nil, nil
	}

	logger := config.GetLogger()
	cacheKey := subkuID + "|search|" + req.Fingerprint

	if s.searchCache != nil {
		if raw, ok := s.searchCache.Get(cacheKey); ok {
			var cached []models.Candidate
			if err := json.Unmarshal(raw, &cached); err == nil {
				logger.Debug().Str("fingerprint", req.Fingerprint).Msg("Search cache hit")
				return cached, nil
			}
		}
	}

	searchPath := "/search/" + url.PathEscape(req.Query)
	body, err := s.client.GetText(ctx, searchPath, nil)
	if err != nil {
		return nil, err
	}

	if client.LooksLikeChallenge(body) {
		return nil, apperrors.NewBadResponse(subkuID, s.client.Absolute(searchPath), 200,
			apperrors.ClassAntiBot, "challenge page served on search")
	}

	parsed, err := s.searchParser.ParseSearchResults(strings.NewReader(body))
	if err != nil {
		return nil, apperrors.NewBadResponse(subkuID, s.client.Absolute(searchPath), 200,
			apperrors.ClassBadResponse, fmt.Sprintf("unparseable search page: %v", err))
	}

	candidates := make([]models.Candidate, 0, len(parsed))
	for _, c := range parsed {
		if !matchesConstraints(req, c.Title) {
			continue
		}
		c.ID = namespaceID(subkuID, c.ID)
		c.Catalog = subkuID
		candidates = append(candidates, c)
	}

	if s.searchCache != nil {
		if raw, err := json.Marshal(candidates); err == nil {
			s.searchCache.Set(cacheKey, raw)
		}
	}

	logger.Debug().
		Int("parsed", len(parsed)).
		Int("kept", len(candidates)).
		Str("fingerprint", req.Fingerprint).
		Msg("Search completed")
	return candidates, nil
}

// gateResponse is the JSON payload of the second-stage download exchange.
type gateResponse struct {
	Success bool   `json:"success"`
	Pass    bool   `json:"pass"`
	Msg     string `json:"msg"`
	URL     string `json:"url"`
}

func (s *subkuCatalog) ResolveDownloadPlan(ctx context.Context, id string) (*models.DownloadPlan, error) {
	inner, ok := stripNamespace(subkuID, id)
	if !ok {
		return nil, apperrors.NewNotFound(subkuID, "subtitle", id)
	}

	gatePath := "/down/" + inner
	body, err := s.client.GetText(ctx, gatePath, nil)
	if err != nil {
		return nil, err
	}
	if client.LooksLikeChallenge(body) {
		return nil, apperrors.NewBadResponse(subkuID, s.client.Absolute(gatePath), 200,
			apperrors.ClassAntiBot, "challenge page served on download gate")
	}

	page, err := s.downloadParser.ParseDownloadPage(strings.NewReader(body))
	if err != nil {
		return nil, apperrors.NewBadResponse(subkuID, s.client.Absolute(gatePath), 200,
			apperrors.ClassBadResponse, fmt.Sprintf("unparseable download gate: %v", err))
	}

	var gate gateResponse
	exchange := map[string]string{"id": inner, "extra": page.Extra}
	if err := s.client.PostJSON(ctx, "/api/sub/down", exchange, &gate); err != nil {
		return nil, err
	}

	if !gate.Success || !gate.Pass {
		return nil, s.classifyGateRefusal(gate.Msg)
	}
	if gate.URL == "" {
		return nil, apperrors.NewBadResponse(subkuID, s.client.Absolute("/api/sub/down"), 200,
			apperrors.ClassBadResponse, "download exchange returned no URL")
	}

	fileURL := s.client.Absolute(gate.URL)
	fileName, format := planFileName(fileURL, page)

	return &models.DownloadPlan{
		Catalog:     subkuID,
		CandidateID: id,
		FileName:    fileName,
		URL:         fileURL,
		Format:      format,
	}, nil
}

// classifyGateRefusal maps a refused exchange to a classified error using
// the refusal message text. The exchange itself returned HTTP 200.
func (s *subkuCatalog) classifyGateRefusal(msg string) *apperrors.Error {
	target := s.client.Absolute("/api/sub/down")
	class := apperrors.ClassBadResponse
	switch {
	case client.LooksLikeRateLimit(msg):
		class = apperrors.ClassRateLimit
	case client.LooksLikeChallenge(msg):
		class = apperrors.ClassAntiBot
	}
	message := "download exchange refused"
	if msg != "" {
		message += ": " + msg
	}
	return apperrors.NewBadResponse(subkuID, target, 200, class, message)
}

// planFileName derives the subtitle file name and format. A URL whose last
// path segment carries an extension wins; otherwise the gate page's
// sanitized stem plus its declared (or default) format is used.
func planFileName(fileURL string, page *parser.DownloadPage) (string, models.Format) {
	format := models.ParseFormat("")
	if page.FormatKnown {
		format = page.Format
	}

	if u, err := url.Parse(fileURL); err == nil {
		segment := path.Base(u.Path)
		if ext := path.Ext(segment); ext != "" && segment != ext {
			return segment, models.ParseFormat(strings.TrimPrefix(ext, "."))
		}
	}

	return page.FileStem + format.Extension(), format
}

func (s *subkuCatalog) FetchBytes(ctx context.Context, id string) (*models.DownloadedPayload, error) {
	plan, err := s.ResolveDownloadPlan(ctx, id)
	if err != nil {
		metrics.SubtitleDownloadsTotal.WithLabelValues(subkuID, "error").Inc()
		return nil, err
	}

	inner, _ := stripNamespace(subkuID, id)
	headers := map[string]string{
		"Referer": s.client.Absolute("/down/" + inner),
	}

	content, err := s.client.GetBytes(ctx, plan.URL, headers)
	if err != nil {
		metrics.SubtitleDownloadsTotal.WithLabelValues(subkuID, "error").Inc()
		return nil, err
	}

	metrics.SubtitleDownloadsTotal.WithLabelValues(subkuID, "success").Inc()
	logger := config.GetLogger()
	logger.Info().
		Str("catalog", subkuID).
		Str("file", plan.FileName).
		Int("bytes", len(content)).
		Msg("Subtitle downloaded")

	return &models.DownloadedPayload{Plan: *plan, Content: content}, nil
}

// HealthCheck probes the catalog root. A challenge wall still counts as
// reachable, reported as degraded.
func (s *subkuCatalog) HealthCheck(ctx context.Context) models.Health {
	body, err := s.client.GetText(ctx, "/", nil)
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) && appErr.Detail.Classification == apperrors.ClassAntiBot {
			return models.Health{OK: true, Message: "reachable but gated by challenge", Detail: appErr.Message}
		}
		return models.Health{OK: false, Message: "unreachable", Detail: err.Error()}
	}
	if client.LooksLikeChallenge(body) {
		return models.Health{OK: true, Message: "reachable but gated by challenge"}
	}
	return models.Health{OK: true, Message: "ok"}
}
