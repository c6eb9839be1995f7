package catalog

import (
	"context"
	"strings"

	"github.com/subseek/subseek/internal/apperrors"
	"github.com/subseek/subseek/internal/cache"
	"github.com/subseek/subseek/internal/client"
	"github.com/subseek/subseek/internal/config"
	"github.com/subseek/subseek/internal/models"
)

// Set is the configured collection of catalogs. Search fans out over all of
// them; download operations route by the candidate id's catalog prefix.
type Set struct {
	catalogs []Catalog
	byID     map[string]Catalog

	searchCache cache.Cache
}

// NewSet builds the catalog set from configuration. The mock catalog is
// always present; subku joins when a domain is configured. The search cache
// is shared and owned by the Set.
func NewSet(cfg *config.Config) (*Set, error) {
	set := &Set{byID: make(map[string]Catalog)}

	if cfg.Cache.Provider != "" {
		searchCache, err := cache.New(cfg.Cache.Provider, cache.ProviderConfig{
			Size:          cfg.Cache.Size,
			TTL:           config.Duration(cfg.Cache.TTL, 0),
			RedisAddress:  cfg.Cache.RedisAddress,
			RedisPassword: cfg.Cache.RedisPassword,
			RedisDB:       cfg.Cache.RedisDB,
			Logger:        zerologCacheLogger{},
			Group:         "search",
		})
		if err != nil {
			return nil, err
		}
		set.searchCache = searchCache
	}

	if cfg.SubkuDomain != "" {
		opts := client.DefaultOptions(cfg.SubkuDomain, subkuID)
		opts.Timeout = config.Duration(cfg.ClientTimeout, config.DefaultClientTimeout)
		opts.Retries = cfg.Retries
		opts.BaseBackoff = config.Duration(cfg.BaseBackoff, config.DefaultBaseBackoff)
		opts.MaxBackoff = config.Duration(cfg.MaxBackoff, config.DefaultMaxBackoff)

		subkuClient, err := client.New(opts)
		if err != nil {
			return nil, err
		}
		set.add(NewSubku(subkuClient, set.searchCache))
	}

	set.add(NewMock())
	return set, nil
}

// NewSetFrom assembles a Set from explicit catalogs, for tests and embedding.
func NewSetFrom(catalogs ...Catalog) *Set {
	set := &Set{byID: make(map[string]Catalog)}
	for _, c := range catalogs {
		set.add(c)
	}
	return set
}

func (s *Set) add(c Catalog) {
	s.catalogs = append(s.catalogs, c)
	s.byID[c.ID()] = c
}

// Get returns the catalog with the given id.
func (s *Set) Get(id string) (Catalog, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// IDs returns the ids of all configured catalogs, in registration order.
func (s *Set) IDs() []string {
	ids := make([]string, len(s.catalogs))
	for i, c := range s.catalogs {
		ids[i] = c.ID()
	}
	return ids
}

// Search queries every catalog in order and concatenates the results.
// A catalog failure does not abort the others; the first failure is
// returned only when no catalog produced anything.
func (s *Set) Search(ctx context.Context, req models.Request) ([]models.Candidate, error) {
	logger := config.GetLogger()

	var candidates []models.Candidate
	var firstErr error
	for _, c := range s.catalogs {
		found, err := c.Search(ctx, req)
		if err != nil {
			logger.Warn().Err(err).Str("catalog", c.ID()).Msg("Catalog search failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		candidates = append(candidates, found...)
	}

	if len(candidates) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return candidates, nil
}

// route resolves a namespaced candidate id to its owning catalog.
func (s *Set) route(candidateID string) (Catalog, error) {
	for _, c := range s.catalogs {
		if strings.HasPrefix(candidateID, c.ID()+"-") {
			return c, nil
		}
	}
	return nil, apperrors.NewNotFound("", "subtitle", candidateID)
}

// ResolveDownloadPlan routes the candidate id to its catalog and resolves a
// fresh download plan.
func (s *Set) ResolveDownloadPlan(ctx context.Context, candidateID string) (*models.DownloadPlan, error) {
	c, err := s.route(candidateID)
	if err != nil {
		return nil, err
	}
	return c.ResolveDownloadPlan(ctx, candidateID)
}

// FetchBytes routes the candidate id to its catalog and downloads the
// subtitle content.
func (s *Set) FetchBytes(ctx context.Context, candidateID string) (*models.DownloadedPayload, error) {
	c, err := s.route(candidateID)
	if err != nil {
		return nil, err
	}
	return c.FetchBytes(ctx, candidateID)
}

// HealthCheck probes every catalog and reports per-catalog health.
func (s *Set) HealthCheck(ctx context.Context) map[string]models.Health {
	out := make(map[string]models.Health, len(s.catalogs))
	for _, c := range s.catalogs {
		out[c.ID()] = c.HealthCheck(ctx)
	}
	return out
}

// Close releases the shared search cache.
func (s *Set) Close() error {
	if s.searchCache == nil {
		return nil
	}
	return s.searchCache.Close()
}

// zerologCacheLogger adapts the global logger to the cache error reporter.
type zerologCacheLogger struct{}

func (zerologCacheLogger) Error(msg string, err error) {
	logger := config.GetLogger()
	logger.Error().Err(err).Msg(msg)
}
