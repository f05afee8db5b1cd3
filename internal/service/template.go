package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/timmy/memeforge/internal/cache"
	"github.com/timmy/memeforge/internal/domain"
	"github.com/timmy/memeforge/internal/logger"
	"github.com/timmy/memeforge/internal/repository"
	"github.com/timmy/memeforge/internal/source"
)

const (
	DefaultTemplatesCacheKey = "trending_memes"
	DefaultTemplatesCacheTTL = time.Hour

	defaultListLimit = 20
	maxListLimit     = 100
)

// TemplateService serves the trending template list through a TTL cache,
// and the imported templates from the repository.
type TemplateService struct {
	cache  cache.Cache
	source source.TemplateSource
	repo   *repository.TemplateRepository
	key    string
	ttl    time.Duration
}

// TemplateConfig holds configuration for the template service.
type TemplateConfig struct {
	CacheKey string
	CacheTTL time.Duration
}

// NewTemplateService creates a new template service.
func NewTemplateService(c cache.Cache, src source.TemplateSource, repo *repository.TemplateRepository, cfg *TemplateConfig) *TemplateService {
	if cfg == nil {
		cfg = &TemplateConfig{}
	}
	key := cfg.CacheKey
	if key == "" {
		key = DefaultTemplatesCacheKey
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultTemplatesCacheTTL
	}
	return &TemplateService{
		cache:  c,
		source: src,
		repo:   repo,
		key:    key,
		ttl:    ttl,
	}
}

// GetOrRefresh returns the cached template list, refreshing it from the
// provider on a miss. An empty provider result is returned but never cached,
// so the next call retries the provider. The returned slice is never nil.
func (s *TemplateService) GetOrRefresh(ctx context.Context) []domain.TemplateSummary {
	ctx = logger.WithField(ctx, logger.FieldCacheKey, s.key)

	if cached, ok := s.lookup(ctx); ok {
		return cached
	}

	start := time.Now()
	templates := s.source.FetchTemplates(ctx)
	if len(templates) == 0 {
		logger.With(logger.Fields{logger.FieldProvider: s.source.GetSourceID()}).
			WithDuration(start).
			Warn(ctx, "Provider returned no templates, cache left empty")
		return []domain.TemplateSummary{}
	}

	payload, err := json.Marshal(templates)
	if err != nil {
		logger.CtxError(ctx, "Failed to encode templates for cache: %v", err)
		return templates
	}
	if err := s.cache.Set(ctx, s.key, payload, s.ttl); err != nil {
		logger.CtxWarn(ctx, "Failed to write template cache: %v", err)
		return templates
	}

	logger.With(logger.Fields{logger.FieldProvider: s.source.GetSourceID()}).
		WithCount(len(templates)).
		WithSize(len(payload)).
		WithDuration(start).
		Info(ctx, "Template cache refreshed")
	return templates
}

// lookup reads and decodes the cached list. Read errors, undecodable values
// and empty lists all count as a miss.
func (s *TemplateService) lookup(ctx context.Context) ([]domain.TemplateSummary, bool) {
	raw, ok, err := s.cache.Get(ctx, s.key)
	if err != nil {
		logger.CtxWarn(ctx, "Template cache read failed, treating as miss: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var templates []domain.TemplateSummary
	if err := json.Unmarshal(raw, &templates); err != nil {
		logger.CtxWarn(ctx, "Discarding undecodable template cache entry: %v", err)
		return nil, false
	}
	if len(templates) == 0 {
		return nil, false
	}
	logger.CtxDebug(ctx, "Template cache hit (%d templates)", len(templates))
	return templates, true
}

// TemplateListResult is a page of stored templates.
type TemplateListResult struct {
	Results []domain.TemplateSummary `json:"results"`
	Total   int64                    `json:"total"`
	Limit   int                      `json:"limit"`
	Offset  int                      `json:"offset"`
}

// ListStored pages through imported templates, newest first. An empty
// category lists every category.
func (s *TemplateService) ListStored(ctx context.Context, category string, limit, offset int) (*TemplateListResult, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	result := &TemplateListResult{
		Results: []domain.TemplateSummary{},
		Limit:   limit,
		Offset:  offset,
	}
	if s.repo == nil {
		return result, nil
	}

	templates, err := s.repo.List(ctx, category, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, category)
	if err != nil {
		return nil, err
	}

	for i := range templates {
		result.Results = append(result.Results, templates[i].Summary())
	}
	result.Total = total
	return result, nil
}
