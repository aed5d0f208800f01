package services

import (
	"context"
	"strings"
	"time"

	"github.com/serviceinfo/serviceinfo/internal/domain/area"
	"github.com/serviceinfo/serviceinfo/internal/domain/provider"
	"github.com/serviceinfo/serviceinfo/internal/domain/search"
	"github.com/serviceinfo/serviceinfo/internal/domain/service"
	"github.com/serviceinfo/serviceinfo/internal/pkg/i18n"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
	"github.com/serviceinfo/serviceinfo/internal/pkg/metrics"
)

const (
	rebuildBatchSize   = 500
	defaultSearchLimit = 50
	maxSearchLimit     = 100
)

// SearchService implements search.Service
type SearchService struct {
	repo      search.Repository
	services  service.Repository
	providers provider.Repository
	areas     area.Repository
	logger    *logger.Logger
}

// NewSearchService creates a new search service
func NewSearchService(
	repo search.Repository,
	services service.Repository,
	providers provider.Repository,
	areas area.Repository,
	log *logger.Logger,
) search.Service {
	return &SearchService{
		repo:      repo,
		services:  services,
		providers: providers,
		areas:     areas,
		logger:    log,
	}
}

// Rebuild regenerates the index from every current service
func (s *SearchService) Rebuild(ctx context.Context) (int, error) {
	start := time.Now()

	var current []*service.Service
	for offset := 0; ; offset += rebuildBatchSize {
		batch, total, err := s.services.List(ctx, service.Filter{Status: service.StatusCurrent}, rebuildBatchSize, offset)
		if err != nil {
			return 0, err
		}
		current = append(current, batch...)
		if int64(offset+len(batch)) >= total || len(batch) == 0 {
			break
		}
	}

	types, err := s.services.ListTypes(ctx)
	if err != nil {
		return 0, err
	}
	typeNames := make(map[int64]i18n.Text, len(types))
	for _, t := range types {
		typeNames[t.ID] = t.Name
	}

	providerNames := make(map[int64]i18n.Text)
	areaNames := make(map[int64]i18n.Text)

	entries := make([]search.Entry, 0, len(current))
	for _, svc := range current {
		parts := []i18n.Text{svc.Name, svc.Description}

		name, ok := providerNames[svc.ProviderID]
		if !ok {
			if p, err := s.providers.GetByID(ctx, svc.ProviderID); err == nil {
				name = p.Name
			}
			providerNames[svc.ProviderID] = name
		}
		parts = append(parts, name)

		areaName, ok := areaNames[svc.AreaID]
		if !ok {
			if a, err := s.areas.GetByID(ctx, svc.AreaID); err == nil {
				areaName = a.Name
			}
			areaNames[svc.AreaID] = areaName
		}
		parts = append(parts, areaName)

		if svc.TypeID != nil {
			parts = append(parts, typeNames[*svc.TypeID])
		}

		entries = append(entries, search.Entry{ServiceID: svc.ID, Document: document(parts)})
	}

	if err := s.repo.Replace(ctx, entries); err != nil {
		s.logger.ErrorWithErr(err, "Failed to replace search index")
		return 0, err
	}

	metrics.RecordReindex(time.Since(start), len(entries))
	s.logger.WithFields(map[string]interface{}{
		"entries":  len(entries),
		"duration": time.Since(start).String(),
	}).Info("Search index rebuilt")

	return len(entries), nil
}

// Search returns the ids of current services matching every term of query
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]int64, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return []int64{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	return s.repo.Search(ctx, terms, limit)
}

func document(parts []i18n.Text) string {
	var fields []string
	for _, t := range parts {
		for _, v := range []string{t.EN, t.AR, t.FR} {
			if v = strings.TrimSpace(v); v != "" {
				fields = append(fields, v)
			}
		}
	}
	return strings.ToLower(strings.Join(fields, " "))
}
