package regulations

import (
	"context"
	"strings"

	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
	"github.com/meridian-grc/meridian-grc/internal/shared"
)

// RepositoryPort abstracts persistence for the service layer.
type RepositoryPort interface {
	ListRegulations(ctx context.Context, filter ListFilter) ([]Regulation, int, error)
	GetRegulation(ctx context.Context, id int64) (Regulation, error)
	CreateRegulation(ctx context.Context, reg Regulation) (Regulation, error)
	UpdateRegulation(ctx context.Context, reg Regulation) (Regulation, error)
}

// ListResult is the cached shape for one listing page.
type ListResult struct {
	Items      []Regulation      `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

// Service coordinates the repository with the read-through cache.
type Service struct {
	repo  RepositoryPort
	cache *Cache
}

// NewService wires a Repository with a Cache helper.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// List returns one page of the library, served from cache when warm.
func (s *Service) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 || filter.PerPage > 100 {
		filter.PerPage = 20
	}
	filter.Category = strings.TrimSpace(filter.Category)

	key, err := s.cache.BuildKey(ctx, keyList(filter.Category, filter.Page, filter.PerPage)...)
	if err != nil {
		return ListResult{}, err
	}
	var result ListResult
	err = s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (interface{}, error) {
		items, total, err := s.repo.ListRegulations(ctx, filter)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []Regulation{}
		}
		return ListResult{
			Items:      items,
			Pagination: shared.NewPagination(filter.Page, filter.PerPage, total),
		}, nil
	})
	if err != nil {
		return ListResult{}, err
	}
	if result.Items == nil {
		result.Items = []Regulation{}
	}
	return result, nil
}

// Get returns one regulation, served from cache when warm.
func (s *Service) Get(ctx context.Context, id int64) (Regulation, error) {
	key, err := s.cache.BuildKey(ctx, keyGet(id)...)
	if err != nil {
		return Regulation{}, err
	}
	var reg Regulation
	err = s.cache.FetchJSON(ctx, key, &reg, func(ctx context.Context) (interface{}, error) {
		return s.repo.GetRegulation(ctx, id)
	})
	return reg, err
}

// Create adds a library entry and invalidates cached pages.
func (s *Service) Create(ctx context.Context, reg Regulation) (Regulation, error) {
	if err := validateRegulation(reg); err != nil {
		return Regulation{}, err
	}
	created, err := s.repo.CreateRegulation(ctx, reg)
	if err != nil {
		return Regulation{}, err
	}
	if err := s.cache.Bump(ctx); err != nil {
		return Regulation{}, err
	}
	return created, nil
}

// Update rewrites a library entry and invalidates cached pages.
func (s *Service) Update(ctx context.Context, reg Regulation) (Regulation, error) {
	if err := validateRegulation(reg); err != nil {
		return Regulation{}, err
	}
	updated, err := s.repo.UpdateRegulation(ctx, reg)
	if err != nil {
		return Regulation{}, err
	}
	if err := s.cache.Bump(ctx); err != nil {
		return Regulation{}, err
	}
	return updated, nil
}

func validateRegulation(reg Regulation) error {
	if strings.TrimSpace(reg.Title) == "" || strings.TrimSpace(reg.Authority) == "" {
		return httpx.ErrValidation
	}
	if reg.EffectiveDate.IsZero() {
		return httpx.ErrValidation
	}
	return nil
}
