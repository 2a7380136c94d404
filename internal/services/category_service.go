// Package services – CategoryService
//
// CategoryService serves the fixed set of forum sections. Reads go through an
// optional two-tier cache; when the database cannot be reached and Fallback
// is enabled, the read path serves the built-in default sections instead of
// failing. Writes (seeding) invalidate the cache.
package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-forum-backend/internal/cache"
	"github.com/tbourn/go-forum-backend/internal/domain"
	"github.com/tbourn/go-forum-backend/internal/repo"
)

const categoriesCacheKey = "categories:all"

// CategoryService provides category listing and lookup.
type CategoryService struct {
	DB *gorm.DB
	// Cache is optional; nil reads straight from the database.
	Cache *cache.Tiered
	// Fallback serves repo.DefaultCategories when the database read fails.
	Fallback bool
	// LatestWindow bounds how many recent threads Overview scans for the
	// per-category "latest thread".
	LatestWindow int
}

// List returns every category ordered by sort_order, then id.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	ctx, span := otel.Tracer("services/CategoryService").Start(ctx, "List")
	defer span.End()

	cats, err := s.load(ctx)
	if err != nil {
		if s.Fallback {
			log.Warn().Err(err).Msg("categories: database unavailable, serving defaults")
			span.SetAttributes(attribute.Bool("categories.fallback", true))
			return repo.DefaultCategories(), nil
		}
		return nil, serviceErr("list categories", err)
	}
	return cats, nil
}

func (s *CategoryService) load(ctx context.Context) ([]domain.Category, error) {
	if s.Cache == nil {
		return repo.ListCategories(ctx, s.DB)
	}
	b, err := s.Cache.Fetch(ctx, categoriesCacheKey, func(ctx context.Context) ([]byte, error) {
		cats, err := repo.ListCategories(ctx, s.DB)
		if err != nil {
			return nil, err
		}
		return json.Marshal(cats)
	})
	if err != nil {
		return nil, err
	}
	var cats []domain.Category
	if err := json.Unmarshal(b, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// GetBySlug returns the category whose slug equals slug exactly (case
// sensitive).
func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	ctx, span := otel.Tracer("services/CategoryService").Start(ctx, "GetBySlug",
		trace.WithAttributes(attribute.String("category.slug", slug)),
	)
	defer span.End()

	cats, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cats {
		if cats[i].Slug == slug {
			c := cats[i]
			return &c, nil
		}
	}
	return nil, ErrCategoryNotFound
}

// Overview returns every category with its thread count and newest thread.
func (s *CategoryService) Overview(ctx context.Context) ([]domain.CategoryOverview, error) {
	ctx, span := otel.Tracer("services/CategoryService").Start(ctx, "Overview")
	defer span.End()

	cats, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := repo.CategoryThreadCounts(ctx, s.DB)
	if err != nil {
		return nil, serviceErr("count threads", err)
	}
	window := s.LatestWindow
	if window <= 0 {
		window = 20
	}
	latest, err := repo.LatestThreadPerCategory(ctx, s.DB, window)
	if err != nil {
		return nil, serviceErr("latest threads", err)
	}

	out := make([]domain.CategoryOverview, 0, len(cats))
	for _, c := range cats {
		ov := domain.CategoryOverview{Category: c, ThreadCount: counts[c.ID]}
		if lt, ok := latest[c.ID]; ok {
			lt := lt
			ov.LatestThread = &lt
		}
		out = append(out, ov)
	}
	return out, nil
}

// Seed inserts the default categories that are missing and drops the cached
// list. It returns how many rows were inserted.
func (s *CategoryService) Seed(ctx context.Context) (int64, error) {
	n, err := repo.SeedCategories(ctx, s.DB, repo.DefaultCategories())
	if err != nil {
		return 0, serviceErr("seed categories", err)
	}
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, categoriesCacheKey); err != nil {
			log.Warn().Err(err).Msg("categories: cache invalidation failed")
		}
	}
	return n, nil
}

// categoryByID resolves a category for writes. Writes never use the
// fallback set.
func categoryByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Category, error) {
	c, err := repo.GetCategory(ctx, db, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, serviceErr("load category", err)
	}
	return c, nil
}
