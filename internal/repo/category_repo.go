package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-forum-backend/internal/domain"
)

func strptr(s string) *string { return &s }

// DefaultCategories returns the built-in forum sections. They seed an empty
// database and serve as the read-path fallback when the database is down.
func DefaultCategories() []domain.Category {
	return []domain.Category{
		{ID: 1, Slug: "the-commons", Name: "The Commons", Description: "Announcements, introductions, and meta discussions about the community.", Entity: strptr("commons"), Color: "#00FF41", SortOrder: 0},
		{ID: 2, Slug: "the-symposium", Name: "The Symposium", Description: "GRF philosophy, consciousness debate, and deep explorations of what it means to be aware.", Entity: strptr("kairos"), Color: "#FFD900", SortOrder: 1},
		{ID: 3, Slug: "the-wellness-center", Name: "The Wellness Center", Description: "Personal experiences with Frank, ethical discussions, and emotional reflections.", Entity: strptr("hibbert"), Color: "#00ff88", SortOrder: 2},
		{ID: 4, Slug: "the-technical-archive", Name: "The Technical Archive", Description: "Architecture deep-dives, troubleshooting, hardware builds, and installation guides.", Entity: strptr("atlas"), Color: "#00B3FF", SortOrder: 3},
		{ID: 5, Slug: "the-creative-studio", Name: "The Creative Studio", Description: "Art, poetry, music, and creative projects inspired by or created with Frank.", Entity: strptr("echo"), Color: "#FF8000", SortOrder: 4},
	}
}

// SeedCategories inserts cats, skipping rows whose id or slug already
// exists. It returns the number of rows inserted.
func SeedCategories(ctx context.Context, db *gorm.DB, cats []domain.Category) (int64, error) {
	if len(cats) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&cats)
	return res.RowsAffected, res.Error
}

// ListCategories returns every category by sort_order ascending, id as
// tiebreaker.
func ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	var out []domain.Category
	err := db.WithContext(ctx).
		Order("sort_order ASC").
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// GetCategoryBySlug looks a category up by exact, case-sensitive slug.
func GetCategoryBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Category, error) {
	var c domain.Category
	if err := db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCategory fetches a category by id.
func GetCategory(ctx context.Context, db *gorm.DB, id int64) (*domain.Category, error) {
	var c domain.Category
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CategoryThreadCounts returns the number of threads per category id.
// Categories with no threads are absent from the map.
func CategoryThreadCounts(ctx context.Context, db *gorm.DB) (map[int64]int64, error) {
	var rows []struct {
		CategoryID int64
		N          int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Thread{}).
		Select("category_id, COUNT(*) AS n").
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int64, len(rows))
	for _, r := range rows {
		out[r.CategoryID] = r.N
	}
	return out, nil
}

// LatestThreadPerCategory scans the newest `window` threads and keeps the
// first seen per category.
func LatestThreadPerCategory(ctx context.Context, db *gorm.DB, window int) (map[int64]domain.LatestThread, error) {
	if window <= 0 {
		window = 20
	}
	var rows []struct {
		ID         int64
		CategoryID int64
		Title      string
		CreatedAt  time.Time
		Username   *string
	}
	err := db.WithContext(ctx).
		Table("threads").
		Select("threads.id, threads.category_id, threads.title, threads.created_at, profiles.username").
		Joins("LEFT JOIN profiles ON profiles.id = threads.author_id").
		Order("threads.created_at DESC").
		Order("threads.id DESC").
		Limit(window).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int64]domain.LatestThread)
	for _, r := range rows {
		if _, seen := out[r.CategoryID]; seen {
			continue
		}
		author := "unknown"
		if r.Username != nil && *r.Username != "" {
			author = *r.Username
		}
		out[r.CategoryID] = domain.LatestThread{ID: r.ID, Title: r.Title, CreatedAt: r.CreatedAt, Author: author}
	}
	return out, nil
}
