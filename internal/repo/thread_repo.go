// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for threads.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. Counter columns (view_count,
// reply_count) are only ever changed with `col = col + 1` so concurrent
// writers never lose updates.
//
// Error semantics:
//   - When a thread is not found, functions return ErrNotFound.
//   - On DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-forum-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// threadOrder is the canonical listing order: pinned first, then most recent
// activity, then insertion order (ids are time-ordered).
var threadOrder = []string{"threads.pinned DESC", "threads.last_reply_at DESC", "threads.id ASC"}

// threadRow is the flat shape of a thread joined with its author and
// category. It never leaves this package.
type threadRow struct {
	domain.Thread
	AuthorUsername    string
	AuthorDisplayName string
	AuthorAvatarURL   *string
	AuthorRole        string
	AuthorKarma       int
	CategorySlug      string
	CategoryName      string
	CategoryColor     string
	CategoryEntity    *string
}

const threadJoinSelect = "threads.*, " +
	"profiles.username AS author_username, profiles.display_name AS author_display_name, " +
	"profiles.avatar_url AS author_avatar_url, profiles.role AS author_role, profiles.karma AS author_karma, " +
	"categories.slug AS category_slug, categories.name AS category_name, " +
	"categories.color AS category_color, categories.entity AS category_entity"

func joinedThreads(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Table("threads").
		Select(threadJoinSelect).
		Joins("JOIN profiles ON profiles.id = threads.author_id").
		Joins("JOIN categories ON categories.id = threads.category_id")
}

func (r threadRow) author() domain.AuthorSummary {
	return domain.AuthorSummary{
		ID:          r.AuthorID,
		Username:    r.AuthorUsername,
		DisplayName: r.AuthorDisplayName,
		AvatarURL:   r.AuthorAvatarURL,
		Role:        r.AuthorRole,
		Karma:       r.AuthorKarma,
	}
}

func (r threadRow) category() domain.CategorySummary {
	return domain.CategorySummary{
		ID:     r.CategoryID,
		Slug:   r.CategorySlug,
		Name:   r.CategoryName,
		Color:  r.CategoryColor,
		Entity: r.CategoryEntity,
	}
}

func (r threadRow) listItem(withCategory bool) domain.ThreadListItem {
	it := domain.ThreadListItem{
		ID:          r.ID,
		CategoryID:  r.CategoryID,
		Title:       r.Title,
		Slug:        r.Slug,
		Pinned:      r.Pinned,
		Locked:      r.Locked,
		ViewCount:   r.ViewCount,
		ReplyCount:  r.ReplyCount,
		LastReplyAt: r.LastReplyAt,
		CreatedAt:   r.CreatedAt,
		Author:      r.author(),
	}
	if withCategory {
		c := r.category()
		it.Category = &c
	}
	return it
}

func toListItems(rows []threadRow, withCategory bool) []domain.ThreadListItem {
	out := make([]domain.ThreadListItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.listItem(withCategory))
	}
	return out
}

// CreateThread inserts t as-is. The caller sets ID and every initial value.
func CreateThread(ctx context.Context, db *gorm.DB, t *domain.Thread) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(t).Error
}

// GetThread fetches the bare thread row.
func GetThread(ctx context.Context, db *gorm.DB, id int64) (*domain.Thread, error) {
	var t domain.Thread
	if err := db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// GetThreadDetail fetches a thread joined with its author and category.
// It has no side effects.
func GetThreadDetail(ctx context.Context, db *gorm.DB, id int64) (*domain.ThreadDetail, error) {
	var rows []threadRow
	if err := joinedThreads(ctx, db).Where("threads.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	r := rows[0]
	return &domain.ThreadDetail{Thread: r.Thread, Author: r.author(), Category: r.category()}, nil
}

// ListThreadsByCategory returns the category's threads in listing order.
func ListThreadsByCategory(ctx context.Context, db *gorm.DB, categoryID int64) ([]domain.ThreadListItem, error) {
	var rows []threadRow
	q := joinedThreads(ctx, db).Where("threads.category_id = ?", categoryID)
	for _, o := range threadOrder {
		q = q.Order(o)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toListItems(rows, false), nil
}

// ListRecentThreads returns the newest threads across all categories.
func ListRecentThreads(ctx context.Context, db *gorm.DB, limit int) ([]domain.ThreadListItem, error) {
	var rows []threadRow
	err := joinedThreads(ctx, db).
		Order("threads.created_at DESC").
		Order("threads.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toListItems(rows, true), nil
}

// ListThreadsByAuthor returns an author's newest threads.
func ListThreadsByAuthor(ctx context.Context, db *gorm.DB, authorID string, limit int) ([]domain.ThreadListItem, error) {
	var rows []threadRow
	err := joinedThreads(ctx, db).
		Where("threads.author_id = ?", authorID).
		Order("threads.created_at DESC").
		Order("threads.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toListItems(rows, true), nil
}

// ListThreadsByIDs returns the listed threads in the order of ids; unknown
// ids are skipped.
func ListThreadsByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]domain.ThreadListItem, error) {
	if len(ids) == 0 {
		return []domain.ThreadListItem{}, nil
	}
	var rows []threadRow
	if err := joinedThreads(ctx, db).Where("threads.id IN ?", ids).Scan(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]threadRow, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	out := make([]domain.ThreadListItem, 0, len(rows))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r.listItem(true))
		}
	}
	return out, nil
}

// CountThreadsByAuthor returns how many threads authorID opened.
func CountThreadsByAuthor(ctx context.Context, db *gorm.DB, authorID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Thread{}).Where("author_id = ?", authorID).Count(&n).Error
	return n, err
}

// IncrementViewCount adds one view atomically. ErrNotFound when no row
// matched.
func IncrementViewCount(ctx context.Context, db *gorm.DB, id int64) error {
	res := db.WithContext(ctx).
		Model(&domain.Thread{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// BumpReplies adds one reply and moves last_reply_at to at, atomically.
func BumpReplies(ctx context.Context, db *gorm.DB, id int64, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Thread{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"reply_count":   gorm.Expr("reply_count + ?", 1),
			"last_reply_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecountReplies recomputes reply_count from the posts table and returns
// the new value.
func RecountReplies(ctx context.Context, db *gorm.DB, id int64) (int64, error) {
	var n int64
	if err := db.WithContext(ctx).Model(&domain.Post{}).Where("thread_id = ?", id).Count(&n).Error; err != nil {
		return 0, err
	}
	res := db.WithContext(ctx).
		Model(&domain.Thread{}).
		Where("id = ?", id).
		UpdateColumn("reply_count", n)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return n, nil
}

// SetThreadFlag sets the pinned or locked column. ErrNotFound when the
// thread does not exist.
func SetThreadFlag(ctx context.Context, db *gorm.DB, id int64, column string, value bool) error {
	switch column {
	case "pinned", "locked":
	default:
		return gorm.ErrInvalidField
	}
	res := db.WithContext(ctx).
		Model(&domain.Thread{}).
		Where("id = ?", id).
		Updates(map[string]any{column: value, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ThreadSearchRow is the minimal text needed to index a thread.
type ThreadSearchRow struct {
	ID      int64
	Title   string
	Content string
}

// ListThreadSearchRows returns id/title/content for every thread, newest
// first, capped at limit (0 means no cap).
func ListThreadSearchRows(ctx context.Context, db *gorm.DB, limit int) ([]ThreadSearchRow, error) {
	var out []ThreadSearchRow
	q := db.WithContext(ctx).Model(&domain.Thread{}).Select("id, title, content").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(&out).Error
	return out, err
}
