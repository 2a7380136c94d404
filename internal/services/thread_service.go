// Package services – ThreadService
//
// ThreadService owns thread creation, listing and moderation. Reads are pure;
// the view counter is a separate operation so a request handler decides when
// a read counts as a view. Counter updates are single atomic statements.
package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-forum-backend/internal/domain"
	"github.com/tbourn/go-forum-backend/internal/idgen"
	"github.com/tbourn/go-forum-backend/internal/repo"
	"github.com/tbourn/go-forum-backend/internal/search"
)

// DefaultTitleMaxRunes caps thread titles.
const DefaultTitleMaxRunes = 200

// CreateThreadInput carries the caller-supplied fields of a new thread.
type CreateThreadInput struct {
	CategoryID int64
	Title      string
	Content    string
}

// ThreadService coordinates thread persistence and the search index.
type ThreadService struct {
	DB *gorm.DB
	// Index is optional; when nil, Search returns no results.
	Index search.Index

	TitleMaxRunes   int
	MaxContentRunes int

	// Now is the clock; nil means time.Now().UTC().
	Now func() time.Time
}

func (s *ThreadService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *ThreadService) tracer() trace.Tracer { return otel.Tracer("services/ThreadService") }

// ListByCategory returns the threads of a category ordered pinned first, then
// by latest activity, then by id.
func (s *ThreadService) ListByCategory(ctx context.Context, categoryID int64) ([]domain.ThreadListItem, error) {
	ctx, span := s.tracer().Start(ctx, "ListByCategory",
		trace.WithAttributes(attribute.Int64("category.id", categoryID)),
	)
	defer span.End()

	items, err := repo.ListThreadsByCategory(ctx, s.DB, categoryID)
	if err != nil {
		return nil, serviceErr("list threads", err)
	}
	return items, nil
}

// ListByCategorySlug resolves slug and lists its threads.
func (s *ThreadService) ListByCategorySlug(ctx context.Context, slug string) (*domain.Category, []domain.ThreadListItem, error) {
	c, err := repo.GetCategoryBySlug(ctx, s.DB, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, nil, serviceErr("load category", err)
	}
	items, err := s.ListByCategory(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}
	return c, items, nil
}

// Create validates in and inserts a new thread authored by sess. It returns
// the new thread id.
func (s *ThreadService) Create(ctx context.Context, sess *domain.Session, in CreateThreadInput) (int64, error) {
	ctx, span := s.tracer().Start(ctx, "Create",
		trace.WithAttributes(attribute.Int64("category.id", in.CategoryID)),
	)
	defer span.End()

	if !sess.Authenticated() {
		return 0, ErrSignInRequired
	}
	title := normalizeTitle(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" {
		return 0, ErrEmptyTitle
	}
	maxTitle := s.TitleMaxRunes
	if maxTitle <= 0 {
		maxTitle = DefaultTitleMaxRunes
	}
	if utf8.RuneCountInString(title) > maxTitle {
		return 0, ErrTitleTooLong
	}
	if content == "" {
		return 0, ErrEmptyContent
	}
	if s.MaxContentRunes > 0 && utf8.RuneCountInString(content) > s.MaxContentRunes {
		return 0, ErrContentTooLong
	}
	if _, err := categoryByID(ctx, s.DB, in.CategoryID); err != nil {
		return 0, err
	}

	now := s.now()
	th := &domain.Thread{
		ID:          idgen.Next(),
		CategoryID:  in.CategoryID,
		AuthorID:    sess.UserID,
		Title:       title,
		Slug:        DeriveSlug(title),
		Content:     content,
		LastReplyAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.CreateThread(ctx, s.DB, th); err != nil {
		return 0, serviceErr("create thread", err)
	}
	span.SetAttributes(attribute.Int64("thread.id", th.ID))
	threadsCreated.Inc()

	if s.Index != nil {
		s.Index.Add(th.ID, th.Title, th.Content)
	}
	return th.ID, nil
}

// Get returns a thread with its author and category. It does not count a
// view.
func (s *ThreadService) Get(ctx context.Context, id int64) (*domain.ThreadDetail, error) {
	ctx, span := s.tracer().Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("thread.id", id)),
	)
	defer span.End()

	d, err := repo.GetThreadDetail(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, serviceErr("load thread", err)
	}
	return d, nil
}

// RecordView increments the view counter of a thread by one.
func (s *ThreadService) RecordView(ctx context.Context, id int64) error {
	err := repo.IncrementViewCount(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrThreadNotFound
	}
	if err != nil {
		return serviceErr("record view", err)
	}
	threadViews.Inc()
	return nil
}

// SetPinned pins or unpins a thread. Moderators and admins only.
func (s *ThreadService) SetPinned(ctx context.Context, sess *domain.Session, id int64, pinned bool) error {
	return s.setFlag(ctx, sess, id, "pinned", pinned)
}

// SetLocked locks or unlocks a thread. Moderators and admins only.
func (s *ThreadService) SetLocked(ctx context.Context, sess *domain.Session, id int64, locked bool) error {
	return s.setFlag(ctx, sess, id, "locked", locked)
}

func (s *ThreadService) setFlag(ctx context.Context, sess *domain.Session, id int64, column string, v bool) error {
	ctx, span := s.tracer().Start(ctx, "SetFlag",
		trace.WithAttributes(
			attribute.Int64("thread.id", id),
			attribute.String("flag", column),
			attribute.Bool("value", v),
		),
	)
	defer span.End()

	if !sess.Authenticated() {
		return ErrSignInRequired
	}
	if !sess.CanModerate() {
		return ErrForbidden
	}
	err := repo.SetThreadFlag(ctx, s.DB, id, column, v)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrThreadNotFound
	}
	return serviceErr("set "+column, err)
}

// RecountReplies recomputes reply_count from the posts table and returns
// the corrected value. Admins only.
func (s *ThreadService) RecountReplies(ctx context.Context, sess *domain.Session, id int64) (int64, error) {
	if !sess.Authenticated() {
		return 0, ErrSignInRequired
	}
	if !sess.IsAdmin() {
		return 0, ErrForbidden
	}
	n, err := repo.RecountReplies(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, ErrThreadNotFound
	}
	if err != nil {
		return 0, serviceErr("recount replies", err)
	}
	return n, nil
}

// Recent returns the most recently active threads across categories.
func (s *ThreadService) Recent(ctx context.Context, limit int) ([]domain.ThreadListItem, error) {
	items, err := repo.ListRecentThreads(ctx, s.DB, clampLimit(limit, 10, 50))
	if err != nil {
		return nil, serviceErr("recent threads", err)
	}
	return items, nil
}

// ListByAuthor returns a user's threads, newest threads first.
func (s *ThreadService) ListByAuthor(ctx context.Context, authorID string, limit int) ([]domain.ThreadListItem, error) {
	items, err := repo.ListThreadsByAuthor(ctx, s.DB, authorID, clampLimit(limit, 20, 100))
	if err != nil {
		return nil, serviceErr("threads by author", err)
	}
	return items, nil
}

// Search ranks threads by word overlap with query.
func (s *ThreadService) Search(ctx context.Context, query string, limit int) ([]domain.ThreadListItem, error) {
	ctx, span := s.tracer().Start(ctx, "Search",
		trace.WithAttributes(attribute.String("query", query)),
	)
	defer span.End()

	if s.Index == nil || strings.TrimSpace(query) == "" {
		return []domain.ThreadListItem{}, nil
	}
	hits := s.Index.TopK(query, clampLimit(limit, 10, 50))
	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.ThreadID
	}
	span.SetAttributes(attribute.Int("hits", len(ids)))
	items, err := repo.ListThreadsByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, serviceErr("search threads", err)
	}
	return items, nil
}

// WarmIndex loads up to limit of the newest threads into the search index.
// It returns how many were indexed.
func (s *ThreadService) WarmIndex(ctx context.Context, limit int) (int, error) {
	if s.Index == nil {
		return 0, nil
	}
	rows, err := repo.ListThreadSearchRows(ctx, s.DB, limit)
	if err != nil {
		return 0, serviceErr("warm index", err)
	}
	for _, r := range rows {
		s.Index.Add(r.ID, r.Title, r.Content)
	}
	return len(rows), nil
}

// ParseID parses a decimal thread/post id from a path segment.
func ParseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func clampLimit(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// normalizeTitle trims surrounding whitespace; inner spacing is kept.
func normalizeTitle(s string) string {
	return strings.TrimSpace(s)
}
