// Package services – PostService
//
// PostService lists and creates thread replies. Creating a reply and bumping
// the parent thread's reply counter happen in one transaction, so
// reply_count always equals the number of post rows of the thread.
package services

import (
	"context"
	"errors"
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
)

// DefaultMaxContentRunes caps post and thread bodies when no limit is set.
const DefaultMaxContentRunes = 20000

// CreatePostInput carries the caller-supplied fields of a reply.
type CreatePostInput struct {
	Content   string
	ReplyToID *int64
}

// PostService coordinates reply persistence.
type PostService struct {
	DB              *gorm.DB
	MaxContentRunes int
	Now             func() time.Time
}

func (s *PostService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *PostService) maxContent() int {
	if s.MaxContentRunes > 0 {
		return s.MaxContentRunes
	}
	return DefaultMaxContentRunes
}

// ListByThread returns the replies of a thread, oldest first, each with its
// author and reactions aggregated for viewerID (empty for anonymous).
func (s *PostService) ListByThread(ctx context.Context, threadID int64, viewerID string) ([]domain.PostView, error) {
	ctx, span := otel.Tracer("services/PostService").Start(ctx, "ListByThread",
		trace.WithAttributes(attribute.Int64("thread.id", threadID)),
	)
	defer span.End()

	if _, err := repo.GetThread(ctx, s.DB, threadID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrThreadNotFound
		}
		return nil, serviceErr("load thread", err)
	}
	posts, err := repo.ListPostsByThread(ctx, s.DB, threadID)
	if err != nil {
		return nil, serviceErr("list posts", err)
	}
	if len(posts) == 0 {
		return posts, nil
	}

	ids := make([]int64, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	byPost, err := repo.ListReactionsForPosts(ctx, s.DB, ids)
	if err != nil {
		return nil, serviceErr("list reactions", err)
	}
	raw := make([]domain.Reaction, 0, len(byPost))
	for _, rs := range byPost {
		raw = append(raw, rs...)
	}
	agg := AggregateReactions(raw, viewerID)
	for i := range posts {
		if rc, ok := agg[posts[i].ID]; ok {
			posts[i].Reactions = rc
		} else {
			posts[i].Reactions = []domain.ReactionCount{}
		}
	}
	return posts, nil
}

// Create adds a reply to threadID on behalf of sess.
func (s *PostService) Create(ctx context.Context, sess *domain.Session, threadID int64, in CreatePostInput) (*domain.Post, error) {
	ctx, span := otel.Tracer("services/PostService").Start(ctx, "Create",
		trace.WithAttributes(attribute.Int64("thread.id", threadID)),
	)
	defer span.End()

	if !sess.Authenticated() {
		return nil, ErrSignInRequired
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > s.maxContent() {
		return nil, ErrContentTooLong
	}

	now := s.now()
	p := &domain.Post{
		ID:        idgen.Next(),
		ThreadID:  threadID,
		AuthorID:  sess.UserID,
		Content:   content,
		ReplyToID: in.ReplyToID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		th, err := repo.GetThread(ctx, tx, threadID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrThreadNotFound
		}
		if err != nil {
			return err
		}
		if th.Locked {
			return ErrThreadLocked
		}
		if in.ReplyToID != nil {
			target, err := repo.GetPost(ctx, tx, *in.ReplyToID)
			if errors.Is(err, repo.ErrNotFound) || (err == nil && target.ThreadID != threadID) {
				return ErrReplyTargetInvalid
			}
			if err != nil {
				return err
			}
		}
		if err := repo.CreatePost(ctx, tx, p); err != nil {
			return err
		}
		return repo.BumpReplies(ctx, tx, threadID, now)
	})
	if err != nil {
		return nil, serviceErr("create post", err)
	}
	span.SetAttributes(attribute.Int64("post.id", p.ID))
	postsCreated.Inc()
	return p, nil
}
