// Package services – ReactionService
//
// Reactions are rows, not counters: toggling inserts or deletes the
// (post, user, emoji) row and counts are folded from the rows on read.
package services

import (
	"context"
	"errors"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-forum-backend/internal/domain"
	"github.com/tbourn/go-forum-backend/internal/idgen"
	"github.com/tbourn/go-forum-backend/internal/repo"
)

// AggregateReactions folds raw reaction rows into per-post, per-emoji counts.
// HasReacted is true when viewerID is among the reactors. Each post's slice
// is ordered by the canonical emoji order, so the result does not depend on
// the order of raw.
func AggregateReactions(raw []domain.Reaction, viewerID string) map[int64][]domain.ReactionCount {
	type key struct {
		post  int64
		emoji string
	}
	counts := make(map[key]*domain.ReactionCount)
	out := make(map[int64][]domain.ReactionCount)
	for _, r := range raw {
		k := key{r.PostID, r.Emoji}
		rc, ok := counts[k]
		if !ok {
			rc = &domain.ReactionCount{Emoji: r.Emoji}
			counts[k] = rc
		}
		rc.Count++
		if viewerID != "" && r.UserID == viewerID {
			rc.HasReacted = true
		}
	}
	for k, rc := range counts {
		out[k.post] = append(out[k.post], *rc)
	}
	for _, list := range out {
		sort.Slice(list, func(i, j int) bool {
			ri, rj := domain.EmojiRank(list[i].Emoji), domain.EmojiRank(list[j].Emoji)
			if ri != rj {
				return ri < rj
			}
			return list[i].Emoji < list[j].Emoji
		})
	}
	return out
}

// ReactionService toggles reactions.
type ReactionService struct {
	DB *gorm.DB
}

// Toggle flips sess's emoji reaction on postID. It reports whether the
// reaction is now present and returns the post's updated counts.
func (s *ReactionService) Toggle(ctx context.Context, sess *domain.Session, postID int64, emoji string) (bool, []domain.ReactionCount, error) {
	ctx, span := otel.Tracer("services/ReactionService").Start(ctx, "Toggle",
		trace.WithAttributes(
			attribute.Int64("post.id", postID),
			attribute.String("emoji", emoji),
		),
	)
	defer span.End()

	if !sess.Authenticated() {
		return false, nil, ErrSignInRequired
	}
	if !domain.IsReactionEmoji(emoji) {
		return false, nil, ErrInvalidEmoji
	}

	var (
		reacted bool
		counts  []domain.ReactionCount
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetPost(ctx, tx, postID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		removed, err := repo.DeleteReaction(ctx, tx, postID, sess.UserID, emoji)
		if err != nil {
			return err
		}
		if !removed {
			// Nested transaction = savepoint, so a unique violation does not
			// abort the outer transaction on Postgres.
			err := tx.Transaction(func(sp *gorm.DB) error {
				return repo.InsertReaction(ctx, sp, idgen.Next(), postID, sess.UserID, emoji)
			})
			switch {
			case err == nil:
				reacted = true
			case errors.Is(err, repo.ErrDuplicate):
				// A concurrent toggle inserted the same row first; resolve as
				// a removal.
				if _, err := repo.DeleteReaction(ctx, tx, postID, sess.UserID, emoji); err != nil {
					return err
				}
			default:
				return err
			}
		}

		rows, err := repo.ListReactionsForPosts(ctx, tx, []int64{postID})
		if err != nil {
			return err
		}
		counts = AggregateReactions(rows[postID], sess.UserID)[postID]
		return nil
	})
	if err != nil {
		return false, nil, serviceErr("toggle reaction", err)
	}
	if counts == nil {
		counts = []domain.ReactionCount{}
	}
	action := "removed"
	if reacted {
		action = "added"
	}
	reactionsToggled.WithLabelValues(action).Inc()
	span.SetAttributes(attribute.Bool("reacted", reacted))
	return reacted, counts, nil
}
