package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-forum-backend/internal/domain"
)

// ListReactionsForPosts loads the raw reaction rows of postIDs, grouped by
// post id. Posts without reactions are absent from the map.
func ListReactionsForPosts(ctx context.Context, db *gorm.DB, postIDs []int64) (map[int64][]domain.Reaction, error) {
	out := make(map[int64][]domain.Reaction)
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []domain.Reaction
	err := db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.PostID] = append(out[r.PostID], r)
	}
	return out, nil
}

// DeleteReaction removes the (post, user, emoji) row and reports whether one
// existed.
func DeleteReaction(ctx context.Context, db *gorm.DB, postID int64, userID, emoji string) (bool, error) {
	res := db.WithContext(ctx).
		Where("post_id = ? AND user_id = ? AND emoji = ?", postID, userID, emoji).
		Delete(&domain.Reaction{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// InsertReaction adds a reaction row. It returns ErrDuplicate when the
// (post, user, emoji) triple already exists.
func InsertReaction(ctx context.Context, db *gorm.DB, id, postID int64, userID, emoji string) error {
	r := &domain.Reaction{
		ID:        id,
		PostID:    postID,
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(r).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// IsUniqueViolation reports whether err is a unique-constraint failure from
// either driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key value")
}
