package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-forum-backend/internal/domain"
)

type postRow struct {
	domain.Post
	AuthorUsername    string
	AuthorDisplayName string
	AuthorAvatarURL   *string
	AuthorRole        string
	AuthorKarma       int
}

// CreatePost inserts p as-is. The caller sets ID and timestamps.
func CreatePost(ctx context.Context, db *gorm.DB, p *domain.Post) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

// GetPost fetches a post by id.
func GetPost(ctx context.Context, db *gorm.DB, id int64) (*domain.Post, error) {
	var p domain.Post
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPostsByThread returns a thread's posts joined with their authors,
// oldest first (created_at, then id). Reactions are left empty.
func ListPostsByThread(ctx context.Context, db *gorm.DB, threadID int64) ([]domain.PostView, error) {
	var rows []postRow
	err := db.WithContext(ctx).
		Table("posts").
		Select("posts.*, " +
			"profiles.username AS author_username, profiles.display_name AS author_display_name, " +
			"profiles.avatar_url AS author_avatar_url, profiles.role AS author_role, profiles.karma AS author_karma").
		Joins("JOIN profiles ON profiles.id = posts.author_id").
		Where("posts.thread_id = ?", threadID).
		Order("posts.created_at ASC").
		Order("posts.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.PostView, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.PostView{
			Post: r.Post,
			Author: domain.AuthorSummary{
				ID:          r.AuthorID,
				Username:    r.AuthorUsername,
				DisplayName: r.AuthorDisplayName,
				AvatarURL:   r.AuthorAvatarURL,
				Role:        r.AuthorRole,
				Karma:       r.AuthorKarma,
			},
		})
	}
	return out, nil
}

// CountPostsByAuthor returns how many replies authorID wrote.
func CountPostsByAuthor(ctx context.Context, db *gorm.DB, authorID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Post{}).Where("author_id = ?", authorID).Count(&n).Error
	return n, err
}
