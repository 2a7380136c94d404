package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-forum-backend/internal/domain"
)

// UsernameExists reports whether a profile already uses username. The value
// is compared as given; callers lowercase it first.
func UsernameExists(ctx context.Context, db *gorm.DB, username string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Profile{}).Where("username = ?", username).Count(&n).Error
	return n > 0, err
}

// CreateProfile inserts p. It returns ErrDuplicate when the username is
// taken.
func CreateProfile(ctx context.Context, db *gorm.DB, p *domain.Profile) error {
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetProfile fetches a profile by id.
func GetProfile(ctx context.Context, db *gorm.DB, id string) (*domain.Profile, error) {
	var p domain.Profile
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfileByUsername fetches a profile by its stored (lowercase) username.
func GetProfileByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.Profile, error) {
	var p domain.Profile
	if err := db.WithContext(ctx).Where("username = ?", username).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfileBio changes only the bio column of a profile.
func UpdateProfileBio(ctx context.Context, db *gorm.DB, id, bio string) error {
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("id = ?", id).
		UpdateColumn("bio", bio)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
