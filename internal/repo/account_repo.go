package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-forum-backend/internal/domain"
)

// CreateAccount inserts a. It returns ErrDuplicate when the email is taken.
func CreateAccount(ctx context.Context, db *gorm.DB, a *domain.Account) error {
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetAccount fetches an account by id.
func GetAccount(ctx context.Context, db *gorm.DB, id string) (*domain.Account, error) {
	var a domain.Account
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAccountByEmail fetches an account by its stored (lowercase) email.
func GetAccountByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Account, error) {
	var a domain.Account
	if err := db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// ConfirmAccount marks the account holding token as confirmed and clears the
// token. It returns the confirmed account or ErrNotFound.
func ConfirmAccount(ctx context.Context, db *gorm.DB, token string) (*domain.Account, error) {
	var a domain.Account
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("confirm_token = ?", token).First(&a).Error; err != nil {
			return err
		}
		return tx.Model(&a).Updates(map[string]any{
			"email_confirmed": true,
			"confirm_token":   nil,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	a.EmailConfirmed = true
	a.ConfirmToken = nil
	return &a, nil
}

// BumpSessionVersion invalidates every token issued for the account.
func BumpSessionVersion(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("id = ?", id).
		UpdateColumn("session_version", gorm.Expr("session_version + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
