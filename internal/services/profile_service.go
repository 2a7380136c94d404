// Package services – ProfileService
//
// ProfileService validates and registers usernames and serves public
// profile pages. Usernames are stored case-folded; the unique index on
// profiles.username is the authoritative guard against duplicates, and
// IsUsernameAvailable is only a pre-check for forms.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/tbourn/go-forum-backend/internal/domain"
	"github.com/tbourn/go-forum-backend/internal/repo"
)

// MaxBioRunes caps profile bios.
const MaxBioRunes = 500

var usernameRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)

// CreateProfileInput describes a new profile. ID is the owning account id.
type CreateProfileInput struct {
	ID          string
	Username    string
	DisplayName string
	AvatarURL   *string
}

// ProfileService manages public profiles.
type ProfileService struct {
	DB *gorm.DB
	// RecentThreads is how many threads a profile page lists.
	RecentThreads int
}

// ValidUsername reports whether u has the allowed shape.
func ValidUsername(u string) bool { return usernameRE.MatchString(u) }

// NormalizeUsername returns the stored form of u. A Caser is stateful, so
// one is built per call.
func NormalizeUsername(u string) string {
	return cases.Fold().String(strings.TrimSpace(u))
}

// IsUsernameAvailable reports whether candidate is free. Malformed
// candidates return ErrInvalidUsername.
func (s *ProfileService) IsUsernameAvailable(ctx context.Context, candidate string) (bool, error) {
	candidate = strings.TrimSpace(candidate)
	if !ValidUsername(candidate) {
		return false, ErrInvalidUsername
	}
	taken, err := repo.UsernameExists(ctx, s.DB, NormalizeUsername(candidate))
	if err != nil {
		return false, serviceErr("check username", err)
	}
	return !taken, nil
}

// Create inserts a member profile using tx (or s.DB when tx is nil).
// DisplayName defaults to the username as typed.
func (s *ProfileService) Create(ctx context.Context, tx *gorm.DB, in CreateProfileInput) (*domain.Profile, error) {
	ctx, span := otel.Tracer("services/ProfileService").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", in.ID)),
	)
	defer span.End()

	if tx == nil {
		tx = s.DB
	}
	typed := strings.TrimSpace(in.Username)
	if !ValidUsername(typed) {
		return nil, ErrInvalidUsername
	}
	display := strings.Join(strings.Fields(in.DisplayName), " ")
	if display == "" || utf8.RuneCountInString(display) > 64 {
		display = typed
	}
	p := &domain.Profile{
		ID:          in.ID,
		Username:    NormalizeUsername(typed),
		DisplayName: display,
		AvatarURL:   in.AvatarURL,
		Role:        domain.RoleMember,
	}
	if err := repo.CreateProfile(ctx, tx, p); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, serviceErr("create profile", err)
	}
	return p, nil
}

// GetByUsername returns the public profile page for username.
func (s *ProfileService) GetByUsername(ctx context.Context, username string) (*domain.ProfileView, error) {
	ctx, span := otel.Tracer("services/ProfileService").Start(ctx, "GetByUsername",
		trace.WithAttributes(attribute.String("username", username)),
	)
	defer span.End()

	p, err := repo.GetProfileByUsername(ctx, s.DB, NormalizeUsername(username))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, serviceErr("load profile", err)
	}
	threads, err := repo.CountThreadsByAuthor(ctx, s.DB, p.ID)
	if err != nil {
		return nil, serviceErr("count threads", err)
	}
	posts, err := repo.CountPostsByAuthor(ctx, s.DB, p.ID)
	if err != nil {
		return nil, serviceErr("count posts", err)
	}
	recent, err := repo.ListThreadsByAuthor(ctx, s.DB, p.ID, clampLimit(s.RecentThreads, 10, 50))
	if err != nil {
		return nil, serviceErr("list threads", err)
	}
	return &domain.ProfileView{Profile: *p, ThreadCount: threads, PostCount: posts, Threads: recent}, nil
}

// UpdateBio replaces the caller's own bio. Role and username are untouched.
func (s *ProfileService) UpdateBio(ctx context.Context, sess *domain.Session, bio string) (*domain.Profile, error) {
	if !sess.Authenticated() {
		return nil, ErrSignInRequired
	}
	bio = strings.TrimSpace(bio)
	if utf8.RuneCountInString(bio) > MaxBioRunes {
		return nil, ErrBioTooLong
	}
	err := repo.UpdateProfileBio(ctx, s.DB, sess.UserID, bio)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, serviceErr("update bio", err)
	}
	p, err := repo.GetProfile(ctx, s.DB, sess.UserID)
	if err != nil {
		return nil, serviceErr("load profile", err)
	}
	return p, nil
}
