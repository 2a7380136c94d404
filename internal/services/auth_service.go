// Package services – AuthService
//
// AuthService is the built-in authentication provider: email + password
// accounts, optional email confirmation, and stateless HS256 session tokens
// that are revoked by bumping the account's session version. Every
// successful transition is published on the session broker after commit.
package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-forum-backend/internal/auth"
	"github.com/tbourn/go-forum-backend/internal/domain"
	"github.com/tbourn/go-forum-backend/internal/repo"
)

// SignUpMeta carries the profile fields collected at registration.
type SignUpMeta struct {
	Username    string
	DisplayName string
	AvatarURL   *string
}

// SignUpResult is returned by SignUp. Token is empty when
// ConfirmationRequired is set; ConfirmToken is then the one-time token the
// user must present to Confirm.
type SignUpResult struct {
	Session              *domain.Session
	Token                string
	ConfirmationRequired bool
	ConfirmToken         string
}

// AuthService implements account registration and session handling.
type AuthService struct {
	DB       *gorm.DB
	Profiles *ProfileService
	Signer   *auth.Signer
	// Broker is optional; nil disables session events.
	Broker *auth.Broker
	// RequireConfirmation blocks sign-in until Confirm succeeds.
	RequireConfirmation bool
}

func (s *AuthService) tracer() trace.Tracer { return otel.Tracer("services/AuthService") }

func normalizeEmail(raw string) (string, bool) {
	e := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e || !strings.Contains(e[strings.LastIndex(e, "@")+1:], ".") {
		return "", false
	}
	return e, true
}

// SignUp registers a new account and its profile in one transaction.
func (s *AuthService) SignUp(ctx context.Context, email, password string, meta SignUpMeta) (*SignUpResult, error) {
	ctx, span := s.tracer().Start(ctx, "SignUp")
	defer span.End()

	email, ok := normalizeEmail(email)
	if !ok {
		return nil, ErrInvalidEmail
	}
	if !auth.PasswordAcceptable(password) {
		return nil, ErrWeakPassword
	}
	if !ValidUsername(strings.TrimSpace(meta.Username)) {
		return nil, ErrInvalidUsername
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, serviceErr("hash password", err)
	}
	acc := &domain.Account{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordHash:   hash,
		EmailConfirmed: !s.RequireConfirmation,
		SessionVersion: 1,
	}
	if s.RequireConfirmation {
		tok, err := auth.NewConfirmToken()
		if err != nil {
			return nil, serviceErr("confirm token", err)
		}
		acc.ConfirmToken = &tok
	}

	var prof *domain.Profile
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateAccount(ctx, tx, acc); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrEmailTaken
			}
			return err
		}
		p, err := s.Profiles.Create(ctx, tx, CreateProfileInput{
			ID:          acc.ID,
			Username:    meta.Username,
			DisplayName: meta.DisplayName,
			AvatarURL:   meta.AvatarURL,
		})
		if err != nil {
			return err
		}
		prof = p
		return nil
	})
	if err != nil {
		return nil, serviceErr("sign up", err)
	}
	span.SetAttributes(attribute.String("user.id", acc.ID))
	s.Broker.Publish(auth.SessionEvent{Kind: auth.EventSignedUp, UserID: acc.ID})

	sess := sessionOf(acc, prof)
	if s.RequireConfirmation {
		return &SignUpResult{Session: sess, ConfirmationRequired: true, ConfirmToken: *acc.ConfirmToken}, nil
	}
	tok, err := s.Signer.Sign(acc.ID, acc.SessionVersion)
	if err != nil {
		return nil, serviceErr("sign token", err)
	}
	return &SignUpResult{Session: sess, Token: tok}, nil
}

// Confirm marks the account holding token as confirmed.
func (s *AuthService) Confirm(ctx context.Context, token string) (*domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	acc, err := repo.ConfirmAccount(ctx, s.DB, token)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, serviceErr("confirm account", err)
	}
	prof, err := repo.GetProfile(ctx, s.DB, acc.ID)
	if err != nil {
		return nil, serviceErr("load profile", err)
	}
	s.Broker.Publish(auth.SessionEvent{Kind: auth.EventConfirmed, UserID: acc.ID})
	return sessionOf(acc, prof), nil
}

// SignInWithPassword checks credentials and issues a session token.
func (s *AuthService) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, string, error) {
	ctx, span := s.tracer().Start(ctx, "SignInWithPassword")
	defer span.End()

	email, ok := normalizeEmail(email)
	if !ok || password == "" {
		return nil, "", ErrInvalidCredentials
	}
	acc, err := repo.GetAccountByEmail(ctx, s.DB, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", serviceErr("load account", err)
	}
	if err := auth.CheckPassword(acc.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", serviceErr("check password", err)
	}
	if s.RequireConfirmation && !acc.EmailConfirmed {
		return nil, "", ErrEmailNotConfirmed
	}
	prof, err := repo.GetProfile(ctx, s.DB, acc.ID)
	if err != nil {
		return nil, "", serviceErr("load profile", err)
	}
	tok, err := s.Signer.Sign(acc.ID, acc.SessionVersion)
	if err != nil {
		return nil, "", serviceErr("sign token", err)
	}
	span.SetAttributes(attribute.String("user.id", acc.ID))
	s.Broker.Publish(auth.SessionEvent{Kind: auth.EventSignedIn, UserID: acc.ID})
	return sessionOf(acc, prof), tok, nil
}

// SignOut revokes every token issued to the caller.
func (s *AuthService) SignOut(ctx context.Context, sess *domain.Session) error {
	if !sess.Authenticated() {
		return ErrSignInRequired
	}
	err := repo.BumpSessionVersion(ctx, s.DB, sess.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrSessionExpired
	}
	if err != nil {
		return serviceErr("sign out", err)
	}
	s.Broker.Publish(auth.SessionEvent{Kind: auth.EventSignedOut, UserID: sess.UserID})
	return nil
}

// CurrentUser resolves a session token into the caller's identity. Role is
// read from the profile on every call, so role changes apply immediately.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.Signer.Parse(token)
	if err != nil {
		return nil, ErrSessionExpired
	}
	acc, err := repo.GetAccount(ctx, s.DB, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, serviceErr("load account", err)
	}
	if acc.SessionVersion != claims.Version {
		return nil, ErrSessionExpired
	}
	prof, err := repo.GetProfile(ctx, s.DB, acc.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, serviceErr("load profile", err)
	}
	return sessionOf(acc, prof), nil
}

func sessionOf(acc *domain.Account, p *domain.Profile) *domain.Session {
	return &domain.Session{
		UserID:         acc.ID,
		Username:       p.Username,
		Role:           p.Role,
		EmailConfirmed: acc.EmailConfirmed,
	}
}
