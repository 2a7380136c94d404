// Package handlers exposes the forum over HTTP.
//
// Handlers are transport-thin: they parse and normalize input, read the
// caller's identity from the auth middleware, call application services and
// translate results (and service error kinds) into JSON responses.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-forum-backend/internal/domain"
	"github.com/tbourn/go-forum-backend/internal/http/middleware"
	"github.com/tbourn/go-forum-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// CategoryService reads the category registry.
type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	Overview(ctx context.Context) ([]domain.CategoryOverview, error)
}

// ThreadService covers thread listings, creation and moderation.
type ThreadService interface {
	ListByCategorySlug(ctx context.Context, slug string) (*domain.Category, []domain.ThreadListItem, error)
	Create(ctx context.Context, sess *domain.Session, in services.CreateThreadInput) (int64, error)
	Get(ctx context.Context, id int64) (*domain.ThreadDetail, error)
	RecordView(ctx context.Context, id int64) error
	SetPinned(ctx context.Context, sess *domain.Session, id int64, pinned bool) error
	SetLocked(ctx context.Context, sess *domain.Session, id int64, locked bool) error
	RecountReplies(ctx context.Context, sess *domain.Session, id int64) (int64, error)
	Recent(ctx context.Context, limit int) ([]domain.ThreadListItem, error)
	Search(ctx context.Context, query string, limit int) ([]domain.ThreadListItem, error)
}

// PostService covers replies.
type PostService interface {
	ListByThread(ctx context.Context, threadID int64, viewerID string) ([]domain.PostView, error)
	Create(ctx context.Context, sess *domain.Session, threadID int64, in services.CreatePostInput) (*domain.Post, error)
}

// ReactionService toggles emoji reactions.
type ReactionService interface {
	Toggle(ctx context.Context, sess *domain.Session, postID int64, emoji string) (bool, []domain.ReactionCount, error)
}

// ProfileService covers public profiles.
type ProfileService interface {
	IsUsernameAvailable(ctx context.Context, candidate string) (bool, error)
	GetByUsername(ctx context.Context, username string) (*domain.ProfileView, error)
	UpdateBio(ctx context.Context, sess *domain.Session, bio string) (*domain.Profile, error)
}

// AuthService covers accounts and sessions.
type AuthService interface {
	SignUp(ctx context.Context, email, password string, meta services.SignUpMeta) (*services.SignUpResult, error)
	Confirm(ctx context.Context, token string) (*domain.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, string, error)
	SignOut(ctx context.Context, sess *domain.Session) error
}

//
// Handler wiring
//

// Deps are the collaborators of Handlers. DB is used for weak ETags and
// idempotency records; when nil both are skipped.
type Deps struct {
	Categories CategoryService
	Threads    ThreadService
	Posts      PostService
	Reactions  ReactionService
	Profiles   ProfileService
	Auth       AuthService
	DB         *gorm.DB
}

// Options tunes transport behavior.
type Options struct {
	// CookieName is the session cookie; empty disables cookies entirely and
	// tokens are only returned in response bodies.
	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration
	// IdempotencyTTL is how long a create may be replayed; <= 0 means 24h.
	IdempotencyTTL time.Duration
}

// Handlers groups the forum's HTTP endpoints.
type Handlers struct {
	categories CategoryService
	threads    ThreadService
	posts      PostService
	reactions  ReactionService
	profiles   ProfileService
	auth       AuthService
	db         *gorm.DB
	opts       Options
}

// New constructs Handlers bound to d.
func New(d Deps, opts Options) *Handlers {
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	return &Handlers{
		categories: d.Categories,
		threads:    d.Threads,
		posts:      d.Posts,
		reactions:  d.Reactions,
		profiles:   d.Profiles,
		auth:       d.Auth,
		db:         d.DB,
		opts:       opts,
	}
}

//
// Helpers
//

// viewerID is the caller's user id, or "" when anonymous.
func viewerID(sess *domain.Session) string {
	if sess.Authenticated() {
		return sess.UserID
	}
	return ""
}

// pathID parses the :id path parameter, writing a 400 when it is malformed.
func pathID(c *gin.Context, what string) (int64, bool) {
	id, valid := services.ParseID(c.Param("id"))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, what+" id must be a positive integer")
		return 0, false
	}
	return id, true
}

// sanitizeContent normalizes line endings and trims surrounding whitespace.
// Inner blank lines are kept so code blocks survive intact.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}

// session is a shorthand for middleware.SessionFrom.
func session(c *gin.Context) *domain.Session { return middleware.SessionFrom(c) }
