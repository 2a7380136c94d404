package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-forum-backend/internal/auth"
	"github.com/tbourn/go-forum-backend/internal/domain"
	"github.com/tbourn/go-forum-backend/internal/http/middleware"
	"github.com/tbourn/go-forum-backend/internal/repo"
	"github.com/tbourn/go-forum-backend/internal/search"
	"github.com/tbourn/go-forum-backend/internal/services"
)

const testCookie = "forum_session"

// ---------- test DB + router ----------

func newForumDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := repo.SeedCategories(context.Background(), db, repo.DefaultCategories()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

type testEnv struct {
	t    *testing.T
	db   *gorm.DB
	auth *services.AuthService
	r    *gin.Engine
}

// newEnv wires real services over a fresh database and mounts every route
// the way the production router does (minus observability).
func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newForumDB(t)

	profiles := &services.ProfileService{DB: db}
	authSvc := &services.AuthService{
		DB:       db,
		Profiles: profiles,
		Signer:   auth.NewSigner("handler-test-secret", time.Hour),
	}
	threads := &services.ThreadService{DB: db, Index: search.NewThreadIndex()}

	h := New(Deps{
		Categories: &services.CategoryService{DB: db},
		Threads:    threads,
		Posts:      &services.PostService{DB: db},
		Reactions:  &services.ReactionService{DB: db},
		Profiles:   profiles,
		Auth:       authSvc,
		DB:         db,
	}, Options{CookieName: testCookie, SessionTTL: time.Hour})

	lookup := func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
		rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
		return rec != nil && err == nil, nil
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Authenticate(authSvc, testCookie),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, lookup))

	r.GET("/categories", h.ListCategories)
	r.GET("/categories/:slug", h.GetCategory)
	r.GET("/categories/:slug/threads", h.ListCategoryThreads)

	r.GET("/threads/recent", h.RecentThreads)
	r.GET("/threads/search", h.SearchThreads)
	r.POST("/threads", h.CreateThread)
	r.GET("/threads/:id", h.GetThread)
	r.GET("/threads/:id/posts", h.ListPosts)
	r.POST("/threads/:id/posts", h.CreatePost)
	r.PUT("/threads/:id/pin", h.PinThread)
	r.PUT("/threads/:id/lock", h.LockThread)
	r.POST("/threads/:id/recount", h.RecountReplies)

	r.POST("/posts/:id/reactions", h.ToggleReaction)

	r.GET("/profiles/availability", h.UsernameAvailability)
	r.GET("/profiles/:username", h.GetProfile)
	r.PUT("/profiles/me/bio", h.UpdateBio)

	r.POST("/auth/signup", h.SignUp)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.POST("/auth/confirm", h.Confirm)
	r.GET("/auth/me", h.Me)

	return &testEnv{t: t, db: db, auth: authSvc, r: r}
}

// do sends a JSON request; token may be empty for anonymous calls.
func (e *testEnv) do(method, path, token string, body any, hdr ...string) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

// signUp registers username and returns its session token.
func (e *testEnv) signUp(username string) string {
	e.t.Helper()
	res, err := e.auth.SignUp(context.Background(), username+"@example.com", "correct horse", services.SignUpMeta{Username: username})
	if err != nil {
		e.t.Fatalf("sign up %s: %v", username, err)
	}
	return res.Token
}

func (e *testEnv) setRole(username, role string) {
	e.t.Helper()
	err := e.db.Model(&domain.Profile{}).Where("username = ?", services.NormalizeUsername(username)).Update("role", role).Error
	if err != nil {
		e.t.Fatalf("set role: %v", err)
	}
}

// createThread posts a thread as token and returns its id.
func (e *testEnv) createThread(token string, categoryID int64, title string) int64 {
	e.t.Helper()
	w := e.do(http.MethodPost, "/threads", token, CreateThreadRequest{CategoryID: categoryID, Title: title, Content: "body of " + title})
	if w.Code != http.StatusCreated {
		e.t.Fatalf("create thread: %d %s", w.Code, w.Body.String())
	}
	var th struct {
		ID int64 `json:"id"`
	}
	decode(e.t, w, &th)
	return th.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var er ErrorResponse
	decode(t, w, &er)
	return er.Code
}
