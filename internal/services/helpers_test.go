package services

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-forum-backend/internal/domain"
	"github.com/tbourn/go-forum-backend/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
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
		t.Fatalf("automigrate: %v", err)
	}
	if _, err := repo.SeedCategories(context.Background(), db, repo.DefaultCategories()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

// brokenDB returns a handle whose connection pool is already closed, so
// every query fails with a driver error.
func brokenDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := newSvcDB(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	_ = sqlDB.Close()
	return db
}

func mkUser(t *testing.T, db *gorm.DB, username, role string) *domain.Session {
	t.Helper()
	p := domain.Profile{ID: uuid.NewString(), Username: username, DisplayName: username, Role: role}
	if err := repo.CreateProfile(context.Background(), db, &p); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return &domain.Session{UserID: p.ID, Username: username, Role: role, EmailConfirmed: true}
}

func mustThread(t *testing.T, s *ThreadService, sess *domain.Session, categoryID int64, title string) int64 {
	t.Helper()
	id, err := s.Create(context.Background(), sess, CreateThreadInput{CategoryID: categoryID, Title: title, Content: "body of " + title})
	if err != nil {
		t.Fatalf("create thread %q: %v", title, err)
	}
	return id
}
