package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-forum-backend/internal/domain"
)

// newForumDB returns an isolated in-memory database. With migrate=true every
// forum table is created and the default categories are seeded.
func newForumDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
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
	if migrate {
		if err := AutoMigrate(db); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
		if _, err := SeedCategories(context.Background(), db, DefaultCategories()); err != nil {
			t.Fatalf("seed categories: %v", err)
		}
	}
	return db
}

func mkProfile(t *testing.T, db *gorm.DB, username, role string) domain.Profile {
	t.Helper()
	p := domain.Profile{ID: uuid.NewString(), Username: username, DisplayName: username, Role: role}
	if err := CreateProfile(context.Background(), db, &p); err != nil {
		t.Fatalf("create profile %s: %v", username, err)
	}
	return p
}

var nextTestID int64 = 1000

func newID() int64 {
	nextTestID++
	return nextTestID
}

func mkThread(t *testing.T, db *gorm.DB, categoryID int64, authorID, title string, lastReply time.Time, pinned bool) domain.Thread {
	t.Helper()
	th := domain.Thread{
		ID:          newID(),
		CategoryID:  categoryID,
		AuthorID:    authorID,
		Title:       title,
		Slug:        title,
		Content:     "content of " + title,
		Pinned:      pinned,
		LastReplyAt: lastReply,
		CreatedAt:   lastReply,
		UpdatedAt:   lastReply,
	}
	if err := CreateThread(context.Background(), db, &th); err != nil {
		t.Fatalf("create thread %s: %v", title, err)
	}
	return th
}

func mkPost(t *testing.T, db *gorm.DB, threadID int64, authorID, content string, at time.Time) domain.Post {
	t.Helper()
	p := domain.Post{ID: newID(), ThreadID: threadID, AuthorID: authorID, Content: content, CreatedAt: at, UpdatedAt: at}
	if err := CreatePost(context.Background(), db, &p); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}
