package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-forum-backend/internal/domain"
	"github.com/tbourn/go-forum-backend/internal/repo"
)

const writers = 24

// newFileDB opens a file-backed database so writers really contend across
// pooled connections.
func newFileDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.Open(repo.DriverSQLite, filepath.Join(t.TempDir(), "forum.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
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

// parallel runs fn n times concurrently and reports every error.
func parallel(t *testing.T, n int, fn func(i int) error) {
	t.Helper()
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := fn(i); err != nil {
				errs <- fmt.Errorf("writer %d: %w", i, err)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestConcurrent_RecordViewCountsEveryView(t *testing.T) {
	db := newFileDB(t)
	ts := &ThreadService{DB: db}
	id := mustThread(t, ts, mkUser(t, db, "host", domain.RoleMember), 1, "Busy thread")

	ctx := context.Background()
	parallel(t, writers, func(int) error { return ts.RecordView(ctx, id) })

	th, err := repo.GetThread(ctx, db, id)
	if err != nil {
		t.Fatalf("GetThread: %v", err)
	}
	if th.ViewCount != writers {
		t.Fatalf("view_count = %d; want %d", th.ViewCount, writers)
	}
}

func TestConcurrent_RepliesBumpReplyCount(t *testing.T) {
	db := newFileDB(t)
	ts := &ThreadService{DB: db}
	ps := &PostService{DB: db}
	id := mustThread(t, ts, mkUser(t, db, "host", domain.RoleMember), 2, "Reply storm")

	sessions := make([]*domain.Session, writers)
	for i := range sessions {
		sessions[i] = mkUser(t, db, fmt.Sprintf("replier%02d", i), domain.RoleMember)
	}

	ctx := context.Background()
	parallel(t, writers, func(i int) error {
		_, err := ps.Create(ctx, sessions[i], id, CreatePostInput{Content: fmt.Sprintf("reply %d", i)})
		return err
	})

	th, err := repo.GetThread(ctx, db, id)
	if err != nil {
		t.Fatalf("GetThread: %v", err)
	}
	if th.ReplyCount != writers {
		t.Fatalf("reply_count = %d; want %d", th.ReplyCount, writers)
	}
	var stored int64
	if err := db.Model(&domain.Post{}).Where("thread_id = ?", id).Count(&stored).Error; err != nil {
		t.Fatalf("count posts: %v", err)
	}
	if stored != writers {
		t.Fatalf("stored posts = %d; want %d", stored, writers)
	}
}

func TestConcurrent_SameUserTogglesPairOff(t *testing.T) {
	db := newFileDB(t)
	ts := &ThreadService{DB: db}
	ps := &PostService{DB: db}
	rs := &ReactionService{DB: db}
	host := mkUser(t, db, "host", domain.RoleMember)
	fan := mkUser(t, db, "fan", domain.RoleMember)
	id := mustThread(t, ts, host, 3, "Vote here")

	ctx := context.Background()
	post, err := ps.Create(ctx, host, id, CreatePostInput{Content: "react to me"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	var added atomic.Int64
	parallel(t, writers, func(int) error {
		on, _, err := rs.Toggle(ctx, fan, post.ID, "heart")
		if on {
			added.Add(1)
		}
		return err
	})

	if got := added.Load(); got != writers/2 {
		t.Fatalf("toggles that added = %d; want %d", got, writers/2)
	}
	rows, err := repo.ListReactionsForPosts(ctx, db, []int64{post.ID})
	if err != nil {
		t.Fatalf("list reactions: %v", err)
	}
	if n := len(rows[post.ID]); n != 0 {
		t.Fatalf("reaction rows after %d toggles = %d; want 0", writers, n)
	}
}
