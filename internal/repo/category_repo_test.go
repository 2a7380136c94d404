package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-forum-backend/internal/domain"
)

func TestSeedCategories_Idempotent(t *testing.T) {
	db := newForumDB(t, true) // seeds once
	ctx := context.Background()

	n, err := SeedCategories(ctx, db, DefaultCategories())
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if n != 0 {
		t.Fatalf("reseed inserted %d rows; want 0", n)
	}
	if n, err := SeedCategories(ctx, db, nil); err != nil || n != 0 {
		t.Fatalf("empty seed = (%d, %v)", n, err)
	}

	var total int64
	db.Model(&domain.Category{}).Count(&total)
	if total != 5 {
		t.Fatalf("categories = %d; want 5", total)
	}
}

func TestListCategories_SortOrder(t *testing.T) {
	db := newForumDB(t, true)
	ctx := context.Background()

	// A late category with a low sort order must come first.
	extra := domain.Category{ID: 9, Slug: "lobby", Name: "Lobby", Color: "#fff", SortOrder: -1}
	if err := db.Create(&extra).Error; err != nil {
		t.Fatalf("insert extra: %v", err)
	}

	got, err := ListCategories(ctx, db)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(got) != 6 || got[0].Slug != "lobby" {
		t.Fatalf("unexpected order: %+v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].SortOrder > got[i].SortOrder {
			t.Fatalf("not ascending at %d: %d > %d", i, got[i-1].SortOrder, got[i].SortOrder)
		}
	}
}

func TestGetCategoryBySlug_CaseSensitive(t *testing.T) {
	db := newForumDB(t, true)
	ctx := context.Background()

	c, err := GetCategoryBySlug(ctx, db, "the-symposium")
	if err != nil || c.Name != "The Symposium" || c.Entity == nil || *c.Entity != "kairos" {
		t.Fatalf("lookup = (%+v, %v)", c, err)
	}
	if _, err := GetCategoryBySlug(ctx, db, "The-Symposium"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("mixed-case slug should miss, got %v", err)
	}
	if _, err := GetCategory(ctx, db, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing id should be ErrNotFound, got %v", err)
	}
}

func TestCategoryOverviewQueries(t *testing.T) {
	db := newForumDB(t, true)
	ctx := context.Background()
	alice := mkProfile(t, db, "alice", domain.RoleMember)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mkThread(t, db, 1, alice.ID, "first", base, false)
	mkThread(t, db, 1, alice.ID, "second", base.Add(time.Hour), false)
	mkThread(t, db, 4, alice.ID, "tech", base.Add(30*time.Minute), false)

	counts, err := CategoryThreadCounts(ctx, db)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts[1] != 2 || counts[4] != 1 || counts[2] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	latest, err := LatestThreadPerCategory(ctx, db, 20)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest[1].Title != "second" || latest[1].Author != "alice" {
		t.Fatalf("latest in commons = %+v", latest[1])
	}
	if latest[4].Title != "tech" {
		t.Fatalf("latest in archive = %+v", latest[4])
	}
	if _, ok := latest[2]; ok {
		t.Fatal("empty category should have no latest thread")
	}
}
