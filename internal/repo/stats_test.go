package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-forum-backend/internal/domain"
)

func TestThreadsStats_Empty(t *testing.T) {
	db := newForumDB(t, true)
	st, err := ThreadsStats(context.Background(), db, 2)
	if err != nil {
		t.Fatalf("ThreadsStats: %v", err)
	}
	if st.Count != 0 || st.Views != 0 || st.Latest != nil {
		t.Fatalf("unexpected stats for empty category: %+v", st)
	}
}

func TestThreadsStats_TracksViewsAndReplies(t *testing.T) {
	db := newForumDB(t, true)
	ctx := context.Background()
	a := mkProfile(t, db, "ivy", domain.RoleMember)
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	th := mkThread(t, db, 1, a.ID, "stats", base, false)
	mkThread(t, db, 2, a.ID, "other", base.Add(time.Hour), false)

	before, err := ThreadsStats(ctx, db, 1)
	if err != nil {
		t.Fatalf("ThreadsStats: %v", err)
	}
	if before.Count != 1 || before.Latest == nil || !before.Latest.Equal(base) {
		t.Fatalf("unexpected initial stats: %+v", before)
	}

	if err := IncrementViewCount(ctx, db, th.ID); err != nil {
		t.Fatalf("view: %v", err)
	}
	afterView, _ := ThreadsStats(ctx, db, 1)
	if afterView.Views != before.Views+1 {
		t.Fatalf("views = %d; want %d", afterView.Views, before.Views+1)
	}

	reply := base.Add(3 * time.Hour)
	if err := BumpReplies(ctx, db, th.ID, reply); err != nil {
		t.Fatalf("bump: %v", err)
	}
	afterReply, _ := ThreadsStats(ctx, db, 1)
	if afterReply.Latest == nil || !afterReply.Latest.Equal(reply) {
		t.Fatalf("latest = %v; want %v", afterReply.Latest, reply)
	}
}

func TestThreadsStats_NoTable(t *testing.T) {
	db := newForumDB(t, false)
	if _, err := ThreadsStats(context.Background(), db, 1); err == nil {
		t.Fatal("expected error without threads table")
	}
}
