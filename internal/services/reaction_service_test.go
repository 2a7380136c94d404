package services

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/go-forum-backend/internal/domain"
)

func TestAggregateReactions_Example(t *testing.T) {
	raw := []domain.Reaction{
		{PostID: 1, UserID: "u1", Emoji: "fire"},
		{PostID: 1, UserID: "u2", Emoji: "fire"},
	}
	got := AggregateReactions(raw, "u1")
	want := map[int64][]domain.ReactionCount{
		1: {{Emoji: "fire", Count: 2, HasReacted: true}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v; want %+v", got, want)
	}
	if got := AggregateReactions(nil, "u1"); len(got) != 0 {
		t.Fatalf("no rows should aggregate to nothing: %+v", got)
	}
}

func TestAggregateReactions_OrderIndependent(t *testing.T) {
	raw := []domain.Reaction{
		{PostID: 1, UserID: "a", Emoji: "heart"},
		{PostID: 1, UserID: "b", Emoji: "fire"},
		{PostID: 1, UserID: "c", Emoji: "brain"},
		{PostID: 1, UserID: "a", Emoji: "fire"},
		{PostID: 2, UserID: "b", Emoji: "zap"},
		{PostID: 2, UserID: "c", Emoji: "lightbulb"},
		{PostID: 2, UserID: "c", Emoji: "zap"},
	}
	base := AggregateReactions(raw, "c")

	emojis := []string{}
	for _, rc := range base[1] {
		emojis = append(emojis, rc.Emoji)
	}
	if !reflect.DeepEqual(emojis, []string{"fire", "brain", "heart"}) {
		t.Fatalf("post 1 emoji order = %v", emojis)
	}
	if base[2][0] != (domain.ReactionCount{Emoji: "zap", Count: 2, HasReacted: true}) {
		t.Fatalf("post 2 first entry = %+v", base[2][0])
	}

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 25; i++ {
		shuffled := append([]domain.Reaction(nil), raw...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := AggregateReactions(shuffled, "c"); !reflect.DeepEqual(got, base) {
			t.Fatalf("permutation %d changed result: %+v", i, got)
		}
	}
}

func TestReactionService_ToggleTwiceRestores(t *testing.T) {
	db := newSvcDB(t)
	ts := &ThreadService{DB: db}
	ps := &PostService{DB: db}
	rs := &ReactionService{DB: db}
	ctx := context.Background()
	alice := mkUser(t, db, "alice", domain.RoleMember)
	bob := mkUser(t, db, "bob", domain.RoleMember)
	tid := mustThread(t, ts, alice, 1, "React")
	post, err := ps.Create(ctx, alice, tid, CreatePostInput{Content: "react to me"})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	if _, _, err := rs.Toggle(ctx, bob, post.ID, "zap"); err != nil {
		t.Fatalf("bob toggle: %v", err)
	}
	_, initial, _ := rs.Toggle(ctx, bob, post.ID, "heart")

	added := testutil.ToFloat64(reactionsToggled.WithLabelValues("added"))
	removed := testutil.ToFloat64(reactionsToggled.WithLabelValues("removed"))

	on, counts, err := rs.Toggle(ctx, alice, post.ID, "zap")
	if err != nil || !on {
		t.Fatalf("first toggle = (%v, %v)", on, err)
	}
	if counts[0] != (domain.ReactionCount{Emoji: "zap", Count: 2, HasReacted: true}) {
		t.Fatalf("counts after add = %+v", counts)
	}

	on, counts, err = rs.Toggle(ctx, alice, post.ID, "zap")
	if err != nil || on {
		t.Fatalf("second toggle = (%v, %v)", on, err)
	}
	// Viewer flags differ between alice and bob; compare the counts only.
	strip := func(in []domain.ReactionCount) []domain.ReactionCount {
		out := make([]domain.ReactionCount, len(in))
		for i, rc := range in {
			out[i] = domain.ReactionCount{Emoji: rc.Emoji, Count: rc.Count}
		}
		return out
	}
	if !reflect.DeepEqual(strip(counts), strip(initial)) {
		t.Fatalf("toggle twice did not restore: %+v vs %+v", counts, initial)
	}

	if got := testutil.ToFloat64(reactionsToggled.WithLabelValues("added")); got != added+1 {
		t.Fatalf("added counter = %v; want %v", got, added+1)
	}
	if got := testutil.ToFloat64(reactionsToggled.WithLabelValues("removed")); got != removed+1 {
		t.Fatalf("removed counter = %v; want %v", got, removed+1)
	}

	// Removing the last reaction of an emoji leaves an empty, non-nil slice.
	_, _, _ = rs.Toggle(ctx, bob, post.ID, "zap")
	_, counts, _ = rs.Toggle(ctx, bob, post.ID, "heart")
	if counts == nil || len(counts) != 0 {
		t.Fatalf("expected empty counts, got %#v", counts)
	}
}

func TestReactionService_Rejections(t *testing.T) {
	db := newSvcDB(t)
	rs := &ReactionService{DB: db}
	ctx := context.Background()
	sess := mkUser(t, db, "picky", domain.RoleMember)

	if _, _, err := rs.Toggle(ctx, nil, 1, "fire"); !errors.Is(err, ErrSignInRequired) {
		t.Fatalf("anonymous: %v", err)
	}
	if _, _, err := rs.Toggle(ctx, sess, 1, "thumbsup"); !errors.Is(err, ErrInvalidEmoji) || !errors.Is(err, ErrValidation) {
		t.Fatalf("bad emoji: %v", err)
	}
	if _, _, err := rs.Toggle(ctx, sess, 55555, "fire"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("missing post: %v", err)
	}
}
