package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/go-forum-backend/internal/http/middleware"
)

func TestPosts_CreateAndList(t *testing.T) {
	e := newEnv(t)
	alice := e.signUp("alice")
	bob := e.signUp("bob")
	id := e.createThread(alice, 2, "Threads of thought")
	path := "/threads/" + itoa(id) + "/posts"

	w := e.do(http.MethodPost, path, bob, CreatePostRequest{Content: "first <script>alert(1)</script>reply"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var first CreatePostResponse
	decode(t, w, &first)
	if strings.Contains(first.ContentHTML, "<script") || !strings.Contains(first.ContentHTML, "reply") {
		t.Fatalf("unsanitized html: %q", first.ContentHTML)
	}

	reply := first.ID
	w = e.do(http.MethodPost, path, alice, CreatePostRequest{Content: "quoting you", ReplyToID: &reply})
	if w.Code != http.StatusCreated {
		t.Fatalf("reply: %d %s", w.Code, w.Body.String())
	}

	w = e.do(http.MethodGet, path, "", nil)
	var list ListPostsResponse
	decode(t, w, &list)
	if w.Code != http.StatusOK || len(list.Posts) != 2 {
		t.Fatalf("list: %d %+v", w.Code, list)
	}
	if list.Posts[0].Author.Username != "bob" || list.Posts[1].ReplyToID == nil || *list.Posts[1].ReplyToID != reply {
		t.Fatalf("order/reply target wrong: %+v", list.Posts)
	}
	if list.Posts[0].Reactions == nil || list.Posts[0].ContentHTML == "" {
		t.Fatalf("reactions and html must be present: %+v", list.Posts[0])
	}

	w = e.do(http.MethodGet, "/threads/"+itoa(id), "", nil)
	var th struct {
		ReplyCount int64 `json:"reply_count"`
	}
	decode(t, w, &th)
	if th.ReplyCount != 2 {
		t.Fatalf("reply_count = %d", th.ReplyCount)
	}
}

func TestPosts_Errors(t *testing.T) {
	e := newEnv(t)
	tok := e.signUp("carol")
	id := e.createThread(tok, 1, "Errors")
	path := "/threads/" + itoa(id) + "/posts"

	if w := e.do(http.MethodPost, path, "", CreatePostRequest{Content: "x"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: %d", w.Code)
	}
	if w := e.do(http.MethodPost, path, tok, CreatePostRequest{Content: "   "}); w.Code != http.StatusBadRequest {
		t.Fatalf("blank: %d", w.Code)
	}
	bogus := int64(42)
	if w := e.do(http.MethodPost, path, tok, CreatePostRequest{Content: "x", ReplyToID: &bogus}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad reply target: %d", w.Code)
	}
	if w := e.do(http.MethodPost, "/threads/999/posts", tok, CreatePostRequest{Content: "x"}); w.Code != http.StatusNotFound {
		t.Fatalf("missing thread: %d", w.Code)
	}
	if w := e.do(http.MethodGet, "/threads/999/posts", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("list missing thread: %d", w.Code)
	}
	if w := e.do(http.MethodGet, "/threads/0/posts", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("zero id: %d", w.Code)
	}
}

func TestPosts_IdempotentReplay(t *testing.T) {
	e := newEnv(t)
	tok := e.signUp("dave")
	id := e.createThread(tok, 1, "Retry me")
	path := "/threads/" + itoa(id) + "/posts"

	w1 := e.do(http.MethodPost, path, tok, CreatePostRequest{Content: "once"}, middleware.HeaderIdempotencyKey, "k1")
	w2 := e.do(http.MethodPost, path, tok, CreatePostRequest{Content: "once"}, middleware.HeaderIdempotencyKey, "k1")
	if w1.Code != http.StatusCreated || w2.Code != http.StatusCreated || w2.Header().Get(HeaderReplayed) != "true" {
		t.Fatalf("codes %d/%d replay=%q", w1.Code, w2.Code, w2.Header().Get(HeaderReplayed))
	}

	w := e.do(http.MethodGet, "/threads/"+itoa(id), "", nil)
	var th struct {
		ReplyCount int64 `json:"reply_count"`
	}
	decode(t, w, &th)
	if th.ReplyCount != 1 {
		t.Fatalf("replay must not add a reply: reply_count=%d", th.ReplyCount)
	}

	// Keys are scoped per thread: the same key on another thread is fresh.
	other := e.createThread(tok, 1, "Another")
	w3 := e.do(http.MethodPost, "/threads/"+itoa(other)+"/posts", tok, CreatePostRequest{Content: "once"}, middleware.HeaderIdempotencyKey, "k1")
	if w3.Code != http.StatusCreated || w3.Header().Get(HeaderReplayed) != "" {
		t.Fatalf("other thread: %d replay=%q", w3.Code, w3.Header().Get(HeaderReplayed))
	}
}

func TestPosts_ContentKeepsInnerBlankLines(t *testing.T) {
	e := newEnv(t)
	tok := e.signUp("dana")
	id := e.createThread(tok, 3, "Snippets")

	body := "  see below:\r\n\r\n```\nfunc main() {\n\n\n\tprintln(1)\n}\n```\n\n  "
	w := e.do(http.MethodPost, "/threads/"+itoa(id)+"/posts", tok, CreatePostRequest{Content: body})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var p CreatePostResponse
	decode(t, w, &p)
	want := "see below:\n\n```\nfunc main() {\n\n\n\tprintln(1)\n}\n```"
	if p.Content != want {
		t.Fatalf("content = %q; want %q", p.Content, want)
	}
	if !strings.Contains(p.ContentHTML, "{\n\n\n\tprintln(1)") {
		t.Fatalf("code block lost blank lines: %q", p.ContentHTML)
	}
}
