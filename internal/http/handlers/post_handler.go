// Post HTTP handlers.
//
//   - GET  /threads/{id}/posts   (replies, oldest first, with reactions)
//   - POST /threads/{id}/posts   (reply, idempotent)
//
// Idempotency: a retried POST with the same Idempotency-Key returns the
// reply created by the first attempt and sets `Idempotency-Replayed: true`.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-forum-backend/internal/domain"
	"github.com/tbourn/go-forum-backend/internal/render"
	"github.com/tbourn/go-forum-backend/internal/repo"
	"github.com/tbourn/go-forum-backend/internal/services"
)

//
// DTOs
//

// CreatePostRequest is the JSON payload for a reply.
type CreatePostRequest struct {
	// Content is markdown.
	Content string `json:"content" example:"Strong agree. See also *Gödel, Escher, Bach*."`
	// ReplyToID optionally quotes an earlier post in the same thread.
	ReplyToID *int64 `json:"reply_to_id" example:"1790123456789012480"`
}

// PostResponse is a post with its rendered body.
type PostResponse struct {
	domain.PostView
	ContentHTML string `json:"content_html"`
}

// CreatePostResponse is a freshly created reply.
type CreatePostResponse struct {
	*domain.Post
	ContentHTML string `json:"content_html"`
}

// ListPostsResponse wraps a thread's replies.
type ListPostsResponse struct {
	Posts []PostResponse `json:"posts"`
}

//
// Handlers
//

// ListPosts godoc
// @ID          listPosts
// @Summary     List replies in a thread
// @Description Oldest first. Each post carries its reaction counts; has_reacted reflects the caller.
// @Tags        Posts
// @Produce     json
// @Param       id  path  int  true  "Thread ID"
// @Success     200  {object}  handlers.ListPostsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Thread not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /threads/{id}/posts [get]
func (h *Handlers) ListPosts(c *gin.Context) {
	id, valid := pathID(c, "thread")
	if !valid {
		return
	}
	views, err := h.posts.ListByThread(c.Request.Context(), id, viewerID(session(c)))
	if err != nil {
		failErr(c, err)
		return
	}
	out := make([]PostResponse, 0, len(views))
	for _, v := range views {
		out = append(out, PostResponse{PostView: v, ContentHTML: render.Markdown(v.Content)})
	}
	ok(c, http.StatusOK, ListPostsResponse{Posts: out})
}

// CreatePost godoc
// @ID          createPost
// @Summary     Reply to a thread
// @Description Appends a reply and bumps the thread. Locked threads reject replies with 403.
// @Description Supports idempotency via the Idempotency-Key header (same key, same reply).
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    int     true   "Thread ID"
// @Param       body             body    handlers.CreatePostRequest  true  "Reply payload"
// @Success     201  {object}  handlers.CreatePostResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Sign in required"
// @Failure     403  {object}  handlers.ErrorResponse  "Thread locked"
// @Failure     404  {object}  handlers.ErrorResponse  "Thread not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /threads/{id}/posts [post]
func (h *Handlers) CreatePost(c *gin.Context) {
	ctx := c.Request.Context()
	sess := session(c)
	threadID, valid := pathID(c, "thread")
	if !valid {
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if id, status, found := h.priorResult(c, sess); found {
		if p, err := h.loadPost(ctx, id); err == nil {
			c.Header(HeaderReplayed, "true")
			ok(c, status, CreatePostResponse{Post: p, ContentHTML: render.Markdown(p.Content)})
			return
		}
	}

	p, err := h.posts.Create(ctx, sess, threadID, services.CreatePostInput{
		Content:   sanitizeContent(req.Content),
		ReplyToID: req.ReplyToID,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	h.remember(c, sess, p.ID, http.StatusCreated)
	ok(c, http.StatusCreated, CreatePostResponse{Post: p, ContentHTML: render.Markdown(p.Content)})
}

func (h *Handlers) loadPost(ctx context.Context, id int64) (*domain.Post, error) {
	if h.db == nil {
		return nil, gorm.ErrInvalidDB
	}
	return repo.GetPost(ctx, h.db, id)
}
