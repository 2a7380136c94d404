// Thread HTTP handlers.
//
//   - GET  /threads/recent         (latest activity across categories)
//   - GET  /threads/search?q=      (title/body search)
//   - POST /threads                (create, idempotent)
//   - GET  /threads/{id}           (detail; counts a view)
//   - PUT  /threads/{id}/pin       (moderator)
//   - PUT  /threads/{id}/lock      (moderator)
//   - POST /threads/{id}/recount   (admin)
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-forum-backend/internal/domain"
	"github.com/tbourn/go-forum-backend/internal/http/middleware"
	"github.com/tbourn/go-forum-backend/internal/render"
	"github.com/tbourn/go-forum-backend/internal/services"
	"github.com/tbourn/go-forum-backend/internal/utils"
)

//
// DTOs
//

// CreateThreadRequest is the JSON payload for starting a thread.
type CreateThreadRequest struct {
	CategoryID int64  `json:"category_id" binding:"required" example:"2"`
	Title      string `json:"title" example:"On the nature of emergent minds"`
	// Content is markdown.
	Content string `json:"content" example:"What does it *mean* for a system to understand?"`
}

// ThreadResponse is a thread with its rendered body.
type ThreadResponse struct {
	*domain.ThreadDetail
	ContentHTML string `json:"content_html"`
}

// ThreadListResponse wraps a thread listing.
type ThreadListResponse struct {
	Threads []domain.ThreadListItem `json:"threads"`
}

// FlagRequest sets a boolean moderation flag.
type FlagRequest struct {
	Value *bool `json:"value" binding:"required" example:"true"`
}

// RecountResponse carries the repaired reply count.
type RecountResponse struct {
	ReplyCount int64 `json:"reply_count" example:"12"`
}

func threadResponse(d *domain.ThreadDetail) ThreadResponse {
	return ThreadResponse{ThreadDetail: d, ContentHTML: render.Markdown(d.Content)}
}

//
// Handlers
//

// RecentThreads godoc
// @ID          recentThreads
// @Summary     Recent threads
// @Description Threads with the latest activity across all categories.
// @Tags        Threads
// @Produce     json
// @Param       limit  query  int  false  "Max results"  minimum(1) maximum(50) default(10)
// @Success     200  {object}  handlers.ThreadListResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /threads/recent [get]
func (h *Handlers) RecentThreads(c *gin.Context) {
	items, err := h.threads.Recent(c.Request.Context(), utils.Limit(c.Query("limit"), 10, 50))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ThreadListResponse{Threads: items})
}

// SearchThreads godoc
// @ID          searchThreads
// @Summary     Search threads
// @Description Ranks threads by keyword overlap with titles and bodies.
// @Tags        Threads
// @Produce     json
// @Param       q      query  string  true   "Search terms"  example(consciousness)
// @Param       limit  query  int     false  "Max results"   minimum(1) maximum(50) default(20)
// @Success     200  {object}  handlers.ThreadListResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /threads/search [get]
func (h *Handlers) SearchThreads(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "q is required")
		return
	}
	items, err := h.threads.Search(c.Request.Context(), q, utils.Limit(c.Query("limit"), 20, 50))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ThreadListResponse{Threads: items})
}

// CreateThread godoc
// @ID          createThread
// @Summary     Start a thread
// @Description Creates a thread in a category. Supports idempotency via the Idempotency-Key header (same key, same thread).
// @Tags        Threads
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateThreadRequest  true  "Thread payload"
// @Success     201  {object}  handlers.ThreadResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Sign in required"
// @Failure     404  {object}  handlers.ErrorResponse  "Category not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /threads [post]
func (h *Handlers) CreateThread(c *gin.Context) {
	ctx := c.Request.Context()
	sess := session(c)

	var req CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "category_id, title and content are required")
		return
	}

	if id, status, found := h.priorResult(c, sess); found {
		if d, err := h.threads.Get(ctx, id); err == nil {
			c.Header(HeaderReplayed, "true")
			ok(c, status, threadResponse(d))
			return
		}
	}

	id, err := h.threads.Create(ctx, sess, services.CreateThreadInput{
		CategoryID: req.CategoryID,
		Title:      req.Title,
		Content:    sanitizeContent(req.Content),
	})
	if err != nil {
		failErr(c, err)
		return
	}
	d, err := h.threads.Get(ctx, id)
	if err != nil {
		failErr(c, err)
		return
	}
	h.remember(c, sess, id, http.StatusCreated)
	ok(c, http.StatusCreated, threadResponse(d))
}

// GetThread godoc
// @ID          getThread
// @Summary     Get a thread
// @Description Returns the thread with author and category and counts one view.
// @Tags        Threads
// @Produce     json
// @Param       id  path  int  true  "Thread ID"
// @Success     200  {object}  handlers.ThreadResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Thread not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /threads/{id} [get]
func (h *Handlers) GetThread(c *gin.Context) {
	ctx := c.Request.Context()
	id, valid := pathID(c, "thread")
	if !valid {
		return
	}
	d, err := h.threads.Get(ctx, id)
	if err != nil {
		failErr(c, err)
		return
	}
	if err := h.threads.RecordView(ctx, id); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Int64("thread_id", id).Msg("record view")
	} else {
		d.ViewCount++
	}
	ok(c, http.StatusOK, threadResponse(d))
}

// PinThread godoc
// @ID          pinThread
// @Summary     Pin or unpin a thread
// @Tags        Moderation
// @Accept      json
// @Security    BearerAuth
// @Param       id    path  int                       true  "Thread ID"
// @Param       body  body  handlers.FlagRequest  true  "Pinned state"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Sign in required"
// @Failure     403  {object}  handlers.ErrorResponse  "Moderators only"
// @Failure     404  {object}  handlers.ErrorResponse  "Thread not found"
// @Router      /threads/{id}/pin [put]
func (h *Handlers) PinThread(c *gin.Context) {
	h.setFlag(c, h.threads.SetPinned)
}

// LockThread godoc
// @ID          lockThread
// @Summary     Lock or unlock a thread
// @Description A locked thread accepts no new replies.
// @Tags        Moderation
// @Accept      json
// @Security    BearerAuth
// @Param       id    path  int                       true  "Thread ID"
// @Param       body  body  handlers.FlagRequest  true  "Locked state"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Sign in required"
// @Failure     403  {object}  handlers.ErrorResponse  "Moderators only"
// @Failure     404  {object}  handlers.ErrorResponse  "Thread not found"
// @Router      /threads/{id}/lock [put]
func (h *Handlers) LockThread(c *gin.Context) {
	h.setFlag(c, h.threads.SetLocked)
}

type flagSetter func(ctx context.Context, sess *domain.Session, id int64, v bool) error

func (h *Handlers) setFlag(c *gin.Context, set flagSetter) {
	id, valid := pathID(c, "thread")
	if !valid {
		return
	}
	var req FlagRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value (boolean) is required")
		return
	}
	if err := set(c.Request.Context(), session(c), id, *req.Value); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// RecountReplies godoc
// @ID          recountReplies
// @Summary     Repair a thread's reply count
// @Tags        Moderation
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  int  true  "Thread ID"
// @Success     200  {object}  handlers.RecountResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Sign in required"
// @Failure     403  {object}  handlers.ErrorResponse  "Admins only"
// @Failure     404  {object}  handlers.ErrorResponse  "Thread not found"
// @Router      /threads/{id}/recount [post]
func (h *Handlers) RecountReplies(c *gin.Context) {
	id, valid := pathID(c, "thread")
	if !valid {
		return
	}
	n, err := h.threads.RecountReplies(c.Request.Context(), session(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, RecountResponse{ReplyCount: n})
}
