package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-forum-backend/internal/domain"
	"github.com/tbourn/go-forum-backend/internal/http/middleware"
	"github.com/tbourn/go-forum-backend/internal/repo"
)

// HeaderReplayed marks a response served from an earlier identical request.
const HeaderReplayed = "Idempotency-Replayed"

// priorResult returns the resource id and status recorded for this request's
// Idempotency-Key, if any.
func (h *Handlers) priorResult(c *gin.Context, sess *domain.Session) (int64, int, bool) {
	key, has := middleware.GetIdempotencyKey(c)
	if !has || h.db == nil || !sess.Authenticated() {
		return 0, 0, false
	}
	rec, err := repo.GetIdempotency(c.Request.Context(), h.db, sess.UserID, middleware.IdempotencyScope(c), key, time.Now().UTC())
	if err != nil {
		return 0, 0, false
	}
	id, err := strconv.ParseInt(rec.ResourceID, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return id, rec.Status, true
}

// remember records the created resource under the request's key. Best
// effort: a lost record only costs the client a duplicate on retry.
func (h *Handlers) remember(c *gin.Context, sess *domain.Session, resourceID int64, status int) {
	key, has := middleware.GetIdempotencyKey(c)
	if !has || h.db == nil || !sess.Authenticated() {
		return
	}
	_, err := repo.CreateIdempotency(c.Request.Context(), h.db, sess.UserID, middleware.IdempotencyScope(c), key,
		strconv.FormatInt(resourceID, 10), status, h.opts.IdempotencyTTL)
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("store idempotency record")
	}
}
