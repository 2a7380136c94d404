// Reaction HTTP handlers.
//
//   - POST /posts/{id}/reactions   (toggle one emoji for the caller)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-forum-backend/internal/domain"
)

// ToggleReactionRequest names the emoji to toggle.
type ToggleReactionRequest struct {
	Emoji string `json:"emoji" binding:"required" enums:"fire,zap,brain,lightbulb,heart" example:"fire"`
}

// ToggleReactionResponse reports the caller's new state and the post's counts.
type ToggleReactionResponse struct {
	PostID    int64                  `json:"post_id"`
	Emoji     string                 `json:"emoji"`
	Reacted   bool                   `json:"reacted"`
	Reactions []domain.ReactionCount `json:"reactions"`
}

// ToggleReaction godoc
// @ID          toggleReaction
// @Summary     Toggle a reaction
// @Description Adds the caller's reaction when absent and removes it when present.
// @Tags        Reactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  int                                 true  "Post ID"
// @Param       body  body  handlers.ToggleReactionRequest  true  "Emoji"
// @Success     200  {object}  handlers.ToggleReactionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown emoji"
// @Failure     401  {object}  handlers.ErrorResponse  "Sign in required"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /posts/{id}/reactions [post]
func (h *Handlers) ToggleReaction(c *gin.Context) {
	postID, valid := pathID(c, "post")
	if !valid {
		return
	}
	var req ToggleReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "emoji is required")
		return
	}
	emoji := strings.ToLower(strings.TrimSpace(req.Emoji))
	reacted, counts, err := h.reactions.Toggle(c.Request.Context(), session(c), postID, emoji)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ToggleReactionResponse{PostID: postID, Emoji: emoji, Reacted: reacted, Reactions: counts})
}
