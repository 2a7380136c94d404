// Profile HTTP handlers.
//
//   - GET /profiles/availability?username=   (registration helper)
//   - GET /profiles/{username}               (public profile page)
//   - PUT /profiles/me/bio                   (edit own bio)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-forum-backend/internal/services"
)

// AvailabilityResponse answers a username availability check.
type AvailabilityResponse struct {
	Username  string `json:"username" example:"daemon_user"`
	Available bool   `json:"available" example:"true"`
}

// UpdateBioRequest replaces the caller's bio.
type UpdateBioRequest struct {
	Bio string `json:"bio" example:"Tinkering with small models and large questions."`
}

// UsernameAvailability godoc
// @ID          usernameAvailability
// @Summary     Check username availability
// @Description Case-insensitive. Malformed usernames are rejected with 400.
// @Tags        Profiles
// @Produce     json
// @Param       username  query  string  true  "Candidate username"  example(daemon_user)
// @Success     200  {object}  handlers.AvailabilityResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid username"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profiles/availability [get]
func (h *Handlers) UsernameAvailability(c *gin.Context) {
	name := c.Query("username")
	free, err := h.profiles.IsUsernameAvailable(c.Request.Context(), name)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, AvailabilityResponse{Username: services.NormalizeUsername(name), Available: free})
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Get a profile
// @Description Public profile with thread and post counts and recent threads.
// @Tags        Profiles
// @Produce     json
// @Param       username  path  string  true  "Username (case-insensitive)"  example(daemon_user)
// @Success     200  {object}  domain.ProfileView
// @Failure     404  {object}  handlers.ErrorResponse  "Profile not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profiles/{username} [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	pv, err := h.profiles.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, pv)
}

// UpdateBio godoc
// @ID          updateBio
// @Summary     Update own bio
// @Tags        Profiles
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.UpdateBioRequest  true  "New bio"
// @Success     200  {object}  domain.Profile
// @Failure     400  {object}  handlers.ErrorResponse  "Bio too long"
// @Failure     401  {object}  handlers.ErrorResponse  "Sign in required"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profiles/me/bio [put]
func (h *Handlers) UpdateBio(c *gin.Context) {
	var req UpdateBioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.profiles.UpdateBio(c.Request.Context(), session(c), req.Bio)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}
