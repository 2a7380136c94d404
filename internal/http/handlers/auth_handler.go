// Auth HTTP handlers.
//
//   - POST /auth/signup    (register; signs in unless confirmation is required)
//   - POST /auth/login     (email + password)
//   - POST /auth/logout    (revokes every token of the caller)
//   - POST /auth/confirm   (one-time confirmation token)
//   - GET  /auth/me        (current session)
//
// Tokens are returned in the body and, when a cookie name is configured,
// also set as an HttpOnly cookie.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-forum-backend/internal/domain"
	"github.com/tbourn/go-forum-backend/internal/services"
)

//
// DTOs
//

// SignUpRequest registers an account and its public profile.
type SignUpRequest struct {
	Email       string  `json:"email" binding:"required" example:"ada@example.com"`
	Password    string  `json:"password" binding:"required" example:"correct horse battery"`
	Username    string  `json:"username" binding:"required" example:"daemon_user"`
	DisplayName string  `json:"display_name" example:"Daemon User"`
	AvatarURL   *string `json:"avatar_url" example:"https://example.com/a.png"`
}

// LoginRequest carries password credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"ada@example.com"`
	Password string `json:"password" binding:"required" example:"correct horse battery"`
}

// ConfirmRequest carries a one-time confirmation token.
type ConfirmRequest struct {
	Token string `json:"token" binding:"required"`
}

// SessionResponse is the caller's identity, plus a token after sign-in.
type SessionResponse struct {
	Session *domain.Session `json:"session"`
	Token   string          `json:"token,omitempty"`
}

// SignUpResponse is returned by sign-up. When confirmation is required no
// token is issued and ConfirmToken must be presented to /auth/confirm.
type SignUpResponse struct {
	Session              *domain.Session `json:"session"`
	Token                string          `json:"token,omitempty"`
	ConfirmationRequired bool            `json:"confirmation_required"`
	ConfirmToken         string          `json:"confirm_token,omitempty"`
}

//
// Helpers
//

func (h *Handlers) setSessionCookie(c *gin.Context, token string) {
	if h.opts.CookieName == "" || token == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, token, int(h.opts.SessionTTL.Seconds()), "/", "", h.opts.CookieSecure, true)
}

func (h *Handlers) clearSessionCookie(c *gin.Context) {
	if h.opts.CookieName == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, "", -1, "/", "", h.opts.CookieSecure, true)
}

//
// Handlers
//

// SignUp godoc
// @ID          signUp
// @Summary     Create an account
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.SignUpRequest  true  "Registration payload"
// @Success     201  {object}  handlers.SignUpResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid email, password or username"
// @Failure     409  {object}  handlers.ErrorResponse  "Email or username taken"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/signup [post]
func (h *Handlers) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email, password and username are required")
		return
	}
	res, err := h.auth.SignUp(c.Request.Context(), req.Email, req.Password, services.SignUpMeta{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	h.setSessionCookie(c, res.Token)
	ok(c, http.StatusCreated, SignUpResponse{
		Session:              res.Session,
		Token:                res.Token,
		ConfirmationRequired: res.ConfirmationRequired,
		ConfirmToken:         res.ConfirmToken,
	})
}

// Login godoc
// @ID          login
// @Summary     Sign in with email and password
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
// @Success     200  {object}  handlers.SessionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     403  {object}  handlers.ErrorResponse  "Email not confirmed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password are required")
		return
	}
	sess, tok, err := h.auth.SignInWithPassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	h.setSessionCookie(c, tok)
	ok(c, http.StatusOK, SessionResponse{Session: sess, Token: tok})
}

// Logout godoc
// @ID          logout
// @Summary     Sign out everywhere
// @Description Revokes every token issued to the caller and clears the cookie.
// @Tags        Auth
// @Security    BearerAuth
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Sign in required"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.auth.SignOut(c.Request.Context(), session(c)); err != nil {
		failErr(c, err)
		return
	}
	h.clearSessionCookie(c)
	noContent(c)
}

// Confirm godoc
// @ID          confirmEmail
// @Summary     Confirm an email address
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.ConfirmRequest  true  "Confirmation token"
// @Success     200  {object}  handlers.SessionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/confirm [post]
func (h *Handlers) Confirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "token is required")
		return
	}
	sess, err := h.auth.Confirm(c.Request.Context(), req.Token)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SessionResponse{Session: sess})
}

// Me godoc
// @ID          me
// @Summary     Current session
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.SessionResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Sign in required"
// @Router      /auth/me [get]
func (h *Handlers) Me(c *gin.Context) {
	sess := session(c)
	if !sess.Authenticated() {
		failErr(c, services.ErrSignInRequired)
		return
	}
	ok(c, http.StatusOK, SessionResponse{Session: sess})
}
