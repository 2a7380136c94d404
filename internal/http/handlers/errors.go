// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes the symbolic error codes returned in every error
// envelope and the mapping from service error kinds to HTTP statuses.
// Clients branch on the code; the message is for people.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "forbidden",
//	  "message": "thread is locked"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-forum-backend/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeInternal     = "internal_error"

	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// statusOf maps a service error kind to its HTTP status and code.
func statusOf(k services.Kind) (int, string) {
	switch k {
	case services.KindValidation:
		return http.StatusBadRequest, ErrCodeBadRequest
	case services.KindUnauthenticated:
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case services.KindPermission:
		return http.StatusForbidden, ErrCodeForbidden
	case services.KindNotFound:
		return http.StatusNotFound, ErrCodeNotFound
	case services.KindConflict:
		return http.StatusConflict, ErrCodeConflict
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// failErr writes the envelope for a service error. Service-kind failures
// get a generic message; the cause is logged.
func failErr(c *gin.Context, err error) {
	status, code := statusOf(services.KindOf(err))
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	fail(c, status, code, services.Message(err))
}
