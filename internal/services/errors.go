// Package services defines the business logic for categories, threads,
// posts, reactions, profiles and authentication. This file centralizes the
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Every error carries a Kind. Handlers map kinds to HTTP status codes with
// errors.Is against the kind sentinels; specific sentinels (ErrThreadLocked,
// ErrEmptyTitle, ...) match both themselves and their kind.
package services

import "errors"

// Kind classifies a failure for the transport layer.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthenticated
	KindPermission
	KindNotFound
	KindConflict
	KindService
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "authentication"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindService:
		return "service"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by services.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg != "" {
		return e.Msg + ": " + e.Err.Error()
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind when target carries no message (the kind
// sentinels), or by identity otherwise.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Msg == "" && t.Err == nil {
		return e.Kind == t.Kind
	}
	return e == t
}

// Kind sentinels.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrPermission      = &Error{Kind: KindPermission}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrService         = &Error{Kind: KindService}
)

func newErr(k Kind, msg string) *Error { return &Error{Kind: k, Msg: msg} }

// Validation errors.
var (
	ErrEmptyTitle         = newErr(KindValidation, "title is required")
	ErrTitleTooLong       = newErr(KindValidation, "title is too long")
	ErrEmptyContent       = newErr(KindValidation, "content is required")
	ErrContentTooLong     = newErr(KindValidation, "content is too long")
	ErrReplyTargetInvalid = newErr(KindValidation, "reply target is not a post in this thread")
	ErrInvalidEmoji       = newErr(KindValidation, "unknown reaction")
	ErrInvalidUsername    = newErr(KindValidation, "username must be 3-20 characters: letters, numbers, _ or -")
	ErrInvalidEmail       = newErr(KindValidation, "email address is invalid")
	ErrWeakPassword       = newErr(KindValidation, "password must be at least 8 characters")
	ErrBioTooLong         = newErr(KindValidation, "bio is too long")
	ErrInvalidToken       = newErr(KindValidation, "confirmation token is invalid")
)

// Authentication and permission errors.
var (
	ErrSignInRequired     = newErr(KindUnauthenticated, "you must be signed in")
	ErrInvalidCredentials = newErr(KindUnauthenticated, "invalid email or password")
	ErrSessionExpired     = newErr(KindUnauthenticated, "session expired")
	ErrEmailNotConfirmed  = newErr(KindPermission, "email address not confirmed")
	ErrThreadLocked       = newErr(KindPermission, "thread is locked")
	ErrForbidden          = newErr(KindPermission, "insufficient role")
)

// Lookup and conflict errors.
var (
	ErrCategoryNotFound = newErr(KindNotFound, "category not found")
	ErrThreadNotFound   = newErr(KindNotFound, "thread not found")
	ErrPostNotFound     = newErr(KindNotFound, "post not found")
	ErrProfileNotFound  = newErr(KindNotFound, "profile not found")
	ErrUsernameTaken    = newErr(KindConflict, "username is already taken")
	ErrEmailTaken       = newErr(KindConflict, "email is already registered")
)

// serviceErr wraps an infrastructure failure as KindService. The driver
// error stays reachable through errors.Unwrap.
func serviceErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Kind: KindService, Msg: op, Err: err}
}

// KindOf returns the kind of err, or KindService for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindService
}

// Message returns the short human-readable text of err for clients. Service
// failures never leak driver detail.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) && se.Kind != KindService && se.Msg != "" {
		return se.Msg
	}
	return "internal server error"
}
