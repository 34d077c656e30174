package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternalServer = errors.New("internal server error")
)

// Auth errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrBadCredential      = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrAccountLocked      = errors.New("account is locked")
	ErrInvalidRole        = errors.New("invalid role")
	ErrNoRole             = errors.New("user has no assigned role")
)

// ErrAttemptsExceeded is the messaging sub-case of ErrAccountLocked reported
// when the lock was caused by exhausting the failed-attempt budget.
// errors.Is(err, ErrAccountLocked) holds for it as well.
var ErrAttemptsExceeded = fmt.Errorf("%w: too many failed login attempts", ErrAccountLocked)

// Conflict errors
var (
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")
)

// Token errors
var (
	ErrTokenMalformed  = errors.New("token is malformed")
	ErrTokenExpired    = errors.New("token has expired")
	ErrTokenSignature  = errors.New("token signature is invalid")
	ErrSubjectMismatch = errors.New("token subject mismatch")
)

// User management errors
var (
	ErrOldPasswordWrong = errors.New("old password is incorrect")
	ErrLastRole         = errors.New("cannot remove the last role from a user")
)
