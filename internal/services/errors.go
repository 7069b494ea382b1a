package services

import (
	"errors"
	"fmt"
)

var (
	ErrModuleNotFound       = errors.New("training module not found")
	ErrProgressNotFound     = errors.New("progress record not found")
	ErrAlreadyStarted       = errors.New("module already started")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrCertificateNotFound  = errors.New("certificate not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrStorageUnavailable   = errors.New("object storage is not configured")
	ErrSessionNotFound      = errors.New("session not found")
)

// AuthError is shown to the user as-is
type AuthError struct {
	Reason string
	// Conflict marks sign-up attempts for an existing account
	Conflict bool
}

func (e *AuthError) Error() string {
	return e.Reason
}

func NewAuthError(reason string) *AuthError {
	return &AuthError{Reason: reason}
}

// PermissionError is returned when an authenticated user lacks the role for an action
type PermissionError struct {
	UserID   string
	Resource string
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

func NewPermissionError(userID, resource, action, reason string) *PermissionError {
	return &PermissionError{UserID: userID, Resource: resource, Action: action, Reason: reason}
}

// IsConflictError reports errors caused by existing state
func IsConflictError(err error) bool {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Conflict
	}
	return errors.Is(err, ErrAlreadyStarted)
}

// IsNotFoundError reports any of the service-level not found sentinels
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrModuleNotFound) ||
		errors.Is(err, ErrProgressNotFound) ||
		errors.Is(err, ErrNotificationNotFound) ||
		errors.Is(err, ErrCertificateNotFound) ||
		errors.Is(err, ErrProfileNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}
