package models

import (
	"errors"
	"fmt"
)

// Error codes returned by the integrity engine.
const (
	CodeInvalidAssociation  = "INVALID_ASSOCIATION"
	CodeTargetNotFound      = "TARGET_NOT_FOUND"
	CodeNotFound            = "NOT_FOUND"
	CodeDuplicateReaction   = "DUPLICATE_REACTION"
	CodeDuplicateFavorite   = "DUPLICATE_FAVORITE"
	CodeEntityDeleted       = "ENTITY_DELETED"
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"
	CodeValidation          = "VALIDATION_ERROR"
	CodeDuplicateUser       = "DUPLICATE_USER"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeInternal            = "INTERNAL_ERROR"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError carrying the same code, so the
// sentinels below can be matched with errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons. Never return these directly; use the
// constructors so callers get a descriptive message.
var (
	ErrInvalidAssociation  = &AppError{Code: CodeInvalidAssociation, Message: "invalid association"}
	ErrTargetNotFound      = &AppError{Code: CodeTargetNotFound, Message: "target not found"}
	ErrNotFound            = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrDuplicateReaction   = &AppError{Code: CodeDuplicateReaction, Message: "duplicate reaction"}
	ErrDuplicateFavorite   = &AppError{Code: CodeDuplicateFavorite, Message: "duplicate favorite"}
	ErrEntityDeleted       = &AppError{Code: CodeEntityDeleted, Message: "entity deleted"}
	ErrConstraintViolation = &AppError{Code: CodeConstraintViolation, Message: "constraint violation"}
	ErrValidation          = &AppError{Code: CodeValidation, Message: "validation failed"}
	ErrDuplicateUser       = &AppError{Code: CodeDuplicateUser, Message: "duplicate user"}
	ErrInvalidTransition   = &AppError{Code: CodeInvalidTransition, Message: "invalid status transition"}
	ErrInternal            = &AppError{Code: CodeInternal, Message: "internal error"}
)

// Predefined error constructors
func NewInvalidAssociationError(rule string) *AppError {
	return &AppError{
		Code:    CodeInvalidAssociation,
		Message: rule,
	}
}

func NewTargetNotFoundError(target Target) *AppError {
	return &AppError{
		Code:    CodeTargetNotFound,
		Message: fmt.Sprintf("%s with ID %s not found", target.Kind(), target.ID()),
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewDuplicateReactionError(userID string, target Target) *AppError {
	return &AppError{
		Code:    CodeDuplicateReaction,
		Message: fmt.Sprintf("user %s already reacted to %s %s", userID, target.Kind(), target.ID()),
	}
}

func NewDuplicateFavoriteError(userID, postID string) *AppError {
	return &AppError{
		Code:    CodeDuplicateFavorite,
		Message: fmt.Sprintf("user %s already saved post %s", userID, postID),
	}
}

func NewEntityDeletedError(kind EntityKind, id string) *AppError {
	return &AppError{
		Code:    CodeEntityDeleted,
		Message: fmt.Sprintf("%s %s is deleted", kind, id),
	}
}

func NewConstraintViolationError(err error) *AppError {
	return &AppError{
		Code:    CodeConstraintViolation,
		Message: "store rejected write",
		Err:     err,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewDuplicateUserError(field string) *AppError {
	return &AppError{
		Code:    CodeDuplicateUser,
		Message: fmt.Sprintf("%s is already registered", field),
	}
}

func NewInvalidTransitionError(from, to string) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot move from %s to %s", from, to),
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// CodeOf returns the AppError code carried by err, or CodeInternal when err
// is not an AppError.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
