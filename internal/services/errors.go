package services

import (
	"errors"
	"fmt"
)

// Sentinel errors handlers map to HTTP status codes.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrForbidden        = errors.New("operation not permitted")
	ErrConflict         = errors.New("resource already exists")
)

// Domain-specific not-found sentinels, all matching ErrNotFound via errors.Is.
var (
	ErrPracticeNotFound      = fmt.Errorf("practice %w", ErrNotFound)
	ErrUserNotFound          = fmt.Errorf("user %w", ErrNotFound)
	ErrCourseNotFound        = fmt.Errorf("course %w", ErrNotFound)
	ErrModuleNotFound        = fmt.Errorf("module %w", ErrNotFound)
	ErrLessonNotFound        = fmt.Errorf("lesson %w", ErrNotFound)
	ErrQuestionnaireNotFound = fmt.Errorf("questionnaire %w", ErrNotFound)
	ErrQuestionNotFound      = fmt.Errorf("question %w", ErrNotFound)
	ErrDocNotFound           = fmt.Errorf("knowledge doc %w", ErrNotFound)
)

// ValidationError is a single-field business validation failure.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

func NewValidationError(field, message string, value interface{}) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// PermissionError records who tried what on which resource.
type PermissionError struct {
	UserID     uint   `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %d cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Unwrap() error { return ErrForbidden }

func NewPermissionError(userID, resourceID uint, resource, action, reason string) error {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// ConflictError carries the duplicate that was rejected.
type ConflictError struct {
	Resource string `json:"resource"`
	Detail   string `json:"detail"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Resource, e.Detail)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

func NewConflictError(resource, detail string) error {
	return &ConflictError{Resource: resource, Detail: detail}
}
