package services

import (
	"errors"
	"fmt"

	"github.com/stemhub-africa/stemhub-service/internal/validator"
)

// Sentinel errors mapped to HTTP status codes by the handlers
var (
	ErrAuthenticationFailed   = errors.New("authentication failed")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrInvalidOAuthState      = errors.New("invalid or expired sign-in state")
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailTaken             = errors.New("an account with this email already exists")
	ErrIdentityExists         = errors.New("an identity with this email exists without a platform account")
	ErrRoleChangeRefused      = errors.New("user already exists with a different role; role changes need manual confirmation")
	ErrContentNotFound        = errors.New("content not found")
	ErrContentAlreadyReviewed = errors.New("content has already been reviewed")
	ErrUnknownContentType     = errors.New("unknown content type")
)

type ValidationError = validator.ValidationError
type ValidationErrors = validator.ValidationErrors

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
		Rule:    "business_logic",
	}
}

// PermissionError is returned when the actor may not perform an action
type PermissionError struct {
	UserID     string
	ResourceID string
	Resource   string
	Action     string
	Reason     string
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: cannot %s %s: %s", e.Action, e.Resource, e.Reason)
}

// BusinessRuleError is returned when a well-formed request breaks a domain rule
type BusinessRuleError struct {
	Rule    string
	Message string
}

func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message}
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

func IsValidationError(err error) bool {
	var ves ValidationErrors
	if errors.As(err, &ves) {
		return true
	}
	var ve *ValidationError
	return errors.As(err, &ve)
}
