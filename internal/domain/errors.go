package domain

import "errors"

// Error taxonomy shared by every domain package. Services wrap these with
// context using fmt.Errorf("...: %w", err); handlers match them with errors.Is.
var (
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidState     = errors.New("invalid_state")
	ErrNotFound         = errors.New("not_found")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidFee       = errors.New("fee must not be negative")
	ErrInvalidInspector = errors.New("inspector is not eligible for assignment")
	ErrInvalidActor     = errors.New("actor is not allowed to perform this action")
	ErrValidation       = errors.New("validation error")
)
