package domain

import (
	"errors"
	"fmt"
)

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
	}
	if e.Resource != "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return "not found"
}

// ValidationError reports malformed or missing input. Raised synchronously
// to the caller and never retried.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	if e.Field != "" && e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

// ConflictError reports a duplicate-identity or state conflict detected
// before any write occurs.
type ConflictError struct {
	Resource string
	Msg      string
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

// OTPReason is the typed failure reason returned by OTP validation.
type OTPReason string

const (
	OTPInvalidOrExpired OTPReason = "invalid-or-expired"
	OTPAlreadyUsed      OTPReason = "already-used"
	OTPExpired          OTPReason = "expired"
	OTPTooManyAttempts  OTPReason = "too-many-attempts"
)

// OTPError carries an OTPReason to the caller.
type OTPError struct {
	Reason OTPReason
}

func (e OTPError) Error() string { return string(e.Reason) }

// OTPReasonOf extracts the reason from an OTP validation error, or "" when
// err is not an OTPError.
func OTPReasonOf(err error) OTPReason {
	var target OTPError
	if errors.As(err, &target) {
		return target.Reason
	}
	return ""
}
