package policy

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrQuotaExceeded       = errors.New("quota exceeded")
	ErrSubscriptionExpired = errors.New("subscription expired")
	ErrAlreadyCompleted    = errors.New("task already completed")
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrUnauthenticated     = errors.New("unauthenticated")
)

// Error carries one failure kind plus the context a caller needs to build a
// user-facing message. Kind is always one of the sentinels above.
type Error struct {
	Kind error
	Msg  string

	// Field is set for validation failures. Duplicate marks a unique
	// constraint hit on Field.
	Field     string
	Duplicate bool

	// Resource and Limit are set for quota failures.
	Resource string
	Limit    int

	ExpiresAt *time.Time

	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Kind.Error()

	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}

	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Transient reports whether the caller may retry the request.
func Transient(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

func Validation(field, format string, args ...any) error {
	return &Error{Kind: ErrValidation, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func Duplicate(field string) error {
	return &Error{Kind: ErrValidation, Field: field, Duplicate: true, Msg: field + " already registered"}
}

func NotFound(what string) error {
	return &Error{Kind: ErrNotFound, Msg: what + " not found"}
}

func Forbidden(format string, args ...any) error {
	return &Error{Kind: ErrForbidden, Msg: fmt.Sprintf(format, args...)}
}

func QuotaExceeded(resource string, limit int) error {
	return &Error{
		Kind:     ErrQuotaExceeded,
		Resource: resource,
		Limit:    limit,
		Msg:      fmt.Sprintf("%s limit of %d reached", resource, limit),
	}
}

func SubscriptionExpired(expiresAt *time.Time) error {
	return &Error{
		Kind:      ErrSubscriptionExpired,
		ExpiresAt: expiresAt,
		Msg:       "contact your administrator to renew",
	}
}

func AlreadyCompleted() error {
	return &Error{Kind: ErrAlreadyCompleted}
}

// InvalidCredentials never says which half of the pair was wrong.
func InvalidCredentials() error {
	return &Error{Kind: ErrUnauthenticated, Msg: "invalid credentials"}
}

func Unavailable(err error) error {
	return &Error{Kind: ErrStorageUnavailable, Err: err}
}

// As extracts the structured error, if any.
func As(err error) (*Error, bool) {
	var perr *Error

	if errors.As(err, &perr) {
		return perr, true
	}

	return nil, false
}
