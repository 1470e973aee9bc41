package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed backend call. Classification happens in one
// place (the transport gateway) from status code plus response body shape;
// everything above the gateway switches on the kind, never on raw HTTP codes.
type ErrorKind int

const (
	// ErrKindUnknown covers responses that fit no other bucket.
	ErrKindUnknown ErrorKind = iota
	// ErrKindUnauthorized means the credential is invalid or expired.
	ErrKindUnauthorized
	// ErrKindForbidden means the caller is authenticated but not allowed.
	ErrKindForbidden
	// ErrKindValidation means the request was rejected with field-level reasons.
	ErrKindValidation
	// ErrKindNotFound means the addressed resource does not exist.
	ErrKindNotFound
	// ErrKindNetwork means no response was received at all.
	ErrKindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindUnauthorized:
		return "unauthorized"
	case ErrKindForbidden:
		return "forbidden"
	case ErrKindValidation:
		return "validation"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// FieldError is one field-level rejection reason from a 422 response.
type FieldError struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// APIError is the classified result of a failed backend call.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Fields     []FieldError
	cause      error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind.String()
}

func (e *APIError) Unwrap() error { return e.cause }

// NewAPIError builds a classified error wrapping an underlying cause.
func NewAPIError(kind ErrorKind, statusCode int, message string, cause error) *APIError {
	return &APIError{Kind: kind, StatusCode: statusCode, Message: message, cause: cause}
}

// Client engine errors.
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrMutationPending    = errors.New("a conflicting operation is already in progress")
	ErrLookupNotConfirmed = errors.New("counterparty account not confirmed")
	ErrNoStoredToken      = errors.New("no stored session token")
)

// ErrorKindOf extracts the classification from err, or ErrKindUnknown when err
// carries no APIError in its chain.
func ErrorKindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ErrKindUnknown
}

// IsUnauthorized reports whether err classifies as an invalid credential.
func IsUnauthorized(err error) bool {
	return ErrorKindOf(err) == ErrKindUnauthorized
}

// ValidationFields returns the field-level reasons from err, if any.
func ValidationFields(err error) []FieldError {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind == ErrKindValidation {
		return apiErr.Fields
	}
	return nil
}
