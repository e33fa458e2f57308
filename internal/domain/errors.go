package domain

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrNotFound  = errors.New("not found")
	ErrOffline   = errors.New("offline")
	ErrNoProject = errors.New("no project selected")
	ErrForbidden = errors.New("not permitted for this role")
)

// ValidationError is raised locally before any network call is made
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// GatewayError represents a non-2xx answer from the task API
type GatewayError struct {
	Op     string // Operation: "list", "create", "update-status", etc.
	Status int    // HTTP status code
	Detail string // Human-readable detail extracted from the body
	Err    error  // Optional underlying error
}

func (e *GatewayError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api %s (%d): %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("api %s failed with status %d", e.Op, e.Status)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Is maps well-known statuses onto the sentinels
func (e *GatewayError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == 404
	case ErrForbidden:
		return e.Status == 401 || e.Status == 403
	}
	return false
}

// TransportError means the API could not be reached at all
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api %s unreachable: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("api %s unreachable", e.Op)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrOffline, e.Err}
}

// ErrorKind classifies an error for presentation
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindValidation
	KindRejected
	KindTransport
	KindInternal
)

func (k ErrorKind) String() string {
	return [...]string{"none", "validation", "rejected", "transport", "internal"}[k]
}

// Classify returns the kind of err. Cancellation is not an error and
// classifies as KindNone.
func Classify(err error) ErrorKind {
	if err == nil || IsCanceled(err) {
		return KindNone
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	var ge *GatewayError
	if errors.As(err, &ge) {
		return KindRejected
	}
	if errors.Is(err, ErrOffline) {
		return KindTransport
	}
	return KindInternal
}

// IsCanceled reports whether err stems from a superseded or aborted request
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// UserMessage returns a readable message for err: the validation message,
// the server-supplied detail, or a generic fallback.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		if ve.Message != "" {
			return ve.Message
		}
		return "invalid input"
	}
	var ge *GatewayError
	if errors.As(err, &ge) {
		if ge.Detail != "" {
			return ge.Detail
		}
		return fmt.Sprintf("The server rejected the request (%d)", ge.Status)
	}
	if errors.Is(err, ErrOffline) {
		return "Cannot reach the server. Check your connection."
	}
	if errors.Is(err, ErrNoProject) {
		return "Select a project first"
	}
	return "Something went wrong. Please try again."
}
