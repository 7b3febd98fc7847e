package models

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind classifies every error the comment subsystem surfaces
type ErrorKind string

const (
	KindUnauthenticated ErrorKind = "UNAUTHENTICATED"
	KindEmptyContent    ErrorKind = "EMPTY_CONTENT"
	KindDepthExceeded   ErrorKind = "DEPTH_EXCEEDED"
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindBackendRejected ErrorKind = "BACKEND_REJECTED"
	KindNetworkFailure  ErrorKind = "NETWORK_FAILURE"

	// Local-only kinds; they never reach the network layer
	KindPending         ErrorKind = "PENDING"
	KindInFlight        ErrorKind = "IN_FLIGHT"
	KindContentTooShort ErrorKind = "CONTENT_TOO_SHORT"
	KindContentTooLong  ErrorKind = "CONTENT_TOO_LONG"
	KindInvalidReaction ErrorKind = "INVALID_REACTION"
)

// AppError is the typed error returned across component boundaries
type AppError struct {
	Kind       ErrorKind `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code,omitempty"`
	Err        error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError of the same kind, so errors.Is(err, ErrNotFound)
// holds for every NotFound regardless of message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// UserMessage is the text shown next to the affected comment
func (e *AppError) UserMessage() string {
	return e.Message
}

// ToAPIResponse converts to the wire envelope
func (e *AppError) ToAPIResponse() *APIResponse {
	return &APIResponse{
		Success:   false,
		Error:     e.Message,
		Code:      string(e.Kind),
		Timestamp: time.Now(),
	}
}

// HTTPStatus maps the kind to a response status for the development backend
func (e *AppError) HTTPStatus() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindEmptyContent, KindDepthExceeded, KindContentTooShort, KindContentTooLong, KindInvalidReaction:
		return http.StatusBadRequest
	case KindBackendRejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Sentinels, for errors.Is matching and for local validation failures
var (
	ErrUnauthenticated = &AppError{Kind: KindUnauthenticated, Message: "sign in to continue"}
	ErrEmptyContent    = &AppError{Kind: KindEmptyContent, Message: "comment cannot be empty"}
	ErrDepthExceeded   = &AppError{Kind: KindDepthExceeded, Message: "replies are not allowed this deep"}
	ErrNotFound        = &AppError{Kind: KindNotFound, Message: "comment no longer exists"}
	ErrBackendRejected = &AppError{Kind: KindBackendRejected, Message: "the server rejected the request"}
	ErrNetworkFailure  = &AppError{Kind: KindNetworkFailure, Message: "could not reach the server"}
	ErrPending         = &AppError{Kind: KindPending, Message: "comment is still being saved"}
	ErrInFlight        = &AppError{Kind: KindInFlight, Message: "a request is already in progress"}
	ErrContentTooShort = &AppError{Kind: KindContentTooShort, Message: "comment is too short"}
	ErrContentTooLong  = &AppError{Kind: KindContentTooLong, Message: "comment is too long"}
	ErrInvalidReaction = &AppError{Kind: KindInvalidReaction, Message: "reaction must be like, dislike or none"}
)

// NewError builds an AppError of the given kind
func NewError(kind ErrorKind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// NewBackendRejected wraps an explicit success:false or non-2xx answer
func NewBackendRejected(message string, status int) *AppError {
	if message == "" {
		message = ErrBackendRejected.Message
	}
	return &AppError{Kind: KindBackendRejected, Message: message, StatusCode: status}
}

// NewNetworkFailure wraps a transport, timeout or decode error
func NewNetworkFailure(err error) *AppError {
	return &AppError{Kind: KindNetworkFailure, Message: ErrNetworkFailure.Message, Err: err}
}

// KindOf extracts the kind of err; unknown errors are network failures
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindNetworkFailure
}

// Classify returns err as an *AppError, wrapping foreign errors as network
// failures.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Kind: KindNetworkFailure, Message: "the server took too long to answer", Err: err}
	}
	return NewNetworkFailure(err)
}
