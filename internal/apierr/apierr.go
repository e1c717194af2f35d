package apierr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindUnauthenticated  Kind = "UNAUTHENTICATED"
	KindInvalidInput     Kind = "INVALID_INPUT"
	KindGenerationFailed Kind = "GENERATION_FAILED"
	KindNotFound         Kind = "NOT_FOUND"
	KindInternal         Kind = "INTERNAL_ERROR"

	// Non-fatal kinds. They are absorbed by the generation loop and never reach a caller.
	KindPagePersistenceFailed Kind = "PAGE_PERSISTENCE_FAILED"
	KindIllustrationFailed    Kind = "ILLUSTRATION_FAILED"
)

var (
	ErrUnauthenticated = New(KindUnauthenticated, "authentication is required", nil)
	ErrNotFound        = New(KindNotFound, "the requested book was not found", nil)
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so errors.Is(err, apierr.ErrNotFound) works for any NOT_FOUND error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func GenerationFailed(err error) *Error {
	return New(KindGenerationFailed, "story generation failed, please try again later", err)
}

func Internal(err error) *Error {
	return New(KindInternal, "an unexpected error occurred", err)
}

func InvalidInput(message string) *Error {
	return New(KindInvalidInput, message, nil)
}

// KindOf classifies err. Anything that is not an *Error is INTERNAL_ERROR.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage is the message safe to show to a user. Wrapped provider detail is never included.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" && e.Kind != KindInternal {
		return e.Message
	}
	return "an unexpected error occurred"
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindGenerationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
