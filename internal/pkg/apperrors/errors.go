package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindValidation
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindDependency:
		return "dependency_failure"
	default:
		return "internal"
	}
}

// StatusCode is the stable HTTP status for each kind.
func (k Kind) StatusCode() int {
	switch k {
	case KindNotFound:
		return fiber.StatusNotFound
	case KindConflict:
		return fiber.StatusConflict
	case KindValidation:
		return fiber.StatusBadRequest
	case KindDependency:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// Error is the error type returned by application services.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, apperrors.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrValidation = &Error{Kind: KindValidation}
	ErrDependency = &Error{Kind: KindDependency}
)

func NotFound(op, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Conflict(op, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Validation(op, message string, details map[string]string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message, Details: details}
}

func Dependency(op string, err error, format string, args ...any) *Error {
	return &Error{Kind: KindDependency, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

func Internal(op string, err error, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// Wrap prefixes err with op and context, keeping its kind, details and root cause.
// Errors that are not *Error become Internal.
func Wrap(op string, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	ctx := fmt.Sprintf(format, args...)
	var inner *Error
	if !errors.As(err, &inner) {
		return Internal(op, err, "%s", ctx)
	}
	return &Error{Kind: inner.Kind, Op: op, Message: ctx + ": " + inner.Message, Details: inner.Details, Err: inner.Err}
}

// KindOf returns the kind of the first *Error in the chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage is the message safe to show a caller. Internal errors are masked.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return "Internal Server Error"
	}
	return e.Message
}

// DetailsOf returns validation details, if any.
func DetailsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}
