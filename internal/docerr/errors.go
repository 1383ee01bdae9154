package docerr

import (
	"errors"
	"fmt"
)

// Error is the structured error value returned from every fallible
// operation in the engine. Stages never panic or raise; they return one
// of these (or nil) and the pipeline decides, by Kind, whether to abort.
type Error struct {
	Code       string
	Kind       Kind
	Message    string
	Transient  bool // only meaningful when Kind == KindBackend
	Retryable  bool
	Suggestion string
	Detail     string
	cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is supports errors.Is comparison by Code; two *Error values with the
// same Code are considered equivalent regardless of Message/Detail.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// WithDetail returns a copy of e with Detail set.
func (e *Error) WithDetail(detail string) *Error {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithSuggestion returns a copy of e with Suggestion set.
func (e *Error) WithSuggestion(suggestion string) *Error {
	cp := *e
	cp.Suggestion = suggestion
	return &cp
}

func newError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Kind:    kindFromCode(code),
		Message: message,
		cause:   cause,
	}
}

// New creates an Error of the given code with no wrapped cause.
func New(code, message string) *Error {
	return newError(code, message, nil)
}

// Wrap creates an Error of the given code wrapping an existing error.
func Wrap(code, message string, cause error) *Error {
	return newError(code, message, cause)
}

// Validation builds a KindValidation error (§7: bad input, empty query).
func Validation(message string) *Error {
	return New(CodeInvalidInput, message)
}

// NotFound builds a KindNotFound error (§7: missing document/collection).
func NotFound(message string) *Error {
	return New(CodeDocumentNotFound, message)
}

// Configuration builds a KindConfiguration error.
func Configuration(message string) *Error {
	return New(CodeConfigInvalid, message)
}

// Backend builds a KindBackend error. transient marks whether the call
// site may retry it (§7: transient vs permanent Backend errors).
func Backend(message string, transient bool, cause error) *Error {
	e := newError(CodeVectorStoreFailure, message, cause)
	e.Transient = transient
	e.Retryable = transient
	return e
}

// TransientBackend is a convenience wrapper for the common retryable case.
func TransientBackend(message string, cause error) *Error {
	return Backend(message, true, cause)
}

// Embedding builds a KindEmbedding error (provider failure).
func Embedding(message string, cause error) *Error {
	return Wrap(CodeEmbeddingFailure, message, cause)
}

// Timeout builds a KindTimeout error (stage or overall pipeline deadline).
func Timeout(message string) *Error {
	e := New(CodeStageTimeout, message)
	e.Retryable = true
	return e
}

// Internal builds a KindInternal error (invariant violation).
func Internal(message string) *Error {
	return New(CodeInvariantViolated, message)
}

// IsRetryable reports whether err (or any error it wraps) is a retryable
// docerr.Error.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// IsTransientBackend reports whether err is a transient Backend error —
// the only class §7 allows the call site to retry.
func IsTransientBackend(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindBackend && e.Transient
	}
	return false
}

// KindOf extracts the Kind of err, or KindInternal if err is not a
// *docerr.Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
