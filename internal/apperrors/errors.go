// Package apperrors defines the error kinds shared by the matching services.
package apperrors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindTransient  Kind = "transient"
	KindInternal   Kind = "internal"
)

type Code string

const (
	CodeDictionaryInvalid  Code = "DICTIONARY_INVALID"
	CodeDictionaryNotFound Code = "DICTIONARY_NOT_FOUND"
	CodeInvalidQuery       Code = "INVALID_QUERY"
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeDocumentNotFound   Code = "DOCUMENT_NOT_FOUND"
	CodeJobNotFound        Code = "JOB_NOT_FOUND"
	CodeEmbeddingFailed    Code = "EMBEDDING_FAILED"
	CodeVectorStoreFailed  Code = "VECTOR_STORE_FAILED"
	CodeCacheUnavailable   Code = "CACHE_UNAVAILABLE"
)

// Error is the structured error returned across service boundaries.
type Error struct {
	Kind      Kind   `json:"kind"`
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`
	Err       error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(code Code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(code Code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Transient wraps err as a retryable failure of an external dependency.
func Transient(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:      KindTransient,
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Retryable: true,
		Err:       err,
	}
}

func Internal(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details string) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

func IsValidation(err error) bool { return IsKind(err, KindValidation) }

func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// IsRetryable reports whether a job or call that failed with err may be attempted again.
// Validation and not-found failures are final; unknown errors are treated as retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case KindValidation, KindNotFound:
			return false
		}
		return appErr.Retryable || appErr.Kind == KindInternal
	}
	return true
}
