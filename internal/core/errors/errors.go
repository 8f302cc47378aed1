package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type ErrorCode string

const (
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeConflict        ErrorCode = "CONFLICT"
	CodeCycle           ErrorCode = "CYCLE"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}

	// origin is the error this one was copied from by AddContext.
	origin *DomainError
}

const (
	CtxPath          = "path"
	CtxOperation     = "operation"
	CtxProject       = "project"
	CtxSourceSet     = "source_set"
	CtxConfiguration = "configuration"
	CtxCycle         = "cycle"
)

// WithContext sets a context value on e in place. Use AddContext on errors
// that may already be shared.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	var msg string
	switch {
	case e.Message == "" && e.Err != nil:
		// Context layered over an already coded error.
		msg = e.Err.Error()
	case e.Err != nil:
		msg = fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	default:
		msg = fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		msg += " {" + strings.Join(parts, " ") + "}"
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Newf(code ErrorCode, format string, args ...interface{}) error {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext returns err with a key/value pair attached. err itself is
// never modified: the same error value may be shared by concurrent callers.
// Plain errors are wrapped as CodeInternal so the context is not lost.
func AddContext(err error, key string, value interface{}) error {
	if err == nil {
		return nil
	}
	if de, ok := err.(*DomainError); ok {
		return de.clone().WithContext(key, value)
	}
	var de *DomainError
	if errors.As(err, &de) {
		return &DomainError{
			Code:    de.Code,
			Err:     err,
			Context: map[string]interface{}{key: value},
		}
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

// Is matches the errors this one was derived from, so errors.Is still finds
// an error after context was added to it.
func (e *DomainError) Is(target error) bool {
	for o := e.origin; o != nil; o = o.origin {
		if o == target {
			return true
		}
	}
	return false
}

func (e *DomainError) clone() *DomainError {
	out := *e
	out.origin = e
	out.Context = make(map[string]interface{}, len(e.Context)+1)
	for k, v := range e.Context {
		out.Context[k] = v
	}
	return &out
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
