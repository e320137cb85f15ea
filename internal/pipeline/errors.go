package pipeline

import (
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindBackend      Kind = "backend"
)

// Error is a failure that ends processing of a submission. Msg is the text
// returned to the caller.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind onto an HTTP status. Unknown work sites are a client
// error, not a 404.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindNotFound:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func backend(err error) *Error {
	return &Error{Kind: KindBackend, Msg: err.Error(), Err: err}
}
