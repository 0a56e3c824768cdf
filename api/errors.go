package api

import (
	"fmt"
	"net/http"

	errs "github.com/jrsteele09/go-dochub-client/internal/errors"
)

// Envelope codes returned by the DocHub service.
const (
	CodeSuccess       = 0
	CodeInvalidParams = 10001
	CodeUnauthorized  = 10002
	CodeForbidden     = 10003
	CodeNotFound      = 10004
	CodeServerError   = 10005
	CodeDuplicate     = 10006
	CodeDatabaseError = 10007
	CodeUserDisabled  = 10102
)

// Fixed messages shown for status-level failures.
const (
	MsgUnauthorized = "session expired, please log in again"
	MsgForbidden    = "access forbidden"
	MsgNotFound     = "requested resource not found"
	MsgServer       = "internal server error"
	MsgFailed       = "request failed"
	MsgNetwork      = "network error, check your connection"
)

// Error is a failed API call. Status is zero when the request never got a
// response; Code is zero when the body carried no envelope.
type Error struct {
	Method  string
	Path    string
	Status  int
	Code    int
	Message string

	kind     error // one of the sentinels in internal/errors, or nil
	cause    error
	notified bool
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Status == 0:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.cause)
	case e.Message != "":
		return fmt.Sprintf("%s %s: status %d code %d: %s", e.Method, e.Path, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d code %d", e.Method, e.Path, e.Status, e.Code)
}

func (e *Error) Unwrap() []error {
	var out []error
	if e.kind != nil {
		out = append(out, e.kind)
	}
	if e.cause != nil {
		out = append(out, e.cause)
	}
	return out
}

// ServerMessage is the message the service put in the envelope.
func (e *Error) ServerMessage() string {
	return e.Message
}

// Notified reports whether the client already showed a notice for this failure.
func (e *Error) Notified() bool {
	return e.notified
}

// UserMessage is the notice text for a status-level failure.
func (e *Error) UserMessage() string {
	switch e.Status {
	case 0:
		return MsgNetwork
	case http.StatusUnauthorized:
		return MsgUnauthorized
	case http.StatusForbidden:
		return MsgForbidden
	case http.StatusNotFound:
		return MsgNotFound
	case http.StatusInternalServerError:
		return MsgServer
	}
	if e.Message != "" {
		return e.Message
	}
	return MsgFailed
}

// withKind returns a copy of e classified as kind.
func (e *Error) withKind(kind error) *Error {
	c := *e
	c.kind = kind
	return &c
}

func (e *Error) transport() bool {
	return e.Status == 0
}

// classify maps an envelope code, then the HTTP status, onto a sentinel.
func classify(status, code int) error {
	switch code {
	case CodeInvalidParams:
		return errs.ErrInvalidParams
	case CodeUnauthorized:
		return errs.ErrUnauthorized
	case CodeForbidden:
		return errs.ErrForbidden
	case CodeNotFound:
		return errs.ErrNotFound
	case CodeServerError, CodeDatabaseError:
		return errs.ErrServer
	case CodeDuplicate:
		return errs.ErrDuplicate
	case CodeUserDisabled:
		return errs.ErrAccountDisabled
	}

	switch {
	case status == http.StatusBadRequest:
		return errs.ErrInvalidParams
	case status == http.StatusUnauthorized:
		return errs.ErrUnauthorized
	case status == http.StatusForbidden:
		return errs.ErrForbidden
	case status == http.StatusNotFound:
		return errs.ErrNotFound
	case status == http.StatusConflict:
		return errs.ErrDuplicate
	case status >= http.StatusInternalServerError:
		return errs.ErrServer
	}
	return nil
}
