// Package herr provides a small parent-chaining error type used at the
// boundaries between components (config load, listener bind, CGI start).
// It is a trimmed descendant of nabbar-golib's errors package: code,
// message and parent chain survive; the trace/pattern/codec machinery
// does not, since nothing here needs to serialize an error tree.
package herr

import (
	"fmt"
	"strings"
)

// Code identifies the class of a boundary failure.
type Code uint16

const (
	CodeUnknown Code = iota
	CodeConfigParse
	CodeConfigValidate
	CodeListenerBind
	CodeCgiStart
	CodeCgiResponse
)

func (c Code) String() string {
	switch c {
	case CodeConfigParse:
		return "config-parse"
	case CodeConfigValidate:
		return "config-validate"
	case CodeListenerBind:
		return "listener-bind"
	case CodeCgiStart:
		return "cgi-start"
	case CodeCgiResponse:
		return "cgi-response"
	default:
		return "unknown"
	}
}

// Error is a boundary-crossing error: a code, a message, and the parent
// errors that caused it. Unlike the teacher's errors.Error it carries no
// trace/pattern formatting — those concerns belong to the logger, not the
// error value.
type Error struct {
	code    Code
	message string
	parents []error
}

// New builds an Error with the given code and message, optionally
// wrapping one or more parent errors.
func New(code Code, message string, parents ...error) *Error {
	return &Error{code: code, message: message, parents: parents}
}

func (e *Error) Code() Code { return e.code }

func (e *Error) Error() string {
	if len(e.parents) == 0 {
		return fmt.Sprintf("%s: %s", e.code, e.message)
	}
	parts := make([]string, 0, len(e.parents))
	for _, p := range e.parents {
		parts = append(parts, p.Error())
	}
	return fmt.Sprintf("%s: %s (%s)", e.code, e.message, strings.Join(parts, "; "))
}

// Unwrap exposes the parent chain to errors.Is/errors.As.
func (e *Error) Unwrap() []error { return e.parents }

// HasCode reports whether e or any parent in its chain carries code.
func (e *Error) HasCode(code Code) bool {
	if e.code == code {
		return true
	}
	for _, p := range e.parents {
		var he *Error
		if as(p, &he) && he.HasCode(code) {
			return true
		}
	}
	return false
}

func as(err error, target **Error) bool {
	he, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = he
	return true
}
