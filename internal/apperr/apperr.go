// Package apperr defines the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"strings"
)

// Kind classifies an error for transport mapping
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// Error is a classified application error
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Messages used by the authorization gates
const (
	MsgLoginRequired  = "you are not logged in, please login to get access"
	MsgRoleForbidden  = "you do not have permission to perform this action"
	MsgInternal       = "something went wrong"
	MsgBadCredentials = "incorrect email or password"
)

func Unauthenticated(msg string) *Error {
	if msg == "" {
		msg = MsgLoginRequired
	}
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// OwnershipForbidden builds the ownership gate message for a resource name
func OwnershipForbidden(resource string) *Error {
	return &Error{Kind: KindForbidden, Message: "you can only access your own " + resource}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Validation joins field-level messages into one human-readable message
func Validation(details ...string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "invalid input data. " + strings.Join(details, ". "),
		Details: details,
	}
}

// Internal wraps an unexpected failure; the message shown to clients stays generic
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: MsgInternal, Err: err}
}

// KindOf returns the kind of err, KindInternal for unclassified errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
