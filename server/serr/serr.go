// Package serr holds the errors shared across the RuleCheck server. Its Error
// type carries a message and any number of causes; errors.Is reports true for
// an Error and any of its causes, so endpoint code picks an HTTP status by
// checking against the sentinel values declared here.
package serr

import "errors"

var (
	ErrNotFound       = errors.New("the requested entity could not be found")
	ErrAlreadyExists  = errors.New("resource with same identifying information already exists")
	ErrDB             = errors.New("an error occured with the DB")
	ErrBadArgument    = errors.New("one or more of the arguments is invalid")
	ErrBodyUnmarshal  = errors.New("malformed data in request")
	ErrInfinite       = errors.New("the rule matches infinitely many messages")
	ErrBadCredentials = errors.New("the supplied password is incorrect")
	ErrAuthDisabled   = errors.New("admin login is not enabled on this server")
)

// Error is an error with a message and zero or more causes. Its Error() text
// is the message followed by the text of the first cause, so put the cause
// that best explains the failure first and the sentinel categories after it.
//
// Create one with New or WrapDB.
type Error struct {
	msg   string
	cause []error
}

// New creates an Error with the given message and causes. msg may be empty,
// in which case the Error reads as its first cause.
func New(msg string, causes ...error) Error {
	err := Error{msg: msg}
	if len(causes) > 0 {
		err.cause = make([]error, len(causes))
		copy(err.cause, causes)
	}
	return err
}

// WrapDB creates an Error caused by err that also matches ErrDB.
func WrapDB(msg string, err error) Error {
	return New(msg, err, ErrDB)
}

func (e Error) Error() string {
	switch {
	case len(e.cause) == 0:
		return e.msg
	case e.msg == "":
		return e.cause[0].Error()
	default:
		return e.msg + ": " + e.cause[0].Error()
	}
}

// Unwrap returns the causes of e, or nil if it has none. Go 1.19 does not
// consult it; errors.Is goes through Error.Is there.
func (e Error) Unwrap() []error {
	if len(e.cause) > 0 {
		return e.cause
	}
	return nil
}

// Is returns whether target is e itself or matches any of e's causes,
// following wrapped errors inside each cause.
func (e Error) Is(target error) bool {
	if other, ok := target.(Error); ok && e.equal(other) {
		return true
	}

	for _, c := range e.cause {
		if errors.Is(c, target) {
			return true
		}
	}
	return false
}

func (e Error) equal(o Error) bool {
	if e.msg != o.msg || len(e.cause) != len(o.cause) {
		return false
	}
	for i := range e.cause {
		if ce, ok := e.cause[i].(Error); ok {
			oe, ok := o.cause[i].(Error)
			if !ok || !ce.equal(oe) {
				return false
			}
			continue
		}
		if e.cause[i] != o.cause[i] {
			return false
		}
	}
	return true
}
