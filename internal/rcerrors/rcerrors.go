// Package rcerrors has errors that carry a message meant for the person at the
// console as well as a technical one.
package rcerrors

import "fmt"

// inputError is an error caused by attempting to interpret input. Either the
// input could not be understood or it asks for something that cannot be done
// with the current grammar.
//
// inputError includes a human-readable message to show to an operator as well
// as a typical more technical "error message" style message.
type inputError struct {
	msg   string
	human string
	wrap  error
}

func (e *inputError) Error() string {
	return e.msg
}

// HumanMessage shows the message that should be displayed at the console to
// describe the error.
func (e *inputError) HumanMessage() string {
	return e.human
}

// Unwrap gives the error that the inputError wraps, if it wraps one.
func (e *inputError) Unwrap() error {
	return e.wrap
}

// Input returns a new error that has both the message to show the user and the
// technical description of the error.
func Input(human, technical string) error {
	if technical == "" {
		technical = fmt.Sprintf("input error: %s", human)
	}
	return &inputError{
		msg:   technical,
		human: human,
	}
}

// Inputf returns a new error that has a message to show to the user and an
// automatically generated Error() description. The arguments given are the
// format string and the arguments to the format string.
func Inputf(humanFormat string, a ...interface{}) error {
	return Input(fmt.Sprintf(humanFormat, a...), "")
}

// WrapInput returns a new error that has both the message to show the user and
// the technical description of the error, and that wraps the given error. If
// technical is empty, the wrapped error's message is used.
func WrapInput(e error, human, technical string) error {
	if technical == "" {
		if e != nil {
			technical = e.Error()
		} else {
			technical = fmt.Sprintf("input error: %s", human)
		}
	}
	return &inputError{
		msg:   technical,
		human: human,
		wrap:  e,
	}
}

// WrapInputf returns a new error that has both the message to show the user
// and an automatically generated Error() description, and that wraps the given
// error. The arguments given are the error to wrap, then the format followed by
// its arguments.
func WrapInputf(e error, humanFormat string, a ...interface{}) error {
	return WrapInput(e, fmt.Sprintf(humanFormat, a...), "")
}

// HumanMessage gets the message to display to the console for the given error.
// If it is one of the types defined in rcerrors, the special human message is
// returned. Otherwise, err.Error() is returned.
func HumanMessage(err error) string {
	if inErr, ok := err.(*inputError); ok {
		return inErr.HumanMessage()
	}
	return err.Error()
}
