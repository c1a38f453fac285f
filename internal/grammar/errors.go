package grammar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrFrozen is returned when a modification is attempted on a Grammar that
	// has been frozen for matching.
	ErrFrozen = errors.New("grammar is frozen and cannot be modified")

	// ErrLanguageTooLarge is returned by Language when the rule produces more
	// strings than the requested limit.
	ErrLanguageTooLarge = errors.New("language of rule exceeds the limit")
)

// ParseError is returned when a line of rule definition text cannot be
// understood.
type ParseError struct {
	// Line is the 1-based line number of the offending line within the input
	// given to Parse. It is 0 if the error came from parsing a single
	// definition.
	Line int

	// Text is the offending line or definition.
	Text string

	// Reason describes what is wrong with Text.
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %q: %s", e.Line, e.Text, e.Reason)
	}
	return fmt.Sprintf("%q: %s", e.Text, e.Reason)
}

// UnknownRuleError is returned when a rule ID is referenced that is not
// defined in the grammar.
type UnknownRuleError struct {
	// ID is the ID of the undefined rule.
	ID int

	// Referrer is the ID of the rule that refers to ID. It is -1 when the
	// reference did not come from another rule, such as a lookup of a starting
	// rule.
	Referrer int
}

func (e *UnknownRuleError) Error() string {
	if e.Referrer >= 0 {
		return fmt.Sprintf("rule %d refers to undefined rule %d", e.Referrer, e.ID)
	}
	return fmt.Sprintf("undefined rule %d", e.ID)
}

// CycleError is returned when an operation that requires a finite expansion
// encounters a rule that refers back to itself.
type CycleError struct {
	// Path is the chain of rule IDs that forms the cycle. The first and last
	// elements are the same rule.
	Path []int
}

func (e *CycleError) Error() string {
	ids := make([]string, len(e.Path))
	for i := range e.Path {
		ids[i] = strconv.Itoa(e.Path[i])
	}
	return "rule is self-referential: " + strings.Join(ids, " -> ")
}
