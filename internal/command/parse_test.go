package command

import (
	"testing"

	"github.com/dekarrin/rulecheck/internal/rcerrors"
	"github.com/stretchr/testify/assert"
)

func Test_ParseCommand(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expect    Command
		expectErr bool
	}{
		{name: "blank", input: "   ", expect: Command{}},
		{name: "bare message is a check", input: "aaBab", expect: Command{Verb: "CHECK", Rule: NoRule, Text: "aaBab"}},
		{name: "explicit check", input: ":check  ab ba", expect: Command{Verb: "CHECK", Rule: NoRule, Text: "ab ba"}},
		{name: "check without message", input: ":CHECK", expectErr: true},
		{name: "ends", input: ":ends 8 aaab", expect: Command{Verb: "ENDS", Rule: 8, Text: "aaab"}},
		{name: "ends with empty message", input: ":ends 8", expect: Command{Verb: "ENDS", Rule: 8}},
		{name: "rule", input: ":RULE 42", expect: Command{Verb: "RULE", Rule: 42}},
		{name: "rule alias", input: ":r 42", expect: Command{Verb: "RULE", Rule: 42}},
		{name: "rule without ID", input: ":rule", expectErr: true},
		{name: "rule with bad ID", input: ":rule x", expectErr: true},
		{name: "rule with negative ID", input: ":rule -1", expectErr: true},
		{name: "rule with extra", input: ":rule 1 2", expectErr: true},
		{name: "rules", input: ":rules", expect: Command{Verb: "RULES", Rule: NoRule}},
		{name: "rules with extra", input: ":rules 1", expectErr: true},
		{name: "loops", input: ":cycles", expect: Command{Verb: "LOOPS", Rule: NoRule}},
		{name: "expand", input: ":x 0", expect: Command{Verb: "EXPAND", Rule: 0}},
		{name: "define", input: ":define 8: 42 | 42 8", expect: Command{Verb: "DEFINE", Rule: 8, Text: "42 | 42 8"}},
		{name: "define literal keeps case", input: `:def 3:"Q"`, expect: Command{Verb: "DEFINE", Rule: 3, Text: `"Q"`}},
		{name: "define without colon", input: ":define 8 42", expectErr: true},
		{name: "define without definition", input: ":define 8:", expectErr: true},
		{name: "start", input: ":start 11", expect: Command{Verb: "START", Rule: 11}},
		{name: "help", input: ":?", expect: Command{Verb: "HELP", Rule: NoRule}},
		{name: "help topic", input: ":help :x", expect: Command{Verb: "HELP", Rule: NoRule, Text: "EXPAND"}},
		{name: "quit", input: ":q", expect: Command{Verb: "QUIT", Rule: NoRule}},
		{name: "quit with extra", input: ":quit now", expectErr: true},
		{name: "prefix alone", input: ":", expectErr: true},
		{name: "unknown verb", input: ":frobnicate", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := ParseCommand(tc.input)

			if tc.expectErr {
				if assert.Error(err) {
					assert.NotEqual(err.Error(), rcerrors.HumanMessage(err), "error should have a separate human message")
				}
				return
			}
			assert.NoError(err)
			assert.Equal(tc.expect, actual)
		})
	}
}
