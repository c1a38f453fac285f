package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/dekarrin/rulecheck/internal/grammar"
	"github.com/dekarrin/rulecheck/internal/match"
	"github.com/stretchr/testify/assert"
)

const abGrammar = `0: 4 1 5
1: 2 3 | 3 2
2: 4 4 | 5 5
3: 4 5 | 5 4
4: "a"
5: "b"`

func Test_Check(t *testing.T) {
	messages := []string{"ababbb", "bababa", "abbbab", "aaabbb", "aaaabbb"}

	testCases := []struct {
		name    string
		workers int
	}{
		{name: "one worker", workers: 1},
		{name: "fewer workers than messages", workers: 2},
		{name: "more workers than messages", workers: 20},
		{name: "default workers", workers: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			m := match.New(grammar.MustParse(abGrammar))

			actual, err := Check(context.Background(), m, 0, messages, tc.workers)
			if !assert.NoError(err) {
				return
			}

			assert.Equal(2, actual.Valid)
			assert.Equal(5, actual.Total())
			assert.Equal(3, actual.Invalid())
			assert.Equal([]string{"ababbb", "abbbab"}, actual.ValidMessages())

			expect := []Result{
				{Index: 0, Message: "ababbb", Valid: true, Longest: 6},
				{Index: 1, Message: "bababa", Valid: false, Longest: -1},
				{Index: 2, Message: "abbbab", Valid: true, Longest: 6},
				{Index: 3, Message: "aaabbb", Valid: false, Longest: -1},
				{Index: 4, Message: "aaaabbb", Valid: false, Longest: 6},
			}
			assert.Equal(expect, actual.Results)
		})
	}
}

func Test_Check_noMessages(t *testing.T) {
	assert := assert.New(t)

	m := match.New(grammar.MustParse(abGrammar))

	actual, err := Check(context.Background(), m, 0, nil, 4)

	assert.NoError(err)
	assert.Equal(0, actual.Valid)
	assert.Equal(0, actual.Total())
}

func Test_Check_unknownRule(t *testing.T) {
	assert := assert.New(t)

	m := match.New(grammar.MustParse("0: 1 99\n1: \"a\""))

	messages := []string{"b", "b", "ab", "b", "b"}

	_, err := Check(context.Background(), m, 0, messages, 2)

	var unkErr *grammar.UnknownRuleError
	if assert.True(errors.As(err, &unkErr)) {
		assert.Equal(99, unkErr.ID)
		assert.Equal(0, unkErr.Referrer)
	}
}

func Test_Check_cancelled(t *testing.T) {
	assert := assert.New(t)

	m := match.New(grammar.MustParse(abGrammar))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Check(ctx, m, 0, []string{"ababbb", "abbbab"}, 1)

	assert.ErrorIs(err, context.Canceled)
}

func Test_Count(t *testing.T) {
	assert := assert.New(t)

	m := match.New(grammar.MustParse(abGrammar))

	actual, err := Count(context.Background(), m, []string{"aaaabb", "aaabab", "bbbbbb"}, 3)

	assert.NoError(err)
	assert.Equal(2, actual)
}
