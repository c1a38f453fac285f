package match

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dekarrin/rulecheck/internal/grammar"
	"github.com/stretchr/testify/assert"
)

const (
	simpleGrammar = `0: 1 2
1: "a"
2: 1 3 | 3 1
3: "b"`

	abGrammar = `0: 4 1 5
1: 2 3 | 3 2
2: 4 4 | 5 5
3: 4 5 | 5 4
4: "a"
5: "b"`

	loopGrammar = `42: 9 14 | 10 1
9: 14 27 | 1 26
10: 23 14 | 28 1
1: "a"
11: 42 31
5: 1 14 | 15 1
19: 14 1 | 14 14
12: 24 14 | 19 1
16: 15 1 | 14 14
31: 14 17 | 1 13
6: 14 14 | 1 14
2: 1 24 | 14 4
0: 8 11
13: 14 3 | 1 12
15: 1 | 14
17: 14 2 | 1 7
23: 25 1 | 22 14
28: 16 1
4: 1 1
20: 14 14 | 1 15
3: 5 14 | 16 1
27: 1 6 | 14 18
14: "b"
21: 14 1 | 1 14
25: 1 1 | 1 14
22: 14 14
8: 42
26: 14 22 | 1 20
18: 15 15
7: 14 5 | 1 21
24: 14 1`
)

var loopMessages = []string{
	"abbbbbabbbaaaababbaabbbbabababbbabbbbbbabaaaa",
	"bbabbbbaabaabba",
	"babbbbaabbbbbabbbbbbaabaaabaaa",
	"aaabbbbbbaaaabaababaabababbabaaabbababababaaa",
	"bbbbbbbaaaabbbbaaabbabaaa",
	"bbbababbbbaaaaaaaabbababaaababaabab",
	"ababaaaaaabaaab",
	"ababaaaaabbbaba",
	"baabbaaaabbaaaababbaababb",
	"abbbbabbbbaaaababbbbbbaaaababb",
	"aaaaabbaabaaaaababaa",
	"aaaabbaaaabbaaa",
	"aaaabbaabbaaaaaaabbbabbbaaabbaabaaa",
	"babaaabbbaaabaababbaabababaaab",
	"aabbbbbaabbbaaaaaabbbbbababaaaaabbaaabba",
}

func mustMatcher(def string) *Matcher {
	return New(grammar.MustParse(def))
}

func Test_Matcher_IsValid_simple(t *testing.T) {
	testCases := []struct {
		msg    string
		expect bool
	}{
		{msg: "aab", expect: true},
		{msg: "aba", expect: true},
		{msg: "abb", expect: false},
		{msg: "aa", expect: false},
		{msg: "aabb", expect: false},
		{msg: "", expect: false},
	}

	m := mustMatcher(simpleGrammar)

	for _, tc := range testCases {
		t.Run(tc.msg, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := m.IsValid(tc.msg)

			assert.NoError(err)
			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_Matcher_IsValid_allStringsOfLengthSix(t *testing.T) {
	assert := assert.New(t)

	expectValid := map[string]bool{
		"aaaabb": true,
		"aaabab": true,
		"abbabb": true,
		"abbbab": true,
		"aabaab": true,
		"aabbbb": true,
		"abaaab": true,
		"ababbb": true,
	}

	m := mustMatcher(abGrammar)

	for n := 0; n < 64; n++ {
		msg := make([]byte, 6)
		for i := range msg {
			if n&(1<<uint(5-i)) != 0 {
				msg[i] = 'b'
			} else {
				msg[i] = 'a'
			}
		}

		actual, err := m.IsValid(string(msg))

		assert.NoError(err)
		assert.Equal(expectValid[string(msg)], actual, "message %q", string(msg))
	}
}

func Test_Matcher_IsValid_loopExtension(t *testing.T) {
	assert := assert.New(t)

	finite := mustMatcher(loopGrammar)

	looped := grammar.MustParse(loopGrammar)
	if !assert.NoError(looped.Extend(8, "42 | 42 8")) {
		return
	}
	if !assert.NoError(looped.Extend(11, "42 31 | 42 11 31")) {
		return
	}
	loopMatcher := New(looped)

	var finiteValid, loopValid []string
	for _, msg := range loopMessages {
		ok, err := finite.IsValid(msg)
		assert.NoError(err)
		if ok {
			finiteValid = append(finiteValid, msg)
		}

		ok, err = loopMatcher.IsValid(msg)
		assert.NoError(err)
		if ok {
			loopValid = append(loopValid, msg)
		}
	}

	assert.Equal([]string{"bbabbbbaabaabba", "ababaaaaaabaaab", "ababaaaaabbbaba"}, finiteValid)
	assert.Len(loopValid, 12)
	for _, msg := range finiteValid {
		assert.Contains(loopValid, msg)
	}
	assert.NotContains(loopValid, "abbbbbabbbaaaababbaabbbbabababbbabbbbbbabaaaa")
	assert.NotContains(loopValid, "aaaabbaaaabbaaa")
	assert.NotContains(loopValid, "babaaabbbaaabaababbaabababaaab")
}

func Test_Matcher_Resolve_identity(t *testing.T) {
	m := mustMatcher(simpleGrammar)

	for _, input := range []string{"", "a", "abab"} {
		for k := 0; k <= len(input)+1; k++ {
			actual, err := m.ResolveRule(grammar.Sequence(), input, k)

			assert.NoError(t, err)
			assert.Equal(t, []int{k}, actual.Slice(), "input %q offset %d", input, k)
		}
	}
}

func Test_Matcher_Resolve_literal(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		offset int
		char   rune
		expect []int
	}{
		{name: "match at start", input: "abc", offset: 0, char: 'a', expect: []int{1}},
		{name: "match in middle", input: "abc", offset: 1, char: 'b', expect: []int{2}},
		{name: "mismatch", input: "abc", offset: 1, char: 'a', expect: []int{}},
		{name: "at end of input", input: "abc", offset: 3, char: 'c', expect: []int{}},
		{name: "past end of input", input: "abc", offset: 7, char: 'c', expect: []int{}},
		{name: "empty input", input: "", offset: 0, char: 'a', expect: []int{}},
		{name: "multi-byte chars count as one", input: "éa", offset: 1, char: 'a', expect: []int{2}},
	}

	m := mustMatcher(simpleGrammar)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := m.ResolveRule(grammar.Literal(tc.char), tc.input, tc.offset)

			assert.NoError(err)
			assert.Equal(tc.expect, actual.Slice())
		})
	}
}

func Test_Matcher_Resolve_alternativesAreUnioned(t *testing.T) {
	assert := assert.New(t)

	// rule 1 matches "a" and rule 2 matches "aa"; first-match-wins would give
	// only one of them.
	m := mustMatcher(`0: 1 | 2
1: 3
2: 3 3
3: "a"`)

	a, err := m.Resolve(1, "aaa", 0)
	assert.NoError(err)
	b, err := m.Resolve(2, "aaa", 0)
	assert.NoError(err)
	union, err := m.Resolve(0, "aaa", 0)
	assert.NoError(err)

	assert.Equal([]int{1, 2}, union.Slice())
	assert.True(union.Equal(a.Union(b)))

	// and the longer branch is needed to complete an enclosing sequence
	m2 := mustMatcher(`0: 1 4
1: 2 | 3
2: 5
3: 5 5
4: "b"
5: "a"`)
	ok, err := m2.IsValid("aab")
	assert.NoError(err)
	assert.True(ok)
}

func Test_Matcher_Resolve_sequenceMonotonic(t *testing.T) {
	m := mustMatcher(abGrammar)
	input := "abbabbaaabab"

	for _, id := range []int{0, 1, 2, 3, 4, 5} {
		for k := 0; k <= len(input); k++ {
			actual, err := m.Resolve(id, input, k)
			assert.NoError(t, err)
			actual.Each(func(end int) {
				assert.GreaterOrEqual(t, end, k, "rule %d at offset %d", id, k)
				assert.LessOrEqual(t, end, len(input), "rule %d at offset %d", id, k)
			})
		}
	}
}

func Test_Matcher_Resolve_ambiguousLengths(t *testing.T) {
	assert := assert.New(t)

	m := mustMatcher(`0: 8
8: 42 | 42 8
42: "a"`)

	actual, err := m.Resolve(8, "aaaab", 0)

	assert.NoError(err)
	assert.Equal([]int{1, 2, 3, 4}, actual.Slice())
}

func Test_Matcher_Resolve_loopTerminates(t *testing.T) {
	testCases := []struct {
		name    string
		grammar string
		input   string
		id      int
		expect  []int
	}{
		{
			name:    "right recursion",
			grammar: "8: 42 | 42 8\n42: \"a\"",
			input:   strings.Repeat("a", 75),
			id:      8,
			expect:  seq(1, 75),
		},
		{
			name:    "nested recursion",
			grammar: "11: 42 31 | 42 11 31\n42: \"a\"\n31: \"b\"",
			input:   "aaabbbb",
			id:      11,
			expect:  []int{6},
		},
		{
			name:    "left recursion",
			grammar: "8: 8 42 | 42\n42: \"a\"",
			input:   "aaab",
			id:      8,
			expect:  []int{1, 2, 3},
		},
		{
			name:    "mutual left recursion",
			grammar: "1: 2 3 | 3\n2: 1\n3: \"a\"",
			input:   "aaa",
			id:      1,
			expect:  []int{1, 2, 3},
		},
		{
			name:    "non-consuming cycle",
			grammar: "1: 2 | 3\n2: 1\n3: \"x\"",
			input:   "xx",
			id:      1,
			expect:  []int{1},
		},
		{
			name:    "self alias only",
			grammar: "1: 1",
			input:   "abc",
			id:      1,
			expect:  []int{},
		},
		{
			name:    "left recursion with no base",
			grammar: "1: 1 2\n2: \"a\"",
			input:   "aaa",
			id:      1,
			expect:  []int{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			m := mustMatcher(tc.grammar)

			actual, err := m.Resolve(tc.id, tc.input, 0)

			assert.NoError(err)
			assert.Equal(tc.expect, actual.Slice())
		})
	}
}

func Test_Matcher_Resolve_unknownRule(t *testing.T) {
	testCases := []struct {
		name     string
		grammar  string
		msg      string
		expectID int
	}{
		{
			name:     "start refers to undefined",
			grammar:  "0: 99",
			msg:      "a",
			expectID: 99,
		},
		{
			name:     "undefined reached through alternative",
			grammar:  "0: 1 | 2\n1: \"a\"\n2: 1 7",
			msg:      "ab",
			expectID: 7,
		},
		{
			name:     "undefined start rule",
			grammar:  "1: \"a\"",
			msg:      "a",
			expectID: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			g, err := grammar.ParseString(tc.grammar)
			if !assert.NoError(err, "parse must not check references") {
				return
			}
			m := New(g)

			_, err = m.IsValid(tc.msg)

			var unkErr *grammar.UnknownRuleError
			if assert.True(errors.As(err, &unkErr)) {
				assert.Equal(tc.expectID, unkErr.ID)
			}
		})
	}
}

func Test_Matcher_Resolve_negativeOffset(t *testing.T) {
	assert := assert.New(t)

	m := mustMatcher(simpleGrammar)

	_, err := m.Resolve(0, "aab", -1)

	assert.ErrorIs(err, ErrOffset)
}

func Test_Matcher_Longest(t *testing.T) {
	testCases := []struct {
		name   string
		msg    string
		expect int
	}{
		{name: "full match", msg: "aab", expect: 3},
		{name: "partial match", msg: "aabb", expect: 3},
		{name: "no match", msg: "b", expect: -1},
	}

	m := mustMatcher(simpleGrammar)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := m.Longest(0, tc.msg)

			assert.NoError(err)
			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_New_freezesGrammar(t *testing.T) {
	assert := assert.New(t)

	g := grammar.MustParse(simpleGrammar)
	m := New(g)

	assert.True(m.Grammar().Frozen())
	assert.ErrorIs(g.Extend(0, "1 1"), grammar.ErrFrozen)
}

func Test_New_sharedFrozenGrammar(t *testing.T) {
	assert := assert.New(t)

	g := grammar.MustParse(simpleGrammar)
	g.Freeze()

	var wg sync.WaitGroup
	valid := make([]bool, 8)
	errs := make([]error, 8)
	for i := range valid {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			valid[i], errs[i] = New(g).IsValid("aab")
		}(i)
	}
	wg.Wait()

	for i := range valid {
		assert.NoError(errs[i])
		assert.True(valid[i])
	}
	assert.True(g.Frozen())
}

func seq(from, to int) []int {
	s := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		s = append(s, i)
	}
	return s
}
