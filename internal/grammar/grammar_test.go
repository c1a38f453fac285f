package grammar

import (
	"errors"
	"testing"

	"github.com/dekarrin/rezi"
	"github.com/stretchr/testify/assert"
)

func Test_Parse(t *testing.T) {
	testCases := []struct {
		name      string
		lines     []string
		expect    map[int]Rule
		expectErr bool
		errLine   int
	}{
		{
			name:   "no lines",
			expect: map[int]Rule{},
		},
		{
			name:  "literal",
			lines: []string{`1: "a"`},
			expect: map[int]Rule{
				1: Literal('a'),
			},
		},
		{
			name:  "sequence",
			lines: []string{`0: 4 1 5`},
			expect: map[int]Rule{
				0: Sequence(4, 1, 5),
			},
		},
		{
			name:  "bare integer is a single-ref sequence",
			lines: []string{`8: 42`},
			expect: map[int]Rule{
				8: Sequence(42),
			},
		},
		{
			name:  "alternatives",
			lines: []string{`2: 1 3 | 3 1`},
			expect: map[int]Rule{
				2: Alternatives(Production{1, 3}, Production{3, 1}),
			},
		},
		{
			name:  "single-ref alternatives",
			lines: []string{`15: 1 | 14`},
			expect: map[int]Rule{
				15: Alternatives(Production{1}, Production{14}),
			},
		},
		{
			name: "full simple grammar with blank lines",
			lines: []string{
				`0: 1 2`,
				``,
				`1: "a"`,
				`2: 1 3 | 3 1`,
				`  3: "b"  `,
			},
			expect: map[int]Rule{
				0: Sequence(1, 2),
				1: Literal('a'),
				2: Alternatives(Production{1, 3}, Production{3, 1}),
				3: Literal('b'),
			},
		},
		{
			name:  "multi-byte literal",
			lines: []string{`5: "é"`},
			expect: map[int]Rule{
				5: Literal('é'),
			},
		},
		{
			name:  "dangling refs are allowed at parse time",
			lines: []string{`0: 99`},
			expect: map[int]Rule{
				0: Sequence(99),
			},
		},
		{
			name:      "missing separator",
			lines:     []string{`7 notanumber`},
			expectErr: true,
			errLine:   1,
		},
		{
			name:      "non-integer ref",
			lines:     []string{`0: 1 2`, `1: 2 x`},
			expectErr: true,
			errLine:   2,
		},
		{
			name:      "negative ref",
			lines:     []string{`0: 1 -2`},
			expectErr: true,
			errLine:   1,
		},
		{
			name:      "non-integer ID",
			lines:     []string{`a: 1 2`},
			expectErr: true,
			errLine:   1,
		},
		{
			name:      "empty literal",
			lines:     []string{`1: ""`},
			expectErr: true,
			errLine:   1,
		},
		{
			name:      "multi-char literal",
			lines:     []string{`1: "ab"`},
			expectErr: true,
			errLine:   1,
		},
		{
			name:      "unterminated literal",
			lines:     []string{`1: "a`},
			expectErr: true,
			errLine:   1,
		},
		{
			name:      "empty alternative",
			lines:     []string{`1: 2 |  | 3`},
			expectErr: true,
			errLine:   1,
		},
		{
			name:      "duplicate rule ID",
			lines:     []string{`1: "a"`, `1: "b"`},
			expectErr: true,
			errLine:   2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := Parse(tc.lines)
			if tc.expectErr {
				var pErr *ParseError
				if assert.ErrorAs(err, &pErr) {
					assert.Equal(tc.errLine, pErr.Line)
				}
				return
			}
			if !assert.NoError(err) {
				return
			}

			assert.Equal(len(tc.expect), actual.Len())
			for id, expectRule := range tc.expect {
				actualRule, ok := actual.Rule(id)
				if assert.True(ok, "rule %d missing", id) {
					assert.True(expectRule.Equal(actualRule), "rule %d: expected %s, got %s", id, expectRule, actualRule)
				}
			}
			assert.False(actual.Frozen())
		})
	}
}

func Test_ParseError_message(t *testing.T) {
	assert := assert.New(t)

	_, err := Parse([]string{"7 notanumber"})

	assert.EqualError(err, `line 1: "7 notanumber": missing ": " between rule ID and definition`)
}

func Test_Grammar_String_roundTrip(t *testing.T) {
	assert := assert.New(t)

	input := "3: \"b\"\n0: 4 1 5\n1: 2 3 | 3 2\n2: 4 4 | 5 5\n4: \"a\"\n5: \"b\""
	g := MustParse(input)

	reparsed, err := ParseString(g.String())
	if !assert.NoError(err) {
		return
	}

	assert.True(g.Equal(reparsed))
	assert.Equal([]string{
		`0: 4 1 5`,
		`1: 2 3 | 3 2`,
		`2: 4 4 | 5 5`,
		`3: "b"`,
		`4: "a"`,
		`5: "b"`,
	}, g.Lines())
}

func Test_Grammar_Extend(t *testing.T) {
	testCases := []struct {
		name      string
		grammar   string
		id        int
		def       string
		frozen    bool
		expect    string
		expectErr error
	}{
		{
			name:    "replace with loop",
			grammar: "8: 42\n42: \"a\"",
			id:      8,
			def:     "42 | 42 8",
			expect:  "42 | 42 8",
		},
		{
			name:      "unknown rule",
			grammar:   "8: 42\n42: \"a\"",
			id:        11,
			def:       "42 31 | 42 11 31",
			expectErr: &UnknownRuleError{},
		},
		{
			name:      "bad definition",
			grammar:   "8: 42\n42: \"a\"",
			id:        8,
			def:       "42 |",
			expectErr: &ParseError{},
		},
		{
			name:      "frozen",
			grammar:   "8: 42\n42: \"a\"",
			id:        8,
			def:       "42 | 42 8",
			frozen:    true,
			expectErr: ErrFrozen,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			g := MustParse(tc.grammar)
			before := g.String()
			if tc.frozen {
				g.Freeze()
			}

			err := g.Extend(tc.id, tc.def)

			switch expect := tc.expectErr.(type) {
			case nil:
				if !assert.NoError(err) {
					return
				}
				r, _ := g.Rule(tc.id)
				assert.Equal(tc.expect, r.String())
			case *UnknownRuleError:
				assert.ErrorAs(err, &expect)
				assert.Equal(before, g.String())
			case *ParseError:
				assert.ErrorAs(err, &expect)
				assert.Equal(before, g.String())
			default:
				assert.ErrorIs(err, tc.expectErr)
				assert.Equal(before, g.String())
			}
		})
	}
}

func Test_Grammar_ApplyOverrides_loopRules(t *testing.T) {
	assert := assert.New(t)

	g := MustParse("0: 8 11\n8: 42\n11: 42 31\n42: \"a\"\n31: \"b\"")

	err := g.ApplyOverrides(LoopOverrides...)
	if !assert.NoError(err) {
		return
	}

	r8, _ := g.Rule(8)
	r11, _ := g.Rule(11)
	assert.Equal("42 | 42 8", r8.String())
	assert.Equal("42 31 | 42 11 31", r11.String())
	assert.Equal([]int{8, 11}, g.Recursive())
}

func Test_Grammar_ApplyOverrides_missingRule(t *testing.T) {
	assert := assert.New(t)

	g := MustParse("0: 1\n1: \"a\"")

	err := g.ApplyOverrides(LoopOverrides...)

	var unkErr *UnknownRuleError
	if assert.ErrorAs(err, &unkErr) {
		assert.Equal(8, unkErr.ID)
	}
}

func Test_Grammar_Copy(t *testing.T) {
	assert := assert.New(t)

	g := MustParse("0: 1\n1: \"a\"")
	g.Freeze()

	cp := g.Copy()
	assert.False(cp.Frozen())
	assert.NoError(cp.Extend(0, "1 1"))

	orig, _ := g.Rule(0)
	assert.Equal("1", orig.String())
}

func Test_Grammar_Validate(t *testing.T) {
	testCases := []struct {
		name         string
		grammar      string
		expectErr    bool
		expectID     int
		expectReferr int
	}{
		{
			name:    "complete grammar",
			grammar: "0: 1 2\n1: \"a\"\n2: 1 3 | 3 1\n3: \"b\"",
		},
		{
			name:         "dangling ref",
			grammar:      "0: 99",
			expectErr:    true,
			expectID:     99,
			expectReferr: 0,
		},
		{
			name:         "lowest referrer reported",
			grammar:      "5: 1 | 7\n1: \"a\"\n3: 8",
			expectErr:    true,
			expectID:     8,
			expectReferr: 3,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			err := MustParse(tc.grammar).Validate()

			if !tc.expectErr {
				assert.NoError(err)
				return
			}
			var unkErr *UnknownRuleError
			if assert.ErrorAs(err, &unkErr) {
				assert.Equal(tc.expectID, unkErr.ID)
				assert.Equal(tc.expectReferr, unkErr.Referrer)
			}
		})
	}
}

func Test_Grammar_Recursive(t *testing.T) {
	testCases := []struct {
		name    string
		grammar string
		expect  []int
	}{
		{
			name:    "no loops",
			grammar: "0: 1 2\n1: \"a\"\n2: 1 3 | 3 1\n3: \"b\"",
			expect:  nil,
		},
		{
			name:    "direct self reference",
			grammar: "0: 8\n8: 42 | 42 8\n42: \"a\"",
			expect:  []int{8},
		},
		{
			name:    "mutual reference",
			grammar: "0: 1\n1: 2 | 3\n2: 1 3\n3: \"x\"",
			expect:  []int{1, 2},
		},
		{
			name:    "dangling refs ignored",
			grammar: "0: 1 99\n1: \"a\"",
			expect:  nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual := MustParse(tc.grammar).Recursive()

			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_Grammar_Language(t *testing.T) {
	testCases := []struct {
		name        string
		grammar     string
		id          int
		limit       int
		expect      []string
		expectCycle []int
		expectErr   error
	}{
		{
			name:    "simple grammar",
			grammar: "0: 1 2\n1: \"a\"\n2: 1 3 | 3 1\n3: \"b\"",
			id:      0,
			expect:  []string{"aab", "aba"},
		},
		{
			name:    "second example grammar",
			grammar: "0: 4 1 5\n1: 2 3 | 3 2\n2: 4 4 | 5 5\n3: 4 5 | 5 4\n4: \"a\"\n5: \"b\"",
			id:      0,
			expect:  []string{"aaaabb", "aaabab", "aabaab", "aabbbb", "abaaab", "ababbb", "abbabb", "abbbab"},
		},
		{
			name:    "sub rule",
			grammar: "0: 4 1 5\n1: 2 3 | 3 2\n2: 4 4 | 5 5\n3: 4 5 | 5 4\n4: \"a\"\n5: \"b\"",
			id:      3,
			expect:  []string{"ab", "ba"},
		},
		{
			name:        "self reference",
			grammar:     "0: 8\n8: 42 | 42 8\n42: \"a\"",
			id:          0,
			expectCycle: []int{8, 8},
		},
		{
			name:        "indirect cycle",
			grammar:     "0: 1\n1: 2 | 3\n2: 1 3\n3: \"x\"",
			id:          0,
			expectCycle: []int{1, 2, 1},
		},
		{
			name:      "over limit",
			grammar:   "0: 1 1 1\n1: 2 | 3\n2: \"a\"\n3: \"b\"",
			id:        0,
			limit:     4,
			expectErr: ErrLanguageTooLarge,
		},
		{
			name:    "at limit",
			grammar: "0: 1 1\n1: 2 | 3\n2: \"a\"\n3: \"b\"",
			id:      0,
			limit:   4,
			expect:  []string{"aa", "ab", "ba", "bb"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := MustParse(tc.grammar).Language(tc.id, tc.limit)

			if tc.expectCycle != nil {
				var cycErr *CycleError
				if assert.ErrorAs(err, &cycErr) {
					assert.Equal(tc.expectCycle, cycErr.Path)
				}
				return
			}
			if tc.expectErr != nil {
				assert.ErrorIs(err, tc.expectErr)
				return
			}
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_Grammar_Language_unknownRule(t *testing.T) {
	assert := assert.New(t)

	_, err := MustParse("0: 1 99\n1: \"a\"").Language(0, 0)

	var unkErr *UnknownRuleError
	if assert.True(errors.As(err, &unkErr)) {
		assert.Equal(99, unkErr.ID)
		assert.Equal(0, unkErr.Referrer)
	}
}

func Test_Grammar_Binary(t *testing.T) {
	assert := assert.New(t)

	g := MustParse("0: 8 11\n8: 42 | 42 8\n11: 42 31 | 42 11 31\n42: \"a\"\n31: \"é\"\n7: 42")
	g.Freeze()

	data, err := g.MarshalBinary()
	if !assert.NoError(err) {
		return
	}

	decoded := New()
	err = decoded.UnmarshalBinary(data)
	if !assert.NoError(err) {
		return
	}

	assert.True(g.Equal(decoded))
	assert.False(decoded.Frozen())
}

func Test_UnmarshalBinary_negativeCounts(t *testing.T) {
	cat := func(parts ...[]byte) []byte {
		var data []byte
		for _, p := range parts {
			data = append(data, p...)
		}
		return data
	}

	testCases := []struct {
		name   string
		decode func() error
	}{
		{
			name: "rule count",
			decode: func() error {
				return New().UnmarshalBinary(rezi.EncInt(-3))
			},
		},
		{
			name: "production count",
			decode: func() error {
				var r Rule
				data := cat(rezi.EncInt(int(KindAlternatives)), rezi.EncInt(0), rezi.EncInt(-1))
				return r.UnmarshalBinary(data)
			},
		},
		{
			name: "ref count",
			decode: func() error {
				var r Rule
				data := cat(rezi.EncInt(int(KindSequence)), rezi.EncInt(0), rezi.EncInt(1), rezi.EncInt(-2))
				return r.UnmarshalBinary(data)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			var err error
			assert.NotPanics(func() { err = tc.decode() })
			assert.Error(err)
		})
	}
}
