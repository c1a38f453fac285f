package grammar

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	idSeparator  = ": "
	altSeparator = " | "
	refSeparator = " "
)

// Override is a replacement definition for an existing rule.
type Override struct {
	ID   int
	Rule Rule
}

func (ov Override) String() string {
	return strconv.Itoa(ov.ID) + idSeparator + ov.Rule.String()
}

// LoopOverrides are the redefinitions of rules 8 and 11 that turn the finite
// message grammar into one with loops.
var LoopOverrides = []Override{
	mustParseOverride("8: 42 | 42 8"),
	mustParseOverride("11: 42 31 | 42 11 31"),
}

// Parse parses rule definition lines of the form "ID: DEFINITION" into a new
// Grammar. Blank lines are skipped. References to rules are not checked for
// existence; call Validate on the result to do so.
//
// If there is a problem with any line, the returned error will be a
// *ParseError.
func Parse(lines []string) (*Grammar, error) {
	g := New()

	for i := range lines {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		id, r, err := parseLine(line)
		if err != nil {
			err.Line = i + 1
			return nil, err
		}

		if _, exists := g.rules[id]; exists {
			return nil, &ParseError{Line: i + 1, Text: line, Reason: fmt.Sprintf("rule %d is already defined", id)}
		}
		g.rules[id] = r
	}

	return g, nil
}

// ParseString is like Parse but takes the rule definitions as a single
// newline-separated string.
func ParseString(s string) (*Grammar, error) {
	return Parse(strings.Split(s, "\n"))
}

// MustParse is like ParseString but panics if there is an error.
func MustParse(s string) *Grammar {
	g, err := ParseString(s)
	if err != nil {
		panic(err.Error())
	}
	return g
}

// ParseOverride parses a single "ID: DEFINITION" line into an Override.
func ParseOverride(line string) (Override, error) {
	id, r, err := parseLine(strings.TrimSpace(line))
	if err != nil {
		return Override{}, err
	}
	return Override{ID: id, Rule: r}, nil
}

func mustParseOverride(line string) Override {
	ov, err := ParseOverride(line)
	if err != nil {
		panic(err.Error())
	}
	return ov
}

// ParseRule parses the definition part of a rule line, such as `"a"`, `4 1 5`,
// or `2 3 | 3 2`.
func ParseRule(def string) (Rule, error) {
	r, err := parseDefinition(def)
	if err != nil {
		return Rule{}, err
	}
	return r, nil
}

// parseLine returns *ParseError rather than error so callers can fill in the
// line number.
func parseLine(line string) (int, Rule, *ParseError) {
	idStr, def, found := strings.Cut(line, idSeparator)
	if !found {
		return 0, Rule{}, &ParseError{Text: line, Reason: fmt.Sprintf("missing %q between rule ID and definition", idSeparator)}
	}

	id, err := parseRef(idStr)
	if err != nil {
		return 0, Rule{}, &ParseError{Text: line, Reason: "rule ID: " + err.Error()}
	}

	r, pErr := parseDefinition(def)
	if pErr != nil {
		pErr.Text = line
		return 0, Rule{}, pErr
	}

	return id, r, nil
}

func parseDefinition(def string) (Rule, *ParseError) {
	if strings.HasPrefix(def, `"`) {
		if len(def) < 2 || !strings.HasSuffix(def, `"`) {
			return Rule{}, &ParseError{Text: def, Reason: "unterminated quoted literal"}
		}
		content := def[1 : len(def)-1]
		if utf8.RuneCountInString(content) != 1 {
			return Rule{}, &ParseError{Text: def, Reason: "quoted literal must be exactly one character"}
		}
		ch, _ := utf8.DecodeRuneInString(content)
		return Literal(ch), nil
	}

	branches := strings.Split(def, altSeparator)
	prods := make([]Production, len(branches))
	for i := range branches {
		p, err := parseProduction(branches[i])
		if err != nil {
			return Rule{}, &ParseError{Text: def, Reason: err.Error()}
		}
		prods[i] = p
	}

	if len(prods) == 1 {
		return Rule{Kind: KindSequence, Seq: prods[0]}, nil
	}
	return Rule{Kind: KindAlternatives, Alts: prods}, nil
}

func parseProduction(s string) (Production, error) {
	tokens := strings.Split(s, refSeparator)
	p := make(Production, len(tokens))
	for i := range tokens {
		ref, err := parseRef(tokens[i])
		if err != nil {
			return nil, err
		}
		p[i] = ref
	}
	return p, nil
}

func parseRef(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty rule reference")
	}
	// no sign prefix of any kind is allowed
	n, err := strconv.ParseUint(s, 10, 31)
	if err != nil {
		return 0, fmt.Errorf("%q is not a non-negative integer", s)
	}
	return int(n), nil
}
