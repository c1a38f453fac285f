// Package match checks messages against a grammar by computing, for a rule and
// a starting offset, the set of every offset that some expansion of the rule
// could end at.
//
// Working with sets of end offsets instead of a single matched length is what
// makes ambiguous rules correct: when a rule can match prefixes of several
// lengths, every one of them is carried forward into the rest of the enclosing
// sequence. It is also what makes rules that refer to themselves terminate,
// since every path through the grammar is tied to an offset into a finite
// input.
package match

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/dekarrin/rulecheck/internal/grammar"
)

// DefaultStart is the ID of the rule that whole messages are checked against
// by IsValid.
const DefaultStart = 0

// ErrOffset is returned when a resolution is requested at a negative offset.
var ErrOffset = errors.New("offset must not be negative")

// settled is the low-link value reported by an evaluation that does not
// depend on any rule still being evaluated further up the stack.
const settled = math.MaxInt

// Matcher resolves rules of a frozen grammar against inputs. It holds no
// per-query state, so a single Matcher may be used from any number of
// goroutines at once.
type Matcher struct {
	g *grammar.Grammar
}

// New returns a Matcher for the given grammar. The grammar is frozen as a side
// effect unless it already is, so New never writes to a grammar that other
// goroutines may be reading. To make further changes, modify a Copy of it and
// create a new Matcher.
func New(g *grammar.Grammar) *Matcher {
	if !g.Frozen() {
		g.Freeze()
	}
	return &Matcher{g: g}
}

// Grammar returns the frozen grammar that m matches against.
func (m *Matcher) Grammar() *grammar.Grammar {
	return m.g
}

// Resolve returns the set of offsets that an expansion of the rule with the
// given ID could end at when it starts matching input at offset. Offsets are
// counted in characters, not bytes. An empty set means the rule cannot match
// anything starting at offset.
//
// If any rule touched during resolution refers to an undefined rule, an
// *grammar.UnknownRuleError is returned.
func (m *Matcher) Resolve(id int, input string, offset int) (Set, error) {
	if offset < 0 {
		return Set{}, ErrOffset
	}
	q := m.newQuery(input)
	ends, _, err := q.ruleEnds(id, offset, -1, 0)
	if err != nil {
		return Set{}, err
	}
	return ends.Copy(), nil
}

// ResolveRule is like Resolve but resolves a rule that need not be in the
// grammar. Any rules that r refers to must be.
func (m *Matcher) ResolveRule(r grammar.Rule, input string, offset int) (Set, error) {
	if offset < 0 {
		return Set{}, ErrOffset
	}
	q := m.newQuery(input)
	ends, _, err := q.ruleBody(-1, r, offset, 0)
	if err != nil {
		return Set{}, err
	}
	return ends, nil
}

// Match returns whether the rule with the given ID matches all of msg.
func (m *Matcher) Match(id int, msg string) (bool, error) {
	ends, err := m.Resolve(id, msg, 0)
	if err != nil {
		return false, err
	}
	return ends.Has(utf8.RuneCountInString(msg)), nil
}

// IsValid returns whether msg is matched in full by rule 0.
func (m *Matcher) IsValid(msg string) (bool, error) {
	return m.Match(DefaultStart, msg)
}

// Longest returns the length of the longest prefix of msg that the rule with
// the given ID matches, or -1 if it matches no prefix at all.
func (m *Matcher) Longest(id int, msg string) (int, error) {
	ends, err := m.Resolve(id, msg, 0)
	if err != nil {
		return -1, err
	}
	return ends.Max(), nil
}

type memoKey struct {
	id     int
	offset int
}

type memoEntry struct {
	ends      Set
	depth     int
	done      bool
	reentered bool
}

// query is the state of a single resolution. Entries are keyed on both rule and
// offset; a rule seen again at a later offset is a different entry.
type query struct {
	g     *grammar.Grammar
	input []rune
	memo  map[memoKey]*memoEntry
}

func (m *Matcher) newQuery(input string) *query {
	return &query{
		g:     m.g,
		input: []rune(input),
		memo:  map[memoKey]*memoEntry{},
	}
}

// ruleEnds resolves the rule with the given ID at offset. Along with the end
// offsets it returns the smallest stack depth of any in-progress entry the
// result was computed from, or settled if none.
//
// Re-entering an entry that is still in progress (a rule that reaches itself
// without consuming input) yields that entry's ends so far. The entry is then
// re-evaluated until its ends stop growing. Results that depend on an entry
// further up the stack are not kept, since they may grow on the next pass.
func (q *query) ruleEnds(id int, offset int, referrer int, depth int) (Set, int, error) {
	key := memoKey{id: id, offset: offset}
	if e, ok := q.memo[key]; ok {
		if e.done {
			return e.ends, settled, nil
		}
		e.reentered = true
		return e.ends.Copy(), e.depth, nil
	}

	r, ok := q.g.Lookup(id)
	if !ok {
		return Set{}, settled, &grammar.UnknownRuleError{ID: id, Referrer: referrer}
	}

	e := &memoEntry{depth: depth}
	q.memo[key] = e

	for {
		ends, low, err := q.ruleBody(id, r, offset, depth+1)
		if err != nil {
			delete(q.memo, key)
			return Set{}, settled, err
		}

		grew := !ends.SubsetOf(e.ends)
		e.ends.AddAll(ends)

		if e.reentered && grew {
			e.reentered = false
			continue
		}

		if low < depth {
			delete(q.memo, key)
			return e.ends, low, nil
		}

		e.done = true
		return e.ends, settled, nil
	}
}

func (q *query) ruleBody(id int, r grammar.Rule, offset int, depth int) (Set, int, error) {
	switch r.Kind {
	case grammar.KindLiteral:
		if offset < len(q.input) && q.input[offset] == r.Char {
			return NewSet(offset + 1), settled, nil
		}
		return Set{}, settled, nil
	case grammar.KindSequence:
		return q.production(id, r.Seq, offset, depth)
	case grammar.KindAlternatives:
		var ends Set
		low := settled

		// every branch is evaluated; a later one may add ends that an
		// enclosing sequence needs.
		for _, p := range r.Alts {
			pEnds, pLow, err := q.production(id, p, offset, depth)
			if err != nil {
				return Set{}, settled, err
			}
			ends.AddAll(pEnds)
			if pLow < low {
				low = pLow
			}
		}
		return ends, low, nil
	default:
		return Set{}, settled, fmt.Errorf("rule %d: unknown rule kind %s", id, r.Kind)
	}
}

func (q *query) production(owner int, p grammar.Production, offset int, depth int) (Set, int, error) {
	cur := NewSet(offset)
	low := settled

	for _, ref := range p {
		var next Set
		for _, start := range cur.Slice() {
			ends, refLow, err := q.ruleEnds(ref, start, owner, depth)
			if err != nil {
				return Set{}, settled, err
			}
			next.AddAll(ends)
			if refLow < low {
				low = refLow
			}
		}

		if next.Empty() {
			return next, low, nil
		}
		cur = next
	}

	return cur, low, nil
}
