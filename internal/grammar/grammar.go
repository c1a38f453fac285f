// Package grammar holds the rule tables that messages are checked against and
// the parser for the numbered rule definition language.
//
// A rule definition line is one of:
//
//	ID: "c"
//	ID: ID ID ...
//	ID: ID ID ... | ID ID ... | ...
//
// A Grammar is built by Parse or by calls to Define, optionally modified with
// Extend, and then frozen. Once frozen it is never modified again and may be
// shared between any number of goroutines without synchronization.
package grammar

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Grammar is a table of rules indexed by their ID. The zero-value is not ready
// for use; create one with New or Parse.
type Grammar struct {
	rules  map[int]Rule
	frozen bool
}

// New returns an empty Grammar ready to have rules defined on it.
func New() *Grammar {
	return &Grammar{rules: map[int]Rule{}}
}

// Define sets the rule with the given ID, creating it if it does not already
// exist.
func (g *Grammar) Define(id int, r Rule) error {
	if g.frozen {
		return ErrFrozen
	}
	if id < 0 {
		return fmt.Errorf("rule ID must be non-negative: %d", id)
	}
	g.rules[id] = r.Copy()
	return nil
}

// Extend replaces the definition of an existing rule with the one parsed from
// def. Extension is redefinition only; if no rule with the given ID exists, an
// *UnknownRuleError is returned and the grammar is not modified.
func (g *Grammar) Extend(id int, def string) error {
	r, err := ParseRule(def)
	if err != nil {
		return err
	}
	return g.Redefine(id, r)
}

// Redefine is like Extend but takes an already-parsed Rule.
func (g *Grammar) Redefine(id int, r Rule) error {
	if g.frozen {
		return ErrFrozen
	}
	if _, ok := g.rules[id]; !ok {
		return &UnknownRuleError{ID: id, Referrer: -1}
	}
	g.rules[id] = r.Copy()
	return nil
}

// ApplyOverrides redefines each rule named in ovs in order. It stops at the
// first override that cannot be applied.
func (g *Grammar) ApplyOverrides(ovs ...Override) error {
	for _, ov := range ovs {
		if err := g.Redefine(ov.ID, ov.Rule); err != nil {
			return fmt.Errorf("override %q: %w", ov.String(), err)
		}
	}
	return nil
}

// Freeze marks the grammar as read-only. Any further attempt to modify it will
// return ErrFrozen. Freezing an already-frozen grammar has no effect.
func (g *Grammar) Freeze() {
	if !g.frozen {
		g.frozen = true
	}
}

// Frozen returns whether Freeze has been called on the grammar.
func (g *Grammar) Frozen() bool {
	return g.frozen
}

// Copy returns a deep copy of the grammar. The copy is never frozen, even if g
// is.
func (g *Grammar) Copy() *Grammar {
	g2 := New()
	for id, r := range g.rules {
		g2.rules[id] = r.Copy()
	}
	return g2
}

// Rule returns the rule with the given ID and whether it exists. The returned
// rule shares no memory with the grammar.
func (g *Grammar) Rule(id int) (Rule, bool) {
	r, ok := g.rules[id]
	if !ok {
		return Rule{}, false
	}
	return r.Copy(), true
}

// Lookup returns the rule with the given ID without copying it. Callers must
// not modify the returned Rule. It is meant for the hot path of matching.
func (g *Grammar) Lookup(id int) (Rule, bool) {
	r, ok := g.rules[id]
	return r, ok
}

// Has returns whether a rule with the given ID exists.
func (g *Grammar) Has(id int) bool {
	_, ok := g.rules[id]
	return ok
}

// Len returns the number of rules in the grammar.
func (g *Grammar) Len() int {
	return len(g.rules)
}

// IDs returns the IDs of every rule in the grammar in ascending order.
func (g *Grammar) IDs() []int {
	ids := make([]int, 0, len(g.rules))
	for id := range g.rules {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Validate checks that every rule reference in the grammar refers to a defined
// rule. If any do not, an *UnknownRuleError for the lowest-numbered rule with a
// dangling reference is returned.
func (g *Grammar) Validate() error {
	for _, id := range g.IDs() {
		for _, ref := range g.rules[id].Refs() {
			if _, ok := g.rules[ref]; !ok {
				return &UnknownRuleError{ID: ref, Referrer: id}
			}
		}
	}
	return nil
}

// Lines returns the definition of each rule as an "ID: DEFINITION" line, in
// ascending order of ID. Passing the result to Parse gives an equal grammar.
func (g *Grammar) Lines() []string {
	ids := g.IDs()
	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = strconv.Itoa(id) + idSeparator + g.rules[id].String()
	}
	return lines
}

func (g *Grammar) String() string {
	return strings.Join(g.Lines(), "\n")
}

// Equal returns whether two grammars define the same rules. Frozen state is not
// compared.
func (g *Grammar) Equal(o *Grammar) bool {
	if g == nil || o == nil {
		return g == o
	}
	if len(g.rules) != len(o.rules) {
		return false
	}
	for id, r := range g.rules {
		other, ok := o.rules[id]
		if !ok || !r.Equal(other) {
			return false
		}
	}
	return true
}
