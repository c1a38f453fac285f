package grammar

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the type of a Rule. It determines which of the fields of a Rule are
// valid.
type Kind int

const (
	// KindLiteral is a rule that matches exactly one character.
	KindLiteral Kind = iota

	// KindSequence is a rule that matches each of its referenced rules one
	// after another.
	KindSequence

	// KindAlternatives is a rule that matches if any of its sequences match.
	KindAlternatives
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindSequence:
		return "sequence"
	case KindAlternatives:
		return "alternatives"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Production is an ordered list of references to other rules by their ID. An
// empty Production matches the empty string.
type Production []int

// Copy returns a deep-copied duplicate of this production.
func (p Production) Copy() Production {
	p2 := make(Production, len(p))
	copy(p2, p)
	return p2
}

// Equal returns whether two productions reference the same rules in the same
// order.
func (p Production) Equal(o Production) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// HasRef returns whether the production refers to the rule with the given ID.
func (p Production) HasRef(id int) bool {
	for i := range p {
		if p[i] == id {
			return true
		}
	}
	return false
}

func (p Production) String() string {
	var sb strings.Builder

	for i := range p {
		sb.WriteString(strconv.Itoa(p[i]))
		if i+1 < len(p) {
			sb.WriteRune(' ')
		}
	}

	return sb.String()
}

// Rule is a single rule in a Grammar. Only the fields that apply to its Kind
// are set: Char for KindLiteral, Seq for KindSequence, and Alts for
// KindAlternatives.
//
// Rules should be created with Literal, Sequence, or Alternatives rather than
// directly.
type Rule struct {
	Kind Kind
	Char rune
	Seq  Production
	Alts []Production
}

// Literal returns a Rule that matches only the given character.
func Literal(ch rune) Rule {
	return Rule{Kind: KindLiteral, Char: ch}
}

// Sequence returns a Rule that matches the rules with the given IDs in order.
// Calling it with no refs gives a rule that matches the empty string.
func Sequence(refs ...int) Rule {
	seq := make(Production, len(refs))
	copy(seq, refs)
	return Rule{Kind: KindSequence, Seq: seq}
}

// Alternatives returns a Rule that matches if any of the given productions
// match.
func Alternatives(prods ...Production) Rule {
	alts := make([]Production, len(prods))
	for i := range prods {
		alts[i] = prods[i].Copy()
	}
	return Rule{Kind: KindAlternatives, Alts: alts}
}

// Productions returns every production the rule can expand to. A literal has
// none.
func (r Rule) Productions() []Production {
	switch r.Kind {
	case KindSequence:
		return []Production{r.Seq}
	case KindAlternatives:
		return r.Alts
	default:
		return nil
	}
}

// Refs returns the IDs of all rules referred to by r, in order of first
// appearance and without duplicates.
func (r Rule) Refs() []int {
	seen := map[int]bool{}
	var refs []int

	for _, p := range r.Productions() {
		for _, id := range p {
			if !seen[id] {
				seen[id] = true
				refs = append(refs, id)
			}
		}
	}

	return refs
}

// Copy returns a deep-copy duplicate of the given Rule.
func (r Rule) Copy() Rule {
	r2 := Rule{Kind: r.Kind, Char: r.Char}

	if r.Seq != nil {
		r2.Seq = r.Seq.Copy()
	}
	if r.Alts != nil {
		r2.Alts = make([]Production, len(r.Alts))
		for i := range r.Alts {
			r2.Alts[i] = r.Alts[i].Copy()
		}
	}

	return r2
}

// Equal returns whether two rules are of the same kind and have identical
// contents. Alternatives are compared in order.
func (r Rule) Equal(o Rule) bool {
	if r.Kind != o.Kind {
		return false
	}

	switch r.Kind {
	case KindLiteral:
		return r.Char == o.Char
	case KindSequence:
		return r.Seq.Equal(o.Seq)
	case KindAlternatives:
		if len(r.Alts) != len(o.Alts) {
			return false
		}
		for i := range r.Alts {
			if !r.Alts[i].Equal(o.Alts[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String returns the definition of the rule in the same format that ParseRule
// accepts.
func (r Rule) String() string {
	switch r.Kind {
	case KindLiteral:
		return `"` + string(r.Char) + `"`
	case KindSequence:
		return r.Seq.String()
	case KindAlternatives:
		var sb strings.Builder
		for i := range r.Alts {
			sb.WriteString(r.Alts[i].String())
			if i+1 < len(r.Alts) {
				sb.WriteString(" | ")
			}
		}
		return sb.String()
	default:
		return r.Kind.String()
	}
}
