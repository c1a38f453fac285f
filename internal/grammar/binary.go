package grammar

import (
	"fmt"

	"github.com/dekarrin/rezi"
)

// This file contains the binary encoding of grammars, used for persisting a
// parsed grammar without needing to re-parse its text.

// MarshalBinary encodes the grammar into a slice of bytes. Frozen state is not
// encoded.
func (g *Grammar) MarshalBinary() ([]byte, error) {
	var data []byte

	ids := g.IDs()
	data = append(data, rezi.EncInt(len(ids))...)
	for _, id := range ids {
		r := g.rules[id]
		data = append(data, rezi.EncInt(id)...)
		data = append(data, rezi.EncBinary(r)...)
	}

	return data, nil
}

// UnmarshalBinary decodes a grammar from a slice of bytes produced by
// MarshalBinary. Any existing rules in g are discarded and the decoded grammar
// is not frozen.
func (g *Grammar) UnmarshalBinary(data []byte) error {
	count, n, err := rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("rule count: %w", err)
	}
	data = data[n:]
	if count < 0 {
		return fmt.Errorf("rule count: negative value %d", count)
	}

	rules := make(map[int]Rule, count)
	for i := 0; i < count; i++ {
		var id int
		id, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("rule #%d: ID: %w", i, err)
		}
		data = data[n:]

		var r Rule
		n, err = rezi.DecBinary(data, &r)
		if err != nil {
			return fmt.Errorf("rule %d: %w", id, err)
		}
		data = data[n:]

		rules[id] = r
	}

	g.rules = rules
	g.frozen = false
	return nil
}

// MarshalBinary encodes the rule into a slice of bytes.
func (r Rule) MarshalBinary() ([]byte, error) {
	var data []byte

	data = append(data, rezi.EncInt(int(r.Kind))...)
	data = append(data, rezi.EncInt(int(r.Char))...)

	prods := r.Productions()
	data = append(data, rezi.EncInt(len(prods))...)
	for _, p := range prods {
		data = append(data, rezi.EncInt(len(p))...)
		for _, ref := range p {
			data = append(data, rezi.EncInt(ref)...)
		}
	}

	return data, nil
}

// UnmarshalBinary decodes a rule from a slice of bytes produced by
// MarshalBinary.
func (r *Rule) UnmarshalBinary(data []byte) error {
	kind, n, err := rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("kind: %w", err)
	}
	data = data[n:]

	ch, n, err := rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("char: %w", err)
	}
	data = data[n:]

	prodCount, n, err := rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("production count: %w", err)
	}
	data = data[n:]
	if prodCount < 0 {
		return fmt.Errorf("production count: negative value %d", prodCount)
	}

	prods := make([]Production, prodCount)
	for i := range prods {
		var refCount int
		refCount, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("production %d: ref count: %w", i, err)
		}
		data = data[n:]
		if refCount < 0 {
			return fmt.Errorf("production %d: ref count: negative value %d", i, refCount)
		}

		p := make(Production, refCount)
		for j := range p {
			p[j], n, err = rezi.DecInt(data)
			if err != nil {
				return fmt.Errorf("production %d: ref %d: %w", i, j, err)
			}
			data = data[n:]
		}
		prods[i] = p
	}

	decoded := Rule{Kind: Kind(kind)}
	switch decoded.Kind {
	case KindLiteral:
		if prodCount != 0 {
			return fmt.Errorf("literal rule has %d productions", prodCount)
		}
		decoded.Char = rune(ch)
	case KindSequence:
		if prodCount != 1 {
			return fmt.Errorf("sequence rule has %d productions", prodCount)
		}
		decoded.Seq = prods[0]
	case KindAlternatives:
		decoded.Alts = prods
	default:
		return fmt.Errorf("unknown rule kind %d", kind)
	}

	*r = decoded
	return nil
}
