package grammar

import (
	"fmt"
	"sort"
)

// Recursive returns the IDs of every rule that can reach itself again by
// following rule references, in ascending order. These are the rules whose
// language may be infinite. References to undefined rules are ignored.
func (g *Grammar) Recursive() []int {
	t := tarjan{
		g:       g,
		index:   map[int]int{},
		lowlink: map[int]int{},
		onStack: map[int]bool{},
	}

	for _, id := range g.IDs() {
		if _, visited := t.index[id]; !visited {
			t.strongConnect(id)
		}
	}

	sort.Ints(t.recursive)
	return t.recursive
}

// IsRecursive returns whether the rule with the given ID lies on a cycle.
func (g *Grammar) IsRecursive(id int) bool {
	for _, r := range g.Recursive() {
		if r == id {
			return true
		}
	}
	return false
}

type tarjan struct {
	g         *Grammar
	next      int
	index     map[int]int
	lowlink   map[int]int
	onStack   map[int]bool
	stack     []int
	recursive []int
}

func (t *tarjan) strongConnect(id int) {
	t.index[id] = t.next
	t.lowlink[id] = t.next
	t.next++
	t.stack = append(t.stack, id)
	t.onStack[id] = true

	selfRef := false
	for _, ref := range t.g.rules[id].Refs() {
		if !t.g.Has(ref) {
			continue
		}
		if ref == id {
			selfRef = true
		}

		if _, visited := t.index[ref]; !visited {
			t.strongConnect(ref)
			if t.lowlink[ref] < t.lowlink[id] {
				t.lowlink[id] = t.lowlink[ref]
			}
		} else if t.onStack[ref] && t.index[ref] < t.lowlink[id] {
			t.lowlink[id] = t.index[ref]
		}
	}

	if t.lowlink[id] != t.index[id] {
		return
	}

	// id is the root of a component; pop it
	var component []int
	for {
		top := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[top] = false
		component = append(component, top)
		if top == id {
			break
		}
	}

	if len(component) > 1 || selfRef {
		t.recursive = append(t.recursive, component...)
	}
}

// Language returns every string that the rule with the given ID can match, in
// sorted order. The rule must not be recursive; if expansion comes back around
// to a rule that is already being expanded, a *CycleError is returned.
//
// If limit is greater than zero and more than limit strings are produced while
// expanding any rule, ErrLanguageTooLarge is returned.
func (g *Grammar) Language(id int, limit int) ([]string, error) {
	exp := expander{
		g:       g,
		limit:   limit,
		onStack: map[int]bool{},
		done:    map[int][]string{},
	}

	lang, err := exp.expand(id, -1)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(lang))
	copy(out, lang)
	return out, nil
}

type expander struct {
	g       *Grammar
	limit   int
	stack   []int
	onStack map[int]bool
	done    map[int][]string
}

func (exp *expander) expand(id int, referrer int) ([]string, error) {
	if lang, ok := exp.done[id]; ok {
		return lang, nil
	}

	if exp.onStack[id] {
		start := 0
		for exp.stack[start] != id {
			start++
		}
		path := make([]int, 0, len(exp.stack)-start+1)
		path = append(path, exp.stack[start:]...)
		path = append(path, id)
		return nil, &CycleError{Path: path}
	}

	r, ok := exp.g.rules[id]
	if !ok {
		return nil, &UnknownRuleError{ID: id, Referrer: referrer}
	}

	exp.stack = append(exp.stack, id)
	exp.onStack[id] = true
	defer func() {
		exp.stack = exp.stack[:len(exp.stack)-1]
		exp.onStack[id] = false
	}()

	set := map[string]bool{}
	switch r.Kind {
	case KindLiteral:
		set[string(r.Char)] = true
	case KindSequence, KindAlternatives:
		for _, p := range r.Productions() {
			strs, err := exp.expandProduction(id, p)
			if err != nil {
				return nil, err
			}
			for _, s := range strs {
				set[s] = true
			}
			if exp.tooMany(len(set)) {
				return nil, fmt.Errorf("rule %d: %w", id, ErrLanguageTooLarge)
			}
		}
	default:
		return nil, fmt.Errorf("rule %d: unknown rule kind %s", id, r.Kind)
	}

	lang := make([]string, 0, len(set))
	for s := range set {
		lang = append(lang, s)
	}
	sort.Strings(lang)

	exp.done[id] = lang
	return lang, nil
}

func (exp *expander) expandProduction(owner int, p Production) ([]string, error) {
	prefixes := []string{""}

	for _, ref := range p {
		suffixes, err := exp.expand(ref, owner)
		if err != nil {
			return nil, err
		}

		next := map[string]bool{}
		for _, pre := range prefixes {
			for _, suf := range suffixes {
				next[pre+suf] = true
			}
			if exp.tooMany(len(next)) {
				return nil, fmt.Errorf("rule %d: %w", owner, ErrLanguageTooLarge)
			}
		}

		prefixes = make([]string, 0, len(next))
		for s := range next {
			prefixes = append(prefixes, s)
		}
	}

	return prefixes, nil
}

func (exp *expander) tooMany(n int) bool {
	return exp.limit > 0 && n > exp.limit
}
