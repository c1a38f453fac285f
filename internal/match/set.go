package match

import (
	"math/bits"
	"strconv"
	"strings"
)

const wordSize = 64

// Set is a set of non-negative offsets into an input. The zero-value is an
// empty set ready for use.
//
// Set is a value type backed by a bit vector; methods that modify a Set have
// pointer receivers and methods that produce a new Set never share memory with
// their receiver.
type Set struct {
	words []uint64
}

// NewSet returns a Set containing the given offsets.
func NewSet(offsets ...int) Set {
	var s Set
	for _, o := range offsets {
		s.Add(o)
	}
	return s
}

// Add adds the given offset to the Set. Negative offsets are ignored.
func (s *Set) Add(offset int) {
	if offset < 0 {
		return
	}
	w := offset / wordSize
	for len(s.words) <= w {
		s.words = append(s.words, 0)
	}
	s.words[w] |= 1 << uint(offset%wordSize)
}

// AddAll adds every offset in s2 to the Set.
func (s *Set) AddAll(s2 Set) {
	for len(s.words) < len(s2.words) {
		s.words = append(s.words, 0)
	}
	for i := range s2.words {
		s.words[i] |= s2.words[i]
	}
}

// Has returns whether the set contains the given offset.
func (s Set) Has(offset int) bool {
	if offset < 0 {
		return false
	}
	w := offset / wordSize
	if w >= len(s.words) {
		return false
	}
	return s.words[w]&(1<<uint(offset%wordSize)) != 0
}

// Len returns the number of offsets in the set.
func (s Set) Len() int {
	count := 0
	for _, w := range s.words {
		count += bits.OnesCount64(w)
	}
	return count
}

// Empty returns whether the set has no offsets in it.
func (s Set) Empty() bool {
	for _, w := range s.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Max returns the largest offset in the set, or -1 if the set is empty.
func (s Set) Max() int {
	for i := len(s.words) - 1; i >= 0; i-- {
		if s.words[i] != 0 {
			return i*wordSize + wordSize - 1 - bits.LeadingZeros64(s.words[i])
		}
	}
	return -1
}

// Union returns a new Set that contains every offset in s or s2.
func (s Set) Union(s2 Set) Set {
	u := s.Copy()
	u.AddAll(s2)
	return u
}

// Copy returns a duplicate of the set.
func (s Set) Copy() Set {
	if s.words == nil {
		return Set{}
	}
	words := make([]uint64, len(s.words))
	copy(words, s.words)
	return Set{words: words}
}

// Equal returns whether two sets contain exactly the same offsets.
func (s Set) Equal(s2 Set) bool {
	long, short := s.words, s2.words
	if len(long) < len(short) {
		long, short = short, long
	}
	for i := range short {
		if long[i] != short[i] {
			return false
		}
	}
	for i := len(short); i < len(long); i++ {
		if long[i] != 0 {
			return false
		}
	}
	return true
}

// SubsetOf returns whether every offset in s is also in s2.
func (s Set) SubsetOf(s2 Set) bool {
	for i, w := range s.words {
		var other uint64
		if i < len(s2.words) {
			other = s2.words[i]
		}
		if w&^other != 0 {
			return false
		}
	}
	return true
}

// Slice returns the offsets in the set in ascending order.
func (s Set) Slice() []int {
	offsets := make([]int, 0, s.Len())
	s.Each(func(o int) {
		offsets = append(offsets, o)
	})
	return offsets
}

// Each calls fn with every offset in the set, in ascending order.
func (s Set) Each(fn func(offset int)) {
	for i, w := range s.words {
		for w != 0 {
			low := bits.TrailingZeros64(w)
			fn(i*wordSize + low)
			w &= w - 1
		}
	}
}

// String shows the contents of the set in ascending order, such as "{1, 4}".
func (s Set) String() string {
	var sb strings.Builder

	sb.WriteRune('{')
	first := true
	s.Each(func(o int) {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(strconv.Itoa(o))
	})
	sb.WriteRune('}')

	return sb.String()
}
