package order

import (
	"fmt"
)

// CanonicalOrder maps each category to a rank; smaller ranks come first.
// It is immutable after construction.
type CanonicalOrder struct {
	names  []string
	ranks  [categoryCount]int
	byRank map[int]Category
	tail   int
}

// NewCanonicalOrder builds an order from a sequence of category names.
//
// A category's rank is the index of its first occurrence. Categories absent
// from the sequence rank len(names) and sort last. Duplicate and unknown names
// do not fail construction; they are returned as warnings for the caller to log.
func NewCanonicalOrder(names []string) (*CanonicalOrder, []string) {
	o := &CanonicalOrder{
		names:  append([]string(nil), names...),
		byRank: make(map[int]Category, len(names)),
		tail:   len(names),
	}

	var warnings []string
	assigned := [categoryCount]bool{}
	for i, name := range names {
		c, ok := ParseCategory(name)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown member category %q at position %d", name, i))
			continue
		}
		if assigned[c] {
			warnings = append(warnings, fmt.Sprintf("duplicate member category %q at position %d ignored", name, i))
			continue
		}
		assigned[c] = true
		o.ranks[c] = i
		o.byRank[i] = c
	}

	for c := range o.ranks {
		if !assigned[c] {
			o.ranks[c] = o.tail
		}
	}

	return o, warnings
}

// DefaultCanonicalOrder returns the order of the eleven categories as declared.
func DefaultCanonicalOrder() *CanonicalOrder {
	o, _ := NewCanonicalOrder(DefaultOrderNames())
	return o
}

// Rank returns the rank of c. Invalid categories rank last.
func (o *CanonicalOrder) Rank(c Category) int {
	if !c.Valid() {
		return o.tail
	}
	return o.ranks[c]
}

// Names returns the configured sequence.
func (o *CanonicalOrder) Names() []string {
	return append([]string(nil), o.names...)
}

// CategoryName names the category holding rank.
//
// Lookup order: the inverse map built at construction, then the configured
// sequence by index, then the first unconfigured category sharing the tail rank.
func (o *CanonicalOrder) CategoryName(rank int) string {
	if c, ok := o.byRank[rank]; ok {
		return c.String()
	}
	if rank >= 0 && rank < len(o.names) {
		return o.names[rank]
	}
	for c, r := range o.ranks {
		if r == rank {
			return Category(c).String()
		}
	}
	return fmt.Sprintf("rank %d", rank)
}
