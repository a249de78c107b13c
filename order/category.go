// Package order classifies the members of C# type bodies and checks them
// against a configured canonical ordering.
//
// The scanner is heuristic: it works on lines and lexical patterns rather
// than a syntax tree, so it stays linear in file size and tolerates
// half-typed code while a document is being edited.
package order

import (
	"fmt"
)

// Category classifies a member declaration.
type Category int

// Categories in their default canonical order.
const (
	PublicConst Category = iota
	PrivateConst
	ReadonlyField
	AttributedField
	PrivateField
	PublicField
	Property
	Event
	LifecycleMethod
	PublicMethod
	PrivateMethod

	categoryCount = iota
)

var categoryNames = [categoryCount]string{
	PublicConst:     "PublicConst",
	PrivateConst:    "PrivateConst",
	ReadonlyField:   "ReadonlyField",
	AttributedField: "AttributedField",
	PrivateField:    "PrivateField",
	PublicField:     "PublicField",
	Property:        "Property",
	Event:           "Event",
	LifecycleMethod: "LifecycleMethod",
	PublicMethod:    "PublicMethod",
	PrivateMethod:   "PrivateMethod",
}

var categoryByName = func() map[string]Category {
	m := make(map[string]Category, categoryCount)
	for i, name := range categoryNames {
		m[name] = Category(i)
	}
	return m
}()

// Categories returns every category in default canonical order.
func Categories() []Category {
	out := make([]Category, categoryCount)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// DefaultOrderNames returns the category names in default canonical order.
func DefaultOrderNames() []string {
	out := make([]string, categoryCount)
	copy(out, categoryNames[:])
	return out
}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	return c >= 0 && c < categoryCount
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("invalid(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseCategory resolves an exact category name.
func ParseCategory(name string) (Category, bool) {
	c, ok := categoryByName[name]
	return c, ok
}

// MarshalText renders the category name for configs and reports.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid member category %d", int(c))
	}
	return []byte(categoryNames[c]), nil
}

// UnmarshalText for setting values with configs, CLI, etc.
func (c *Category) UnmarshalText(rawtext []byte) error {
	v, ok := categoryByName[string(rawtext)]
	if !ok {
		return fmt.Errorf("unknown member category %q", string(rawtext))
	}
	*c = v
	return nil
}
