package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCanonicalOrder(t *testing.T) {
	o := DefaultCanonicalOrder()
	for i, c := range Categories() {
		assert.Equal(t, i, o.Rank(c), c.String())
		assert.Equal(t, c.String(), o.CategoryName(i))
	}
	assert.Equal(t, DefaultOrderNames(), o.Names())
}

func TestNewCanonicalOrder_DuplicatesFirstWins(t *testing.T) {
	o, warnings := NewCanonicalOrder([]string{"PrivateField", "PublicConst", "PrivateField"})

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "duplicate")
	assert.Equal(t, 0, o.Rank(PrivateField))
	assert.Equal(t, 1, o.Rank(PublicConst))

	// Absent categories share the tail rank
	assert.Equal(t, 3, o.Rank(Event))
	assert.Equal(t, 3, o.Rank(PrivateConst))
	assert.Equal(t, 3, o.Rank(Category(42)))
}

func TestNewCanonicalOrder_UnknownNames(t *testing.T) {
	o, warnings := NewCanonicalOrder([]string{"Bogus", "Event"})

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `"Bogus"`)
	assert.Equal(t, 1, o.Rank(Event))
	assert.Equal(t, 2, o.Rank(PublicConst))
}

func TestCanonicalOrder_CategoryNameFallbacks(t *testing.T) {
	o, _ := NewCanonicalOrder([]string{"Bogus", "Event"})

	// Inverse map
	assert.Equal(t, "Event", o.CategoryName(1))
	// Configured sequence by index
	assert.Equal(t, "Bogus", o.CategoryName(0))
	// First category sharing the tail rank
	assert.Equal(t, "PublicConst", o.CategoryName(2))
	// Nothing holds the rank
	assert.Equal(t, "rank 7", o.CategoryName(7))
}

func TestNewCanonicalOrder_DoesNotAliasInput(t *testing.T) {
	names := []string{"PublicConst", "PrivateConst"}
	o, _ := NewCanonicalOrder(names)
	names[0] = "Event"
	assert.Equal(t, []string{"PublicConst", "PrivateConst"}, o.Names())
}
