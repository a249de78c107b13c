package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func members(cats ...Category) []Member {
	out := make([]Member, len(cats))
	for i, c := range cats {
		out[i] = Member{Name: c.String(), Category: c, Line: i}
	}
	return out
}

func TestValidate_FewerThanTwoMembers(t *testing.T) {
	o := DefaultCanonicalOrder()
	assert.Empty(t, Validate(nil, o))
	assert.Empty(t, Validate(members(PrivateMethod), o))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		members   []Member
		wantLines []int
	}{
		{"ordered", members(PublicConst, PrivateConst, PrivateField, Property, PublicMethod), nil},
		{"equal ranks interchangeable", members(PrivateField, PrivateField, PublicMethod, PublicMethod), nil},
		{"single inversion", members(PrivateField, PublicConst), []int{1}},
		{"threshold never shrinks", members(PublicMethod, PrivateField, PublicConst, Property), []int{1, 2, 3}},
		{"every later lower rank flagged", members(PrivateMethod, PublicConst, PrivateConst), []int{1, 2}},
	}

	o := DefaultCanonicalOrder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lines []int
			for _, v := range Validate(tt.members, o) {
				lines = append(lines, v.Line)
			}
			assert.Equal(t, tt.wantLines, lines)
		})
	}
}

func TestValidate_ViolationFields(t *testing.T) {
	ms := []Member{
		{Name: "x", Category: PrivateField, Line: 4},
		{Name: "Y", Category: PublicConst, Line: 5},
	}

	got := Validate(ms, DefaultCanonicalOrder())
	require.Len(t, got, 1)
	assert.Equal(t, 5, got[0].Line)
	assert.Equal(t, 5, got[0].EndLine)
	assert.Equal(t, 0, got[0].StartColumn)
	assert.Equal(t, SeverityWarning, got[0].Severity)
	assert.Equal(t, Source, got[0].Source)
	assert.Equal(t, `PublicConst "Y" should appear before PrivateField`, got[0].Message)
}

func TestValidate_UnconfiguredCategoryRaisesToTail(t *testing.T) {
	o, warnings := NewCanonicalOrder([]string{"PublicConst", "PrivateField"})
	require.Empty(t, warnings)

	ms := []Member{
		{Name: "a", Category: PrivateField, Line: 1},
		{Name: "Changed", Category: Event, Line: 2},
		{Name: "b", Category: PrivateField, Line: 3},
		{Name: "Run", Category: PublicMethod, Line: 4},
	}

	got := Validate(ms, o)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Line)
	// The tail rank is named by reverse lookup: the first unconfigured category
	assert.Equal(t, `PrivateField "b" should appear before PrivateConst`, got[0].Message)
	assert.Equal(t, o.CategoryName(o.Rank(Event)), "PrivateConst")
}

func TestValidate_TailRankNameIgnoresRaisingCategory(t *testing.T) {
	o, _ := NewCanonicalOrder([]string{"PublicConst", "PrivateField"})

	ms := []Member{
		{Name: "a", Category: PrivateField, Line: 1},
		{Name: "Run", Category: PublicMethod, Line: 2},
		{Name: "b", Category: PrivateField, Line: 3},
	}

	got := Validate(ms, o)
	require.Len(t, got, 1)
	assert.Equal(t, `PrivateField "b" should appear before `+o.CategoryName(2), got[0].Message)
	assert.NotContains(t, got[0].Message, "PublicMethod")
}

func TestValidateTrace_Monotonic(t *testing.T) {
	o := DefaultCanonicalOrder()
	inputs := [][]Member{
		members(PrivateMethod, PublicConst, Event, ReadonlyField, PublicMethod),
		members(PublicConst, PrivateMethod, PrivateConst, PrivateMethod),
		members(Property, Property, PrivateField, LifecycleMethod, AttributedField, PublicField),
	}

	for _, ms := range inputs {
		_, trace := ValidateTrace(ms, o)
		require.Len(t, trace, len(ms))
		for i := 1; i < len(trace); i++ {
			assert.GreaterOrEqual(t, trace[i], trace[i-1])
		}
	}
}

func TestValidate_CustomOrder(t *testing.T) {
	// Methods first
	o, _ := NewCanonicalOrder([]string{"PublicMethod", "PrivateField"})
	got := Validate(members(PrivateField, PublicMethod), o)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "should appear before PrivateField")
}
