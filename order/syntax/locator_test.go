package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/memberorder/order"
)

func TestLocator_NestedTypes(t *testing.T) {
	src := `namespace Game
{
    public class Outer
    {
        private int a;
        public struct Inner
        {
            int b;
        }
    }
}
`
	got := NewLocator().Locate(src)
	assert.Equal(t, []order.BodyRange{
		{StartLine: 3, EndLine: 9},
		{StartLine: 6, EndLine: 8},
	}, got)
}

func TestLocator_IgnoresBracesInStrings(t *testing.T) {
	src := `public class A
{
    string s = "}";
    int x;
}
`
	got := NewLocator().Locate(src)
	assert.Equal(t, []order.BodyRange{{StartLine: 1, EndLine: 4}}, got)
}

func TestLocator_Interface(t *testing.T) {
	src := "public interface IDamageable\n{\n    void Hit(int amount);\n}\n"
	got := NewLocator().Locate(src)
	assert.Equal(t, []order.BodyRange{{StartLine: 1, EndLine: 3}}, got)
}

func TestLocator_NoTypes(t *testing.T) {
	assert.Empty(t, NewLocator().Locate("using System;\n"))
}

func TestLocator_Registered(t *testing.T) {
	require.True(t, order.DefaultRegistry.Has(Name))

	l, err := order.DefaultRegistry.Create(Name)
	require.NoError(t, err)
	assert.IsType(t, &Locator{}, l)
}

func TestLocator_WithAnalyzer(t *testing.T) {
	a := order.NewAnalyzer(order.AnalyzerConfig{Locator: NewLocator()})
	src := `public class Config
{
    private string banner = "{";
    private int x;
    public const int Y = 1;
}
`
	got := a.Analyze(order.NewTextDocument("Config.cs", 1, "", src))
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Line)
}
