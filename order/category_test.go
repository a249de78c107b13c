package order

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_Names(t *testing.T) {
	assert.Equal(t, []string{
		"PublicConst", "PrivateConst", "ReadonlyField", "AttributedField",
		"PrivateField", "PublicField", "Property", "Event",
		"LifecycleMethod", "PublicMethod", "PrivateMethod",
	}, DefaultOrderNames())

	for _, c := range Categories() {
		parsed, ok := ParseCategory(c.String())
		require.True(t, ok)
		assert.Equal(t, c, parsed)
	}

	_, ok := ParseCategory("publicconst")
	assert.False(t, ok, "names are case sensitive")
	assert.Equal(t, "invalid(-1)", Category(-1).String())
}

func TestCategory_Text(t *testing.T) {
	var c Category
	require.NoError(t, c.UnmarshalText([]byte("Event")))
	assert.Equal(t, Event, c)

	err := c.UnmarshalText([]byte("Nope"))
	assert.ErrorContains(t, err, `unknown member category "Nope"`)

	_, err = Category(99).MarshalText()
	assert.Error(t, err)
}

func TestViolation_JSON(t *testing.T) {
	data, err := json.Marshal(Violation{Line: 3, EndLine: 3, EndColumn: 12, Message: "m", Severity: SeverityWarning, Source: Source})
	require.NoError(t, err)
	assert.JSONEq(t, `{"line":3,"start_column":0,"end_line":3,"end_column":12,"message":"m","severity":"warning","source":"memberorder"}`, string(data))
}

func TestLanguageForPath(t *testing.T) {
	assert.Equal(t, LanguageCSharp, LanguageForPath("file:///proj/Assets/Player.cs"))
	assert.Equal(t, LanguageCSharp, LanguageForPath("Player.CS"))
	assert.Equal(t, "", LanguageForPath("notes.txt"))

	doc := NewTextDocument("Enemy.cs", 1, "", "")
	assert.True(t, Supported(doc))
	assert.False(t, Supported(NewTextDocument("Enemy.cs", 1, "plaintext", "")))
	assert.False(t, Supported(nil))
}

func TestSeverity_Text(t *testing.T) {
	var v Violation
	require.NoError(t, json.Unmarshal([]byte(`{"line":1,"severity":"hint"}`), &v))
	assert.Equal(t, SeverityHint, v.Severity)

	assert.Error(t, json.Unmarshal([]byte(`{"severity":"fatal"}`), &v))
	assert.Equal(t, "unknown", Severity(0).String())
}
