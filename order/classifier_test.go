package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		attributed bool
		wantOK     bool
		wantCat    Category
		wantName   string
	}{
		{"public const", "public const int Foo = 1;", false, true, PublicConst, "Foo"},
		{"private const", "private const int Bar = 2;", false, true, PrivateConst, "Bar"},
		{"internal static const", "internal const string Tag = \"x\";", false, true, PrivateConst, "Tag"},
		{"static readonly", "public static readonly int Max = 3;", false, true, ReadonlyField, "Max"},
		{"readonly with initializer call", "private readonly List<int> _items = new List<int>();", false, true, ReadonlyField, "_items"},
		{"attributed private field", "private int health;", true, true, AttributedField, "health"},
		{"attributed without modifier", "float speed = 2f;", true, true, AttributedField, "speed"},
		{"attributed unnamed", "= 5;", true, true, AttributedField, UnknownName},
		{"event", "public event Action<int> OnValue;", false, true, Event, "OnValue"},
		{"event without name", "public event Action;", false, true, Event, UnknownName},
		{"auto property", "public int Count { get; private set; }", false, true, Property, "Count"},
		{"init property", "public string Id { init; get; }", false, true, Property, "Id"},
		{"accessor block", "public string Name { get { return _name; } }", false, true, Property, "Name"},
		{"property header", "public string Name {", false, true, Property, "Name"},
		{"expression property", "public int Health => _health;", false, true, Property, "Health"},
		{"indexer", "public int this[int i] { get { return 0; } }", false, true, Property, "this"},
		{"private field", "private int x;", false, true, PrivateField, "x"},
		{"static field", "private static int _counter = 0;", false, true, PrivateField, "_counter"},
		{"generic public field", "public Dictionary<string, int> Map;", false, true, PublicField, "Map"},
		{"public method", "public void Run() { }", false, true, PublicMethod, "Run"},
		{"private method", "private void Helper() {", false, true, PrivateMethod, "Helper"},
		{"protected virtual", "protected virtual void OnHit(int damage) { }", false, true, PrivateMethod, "OnHit"},
		{"expression method", "public int Sum(int a) => a + 1;", false, true, PublicMethod, "Sum"},
		{"generic method with constraint", "public T Get<T>() where T : class", false, true, PublicMethod, "Get"},
		{"constructor with base call", "public Player(int hp) : base(hp) { }", false, true, PublicMethod, "Player"},
		{"abstract method", "public abstract void Tick();", false, true, PublicMethod, "Tick"},
		{"conversion operator", "public static implicit operator int(Foo f) => f.x;", false, true, PublicMethod, "operator int"},
		{"explicit conversion", "public static explicit operator Foo(int v) { return new Foo(v); }", false, true, PublicMethod, "operator Foo"},
		{"binary operator", "public static Foo operator +(Foo a, Foo b) { return a; }", false, true, PublicMethod, "operator +"},
		{"equality operator", "public static bool operator ==(Foo a, Foo b) => a.X == b.X;", false, true, PublicMethod, "operator =="},
		{"checked operator", "public static Foo operator checked -(Foo a)", false, true, PublicMethod, "operator -"},
		{"lifecycle no modifier", "void Update() { }", false, true, LifecycleMethod, "Update"},
		{"lifecycle public", "public void Start()", false, true, LifecycleMethod, "Start"},
		{"lifecycle expression", "void LateUpdate() => Tick();", false, true, LifecycleMethod, "LateUpdate"},
		{"lifecycle is case sensitive", "void update() { }", false, true, PrivateMethod, "update"},
		{"member call", "Debug.Log(\"x\");", false, false, 0, ""},
		{"control flow", "if (x > 0) {", false, false, 0, ""},
		{"local variable", "int count = 0;", false, false, 0, ""},
		{"bare call", "DoThing();", false, false, 0, ""},
		{"construction", "var x = new Foo();", false, false, 0, ""},
		{"return statement", "return Compute(a, b);", false, false, 0, ""},
		{"nested type header", "public class Nested {", false, false, 0, ""},
		{"enum header", "private enum State {", false, false, 0, ""},
		{"closing brace", "}", false, false, 0, ""},
		{"opening brace", "{", false, false, 0, ""},
		{"empty", "   ", false, false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := Classify(tt.text, tt.attributed)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantCat, m.Category)
			assert.Equal(t, tt.wantName, m.Name)
		})
	}
}

func TestClassify_ConstOutranksField(t *testing.T) {
	// Matches both the constant and the field shape
	m, ok := Classify("public const int Limit = 10;", false)
	assert.True(t, ok)
	assert.Equal(t, PublicConst, m.Category)

	// Constant also wins over the attributed flag
	m, ok = Classify("private const int Limit = 10;", true)
	assert.True(t, ok)
	assert.Equal(t, PrivateConst, m.Category)
}

func TestClassify_ReadonlyOutranksAttributed(t *testing.T) {
	m, ok := Classify("private readonly int seed;", true)
	assert.True(t, ok)
	assert.Equal(t, ReadonlyField, m.Category)
}

func TestClassify_CollapsesWhitespace(t *testing.T) {
	m, ok := Classify("public   int\tCount  {  get;  set; }", false)
	assert.True(t, ok)
	assert.Equal(t, Property, m.Category)
	assert.Equal(t, "Count", m.Name)
}

func TestIsLifecycleMethod(t *testing.T) {
	for _, name := range []string{"Awake", "OnEnable", "Start", "FixedUpdate", "Update", "LateUpdate", "OnDisable", "OnDestroy", "OnTriggerEnter2D"} {
		assert.True(t, IsLifecycleMethod(name), name)
	}
	for _, name := range []string{"awake", "Run", "Updated", ""} {
		assert.False(t, IsLifecycleMethod(name), name)
	}
}
