package order

import (
	"testing"
)

type fixedLocator struct {
	ranges []BodyRange
}

func (l fixedLocator) Locate(string) []BodyRange { return l.ranges }

func TestLocatorRegistry_Default(t *testing.T) {
	registry := NewLocatorRegistry()

	if !registry.Has(DefaultLocatorName) {
		t.Fatalf("expected %q to be registered", DefaultLocatorName)
	}

	l, err := registry.Create("")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, ok := l.(*BraceLocator); !ok {
		t.Errorf("expected *BraceLocator, got %T", l)
	}
}

func TestLocatorRegistry_Register(t *testing.T) {
	registry := NewLocatorRegistry()

	first := fixedLocator{ranges: []BodyRange{{StartLine: 1, EndLine: 2}}}
	second := fixedLocator{}
	registry.Register("fixed", func() Locator { return first })
	registry.Register("fixed", func() Locator { return second })

	l, err := registry.Create("fixed")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got := l.Locate(""); len(got) != 1 {
		t.Errorf("first registration should win, got ranges %v", got)
	}

	names := registry.Names()
	if len(names) != 2 || names[0] != "brace" || names[1] != "fixed" {
		t.Errorf("expected [brace fixed], got %v", names)
	}
}

func TestLocatorRegistry_CreateUnknown(t *testing.T) {
	registry := NewLocatorRegistry()

	if _, err := registry.Create("nope"); err == nil {
		t.Error("expected error for unregistered locator")
	}
}
