// Package syntax provides a body locator backed by the tree-sitter C# grammar.
//
// It is registered as the "syntax" locator strategy. Unlike the brace
// locator it ignores braces inside strings and comments, at the cost of a
// full parse per analysis.
package syntax

import (
	"context"
	"log/slog"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"

	"github.com/c360studio/memberorder/order"
)

// Name is the registry name of this strategy.
const Name = "syntax"

func init() {
	order.DefaultRegistry.Register(Name, func() order.Locator {
		return NewLocator()
	})
}

// typeDeclarations are the node kinds whose body is a member list.
var typeDeclarations = map[string]bool{
	"class_declaration":         true,
	"struct_declaration":        true,
	"interface_declaration":     true,
	"record_declaration":        true,
	"record_struct_declaration": true,
}

// Locator finds type bodies from a tree-sitter parse.
type Locator struct {
	mu     sync.Mutex // sitter.Parser is not safe for concurrent use
	parser *sitter.Parser
}

// NewLocator creates a tree-sitter C# locator.
func NewLocator() *Locator {
	p := sitter.NewParser()
	p.SetLanguage(csharp.GetLanguage())
	return &Locator{parser: p}
}

// Locate returns the body ranges in document order, outer types before the
// types they contain. Bodies the parser had to close on its own are skipped.
func (l *Locator) Locate(text string) []order.BodyRange {
	l.mu.Lock()
	tree, err := l.parser.ParseCtx(context.Background(), nil, []byte(text))
	l.mu.Unlock()
	if err != nil {
		slog.Debug("C# parse failed", "error", err)
		return nil
	}
	defer tree.Close()

	var ranges []order.BodyRange
	walk(tree.RootNode(), func(n *sitter.Node) {
		if !typeDeclarations[n.Type()] {
			return
		}
		body := n.ChildByFieldName("body")
		if body == nil || !closed(body) {
			return
		}
		ranges = append(ranges, order.BodyRange{
			StartLine: int(body.StartPoint().Row),
			EndLine:   int(body.EndPoint().Row),
		})
	})
	return ranges
}

// closed reports whether a declaration list ends with a real closing brace.
func closed(body *sitter.Node) bool {
	count := int(body.ChildCount())
	if count == 0 {
		return false
	}
	last := body.Child(count - 1)
	return last != nil && last.Type() == "}" && !last.IsMissing()
}

// walk visits n and its named descendants in pre-order.
func walk(n *sitter.Node, visit func(*sitter.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), visit)
	}
}
