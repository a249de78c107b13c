package order

import (
	"path/filepath"
	"strings"
)

// LanguageCSharp is the only language identifier the analyzer accepts.
const LanguageCSharp = "csharp"

// Document is the host's view of an open text buffer.
type Document interface {
	// Text returns the full buffer content
	Text() string

	// URI is a stable identity for the document
	URI() string

	// Version increases on every edit
	Version() int

	// LanguageID discriminates the file type (e.g. "csharp")
	LanguageID() string
}

// TextDocument is a plain Document value.
type TextDocument struct {
	DocURI      string
	DocVersion  int
	DocLanguage string
	Content     string
}

// NewTextDocument creates a document, inferring the language from the URI
// extension when languageID is empty.
func NewTextDocument(uri string, version int, languageID, content string) *TextDocument {
	if languageID == "" {
		languageID = LanguageForPath(uri)
	}
	return &TextDocument{
		DocURI:      uri,
		DocVersion:  version,
		DocLanguage: languageID,
		Content:     content,
	}
}

func (d *TextDocument) Text() string       { return d.Content }
func (d *TextDocument) URI() string        { return d.DocURI }
func (d *TextDocument) Version() int       { return d.DocVersion }
func (d *TextDocument) LanguageID() string { return d.DocLanguage }

// LanguageForPath maps a file path or URI to a language identifier.
// Returns empty string for unsupported extensions.
func LanguageForPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".cs") {
		return LanguageCSharp
	}
	return ""
}

// Supported reports whether the analyzer handles the document's language.
func Supported(doc Document) bool {
	return doc != nil && doc.LanguageID() == LanguageCSharp
}
