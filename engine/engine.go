// Package engine provides template evaluation backends for snippets.
package engine

import "io"

// Value is a single variable made available to a template.
type Value struct {
	Text string // Replacement text
	Raw  bool   // Insert verbatim instead of escaping
}

// Text returns an escaped value.
func Text(s string) Value {
	return Value{Text: s}
}

// Raw returns a value that is inserted without escaping.
func Raw(s string) Value {
	return Value{Text: s, Raw: true}
}

// Template is a snippet source ready for evaluation.
type Template struct {
	Name   string // File identifier, used for error messages
	Dir    string // Base directory used to resolve includes
	Source []byte // Raw template source
}

// Engine evaluates a template against an explicit variable mapping.
type Engine interface {
	// Execute renders tpl into w. Every key of vars is addressable by name
	// from the template.
	Execute(w io.Writer, tpl Template, vars map[string]Value) error

	// Name identifies the engine ("pongo2", "html", ...).
	Name() string
}
