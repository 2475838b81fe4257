package engine

import (
	"fmt"
	"html/template"
	"io"
)

// HTML evaluates Go html/template sources ({{ .name }}) with contextual escaping.
type HTML struct {
	strict bool
	funcs  template.FuncMap
}

// HTMLOption configures the HTML engine.
type HTMLOption func(*HTML)

// WithStrictVariables makes references to unregistered names fail the render.
func WithStrictVariables() HTMLOption {
	return func(e *HTML) {
		e.strict = true
	}
}

// WithFuncs registers template helper functions.
func WithFuncs(funcs template.FuncMap) HTMLOption {
	return func(e *HTML) {
		for name, fn := range funcs {
			e.funcs[name] = fn
		}
	}
}

// NewHTML creates an html/template-backed engine.
func NewHTML(opts ...HTMLOption) *HTML {
	e := &HTML{
		funcs: template.FuncMap{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute renders the template with vars as the dot value.
func (e *HTML) Execute(w io.Writer, tpl Template, vars map[string]Value) error {
	t := template.New(tpl.Name).Funcs(e.funcs)
	if e.strict {
		t = t.Option("missingkey=error")
	}

	t, err := t.Parse(string(tpl.Source))
	if err != nil {
		return fmt.Errorf("html: parse %s: %w", tpl.Name, err)
	}

	data := make(map[string]any, len(vars))
	for name, v := range vars {
		if v.Raw {
			data[name] = template.HTML(v.Text) // #nosec G203 - raw values are an explicit opt-in
			continue
		}
		data[name] = v.Text
	}

	if err := t.Execute(w, data); err != nil {
		return fmt.Errorf("html: execute %s: %w", tpl.Name, err)
	}
	return nil
}

// Name returns "html".
func (e *HTML) Name() string {
	return "html"
}

// Verify HTML implements Engine
var _ Engine = (*HTML)(nil)
