package engine

import (
	"fmt"
	"io"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// Pongo2 evaluates Django-style templates ({{ name }}) with autoescaping.
type Pongo2 struct {
	mu   sync.Mutex
	sets map[string]*pongo2.TemplateSet
}

// NewPongo2 creates a pongo2-backed engine.
func NewPongo2() *Pongo2 {
	return &Pongo2{
		sets: make(map[string]*pongo2.TemplateSet),
	}
}

// Execute renders the template. Raw values are marked safe so autoescaping
// leaves them alone; names missing from vars render as empty strings.
// Variable names must be identifiers (letters, digits, underscore); any
// other name, such as "my-var", fails execution.
func (e *Pongo2) Execute(w io.Writer, tpl Template, vars map[string]Value) error {
	set, err := e.templateSet(tpl.Dir)
	if err != nil {
		return err
	}

	t, err := set.FromBytes(tpl.Source)
	if err != nil {
		return fmt.Errorf("pongo2: parse %s: %w", tpl.Name, err)
	}

	ctx := make(pongo2.Context, len(vars))
	for name, v := range vars {
		if v.Raw {
			ctx[name] = pongo2.AsSafeValue(v.Text)
			continue
		}
		ctx[name] = v.Text
	}

	if err := t.ExecuteWriter(ctx, w); err != nil {
		return fmt.Errorf("pongo2: execute %s: %w", tpl.Name, err)
	}
	return nil
}

// Name returns "pongo2".
func (e *Pongo2) Name() string {
	return "pongo2"
}

// templateSet returns the set rooted at dir, creating it on first use.
func (e *Pongo2) templateSet(dir string) (*pongo2.TemplateSet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if set, ok := e.sets[dir]; ok {
		return set, nil
	}

	// An empty dir resolves includes against the working directory.
	loader, err := pongo2.NewLocalFileSystemLoader(dir)
	if err != nil {
		return nil, fmt.Errorf("pongo2: create loader for %s: %w", dir, err)
	}

	set := pongo2.NewSet("gosnip:"+dir, loader)
	e.sets[dir] = set
	return set, nil
}

// Verify Pongo2 implements Engine
var _ Engine = (*Pongo2)(nil)
