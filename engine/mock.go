package engine

import (
	"html"
	"io"
	"strings"
)

// MockEngine is a mock engine for testing. It replaces {{name}} with the
// escaped (or raw) value and records every call.
type MockEngine struct {
	CallCount    int              // Number of times Execute was called
	LastTemplate *Template        // Last template received
	LastVars     map[string]Value // Last variables received
	Err          error            // Returned from Execute when set
}

// NewMockEngine creates a new mock engine.
func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

// Execute performs naive placeholder replacement.
func (m *MockEngine) Execute(w io.Writer, tpl Template, vars map[string]Value) error {
	m.CallCount++
	m.LastTemplate = &tpl
	m.LastVars = vars

	if m.Err != nil {
		return m.Err
	}

	pairs := make([]string, 0, len(vars)*2)
	for name, v := range vars {
		text := v.Text
		if !v.Raw {
			text = html.EscapeString(text)
		}
		pairs = append(pairs, "{{"+name+"}}", text)
	}

	_, err := io.WriteString(w, strings.NewReplacer(pairs...).Replace(string(tpl.Source)))
	return err
}

// Name returns "mock".
func (m *MockEngine) Name() string {
	return "mock"
}

// Reset resets the call count and last call.
func (m *MockEngine) Reset() {
	m.CallCount = 0
	m.LastTemplate = nil
	m.LastVars = nil
}

// Verify MockEngine implements Engine
var _ Engine = (*MockEngine)(nil)
