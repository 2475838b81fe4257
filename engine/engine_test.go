package engine

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPongo2_EscapesByDefault(t *testing.T) {
	e := NewPongo2()
	var buf bytes.Buffer

	err := e.Execute(&buf, Template{Name: "card.html", Source: []byte("<p>{{ name }}</p>")}, map[string]Value{
		"name": Text("<b>Tom & Jerry</b>"),
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>&lt;b&gt;Tom &amp; Jerry&lt;/b&gt;</p>", buf.String())
}

func TestPongo2_RawValue(t *testing.T) {
	e := NewPongo2()
	var buf bytes.Buffer

	err := e.Execute(&buf, Template{Name: "card.html", Source: []byte("<p>{{ body }}</p>")}, map[string]Value{
		"body": Raw("<b>bold</b>"),
	})
	require.NoError(t, err)
	assert.Equal(t, "<p><b>bold</b></p>", buf.String())
}

func TestPongo2_MissingVariableRendersEmpty(t *testing.T) {
	e := NewPongo2()
	var buf bytes.Buffer

	err := e.Execute(&buf, Template{Name: "card.html", Source: []byte("[{{ missing }}]")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", buf.String())
}

func TestPongo2_InvalidIdentifier(t *testing.T) {
	e := NewPongo2()
	var buf bytes.Buffer

	err := e.Execute(&buf, Template{Name: "card.html", Source: []byte("x")}, map[string]Value{
		"not-valid": Text("v"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card.html")
}

func TestPongo2_ParseError(t *testing.T) {
	e := NewPongo2()
	var buf bytes.Buffer

	err := e.Execute(&buf, Template{Name: "broken.html", Source: []byte("{% if %}")}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pongo2: parse broken.html")
}

func TestPongo2_ReusesTemplateSetPerDir(t *testing.T) {
	dir := t.TempDir()
	e := NewPongo2()

	a, err := e.templateSet(dir)
	require.NoError(t, err)
	b, err := e.templateSet(dir)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Len(t, e.sets, 1)
}

func TestHTML_EscapesByDefault(t *testing.T) {
	e := NewHTML()
	var buf bytes.Buffer

	err := e.Execute(&buf, Template{Name: "card.html", Source: []byte("<p>{{ .name }}</p>")}, map[string]Value{
		"name": Text("<b>x</b>"),
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>&lt;b&gt;x&lt;/b&gt;</p>", buf.String())
}

func TestHTML_RawValue(t *testing.T) {
	e := NewHTML()
	var buf bytes.Buffer

	err := e.Execute(&buf, Template{Name: "card.html", Source: []byte("<p>{{ .body }}</p>")}, map[string]Value{
		"body": Raw("<i>x</i>"),
	})
	require.NoError(t, err)
	assert.Equal(t, "<p><i>x</i></p>", buf.String())
}

func TestHTML_StrictVariables(t *testing.T) {
	var buf bytes.Buffer

	lenient := NewHTML()
	require.NoError(t, lenient.Execute(&buf, Template{Name: "a", Source: []byte("{{ .missing }}")}, nil))

	strict := NewHTML(WithStrictVariables())
	err := strict.Execute(&buf, Template{Name: "a", Source: []byte("{{ .missing }}")}, map[string]Value{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "html: execute a")
}

func TestHTML_Funcs(t *testing.T) {
	e := NewHTML(WithFuncs(map[string]any{
		"shout": func(s string) string { return s + "!" },
	}))
	var buf bytes.Buffer

	err := e.Execute(&buf, Template{Name: "a", Source: []byte("{{ shout .name }}")}, map[string]Value{
		"name": Text("hi"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hi!", buf.String())
}

func TestMockEngine(t *testing.T) {
	m := NewMockEngine()
	var buf bytes.Buffer

	err := m.Execute(&buf, Template{Name: "a", Source: []byte("{{a}} {{b}}")}, map[string]Value{
		"a": Text("<x>"),
		"b": Raw("<y>"),
	})
	require.NoError(t, err)
	assert.Equal(t, "&lt;x&gt; <y>", buf.String())
	assert.Equal(t, 1, m.CallCount)
	assert.Equal(t, "a", m.LastTemplate.Name)

	m.Err = errors.New("boom")
	assert.EqualError(t, m.Execute(&buf, Template{}, nil), "boom")

	m.Reset()
	assert.Zero(t, m.CallCount)
	assert.Nil(t, m.LastTemplate)
}
