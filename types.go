package gosnip

import (
	"time"

	"github.com/ZaguanLabs/gosnip/engine"
)

// Value is a variable registered on a snippet.
type Value = engine.Value

// TemplateEngine evaluates snippet sources.
type TemplateEngine = engine.Engine

// RenderCache is the backend the cache capability persists renderings to.
// Every store in the cache package satisfies it.
type RenderCache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// ContentProcessor post-processes rendered output before it is cached.
type ContentProcessor interface {
	Process(content string) (string, error)
	ContentType() string
}

// RenderResult is the outcome of a render.
type RenderResult struct {
	Content  string        // Rendered text
	Cached   bool          // Served from the cache without evaluation
	Duration time.Duration // Wall time spent in Render
}

// PreservedTags contains HTML tags whose whitespace must never be altered.
var PreservedTags = map[string]bool{
	"pre":      true,
	"textarea": true,
	"script":   true,
	"style":    true,
	"code":     true,
	"noscript": true,
}
