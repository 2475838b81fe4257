package processor

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/gosnip"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultStripSelector matches elements removed from rendered output.
const DefaultStripSelector = "[data-snippet-strip]"

var whitespaceRun = regexp.MustCompile(`\s+`)

// HTMLProcessor cleans rendered HTML before it is cached: comments and
// development-only elements are removed, and whitespace can be collapsed.
type HTMLProcessor struct {
	stripComments      bool
	collapseWhitespace bool
	selector           string
	matcher            cascadia.Selector
	selectorErr        error
	preservedTags      map[string]bool
}

// HTMLOption configures an HTMLProcessor.
type HTMLOption func(*HTMLProcessor)

// WithStripComments controls whether comments are removed. On by default.
func WithStripComments(strip bool) HTMLOption {
	return func(p *HTMLProcessor) {
		p.stripComments = strip
	}
}

// WithStripSelector sets the CSS selector of elements to remove. An empty
// selector disables element removal.
func WithStripSelector(selector string) HTMLOption {
	return func(p *HTMLProcessor) {
		p.selector = selector
	}
}

// WithCollapseWhitespace collapses whitespace runs in text outside
// preserved tags.
func WithCollapseWhitespace(collapse bool) HTMLOption {
	return func(p *HTMLProcessor) {
		p.collapseWhitespace = collapse
	}
}

// WithPreservedTags overrides the tags whose content is never altered.
func WithPreservedTags(tags []string) HTMLOption {
	return func(p *HTMLProcessor) {
		preserved := make(map[string]bool, len(tags))
		for _, tag := range tags {
			preserved[strings.ToLower(tag)] = true
		}
		p.preservedTags = preserved
	}
}

// NewHTMLProcessor creates an HTML processor. An invalid strip selector is
// reported by Process.
func NewHTMLProcessor(opts ...HTMLOption) *HTMLProcessor {
	p := &HTMLProcessor{
		stripComments: true,
		selector:      DefaultStripSelector,
		preservedTags: gosnip.PreservedTags,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.selector != "" {
		p.matcher, p.selectorErr = cascadia.Compile(p.selector)
	}
	return p
}

// Process parses content, applies the configured cleanups and serializes it
// back. Content containing an <html> element is handled as a full document,
// anything else as a fragment parsed in the context its first tag needs.
func (p *HTMLProcessor) Process(content string) (string, error) {
	if p.selectorErr != nil {
		return "", &gosnip.ProcessorError{
			Message:     "invalid strip selector " + p.selector,
			Cause:       p.selectorErr,
			ContentType: "html",
		}
	}

	if strings.Contains(strings.ToLower(content), "<html") {
		return p.processDocument(content)
	}
	return p.processFragment(content)
}

func (p *HTMLProcessor) processDocument(content string) (string, error) {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", &gosnip.ProcessorError{
			Message:     "failed to parse HTML document",
			Cause:       err,
			ContentType: "html",
		}
	}

	p.clean(root)

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", &gosnip.ProcessorError{
			Message:     "failed to serialize HTML",
			Cause:       err,
			ContentType: "html",
		}
	}
	return buf.String(), nil
}

func (p *HTMLProcessor) processFragment(content string) (string, error) {
	root := fragmentContext(content)
	nodes, err := html.ParseFragment(strings.NewReader(content), root)
	if err != nil {
		return "", &gosnip.ProcessorError{
			Message:     "failed to parse HTML fragment",
			Cause:       err,
			ContentType: "html",
		}
	}

	for _, n := range nodes {
		root.AppendChild(n)
	}

	p.clean(root)

	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", &gosnip.ProcessorError{
				Message:     "failed to serialize HTML",
				Cause:       err,
				ContentType: "html",
			}
		}
	}
	return buf.String(), nil
}

// fragmentContexts maps a leading tag to the element it must be parsed
// inside. Table parts parsed in a body context lose their tags.
var fragmentContexts = map[string]string{
	"tr":       "tbody",
	"td":       "tr",
	"th":       "tr",
	"thead":    "table",
	"tbody":    "table",
	"tfoot":    "table",
	"caption":  "table",
	"colgroup": "table",
	"col":      "colgroup",
}

// fragmentContext returns the context element for parsing content, chosen
// from its first start tag. Defaults to body.
func fragmentContext(content string) *html.Node {
	name := "body"
	z := html.NewTokenizer(strings.NewReader(content))
scan:
	for {
		switch z.Next() {
		case html.ErrorToken:
			break scan
		case html.TextToken:
			if strings.TrimSpace(string(z.Text())) != "" {
				break scan
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tag, _ := z.TagName()
			if ctx, ok := fragmentContexts[strings.ToLower(string(tag))]; ok {
				name = ctx
			}
			break scan
		}
	}
	return &html.Node{Type: html.ElementNode, Data: name, DataAtom: atom.Lookup([]byte(name))}
}

// clean applies the configured cleanups to the tree rooted at root.
func (p *HTMLProcessor) clean(root *html.Node) {
	if p.matcher != nil {
		goquery.NewDocumentFromNode(root).FindMatcher(p.matcher).Remove()
	}

	var comments []*html.Node
	var walk func(n *html.Node, preserved bool)
	walk = func(n *html.Node, preserved bool) {
		switch n.Type {
		case html.CommentNode:
			if p.stripComments {
				comments = append(comments, n)
			}
		case html.TextNode:
			if p.collapseWhitespace && !preserved {
				n.Data = whitespaceRun.ReplaceAllString(n.Data, " ")
			}
		case html.ElementNode:
			if p.preservedTags[strings.ToLower(n.Data)] {
				preserved = true
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, preserved)
		}
	}
	walk(root, false)

	for _, n := range comments {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

// ContentType returns "html".
func (p *HTMLProcessor) ContentType() string {
	return "html"
}

// Verify HTMLProcessor implements ContentProcessor
var _ ContentProcessor = (*HTMLProcessor)(nil)
