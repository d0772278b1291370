// Package preview renders compiled IR as static HTML for inspection.
//
// Expressions are never evaluated. Printed values appear as escaped
// placeholders showing their source code, conditionals render their first
// branch and loops render their body once. Components and slots render as
// custom elements carrying their name so the page structure stays visible.
package preview

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/orbit/internal/ast"
	"github.com/conneroisu/orbit/internal/escape"
	"github.com/conneroisu/orbit/internal/ir"
	"github.com/conneroisu/orbit/internal/logging"
	"github.com/conneroisu/orbit/internal/token"
)

// Element names used for constructs that have no HTML counterpart.
const (
	ComponentElement   = "orbit-component"
	SlotElement        = "orbit-slot"
	ExpressionElement  = "orbit-expr"
	RaiseElement       = "orbit-raise"
	DynamicTagSplatKey = "data-orbit-splat"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Renderer turns IR trees into templ components.
type Renderer struct {
	escaper escape.Escaper
	logger  logging.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithEscaper overrides the escaper used for placeholders and attribute
// values.
func WithEscaper(e escape.Escaper) Option {
	return func(r *Renderer) { r.escaper = e.Or() }
}

// WithLogger sets the logger used for tracing.
func WithLogger(logger logging.Logger) Option {
	return func(r *Renderer) { r.logger = logger.WithComponent("preview") }
}

// New returns a renderer using the default escaper.
func New(opts ...Option) *Renderer {
	r := &Renderer{escaper: escape.Default, logger: logging.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render returns a component rendering n with a default renderer.
func Render(n ir.Node, opts ...Option) templ.Component {
	return New(opts...).Component(n)
}

// Component returns a templ component that writes the preview of n.
func (r *Renderer) Component(n ir.Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w, esc: r.escaper}
		p.node(n)
		if p.err != nil {
			r.logger.Warn(ctx, p.err, "Preview render failed")
		}
		return p.err
	})
}

// Page wraps the preview of n in a standalone HTML document. overlay is
// trusted HTML placed above the content, typically an error overlay.
func (r *Renderer) Page(title string, n ir.Node, overlay string) templ.Component {
	body := r.Component(n)
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t := r.escaper(title)
		if _, err := fmt.Fprintf(w, pageHeader, t, t, overlay); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, pageFooter)
		return err
	})
}

const pageHeader = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s - Orbit Preview</title>
<style>
orbit-component, orbit-slot { display: block; outline: 1px dashed #a0aec0; margin: 4px; padding: 4px; }
orbit-component::before, orbit-slot::before { content: attr(name); font: 11px monospace; color: #718096; }
orbit-expr { font-family: monospace; background: #edf2f7; color: #2b6cb0; }
orbit-raise { display: block; font-family: monospace; background: #fff5f5; color: #c53030; }
</style>
</head>
<body>
<h1>Preview: %s</h1>
%s
<main>
`

const pageFooter = `
</main>
</body>
</html>
`

// printer writes one preview. The first write error sticks and stops
// further output.
type printer struct {
	w   io.Writer
	esc escape.Escaper
	err error
}

func (p *printer) write(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) placeholder(code string) {
	p.write("<" + ExpressionElement + ">{" + p.esc(code) + "}</" + ExpressionElement + ">")
}

func (p *printer) node(n ir.Node) {
	switch n := n.(type) {
	case nil:
	case *ir.Multi:
		for _, child := range n.Nodes {
			p.node(child)
		}
	case *ir.Static:
		p.write(n.Text)
	case *ir.Newline:
		p.write("\n")
	case *ir.Escape:
		p.node(n.Value)
	case *ir.Dynamic:
		p.placeholder(n.Code)
	case *ir.Code:
	case *ir.CodeBlock:
		p.node(n.Body)
	case *ir.Block:
		p.node(n.Body)
	case *ir.Capture:
		p.node(n.Body)
	case *ir.If:
		p.node(n.Then)
	case *ir.For:
		p.node(n.Body)
	case *ir.Comment:
		p.write("<!--")
		p.node(n.Body)
		p.write("-->")
	case *ir.HTMLTag:
		p.write("<" + n.Name)
		p.attrs(n.Attrs)
		p.write(">")
		if n.Content == nil && voidElements[n.Name] {
			return
		}
		p.node(n.Content)
		p.write("</" + n.Name + ">")
	case *ir.Component:
		p.wrapper(ComponentElement, n.Tag.ComponentName(), n.Tag, n.Content)
	case *ir.Slot:
		p.wrapper(SlotElement, n.Tag.SlotName(), n.Tag, n.Content)
	case *ir.DynamicTag:
		p.dynamicTag(n)
	case *ir.Raise:
		p.write(fmt.Sprintf("<%s>%s on line %d: %s</%s>",
			RaiseElement, p.esc(n.Kind), n.Line, p.esc(n.Message), RaiseElement))
	default:
		p.err = fmt.Errorf("preview: unsupported IR node %T", n)
	}
}

func (p *printer) attrs(attrs *ir.HTMLAttrs) {
	if attrs == nil {
		return
	}
	for _, a := range attrs.Attrs {
		attr, ok := a.(*ir.HTMLAttr)
		if !ok {
			p.err = fmt.Errorf("preview: unsupported attribute node %T", a)
			return
		}
		p.write(" " + attr.Name)
		if m, ok := attr.Value.(*ir.Multi); ok && len(m.Nodes) == 0 {
			continue
		}
		p.write(`="`)
		p.attrValue(attr.Value)
		p.write(`"`)
	}
}

// attrValue renders an attribute value; placeholders are plain text here.
func (p *printer) attrValue(n ir.Node) {
	switch n := n.(type) {
	case *ir.Multi:
		for _, child := range n.Nodes {
			p.attrValue(child)
		}
	case *ir.Static:
		p.write(strings.ReplaceAll(n.Text, `"`, "&#34;"))
	case *ir.Escape:
		p.attrValue(n.Value)
	case *ir.Dynamic:
		p.write("{" + p.esc(n.Code) + "}")
	default:
		p.err = fmt.Errorf("preview: unsupported attribute value %T", n)
	}
}

func (p *printer) wrapper(element, name string, tag *ast.Tag, content ir.Node) {
	p.write("<" + element + ` name="` + p.esc(name) + `"`)
	p.tagAttributes(tag)
	p.write(">")
	p.node(content)
	p.write("</" + element + ">")
}

func (p *printer) dynamicTag(n *ir.DynamicTag) {
	name := n.Tag.Name
	if !n.Tag.HTMLTag() {
		p.wrapper(ComponentElement, n.Tag.ComponentName(), n.Tag, n.Content)
		return
	}
	p.write("<" + name)
	p.tagAttributes(n.Tag)
	p.write(">")
	if n.Tag.IsSelfClosing() && voidElements[name] {
		return
	}
	p.node(n.Content)
	p.write("</" + name + ">")
}

// tagAttributes renders source attributes of a tag kept in the IR.
// Splats are shown in a data attribute since they only exist at runtime.
func (p *printer) tagAttributes(tag *ast.Tag) {
	for _, a := range tag.Attributes {
		switch {
		case a.Splat():
			p.write(" " + DynamicTagSplatKey + `="` + p.esc(a.Value) + `"`)
		case a.Kind == token.AttrBoolean:
			p.write(" " + a.Name)
		case a.Dynamic():
			p.write(" " + a.Name + `="{` + p.esc(a.Value) + `}"`)
		default:
			p.write(" " + a.Name + `="` + p.esc(a.Value) + `"`)
		}
	}
}
