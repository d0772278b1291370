package compiler

import (
	"context"
	"fmt"

	"github.com/conneroisu/orbit/internal/ast"
	"github.com/conneroisu/orbit/internal/errors"
	"github.com/conneroisu/orbit/internal/ir"
)

// Directives consumed by lowering. Any other directive is kept as a plain
// attribute.
const (
	DirectiveIf  = ":if"
	DirectiveFor = ":for"
)

// Block names with a lowering rule.
const (
	BlockIf  = "if"
	BlockFor = "for"
)

func (c *Compiler) lower(node ast.Node) (ir.Node, error) {
	switch n := node.(type) {
	case *ast.Root:
		return c.lowerChildren(n)
	case *ast.Text:
		return &ir.Static{Text: n.Content}, nil
	case *ast.Newline:
		return &ir.Newline{}, nil
	case *ast.PublicComment:
		return &ir.Comment{Body: &ir.Static{Text: n.Content}}, nil
	case *ast.PrivateComment:
		return &ir.Static{}, nil
	case *ast.PrintingExpression:
		return c.lowerPrinting(n)
	case *ast.ControlExpression:
		return c.lowerControl(n)
	case *ast.Tag:
		return c.lowerTag(n)
	case *ast.Block:
		return c.lowerBlock(n)
	default:
		line := 0
		if node != nil {
			line = node.Pos().Line
		}
		return nil, errors.NewCompilerError(errors.ErrCodeUnknownNode,
			fmt.Sprintf("cannot lower node of type %T", node), line)
	}
}

// lowerChildren lowers each child to exactly one IR node. A child that
// lowers to a Multi (a printing block, code with a body) stays nested so
// the IR keeps one node per source construct.
func (c *Compiler) lowerChildren(n ast.Node) (*ir.Multi, error) {
	out := &ir.Multi{Nodes: make([]ir.Node, 0, len(n.Children()))}
	for _, child := range n.Children() {
		lowered, err := c.lower(child)
		if err != nil {
			return nil, err
		}
		out.Nodes = append(out.Nodes, lowered)
	}
	return out, nil
}

// withChildren returns head alone for leaves, or head followed by the
// lowered children.
func (c *Compiler) withChildren(head ir.Node, n ast.Node) (ir.Node, error) {
	if len(n.Children()) == 0 {
		return head, nil
	}
	body, err := c.lowerChildren(n)
	if err != nil {
		return nil, err
	}
	return ir.NewMulti(append([]ir.Node{head}, body.Nodes...)...), nil
}

func (c *Compiler) lowerPrinting(n *ast.PrintingExpression) (ir.Node, error) {
	if !n.IsBlockOpening() {
		return c.withChildren(ir.EscapedDynamic(n.Expression), n)
	}

	temp := c.nextTemp()
	body, err := c.lowerChildren(n)
	if err != nil {
		return nil, err
	}

	var captured ir.Node = body
	if c.capture {
		captured = &ir.Capture{Temp: temp, Body: body}
	}

	c.logger.Debug(context.Background(), "lowered printing block",
		"expression", n.Expression,
		"temp", temp,
	)
	return ir.NewMulti(
		&ir.Block{Temp: temp, Code: n.Expression, Body: captured},
		ir.EscapedDynamic(temp),
	), nil
}

func (c *Compiler) lowerControl(n *ast.ControlExpression) (ir.Node, error) {
	if !n.IsBlockOpening() {
		return c.withChildren(&ir.Code{Code: n.Expression}, n)
	}

	body, err := c.lowerChildren(n)
	if err != nil {
		return nil, err
	}
	return &ir.CodeBlock{Code: n.Expression, Body: body}, nil
}

func (c *Compiler) lowerBlock(n *ast.Block) (ir.Node, error) {
	body, err := c.lowerChildren(n)
	if err != nil {
		return nil, err
	}

	switch n.Name {
	case BlockIf:
		return &ir.If{Cond: n.Expression, Then: body}, nil
	case BlockFor:
		return &ir.For{Expr: n.Expression, Body: body}, nil
	default:
		return nil, errors.NewCompilerError(errors.ErrCodeUnknownBlock,
			fmt.Sprintf("unknown block {#%s}", n.Name), n.Pos().Line).
			WithLocation(n.Pos().Line, n.Pos().Column)
	}
}

func (c *Compiler) lowerTag(n *ast.Tag) (ir.Node, error) {
	if n.HasDirectives() {
		if d, ok := n.Directive(DirectiveIf); ok {
			if err := requireValue(n, DirectiveIf, d.Value); err != nil {
				return nil, err
			}
			then, err := c.lowerTag(n.WithoutAttribute(DirectiveIf))
			if err != nil {
				return nil, err
			}
			return &ir.If{Cond: d.Value, Then: then}, nil
		}
		if d, ok := n.Directive(DirectiveFor); ok {
			if err := requireValue(n, DirectiveFor, d.Value); err != nil {
				return nil, err
			}
			body, err := c.lowerTag(n.WithoutAttribute(DirectiveFor))
			if err != nil {
				return nil, err
			}
			return &ir.For{Expr: d.Value, Body: body}, nil
		}
	}

	content, err := c.lowerChildren(n)
	if err != nil {
		return nil, err
	}

	switch {
	case n.HasSplats():
		return &ir.DynamicTag{Tag: n, Content: content}, nil
	case n.HTMLTag():
		tag := &ir.HTMLTag{Name: n.Name, Attrs: lowerAttributes(n.Attributes)}
		if !n.IsSelfClosing() {
			tag.Content = content
		}
		return tag, nil
	case n.ComponentTag():
		return &ir.Component{Tag: n, Content: content}, nil
	case n.ComponentSlotTag():
		return &ir.Slot{Tag: n, Content: content}, nil
	default:
		return nil, errors.NewCompilerError(errors.ErrCodeUnknownNode,
			fmt.Sprintf("tag <%s> is neither an element nor a component", n.Name), n.Pos().Line).
			WithLocation(n.Pos().Line, n.Pos().Column)
	}
}

func requireValue(n *ast.Tag, directive, value string) error {
	if value != "" {
		return nil
	}
	return errors.NewCompilerError(errors.ErrCodeInvalidDirective,
		fmt.Sprintf("directive %s on <%s> needs an expression", directive, n.Name), n.Pos().Line).
		WithLocation(n.Pos().Line, n.Pos().Column)
}
