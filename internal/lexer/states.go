package lexer

import (
	"strings"

	"github.com/conneroisu/orbit/internal/token"
)

const (
	eof         rune = -1
	invalidByte rune = -2
)

type state int

const (
	stateInitial state = iota
	stateTagOpen
	stateTagOpenContent
	stateAttributeName
	stateAttributeValueDecision
	stateAttributeValueSingle
	stateAttributeValueDouble
	stateAttributeValueExpression
	stateAttributeValueUnquoted
	stateTagClose
	statePublicComment
	statePrivateComment
	stateBlockOpen
	stateBlockOpenContent
	stateBlockClose
	stateBlockCloseContent
	statePrintingExpression
	stateControlExpression
	stateVerbatim
)

var stateNames = [...]string{
	stateInitial:                  "initial",
	stateTagOpen:                  "tag_open",
	stateTagOpenContent:           "tag_open_content",
	stateAttributeName:            "attribute_name",
	stateAttributeValueDecision:   "attribute_value_decision",
	stateAttributeValueSingle:     "attribute_value_single",
	stateAttributeValueDouble:     "attribute_value_double",
	stateAttributeValueExpression: "attribute_value_expression",
	stateAttributeValueUnquoted:   "attribute_value_unquoted",
	stateTagClose:                 "tag_close",
	statePublicComment:            "public_comment",
	statePrivateComment:           "private_comment",
	stateBlockOpen:                "block_open",
	stateBlockOpenContent:         "block_open_content",
	stateBlockClose:               "block_close",
	stateBlockCloseContent:        "block_close_content",
	statePrintingExpression:       "printing_expression",
	stateControlExpression:        "control_expression",
	stateVerbatim:                 "verbatim",
}

func (s state) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// voidElements never require a closing tag.
var voidElements = map[string]bool{
	"area":    true,
	"base":    true,
	"br":      true,
	"col":     true,
	"command": true,
	"embed":   true,
	"hr":      true,
	"img":     true,
	"input":   true,
	"keygen":  true,
	"link":    true,
	"meta":    true,
	"param":   true,
	"source":  true,
	"track":   true,
	"wbr":     true,
}

// IsVoidElement reports whether name is an HTML void element.
func IsVoidElement(name string) bool {
	return voidElements[name]
}

// verbatimSuffix marks a tag whose body is not tokenized.
const verbatimSuffix = "$"

// step performs one transition of the state machine. Every call either
// consumes input or changes state.
func (l *Lexer) step() error {
	switch l.state {
	case stateInitial:
		return l.lexInitial()
	case stateTagOpen:
		return l.lexTagOpen()
	case stateTagOpenContent:
		return l.lexTagOpenContent()
	case stateAttributeName:
		return l.lexAttributeName()
	case stateAttributeValueDecision:
		return l.lexAttributeValueDecision()
	case stateAttributeValueSingle:
		return l.lexAttributeValueQuoted('\'')
	case stateAttributeValueDouble:
		return l.lexAttributeValueQuoted('"')
	case stateAttributeValueExpression:
		return l.lexAttributeValueExpression()
	case stateAttributeValueUnquoted:
		return l.lexAttributeValueUnquoted()
	case stateTagClose:
		return l.lexTagClose()
	case statePublicComment:
		return l.lexComment("-->", token.PublicComment)
	case statePrivateComment:
		return l.lexComment("--}", token.PrivateComment)
	case stateBlockOpen:
		return l.lexBlockOpen()
	case stateBlockOpenContent:
		return l.lexBlockOpenContent()
	case stateBlockClose:
		return l.lexBlockClose()
	case stateBlockCloseContent:
		return l.lexBlockCloseContent()
	case statePrintingExpression:
		return l.lexExpression("}}", token.PrintingExpression)
	case stateControlExpression:
		return l.lexExpression("%}", token.ControlExpression)
	case stateVerbatim:
		return l.lexVerbatim()
	default:
		return l.invalidCharacter(l.peek())
	}
}

func (l *Lexer) lexInitial() error {
	if n := l.newlineLen(); n > 0 {
		l.flushText()
		l.emitNewline(n)
		return nil
	}

	switch {
	case l.hasPrefix("{!--"):
		l.begin(4, statePrivateComment)
	case l.hasPrefix("{{"):
		l.begin(2, statePrintingExpression)
	case l.hasPrefix("{%"):
		l.begin(2, stateControlExpression)
	case l.hasPrefix("{#"):
		l.begin(2, stateBlockOpen)
	case l.hasPrefix("{/"):
		l.begin(2, stateBlockClose)
	case l.hasPrefix("<!--"):
		l.begin(4, statePublicComment)
	case l.hasPrefix("</") && isTagNameStart(l.peekAt(2)):
		l.nameDone = false
		l.begin(2, stateTagClose)
	case l.hasPrefix("<") && isTagNameStart(l.peekAt(1)):
		l.tagName = ""
		l.verbatim = false
		l.attrs = nil
		l.begin(1, stateTagOpen)
	default:
		l.consume()
	}
	return nil
}

func (l *Lexer) lexTagOpen() error {
	if isTagNameChar(l.peek()) {
		l.consume()
		return nil
	}

	name := l.take()
	if strings.HasSuffix(name, verbatimSuffix) {
		name = strings.TrimSuffix(name, verbatimSuffix)
		l.verbatim = true
	}
	l.tagName = name
	l.transition(stateTagOpenContent)
	return nil
}

func (l *Lexer) lexTagOpenContent() error {
	r := l.peek()
	switch {
	case isSpace(r):
		l.advance(1)
	case l.hasPrefix("/>"):
		l.advance(2)
		l.emitTagOpen(true)
		l.transition(stateInitial)
	case r == '>':
		l.advance(1)
		l.emitTagOpen(IsVoidElement(l.tagName))
		if l.verbatim {
			l.verbatimTag = l.tagName
			l.bufStart = l.pos()
			l.transition(stateVerbatim)
		} else {
			l.transition(stateInitial)
		}
	case isAttributeNameChar(r):
		l.attrStart = l.pos()
		l.transition(stateAttributeName)
	default:
		return l.invalidCharacter(r)
	}
	return nil
}

func (l *Lexer) emitTagOpen(selfClosing bool) {
	l.emit(token.Token{
		Kind:        token.TagOpen,
		Value:       l.tagName,
		Pos:         l.start,
		SelfClosing: selfClosing,
		Verbatim:    l.verbatim,
		Attributes:  l.attrs,
	})
	l.attrs = nil
}

func (l *Lexer) addAttribute(attr token.Attribute) {
	attr.Pos = l.attrStart
	l.attrs = append(l.attrs, attr)
}

// finishBareAttribute records an attribute written without a value: a
// splat when it starts with '*', a boolean otherwise.
func (l *Lexer) finishBareAttribute(name string) {
	if strings.HasPrefix(name, "*") {
		l.addAttribute(token.Attribute{Kind: token.AttrSplat, Value: name})
	} else {
		l.addAttribute(token.Attribute{Name: name, Kind: token.AttrBoolean})
	}
}

func (l *Lexer) lexAttributeName() error {
	r := l.peek()
	switch {
	case isAttributeNameChar(r):
		l.consume()
		return nil
	case isSpace(r):
		for isSpace(l.peek()) {
			l.advance(1)
		}
		if l.peek() == '=' {
			return nil
		}
		l.finishBareAttribute(l.take())
		l.transition(stateTagOpenContent)
		return nil
	case r == '=':
		name := l.take()
		if strings.HasPrefix(name, "*") {
			return l.invalidCharacter(r)
		}
		l.attrName = name
		l.advance(1)
		l.transition(stateAttributeValueDecision)
		return nil
	case r == '>' || r == '/':
		l.finishBareAttribute(l.take())
		l.transition(stateTagOpenContent)
		return nil
	default:
		return l.invalidCharacter(r)
	}
}

func (l *Lexer) lexAttributeValueDecision() error {
	r := l.peek()
	switch {
	case isSpace(r):
		l.advance(1)
	case r == '\'':
		l.advance(1)
		l.embedded = false
		l.transition(stateAttributeValueSingle)
	case r == '"':
		l.advance(1)
		l.embedded = false
		l.transition(stateAttributeValueDouble)
	case r == '{':
		l.advance(1)
		l.braceDepth = 0
		l.transition(stateAttributeValueExpression)
	case r == '>' || r == '<' || r == '=' || r == '`' || r == '}' || l.hasPrefix("/>"):
		return l.invalidCharacter(r)
	default:
		l.transition(stateAttributeValueUnquoted)
	}
	return nil
}

// lexAttributeValueQuoted reads a quoted value. An embedded {{ }} pair makes
// quote characters literal until it closes.
func (l *Lexer) lexAttributeValueQuoted(quote rune) error {
	r := l.peek()
	switch {
	case !l.embedded && l.hasPrefix("{{"):
		l.consume()
		l.consume()
		l.embedded = true
		l.braceDepth = 0
	case l.embedded && r == '{':
		l.braceDepth++
		l.consume()
	case l.embedded && l.braceDepth == 0 && l.hasPrefix("}}"):
		l.consume()
		l.consume()
		l.embedded = false
	case l.embedded && r == '}':
		if l.braceDepth > 0 {
			l.braceDepth--
		}
		l.consume()
	case !l.embedded && r == quote:
		l.advance(1)
		l.addAttribute(token.Attribute{Name: l.attrName, Kind: token.AttrString, Value: l.take()})
		l.transition(stateTagOpenContent)
	default:
		l.consume()
	}
	return nil
}

func (l *Lexer) lexAttributeValueExpression() error {
	switch l.peek() {
	case '{':
		l.braceDepth++
		l.consume()
	case '}':
		if l.braceDepth == 0 {
			l.advance(1)
			l.addAttribute(token.Attribute{
				Name:  l.attrName,
				Kind:  token.AttrExpression,
				Value: strings.TrimSpace(l.take()),
			})
			l.transition(stateTagOpenContent)
			return nil
		}
		l.braceDepth--
		l.consume()
	default:
		l.consume()
	}
	return nil
}

func (l *Lexer) lexAttributeValueUnquoted() error {
	r := l.peek()
	switch {
	case isSpace(r) || r == '>' || l.hasPrefix("/>"):
		l.addAttribute(token.Attribute{Name: l.attrName, Kind: token.AttrString, Value: l.take()})
		l.transition(stateTagOpenContent)
	case r == '"' || r == '\'' || r == '<' || r == '=' || r == '`':
		return l.invalidCharacter(r)
	default:
		l.consume()
	}
	return nil
}

func (l *Lexer) lexTagClose() error {
	r := l.peek()
	switch {
	case !l.nameDone && isTagNameChar(r):
		l.consume()
	case isSpace(r):
		l.nameDone = true
		l.advance(1)
	case r == '>':
		l.advance(1)
		name := strings.TrimSuffix(l.take(), verbatimSuffix)
		l.emit(token.Token{Kind: token.TagClose, Value: name, Pos: l.start})
		l.transition(stateInitial)
	default:
		return l.invalidCharacter(r)
	}
	return nil
}

func (l *Lexer) lexComment(terminator string, kind token.Kind) error {
	if l.hasPrefix(terminator) {
		l.advance(len(terminator))
		l.emit(token.Token{Kind: kind, Value: l.take(), Pos: l.start})
		l.transition(stateInitial)
		return nil
	}
	l.consume()
	return nil
}

// lexExpression reads a printing or control expression. Braces nest; the
// terminator only counts at depth zero.
func (l *Lexer) lexExpression(terminator string, kind token.Kind) error {
	r := l.peek()
	switch {
	case l.braceDepth == 0 && l.hasPrefix(terminator):
		l.advance(len(terminator))
		l.emit(token.Token{Kind: kind, Value: strings.TrimSpace(l.take()), Pos: l.start})
		l.transition(stateInitial)
	case r == '{':
		l.braceDepth++
		l.consume()
	case r == '}' && l.braceDepth > 0:
		l.braceDepth--
		l.consume()
	default:
		l.consume()
	}
	return nil
}

func (l *Lexer) lexBlockOpen() error {
	r := l.peek()
	if isBlockNameChar(r) {
		l.consume()
		return nil
	}
	if l.buf.Len() == 0 {
		return l.invalidCharacter(r)
	}
	l.blockName = l.take()
	l.braceDepth = 0
	l.transition(stateBlockOpenContent)
	return nil
}

func (l *Lexer) lexBlockOpenContent() error {
	switch l.peek() {
	case '{':
		l.braceDepth++
		l.consume()
	case '}':
		if l.braceDepth == 0 {
			l.advance(1)
			l.emit(token.Token{
				Kind:       token.BlockOpen,
				Value:      l.blockName,
				Pos:        l.start,
				Expression: strings.TrimSpace(l.take()),
			})
			l.transition(stateInitial)
			return nil
		}
		l.braceDepth--
		l.consume()
	default:
		l.consume()
	}
	return nil
}

func (l *Lexer) lexBlockClose() error {
	r := l.peek()
	if isBlockNameChar(r) {
		l.consume()
		return nil
	}
	if l.buf.Len() == 0 {
		return l.invalidCharacter(r)
	}
	l.blockName = l.take()
	l.transition(stateBlockCloseContent)
	return nil
}

func (l *Lexer) lexBlockCloseContent() error {
	r := l.peek()
	switch {
	case isSpace(r):
		l.advance(1)
	case r == '}':
		l.advance(1)
		l.emit(token.Token{Kind: token.BlockClose, Value: l.blockName, Pos: l.start})
		l.transition(stateInitial)
	default:
		return l.invalidCharacter(r)
	}
	return nil
}

// lexVerbatim buffers raw text until the matching </Name$> closing tag.
func (l *Lexer) lexVerbatim() error {
	closing := "</" + l.verbatimTag + verbatimSuffix + ">"
	if l.hasPrefix(closing) {
		l.flushText()
		l.emit(token.Token{Kind: token.TagClose, Value: l.verbatimTag, Pos: l.pos()})
		l.advance(len(closing))
		l.verbatimTag = ""
		l.transition(stateInitial)
		return nil
	}
	if n := l.newlineLen(); n > 0 {
		l.flushText()
		l.emitNewline(n)
		return nil
	}
	l.consume()
	return nil
}
