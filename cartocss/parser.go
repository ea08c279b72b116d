package cartocss

import (
	"strconv"
	"strings"
)

// Parser turns a token stream into a StyleSheet. It collects every syntax
// error it encounters (via simple statement-level recovery) rather than
// stopping at the first, so one bad rule does not hide the diagnostics for
// the rest of the stylesheet.
type Parser struct {
	tokens []Token
	pos    int
	source string
	name   string
	errs   ParseErrors
	order  int
	arena  *arena
	preds  *predicateArena
}

// Parse lexes and parses a complete CartoCSS stylesheet.
func Parse(source, name string) (*StyleSheet, error) {
	lexer := NewLexer(source, name)
	tokens, lerr := lexer.Tokenize()
	if lerr != nil {
		return nil, ParseErrors{lerr}
	}
	p := &Parser{tokens: tokens, source: source, name: name, arena: newArena(), preds: newPredicateArena()}
	sheet := p.parseStyleSheet()
	if p.errs.HasErrors() {
		return sheet, p.errs
	}
	return sheet, nil
}

func (p *Parser) peek() Token  { return p.tokens[p.pos] }
func (p *Parser) peekKind() TokenKind { return p.tokens[p.pos].Kind }

func (p *Parser) advance() Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) check(k TokenKind) bool { return p.peekKind() == k }

func (p *Parser) match(k TokenKind) (Token, bool) {
	if p.check(k) {
		return p.advance(), true
	}
	return Token{}, false
}

func (p *Parser) expect(k TokenKind, what string) (Token, bool) {
	if t, ok := p.match(k); ok {
		return t, true
	}
	t := p.peek()
	p.errorf(t.Span, "expected %s, found %q", what, t.Text)
	return t, false
}

func (p *Parser) errorf(span Span, format string, args ...any) {
	p.errs = append(p.errs, newParseErrorf(span, p.source, format, args...))
}

// syncTo skips tokens until one of the given kinds (or EOF) is reached, used
// to recover after a syntax error so parsing can continue.
func (p *Parser) syncTo(kinds ...TokenKind) {
	for !p.check(TokenEOF) {
		for _, k := range kinds {
			if p.check(k) {
				return
			}
		}
		p.advance()
	}
}

func (p *Parser) parseStyleSheet() *StyleSheet {
	sheet := &StyleSheet{}
	for !p.check(TokenEOF) {
		if p.check(TokenAt) {
			sheet.Elements = append(sheet.Elements, StyleSheetElement{Variable: p.parseVariableDecl()})
			continue
		}
		rs := p.parseRuleSet()
		if rs != nil {
			sheet.Elements = append(sheet.Elements, StyleSheetElement{RuleSet: rs})
		} else {
			p.syncTo(TokenRBrace, TokenSemicolon)
			if p.check(TokenRBrace) || p.check(TokenSemicolon) {
				p.advance()
			}
		}
	}
	return sheet
}

func (p *Parser) parseVariableDecl() *VariableDeclaration {
	p.advance() // '@'
	name, _ := p.expect(TokenIdent, "variable name")
	p.expect(TokenColon, "':'")
	expr := p.parseExpr()
	p.match(TokenSemicolon)
	return &VariableDeclaration{Variable: name.Text, Expr: expr}
}

func (p *Parser) parseRuleSet() *RuleSet {
	selectors := p.parseSelectorList()
	if selectors == nil {
		return nil
	}
	if _, ok := p.expect(TokenLBrace, "'{'"); !ok {
		return nil
	}
	block := p.parseBlock()
	p.expect(TokenRBrace, "'}'")
	return &RuleSet{Selectors: selectors, Block: block}
}

func (p *Parser) parseSelectorList() []Selector {
	first := p.parseSelector()
	if first == nil {
		return nil
	}
	selectors := []Selector{*first}
	for {
		if _, ok := p.match(TokenComma); !ok {
			break
		}
		sel := p.parseSelector()
		if sel == nil {
			break
		}
		selectors = append(selectors, *sel)
	}
	return selectors
}

func (p *Parser) parseSelector() *Selector {
	var preds []Predicate
	for {
		switch p.peekKind() {
		case TokenHash:
			p.advance()
			name, _ := p.expect(TokenIdent, "layer name")
			preds = append(preds, p.preds.intern(&LayerPredicate{LayerName: name.Text}))
		case TokenDot:
			p.advance()
			name, _ := p.expect(TokenIdent, "class name")
			preds = append(preds, p.preds.intern(&ClassPredicate{Class: name.Text}))
		case TokenColonCln:
			p.advance()
			name, _ := p.expect(TokenIdent, "attachment name")
			preds = append(preds, &AttachmentPredicate{Attachment: name.Text})
		case TokenLBracket:
			pred := p.parseFilterPredicate()
			if pred != nil {
				preds = append(preds, pred)
			}
		case TokenIdent:
			if strings.EqualFold(p.peek().Text, "Map") {
				p.advance()
				preds = append(preds, MapPredicate{})
				continue
			}
			return finishSelector(preds)
		default:
			return finishSelector(preds)
		}
	}
}

func finishSelector(preds []Predicate) *Selector {
	if preds == nil {
		return nil
	}
	return &Selector{Predicates: preds}
}

var compareOpTokens = map[TokenKind]CompareOp{
	TokenEq: CmpEQ, TokenNeq: CmpNEQ, TokenLt: CmpLT, TokenLte: CmpLTE,
	TokenGt: CmpGT, TokenGte: CmpGTE, TokenMatch: CmpMatch,
}

func (p *Parser) parseFilterPredicate() Predicate {
	p.advance() // '['
	field := true
	if _, ok := p.match(TokenAt); ok {
		field = false
	}
	name, _ := p.expect(TokenIdent, "field or variable name")
	op, ok := compareOpTokens[p.peekKind()]
	if !ok {
		p.errorf(p.peek().Span, "expected comparison operator in filter")
		p.syncTo(TokenRBracket)
		p.match(TokenRBracket)
		return nil
	}
	p.advance()
	valueExpr := p.parseExpr()
	p.expect(TokenRBracket, "']'")
	result := valueExpr.Evaluate(nil)
	if !result.IsValue {
		p.errorf(p.peek().Span, "filter value must be a constant expression")
		return nil
	}
	return p.preds.intern(&OpPredicate{Op: op, Field: field, FieldOrVar: name.Text, RefValue: result.Value})
}

func (p *Parser) parseBlock() Block {
	var block Block
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		if p.check(TokenHash) || p.check(TokenDot) || p.check(TokenLBracket) || p.check(TokenColonCln) {
			rs := p.parseRuleSet()
			if rs != nil {
				block.Elements = append(block.Elements, BlockElement{RuleSet: rs})
			}
			continue
		}
		if p.check(TokenIdent) && strings.EqualFold(p.peek().Text, "Map") {
			rs := p.parseRuleSet()
			if rs != nil {
				block.Elements = append(block.Elements, BlockElement{RuleSet: rs})
			}
			continue
		}
		decl := p.parsePropertyDecl()
		if decl != nil {
			block.Elements = append(block.Elements, BlockElement{Property: decl})
		} else {
			p.syncTo(TokenSemicolon, TokenRBrace)
			p.match(TokenSemicolon)
		}
	}
	return block
}

func (p *Parser) parsePropertyDecl() *PropertyDeclaration {
	name, ok := p.expect(TokenIdent, "property name")
	if !ok {
		return nil
	}
	if _, ok := p.expect(TokenColon, "':'"); !ok {
		return nil
	}
	expr := p.parseExpr()
	p.match(TokenSemicolon)
	p.order++
	return &PropertyDeclaration{Field: name.Text, Expr: expr, Order: p.order}
}

// --- expression grammar, precedence-climbing ---

func (p *Parser) parseExpr() Expression { return p.parseConditional() }

func (p *Parser) parseConditional() Expression {
	cond := p.parseOr()
	if _, ok := p.match(TokenQuestion); !ok {
		return cond
	}
	e1 := p.parseExpr()
	p.expect(TokenColon, "':'")
	e2 := p.parseConditional()
	return p.arena.internExpr(&CondExpr{Cond: cond, Expr1: e1, Expr2: e2})
}

func (p *Parser) parseOr() Expression {
	left := p.parseAnd()
	for {
		if _, ok := p.match(TokenOrOr); !ok {
			return left
		}
		right := p.parseAnd()
		left = p.arena.internExpr(&BinaryExpr{Op: OpOr, Expr1: left, Expr2: right})
	}
}

func (p *Parser) parseAnd() Expression {
	left := p.parseEquality()
	for {
		if _, ok := p.match(TokenAndAnd); !ok {
			return left
		}
		right := p.parseEquality()
		left = p.arena.internExpr(&BinaryExpr{Op: OpAnd, Expr1: left, Expr2: right})
	}
}

func (p *Parser) parseEquality() Expression {
	left := p.parseRelational()
	for {
		var op BinaryOp
		switch p.peekKind() {
		case TokenEq:
			op = OpEq
		case TokenNeq:
			op = OpNeq
		case TokenMatch:
			op = OpMatch
		default:
			return left
		}
		p.advance()
		right := p.parseRelational()
		left = p.arena.internExpr(&BinaryExpr{Op: op, Expr1: left, Expr2: right})
	}
}

func (p *Parser) parseRelational() Expression {
	left := p.parseAdditive()
	for {
		var op BinaryOp
		switch p.peekKind() {
		case TokenLt:
			op = OpLt
		case TokenLte:
			op = OpLte
		case TokenGt:
			op = OpGt
		case TokenGte:
			op = OpGte
		default:
			return left
		}
		p.advance()
		right := p.parseAdditive()
		left = p.arena.internExpr(&BinaryExpr{Op: op, Expr1: left, Expr2: right})
	}
}

func (p *Parser) parseAdditive() Expression {
	left := p.parseMultiplicative()
	for {
		var op BinaryOp
		switch p.peekKind() {
		case TokenPlus:
			op = OpAdd
		case TokenMinus:
			op = OpSub
		default:
			return left
		}
		p.advance()
		right := p.parseMultiplicative()
		left = p.arena.internExpr(&BinaryExpr{Op: op, Expr1: left, Expr2: right})
	}
}

func (p *Parser) parseMultiplicative() Expression {
	left := p.parseUnary()
	for {
		var op BinaryOp
		switch p.peekKind() {
		case TokenStar:
			op = OpMul
		case TokenSlash:
			op = OpDiv
		default:
			return left
		}
		p.advance()
		right := p.parseUnary()
		left = p.arena.internExpr(&BinaryExpr{Op: op, Expr1: left, Expr2: right})
	}
}

func (p *Parser) parseUnary() Expression {
	switch p.peekKind() {
	case TokenBang:
		p.advance()
		return p.arena.internExpr(&UnaryExpr{Op: OpNot, Expr: p.parseUnary()})
	case TokenMinus:
		p.advance()
		return p.arena.internExpr(&UnaryExpr{Op: OpNeg, Expr: p.parseUnary()})
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() Expression {
	t := p.peek()
	switch t.Kind {
	case TokenNumber:
		p.advance()
		return p.arena.internExpr(&ConstExpr{Value: parseNumberLiteral(t.Text)})
	case TokenString:
		p.advance()
		// A string holding exactly one bracketed field name, as in
		// `text-name: "[name:fr]"`, is a field reference, not literal text.
		if n := len(t.Text); n > 2 && t.Text[0] == '[' && t.Text[n-1] == ']' && !strings.ContainsAny(t.Text[1:n-1], "[]") {
			return p.arena.internExpr(&FieldOrVarExpr{Field: true, FieldOrVar: t.Text[1 : n-1]})
		}
		return p.arena.internExpr(&ConstExpr{Value: Str(t.Text)})
	case TokenColorLiteral:
		p.advance()
		return p.arena.internExpr(&ConstExpr{Value: ColorVal(parseHexColor(t.Text))})
	case TokenAt:
		p.advance()
		name, _ := p.expect(TokenIdent, "variable name")
		return p.arena.internExpr(&FieldOrVarExpr{Field: false, FieldOrVar: name.Text})
	case TokenLBracket:
		p.advance()
		if p.check(TokenIdent) && isFieldRefAhead(p) {
			name := p.advance()
			p.expect(TokenRBracket, "']'")
			return p.arena.internExpr(&FieldOrVarExpr{Field: true, FieldOrVar: name.Text})
		}
		list := p.parseExprList(TokenRBracket)
		p.expect(TokenRBracket, "']'")
		return p.arena.internExpr(&ListExpr{Exprs: list})
	case TokenLParen:
		p.advance()
		inner := p.parseExpr()
		p.expect(TokenRParen, "')'")
		return inner
	case TokenIdent:
		switch strings.ToLower(t.Text) {
		case "true":
			p.advance()
			return p.arena.internExpr(&ConstExpr{Value: Bool(true)})
		case "false":
			p.advance()
			return p.arena.internExpr(&ConstExpr{Value: Bool(false)})
		}
		p.advance()
		if _, ok := p.match(TokenLParen); ok {
			args := p.parseExprList(TokenRParen)
			p.expect(TokenRParen, "')'")
			return p.arena.internExpr(&FuncExpr{Func: strings.ToLower(t.Text), Args: args})
		}
		if c, ok := cssColorNames[strings.ToLower(t.Text)]; ok {
			return p.arena.internExpr(&ConstExpr{Value: ColorVal(c)})
		}
		return p.arena.internExpr(&ConstExpr{Value: Str(t.Text)})
	}
	p.errorf(t.Span, "unexpected token %q in expression", t.Text)
	p.advance()
	return &ConstExpr{Value: Null}
}

// isFieldRefAhead reports whether the bracket content is a bare `[name]`
// field reference rather than the start of a list literal like `[1,2,3]`.
func isFieldRefAhead(p *Parser) bool {
	return p.tokens[p.pos+1].Kind == TokenRBracket
}

func (p *Parser) parseExprList(end TokenKind) []Expression {
	var exprs []Expression
	if p.check(end) {
		return exprs
	}
	exprs = append(exprs, p.parseExpr())
	for {
		if _, ok := p.match(TokenComma); !ok {
			return exprs
		}
		exprs = append(exprs, p.parseExpr())
	}
}

func parseNumberLiteral(text string) Value {
	text = strings.TrimSuffix(text, "%")
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Int(i)
	}
	f, _ := strconv.ParseFloat(trimUnit(text), 64)
	return Float(f)
}

// trimUnit strips a trailing CSS-style unit suffix (px, deg, ...) so the
// numeric part can be parsed; units themselves carry no semantic meaning in
// this stylesheet dialect and are discarded.
func trimUnit(text string) string {
	i := len(text)
	for i > 0 && !isDigitOrDotByte(text[i-1]) {
		i--
	}
	return text[:i]
}

func isDigitOrDotByte(b byte) bool { return (b >= '0' && b <= '9') || b == '.' }

func parseHexColor(text string) Color {
	hex := strings.TrimPrefix(text, "#")
	expand := func(c byte) (byte, byte) { return c, c }
	var r, g, b, a byte = 0, 0, 0, 255
	hexVal := func(c byte) byte {
		switch {
		case c >= '0' && c <= '9':
			return c - '0'
		case c >= 'a' && c <= 'f':
			return c - 'a' + 10
		case c >= 'A' && c <= 'F':
			return c - 'A' + 10
		}
		return 0
	}
	switch len(hex) {
	case 3, 4:
		r1, r2 := expand(hexVal(hex[0]))
		g1, g2 := expand(hexVal(hex[1]))
		b1, b2 := expand(hexVal(hex[2]))
		r = r1<<4 | r2
		g = g1<<4 | g2
		b = b1<<4 | b2
		if len(hex) == 4 {
			a1, a2 := expand(hexVal(hex[3]))
			a = a1<<4 | a2
		}
	case 6, 8:
		r = hexVal(hex[0])<<4 | hexVal(hex[1])
		g = hexVal(hex[2])<<4 | hexVal(hex[3])
		b = hexVal(hex[4])<<4 | hexVal(hex[5])
		if len(hex) == 8 {
			a = hexVal(hex[6])<<4 | hexVal(hex[7])
		}
	}
	return FromRGBA8(r, g, b, a)
}
