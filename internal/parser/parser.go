// Package parser implements a recursive-descent statement parser combined
// with a Pratt/precedence-climbing expression parser, with panic-mode error
// recovery: on a syntax error the parser records the diagnostic, skips to
// the next `;` (or EOF), advances past it, and resumes at the next
// statement.
package parser

import (
	"strconv"

	"github.com/clowder-lang/clowder/internal/ast"
	"github.com/clowder-lang/clowder/internal/errors"
	"github.com/clowder-lang/clowder/internal/token"
)

// precedence is the Pratt-parser precedence ladder, low to high.
type precedence int

const (
	lowest precedence = iota
	equals
	lessGreater
	sum
	product
	exponent
	prefix
	call
)

var precedences = map[token.Kind]precedence{
	token.EQ:       equals,
	token.NOT_EQ:   equals,
	token.LT:       lessGreater,
	token.GT:       lessGreater,
	token.LT_EQ:    lessGreater,
	token.GT_EQ:    lessGreater,
	token.PLUS:     sum,
	token.MINUS:    sum,
	token.ASTERISK: product,
	token.SLASH:    product,
	token.PERCENT:  product,
	token.POW:      exponent,
	token.LPAREN:   call,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser consumes a token stream and produces a *ast.Program, reporting
// syntax errors into the shared handler and recovering to continue parsing
// subsequent statements.
type Parser struct {
	toks []token.Token
	pos  int

	errs *errors.Handler

	prefixFns map[token.Kind]prefixParseFn
	infixFns  map[token.Kind]infixParseFn
}

// New builds a parser over an already-sanitized token stream.
func New(toks []token.Token, errs *errors.Handler) *Parser {
	p := &Parser{toks: toks, errs: errs}

	p.prefixFns = map[token.Kind]prefixParseFn{
		token.IDENT:  p.parseIdent,
		token.INT:    p.parseIntLit,
		token.FLOAT:  p.parseFloatLit,
		token.STRING: p.parseStringLit,
		token.TRUE:   p.parseBoolLit,
		token.FALSE:  p.parseBoolLit,
		token.LPAREN: p.parseGroupedExpression,
		token.MINUS:  p.parsePrefixExpression,
		token.NOT:    p.parsePrefixExpression,
	}

	p.infixFns = map[token.Kind]infixParseFn{
		token.PLUS:     p.parseInfixExpression,
		token.MINUS:    p.parseInfixExpression,
		token.ASTERISK: p.parseInfixExpression,
		token.SLASH:    p.parseInfixExpression,
		token.PERCENT:  p.parseInfixExpression,
		token.POW:      p.parseInfixExpression,
		token.EQ:       p.parseInfixExpression,
		token.NOT_EQ:   p.parseInfixExpression,
		token.LT:       p.parseInfixExpression,
		token.GT:       p.parseInfixExpression,
		token.LT_EQ:    p.parseInfixExpression,
		token.GT_EQ:    p.parseInfixExpression,
		token.LPAREN:   p.parseCallExpression,
	}

	return p
}

func (p *Parser) cur() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) peek() token.Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1] // EOF
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) curIs(k token.Kind) bool  { return p.cur().Kind == k }
func (p *Parser) peekIs(k token.Kind) bool { return p.peek().Kind == k }

func (p *Parser) curPrecedence() precedence {
	if pr, ok := precedences[p.cur().Kind]; ok {
		return pr
	}
	return lowest
}

func (p *Parser) peekPrecedence() precedence {
	if pr, ok := precedences[p.peek().Kind]; ok {
		return pr
	}
	return lowest
}

// expect checks the current token against k; if it matches, advances past
// it and returns true; otherwise records a syntax error and returns false.
func (p *Parser) expect(k token.Kind) bool {
	if p.curIs(k) {
		p.advance()
		return true
	}
	p.errs.Error(errors.Syntax, p.cur().PosStart,
		"expected %s, got %s (%q)", k, p.cur().Kind, p.cur().Literal)
	return false
}

// expectSemicolon consumes the `;` terminating a simple statement. A
// block-closing keyword (end/elif/else) also terminates the last simple
// statement of its block, so one-line bodies like `if n <= 1: return 1 end`
// parse without an explicit semicolon; the keyword is left for the block
// parser to consume.
func (p *Parser) expectSemicolon() {
	if p.curIs(token.SEMICOLON) {
		p.advance()
		return
	}
	switch p.cur().Kind {
	case token.END, token.ELIF, token.ELSE:
		return
	}
	p.errs.Error(errors.Syntax, p.cur().PosStart,
		"expected ';', got %s (%q)", p.cur().Kind, p.cur().Literal)
}

// synchronize implements panic-mode recovery: skip tokens until the next
// `;` or EOF, then advance past the `;` if present.
func (p *Parser) synchronize() {
	for !p.curIs(token.SEMICOLON) && !p.curIs(token.EOF) {
		p.advance()
	}
	if p.curIs(token.SEMICOLON) {
		p.advance()
	}
}

// Parse runs the parser to completion, always terminating with either a
// populated *ast.Program or one or more reported errors — it never hangs
// or returns silently on malformed input.
func (p *Parser) Parse() *ast.Program {
	program := &ast.Program{}

	for !p.curIs(token.EOF) {
		stmt := p.parseStatementRecovering()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
	}

	return program
}

// parseStatementRecovering wraps parseStatement with panic-mode recovery:
// a malformed statement contributes no node to the program.
func (p *Parser) parseStatementRecovering() ast.Statement {
	errsBefore := len(p.errs.Errors())
	startPos := p.pos

	stmt := p.parseStatement()

	if len(p.errs.Errors()) > errsBefore {
		// An error was recorded while parsing this statement. If we're
		// already sitting just past a semicolon (or at EOF), the failing
		// statement has already been consumed in full and the next
		// statement starts cleanly — no further skipping needed. Only
		// skip forward when the failure left the cursor stuck mid-statement.
		alreadyTerminated := p.curIs(token.EOF) ||
			(p.pos > startPos && p.toks[p.pos-1].Kind == token.SEMICOLON)
		if !alreadyTerminated {
			if p.pos == startPos {
				p.advance()
			}
			p.synchronize()
		}
		return nil
	}
	return stmt
}

func (p *Parser) parseStatement() ast.Statement {
	switch {
	case p.curIs(token.IDENT) && p.peek().Kind.IsAssignOp():
		return p.parseAssignStatement()
	case p.curIs(token.VAR):
		return p.parseVarStatement()
	case p.curIs(token.DEF):
		return p.parseFunctionStatement()
	case p.curIs(token.RETURN):
		return p.parseReturnStatement()
	case p.curIs(token.IF):
		return p.parseIfStatement()
	case p.curIs(token.WHILE):
		return p.parseWhileStatement()
	case p.curIs(token.BREAK):
		return p.parseBreakStatement()
	case p.curIs(token.CONTINUE):
		return p.parseContinueStatement()
	case p.curIs(token.IMPORT):
		return p.parseImportStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseAssignStatement() ast.Statement {
	identTok := p.cur()
	target := &ast.Ident{Token: identTok, Name: identTok.Literal}
	p.advance()

	opTok := p.advance()

	rhs := p.parseExpression(lowest)
	p.expectSemicolon()

	return &ast.Assign{Token: identTok, Target: target, Op: opTok.Kind, RHS: rhs}
}

func (p *Parser) parseVarStatement() ast.Statement {
	varTok := p.advance() // 'var'

	if !p.curIs(token.IDENT) {
		p.errs.Error(errors.Syntax, p.cur().PosStart, "expected identifier after 'var', got %s", p.cur().Kind)
		return nil
	}
	name := p.advance().Literal

	if !p.expect(token.COLON) {
		return nil
	}

	if !p.curIs(token.TYPE) {
		p.errs.Error(errors.Syntax, p.cur().PosStart, "expected a type after ':', got %s", p.cur().Kind)
		return nil
	}
	declaredType := p.advance().Literal

	var init ast.Expression
	if p.curIs(token.ASSIGN) {
		p.advance()
		init = p.parseExpression(lowest)
	}

	p.expectSemicolon()

	return &ast.Var{Token: varTok, Name: name, DeclaredType: declaredType, Init: init}
}

func (p *Parser) parseFunctionStatement() ast.Statement {
	defTok := p.advance() // 'def'

	if !p.curIs(token.IDENT) {
		p.errs.Error(errors.Syntax, p.cur().PosStart, "expected function name, got %s", p.cur().Kind)
		return nil
	}
	name := p.advance().Literal

	if !p.expect(token.LPAREN) {
		return nil
	}

	var params []ast.Param
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		if !p.curIs(token.IDENT) {
			p.errs.Error(errors.Syntax, p.cur().PosStart, "expected parameter name, got %s", p.cur().Kind)
			return nil
		}
		pname := p.advance().Literal
		if !p.expect(token.COLON) {
			return nil
		}
		if !p.curIs(token.TYPE) {
			p.errs.Error(errors.Syntax, p.cur().PosStart, "expected parameter type, got %s", p.cur().Kind)
			return nil
		}
		ptype := p.advance().Literal
		params = append(params, ast.Param{Name: pname, Type: ptype})

		if p.curIs(token.COMMA) {
			p.advance()
		}
	}
	if !p.expect(token.RPAREN) {
		return nil
	}
	if !p.expect(token.ARROW) {
		return nil
	}
	if !p.curIs(token.TYPE) {
		p.errs.Error(errors.Syntax, p.cur().PosStart, "expected return type after '->', got %s", p.cur().Kind)
		return nil
	}
	returnType := p.advance().Literal

	if !p.expect(token.COLON) {
		return nil
	}

	body := p.parseBlockUntil(token.END)
	if !p.expect(token.END) {
		return nil
	}

	return &ast.Function{Token: defTok, Name: name, Params: params, ReturnType: returnType, Body: body}
}

// parseBlockUntil parses statements until the current token is terminator
// or EOF.
func (p *Parser) parseBlockUntil(terminator token.Kind) []ast.Statement {
	var stmts []ast.Statement
	for !p.curIs(terminator) && !p.curIs(token.EOF) &&
		!p.curIs(token.ELIF) && !p.curIs(token.ELSE) {
		stmt := p.parseStatementRecovering()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func (p *Parser) parseReturnStatement() ast.Statement {
	retTok := p.advance() // 'return'
	value := p.parseExpression(lowest)
	p.expectSemicolon()
	return &ast.Return{Token: retTok, Value: value}
}

func (p *Parser) parseIfStatement() ast.Statement {
	ifTok := p.advance() // 'if' or 'elif'
	cond := p.parseExpression(lowest)
	if !p.expect(token.COLON) {
		return nil
	}
	thenBody := p.parseBlockUntil(token.END)

	node := &ast.If{Token: ifTok, Cond: cond, ThenBody: thenBody}

	switch {
	case p.curIs(token.ELIF):
		nested := p.parseIfStatement()
		if nested != nil {
			node.ElseBody = []ast.Statement{nested}
		}
		return node
	case p.curIs(token.ELSE):
		p.advance()
		if !p.expect(token.COLON) {
			return node
		}
		node.ElseBody = p.parseBlockUntil(token.END)
		p.expect(token.END)
		return node
	default:
		p.expect(token.END)
		return node
	}
}

func (p *Parser) parseWhileStatement() ast.Statement {
	whileTok := p.advance() // 'while'
	cond := p.parseExpression(lowest)
	if !p.expect(token.COLON) {
		return nil
	}
	body := p.parseBlockUntil(token.END)
	p.expect(token.END)
	return &ast.While{Token: whileTok, Cond: cond, Body: body}
}

func (p *Parser) parseBreakStatement() ast.Statement {
	tok := p.advance()
	p.expectSemicolon()
	return &ast.Break{Token: tok}
}

func (p *Parser) parseContinueStatement() ast.Statement {
	tok := p.advance()
	p.expectSemicolon()
	return &ast.Continue{Token: tok}
}

func (p *Parser) parseImportStatement() ast.Statement {
	tok := p.advance() // 'import'
	if !p.curIs(token.STRING) {
		p.errs.Error(errors.Syntax, p.cur().PosStart, "expected a string literal after 'import', got %s", p.cur().Kind)
		return nil
	}
	path := p.advance().Literal
	p.expectSemicolon()
	return &ast.Import{Token: tok, FilePath: path}
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	tok := p.cur()
	expr := p.parseExpression(lowest)
	p.expectSemicolon()
	return &ast.ExpressionStatement{Token: tok, Expr: expr}
}

// ---- expressions ----

func (p *Parser) parseExpression(prec precedence) ast.Expression {
	prefixFn, ok := p.prefixFns[p.cur().Kind]
	if !ok {
		p.errs.Error(errors.Syntax, p.cur().PosStart, "unexpected token %s in expression", p.cur().Kind)
		return nil
	}
	left := prefixFn()

	for !p.curIs(token.SEMICOLON) && prec < p.curPrecedence() {
		infixFn, ok := p.infixFns[p.cur().Kind]
		if !ok {
			return left
		}
		left = infixFn(left)
	}

	return left
}

func (p *Parser) parseIdent() ast.Expression {
	tok := p.advance()
	return &ast.Ident{Token: tok, Name: tok.Literal}
}

func (p *Parser) parseIntLit() ast.Expression {
	tok := p.advance()
	v, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		p.errs.Error(errors.Lexical, tok.PosStart, "invalid integer literal %q", tok.Literal)
		v = 0
	}
	return &ast.IntLit{Token: tok, Value: v}
}

func (p *Parser) parseFloatLit() ast.Expression {
	tok := p.advance()
	v, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.errs.Error(errors.Lexical, tok.PosStart, "invalid float literal %q", tok.Literal)
		v = 0
	}
	return &ast.FloatLit{Token: tok, Value: v}
}

func (p *Parser) parseStringLit() ast.Expression {
	tok := p.advance()
	return &ast.StringLit{Token: tok, Value: tok.Literal}
}

func (p *Parser) parseBoolLit() ast.Expression {
	tok := p.advance()
	return &ast.BoolLit{Token: tok, Value: tok.Kind == token.TRUE}
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.advance() // '('
	expr := p.parseExpression(lowest)
	p.expect(token.RPAREN)
	return expr
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	tok := p.advance()
	rhs := p.parseExpression(prefix)
	return &ast.Prefix{Token: tok, Op: tok.Literal, RHS: rhs}
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	tok := p.advance()
	prec := precedences[tok.Kind]
	if tok.Kind == token.POW {
		// right-associative: consume the right operand at one precedence
		// level lower than our own.
		prec--
	}
	rhs := p.parseExpression(prec)
	return &ast.Infix{Token: tok, LHS: left, Op: tok.Literal, RHS: rhs}
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	tok := p.advance() // '('
	ident, ok := callee.(*ast.Ident)
	if !ok {
		p.errs.Error(errors.Syntax, tok.PosStart, "call target must be an identifier")
	}

	var args []ast.Expression
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		args = append(args, p.parseExpression(lowest))
		if p.curIs(token.COMMA) {
			p.advance()
		}
	}
	p.expect(token.RPAREN)

	return &ast.Call{Token: tok, Callee: ident, Args: args}
}
