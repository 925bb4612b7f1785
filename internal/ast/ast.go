// Package ast defines the tagged-variant tree produced by the parser: one
// variant family for statements, one for expressions. Each node carries
// enough of its originating token to recover a source range for
// diagnostics.
package ast

import (
	"bytes"
	"strings"

	"github.com/clowder-lang/clowder/internal/token"
)

// Node is implemented by every statement and expression.
type Node interface {
	// Pos is the start position of the node's source range.
	Pos() token.Position
	// TokenLiteral returns the literal text of the node's leading token.
	TokenLiteral() string
	String() string
}

// Statement is implemented by every statement-level node.
type Statement interface {
	Node
	statementNode()
}

// Expression is implemented by every expression-level node.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node: an ordered list of top-level statements.
type Program struct {
	Statements []Statement
}

func (p *Program) Pos() token.Position {
	if len(p.Statements) == 0 {
		return token.Position{}
	}
	return p.Statements[0].Pos()
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) == 0 {
		return ""
	}
	return p.Statements[0].TokenLiteral()
}

func (p *Program) String() string {
	var sb bytes.Buffer
	for _, s := range p.Statements {
		sb.WriteString(s.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Param is one entry of a Function's parameter list: `name: type`.
type Param struct {
	Name string
	Type string // one of int, float, bool, str, void
}

// ---- Statements ----

// Var is `var name : declared_type (= init)? ;`.
type Var struct {
	Token        token.Token // the 'var' token
	Name         string
	DeclaredType string
	Init         Expression // nil if no initializer
}

func (v *Var) statementNode()          {}
func (v *Var) Pos() token.Position     { return v.Token.PosStart }
func (v *Var) TokenLiteral() string    { return v.Token.Literal }
func (v *Var) String() string {
	var sb bytes.Buffer
	sb.WriteString("var ")
	sb.WriteString(v.Name)
	sb.WriteString(": ")
	sb.WriteString(v.DeclaredType)
	if v.Init != nil {
		sb.WriteString(" = ")
		sb.WriteString(v.Init.String())
	}
	sb.WriteString(";")
	return sb.String()
}

// Assign is `target op rhs ;`.
type Assign struct {
	Token  token.Token // the identifier token
	Target *Ident
	Op     token.Kind // one of ASSIGN, PLUS_EQ, MINUS_EQ, STAR_EQ, SLASH_EQ, PERCENT_EQ, POW_EQ
	RHS    Expression
}

func (a *Assign) statementNode()       {}
func (a *Assign) Pos() token.Position  { return a.Token.PosStart }
func (a *Assign) TokenLiteral() string { return a.Token.Literal }
func (a *Assign) String() string {
	return a.Target.String() + " " + a.Op.String() + " " + a.RHS.String() + ";"
}

// Function is `def name ( params ) -> return_type : body end`.
type Function struct {
	Token      token.Token // the 'def' token
	Name       string
	Params     []Param
	ReturnType string
	Body       []Statement
}

func (f *Function) statementNode()       {}
func (f *Function) Pos() token.Position  { return f.Token.PosStart }
func (f *Function) TokenLiteral() string { return f.Token.Literal }
func (f *Function) String() string {
	var sb bytes.Buffer
	sb.WriteString("def ")
	sb.WriteString(f.Name)
	sb.WriteString("(")
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.Name + ": " + p.Type
	}
	sb.WriteString(strings.Join(parts, ", "))
	sb.WriteString(") -> ")
	sb.WriteString(f.ReturnType)
	sb.WriteString(":\n")
	for _, s := range f.Body {
		sb.WriteString("  ")
		sb.WriteString(s.String())
		sb.WriteString("\n")
	}
	sb.WriteString("end")
	return sb.String()
}

// Return is `return value ;`.
type Return struct {
	Token token.Token // the 'return' token
	Value Expression
}

func (r *Return) statementNode()       {}
func (r *Return) Pos() token.Position  { return r.Token.PosStart }
func (r *Return) TokenLiteral() string { return r.Token.Literal }
func (r *Return) String() string {
	return "return " + r.Value.String() + ";"
}

// If is `if cond: then_body (elif cond: body)* (else: body)? end`. elif
// chains are represented as a single nested If in ElseBody.
type If struct {
	Token     token.Token // the 'if' (or 'elif') token
	Cond      Expression
	ThenBody  []Statement
	ElseBody  []Statement // may contain a single *If for an 'elif'
}

func (i *If) statementNode()       {}
func (i *If) Pos() token.Position  { return i.Token.PosStart }
func (i *If) TokenLiteral() string { return i.Token.Literal }
func (i *If) String() string {
	var sb bytes.Buffer
	sb.WriteString("if ")
	sb.WriteString(i.Cond.String())
	sb.WriteString(":\n")
	for _, s := range i.ThenBody {
		sb.WriteString("  ")
		sb.WriteString(s.String())
		sb.WriteString("\n")
	}
	if len(i.ElseBody) > 0 {
		sb.WriteString("else:\n")
		for _, s := range i.ElseBody {
			sb.WriteString("  ")
			sb.WriteString(s.String())
			sb.WriteString("\n")
		}
	}
	sb.WriteString("end")
	return sb.String()
}

// While is `while cond: body end`.
type While struct {
	Token token.Token // the 'while' token
	Cond  Expression
	Body  []Statement
}

func (w *While) statementNode()       {}
func (w *While) Pos() token.Position  { return w.Token.PosStart }
func (w *While) TokenLiteral() string { return w.Token.Literal }
func (w *While) String() string {
	var sb bytes.Buffer
	sb.WriteString("while ")
	sb.WriteString(w.Cond.String())
	sb.WriteString(":\n")
	for _, s := range w.Body {
		sb.WriteString("  ")
		sb.WriteString(s.String())
		sb.WriteString("\n")
	}
	sb.WriteString("end")
	return sb.String()
}

// Break is `break ;`.
type Break struct {
	Token token.Token
}

func (b *Break) statementNode()       {}
func (b *Break) Pos() token.Position  { return b.Token.PosStart }
func (b *Break) TokenLiteral() string { return b.Token.Literal }
func (b *Break) String() string       { return "break;" }

// Continue is `continue ;`.
type Continue struct {
	Token token.Token
}

func (c *Continue) statementNode()       {}
func (c *Continue) Pos() token.Position  { return c.Token.PosStart }
func (c *Continue) TokenLiteral() string { return c.Token.Literal }
func (c *Continue) String() string       { return "continue;" }

// Import is `import "file_path" ;`.
type Import struct {
	Token    token.Token // the 'import' token
	FilePath string
}

func (im *Import) statementNode()       {}
func (im *Import) Pos() token.Position  { return im.Token.PosStart }
func (im *Import) TokenLiteral() string { return im.Token.Literal }
func (im *Import) String() string       { return "import \"" + im.FilePath + "\";" }

// ExpressionStatement is a bare expression used as a statement.
type ExpressionStatement struct {
	Token token.Token // the expression's leading token
	Expr  Expression
}

func (e *ExpressionStatement) statementNode()       {}
func (e *ExpressionStatement) Pos() token.Position  { return e.Token.PosStart }
func (e *ExpressionStatement) TokenLiteral() string { return e.Token.Literal }
func (e *ExpressionStatement) String() string {
	if e.Expr == nil {
		return ""
	}
	return e.Expr.String() + ";"
}

// ---- Expressions ----

// IntLit is an integer literal.
type IntLit struct {
	Token token.Token
	Value int64
}

func (i *IntLit) expressionNode()      {}
func (i *IntLit) Pos() token.Position  { return i.Token.PosStart }
func (i *IntLit) TokenLiteral() string { return i.Token.Literal }
func (i *IntLit) String() string       { return i.Token.Literal }

// FloatLit is a floating-point literal.
type FloatLit struct {
	Token token.Token
	Value float64
}

func (f *FloatLit) expressionNode()      {}
func (f *FloatLit) Pos() token.Position  { return f.Token.PosStart }
func (f *FloatLit) TokenLiteral() string { return f.Token.Literal }
func (f *FloatLit) String() string       { return f.Token.Literal }

// StringLit is a string literal; Value is the raw (not-yet-decoded)
// literal text between the quotes, escapes undecoded — decoding happens at
// lowering time.
type StringLit struct {
	Token token.Token
	Value string
}

func (s *StringLit) expressionNode()      {}
func (s *StringLit) Pos() token.Position  { return s.Token.PosStart }
func (s *StringLit) TokenLiteral() string { return s.Token.Literal }
func (s *StringLit) String() string       { return "\"" + s.Value + "\"" }

// BoolLit is `true` or `false`.
type BoolLit struct {
	Token token.Token
	Value bool
}

func (b *BoolLit) expressionNode()      {}
func (b *BoolLit) Pos() token.Position  { return b.Token.PosStart }
func (b *BoolLit) TokenLiteral() string { return b.Token.Literal }
func (b *BoolLit) String() string       { return b.Token.Literal }

// Ident is an identifier reference.
type Ident struct {
	Token token.Token
	Name  string
}

func (i *Ident) expressionNode()      {}
func (i *Ident) Pos() token.Position  { return i.Token.PosStart }
func (i *Ident) TokenLiteral() string { return i.Token.Literal }
func (i *Ident) String() string       { return i.Name }

// Prefix is a unary prefix expression: `-x` or `not x`.
type Prefix struct {
	Token token.Token // the operator token
	Op    string
	RHS   Expression
}

func (p *Prefix) expressionNode()      {}
func (p *Prefix) Pos() token.Position  { return p.Token.PosStart }
func (p *Prefix) TokenLiteral() string { return p.Token.Literal }
func (p *Prefix) String() string       { return "(" + p.Op + p.RHS.String() + ")" }

// Infix is a binary expression.
type Infix struct {
	Token token.Token // the operator token
	LHS   Expression
	Op    string
	RHS   Expression
}

func (i *Infix) expressionNode()      {}
func (i *Infix) Pos() token.Position  { return i.Token.PosStart }
func (i *Infix) TokenLiteral() string { return i.Token.Literal }
func (i *Infix) String() string {
	return "(" + i.LHS.String() + " " + i.Op + " " + i.RHS.String() + ")"
}

// Call is a function call; Callee must be an *Ident.
type Call struct {
	Token  token.Token // the '(' token
	Callee *Ident
	Args   []Expression
}

func (c *Call) expressionNode()      {}
func (c *Call) Pos() token.Position  { return c.Token.PosStart }
func (c *Call) TokenLiteral() string { return c.Token.Literal }
func (c *Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Callee.String() + "(" + strings.Join(parts, ", ") + ")"
}
