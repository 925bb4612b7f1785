package lexer

import "github.com/clowder-lang/clowder/internal/token"

// Sanitize rewrites a token stream to insert automatic statement
// terminators at significant line breaks. It never removes or reorders
// tokens — only inserts synthetic SEMICOLON tokens — so it is idempotent:
// Sanitize(Sanitize(toks)) == Sanitize(toks).
func Sanitize(toks []token.Token) []token.Token {
	if len(toks) == 0 {
		return toks
	}

	out := make([]token.Token, 0, len(toks)+len(toks)/4)

	for i := 0; i < len(toks); i++ {
		cur := toks[i]
		if i > 0 {
			prev := toks[i-1]
			if shouldInsertSemicolon(prev, cur) {
				out = append(out, syntheticSemicolon(prev))
			}
		}
		out = append(out, cur)
	}

	if n := len(toks); n > 0 {
		last := toks[n-1]
		if last.Kind == token.EOF && n > 1 {
			beforeEOF := toks[n-2]
			if beforeEOF.Kind != token.SEMICOLON && endsStatement(beforeEOF) {
				// insert just before EOF in out
				out = insertBeforeLast(out, syntheticSemicolon(beforeEOF))
			}
		}
	}

	return out
}

// shouldInsertSemicolon implements the three-clause ASI rule from the line
// break between prev and cur.
func shouldInsertSemicolon(prev, cur token.Token) bool {
	if prev.PosEnd.Line >= cur.PosStart.Line {
		return false
	}
	if prev.Kind == token.SEMICOLON {
		return false
	}

	if prev.Kind.ExpressionCloser() && cur.Kind.StatementStarter() {
		return true
	}
	if prev.Kind == token.BREAK || prev.Kind == token.CONTINUE {
		return true
	}
	if prev.Kind == token.RETURN && cur.Kind.StatementStarterKeyword() {
		return true
	}
	return false
}

// endsStatement reports whether kind can terminate a program at EOF without
// an explicit semicolon (expression-closer set plus break/continue/return).
func endsStatement(t token.Token) bool {
	if t.Kind.ExpressionCloser() {
		return true
	}
	switch t.Kind {
	case token.BREAK, token.CONTINUE, token.RETURN:
		return true
	default:
		return false
	}
}

func syntheticSemicolon(prev token.Token) token.Token {
	return token.Token{
		Kind:     token.SEMICOLON,
		Literal:  ";",
		PosStart: prev.PosEnd,
		PosEnd:   prev.PosEnd,
	}
}

// insertBeforeLast inserts tok immediately before the final element of out
// (the EOF token), preserving order.
func insertBeforeLast(out []token.Token, tok token.Token) []token.Token {
	if len(out) == 0 {
		return append(out, tok)
	}
	last := out[len(out)-1]
	out[len(out)-1] = tok
	out = append(out, last)
	return out
}
