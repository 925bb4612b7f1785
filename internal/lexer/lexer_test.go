package lexer

import (
	"testing"

	"github.com/clowder-lang/clowder/internal/errors"
	"github.com/clowder-lang/clowder/internal/token"
)

func TestNextTokenBasic(t *testing.T) {
	input := `var x: int = 2 + 3 * 4;
print("%d\n", x);`

	tests := []struct {
		expectedKind    token.Kind
		expectedLiteral string
	}{
		{token.VAR, "var"},
		{token.IDENT, "x"},
		{token.COLON, ":"},
		{token.TYPE, "int"},
		{token.ASSIGN, "="},
		{token.INT, "2"},
		{token.PLUS, "+"},
		{token.INT, "3"},
		{token.ASTERISK, "*"},
		{token.INT, "4"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "print"},
		{token.LPAREN, "("},
		{token.STRING, `%d\n`},
		{token.COMMA, ","},
		{token.IDENT, "x"},
		{token.RPAREN, ")"},
		{token.SEMICOLON, ";"},
		{token.EOF, ""},
	}

	errs := errors.NewHandler()
	l := New(input, "test.clw", errs)

	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Kind != tt.expectedKind {
			t.Fatalf("tests[%d] - kind wrong. expected=%s, got=%s", i, tt.expectedKind, tok.Kind)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
	if errs.HasError() {
		t.Fatalf("unexpected lex errors: %v", errs.Errors())
	}
}

func TestNextTokenOperators(t *testing.T) {
	input := `+ - * / % ** += -= *= /= %= **= = == != < > <= >= -> ( ) : , ;`
	want := []token.Kind{
		token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.PERCENT, token.POW,
		token.PLUS_EQ, token.MINUS_EQ, token.STAR_EQ, token.SLASH_EQ, token.PERCENT_EQ, token.POW_EQ,
		token.ASSIGN, token.EQ, token.NOT_EQ, token.LT, token.GT, token.LT_EQ, token.GT_EQ,
		token.ARROW, token.LPAREN, token.RPAREN, token.COLON, token.COMMA, token.SEMICOLON, token.EOF,
	}
	errs := errors.NewHandler()
	l := New(input, "test.clw", errs)
	for i, k := range want {
		tok := l.NextToken()
		if tok.Kind != k {
			t.Fatalf("tests[%d] - kind wrong. expected=%s, got=%s (%q)", i, k, tok.Kind, tok.Literal)
		}
	}
}

func TestNextTokenIllegalBang(t *testing.T) {
	errs := errors.NewHandler()
	l := New("!", "test.clw", errs)
	tok := l.NextToken()
	if tok.Kind != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL, got %s", tok.Kind)
	}
	if !errs.HasError() {
		t.Fatal("expected a lexical error for bare '!'")
	}
}

func TestNextTokenBareDotIsError(t *testing.T) {
	errs := errors.NewHandler()
	l := New(". 5", "test.clw", errs)
	tok := l.NextToken()
	if tok.Kind != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL for bare '.', got %s", tok.Kind)
	}
	tok = l.NextToken()
	if tok.Kind != token.INT || tok.Literal != "5" {
		t.Fatalf("expected INT(5) after recovering, got %s(%q)", tok.Kind, tok.Literal)
	}
	if !errs.HasError() {
		t.Fatal("expected a lexical error for bare '.'")
	}
}

func TestNextTokenUnterminatedString(t *testing.T) {
	errs := errors.NewHandler()
	l := New(`"abc`, "test.clw", errs)
	l.NextToken()
	if !errs.HasError() {
		t.Fatal("expected a lexical error for unterminated string")
	}
}

func TestPositionMonotonicity(t *testing.T) {
	input := "var x: int = 1;\nvar y: float = 2.5;\n"
	errs := errors.NewHandler()
	toks := Tokenize(input, "test.clw", errs)
	for i := 0; i+1 < len(toks); i++ {
		if toks[i].PosEnd.ByteIndex > toks[i+1].PosStart.ByteIndex {
			t.Fatalf("position monotonicity violated at %d: %+v -> %+v", i, toks[i], toks[i+1])
		}
	}
}
