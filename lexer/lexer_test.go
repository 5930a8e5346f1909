package lexer

import (
	"testing"

	"loxvm/token"
)

func scanAll(t *testing.T, source string) []token.Token {
	t.Helper()
	toks, err := New(source).Scan()
	if err != nil {
		t.Fatalf("Scan(%q) returned error: %v", source, err)
	}
	return toks
}

func TestScanOperators(t *testing.T) {
	toks := scanAll(t, "== != <= >= < > = + - * /")
	want := []token.TokenType{
		token.EQUAL_EQUAL, token.BANG_EQUAL, token.LESS_EQUAL, token.GREATER_EQUAL,
		token.LESS, token.GREATER, token.EQUAL, token.PLUS, token.MINUS, token.STAR, token.SLASH,
		token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll(t, "var x = true and false or nil")
	want := []token.TokenType{
		token.VAR, token.IDENTIFIER, token.EQUAL, token.TRUE, token.AND, token.FALSE,
		token.OR, token.NIL, token.EOF,
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestScanNumber(t *testing.T) {
	toks := scanAll(t, "123 45.67")
	if toks[0].Type != token.NUMBER || toks[0].Literal.(float64) != 123 {
		t.Errorf("got %v, want NUMBER 123", toks[0])
	}
	if toks[1].Type != token.NUMBER || toks[1].Literal.(float64) != 45.67 {
		t.Errorf("got %v, want NUMBER 45.67", toks[1])
	}
}

func TestScanNumberNoLeadingOrTrailingDot(t *testing.T) {
	toks := scanAll(t, "1.")
	if toks[0].Type != token.NUMBER || toks[0].Lexeme != "1" {
		t.Errorf("got %v, want NUMBER '1'", toks[0])
	}
	if toks[1].Type != token.DOT {
		t.Errorf("got %v, want DOT", toks[1])
	}

	toks = scanAll(t, ".5")
	if toks[0].Type != token.DOT {
		t.Errorf("got %v, want DOT", toks[0])
	}
	if toks[1].Type != token.NUMBER || toks[1].Lexeme != "5" {
		t.Errorf("got %v, want NUMBER '5'", toks[1])
	}
}

func TestScanString(t *testing.T) {
	toks := scanAll(t, `"hello world"`)
	if toks[0].Type != token.STRING || toks[0].Literal.(string) != "hello world" {
		t.Errorf("got %v, want STRING 'hello world'", toks[0])
	}
}

func TestScanStringEmbeddedNewline(t *testing.T) {
	toks := scanAll(t, "\"a\nb\"")
	if toks[0].Literal.(string) != "a\nb" {
		t.Errorf("got %q, want %q", toks[0].Literal, "a\nb")
	}
}

func TestScanUnterminatedString(t *testing.T) {
	_, err := New(`"unterminated`).Scan()
	if err == nil {
		t.Fatal("expected an error for an unterminated string")
	}
	var se ScanError
	if !asScanError(err, &se) {
		t.Fatalf("got %v, want ScanError", err)
	}
	if se.Message != "Unterminated string." {
		t.Errorf("got message %q", se.Message)
	}
}

func TestScanLineComment(t *testing.T) {
	toks := scanAll(t, "1 // this is a comment\n2")
	if len(toks) != 3 { // 1, 2, EOF
		t.Fatalf("got %d tokens, want 3: %v", len(toks), toks)
	}
	if toks[1].Line != 2 {
		t.Errorf("got line %d, want 2", toks[1].Line)
	}
}

func TestScanUnexpectedCharacter(t *testing.T) {
	_, err := New("@").Scan()
	if err == nil {
		t.Fatal("expected an error for an unexpected character")
	}
}

func asScanError(err error, target *ScanError) bool {
	se, ok := err.(ScanError)
	if ok {
		*target = se
	}
	return ok
}
