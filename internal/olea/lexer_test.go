package olea

import (
	"errors"
	"testing"
)

func TestLexOpeners(t *testing.T) {
	tests := []struct {
		name  string
		input string
		typ   TokenType
		value string
	}{
		{"title", "Fancy new task", TokenTitle, "Fancy new task"},
		{"title with punctuation", `Fix "login" bug (again?)`, TokenTitle, `Fix "login" bug (again?)`},
		{"qualified ref", ">PRJ-4", TokenRef, "PRJ-4"},
		{"bare ref", ">4", TokenRef, "4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("Lex(%q) error: %v", tt.input, err)
			}
			if len(tokens) != 1 {
				t.Fatalf("got %d tokens, want 1", len(tokens))
			}
			if tokens[0].Type != tt.typ || tokens[0].Value != tt.value {
				t.Errorf("token = {%v %q}, want {%v %q}",
					tokens[0].Type, tokens[0].Value, tt.typ, tt.value)
			}
		})
	}
}

func TestLexDirectives(t *testing.T) {
	input := `Fancy task @alice #frontend ;does fancy things &In Progress !3 $8 :Story ~PRJ-2 +1d2h10m`
	tokens, err := Lex(input)
	if err != nil {
		t.Fatalf("Lex() error: %v", err)
	}

	want := []Token{
		{Type: TokenTitle, Value: "Fancy task"},
		{Type: TokenAssign, Value: "alice"},
		{Type: TokenTag, Value: "frontend"},
		{Type: TokenDescr, Value: "does fancy things"},
		{Type: TokenColumn, Value: "In Progress"},
		{Type: TokenPrio, Value: "3"},
		{Type: TokenPoints, Value: "8"},
		{Type: TokenIssueType, Value: "Story"},
		{Type: TokenDepends, Value: "PRJ-2"},
		{Type: TokenTimelog, Value: "1d2h10m"},
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(tokens), len(want), tokens)
	}
	for i, tok := range tokens {
		if tok.Type != want[i].Type || tok.Value != want[i].Value {
			t.Errorf("token %d = {%v %q}, want {%v %q}",
				i, tok.Type, tok.Value, want[i].Type, want[i].Value)
		}
	}
}

func TestLexSpacedValuesDoNotSwallowNextDirective(t *testing.T) {
	// The spaced value scan backs off trailing spaces so the separator
	// space before the next marker survives.
	tokens, err := Lex(`New task ;a longer description !2`)
	if err != nil {
		t.Fatalf("Lex() error: %v", err)
	}
	if len(tokens) != 3 {
		t.Fatalf("got %d tokens, want 3: %+v", len(tokens), tokens)
	}
	if tokens[1].Value != "a longer description" {
		t.Errorf("description = %q", tokens[1].Value)
	}
	if tokens[2].Type != TokenPrio || tokens[2].Value != "2" {
		t.Errorf("priority token = %+v", tokens[2])
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty expression", ""},
		{"opener starts with marker", "@alice"},
		{"bad ref", ">PROJECT-4"},
		{"priority out of range", "Task !7"},
		{"priority multi digit", "Task !12"},
		{"points not numeric", "Task $abc"},
		{"empty assignee", "Task @"},
		{"empty tag", "Task #"},
		{"unknown marker", "Task %nope"},
		{"double space between directives", "Task  !2"},
		{"bad timelog", "Task +2x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lex(tt.input)
			if err == nil {
				t.Fatalf("Lex(%q) succeeded, want error", tt.input)
			}
		})
	}
}

func TestLexInvalidIssueType(t *testing.T) {
	_, err := Lex("Task :Epic")
	if err == nil {
		t.Fatal("Lex() accepted unknown issue type")
	}
	var lexErr *LexError
	if errors.As(err, &lexErr) {
		t.Fatalf("issue type error should carry the type name, got %v", err)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  int64 // seconds
		ok    bool
	}{
		{"1d2h10m", 24*3600 + 2*3600 + 10*60, true},
		{"2h5m", 2*3600 + 5*60, true},
		{"1m", 60, true},
		{"3d", 3 * 24 * 3600, true},
		{"", 0, true},
		{"2x", 0, false},
		{"h2", 0, false},
		{"2m1h", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := ParseDuration(tt.input)
			if tt.ok != (err == nil) {
				t.Fatalf("ParseDuration(%q) error = %v, ok = %v", tt.input, err, tt.ok)
			}
			if err == nil && int64(d.Seconds()) != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %d seconds", tt.input, d, tt.want)
			}
		})
	}
}
