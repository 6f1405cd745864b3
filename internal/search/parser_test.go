package search

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseComparison(t *testing.T) {
	q, err := Parse(`Issue.type == "Bug"`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	c, ok := q.Root.(*Comparison)
	if !ok {
		t.Fatalf("root is %T, want *Comparison", q.Root)
	}
	if c.Entity != "Issue" || len(c.Path) != 1 || c.Path[0] != "type" {
		t.Errorf("field = %s.%v", c.Entity, c.Path)
	}
	if c.Op != CompareEq {
		t.Errorf("op = %v, want ==", c.Op)
	}
	if c.Value.Kind != LiteralString || c.Value.Str != "Bug" {
		t.Errorf("value = %+v", c.Value)
	}
	if q.Limit != -1 {
		t.Errorf("limit = %d, want -1", q.Limit)
	}
}

func TestParseBooleanNesting(t *testing.T) {
	q, err := Parse(`(Issue.priority >= 3 OR Issue.type == "Bug") AND Issue.storypoints < 8`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	and, ok := q.Root.(*And)
	if !ok {
		t.Fatalf("root is %T, want *And", q.Root)
	}
	if _, ok := and.Left.(*Or); !ok {
		t.Errorf("left is %T, want *Or", and.Left)
	}
	if _, ok := and.Right.(*Comparison); !ok {
		t.Errorf("right is %T, want *Comparison", and.Right)
	}
}

func TestParseMixedBooleansRejected(t *testing.T) {
	_, err := Parse(`Issue.priority >= 3 OR Issue.type == "Bug" AND Issue.storypoints < 8`)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Parse() error = %v, want ParseError for mixed AND/OR", err)
	}
}

func TestParseEmptyOperand(t *testing.T) {
	_, err := Parse(`(Issue.number == 1) AND ()`)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Parse() error = %v, want ParseError for empty operand", err)
	}
}

func TestParseSortAndLimit(t *testing.T) {
	q, err := Parse(`Issue.type == "Bug" SORT DESC Issue.due_date LIMIT 5`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if q.Sort == nil || q.Sort.Entity != "Issue" || q.Sort.Field != "due_date" || !q.Sort.Descending {
		t.Errorf("sort = %+v", q.Sort)
	}
	if q.Limit != 5 {
		t.Errorf("limit = %d, want 5", q.Limit)
	}
}

func TestParseDirectiveErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"duplicate sort", `Issue.number == 1 SORT ASC Issue.number SORT DESC Issue.number`},
		{"duplicate limit", `Issue.number == 1 LIMIT 5 LIMIT 10`},
		{"sort without order", `Issue.number == 1 SORT Issue.number`},
		{"limit without value", `Issue.number == 1 LIMIT`},
		{"trailing garbage", `Issue.number == 1 Issue.number`},
		{"unqualified field", `title == "x"`},
		{"missing comparator", `Issue.title "x"`},
		{"missing value", `Issue.title ==`},
		{"empty expression", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Parse(%q) error = %v, want ParseError", tt.input, err)
			}
		})
	}
}

func TestSplitFullText(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		want       [][]string
	}{
		{"or then and", `login bug OR signup AND flow`,
			[][]string{{"login bug"}, {"signup", "flow"}}},
		{"single term", `login`, [][]string{{"login"}}},
		// The split happens at the literal separators " OR " and " AND ",
		// so an adjacent "AND OR " leaves "Bla AND" as a term rather than
		// raising an error. "Bla AND   OR Blub" does error: the AND operand
		// between the separators trims to empty.
		{"adjacent keywords stick to terms", `Bla AND OR Blub`,
			[][]string{{"Bla AND"}, {"Blub"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, err := splitFullText(tt.expression)
			if err != nil {
				t.Fatalf("splitFullText(%q) error: %v", tt.expression, err)
			}
			if diff := cmp.Diff(tt.want, groups); diff != "" {
				t.Errorf("splitFullText(%q) mismatch (-want +got):\n%s", tt.expression, diff)
			}
		})
	}
}

func TestSplitFullTextMinimumLength(t *testing.T) {
	_, err := splitFullText(`Bla AND x`)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("splitFullText() error = %v, want ParseError for short operand", err)
	}
	if _, err := splitFullText(`ab OR Blub`); err == nil {
		t.Error("splitFullText() accepted two character OR operand")
	}
	if _, err := splitFullText(`Bla AND   OR Blub`); err == nil {
		t.Error("splitFullText() accepted empty operand between AND and OR")
	}
}
