package search

import (
	"errors"
	"testing"

	"github.com/iguana-project/iguana/internal/model"
)

func TestResolveFieldScalar(t *testing.T) {
	entity := registry[model.KindIssue]
	resolved, err := ResolveField(entity, []string{"title"})
	if err != nil {
		t.Fatalf("ResolveField() error: %v", err)
	}
	if len(resolved.Steps) != 0 {
		t.Errorf("steps = %d, want 0", len(resolved.Steps))
	}
	if resolved.LeafColumn != "title" || resolved.LeafType != FieldString {
		t.Errorf("leaf = %s (%v)", resolved.LeafColumn, resolved.LeafType)
	}
}

func TestResolveFieldRelationTerminal(t *testing.T) {
	// A path ending on a relation compares the relation's key column.
	entity := registry[model.KindIssue]
	resolved, err := ResolveField(entity, []string{"assignee"})
	if err != nil {
		t.Fatalf("ResolveField() error: %v", err)
	}
	if len(resolved.Steps) != 1 {
		t.Fatalf("steps = %d, want 1", len(resolved.Steps))
	}
	if resolved.LeafColumn != "username" || resolved.LeafType != FieldString {
		t.Errorf("leaf = %s (%v), want username (string)", resolved.LeafColumn, resolved.LeafType)
	}
}

func TestResolveFieldTraversal(t *testing.T) {
	entity := registry[model.KindComment]
	resolved, err := ResolveField(entity, []string{"issue", "project", "name_short"})
	if err != nil {
		t.Fatalf("ResolveField() error: %v", err)
	}
	if len(resolved.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(resolved.Steps))
	}
	if resolved.LeafColumn != "name_short" {
		t.Errorf("leaf = %s, want name_short", resolved.LeafColumn)
	}
}

func TestResolveFieldErrors(t *testing.T) {
	tests := []struct {
		name string
		kind model.Kind
		path []string
	}{
		{"unknown field", model.KindIssue, []string{"elephant"}},
		{"field outside allow list", model.KindUser, []string{"password"}},
		{"subfield of scalar", model.KindIssue, []string{"title", "length"}},
		{"past a leaf-only relation", model.KindIssue, []string{"sprint", "number"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveField(registry[tt.kind], tt.path)
			var fieldErr *FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("ResolveField(%v) error = %v, want FieldError", tt.path, err)
			}
		})
	}
}

func TestCompileStructuredMixedEntities(t *testing.T) {
	q, err := Parse(`Issue.number == 1 AND Project.name == "abc"`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	_, _, _, err = compileStructured(q)
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("compileStructured() error = %v, want FieldError for mixed entities", err)
	}
}

func TestCompileSortRejectsRelation(t *testing.T) {
	entity := registry[model.KindIssue]
	if _, err := compileSort(entity, &SortSpec{Entity: "Issue", Field: "title"}); err != nil {
		t.Fatalf("compileSort(title) error: %v", err)
	}
	if _, err := compileSort(entity, &SortSpec{Entity: "Project", Field: "name"}); err == nil {
		t.Error("compileSort() accepted a sort field from another entity")
	}
}
