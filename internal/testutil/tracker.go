// Package testutil provides reusable seed helpers for tracker tests.
package testutil

import (
	"testing"
	"time"

	"github.com/iguana-project/iguana/internal/model"
	"github.com/iguana-project/iguana/internal/store"
)

// TestTracker wraps an in-memory tracker database with fail-fast seed helpers.
type TestTracker struct {
	DB *store.Database
	t  *testing.T
}

// NewTestTracker opens a fresh in-memory database. It is closed when the
// test finishes.
func NewTestTracker(t *testing.T) *TestTracker {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &TestTracker{DB: db, t: t}
}

// User creates a user.
func (tr *TestTracker) User(username, first, last string) model.User {
	tr.t.Helper()
	u, err := tr.DB.CreateUser(username, first, last)
	if err != nil {
		tr.t.Fatalf("failed to create user %s: %v", username, err)
	}
	return u
}

// Project creates a project; the creator becomes a manager.
func (tr *TestTracker) Project(name, code string, creator model.User) model.Project {
	tr.t.Helper()
	p, err := tr.DB.CreateProject(name, code, "", creator.ID)
	if err != nil {
		tr.t.Fatalf("failed to create project %s: %v", code, err)
	}
	return p
}

// Developer adds a user to a project's developer set.
func (tr *TestTracker) Developer(p model.Project, u model.User) {
	tr.t.Helper()
	if err := tr.DB.AddDeveloper(p.ID, u.ID); err != nil {
		tr.t.Fatalf("failed to add developer: %v", err)
	}
}

// Manager adds a user to a project's manager set.
func (tr *TestTracker) Manager(p model.Project, u model.User) {
	tr.t.Helper()
	if err := tr.DB.AddManager(p.ID, u.ID); err != nil {
		tr.t.Fatalf("failed to add manager: %v", err)
	}
}

// Tag creates a tag in the project.
func (tr *TestTracker) Tag(p model.Project, text, color string) model.Tag {
	tr.t.Helper()
	tag, err := tr.DB.CreateTag(p.ID, text, color)
	if err != nil {
		tr.t.Fatalf("failed to create tag %s: %v", text, err)
	}
	return tag
}

// Issue creates an issue in the project's first kanban column. The template's
// zero fields get the store defaults.
func (tr *TestTracker) Issue(p model.Project, template model.Issue) model.Issue {
	tr.t.Helper()
	template.ProjectID = p.ID
	if template.KanbanColID == 0 {
		col, err := tr.DB.FirstColumn(p.ID)
		if err != nil {
			tr.t.Fatalf("failed to load first column: %v", err)
		}
		template.KanbanColID = col.ID
	}
	issue, err := store.CreateIssue(tr.DB.DB(), template)
	if err != nil {
		tr.t.Fatalf("failed to create issue %q: %v", template.Title, err)
	}
	return issue
}

// Date builds a due-date pointer for issue templates.
func Date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
