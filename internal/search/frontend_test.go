package search

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/iguana-project/iguana/internal/model"
	"github.com/iguana-project/iguana/internal/testutil"
)

// seedTracker builds the fixture used by the frontend tests: two projects
// with disjoint membership and a handful of issues.
func seedTracker(t *testing.T) (*testutil.TestTracker, model.User, model.User) {
	t.Helper()
	tr := testutil.NewTestTracker(t)

	alice := tr.User("alice", "Alice", "Anderson")
	dave := tr.User("dave", "Dave", "Dunn")

	prj := tr.Project("Fancy Project", "PRJ", alice)
	sec := tr.Project("Secret Project", "SEC", dave)

	tr.Issue(prj, model.Issue{Title: "Fix login crash", Type: model.TypeBug,
		Priority: model.PriorityHigh, DueDate: testutil.Date(2005, time.October, 1)})
	tr.Issue(prj, model.Issue{Title: "Broken signup flow", Type: model.TypeBug,
		DueDate: testutil.Date(2005, time.October, 20)})
	tr.Issue(prj, model.Issue{Title: "Write documentation", Type: model.TypeTask})
	tr.Issue(prj, model.Issue{Title: "Refactor lexer", Type: model.TypeTask})

	tr.Issue(sec, model.Issue{Title: "Classified bug hunt", Type: model.TypeBug})

	return tr, alice, dave
}

func TestQueryStructured(t *testing.T) {
	tr, alice, _ := seedTracker(t)
	f := NewFrontend(tr.DB)

	tests := []struct {
		name       string
		expression string
		want       int
	}{
		{"equality", `Issue.type == "Bug"`, 2},
		{"date comparison", `Issue.due_date <= 20051005`, 1},
		{"or union", `Issue.type == "Bug" OR Issue.type == "Task"`, 4},
		{"and intersection", `Issue.type == "Bug" AND Issue.priority >= 3`, 1},
		{"contains is case insensitive", `Issue.title ~~ "SIGNUP"`, 1},
		{"regex anchor", `Issue.title ~ "^Fix"`, 1},
		{"malformed regex matches nothing", `Issue.title ~ "["`, 0},
		{"relation terminal", `Issue.project == "PRJ"`, 4},
		{"relation traversal", `Issue.project.name ~~ "fancy"`, 4},
		{"limit caps results", `Issue.type == "Task" LIMIT 1`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := f.Query(tt.expression, alice)
			if err != nil {
				t.Fatalf("Query(%q) error: %v", tt.expression, err)
			}
			if len(results) != tt.want {
				t.Errorf("Query(%q) returned %d results, want %d: %+v",
					tt.expression, len(results), tt.want, results)
			}
		})
	}
}

func TestQueryResultProjectFields(t *testing.T) {
	tr, alice, _ := seedTracker(t)
	f := NewFrontend(tr.DB)

	results, err := f.Query(`Issue.title ~~ "login"`, alice)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1: %+v", len(results), results)
	}
	r := results[0]
	if r.Project != "Fancy Project" || r.ProjectCode != "PRJ" || r.ProjectID == 0 {
		t.Errorf("result project fields = %q/%q/%d, want Fancy Project/PRJ/non-zero",
			r.Project, r.ProjectCode, r.ProjectID)
	}

	users, err := f.Query(`User.username == "alice"`, alice)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(users) != 1 || users[0].ProjectCode != "" || users[0].ProjectID != 0 {
		t.Errorf("user results carry project fields: %+v", users)
	}
}

func TestQuerySortOrder(t *testing.T) {
	tr, alice, _ := seedTracker(t)
	f := NewFrontend(tr.DB)

	results, err := f.Query(`Issue.type == "Task" SORT DESC Issue.number`, alice)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID < results[1].ID {
		t.Errorf("results not in descending order: %+v", results)
	}
}

func TestQueryFiltersUnreadableProjects(t *testing.T) {
	tr, alice, dave := seedTracker(t)
	f := NewFrontend(tr.DB)

	// Each user only sees bugs from their own project.
	for _, tc := range []struct {
		user model.User
		want string
	}{
		{alice, "Fix login crash"},
		{dave, "Classified bug hunt"},
	} {
		results, err := f.Query(`Issue.type == "Bug" SORT ASC Issue.number`, tc.user)
		if err != nil {
			t.Fatalf("Query() error: %v", err)
		}
		for _, r := range results {
			if r.Kind != model.KindIssue {
				t.Errorf("unexpected kind %s", r.Kind)
			}
		}
		found := false
		for _, r := range results {
			found = found || strings.Contains(r.Title, tc.want)
		}
		if !found {
			t.Errorf("user %s: expected a result containing %q, got %+v", tc.user.Username, tc.want, results)
		}
	}

	// A user with no memberships sees no project results at all.
	mallory := tr.User("mallory", "", "")
	results, err := f.Query(`Issue.type == "Bug"`, mallory)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("outsider saw %d results: %+v", len(results), results)
	}
}

func TestQueryUserResultsPassFilter(t *testing.T) {
	tr, _, _ := seedTracker(t)
	f := NewFrontend(tr.DB)

	// Users carry no project affiliation, so membership filtering does
	// not apply to them.
	mallory := tr.User("mallory", "", "")
	results, err := f.Query(`User.username ~~ "ali"`, mallory)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(results) != 1 || results[0].Kind != model.KindUser {
		t.Errorf("results = %+v, want one user", results)
	}
}

func TestQueryFieldErrorsSurface(t *testing.T) {
	tr, alice, _ := seedTracker(t)
	f := NewFrontend(tr.DB)

	_, err := f.Query(`Issue.elephant == 1`, alice)
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("Query() error = %v, want FieldError", err)
	}
}

func TestQueryFullTextFallback(t *testing.T) {
	tr, alice, _ := seedTracker(t)
	f := NewFrontend(tr.DB)

	results, err := f.Query(`login`, alice)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(results) != 1 || results[0].Kind != model.KindIssue {
		t.Fatalf("results = %+v, want the login issue", results)
	}

	// " OR " unions, " AND " intersects.
	results, err = f.Query(`login OR signup`, alice)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2: %+v", len(results), results)
	}

	results, err = f.Query(`login AND signup`, alice)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0: %+v", len(results), results)
	}
}

func TestQueryRecordsHistory(t *testing.T) {
	tr, alice, _ := seedTracker(t)
	f := NewFrontend(tr.DB)

	// Re-running the same expression must not grow the history.
	for i := 0; i < 3; i++ {
		if _, err := f.Query(`Issue.type == "Bug"`, alice); err != nil {
			t.Fatalf("Query() error: %v", err)
		}
	}
	history, err := tr.DB.SearchesByCreator(alice.ID, false)
	if err != nil {
		t.Fatalf("SearchesByCreator() error: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history has %d entries after repeated query, want 1", len(history))
	}
	if history[0].Description != model.AutosaveDescription {
		t.Errorf("description = %q, want %q", history[0].Description, model.AutosaveDescription)
	}
}

func TestQueryHistoryRetention(t *testing.T) {
	tr, alice, _ := seedTracker(t)
	f := NewFrontend(tr.DB)
	f.HistoryLimit = 3

	for i := 0; i < 6; i++ {
		expr := fmt.Sprintf(`Issue.number == %d`, i+1)
		if _, err := f.Query(expr, alice); err != nil {
			t.Fatalf("Query(%q) error: %v", expr, err)
		}
	}
	history, err := tr.DB.SearchesByCreator(alice.ID, false)
	if err != nil {
		t.Fatalf("SearchesByCreator() error: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history has %d entries, want 3", len(history))
	}
	// The newest expressions survive.
	for _, s := range history {
		if s.Expression == "Issue.number == 1" {
			t.Errorf("oldest entry still present: %+v", history)
		}
	}
}

