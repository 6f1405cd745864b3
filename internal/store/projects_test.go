package store_test

import (
	"testing"

	"github.com/iguana-project/iguana/internal/store"
	"github.com/iguana-project/iguana/internal/testutil"
)

func TestCreatorIsManager(t *testing.T) {
	tr := testutil.NewTestTracker(t)
	alice := tr.User("alice", "", "")
	prj := tr.Project("Fancy Project", "PRJ", alice)

	ok, err := tr.DB.IsManager(prj.ID, alice.ID)
	if err != nil {
		t.Fatalf("IsManager() error: %v", err)
	}
	if !ok {
		t.Error("creator is not a manager")
	}
	ok, err = tr.DB.DeveloperAllowed(prj.ID, alice.ID)
	if err != nil {
		t.Fatalf("DeveloperAllowed() error: %v", err)
	}
	if !ok {
		t.Error("manager lacks developer permission")
	}
}

func TestDeveloperAllowed(t *testing.T) {
	tr := testutil.NewTestTracker(t)
	alice := tr.User("alice", "", "")
	bob := tr.User("bob", "", "")
	mallory := tr.User("mallory", "", "")
	prj := tr.Project("Fancy Project", "PRJ", alice)
	tr.Developer(prj, bob)

	tests := []struct {
		username string
		userID   int64
		dev      bool
		manager  bool
	}{
		{"alice", alice.ID, true, true},
		{"bob", bob.ID, true, false},
		{"mallory", mallory.ID, false, false},
	}
	for _, tt := range tests {
		dev, err := tr.DB.DeveloperAllowed(prj.ID, tt.userID)
		if err != nil {
			t.Fatalf("DeveloperAllowed(%s) error: %v", tt.username, err)
		}
		if dev != tt.dev {
			t.Errorf("DeveloperAllowed(%s) = %v, want %v", tt.username, dev, tt.dev)
		}
		mgr, err := tr.DB.IsManager(prj.ID, tt.userID)
		if err != nil {
			t.Fatalf("IsManager(%s) error: %v", tt.username, err)
		}
		if mgr != tt.manager {
			t.Errorf("IsManager(%s) = %v, want %v", tt.username, mgr, tt.manager)
		}
	}
}

func TestReadableProjects(t *testing.T) {
	tr := testutil.NewTestTracker(t)
	alice := tr.User("alice", "", "")
	bob := tr.User("bob", "", "")
	prj := tr.Project("Fancy Project", "PRJ", alice)
	oth := tr.Project("Other Project", "OTH", alice)
	tr.Developer(prj, bob)

	readable, err := tr.DB.ReadableProjects(bob.ID)
	if err != nil {
		t.Fatalf("ReadableProjects() error: %v", err)
	}
	if !readable[prj.ID] || readable[oth.ID] {
		t.Errorf("readable = %v", readable)
	}

	readable, err = tr.DB.ReadableProjects(alice.ID)
	if err != nil {
		t.Fatalf("ReadableProjects() error: %v", err)
	}
	if !readable[prj.ID] || !readable[oth.ID] {
		t.Errorf("readable = %v", readable)
	}
}

func TestDefaultColumns(t *testing.T) {
	tr := testutil.NewTestTracker(t)
	alice := tr.User("alice", "", "")
	prj := tr.Project("Fancy Project", "PRJ", alice)

	columns, err := tr.DB.Columns(prj.ID)
	if err != nil {
		t.Fatalf("Columns() error: %v", err)
	}
	if len(columns) != len(store.DefaultColumns) {
		t.Fatalf("got %d columns, want %d", len(columns), len(store.DefaultColumns))
	}
	for i, col := range columns {
		if col.Name != store.DefaultColumns[i].Name {
			t.Errorf("column %d = %q, want %q", i, col.Name, store.DefaultColumns[i].Name)
		}
	}

	first, err := tr.DB.FirstColumn(prj.ID)
	if err != nil {
		t.Fatalf("FirstColumn() error: %v", err)
	}
	if first.Name != "Todo" {
		t.Errorf("first column = %q, want Todo", first.Name)
	}
}

func TestSprintSeqnums(t *testing.T) {
	tr := testutil.NewTestTracker(t)
	alice := tr.User("alice", "", "")
	prj := tr.Project("Fancy Project", "PRJ", alice)

	for want := 1; want <= 3; want++ {
		sprint, err := tr.DB.CreateSprint(prj.ID, nil, nil)
		if err != nil {
			t.Fatalf("CreateSprint() error: %v", err)
		}
		if sprint.Seqnum != want {
			t.Errorf("seqnum = %d, want %d", sprint.Seqnum, want)
		}
	}

	sprint, err := tr.DB.SprintBySeqnum(prj.ID, 2)
	if err != nil {
		t.Fatalf("SprintBySeqnum() error: %v", err)
	}
	if sprint.Seqnum != 2 {
		t.Errorf("seqnum = %d, want 2", sprint.Seqnum)
	}
}

func TestFuzzyMatchers(t *testing.T) {
	tr := testutil.NewTestTracker(t)
	alice := tr.User("alice", "", "")
	bob := tr.User("bob", "", "")
	prj := tr.Project("Fancy Project", "PRJ", alice)
	tr.Developer(prj, bob)
	tr.Tag(prj, "frontend", "")
	tr.Tag(prj, "backend", "")

	tags, err := tr.DB.TagsMatching(prj.ID, "END")
	if err != nil {
		t.Fatalf("TagsMatching() error: %v", err)
	}
	if len(tags) != 2 {
		t.Errorf("TagsMatching(END) = %d matches, want 2", len(tags))
	}

	cols, err := tr.DB.ColumnsMatching(prj.ID, "progress")
	if err != nil {
		t.Fatalf("ColumnsMatching() error: %v", err)
	}
	if len(cols) != 1 || cols[0].Name != "In Progress" {
		t.Errorf("ColumnsMatching(progress) = %+v", cols)
	}

	members, err := tr.DB.MembersMatching(prj.ID, "ali")
	if err != nil {
		t.Fatalf("MembersMatching() error: %v", err)
	}
	if len(members) != 1 || members[0].Username != "alice" {
		t.Errorf("MembersMatching(ali) = %+v", members)
	}
}
