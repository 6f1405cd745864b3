package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/iguana-project/iguana/internal/store"
	"github.com/iguana-project/iguana/internal/testutil"
)

func TestRecordQueryDeduplicates(t *testing.T) {
	tr := testutil.NewTestTracker(t)
	alice := tr.User("alice", "", "")

	for i := 0; i < 3; i++ {
		if err := tr.DB.RecordQuery(alice.ID, `Issue.type == "Bug"`, 10); err != nil {
			t.Fatalf("RecordQuery() error: %v", err)
		}
	}
	history, err := tr.DB.SearchesByCreator(alice.ID, false)
	if err != nil {
		t.Fatalf("SearchesByCreator() error: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("history has %d entries, want 1", len(history))
	}
}

func TestRecordQueryRetention(t *testing.T) {
	tr := testutil.NewTestTracker(t)
	alice := tr.User("alice", "", "")

	for i := 0; i < 15; i++ {
		if err := tr.DB.RecordQuery(alice.ID, fmt.Sprintf("query %d", i), 10); err != nil {
			t.Fatalf("RecordQuery() error: %v", err)
		}
	}
	history, err := tr.DB.SearchesByCreator(alice.ID, false)
	if err != nil {
		t.Fatalf("SearchesByCreator() error: %v", err)
	}
	if len(history) != 10 {
		t.Fatalf("history has %d entries, want 10", len(history))
	}
	if history[0].Expression != "query 14" {
		t.Errorf("newest = %q, want query 14", history[0].Expression)
	}
}

func TestRetentionSparesPersistentSearches(t *testing.T) {
	tr := testutil.NewTestTracker(t)
	alice := tr.User("alice", "", "")

	if err := tr.DB.RecordQuery(alice.ID, "keep me", 10); err != nil {
		t.Fatalf("RecordQuery() error: %v", err)
	}
	history, _ := tr.DB.SearchesByCreator(alice.ID, false)
	if err := tr.DB.MakePersistent(history[0].ID, alice.ID); err != nil {
		t.Fatalf("MakePersistent() error: %v", err)
	}

	for i := 0; i < 15; i++ {
		if err := tr.DB.RecordQuery(alice.ID, fmt.Sprintf("query %d", i), 10); err != nil {
			t.Fatalf("RecordQuery() error: %v", err)
		}
	}

	saved, err := tr.DB.SearchesByCreator(alice.ID, true)
	if err != nil {
		t.Fatalf("SearchesByCreator() error: %v", err)
	}
	if len(saved) != 1 || saved[0].Expression != "keep me" {
		t.Errorf("saved = %+v, want the promoted search", saved)
	}
}

func TestMakePersistentLifecycle(t *testing.T) {
	tr := testutil.NewTestTracker(t)
	alice := tr.User("alice", "", "")
	bob := tr.User("bob", "", "")

	if err := tr.DB.RecordQuery(alice.ID, "my query", 10); err != nil {
		t.Fatalf("RecordQuery() error: %v", err)
	}
	history, _ := tr.DB.SearchesByCreator(alice.ID, false)
	id := history[0].ID

	// Only the creator may promote.
	if err := tr.DB.MakePersistent(id, bob.ID); !errors.Is(err, store.ErrPermissionDenied) {
		t.Fatalf("MakePersistent(bob) error = %v, want permission denied", err)
	}
	if err := tr.DB.MakePersistent(id, alice.ID); err != nil {
		t.Fatalf("MakePersistent() error: %v", err)
	}
	// Promoting twice fails.
	if err := tr.DB.MakePersistent(id, alice.ID); err == nil {
		t.Error("MakePersistent() succeeded on a persistent search")
	}

	if err := tr.DB.DeletePersistent(id, bob.ID); !errors.Is(err, store.ErrPermissionDenied) {
		t.Fatalf("DeletePersistent(bob) error = %v, want permission denied", err)
	}
	if err := tr.DB.DeletePersistent(id, alice.ID); err != nil {
		t.Fatalf("DeletePersistent() error: %v", err)
	}
	if _, err := tr.DB.SearchByID(id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("SearchByID() error = %v, want ErrNotFound", err)
	}
}

func TestSharingGrantsReadToMembersAndWriteToManagers(t *testing.T) {
	tr := testutil.NewTestTracker(t)
	alice := tr.User("alice", "", "")
	bob := tr.User("bob", "", "")
	carol := tr.User("carol", "", "")
	mallory := tr.User("mallory", "", "")
	prj := tr.Project("Fancy Project", "PRJ", alice)
	tr.Developer(prj, bob)
	tr.Manager(prj, carol)

	if err := tr.DB.RecordQuery(alice.ID, "shared query", 10); err != nil {
		t.Fatalf("RecordQuery() error: %v", err)
	}
	history, _ := tr.DB.SearchesByCreator(alice.ID, false)
	id := history[0].ID
	if err := tr.DB.MakePersistent(id, alice.ID); err != nil {
		t.Fatalf("MakePersistent() error: %v", err)
	}

	// Sharing requires write access.
	if err := tr.DB.ShareSearch(id, prj.ID, bob.ID); !errors.Is(err, store.ErrPermissionDenied) {
		t.Fatalf("ShareSearch(bob) error = %v, want permission denied", err)
	}
	if err := tr.DB.ShareSearch(id, prj.ID, alice.ID); err != nil {
		t.Fatalf("ShareSearch() error: %v", err)
	}

	tests := []struct {
		name   string
		userID int64
		read   bool
		write  bool
	}{
		{"creator", alice.ID, true, true},
		{"shared project developer", bob.ID, true, false},
		{"shared project manager", carol.ID, true, true},
		{"outsider", mallory.ID, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			read, err := tr.DB.CanReadSearch(id, tt.userID)
			if err != nil {
				t.Fatalf("CanReadSearch() error: %v", err)
			}
			if read != tt.read {
				t.Errorf("read = %v, want %v", read, tt.read)
			}
			write, err := tr.DB.CanWriteSearch(id, tt.userID)
			if err != nil {
				t.Fatalf("CanWriteSearch() error: %v", err)
			}
			if write != tt.write {
				t.Errorf("write = %v, want %v", write, tt.write)
			}
		})
	}

	shared, err := tr.DB.SharedSearches(prj.ID)
	if err != nil {
		t.Fatalf("SharedSearches() error: %v", err)
	}
	if len(shared) != 1 || shared[0].ID != id {
		t.Errorf("shared = %+v", shared)
	}

	// A manager of the shared project may edit the description.
	if err := tr.DB.UpdateSearch(id, carol.ID, "triage list", "shared query"); err != nil {
		t.Fatalf("UpdateSearch() error: %v", err)
	}
	s, err := tr.DB.SearchByID(id)
	if err != nil {
		t.Fatalf("SearchByID() error: %v", err)
	}
	if s.Description != "triage list" {
		t.Errorf("description = %q", s.Description)
	}
}
