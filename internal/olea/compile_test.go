package olea

import (
	"errors"
	"testing"
	"time"

	"github.com/iguana-project/iguana/internal/event"
	"github.com/iguana-project/iguana/internal/model"
	"github.com/iguana-project/iguana/internal/store"
	"github.com/iguana-project/iguana/internal/testutil"
)

type fixture struct {
	tr    *testutil.TestTracker
	proc  *Processor
	sink  *event.MemorySink
	alice model.User
	bob   model.User
	prj   model.Project
	oth   model.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tr := testutil.NewTestTracker(t)

	alice := tr.User("alice", "Alice", "Anderson")
	bob := tr.User("bob", "Bob", "Brown")
	prj := tr.Project("Fancy Project", "PRJ", alice)
	oth := tr.Project("Other Project", "OTH", alice)
	tr.Developer(prj, bob)

	tr.Tag(prj, "frontend", "#ff0000")
	tr.Tag(prj, "backend", "")

	sink := &event.MemorySink{}
	return &fixture{
		tr:    tr,
		proc:  &Processor{DB: tr.DB, Sink: sink},
		sink:  sink,
		alice: alice,
		bob:   bob,
		prj:   prj,
		oth:   oth,
	}
}

func TestApplyCreatesIssue(t *testing.T) {
	f := newFixture(t)

	res, err := f.proc.Apply(`Fancy task :Story &Todo !3 $8`, f.prj, f.alice)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if !res.Created {
		t.Error("Created = false")
	}
	if res.Issue.Number != 1 {
		t.Errorf("number = %d, want 1", res.Issue.Number)
	}
	if res.Issue.Title != "Fancy task" {
		t.Errorf("title = %q", res.Issue.Title)
	}
	if res.Issue.Type != model.TypeStory {
		t.Errorf("type = %s", res.Issue.Type)
	}
	if res.Issue.Priority != model.PriorityHigh {
		t.Errorf("priority = %v", res.Issue.Priority)
	}
	if res.Issue.Storypoints != 8 {
		t.Errorf("storypoints = %d", res.Issue.Storypoints)
	}
	if res.Issue.CreatorID == nil || *res.Issue.CreatorID != f.alice.ID {
		t.Errorf("creator = %v", res.Issue.CreatorID)
	}

	if len(f.sink.Events) != 1 || f.sink.Events[0].Kind != event.IssueCreated {
		t.Fatalf("events = %+v", f.sink.Events)
	}
	if f.sink.Events[0].Ticket != "PRJ-1" {
		t.Errorf("ticket = %q", f.sink.Events[0].Ticket)
	}
}

func TestApplyNumbersAreSequential(t *testing.T) {
	f := newFixture(t)

	for want := 1; want <= 3; want++ {
		res, err := f.proc.Apply(`Another task`, f.prj, f.alice)
		if err != nil {
			t.Fatalf("Apply() error: %v", err)
		}
		if res.Issue.Number != want {
			t.Errorf("number = %d, want %d", res.Issue.Number, want)
		}
	}

	// Other projects number independently.
	res, err := f.proc.Apply(`First elsewhere`, f.oth, f.alice)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if res.Issue.Number != 1 {
		t.Errorf("number = %d, want 1", res.Issue.Number)
	}
}

func TestApplyEditsExistingIssue(t *testing.T) {
	f := newFixture(t)
	if _, err := f.proc.Apply(`Fancy task`, f.prj, f.alice); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	f.sink.Events = nil

	res, err := f.proc.Apply(`>PRJ-1 @ali #front ;now with details :Bug`, f.prj, f.bob)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if res.Created {
		t.Error("Created = true for an edit")
	}
	want := []string{"assignee", "tags", "description", "type"}
	if len(res.Changed) != len(want) {
		t.Fatalf("changed = %v, want %v", res.Changed, want)
	}
	for i := range want {
		if res.Changed[i] != want[i] {
			t.Errorf("changed[%d] = %q, want %q", i, res.Changed[i], want[i])
		}
	}
	if res.Issue.Description != "now with details" {
		t.Errorf("description = %q", res.Issue.Description)
	}

	assignees, err := store.Assignees(f.tr.DB.DB(), res.Issue.ID)
	if err != nil {
		t.Fatalf("Assignees() error: %v", err)
	}
	if len(assignees) != 1 || assignees[0] != "alice" {
		t.Errorf("assignees = %v, want [alice]", assignees)
	}
	tags, err := store.IssueTags(f.tr.DB.DB(), res.Issue.ID)
	if err != nil {
		t.Fatalf("IssueTags() error: %v", err)
	}
	if len(tags) != 1 || tags[0] != "frontend" {
		t.Errorf("tags = %v, want [frontend]", tags)
	}

	if len(f.sink.Events) != 1 || f.sink.Events[0].Kind != event.IssueModified {
		t.Fatalf("events = %+v", f.sink.Events)
	}
}

func TestApplyBareNumberRef(t *testing.T) {
	f := newFixture(t)
	if _, err := f.proc.Apply(`Fancy task`, f.prj, f.alice); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	res, err := f.proc.Apply(`>1 !4`, f.prj, f.alice)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if res.Issue.Priority != model.PriorityCritical {
		t.Errorf("priority = %v, want critical", res.Issue.Priority)
	}
}

func TestApplyTimelogs(t *testing.T) {
	f := newFixture(t)
	if _, err := f.proc.Apply(`Fancy task`, f.prj, f.alice); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	res, err := f.proc.Apply(`>PRJ-1 +2h5m +1m`, f.prj, f.alice)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	// Timelogs never count as changes.
	if len(res.Changed) != 0 {
		t.Errorf("changed = %v, want none", res.Changed)
	}
	if want := 2*time.Hour + 6*time.Minute; res.Issue.LoggedTotal != want {
		t.Errorf("logged total = %v, want %v", res.Issue.LoggedTotal, want)
	}

	logs, err := store.Timelogs(f.tr.DB.DB(), res.Issue.ID)
	if err != nil {
		t.Fatalf("Timelogs() error: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d timelogs, want 2", len(logs))
	}
	if logs[0].Seqnum != 1 || logs[1].Seqnum != 2 {
		t.Errorf("seqnums = %d, %d", logs[0].Seqnum, logs[1].Seqnum)
	}

	// No scalar change, no timelog event either way: nothing changed.
	for _, ev := range f.sink.Events {
		if ev.Kind == event.IssueModified {
			t.Errorf("timelog-only edit published a modified event: %+v", ev)
		}
	}
}

func TestApplyZeroTimelogIgnored(t *testing.T) {
	f := newFixture(t)
	if _, err := f.proc.Apply(`Fancy task +`, f.prj, f.alice); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	issue, err := f.tr.DB.IssueByNumber("PRJ", 1)
	if err != nil {
		t.Fatalf("IssueByNumber() error: %v", err)
	}
	if issue.LoggedTotal != 0 {
		t.Errorf("logged total = %v, want 0", issue.LoggedTotal)
	}
}

func TestApplyResolutionFailureLeavesStoreUntouched(t *testing.T) {
	f := newFixture(t)
	if _, err := f.proc.Apply(`Fancy task`, f.prj, f.alice); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	// The description directive would apply, but the unknown tag fails
	// resolution first; nothing may be written.
	_, err := f.proc.Apply(`>PRJ-1 ;should not stick #nonexistenttag`, f.prj, f.alice)
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("Apply() error = %v, want ResolutionError", err)
	}

	issue, err := f.tr.DB.IssueByNumber("PRJ", 1)
	if err != nil {
		t.Fatalf("IssueByNumber() error: %v", err)
	}
	if issue.Description != "" {
		t.Errorf("description = %q, want unchanged", issue.Description)
	}
}

func TestApplyFuzzyResolution(t *testing.T) {
	f := newFixture(t)

	// "front" matches only the frontend tag; "end" matches both.
	if _, err := f.proc.Apply(`Tagged task #front`, f.prj, f.alice); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	_, err := f.proc.Apply(`Ambiguous task #end`, f.prj, f.alice)
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("Apply() error = %v, want ResolutionError for ambiguous tag", err)
	}
}

func TestApplyExactMatchBreaksTies(t *testing.T) {
	f := newFixture(t)
	f.tr.Tag(f.prj, "front", "")

	// "front" now matches both tags fuzzily, but one of them exactly.
	res, err := f.proc.Apply(`Tie break #front`, f.prj, f.alice)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	tags, err := store.IssueTags(f.tr.DB.DB(), res.Issue.ID)
	if err != nil {
		t.Fatalf("IssueTags() error: %v", err)
	}
	if len(tags) != 1 || tags[0] != "front" {
		t.Errorf("tags = %v, want [front]", tags)
	}
}

func TestApplyPermissions(t *testing.T) {
	f := newFixture(t)
	mallory := f.tr.User("mallory", "", "")

	_, err := f.proc.Apply(`Sneaky task`, f.prj, mallory)
	if !errors.Is(err, store.ErrPermissionDenied) {
		t.Fatalf("Apply() error = %v, want permission denied", err)
	}

	// bob develops PRJ but not OTH; a cross-project reference he cannot
	// read reports as an invalid reference.
	if _, err := f.proc.Apply(`Other task`, f.oth, f.alice); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	_, err = f.proc.Apply(`>OTH-1 !4`, f.prj, f.bob)
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("Apply() error = %v, want ResolutionError", err)
	}
}

func TestApplyCrossProjectReference(t *testing.T) {
	f := newFixture(t)
	f.tr.Tag(f.oth, "elsewhere", "")
	if _, err := f.proc.Apply(`Other task`, f.oth, f.alice); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	// Directive lookups run against the referenced issue's project.
	res, err := f.proc.Apply(`>OTH-1 #elsewhere`, f.prj, f.alice)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if res.Issue.ProjectID != f.oth.ID {
		t.Errorf("issue project = %d, want %d", res.Issue.ProjectID, f.oth.ID)
	}
	tags, err := store.IssueTags(f.tr.DB.DB(), res.Issue.ID)
	if err != nil {
		t.Fatalf("IssueTags() error: %v", err)
	}
	if len(tags) != 1 || tags[0] != "elsewhere" {
		t.Errorf("tags = %v", tags)
	}
}

func TestApplyDependencies(t *testing.T) {
	f := newFixture(t)
	if _, err := f.proc.Apply(`First task`, f.prj, f.alice); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	res, err := f.proc.Apply(`Second task ~PRJ-1`, f.prj, f.alice)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	deps, err := store.Dependencies(f.tr.DB.DB(), res.Issue.ID)
	if err != nil {
		t.Fatalf("Dependencies() error: %v", err)
	}
	if len(deps) != 1 || deps[0] != 1 {
		t.Errorf("dependencies = %v, want [1]", deps)
	}

	// Dependencies may not cross projects.
	if _, err := f.proc.Apply(`Other task`, f.oth, f.alice); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	_, err = f.proc.Apply(`Third task ~OTH-1`, f.prj, f.alice)
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("Apply() error = %v, want ResolutionError", err)
	}
}

func TestApplyReplaceAssignees(t *testing.T) {
	f := newFixture(t)
	f.proc.ReplaceAssignees = true

	if _, err := f.proc.Apply(`Fancy task @alice`, f.prj, f.alice); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	// The first @ of the next expression clears the set; the second adds.
	res, err := f.proc.Apply(`>PRJ-1 @bob @alice`, f.prj, f.alice)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	assignees, err := store.Assignees(f.tr.DB.DB(), res.Issue.ID)
	if err != nil {
		t.Fatalf("Assignees() error: %v", err)
	}
	if len(assignees) != 2 {
		t.Errorf("assignees = %v, want both", assignees)
	}
}

func TestApplySprintPlacement(t *testing.T) {
	f := newFixture(t)
	sprint, err := f.tr.DB.CreateSprint(f.prj.ID, nil, nil)
	if err != nil {
		t.Fatalf("CreateSprint() error: %v", err)
	}
	f.proc.Sprint = &sprint

	res, err := f.proc.Apply(`Sprint task`, f.prj, f.alice)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if res.Issue.SprintID == nil || *res.Issue.SprintID != sprint.ID {
		t.Errorf("sprint = %v, want %d", res.Issue.SprintID, sprint.ID)
	}
}
