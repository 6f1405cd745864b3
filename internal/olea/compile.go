package olea

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iguana-project/iguana/internal/event"
	"github.com/iguana-project/iguana/internal/model"
	"github.com/iguana-project/iguana/internal/store"
)

// ResolutionError reports a directive value that does not resolve to
// exactly one entity, or an issue reference that does not exist.
type ResolutionError struct {
	Message string
}

func (e *ResolutionError) Error() string { return e.Message }

func resolutionErrorf(format string, args ...any) error {
	return &ResolutionError{Message: fmt.Sprintf(format, args...)}
}

// Processor applies olea expressions against the store.
type Processor struct {
	DB   *store.Database
	Sink event.Sink

	// ReplaceAssignees makes the first @assignee directive of an
	// expression clear the existing assignee set instead of adding
	// to it.
	ReplaceAssignees bool

	// Sprint, when set, is attached to issues created by Apply.
	Sprint *model.Sprint
}

// Result reports what an applied expression did.
type Result struct {
	// Created is true when the expression opened with a title and a
	// new issue was created.
	Created bool
	// Changed lists the issue fields the directives modified, in
	// directive order. Timelogs do not count as changes.
	Changed []string
	// Issue is the created or modified issue, re-read after commit.
	Issue model.Issue
}

// change is one resolved directive, ready to apply inside the
// transaction. Exactly one of scalar and relate is set.
type change struct {
	field  string
	scalar func(*model.Issue)
	relate func(q store.DBTX, issueID int64) error
}

// Apply runs one olea expression for the given user against the given
// project. Every directive is resolved before anything is written, so a
// bad reference anywhere in the expression leaves the store untouched.
// All writes happen in a single transaction; events are published only
// after it commits.
func (p *Processor) Apply(expression string, project model.Project, user model.User) (Result, error) {
	allowed, err := p.DB.DeveloperAllowed(project.ID, user.ID)
	if err != nil {
		return Result{}, err
	}
	if !allowed {
		return Result{}, fmt.Errorf("%w: not a developer of project %s",
			store.ErrPermissionDenied, project.NameShort)
	}

	tokens, err := Lex(strings.TrimRight(expression, " "))
	if err != nil {
		return Result{}, err
	}

	// Resolve the opener. For a reference the directive lookups below
	// run against the referenced issue's project, not the one the
	// expression was entered in.
	var (
		target     model.Issue
		title      string
		created    = tokens[0].Type == TokenTitle
		targetProj = project
	)
	if created {
		title = tokens[0].Value
	} else {
		code, number := p.splitRef(tokens[0].Value, project)
		target, err = p.DB.IssueByNumber(code, number)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return Result{}, resolutionErrorf("no valid issue reference: %s-%d", code, number)
			}
			return Result{}, err
		}
		allowed, err := p.DB.DeveloperAllowed(target.ProjectID, user.ID)
		if err != nil {
			return Result{}, err
		}
		if !allowed {
			return Result{}, resolutionErrorf("no valid issue reference: %s-%d", code, number)
		}
		if target.ProjectID != project.ID {
			targetProj, err = p.DB.ProjectByID(target.ProjectID)
			if err != nil {
				return Result{}, err
			}
		}
	}

	changes, timelogs, err := p.resolveDirectives(tokens[1:], targetProj)
	if err != nil {
		return Result{}, err
	}

	var changed []string
	for _, c := range changes {
		if len(changed) == 0 || changed[len(changed)-1] != c.field {
			changed = append(changed, c.field)
		}
	}

	replaceAssignees := p.ReplaceAssignees
	err = p.DB.WithTx(func(tx *sql.Tx) error {
		if created {
			col, err := store.FirstColumn(tx, targetProj.ID)
			if err != nil {
				return err
			}
			target = model.Issue{
				ProjectID:   targetProj.ID,
				Title:       title,
				KanbanColID: col.ID,
				CreatorID:   &user.ID,
			}
			if p.Sprint != nil {
				target.SprintID = &p.Sprint.ID
			}
			target, err = store.CreateIssue(tx, target)
			if err != nil {
				return err
			}
		}

		scalars := false
		for _, c := range changes {
			if c.relate != nil {
				if c.field == "assignee" && replaceAssignees {
					replaceAssignees = false
					if err := store.ClearAssignees(tx, target.ID); err != nil {
						return err
					}
				}
				if err := c.relate(tx, target.ID); err != nil {
					return err
				}
				continue
			}
			c.scalar(&target)
			scalars = true
		}
		if scalars {
			if err := store.UpdateIssue(tx, target); err != nil {
				return err
			}
		}

		for _, dur := range timelogs {
			if _, err := store.AddTimelog(tx, target.ID, user.ID, dur); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	target, err = store.IssueByID(p.DB.DB(), target.ID)
	if err != nil {
		return Result{}, err
	}

	res := Result{Created: created, Changed: changed, Issue: target}
	if p.Sink != nil {
		ev := event.Event{
			Project: targetProj.NameShort,
			Ticket:  model.TicketID(targetProj.NameShort, target.Number),
			Actor:   user.Username,
		}
		switch {
		case created:
			ev.Kind = event.IssueCreated
			p.Sink.Publish(ev)
		case len(changed) > 0:
			ev.Kind = event.IssueModified
			ev.Changed = changed
			p.Sink.Publish(ev)
		}
	}
	return res, nil
}

// resolveDirectives turns directive tokens into applicable changes.
// Lookups run against proj; nothing is written here.
func (p *Processor) resolveDirectives(tokens []Token, proj model.Project) ([]change, []time.Duration, error) {
	var changes []change
	var timelogs []time.Duration

	for _, tok := range tokens {
		switch tok.Type {
		case TokenAssign:
			user, err := p.resolveMember(proj, tok.Value)
			if err != nil {
				return nil, nil, err
			}
			changes = append(changes, change{field: "assignee",
				relate: func(q store.DBTX, issueID int64) error {
					return store.AddAssignee(q, issueID, user.ID)
				}})
		case TokenTag:
			tag, err := p.resolveTag(proj, tok.Value)
			if err != nil {
				return nil, nil, err
			}
			changes = append(changes, change{field: "tags",
				relate: func(q store.DBTX, issueID int64) error {
					return store.AddIssueTag(q, issueID, tag.ID)
				}})
		case TokenDescr:
			text := tok.Value
			changes = append(changes, change{field: "description",
				scalar: func(i *model.Issue) { i.Description = text }})
		case TokenColumn:
			col, err := p.resolveColumn(proj, tok.Value)
			if err != nil {
				return nil, nil, err
			}
			changes = append(changes, change{field: "kanbancol",
				scalar: func(i *model.Issue) { i.KanbanColID = col.ID }})
		case TokenPrio:
			n, _ := strconv.Atoi(tok.Value)
			changes = append(changes, change{field: "priority",
				scalar: func(i *model.Issue) { i.Priority = model.Priority(n) }})
		case TokenPoints:
			n, err := strconv.Atoi(tok.Value)
			if err != nil {
				return nil, nil, resolutionErrorf("invalid story points %q", tok.Value)
			}
			changes = append(changes, change{field: "storypoints",
				scalar: func(i *model.Issue) { i.Storypoints = n }})
		case TokenIssueType:
			typ, err := model.ParseIssueType(tok.Value)
			if err != nil {
				return nil, nil, err
			}
			changes = append(changes, change{field: "type",
				scalar: func(i *model.Issue) { i.Type = typ }})
		case TokenDepends:
			code, number := p.splitRef(tok.Value, proj)
			dep, err := p.DB.IssueByNumber(code, number)
			if err != nil || dep.ProjectID != proj.ID {
				return nil, nil, resolutionErrorf("dependency %s-%d does not uniquely exist", code, number)
			}
			changes = append(changes, change{field: "dependson",
				relate: func(q store.DBTX, issueID int64) error {
					return store.AddDependency(q, issueID, dep.ID)
				}})
		case TokenTimelog:
			dur, err := ParseDuration(tok.Value)
			if err != nil {
				return nil, nil, err
			}
			if dur > 0 {
				timelogs = append(timelogs, dur)
			}
		default:
			return nil, nil, fmt.Errorf("unexpected token at position %d", tok.Pos)
		}
	}
	return changes, timelogs, nil
}

// splitRef normalizes an issue reference to a project code and number.
// A bare number refers to the current project.
func (p *Processor) splitRef(ref string, proj model.Project) (string, int) {
	code := proj.NameShort
	if i := strings.IndexByte(ref, '-'); i >= 0 {
		code = ref[:i]
		ref = ref[i+1:]
	}
	number, _ := strconv.Atoi(ref)
	return code, number
}

// resolveTag finds the single tag whose text contains the given value.
// An exact match wins when the fuzzy lookup is ambiguous.
func (p *Processor) resolveTag(proj model.Project, value string) (model.Tag, error) {
	tags, err := p.DB.TagsMatching(proj.ID, value)
	if err != nil {
		return model.Tag{}, err
	}
	if len(tags) == 1 {
		return tags[0], nil
	}
	for _, t := range tags {
		if t.Text == value {
			return t, nil
		}
	}
	return model.Tag{}, resolutionErrorf("tag %q does not uniquely exist", value)
}

func (p *Processor) resolveColumn(proj model.Project, value string) (model.KanbanColumn, error) {
	cols, err := p.DB.ColumnsMatching(proj.ID, value)
	if err != nil {
		return model.KanbanColumn{}, err
	}
	if len(cols) == 1 {
		return cols[0], nil
	}
	for _, c := range cols {
		if c.Name == value {
			return c, nil
		}
	}
	return model.KanbanColumn{}, resolutionErrorf("kanban column %q does not uniquely exist", value)
}

// resolveMember finds the single project member whose username, first
// or last name contains the given value.
func (p *Processor) resolveMember(proj model.Project, value string) (model.User, error) {
	users, err := p.DB.MembersMatching(proj.ID, value)
	if err != nil {
		return model.User{}, err
	}
	if len(users) == 1 {
		return users[0], nil
	}
	for _, u := range users {
		if u.Username == value {
			return u, nil
		}
	}
	return model.User{}, resolutionErrorf("user %q does not uniquely exist", value)
}
