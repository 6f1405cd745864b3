package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iguana-project/iguana/internal/model"
	"github.com/iguana-project/iguana/internal/sqlutil"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so that issue mutations can
// run standalone or inside a caller-managed transaction.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// NextTicketNumber claims the project's next ticket number.
//
// The read-increment-write must happen inside the caller's transaction so that
// concurrent creations never receive the same number. No other code path may
// touch projects.next_ticket_id.
func NextTicketNumber(q DBTX, projectID int64) (int, error) {
	var num int
	err := q.QueryRow(
		`UPDATE projects SET next_ticket_id = next_ticket_id + 1
		 WHERE id = ? RETURNING next_ticket_id - 1`, projectID).Scan(&num)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to claim ticket number: %w", err)
	}
	return num, nil
}

func nextIssueCounter(q DBTX, issueID int64, column string) (int, error) {
	var num int
	err := q.QueryRow(
		fmt.Sprintf(`UPDATE issues SET %s = %s + 1 WHERE id = ? RETURNING %s - 1`,
			column, column, column), issueID).Scan(&num)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to claim %s: %w", column, err)
	}
	return num, nil
}

// CreateIssue inserts an issue, claiming the project's next ticket number.
// Zero-valued Type, Priority and KanbanColID are filled with defaults.
func CreateIssue(q DBTX, issue model.Issue) (model.Issue, error) {
	if issue.Type == "" {
		issue.Type = model.TypeTask
	}
	if issue.Created.IsZero() {
		issue.Created = time.Now()
	}
	num, err := NextTicketNumber(q, issue.ProjectID)
	if err != nil {
		return model.Issue{}, err
	}
	issue.Number = num

	res, err := q.Exec(
		`INSERT INTO issues (project_id, number, title, type, priority, storypoints,
			description, due_date, kanbancol_id, sprint_id, creator_id, created, archived)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ProjectID, issue.Number, issue.Title, string(issue.Type), int(issue.Priority),
		issue.Storypoints, issue.Description, nullDate(issue.DueDate), issue.KanbanColID,
		issue.SprintID, issue.CreatorID, formatTimestamp(issue.Created), issue.Archived)
	if err != nil {
		return model.Issue{}, fmt.Errorf("failed to create issue: %w", err)
	}
	issue.ID, err = res.LastInsertId()
	if err != nil {
		return model.Issue{}, err
	}
	return issue, nil
}

// UpdateIssue writes the issue's scalar fields back to the database.
// Relation sets (assignees, tags, dependencies) have their own add operations.
func UpdateIssue(q DBTX, issue model.Issue) error {
	_, err := q.Exec(
		`UPDATE issues SET title = ?, type = ?, priority = ?, storypoints = ?,
			description = ?, due_date = ?, kanbancol_id = ?, sprint_id = ?, archived = ?
		 WHERE id = ?`,
		issue.Title, string(issue.Type), int(issue.Priority), issue.Storypoints,
		issue.Description, nullDate(issue.DueDate), issue.KanbanColID, issue.SprintID,
		issue.Archived, issue.ID)
	if err != nil {
		return fmt.Errorf("failed to update issue: %w", err)
	}
	return nil
}

const issueColumns = `id, project_id, number, title, type, priority, storypoints,
	description, due_date, kanbancol_id, sprint_id, creator_id, created, archived, logged_seconds`

func scanIssueRow(scan func(dest ...any) error) (model.Issue, error) {
	var i model.Issue
	var typ, created string
	var due sql.NullString
	var sprintID, creatorID sql.NullInt64
	var loggedSeconds int64
	err := scan(&i.ID, &i.ProjectID, &i.Number, &i.Title, &typ, &i.Priority, &i.Storypoints,
		&i.Description, &due, &i.KanbanColID, &sprintID, &creatorID, &created, &i.Archived,
		&loggedSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Issue{}, ErrNotFound
	}
	if err != nil {
		return model.Issue{}, fmt.Errorf("failed to scan issue: %w", err)
	}
	i.Type = model.IssueType(typ)
	i.DueDate = scanDate(due)
	if sprintID.Valid {
		i.SprintID = &sprintID.Int64
	}
	if creatorID.Valid {
		i.CreatorID = &creatorID.Int64
	}
	i.Created = parseTimestamp(created)
	i.LoggedTotal = time.Duration(loggedSeconds) * time.Second
	return i, nil
}

// IssueByNumber looks up an issue by project code and ticket number.
func IssueByNumber(q DBTX, projectCode string, number int) (model.Issue, error) {
	row := q.QueryRow(
		`SELECT `+issueColumns+` FROM issues
		 WHERE number = ? AND project_id = (SELECT id FROM projects WHERE name_short = ?)`,
		number, projectCode)
	return scanIssueRow(row.Scan)
}

// IssueByID looks up an issue by its database ID.
func IssueByID(q DBTX, id int64) (model.Issue, error) {
	row := q.QueryRow(`SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)
	return scanIssueRow(row.Scan)
}

// IssueByNumber looks up an issue by project code and ticket number.
func (d *Database) IssueByNumber(projectCode string, number int) (model.Issue, error) {
	return IssueByNumber(d.db, projectCode, number)
}

// AddAssignee adds a user to the issue's assignee set.
func AddAssignee(q DBTX, issueID, userID int64) error {
	_, err := q.Exec(
		`INSERT INTO issue_assignees (issue_id, user_id) VALUES (?, ?)
		 ON CONFLICT DO NOTHING`, issueID, userID)
	return err
}

// ClearAssignees empties the issue's assignee set.
func ClearAssignees(q DBTX, issueID int64) error {
	_, err := q.Exec(`DELETE FROM issue_assignees WHERE issue_id = ?`, issueID)
	return err
}

// Assignees returns the usernames currently assigned to the issue, sorted.
func Assignees(q DBTX, issueID int64) ([]string, error) {
	rows, err := q.Query(
		`SELECT u.username FROM issue_assignees a
		 JOIN users u ON u.id = a.user_id
		 WHERE a.issue_id = ? ORDER BY u.username`, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignees: %w", err)
	}
	return scanStrings(rows)
}

// AddIssueTag adds a tag to the issue's tag set.
func AddIssueTag(q DBTX, issueID, tagID int64) error {
	_, err := q.Exec(
		`INSERT INTO issue_tags (issue_id, tag_id) VALUES (?, ?)
		 ON CONFLICT DO NOTHING`, issueID, tagID)
	return err
}

// IssueTags returns the tag texts on the issue, sorted.
func IssueTags(q DBTX, issueID int64) ([]string, error) {
	rows, err := q.Query(
		`SELECT t.tag_text FROM issue_tags it
		 JOIN tags t ON t.id = it.tag_id
		 WHERE it.issue_id = ? ORDER BY t.tag_text`, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load issue tags: %w", err)
	}
	return scanStrings(rows)
}

// AddDependency records that issueID depends on dependsID.
// The relation is unidirectional.
func AddDependency(q DBTX, issueID, dependsID int64) error {
	_, err := q.Exec(
		`INSERT INTO issue_dependencies (issue_id, depends_id) VALUES (?, ?)
		 ON CONFLICT DO NOTHING`, issueID, dependsID)
	return err
}

// Dependencies returns the ticket numbers issueID depends on, sorted.
func Dependencies(q DBTX, issueID int64) ([]int, error) {
	rows, err := q.Query(
		`SELECT i.number FROM issue_dependencies dep
		 JOIN issues i ON i.id = dep.depends_id
		 WHERE dep.issue_id = ? ORDER BY i.number`, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dependencies: %w", err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (int, error) {
		var n int
		err := rows.Scan(&n)
		return n, err
	})
}

// AddTimelog records a timelog entry on the issue, claiming the issue's next
// timelog sequence number and adding the duration to the issue's logged total.
func AddTimelog(q DBTX, issueID, userID int64, dur time.Duration) (model.Timelog, error) {
	if dur <= 0 {
		return model.Timelog{}, fmt.Errorf("timelog duration must be positive")
	}
	seq, err := nextIssueCounter(q, issueID, "next_timelog_id")
	if err != nil {
		return model.Timelog{}, err
	}
	now := time.Now()
	seconds := int64(dur / time.Second)
	res, err := q.Exec(
		`INSERT INTO timelogs (issue_id, seqnum, user_id, seconds, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		issueID, seq, userID, seconds, formatTimestamp(now))
	if err != nil {
		return model.Timelog{}, fmt.Errorf("failed to create timelog: %w", err)
	}
	if _, err := q.Exec(
		`UPDATE issues SET logged_seconds = logged_seconds + ? WHERE id = ?`,
		seconds, issueID); err != nil {
		return model.Timelog{}, fmt.Errorf("failed to update logged total: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Timelog{}, err
	}
	return model.Timelog{
		ID: id, IssueID: issueID, Seqnum: seq, UserID: userID, Time: dur, CreatedAt: now,
	}, nil
}

// Timelogs returns the issue's timelog entries in sequence order.
func Timelogs(q DBTX, issueID int64) ([]model.Timelog, error) {
	rows, err := q.Query(
		`SELECT id, issue_id, seqnum, user_id, seconds, created_at FROM timelogs
		 WHERE issue_id = ? ORDER BY seqnum`, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load timelogs: %w", err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (model.Timelog, error) {
		var t model.Timelog
		var seconds int64
		var created string
		if err := rows.Scan(&t.ID, &t.IssueID, &t.Seqnum, &t.UserID, &seconds, &created); err != nil {
			return model.Timelog{}, err
		}
		t.Time = time.Duration(seconds) * time.Second
		t.CreatedAt = parseTimestamp(created)
		return t, nil
	})
}

// AddComment records a comment on the issue with the next per-issue sequence number.
func AddComment(q DBTX, issueID, creatorID int64, text string) (model.Comment, error) {
	seq, err := nextIssueCounter(q, issueID, "next_comment_id")
	if err != nil {
		return model.Comment{}, err
	}
	now := time.Now()
	res, err := q.Exec(
		`INSERT INTO comments (issue_id, seqnum, text, creator_id, created, modified)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		issueID, seq, text, creatorID, formatTimestamp(now), formatTimestamp(now))
	if err != nil {
		return model.Comment{}, fmt.Errorf("failed to create comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Comment{}, err
	}
	return model.Comment{
		ID: id, IssueID: issueID, Seqnum: seq, Text: text, CreatorID: creatorID,
		When: now, Modified: now,
	}, nil
}

// Comments returns the issue's comments in sequence order.
func Comments(q DBTX, issueID int64) ([]model.Comment, error) {
	rows, err := q.Query(
		`SELECT id, issue_id, seqnum, text, creator_id, created, modified FROM comments
		 WHERE issue_id = ? ORDER BY seqnum`, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (model.Comment, error) {
		var c model.Comment
		var created, modified string
		if err := rows.Scan(&c.ID, &c.IssueID, &c.Seqnum, &c.Text, &c.CreatorID, &created, &modified); err != nil {
			return model.Comment{}, err
		}
		c.When = parseTimestamp(created)
		c.Modified = parseTimestamp(modified)
		return c, nil
	})
}

// AddCommit links a VCS commit to the issue.
func AddCommit(q DBTX, c model.Commit) (model.Commit, error) {
	if c.Date.IsZero() {
		c.Date = time.Now()
	}
	res, err := q.Exec(
		`INSERT INTO commits (issue_id, name, author, message, date, changes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.IssueID, c.Name, c.Author, c.Message, formatTimestamp(c.Date), c.Changes)
	if err != nil {
		return model.Commit{}, fmt.Errorf("failed to link commit: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return model.Commit{}, err
	}
	return c, nil
}

// Commits returns the issue's linked commits, newest first.
func Commits(q DBTX, issueID int64) ([]model.Commit, error) {
	rows, err := q.Query(
		`SELECT id, issue_id, name, author, message, date, changes FROM commits
		 WHERE issue_id = ? ORDER BY date DESC`, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load commits: %w", err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (model.Commit, error) {
		var c model.Commit
		var date string
		if err := rows.Scan(&c.ID, &c.IssueID, &c.Name, &c.Author, &c.Message, &date, &c.Changes); err != nil {
			return model.Commit{}, err
		}
		c.Date = parseTimestamp(date)
		return c, nil
	})
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (string, error) {
		var s string
		err := rows.Scan(&s)
		return s, err
	})
}
