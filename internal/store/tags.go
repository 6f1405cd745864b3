package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/iguana-project/iguana/internal/model"
	"github.com/iguana-project/iguana/internal/sqlutil"
)

// CreateTag inserts a project-scoped tag. Text is unique per project.
func (d *Database) CreateTag(projectID int64, text, color string) (model.Tag, error) {
	res, err := d.db.Exec(
		`INSERT INTO tags (project_id, tag_text, color) VALUES (?, ?, ?)`,
		projectID, text, color)
	if err != nil {
		return model.Tag{}, fmt.Errorf("failed to create tag %q: %w", text, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Tag{}, err
	}
	return model.Tag{ID: id, ProjectID: projectID, Text: text, Color: color}, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func containsPattern(s string) string {
	return "%" + escapeLike(s) + "%"
}

// TagsMatching returns the project's tags whose text contains text,
// case-insensitively. Used by the fuzzy unique match in the edit grammar.
func (d *Database) TagsMatching(projectID int64, text string) ([]model.Tag, error) {
	rows, err := d.db.Query(
		`SELECT id, project_id, tag_text, color FROM tags
		 WHERE project_id = ? AND LOWER(tag_text) LIKE LOWER(?) ESCAPE '\'
		 ORDER BY tag_text`, projectID, containsPattern(text))
	if err != nil {
		return nil, fmt.Errorf("failed to match tags: %w", err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (model.Tag, error) {
		var t model.Tag
		err := rows.Scan(&t.ID, &t.ProjectID, &t.Text, &t.Color)
		return t, err
	})
}

// ColumnsMatching returns the project's kanban columns whose name contains
// text, case-insensitively.
func (d *Database) ColumnsMatching(projectID int64, text string) ([]model.KanbanColumn, error) {
	rows, err := d.db.Query(
		`SELECT id, project_id, name, position, type FROM kanban_columns
		 WHERE project_id = ? AND LOWER(name) LIKE LOWER(?) ESCAPE '\'
		 ORDER BY position`, projectID, containsPattern(text))
	if err != nil {
		return nil, fmt.Errorf("failed to match columns: %w", err)
	}
	return sqlutil.ScanRows(rows, scanColumn)
}

// MembersMatching returns project members (developers and managers) whose
// username, first name or last name contains text, case-insensitively.
func (d *Database) MembersMatching(projectID int64, text string) ([]model.User, error) {
	pattern := containsPattern(text)
	rows, err := d.db.Query(
		`SELECT DISTINCT u.id, u.username, u.first_name, u.last_name FROM users u
		 WHERE u.id IN (
			SELECT user_id FROM project_developers WHERE project_id = ?
			UNION
			SELECT user_id FROM project_managers WHERE project_id = ?
		 )
		 AND (LOWER(u.username) LIKE LOWER(?) ESCAPE '\'
			OR LOWER(u.first_name) LIKE LOWER(?) ESCAPE '\'
			OR LOWER(u.last_name) LIKE LOWER(?) ESCAPE '\')
		 ORDER BY u.username`,
		projectID, projectID, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to match members: %w", err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (model.User, error) {
		var u model.User
		err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName)
		return u, err
	})
}
