package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iguana-project/iguana/internal/model"
	"github.com/iguana-project/iguana/internal/sqlutil"
)

// DefaultColumns is the kanban board layout given to new projects.
var DefaultColumns = []struct {
	Name string
	Type model.ColumnType
}{
	{"Todo", model.ColumnTodo},
	{"In Progress", model.ColumnInProgress},
	{"Done", model.ColumnDone},
}

// CreateProject inserts a project with the default kanban columns.
// The creator becomes a manager.
func (d *Database) CreateProject(name, nameShort, description string, creatorID int64) (model.Project, error) {
	now := time.Now()
	var p model.Project
	err := d.WithTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`INSERT INTO projects (name, name_short, description, creator_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			name, nameShort, description, creatorID, formatTimestamp(now), formatTimestamp(now))
		if err != nil {
			return fmt.Errorf("failed to create project %q: %w", nameShort, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for pos, col := range DefaultColumns {
			if _, err := tx.Exec(
				`INSERT INTO kanban_columns (project_id, name, position, type) VALUES (?, ?, ?, ?)`,
				id, col.Name, pos, string(col.Type)); err != nil {
				return fmt.Errorf("failed to create default column %q: %w", col.Name, err)
			}
		}
		if _, err := tx.Exec(
			`INSERT INTO project_managers (project_id, user_id) VALUES (?, ?)`, id, creatorID); err != nil {
			return fmt.Errorf("failed to add creator as manager: %w", err)
		}
		p = model.Project{
			ID: id, Name: name, NameShort: nameShort, Description: description,
			CreatorID: creatorID, CreatedAt: now, UpdatedAt: now,
		}
		return nil
	})
	return p, err
}

// ProjectByCode looks up a project by its short code.
func (d *Database) ProjectByCode(nameShort string) (model.Project, error) {
	row := d.db.QueryRow(
		`SELECT id, name, name_short, description, creator_id, created_at, updated_at
		 FROM projects WHERE name_short = ?`, nameShort)
	return scanProject(row)
}

// ProjectByID looks up a project by ID.
func (d *Database) ProjectByID(id int64) (model.Project, error) {
	row := d.db.QueryRow(
		`SELECT id, name, name_short, description, creator_id, created_at, updated_at
		 FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// Projects returns all projects ordered by short code.
func (d *Database) Projects() ([]model.Project, error) {
	rows, err := d.db.Query(
		`SELECT id, name, name_short, description, creator_id, created_at, updated_at
		 FROM projects ORDER BY name_short`)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (model.Project, error) {
		var p model.Project
		var created, updated string
		if err := rows.Scan(&p.ID, &p.Name, &p.NameShort, &p.Description, &p.CreatorID, &created, &updated); err != nil {
			return model.Project{}, err
		}
		p.CreatedAt = parseTimestamp(created)
		p.UpdatedAt = parseTimestamp(updated)
		return p, nil
	})
}

func scanProject(row *sql.Row) (model.Project, error) {
	var p model.Project
	var created, updated string
	err := row.Scan(&p.ID, &p.Name, &p.NameShort, &p.Description, &p.CreatorID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, ErrNotFound
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to scan project: %w", err)
	}
	p.CreatedAt = parseTimestamp(created)
	p.UpdatedAt = parseTimestamp(updated)
	return p, nil
}

// AddDeveloper grants the user the developer role on the project.
func (d *Database) AddDeveloper(projectID, userID int64) error {
	_, err := d.db.Exec(
		`INSERT INTO project_developers (project_id, user_id) VALUES (?, ?)
		 ON CONFLICT DO NOTHING`, projectID, userID)
	return err
}

// AddManager grants the user the manager role on the project.
func (d *Database) AddManager(projectID, userID int64) error {
	_, err := d.db.Exec(
		`INSERT INTO project_managers (project_id, user_id) VALUES (?, ?)
		 ON CONFLICT DO NOTHING`, projectID, userID)
	return err
}

// DeveloperAllowed reports whether the user is a developer or manager of the project.
// This is the read/write gate for issues, tags, comments and commits.
func (d *Database) DeveloperAllowed(projectID, userID int64) (bool, error) {
	var n int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM (
			SELECT user_id FROM project_developers WHERE project_id = ? AND user_id = ?
			UNION
			SELECT user_id FROM project_managers WHERE project_id = ? AND user_id = ?
		 )`, projectID, userID, projectID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check project role: %w", err)
	}
	return n > 0, nil
}

// IsManager reports whether the user manages the project.
func (d *Database) IsManager(projectID, userID int64) (bool, error) {
	var n int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM project_managers WHERE project_id = ? AND user_id = ?`,
		projectID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check manager role: %w", err)
	}
	return n > 0, nil
}

// ReadableProjects returns the IDs of every project the user may read,
// i.e. where the user is a developer or manager.
func (d *Database) ReadableProjects(userID int64) (map[int64]bool, error) {
	rows, err := d.db.Query(
		`SELECT project_id FROM project_developers WHERE user_id = ?
		 UNION
		 SELECT project_id FROM project_managers WHERE user_id = ?`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load readable projects: %w", err)
	}
	ids, err := sqlutil.ScanRows(rows, func(rows *sql.Rows) (int64, error) {
		var id int64
		err := rows.Scan(&id)
		return id, err
	})
	if err != nil {
		return nil, err
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// Columns returns the project's kanban columns ordered by position.
func (d *Database) Columns(projectID int64) ([]model.KanbanColumn, error) {
	rows, err := d.db.Query(
		`SELECT id, project_id, name, position, type FROM kanban_columns
		 WHERE project_id = ? ORDER BY position`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load columns: %w", err)
	}
	return sqlutil.ScanRows(rows, scanColumn)
}

func scanColumn(rows *sql.Rows) (model.KanbanColumn, error) {
	var c model.KanbanColumn
	var typ string
	if err := rows.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Position, &typ); err != nil {
		return model.KanbanColumn{}, err
	}
	c.Type = model.ColumnType(typ)
	return c, nil
}

// FirstColumn returns the leftmost kanban column, the default status of new issues.
func FirstColumn(q DBTX, projectID int64) (model.KanbanColumn, error) {
	rows, err := q.Query(
		`SELECT id, project_id, name, position, type FROM kanban_columns
		 WHERE project_id = ? ORDER BY position LIMIT 1`, projectID)
	if err != nil {
		return model.KanbanColumn{}, fmt.Errorf("failed to load columns: %w", err)
	}
	cols, err := sqlutil.ScanRows(rows, scanColumn)
	if err != nil {
		return model.KanbanColumn{}, err
	}
	if len(cols) == 0 {
		return model.KanbanColumn{}, fmt.Errorf("project has no kanban columns: %w", ErrNotFound)
	}
	return cols[0], nil
}

// FirstColumn returns the leftmost kanban column, the default status of new issues.
func (d *Database) FirstColumn(projectID int64) (model.KanbanColumn, error) {
	return FirstColumn(d.db, projectID)
}

// CreateSprint inserts a sprint with the next per-project sequence number.
func (d *Database) CreateSprint(projectID int64, start, end *time.Time) (model.Sprint, error) {
	var s model.Sprint
	err := d.WithTx(func(tx *sql.Tx) error {
		var seq int
		if err := tx.QueryRow(
			`SELECT COALESCE(MAX(seqnum), 0) + 1 FROM sprints WHERE project_id = ?`,
			projectID).Scan(&seq); err != nil {
			return err
		}
		res, err := tx.Exec(
			`INSERT INTO sprints (project_id, seqnum, start_date, end_date) VALUES (?, ?, ?, ?)`,
			projectID, seq, nullDate(start), nullDate(end))
		if err != nil {
			return fmt.Errorf("failed to create sprint: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		s = model.Sprint{ID: id, ProjectID: projectID, Seqnum: seq, StartDate: start, EndDate: end}
		return nil
	})
	return s, err
}

// SprintBySeqnum looks up a sprint by its per-project sequence number.
func (d *Database) SprintBySeqnum(projectID int64, seqnum int) (model.Sprint, error) {
	var s model.Sprint
	var start, end sql.NullString
	err := d.db.QueryRow(
		`SELECT id, project_id, seqnum, start_date, end_date FROM sprints
		 WHERE project_id = ? AND seqnum = ?`, projectID, seqnum).
		Scan(&s.ID, &s.ProjectID, &s.Seqnum, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Sprint{}, ErrNotFound
	}
	if err != nil {
		return model.Sprint{}, fmt.Errorf("failed to scan sprint: %w", err)
	}
	s.StartDate = scanDate(start)
	s.EndDate = scanDate(end)
	return s, nil
}
