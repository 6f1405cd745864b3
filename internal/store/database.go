// Package store handles SQLite database operations for the tracker.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// schemaVersion is bumped whenever the table layout changes incompatibly.
const schemaVersion = 1

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied indicates the acting user lacks the required project role.
	ErrPermissionDenied = errors.New("permission denied")
)

// Database is the SQLite database handle.
type Database struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for advanced queries.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Open opens or creates the tracker database at path.
// Pass ":memory:" for an ephemeral database (tests).
func Open(path string) (*Database, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The engines share one connection so that transactions and the in-memory
	// test databases behave predictably.
	db.SetMaxOpenConns(1)

	d := &Database{db: db}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) initialize() error {
	if _, err := d.db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS projects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			name_short TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			creator_id INTEGER NOT NULL REFERENCES users(id),
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			next_ticket_id INTEGER NOT NULL DEFAULT 1
		);

		CREATE TABLE IF NOT EXISTS project_developers (
			project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			PRIMARY KEY (project_id, user_id)
		);

		CREATE TABLE IF NOT EXISTS project_managers (
			project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			PRIMARY KEY (project_id, user_id)
		);

		CREATE TABLE IF NOT EXISTS kanban_columns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			position INTEGER NOT NULL,
			type TEXT NOT NULL CHECK (type IN ('ToDo', 'InProgress', 'Done'))
		);

		CREATE TABLE IF NOT EXISTS sprints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			seqnum INTEGER NOT NULL,
			start_date TEXT,
			end_date TEXT,
			UNIQUE (project_id, seqnum)
		);

		CREATE TABLE IF NOT EXISTS tags (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			tag_text TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			UNIQUE (project_id, tag_text)
		);

		CREATE TABLE IF NOT EXISTS issues (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			number INTEGER NOT NULL,
			title TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT 'Task' CHECK (type IN ('Bug', 'Story', 'Task')),
			priority INTEGER NOT NULL DEFAULT 2 CHECK (priority BETWEEN 0 AND 4),
			storypoints INTEGER NOT NULL DEFAULT 0 CHECK (storypoints >= 0),
			description TEXT NOT NULL DEFAULT '',
			due_date TEXT,
			kanbancol_id INTEGER NOT NULL REFERENCES kanban_columns(id),
			sprint_id INTEGER REFERENCES sprints(id),
			creator_id INTEGER REFERENCES users(id),
			created TEXT NOT NULL,
			archived INTEGER NOT NULL DEFAULT 0,
			logged_seconds INTEGER NOT NULL DEFAULT 0,
			next_comment_id INTEGER NOT NULL DEFAULT 1,
			next_timelog_id INTEGER NOT NULL DEFAULT 1,
			UNIQUE (project_id, number)
		);

		CREATE TABLE IF NOT EXISTS issue_assignees (
			issue_id INTEGER NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			PRIMARY KEY (issue_id, user_id)
		);

		CREATE TABLE IF NOT EXISTS issue_tags (
			issue_id INTEGER NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
			tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
			PRIMARY KEY (issue_id, tag_id)
		);

		-- Unidirectional: issue_id depends on depends_id.
		CREATE TABLE IF NOT EXISTS issue_dependencies (
			issue_id INTEGER NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
			depends_id INTEGER NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
			PRIMARY KEY (issue_id, depends_id)
		);

		CREATE TABLE IF NOT EXISTS comments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			issue_id INTEGER NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
			seqnum INTEGER NOT NULL,
			text TEXT NOT NULL,
			creator_id INTEGER NOT NULL REFERENCES users(id),
			created TEXT NOT NULL,
			modified TEXT NOT NULL,
			UNIQUE (issue_id, seqnum)
		);

		CREATE TABLE IF NOT EXISTS timelogs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			issue_id INTEGER NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
			seqnum INTEGER NOT NULL,
			user_id INTEGER NOT NULL REFERENCES users(id),
			seconds INTEGER NOT NULL CHECK (seconds > 0),
			created_at TEXT NOT NULL,
			UNIQUE (issue_id, seqnum)
		);

		CREATE TABLE IF NOT EXISTS commits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			issue_id INTEGER NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL,
			changes TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS searches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			description TEXT NOT NULL DEFAULT '',
			expression TEXT NOT NULL,
			creator_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			persistent INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS search_shares (
			search_id INTEGER NOT NULL REFERENCES searches(id) ON DELETE CASCADE,
			project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			PRIMARY KEY (search_id, project_id)
		);

		CREATE INDEX IF NOT EXISTS idx_issues_project ON issues(project_id);
		CREATE INDEX IF NOT EXISTS idx_comments_issue ON comments(issue_id);
		CREATE INDEX IF NOT EXISTS idx_timelogs_issue ON timelogs(issue_id);
		CREATE INDEX IF NOT EXISTS idx_commits_issue ON commits(issue_id);
		CREATE INDEX IF NOT EXISTS idx_searches_creator ON searches(creator_id, persistent);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := d.db.Exec(
		`INSERT INTO meta (key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO NOTHING`, fmt.Sprint(schemaVersion)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction, committing on nil and rolling back on error.
func (d *Database) WithTx(fn func(tx *sql.Tx) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
