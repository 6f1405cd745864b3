package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iguana-project/iguana/internal/model"
	"github.com/iguana-project/iguana/internal/sqlutil"
)

// RecordQuery stores expression as a non-persistent history entry for the
// creator, unless the creator already has a record with the same expression.
// Insertion evicts the creator's non-persistent history beyond the newest keep
// entries.
func (d *Database) RecordQuery(creatorID int64, expression string, keep int) error {
	return d.WithTx(func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRow(
			`SELECT COUNT(*) FROM searches WHERE creator_id = ? AND expression = ?`,
			creatorID, expression).Scan(&n); err != nil {
			return fmt.Errorf("failed to check search history: %w", err)
		}
		if n > 0 {
			return nil
		}
		if _, err := tx.Exec(
			`INSERT INTO searches (description, expression, creator_id, persistent, created_at)
			 VALUES (?, ?, ?, 0, ?)`,
			model.AutosaveDescription, expression, creatorID, formatTimestamp(time.Now())); err != nil {
			return fmt.Errorf("failed to record search: %w", err)
		}
		if keep <= 0 {
			return nil
		}
		if _, err := tx.Exec(
			`DELETE FROM searches WHERE creator_id = ? AND persistent = 0 AND id NOT IN (
				SELECT id FROM searches WHERE creator_id = ? AND persistent = 0
				ORDER BY id DESC LIMIT ?
			 )`, creatorID, creatorID, keep); err != nil {
			return fmt.Errorf("failed to prune search history: %w", err)
		}
		return nil
	})
}

// SearchByID loads a stored search and its share list.
func (d *Database) SearchByID(id int64) (model.Search, error) {
	var s model.Search
	var created string
	err := d.db.QueryRow(
		`SELECT id, description, expression, creator_id, persistent, created_at
		 FROM searches WHERE id = ?`, id).
		Scan(&s.ID, &s.Description, &s.Expression, &s.CreatorID, &s.Persistent, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Search{}, ErrNotFound
	}
	if err != nil {
		return model.Search{}, fmt.Errorf("failed to scan search: %w", err)
	}
	s.CreatedAt = parseTimestamp(created)

	rows, err := d.db.Query(`SELECT project_id FROM search_shares WHERE search_id = ?`, id)
	if err != nil {
		return model.Search{}, fmt.Errorf("failed to load search shares: %w", err)
	}
	s.SharedWith, err = sqlutil.ScanRows(rows, func(rows *sql.Rows) (int64, error) {
		var pid int64
		err := rows.Scan(&pid)
		return pid, err
	})
	if err != nil {
		return model.Search{}, err
	}
	return s, nil
}

// SearchesByCreator returns the user's stored searches, newest first,
// filtered by the persistent flag.
func (d *Database) SearchesByCreator(creatorID int64, persistent bool) ([]model.Search, error) {
	rows, err := d.db.Query(
		`SELECT id, description, expression, creator_id, persistent, created_at
		 FROM searches WHERE creator_id = ? AND persistent = ? ORDER BY id DESC`,
		creatorID, persistent)
	if err != nil {
		return nil, fmt.Errorf("failed to list searches: %w", err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (model.Search, error) {
		var s model.Search
		var created string
		err := rows.Scan(&s.ID, &s.Description, &s.Expression, &s.CreatorID, &s.Persistent, &created)
		s.CreatedAt = parseTimestamp(created)
		return s, err
	})
}

// SharedSearches returns the searches shared with the project, newest first.
func (d *Database) SharedSearches(projectID int64) ([]model.Search, error) {
	rows, err := d.db.Query(
		`SELECT s.id, s.description, s.expression, s.creator_id, s.persistent, s.created_at
		 FROM searches s
		 JOIN search_shares sh ON sh.search_id = s.id
		 WHERE sh.project_id = ? ORDER BY s.id DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared searches: %w", err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (model.Search, error) {
		var s model.Search
		var created string
		err := rows.Scan(&s.ID, &s.Description, &s.Expression, &s.CreatorID, &s.Persistent, &created)
		s.CreatedAt = parseTimestamp(created)
		return s, err
	})
}

// MakePersistent promotes a history entry to a saved search.
// The caller must be the creator and the record must currently be non-persistent.
func (d *Database) MakePersistent(searchID, userID int64) error {
	s, err := d.SearchByID(searchID)
	if err != nil {
		return err
	}
	if s.CreatorID != userID {
		return ErrPermissionDenied
	}
	if s.Persistent {
		return fmt.Errorf("search %d is already persistent: %w", searchID, ErrNotFound)
	}
	_, err = d.db.Exec(`UPDATE searches SET persistent = 1 WHERE id = ?`, searchID)
	return err
}

// DeletePersistent removes a saved search. The caller must be the creator and
// the record must be persistent; history entries are only removed by retention.
func (d *Database) DeletePersistent(searchID, userID int64) error {
	s, err := d.SearchByID(searchID)
	if err != nil {
		return err
	}
	if s.CreatorID != userID {
		return ErrPermissionDenied
	}
	if !s.Persistent {
		return fmt.Errorf("search %d is not persistent: %w", searchID, ErrNotFound)
	}
	_, err = d.db.Exec(`DELETE FROM searches WHERE id = ?`, searchID)
	return err
}

// ShareSearch shares a saved search with a project. Requires write access.
func (d *Database) ShareSearch(searchID, projectID, userID int64) error {
	ok, err := d.CanWriteSearch(searchID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	_, err = d.db.Exec(
		`INSERT INTO search_shares (search_id, project_id) VALUES (?, ?)
		 ON CONFLICT DO NOTHING`, searchID, projectID)
	return err
}

// UpdateSearch edits a stored search's description and expression.
// Requires write access.
func (d *Database) UpdateSearch(searchID, userID int64, description, expression string) error {
	ok, err := d.CanWriteSearch(searchID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	_, err = d.db.Exec(
		`UPDATE searches SET description = ?, expression = ? WHERE id = ?`,
		description, expression, searchID)
	return err
}

// CanReadSearch reports whether the user may see the search: the creator, or
// any member of a project the search is shared with.
func (d *Database) CanReadSearch(searchID, userID int64) (bool, error) {
	s, err := d.SearchByID(searchID)
	if err != nil {
		return false, err
	}
	if s.CreatorID == userID {
		return true, nil
	}
	for _, pid := range s.SharedWith {
		ok, err := d.DeveloperAllowed(pid, userID)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// CanWriteSearch reports whether the user may edit the search: the creator, or
// a manager of a project the search is shared with. Sharing never grants
// write access to plain members.
func (d *Database) CanWriteSearch(searchID, userID int64) (bool, error) {
	s, err := d.SearchByID(searchID)
	if err != nil {
		return false, err
	}
	if s.CreatorID == userID {
		return true, nil
	}
	for _, pid := range s.SharedWith {
		ok, err := d.IsManager(pid, userID)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
