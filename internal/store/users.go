package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/iguana-project/iguana/internal/model"
	"github.com/iguana-project/iguana/internal/sqlutil"
)

// CreateUser inserts a user and returns it with its assigned ID.
func (d *Database) CreateUser(username, firstName, lastName string) (model.User, error) {
	res, err := d.db.Exec(
		`INSERT INTO users (username, first_name, last_name) VALUES (?, ?, ?)`,
		username, firstName, lastName)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user %q: %w", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return model.User{ID: id, Username: username, FirstName: firstName, LastName: lastName}, nil
}

// UserByUsername looks up a user by exact username.
func (d *Database) UserByUsername(username string) (model.User, error) {
	return d.scanUser(d.db.QueryRow(
		`SELECT id, username, first_name, last_name FROM users WHERE username = ?`, username))
}

// UserByID looks up a user by ID.
func (d *Database) UserByID(id int64) (model.User, error) {
	return d.scanUser(d.db.QueryRow(
		`SELECT id, username, first_name, last_name FROM users WHERE id = ?`, id))
}

// Users returns all users ordered by username.
func (d *Database) Users() ([]model.User, error) {
	rows, err := d.db.Query(
		`SELECT id, username, first_name, last_name FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (model.User, error) {
		var u model.User
		err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName)
		return u, err
	})
}

func (d *Database) scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}
