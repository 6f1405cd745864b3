// Package sqlutil holds small helpers shared by the store's query code.
package sqlutil

import "database/sql"

// ScanRows drains rows into a slice, closing them regardless of outcome.
// scan is called once per row.
func ScanRows[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
