package store

import (
	"database/sql"
	"time"
)

// DateFormat is how date-only values (due dates, sprint bounds) are stored.
// ISO-8601 so that string ordering matches chronological ordering.
const DateFormat = "2006-01-02"

// TimestampFormat is how creation/modification instants are stored.
const TimestampFormat = time.RFC3339

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(TimestampFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatDate(t time.Time) string {
	return t.Format(DateFormat)
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatDate(*t)
}

func scanDate(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(DateFormat, ns.String)
	if err != nil {
		return nil
	}
	return &t
}
