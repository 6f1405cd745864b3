package cli

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/iguana-project/iguana/internal/event"
	"github.com/iguana-project/iguana/internal/model"
	"github.com/iguana-project/iguana/internal/olea"
	"github.com/iguana-project/iguana/internal/search"
	"github.com/iguana-project/iguana/internal/store"
)

// openStore opens the resolved tracker database. Callers must Close it.
func openStore() (*store.Database, error) {
	db, err := store.Open(getDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open tracker %s: %w", getDBPath(), err)
	}
	return db, nil
}

// actingUser resolves the user commands act as: --user flag, then config,
// then $USER.
func actingUser(db *store.Database) (model.User, error) {
	username := userFlag
	if username == "" {
		username = getConfig().GetUser()
	}
	if username == "" {
		return model.User{}, fmt.Errorf("no user configured; use --user or set user in config.toml")
	}
	user, err := db.UserByUsername(username)
	if errors.Is(err, store.ErrNotFound) {
		return model.User{}, fmt.Errorf("user %q not found in this tracker; run 'iguana user add %s'", username, username)
	}
	return user, err
}

// resolveProject resolves a project from an explicit code, falling back to
// the active project from state.
func resolveProject(db *store.Database, code string) (model.Project, error) {
	if code == "" {
		code = getState().ActiveProject
	}
	if code == "" {
		return model.Project{}, fmt.Errorf("no project specified; use --project or run 'iguana project use <code>'")
	}
	project, err := db.ProjectByCode(code)
	if errors.Is(err, store.ErrNotFound) {
		return model.Project{}, fmt.Errorf("project %q not found", code)
	}
	return project, err
}

var ticketPattern = regexp.MustCompile(`^([A-Za-z]{1,4})-([0-9]+)$`)

// parseTicket splits a ticket ID like "PRJ-4" into code and number.
func parseTicket(ticket string) (string, int, error) {
	m := ticketPattern.FindStringSubmatch(strings.TrimSpace(ticket))
	if m == nil {
		return "", 0, fmt.Errorf("invalid ticket ID %q (expected e.g. PRJ-4)", ticket)
	}
	n, _ := strconv.Atoi(m[2])
	return m[1], n, nil
}

// newFrontend builds a search frontend honoring the configured history limit.
func newFrontend(db *store.Database) *search.Frontend {
	f := search.NewFrontend(db)
	if limit := getConfig().Search.HistoryLimit; limit > 0 {
		f.HistoryLimit = limit
	}
	return f
}

// newProcessor builds an olea processor from config.
func newProcessor(db *store.Database) *olea.Processor {
	return &olea.Processor{
		DB:               db,
		Sink:             event.LogSink{},
		ReplaceAssignees: getConfig().Olea.ReplaceAssignees,
	}
}
