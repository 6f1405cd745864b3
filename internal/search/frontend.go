package search

import (
	"fmt"
	"strings"

	"github.com/iguana-project/iguana/internal/model"
	"github.com/iguana-project/iguana/internal/store"
)

// DefaultHistoryLimit is how many non-persistent search records are kept
// per user when no limit is configured.
const DefaultHistoryLimit = 10

// Frontend executes search expressions on behalf of a user. Expressions
// that parse under the structured grammar are compiled to SQL; anything
// else falls back to a full-text containment search over every entity's
// string fields. Either way, results are filtered down to projects the
// user can see, and the expression is recorded in the user's search
// history.
type Frontend struct {
	db *store.Database

	// HistoryLimit bounds the user's non-persistent search history.
	HistoryLimit int
}

func NewFrontend(db *store.Database) *Frontend {
	return &Frontend{db: db, HistoryLimit: DefaultHistoryLimit}
}

// Query runs one search expression for the given user.
//
// Field errors from a structurally valid expression are returned to the
// caller rather than silently degrading to full-text: an expression that
// names an unknown field is a mistake worth reporting, not a phrase to
// grep for.
func (f *Frontend) Query(expression string, user model.User) ([]Result, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, parseErrorf(0, "empty expression")
	}

	query, err := Parse(expression)
	var results []Result
	limit := -1
	if err == nil {
		results, limit, err = f.runStructured(query)
		if err != nil {
			return nil, err
		}
	} else {
		groups, splitErr := splitFullText(expression)
		if splitErr != nil {
			return nil, splitErr
		}
		results, err = runFullText(f.db, groups)
		if err != nil {
			return nil, err
		}
	}

	results, err = f.filterReadable(results, user.ID)
	if err != nil {
		return nil, err
	}
	if limit >= 0 && len(results) > limit {
		results = results[:limit]
	}

	if err := f.db.RecordQuery(user.ID, expression, f.HistoryLimit); err != nil {
		return nil, fmt.Errorf("recording search: %w", err)
	}
	return results, nil
}

func (f *Frontend) runStructured(query *Query) ([]Result, int, error) {
	entity, cond, args, err := compileStructured(query)
	if err != nil {
		return nil, 0, err
	}

	orderBy := entity.Alias + "." + entity.DefaultOrder
	if query.Sort != nil {
		orderBy, err = compileSort(entity, query.Sort)
		if err != nil {
			return nil, 0, err
		}
	}

	results, err := runEntityQuery(f.db, entity, cond, args, orderBy)
	if err != nil {
		return nil, 0, err
	}
	return results, query.Limit, nil
}

// filterReadable drops results whose project the user is not a member of.
// Results without a project affiliation pass through.
func (f *Frontend) filterReadable(results []Result, userID int64) ([]Result, error) {
	readable, err := f.db.ReadableProjects(userID)
	if err != nil {
		return nil, err
	}
	filtered := results[:0]
	for _, r := range results {
		if r.ProjectID == 0 || readable[r.ProjectID] {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}
