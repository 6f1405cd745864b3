package search

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/iguana-project/iguana/internal/model"
	"github.com/iguana-project/iguana/internal/sqlutil"
	"github.com/iguana-project/iguana/internal/store"
)

// Result is one row of a query result: the matched entity and its display
// title, plus the owning project so the caller can filter and group post-hoc
// without re-querying.
type Result struct {
	Kind  model.Kind `json:"kind"`
	ID    int64      `json:"id"`
	Title string     `json:"title"`

	// ProjectID, Project and ProjectCode identify the owning project.
	// Zero/empty for entities with no project affiliation (users).
	ProjectID   int64  `json:"project_id,omitempty"`
	Project     string `json:"project,omitempty"`
	ProjectCode string `json:"project_code,omitempty"`
}

// selectShape is the fixed SELECT skeleton for one entity kind: where the
// rows come from and how to render title and project columns.
type selectShape struct {
	from     string
	title    string
	projID   string
	projName string
	projCode string
}

var selectShapes = map[model.Kind]selectShape{
	model.KindIssue: {
		from:     "issues i JOIN projects ip ON ip.id = i.project_id",
		title:    "'(' || ip.name_short || '-' || i.number || ') ' || i.title",
		projID:   "ip.id",
		projName: "ip.name",
		projCode: "ip.name_short",
	},
	model.KindProject: {
		from:     "projects p",
		title:    "p.name",
		projID:   "p.id",
		projName: "p.name",
		projCode: "p.name_short",
	},
	model.KindUser: {
		from:     "users u",
		title:    "u.username",
		projID:   "NULL",
		projName: "''",
		projCode: "''",
	},
	model.KindComment: {
		from:     "comments c JOIN issues ci ON ci.id = c.issue_id JOIN projects cp ON cp.id = ci.project_id",
		title:    "c.text",
		projID:   "cp.id",
		projName: "cp.name",
		projCode: "cp.name_short",
	},
	model.KindTag: {
		from:     "tags t JOIN projects tp ON tp.id = t.project_id",
		title:    "t.tag_text",
		projID:   "tp.id",
		projName: "tp.name",
		projCode: "tp.name_short",
	},
	model.KindCommit: {
		from:     "commits g JOIN issues gi ON gi.id = g.issue_id JOIN projects gp ON gp.id = gi.project_id",
		title:    "'(' || substr(g.name, 1, 8) || ') ' || g.message",
		projID:   "gp.id",
		projName: "gp.name",
		projCode: "gp.name_short",
	},
}

// runEntityQuery executes a compiled condition against one entity kind.
func runEntityQuery(db *store.Database, entity *EntityDef, cond string, args []any, orderBy string) ([]Result, error) {
	shape := selectShapes[entity.Kind]
	sqlStr := fmt.Sprintf(
		"SELECT %s.id, %s, %s, %s, %s FROM %s WHERE %s ORDER BY %s",
		entity.Alias, shape.title, shape.projID, shape.projName, shape.projCode, shape.from, cond, orderBy)

	rows, err := db.DB().Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w (SQL: %s)", err, sqlStr)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (Result, error) {
		var r Result
		var projID sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Title, &projID, &r.Project, &r.ProjectCode); err != nil {
			return Result{}, err
		}
		r.Kind = entity.Kind
		r.ProjectID = projID.Int64
		return r, nil
	})
}

// splitFullText splits a full-text expression at " OR " and then " AND ",
// mirroring the boolean structure of the structured grammar. Every part must
// satisfy the minimum-length rule.
func splitFullText(expression string) ([][]string, error) {
	var groups [][]string
	for _, orPart := range strings.Split(expression, " OR ") {
		var parts []string
		for _, part := range strings.Split(orPart, " AND ") {
			part = strings.TrimSpace(part)
			if len(part) < minOperandLength {
				return nil, parseErrorf(-1, "full-text terms must be at least %d characters", minOperandLength)
			}
			parts = append(parts, part)
		}
		groups = append(groups, parts)
	}
	return groups, nil
}

// fullTextCondition builds the containment condition for one entity kind:
// some string field must contain every AND-part of some OR-group.
func fullTextCondition(entity *EntityDef, groups [][]string) (string, []any) {
	cols := entity.textColumns()
	if len(cols) == 0 {
		return "", nil
	}

	var orConds []string
	var args []any
	for _, parts := range groups {
		for _, col := range cols {
			var andConds []string
			for _, part := range parts {
				andConds = append(andConds,
					fmt.Sprintf("LOWER(%s.%s) LIKE LOWER(?) ESCAPE '\\'", entity.Alias, col))
				args = append(args, "%"+escapeLikePattern(part)+"%")
			}
			orConds = append(orConds, "("+strings.Join(andConds, " AND ")+")")
		}
	}
	return "(" + strings.Join(orConds, " OR ") + ")", args
}

// runFullText queries every entity kind's string fields and merges the
// results, newest entities first per kind, deduplicated on (kind, id).
func runFullText(db *store.Database, groups [][]string) ([]Result, error) {
	var merged []Result
	seen := make(map[model.Kind]map[int64]bool)

	for _, kind := range model.Kinds {
		entity := registry[kind]
		cond, args := fullTextCondition(entity, groups)
		if cond == "" {
			continue
		}
		results, err := runEntityQuery(db, entity, cond, args, entity.Alias+".id DESC")
		if err != nil {
			return nil, err
		}
		if seen[kind] == nil {
			seen[kind] = make(map[int64]bool)
		}
		for _, r := range results {
			if seen[kind][r.ID] {
				continue
			}
			seen[kind][r.ID] = true
			merged = append(merged, r)
		}
	}
	return merged, nil
}
