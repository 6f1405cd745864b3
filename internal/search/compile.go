package search

import (
	"fmt"
	"regexp"
	"strings"
)

// compiler turns a validated predicate tree into a WHERE clause for one
// target entity kind.
type compiler struct {
	entity *EntityDef
	nAlias int
}

// compileStructured determines the target entity kind from the tree's first
// comparison, verifies every atom targets the same kind, and compiles the
// tree into a WHERE condition against the entity's table alias.
func compileStructured(q *Query) (*EntityDef, string, []any, error) {
	first := firstComparison(q.Root)
	entity, err := entityDef(first.Entity)
	if err != nil {
		return nil, "", nil, err
	}

	c := &compiler{entity: entity}
	cond, args, err := c.compileNode(q.Root)
	if err != nil {
		return nil, "", nil, err
	}
	return entity, cond, args, nil
}

func firstComparison(n Node) *Comparison {
	switch node := n.(type) {
	case *Comparison:
		return node
	case *And:
		return firstComparison(node.Left)
	case *Or:
		return firstComparison(node.Left)
	}
	return nil
}

func (c *compiler) compileNode(n Node) (string, []any, error) {
	switch node := n.(type) {
	case *Comparison:
		return c.compileComparison(node)
	case *And:
		return c.compileBool(node.Left, node.Right, "AND")
	case *Or:
		return c.compileBool(node.Left, node.Right, "OR")
	}
	return "", nil, fmt.Errorf("unknown predicate node %T", n)
}

func (c *compiler) compileBool(left, right Node, op string) (string, []any, error) {
	lc, la, err := c.compileNode(left)
	if err != nil {
		return "", nil, err
	}
	rc, ra, err := c.compileNode(right)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("(%s %s %s)", lc, op, rc), append(la, ra...), nil
}

func (c *compiler) compileComparison(cmp *Comparison) (string, []any, error) {
	if cmp.Entity != string(c.entity.Kind) {
		return "", nil, fieldErrorf("expression mixes entity types %s and %s",
			c.entity.Kind, cmp.Entity)
	}

	resolved, err := ResolveField(c.entity, cmp.Path)
	if err != nil {
		return "", nil, err
	}

	return c.compileResolved(c.entity.Alias, resolved.Steps, resolved, cmp)
}

// compileResolved emits a correlated EXISTS chain for the relation steps and
// the leaf condition at the innermost level.
func (c *compiler) compileResolved(alias string, steps []*Relation, resolved *ResolvedField, cmp *Comparison) (string, []any, error) {
	if len(steps) == 0 {
		return c.leafCondition(alias, resolved, cmp)
	}

	rel := steps[0]
	c.nAlias++
	next := fmt.Sprintf("r%d", c.nAlias)

	inner, args, err := c.compileResolved(next, steps[1:], resolved, cmp)
	if err != nil {
		return "", nil, err
	}

	switch rel.kind {
	case relFK:
		return fmt.Sprintf("EXISTS (SELECT 1 FROM %s %s WHERE %s.id = %s.%s AND %s)",
			rel.Table, next, next, alias, rel.localCol, inner), args, nil
	case relReverse:
		return fmt.Sprintf("EXISTS (SELECT 1 FROM %s %s WHERE %s.%s = %s.id AND %s)",
			rel.Table, next, next, rel.remoteCol, alias, inner), args, nil
	case relM2M:
		c.nAlias++
		link := fmt.Sprintf("l%d", c.nAlias)
		return fmt.Sprintf(
			"EXISTS (SELECT 1 FROM %s %s JOIN %s %s ON %s.id = %s.%s WHERE %s.%s = %s.id AND %s)",
			rel.linkTable, link, rel.Table, next, next, link, rel.linkRemot,
			link, rel.linkLocal, alias, inner), args, nil
	}
	return "", nil, fmt.Errorf("unknown relation kind %d", rel.kind)
}

// leafCondition emits the actual comparison, type-checking the literal
// against the field's declared type.
func (c *compiler) leafCondition(alias string, resolved *ResolvedField, cmp *Comparison) (string, []any, error) {
	col := alias + "." + resolved.LeafColumn
	field := strings.Join(cmp.Path, ".")

	// Regex matches against the string representation of any field type.
	// A malformed pattern degrades to zero matches rather than an error.
	if cmp.Op == CompareRegex {
		if cmp.Value.Kind != LiteralString {
			return "", nil, fieldErrorf("regex match on %q requires a string pattern", field)
		}
		if _, err := regexp.Compile(cmp.Value.Str); err != nil {
			return "0", nil, nil
		}
		return fmt.Sprintf("regexp(?, CAST(%s AS TEXT))", col), []any{cmp.Value.Str}, nil
	}

	switch resolved.LeafType {
	case FieldNumber:
		if cmp.Value.Kind != LiteralNumber {
			return "", nil, fieldErrorf("field %q is numeric and cannot be compared with a %s literal",
				field, literalKindName(cmp.Value.Kind))
		}
		if cmp.Op == CompareContains {
			return "", nil, fieldErrorf("containment match is not defined on numeric field %q", field)
		}
		return fmt.Sprintf("%s %s ?", col, sqlComparator(cmp.Op)), []any{cmp.Value.Num}, nil

	case FieldDate:
		if cmp.Value.Kind != LiteralDate {
			return "", nil, fieldErrorf("field %q is a date and cannot be compared with a %s literal",
				field, literalKindName(cmp.Value.Kind))
		}
		if cmp.Op == CompareContains {
			return "", nil, fieldErrorf("containment match is not defined on date field %q", field)
		}
		// date() normalizes both date-only and timestamp storage.
		return fmt.Sprintf("date(%s) %s ?", col, sqlComparator(cmp.Op)),
			[]any{cmp.Value.Date.Format("2006-01-02")}, nil

	default: // FieldString
		if cmp.Value.Kind != LiteralString {
			return "", nil, fieldErrorf("field %q is a string and cannot be compared with a %s literal",
				field, literalKindName(cmp.Value.Kind))
		}
		switch cmp.Op {
		case CompareEq, CompareNeq:
			return fmt.Sprintf("%s %s ?", col, sqlComparator(cmp.Op)), []any{cmp.Value.Str}, nil
		case CompareContains:
			return fmt.Sprintf("LOWER(%s) LIKE LOWER(?) ESCAPE '\\'", col),
				[]any{"%" + escapeLikePattern(cmp.Value.Str) + "%"}, nil
		default:
			return "", nil, fieldErrorf("ordering comparison requires a number or date field, %q is a string", field)
		}
	}
}

func literalKindName(k LiteralKind) string {
	switch k {
	case LiteralNumber:
		return "number"
	case LiteralDate:
		return "date"
	default:
		return "string"
	}
}

func sqlComparator(op CompareOp) string {
	switch op {
	case CompareNeq:
		return "!="
	case CompareLt:
		return "<"
	case CompareLte:
		return "<="
	case CompareGt:
		return ">"
	case CompareGte:
		return ">="
	default:
		return "="
	}
}

// escapeLikePattern escapes special characters for LIKE pattern matching.
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

// compileSort turns the SORT directive into an ORDER BY clause. The sort
// target must be a scalar field on the query's entity.
func compileSort(entity *EntityDef, sort *SortSpec) (string, error) {
	if sort.Entity != string(entity.Kind) {
		return "", fieldErrorf("cannot sort a %s query by %s.%s", entity.Kind, sort.Entity, sort.Field)
	}
	resolved, err := ResolveField(entity, strings.Split(sort.Field, "."))
	if err != nil {
		return "", err
	}
	if len(resolved.Steps) != 0 {
		return "", fieldErrorf("cannot sort by related field %q", sort.Field)
	}
	dir := "ASC"
	if sort.Descending {
		dir = "DESC"
	}
	return fmt.Sprintf("%s.%s %s", entity.Alias, resolved.LeafColumn, dir), nil
}
