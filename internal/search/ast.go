package search

import "time"

// CompareOp represents a comparison operator.
type CompareOp int

const (
	CompareEq       CompareOp = iota // ==
	CompareNeq                       // !=
	CompareLt                        // <
	CompareLte                       // <=
	CompareGt                        // >
	CompareGte                       // >=
	CompareRegex                     // ~  regex match
	CompareContains                  // ~~ case-insensitive containment
)

func (op CompareOp) String() string {
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
	case CompareRegex:
		return "~"
	case CompareContains:
		return "~~"
	default:
		return "=="
	}
}

// comparatorOps maps comparator token values to operators.
var comparatorOps = map[string]CompareOp{
	"==": CompareEq,
	"!=": CompareNeq,
	"<":  CompareLt,
	"<=": CompareLte,
	">":  CompareGt,
	">=": CompareGte,
	"~":  CompareRegex,
	"~~": CompareContains,
}

// LiteralKind tags the type of a comparison literal.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralDate
)

// Literal is a typed comparison value.
type Literal struct {
	Kind LiteralKind
	Str  string
	Num  int64
	Date time.Time
}

// Node is a node of the predicate tree. The tree is strictly binary:
// every AND/OR node has exactly two operands.
type Node interface {
	nodeSpan() (start, end int)
}

// Comparison is a leaf predicate: Entity.field.path <op> literal.
type Comparison struct {
	Entity string   // entity kind name as written, e.g. "Issue"
	Path   []string // field path below the entity, e.g. ["project", "name_short"]
	Op     CompareOp
	Value  Literal

	start, end int
}

func (c *Comparison) nodeSpan() (int, int) { return c.start, c.end }

// And combines two predicates conjunctively.
type And struct {
	Left, Right Node

	start, end int
}

func (a *And) nodeSpan() (int, int) { return a.start, a.end }

// Or combines two predicates disjunctively.
type Or struct {
	Left, Right Node

	start, end int
}

func (o *Or) nodeSpan() (int, int) { return o.start, o.end }

// SortSpec is the optional SORT directive.
type SortSpec struct {
	Entity     string
	Field      string
	Descending bool
}

// Query is a parsed structured expression: a predicate tree plus the optional
// SORT and LIMIT directives.
type Query struct {
	Root Node
	Sort *SortSpec
	// Limit caps the result count; -1 means unlimited.
	Limit int
}
