package search

import (
	"sort"
	"strings"

	"github.com/iguana-project/iguana/internal/model"
)

// FieldType is the declared type of a searchable field.
type FieldType int

const (
	FieldString FieldType = iota
	FieldNumber
	FieldDate
	FieldRelation
)

func (t FieldType) String() string {
	switch t {
	case FieldNumber:
		return "number"
	case FieldDate:
		return "date"
	case FieldRelation:
		return "relation"
	default:
		return "string"
	}
}

// relKind describes how a relation joins to its target table.
type relKind int

const (
	relFK      relKind = iota // local column references the target's id
	relReverse                // target has a column referencing the local id
	relM2M                    // link table between local and target
)

// Relation describes a traversable relation field.
type Relation struct {
	// Target is the entity kind whose searchable fields the path may continue
	// into. Empty for leaf-only relations (sprint, kanbancol): those have no
	// searchable fields of their own, so a path must end at the relation.
	Target model.Kind

	Table     string    // target table
	KeyColumn string    // column compared when the path ends on the relation
	KeyType   FieldType // type of KeyColumn

	kind      relKind
	localCol  string // relFK: fk column on the source table
	remoteCol string // relReverse: fk column on the target table
	linkTable string // relM2M
	linkLocal string // relM2M: link column referencing the source
	linkRemot string // relM2M: link column referencing the target
}

// FieldDef describes one entry of an entity's searchable allow-list.
type FieldDef struct {
	Type   FieldType
	Column string    // scalar fields: column on the entity's table
	Rel    *Relation // relation fields
}

// EntityDef describes a searchable entity kind.
type EntityDef struct {
	Kind  model.Kind
	Table string
	Alias string

	// Fields is the searchable allow-list. Only paths through this map are
	// queryable; anything else is a FieldError.
	Fields map[string]*FieldDef

	// DefaultOrder is the ORDER BY applied when no SORT directive is given.
	DefaultOrder string
}

// registry maps entity kind names to their definitions. It is built once at
// package init and never mutated afterwards.
var registry = buildRegistry()

func fk(target model.Kind, table, localCol, keyColumn string, keyType FieldType) *Relation {
	return &Relation{
		Target: target, Table: table, KeyColumn: keyColumn, KeyType: keyType,
		kind: relFK, localCol: localCol,
	}
}

func reverse(target model.Kind, table, remoteCol, keyColumn string, keyType FieldType) *Relation {
	return &Relation{
		Target: target, Table: table, KeyColumn: keyColumn, KeyType: keyType,
		kind: relReverse, remoteCol: remoteCol,
	}
}

func m2m(target model.Kind, table, linkTable, linkLocal, linkRemote, keyColumn string, keyType FieldType) *Relation {
	return &Relation{
		Target: target, Table: table, KeyColumn: keyColumn, KeyType: keyType,
		kind: relM2M, linkTable: linkTable, linkLocal: linkLocal, linkRemot: linkRemote,
	}
}

func buildRegistry() map[model.Kind]*EntityDef {
	userRel := func(localCol string) *Relation {
		return fk(model.KindUser, "users", localCol, "username", FieldString)
	}
	issueRelByCol := func(localCol string) *Relation {
		return fk(model.KindIssue, "issues", localCol, "number", FieldNumber)
	}

	return map[model.Kind]*EntityDef{
		model.KindIssue: {
			Kind:         model.KindIssue,
			Table:        "issues",
			Alias:        "i",
			DefaultOrder: "number",
			Fields: map[string]*FieldDef{
				"project":     {Type: FieldRelation, Rel: fk(model.KindProject, "projects", "project_id", "name_short", FieldString)},
				"sprint":      {Type: FieldRelation, Rel: fk("", "sprints", "sprint_id", "seqnum", FieldNumber)},
				"description": {Type: FieldString, Column: "description"},
				"kanbancol":   {Type: FieldRelation, Rel: fk("", "kanban_columns", "kanbancol_id", "name", FieldString)},
				"assignee":    {Type: FieldRelation, Rel: m2m(model.KindUser, "users", "issue_assignees", "issue_id", "user_id", "username", FieldString)},
				"due_date":    {Type: FieldDate, Column: "due_date"},
				"tags":        {Type: FieldRelation, Rel: m2m(model.KindTag, "tags", "issue_tags", "issue_id", "tag_id", "tag_text", FieldString)},
				"number":      {Type: FieldNumber, Column: "number"},
				"priority":    {Type: FieldNumber, Column: "priority"},
				"storypoints": {Type: FieldNumber, Column: "storypoints"},
				"title":       {Type: FieldString, Column: "title"},
				"type":        {Type: FieldString, Column: "type"},
				"creator":     {Type: FieldRelation, Rel: userRel("creator_id")},
			},
		},
		model.KindProject: {
			Kind:         model.KindProject,
			Table:        "projects",
			Alias:        "p",
			DefaultOrder: "name",
			Fields: map[string]*FieldDef{
				"creator":     {Type: FieldRelation, Rel: userRel("creator_id")},
				"created_at":  {Type: FieldDate, Column: "created_at"},
				"description": {Type: FieldString, Column: "description"},
				"name":        {Type: FieldString, Column: "name"},
				"name_short":  {Type: FieldString, Column: "name_short"},
				"updated_at":  {Type: FieldDate, Column: "updated_at"},
				"issue":       {Type: FieldRelation, Rel: reverse(model.KindIssue, "issues", "project_id", "number", FieldNumber)},
			},
		},
		model.KindUser: {
			Kind:         model.KindUser,
			Table:        "users",
			Alias:        "u",
			DefaultOrder: "username",
			Fields: map[string]*FieldDef{
				"first_name": {Type: FieldString, Column: "first_name"},
				"last_name":  {Type: FieldString, Column: "last_name"},
				"username":   {Type: FieldString, Column: "username"},
			},
		},
		model.KindComment: {
			Kind:         model.KindComment,
			Table:        "comments",
			Alias:        "c",
			DefaultOrder: "id",
			Fields: map[string]*FieldDef{
				"when":    {Type: FieldDate, Column: "created"},
				"creator": {Type: FieldRelation, Rel: userRel("creator_id")},
				"issue":   {Type: FieldRelation, Rel: issueRelByCol("issue_id")},
				"text":    {Type: FieldString, Column: "text"},
			},
		},
		model.KindTag: {
			Kind:         model.KindTag,
			Table:        "tags",
			Alias:        "t",
			DefaultOrder: "tag_text",
			Fields: map[string]*FieldDef{
				"tag_text": {Type: FieldString, Column: "tag_text"},
			},
		},
		model.KindCommit: {
			Kind:         model.KindCommit,
			Table:        "commits",
			Alias:        "g",
			DefaultOrder: "id",
			Fields: map[string]*FieldDef{
				"issue":   {Type: FieldRelation, Rel: issueRelByCol("issue_id")},
				"date":    {Type: FieldDate, Column: "date"},
				"author":  {Type: FieldString, Column: "author"},
				"name":    {Type: FieldString, Column: "name"},
				"message": {Type: FieldString, Column: "message"},
				"changes": {Type: FieldString, Column: "changes"},
			},
		},
	}
}

// entityDef resolves a kind name as written in an expression.
func entityDef(name string) (*EntityDef, error) {
	kind, err := model.ParseKind(name)
	if err != nil {
		return nil, fieldErrorf("unknown entity type %q", name)
	}
	return registry[kind], nil
}

// ResolvedField is a field path validated against the registry: zero or more
// relation steps followed by a leaf column.
type ResolvedField struct {
	Steps []*Relation

	// LeafColumn is the compared column on the table reached by Steps.
	LeafColumn string
	LeafType   FieldType
}

// ResolveField validates a dotted field path against the entity's searchable
// allow-list, traversing relations. A path ending on a relation compares the
// relation's key column.
func ResolveField(entity *EntityDef, path []string) (*ResolvedField, error) {
	resolved := &ResolvedField{}
	cur := entity
	for i, name := range path {
		if cur == nil {
			return nil, fieldErrorf("field path %q continues past a field with no searchable subfields",
				strings.Join(path, "."))
		}
		def, ok := cur.Fields[name]
		if !ok {
			return nil, fieldErrorf("%s has no searchable field %q", cur.Kind, name)
		}

		if def.Type != FieldRelation {
			if i != len(path)-1 {
				return nil, fieldErrorf("field %q of %s has no subfields", name, cur.Kind)
			}
			resolved.LeafColumn = def.Column
			resolved.LeafType = def.Type
			return resolved, nil
		}

		if i == len(path)-1 {
			resolved.Steps = append(resolved.Steps, def.Rel)
			resolved.LeafColumn = def.Rel.KeyColumn
			resolved.LeafType = def.Rel.KeyType
			return resolved, nil
		}

		resolved.Steps = append(resolved.Steps, def.Rel)
		if def.Rel.Target == "" {
			cur = nil
		} else {
			cur = registry[def.Rel.Target]
		}
	}
	return nil, fieldErrorf("empty field path")
}

// textColumns returns the entity's string-typed scalar columns, used as the
// full-text search surface.
func (e *EntityDef) textColumns() []string {
	var cols []string
	// Deterministic order keeps compiled SQL stable.
	for _, name := range sortedFieldNames(e.Fields) {
		def := e.Fields[name]
		if def.Type == FieldString {
			cols = append(cols, def.Column)
		}
	}
	return cols
}

func sortedFieldNames(fields map[string]*FieldDef) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
