package model

import "time"

// User is a member of zero or more projects, as developer and/or manager.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// DisplayName returns "First Last" when set, falling back to the username.
func (u User) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Project owns issues, tags, kanban columns and sprints.
// NameShort is the unique ticket prefix, e.g. "PRJ".
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	NameShort   string    `json:"name_short"`
	Description string    `json:"description,omitempty"`
	CreatorID   int64     `json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ColumnType classifies a kanban column for board semantics.
type ColumnType string

const (
	ColumnTodo       ColumnType = "ToDo"
	ColumnInProgress ColumnType = "InProgress"
	ColumnDone       ColumnType = "Done"
)

// KanbanColumn is an issue status within a project's board.
type KanbanColumn struct {
	ID        int64      `json:"id"`
	ProjectID int64      `json:"project_id"`
	Name      string     `json:"name"`
	Position  int        `json:"position"`
	Type      ColumnType `json:"type"`
}

// Sprint is a numbered iteration within a project.
type Sprint struct {
	ID        int64      `json:"id"`
	ProjectID int64      `json:"project_id"`
	Seqnum    int        `json:"seqnum"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// Tag is a project-scoped label with a display color.
// Text is unique per project.
type Tag struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project_id"`
	Text      string `json:"tag_text"`
	Color     string `json:"color,omitempty"`
}
