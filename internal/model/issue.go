package model

import (
	"fmt"
	"time"
)

// IssueType is the ticket category.
type IssueType string

const (
	TypeBug   IssueType = "Bug"
	TypeStory IssueType = "Story"
	TypeTask  IssueType = "Task"
)

// ParseIssueType returns the IssueType named by s.
func ParseIssueType(s string) (IssueType, error) {
	switch IssueType(s) {
	case TypeBug, TypeStory, TypeTask:
		return IssueType(s), nil
	}
	return "", fmt.Errorf("invalid issue type %q", s)
}

// Priority runs from 0 (unimportant) to 4 (critical).
type Priority int

const (
	PriorityUnimportant Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// DefaultPriority is assigned when an issue is created without an explicit priority.
const DefaultPriority = PriorityMedium

func (p Priority) String() string {
	switch p {
	case PriorityUnimportant:
		return "Unimportant"
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityCritical:
		return "Critical"
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// Valid reports whether p is within the 0-4 range.
func (p Priority) Valid() bool { return p >= PriorityUnimportant && p <= PriorityCritical }

// Issue is a ticket numbered sequentially within its project.
// Number is assigned atomically at creation and never reused.
type Issue struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	Type        IssueType  `json:"type"`
	Priority    Priority   `json:"priority"`
	Storypoints int        `json:"storypoints"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	KanbanColID int64      `json:"kanbancol_id"`
	SprintID    *int64     `json:"sprint_id,omitempty"`
	CreatorID   *int64     `json:"creator_id,omitempty"`
	Created     time.Time  `json:"created"`
	Archived    bool       `json:"archived"`

	// LoggedTotal is the sum of all timelog durations on this issue.
	LoggedTotal time.Duration `json:"logged_total"`
}

// TicketID formats the project-scoped identifier, e.g. "PRJ-4".
func TicketID(projectCode string, number int) string {
	return fmt.Sprintf("%s-%d", projectCode, number)
}

// Comment belongs to an issue and is numbered sequentially within it.
type Comment struct {
	ID        int64     `json:"id"`
	IssueID   int64     `json:"issue_id"`
	Seqnum    int       `json:"seqnum"`
	Text      string    `json:"text"`
	CreatorID int64     `json:"creator_id"`
	When      time.Time `json:"when"`
	Modified  time.Time `json:"modified"`
}

// Timelog records a positive duration a user spent on an issue.
type Timelog struct {
	ID        int64         `json:"id"`
	IssueID   int64         `json:"issue_id"`
	Seqnum    int           `json:"seqnum"`
	UserID    int64         `json:"user_id"`
	Time      time.Duration `json:"time"`
	CreatedAt time.Time     `json:"created_at"`
}

// Commit is a linked VCS commit attached to an issue.
type Commit struct {
	ID      int64     `json:"id"`
	IssueID int64     `json:"issue_id"`
	Name    string    `json:"name"`
	Author  string    `json:"author"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
	Changes string    `json:"changes,omitempty"`
}
