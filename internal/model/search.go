package model

import "time"

// Search is a stored query expression. Every executed query is recorded as a
// non-persistent history entry; promotion makes it a saved search that survives
// history pruning and can be shared with projects.
type Search struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Expression  string    `json:"expression"`
	CreatorID   int64     `json:"creator_id"`
	Persistent  bool      `json:"persistent"`
	CreatedAt   time.Time `json:"created_at"`

	// SharedWith lists the project IDs this search is shared with.
	// Members of a shared project may run it; managers may also edit it.
	SharedWith []int64 `json:"shared_with,omitempty"`
}

// AutosaveDescription is the description given to history entries recorded on query.
const AutosaveDescription = "Autosave"
