// Package model defines the entities shared by the tracker's engines.
package model

import "fmt"

// Kind identifies an entity type in queries and results.
type Kind string

const (
	KindProject Kind = "Project"
	KindIssue   Kind = "Issue"
	KindUser    Kind = "User"
	KindComment Kind = "Comment"
	KindTag     Kind = "Tag"
	KindCommit  Kind = "Commit"
)

// Kinds lists every searchable entity kind in display order.
var Kinds = []Kind{KindProject, KindIssue, KindUser, KindComment, KindTag, KindCommit}

// ParseKind returns the Kind named by s.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}
