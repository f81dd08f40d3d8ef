package group

import "time"

// Group organizes documents into a tree. A group has at most one parent;
// reassigning the parent is checked against cycles before it is persisted.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ParentID    string    `json:"parent_id,omitempty"`
	ChildIDs    []string  `json:"child_groups"`
	DocumentIDs []string  `json:"documents"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
