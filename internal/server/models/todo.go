// Package models defines server-side data models persisted in the database.
package models

import "time"

// Todo is a single task record. ID, UserID and CreatedAt are fixed at creation.
type Todo struct {
	ID            string    `json:"todoId"`
	UserID        string    `json:"userId"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"createdAt"`
	DueDate       string    `json:"dueDate"`
	Done          bool      `json:"done"`
	AttachmentURL string    `json:"attachmentUrl"`
}

// NewTodo carries the client supplied fields of a todo being created.
type NewTodo struct {
	Name    string `json:"name"`
	DueDate string `json:"dueDate"`
}

// TodoUpdate lists the mutable fields. A nil field keeps its stored value.
type TodoUpdate struct {
	Name    *string `json:"name,omitempty"`
	DueDate *string `json:"dueDate,omitempty"`
	Done    *bool   `json:"done,omitempty"`
}

// Empty reports whether the update would change nothing.
func (u TodoUpdate) Empty() bool {
	return u.Name == nil && u.DueDate == nil && u.Done == nil
}
