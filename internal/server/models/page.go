package models

import "github.com/dmitrijs2005/todos/internal/server/pagination"

// Page is one slice of an owner's todo list.
//
// TotalCount is read with a separate query and may disagree with Items
// under concurrent writes.
type Page struct {
	Items      []*Todo
	NextCursor pagination.Cursor
	PageSize   int
	TotalCount int
}
