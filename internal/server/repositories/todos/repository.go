package todos

import (
	"context"

	"github.com/dmitrijs2005/todos/internal/server/models"
	"github.com/dmitrijs2005/todos/internal/server/pagination"
)

// Repository stores todos partitioned by owner. Every method is scoped to a
// single owner; a record of another owner behaves as if it did not exist.
//
// Records are ordered by ascending CreatedAt, ties broken by ascending ID.
type Repository interface {
	// List returns up to limit records of ownerID that sort strictly after
	// the given position (from the start when after is nil).
	List(ctx context.Context, ownerID string, after *pagination.Position, limit int) ([]*models.Todo, error)
	Count(ctx context.Context, ownerID string) (int, error)
	Get(ctx context.Context, id, ownerID string) (*models.Todo, error)
	Create(ctx context.Context, todo *models.Todo) error
	Update(ctx context.Context, id, ownerID string, upd models.TodoUpdate) error
	SetAttachmentURL(ctx context.Context, id, ownerID, url string) error
	Delete(ctx context.Context, id, ownerID string) error
}
