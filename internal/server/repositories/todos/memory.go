package todos

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/todos/internal/common"
	"github.com/dmitrijs2005/todos/internal/server/models"
	"github.com/dmitrijs2005/todos/internal/server/pagination"
)

type memoryKey struct {
	owner string
	id    string
}

// MemoryRepository keeps todos in process memory. Returned records are
// copies; mutating them does not affect the store.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[memoryKey]models.Todo
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[memoryKey]models.Todo)}
}

func (r *MemoryRepository) List(ctx context.Context, ownerID string, after *pagination.Position, limit int) ([]*models.Todo, error) {
	r.mu.RLock()
	owned := make([]models.Todo, 0)
	for k, v := range r.items {
		if k.owner == ownerID {
			owned = append(owned, v)
		}
	}
	r.mu.RUnlock()

	sort.Slice(owned, func(i, j int) bool {
		return less(owned[i].CreatedAt.UnixNano(), owned[i].ID, owned[j].CreatedAt.UnixNano(), owned[j].ID)
	})

	result := make([]*models.Todo, 0, limit)
	for i := range owned {
		if len(result) == limit {
			break
		}
		if after != nil && !less(after.CreatedAt.UnixNano(), after.ID, owned[i].CreatedAt.UnixNano(), owned[i].ID) {
			continue
		}
		item := owned[i]
		result = append(result, &item)
	}
	return result, nil
}

func less(aAt int64, aID string, bAt int64, bID string) bool {
	if aAt != bAt {
		return aAt < bAt
	}
	return aID < bID
}

func (r *MemoryRepository) Count(ctx context.Context, ownerID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for k := range r.items {
		if k.owner == ownerID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id, ownerID string) (*models.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[memoryKey{owner: ownerID, id: id}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &item, nil
}

func (r *MemoryRepository) Create(ctx context.Context, todo *models.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[memoryKey{owner: todo.UserID, id: todo.ID}] = *todo
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, id, ownerID string, upd models.TodoUpdate) error {
	return r.modify(id, ownerID, func(t *models.Todo) {
		if upd.Name != nil {
			t.Name = *upd.Name
		}
		if upd.DueDate != nil {
			t.DueDate = *upd.DueDate
		}
		if upd.Done != nil {
			t.Done = *upd.Done
		}
	})
}

func (r *MemoryRepository) SetAttachmentURL(ctx context.Context, id, ownerID, url string) error {
	return r.modify(id, ownerID, func(t *models.Todo) { t.AttachmentURL = url })
}

func (r *MemoryRepository) Delete(ctx context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := memoryKey{owner: ownerID, id: id}
	if _, ok := r.items[k]; !ok {
		return common.ErrorNotFound
	}
	delete(r.items, k)
	return nil
}

func (r *MemoryRepository) modify(id, ownerID string, fn func(*models.Todo)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := memoryKey{owner: ownerID, id: id}
	item, ok := r.items[k]
	if !ok {
		return common.ErrorNotFound
	}
	fn(&item)
	r.items[k] = item
	return nil
}
