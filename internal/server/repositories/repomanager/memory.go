package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/todos/internal/dbx"
	"github.com/dmitrijs2005/todos/internal/server/repositories/todos"
)

// MemoryRepositoryManager serves a single process-local store and ignores
// the DBTX it is handed.
type MemoryRepositoryManager struct {
	todos *todos.MemoryRepository
}

func NewMemoryRepositoryManager() RepositoryManager {
	return &MemoryRepositoryManager{todos: todos.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *MemoryRepositoryManager) Todos(dbx.DBTX) todos.Repository {
	return m.todos
}
