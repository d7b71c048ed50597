package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/todos/internal/dbx"
	"github.com/dmitrijs2005/todos/internal/server/repositories/todos"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Todos(db dbx.DBTX) todos.Repository
}
