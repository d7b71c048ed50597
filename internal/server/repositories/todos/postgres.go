// Package todos provides owner-scoped todo storage: a PostgreSQL
// implementation over dbx.DBTX and an in-memory one with the same semantics.
package todos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todos/internal/common"
	"github.com/dmitrijs2005/todos/internal/dbx"
	"github.com/dmitrijs2005/todos/internal/server/models"
	"github.com/dmitrijs2005/todos/internal/server/pagination"
)

const selectColumns = `id, user_id, name, created_at, due_date, done, attachment_url`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List runs a keyset scan over the (user_id, created_at, id) index.
func (r *PostgresRepository) List(ctx context.Context, ownerID string, after *pagination.Position, limit int) ([]*models.Todo, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if after == nil {
		query := `SELECT ` + selectColumns + ` FROM todos
			WHERE user_id = $1
			ORDER BY created_at, id
			LIMIT $2`
		rows, err = r.db.QueryContext(ctx, query, ownerID, limit)
	} else {
		query := `SELECT ` + selectColumns + ` FROM todos
			WHERE user_id = $1 AND (created_at, id) > ($2, $3)
			ORDER BY created_at, id
			LIMIT $4`
		rows, err = r.db.QueryContext(ctx, query, ownerID, after.CreatedAt, after.ID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select todos: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Todo, 0, limit)
	for rows.Next() {
		item, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Count returns the number of todos owned by ownerID.
func (r *PostgresRepository) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos WHERE user_id = $1`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count todos: %w", err)
	}
	return n, nil
}

// Get returns one todo or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id, ownerID string) (*models.Todo, error) {
	query := `SELECT ` + selectColumns + ` FROM todos WHERE id = $1 AND user_id = $2`
	item, err := scanTodo(r.db.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *PostgresRepository) Create(ctx context.Context, todo *models.Todo) error {
	query := `
		INSERT INTO todos (id, user_id, name, created_at, due_date, done, attachment_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		todo.ID, todo.UserID, todo.Name, todo.CreatedAt, todo.DueDate, todo.Done, todo.AttachmentURL)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of upd in one conditional statement.
func (r *PostgresRepository) Update(ctx context.Context, id, ownerID string, upd models.TodoUpdate) error {
	query := `
		UPDATE todos SET
			name = COALESCE($3, name),
			due_date = COALESCE($4, due_date),
			done = COALESCE($5, done)
		WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, ownerID, upd.Name, upd.DueDate, upd.Done)
	return singleRow(res, err)
}

func (r *PostgresRepository) SetAttachmentURL(ctx context.Context, id, ownerID, url string) error {
	query := `UPDATE todos SET attachment_url = $3 WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, ownerID, url)
	return singleRow(res, err)
}

// Delete removes the record only if it exists for ownerID, so of two
// concurrent deletes exactly one succeeds.
func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, ownerID)
	return singleRow(res, err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(s scanner) (*models.Todo, error) {
	var item models.Todo
	if err := s.Scan(
		&item.ID, &item.UserID, &item.Name, &item.CreatedAt, &item.DueDate, &item.Done, &item.AttachmentURL,
	); err != nil {
		return nil, err
	}
	item.CreatedAt = item.CreatedAt.UTC()
	return &item, nil
}

func singleRow(res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
