// Package services contains server-side business logic. This file implements
// TodoService, the owner-scoped operations on todo records.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/todos/internal/common"
	"github.com/dmitrijs2005/todos/internal/logging"
	"github.com/dmitrijs2005/todos/internal/server/config"
	"github.com/dmitrijs2005/todos/internal/server/models"
	"github.com/dmitrijs2005/todos/internal/server/pagination"
	"github.com/dmitrijs2005/todos/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// DefaultPageSize is used when the configured maximum is not positive.
const DefaultPageSize = 20

// UploadTargetIssuer hands out presigned upload URLs for attachments.
type UploadTargetIssuer interface {
	IssueUploadTarget(ctx context.Context, recordID string) (uploadURL, publicLocation string, err error)
}

// TodoService implements listing and mutation of todos. Every call is scoped
// to the owner passed in; an empty owner is rejected with ErrorUnauthorized.
type TodoService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *pagination.Codec
	linker      UploadTargetIssuer
	logger      logging.Logger
	maxPageSize int
	now         func() time.Time
}

// NewTodoService wires a TodoService. db may be nil for the in-memory manager.
func NewTodoService(db *sql.DB, m repomanager.RepositoryManager, codec *pagination.Codec,
	linker UploadTargetIssuer, cfg *config.Config, logger logging.Logger) *TodoService {
	maxPageSize := cfg.MaxPageSize
	if maxPageSize <= 0 {
		maxPageSize = DefaultPageSize
	}
	return &TodoService{
		db:          db,
		repomanager: m,
		codec:       codec,
		linker:      linker,
		logger:      logger.With("module", "todos"),
		maxPageSize: maxPageSize,
		now:         time.Now,
	}
}

// PageSize clamps a requested page size into (0, max]; anything outside
// falls back to max.
func (s *TodoService) PageSize(requested int) int {
	if requested <= 0 || requested > s.maxPageSize {
		return s.maxPageSize
	}
	return requested
}

// List returns one page of the owner's todos ordered by creation time, ties
// broken by id. A cursor that does not decode, or was issued to another
// owner, restarts the listing from the beginning.
//
// TotalCount comes from a separate query and is not consistent with Items
// under concurrent writes.
func (s *TodoService) List(ctx context.Context, ownerID string, cursor pagination.Cursor, pageSize int) (*models.Page, error) {
	if ownerID == "" {
		return nil, common.ErrorUnauthorized
	}

	limit := s.PageSize(pageSize)
	after := s.resumePosition(ctx, ownerID, cursor)
	repo := s.repomanager.Todos(s.db)

	items, err := repo.List(ctx, ownerID, after, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}

	var next pagination.Cursor
	if len(items) > limit {
		items = items[:limit]
		last := items[limit-1]
		next, err = s.codec.Encode(pagination.Position{OwnerID: ownerID, CreatedAt: last.CreatedAt, ID: last.ID})
		if err != nil {
			return nil, fmt.Errorf("encode cursor: %w", err)
		}
	}

	total, err := repo.Count(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count todos: %w", err)
	}

	return &models.Page{Items: items, NextCursor: next, PageSize: limit, TotalCount: total}, nil
}

func (s *TodoService) resumePosition(ctx context.Context, ownerID string, cursor pagination.Cursor) *pagination.Position {
	if cursor.IsZero() {
		return nil
	}
	pos, err := s.codec.Decode(cursor)
	if err != nil {
		s.logger.Warn(ctx, "ignoring cursor", "user_id", ownerID, "error", err)
		return nil
	}
	if pos.OwnerID != ownerID {
		s.logger.Warn(ctx, "ignoring cursor issued to another owner", "user_id", ownerID)
		return nil
	}
	return &pos
}

// Create stores a new todo with a fresh random id. The returned record is
// exactly what was stored.
func (s *TodoService) Create(ctx context.Context, ownerID string, in models.NewTodo) (*models.Todo, error) {
	if ownerID == "" {
		return nil, common.ErrorUnauthorized
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrorValidation)
	}

	todo := &models.Todo{
		ID:        uuid.NewString(),
		UserID:    ownerID,
		Name:      in.Name,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
		DueDate:   in.DueDate,
	}
	if err := s.repomanager.Todos(s.db).Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}

	s.logger.Info(ctx, "todo created", "todo_id", todo.ID, "user_id", ownerID)
	return todo, nil
}

// Update changes the mutable fields set in upd. A missing (id, owner) pair
// yields ErrorNotFound.
func (s *TodoService) Update(ctx context.Context, id, ownerID string, upd models.TodoUpdate) error {
	if ownerID == "" {
		return common.ErrorUnauthorized
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", common.ErrorValidation)
	}
	return wrapStore("update todo", s.repomanager.Todos(s.db).Update(ctx, id, ownerID, upd))
}

// SetAttachmentURL replaces only the attachment location.
func (s *TodoService) SetAttachmentURL(ctx context.Context, id, ownerID, url string) error {
	if ownerID == "" {
		return common.ErrorUnauthorized
	}
	return wrapStore("set attachment", s.repomanager.Todos(s.db).SetAttachmentURL(ctx, id, ownerID, url))
}

// Delete removes the todo. Of two concurrent deletes exactly one succeeds,
// the other gets ErrorNotFound.
func (s *TodoService) Delete(ctx context.Context, id, ownerID string) error {
	if ownerID == "" {
		return common.ErrorUnauthorized
	}
	if err := s.repomanager.Todos(s.db).Delete(ctx, id, ownerID); err != nil {
		return wrapStore("delete todo", err)
	}
	s.logger.Info(ctx, "todo deleted", "todo_id", id, "user_id", ownerID)
	return nil
}

// GenerateUploadURL checks that the caller owns the todo, issues an upload
// target for it and records the public location on the todo.
func (s *TodoService) GenerateUploadURL(ctx context.Context, id, ownerID string) (string, error) {
	if ownerID == "" {
		return "", common.ErrorUnauthorized
	}

	repo := s.repomanager.Todos(s.db)
	if _, err := repo.Get(ctx, id, ownerID); err != nil {
		return "", wrapStore("get todo", err)
	}

	uploadURL, location, err := s.linker.IssueUploadTarget(ctx, id)
	if err != nil {
		return "", fmt.Errorf("issue upload target: %w", err)
	}

	if err := repo.SetAttachmentURL(ctx, id, ownerID, location); err != nil {
		return "", wrapStore("set attachment", err)
	}
	return uploadURL, nil
}

func wrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
