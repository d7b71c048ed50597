// Package httpapi is the REST boundary of the todo service, built on echo.
// It authenticates callers, maps requests onto TodoService calls and turns
// service errors into status codes without leaking internal detail.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/todos/internal/common"
	"github.com/dmitrijs2005/todos/internal/logging"
	"github.com/dmitrijs2005/todos/internal/server/models"
	"github.com/dmitrijs2005/todos/internal/server/pagination"
	"github.com/labstack/echo/v4"
)

// TodoService is the subset of services.TodoService used by the handlers.
type TodoService interface {
	List(ctx context.Context, ownerID string, cursor pagination.Cursor, pageSize int) (*models.Page, error)
	Create(ctx context.Context, ownerID string, in models.NewTodo) (*models.Todo, error)
	Update(ctx context.Context, id, ownerID string, upd models.TodoUpdate) error
	Delete(ctx context.Context, id, ownerID string) error
	GenerateUploadURL(ctx context.Context, id, ownerID string) (string, error)
}

type Handler struct {
	todos  TodoService
	logger logging.Logger
}

func NewHandler(todos TodoService, logger logging.Logger) *Handler {
	return &Handler{todos: todos, logger: logger}
}

// ListTodos serves GET /todos?nextKey=&limit=. An unparsable limit falls
// back to the default page size.
func (h *Handler) ListTodos(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	cursor := pagination.ParseCursor(c.QueryParam("nextKey"))

	page, err := h.todos.List(c.Request().Context(), principal(c), cursor, limit)
	if err != nil {
		return h.fail(c, err)
	}

	items := page.Items
	if items == nil {
		items = []*models.Todo{}
	}
	return c.JSON(http.StatusOK, listResponse{
		Items:      items,
		NextKey:    page.NextCursor.String(),
		TotalItems: page.TotalCount,
		ItemsLimit: page.PageSize,
	})
}

func (h *Handler) CreateTodo(c echo.Context) error {
	var req models.NewTodo
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	todo, err := h.todos.Create(c.Request().Context(), principal(c), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, itemResponse{Item: todo})
}

func (h *Handler) UpdateTodo(c echo.Context) error {
	var req models.TodoUpdate
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if req.Empty() {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to update")
	}

	if err := h.todos.Update(c.Request().Context(), c.Param("todoId"), principal(c), req); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "todo updated"})
}

func (h *Handler) DeleteTodo(c echo.Context) error {
	if err := h.todos.Delete(c.Request().Context(), c.Param("todoId"), principal(c)); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "todo deleted"})
}

func (h *Handler) GenerateUploadURL(c echo.Context) error {
	url, err := h.todos.GenerateUploadURL(c.Request().Context(), c.Param("todoId"), principal(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, uploadResponse{UploadURL: url})
}

// fail maps a service error to an HTTP error. Anything unexpected is logged
// with full detail and reported as a bare internal error.
func (h *Handler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "todo not found")
	case errors.Is(err, common.ErrorValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return errAccessDenied
	default:
		h.logger.Error(c.Request().Context(), "request failed",
			"path", c.Path(), "user_id", principal(c), "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
