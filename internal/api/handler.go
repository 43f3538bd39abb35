package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Ayala-Braverman/practicod3-1/internal/model"
	"github.com/Ayala-Braverman/practicod3-1/internal/service"
)

// Authenticator registers users, logs them in and verifies their tokens.
type Authenticator interface {
	Register(ctx context.Context, userName, password string) (*service.AuthResult, error)
	Authenticate(ctx context.Context, userName, password string) (*service.AuthResult, error)
	VerifyToken(token string) (int64, error)
}

// TaskManager performs task operations on behalf of a verified user.
type TaskManager interface {
	List(ctx context.Context, userID int64) ([]model.Task, error)
	Get(ctx context.Context, userID, id int64) (*model.Task, error)
	Create(ctx context.Context, userID int64, name string) (*model.Task, error)
	Update(ctx context.Context, userID, id int64, name *string, isComplete bool) error
	Delete(ctx context.Context, userID, id int64) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the REST endpoints
type Handler struct {
	auth   Authenticator
	tasks  TaskManager
	db     Pinger
	logger *slog.Logger
}

// NewHandler creates a Handler
func NewHandler(auth Authenticator, tasks TaskManager, db Pinger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{auth: auth, tasks: tasks, db: db, logger: logger}
}

// Register creates a user and returns a token for it
func (h *Handler) Register(c echo.Context) error {
	var dto AuthDTO
	if err := c.Bind(&dto); err != nil {
		return h.respondError(c, service.ErrInvalidInput)
	}

	res, err := h.auth.Register(c.Request().Context(), dto.UserName, dto.secret())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, AuthResponseDTO{Token: res.Token, User: res.User})
}

// Login handles user authentication and returns a JWT token
func (h *Handler) Login(c echo.Context) error {
	var dto AuthDTO
	if err := c.Bind(&dto); err != nil {
		return h.respondError(c, service.ErrInvalidInput)
	}

	res, err := h.auth.Authenticate(c.Request().Context(), dto.UserName, dto.secret())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, AuthResponseDTO{Token: res.Token, User: res.User})
}

// GetTasks retrieves tasks for the authenticated user
func (h *Handler) GetTasks(c echo.Context) error {
	tasks, err := h.tasks.List(c.Request().Context(), userIDFrom(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, tasks)
}

// GetTask retrieves one task of the authenticated user
func (h *Handler) GetTask(c echo.Context) error {
	id, ok := taskID(c)
	if !ok {
		return h.respondError(c, service.ErrNotFound)
	}

	task, err := h.tasks.Get(c.Request().Context(), userIDFrom(c), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

// CreateTask creates a new task for the authenticated user
func (h *Handler) CreateTask(c echo.Context) error {
	var dto CreateTaskDTO
	if err := c.Bind(&dto); err != nil {
		return h.respondError(c, service.ErrInvalidInput)
	}

	task, err := h.tasks.Create(c.Request().Context(), userIDFrom(c), dto.Name)
	if err != nil {
		return h.respondError(c, err)
	}

	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/api/items/%d", task.ID))
	return c.JSON(http.StatusCreated, task)
}

// UpdateTask updates an existing task for the authenticated user
func (h *Handler) UpdateTask(c echo.Context) error {
	id, ok := taskID(c)
	if !ok {
		return h.respondError(c, service.ErrNotFound)
	}

	var dto UpdateTaskDTO
	if err := c.Bind(&dto); err != nil {
		return h.respondError(c, service.ErrInvalidInput)
	}

	if err := h.tasks.Update(c.Request().Context(), userIDFrom(c), id, dto.Name, dto.IsComplete); err != nil {
		return h.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteTask deletes a task for the authenticated user
func (h *Handler) DeleteTask(c echo.Context) error {
	id, ok := taskID(c)
	if !ok {
		return h.respondError(c, service.ErrNotFound)
	}

	if err := h.tasks.Delete(c.Request().Context(), userIDFrom(c), id); err != nil {
		return h.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Root answers liveness checks
func (h *Handler) Root(c echo.Context) error {
	return c.String(http.StatusOK, "Todo API with JWT is running")
}

// Health checks the database connection
func (h *Handler) Health(c echo.Context) error {
	if err := h.db.Ping(c.Request().Context()); err != nil {
		h.logger.Error("Health check failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// respondError maps a service error onto its status code. Messages for
// NotFound and InvalidCredentials are fixed so responses do not reveal which
// case occurred.
func (h *Handler) respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, ErrorDTO{Error: err.Error()})
	case errors.Is(err, service.ErrDuplicateUser):
		return c.JSON(http.StatusConflict, ErrorDTO{Error: service.ErrDuplicateUser.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, ErrorDTO{Error: service.ErrInvalidCredentials.Error()})
	case errors.Is(err, service.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, ErrorDTO{Error: service.ErrUnauthenticated.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorDTO{Error: "Task not found"})
	}

	h.logger.Error("Request failed",
		"method", c.Request().Method,
		"path", c.Path(),
		"error", err)
	return c.JSON(http.StatusInternalServerError, ErrorDTO{Error: "internal server error"})
}

// taskID parses the :id path parameter. A malformed id is reported as not
// found, like any other id the caller does not own.
func taskID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
