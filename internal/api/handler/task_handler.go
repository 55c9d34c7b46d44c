package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/platform/internal/core/domain"
	"github.com/taskhub/platform/internal/core/ports"
)

// HeaderIdempotencyKey makes POST /tasks safe to retry.
const HeaderIdempotencyKey = "Idempotency-Key"

// TaskHandler handles the task API. Every route resolves the caller through
// the identity resolver before touching the service; any resolution failure
// ends the request with an empty 401.
type TaskHandler struct {
	service  ports.TaskService
	resolver ports.IdentityResolver
}

func NewTaskHandler(service ports.TaskService, resolver ports.IdentityResolver) *TaskHandler {
	return &TaskHandler{service: service, resolver: resolver}
}

func (h *TaskHandler) principal(c echo.Context) (domain.Principal, error) {
	return h.resolver.Resolve(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
}

// List handles GET /tasks.
//
// @Summary      List the caller's tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   taskResponse
// @Failure      401
// @Router       /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	p, err := h.principal(c)
	if err != nil {
		return c.NoContent(http.StatusUnauthorized)
	}

	tasks, err := h.service.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /tasks/:id.
//
// @Summary      Get one of the caller's tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Task id"
// @Success      200  {object}  taskResponse
// @Failure      400  {object}  errorResponse
// @Failure      401
// @Failure      404  {object}  errorResponse
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	p, err := h.principal(c)
	if err != nil {
		return c.NoContent(http.StatusUnauthorized)
	}
	id, ok := taskID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid task id"})
	}

	task, err := h.service.Get(c.Request().Context(), p, id)
	if err != nil {
		return taskError(c, err)
	}
	return c.JSON(http.StatusOK, toTaskResponse(task))
}

// Create handles POST /tasks. A repeated Idempotency-Key from the same
// caller returns the task created by the first request with 200.
//
// @Summary      Create a task for the caller
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string       false  "Client-generated key for safe retries"
// @Param        body             body      taskRequest  true   "Task"
// @Success      201              {object}  taskResponse
// @Success      200              {object}  taskResponse  "Replayed by Idempotency-Key"
// @Failure      400              {object}  errorResponse
// @Failure      401
// @Failure      409              {object}  errorResponse  "Same Idempotency-Key still in progress"
// @Router       /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	p, err := h.principal(c)
	if err != nil {
		return c.NoContent(http.StatusUnauthorized)
	}

	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	res, err := h.service.Create(c.Request().Context(), p, toTaskInput(req), c.Request().Header.Get(HeaderIdempotencyKey))
	if err != nil {
		return taskError(c, err)
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	return c.JSON(status, toTaskResponse(res.Task))
}

// Update handles PUT /tasks/:id.
//
// @Summary      Replace one of the caller's tasks
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int          true  "Task id"
// @Param        body  body      taskRequest  true  "Task"
// @Success      200   {object}  taskResponse
// @Failure      400   {object}  errorResponse
// @Failure      401
// @Failure      404   {object}  errorResponse
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	p, err := h.principal(c)
	if err != nil {
		return c.NoContent(http.StatusUnauthorized)
	}
	id, ok := taskID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid task id"})
	}

	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	task, err := h.service.Update(c.Request().Context(), p, id, toTaskInput(req))
	if err != nil {
		return taskError(c, err)
	}
	return c.JSON(http.StatusOK, toTaskResponse(task))
}

// Delete handles DELETE /tasks/:id.
//
// @Summary      Delete one of the caller's tasks
// @Tags         tasks
// @Security     BearerAuth
// @Param        id   path  int  true  "Task id"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      401
// @Failure      404  {object}  errorResponse
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	p, err := h.principal(c)
	if err != nil {
		return c.NoContent(http.StatusUnauthorized)
	}
	id, ok := taskID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid task id"})
	}

	if err := h.service.Delete(c.Request().Context(), p, id); err != nil {
		return taskError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func taskID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func toTaskInput(req taskRequest) ports.TaskInput {
	return ports.TaskInput{Title: req.Title, Description: req.Description, Completed: req.Completed}
}

// taskError renders the errors a task operation can legitimately produce and
// hands anything else to the central error handler.
func taskError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "task not found"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrIdempotencyInProgress):
		return c.JSON(http.StatusConflict, errorResponse{Error: domain.ErrIdempotencyInProgress.Error()})
	case errors.Is(err, domain.ErrUnauthenticated):
		return c.NoContent(http.StatusUnauthorized)
	default:
		return err
	}
}
