package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"pomodoro-api/internal/domain"
	"pomodoro-api/internal/repository"
)

// TaskHandler expone CRUD de tareas acotado al usuario autenticado.
type TaskHandler struct {
	logger *zap.Logger
	tasks  repository.TaskRepository
}

func NewTaskHandler(logger *zap.Logger, tasks repository.TaskRepository) *TaskHandler {
	return &TaskHandler{
		logger: logger,
		tasks:  tasks,
	}
}

type taskRequest struct {
	Name               string   `json:"name" binding:"required"`
	EstimatedPomodoros int      `json:"estimated_pomodoros"`
	ProjectID          string   `json:"project_id"`
	TagIDs             []string `json:"tag_ids"`
	Color              string   `json:"color"`
	Status             string   `json:"status"`
}

func (r *taskRequest) applyDefaults() {
	if r.EstimatedPomodoros <= 0 {
		r.EstimatedPomodoros = 1
	}
	if r.Color == "" {
		r.Color = defaultColor
	}
	if r.Status == "" {
		r.Status = domain.TaskStatusActive
	}
}

func (r *taskRequest) validStatus() bool {
	return r.Status == domain.TaskStatusActive || r.Status == domain.TaskStatusDisabled
}

// ListTasks maneja GET /tasks.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}
	tasks, err := h.tasks.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("list tasks failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// GetTask maneja GET /tasks/:id.
func (h *TaskHandler) GetTask(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}
	task, err := h.tasks.GetByID(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		h.logger.Error("get task failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get task"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// CreateTask maneja POST /tasks.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	req.applyDefaults()
	if !req.validStatus() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	task := domain.Task{
		ID:                 uuid.NewString(),
		UserID:             claims.UserID,
		Name:               req.Name,
		EstimatedPomodoros: req.EstimatedPomodoros,
		ProjectID:          req.ProjectID,
		TagIDs:             req.TagIDs,
		Color:              req.Color,
		Status:             req.Status,
		CreatedAt:          time.Now().UTC(),
	}
	if err := h.tasks.Create(c.Request.Context(), task); err != nil {
		h.logger.Error("create task failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create task"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// UpdateTask maneja PUT /tasks/:id.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	req.applyDefaults()
	if !req.validStatus() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	task := domain.Task{
		ID:                 c.Param("id"),
		UserID:             claims.UserID,
		Name:               req.Name,
		EstimatedPomodoros: req.EstimatedPomodoros,
		ProjectID:          req.ProjectID,
		TagIDs:             req.TagIDs,
		Color:              req.Color,
		Status:             req.Status,
	}
	if err := h.tasks.Update(c.Request.Context(), task); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		h.logger.Error("update task failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update task"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// DeleteTask maneja DELETE /tasks/:id.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		h.logger.Error("delete task failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete task"})
		return
	}
	c.Status(http.StatusNoContent)
}
