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

// ProjectHandler expone CRUD de proyectos y tags acotado al usuario autenticado.
type ProjectHandler struct {
	logger   *zap.Logger
	projects repository.ProjectRepository
	tags     repository.TagRepository
}

func NewProjectHandler(logger *zap.Logger, projects repository.ProjectRepository, tags repository.TagRepository) *ProjectHandler {
	return &ProjectHandler{
		logger:   logger,
		projects: projects,
		tags:     tags,
	}
}

const defaultColor = "#FFFFFF"

// ListProjects maneja GET /projects.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}
	projects, err := h.projects.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("list projects failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list projects"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// CreateProject maneja POST /projects.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}
	var req struct {
		Name  string `json:"name" binding:"required"`
		Color string `json:"color"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Color == "" {
		req.Color = defaultColor
	}

	project := domain.Project{
		ID:        uuid.NewString(),
		UserID:    claims.UserID,
		Name:      req.Name,
		Color:     req.Color,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.projects.Create(c.Request.Context(), project); err != nil {
		h.logger.Error("create project failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create project"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": project})
}

// UpdateProject maneja PUT /projects/:id.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}
	var req struct {
		Name  string `json:"name" binding:"required"`
		Color string `json:"color"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Color == "" {
		req.Color = defaultColor
	}

	project := domain.Project{
		ID:     c.Param("id"),
		UserID: claims.UserID,
		Name:   req.Name,
		Color:  req.Color,
	}
	if err := h.projects.Update(c.Request.Context(), project); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		h.logger.Error("update project failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update project"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// DeleteProject maneja DELETE /projects/:id.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}
	if err := h.projects.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		h.logger.Error("delete project failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete project"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTags maneja GET /tags.
func (h *ProjectHandler) ListTags(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}
	tags, err := h.tags.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("list tags failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list tags"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// CreateTag maneja POST /tags.
func (h *ProjectHandler) CreateTag(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}
	var req struct {
		Name  string `json:"name" binding:"required"`
		Color string `json:"color"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Color == "" {
		req.Color = defaultColor
	}

	tag := domain.Tag{
		ID:        uuid.NewString(),
		UserID:    claims.UserID,
		Name:      req.Name,
		Color:     req.Color,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.tags.Create(c.Request.Context(), tag); err != nil {
		h.logger.Error("create tag failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create tag"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tag": tag})
}

// UpdateTag maneja PUT /tags/:id.
func (h *ProjectHandler) UpdateTag(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}
	var req struct {
		Name  string `json:"name" binding:"required"`
		Color string `json:"color"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Color == "" {
		req.Color = defaultColor
	}

	tag := domain.Tag{
		ID:     c.Param("id"),
		UserID: claims.UserID,
		Name:   req.Name,
		Color:  req.Color,
	}
	if err := h.tags.Update(c.Request.Context(), tag); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tag not found"})
			return
		}
		h.logger.Error("update tag failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update tag"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tag": tag})
}

// DeleteTag maneja DELETE /tags/:id.
func (h *ProjectHandler) DeleteTag(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}
	if err := h.tags.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tag not found"})
			return
		}
		h.logger.Error("delete tag failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete tag"})
		return
	}
	c.Status(http.StatusNoContent)
}
