package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pomodoro-api/internal/service"
)

// SessionHandler registra y lista sesiones de foco.
type SessionHandler struct {
	logger      *zap.Logger
	sessionServ *service.SessionService
}

func NewSessionHandler(logger *zap.Logger, sessionServ *service.SessionService) *SessionHandler {
	return &SessionHandler{
		logger:      logger,
		sessionServ: sessionServ,
	}
}

// CreateSession maneja POST /sessions.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	var req struct {
		ID        string     `json:"id"` // clave de idempotencia opcional
		TaskID    string     `json:"task_id"`
		StartTime time.Time  `json:"start_time"`
		EndTime   *time.Time `json:"end_time"`
		Duration  int        `json:"duration" binding:"min=0"` // minutos
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create session request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	stats, err := h.sessionServ.Record(c.Request.Context(), service.RecordSessionInput{
		ID:        req.ID,
		UserID:    claims.UserID,
		TaskID:    req.TaskID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Duration:  req.Duration,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDuration):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrConcurrencyConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "statistics conflict, retry"})
		default:
			h.logger.Error("record session failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record session"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"stats": stats})
}

// ListSessions maneja GET /sessions.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	sessions, err := h.sessionServ.List(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("list sessions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list sessions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
