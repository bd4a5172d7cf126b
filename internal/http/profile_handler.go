package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pomodoro-api/internal/service"
)

// ProfileHandler expone el perfil del usuario autenticado.
type ProfileHandler struct {
	logger      *zap.Logger
	accountServ *service.AccountService
}

func NewProfileHandler(logger *zap.Logger, accountServ *service.AccountService) *ProfileHandler {
	return &ProfileHandler{
		logger:      logger,
		accountServ: accountServ,
	}
}

// Me maneja GET /me.
func (h *ProfileHandler) Me(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	user, err := h.accountServ.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("get profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// CompleteProfile maneja PUT /me/profile.
func (h *ProfileHandler) CompleteProfile(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	var req struct {
		PhoneNumber string `json:"phone_number"`
		Gender      string `json:"gender"`
		DateOfBirth string `json:"date_of_birth"` // YYYY-MM-DD
		Country     string `json:"country"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid profile request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	input := service.ProfileInput{
		PhoneNumber: req.PhoneNumber,
		Gender:      req.Gender,
		Country:     req.Country,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_of_birth"})
			return
		}
		input.DateOfBirth = &dob
	}

	user, err := h.accountServ.UpdateProfile(c.Request.Context(), claims.UserID, input)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("update profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteAccount maneja DELETE /me.
func (h *ProfileHandler) DeleteAccount(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	if err := h.accountServ.DeleteAccount(c.Request.Context(), claims.UserID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("delete account failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete account"})
		return
	}
	c.Status(http.StatusNoContent)
}
