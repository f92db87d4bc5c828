package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/registrar-api/internal/models"
	"github.com/uniportal/registrar-api/internal/service"
	appErrors "github.com/uniportal/registrar-api/pkg/errors"
	"github.com/uniportal/registrar-api/pkg/response"
)

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login godoc
// @Summary Login
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ChangePassword godoc
// @Summary Change my password
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.ChangePasswordRequest true "Password payload"
// @Success 200 {object} response.Envelope
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.auth.ChangePassword(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "password changed"}, nil)
}

// Me godoc
// @Summary Current user info
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, models.UserInfo{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      claims.Role,
		SubjectID: claims.SubjectID,
	}, nil)
}
