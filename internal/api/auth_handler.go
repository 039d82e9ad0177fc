package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/service"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

type IssueTokenRequest struct {
	ActorID string      `json:"actorId" binding:"required"`
	Role    domain.Role `json:"role" binding:"required,oneof=staff kiosk"`
}

type TokenResponse struct {
	Token   string      `json:"token"`
	ActorID string      `json:"actorId"`
	Role    domain.Role `json:"role"`
}

// --- Handler Methods ---

// IssueToken godoc
// @Summary Issue a bearer token
// @Description Staff mint tokens for other staff members and kiosk terminals.
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body IssueTokenRequest true "Actor and role"
// @Success 201 {object} TokenResponse
// @Failure 400 {object} gin.H "Validation error"
// @Failure 403 {object} gin.H "Forbidden (not staff)"
// @Router /auth/tokens [post]
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	token, err := h.authService.IssueToken(req.ActorID, req.Role)
	if err != nil {
		if errors.Is(err, service.ErrInvalidActor) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to issue token.")
		}
		return
	}
	c.JSON(http.StatusCreated, TokenResponse{Token: token, ActorID: req.ActorID, Role: req.Role})
}

// Me returns the identity carried by the token.
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := actorID(c)
	if !ok {
		return
	}
	role, _ := getActorRoleFromContext(c)
	c.JSON(http.StatusOK, gin.H{"actorId": id, "role": role})
}
