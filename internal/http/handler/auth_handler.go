package handler

import (
	"net/http"

	"github.com/straye-as/crm-api/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewAuthHandler(userService *service.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger,
	}
}

// @Summary Get current user
// @Description Returns the authenticated user, including the role that governs every permission check
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.UserDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetCurrent(r.Context(), actor)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to load current user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}
