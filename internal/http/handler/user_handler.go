package handler

import (
	"net/http"

	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// @Summary List users
// @Tags Users
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size (max 100)" default(20)
// @Param role query string false "Filter by role" Enums(ADMIN, MANAGER, REP, READ_ONLY)
// @Param isActive query bool false "Filter by active state"
// @Param q query string false "Search name and email"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.UserDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	page, pageSize := parsePagination(r)
	q := r.URL.Query()

	filters := &repository.UserFilters{Search: q.Get("q")}
	if s := q.Get("role"); s != "" {
		role := domain.UserRole(s)
		if !role.IsValid() {
			respondFieldErrors(w, map[string]string{"role": "Must be one of: ADMIN MANAGER REP READ_ONLY"})
			return
		}
		filters.Role = &role
	}
	if filters.IsActive, ok = queryBool(w, r, "isActive"); !ok {
		return
	}

	result, err := h.userService.List(r.Context(), actor, page, pageSize, filters)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to list users")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// @Summary Create user
// @Description ADMIN may create any role; MANAGER may create REP and READ_ONLY users.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body domain.CreateUserRequest true "User data"
// @Success 201 {object} domain.UserDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req domain.CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.Create(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to create user")
		return
	}

	w.Header().Set("Location", "/api/v1/users/"+user.ID.String())
	respondJSON(w, http.StatusCreated, user)
}

// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} domain.UserDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users/{id} [get]
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "user")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to get user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// @Summary Update user profile
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body domain.UpdateUserRequest true "Profile data"
// @Success 200 {object} domain.UserDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users/{id} [put]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "user")
	if !ok {
		return
	}
	var req domain.UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.Update(r.Context(), actor, id, &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to update user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// @Summary Change user role
// @Description Only ADMIN may grant ADMIN or MANAGER. Users cannot change their own role, and the last active ADMIN cannot be demoted.
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body domain.ChangeUserRoleRequest true "New role"
// @Success 200 {object} domain.UserDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users/{id}/role [put]
func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "user")
	if !ok {
		return
	}
	var req domain.ChangeUserRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.ChangeRole(r.Context(), actor, id, req.Role)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to change user role")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// @Summary Activate or deactivate user
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body domain.SetUserActiveRequest true "Active state"
// @Success 200 {object} domain.UserDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users/{id}/active [put]
func (h *UserHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "user")
	if !ok {
		return
	}
	var req domain.SetUserActiveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.SetActive(r.Context(), actor, id, *req.IsActive)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to update user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// @Summary Delete user
// @Description Delete a user. Records are handed to transferUserId when given, otherwise their owner and assignee references are cleared.
// @Tags Users
// @Param id path string true "User ID"
// @Param transferUserId query string false "User that receives the deleted user's records"
// @Success 204
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "user")
	if !ok {
		return
	}
	transferTo, ok := queryUUID(w, r, "transferUserId")
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), actor, id, transferTo); err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
