package handler

import (
	"net/http"

	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"go.uber.org/zap"
)

type ActivityHandler struct {
	activityService *service.ActivityService
	logger          *zap.Logger
}

func NewActivityHandler(activityService *service.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		logger:          logger,
	}
}

// @Summary List activities
// @Description REP and READ_ONLY users only see activities they created or are assigned to.
// @Tags Activities
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size (max 100)" default(20)
// @Param type query string false "Filter by type" Enums(CALL, EMAIL, MEETING, TASK, NOTE)
// @Param priority query string false "Filter by priority" Enums(LOW, MEDIUM, HIGH, URGENT)
// @Param status query string false "Filter by status" Enums(pending, completed, overdue)
// @Param assigneeId query string false "Filter by assignee ID"
// @Param contactId query string false "Filter by contact ID"
// @Param dealId query string false "Filter by deal ID"
// @Param leadId query string false "Filter by lead ID"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ActivityDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /activities [get]
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	page, pageSize := parsePagination(r)
	q := r.URL.Query()

	filters := &repository.ActivityFilters{}
	if s := q.Get("type"); s != "" {
		t := domain.ActivityType(s)
		filters.Type = &t
	}
	if s := q.Get("priority"); s != "" {
		p := domain.ActivityPriority(s)
		filters.Priority = &p
	}
	switch status := repository.ActivityStatus(q.Get("status")); status {
	case "", repository.ActivityStatusPending, repository.ActivityStatusCompleted, repository.ActivityStatusOverdue:
		filters.Status = status
	default:
		respondFieldErrors(w, map[string]string{"status": "Must be one of: pending completed overdue"})
		return
	}
	if filters.AssigneeID, ok = queryUUID(w, r, "assigneeId"); !ok {
		return
	}
	if filters.ContactID, ok = queryUUID(w, r, "contactId"); !ok {
		return
	}
	if filters.DealID, ok = queryUUID(w, r, "dealId"); !ok {
		return
	}
	if filters.LeadID, ok = queryUUID(w, r, "leadId"); !ok {
		return
	}

	result, err := h.activityService.List(r.Context(), actor, page, pageSize, filters)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to list activities")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// @Summary Create activity
// @Description The assignee defaults to the caller and priority to MEDIUM.
// @Tags Activities
// @Accept json
// @Produce json
// @Param request body domain.CreateActivityRequest true "Activity data"
// @Success 201 {object} domain.ActivityDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /activities [post]
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req domain.CreateActivityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	activity, err := h.activityService.Create(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to create activity")
		return
	}

	w.Header().Set("Location", "/api/v1/activities/"+activity.ID.String())
	respondJSON(w, http.StatusCreated, activity)
}

// @Summary Get activity
// @Tags Activities
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} domain.ActivityDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /activities/{id} [get]
func (h *ActivityHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "activity")
	if !ok {
		return
	}

	activity, err := h.activityService.GetByID(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to get activity")
		return
	}
	respondJSON(w, http.StatusOK, activity)
}

// @Summary Update activity
// @Description Replace an activity. A changed isCompleted sets or clears completedAt.
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param request body domain.UpdateActivityRequest true "Activity data"
// @Success 200 {object} domain.ActivityDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /activities/{id} [put]
func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "activity")
	if !ok {
		return
	}
	var req domain.UpdateActivityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	activity, err := h.activityService.Update(r.Context(), actor, id, &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to update activity")
		return
	}
	respondJSON(w, http.StatusOK, activity)
}

// @Summary Set activity completion
// @Description Mark an activity completed (completedAt set to now) or pending (completedAt cleared).
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param request body domain.SetActivityCompletedRequest true "Completion state"
// @Success 200 {object} domain.ActivityDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /activities/{id} [patch]
func (h *ActivityHandler) SetCompleted(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "activity")
	if !ok {
		return
	}
	var req domain.SetActivityCompletedRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	activity, err := h.activityService.SetCompleted(r.Context(), actor, id, *req.IsCompleted)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to update activity")
		return
	}
	respondJSON(w, http.StatusOK, activity)
}

// @Summary Delete activity
// @Tags Activities
// @Param id path string true "Activity ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /activities/{id} [delete]
func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "activity")
	if !ok {
		return
	}

	if err := h.activityService.Delete(r.Context(), actor, id); err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to delete activity")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
