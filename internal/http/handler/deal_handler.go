package handler

import (
	"net/http"

	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"go.uber.org/zap"
)

type DealHandler struct {
	dealService *service.DealService
	logger      *zap.Logger
}

func NewDealHandler(dealService *service.DealService, logger *zap.Logger) *DealHandler {
	return &DealHandler{
		dealService: dealService,
		logger:      logger,
	}
}

// @Summary List deals
// @Description List deals with optional filters. REP and READ_ONLY users only see deals they own.
// @Tags Deals
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size (max 100)" default(20)
// @Param stage query string false "Filter by stage" Enums(PROSPECTING, QUALIFICATION, NEEDS_ANALYSIS, VALUE_PROPOSITION, PROPOSAL, NEGOTIATION, CLOSED_WON, CLOSED_LOST)
// @Param ownerId query string false "Filter by owner ID"
// @Param contactId query string false "Filter by contact ID"
// @Param leadId query string false "Filter by source lead ID"
// @Param minValue query number false "Minimum value"
// @Param maxValue query number false "Maximum value"
// @Param open query bool false "true for open deals, false for closed deals"
// @Param q query string false "Search title and notes"
// @Param sort query string false "Sort by" Enums(created_desc, created_asc, value_desc, value_asc, probability_desc, close_date_asc, weighted_desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.DealDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /deals [get]
func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	page, pageSize := parsePagination(r)
	q := r.URL.Query()

	filters := &repository.DealFilters{Search: q.Get("q")}
	if s := q.Get("stage"); s != "" {
		stage := domain.DealStage(s)
		if !stage.IsValid() {
			respondFieldErrors(w, map[string]string{"stage": "Must be a valid pipeline stage"})
			return
		}
		filters.Stage = &stage
	}
	if filters.OwnerID, ok = queryUUID(w, r, "ownerId"); !ok {
		return
	}
	if filters.ContactID, ok = queryUUID(w, r, "contactId"); !ok {
		return
	}
	if filters.LeadID, ok = queryUUID(w, r, "leadId"); !ok {
		return
	}
	if filters.MinValue, ok = queryDecimal(w, r, "minValue"); !ok {
		return
	}
	if filters.MaxValue, ok = queryDecimal(w, r, "maxValue"); !ok {
		return
	}
	if filters.Open, ok = queryBool(w, r, "open"); !ok {
		return
	}

	sortBy := repository.DealSortByCreatedDesc
	if s := q.Get("sort"); s != "" {
		sortBy = repository.DealSortOption(s)
	}

	result, err := h.dealService.List(r.Context(), actor, page, pageSize, filters, sortBy)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to list deals")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// @Summary Create deal
// @Description Create a deal. Stage defaults to PROSPECTING and probability to the stage default.
// @Tags Deals
// @Accept json
// @Produce json
// @Param request body domain.CreateDealRequest true "Deal data"
// @Success 201 {object} domain.DealDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /deals [post]
func (h *DealHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req domain.CreateDealRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	deal, err := h.dealService.Create(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to create deal")
		return
	}

	w.Header().Set("Location", "/api/v1/deals/"+deal.ID.String())
	respondJSON(w, http.StatusCreated, deal)
}

// @Summary Get deal
// @Tags Deals
// @Produce json
// @Param id path string true "Deal ID"
// @Success 200 {object} domain.DealDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /deals/{id} [get]
func (h *DealHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "deal")
	if !ok {
		return
	}

	deal, err := h.dealService.GetByID(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to get deal")
		return
	}
	respondJSON(w, http.StatusOK, deal)
}

// @Summary Update deal
// @Description Replace a deal. Changing the stage resets the probability unless one is given and records stage history.
// @Tags Deals
// @Accept json
// @Produce json
// @Param id path string true "Deal ID"
// @Param request body domain.UpdateDealRequest true "Deal data"
// @Success 200 {object} domain.DealDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /deals/{id} [put]
func (h *DealHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "deal")
	if !ok {
		return
	}
	var req domain.UpdateDealRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	deal, err := h.dealService.Update(r.Context(), actor, id, &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to update deal")
		return
	}
	respondJSON(w, http.StatusOK, deal)
}

// @Summary Move deal stage
// @Description Move a deal to a stage. Without a probability it is reset to the stage default, also when the stage is unchanged.
// @Tags Deals
// @Accept json
// @Produce json
// @Param id path string true "Deal ID"
// @Param request body domain.MoveDealStageRequest true "Target stage"
// @Success 200 {object} domain.DealDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /deals/{id}/stage [post]
func (h *DealHandler) MoveStage(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "deal")
	if !ok {
		return
	}
	var req domain.MoveDealStageRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	deal, err := h.dealService.MoveStage(r.Context(), actor, id, &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to move deal stage")
		return
	}
	respondJSON(w, http.StatusOK, deal)
}

// @Summary Get deal stage history
// @Tags Deals
// @Produce json
// @Param id path string true "Deal ID"
// @Success 200 {array} domain.DealStageHistoryDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /deals/{id}/history [get]
func (h *DealHandler) GetStageHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "deal")
	if !ok {
		return
	}

	history, err := h.dealService.GetStageHistory(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to get deal history")
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// @Summary Delete deal
// @Tags Deals
// @Param id path string true "Deal ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /deals/{id} [delete]
func (h *DealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "deal")
	if !ok {
		return
	}

	if err := h.dealService.Delete(r.Context(), actor, id); err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to delete deal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
