package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"go.uber.org/zap"
)

type LeadHandler struct {
	leadService *service.LeadService
	logger      *zap.Logger
}

func NewLeadHandler(leadService *service.LeadService, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
		logger:      logger,
	}
}

// @Summary List leads
// @Description REP and READ_ONLY users only see leads they own.
// @Tags Leads
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size (max 100)" default(20)
// @Param status query string false "Filter by status" Enums(NEW, CONTACTED, QUALIFIED, PROPOSAL, NEGOTIATION, CLOSED_WON, CLOSED_LOST)
// @Param source query string false "Filter by source" Enums(WEBSITE, REFERRAL, SOCIAL_MEDIA, EMAIL_CAMPAIGN, COLD_CALL, TRADE_SHOW, PARTNER, OTHER)
// @Param ownerId query string false "Filter by owner ID"
// @Param contactId query string false "Filter by contact ID"
// @Param q query string false "Search title, name, email and company"
// @Param sort query string false "Sort by" Enums(created_desc, created_asc, value_desc, value_asc, title_asc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.LeadDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads [get]
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	page, pageSize := parsePagination(r)
	q := r.URL.Query()

	filters := &repository.LeadFilters{Search: q.Get("q")}
	if s := q.Get("status"); s != "" {
		status := domain.LeadStatus(s)
		if !status.IsValid() {
			respondFieldErrors(w, map[string]string{"status": "Must be a valid lead status"})
			return
		}
		filters.Status = &status
	}
	if s := q.Get("source"); s != "" {
		source := domain.LeadSource(s)
		filters.Source = &source
	}
	if filters.OwnerID, ok = queryUUID(w, r, "ownerId"); !ok {
		return
	}
	if filters.ContactID, ok = queryUUID(w, r, "contactId"); !ok {
		return
	}

	sortBy := repository.LeadSortByCreatedDesc
	if s := q.Get("sort"); s != "" {
		sortBy = repository.LeadSortOption(s)
	}

	result, err := h.leadService.List(r.Context(), actor, page, pageSize, filters, sortBy)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to list leads")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// @Summary Create lead
// @Description Create a lead. Blank person fields are copied from the linked contact.
// @Tags Leads
// @Accept json
// @Produce json
// @Param request body domain.CreateLeadRequest true "Lead data"
// @Success 201 {object} domain.LeadDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads [post]
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req domain.CreateLeadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lead, err := h.leadService.Create(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to create lead")
		return
	}

	w.Header().Set("Location", "/api/v1/leads/"+lead.ID.String())
	respondJSON(w, http.StatusCreated, lead)
}

// @Summary Get lead
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} domain.LeadDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id} [get]
func (h *LeadHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "lead")
	if !ok {
		return
	}

	lead, err := h.leadService.GetByID(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to get lead")
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

// @Summary Update lead
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param request body domain.UpdateLeadRequest true "Lead data"
// @Success 200 {object} domain.LeadDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id} [put]
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "lead")
	if !ok {
		return
	}
	var req domain.UpdateLeadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lead, err := h.leadService.Update(r.Context(), actor, id, &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to update lead")
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

// @Summary Delete lead
// @Tags Leads
// @Param id path string true "Lead ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id} [delete]
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "lead")
	if !ok {
		return
	}

	if err := h.leadService.Delete(r.Context(), actor, id); err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to delete lead")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Convert lead to deal
// @Description Create a deal from a lead. Every override is optional; the lead is not modified.
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param request body domain.ConvertLeadRequest false "Overrides"
// @Success 201 {object} domain.DealDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id}/convert [post]
func (h *LeadHandler) Convert(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "lead")
	if !ok {
		return
	}

	var req domain.ConvertLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	deal, err := h.leadService.ConvertToDeal(r.Context(), actor, id, &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to convert lead")
		return
	}

	w.Header().Set("Location", "/api/v1/deals/"+deal.ID.String())
	respondJSON(w, http.StatusCreated, deal)
}
