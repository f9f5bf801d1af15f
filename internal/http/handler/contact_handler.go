package handler

import (
	"net/http"

	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"go.uber.org/zap"
)

type ContactHandler struct {
	contactService *service.ContactService
	logger         *zap.Logger
}

func NewContactHandler(contactService *service.ContactService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		logger:         logger,
	}
}

// @Summary List contacts
// @Tags Contacts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size (max 100)" default(20)
// @Param ownerId query string false "Filter by owner ID"
// @Param company query string false "Filter by company"
// @Param tag query string false "Filter by tag"
// @Param q query string false "Search name, email and company"
// @Param sort query string false "Sort by" Enums(name_asc, name_desc, created_desc, created_asc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ContactDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts [get]
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	page, pageSize := parsePagination(r)
	q := r.URL.Query()

	filters := &repository.ContactFilters{
		Company: q.Get("company"),
		Tag:     q.Get("tag"),
		Search:  q.Get("q"),
	}
	if filters.OwnerID, ok = queryUUID(w, r, "ownerId"); !ok {
		return
	}

	result, err := h.contactService.List(r.Context(), actor, page, pageSize, filters, repository.ContactSortOption(q.Get("sort")))
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to list contacts")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// @Summary Create contact
// @Description Phone numbers are stored in E.164 form.
// @Tags Contacts
// @Accept json
// @Produce json
// @Param request body domain.CreateContactRequest true "Contact data"
// @Success 201 {object} domain.ContactDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts [post]
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req domain.CreateContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	contact, err := h.contactService.Create(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to create contact")
		return
	}

	w.Header().Set("Location", "/api/v1/contacts/"+contact.ID.String())
	respondJSON(w, http.StatusCreated, contact)
}

// @Summary Get contact
// @Tags Contacts
// @Produce json
// @Param id path string true "Contact ID"
// @Success 200 {object} domain.ContactDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/{id} [get]
func (h *ContactHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "contact")
	if !ok {
		return
	}

	contact, err := h.contactService.GetByID(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to get contact")
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

// @Summary Update contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Param id path string true "Contact ID"
// @Param request body domain.UpdateContactRequest true "Contact data"
// @Success 200 {object} domain.ContactDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/{id} [put]
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "contact")
	if !ok {
		return
	}
	var req domain.UpdateContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	contact, err := h.contactService.Update(r.Context(), actor, id, &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to update contact")
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

// @Summary Delete contact
// @Tags Contacts
// @Param id path string true "Contact ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/{id} [delete]
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "contact")
	if !ok {
		return
	}

	if err := h.contactService.Delete(r.Context(), actor, id); err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to delete contact")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
