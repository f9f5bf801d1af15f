package handler_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadHandler_Convert(t *testing.T) {
	h := setupHandlers(t)
	rep := testutil.CreateUser(t, h.db, domain.RoleRep)
	other := testutil.CreateUser(t, h.db, domain.RoleRep)
	value := decimal.NewFromInt(50000)

	t.Run("empty body uses lead defaults", func(t *testing.T) {
		lead := testutil.CreateLead(t, h.db, idOf(rep), "CRM for Acme", &value)
		req := withID(newRequest(t, http.MethodPost, "/leads/"+lead.ID.String()+"/convert", nil, actorOf(rep)), lead.ID.String())
		rr := serve(h.lead.Convert, req)

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		deal := decode[domain.DealDTO](t, rr)
		assert.Equal(t, "/api/v1/deals/"+deal.ID.String(), rr.Header().Get("Location"))
		assert.Equal(t, "CRM for Acme", deal.Title)
		assert.Equal(t, domain.DealStageProspecting, deal.Stage)
		assert.Equal(t, 10, deal.Probability)
		assert.True(t, value.Equal(deal.Value))
		require.NotNil(t, deal.LeadID)
		assert.Equal(t, lead.ID, *deal.LeadID)
		require.NotNil(t, deal.OwnerID)
		assert.Equal(t, rep.ID, *deal.OwnerID)
	})

	t.Run("overrides", func(t *testing.T) {
		lead := testutil.CreateLead(t, h.db, idOf(rep), "Widgets", &value)
		body := map[string]interface{}{"title": "Widget rollout", "stage": "NEGOTIATION", "value": "1200"}
		rr := serve(h.lead.Convert, withID(newRequest(t, http.MethodPost, "/", body, actorOf(rep)), lead.ID.String()))

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		deal := decode[domain.DealDTO](t, rr)
		assert.Equal(t, "Widget rollout", deal.Title)
		assert.Equal(t, domain.DealStageNegotiation, deal.Stage)
		assert.Equal(t, 75, deal.Probability)
		assertDecimal(t, 1200, deal.Value)
	})

	t.Run("lead without value is rejected", func(t *testing.T) {
		lead := testutil.CreateLead(t, h.db, idOf(rep), "No value", nil)
		rr := serve(h.lead.Convert, withID(newRequest(t, http.MethodPost, "/", nil, actorOf(rep)), lead.ID.String()))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		apiErr := decode[domain.APIError](t, rr)
		assert.Equal(t, domain.ErrorTypeValidation, apiErr.Type)
		assert.Contains(t, apiErr.Errors, "value")
	})

	t.Run("invalid stage", func(t *testing.T) {
		lead := testutil.CreateLead(t, h.db, idOf(rep), "Bad stage", &value)
		body := map[string]interface{}{"stage": "WON"}
		rr := serve(h.lead.Convert, withID(newRequest(t, http.MethodPost, "/", body, actorOf(rep)), lead.ID.String()))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decode[domain.APIError](t, rr).Errors, "stage")
	})

	t.Run("malformed json", func(t *testing.T) {
		lead := testutil.CreateLead(t, h.db, idOf(rep), "Malformed", &value)
		rr := serve(h.lead.Convert, withID(newRequest(t, http.MethodPost, "/", "{not json", actorOf(rep)), lead.ID.String()))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("another rep is forbidden", func(t *testing.T) {
		lead := testutil.CreateLead(t, h.db, idOf(rep), "Private", &value)
		rr := serve(h.lead.Convert, withID(newRequest(t, http.MethodPost, "/", nil, actorOf(other)), lead.ID.String()))
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, domain.ErrorTypeForbidden, decode[domain.APIError](t, rr).Type)
	})

	t.Run("unknown lead", func(t *testing.T) {
		rr := serve(h.lead.Convert, withID(newRequest(t, http.MethodPost, "/", nil, actorOf(rep)), uuid.NewString()))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rr := serve(h.lead.Convert, withID(newRequest(t, http.MethodPost, "/", nil, actorOf(rep)), "not-a-uuid"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rr := serve(h.lead.Convert, withID(newRequest(t, http.MethodPost, "/", nil, nil), uuid.NewString()))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestLeadHandler_CreateAndList(t *testing.T) {
	h := setupHandlers(t)
	rep := testutil.CreateUser(t, h.db, domain.RoleRep)
	other := testutil.CreateUser(t, h.db, domain.RoleRep)

	body := map[string]interface{}{"title": "Inbound", "phone": "22 12 34 56", "source": "WEBSITE"}
	rr := serve(h.lead.Create, newRequest(t, http.MethodPost, "/leads", body, actorOf(rep)))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	lead := decode[domain.LeadDTO](t, rr)
	assert.Equal(t, "+4722123456", lead.Phone)
	assert.Equal(t, domain.LeadStatusNew, lead.Status)
	assert.NotEmpty(t, rr.Header().Get("Location"))

	testutil.CreateLead(t, h.db, idOf(other), "Someone else's", nil)

	rr = serve(h.lead.List, newRequest(t, http.MethodGet, "/leads", nil, actorOf(rep)))
	require.Equal(t, http.StatusOK, rr.Code)
	page := decode[struct {
		Data  []domain.LeadDTO `json:"data"`
		Total int64            `json:"total"`
	}](t, rr)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, lead.ID, page.Data[0].ID)

	rr = serve(h.lead.Create, newRequest(t, http.MethodPost, "/leads", map[string]interface{}{"title": ""}, actorOf(rep)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[domain.APIError](t, rr).Errors, "title")
}
