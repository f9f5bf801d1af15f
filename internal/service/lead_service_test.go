package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/service"
	"github.com/straye-as/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadService_ConvertToDeal(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	rep := testutil.CreateUser(t, env.db, domain.RoleRep)
	actor := testutil.Actor(rep)

	t.Run("defaults carry over from the lead", func(t *testing.T) {
		contact := testutil.CreateContact(t, env.db, &rep.ID)
		lead := testutil.CreateLead(t, env.db, &rep.ID, "CRM for Acme", testutil.Ptr(decimal.NewFromInt(50000)))
		lead.Tags = []string{"tech"}
		lead.ContactID = &contact.ID
		require.NoError(t, env.db.Save(lead).Error)

		deal, err := env.leadService.ConvertToDeal(ctx, actor, lead.ID, &domain.ConvertLeadRequest{})
		require.NoError(t, err)

		assert.Equal(t, "CRM for Acme", deal.Title)
		assert.Equal(t, domain.DealStageProspecting, deal.Stage)
		assert.Equal(t, 10, deal.Probability)
		assert.True(t, decimal.NewFromInt(50000).Equal(deal.Value))
		assert.ElementsMatch(t, []string{"tech"}, deal.Tags)
		require.NotNil(t, deal.LeadID)
		assert.Equal(t, lead.ID, *deal.LeadID)
		require.NotNil(t, deal.ContactID)
		assert.Equal(t, contact.ID, *deal.ContactID)
		assert.Equal(t, string(domain.LeadSourceReferral), deal.Source)
		assert.Equal(t, "Converted from lead: CRM for Acme", deal.Notes)
		assert.Equal(t, rep.ID, *deal.OwnerID)

		history, err := env.history.GetByDealID(ctx, deal.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Nil(t, history[0].FromStage)

		unchanged, err := env.leads.GetByID(ctx, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.LeadStatusQualified, unchanged.Status)
		assert.Equal(t, "CRM for Acme", unchanged.Title)

		assert.Equal(t, 1.0, counterValue(t, env.metrics.LeadsConverted))
	})

	t.Run("title replaces lead with deal", func(t *testing.T) {
		lead := testutil.CreateLead(t, env.db, &rep.ID, "Big LEAD for widgets", testutil.Ptr(decimal.NewFromInt(10)))
		deal, err := env.leadService.ConvertToDeal(ctx, actor, lead.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, "Big Deal for widgets", deal.Title)
	})

	t.Run("overrides win", func(t *testing.T) {
		lead := testutil.CreateLead(t, env.db, &rep.ID, "Lead", testutil.Ptr(decimal.NewFromInt(10)))
		deal, err := env.leadService.ConvertToDeal(ctx, actor, lead.ID, &domain.ConvertLeadRequest{
			Title:  "Custom",
			Value:  testutil.Ptr(decimal.NewFromInt(999)),
			Stage:  domain.DealStageNegotiation,
			Source: "Trade fair",
			Tags:   []string{"vip"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Custom", deal.Title)
		assert.True(t, decimal.NewFromInt(999).Equal(deal.Value))
		assert.Equal(t, domain.DealStageNegotiation, deal.Stage)
		assert.Equal(t, 75, deal.Probability)
		assert.Equal(t, "Trade fair", deal.Source)
		assert.Equal(t, []string{"vip"}, deal.Tags)
	})

	t.Run("lead without value fails validation", func(t *testing.T) {
		lead := testutil.CreateLead(t, env.db, &rep.ID, "No value", nil)
		_, err := env.leadService.ConvertToDeal(ctx, actor, lead.ID, nil)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "value")
	})

	t.Run("read only owner cannot convert", func(t *testing.T) {
		viewer := testutil.CreateUser(t, env.db, domain.RoleReadOnly)
		lead := testutil.CreateLead(t, env.db, &viewer.ID, "Viewer lead", testutil.Ptr(decimal.NewFromInt(10)))
		_, err := env.leadService.ConvertToDeal(ctx, testutil.Actor(viewer), lead.ID, nil)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("other rep cannot read the lead", func(t *testing.T) {
		other := testutil.CreateUser(t, env.db, domain.RoleRep)
		lead := testutil.CreateLead(t, env.db, &rep.ID, "Private", testutil.Ptr(decimal.NewFromInt(10)))
		_, err := env.leadService.ConvertToDeal(ctx, testutil.Actor(other), lead.ID, nil)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("unknown lead", func(t *testing.T) {
		_, err := env.leadService.ConvertToDeal(ctx, actor, uuid.New(), nil)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestLeadService_Create(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	rep := testutil.CreateUser(t, env.db, domain.RoleRep)
	actor := testutil.Actor(rep)

	t.Run("copies blank fields from contact", func(t *testing.T) {
		contact := testutil.CreateContact(t, env.db, &rep.ID)
		dto, err := env.leadService.Create(ctx, actor, &domain.CreateLeadRequest{
			Title:     "Inbound",
			FirstName: "Ola",
			ContactID: &contact.ID,
		})
		require.NoError(t, err)

		assert.Equal(t, "Ola", dto.FirstName)
		assert.Equal(t, contact.LastName, dto.LastName)
		assert.Equal(t, contact.Email, dto.Email)
		assert.Equal(t, contact.Company, dto.Company)
		assert.Equal(t, domain.LeadStatusNew, dto.Status)
		assert.Equal(t, rep.ID, *dto.OwnerID)
	})

	t.Run("normalizes phone", func(t *testing.T) {
		dto, err := env.leadService.Create(ctx, actor, &domain.CreateLeadRequest{
			Title: "Call me",
			Phone: "22 12 34 56",
		})
		require.NoError(t, err)
		assert.Equal(t, "+4722123456", dto.Phone)
	})

	t.Run("rejects negative value", func(t *testing.T) {
		_, err := env.leadService.Create(ctx, actor, &domain.CreateLeadRequest{
			Title: "Negative",
			Value: testutil.Ptr(decimal.NewFromInt(-1)),
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("rejects unknown contact", func(t *testing.T) {
		_, err := env.leadService.Create(ctx, actor, &domain.CreateLeadRequest{
			Title:     "Ghost",
			ContactID: testutil.Ptr(uuid.New()),
		})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "contactId")
	})
}

func TestLeadService_UpdateAnyStatus(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	rep := testutil.CreateUser(t, env.db, domain.RoleRep)
	lead := testutil.CreateLead(t, env.db, &rep.ID, "Reopen", nil)

	for _, status := range []domain.LeadStatus{domain.LeadStatusClosedLost, domain.LeadStatusNew, domain.LeadStatusClosedWon} {
		dto, err := env.leadService.Update(ctx, testutil.Actor(rep), lead.ID, &domain.UpdateLeadRequest{
			Title:  "Reopen",
			Status: status,
		})
		require.NoError(t, err)
		assert.Equal(t, status, dto.Status)
	}
}
