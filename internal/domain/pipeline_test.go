package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProbability(t *testing.T) {
	want := map[domain.DealStage]int{
		domain.DealStageProspecting:      10,
		domain.DealStageQualification:    25,
		domain.DealStageNeedsAnalysis:    40,
		domain.DealStageValueProposition: 50,
		domain.DealStageProposal:         60,
		domain.DealStageNegotiation:      75,
		domain.DealStageClosedWon:        100,
		domain.DealStageClosedLost:       0,
	}
	require.Len(t, domain.DealStages, len(want))
	for _, stage := range domain.DealStages {
		assert.Equal(t, want[stage], domain.DefaultProbability(stage), stage)
	}
	assert.Equal(t, 0, domain.DefaultProbability("UNKNOWN"))
	assert.False(t, domain.DealStage("UNKNOWN").IsValid())
}

func TestWeightedValue(t *testing.T) {
	tests := []struct {
		value       string
		probability int
		want        string
	}{
		{"1000", 60, "600"},
		{"1000", 0, "0"},
		{"1000", 100, "1000"},
		{"333", 50, "167"},
		{"100.40", 50, "50"},
	}
	for _, tt := range tests {
		got := domain.WeightedValue(decimal.RequireFromString(tt.value), tt.probability)
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "%s at %d%% = %s", tt.value, tt.probability, got)
	}
}

func TestDeal_MoveStage(t *testing.T) {
	t.Run("every stage resets to its default", func(t *testing.T) {
		for _, from := range domain.DealStages {
			for _, to := range domain.DealStages {
				deal := &domain.Deal{Stage: from, Probability: 33}
				require.NoError(t, deal.MoveStage(to, nil))
				assert.Equal(t, to, deal.Stage)
				assert.Equal(t, domain.DefaultProbability(to), deal.Probability)
			}
		}
	})

	t.Run("explicit probability wins", func(t *testing.T) {
		deal := &domain.Deal{Stage: domain.DealStageProspecting, Probability: 10}
		p := 60
		require.NoError(t, deal.MoveStage(domain.DealStageQualification, &p))
		assert.Equal(t, 60, deal.Probability)
	})

	t.Run("out of range probability leaves the deal untouched", func(t *testing.T) {
		for _, p := range []int{-1, 101} {
			deal := &domain.Deal{Stage: domain.DealStageProspecting, Probability: 10}
			err := deal.MoveStage(domain.DealStageProposal, &p)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, domain.DealStageProspecting, deal.Stage)
			assert.Equal(t, 10, deal.Probability)
		}
	})

	t.Run("unknown stage", func(t *testing.T) {
		deal := &domain.Deal{}
		assert.ErrorIs(t, deal.MoveStage("WON", nil), domain.ErrValidation)
	})
}

func TestDeal_Validate(t *testing.T) {
	deal := &domain.Deal{Title: "Ok", Value: decimal.NewFromInt(1), Stage: domain.DealStageProposal, Probability: 60}
	assert.NoError(t, deal.Validate())

	deal = &domain.Deal{Title: " ", Value: decimal.Zero, Stage: "X", Probability: 200}
	err := deal.Validate()
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 4)
}

func TestConvertedDealTitle(t *testing.T) {
	tests := []struct {
		name string
		lead domain.Lead
		want string
	}{
		{"replaces first lead word", domain.Lead{Title: "Big Lead and lead"}, "Big Deal and lead"},
		{"case insensitive", domain.Lead{Title: "LEAD: Acme"}, "Deal: Acme"},
		{"no lead word", domain.Lead{Title: "CRM for Acme"}, "CRM for Acme"},
		{"company fallback", domain.Lead{Company: "Acme"}, "Acme - Deal"},
		{"name fallback", domain.Lead{FirstName: "Kari", LastName: "Nordmann"}, "Kari Nordmann - Deal"},
		{"nothing to go on", domain.Lead{}, "Deal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ConvertedDealTitle(&tt.lead))
		})
	}
}

func TestNewDealFromLead(t *testing.T) {
	value := decimal.NewFromInt(50000)
	contactID := uuid.New()
	ownerID := uuid.New()
	lead := &domain.Lead{
		BaseModel: domain.BaseModel{ID: uuid.New()},
		Title:     "CRM for Acme",
		Value:     &value,
		Tags:      []string{"tech"},
		ContactID: &contactID,
		Notes:     "Met at conference",
	}

	deal, err := domain.NewDealFromLead(lead, &ownerID, nil)
	require.NoError(t, err)
	assert.Equal(t, "CRM for Acme", deal.Title)
	assert.Equal(t, domain.DealStageProspecting, deal.Stage)
	assert.Equal(t, 10, deal.Probability)
	assert.True(t, value.Equal(deal.Value))
	assert.Equal(t, []string{"tech"}, deal.Tags)
	assert.Equal(t, lead.ID, *deal.LeadID)
	assert.Equal(t, contactID, *deal.ContactID)
	assert.Equal(t, ownerID, *deal.OwnerID)
	assert.Equal(t, domain.DefaultLeadConversionSource, deal.Source)
	assert.Equal(t, "Converted from lead: CRM for Acme\n\nMet at conference", deal.Notes)

	t.Run("lead is not modified", func(t *testing.T) {
		deal.Tags[0] = "changed"
		assert.Equal(t, "tech", lead.Tags[0])
		assert.Equal(t, "CRM for Acme", lead.Title)
	})

	t.Run("stage override takes its default probability", func(t *testing.T) {
		deal, err := domain.NewDealFromLead(lead, nil, &domain.ConvertLeadRequest{Stage: domain.DealStageProposal})
		require.NoError(t, err)
		assert.Equal(t, 60, deal.Probability)
		assert.Nil(t, deal.OwnerID)
	})

	t.Run("zero value is rejected", func(t *testing.T) {
		zero := decimal.Zero
		_, err := domain.NewDealFromLead(lead, nil, &domain.ConvertLeadRequest{Value: &zero})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}
