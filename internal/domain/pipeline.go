package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DealStages lists the pipeline stages in display order. The order carries no
// transition rule: any stage may be reached from any other.
var DealStages = []DealStage{
	DealStageProspecting,
	DealStageQualification,
	DealStageNeedsAnalysis,
	DealStageValueProposition,
	DealStageProposal,
	DealStageNegotiation,
	DealStageClosedWon,
	DealStageClosedLost,
}

// Default probabilities by stage
var stageProbabilities = map[DealStage]int{
	DealStageProspecting:      10,
	DealStageQualification:    25,
	DealStageNeedsAnalysis:    40,
	DealStageValueProposition: 50,
	DealStageProposal:         60,
	DealStageNegotiation:      75,
	DealStageClosedWon:        100,
	DealStageClosedLost:       0,
}

// DefaultLeadConversionSource is used when neither the request nor the lead names a source
const DefaultLeadConversionSource = "Lead Conversion"

var hundred = decimal.NewFromInt(100)

// IsValid reports whether the stage is one of the pipeline stages
func (s DealStage) IsValid() bool {
	_, ok := stageProbabilities[s]
	return ok
}

// IsClosed reports whether the stage is won or lost
func (s DealStage) IsClosed() bool {
	return s == DealStageClosedWon || s == DealStageClosedLost
}

// DefaultProbability returns the canonical probability for a stage, or 0 for unknown stages
func DefaultProbability(stage DealStage) int {
	return stageProbabilities[stage]
}

// ValidProbability reports whether p is a percentage in [0,100]
func ValidProbability(p int) bool {
	return p >= 0 && p <= 100
}

// WeightedValue returns value * probability / 100 rounded to the nearest integer
func WeightedValue(value decimal.Decimal, probability int) decimal.Decimal {
	return value.Mul(decimal.NewFromInt(int64(probability))).Div(hundred).Round(0)
}

// WeightedValue returns the deal's probability-adjusted value
func (d *Deal) WeightedValue() decimal.Decimal {
	return WeightedValue(d.Value, d.Probability)
}

// MoveStage sets the deal's stage. A nil probability resets it to the stage
// default, including when the stage does not change. ActualCloseDate is left alone.
func (d *Deal) MoveStage(stage DealStage, probability *int) error {
	if !stage.IsValid() {
		return NewValidationError("stage", fmt.Sprintf("Unknown stage %q", stage))
	}
	p := DefaultProbability(stage)
	if probability != nil {
		if !ValidProbability(*probability) {
			return NewValidationError("probability", "Must be between 0 and 100")
		}
		p = *probability
	}
	d.Stage = stage
	d.Probability = p
	return nil
}

// Validate checks the fields every persisted deal must satisfy
func (d *Deal) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(d.Title) == "" {
		verr.Add("title", "title is required")
	}
	if !d.Value.IsPositive() {
		verr.Add("value", "Must be greater than 0")
	}
	if !d.Stage.IsValid() {
		verr.Add("stage", "Must be a valid pipeline stage")
	}
	if !ValidProbability(d.Probability) {
		verr.Add("probability", "Must be between 0 and 100")
	}
	return verr.OrNil()
}

var leadWord = regexp.MustCompile(`(?i)lead`)

// ConvertedDealTitle derives a deal title from a lead. The first "lead" in the
// title (any case) becomes "Deal"; a lead without a title yields "{company or name} - Deal".
func ConvertedDealTitle(lead *Lead) string {
	title := strings.TrimSpace(lead.Title)
	if title != "" {
		if loc := leadWord.FindStringIndex(title); loc != nil {
			return title[:loc[0]] + "Deal" + title[loc[1]:]
		}
		return title
	}
	name := strings.TrimSpace(lead.Company)
	if name == "" {
		name = strings.TrimSpace(lead.FirstName + " " + lead.LastName)
	}
	if name == "" {
		return "Deal"
	}
	return name + " - Deal"
}

// ConversionNotes builds the provenance note for a deal created from a lead
func ConversionNotes(lead *Lead) string {
	notes := "Converted from lead: " + lead.Title
	if n := strings.TrimSpace(lead.Notes); n != "" {
		notes += "\n\n" + n
	}
	return notes
}

// NewDealFromLead builds an unsaved deal from a lead, applying any overrides in req.
// The lead is not modified.
func NewDealFromLead(lead *Lead, ownerID *uuid.UUID, req *ConvertLeadRequest) (*Deal, error) {
	if req == nil {
		req = &ConvertLeadRequest{}
	}

	deal := &Deal{
		Title:     ConvertedDealTitle(lead),
		Value:     decimal.Zero,
		Source:    string(lead.Source),
		OwnerID:   ownerID,
		ContactID: lead.ContactID,
		Tags:      NormalizeTags(lead.Tags),
		Notes:     ConversionNotes(lead),
	}
	leadID := lead.ID
	deal.LeadID = &leadID

	if lead.Value != nil {
		deal.Value = *lead.Value
	}
	if deal.Source == "" {
		deal.Source = DefaultLeadConversionSource
	}

	if t := strings.TrimSpace(req.Title); t != "" {
		deal.Title = t
	}
	if req.Value != nil {
		deal.Value = *req.Value
	}
	if req.Source != "" {
		deal.Source = req.Source
	}
	if req.Notes != "" {
		deal.Notes = req.Notes
	}
	if req.Tags != nil {
		deal.Tags = NormalizeTags(req.Tags)
	}
	if req.ContactID != nil {
		deal.ContactID = req.ContactID
	}
	deal.ExpectedCloseDate = req.ExpectedCloseDate

	stage := req.Stage
	if stage == "" {
		stage = DealStageProspecting
	}
	if err := deal.MoveStage(stage, req.Probability); err != nil {
		return nil, err
	}

	if err := deal.Validate(); err != nil {
		return nil, err
	}
	return deal, nil
}
