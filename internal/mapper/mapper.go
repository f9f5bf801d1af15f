package mapper

import (
	"time"

	"github.com/straye-as/crm-api/internal/domain"
)

const timestampLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: formatTime(user.CreatedAt),
		UpdatedAt: formatTime(user.UpdatedAt),
	}
}

// ToContactDTO converts Contact to ContactDTO
func ToContactDTO(contact *domain.Contact) domain.ContactDTO {
	return domain.ContactDTO{
		ID:        contact.ID,
		FirstName: contact.FirstName,
		LastName:  contact.LastName,
		FullName:  contact.FullName(),
		Email:     contact.Email,
		Phone:     contact.Phone,
		Company:   contact.Company,
		Position:  contact.Position,
		OwnerID:   contact.OwnerID,
		Tags:      tagsOrEmpty(contact.Tags),
		Notes:     contact.Notes,
		CreatedAt: formatTime(contact.CreatedAt),
		UpdatedAt: formatTime(contact.UpdatedAt),
	}
}

// ToLeadDTO converts Lead to LeadDTO
func ToLeadDTO(lead *domain.Lead) domain.LeadDTO {
	return domain.LeadDTO{
		ID:        lead.ID,
		Title:     lead.Title,
		FirstName: lead.FirstName,
		LastName:  lead.LastName,
		Email:     lead.Email,
		Phone:     lead.Phone,
		Company:   lead.Company,
		Position:  lead.Position,
		Source:    lead.Source,
		Status:    lead.Status,
		Value:     lead.Value,
		OwnerID:   lead.OwnerID,
		ContactID: lead.ContactID,
		Tags:      tagsOrEmpty(lead.Tags),
		Notes:     lead.Notes,
		CreatedAt: formatTime(lead.CreatedAt),
		UpdatedAt: formatTime(lead.UpdatedAt),
	}
}

// ToDealDTO converts Deal to DealDTO, deriving the weighted value
func ToDealDTO(deal *domain.Deal) domain.DealDTO {
	return domain.DealDTO{
		ID:                deal.ID,
		Title:             deal.Title,
		Value:             deal.Value,
		Stage:             deal.Stage,
		Probability:       deal.Probability,
		WeightedValue:     deal.WeightedValue(),
		ExpectedCloseDate: deal.ExpectedCloseDate,
		ActualCloseDate:   deal.ActualCloseDate,
		Source:            deal.Source,
		OwnerID:           deal.OwnerID,
		ContactID:         deal.ContactID,
		LeadID:            deal.LeadID,
		Tags:              tagsOrEmpty(deal.Tags),
		Notes:             deal.Notes,
		CreatedAt:         formatTime(deal.CreatedAt),
		UpdatedAt:         formatTime(deal.UpdatedAt),
	}
}

// ToDealStageHistoryDTO converts DealStageHistory to DealStageHistoryDTO
func ToDealStageHistoryDTO(h *domain.DealStageHistory) domain.DealStageHistoryDTO {
	return domain.DealStageHistoryDTO{
		ID:              h.ID,
		DealID:          h.DealID,
		FromStage:       h.FromStage,
		ToStage:         h.ToStage,
		FromProbability: h.FromProbability,
		ToProbability:   h.ToProbability,
		ChangedByID:     h.ChangedByID,
		ChangedAt:       formatTime(h.ChangedAt),
	}
}

// ToActivityDTO converts Activity to ActivityDTO. now decides IsOverdue.
func ToActivityDTO(activity *domain.Activity, now time.Time) domain.ActivityDTO {
	return domain.ActivityDTO{
		ID:          activity.ID,
		Title:       activity.Title,
		Description: activity.Description,
		Type:        activity.Type,
		Priority:    activity.Priority,
		DueDate:     activity.DueDate,
		IsCompleted: activity.IsCompleted,
		CompletedAt: activity.CompletedAt,
		IsOverdue:   activity.IsOverdue(now),
		AssigneeID:  activity.AssigneeID,
		CreatedByID: activity.CreatedByID,
		ContactID:   activity.ContactID,
		DealID:      activity.DealID,
		LeadID:      activity.LeadID,
		CreatedAt:   formatTime(activity.CreatedAt),
		UpdatedAt:   formatTime(activity.UpdatedAt),
	}
}
