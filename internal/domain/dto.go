package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Response DTOs

type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      UserRole  `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

type ContactDTO struct {
	ID        uuid.UUID  `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	FullName  string     `json:"fullName"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	Company   string     `json:"company,omitempty"`
	Position  string     `json:"position,omitempty"`
	OwnerID   *uuid.UUID `json:"ownerId"`
	Tags      []string   `json:"tags"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt string     `json:"createdAt"`
	UpdatedAt string     `json:"updatedAt"`
}

type LeadDTO struct {
	ID        uuid.UUID        `json:"id"`
	Title     string           `json:"title"`
	FirstName string           `json:"firstName,omitempty"`
	LastName  string           `json:"lastName,omitempty"`
	Email     string           `json:"email,omitempty"`
	Phone     string           `json:"phone,omitempty"`
	Company   string           `json:"company,omitempty"`
	Position  string           `json:"position,omitempty"`
	Source    LeadSource       `json:"source,omitempty"`
	Status    LeadStatus       `json:"status"`
	Value     *decimal.Decimal `json:"value"`
	OwnerID   *uuid.UUID       `json:"ownerId"`
	ContactID *uuid.UUID       `json:"contactId"`
	Tags      []string         `json:"tags"`
	Notes     string           `json:"notes,omitempty"`
	CreatedAt string           `json:"createdAt"`
	UpdatedAt string           `json:"updatedAt"`
}

type DealDTO struct {
	ID                uuid.UUID       `json:"id"`
	Title             string          `json:"title"`
	Value             decimal.Decimal `json:"value"`
	Stage             DealStage       `json:"stage"`
	Probability       int             `json:"probability"`
	WeightedValue     decimal.Decimal `json:"weightedValue"`
	ExpectedCloseDate *time.Time      `json:"expectedCloseDate"`
	ActualCloseDate   *time.Time      `json:"actualCloseDate"`
	Source            string          `json:"source,omitempty"`
	OwnerID           *uuid.UUID      `json:"ownerId"`
	ContactID         *uuid.UUID      `json:"contactId"`
	LeadID            *uuid.UUID      `json:"leadId"`
	Tags              []string        `json:"tags"`
	Notes             string          `json:"notes,omitempty"`
	CreatedAt         string          `json:"createdAt"`
	UpdatedAt         string          `json:"updatedAt"`
}

type DealStageHistoryDTO struct {
	ID              uuid.UUID  `json:"id"`
	DealID          uuid.UUID  `json:"dealId"`
	FromStage       *DealStage `json:"fromStage"`
	ToStage         DealStage  `json:"toStage"`
	FromProbability *int       `json:"fromProbability"`
	ToProbability   int        `json:"toProbability"`
	ChangedByID     *uuid.UUID `json:"changedById"`
	ChangedAt       string     `json:"changedAt"`
}

type ActivityDTO struct {
	ID          uuid.UUID        `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Type        ActivityType     `json:"type"`
	Priority    ActivityPriority `json:"priority"`
	DueDate     *time.Time       `json:"dueDate"`
	IsCompleted bool             `json:"isCompleted"`
	CompletedAt *time.Time       `json:"completedAt"`
	IsOverdue   bool             `json:"isOverdue"`
	AssigneeID  *uuid.UUID       `json:"assigneeId"`
	CreatedByID *uuid.UUID       `json:"createdById"`
	ContactID   *uuid.UUID       `json:"contactId"`
	DealID      *uuid.UUID       `json:"dealId"`
	LeadID      *uuid.UUID       `json:"leadId"`
	CreatedAt   string           `json:"createdAt"`
	UpdatedAt   string           `json:"updatedAt"`
}

// StageSummaryDTO aggregates the deals in one pipeline stage
type StageSummaryDTO struct {
	Stage              DealStage       `json:"stage"`
	DefaultProbability int             `json:"defaultProbability"`
	Count              int64           `json:"count"`
	TotalValue         decimal.Decimal `json:"totalValue"`
	WeightedValue      decimal.Decimal `json:"weightedValue"`
}

// PipelineSummaryDTO is the pipeline report, one entry per stage in pipeline order
type PipelineSummaryDTO struct {
	Stages            []StageSummaryDTO `json:"stages"`
	OpenDeals         int64             `json:"openDeals"`
	OpenValue         decimal.Decimal   `json:"openValue"`
	OpenWeightedValue decimal.Decimal   `json:"openWeightedValue"`
	WonValue          decimal.Decimal   `json:"wonValue"`
	GeneratedAt       string            `json:"generatedAt"`
	ScopedToOwnerID   *uuid.UUID        `json:"scopedToOwnerId,omitempty"`
}

// ActivityStatsDTO counts activities by completion state
type ActivityStatsDTO struct {
	Pending   int64 `json:"pending"`
	Completed int64 `json:"completed"`
	Overdue   int64 `json:"overdue"`
}

// Paginated response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// NewPaginatedResponse fills in TotalPages from total and pageSize
func NewPaginatedResponse(data interface{}, total int64, page, pageSize int) *PaginatedResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// Request DTOs

type CreateUserRequest struct {
	Name  string   `json:"name" validate:"required,max=200"`
	Email string   `json:"email" validate:"required,email,max=255"`
	Role  UserRole `json:"role" validate:"required,oneof=ADMIN MANAGER REP READ_ONLY"`
}

type UpdateUserRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email,max=255"`
}

type ChangeUserRoleRequest struct {
	Role UserRole `json:"role" validate:"required,oneof=ADMIN MANAGER REP READ_ONLY"`
}

type SetUserActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type CreateContactRequest struct {
	FirstName string     `json:"firstName" validate:"required,max=100"`
	LastName  string     `json:"lastName" validate:"required,max=100"`
	Email     string     `json:"email" validate:"required,email,max=255"`
	Phone     string     `json:"phone,omitempty" validate:"max=50"`
	Company   string     `json:"company,omitempty" validate:"max=200"`
	Position  string     `json:"position,omitempty" validate:"max=200"`
	OwnerID   *uuid.UUID `json:"ownerId,omitempty"`
	Tags      []string   `json:"tags,omitempty" validate:"dive,max=50"`
	Notes     string     `json:"notes,omitempty"`
}

type UpdateContactRequest struct {
	FirstName string     `json:"firstName" validate:"required,max=100"`
	LastName  string     `json:"lastName" validate:"required,max=100"`
	Email     string     `json:"email" validate:"required,email,max=255"`
	Phone     string     `json:"phone,omitempty" validate:"max=50"`
	Company   string     `json:"company,omitempty" validate:"max=200"`
	Position  string     `json:"position,omitempty" validate:"max=200"`
	OwnerID   *uuid.UUID `json:"ownerId,omitempty"`
	Tags      []string   `json:"tags" validate:"dive,max=50"`
	Notes     string     `json:"notes,omitempty"`
}

type CreateLeadRequest struct {
	Title     string           `json:"title" validate:"required,max=200"`
	FirstName string           `json:"firstName,omitempty" validate:"max=100"`
	LastName  string           `json:"lastName,omitempty" validate:"max=100"`
	Email     string           `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone     string           `json:"phone,omitempty" validate:"max=50"`
	Company   string           `json:"company,omitempty" validate:"max=200"`
	Position  string           `json:"position,omitempty" validate:"max=200"`
	Source    LeadSource       `json:"source,omitempty" validate:"omitempty,oneof=WEBSITE REFERRAL SOCIAL_MEDIA EMAIL_CAMPAIGN COLD_CALL TRADE_SHOW PARTNER OTHER"`
	Status    LeadStatus       `json:"status,omitempty" validate:"omitempty,oneof=NEW CONTACTED QUALIFIED PROPOSAL NEGOTIATION CLOSED_WON CLOSED_LOST"`
	Value     *decimal.Decimal `json:"value,omitempty"`
	OwnerID   *uuid.UUID       `json:"ownerId,omitempty"`
	ContactID *uuid.UUID       `json:"contactId,omitempty"`
	Tags      []string         `json:"tags,omitempty" validate:"dive,max=50"`
	Notes     string           `json:"notes,omitempty"`
}

type UpdateLeadRequest struct {
	Title     string           `json:"title" validate:"required,max=200"`
	FirstName string           `json:"firstName,omitempty" validate:"max=100"`
	LastName  string           `json:"lastName,omitempty" validate:"max=100"`
	Email     string           `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone     string           `json:"phone,omitempty" validate:"max=50"`
	Company   string           `json:"company,omitempty" validate:"max=200"`
	Position  string           `json:"position,omitempty" validate:"max=200"`
	Source    LeadSource       `json:"source,omitempty" validate:"omitempty,oneof=WEBSITE REFERRAL SOCIAL_MEDIA EMAIL_CAMPAIGN COLD_CALL TRADE_SHOW PARTNER OTHER"`
	Status    LeadStatus       `json:"status" validate:"required,oneof=NEW CONTACTED QUALIFIED PROPOSAL NEGOTIATION CLOSED_WON CLOSED_LOST"`
	Value     *decimal.Decimal `json:"value,omitempty"`
	OwnerID   *uuid.UUID       `json:"ownerId,omitempty"`
	ContactID *uuid.UUID       `json:"contactId,omitempty"`
	Tags      []string         `json:"tags" validate:"dive,max=50"`
	Notes     string           `json:"notes,omitempty"`
}

// ConvertLeadRequest holds optional overrides for lead-to-deal conversion.
// Every field left empty takes its default from the lead.
type ConvertLeadRequest struct {
	Title             string           `json:"title,omitempty" validate:"max=200"`
	Value             *decimal.Decimal `json:"value,omitempty"`
	Stage             DealStage        `json:"stage,omitempty" validate:"omitempty,oneof=PROSPECTING QUALIFICATION NEEDS_ANALYSIS VALUE_PROPOSITION PROPOSAL NEGOTIATION CLOSED_WON CLOSED_LOST"`
	Probability       *int             `json:"probability,omitempty" validate:"omitempty,gte=0,lte=100"`
	ExpectedCloseDate *time.Time       `json:"expectedCloseDate,omitempty"`
	Source            string           `json:"source,omitempty" validate:"max=100"`
	Notes             string           `json:"notes,omitempty"`
	Tags              []string         `json:"tags,omitempty" validate:"dive,max=50"`
	ContactID         *uuid.UUID       `json:"contactId,omitempty"`
	OwnerID           *uuid.UUID       `json:"ownerId,omitempty"`
}

type CreateDealRequest struct {
	Title             string          `json:"title" validate:"required,max=200"`
	Value             decimal.Decimal `json:"value"`
	Stage             DealStage       `json:"stage,omitempty" validate:"omitempty,oneof=PROSPECTING QUALIFICATION NEEDS_ANALYSIS VALUE_PROPOSITION PROPOSAL NEGOTIATION CLOSED_WON CLOSED_LOST"`
	Probability       *int            `json:"probability,omitempty" validate:"omitempty,gte=0,lte=100"`
	ExpectedCloseDate *time.Time      `json:"expectedCloseDate,omitempty"`
	ActualCloseDate   *time.Time      `json:"actualCloseDate,omitempty"`
	Source            string          `json:"source,omitempty" validate:"max=100"`
	OwnerID           *uuid.UUID      `json:"ownerId,omitempty"`
	ContactID         *uuid.UUID      `json:"contactId,omitempty"`
	LeadID            *uuid.UUID      `json:"leadId,omitempty"`
	Tags              []string        `json:"tags,omitempty" validate:"dive,max=50"`
	Notes             string          `json:"notes,omitempty"`
}

type UpdateDealRequest struct {
	Title             string          `json:"title" validate:"required,max=200"`
	Value             decimal.Decimal `json:"value"`
	Stage             DealStage       `json:"stage" validate:"required,oneof=PROSPECTING QUALIFICATION NEEDS_ANALYSIS VALUE_PROPOSITION PROPOSAL NEGOTIATION CLOSED_WON CLOSED_LOST"`
	Probability       *int            `json:"probability,omitempty" validate:"omitempty,gte=0,lte=100"`
	ExpectedCloseDate *time.Time      `json:"expectedCloseDate,omitempty"`
	ActualCloseDate   *time.Time      `json:"actualCloseDate,omitempty"`
	Source            string          `json:"source,omitempty" validate:"max=100"`
	OwnerID           *uuid.UUID      `json:"ownerId,omitempty"`
	ContactID         *uuid.UUID      `json:"contactId,omitempty"`
	Tags              []string        `json:"tags" validate:"dive,max=50"`
	Notes             string          `json:"notes,omitempty"`
}

// MoveDealStageRequest moves a deal to a stage. A missing probability resets
// it to the stage default.
type MoveDealStageRequest struct {
	Stage       DealStage `json:"stage" validate:"required,oneof=PROSPECTING QUALIFICATION NEEDS_ANALYSIS VALUE_PROPOSITION PROPOSAL NEGOTIATION CLOSED_WON CLOSED_LOST"`
	Probability *int      `json:"probability,omitempty" validate:"omitempty,gte=0,lte=100"`
}

type CreateActivityRequest struct {
	Title       string           `json:"title" validate:"required,max=200"`
	Description string           `json:"description,omitempty"`
	Type        ActivityType     `json:"type" validate:"required,oneof=CALL EMAIL MEETING TASK NOTE"`
	Priority    ActivityPriority `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DueDate     *time.Time       `json:"dueDate,omitempty"`
	IsCompleted bool             `json:"isCompleted,omitempty"`
	AssigneeID  *uuid.UUID       `json:"assigneeId,omitempty"`
	ContactID   *uuid.UUID       `json:"contactId,omitempty"`
	DealID      *uuid.UUID       `json:"dealId,omitempty"`
	LeadID      *uuid.UUID       `json:"leadId,omitempty"`
}

type UpdateActivityRequest struct {
	Title       string           `json:"title" validate:"required,max=200"`
	Description string           `json:"description,omitempty"`
	Type        ActivityType     `json:"type" validate:"required,oneof=CALL EMAIL MEETING TASK NOTE"`
	Priority    ActivityPriority `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
	DueDate     *time.Time       `json:"dueDate,omitempty"`
	IsCompleted *bool            `json:"isCompleted,omitempty"`
	AssigneeID  *uuid.UUID       `json:"assigneeId,omitempty"`
	ContactID   *uuid.UUID       `json:"contactId,omitempty"`
	DealID      *uuid.UUID       `json:"dealId,omitempty"`
	LeadID      *uuid.UUID       `json:"leadId,omitempty"`
}

// SetActivityCompletedRequest is the body of the completion toggle
type SetActivityCompletedRequest struct {
	IsCompleted *bool `json:"isCompleted" validate:"required"`
}
