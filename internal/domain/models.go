package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BaseModel contains common fields for all models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns a new ID when the caller did not set one
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// UserRole is the sole authorization input for a user
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleManager  UserRole = "MANAGER"
	RoleRep      UserRole = "REP"
	RoleReadOnly UserRole = "READ_ONLY"
)

// IsValid reports whether the role is one of the known roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleRep, RoleReadOnly:
		return true
	}
	return false
}

// User represents an account that can act on CRM records
type User struct {
	BaseModel
	Name     string   `gorm:"type:varchar(200);not null"`
	Email    string   `gorm:"type:varchar(255);not null;uniqueIndex"`
	Role     UserRole `gorm:"type:varchar(20);not null;index"`
	IsActive bool     `gorm:"not null;column:is_active"`
}

// Contact represents a person the sales team works with
type Contact struct {
	BaseModel
	FirstName string     `gorm:"type:varchar(100);not null;column:first_name"`
	LastName  string     `gorm:"type:varchar(100);not null;column:last_name"`
	Email     string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone     string     `gorm:"type:varchar(50)"`
	Company   string     `gorm:"type:varchar(200)"`
	Position  string     `gorm:"type:varchar(200)"`
	OwnerID   *uuid.UUID `gorm:"type:uuid;index;column:owner_id"`
	Tags      []string   `gorm:"type:text;serializer:json"`
	Notes     string     `gorm:"type:text"`
}

// FullName returns the contact's first and last name
func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Ownership returns the fields used for access scoping
func (c *Contact) Ownership() Ownership {
	return Ownership{OwnerID: c.OwnerID}
}

// LeadStatus represents where a lead is in the qualification process.
// Any status may be set to any other status.
type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "NEW"
	LeadStatusContacted   LeadStatus = "CONTACTED"
	LeadStatusQualified   LeadStatus = "QUALIFIED"
	LeadStatusProposal    LeadStatus = "PROPOSAL"
	LeadStatusNegotiation LeadStatus = "NEGOTIATION"
	LeadStatusClosedWon   LeadStatus = "CLOSED_WON"
	LeadStatusClosedLost  LeadStatus = "CLOSED_LOST"
)

// IsValid reports whether the status is one of the known lead statuses
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusProposal,
		LeadStatusNegotiation, LeadStatusClosedWon, LeadStatusClosedLost:
		return true
	}
	return false
}

// LeadSource represents how a lead found us
type LeadSource string

const (
	LeadSourceWebsite       LeadSource = "WEBSITE"
	LeadSourceReferral      LeadSource = "REFERRAL"
	LeadSourceSocialMedia   LeadSource = "SOCIAL_MEDIA"
	LeadSourceEmailCampaign LeadSource = "EMAIL_CAMPAIGN"
	LeadSourceColdCall      LeadSource = "COLD_CALL"
	LeadSourceTradeShow     LeadSource = "TRADE_SHOW"
	LeadSourcePartner       LeadSource = "PARTNER"
	LeadSourceOther         LeadSource = "OTHER"
)

// Lead is an unqualified prospect. Contact fields are copied at creation and never synced.
type Lead struct {
	BaseModel
	Title     string           `gorm:"type:varchar(200);not null"`
	FirstName string           `gorm:"type:varchar(100);column:first_name"`
	LastName  string           `gorm:"type:varchar(100);column:last_name"`
	Email     string           `gorm:"type:varchar(255)"`
	Phone     string           `gorm:"type:varchar(50)"`
	Company   string           `gorm:"type:varchar(200)"`
	Position  string           `gorm:"type:varchar(200)"`
	Source    LeadSource       `gorm:"type:varchar(50)"`
	Status    LeadStatus       `gorm:"type:varchar(50);not null;index"`
	Value     *decimal.Decimal `gorm:"type:decimal(15,2)"`
	OwnerID   *uuid.UUID       `gorm:"type:uuid;index;column:owner_id"`
	ContactID *uuid.UUID       `gorm:"type:uuid;index;column:contact_id"`
	Tags      []string         `gorm:"type:text;serializer:json"`
	Notes     string           `gorm:"type:text"`
}

// Ownership returns the fields used for access scoping
func (l *Lead) Ownership() Ownership {
	return Ownership{OwnerID: l.OwnerID}
}

// DealStage represents a phase in the sales pipeline
type DealStage string

const (
	DealStageProspecting      DealStage = "PROSPECTING"
	DealStageQualification    DealStage = "QUALIFICATION"
	DealStageNeedsAnalysis    DealStage = "NEEDS_ANALYSIS"
	DealStageValueProposition DealStage = "VALUE_PROPOSITION"
	DealStageProposal         DealStage = "PROPOSAL"
	DealStageNegotiation      DealStage = "NEGOTIATION"
	DealStageClosedWon        DealStage = "CLOSED_WON"
	DealStageClosedLost       DealStage = "CLOSED_LOST"
)

// Deal is a tracked sales opportunity. Weighted value is derived and never stored.
type Deal struct {
	BaseModel
	Title             string          `gorm:"type:varchar(200);not null"`
	Value             decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Stage             DealStage       `gorm:"type:varchar(50);not null;index"`
	Probability       int             `gorm:"not null"`
	ExpectedCloseDate *time.Time      `gorm:"column:expected_close_date"`
	ActualCloseDate   *time.Time      `gorm:"column:actual_close_date"`
	Source            string          `gorm:"type:varchar(100)"`
	OwnerID           *uuid.UUID      `gorm:"type:uuid;index;column:owner_id"`
	ContactID         *uuid.UUID      `gorm:"type:uuid;index;column:contact_id"`
	LeadID            *uuid.UUID      `gorm:"type:uuid;index;column:lead_id"`
	Tags              []string        `gorm:"type:text;serializer:json"`
	Notes             string          `gorm:"type:text"`
}

// Ownership returns the fields used for access scoping
func (d *Deal) Ownership() Ownership {
	return Ownership{OwnerID: d.OwnerID}
}

// DealStageHistory tracks stage changes for audit purposes
type DealStageHistory struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	DealID          uuid.UUID  `gorm:"type:uuid;not null;index;column:deal_id"`
	FromStage       *DealStage `gorm:"type:varchar(50);column:from_stage"`
	ToStage         DealStage  `gorm:"type:varchar(50);not null;column:to_stage"`
	FromProbability *int       `gorm:"column:from_probability"`
	ToProbability   int        `gorm:"not null;column:to_probability"`
	ChangedByID     *uuid.UUID `gorm:"type:uuid;index;column:changed_by_id"`
	ChangedAt       time.Time  `gorm:"not null;column:changed_at"`
}

// TableName overrides the default table name to match the migration
func (DealStageHistory) TableName() string {
	return "deal_stage_history"
}

// BeforeCreate assigns a new ID when the caller did not set one
func (h *DealStageHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// ActivityType represents the kind of activity
type ActivityType string

const (
	ActivityTypeCall    ActivityType = "CALL"
	ActivityTypeEmail   ActivityType = "EMAIL"
	ActivityTypeMeeting ActivityType = "MEETING"
	ActivityTypeTask    ActivityType = "TASK"
	ActivityTypeNote    ActivityType = "NOTE"
)

// ActivityPriority represents how urgent an activity is
type ActivityPriority string

const (
	ActivityPriorityLow    ActivityPriority = "LOW"
	ActivityPriorityMedium ActivityPriority = "MEDIUM"
	ActivityPriorityHigh   ActivityPriority = "HIGH"
	ActivityPriorityUrgent ActivityPriority = "URGENT"
)

// Activity is a task, call, meeting or note.
// CompletedAt is non-nil exactly when IsCompleted is true.
type Activity struct {
	BaseModel
	Title       string           `gorm:"type:varchar(200);not null"`
	Description string           `gorm:"type:text"`
	Type        ActivityType     `gorm:"type:varchar(20);not null;index"`
	Priority    ActivityPriority `gorm:"type:varchar(20);not null"`
	DueDate     *time.Time       `gorm:"column:due_date;index"`
	IsCompleted bool             `gorm:"not null;column:is_completed"`
	CompletedAt *time.Time       `gorm:"column:completed_at"`
	AssigneeID  *uuid.UUID       `gorm:"type:uuid;index;column:assignee_id"`
	CreatedByID *uuid.UUID       `gorm:"type:uuid;index;column:created_by_id"`
	ContactID   *uuid.UUID       `gorm:"type:uuid;index;column:contact_id"`
	DealID      *uuid.UUID       `gorm:"type:uuid;index;column:deal_id"`
	LeadID      *uuid.UUID       `gorm:"type:uuid;index;column:lead_id"`
}

// Ownership returns the fields used for access scoping
func (a *Activity) Ownership() Ownership {
	return Ownership{AssigneeID: a.AssigneeID, CreatedByID: a.CreatedByID}
}

// SetCompleted toggles completion and keeps CompletedAt in step with it
func (a *Activity) SetCompleted(completed bool, now time.Time) {
	a.IsCompleted = completed
	if completed {
		t := now
		a.CompletedAt = &t
		return
	}
	a.CompletedAt = nil
}

// IsOverdue reports whether a pending activity is past its due date
func (a *Activity) IsOverdue(now time.Time) bool {
	return !a.IsCompleted && a.DueDate != nil && a.DueDate.Before(now)
}

// Ownership holds the user references a record exposes for authorization.
// Lead, Deal and Contact use OwnerID; Activity uses AssigneeID and CreatedByID.
type Ownership struct {
	OwnerID     *uuid.UUID
	AssigneeID  *uuid.UUID
	CreatedByID *uuid.UUID
}

// Includes reports whether userID appears in any of the ownership fields
func (o Ownership) Includes(userID uuid.UUID) bool {
	for _, id := range []*uuid.UUID{o.OwnerID, o.AssigneeID, o.CreatedByID} {
		if id != nil && *id == userID {
			return true
		}
	}
	return false
}

// NormalizeTags trims tags, drops empties and duplicates, and keeps first-seen order
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
