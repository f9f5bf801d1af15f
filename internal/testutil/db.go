// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/database"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// SetupTestDB opens a private in-memory SQLite database with the schema migrated.
// It is closed when the test finishes.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := unsafeName.ReplaceAllString(t.Name(), "_") + "_" + uuid.NewString()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and serializes transactions
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CreateUser inserts an active user with role
func CreateUser(t *testing.T, db *gorm.DB, role domain.UserRole) *domain.User {
	t.Helper()
	id := uuid.New()
	user := &domain.User{
		BaseModel: domain.BaseModel{ID: id},
		Name:      string(role) + " " + id.String()[:8],
		Email:     id.String()[:8] + "@example.com",
		Role:      role,
		IsActive:  true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// Actor returns the request actor for user
func Actor(user *domain.User) *auth.UserContext {
	return auth.FromUser(user)
}

// CreateContact inserts a contact owned by ownerID
func CreateContact(t *testing.T, db *gorm.DB, ownerID *uuid.UUID) *domain.Contact {
	t.Helper()
	id := uuid.New()
	contact := &domain.Contact{
		BaseModel: domain.BaseModel{ID: id},
		FirstName: "Kari",
		LastName:  "Nordmann",
		Email:     "kari." + id.String()[:8] + "@example.com",
		Phone:     "+4722123456",
		Company:   "Nordmann AS",
		Position:  "CTO",
		OwnerID:   ownerID,
		Tags:      []string{},
	}
	require.NoError(t, db.Create(contact).Error)
	return contact
}

// CreateLead inserts a lead owned by ownerID
func CreateLead(t *testing.T, db *gorm.DB, ownerID *uuid.UUID, title string, value *decimal.Decimal) *domain.Lead {
	t.Helper()
	lead := &domain.Lead{
		Title:   title,
		Company: "Acme",
		Source:  domain.LeadSourceReferral,
		Status:  domain.LeadStatusQualified,
		Value:   value,
		OwnerID: ownerID,
		Tags:    []string{},
	}
	require.NoError(t, db.Create(lead).Error)
	return lead
}

// CreateDeal inserts a deal at stage with the stage's default probability
func CreateDeal(t *testing.T, db *gorm.DB, ownerID *uuid.UUID, stage domain.DealStage, value int64) *domain.Deal {
	t.Helper()
	deal := &domain.Deal{
		Title:       "Deal " + string(stage),
		Value:       decimal.NewFromInt(value),
		Stage:       stage,
		Probability: domain.DefaultProbability(stage),
		OwnerID:     ownerID,
		Tags:        []string{},
	}
	require.NoError(t, db.Create(deal).Error)
	return deal
}

// CreateActivity inserts a pending activity
func CreateActivity(t *testing.T, db *gorm.DB, assigneeID, createdByID *uuid.UUID, due *time.Time) *domain.Activity {
	t.Helper()
	activity := &domain.Activity{
		Title:       "Follow up",
		Type:        domain.ActivityTypeTask,
		Priority:    domain.ActivityPriorityMedium,
		DueDate:     due,
		AssigneeID:  assigneeID,
		CreatedByID: createdByID,
	}
	require.NoError(t, db.Create(activity).Error)
	return activity
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
