package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivity_SetCompleted(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := &domain.Activity{}

	for i, completed := range []bool{true, true, false, true, false, false} {
		a.SetCompleted(completed, now.Add(time.Duration(i)*time.Minute))
		assert.Equal(t, completed, a.IsCompleted)
		assert.Equal(t, completed, a.CompletedAt != nil)
	}

	a.SetCompleted(true, now)
	require.NotNil(t, a.CompletedAt)
	assert.Equal(t, now, *a.CompletedAt)
}

func TestActivity_IsOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&domain.Activity{DueDate: &past}).IsOverdue(now))
	assert.False(t, (&domain.Activity{DueDate: &future}).IsOverdue(now))
	assert.False(t, (&domain.Activity{}).IsOverdue(now))
	assert.False(t, (&domain.Activity{DueDate: &past, IsCompleted: true}).IsOverdue(now))
}

func TestOwnership_Includes(t *testing.T) {
	u := uuid.New()
	other := uuid.New()

	assert.True(t, domain.Ownership{OwnerID: &u}.Includes(u))
	assert.True(t, domain.Ownership{AssigneeID: &other, CreatedByID: &u}.Includes(u))
	assert.False(t, domain.Ownership{OwnerID: &other}.Includes(u))
	assert.False(t, domain.Ownership{}.Includes(u))
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, domain.NormalizeTags([]string{" a", "b", "a ", "", "  "}))
	assert.Equal(t, []string{}, domain.NormalizeTags(nil))
}

func TestValidationError(t *testing.T) {
	verr := &domain.ValidationError{}
	assert.NoError(t, verr.OrNil())

	verr.Add("value", "Must be greater than 0")
	verr.Add("title", "title is required")
	err := verr.OrNil()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "validation failed: title: title is required; value: Must be greater than 0", err.Error())
}

func TestUserRole_IsValid(t *testing.T) {
	for _, r := range []domain.UserRole{domain.RoleAdmin, domain.RoleManager, domain.RoleRep, domain.RoleReadOnly} {
		assert.True(t, r.IsValid())
	}
	assert.False(t, domain.UserRole("OWNER").IsValid())
}
