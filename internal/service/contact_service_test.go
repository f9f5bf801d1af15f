package service_test

import (
	"context"
	"testing"

	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"github.com/straye-as/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactService_Create(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	rep := testutil.CreateUser(t, env.db, domain.RoleRep)
	actor := testutil.Actor(rep)

	dto, err := env.contactService.Create(ctx, actor, &domain.CreateContactRequest{
		FirstName: " Ola ",
		LastName:  "Nordmann",
		Email:     "Ola@Example.com",
		Phone:     "22 12 34 56",
		Tags:      []string{"vip", " vip ", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ola", dto.FirstName)
	assert.Equal(t, "Ola Nordmann", dto.FullName)
	assert.Equal(t, "ola@example.com", dto.Email)
	assert.Equal(t, "+4722123456", dto.Phone)
	assert.Equal(t, []string{"vip"}, dto.Tags)
	assert.Equal(t, rep.ID, *dto.OwnerID)

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := env.contactService.Create(ctx, actor, &domain.CreateContactRequest{
			FirstName: "Other",
			LastName:  "Person",
			Email:     "OLA@example.com",
		})
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("invalid phone", func(t *testing.T) {
		_, err := env.contactService.Create(ctx, actor, &domain.CreateContactRequest{
			FirstName: "Bad",
			LastName:  "Phone",
			Email:     "bad.phone@example.com",
			Phone:     "not a phone",
		})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "phone")
	})
}

func TestContactService_Scoping(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	rep := testutil.CreateUser(t, env.db, domain.RoleRep)
	other := testutil.CreateUser(t, env.db, domain.RoleRep)
	viewer := testutil.CreateUser(t, env.db, domain.RoleReadOnly)
	manager := testutil.CreateUser(t, env.db, domain.RoleManager)

	mine := testutil.CreateContact(t, env.db, &rep.ID)
	testutil.CreateContact(t, env.db, &other.ID)
	viewed := testutil.CreateContact(t, env.db, &viewer.ID)

	res, err := env.contactService.List(ctx, testutil.Actor(rep), 1, 20, &repository.ContactFilters{OwnerID: &other.ID}, repository.ContactSortByNameAsc)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)

	res, err = env.contactService.List(ctx, testutil.Actor(manager), 1, 20, nil, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)

	_, err = env.contactService.GetByID(ctx, testutil.Actor(other), mine.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	_, err = env.contactService.GetByID(ctx, testutil.Actor(viewer), viewed.ID)
	assert.NoError(t, err)

	err = env.contactService.Delete(ctx, testutil.Actor(viewer), viewed.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	require.NoError(t, env.contactService.Delete(ctx, testutil.Actor(manager), mine.ID))
	_, err = env.contactService.GetByID(ctx, testutil.Actor(rep), mine.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
