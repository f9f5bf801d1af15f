package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/service"
	"github.com/straye-as/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_ChangeRole(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	manager := testutil.CreateUser(t, env.db, domain.RoleManager)
	rep := testutil.CreateUser(t, env.db, domain.RoleRep)

	t.Run("manager cannot grant admin", func(t *testing.T) {
		_, err := env.userService.ChangeRole(ctx, testutil.Actor(manager), rep.ID, domain.RoleAdmin)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)

		stored, err := env.users.GetByID(ctx, rep.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleRep, stored.Role)
	})

	t.Run("manager may demote rep to read only", func(t *testing.T) {
		dto, err := env.userService.ChangeRole(ctx, testutil.Actor(manager), rep.ID, domain.RoleReadOnly)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleReadOnly, dto.Role)
	})

	t.Run("manager cannot touch another manager", func(t *testing.T) {
		other := testutil.CreateUser(t, env.db, domain.RoleManager)
		_, err := env.userService.ChangeRole(ctx, testutil.Actor(manager), other.ID, domain.RoleRep)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("users cannot change their own role", func(t *testing.T) {
		_, err := env.userService.ChangeRole(ctx, testutil.Actor(manager), manager.ID, domain.RoleAdmin)
		assert.ErrorIs(t, err, service.ErrCannotModifySelf)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("rep cannot change roles", func(t *testing.T) {
		other := testutil.CreateUser(t, env.db, domain.RoleRep)
		target := testutil.CreateUser(t, env.db, domain.RoleReadOnly)
		_, err := env.userService.ChangeRole(ctx, testutil.Actor(other), target.ID, domain.RoleRep)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})
}

func TestUserService_LastAdmin(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, env.db, domain.RoleAdmin)
	system := auth.NewSystemContext()

	_, err := env.userService.ChangeRole(ctx, system, admin.ID, domain.RoleManager)
	assert.ErrorIs(t, err, service.ErrCannotRemoveLastAdmin)
	assert.ErrorIs(t, err, service.ErrConflict)

	_, err = env.userService.SetActive(ctx, system, admin.ID, false)
	assert.ErrorIs(t, err, service.ErrCannotRemoveLastAdmin)

	err = env.userService.Delete(ctx, system, admin.ID, nil)
	assert.ErrorIs(t, err, service.ErrCannotRemoveLastAdmin)

	second := testutil.CreateUser(t, env.db, domain.RoleAdmin)
	dto, err := env.userService.ChangeRole(ctx, testutil.Actor(second), admin.ID, domain.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, dto.Role)

	_, err = env.userService.SetActive(ctx, system, second.ID, false)
	assert.ErrorIs(t, err, service.ErrCannotRemoveLastAdmin)
}

func TestUserService_Create(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	manager := testutil.CreateUser(t, env.db, domain.RoleManager)

	dto, err := env.userService.Create(ctx, testutil.Actor(manager), &domain.CreateUserRequest{
		Name:  "New Rep",
		Email: "New.Rep@Example.com",
		Role:  domain.RoleRep,
	})
	require.NoError(t, err)
	assert.Equal(t, "new.rep@example.com", dto.Email)
	assert.True(t, dto.IsActive)

	_, err = env.userService.Create(ctx, testutil.Actor(manager), &domain.CreateUserRequest{
		Name:  "Dup",
		Email: "new.rep@example.com",
		Role:  domain.RoleRep,
	})
	assert.ErrorIs(t, err, service.ErrConflict)

	_, err = env.userService.Create(ctx, testutil.Actor(manager), &domain.CreateUserRequest{
		Name:  "Boss",
		Email: "boss@example.com",
		Role:  domain.RoleManager,
	})
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
}

func TestUserService_SetActive(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, env.db, domain.RoleAdmin)
	rep := testutil.CreateUser(t, env.db, domain.RoleRep)

	dto, err := env.userService.SetActive(ctx, testutil.Actor(admin), rep.ID, false)
	require.NoError(t, err)
	assert.False(t, dto.IsActive)

	t.Run("deactivated users cannot be assigned records", func(t *testing.T) {
		_, err := env.dealService.Create(ctx, testutil.Actor(admin), &domain.CreateDealRequest{
			Title:   "For inactive",
			Value:   decimal.NewFromInt(100),
			OwnerID: &rep.ID,
		})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "ownerId")
	})

	t.Run("self deactivation is rejected", func(t *testing.T) {
		_, err := env.userService.SetActive(ctx, testutil.Actor(admin), admin.ID, false)
		assert.ErrorIs(t, err, service.ErrCannotModifySelf)
	})
}

func TestUserService_Delete(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, env.db, domain.RoleAdmin)

	t.Run("transfers records", func(t *testing.T) {
		leaving := testutil.CreateUser(t, env.db, domain.RoleRep)
		heir := testutil.CreateUser(t, env.db, domain.RoleRep)
		deal := testutil.CreateDeal(t, env.db, &leaving.ID, domain.DealStageProposal, 1000)
		activity := testutil.CreateActivity(t, env.db, &leaving.ID, &leaving.ID, nil)

		require.NoError(t, env.userService.Delete(ctx, testutil.Actor(admin), leaving.ID, &heir.ID))

		storedDeal, err := env.deals.GetByID(ctx, deal.ID)
		require.NoError(t, err)
		require.NotNil(t, storedDeal.OwnerID)
		assert.Equal(t, heir.ID, *storedDeal.OwnerID)

		storedActivity, err := env.activities.GetByID(ctx, activity.ID)
		require.NoError(t, err)
		assert.Equal(t, heir.ID, *storedActivity.AssigneeID)
		assert.Equal(t, heir.ID, *storedActivity.CreatedByID)

		_, err = env.userService.GetByID(ctx, testutil.Actor(admin), leaving.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("clears references without transfer", func(t *testing.T) {
		leaving := testutil.CreateUser(t, env.db, domain.RoleRep)
		contact := testutil.CreateContact(t, env.db, &leaving.ID)

		require.NoError(t, env.userService.Delete(ctx, testutil.Actor(admin), leaving.ID, nil))

		stored, err := env.contacts.GetByID(ctx, contact.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.OwnerID)
	})

	t.Run("rejects transfer to the deleted user", func(t *testing.T) {
		leaving := testutil.CreateUser(t, env.db, domain.RoleRep)
		err := env.userService.Delete(ctx, testutil.Actor(admin), leaving.ID, &leaving.ID)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "transferUserId")
	})

	t.Run("rejects unknown transfer user", func(t *testing.T) {
		leaving := testutil.CreateUser(t, env.db, domain.RoleRep)
		missing := uuid.New()
		err := env.userService.Delete(ctx, testutil.Actor(admin), leaving.ID, &missing)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("unknown user", func(t *testing.T) {
		err := env.userService.Delete(ctx, testutil.Actor(admin), uuid.New(), nil)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestUserService_PipelineCache(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, env.db, domain.RoleAdmin)
	leaving := testutil.CreateUser(t, env.db, domain.RoleRep)
	heir := testutil.CreateUser(t, env.db, domain.RoleRep)
	bystander := testutil.CreateUser(t, env.db, domain.RoleRep)
	testutil.CreateDeal(t, env.db, &leaving.ID, domain.DealStageProposal, 1000)

	key := func(id *uuid.UUID) string {
		if id == nil {
			return "test:reports:pipeline:all"
		}
		return "test:reports:pipeline:" + id.String()
	}
	warm := func(t *testing.T, users ...*domain.User) {
		t.Helper()
		for _, u := range users {
			_, err := env.reportService.PipelineSummary(ctx, testutil.Actor(u))
			require.NoError(t, err)
		}
	}

	t.Run("role change keeps cached summaries", func(t *testing.T) {
		warm(t, admin, bystander)

		_, err := env.userService.ChangeRole(ctx, testutil.Actor(admin), bystander.ID, domain.RoleReadOnly)
		require.NoError(t, err)

		assert.True(t, env.redis.Exists(key(nil)))
		assert.True(t, env.redis.Exists(key(&bystander.ID)))
	})

	t.Run("delete drops only the affected scopes", func(t *testing.T) {
		warm(t, admin, leaving, heir, bystander)

		require.NoError(t, env.userService.Delete(ctx, testutil.Actor(admin), leaving.ID, &heir.ID))

		assert.False(t, env.redis.Exists(key(nil)))
		assert.False(t, env.redis.Exists(key(&leaving.ID)))
		assert.False(t, env.redis.Exists(key(&heir.ID)))
		assert.True(t, env.redis.Exists(key(&bystander.ID)))

		summary, err := env.reportService.PipelineSummary(ctx, testutil.Actor(heir))
		require.NoError(t, err)
		assert.Equal(t, int64(1), summary.OpenDeals)
	})
}
