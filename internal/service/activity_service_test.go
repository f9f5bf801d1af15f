package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"github.com/straye-as/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityService_SetCompleted(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	rep := testutil.CreateUser(t, env.db, domain.RoleRep)
	actor := testutil.Actor(rep)
	activity := testutil.CreateActivity(t, env.db, &rep.ID, &rep.ID, nil)

	dto, err := env.activityService.SetCompleted(ctx, actor, activity.ID, true)
	require.NoError(t, err)
	assert.True(t, dto.IsCompleted)
	require.NotNil(t, dto.CompletedAt)

	stored, err := env.activities.GetByID(ctx, activity.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted)
	assert.NotNil(t, stored.CompletedAt)

	dto, err = env.activityService.SetCompleted(ctx, actor, activity.ID, false)
	require.NoError(t, err)
	assert.False(t, dto.IsCompleted)
	assert.Nil(t, dto.CompletedAt)

	stored, err = env.activities.GetByID(ctx, activity.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsCompleted)
	assert.Nil(t, stored.CompletedAt)

	assert.Equal(t, 1.0, counterValue(t, env.metrics.ActivitiesCompleted))
}

func TestActivityService_Access(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	u1 := testutil.CreateUser(t, env.db, domain.RoleRep)
	u2 := testutil.CreateUser(t, env.db, domain.RoleRep)
	u3 := testutil.CreateUser(t, env.db, domain.RoleRep)
	manager := testutil.CreateUser(t, env.db, domain.RoleManager)

	activity := testutil.CreateActivity(t, env.db, &u2.ID, &u3.ID, nil)

	t.Run("unrelated rep is denied", func(t *testing.T) {
		_, err := env.activityService.GetByID(ctx, testutil.Actor(u1), activity.ID)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("assignee and creator may read", func(t *testing.T) {
		_, err := env.activityService.GetByID(ctx, testutil.Actor(u2), activity.ID)
		assert.NoError(t, err)
		_, err = env.activityService.GetByID(ctx, testutil.Actor(u3), activity.ID)
		assert.NoError(t, err)
	})

	t.Run("manager may complete any activity", func(t *testing.T) {
		_, err := env.activityService.SetCompleted(ctx, testutil.Actor(manager), activity.ID, true)
		assert.NoError(t, err)
	})

	t.Run("listing is scoped for reps", func(t *testing.T) {
		res, err := env.activityService.List(ctx, testutil.Actor(u1), 1, 20, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.Total)

		res, err = env.activityService.List(ctx, testutil.Actor(u3), 1, 20, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Total)
	})
}

func TestActivityService_CreateAndUpdate(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	rep := testutil.CreateUser(t, env.db, domain.RoleRep)
	actor := testutil.Actor(rep)

	dto, err := env.activityService.Create(ctx, actor, &domain.CreateActivityRequest{
		Title:       "Kickoff",
		Type:        domain.ActivityTypeMeeting,
		IsCompleted: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ActivityPriorityMedium, dto.Priority)
	assert.True(t, dto.IsCompleted)
	require.NotNil(t, dto.CompletedAt)
	assert.Equal(t, rep.ID, *dto.AssigneeID)
	assert.Equal(t, rep.ID, *dto.CreatedByID)

	t.Run("put reopening clears completedAt", func(t *testing.T) {
		updated, err := env.activityService.Update(ctx, actor, dto.ID, &domain.UpdateActivityRequest{
			Title:       "Kickoff",
			Type:        domain.ActivityTypeMeeting,
			Priority:    domain.ActivityPriorityHigh,
			IsCompleted: testutil.Ptr(false),
		})
		require.NoError(t, err)
		assert.False(t, updated.IsCompleted)
		assert.Nil(t, updated.CompletedAt)
		assert.Equal(t, domain.ActivityPriorityHigh, updated.Priority)
	})

	t.Run("put without isCompleted leaves completion alone", func(t *testing.T) {
		_, err := env.activityService.SetCompleted(ctx, actor, dto.ID, true)
		require.NoError(t, err)

		updated, err := env.activityService.Update(ctx, actor, dto.ID, &domain.UpdateActivityRequest{
			Title:    "Kickoff v2",
			Type:     domain.ActivityTypeMeeting,
			Priority: domain.ActivityPriorityLow,
		})
		require.NoError(t, err)
		assert.True(t, updated.IsCompleted)
		assert.NotNil(t, updated.CompletedAt)
	})

	t.Run("read only cannot create", func(t *testing.T) {
		viewer := testutil.CreateUser(t, env.db, domain.RoleReadOnly)
		_, err := env.activityService.Create(ctx, testutil.Actor(viewer), &domain.CreateActivityRequest{
			Title: "Nope",
			Type:  domain.ActivityTypeNote,
		})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})
}

func TestActivityService_ListStatusFilter(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	manager := testutil.CreateUser(t, env.db, domain.RoleManager)
	actor := testutil.Actor(manager)

	past := time.Now().UTC().Add(-48 * time.Hour)
	future := time.Now().UTC().Add(48 * time.Hour)

	testutil.CreateActivity(t, env.db, &manager.ID, &manager.ID, &past)
	testutil.CreateActivity(t, env.db, &manager.ID, &manager.ID, &future)
	done := testutil.CreateActivity(t, env.db, &manager.ID, &manager.ID, &past)
	_, err := env.activityService.SetCompleted(ctx, actor, done.ID, true)
	require.NoError(t, err)

	cases := map[repository.ActivityStatus]int64{
		repository.ActivityStatusPending:   2,
		repository.ActivityStatusCompleted: 1,
		repository.ActivityStatusOverdue:   1,
	}
	for status, want := range cases {
		t.Run(string(status), func(t *testing.T) {
			res, err := env.activityService.List(ctx, actor, 1, 20, &repository.ActivityFilters{Status: status})
			require.NoError(t, err)
			assert.Equal(t, want, res.Total)
		})
	}

	stats, err := env.reportService.ActivityStats(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, &domain.ActivityStatsDTO{Pending: 2, Completed: 1, Overdue: 1}, stats)
}
