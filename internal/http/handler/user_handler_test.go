package handler_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_ChangeRole(t *testing.T) {
	h := setupHandlers(t)
	admin := testutil.CreateUser(t, h.db, domain.RoleAdmin)
	manager := testutil.CreateUser(t, h.db, domain.RoleManager)
	rep := testutil.CreateUser(t, h.db, domain.RoleRep)

	change := func(actor *auth.UserContext, target uuid.UUID, role string) int {
		req := newRequest(t, http.MethodPut, "/users/"+target.String()+"/role", map[string]string{"role": role}, actor)
		return serve(h.user.ChangeRole, withID(req, target.String())).Code
	}

	tests := []struct {
		name   string
		actor  *auth.UserContext
		target uuid.UUID
		role   string
		want   int
	}{
		{"manager cannot grant admin", actorOf(manager), rep.ID, "ADMIN", http.StatusForbidden},
		{"manager demotes rep", actorOf(manager), rep.ID, "READ_ONLY", http.StatusOK},
		{"rep cannot change roles", actorOf(rep), manager.ID, "REP", http.StatusForbidden},
		{"unknown role", actorOf(admin), rep.ID, "OWNER", http.StatusBadRequest},
		{"self change", actorOf(admin), admin.ID, "MANAGER", http.StatusBadRequest},
		{"last admin", auth.NewSystemContext(), admin.ID, "MANAGER", http.StatusConflict},
		{"unknown user", actorOf(admin), uuid.New(), "REP", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, change(tt.actor, tt.target, tt.role))
		})
	}
}

func TestUserHandler_CreateAndDeactivate(t *testing.T) {
	h := setupHandlers(t)
	admin := testutil.CreateUser(t, h.db, domain.RoleAdmin)

	body := map[string]string{"name": "Ola Nordmann", "email": "Ola@Example.com", "role": "REP"}
	rr := serve(h.user.Create, newRequest(t, http.MethodPost, "/users", body, actorOf(admin)))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[domain.UserDTO](t, rr)
	assert.Equal(t, "ola@example.com", created.Email)
	assert.True(t, created.IsActive)

	rr = serve(h.user.Create, newRequest(t, http.MethodPost, "/users", body, actorOf(admin)))
	assert.Equal(t, http.StatusConflict, rr.Code)

	id := created.ID.String()
	rr = serve(h.user.SetActive, withID(newRequest(t, http.MethodPut, "/", map[string]bool{"isActive": false}, actorOf(admin)), id))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decode[domain.UserDTO](t, rr).IsActive)

	rr = serve(h.user.SetActive, withID(newRequest(t, http.MethodPut, "/", map[string]interface{}{}, actorOf(admin)), id))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[domain.APIError](t, rr).Errors, "isActive")
}

func TestUserHandler_DeleteWithTransfer(t *testing.T) {
	h := setupHandlers(t)
	admin := testutil.CreateUser(t, h.db, domain.RoleAdmin)
	leaving := testutil.CreateUser(t, h.db, domain.RoleRep)
	heir := testutil.CreateUser(t, h.db, domain.RoleRep)
	deal := testutil.CreateDeal(t, h.db, idOf(leaving), domain.DealStageProposal, 100)

	rr := serve(h.user.Delete, withID(newRequest(t, http.MethodDelete, "/?transferUserId=nope", nil, actorOf(admin)), leaving.ID.String()))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	target := "/users/" + leaving.ID.String() + "?transferUserId=" + heir.ID.String()
	rr = serve(h.user.Delete, withID(newRequest(t, http.MethodDelete, target, nil, actorOf(admin)), leaving.ID.String()))
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	var stored domain.Deal
	require.NoError(t, h.db.First(&stored, "id = ?", deal.ID).Error)
	require.NotNil(t, stored.OwnerID)
	assert.Equal(t, heir.ID, *stored.OwnerID)

	rr = serve(h.user.GetByID, withID(newRequest(t, http.MethodGet, "/", nil, actorOf(admin)), leaving.ID.String()))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAuthHandler_Me(t *testing.T) {
	h := setupHandlers(t)
	rep := testutil.CreateUser(t, h.db, domain.RoleRep)

	rr := serve(h.auth.Me, newRequest(t, http.MethodGet, "/auth/me", nil, actorOf(rep)))
	require.Equal(t, http.StatusOK, rr.Code)
	me := decode[domain.UserDTO](t, rr)
	assert.Equal(t, rep.ID, me.ID)
	assert.Equal(t, domain.RoleRep, me.Role)

	rr = serve(h.auth.Me, newRequest(t, http.MethodGet, "/auth/me", nil, auth.NewSystemContext()))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.RoleAdmin, decode[domain.UserDTO](t, rr).Role)

	rr = serve(h.auth.Me, newRequest(t, http.MethodGet, "/auth/me", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
