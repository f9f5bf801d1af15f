package handler_test

import (
	"net/http"
	"testing"

	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactHandler_CRUD(t *testing.T) {
	h := setupHandlers(t)
	rep := testutil.CreateUser(t, h.db, domain.RoleRep)
	other := testutil.CreateUser(t, h.db, domain.RoleRep)

	body := map[string]interface{}{
		"firstName": " Kari ",
		"lastName":  "Nordmann",
		"email":     "KARI@example.com",
		"phone":     "22 12 34 56",
		"tags":      []string{"VIP", "vip", " partner "},
	}
	rr := serve(h.contact.Create, newRequest(t, http.MethodPost, "/contacts", body, actorOf(rep)))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	contact := decode[domain.ContactDTO](t, rr)
	assert.Equal(t, "Kari", contact.FirstName)
	assert.Equal(t, "kari@example.com", contact.Email)
	assert.Equal(t, "+4722123456", contact.Phone)
	id := contact.ID.String()

	rr = serve(h.contact.Create, newRequest(t, http.MethodPost, "/contacts", body, actorOf(rep)))
	assert.Equal(t, http.StatusConflict, rr.Code)

	bad := map[string]interface{}{"firstName": "A", "lastName": "B", "email": "a@b.no", "phone": "123"}
	rr = serve(h.contact.Create, newRequest(t, http.MethodPost, "/contacts", bad, actorOf(rep)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(h.contact.Create, newRequest(t, http.MethodPost, "/contacts", map[string]string{"firstName": "A"}, actorOf(rep)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	fields := decode[domain.APIError](t, rr).Errors
	assert.Contains(t, fields, "lastName")
	assert.Contains(t, fields, "email")

	rr = serve(h.contact.GetByID, withID(newRequest(t, http.MethodGet, "/", nil, actorOf(other)), id))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	update := map[string]interface{}{"firstName": "Kari", "lastName": "Hansen", "email": "kari@example.com", "tags": []string{}}
	rr = serve(h.contact.Update, withID(newRequest(t, http.MethodPut, "/", update, actorOf(rep)), id))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Hansen", decode[domain.ContactDTO](t, rr).LastName)

	rr = serve(h.contact.Delete, withID(newRequest(t, http.MethodDelete, "/", nil, actorOf(rep)), id))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
