package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/http/handler"
	"github.com/straye-as/crm-api/internal/metrics"
	"github.com/straye-as/crm-api/internal/phone"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"github.com/straye-as/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type handlers struct {
	db       *gorm.DB
	user     *handler.UserHandler
	auth     *handler.AuthHandler
	contact  *handler.ContactHandler
	lead     *handler.LeadHandler
	deal     *handler.DealHandler
	activity *handler.ActivityHandler
	report   *handler.ReportHandler
}

// setupHandlers wires every handler against a fresh in-memory database without a report cache
func setupHandlers(t *testing.T) *handlers {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()
	m := metrics.New()
	phones := phone.NewNormalizer("NO")

	users := repository.NewUserRepository(db)
	contacts := repository.NewContactRepository(db)
	leads := repository.NewLeadRepository(db)
	deals := repository.NewDealRepository(db)
	history := repository.NewDealStageHistoryRepository(db)
	activities := repository.NewActivityRepository(db)

	userService := service.NewUserService(users, nil, log)
	return &handlers{
		db:       db,
		user:     handler.NewUserHandler(userService, log),
		auth:     handler.NewAuthHandler(userService, log),
		contact:  handler.NewContactHandler(service.NewContactService(contacts, users, phones, log), log),
		lead:     handler.NewLeadHandler(service.NewLeadService(leads, contacts, deals, users, phones, nil, m, log), log),
		deal:     handler.NewDealHandler(service.NewDealService(deals, history, users, contacts, leads, nil, m, log), log),
		activity: handler.NewActivityHandler(service.NewActivityService(activities, users, contacts, leads, deals, m, log), log),
		report:   handler.NewReportHandler(service.NewReportService(deals, activities, nil, time.Minute, m, log), log),
	}
}

// newRequest builds a request acting as actor. A nil actor leaves the request unauthenticated.
func newRequest(t *testing.T, method, target string, body interface{}, actor *auth.UserContext) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req = req.WithContext(auth.WithUserContext(req.Context(), actor))
	}
	return req
}

// withID sets the chi {id} URL parameter
func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func actorOf(u *domain.User) *auth.UserContext {
	return testutil.Actor(u)
}

func idOf(u *domain.User) *uuid.UUID {
	return &u.ID
}

func assertDecimal(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.NewFromInt(want).Equal(got), "want %d, got %s", want, got.String())
}
