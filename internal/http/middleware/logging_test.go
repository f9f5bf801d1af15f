package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging_RequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var seen string
	h := middleware.Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	t.Run("generated", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/deals", nil))

		id := rr.Header().Get(middleware.RequestIDHeader)
		assert.NotEmpty(t, id)
		assert.Equal(t, id, seen)

		entry := logs.TakeAll()
		require.Len(t, entry, 1)
		fields := entry[0].ContextMap()
		assert.Equal(t, id, fields["request_id"])
		assert.Equal(t, int64(http.StatusTeapot), fields["status_code"])
		assert.Equal(t, int64(len("short and stout")), fields["response_size"])
		assert.Equal(t, "/api/v1/deals", fields["path"])
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.RequestIDHeader, "abc-123")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, "abc-123", rr.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "abc-123", seen)
		logs.TakeAll()
	})
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := middleware.Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/explode", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "panic recovered", logs.All()[0].Message)
}

func TestRecovery_AbortHandlerPropagates(t *testing.T) {
	h := middleware.Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.Panics(t, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
