package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter() chi.Router {
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }
	passthrough := func(next http.Handler) http.Handler { return next }

	r := chi.NewRouter()
	apiRoutes{
		Action:        ok,
		CreateOrder:   ok,
		CreateIntent:  ok,
		AttachEwallet: ok,
		IntentStatus:  ok,
		AdminList:     ok,
		AdminGet:      ok,
		AdminVerify:   ok,
		AdminReject:   ok,
		ActionLimiter: passthrough,
		Idempotency:   passthrough,
		RequireAdmin:  passthrough,
	}.mount(r)
	return r
}

func TestRoutesRejectWrongMethods(t *testing.T) {
	r := newTestRouter()

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/orders/action"},
		{http.MethodDelete, "/orders/action"},
		{http.MethodGet, "/api/v1/payments/intent"},
		{http.MethodGet, "/api/v1/payments/ewallet"},
		{http.MethodPost, "/api/v1/payments/pi_1/status"},
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/admin/orders/ord_1/verify"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRoutesServeExpectedMethods(t *testing.T) {
	r := newTestRouter()

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/orders/action"},
		{http.MethodPost, "/api/v1/orders"},
		{http.MethodPost, "/api/v1/payments/intent"},
		{http.MethodPost, "/api/v1/payments/ewallet"},
		{http.MethodGet, "/api/v1/payments/ord_1/status"},
		{http.MethodGet, "/api/v1/admin/orders"},
		{http.MethodPost, "/api/v1/admin/orders/ord_1/reject"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		require.Equal(t, http.StatusOK, rec.Code, "%s %s", tc.method, tc.path)
	}
}
