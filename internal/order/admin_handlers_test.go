package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/rs/zerolog"
)

func newAdminRouter(store Store, notifier DecisionNotifier) *chi.Mux {
	h := &AdminHandler{
		Store:    store,
		Notifier: notifier,
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) },
	}
	r := chi.NewRouter()
	r.Get("/orders", h.ListPending)
	r.Get("/orders/{id}", h.Get)
	r.Post("/orders/{id}/verify", h.Verify)
	r.Post("/orders/{id}/reject", h.Reject)
	return r
}

func TestAdminListPending(t *testing.T) {
	store := newMemStore(
		Order{ID: "ord_1", Status: StatusPending},
		Order{ID: "ord_2", Status: StatusVerified},
	)
	router := newAdminRouter(store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Orders []adminOrderView `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 1)
	require.Equal(t, "ord_1", resp.Orders[0].ID)
	require.Equal(t, "pending", resp.Orders[0].Status)
}

func TestAdminListPendingRejectsBadLimit(t *testing.T) {
	router := newAdminRouter(newMemStore(), nil)
	for _, limit := range []string{"0", "-1", "9999", "abc"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders?limit="+limit, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, "limit %q", limit)
	}
}

func TestAdminGetOrder(t *testing.T) {
	store := newMemStore(Order{
		ID:            "ord_9fc3d479ab",
		Status:        StatusPending,
		PaymentMethod: MethodGCash,
		Total:         149900,
		CustomerEmail: "shopper@example.com",
	})
	router := newAdminRouter(store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/ord_9fc3d479ab", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var view adminOrderView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "C3D479AB", view.Reference)
	require.Equal(t, int64(149900), view.Total)
}

func TestAdminGetOrderNotFound(t *testing.T) {
	router := newAdminRouter(newMemStore(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/ord_missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminVerifyPendingOrder(t *testing.T) {
	store := newMemStore(Order{ID: "ord_1", Status: StatusPending})
	notifier := &recordingNotifier{}
	router := newAdminRouter(store, notifier)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/ord_1/verify", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var view adminOrderView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "verified", view.Status)
	require.True(t, view.AccessGranted)
	require.NotNil(t, view.VerifiedAt)

	require.Equal(t, StatusVerified, store.orders["ord_1"].Status)
	require.Equal(t, []Action{ActionVerify}, notifier.decided)
}

func TestAdminRejectPendingOrder(t *testing.T) {
	store := newMemStore(Order{ID: "ord_1", Status: StatusPending})
	router := newAdminRouter(store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/ord_1/reject", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, StatusRejected, store.orders["ord_1"].Status)
}

func TestAdminDecisionOnTerminalOrderConflicts(t *testing.T) {
	store := newMemStore(
		Order{ID: "ord_v", Status: StatusVerified},
		Order{ID: "ord_r", Status: StatusRejected},
	)
	router := newAdminRouter(store, nil)

	cases := []struct {
		path    string
		message string
	}{
		{"/orders/ord_v/verify", "already verified"},
		{"/orders/ord_v/reject", "already verified"},
		{"/orders/ord_r/verify", "already rejected"},
		{"/orders/ord_r/reject", "already rejected"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tc.path, nil))
		require.Equal(t, http.StatusConflict, rec.Code, tc.path)
		require.Contains(t, rec.Body.String(), tc.message, tc.path)
	}
	require.Empty(t, store.applied)
}

func TestAdminDecisionLostRaceConflicts(t *testing.T) {
	store := newMemStore(Order{ID: "ord_1", Status: StatusPending})
	store.applyErr = ErrStale
	router := newAdminRouter(store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/ord_1/verify", nil))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminDecisionStoreFailure(t *testing.T) {
	store := newMemStore(Order{ID: "ord_1", Status: StatusPending})
	store.getErr = context.DeadlineExceeded
	router := newAdminRouter(store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/ord_1/verify", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
