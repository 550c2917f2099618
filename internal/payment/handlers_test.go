package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tindahan-dev/backend-tindahan/internal/common"
	"github.com/tindahan-dev/backend-tindahan/internal/order"
)

type stubGateway struct {
	configured bool
	intent     Intent
	intentErr  error
	attach     AttachResult
	attachErr  error
	lastIntent IntentRequest
	lastAttach AttachRequest
}

func (s *stubGateway) CreateIntent(_ context.Context, req IntentRequest) (Intent, error) {
	s.lastIntent = req
	return s.intent, s.intentErr
}

func (s *stubGateway) AttachEwallet(_ context.Context, req AttachRequest) (AttachResult, error) {
	s.lastAttach = req
	return s.attach, s.attachErr
}

func (s *stubGateway) GetIntent(_ context.Context, _ string) (Intent, error) {
	return s.intent, s.intentErr
}

func (s *stubGateway) Configured() bool { return s.configured }

type stubOrderStore struct {
	orders        map[string]order.Order
	intentByOrder map[string]string
	setErr        error
}

func (s *stubOrderStore) GetByID(_ context.Context, id string) (order.Order, error) {
	if o, ok := s.orders[id]; ok {
		return o, nil
	}
	return order.Order{}, order.ErrNotFound
}

func (s *stubOrderStore) ApplyDecision(context.Context, string, order.Patch) error { return nil }

func (s *stubOrderStore) SetPaymentIntent(_ context.Context, orderID, intentID string) error {
	if s.setErr != nil {
		return s.setErr
	}
	if s.intentByOrder == nil {
		s.intentByOrder = map[string]string{}
	}
	s.intentByOrder[orderID] = intentID
	return nil
}

func (s *stubOrderStore) ListPending(context.Context, int32) ([]order.Order, error) {
	return nil, nil
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestCreateIntentHandlerHappyPath(t *testing.T) {
	gw := &stubGateway{
		configured: true,
		intent:     Intent{ID: "pi_123", ClientKey: "pi_123_client_xyz", Status: IntentAwaitingAction},
	}
	store := &stubOrderStore{}
	h := NewHandler(gw, store, zerolog.Nop())

	rec := postJSON(t, h.CreateIntent, `{"orderId":"ord_1","amount":1499,"successUrl":"https://store.example/paid","cancelUrl":"https://store.example/cancelled"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp createIntentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "pi_123", resp.PaymentIntentID)
	require.Equal(t, "pi_123_client_xyz", resp.ClientKey)
	require.Equal(t, "ord_1", resp.OrderID)

	require.Equal(t, int64(149900), gw.lastIntent.Amount)
	require.Equal(t, "https://store.example/paid", gw.lastIntent.SuccessURL)
	require.Equal(t, "https://store.example/cancelled", gw.lastIntent.CancelURL)
	require.Equal(t, "pi_123", store.intentByOrder["ord_1"])
}

func TestCreateIntentHandlerRequiresRedirectURLs(t *testing.T) {
	gw := &stubGateway{configured: true}
	h := NewHandler(gw, &stubOrderStore{}, zerolog.Nop())

	bodies := map[string]string{
		"no urls":       `{"orderId":"ord_1","amount":1499}`,
		"no successUrl": `{"orderId":"ord_1","amount":1499,"cancelUrl":"https://store.example/cancelled"}`,
		"no cancelUrl":  `{"orderId":"ord_1","amount":1499,"successUrl":"https://store.example/paid"}`,
		"not a url":     `{"orderId":"ord_1","amount":1499,"successUrl":"paid","cancelUrl":"https://store.example/cancelled"}`,
	}
	for name, body := range bodies {
		rec := postJSON(t, h.CreateIntent, body)
		require.Equal(t, http.StatusBadRequest, rec.Code, name)
		require.Empty(t, gw.lastIntent.OrderID, name)
	}
}

func TestCreateIntentHandlerAmountFloor(t *testing.T) {
	gw := &stubGateway{configured: true}
	h := NewHandler(gw, &stubOrderStore{}, zerolog.Nop())

	rec := postJSON(t, h.CreateIntent, `{"orderId":"ord_1","amount":0.5,"successUrl":"https://store.example/paid","cancelUrl":"https://store.example/cancelled"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Amount must be at least 1 PHP")
	require.Empty(t, gw.lastIntent.OrderID)
}

func TestCreateIntentHandlerUnconfiguredGateway(t *testing.T) {
	h := NewHandler(&stubGateway{configured: false}, &stubOrderStore{}, zerolog.Nop())

	rec := postJSON(t, h.CreateIntent, `{"orderId":"ord_1","amount":1499,"successUrl":"https://store.example/paid","cancelUrl":"https://store.example/cancelled"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "gateway not configured")
}

func TestCreateIntentHandlerMissingOrderID(t *testing.T) {
	h := NewHandler(&stubGateway{configured: true}, &stubOrderStore{}, zerolog.Nop())

	rec := postJSON(t, h.CreateIntent, `{"amount":1499,"successUrl":"https://store.example/paid","cancelUrl":"https://store.example/cancelled"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateIntentHandlerGatewayFailure(t *testing.T) {
	gw := &stubGateway{
		configured: true,
		intentErr:  common.GatewayError("amount is below the minimum", nil),
	}
	h := NewHandler(gw, &stubOrderStore{}, zerolog.Nop())

	rec := postJSON(t, h.CreateIntent, `{"orderId":"ord_1","amount":1499,"successUrl":"https://store.example/paid","cancelUrl":"https://store.example/cancelled"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "amount is below the minimum")
}

func TestCreateIntentHandlerSurvivesStoreFailure(t *testing.T) {
	gw := &stubGateway{configured: true, intent: Intent{ID: "pi_5", ClientKey: "pi_5_client_k"}}
	store := &stubOrderStore{setErr: context.DeadlineExceeded}
	h := NewHandler(gw, store, zerolog.Nop())

	rec := postJSON(t, h.CreateIntent, `{"orderId":"ord_1","amount":1499,"successUrl":"https://store.example/paid","cancelUrl":"https://store.example/cancelled"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAttachEwalletHandlerRedirect(t *testing.T) {
	gw := &stubGateway{
		configured: true,
		attach:     AttachResult{RedirectURL: "https://pay.example/redirect", RawStatus: "awaiting_next_action"},
	}
	h := NewHandler(gw, &stubOrderStore{}, zerolog.Nop())

	rec := postJSON(t, h.AttachEwallet, `{"clientKey":"pi_1_client_k","returnUrl":"https://store.example/thanks","provider":"GCash"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "https://pay.example/redirect", resp["redirectUrl"])
	require.NotContains(t, resp, "error")
	require.Equal(t, "gcash", gw.lastAttach.Provider)
}

func TestAttachEwalletHandlerImmediateSuccess(t *testing.T) {
	gw := &stubGateway{
		configured: true,
		attach:     AttachResult{RedirectURL: "https://store.example/thanks", Succeeded: true, RawStatus: "succeeded"},
	}
	h := NewHandler(gw, &stubOrderStore{}, zerolog.Nop())

	rec := postJSON(t, h.AttachEwallet, `{"clientKey":"pi_1_client_k","returnUrl":"https://store.example/thanks"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "succeeded", resp["status"])
	require.Equal(t, "https://store.example/thanks", resp["redirectUrl"])
}

func TestAttachEwalletHandlerSoftFailure(t *testing.T) {
	gw := &stubGateway{
		configured: true,
		attach:     AttachResult{FailureMessage: "The account has insufficient funds.", RawStatus: "awaiting_payment_method"},
	}
	h := NewHandler(gw, &stubOrderStore{}, zerolog.Nop())

	rec := postJSON(t, h.AttachEwallet, `{"clientKey":"pi_1_client_k","returnUrl":"https://store.example/thanks"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "The account has insufficient funds.", resp["error"])
	require.Equal(t, "awaiting_payment_method", resp["status"])
	require.NotContains(t, resp, "redirectUrl")
}

func TestStatusHandler(t *testing.T) {
	gw := &stubGateway{
		configured: true,
		intent:     Intent{ID: "pi_1", Status: IntentSucceeded, RawStatus: "succeeded"},
	}
	store := &stubOrderStore{orders: map[string]order.Order{
		"ord_1": {ID: "ord_1", PaymentIntentID: "pi_1"},
		"ord_2": {ID: "ord_2"},
	}}
	h := NewHandler(gw, store, zerolog.Nop())

	router := chi.NewRouter()
	router.Get("/payments/{orderId}/status", h.Status)

	t.Run("succeeded intent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/ord_1/status", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "succeeded", resp["status"])
		require.Equal(t, "pi_1", resp["paymentIntentId"])
	})

	t.Run("order without intent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/ord_2/status", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown order", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/ord_missing/status", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAttachEwalletHandlerValidation(t *testing.T) {
	h := NewHandler(&stubGateway{configured: true}, &stubOrderStore{}, zerolog.Nop())

	rec := postJSON(t, h.AttachEwallet, `{"returnUrl":"https://store.example/thanks"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
