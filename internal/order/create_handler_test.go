package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type memCreator struct {
	created []Order
	err     error
}

func (m *memCreator) Create(_ context.Context, o Order) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, o)
	return nil
}

type paidRecorder struct {
	orders []Order
}

func (p *paidRecorder) OrderPaid(_ context.Context, o Order) error {
	p.orders = append(p.orders, o)
	return nil
}

func postCreate(t *testing.T, h *CreateHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestCreateOrder(t *testing.T) {
	creator := &memCreator{}
	notifier := &paidRecorder{}
	h := &CreateHandler{Store: creator, Notifier: notifier, Validate: validator.New(), Logger: zerolog.Nop()}

	rec := postCreate(t, h, `{"amount":1499,"paymentMethod":"gcash","customerEmail":"Ana@Example.com","customerName":"Ana"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp createOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, strings.HasPrefix(resp.ID, "ord_"))
	require.Equal(t, "pending", resp.Status)
	require.Equal(t, int64(149900), resp.Total)
	require.Equal(t, strings.ToUpper(resp.ID[len(resp.ID)-8:]), resp.Reference)

	require.Len(t, creator.created, 1)
	require.Equal(t, "ana@example.com", creator.created[0].CustomerEmail)
	require.Len(t, notifier.orders, 1)
	require.Equal(t, resp.ID, notifier.orders[0].ID)
}

func TestCreateOrderValidation(t *testing.T) {
	h := &CreateHandler{Store: &memCreator{}, Validate: validator.New(), Logger: zerolog.Nop()}

	cases := map[string]string{
		"bad json":         `{`,
		"missing email":    `{"amount":100,"paymentMethod":"gcash","customerName":"Ana"}`,
		"unknown method":   `{"amount":100,"paymentMethod":"paypal","customerEmail":"a@b.co","customerName":"Ana"}`,
		"sub-peso amount":  `{"amount":0.5,"paymentMethod":"gcash","customerEmail":"a@b.co","customerName":"Ana"}`,
		"negative amount":  `{"amount":-5,"paymentMethod":"gcash","customerEmail":"a@b.co","customerName":"Ana"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := postCreate(t, h, body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateOrderStoreFailure(t *testing.T) {
	h := &CreateHandler{
		Store:    &memCreator{err: context.DeadlineExceeded},
		Validate: validator.New(),
		Logger:   zerolog.Nop(),
	}
	rec := postCreate(t, h, `{"amount":100,"paymentMethod":"gcash","customerEmail":"a@b.co","customerName":"Ana"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
