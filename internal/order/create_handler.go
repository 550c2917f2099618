package order

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tindahan-dev/backend-tindahan/internal/common"
)

// Creator inserts new order records.
type Creator interface {
	Create(ctx context.Context, o Order) error
}

// PaidNotifier is told about orders entering review so the admin
// action-link email can be sent.
type PaidNotifier interface {
	OrderPaid(ctx context.Context, o Order) error
}

// CreateHandler accepts storefront checkouts and opens a pending order.
type CreateHandler struct {
	Store    Creator
	Notifier PaidNotifier
	Validate *validator.Validate
	Logger   zerolog.Logger
	Now      func() time.Time
}

type createOrderRequest struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"paymentMethod" validate:"required,oneof=paymongo gcash maya gotyme"`
	CustomerEmail string  `json:"customerEmail" validate:"required,email"`
	CustomerName  string  `json:"customerName" validate:"required"`
}

type createOrderResponse struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Total     int64  `json:"total"`
}

// Handle processes POST /orders.
func (h *CreateHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", nil)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", err.Error())
		return
	}
	centavos := int64(math.Round(req.Amount * 100))
	if centavos < 100 {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "Amount must be at least 1 PHP", nil)
		return
	}

	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	o := Order{
		ID:            "ord_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Status:        StatusPending,
		PaymentMethod: Method(req.PaymentMethod),
		Total:         centavos,
		CustomerEmail: strings.TrimSpace(strings.ToLower(req.CustomerEmail)),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CreatedAt:     now.UTC(),
	}

	if err := h.Store.Create(r.Context(), o); err != nil {
		h.Logger.Error().Err(err).Str("order_id", o.ID).Msg("create order")
		common.JSONError(w, http.StatusInternalServerError, common.CodeStore, "failed to create order", nil)
		return
	}

	if h.Notifier != nil {
		if err := h.Notifier.OrderPaid(r.Context(), o); err != nil {
			h.Logger.Warn().Err(err).Str("order_id", o.ID).Msg("enqueue action link email")
		}
	}

	common.JSON(w, http.StatusCreated, createOrderResponse{
		ID:        o.ID,
		Reference: o.Reference(),
		Status:    string(o.Status),
		Total:     o.Total,
	})
}
