package payment

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/tindahan-dev/backend-tindahan/internal/common"
	"github.com/tindahan-dev/backend-tindahan/internal/obs"
	"github.com/tindahan-dev/backend-tindahan/internal/order"
)

// Handler exposes the payment intent endpoints.
type Handler struct {
	Gateway  Gateway
	Orders   order.Store
	Validate *validator.Validate
	Logger   zerolog.Logger
}

// NewHandler wires the payment endpoints.
func NewHandler(gw Gateway, orders order.Store, logger zerolog.Logger) *Handler {
	return &Handler{
		Gateway:  gw,
		Orders:   orders,
		Validate: validator.New(),
		Logger:   logger,
	}
}

type createIntentRequest struct {
	OrderID       string  `json:"orderId" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Description   string  `json:"description"`
	SuccessURL    string  `json:"successUrl" validate:"required,url"`
	CancelURL     string  `json:"cancelUrl" validate:"required,url"`
	CustomerEmail string  `json:"customerEmail" validate:"omitempty,email"`
	CustomerName  string  `json:"customerName"`
}

type createIntentResponse struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientKey       string `json:"clientKey"`
	OrderID         string `json:"orderId"`
}

// CreateIntent opens a gateway payment intent for an order. Amounts arrive in
// pesos and are converted to centavos before reaching the gateway.
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	if !h.Gateway.Configured() {
		obs.IncPaymentIntent("unconfigured")
		common.JSONError(w, http.StatusInternalServerError, common.CodeConfig, "gateway not configured", nil)
		return
	}
	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		obs.IncPaymentIntent("invalid")
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", nil)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		obs.IncPaymentIntent("invalid")
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", err.Error())
		return
	}
	centavos := int64(math.Round(req.Amount * 100))
	if centavos < 100 {
		obs.IncPaymentIntent("invalid")
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "Amount must be at least 1 PHP", nil)
		return
	}

	intent, err := h.Gateway.CreateIntent(r.Context(), IntentRequest{
		OrderID:       req.OrderID,
		Amount:        centavos,
		Description:   req.Description,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
	})
	if err != nil {
		h.renderGatewayError(w, err, "create payment intent failed")
		obs.IncPaymentIntent("error")
		return
	}

	if h.Orders != nil {
		if err := h.Orders.SetPaymentIntent(r.Context(), req.OrderID, intent.ID); err != nil {
			if !errors.Is(err, order.ErrNotFound) {
				h.Logger.Warn().Err(err).
					Str("order_id", req.OrderID).
					Str("payment_intent_id", intent.ID).
					Msg("failed to record payment intent on order")
			}
		}
	}

	obs.IncPaymentIntent("success")
	common.JSON(w, http.StatusOK, createIntentResponse{
		PaymentIntentID: intent.ID,
		ClientKey:       intent.ClientKey,
		OrderID:         req.OrderID,
	})
}

type attachEwalletRequest struct {
	ClientKey string `json:"clientKey" validate:"required"`
	ReturnURL string `json:"returnUrl" validate:"required,url"`
	Provider  string `json:"provider"`
}

// AttachEwallet binds an e-wallet to an existing intent. Gateway rejections
// surface as errors while declined payments come back 200 with an inline
// message so the storefront can let the shopper retry.
func (h *Handler) AttachEwallet(w http.ResponseWriter, r *http.Request) {
	if !h.Gateway.Configured() {
		common.JSONError(w, http.StatusInternalServerError, common.CodeConfig, "gateway not configured", nil)
		return
	}
	var req attachEwalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", nil)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", err.Error())
		return
	}
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider == "" {
		provider = "gcash"
	}

	result, err := h.Gateway.AttachEwallet(r.Context(), AttachRequest{
		ClientKey: req.ClientKey,
		ReturnURL: req.ReturnURL,
		Provider:  provider,
	})
	if err != nil {
		h.renderGatewayError(w, err, "e-wallet attach failed")
		obs.IncEwalletAttach(provider, "error")
		return
	}

	switch {
	case result.Succeeded:
		obs.IncEwalletAttach(provider, "succeeded")
		common.JSON(w, http.StatusOK, map[string]any{
			"redirectUrl": result.RedirectURL,
			"status":      "succeeded",
		})
	case result.FailureMessage != "":
		obs.IncEwalletAttach(provider, "declined")
		common.JSON(w, http.StatusOK, map[string]any{
			"error":  result.FailureMessage,
			"status": result.RawStatus,
		})
	default:
		obs.IncEwalletAttach(provider, "redirect")
		common.JSON(w, http.StatusOK, map[string]any{
			"redirectUrl": result.RedirectURL,
		})
	}
}

// Status reports the collapsed gateway status for an order's payment intent.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if !h.Gateway.Configured() {
		common.JSONError(w, http.StatusInternalServerError, common.CodeConfig, "gateway not configured", nil)
		return
	}
	orderID := chi.URLParam(r, "orderId")
	o, err := h.Orders.GetByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
			return
		}
		h.Logger.Error().Err(err).Str("order_id", orderID).Msg("payment status: load order")
		common.JSONError(w, http.StatusInternalServerError, common.CodeStore, "failed to load order", nil)
		return
	}
	if o.PaymentIntentID == "" {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order has no payment intent", nil)
		return
	}

	intent, err := h.Gateway.GetIntent(r.Context(), o.PaymentIntentID)
	if err != nil {
		h.renderGatewayError(w, err, "payment status lookup failed")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"orderId":         o.ID,
		"paymentIntentId": intent.ID,
		"status":          string(intent.Status),
	})
}

func (h *Handler) renderGatewayError(w http.ResponseWriter, err error, logMsg string) {
	if appErr, ok := common.AsAppError(err); ok {
		if appErr.Code != common.CodeValidation {
			h.Logger.Error().Err(err).Msg(logMsg)
		}
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	h.Logger.Error().Err(err).Msg(logMsg)
	common.JSONError(w, http.StatusInternalServerError, common.CodeGateway, "payment gateway error", nil)
}
