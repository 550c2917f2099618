package order

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tindahan-dev/backend-tindahan/internal/common"
)

// AdminHandler provides the JSON order endpoints behind admin authentication.
// Decisions flow through the same state machine as the email action link, so
// a dashboard click and a mail click can never disagree about terminal states.
type AdminHandler struct {
	Store    Store
	Notifier DecisionNotifier
	Logger   zerolog.Logger
	Now      func() time.Time
}

type adminOrderView struct {
	ID              string     `json:"id"`
	Reference       string     `json:"reference"`
	Status          string     `json:"status"`
	PaymentMethod   string     `json:"paymentMethod"`
	PaymentIntentID string     `json:"paymentIntentId,omitempty"`
	AccessGranted   bool       `json:"accessGranted"`
	Total           int64      `json:"total"`
	CustomerEmail   string     `json:"customerEmail"`
	CustomerName    string     `json:"customerName"`
	VerifiedAt      *time.Time `json:"verifiedAt,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func adminView(o Order) adminOrderView {
	return adminOrderView{
		ID:              o.ID,
		Reference:       o.Reference(),
		Status:          string(o.Status),
		PaymentMethod:   string(o.PaymentMethod),
		PaymentIntentID: o.PaymentIntentID,
		AccessGranted:   o.AccessGranted,
		Total:           o.Total,
		CustomerEmail:   o.CustomerEmail,
		CustomerName:    o.CustomerName,
		VerifiedAt:      o.VerifiedAt,
		RejectedAt:      o.RejectedAt,
		CreatedAt:       o.CreatedAt,
	}
}

// ListPending returns orders still awaiting a decision.
func (h *AdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit := int32(50)
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed < 1 || parsed > 200 {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "limit must be between 1 and 200", nil)
			return
		}
		limit = int32(parsed)
	}
	orders, err := h.Store.ListPending(r.Context(), limit)
	if err != nil {
		h.Logger.Error().Err(err).Msg("admin: list pending orders")
		common.JSONError(w, http.StatusInternalServerError, common.CodeStore, "failed to load orders", nil)
		return
	}
	views := make([]adminOrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, adminView(o))
	}
	common.JSON(w, http.StatusOK, map[string]any{"orders": views})
}

// Get returns a single order by id.
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
			return
		}
		h.Logger.Error().Err(err).Str("order_id", id).Msg("admin: load order")
		common.JSONError(w, http.StatusInternalServerError, common.CodeStore, "failed to load order", nil)
		return
	}
	common.JSON(w, http.StatusOK, adminView(o))
}

// Verify marks a pending order verified.
func (h *AdminHandler) Verify(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, ActionVerify)
}

// Reject marks a pending order rejected.
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, ActionReject)
}

func (h *AdminHandler) decide(w http.ResponseWriter, r *http.Request, action Action) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()
	o, err := h.Store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
			return
		}
		h.Logger.Error().Err(err).Str("order_id", id).Msg("admin: load order")
		common.JSONError(w, http.StatusInternalServerError, common.CodeStore, "failed to load order", nil)
		return
	}

	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	out := Apply(o, action, now)
	switch out.Kind {
	case OutcomeAlreadyVerified:
		common.JSONError(w, http.StatusConflict, common.CodeAlreadyProcessed, "order was already verified", nil)
		return
	case OutcomeAlreadyRejected:
		common.JSONError(w, http.StatusConflict, common.CodeAlreadyProcessed, "order was already rejected or cancelled", nil)
		return
	}

	if err := h.Store.ApplyDecision(ctx, o.ID, *out.Patch); err != nil {
		if errors.Is(err, ErrStale) {
			common.JSONError(w, http.StatusConflict, common.CodeAlreadyProcessed, "order was already processed", nil)
			return
		}
		h.Logger.Error().Err(err).Str("order_id", o.ID).Str("action", string(action)).Msg("admin: persist decision")
		common.JSONError(w, http.StatusInternalServerError, common.CodeStore, "failed to update order", nil)
		return
	}

	if h.Notifier != nil {
		if err := h.Notifier.OrderDecided(ctx, o, action); err != nil {
			h.Logger.Warn().Err(err).Str("order_id", o.ID).Msg("admin: enqueue receipt")
		}
	}

	o.Status = out.Patch.Status
	o.AccessGranted = out.Patch.AccessGranted
	o.VerifiedAt = out.Patch.VerifiedAt
	o.RejectedAt = out.Patch.RejectedAt
	o.AccessGrantedAt = out.Patch.AccessGrantedAt
	common.JSON(w, http.StatusOK, adminView(o))
}
