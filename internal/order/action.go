package order

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tindahan-dev/backend-tindahan/internal/common"
	"github.com/tindahan-dev/backend-tindahan/internal/obs"
	"github.com/tindahan-dev/backend-tindahan/internal/token"
)

// DecisionNotifier is told about decided orders so customer-facing receipts
// can be sent. Delivery is best-effort and never affects the transition.
type DecisionNotifier interface {
	OrderDecided(ctx context.Context, o Order, action Action) error
}

// ActionHandler serves the stateless verify/reject link embedded in the
// admin notification email. No session is involved: the token parameter is
// the whole credential.
type ActionHandler struct {
	Store    Store
	Tokens   token.Codec
	Notifier DecisionNotifier
	Logger   zerolog.Logger
	Now      func() time.Time
}

var actionPage = template.Must(template.New("action").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} · Tindahan</title>
<style>
body{font-family:system-ui,sans-serif;background:#f5f5f4;margin:0;display:flex;min-height:100vh;align-items:center;justify-content:center}
main{background:#fff;border-radius:12px;box-shadow:0 2px 12px rgba(0,0,0,.08);padding:40px 48px;max-width:460px;text-align:center}
h1{font-size:1.3rem;margin:0 0 12px}
p{color:#555;line-height:1.5;margin:0}
.ok h1{color:#15803d}.warn h1{color:#b45309}.err h1{color:#b91c1c}
</style>
</head>
<body>
<main class="{{.Tone}}">
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
</main>
</body>
</html>
`))

type actionPageData struct {
	Title   string
	Message string
	Tone    string
}

// Handle processes GET /orders/action?orderId=&action=&token=.
func (h *ActionHandler) Handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orderID := strings.TrimSpace(q.Get("orderId"))
	rawAction := strings.TrimSpace(q.Get("action"))
	tok := strings.TrimSpace(q.Get("token"))

	if orderID == "" || rawAction == "" || tok == "" {
		h.render(w, http.StatusBadRequest, actionPageData{
			Title:   "Missing parameters",
			Message: "This link is incomplete. Please use the buttons from the notification email.",
			Tone:    "err",
		})
		return
	}

	action, ok := ParseAction(rawAction)
	if !ok {
		h.render(w, http.StatusBadRequest, actionPageData{
			Title:   "Invalid action",
			Message: "The requested action is not recognised.",
			Tone:    "err",
		})
		return
	}

	if !h.Tokens.Verify(orderID, tok) {
		obs.IncOrderAction(string(action), "invalid_token")
		h.Logger.Warn().
			Str("order_id", orderID).
			Str("client_ip", common.ClientIP(r)).
			Msg("action: token mismatch")
		h.render(w, http.StatusForbidden, actionPageData{
			Title:   "Invalid verification link",
			Message: "The verification token does not match this order. The link may have been altered.",
			Tone:    "err",
		})
		return
	}

	ctx := r.Context()
	o, err := h.Store.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.render(w, http.StatusNotFound, actionPageData{
				Title:   "Order not found",
				Message: "No order matches this link. It may have been removed.",
				Tone:    "err",
			})
			return
		}
		h.Logger.Error().Err(err).Str("order_id", orderID).Msg("action: load order")
		h.renderInternal(w)
		return
	}

	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	out := Apply(o, action, now)
	switch out.Kind {
	case OutcomeAlreadyVerified, OutcomeAlreadyRejected:
		obs.IncOrderAction(string(action), "already_processed")
		h.renderAlready(w, o, out.Kind)
		return
	}

	if err := h.Store.ApplyDecision(ctx, o.ID, *out.Patch); err != nil {
		if errors.Is(err, ErrStale) {
			// Lost the race with a concurrent decision; report the current
			// state instead of double-applying.
			obs.IncOrderAction(string(action), "already_processed")
			h.renderAlready(w, o, reloadKind(ctx, h.Store, o))
			return
		}
		h.Logger.Error().Err(err).Str("order_id", o.ID).Str("action", string(action)).Msg("action: persist decision")
		h.renderInternal(w)
		return
	}

	if h.Notifier != nil {
		if err := h.Notifier.OrderDecided(ctx, o, action); err != nil {
			h.Logger.Warn().Err(err).Str("order_id", o.ID).Msg("action: enqueue receipt")
		}
	}
	obs.IncOrderAction(string(action), "applied")

	verb := "verified"
	if action == ActionReject {
		verb = "rejected"
	}
	h.render(w, http.StatusOK, actionPageData{
		Title:   fmt.Sprintf("Order %s", verb),
		Message: fmt.Sprintf("Order %s has been %s.", o.Reference(), verb),
		Tone:    toneFor(action),
	})
}

func (h *ActionHandler) renderAlready(w http.ResponseWriter, o Order, kind OutcomeKind) {
	state := "verified"
	if kind == OutcomeAlreadyRejected {
		state = "rejected or cancelled"
	}
	h.render(w, http.StatusOK, actionPageData{
		Title:   "Already processed",
		Message: fmt.Sprintf("Order %s was already %s. No changes were made.", o.Reference(), state),
		Tone:    "warn",
	})
}

func (h *ActionHandler) renderInternal(w http.ResponseWriter) {
	h.render(w, http.StatusInternalServerError, actionPageData{
		Title:   "Something went wrong",
		Message: "The order could not be updated. Please try again or use the admin dashboard.",
		Tone:    "err",
	})
}

func (h *ActionHandler) render(w http.ResponseWriter, status int, data actionPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := actionPage.Execute(w, data); err != nil {
		h.Logger.Error().Err(err).Msg("action: render page")
	}
}

// reloadKind re-reads the order after a lost race so the page reflects what
// actually happened.
func reloadKind(ctx context.Context, store Store, o Order) OutcomeKind {
	fresh, err := store.GetByID(ctx, o.ID)
	if err != nil {
		return OutcomeAlreadyVerified
	}
	switch fresh.Status {
	case StatusRejected, StatusCancelled:
		return OutcomeAlreadyRejected
	default:
		return OutcomeAlreadyVerified
	}
}

func toneFor(a Action) string {
	if a == ActionReject {
		return "warn"
	}
	return "ok"
}
