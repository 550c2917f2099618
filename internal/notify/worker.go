package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/tindahan-dev/backend-tindahan/internal/common"
	"github.com/tindahan-dev/backend-tindahan/internal/obs"
	"github.com/tindahan-dev/backend-tindahan/internal/token"
)

// EmailWorker turns queued notification tasks into outgoing mail.
type EmailWorker struct {
	Sender        common.EmailSender
	Tokens        token.Codec
	PublicBaseURL string
	From          string
	AdminEmail    string
	Logger        zerolog.Logger
}

// Mux returns an asynq handler mux with the worker's task types registered.
func (w *EmailWorker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeActionLinkEmail, w.HandleActionLinkEmail)
	mux.HandleFunc(TypeReceiptEmail, w.HandleReceiptEmail)
	return mux
}

// HandleActionLinkEmail mails the admin the verify and reject links for a
// paid order. The links are self-contained: order id, action, and the order
// token, no dashboard session required.
func (w *EmailWorker) HandleActionLinkEmail(ctx context.Context, t *asynq.Task) error {
	var p ActionLinkPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal action link payload: %v: %w", err, asynq.SkipRetry)
	}
	if w.AdminEmail == "" {
		w.Logger.Warn().Str("order_id", p.OrderID).Msg("no admin email configured, dropping action link mail")
		return nil
	}

	verifyURL := w.actionURL(p.OrderID, "verify")
	rejectURL := w.actionURL(p.OrderID, "reject")

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Payment received for order %s</h2>", html.EscapeString(p.Reference))
	fmt.Fprintf(&b, "<p>Customer: %s &lt;%s&gt;</p>", html.EscapeString(p.CustomerName), html.EscapeString(p.CustomerEmail))
	fmt.Fprintf(&b, "<p>Amount: %s via %s</p>", formatCentavos(p.Total), html.EscapeString(p.PaymentMethod))
	fmt.Fprintf(&b, `<p><a href="%s">Verify payment</a> &middot; <a href="%s">Reject payment</a></p>`, verifyURL, rejectURL)
	b.WriteString("<p>Verifying grants the customer download access immediately.</p>")

	subject := fmt.Sprintf("Verify payment for order %s", p.Reference)
	if err := w.Sender.Send(w.AdminEmail, subject, b.String()); err != nil {
		obs.IncNotifyEmail("action_link", "send_error")
		return fmt.Errorf("send action link email: %w", err)
	}
	obs.IncNotifyEmail("action_link", "sent")
	w.Logger.Info().Str("order_id", p.OrderID).Msg("action link email sent")
	return nil
}

// HandleReceiptEmail mails the customer the outcome of the decision.
func (w *EmailWorker) HandleReceiptEmail(ctx context.Context, t *asynq.Task) error {
	var p ReceiptPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal receipt payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.CustomerEmail == "" {
		return nil
	}

	var subject string
	var b strings.Builder
	name := p.CustomerName
	if name == "" {
		name = "there"
	}
	switch p.Action {
	case "verify":
		subject = fmt.Sprintf("Your order %s is confirmed", p.Reference)
		fmt.Fprintf(&b, "<p>Hi %s,</p>", html.EscapeString(name))
		fmt.Fprintf(&b, "<p>Your payment of %s for order %s has been verified. Your downloads are now available in your library.</p>",
			formatCentavos(p.Total), html.EscapeString(p.Reference))
	default:
		subject = fmt.Sprintf("About your order %s", p.Reference)
		fmt.Fprintf(&b, "<p>Hi %s,</p>", html.EscapeString(name))
		fmt.Fprintf(&b, "<p>We could not verify the payment for order %s. If you believe this is a mistake, reply to this email with your payment reference.</p>",
			html.EscapeString(p.Reference))
	}

	if err := w.Sender.Send(p.CustomerEmail, subject, b.String()); err != nil {
		obs.IncNotifyEmail("receipt", "send_error")
		return fmt.Errorf("send receipt email: %w", err)
	}
	obs.IncNotifyEmail("receipt", "sent")
	w.Logger.Info().Str("order_id", p.OrderID).Str("action", p.Action).Msg("receipt email sent")
	return nil
}

func (w *EmailWorker) actionURL(orderID, action string) string {
	base := strings.TrimRight(w.PublicBaseURL, "/")
	v := url.Values{}
	v.Set("orderId", orderID)
	v.Set("action", action)
	v.Set("token", w.Tokens.Generate(orderID))
	return base + "/orders/action?" + v.Encode()
}

func formatCentavos(total int64) string {
	return fmt.Sprintf("₱%d.%02d", total/100, total%100)
}
