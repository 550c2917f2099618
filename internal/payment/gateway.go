// Package payment wraps the upstream payment gateway and exposes the HTTP
// endpoints the storefront uses to open intents and attach e-wallets.
package payment

import "context"

// IntentStatus collapses the gateway's wide status vocabulary into the small
// set the rest of the system reasons about.
type IntentStatus string

const (
	IntentAwaitingAction IntentStatus = "awaiting_action"
	IntentSucceeded      IntentStatus = "succeeded"
	IntentFailed         IntentStatus = "failed"
	IntentUnknown        IntentStatus = "unknown"
)

// IntentRequest captures the information required to open a payment intent.
// Amount is in centavos.
type IntentRequest struct {
	OrderID       string
	Amount        int64
	Description   string
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	CustomerName  string
}

// Intent is a read-through view of a gateway-owned payment intent.
type Intent struct {
	ID                    string
	ClientKey             string
	Status                IntentStatus
	RawStatus             string
	NextActionRedirectURL string
	LastErrorMessage      string
}

// AttachRequest asks the gateway to bind an e-wallet to an existing intent.
type AttachRequest struct {
	ClientKey string
	ReturnURL string
	Provider  string
}

// AttachResult is the classified outcome of an e-wallet attach. Exactly one
// of the three shapes applies: a redirect to follow, a terminal success, or
// a soft failure message meant for inline display.
type AttachResult struct {
	RedirectURL    string
	Succeeded      bool
	FailureMessage string
	RawStatus      string
}

// Gateway abstracts the payment provider so alternates can substitute
// without touching the order lifecycle.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
	AttachEwallet(ctx context.Context, req AttachRequest) (AttachResult, error)
	GetIntent(ctx context.Context, id string) (Intent, error)
	Configured() bool
}
