package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tindahan-dev/backend-tindahan/internal/common"
)

const clientKeyDelimiter = "_client"

// PayMongo talks to the PayMongo REST API using the secret key over basic auth.
type PayMongo struct {
	BaseURL   string
	SecretKey string
	HTTP      *http.Client
	Logger    zerolog.Logger
}

// NewPayMongo builds a gateway client. baseURL defaults to the public API.
func NewPayMongo(baseURL, secretKey string, logger zerolog.Logger) *PayMongo {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.paymongo.com/v1"
	}
	return &PayMongo{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		SecretKey: secretKey,
		HTTP: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Logger: logger,
	}
}

// Configured reports whether a secret key is present.
func (p *PayMongo) Configured() bool {
	return strings.TrimSpace(p.SecretKey) != ""
}

type pmNextAction struct {
	Redirect struct {
		URL string `json:"url"`
	} `json:"redirect"`
}

type pmAttributes struct {
	ClientKey        string         `json:"client_key"`
	Status           string         `json:"status"`
	NextAction       *pmNextAction  `json:"next_action"`
	LastPaymentError map[string]any `json:"last_payment_error"`
}

type pmResource struct {
	ID         string       `json:"id"`
	Attributes pmAttributes `json:"attributes"`
}

type pmEnvelope struct {
	Data pmResource `json:"data"`
}

type pmErrorBody struct {
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
		Title  string `json:"title"`
	} `json:"errors"`
}

func (e pmErrorBody) detail() string {
	for _, item := range e.Errors {
		if strings.TrimSpace(item.Detail) != "" {
			return item.Detail
		}
		if strings.TrimSpace(item.Title) != "" {
			return item.Title
		}
	}
	return ""
}

// CreateIntent opens a payment intent denominated in centavos. The order id
// rides along in gateway metadata so reconciliation can join the two systems.
func (p *PayMongo) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	if req.Amount < 100 {
		return Intent{}, common.ValidationError("Amount must be at least 1 PHP")
	}
	if strings.TrimSpace(req.OrderID) == "" {
		return Intent{}, common.ValidationError("order id is required")
	}
	if strings.TrimSpace(req.SuccessURL) == "" || strings.TrimSpace(req.CancelURL) == "" {
		return Intent{}, common.ValidationError("success and cancel URLs are required")
	}
	description := req.Description
	if description == "" {
		description = "Order " + req.OrderID
	}
	// Intents carry no redirect fields of their own (the attach step's
	// return_url drives redirects), so the storefront URLs ride in metadata.
	body := map[string]any{
		"data": map[string]any{
			"attributes": map[string]any{
				"amount":                 req.Amount,
				"currency":               "PHP",
				"description":            description,
				"payment_method_allowed": []string{"card", "gcash", "paymaya", "grab_pay"},
				"capture_type":           "automatic",
				"metadata": map[string]string{
					"order_id":    req.OrderID,
					"success_url": req.SuccessURL,
					"cancel_url":  req.CancelURL,
				},
			},
		},
	}
	env, err := p.do(ctx, http.MethodPost, "/payment_intents", body)
	if err != nil {
		return Intent{}, err
	}
	return intentFromResource(env.Data), nil
}

// GetIntent fetches the current state of a payment intent.
func (p *PayMongo) GetIntent(ctx context.Context, id string) (Intent, error) {
	if strings.TrimSpace(id) == "" {
		return Intent{}, common.ValidationError("payment intent id is required")
	}
	env, err := p.do(ctx, http.MethodGet, "/payment_intents/"+id, nil)
	if err != nil {
		return Intent{}, err
	}
	return intentFromResource(env.Data), nil
}

// AttachEwallet creates an e-wallet payment method and attaches it to the
// intent encoded in the client key. Outcomes are classified in three tiers:
// gateway-level failures return an error, a next-action redirect or terminal
// success fill the result, and anything else becomes a soft failure message.
func (p *PayMongo) AttachEwallet(ctx context.Context, req AttachRequest) (AttachResult, error) {
	intentID, ok := intentIDFromClientKey(req.ClientKey)
	if !ok {
		return AttachResult{}, common.ValidationError("invalid client key")
	}
	methodType := "gcash"
	if strings.EqualFold(strings.TrimSpace(req.Provider), "maya") {
		methodType = "paymaya"
	}

	methodBody := map[string]any{
		"data": map[string]any{
			"attributes": map[string]any{
				"type": methodType,
			},
		},
	}
	methodEnv, err := p.do(ctx, http.MethodPost, "/payment_methods", methodBody)
	if err != nil {
		return AttachResult{}, err
	}

	attachBody := map[string]any{
		"data": map[string]any{
			"attributes": map[string]any{
				"payment_method": methodEnv.Data.ID,
				"client_key":     req.ClientKey,
				"return_url":     req.ReturnURL,
			},
		},
	}
	attachEnv, err := p.do(ctx, http.MethodPost, "/payment_intents/"+intentID+"/attach", attachBody)
	if err != nil {
		return AttachResult{}, err
	}

	intent := intentFromResource(attachEnv.Data)
	switch {
	case intent.NextActionRedirectURL != "":
		return AttachResult{RedirectURL: intent.NextActionRedirectURL, RawStatus: intent.RawStatus}, nil
	case intent.Status == IntentSucceeded:
		return AttachResult{RedirectURL: req.ReturnURL, Succeeded: true, RawStatus: intent.RawStatus}, nil
	default:
		msg := intent.LastErrorMessage
		if msg == "" {
			msg = "payment was not completed (status: " + intent.RawStatus + ")"
		}
		return AttachResult{FailureMessage: msg, RawStatus: intent.RawStatus}, nil
	}
}

func (p *PayMongo) do(ctx context.Context, method, path string, body any) (pmEnvelope, error) {
	var env pmEnvelope
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return env, common.GatewayError("encode gateway request", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, reader)
	if err != nil {
		return env, common.GatewayError("build gateway request", err)
	}
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(p.SecretKey+":")))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return env, common.GatewayError("payment gateway unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return env, common.GatewayError("read gateway response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody pmErrorBody
		_ = json.Unmarshal(raw, &errBody)
		detail := errBody.detail()
		if detail == "" {
			detail = fmt.Sprintf("gateway returned status %d", resp.StatusCode)
		}
		p.Logger.Warn().
			Int("status", resp.StatusCode).
			Str("path", path).
			Str("detail", detail).
			Msg("paymongo request failed")
		return env, common.GatewayError(detail, nil)
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, common.GatewayError("decode gateway response", err)
	}
	return env, nil
}

func intentFromResource(res pmResource) Intent {
	intent := Intent{
		ID:        res.ID,
		ClientKey: res.Attributes.ClientKey,
		RawStatus: res.Attributes.Status,
		Status:    collapseStatus(res.Attributes.Status),
	}
	if res.Attributes.NextAction != nil {
		intent.NextActionRedirectURL = res.Attributes.NextAction.Redirect.URL
	}
	if res.Attributes.LastPaymentError != nil {
		if msg, ok := res.Attributes.LastPaymentError["failed_message"].(string); ok {
			intent.LastErrorMessage = msg
		}
	}
	return intent
}

func intentIDFromClientKey(clientKey string) (string, bool) {
	idx := strings.Index(clientKey, clientKeyDelimiter)
	if idx <= 0 {
		return "", false
	}
	return clientKey[:idx], true
}

func collapseStatus(raw string) IntentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "awaiting_next_action", "awaiting_payment_method", "processing":
		return IntentAwaitingAction
	case "succeeded":
		return IntentSucceeded
	case "failed", "cancelled", "canceled":
		return IntentFailed
	default:
		return IntentUnknown
	}
}
