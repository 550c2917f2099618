// Package notify delivers the two emails the reconciliation flow depends on:
// the admin action-link mail carrying the verify/reject buttons, and the
// customer receipt once a decision lands. Delivery runs through asynq so a
// slow SMTP hop never blocks a request.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TypeActionLinkEmail asks the worker to mail the admin decision links.
	TypeActionLinkEmail = "notify:action_link_email"
	// TypeReceiptEmail asks the worker to mail the customer about a decision.
	TypeReceiptEmail = "notify:receipt_email"
)

// ActionLinkPayload carries everything the worker needs to compose the
// admin notification for a freshly paid order.
type ActionLinkPayload struct {
	OrderID       string    `json:"order_id"`
	Reference     string    `json:"reference"`
	Total         int64     `json:"total_centavos"`
	PaymentMethod string    `json:"payment_method"`
	CustomerEmail string    `json:"customer_email"`
	CustomerName  string    `json:"customer_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReceiptPayload carries the decided order details for the customer receipt.
type ReceiptPayload struct {
	OrderID       string `json:"order_id"`
	Reference     string `json:"reference"`
	Action        string `json:"action"`
	Total         int64  `json:"total_centavos"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
}

// NewActionLinkTask builds the asynq task for an admin action-link email.
func NewActionLinkTask(p ActionLinkPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal action link payload: %w", err)
	}
	return asynq.NewTask(TypeActionLinkEmail, payload, asynq.MaxRetry(5), asynq.Timeout(time.Minute)), nil
}

// NewReceiptTask builds the asynq task for a customer receipt email.
func NewReceiptTask(p ReceiptPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal receipt payload: %w", err)
	}
	return asynq.NewTask(TypeReceiptEmail, payload, asynq.MaxRetry(5), asynq.Timeout(time.Minute)), nil
}
