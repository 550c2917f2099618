// Package order owns the order lifecycle: the snapshot model, the decision
// state machine, and the HTTP surfaces that drive it (the email action link
// and the admin endpoints).
package order

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusVerified  Status = "verified"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
)

// Terminal reports whether no further action-link transition is permitted.
func (s Status) Terminal() bool {
	switch s {
	case StatusVerified, StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Method identifies how the customer paid.
type Method string

const (
	MethodPayMongo Method = "paymongo"
	MethodGCash    Method = "gcash"
	MethodMaya     Method = "maya"
	MethodGoTyme   Method = "gotyme"
)

// Order is a snapshot of the persisted order record. Amounts are centavos.
type Order struct {
	ID              string
	Status          Status
	PaymentMethod   Method
	PaymentIntentID string
	PaymentVerified bool
	AccessGranted   bool
	VerifiedAt      *time.Time
	RejectedAt      *time.Time
	AccessGrantedAt *time.Time
	Total           int64
	CustomerEmail   string
	CustomerName    string
	CreatedAt       time.Time
}

// Reference returns the short human-facing order reference: the last eight
// characters of the id, uppercased.
func (o Order) Reference() string {
	id := o.ID
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return strings.ToUpper(id)
}

// Patch is the field set a decision writes back to the store.
type Patch struct {
	Status          Status
	AccessGranted   bool
	VerifiedAt      *time.Time
	RejectedAt      *time.Time
	AccessGrantedAt *time.Time
}

var (
	// ErrNotFound signals the referenced order does not exist.
	ErrNotFound = errors.New("order: not found")
	// ErrStale signals a conditional update found the order no longer
	// pending; the caller lost a race with another decision.
	ErrStale = errors.New("order: no longer pending")
)

// Store is the persistence boundary for order records. ApplyDecision must be
// conditional: the patch lands only while the stored status is still pending.
type Store interface {
	GetByID(ctx context.Context, id string) (Order, error)
	ApplyDecision(ctx context.Context, id string, patch Patch) error
	SetPaymentIntent(ctx context.Context, id, intentID string) error
	ListPending(ctx context.Context, limit int32) ([]Order, error)
}
