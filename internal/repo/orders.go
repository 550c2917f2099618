// Package repo implements persistence for order records on Postgres.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tindahan-dev/backend-tindahan/internal/order"
)

// DB is the subset of pgxpool.Pool the store needs. Satisfied by pools,
// connections, and transactions alike.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ DB = (*pgxpool.Pool)(nil)

// OrderStore persists orders in the orders table.
type OrderStore struct {
	DB DB
}

var _ order.Store = (*OrderStore)(nil)

const orderColumns = `id, status, payment_method, payment_intent_id, payment_verified,
	access_granted, verified_at, rejected_at, access_granted_at,
	total_centavos, customer_email, customer_name, created_at`

// GetByID loads a single order snapshot.
func (s *OrderStore) GetByID(ctx context.Context, id string) (order.Order, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrNotFound
		}
		return order.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// ApplyDecision writes the decision patch, but only while the stored status
// is still pending. A concurrent decision that got there first surfaces as
// ErrStale so the caller can report the actual state.
func (s *OrderStore) ApplyDecision(ctx context.Context, id string, patch order.Patch) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE orders
		SET status = $2,
		    access_granted = $3,
		    verified_at = $4,
		    rejected_at = $5,
		    access_granted_at = $6
		WHERE id = $1 AND status = 'pending'`,
		id,
		string(patch.Status),
		patch.AccessGranted,
		patch.VerifiedAt,
		patch.RejectedAt,
		patch.AccessGrantedAt,
	)
	if err != nil {
		return fmt.Errorf("apply decision: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var status string
	err = s.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.ErrNotFound
		}
		return fmt.Errorf("apply decision: %w", err)
	}
	return order.ErrStale
}

// SetPaymentIntent records the gateway intent id on the order.
func (s *OrderStore) SetPaymentIntent(ctx context.Context, id, intentID string) error {
	tag, err := s.DB.Exec(ctx,
		`UPDATE orders SET payment_intent_id = $2 WHERE id = $1`, id, intentID)
	if err != nil {
		return fmt.Errorf("set payment intent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// ListPending returns the oldest undecided orders first.
func (s *OrderStore) ListPending(ctx context.Context, limit int32) ([]order.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE status = 'pending' ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("list pending orders: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}
	return out, nil
}

// Create inserts a new pending order. Used by tests and seed tooling.
func (s *OrderStore) Create(ctx context.Context, o order.Order) error {
	status := o.Status
	if status == "" {
		status = order.StatusPending
	}
	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.DB.Exec(ctx, `
		INSERT INTO orders (
			id, status, payment_method, payment_intent_id, payment_verified,
			access_granted, verified_at, rejected_at, access_granted_at,
			total_centavos, customer_email, customer_name, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		o.ID,
		string(status),
		string(o.PaymentMethod),
		o.PaymentIntentID,
		o.PaymentVerified,
		o.AccessGranted,
		o.VerifiedAt,
		o.RejectedAt,
		o.AccessGrantedAt,
		o.Total,
		o.CustomerEmail,
		o.CustomerName,
		createdAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("create order %s: already exists", o.ID)
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (order.Order, error) {
	var (
		o               order.Order
		status, method  string
		paymentIntentID *string
	)
	err := row.Scan(
		&o.ID,
		&status,
		&method,
		&paymentIntentID,
		&o.PaymentVerified,
		&o.AccessGranted,
		&o.VerifiedAt,
		&o.RejectedAt,
		&o.AccessGrantedAt,
		&o.Total,
		&o.CustomerEmail,
		&o.CustomerName,
		&o.CreatedAt,
	)
	if err != nil {
		return order.Order{}, err
	}
	o.Status = order.Status(status)
	o.PaymentMethod = order.Method(method)
	if paymentIntentID != nil {
		o.PaymentIntentID = *paymentIntentID
	}
	return o, nil
}
