package notify

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/tindahan-dev/backend-tindahan/internal/obs"
	"github.com/tindahan-dev/backend-tindahan/internal/order"
)

// TaskClient is the slice of asynq.Client the enqueuer depends on.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

var _ TaskClient = (*asynq.Client)(nil)

// Enqueuer hands notification work to the task queue. A disabled enqueuer
// drops everything silently, which is what local development wants.
type Enqueuer struct {
	Client  TaskClient
	Enabled bool
	Logger  zerolog.Logger
}

var _ order.DecisionNotifier = (*Enqueuer)(nil)

// OrderPaid queues the admin action-link email for a newly paid order.
func (e *Enqueuer) OrderPaid(ctx context.Context, o order.Order) error {
	if !e.Enabled || e.Client == nil {
		return nil
	}
	task, err := NewActionLinkTask(ActionLinkPayload{
		OrderID:       o.ID,
		Reference:     o.Reference(),
		Total:         o.Total,
		PaymentMethod: string(o.PaymentMethod),
		CustomerEmail: o.CustomerEmail,
		CustomerName:  o.CustomerName,
		CreatedAt:     o.CreatedAt,
	})
	if err != nil {
		return err
	}
	info, err := e.Client.EnqueueContext(ctx, task)
	if err != nil {
		obs.IncNotifyEmail("action_link", "enqueue_error")
		return fmt.Errorf("enqueue action link email: %w", err)
	}
	e.Logger.Debug().Str("task_id", info.ID).Str("order_id", o.ID).Msg("queued action link email")
	return nil
}

// OrderDecided queues the customer receipt after a verify or reject decision.
func (e *Enqueuer) OrderDecided(ctx context.Context, o order.Order, action order.Action) error {
	if !e.Enabled || e.Client == nil {
		return nil
	}
	if o.CustomerEmail == "" {
		return nil
	}
	task, err := NewReceiptTask(ReceiptPayload{
		OrderID:       o.ID,
		Reference:     o.Reference(),
		Action:        string(action),
		Total:         o.Total,
		CustomerEmail: o.CustomerEmail,
		CustomerName:  o.CustomerName,
	})
	if err != nil {
		return err
	}
	info, err := e.Client.EnqueueContext(ctx, task)
	if err != nil {
		obs.IncNotifyEmail("receipt", "enqueue_error")
		return fmt.Errorf("enqueue receipt email: %w", err)
	}
	e.Logger.Debug().Str("task_id", info.ID).Str("order_id", o.ID).Msg("queued receipt email")
	return nil
}
