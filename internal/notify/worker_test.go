package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tindahan-dev/backend-tindahan/internal/common"
	"github.com/tindahan-dev/backend-tindahan/internal/order"
	"github.com/tindahan-dev/backend-tindahan/internal/token"
)

func newTestWorker(sender *common.InMemoryEmail) *EmailWorker {
	return &EmailWorker{
		Sender:        sender,
		Tokens:        token.Codec{Secret: "mail-test-secret"},
		PublicBaseURL: "https://store.tindahan.example",
		From:          "noreply@tindahan.example",
		AdminEmail:    "admin@tindahan.example",
		Logger:        zerolog.Nop(),
	}
}

func TestActionLinkEmailContainsBothDecisionLinks(t *testing.T) {
	sender := &common.InMemoryEmail{}
	w := newTestWorker(sender)

	task, err := NewActionLinkTask(ActionLinkPayload{
		OrderID:       "ord_9fc3d479ab",
		Reference:     "C3D479AB",
		Total:         149900,
		PaymentMethod: "gcash",
		CustomerEmail: "shopper@example.com",
		CustomerName:  "Ana",
	})
	require.NoError(t, err)
	require.NoError(t, w.HandleActionLinkEmail(context.Background(), task))

	require.Len(t, sender.Outbox, 1)
	mail := sender.Outbox[0]
	require.Equal(t, "admin@tindahan.example", mail.To)
	require.Contains(t, mail.Subject, "C3D479AB")

	expected := w.Tokens.Generate("ord_9fc3d479ab")
	require.Contains(t, mail.HTML, "action=verify")
	require.Contains(t, mail.HTML, "action=reject")
	require.Contains(t, mail.HTML, "token="+expected)
	require.Contains(t, mail.HTML, "orderId=ord_9fc3d479ab")
	require.Contains(t, mail.HTML, "₱1499.00")
}

func TestActionLinkEmailSkipsWithoutAdminAddress(t *testing.T) {
	sender := &common.InMemoryEmail{}
	w := newTestWorker(sender)
	w.AdminEmail = ""

	task, err := NewActionLinkTask(ActionLinkPayload{OrderID: "ord_1", Reference: "ORD_1"})
	require.NoError(t, err)
	require.NoError(t, w.HandleActionLinkEmail(context.Background(), task))
	require.Empty(t, sender.Outbox)
}

func TestActionLinkEmailBadPayloadSkipsRetry(t *testing.T) {
	w := newTestWorker(&common.InMemoryEmail{})
	err := w.HandleActionLinkEmail(context.Background(), asynq.NewTask(TypeActionLinkEmail, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestReceiptEmailVerified(t *testing.T) {
	sender := &common.InMemoryEmail{}
	w := newTestWorker(sender)

	task, err := NewReceiptTask(ReceiptPayload{
		OrderID:       "ord_1",
		Reference:     "ORD_1",
		Action:        "verify",
		Total:         50000,
		CustomerEmail: "shopper@example.com",
		CustomerName:  "Ana",
	})
	require.NoError(t, err)
	require.NoError(t, w.HandleReceiptEmail(context.Background(), task))

	require.Len(t, sender.Outbox, 1)
	mail := sender.Outbox[0]
	require.Equal(t, "shopper@example.com", mail.To)
	require.Contains(t, mail.Subject, "confirmed")
	require.Contains(t, mail.HTML, "verified")
	require.Contains(t, mail.HTML, "₱500.00")
}

func TestReceiptEmailRejected(t *testing.T) {
	sender := &common.InMemoryEmail{}
	w := newTestWorker(sender)

	task, err := NewReceiptTask(ReceiptPayload{
		OrderID:       "ord_1",
		Reference:     "ORD_1",
		Action:        "reject",
		CustomerEmail: "shopper@example.com",
	})
	require.NoError(t, err)
	require.NoError(t, w.HandleReceiptEmail(context.Background(), task))

	require.Len(t, sender.Outbox, 1)
	require.Contains(t, sender.Outbox[0].HTML, "could not verify")
}

func TestReceiptEmailSkipsEmptyRecipient(t *testing.T) {
	sender := &common.InMemoryEmail{}
	w := newTestWorker(sender)

	task, err := NewReceiptTask(ReceiptPayload{OrderID: "ord_1", Action: "verify"})
	require.NoError(t, err)
	require.NoError(t, w.HandleReceiptEmail(context.Background(), task))
	require.Empty(t, sender.Outbox)
}

type fakeTaskClient struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeTaskClient) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1"}, nil
}

func TestEnqueuerOrderDecided(t *testing.T) {
	client := &fakeTaskClient{}
	e := &Enqueuer{Client: client, Enabled: true, Logger: zerolog.Nop()}

	o := order.Order{ID: "ord_1", Status: order.StatusPending, CustomerEmail: "shopper@example.com", Total: 100}
	require.NoError(t, e.OrderDecided(context.Background(), o, order.ActionVerify))
	require.Len(t, client.tasks, 1)
	require.Equal(t, TypeReceiptEmail, client.tasks[0].Type())
}

func TestEnqueuerDisabledDropsSilently(t *testing.T) {
	client := &fakeTaskClient{}
	e := &Enqueuer{Client: client, Enabled: false, Logger: zerolog.Nop()}

	o := order.Order{ID: "ord_1", CustomerEmail: "shopper@example.com"}
	require.NoError(t, e.OrderDecided(context.Background(), o, order.ActionVerify))
	require.NoError(t, e.OrderPaid(context.Background(), o))
	require.Empty(t, client.tasks)
}

func TestEnqueuerOrderPaid(t *testing.T) {
	client := &fakeTaskClient{}
	e := &Enqueuer{Client: client, Enabled: true, Logger: zerolog.Nop()}

	require.NoError(t, e.OrderPaid(context.Background(), order.Order{ID: "ord_1", Total: 100}))
	require.Len(t, client.tasks, 1)
	require.Equal(t, TypeActionLinkEmail, client.tasks[0].Type())

	var p ActionLinkPayload
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &p))
	require.Equal(t, "ord_1", p.OrderID)
}
