package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sethvargo/go-retry"

	"tapcard/internal/model"
)

// SMSSender matches service.SMSSender; redeclared here so the worker does
// not depend on the service package.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// NotificationWorker listens for committed orders and texts the customer a
// receipt. It runs strictly after the order transaction: a delivery
// failure here can never unwind an order.
type NotificationWorker struct {
	sms      SMSSender
	natsConn *nats.Conn
}

func NewNotificationWorker(sms SMSSender, nc *nats.Conn) *NotificationWorker {
	return &NotificationWorker{sms: sms, natsConn: nc}
}

// Run subscribes to the order topic and blocks until ctx is cancelled.
func (w *NotificationWorker) Run(ctx context.Context) error {
	// QueueSubscribe: with several API replicas only one worker in the
	// group receives each event, so customers get one text per order.
	sub, err := w.natsConn.QueueSubscribe(model.TopicOrderPlaced, "notify_group", func(m *nats.Msg) {
		var event model.OrderPlacedEvent
		if err := json.Unmarshal(m.Data, &event); err != nil {
			slog.Error("worker: failed to unmarshal order event", "error", err)
			return
		}
		w.Notify(ctx, event)
	})
	if err != nil {
		return fmt.Errorf("worker: failed to subscribe: %w", err)
	}

	slog.Info("Notification worker is running")

	<-ctx.Done()

	slog.Info("Worker received shutdown signal, draining subscription...")
	return sub.Drain()
}

// Notify renders and sends the receipt, retrying transient gateway
// failures with capped exponential backoff before giving up and logging.
func (w *NotificationWorker) Notify(ctx context.Context, event model.OrderPlacedEvent) {
	if event.CustomerPhone == "" {
		slog.Warn("worker: order event has no phone, dropping", "order_id", event.OrderID)
		return
	}

	message := RenderReceipt(event)

	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := w.sms.Send(ctx, event.CustomerPhone, message); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		// The order already happened; the message is simply lost.
		slog.Error("worker: giving up on order sms",
			"order_id", event.OrderID,
			"phone", event.CustomerPhone,
			"error", err,
		)
		return
	}

	slog.Info("worker: order sms sent", "order_id", event.OrderID, "phone", event.CustomerPhone)
}

// RenderReceipt formats the order summary text: items, total, balance
// before and after, and who served.
func RenderReceipt(event model.OrderPlacedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order at %s: ", event.StallName)
	for i, item := range event.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s x%d", item.FoodName, item.Quantity)
	}
	fmt.Fprintf(&b, ". Total %s", formatAmount(event.TotalAmount))
	if event.VAT > 0 {
		fmt.Fprintf(&b, " (incl. VAT %s)", formatAmount(event.VAT))
	}
	fmt.Fprintf(&b, ". Balance %s -> %s. Served by %s.",
		formatAmount(event.BalanceBefore), formatAmount(event.BalanceAfter), event.ServedByName)
	return b.String()
}

// formatAmount renders minor currency units as a decimal string.
func formatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// Start implements the infrastructure.Server interface.
func (w *NotificationWorker) Start(ctx context.Context) error {
	return w.Run(ctx)
}

// Stop implements the infrastructure.Server interface (no-op, shutdown is via ctx).
func (w *NotificationWorker) Stop(ctx context.Context) error {
	return nil
}
