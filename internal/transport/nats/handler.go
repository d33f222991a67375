package nats

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"tapcard/internal/model"
	"tapcard/internal/service"
)

// Handler subscribes to NATS command topics and delegates to the card
// service. Recharge terminals publish commands instead of calling HTTP.
type Handler struct {
	cards *service.CardService
	nc    *nats.Conn
	subs  []*nats.Subscription
}

func NewHandler(cards *service.CardService, nc *nats.Conn) *Handler {
	return &Handler{cards: cards, nc: nc}
}

// Start subscribes to command topics and blocks until ctx is cancelled.
func (h *Handler) Start(ctx context.Context) error {
	sub, err := h.nc.QueueSubscribe(model.TopicRechargeCommands, "recharge_group", func(m *nats.Msg) {
		var req model.RechargeRequest
		if err := json.Unmarshal(m.Data, &req); err != nil {
			slog.Error("nats: failed to unmarshal recharge command", "error", err)
			return
		}
		if _, err := h.cards.Recharge(ctx, req); err != nil {
			slog.Error("nats: recharge failed", "card_uid", req.CardUID, "error", err)
		}
	})
	if err != nil {
		return err
	}
	h.subs = append(h.subs, sub)

	slog.Info("NATS command handler is running")

	<-ctx.Done()
	slog.Info("NATS command handler shutting down, draining subscriptions...")

	for _, s := range h.subs {
		_ = s.Drain()
	}
	return nil
}

func (h *Handler) Stop(ctx context.Context) error {
	for _, s := range h.subs {
		_ = s.Unsubscribe()
	}
	return nil
}
