package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"tapcard/internal/model"
)

type mockSender struct {
	mu       sync.Mutex
	calls    int
	failures int
	sent     []string
}

func (m *mockSender) Send(ctx context.Context, phone, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failures {
		return errors.New("gateway timeout")
	}
	m.sent = append(m.sent, message)
	return nil
}

func sampleEvent() model.OrderPlacedEvent {
	return model.OrderPlacedEvent{
		OrderID:       "o1",
		CustomerPhone: "01800000001",
		StallName:     "North Canteen",
		Items: []model.OrderItem{
			{FoodName: "Burger", UnitPrice: 10000, Quantity: 2},
			{FoodName: "Juice", UnitPrice: 5000, Quantity: 1},
		},
		TotalAmount:   26500,
		VAT:           1500,
		BalanceBefore: 50000,
		BalanceAfter:  23500,
		ServedByName:  "Rahim",
	}
}

func TestRenderReceipt(t *testing.T) {
	got := RenderReceipt(sampleEvent())
	want := "Order at North Canteen: Burger x2, Juice x1. Total 265.00 (incl. VAT 15.00). Balance 500.00 -> 235.00. Served by Rahim."
	if got != want {
		t.Errorf("receipt = %q\nwant %q", got, want)
	}
}

func TestRenderReceipt_NoVAT(t *testing.T) {
	event := sampleEvent()
	event.VAT = 0
	if got := RenderReceipt(event); strings.Contains(got, "VAT") {
		t.Errorf("receipt mentions VAT with none charged: %q", got)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		minor int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{100, "1.00"},
		{26550, "265.50"},
		{-250, "-2.50"},
	}
	for _, tc := range cases {
		if got := formatAmount(tc.minor); got != tc.want {
			t.Errorf("formatAmount(%d) = %q, want %q", tc.minor, got, tc.want)
		}
	}
}

func TestNotify_RetriesTransientFailures(t *testing.T) {
	sender := &mockSender{failures: 2}
	w := NewNotificationWorker(sender, nil)

	w.Notify(context.Background(), sampleEvent())

	if sender.calls != 3 {
		t.Errorf("sender called %d times, want 3", sender.calls)
	}
	if len(sender.sent) != 1 {
		t.Errorf("delivered %d messages, want 1", len(sender.sent))
	}
}

func TestNotify_GivesUpAfterRetries(t *testing.T) {
	sender := &mockSender{failures: 10}
	w := NewNotificationWorker(sender, nil)

	w.Notify(context.Background(), sampleEvent())

	if len(sender.sent) != 0 {
		t.Errorf("delivered %d messages, want 0", len(sender.sent))
	}
	if sender.calls != 3 {
		t.Errorf("sender called %d times, want 3 (initial + 2 retries)", sender.calls)
	}
}

func TestNotify_DropsEventWithoutPhone(t *testing.T) {
	sender := &mockSender{}
	w := NewNotificationWorker(sender, nil)

	event := sampleEvent()
	event.CustomerPhone = ""
	w.Notify(context.Background(), event)

	if sender.calls != 0 {
		t.Error("sender called for an event without a phone")
	}
}
