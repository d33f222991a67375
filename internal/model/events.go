package model

import "time"

// Topics the service publishes and consumes on the message bus.
const (
	TopicOrderPlaced      = "orders.placed"
	TopicRechargeCommands = "commands.recharge"
)

// OrderPlacedEvent is published after an order transaction commits. It
// carries everything the notification worker needs so the worker never has
// to read the database.
type OrderPlacedEvent struct {
	OrderID       string      `json:"order_id"`
	CustomerID    string      `json:"customer_id"`
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone"`
	StallName     string      `json:"stall_name"`
	Items         []OrderItem `json:"items"`
	TotalAmount   int64       `json:"total_amount"`
	VAT           int64       `json:"vat"`
	BalanceBefore int64       `json:"balance_before"`
	BalanceAfter  int64       `json:"balance_after"`
	ServedByName  string      `json:"served_by_name"`
	CreatedAt     time.Time   `json:"created_at"`
}
