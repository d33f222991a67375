package model

import "time"

// OrderItem is one line of an order, with the unit price frozen at order
// time so later menu edits do not rewrite history.
type OrderItem struct {
	MenuItemID string `json:"menu_item_id"`
	FoodName   string `json:"food_name"`
	UnitPrice  int64  `json:"unit_price"`
	Quantity   int    `json:"quantity"`
}

// Order is immutable once created. There is no update path in the API.
type Order struct {
	ID          string      `json:"id"`
	CustomerID  string      `json:"customer_id"`
	StallID     string      `json:"stall_id"`
	Items       []OrderItem `json:"items"`
	TotalAmount int64       `json:"total_amount"`
	VAT         int64       `json:"vat"`
	ServedBy    string      `json:"served_by"`
	CreatedAt   time.Time   `json:"created_at"`
}

// StockDebit is one aggregated decrement against a stock entry. The
// coordinator sums duplicate line items before building these.
type StockDebit struct {
	MenuItemID string
	Quantity   int
}

type PlaceOrderLine struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

type PlaceOrderRequest struct {
	CustomerID  string           `json:"customer_id"`
	StallID     string           `json:"stall_id"`
	Items       []PlaceOrderLine `json:"items"`
	TotalAmount int64            `json:"total_amount"`
	VAT         int64            `json:"vat"`
	ServedBy    string           `json:"served_by"`
}

// PlaceOrderResult carries the created order plus notification metadata.
// NotificationQueued is informational only; a false value never means the
// order failed.
type PlaceOrderResult struct {
	Order              *Order `json:"order"`
	BalanceAfter       int64  `json:"balance_after"`
	NotificationQueued bool   `json:"notification_queued"`
}

// OrderPage is one page of a stall's order listing, newest first.
type OrderPage struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Pages  int     `json:"pages"`
}

// OrderSummaryRow is the flattened per-order view used by stall reports.
type OrderSummaryRow struct {
	OrderID      string    `json:"order_id"`
	ServedByName string    `json:"served_by"`
	TotalAmount  int64     `json:"total_amount"`
	CreatedAt    time.Time `json:"created_at"`
}

type OrderSummaryPage struct {
	Rows  []OrderSummaryRow `json:"rows"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Pages int               `json:"pages"`
}

// OrderDetail is an order joined with the names the receipt needs.
type OrderDetail struct {
	Order        Order  `json:"order"`
	CustomerName string `json:"customer_name"`
	ServedByName string `json:"served_by_name"`
}
