package model

import "time"

// Customer is one prepaid card account. Balance is kept in minor currency
// units and may only be changed through Recharge and the order debit; it is
// never assigned directly.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CardUID   string    `json:"card_uid,omitempty"`
	Balance   int64     `json:"balance"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RechargeEntry is one append-only row of a customer's recharge history.
// BalanceBefore captures the pre-mutation balance for audit.
type RechargeEntry struct {
	CustomerID    string    `json:"customer_id"`
	RechargerID   string    `json:"recharger_id"`
	RechargerName string    `json:"recharger_name"`
	Amount        int64     `json:"amount"`
	BalanceBefore int64     `json:"balance_before"`
	CreatedAt     time.Time `json:"created_at"`
}

// OrderHistoryEntry references an order from the customer's side.
// The order itself is owned by the order store.
type OrderHistoryEntry struct {
	CustomerID  string    `json:"customer_id"`
	OrderID     string    `json:"order_id"`
	TotalAmount int64     `json:"total_amount"`
	ServedBy    string    `json:"served_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateCustomerRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	CardUID   string `json:"card_uid"`
	Balance   int64  `json:"initial_balance"`
	CreatedBy string `json:"created_by"`
}

type RechargeRequest struct {
	CardUID     string `json:"card_uid"`
	Amount      int64  `json:"amount"`
	RechargerID string `json:"recharger_id"`
}

type AssignCardRequest struct {
	Phone   string `json:"phone"`
	CardUID string `json:"new_card_uid"`
}

type RemoveCardRequest struct {
	CardUID string `json:"card_uid"`
}
