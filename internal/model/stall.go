package model

import "time"

// MenuItem is one stock ledger entry: the price and remaining quantity of a
// food item at one stall. StockQty never goes below zero.
type MenuItem struct {
	ID          string `json:"id"`
	StallID     string `json:"stall_id"`
	FoodName    string `json:"food_name"`
	UnitPrice   int64  `json:"unit_price"`
	StockQty    int    `json:"stock_qty"`
	IsAvailable bool   `json:"is_available"`
}

type Stall struct {
	ID          string     `json:"id"`
	MotherStall string     `json:"mother_stall"`
	AdminID     string     `json:"stall_admin,omitempty"`
	CashierIDs  []string   `json:"stall_cashiers,omitempty"`
	Menu        []MenuItem `json:"menu,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type CreateStallRequest struct {
	MotherStall string            `json:"mother_stall"`
	AdminID     string            `json:"stall_admin"`
	CashierIDs  []string          `json:"stall_cashiers"`
	Menu        []MenuItemRequest `json:"menu"`
}

type UpdateStallRequest struct {
	MotherStall string `json:"mother_stall"`
	AdminID     string `json:"stall_admin"`
}

type MenuItemRequest struct {
	FoodName    string `json:"food_name"`
	UnitPrice   int64  `json:"unit_price"`
	StockQty    int    `json:"stock_qty"`
	IsAvailable *bool  `json:"is_available"`
}

type RestockRequest struct {
	Quantity int `json:"quantity"`
}

type SetAvailabilityRequest struct {
	IsAvailable bool `json:"is_available"`
}
