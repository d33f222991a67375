package model

import (
	"errors"
	"fmt"
)

// ErrNoRows is returned by stores when a lookup matches nothing. Services
// translate it into a NotFoundError naming the entity that was missing.
var ErrNoRows = errors.New("no rows found")

type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid value for %q", e.Field)
	}
	return fmt.Sprintf("invalid value for %q: %s", e.Field, e.Reason)
}

type InsufficientFundsError struct {
	Balance  int64
	Required int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d, required %d", e.Balance, e.Required)
}

type InsufficientStockError struct {
	ItemID   string
	FoodName string
}

func (e *InsufficientStockError) Error() string {
	if e.FoodName != "" {
		return fmt.Sprintf("insufficient stock for %s (%s)", e.FoodName, e.ItemID)
	}
	return fmt.Sprintf("insufficient stock for item %s", e.ItemID)
}

// PersistenceError wraps a storage failure during the mutation phase.
// It always means the whole transaction was rolled back: the caller may
// retry the operation without checking for partial effects.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
