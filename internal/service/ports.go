package service

import (
	"context"
	"time"

	"tapcard/internal/model"
)

// Storage ports. The pgx repositories implement these against Postgres;
// repository/memory implements them with a mutex for tests and single-node
// dev runs. Services depend only on the interfaces.

type UserStore interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
	UpdatePassword(ctx context.Context, phone, passwordHash string) error
}

type CustomerStore interface {
	Create(ctx context.Context, c *model.Customer) (*model.Customer, error)
	FindByID(ctx context.Context, id string) (*model.Customer, error)
	FindByCardOrPhone(ctx context.Context, identifier string) (*model.Customer, error)
	Recharge(ctx context.Context, customerID, rechargerID, rechargerName string, amount int64) (*model.Customer, error)
	AssignCard(ctx context.Context, phone, cardUID string) (*model.Customer, error)
	RemoveCard(ctx context.Context, cardUID, actorID string) (*model.Customer, error)
	Delete(ctx context.Context, id string) error
	RechargeHistory(ctx context.Context, customerID string, limit int) ([]model.RechargeEntry, error)
}

type StallStore interface {
	Create(ctx context.Context, s *model.Stall) (*model.Stall, error)
	FindByID(ctx context.Context, id string) (*model.Stall, error)
	List(ctx context.Context) ([]model.Stall, error)
	Update(ctx context.Context, id string, req model.UpdateStallRequest) (*model.Stall, error)
	Menu(ctx context.Context, stallID string) ([]model.MenuItem, error)
	AddMenuItem(ctx context.Context, stallID string, req model.MenuItemRequest) (*model.MenuItem, error)
	UpdateMenuItem(ctx context.Context, stallID, itemID string, req model.MenuItemRequest) (*model.MenuItem, error)
	RemoveMenuItem(ctx context.Context, stallID, itemID string) error
	Restock(ctx context.Context, stallID, itemID string, qty int) (*model.MenuItem, error)
	SetAvailability(ctx context.Context, stallID, itemID string, available bool) (*model.MenuItem, error)
}

// OrderStore owns the order records and the atomic mutation unit.
// ApplyOrder must be all-or-nothing: on any error, no balance, stock, or
// order state may have changed.
type OrderStore interface {
	ApplyOrder(ctx context.Context, o *model.Order, debits []model.StockDebit) (balanceBefore, balanceAfter int64, err error)
	FindByID(ctx context.Context, id string) (*model.OrderDetail, error)
	ListByStall(ctx context.Context, stallID string, page, limit int) (*model.OrderPage, error)
	SummaryByStall(ctx context.Context, stallID string, page, limit int) (*model.OrderSummaryPage, error)
}

// BalanceCache is the read-side cache. All methods are best-effort from the
// caller's point of view: a cache failure never fails a business operation.
type BalanceCache interface {
	GetBalance(ctx context.Context, customerID string) (int64, bool, error)
	SetBalance(ctx context.Context, customerID string, balance int64) error
	DropBalance(ctx context.Context, customerID string) error
}

type OTPStore interface {
	StoreOTP(ctx context.Context, phone, code string, ttl time.Duration) error
	ConsumeOTP(ctx context.Context, phone, code string) (bool, error)
}

// MessageBus publishes events to the broker.
type MessageBus interface {
	Publish(topic string, data []byte) error
}

// SMSSender delivers a text message. Best effort: failures are the
// caller's to log or retry.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}
