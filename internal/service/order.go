package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"tapcard/internal/metrics"
	"tapcard/internal/model"
)

// OrderService is the order transaction coordinator. It checks every
// precondition against a snapshot, hands the mutation phase to the order
// store as one atomic unit, and publishes the notification event only
// after the unit has committed.
type OrderService struct {
	users     UserStore
	customers CustomerStore
	stalls    StallStore
	orders    OrderStore
	cache     BalanceCache
	bus       MessageBus
	met       *metrics.Metrics
}

func NewOrderService(users UserStore, customers CustomerStore, stalls StallStore, orders OrderStore, cache BalanceCache, bus MessageBus, met *metrics.Metrics) *OrderService {
	return &OrderService{
		users:     users,
		customers: customers,
		stalls:    stalls,
		orders:    orders,
		cache:     cache,
		bus:       bus,
		met:       met,
	}
}

func (s *OrderService) PlaceOrder(ctx context.Context, req model.PlaceOrderRequest) (*model.PlaceOrderResult, error) {
	start := time.Now()
	res, err := s.placeOrder(ctx, req)
	s.met.ObserveOrder(time.Since(start), err)
	return res, err
}

func (s *OrderService) placeOrder(ctx context.Context, req model.PlaceOrderRequest) (*model.PlaceOrderResult, error) {
	if err := validatePlaceOrder(req); err != nil {
		return nil, err
	}

	// Precondition lookups, in a fixed order, before any mutation.
	server, err := s.users.FindByID(ctx, req.ServedBy)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	customer, err := s.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, notFoundOr(err, "customer")
	}
	stall, err := s.stalls.FindByID(ctx, req.StallID)
	if err != nil {
		return nil, notFoundOr(err, "stall")
	}

	menu := make(map[string]model.MenuItem, len(stall.Menu))
	for _, item := range stall.Menu {
		menu[item.ID] = item
	}

	// Duplicate line items are summed before the stock check; checking them
	// per line could pass individually while the aggregate oversells.
	debits := aggregateLines(req.Items)
	for _, d := range debits {
		item, ok := menu[d.MenuItemID]
		if !ok || !item.IsAvailable {
			return nil, &model.NotFoundError{Entity: "menu item"}
		}
		if item.StockQty < d.Quantity {
			return nil, &model.InsufficientStockError{ItemID: item.ID, FoodName: item.FoodName}
		}
	}

	if customer.Balance < req.TotalAmount {
		return nil, &model.InsufficientFundsError{Balance: customer.Balance, Required: req.TotalAmount}
	}

	// The caller's total must match the items priced off the live menu.
	var subtotal int64
	for _, line := range req.Items {
		subtotal += int64(line.Quantity) * menu[line.MenuItemID].UnitPrice
	}
	if subtotal+req.VAT != req.TotalAmount {
		return nil, &model.ValidationError{Field: "totalAmount", Reason: "does not match line items plus vat"}
	}

	order := &model.Order{
		ID:          uuid.NewString(),
		CustomerID:  customer.ID,
		StallID:     stall.ID,
		Items:       make([]model.OrderItem, 0, len(req.Items)),
		TotalAmount: req.TotalAmount,
		VAT:         req.VAT,
		ServedBy:    server.ID,
		CreatedAt:   time.Now().UTC(),
	}
	for _, line := range req.Items {
		item := menu[line.MenuItemID]
		order.Items = append(order.Items, model.OrderItem{
			MenuItemID: item.ID,
			FoodName:   item.FoodName,
			UnitPrice:  item.UnitPrice,
			Quantity:   line.Quantity,
		})
	}

	balanceBefore, balanceAfter, err := s.orders.ApplyOrder(ctx, order, debits)
	if err != nil {
		return nil, err
	}

	// Post-commit side effects. Neither may fail the order: the money has
	// already moved.
	if s.cache != nil {
		if cerr := s.cache.SetBalance(ctx, customer.ID, balanceAfter); cerr != nil {
			slog.Warn("order: balance cache refresh failed", "customer_id", customer.ID, "error", cerr)
		}
	}
	queued := s.publishOrderPlaced(order, customer, stall, server, balanceBefore, balanceAfter)

	return &model.PlaceOrderResult{
		Order:              order,
		BalanceAfter:       balanceAfter,
		NotificationQueued: queued,
	}, nil
}

func (s *OrderService) publishOrderPlaced(o *model.Order, customer *model.Customer, stall *model.Stall, server *model.User, balanceBefore, balanceAfter int64) bool {
	if s.bus == nil {
		return false
	}
	event := model.OrderPlacedEvent{
		OrderID:       o.ID,
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		StallName:     stall.MotherStall,
		Items:         o.Items,
		TotalAmount:   o.TotalAmount,
		VAT:           o.VAT,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		ServedByName:  server.Name,
		CreatedAt:     o.CreatedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("order: failed to marshal event", "order_id", o.ID, "error", err)
		return false
	}
	if err := s.bus.Publish(model.TopicOrderPlaced, data); err != nil {
		slog.Error("order: failed to publish event", "order_id", o.ID, "error", err)
		return false
	}
	return true
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*model.OrderDetail, error) {
	detail, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "order")
	}
	return detail, nil
}

func (s *OrderService) ListStallOrders(ctx context.Context, stallID string, page, limit int) (*model.OrderPage, error) {
	if _, err := s.stalls.FindByID(ctx, stallID); err != nil {
		return nil, notFoundOr(err, "stall")
	}
	return s.orders.ListByStall(ctx, stallID, page, limit)
}

func (s *OrderService) StallOrdersSummary(ctx context.Context, stallID string, page, limit int) (*model.OrderSummaryPage, error) {
	if _, err := s.stalls.FindByID(ctx, stallID); err != nil {
		return nil, notFoundOr(err, "stall")
	}
	return s.orders.SummaryByStall(ctx, stallID, page, limit)
}

func validatePlaceOrder(req model.PlaceOrderRequest) error {
	switch {
	case req.CustomerID == "":
		return &model.ValidationError{Field: "customer_id", Reason: "required"}
	case req.StallID == "":
		return &model.ValidationError{Field: "stall_id", Reason: "required"}
	case req.ServedBy == "":
		return &model.ValidationError{Field: "served_by", Reason: "required"}
	case len(req.Items) == 0:
		return &model.ValidationError{Field: "items", Reason: "at least one line item required"}
	case req.TotalAmount < 0:
		return &model.ValidationError{Field: "total_amount", Reason: "must not be negative"}
	case req.VAT < 0:
		return &model.ValidationError{Field: "vat", Reason: "must not be negative"}
	}
	for _, line := range req.Items {
		if line.MenuItemID == "" {
			return &model.ValidationError{Field: "items", Reason: "menu_item_id required"}
		}
		if line.Quantity <= 0 {
			return &model.ValidationError{Field: "quantity", Reason: "must be greater than zero"}
		}
	}
	return nil
}

// aggregateLines sums duplicate menu item references and returns the
// debits sorted by item id, which is also the lock order ApplyOrder uses.
func aggregateLines(lines []model.PlaceOrderLine) []model.StockDebit {
	byItem := make(map[string]int, len(lines))
	for _, line := range lines {
		byItem[line.MenuItemID] += line.Quantity
	}
	debits := make([]model.StockDebit, 0, len(byItem))
	for id, qty := range byItem {
		debits = append(debits, model.StockDebit{MenuItemID: id, Quantity: qty})
	}
	sort.Slice(debits, func(i, j int) bool { return debits[i].MenuItemID < debits[j].MenuItemID })
	return debits
}

// notFoundOr maps a store miss to the taxonomy NotFoundError and passes
// every other error through untouched.
func notFoundOr(err error, entity string) error {
	if errors.Is(err, model.ErrNoRows) {
		return &model.NotFoundError{Entity: entity}
	}
	return err
}
