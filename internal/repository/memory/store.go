// Package memory provides mutex-guarded in-memory implementations of the
// service storage ports. A single lock serializes every check-then-mutate
// sequence, which gives the same atomicity guarantees the Postgres
// repositories get from row locks and conditional updates. Used by tests
// and single-node development runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tapcard/internal/model"
)

type Store struct {
	mu        sync.Mutex
	users     map[string]*model.User
	customers map[string]*model.Customer
	stalls    map[string]*model.Stall
	orders    map[string]*model.Order
	recharges map[string][]model.RechargeEntry
	history   map[string][]model.OrderHistoryEntry
}

func NewStore() *Store {
	return &Store{
		users:     make(map[string]*model.User),
		customers: make(map[string]*model.Customer),
		stalls:    make(map[string]*model.Stall),
		orders:    make(map[string]*model.Order),
		recharges: make(map[string][]model.RechargeEntry),
		history:   make(map[string][]model.OrderHistoryEntry),
	}
}

// Per-entity views. All four share the store's single mutex, so a
// customer recharge and an order debit against the same account can never
// interleave.

func (s *Store) Users() *Users         { return &Users{s} }
func (s *Store) Customers() *Customers { return &Customers{s} }
func (s *Store) Stalls() *Stalls       { return &Stalls{s} }
func (s *Store) Orders() *Orders       { return &Orders{s} }

type Users struct{ s *Store }

func (v *Users) Create(ctx context.Context, u *model.User) (*model.User, error) {
	return v.s.createUser(ctx, u)
}
func (v *Users) FindByID(ctx context.Context, id string) (*model.User, error) {
	return v.s.findUserByID(ctx, id)
}
func (v *Users) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	return v.s.findUserByPhone(ctx, phone)
}
func (v *Users) UpdatePassword(ctx context.Context, phone, hash string) error {
	return v.s.updatePassword(ctx, phone, hash)
}

type Customers struct{ s *Store }

func (v *Customers) Create(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	return v.s.createCustomer(ctx, c)
}
func (v *Customers) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	return v.s.findCustomerByID(ctx, id)
}
func (v *Customers) FindByCardOrPhone(ctx context.Context, identifier string) (*model.Customer, error) {
	return v.s.findByCardOrPhone(ctx, identifier)
}
func (v *Customers) Recharge(ctx context.Context, customerID, rechargerID, rechargerName string, amount int64) (*model.Customer, error) {
	return v.s.recharge(ctx, customerID, rechargerID, rechargerName, amount)
}
func (v *Customers) AssignCard(ctx context.Context, phone, cardUID string) (*model.Customer, error) {
	return v.s.assignCard(ctx, phone, cardUID)
}
func (v *Customers) RemoveCard(ctx context.Context, cardUID, actorID string) (*model.Customer, error) {
	return v.s.removeCard(ctx, cardUID, actorID)
}
func (v *Customers) Delete(ctx context.Context, id string) error {
	return v.s.deleteCustomer(ctx, id)
}
func (v *Customers) RechargeHistory(ctx context.Context, customerID string, limit int) ([]model.RechargeEntry, error) {
	return v.s.rechargeHistory(ctx, customerID, limit)
}

type Stalls struct{ s *Store }

func (v *Stalls) Create(ctx context.Context, stall *model.Stall) (*model.Stall, error) {
	return v.s.createStall(ctx, stall)
}
func (v *Stalls) FindByID(ctx context.Context, id string) (*model.Stall, error) {
	return v.s.findStallByID(ctx, id)
}
func (v *Stalls) List(ctx context.Context) ([]model.Stall, error) {
	return v.s.listStalls(ctx)
}
func (v *Stalls) Update(ctx context.Context, id string, req model.UpdateStallRequest) (*model.Stall, error) {
	return v.s.updateStall(ctx, id, req)
}
func (v *Stalls) Menu(ctx context.Context, stallID string) ([]model.MenuItem, error) {
	return v.s.menu(ctx, stallID)
}
func (v *Stalls) AddMenuItem(ctx context.Context, stallID string, req model.MenuItemRequest) (*model.MenuItem, error) {
	return v.s.addMenuItem(ctx, stallID, req)
}
func (v *Stalls) UpdateMenuItem(ctx context.Context, stallID, itemID string, req model.MenuItemRequest) (*model.MenuItem, error) {
	return v.s.updateMenuItem(ctx, stallID, itemID, req)
}
func (v *Stalls) RemoveMenuItem(ctx context.Context, stallID, itemID string) error {
	return v.s.removeMenuItem(ctx, stallID, itemID)
}
func (v *Stalls) Restock(ctx context.Context, stallID, itemID string, qty int) (*model.MenuItem, error) {
	return v.s.restock(ctx, stallID, itemID, qty)
}
func (v *Stalls) SetAvailability(ctx context.Context, stallID, itemID string, available bool) (*model.MenuItem, error) {
	return v.s.setAvailability(ctx, stallID, itemID, available)
}

type Orders struct{ s *Store }

func (v *Orders) ApplyOrder(ctx context.Context, o *model.Order, debits []model.StockDebit) (int64, int64, error) {
	return v.s.applyOrder(ctx, o, debits)
}
func (v *Orders) FindByID(ctx context.Context, id string) (*model.OrderDetail, error) {
	return v.s.findOrderByID(ctx, id)
}
func (v *Orders) ListByStall(ctx context.Context, stallID string, page, limit int) (*model.OrderPage, error) {
	return v.s.listByStall(ctx, stallID, page, limit)
}
func (v *Orders) SummaryByStall(ctx context.Context, stallID string, page, limit int) (*model.OrderSummaryPage, error) {
	return v.s.summaryByStall(ctx, stallID, page, limit)
}

// ---- users ----

func (s *Store) createUser(ctx context.Context, u *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()
	s.users[u.ID] = cloneUser(u)

	if stall, ok := s.stalls[u.StallID]; ok {
		switch u.Role {
		case model.RoleStallAdmin:
			stall.AdminID = u.ID
		case model.RoleStallCashier:
			stall.CashierIDs = append(stall.CashierIDs, u.ID)
		}
	}
	return cloneUser(u), nil
}

func (s *Store) findUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrNoRows
	}
	return cloneUser(u), nil
}

func (s *Store) findUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Phone == phone {
			return cloneUser(u), nil
		}
	}
	return nil, model.ErrNoRows
}

func (s *Store) updatePassword(ctx context.Context, phone, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Phone == phone {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return model.ErrNoRows
}

// ---- customers ----

func (s *Store) createCustomer(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	s.customers[c.ID] = cloneCustomer(c)
	return cloneCustomer(c), nil
}

func (s *Store) findCustomerByID(ctx context.Context, id string) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, model.ErrNoRows
	}
	return cloneCustomer(c), nil
}

func (s *Store) findByCardOrPhone(ctx context.Context, identifier string) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.customers {
		if (c.CardUID != "" && c.CardUID == identifier) || c.Phone == identifier {
			return cloneCustomer(c), nil
		}
	}
	return nil, model.ErrNoRows
}

func (s *Store) recharge(ctx context.Context, customerID, rechargerID, rechargerName string, amount int64) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerID]
	if !ok {
		return nil, model.ErrNoRows
	}
	s.recharges[customerID] = append(s.recharges[customerID], model.RechargeEntry{
		CustomerID:    customerID,
		RechargerID:   rechargerID,
		RechargerName: rechargerName,
		Amount:        amount,
		BalanceBefore: c.Balance,
		CreatedAt:     time.Now().UTC(),
	})
	c.Balance += amount
	c.UpdatedAt = time.Now().UTC()
	return cloneCustomer(c), nil
}

func (s *Store) assignCard(ctx context.Context, phone, cardUID string) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.customers {
		if c.Phone == phone {
			c.CardUID = cardUID
			c.UpdatedAt = time.Now().UTC()
			return cloneCustomer(c), nil
		}
	}
	return nil, model.ErrNoRows
}

func (s *Store) removeCard(ctx context.Context, cardUID, actorID string) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.customers {
		if c.CardUID == cardUID {
			if c.Balance != 0 {
				s.recharges[c.ID] = append(s.recharges[c.ID], model.RechargeEntry{
					CustomerID:    c.ID,
					RechargerID:   actorID,
					RechargerName: "card removal",
					Amount:        -c.Balance,
					BalanceBefore: c.Balance,
					CreatedAt:     time.Now().UTC(),
				})
			}
			c.CardUID = ""
			c.Balance = 0
			c.UpdatedAt = time.Now().UTC()
			return cloneCustomer(c), nil
		}
	}
	return nil, model.ErrNoRows
}

func (s *Store) deleteCustomer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[id]; !ok {
		return model.ErrNoRows
	}
	delete(s.customers, id)
	return nil
}

func (s *Store) rechargeHistory(ctx context.Context, customerID string, limit int) ([]model.RechargeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.recharges[customerID]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]model.RechargeEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// ---- stalls ----

func (s *Store) createStall(ctx context.Context, stall *model.Stall) (*model.Stall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stall.ID == "" {
		stall.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stall.CreatedAt, stall.UpdatedAt = now, now
	for i := range stall.Menu {
		if stall.Menu[i].ID == "" {
			stall.Menu[i].ID = uuid.NewString()
		}
		stall.Menu[i].StallID = stall.ID
	}
	s.stalls[stall.ID] = cloneStall(stall)
	return cloneStall(stall), nil
}

func (s *Store) findStallByID(ctx context.Context, id string) (*model.Stall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stall, ok := s.stalls[id]
	if !ok {
		return nil, model.ErrNoRows
	}
	return cloneStall(stall), nil
}

func (s *Store) listStalls(ctx context.Context) ([]model.Stall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Stall, 0, len(s.stalls))
	for _, stall := range s.stalls {
		out = append(out, *cloneStall(stall))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MotherStall < out[j].MotherStall })
	return out, nil
}

func (s *Store) updateStall(ctx context.Context, id string, req model.UpdateStallRequest) (*model.Stall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stall, ok := s.stalls[id]
	if !ok {
		return nil, model.ErrNoRows
	}
	if req.MotherStall != "" {
		stall.MotherStall = req.MotherStall
	}
	if req.AdminID != "" {
		stall.AdminID = req.AdminID
	}
	stall.UpdatedAt = time.Now().UTC()
	return cloneStall(stall), nil
}

func (s *Store) menu(ctx context.Context, stallID string) ([]model.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stall, ok := s.stalls[stallID]
	if !ok {
		return nil, model.ErrNoRows
	}
	menu := make([]model.MenuItem, len(stall.Menu))
	copy(menu, stall.Menu)
	return menu, nil
}

func (s *Store) addMenuItem(ctx context.Context, stallID string, req model.MenuItemRequest) (*model.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stall, ok := s.stalls[stallID]
	if !ok {
		return nil, model.ErrNoRows
	}
	item := model.MenuItem{
		ID:          uuid.NewString(),
		StallID:     stallID,
		FoodName:    req.FoodName,
		UnitPrice:   req.UnitPrice,
		StockQty:    req.StockQty,
		IsAvailable: true,
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	stall.Menu = append(stall.Menu, item)
	return &item, nil
}

func (s *Store) updateMenuItem(ctx context.Context, stallID, itemID string, req model.MenuItemRequest) (*model.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.menuItemLocked(stallID, itemID)
	if err != nil {
		return nil, err
	}
	item.FoodName = req.FoodName
	item.UnitPrice = req.UnitPrice
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	out := *item
	return &out, nil
}

func (s *Store) removeMenuItem(ctx context.Context, stallID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stall, ok := s.stalls[stallID]
	if !ok {
		return model.ErrNoRows
	}
	for i, item := range stall.Menu {
		if item.ID == itemID {
			stall.Menu = append(stall.Menu[:i], stall.Menu[i+1:]...)
			return nil
		}
	}
	return model.ErrNoRows
}

func (s *Store) restock(ctx context.Context, stallID, itemID string, qty int) (*model.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.menuItemLocked(stallID, itemID)
	if err != nil {
		return nil, err
	}
	item.StockQty += qty
	out := *item
	return &out, nil
}

func (s *Store) setAvailability(ctx context.Context, stallID, itemID string, available bool) (*model.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.menuItemLocked(stallID, itemID)
	if err != nil {
		return nil, err
	}
	item.IsAvailable = available
	out := *item
	return &out, nil
}

func (s *Store) menuItemLocked(stallID, itemID string) (*model.MenuItem, error) {
	stall, ok := s.stalls[stallID]
	if !ok {
		return nil, model.ErrNoRows
	}
	for i := range stall.Menu {
		if stall.Menu[i].ID == itemID {
			return &stall.Menu[i], nil
		}
	}
	return nil, model.ErrNoRows
}

// ---- orders ----

// ApplyOrder validates everything under the lock before touching anything,
// so a failure leaves the store byte-for-byte unchanged.
func (s *Store) applyOrder(ctx context.Context, o *model.Order, debits []model.StockDebit) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, ok := s.customers[o.CustomerID]
	if !ok {
		return 0, 0, &model.NotFoundError{Entity: "customer"}
	}
	stall, ok := s.stalls[o.StallID]
	if !ok {
		return 0, 0, &model.NotFoundError{Entity: "stall"}
	}

	items := make([]*model.MenuItem, 0, len(debits))
	for _, d := range debits {
		var found *model.MenuItem
		for i := range stall.Menu {
			if stall.Menu[i].ID == d.MenuItemID {
				found = &stall.Menu[i]
				break
			}
		}
		if found == nil || !found.IsAvailable {
			return 0, 0, &model.NotFoundError{Entity: "menu item"}
		}
		if found.StockQty < d.Quantity {
			return 0, 0, &model.InsufficientStockError{ItemID: found.ID, FoodName: found.FoodName}
		}
		items = append(items, found)
	}

	if customer.Balance < o.TotalAmount {
		return 0, 0, &model.InsufficientFundsError{Balance: customer.Balance, Required: o.TotalAmount}
	}

	// All checks passed; mutate.
	balanceBefore := customer.Balance
	for i, d := range debits {
		items[i].StockQty -= d.Quantity
	}
	customer.Balance -= o.TotalAmount
	customer.UpdatedAt = time.Now().UTC()

	stored := *o
	stored.Items = make([]model.OrderItem, len(o.Items))
	copy(stored.Items, o.Items)
	s.orders[o.ID] = &stored
	s.history[o.CustomerID] = append(s.history[o.CustomerID], model.OrderHistoryEntry{
		CustomerID:  o.CustomerID,
		OrderID:     o.ID,
		TotalAmount: o.TotalAmount,
		ServedBy:    o.ServedBy,
		CreatedAt:   o.CreatedAt,
	})

	return balanceBefore, customer.Balance, nil
}

func (s *Store) findOrderByID(ctx context.Context, id string) (*model.OrderDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, model.ErrNoRows
	}
	detail := &model.OrderDetail{Order: *o}
	if c, ok := s.customers[o.CustomerID]; ok {
		detail.CustomerName = c.Name
	}
	if u, ok := s.users[o.ServedBy]; ok {
		detail.ServedByName = u.Name
	}
	return detail, nil
}

func (s *Store) listByStall(ctx context.Context, stallID string, page, limit int) (*model.OrderPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var all []model.Order
	for _, o := range s.orders {
		if o.StallID == stallID {
			all = append(all, *o)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	result := &model.OrderPage{Total: total, Page: page}
	if total > 0 {
		result.Pages = (total + limit - 1) / limit
	}
	start := (page - 1) * limit
	if start < total {
		end := start + limit
		if end > total {
			end = total
		}
		result.Orders = all[start:end]
	}
	return result, nil
}

func (s *Store) summaryByStall(ctx context.Context, stallID string, page, limit int) (*model.OrderSummaryPage, error) {
	listing, err := s.listByStall(ctx, stallID, page, limit)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	result := &model.OrderSummaryPage{Total: listing.Total, Page: listing.Page, Pages: listing.Pages}
	for _, o := range listing.Orders {
		row := model.OrderSummaryRow{OrderID: o.ID, TotalAmount: o.TotalAmount, CreatedAt: o.CreatedAt}
		if u, ok := s.users[o.ServedBy]; ok {
			row.ServedByName = u.Name
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

// OrderHistory returns the customer's append-only order references.
func (s *Store) OrderHistory(customerID string) []model.OrderHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.OrderHistoryEntry, len(s.history[customerID]))
	copy(out, s.history[customerID])
	return out
}

func cloneUser(u *model.User) *model.User {
	c := *u
	return &c
}

func cloneCustomer(c *model.Customer) *model.Customer {
	out := *c
	return &out
}

func cloneStall(s *model.Stall) *model.Stall {
	out := *s
	out.Menu = make([]model.MenuItem, len(s.Menu))
	copy(out.Menu, s.Menu)
	out.CashierIDs = append([]string(nil), s.CashierIDs...)
	return &out
}
