package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tapcard/internal/model"
	"tapcard/internal/repository/memory"
)

type mockCache struct {
	mu       sync.Mutex
	balances map[string]int64
	err      error
}

func newMockCache() *mockCache {
	return &mockCache{balances: make(map[string]int64)}
}

func (m *mockCache) GetBalance(ctx context.Context, customerID string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, false, m.err
	}
	b, ok := m.balances[customerID]
	return b, ok, nil
}

func (m *mockCache) SetBalance(ctx context.Context, customerID string, balance int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.balances[customerID] = balance
	return nil
}

func (m *mockCache) DropBalance(ctx context.Context, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.balances, customerID)
	return nil
}

func newCardFixture(t *testing.T) (*CardService, *memory.Store, *mockCache, *model.User) {
	t.Helper()
	store := memory.NewStore()
	recharger, err := store.Users().Create(context.Background(), &model.User{
		Name:  "Dipa",
		Phone: "01700000009",
		Role:  model.RoleRecharger,
	})
	if err != nil {
		t.Fatalf("seed recharger: %v", err)
	}
	cache := newMockCache()
	return NewCardService(store.Customers(), store.Users(), cache), store, cache, recharger
}

func TestCreateCustomer(t *testing.T) {
	svc, _, cache, recharger := newCardFixture(t)
	ctx := context.Background()

	customer, err := svc.CreateCustomer(ctx, model.CreateCustomerRequest{
		Name:      "Karim",
		Phone:     "01800000001",
		CardUID:   "CARD-001",
		Balance:   100,
		CreatedBy: recharger.ID,
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if customer.Balance != 100 || customer.CreatedBy != recharger.ID {
		t.Errorf("customer = %+v", customer)
	}
	if got := cache.balances[customer.ID]; got != 100 {
		t.Errorf("cache balance = %d, want 100", got)
	}
}

func TestCreateCustomer_OnlyRechargers(t *testing.T) {
	svc, store, _, _ := newCardFixture(t)
	ctx := context.Background()

	cashier, err := store.Users().Create(ctx, &model.User{
		Name: "Rahim", Phone: "01700000002", Role: model.RoleStallCashier, StallID: "s1",
	})
	if err != nil {
		t.Fatalf("seed cashier: %v", err)
	}

	_, err = svc.CreateCustomer(ctx, model.CreateCustomerRequest{
		Name: "Karim", Phone: "01800000001", CreatedBy: cashier.ID,
	})
	var validation *model.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestRecharge(t *testing.T) {
	svc, _, cache, recharger := newCardFixture(t)
	ctx := context.Background()

	customer, err := svc.CreateCustomer(ctx, model.CreateCustomerRequest{
		Name: "Karim", Phone: "01800000001", CardUID: "CARD-001", Balance: 50, CreatedBy: recharger.ID,
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	updated, err := svc.Recharge(ctx, model.RechargeRequest{
		CardUID: "CARD-001", Amount: 200, RechargerID: recharger.ID,
	})
	if err != nil {
		t.Fatalf("Recharge: %v", err)
	}
	if updated.Balance != 250 {
		t.Errorf("balance = %d, want 250", updated.Balance)
	}
	if got := cache.balances[customer.ID]; got != 250 {
		t.Errorf("cache balance = %d, want 250", got)
	}

	history, err := svc.RechargeHistory(ctx, customer.ID, 0)
	if err != nil {
		t.Fatalf("RechargeHistory: %v", err)
	}
	if len(history) != 1 || history[0].Amount != 200 || history[0].BalanceBefore != 50 {
		t.Errorf("history = %+v, want one entry amount 200 before 50", history)
	}
	if history[0].RechargerName != recharger.Name {
		t.Errorf("recharger name = %q, want %q", history[0].RechargerName, recharger.Name)
	}
}

func TestRecharge_RejectsNonPositive(t *testing.T) {
	svc, _, _, recharger := newCardFixture(t)
	ctx := context.Background()

	for _, amount := range []int64{0, -100} {
		_, err := svc.Recharge(ctx, model.RechargeRequest{
			CardUID: "CARD-001", Amount: amount, RechargerID: recharger.ID,
		})
		var validation *model.ValidationError
		if !errors.As(err, &validation) {
			t.Errorf("amount %d: err = %v, want ValidationError", amount, err)
		}
	}
}

func TestRecharge_UnknownCard(t *testing.T) {
	svc, _, _, recharger := newCardFixture(t)

	_, err := svc.Recharge(context.Background(), model.RechargeRequest{
		CardUID: "NOPE", Amount: 100, RechargerID: recharger.ID,
	})
	var notFound *model.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if notFound.Entity != "customer" {
		t.Errorf("entity = %q, want customer", notFound.Entity)
	}
}

func TestGetBalance_CacheFlow(t *testing.T) {
	svc, _, cache, recharger := newCardFixture(t)
	ctx := context.Background()

	customer, err := svc.CreateCustomer(ctx, model.CreateCustomerRequest{
		Name: "Karim", Phone: "01800000001", Balance: 75, CreatedBy: recharger.ID,
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	// Warm cache hit.
	balance, err := svc.GetBalance(ctx, customer.ID)
	if err != nil || balance != 75 {
		t.Fatalf("GetBalance = %d, %v; want 75, nil", balance, err)
	}

	// Miss falls through to the store and rewarms.
	if err := cache.DropBalance(ctx, customer.ID); err != nil {
		t.Fatalf("drop: %v", err)
	}
	balance, err = svc.GetBalance(ctx, customer.ID)
	if err != nil || balance != 75 {
		t.Fatalf("GetBalance after miss = %d, %v; want 75, nil", balance, err)
	}
	if got := cache.balances[customer.ID]; got != 75 {
		t.Errorf("cache not rewarmed, got %d", got)
	}

	// A broken cache degrades to the store instead of failing.
	cache.err = errors.New("redis down")
	balance, err = svc.GetBalance(ctx, customer.ID)
	if err != nil || balance != 75 {
		t.Fatalf("GetBalance with broken cache = %d, %v; want 75, nil", balance, err)
	}
}

func TestAssignAndRemoveCard(t *testing.T) {
	svc, store, _, recharger := newCardFixture(t)
	ctx := context.Background()

	customer, err := svc.CreateCustomer(ctx, model.CreateCustomerRequest{
		Name: "Karim", Phone: "01800000001", Balance: 120, CreatedBy: recharger.ID,
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	assigned, err := svc.AssignCard(ctx, model.AssignCardRequest{Phone: "01800000001", CardUID: "CARD-XYZ"})
	if err != nil {
		t.Fatalf("AssignCard: %v", err)
	}
	if assigned.CardUID != "CARD-XYZ" {
		t.Errorf("card uid = %q, want CARD-XYZ", assigned.CardUID)
	}

	removed, err := svc.RemoveCard(ctx, "CARD-XYZ", recharger.ID)
	if err != nil {
		t.Fatalf("RemoveCard: %v", err)
	}
	if removed.CardUID != "" || removed.Balance != 0 {
		t.Errorf("after removal: uid %q balance %d, want empty/0", removed.CardUID, removed.Balance)
	}

	// The zeroing shows up in the audit trail.
	history, err := store.Customers().RechargeHistory(ctx, customer.ID, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	last := history[len(history)-1]
	if last.Amount != -120 || last.BalanceBefore != 120 {
		t.Errorf("removal entry = %+v, want amount -120 before 120", last)
	}
}

func TestDeleteCustomer(t *testing.T) {
	svc, _, cache, recharger := newCardFixture(t)
	ctx := context.Background()

	customer, err := svc.CreateCustomer(ctx, model.CreateCustomerRequest{
		Name: "Karim", Phone: "01800000001", Balance: 10, CreatedBy: recharger.ID,
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	if err := svc.DeleteCustomer(ctx, customer.ID); err != nil {
		t.Fatalf("DeleteCustomer: %v", err)
	}
	if _, ok := cache.balances[customer.ID]; ok {
		t.Error("cache entry survived deletion")
	}
	if _, err := svc.FindCustomer(ctx, "01800000001"); err == nil {
		t.Error("deleted customer still findable")
	}

	err = svc.DeleteCustomer(ctx, customer.ID)
	var notFound *model.NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("second delete err = %v, want NotFoundError", err)
	}
}
