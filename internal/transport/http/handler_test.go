package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tapcard/internal/auth"
	"tapcard/internal/model"
	"tapcard/internal/repository/memory"
	"tapcard/internal/service"
)

type nopSMS struct{}

func (nopSMS) Send(ctx context.Context, phone, message string) error { return nil }

type nopOTP struct{}

func (nopOTP) StoreOTP(ctx context.Context, phone, code string, ttl time.Duration) error {
	return nil
}
func (nopOTP) ConsumeOTP(ctx context.Context, phone, code string) (bool, error) {
	return false, nil
}

type testEnv struct {
	mux    *http.ServeMux
	store  *memory.Store
	tokens *auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	orders := service.NewOrderService(store.Users(), store.Customers(), store.Stalls(), store.Orders(), nil, nil, nil)
	cards := service.NewCardService(store.Customers(), store.Users(), nil)
	stalls := service.NewStallService(store.Stalls())
	authSvc := service.NewAuthService(store.Users(), nopOTP{}, nopSMS{}, tokens, time.Minute)

	mux := http.NewServeMux()
	NewHandler(orders, cards, stalls, authSvc, tokens).Register(mux)
	return &testEnv{mux: mux, store: store, tokens: tokens}
}

// userToken seeds a user with the given role and returns a bearer token
// for them.
func (e *testEnv) userToken(t *testing.T, role model.Role) (*model.User, string) {
	t.Helper()
	user, err := e.store.Users().Create(context.Background(), &model.User{
		Name:  "User " + string(role),
		Phone: fmt.Sprintf("017%08d", len(role)),
		Role:  role,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token, err := e.tokens.Mint(user)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return user, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
	return out
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRoutes_RequireAuth(t *testing.T) {
	e := newTestEnv(t)

	paths := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/orders"},
		{http.MethodPost, "/api/v1/customers/create"},
		{http.MethodPost, "/api/v1/customers/recharge"},
		{http.MethodGet, "/api/v1/stalls"},
		{http.MethodPost, "/api/v1/auth/register"},
	}
	for _, p := range paths {
		rec := e.do(t, p.method, p.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status = %d, want 401", p.method, p.path, rec.Code)
		}
	}

	rec := e.do(t, http.MethodGet, "/api/v1/stalls", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", rec.Code)
	}
}

func TestRoutes_EnforceRoles(t *testing.T) {
	e := newTestEnv(t)
	_, cashierToken := e.userToken(t, model.RoleStallCashier)
	_, rechargerToken := e.userToken(t, model.RoleRecharger)

	// A cashier cannot recharge cards.
	rec := e.do(t, http.MethodPost, "/api/v1/customers/recharge", cashierToken, model.RechargeRequest{CardUID: "X", Amount: 10})
	if rec.Code != http.StatusForbidden {
		t.Errorf("cashier recharge: status = %d, want 403", rec.Code)
	}

	// A recharger cannot place orders.
	rec = e.do(t, http.MethodPost, "/api/v1/orders", rechargerToken, model.PlaceOrderRequest{})
	if rec.Code != http.StatusForbidden {
		t.Errorf("recharger order: status = %d, want 403", rec.Code)
	}

	// A recharger cannot create stalls.
	rec = e.do(t, http.MethodPost, "/api/v1/stalls", rechargerToken, model.CreateStallRequest{MotherStall: "X"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("recharger create stall: status = %d, want 403", rec.Code)
	}
}

func TestPlaceOrder_EndToEnd(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	stall, err := e.store.Stalls().Create(ctx, &model.Stall{
		MotherStall: "North Canteen",
		Menu: []model.MenuItem{
			{FoodName: "Burger", UnitPrice: 100, StockQty: 10, IsAvailable: true},
		},
	})
	if err != nil {
		t.Fatalf("seed stall: %v", err)
	}
	customer, err := e.store.Customers().Create(ctx, &model.Customer{
		Name: "Karim", Phone: "01800000001", CardUID: "CARD-001", Balance: 500,
	})
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	cashier, cashierToken := e.userToken(t, model.RoleStallCashier)

	rec := e.do(t, http.MethodPost, "/api/v1/orders", cashierToken, model.PlaceOrderRequest{
		CustomerID:  customer.ID,
		StallID:     stall.ID,
		Items:       []model.PlaceOrderLine{{MenuItemID: stall.Menu[0].ID, Quantity: 2}},
		TotalAmount: 200,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	result := decode[model.PlaceOrderResult](t, rec)
	if result.BalanceAfter != 300 {
		t.Errorf("balance after = %d, want 300", result.BalanceAfter)
	}
	// ServedBy defaults to the authenticated cashier.
	if result.Order.ServedBy != cashier.ID {
		t.Errorf("served by = %q, want %q", result.Order.ServedBy, cashier.ID)
	}

	// Read it back.
	rec = e.do(t, http.MethodGet, "/api/v1/orders/"+result.Order.ID, cashierToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get order: status = %d", rec.Code)
	}
}

func TestPlaceOrder_ErrorStatuses(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	stall, err := e.store.Stalls().Create(ctx, &model.Stall{
		MotherStall: "North Canteen",
		Menu: []model.MenuItem{
			{FoodName: "Burger", UnitPrice: 100, StockQty: 1, IsAvailable: true},
		},
	})
	if err != nil {
		t.Fatalf("seed stall: %v", err)
	}
	customer, err := e.store.Customers().Create(ctx, &model.Customer{
		Name: "Karim", Phone: "01800000001", Balance: 100,
	})
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	_, token := e.userToken(t, model.RoleStallCashier)

	order := func(customerID string, qty int, total int64) *httptest.ResponseRecorder {
		return e.do(t, http.MethodPost, "/api/v1/orders", token, model.PlaceOrderRequest{
			CustomerID:  customerID,
			StallID:     stall.ID,
			Items:       []model.PlaceOrderLine{{MenuItemID: stall.Menu[0].ID, Quantity: qty}},
			TotalAmount: total,
		})
	}

	// Unknown customer: 404.
	if rec := order("nope", 1, 100); rec.Code != http.StatusNotFound {
		t.Errorf("unknown customer: status = %d, want 404", rec.Code)
	}

	// Insufficient stock: 400.
	if rec := order(customer.ID, 2, 200); rec.Code != http.StatusBadRequest {
		t.Errorf("insufficient stock: status = %d, want 400", rec.Code)
	}
	body := decode[map[string]string](t, order(customer.ID, 2, 200))
	if body["error"] != "insufficient_stock" {
		t.Errorf("error code = %q, want insufficient_stock", body["error"])
	}

	// Zero quantity: 400 validation.
	if rec := order(customer.ID, 0, 0); rec.Code != http.StatusBadRequest {
		t.Errorf("zero quantity: status = %d, want 400", rec.Code)
	}

	// Invalid body: 400.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString("{nope"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid json: status = %d, want 400", rec.Code)
	}
}

func TestCustomerLifecycle(t *testing.T) {
	e := newTestEnv(t)
	_, rechargerToken := e.userToken(t, model.RoleRecharger)

	// Create a customer with an opening balance.
	rec := e.do(t, http.MethodPost, "/api/v1/customers/create", rechargerToken, model.CreateCustomerRequest{
		Name: "Karim", Phone: "01800000001", CardUID: "CARD-001", Balance: 100,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	customer := decode[model.Customer](t, rec)

	// Recharge by card uid.
	rec = e.do(t, http.MethodPost, "/api/v1/customers/recharge", rechargerToken, model.RechargeRequest{
		CardUID: "CARD-001", Amount: 400,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("recharge: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := decode[model.Customer](t, rec); got.Balance != 500 {
		t.Errorf("balance = %d, want 500", got.Balance)
	}

	// Balance endpoint.
	rec = e.do(t, http.MethodGet, "/api/v1/customers/"+customer.ID+"/balance", rechargerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("balance: status = %d", rec.Code)
	}
	if got := decode[map[string]int64](t, rec); got["balance"] != 500 {
		t.Errorf("balance = %d, want 500", got["balance"])
	}

	// Lookup by card or phone.
	for _, id := range []string{"CARD-001", "01800000001"} {
		rec = e.do(t, http.MethodGet, "/api/v1/customers/getCustomer/"+id, rechargerToken, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("lookup %q: status = %d", id, rec.Code)
		}
	}

	rec = e.do(t, http.MethodGet, "/api/v1/customers/getCustomer/unknown", rechargerToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown lookup: status = %d, want 404", rec.Code)
	}
}

func TestStallAndMenuRoutes(t *testing.T) {
	e := newTestEnv(t)
	_, masterToken := e.userToken(t, model.RoleMasterAdmin)

	rec := e.do(t, http.MethodPost, "/api/v1/stalls", masterToken, model.CreateStallRequest{
		MotherStall: "North Canteen",
		Menu: []model.MenuItemRequest{
			{FoodName: "Burger", UnitPrice: 100, StockQty: 5},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create stall: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	stall := decode[model.Stall](t, rec)
	if len(stall.Menu) != 1 || !stall.Menu[0].IsAvailable {
		t.Fatalf("stall menu = %+v", stall.Menu)
	}

	// Add a second item.
	rec = e.do(t, http.MethodPost, "/api/v1/stalls/"+stall.ID+"/menu", masterToken, model.MenuItemRequest{
		FoodName: "Juice", UnitPrice: 50, StockQty: 6,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add item: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	juice := decode[model.MenuItem](t, rec)

	// Restock it.
	rec = e.do(t, http.MethodPost, "/api/v1/stalls/"+stall.ID+"/menu/"+juice.ID+"/restock", masterToken, model.RestockRequest{Quantity: 4})
	if rec.Code != http.StatusOK {
		t.Fatalf("restock: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := decode[model.MenuItem](t, rec); got.StockQty != 10 {
		t.Errorf("stock after restock = %d, want 10", got.StockQty)
	}

	// Negative restock is rejected.
	rec = e.do(t, http.MethodPost, "/api/v1/stalls/"+stall.ID+"/menu/"+juice.ID+"/restock", masterToken, model.RestockRequest{Quantity: -1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative restock: status = %d, want 400", rec.Code)
	}

	// Flip availability.
	rec = e.do(t, http.MethodPost, "/api/v1/stalls/"+stall.ID+"/menu/"+juice.ID+"/availability", masterToken, model.SetAvailabilityRequest{IsAvailable: false})
	if rec.Code != http.StatusOK {
		t.Fatalf("availability: status = %d", rec.Code)
	}
	if got := decode[model.MenuItem](t, rec); got.IsAvailable {
		t.Error("item still available after flip")
	}

	// Menu listing is open to any authenticated user.
	_, cashierToken := e.userToken(t, model.RoleStallCashier)
	rec = e.do(t, http.MethodGet, "/api/v1/stalls/"+stall.ID+"/menu", cashierToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get menu: status = %d", rec.Code)
	}
	if body := decode[map[string][]model.MenuItem](t, rec); len(body["menu"]) != 2 {
		t.Errorf("menu has %d items, want 2", len(body["menu"]))
	}
}

func TestRegisterAndLoginRoutes(t *testing.T) {
	e := newTestEnv(t)
	_, masterToken := e.userToken(t, model.RoleMasterAdmin)

	rec := e.do(t, http.MethodPost, "/api/v1/auth/register", masterToken, model.RegisterRequest{
		Name:     "Dipa",
		Phone:    "01811111111",
		Password: "secret1",
		Role:     model.RoleRecharger,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{
		Phone: "01811111111", Password: "secret1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	result := decode[model.AuthResult](t, rec)
	if result.Token == "" {
		t.Error("login returned no token")
	}

	// The minted token works against a protected route.
	rec = e.do(t, http.MethodGet, "/api/v1/showme", result.Token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("showme: status = %d", rec.Code)
	}

	rec = e.do(t, http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{
		Phone: "01811111111", Password: "wrong",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad login: status = %d, want 400", rec.Code)
	}

	// A recharger cannot register users.
	rec = e.do(t, http.MethodPost, "/api/v1/auth/register", result.Token, model.RegisterRequest{
		Name: "X", Phone: "01822222222", Password: "secret1", Role: model.RoleRecharger,
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("recharger register: status = %d, want 403", rec.Code)
	}
}
