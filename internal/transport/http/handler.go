package http

import (
	"net/http"
	"strconv"

	"tapcard/internal/auth"
	"tapcard/internal/model"
	"tapcard/internal/service"
)

type Handler struct {
	orders *service.OrderService
	cards  *service.CardService
	stalls *service.StallService
	auth   *service.AuthService
	tokens *auth.TokenManager
}

func NewHandler(orders *service.OrderService, cards *service.CardService, stalls *service.StallService, authSvc *service.AuthService, tokens *auth.TokenManager) *Handler {
	return &Handler{orders: orders, cards: cards, stalls: stalls, auth: authSvc, tokens: tokens}
}

func (h *Handler) Register(mux *http.ServeMux) {
	anyRecharger := h.authorize(model.RoleRecharger, model.RoleRechargerAdmin)
	anyCashier := h.authorize(model.RoleStallCashier, model.RoleStallAdmin)
	anyAdmin := h.authorize(model.RoleMasterAdmin, model.RoleRechargerAdmin, model.RoleStallAdmin)
	masterOnly := h.authorize(model.RoleMasterAdmin)
	stallManagers := h.authorize(model.RoleMasterAdmin, model.RoleStallAdmin)

	mux.HandleFunc("GET /health", h.Health)

	// auth
	mux.HandleFunc("POST /api/v1/auth/register", anyAdmin(h.RegisterUser))
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("POST /api/v1/auth/password-reset/request", h.RequestPasswordReset)
	mux.HandleFunc("POST /api/v1/auth/password-reset/confirm", h.ResetPassword)
	mux.HandleFunc("GET /api/v1/showme", h.authenticate(h.ShowMe))

	// customers
	mux.HandleFunc("POST /api/v1/customers/create", anyRecharger(h.CreateCustomer))
	mux.HandleFunc("POST /api/v1/customers/recharge", anyRecharger(h.Recharge))
	mux.HandleFunc("POST /api/v1/customers/addCard", anyRecharger(h.AssignCard))
	mux.HandleFunc("POST /api/v1/customers/removeCard", anyRecharger(h.RemoveCard))
	mux.HandleFunc("GET /api/v1/customers/getCustomer/{identifier}", h.authenticate(h.GetCustomer))
	mux.HandleFunc("GET /api/v1/customers/{customerId}/balance", h.authenticate(h.GetBalance))
	mux.HandleFunc("GET /api/v1/customers/{customerId}/recharges", anyRecharger(h.RechargeHistory))
	mux.HandleFunc("DELETE /api/v1/customers/delete/{customerId}", h.authorize(model.RoleMasterAdmin, model.RoleRechargerAdmin)(h.DeleteCustomer))

	// stalls & menus
	mux.HandleFunc("POST /api/v1/stalls", masterOnly(h.CreateStall))
	mux.HandleFunc("GET /api/v1/stalls", h.authenticate(h.ListStalls))
	mux.HandleFunc("GET /api/v1/stalls/{stallId}", h.authenticate(h.GetStall))
	mux.HandleFunc("PUT /api/v1/stalls/{stallId}", stallManagers(h.UpdateStall))
	mux.HandleFunc("GET /api/v1/stalls/{stallId}/menu", h.authenticate(h.GetMenu))
	mux.HandleFunc("POST /api/v1/stalls/{stallId}/menu", stallManagers(h.AddMenuItem))
	mux.HandleFunc("PUT /api/v1/stalls/{stallId}/menu/{itemId}", stallManagers(h.UpdateMenuItem))
	mux.HandleFunc("DELETE /api/v1/stalls/{stallId}/menu/{itemId}", stallManagers(h.RemoveMenuItem))
	mux.HandleFunc("POST /api/v1/stalls/{stallId}/menu/{itemId}/restock", stallManagers(h.Restock))
	mux.HandleFunc("POST /api/v1/stalls/{stallId}/menu/{itemId}/availability", stallManagers(h.SetAvailability))

	// orders
	mux.HandleFunc("POST /api/v1/orders", anyCashier(h.PlaceOrder))
	mux.HandleFunc("GET /api/v1/orders/{orderId}", h.authenticate(h.GetOrder))
	mux.HandleFunc("GET /api/v1/stalls/{stallId}/orders", h.authenticate(h.ListStallOrders))
	mux.HandleFunc("GET /api/v1/stalls/{stallId}/ordersSummary", h.authenticate(h.StallOrdersSummary))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return page, limit
}
