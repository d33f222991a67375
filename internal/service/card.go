package service

import (
	"context"
	"log/slog"

	"tapcard/internal/model"
)

// CardService owns customer card accounts: creation, recharge, lookup,
// card assignment. Balance reads go through the cache; balance writes go
// through the store and refresh the cache afterwards.
type CardService struct {
	customers CustomerStore
	users     UserStore
	cache     BalanceCache
}

func NewCardService(customers CustomerStore, users UserStore, cache BalanceCache) *CardService {
	return &CardService{customers: customers, users: users, cache: cache}
}

func (s *CardService) CreateCustomer(ctx context.Context, req model.CreateCustomerRequest) (*model.Customer, error) {
	if req.Phone == "" {
		return nil, &model.ValidationError{Field: "phone", Reason: "required"}
	}
	if req.Balance < 0 {
		return nil, &model.ValidationError{Field: "initial_balance", Reason: "must not be negative"}
	}

	creator, err := s.users.FindByID(ctx, req.CreatedBy)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	if creator.Role != model.RoleRecharger && creator.Role != model.RoleRechargerAdmin {
		return nil, &model.ValidationError{Field: "created_by", Reason: "only rechargers may create customers"}
	}

	customer, err := s.customers.Create(ctx, &model.Customer{
		Name:      req.Name,
		Phone:     req.Phone,
		CardUID:   req.CardUID,
		Balance:   req.Balance,
		CreatedBy: creator.ID,
	})
	if err != nil {
		return nil, err
	}
	s.refreshCache(ctx, customer)
	return customer, nil
}

// Recharge credits a card. Amounts must be strictly positive: recharges
// are always additive, never a disguised debit.
func (s *CardService) Recharge(ctx context.Context, req model.RechargeRequest) (*model.Customer, error) {
	if req.Amount <= 0 {
		return nil, &model.ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}

	customer, err := s.customers.FindByCardOrPhone(ctx, req.CardUID)
	if err != nil {
		return nil, notFoundOr(err, "customer")
	}
	recharger, err := s.users.FindByID(ctx, req.RechargerID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}

	updated, err := s.customers.Recharge(ctx, customer.ID, recharger.ID, recharger.Name, req.Amount)
	if err != nil {
		return nil, notFoundOr(err, "customer")
	}
	s.refreshCache(ctx, updated)
	return updated, nil
}

// GetBalance reads through the cache, warming it from the store on a miss.
func (s *CardService) GetBalance(ctx context.Context, customerID string) (int64, error) {
	if s.cache != nil {
		balance, found, err := s.cache.GetBalance(ctx, customerID)
		if err != nil {
			slog.Warn("card: balance cache read failed", "customer_id", customerID, "error", err)
		} else if found {
			return balance, nil
		}
	}

	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return 0, notFoundOr(err, "customer")
	}
	s.refreshCache(ctx, customer)
	return customer.Balance, nil
}

func (s *CardService) FindCustomer(ctx context.Context, identifier string) (*model.Customer, error) {
	customer, err := s.customers.FindByCardOrPhone(ctx, identifier)
	if err != nil {
		return nil, notFoundOr(err, "customer")
	}
	return customer, nil
}

func (s *CardService) AssignCard(ctx context.Context, req model.AssignCardRequest) (*model.Customer, error) {
	if req.CardUID == "" {
		return nil, &model.ValidationError{Field: "new_card_uid", Reason: "required"}
	}
	customer, err := s.customers.AssignCard(ctx, req.Phone, req.CardUID)
	if err != nil {
		return nil, notFoundOr(err, "customer")
	}
	return customer, nil
}

func (s *CardService) RemoveCard(ctx context.Context, cardUID, actorID string) (*model.Customer, error) {
	customer, err := s.customers.RemoveCard(ctx, cardUID, actorID)
	if err != nil {
		return nil, notFoundOr(err, "customer")
	}
	s.refreshCache(ctx, customer)
	return customer, nil
}

func (s *CardService) DeleteCustomer(ctx context.Context, id string) error {
	if err := s.customers.Delete(ctx, id); err != nil {
		return notFoundOr(err, "customer")
	}
	if s.cache != nil {
		if err := s.cache.DropBalance(ctx, id); err != nil {
			slog.Warn("card: balance cache drop failed", "customer_id", id, "error", err)
		}
	}
	return nil
}

func (s *CardService) RechargeHistory(ctx context.Context, customerID string, limit int) ([]model.RechargeEntry, error) {
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, notFoundOr(err, "customer")
	}
	return s.customers.RechargeHistory(ctx, customerID, limit)
}

func (s *CardService) refreshCache(ctx context.Context, c *model.Customer) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetBalance(ctx, c.ID, c.Balance); err != nil {
		slog.Warn("card: balance cache refresh failed", "customer_id", c.ID, "error", err)
	}
}
