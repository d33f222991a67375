package service

import (
	"context"

	"tapcard/internal/model"
)

// StallService covers the administrative side of the stock ledger: stall
// and menu CRUD, restock, availability flips. None of these run inside an
// order transaction.
type StallService struct {
	stalls StallStore
}

func NewStallService(stalls StallStore) *StallService {
	return &StallService{stalls: stalls}
}

func (s *StallService) CreateStall(ctx context.Context, req model.CreateStallRequest) (*model.Stall, error) {
	if req.MotherStall == "" {
		return nil, &model.ValidationError{Field: "mother_stall", Reason: "required"}
	}
	stall := &model.Stall{
		MotherStall: req.MotherStall,
		AdminID:     req.AdminID,
		CashierIDs:  req.CashierIDs,
	}
	for _, m := range req.Menu {
		if m.FoodName == "" {
			return nil, &model.ValidationError{Field: "menu.food_name", Reason: "required"}
		}
		if m.UnitPrice < 0 {
			return nil, &model.ValidationError{Field: "menu.unit_price", Reason: "must not be negative"}
		}
		if m.StockQty < 0 {
			return nil, &model.ValidationError{Field: "menu.stock_qty", Reason: "must not be negative"}
		}
		item := model.MenuItem{
			FoodName:    m.FoodName,
			UnitPrice:   m.UnitPrice,
			StockQty:    m.StockQty,
			IsAvailable: true,
		}
		if m.IsAvailable != nil {
			item.IsAvailable = *m.IsAvailable
		}
		stall.Menu = append(stall.Menu, item)
	}
	return s.stalls.Create(ctx, stall)
}

func (s *StallService) GetStall(ctx context.Context, id string) (*model.Stall, error) {
	stall, err := s.stalls.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "stall")
	}
	return stall, nil
}

func (s *StallService) ListStalls(ctx context.Context) ([]model.Stall, error) {
	return s.stalls.List(ctx)
}

func (s *StallService) UpdateStall(ctx context.Context, id string, req model.UpdateStallRequest) (*model.Stall, error) {
	stall, err := s.stalls.Update(ctx, id, req)
	if err != nil {
		return nil, notFoundOr(err, "stall")
	}
	return stall, nil
}

func (s *StallService) GetMenu(ctx context.Context, stallID string) ([]model.MenuItem, error) {
	if _, err := s.stalls.FindByID(ctx, stallID); err != nil {
		return nil, notFoundOr(err, "stall")
	}
	return s.stalls.Menu(ctx, stallID)
}

func (s *StallService) AddMenuItem(ctx context.Context, stallID string, req model.MenuItemRequest) (*model.MenuItem, error) {
	if req.FoodName == "" {
		return nil, &model.ValidationError{Field: "food_name", Reason: "required"}
	}
	if req.UnitPrice < 0 {
		return nil, &model.ValidationError{Field: "unit_price", Reason: "must not be negative"}
	}
	if req.StockQty < 0 {
		return nil, &model.ValidationError{Field: "stock_qty", Reason: "must not be negative"}
	}
	if _, err := s.stalls.FindByID(ctx, stallID); err != nil {
		return nil, notFoundOr(err, "stall")
	}
	return s.stalls.AddMenuItem(ctx, stallID, req)
}

func (s *StallService) UpdateMenuItem(ctx context.Context, stallID, itemID string, req model.MenuItemRequest) (*model.MenuItem, error) {
	if req.UnitPrice < 0 {
		return nil, &model.ValidationError{Field: "unit_price", Reason: "must not be negative"}
	}
	item, err := s.stalls.UpdateMenuItem(ctx, stallID, itemID, req)
	if err != nil {
		return nil, notFoundOr(err, "menu item")
	}
	return item, nil
}

func (s *StallService) RemoveMenuItem(ctx context.Context, stallID, itemID string) error {
	if err := s.stalls.RemoveMenuItem(ctx, stallID, itemID); err != nil {
		return notFoundOr(err, "menu item")
	}
	return nil
}

func (s *StallService) Restock(ctx context.Context, stallID, itemID string, qty int) (*model.MenuItem, error) {
	if qty <= 0 {
		return nil, &model.ValidationError{Field: "quantity", Reason: "must be greater than zero"}
	}
	item, err := s.stalls.Restock(ctx, stallID, itemID, qty)
	if err != nil {
		return nil, notFoundOr(err, "menu item")
	}
	return item, nil
}

func (s *StallService) SetAvailability(ctx context.Context, stallID, itemID string, available bool) (*model.MenuItem, error) {
	item, err := s.stalls.SetAvailability(ctx, stallID, itemID, available)
	if err != nil {
		return nil, notFoundOr(err, "menu item")
	}
	return item, nil
}
