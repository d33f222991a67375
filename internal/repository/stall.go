package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tapcard/internal/model"
)

type StallRepo struct {
	db *pgxpool.Pool
}

func NewStallRepo(db *pgxpool.Pool) *StallRepo {
	return &StallRepo{db: db}
}

func (r *StallRepo) Create(ctx context.Context, s *model.Stall) (*model.Stall, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now

	var adminID any
	if s.AdminID != "" {
		adminID = s.AdminID
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO stalls (id, mother_stall, stall_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.MotherStall, adminID, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert stall: %w", err)
	}

	for _, cashier := range s.CashierIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO stall_cashiers (stall_id, user_id) VALUES ($1, $2)`, s.ID, cashier); err != nil {
			return nil, fmt.Errorf("insert cashier: %w", err)
		}
	}

	for i := range s.Menu {
		item := &s.Menu[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.StallID = s.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO menu_items (id, stall_id, food_name, unit_price, stock_qty, is_available)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, s.ID, item.FoodName, item.UnitPrice, item.StockQty, item.IsAvailable); err != nil {
			return nil, fmt.Errorf("insert menu item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s, nil
}

// FindByID loads a stall with its full menu and cashier list.
func (r *StallRepo) FindByID(ctx context.Context, id string) (*model.Stall, error) {
	var s model.Stall
	err := r.db.QueryRow(ctx, `
		SELECT id, mother_stall, COALESCE(stall_admin::text, ''), created_at, updated_at
		FROM stalls WHERE id = $1`, id).
		Scan(&s.ID, &s.MotherStall, &s.AdminID, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("scan stall: %w", err)
	}

	menu, err := r.Menu(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Menu = menu

	rows, err := r.db.Query(ctx, `SELECT user_id FROM stall_cashiers WHERE stall_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query cashiers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("scan cashier: %w", err)
		}
		s.CashierIDs = append(s.CashierIDs, uid)
	}
	return &s, rows.Err()
}

// List returns all stalls ordered alphabetically by mother stall, without
// menus (the listing screen does not need them).
func (r *StallRepo) List(ctx context.Context) ([]model.Stall, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, mother_stall, COALESCE(stall_admin::text, ''), created_at, updated_at
		FROM stalls ORDER BY mother_stall`)
	if err != nil {
		return nil, fmt.Errorf("query stalls: %w", err)
	}
	defer rows.Close()

	var stalls []model.Stall
	for rows.Next() {
		var s model.Stall
		if err := rows.Scan(&s.ID, &s.MotherStall, &s.AdminID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stall: %w", err)
		}
		stalls = append(stalls, s)
	}
	return stalls, rows.Err()
}

func (r *StallRepo) Update(ctx context.Context, id string, req model.UpdateStallRequest) (*model.Stall, error) {
	var adminID any
	if req.AdminID != "" {
		adminID = req.AdminID
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE stalls
		SET mother_stall = COALESCE(NULLIF($1, ''), mother_stall),
		    stall_admin = COALESCE($2, stall_admin),
		    updated_at = now()
		WHERE id = $3`,
		req.MotherStall, adminID, id)
	if err != nil {
		return nil, fmt.Errorf("update stall: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, model.ErrNoRows
	}
	return r.FindByID(ctx, id)
}

func (r *StallRepo) Menu(ctx context.Context, stallID string) ([]model.MenuItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, stall_id, food_name, unit_price, stock_qty, is_available
		FROM menu_items WHERE stall_id = $1 ORDER BY food_name`, stallID)
	if err != nil {
		return nil, fmt.Errorf("query menu: %w", err)
	}
	defer rows.Close()

	var menu []model.MenuItem
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.StallID, &m.FoodName, &m.UnitPrice, &m.StockQty, &m.IsAvailable); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		menu = append(menu, m)
	}
	return menu, rows.Err()
}

func (r *StallRepo) AddMenuItem(ctx context.Context, stallID string, req model.MenuItemRequest) (*model.MenuItem, error) {
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
	_, err := r.db.Exec(ctx, `
		INSERT INTO menu_items (id, stall_id, food_name, unit_price, stock_qty, is_available)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		item.ID, item.StallID, item.FoodName, item.UnitPrice, item.StockQty, item.IsAvailable)
	if err != nil {
		return nil, fmt.Errorf("insert menu item: %w", err)
	}
	return &item, nil
}

func (r *StallRepo) UpdateMenuItem(ctx context.Context, stallID, itemID string, req model.MenuItemRequest) (*model.MenuItem, error) {
	isAvailable := true
	if req.IsAvailable != nil {
		isAvailable = *req.IsAvailable
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE menu_items SET food_name = $1, unit_price = $2, is_available = $3
		WHERE id = $4 AND stall_id = $5`,
		req.FoodName, req.UnitPrice, isAvailable, itemID, stallID)
	if err != nil {
		return nil, fmt.Errorf("update menu item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, model.ErrNoRows
	}
	return r.findMenuItem(ctx, stallID, itemID)
}

func (r *StallRepo) RemoveMenuItem(ctx context.Context, stallID, itemID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM menu_items WHERE id = $1 AND stall_id = $2`, itemID, stallID)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNoRows
	}
	return nil
}

// Restock adds quantity to a stock entry. It is the administrative
// counterpart of the order-path decrement and never runs inside an order
// transaction.
func (r *StallRepo) Restock(ctx context.Context, stallID, itemID string, qty int) (*model.MenuItem, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE menu_items SET stock_qty = stock_qty + $1
		WHERE id = $2 AND stall_id = $3`, qty, itemID, stallID)
	if err != nil {
		return nil, fmt.Errorf("restock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, model.ErrNoRows
	}
	return r.findMenuItem(ctx, stallID, itemID)
}

func (r *StallRepo) SetAvailability(ctx context.Context, stallID, itemID string, available bool) (*model.MenuItem, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE menu_items SET is_available = $1
		WHERE id = $2 AND stall_id = $3`, available, itemID, stallID)
	if err != nil {
		return nil, fmt.Errorf("set availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, model.ErrNoRows
	}
	return r.findMenuItem(ctx, stallID, itemID)
}

func (r *StallRepo) findMenuItem(ctx context.Context, stallID, itemID string) (*model.MenuItem, error) {
	var m model.MenuItem
	err := r.db.QueryRow(ctx, `
		SELECT id, stall_id, food_name, unit_price, stock_qty, is_available
		FROM menu_items WHERE id = $1 AND stall_id = $2`, itemID, stallID).
		Scan(&m.ID, &m.StallID, &m.FoodName, &m.UnitPrice, &m.StockQty, &m.IsAvailable)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("scan menu item: %w", err)
	}
	return &m, nil
}
