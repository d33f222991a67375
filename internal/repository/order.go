package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tapcard/internal/model"
)

type OrderRepo struct {
	db *pgxpool.Pool
}

func NewOrderRepo(db *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{db: db}
}

// ApplyOrder runs the whole mutation phase of an order in one transaction:
// debit the balance, decrement every stock entry, insert the order and its
// items, append the customer's order history row. Either everything
// commits or nothing does.
//
// Lock order is fixed: the customer row first, then stock rows in the
// order given (the coordinator sorts debits by menu item id), so two
// orders touching the same customer or stall cannot deadlock.
//
// Preconditions were already checked against a snapshot, but the conditional
// updates re-validate under the row locks; a conflicting concurrent order
// surfaces here as the same business error it would have been up front.
func (r *OrderRepo) ApplyOrder(ctx context.Context, o *model.Order, debits []model.StockDebit) (balanceBefore, balanceAfter int64, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, &model.PersistenceError{Op: "begin order tx", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx,
		`SELECT balance FROM customers WHERE id = $1 FOR UPDATE`, o.CustomerID).Scan(&balanceBefore)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, &model.NotFoundError{Entity: "customer"}
	}
	if err != nil {
		return 0, 0, &model.PersistenceError{Op: "lock customer", Err: err}
	}

	for _, d := range debits {
		tag, err := tx.Exec(ctx, `
			UPDATE menu_items SET stock_qty = stock_qty - $1
			WHERE id = $2 AND stall_id = $3 AND is_available AND stock_qty >= $1`,
			d.Quantity, d.MenuItemID, o.StallID)
		if err != nil {
			return 0, 0, &model.PersistenceError{Op: "decrement stock", Err: err}
		}
		if tag.RowsAffected() == 0 {
			return 0, 0, r.classifyStockFailure(ctx, tx, o.StallID, d.MenuItemID)
		}
	}

	tag, err := tx.Exec(ctx, `
		UPDATE customers SET balance = balance - $1, updated_at = now()
		WHERE id = $2 AND balance >= $1`, o.TotalAmount, o.CustomerID)
	if err != nil {
		return 0, 0, &model.PersistenceError{Op: "debit balance", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return 0, 0, &model.InsufficientFundsError{Balance: balanceBefore, Required: o.TotalAmount}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, customer_id, stall_id, total_amount, vat, served_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.CustomerID, o.StallID, o.TotalAmount, o.VAT, o.ServedBy, o.CreatedAt)
	if err != nil {
		return 0, 0, &model.PersistenceError{Op: "insert order", Err: err}
	}

	for i, item := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, menu_item_id, food_name, unit_price, quantity, position)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, item.MenuItemID, item.FoodName, item.UnitPrice, item.Quantity, i)
		if err != nil {
			return 0, 0, &model.PersistenceError{Op: "insert order item", Err: err}
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO card_order_history (customer_id, order_id, total_amount, served_by, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		o.CustomerID, o.ID, o.TotalAmount, o.ServedBy, o.CreatedAt)
	if err != nil {
		return 0, 0, &model.PersistenceError{Op: "append order history", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, &model.PersistenceError{Op: "commit order tx", Err: err}
	}
	return balanceBefore, balanceBefore - o.TotalAmount, nil
}

// classifyStockFailure tells a missing/unavailable item apart from one that
// simply ran out, so the caller gets the right taxonomy error.
func (r *OrderRepo) classifyStockFailure(ctx context.Context, tx pgx.Tx, stallID, itemID string) error {
	var foodName string
	var available bool
	err := tx.QueryRow(ctx,
		`SELECT food_name, is_available FROM menu_items WHERE id = $1 AND stall_id = $2`,
		itemID, stallID).Scan(&foodName, &available)
	if errors.Is(err, pgx.ErrNoRows) {
		return &model.NotFoundError{Entity: "menu item"}
	}
	if err != nil {
		return &model.PersistenceError{Op: "inspect stock entry", Err: err}
	}
	if !available {
		return &model.NotFoundError{Entity: "menu item"}
	}
	return &model.InsufficientStockError{ItemID: itemID, FoodName: foodName}
}

func (r *OrderRepo) FindByID(ctx context.Context, id string) (*model.OrderDetail, error) {
	var d model.OrderDetail
	err := r.db.QueryRow(ctx, `
		SELECT o.id, o.customer_id, o.stall_id, o.total_amount, o.vat, o.served_by, o.created_at,
		       c.name, u.name
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		JOIN users u ON u.id = o.served_by
		WHERE o.id = $1`, id).
		Scan(&d.Order.ID, &d.Order.CustomerID, &d.Order.StallID, &d.Order.TotalAmount,
			&d.Order.VAT, &d.Order.ServedBy, &d.Order.CreatedAt, &d.CustomerName, &d.ServedByName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}

	items, err := r.orderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Order.Items = items
	return &d, nil
}

func (r *OrderRepo) orderItems(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT menu_item_id, food_name, unit_price, quantity
		FROM order_items WHERE order_id = $1 ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.MenuItemID, &it.FoodName, &it.UnitPrice, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListByStall returns one page of a stall's orders, newest first.
func (r *OrderRepo) ListByStall(ctx context.Context, stallID string, page, limit int) (*model.OrderPage, error) {
	page, limit = normalizePage(page, limit)
	offset := (page - 1) * limit

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM orders WHERE stall_id = $1`, stallID).Scan(&total); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, customer_id, stall_id, total_amount, vat, served_by, created_at
		FROM orders WHERE stall_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3`, stallID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	result := &model.OrderPage{Total: total, Page: page, Pages: pageCount(total, limit)}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.StallID, &o.TotalAmount, &o.VAT, &o.ServedBy, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		result.Orders = append(result.Orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result.Orders {
		items, err := r.orderItems(ctx, result.Orders[i].ID)
		if err != nil {
			return nil, err
		}
		result.Orders[i].Items = items
	}
	return result, nil
}

// SummaryByStall is the flattened report view: who served, when, for how
// much. Same pagination contract as ListByStall.
func (r *OrderRepo) SummaryByStall(ctx context.Context, stallID string, page, limit int) (*model.OrderSummaryPage, error) {
	page, limit = normalizePage(page, limit)
	offset := (page - 1) * limit

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM orders WHERE stall_id = $1`, stallID).Scan(&total); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT o.id, u.name, o.total_amount, o.created_at
		FROM orders o
		JOIN users u ON u.id = o.served_by
		WHERE o.stall_id = $1
		ORDER BY o.created_at DESC
		OFFSET $2 LIMIT $3`, stallID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	result := &model.OrderSummaryPage{Total: total, Page: page, Pages: pageCount(total, limit)}
	for rows.Next() {
		var row model.OrderSummaryRow
		if err := rows.Scan(&row.OrderID, &row.ServedByName, &row.TotalAmount, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		result.Rows = append(result.Rows, row)
	}
	return result, rows.Err()
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return page, limit
}

func pageCount(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
