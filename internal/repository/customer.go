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

type CustomerRepo struct {
	db *pgxpool.Pool
}

func NewCustomerRepo(db *pgxpool.Pool) *CustomerRepo {
	return &CustomerRepo{db: db}
}

const customerColumns = `id, name, phone, COALESCE(card_uid, ''), balance, created_by, created_at, updated_at`

func scanCustomer(row pgx.Row) (*model.Customer, error) {
	var c model.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.CardUID, &c.Balance, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	return &c, nil
}

func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	var cardUID any
	if c.CardUID != "" {
		cardUID = c.CardUID
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO customers (id, name, phone, card_uid, balance, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Name, c.Phone, cardUID, c.Balance, c.CreatedBy, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	return c, nil
}

func (r *CustomerRepo) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	return scanCustomer(row)
}

// FindByCardOrPhone resolves a customer from either identifier, the way a
// recharge terminal or cashier looks them up.
func (r *CustomerRepo) FindByCardOrPhone(ctx context.Context, identifier string) (*model.Customer, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE card_uid = $1 OR phone = $1`, identifier)
	return scanCustomer(row)
}

// Recharge credits the balance and appends the history row in one
// transaction. The caller has already validated amount > 0.
func (r *CustomerRepo) Recharge(ctx context.Context, customerID, rechargerID, rechargerName string, amount int64) (*model.Customer, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var balanceBefore int64
	err = tx.QueryRow(ctx, `SELECT balance FROM customers WHERE id = $1 FOR UPDATE`, customerID).Scan(&balanceBefore)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("lock customer: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE customers SET balance = balance + $1, updated_at = now() WHERE id = $2`, amount, customerID)
	if err != nil {
		return nil, fmt.Errorf("credit balance: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO recharges (customer_id, recharger_id, recharger_name, amount, balance_before)
		VALUES ($1, $2, $3, $4, $5)`,
		customerID, rechargerID, rechargerName, amount, balanceBefore)
	if err != nil {
		return nil, fmt.Errorf("append recharge history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return r.FindByID(ctx, customerID)
}

// AssignCard attaches a card UID to the customer with the given phone.
func (r *CustomerRepo) AssignCard(ctx context.Context, phone, cardUID string) (*model.Customer, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE customers SET card_uid = $1, updated_at = now() WHERE phone = $2`, cardUID, phone)
	if err != nil {
		return nil, fmt.Errorf("assign card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, model.ErrNoRows
	}
	return r.FindByCardOrPhone(ctx, phone)
}

// RemoveCard detaches the card and zeroes the balance. The zeroing is
// recorded as a negative recharge row so the history still explains every
// balance change.
func (r *CustomerRepo) RemoveCard(ctx context.Context, cardUID, actorID string) (*model.Customer, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	var balanceBefore int64
	err = tx.QueryRow(ctx,
		`SELECT id, balance FROM customers WHERE card_uid = $1 FOR UPDATE`, cardUID).Scan(&id, &balanceBefore)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("lock customer: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE customers SET card_uid = NULL, balance = 0, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("remove card: %w", err)
	}

	if balanceBefore != 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO recharges (customer_id, recharger_id, recharger_name, amount, balance_before)
			VALUES ($1, $2, 'card removal', $3, $4)`,
			id, actorID, -balanceBefore, balanceBefore)
		if err != nil {
			return nil, fmt.Errorf("append adjustment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *CustomerRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNoRows
	}
	return nil
}

func (r *CustomerRepo) RechargeHistory(ctx context.Context, customerID string, limit int) ([]model.RechargeEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx, `
		SELECT customer_id, recharger_id, recharger_name, amount, balance_before, created_at
		FROM recharges WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recharges: %w", err)
	}
	defer rows.Close()

	var entries []model.RechargeEntry
	for rows.Next() {
		var e model.RechargeEntry
		if err := rows.Scan(&e.CustomerID, &e.RechargerID, &e.RechargerName, &e.Amount, &e.BalanceBefore, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recharge: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
