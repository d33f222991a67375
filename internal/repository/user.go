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

type UserRepo struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, name, phone, password_hash, role, mother_stall, COALESCE(stall_id::text, ''), created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Phone, &u.PasswordHash, &u.Role, &u.MotherStall, &u.StallID, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *model.User) (*model.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()

	var stallID any
	if u.StallID != "" {
		stallID = u.StallID
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, name, phone, password_hash, role, mother_stall, stall_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Name, u.Phone, u.PasswordHash, u.Role, u.MotherStall, stallID, u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	// Stall roles are linked into the stall row in the same transaction so a
	// cashier can never exist half-registered.
	switch u.Role {
	case model.RoleStallAdmin:
		if _, err := tx.Exec(ctx, `UPDATE stalls SET stall_admin = $1, updated_at = now() WHERE id = $2`, u.ID, u.StallID); err != nil {
			return nil, fmt.Errorf("link stall admin: %w", err)
		}
	case model.RoleStallCashier:
		if _, err := tx.Exec(ctx, `INSERT INTO stall_cashiers (stall_id, user_id) VALUES ($1, $2)`, u.StallID, u.ID); err != nil {
			return nil, fmt.Errorf("link stall cashier: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return u, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepo) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	return scanUser(row)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, phone, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE phone = $2`, passwordHash, phone)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNoRows
	}
	return nil
}
