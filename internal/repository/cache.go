package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps redis for the two hot paths that should not hit Postgres:
// balance reads at recharge/cashier terminals and OTP codes for password
// reset. The balance cache is write-through: every committed mutation
// refreshes it, so a hit is authoritative enough for display purposes.
// The transaction path never trusts it.
type Cache struct {
	rdb *redis.Client
}

func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func balanceKey(customerID string) string {
	return fmt.Sprintf("balance:%s", customerID)
}

func otpKey(phone string) string {
	return fmt.Sprintf("otp:%s", phone)
}

// GetBalance returns the cached balance, or model.ErrNoRows-like miss via
// found=false when the key is cold.
func (c *Cache) GetBalance(ctx context.Context, customerID string) (int64, bool, error) {
	val, err := c.rdb.Get(ctx, balanceKey(customerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get balance: %w", err)
	}
	return val, true, nil
}

// SetBalance warms or refreshes the cached balance. No TTL: the cache is
// refreshed on every balance mutation.
func (c *Cache) SetBalance(ctx context.Context, customerID string, balance int64) error {
	if err := c.rdb.Set(ctx, balanceKey(customerID), balance, 0).Err(); err != nil {
		return fmt.Errorf("redis set balance: %w", err)
	}
	return nil
}

func (c *Cache) DropBalance(ctx context.Context, customerID string) error {
	if err := c.rdb.Del(ctx, balanceKey(customerID)).Err(); err != nil {
		return fmt.Errorf("redis del balance: %w", err)
	}
	return nil
}

// StoreOTP saves a password-reset code with an expiry. A newer code
// overwrites the previous one.
func (c *Cache) StoreOTP(ctx context.Context, phone, code string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, otpKey(phone), code, ttl).Err(); err != nil {
		return fmt.Errorf("redis set otp: %w", err)
	}
	return nil
}

// ConsumeOTP checks the stored code and deletes it on a match so a code can
// only be used once.
func (c *Cache) ConsumeOTP(ctx context.Context, phone, code string) (bool, error) {
	stored, err := c.rdb.Get(ctx, otpKey(phone)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get otp: %w", err)
	}
	if stored != code {
		return false, nil
	}
	if err := c.rdb.Del(ctx, otpKey(phone)).Err(); err != nil {
		return false, fmt.Errorf("redis del otp: %w", err)
	}
	return true, nil
}
