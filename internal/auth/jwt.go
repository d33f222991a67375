package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tapcard/internal/model"
)

// Claims is the token payload handed to route guards. It carries enough of
// the user for authorization decisions without a database round trip.
type Claims struct {
	UserID      string     `json:"user_id"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone"`
	Role        model.Role `json:"role"`
	StallID     string     `json:"stall_id,omitempty"`
	MotherStall string     `json:"mother_stall,omitempty"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret   []byte
	lifetime time.Duration
}

func NewTokenManager(secret string, lifetime time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), lifetime: lifetime}
}

func (m *TokenManager) Mint(u *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:      u.ID,
		Name:        u.Name,
		Phone:       u.Phone,
		Role:        u.Role,
		StallID:     u.StallID,
		MotherStall: u.MotherStall,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *TokenManager) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
