package auth

import (
	"strconv"
	"testing"
	"time"

	"tapcard/internal/model"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	user := &model.User{
		ID:          "u1",
		Name:        "Asha",
		Phone:       "01700000000",
		Role:        model.RoleStallAdmin,
		StallID:     "s1",
		MotherStall: "North Canteen",
	}

	token, err := m.Mint(user)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != model.RoleStallAdmin || claims.StallID != "s1" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Hour).Mint(&model.User{ID: "u1"})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := NewTokenManager("secret-b", time.Hour).Verify(token); err == nil {
		t.Error("token signed with another secret accepted")
	}
}

func TestVerify_Expired(t *testing.T) {
	token, err := NewTokenManager("secret", -time.Minute).Mint(&model.User{ID: "u1"})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := NewTokenManager("secret", -time.Minute).Verify(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestVerify_Garbage(t *testing.T) {
	if _, err := NewTokenManager("secret", time.Hour).Verify("not.a.token"); err == nil {
		t.Error("garbage token accepted")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("password not hashed")
	}
	if !ComparePassword("secret1", hash) {
		t.Error("correct password rejected")
	}
	if ComparePassword("wrong", hash) {
		t.Error("wrong password accepted")
	}
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP: %v", err)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("otp %q is not numeric", code)
		}
		if n < 1000 || n > 9999 {
			t.Fatalf("otp %d out of range", n)
		}
	}
}
