package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tapcard/internal/auth"
	"tapcard/internal/model"
)

// AuthService handles registration, login, and OTP password reset. OTP
// codes live in redis with a TTL; delivery goes through the SMS gateway
// inline, since the auth flow is not coupled to a ledger transaction.
type AuthService struct {
	users  UserStore
	otp    OTPStore
	sms    SMSSender
	tokens *auth.TokenManager
	otpTTL time.Duration
}

func NewAuthService(users UserStore, otp OTPStore, sms SMSSender, tokens *auth.TokenManager, otpTTL time.Duration) *AuthService {
	return &AuthService{users: users, otp: otp, sms: sms, tokens: tokens, otpTTL: otpTTL}
}

// Register creates a user, enforcing the role creation matrix against the
// creator's role (taken from the verified token, never the request body).
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest, creatorRole model.Role) (*model.AuthResult, error) {
	if err := validateRegister(req); err != nil {
		return nil, err
	}
	if !creatorRole.CanCreate(req.Role) {
		return nil, &model.ValidationError{Field: "role", Reason: fmt.Sprintf("role %q may not create role %q", creatorRole, req.Role)}
	}
	if req.Role.IsStallRole() && (req.StallID == "" || req.MotherStall == "") {
		return nil, &model.ValidationError{Field: "stall_id", Reason: "stall_id and mother_stall are required for stall roles"}
	}

	if _, err := s.users.FindByPhone(ctx, req.Phone); err == nil {
		return nil, &model.ValidationError{Field: "phone", Reason: "user with this phone already exists"}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         req.Name,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if req.Role.IsStallRole() {
		user.StallID = req.StallID
		user.MotherStall = req.MotherStall
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Mint(created)
	if err != nil {
		return nil, err
	}
	return &model.AuthResult{Token: token, User: created}, nil
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResult, error) {
	if req.Phone == "" || req.Password == "" {
		return nil, &model.ValidationError{Field: "credentials", Reason: "phone and password required"}
	}

	user, err := s.users.FindByPhone(ctx, req.Phone)
	if err != nil {
		// Same error for unknown phone and wrong password.
		return nil, &model.ValidationError{Field: "credentials", Reason: "invalid credentials"}
	}
	if !auth.ComparePassword(req.Password, user.PasswordHash) {
		return nil, &model.ValidationError{Field: "credentials", Reason: "invalid credentials"}
	}

	token, err := s.tokens.Mint(user)
	if err != nil {
		return nil, err
	}
	return &model.AuthResult{Token: token, User: user}, nil
}

// RequestPasswordReset stores a short-lived OTP and texts it to the user.
func (s *AuthService) RequestPasswordReset(ctx context.Context, phone string) error {
	if _, err := s.users.FindByPhone(ctx, phone); err != nil {
		return notFoundOr(err, "user")
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		return err
	}
	if err := s.otp.StoreOTP(ctx, phone, code, s.otpTTL); err != nil {
		return err
	}

	msg := fmt.Sprintf("Your OTP for password reset is %s", code)
	if err := s.sms.Send(ctx, phone, msg); err != nil {
		slog.Error("auth: failed to send otp sms", "phone", phone, "error", err)
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, req model.PasswordResetConfirm) error {
	if len(req.NewPassword) < 6 {
		return &model.ValidationError{Field: "new_password", Reason: "must be at least 6 characters"}
	}

	ok, err := s.otp.ConsumeOTP(ctx, req.Phone, req.OTP)
	if err != nil {
		return err
	}
	if !ok {
		return &model.ValidationError{Field: "otp", Reason: "invalid or expired otp"}
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, req.Phone, hash); err != nil {
		return notFoundOr(err, "user")
	}
	return nil
}

func validateRegister(req model.RegisterRequest) error {
	switch {
	case req.Name == "":
		return &model.ValidationError{Field: "name", Reason: "required"}
	case len(req.Phone) != 11:
		return &model.ValidationError{Field: "phone", Reason: "must be 11 digits"}
	case len(req.Password) < 6:
		return &model.ValidationError{Field: "password", Reason: "must be at least 6 characters"}
	case req.Role == "":
		return &model.ValidationError{Field: "role", Reason: "required"}
	}
	return nil
}
