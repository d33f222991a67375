package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tapcard/internal/auth"
	"tapcard/internal/model"
	"tapcard/internal/repository/memory"
)

type mockOTPStore struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func newMockOTPStore() *mockOTPStore {
	return &mockOTPStore{codes: make(map[string]string)}
}

func (m *mockOTPStore) StoreOTP(ctx context.Context, phone, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.codes[phone] = code
	return nil
}

func (m *mockOTPStore) ConsumeOTP(ctx context.Context, phone, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	stored, ok := m.codes[phone]
	if !ok || stored != code {
		return false, nil
	}
	delete(m.codes, phone)
	return true, nil
}

type mockSMS struct {
	mu       sync.Mutex
	messages []string
	phones   []string
	err      error
}

func (m *mockSMS) Send(ctx context.Context, phone, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.phones = append(m.phones, phone)
	m.messages = append(m.messages, message)
	return nil
}

func newAuthService(t *testing.T) (*AuthService, *memory.Store, *mockOTPStore, *mockSMS) {
	t.Helper()
	store := memory.NewStore()
	otp := newMockOTPStore()
	sms := &mockSMS{}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewAuthService(store.Users(), otp, sms, tokens, 10*time.Minute), store, otp, sms
}

func TestRegister_RoleMatrix(t *testing.T) {
	svc, _, _, _ := newAuthService(t)

	base := model.RegisterRequest{
		Name:     "Asha",
		Phone:    "01700000000",
		Password: "secret1",
	}

	cases := []struct {
		name    string
		creator model.Role
		target  model.Role
		stall   bool
		wantErr bool
	}{
		{"master creates recharger", model.RoleMasterAdmin, model.RoleRecharger, false, false},
		{"master creates stall admin", model.RoleMasterAdmin, model.RoleStallAdmin, true, false},
		{"master creates recharger admin", model.RoleMasterAdmin, model.RoleRechargerAdmin, false, false},
		{"recharger admin creates recharger", model.RoleRechargerAdmin, model.RoleRecharger, false, false},
		{"stall admin creates cashier", model.RoleStallAdmin, model.RoleStallCashier, true, false},
		{"master creates master", model.RoleMasterAdmin, model.RoleMasterAdmin, false, true},
		{"recharger creates anything", model.RoleRecharger, model.RoleRecharger, false, true},
		{"cashier creates cashier", model.RoleStallCashier, model.RoleStallCashier, true, true},
		{"stall admin creates recharger", model.RoleStallAdmin, model.RoleRecharger, false, true},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			// Unique phone per case so the duplicate check never interferes.
			req.Phone = req.Phone[:10] + string(rune('0'+i))
			req.Role = tc.target
			if tc.stall {
				req.StallID = "stall-1"
				req.MotherStall = "North Canteen"
			}

			res, err := svc.Register(context.Background(), req, tc.creator)
			if tc.wantErr {
				var validation *model.ValidationError
				if !errors.As(err, &validation) {
					t.Fatalf("err = %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Register: %v", err)
			}
			if res.Token == "" {
				t.Error("no token minted")
			}
			if res.User.PasswordHash == req.Password {
				t.Error("password stored in plain text")
			}
		})
	}
}

func TestRegister_StallRoleNeedsStall(t *testing.T) {
	svc, _, _, _ := newAuthService(t)

	_, err := svc.Register(context.Background(), model.RegisterRequest{
		Name:     "Asha",
		Phone:    "01700000000",
		Password: "secret1",
		Role:     model.RoleStallCashier,
	}, model.RoleStallAdmin)

	var validation *model.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if validation.Field != "stall_id" {
		t.Errorf("field = %q, want stall_id", validation.Field)
	}
}

func TestRegister_DuplicatePhone(t *testing.T) {
	svc, _, _, _ := newAuthService(t)
	ctx := context.Background()

	req := model.RegisterRequest{
		Name:     "Asha",
		Phone:    "01700000000",
		Password: "secret1",
		Role:     model.RoleRecharger,
	}
	if _, err := svc.Register(ctx, req, model.RoleMasterAdmin); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	_, err := svc.Register(ctx, req, model.RoleMasterAdmin)
	var validation *model.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if validation.Field != "phone" {
		t.Errorf("field = %q, want phone", validation.Field)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, model.RegisterRequest{
		Name:     "Asha",
		Phone:    "01700000000",
		Password: "secret1",
		Role:     model.RoleRecharger,
	}, model.RoleMasterAdmin); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := svc.Login(ctx, model.LoginRequest{Phone: "01700000000", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token == "" || res.User.Role != model.RoleRecharger {
		t.Errorf("login result = %+v", res)
	}

	// Wrong password and unknown phone must be indistinguishable.
	_, errWrong := svc.Login(ctx, model.LoginRequest{Phone: "01700000000", Password: "wrong"})
	_, errUnknown := svc.Login(ctx, model.LoginRequest{Phone: "01999999999", Password: "secret1"})
	if errWrong == nil || errUnknown == nil {
		t.Fatal("bad credentials accepted")
	}
	if errWrong.Error() != errUnknown.Error() {
		t.Errorf("credential errors differ: %q vs %q", errWrong, errUnknown)
	}
}

func TestPasswordReset(t *testing.T) {
	svc, _, otp, sms := newAuthService(t)
	ctx := context.Background()
	phone := "01700000000"

	if _, err := svc.Register(ctx, model.RegisterRequest{
		Name:     "Asha",
		Phone:    phone,
		Password: "secret1",
		Role:     model.RoleRecharger,
	}, model.RoleMasterAdmin); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.RequestPasswordReset(ctx, phone); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if len(sms.messages) != 1 {
		t.Fatalf("sent %d sms, want 1", len(sms.messages))
	}
	code := otp.codes[phone]
	if len(code) != 4 {
		t.Fatalf("otp = %q, want 4 digits", code)
	}

	// Wrong code is rejected and does not burn the stored one.
	if err := svc.ResetPassword(ctx, model.PasswordResetConfirm{
		Phone: phone, OTP: "0000", NewPassword: "newsecret",
	}); err == nil {
		t.Fatal("wrong otp accepted")
	}

	if err := svc.ResetPassword(ctx, model.PasswordResetConfirm{
		Phone: phone, OTP: code, NewPassword: "newsecret",
	}); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	if _, err := svc.Login(ctx, model.LoginRequest{Phone: phone, Password: "newsecret"}); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if _, err := svc.Login(ctx, model.LoginRequest{Phone: phone, Password: "secret1"}); err == nil {
		t.Error("old password still accepted")
	}

	// The code is single use.
	if err := svc.ResetPassword(ctx, model.PasswordResetConfirm{
		Phone: phone, OTP: code, NewPassword: "another1",
	}); err == nil {
		t.Error("consumed otp accepted again")
	}
}

func TestResetPassword_UnknownPhone(t *testing.T) {
	svc, _, _, _ := newAuthService(t)

	err := svc.RequestPasswordReset(context.Background(), "01999999999")
	var notFound *model.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}
