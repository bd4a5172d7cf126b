package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestAccountService(sender *mockEmailSender) (*AccountService, *mockUserRepo) {
	repo := newMockUserRepo()
	otp := NewOTPService(zap.NewNop(), repo, sender, nil, nil, 300*time.Second)
	return NewAccountService(zap.NewNop(), repo, otp), repo
}

func TestAccountServiceRegister_CreatesInactiveUserWithOTP(t *testing.T) {
	sender := &mockEmailSender{}
	svc, repo := newTestAccountService(sender)

	user, err := svc.Register(context.Background(), " A@X.com ", "pw123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "a@x.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.IsActive {
		t.Fatalf("expected account inactive until verification")
	}

	to, code := sender.last()
	if to != "a@x.com" || code == "" {
		t.Fatalf("expected otp delivered to a@x.com, got to=%q code=%q", to, code)
	}

	stored, err := repo.GetByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("expected user stored: %v", err)
	}
	if stored.OtpCodeHash == "" || stored.OtpExpiresAt == nil {
		t.Fatalf("expected pending otp stored")
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "pw123" {
		t.Fatalf("expected hashed credential, got %q", stored.PasswordHash)
	}
}

func TestAccountServiceRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAccountService(&mockEmailSender{})

	if _, err := svc.Register(context.Background(), "a@x.com", "pw123"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), "a@x.com", "other"); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAccountServiceRegister_WeakCredential(t *testing.T) {
	svc, _ := newTestAccountService(&mockEmailSender{})

	if _, err := svc.Register(context.Background(), "a@x.com", "  "); !errors.Is(err, ErrWeakCredential) {
		t.Fatalf("expected ErrWeakCredential, got %v", err)
	}
}

func TestAccountServiceVerifyActivation_ActivatesAccount(t *testing.T) {
	sender := &mockEmailSender{}
	svc, repo := newTestAccountService(sender)

	if _, err := svc.Register(context.Background(), "a@x.com", "pw123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, code := sender.last()

	user, err := svc.VerifyActivation(context.Background(), "a@x.com", code)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !user.IsActive {
		t.Fatalf("expected active account")
	}

	stored, _ := repo.GetByEmail(context.Background(), "a@x.com")
	if !stored.IsActive {
		t.Fatalf("expected activation persisted")
	}
	if stored.OtpCodeHash != "" || stored.OtpExpiresAt != nil {
		t.Fatalf("expected otp cleared after activation")
	}
}

func TestAccountServiceVerifyActivation_WrongCodeLeavesAccountInactive(t *testing.T) {
	sender := &mockEmailSender{}
	svc, repo := newTestAccountService(sender)

	if _, err := svc.Register(context.Background(), "a@x.com", "pw123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, code := sender.last()

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if _, err := svc.VerifyActivation(context.Background(), "a@x.com", wrong); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid, got %v", err)
	}

	stored, _ := repo.GetByEmail(context.Background(), "a@x.com")
	if stored.IsActive {
		t.Fatalf("expected account still inactive after failed attempt")
	}

	// El código original sigue siendo válido para un intento correcto posterior.
	if _, err := svc.VerifyActivation(context.Background(), "a@x.com", code); err != nil {
		t.Fatalf("expected original code still valid, got %v", err)
	}
}

func TestAccountServiceVerifyActivation_CodeIsSingleUse(t *testing.T) {
	sender := &mockEmailSender{}
	svc, _ := newTestAccountService(sender)

	if _, err := svc.Register(context.Background(), "a@x.com", "pw123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, code := sender.last()

	if _, err := svc.VerifyActivation(context.Background(), "a@x.com", code); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if _, err := svc.VerifyActivation(context.Background(), "a@x.com", code); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid on reuse, got %v", err)
	}
}

func TestAccountServiceRequestPasswordReset_UnknownEmailIssuesNothing(t *testing.T) {
	sender := &mockEmailSender{}
	svc, _ := newTestAccountService(sender)

	if err := svc.RequestPasswordReset(context.Background(), "nobody@x.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if sender.sendCount != 0 {
		t.Fatalf("expected no otp issued for unknown email")
	}
}

func TestAccountServicePasswordResetFlow(t *testing.T) {
	sender := &mockEmailSender{}
	svc, _ := newTestAccountService(sender)

	if _, err := svc.Register(context.Background(), "a@x.com", "pw123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, code := sender.last()
	if _, err := svc.VerifyActivation(context.Background(), "a@x.com", code); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if err := svc.RequestPasswordReset(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	_, resetCode := sender.last()

	if err := svc.ConfirmPasswordReset(context.Background(), "a@x.com", resetCode, "newpw456"); err != nil {
		t.Fatalf("confirm reset failed: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "a@x.com", "newpw456"); err != nil {
		t.Fatalf("expected login with new password, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "a@x.com", "pw123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}

	// El código de reset es de un solo uso.
	if err := svc.ConfirmPasswordReset(context.Background(), "a@x.com", resetCode, "again789"); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid on reuse, got %v", err)
	}
}

func TestAccountServiceConfirmReset_EmptyPasswordDoesNotConsumeCode(t *testing.T) {
	sender := &mockEmailSender{}
	svc, _ := newTestAccountService(sender)

	if _, err := svc.Register(context.Background(), "a@x.com", "pw123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := svc.RequestPasswordReset(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	_, resetCode := sender.last()

	if err := svc.ConfirmPasswordReset(context.Background(), "a@x.com", resetCode, "  "); !errors.Is(err, ErrWeakCredential) {
		t.Fatalf("expected ErrWeakCredential, got %v", err)
	}
	if err := svc.ConfirmPasswordReset(context.Background(), "a@x.com", resetCode, "newpw456"); err != nil {
		t.Fatalf("expected code still usable, got %v", err)
	}
}

func TestAccountServiceActivationCodeCannotResetPassword(t *testing.T) {
	sender := &mockEmailSender{}
	svc, _ := newTestAccountService(sender)

	if _, err := svc.Register(context.Background(), "a@x.com", "pw123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, activationCode := sender.last()

	if err := svc.ConfirmPasswordReset(context.Background(), "a@x.com", activationCode, "newpw456"); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid for cross-purpose code, got %v", err)
	}
}

func TestAccountServiceAuthenticate_InactiveAccountRejected(t *testing.T) {
	sender := &mockEmailSender{}
	svc, _ := newTestAccountService(sender)

	if _, err := svc.Register(context.Background(), "a@x.com", "pw123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "a@x.com", "pw123"); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestAccountServiceUpdateProfile(t *testing.T) {
	sender := &mockEmailSender{}
	svc, repo := newTestAccountService(sender)

	user, err := svc.Register(context.Background(), "a@x.com", "pw123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	dob := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
	updated, err := svc.UpdateProfile(context.Background(), user.ID, ProfileInput{
		PhoneNumber: "+34600111222",
		Country:     "Spain",
		DateOfBirth: &dob,
	})
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.PhoneNumber != "+34600111222" || updated.Country != "Spain" {
		t.Fatalf("unexpected profile: %+v", updated)
	}

	stored, _ := repo.GetByID(context.Background(), user.ID)
	if stored.DateOfBirth == nil || !stored.DateOfBirth.Equal(dob) {
		t.Fatalf("expected dob persisted")
	}
}

func TestAccountServiceDeleteAccount(t *testing.T) {
	sender := &mockEmailSender{}
	svc, repo := newTestAccountService(sender)

	user, err := svc.Register(context.Background(), "a@x.com", "pw123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := svc.DeleteAccount(context.Background(), user.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), user.ID); err == nil {
		t.Fatalf("expected user removed")
	}
	if err := svc.DeleteAccount(context.Background(), user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
