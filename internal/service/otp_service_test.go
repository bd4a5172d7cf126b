package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"pomodoro-api/internal/domain"
)

func newTestOTPService(repo *mockUserRepo, sender *mockEmailSender) *OTPService {
	return NewOTPService(zap.NewNop(), repo, sender, nil, nil, 300*time.Second)
}

func seedUser(t *testing.T, repo *mockUserRepo, id, email string) domain.User {
	t.Helper()
	user := domain.User{
		ID:        id,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func TestOTPServiceIssue_StoresCodeAndTimestampTogether(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockEmailSender{}
	svc := newTestOTPService(repo, sender)
	user := seedUser(t, repo, "u1", "user@example.com")

	start := time.Now().UTC()
	if err := svc.Issue(context.Background(), user, OTPPurposeActivate); err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	_, code := sender.last()
	if len(code) != 6 || !isValidOTPCode(code) {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	stored, err := repo.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if stored.OtpCodeHash == "" || stored.OtpExpiresAt == nil || stored.OtpPurpose != string(OTPPurposeActivate) {
		t.Fatalf("expected hash, purpose and expiry stored together, got %+v", stored)
	}
	if stored.OtpExpiresAt.Before(start.Add(299 * time.Second)) {
		t.Fatalf("expected expiry around 300s ahead, got %v", stored.OtpExpiresAt)
	}
}

func TestOTPServiceIssue_OverwritesPriorCode(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockEmailSender{}
	svc := newTestOTPService(repo, sender)
	user := seedUser(t, repo, "u1", "user@example.com")

	if err := svc.Issue(context.Background(), user, OTPPurposeActivate); err != nil {
		t.Fatalf("first issue failed: %v", err)
	}
	_, firstCode := sender.last()

	if err := svc.Issue(context.Background(), user, OTPPurposeActivate); err != nil {
		t.Fatalf("second issue failed: %v", err)
	}
	_, secondCode := sender.last()

	if firstCode == secondCode {
		t.Fatalf("expected fresh code on reissue")
	}
	if _, err := svc.Validate(context.Background(), "user@example.com", firstCode, OTPPurposeActivate); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected old code invalidated, got %v", err)
	}
	if _, err := svc.Validate(context.Background(), "user@example.com", secondCode, OTPPurposeActivate); err != nil {
		t.Fatalf("expected new code valid, got %v", err)
	}
}

func TestOTPServiceIssue_SendFailureIsNonFatal(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockEmailSender{err: errors.New("smtp down")}
	svc := newTestOTPService(repo, sender)
	user := seedUser(t, repo, "u1", "user@example.com")

	if err := svc.Issue(context.Background(), user, OTPPurposeActivate); err != nil {
		t.Fatalf("expected issue to succeed despite send failure, got %v", err)
	}
	stored, _ := repo.GetByID(context.Background(), "u1")
	if stored.OtpCodeHash == "" {
		t.Fatalf("expected code stored despite send failure")
	}
}

func TestOTPServiceIssue_RateLimited(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockEmailSender{}
	svc := NewOTPService(zap.NewNop(), repo, sender, &mockLimiter{allow: false}, nil, 300*time.Second)
	user := seedUser(t, repo, "u1", "user@example.com")

	if err := svc.Issue(context.Background(), user, OTPPurposeActivate); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if sender.sendCount != 0 {
		t.Fatalf("expected no email sent when rate limited")
	}
}

func TestOTPServiceValidate_SuccessClearsCode(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockEmailSender{}
	svc := newTestOTPService(repo, sender)
	user := seedUser(t, repo, "u1", "user@example.com")

	if err := svc.Issue(context.Background(), user, OTPPurposeActivate); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	_, code := sender.last()

	validated, err := svc.Validate(context.Background(), "user@example.com", code, OTPPurposeActivate)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if validated.OtpCodeHash != "" || validated.OtpExpiresAt != nil {
		t.Fatalf("expected otp cleared on returned user")
	}

	stored, _ := repo.GetByID(context.Background(), "u1")
	if stored.OtpCodeHash != "" || stored.OtpPurpose != "" || stored.OtpExpiresAt != nil {
		t.Fatalf("expected otp cleared in storage, got %+v", stored)
	}
}

func TestOTPServiceValidate_WrongCodeKeepsOriginalValid(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockEmailSender{}
	svc := newTestOTPService(repo, sender)
	user := seedUser(t, repo, "u1", "user@example.com")

	if err := svc.Issue(context.Background(), user, OTPPurposeActivate); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	_, code := sender.last()

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if _, err := svc.Validate(context.Background(), "user@example.com", wrong, OTPPurposeActivate); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid, got %v", err)
	}

	// El código original sigue vigente tras el intento fallido.
	if _, err := svc.Validate(context.Background(), "user@example.com", code, OTPPurposeActivate); err != nil {
		t.Fatalf("expected original code still valid, got %v", err)
	}
}

func TestOTPServiceValidate_SecondUseFails(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockEmailSender{}
	svc := newTestOTPService(repo, sender)
	user := seedUser(t, repo, "u1", "user@example.com")

	if err := svc.Issue(context.Background(), user, OTPPurposeActivate); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	_, code := sender.last()

	if _, err := svc.Validate(context.Background(), "user@example.com", code, OTPPurposeActivate); err != nil {
		t.Fatalf("first validate failed: %v", err)
	}
	if _, err := svc.Validate(context.Background(), "user@example.com", code, OTPPurposeActivate); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid on reuse, got %v", err)
	}
}

func TestOTPServiceValidate_ExpiredRegardlessOfCorrectness(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockEmailSender{}
	svc := newTestOTPService(repo, sender)
	user := seedUser(t, repo, "u1", "user@example.com")

	if err := svc.Issue(context.Background(), user, OTPPurposeActivate); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	_, code := sender.last()
	repo.setOTPExpiry("u1", time.Now().UTC().Add(-1*time.Second))

	if _, err := svc.Validate(context.Background(), "user@example.com", code, OTPPurposeActivate); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired for correct code, got %v", err)
	}
	if _, err := svc.Validate(context.Background(), "user@example.com", "999999", OTPPurposeActivate); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired for wrong code too, got %v", err)
	}
}

func TestOTPServiceValidate_PurposeMismatch(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockEmailSender{}
	svc := newTestOTPService(repo, sender)
	user := seedUser(t, repo, "u1", "user@example.com")

	if err := svc.Issue(context.Background(), user, OTPPurposeActivate); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	_, code := sender.last()

	if _, err := svc.Validate(context.Background(), "user@example.com", code, OTPPurposeReset); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid for purpose mismatch, got %v", err)
	}
	// El intento con propósito equivocado no consume el código.
	if _, err := svc.Validate(context.Background(), "user@example.com", code, OTPPurposeActivate); err != nil {
		t.Fatalf("expected code still valid for its purpose, got %v", err)
	}
}

func TestOTPServiceValidate_UserNotFound(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestOTPService(repo, &mockEmailSender{})

	if _, err := svc.Validate(context.Background(), "missing@example.com", "123456", OTPPurposeActivate); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestOTPServiceValidate_RateLimited(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewOTPService(zap.NewNop(), repo, &mockEmailSender{}, nil, &mockLimiter{allow: false}, 300*time.Second)
	seedUser(t, repo, "u1", "user@example.com")

	if _, err := svc.Validate(context.Background(), "user@example.com", "123456", OTPPurposeActivate); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}
