package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pomodoro-api/internal/domain"
	"pomodoro-api/internal/repository"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrWeakCredential     = errors.New("password required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrAccountInactive    = errors.New("account not active")
)

// AccountService orquesta el ciclo de vida de la cuenta: registro con
// verificación por OTP y recuperación de contraseña.
type AccountService struct {
	logger *zap.Logger
	users  repository.UserRepository
	otp    *OTPService
}

func NewAccountService(logger *zap.Logger, users repository.UserRepository, otp *OTPService) *AccountService {
	return &AccountService{
		logger: logger,
		users:  users,
		otp:    otp,
	}
}

// Register crea la cuenta inactiva y emite el OTP de activación.
// La cuenta no puede autenticarse hasta que VerifyActivation tenga éxito.
func (s *AccountService) Register(ctx context.Context, emailAddr, password string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("account service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return domain.User{}, ErrWeakCredential
	}

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return domain.User{}, ErrDuplicateEmail
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		PasswordHash: string(hashBytes),
		IsActive:     false,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.User{}, ErrDuplicateEmail
		}
		return domain.User{}, err
	}

	if err := s.otp.Issue(ctx, user, OTPPurposeActivate); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// VerifyActivation valida el OTP de registro y activa la cuenta. La
// activación es un paso explícito posterior a la validación, no un efecto
// implícito de ella.
func (s *AccountService) VerifyActivation(ctx context.Context, emailAddr, code string) (domain.User, error) {
	user, err := s.otp.Validate(ctx, emailAddr, code, OTPPurposeActivate)
	if err != nil {
		return domain.User{}, err
	}

	if err := s.users.Activate(ctx, user.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	user.IsActive = true
	s.logger.Info("account activated", zap.String("user_id", user.ID))
	return user, nil
}

// RequestPasswordReset emite un OTP de reset. Para emails desconocidos
// falla con ErrUserNotFound y no emite nada.
func (s *AccountService) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrInvalidEmail
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	return s.otp.Issue(ctx, user, OTPPurposeReset)
}

// ConfirmPasswordReset valida el OTP de reset y reemplaza la credencial.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, emailAddr, code, newPassword string) error {
	// La contraseña se valida antes para no consumir el código en vano.
	newPassword = strings.TrimSpace(newPassword)
	if newPassword == "" {
		return ErrWeakCredential
	}

	user, err := s.otp.Validate(ctx, emailAddr, code, OTPPurposeReset)
	if err != nil {
		return err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hashBytes)); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	s.logger.Info("password reset", zap.String("user_id", user.ID))
	return nil
}

// Authenticate verifica credenciales; las cuentas sin activar no entran.
func (s *AccountService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return domain.User{}, ErrAccountInactive
	}
	return user, nil
}

func (s *AccountService) GetProfile(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

type ProfileInput struct {
	PhoneNumber string
	Gender      string
	DateOfBirth *time.Time
	Country     string
}

// UpdateProfile completa los datos opcionales del perfil.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, input ProfileInput) (domain.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	if input.PhoneNumber != "" {
		user.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
	}
	if input.Gender != "" {
		user.Gender = strings.TrimSpace(input.Gender)
	}
	if input.DateOfBirth != nil {
		user.DateOfBirth = input.DateOfBirth
	}
	if input.Country != "" {
		user.Country = strings.TrimSpace(input.Country)
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// DeleteAccount borra al usuario y sus datos en cascada.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	s.logger.Info("account deleted", zap.String("user_id", userID))
	return nil
}
