package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"pomodoro-api/internal/domain"
	"pomodoro-api/internal/email"
	"pomodoro-api/internal/repository"
)

// OTPPurpose ata un código al flujo que lo emitió: un código de activación
// no puede usarse para resetear la contraseña ni al revés.
type OTPPurpose string

const (
	OTPPurposeActivate OTPPurpose = "activate"
	OTPPurposeReset    OTPPurpose = "reset"
)

var (
	ErrOTPInvalid  = errors.New("otp invalid")
	ErrOTPExpired  = errors.New("otp expired")
	ErrRateLimited = errors.New("rate limited")
)

const defaultOTPTTL = 5 * time.Minute

// OTPService emite y valida códigos de un solo uso ligados a un usuario.
// La expiración se chequea de forma perezosa al validar; no hay timers.
type OTPService struct {
	logger         *zap.Logger
	users          repository.UserRepository
	sender         email.Sender
	requestLimiter OTPRateLimiter
	verifyLimiter  OTPRateLimiter
	ttl            time.Duration
}

func NewOTPService(logger *zap.Logger, users repository.UserRepository, sender email.Sender, requestLimiter, verifyLimiter OTPRateLimiter, ttl time.Duration) *OTPService {
	if ttl <= 0 {
		ttl = defaultOTPTTL
	}
	if requestLimiter == nil {
		requestLimiter = NewOTPRateLimiter(10*time.Minute, 3)
	}
	if verifyLimiter == nil {
		verifyLimiter = NewOTPRateLimiter(10*time.Minute, 10)
	}
	return &OTPService{
		logger:         logger,
		users:          users,
		sender:         sender,
		requestLimiter: requestLimiter,
		verifyLimiter:  verifyLimiter,
		ttl:            ttl,
	}
}

// Issue genera un código nuevo y lo persiste sobre el usuario, pisando
// cualquier código anterior no consumido. Hash, propósito y expiración se
// escriben en una sola sentencia. El fallo de envío no aborta la emisión.
func (s *OTPService) Issue(ctx context.Context, user domain.User, purpose OTPPurpose) error {
	if s.users == nil {
		return errors.New("otp service not configured")
	}
	if s.requestLimiter != nil && !s.requestLimiter.Allow(user.Email) {
		return ErrRateLimited
	}

	code, hash, expiresAt, err := generateOTP(s.ttl)
	if err != nil {
		return err
	}

	if err := s.users.UpdateOTP(ctx, user.ID, hash, string(purpose), expiresAt); err != nil {
		return err
	}

	if s.sender == nil {
		s.logger.Warn("otp issued without sender configured", zap.String("email", user.Email))
		return nil
	}
	if err := s.sender.SendOTP(ctx, user.Email, code, expiresAt); err != nil {
		s.logger.Warn("send otp failed", zap.Error(err), zap.String("email", user.Email))
	}
	return nil
}

// Validate chequea el código contra el usuario identificado por email.
// En éxito limpia hash, propósito y expiración (un solo uso); un segundo
// intento con el mismo código falla con ErrOTPInvalid porque el hash
// vacío nunca compara igual.
func (s *OTPService) Validate(ctx context.Context, emailAddr, code string, purpose OTPPurpose) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("otp service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	code = strings.TrimSpace(code)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	if s.verifyLimiter != nil && !s.verifyLimiter.Allow(emailAddr) {
		return domain.User{}, ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	// La expiración se evalúa antes que la corrección del código.
	if user.OtpExpiresAt != nil && time.Now().UTC().After(*user.OtpExpiresAt) {
		return domain.User{}, ErrOTPExpired
	}
	if !isValidOTPCode(code) {
		return domain.User{}, ErrOTPInvalid
	}
	if user.OtpPurpose != string(purpose) {
		return domain.User{}, ErrOTPInvalid
	}
	if !verifyOTPHash(code, user.OtpCodeHash) {
		return domain.User{}, ErrOTPInvalid
	}

	if err := s.users.ClearOTP(ctx, user.ID); err != nil {
		return domain.User{}, err
	}

	user.OtpCodeHash = ""
	user.OtpPurpose = ""
	user.OtpExpiresAt = nil
	return user, nil
}

func generateOTP(ttl time.Duration) (string, string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", "", time.Time{}, err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", "", time.Time{}, err
	}
	saltStr := base64.StdEncoding.EncodeToString(salt)
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])

	expiresAt := time.Now().UTC().Add(ttl)
	return code, saltStr + ":" + hash, expiresAt, nil
}

func verifyOTPHash(code, stored string) bool {
	parts := strings.Split(stored, ":")
	if len(parts) != 2 {
		return false
	}
	saltStr := parts[0]
	expectedHash := parts[1]
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])
	return subtle.ConstantTimeCompare([]byte(hash), []byte(expectedHash)) == 1
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
