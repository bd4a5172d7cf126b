package email

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Sender define la interfaz para envío de códigos de verificación.
type Sender interface {
	SendOTP(ctx context.Context, toEmail string, code string, expiresAt time.Time) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendOTP(_ context.Context, _ string, _ string, _ time.Time) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}

// logSender escribe el código al log en vez de enviarlo. Reemplaza el envío
// real solo en entornos de prueba.
type logSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) Sender {
	return &logSender{logger: logger}
}

func (s *logSender) SendOTP(_ context.Context, toEmail string, code string, expiresAt time.Time) error {
	s.logger.Info("otp issued",
		zap.String("email", toEmail),
		zap.String("code", code),
		zap.Time("expires_at", expiresAt),
	)
	return nil
}
