package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"pomodoro-api/internal/domain"
	"pomodoro-api/internal/repository"
)

var (
	ErrInvalidDuration     = errors.New("invalid session duration")
	ErrConcurrencyConflict = errors.New("statistics update conflict")
)

// SessionService registra sesiones de foco y mantiene las estadísticas
// agregadas del usuario consistentes con el historial.
type SessionService struct {
	logger   *zap.Logger
	sessions repository.SessionRepository
	users    repository.UserRepository
}

func NewSessionService(logger *zap.Logger, sessions repository.SessionRepository, users repository.UserRepository) *SessionService {
	return &SessionService{
		logger:   logger,
		sessions: sessions,
		users:    users,
	}
}

type RecordSessionInput struct {
	// ID opcional actúa como clave de idempotencia: reenviar la misma
	// sesión no vuelve a contarla.
	ID        string
	UserID    string
	TaskID    string
	StartTime time.Time
	EndTime   *time.Time
	Duration  int // minutos
}

// Record inserta la sesión y devuelve las estadísticas ya actualizadas.
// Inserción e incrementos ocurren en una transacción: o la sesión queda
// registrada con su aporte reflejado, o nada persiste.
func (s *SessionService) Record(ctx context.Context, input RecordSessionInput) (domain.Stats, error) {
	if s.sessions == nil || s.users == nil {
		return domain.Stats{}, errors.New("session service not configured")
	}
	if input.Duration < 0 {
		return domain.Stats{}, ErrInvalidDuration
	}
	if input.UserID == "" {
		return domain.Stats{}, ErrUserNotFound
	}

	now := time.Now().UTC()
	session := domain.Session{
		ID:        input.ID,
		UserID:    input.UserID,
		TaskID:    input.TaskID,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Duration:  input.Duration,
		CreatedAt: now,
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.StartTime.IsZero() {
		session.StartTime = now
	}

	stats, err := s.sessions.RecordWithStats(ctx, session)
	if err != nil {
		if errors.Is(err, repository.ErrSessionExists) {
			// Reintento con la misma clave: devolvemos el estado actual
			// sin contar dos veces.
			s.logger.Info("duplicate session insert ignored",
				zap.String("session_id", session.ID),
				zap.String("user_id", session.UserID),
			)
			user, err := s.users.GetByID(ctx, session.UserID)
			if err != nil {
				return domain.Stats{}, err
			}
			return user.Stats, nil
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Stats{}, ErrUserNotFound
		}
		return domain.Stats{}, err
	}

	// El incremento corre antes de promediar, así que esto es inalcanzable
	// salvo corrupción del registro; se asevera en lugar de asumirse.
	if stats.TotalSessions <= 0 {
		return domain.Stats{}, fmt.Errorf("%w: total_sessions=%d after record", ErrConcurrencyConflict, stats.TotalSessions)
	}
	return stats, nil
}

func (s *SessionService) List(ctx context.Context, userID string) ([]domain.Session, error) {
	return s.sessions.ListByUser(ctx, userID)
}
