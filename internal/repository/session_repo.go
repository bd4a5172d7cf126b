package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"pomodoro-api/internal/domain"
)

// ErrSessionExists indica que el ID de sesión (clave de idempotencia) ya fue
// insertado; las estadísticas no se tocan de nuevo.
var ErrSessionExists = errors.New("session already recorded")

type SessionRepository interface {
	// RecordWithStats inserta la sesión y actualiza las estadísticas del
	// dueño en una sola transacción. Los incrementos son relativos en SQL,
	// por lo que llamadas concurrentes para el mismo usuario no pierden
	// actualizaciones.
	RecordWithStats(ctx context.Context, session domain.Session) (domain.Stats, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Session, error)
}

type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

func (r *PgSessionRepository) RecordWithStats(ctx context.Context, session domain.Session) (domain.Stats, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	defer tx.Rollback(ctx)

	const insert = `
		INSERT INTO sessions (id, user_id, task_id, start_time, end_time, duration, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	tag, err := tx.Exec(ctx, insert,
		session.ID,
		session.UserID,
		session.TaskID,
		session.StartTime,
		session.EndTime,
		session.Duration,
		session.CreatedAt,
	)
	if err != nil {
		return domain.Stats{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.Stats{}, ErrSessionExists
	}

	const update = `
		UPDATE users
		SET total_focus_time = total_focus_time + $2,
		    total_sessions = total_sessions + 1,
		    average_focus_time = (total_focus_time + $2)::float8 / (total_sessions + 1)
		WHERE id = $1
		RETURNING total_focus_time, total_sessions, average_focus_time
	`
	var stats domain.Stats
	err = tx.QueryRow(ctx, update, session.UserID, session.Duration).Scan(
		&stats.TotalFocusTime,
		&stats.TotalSessions,
		&stats.AverageFocusTime,
	)
	if err != nil {
		return domain.Stats{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

func (r *PgSessionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	const query = `
		SELECT id, user_id, COALESCE(task_id, ''), start_time, end_time, duration, created_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY start_time DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.TaskID, &s.StartTime, &s.EndTime, &s.Duration, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}
