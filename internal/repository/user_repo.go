package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pomodoro-api/internal/domain"
)

// ErrDuplicate indica violación de unicidad (email ya registrado).
var ErrDuplicate = errors.New("duplicate key")

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	// UpdateOTP escribe hash, propósito y expiración en una sola sentencia:
	// ningún lector puede observar un código sin su timestamp.
	UpdateOTP(ctx context.Context, id, otpHash, purpose string, expiresAt time.Time) error
	ClearOTP(ctx context.Context, id string) error
	Activate(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateProfile(ctx context.Context, user domain.User) error
	Delete(ctx context.Context, id string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `
	id, email, password_hash,
	COALESCE(phone_number, ''), COALESCE(gender, ''), date_of_birth, COALESCE(country, ''),
	total_focus_time, total_sessions, average_focus_time,
	is_active, COALESCE(otp_code_hash, ''), COALESCE(otp_purpose, ''), otp_expires_at,
	created_at
`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.PhoneNumber,
		&u.Gender,
		&u.DateOfBirth,
		&u.Country,
		&u.Stats.TotalFocusTime,
		&u.Stats.TotalSessions,
		&u.Stats.AverageFocusTime,
		&u.IsActive,
		&u.OtpCodeHash,
		&u.OtpPurpose,
		&u.OtpExpiresAt,
		&u.CreatedAt,
	)
	return u, err
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, email, password_hash, is_active, otp_code_hash, otp_purpose, otp_expires_at, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.IsActive,
		user.OtpCodeHash,
		user.OtpPurpose,
		user.OtpExpiresAt,
		user.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) UpdateOTP(ctx context.Context, id, otpHash, purpose string, expiresAt time.Time) error {
	const query = `
		UPDATE users
		SET otp_code_hash = $2, otp_purpose = $3, otp_expires_at = $4
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, otpHash, purpose, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) ClearOTP(ctx context.Context, id string) error {
	const query = `
		UPDATE users
		SET otp_code_hash = NULL, otp_purpose = NULL, otp_expires_at = NULL
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) Activate(ctx context.Context, id string) error {
	const query = `UPDATE users SET is_active = TRUE WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) UpdateProfile(ctx context.Context, user domain.User) error {
	const query = `
		UPDATE users
		SET phone_number = NULLIF($2, ''), gender = NULLIF($3, ''), date_of_birth = $4, country = NULLIF($5, '')
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		user.ID,
		user.PhoneNumber,
		user.Gender,
		user.DateOfBirth,
		user.Country,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete elimina al usuario y todo lo que posee en una sola transacción.
func (r *PgUserRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	statements := []string{
		`DELETE FROM sessions WHERE user_id = $1`,
		`DELETE FROM task_tags WHERE task_id IN (SELECT id FROM tasks WHERE user_id = $1)`,
		`DELETE FROM tasks WHERE user_id = $1`,
		`DELETE FROM tags WHERE user_id = $1`,
		`DELETE FROM projects WHERE user_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt, id); err != nil {
			return err
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}
