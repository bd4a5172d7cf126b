package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pomodoro-api/internal/domain"
)

type TagRepository interface {
	Create(ctx context.Context, tag domain.Tag) error
	ListByUser(ctx context.Context, userID string) ([]domain.Tag, error)
	Update(ctx context.Context, tag domain.Tag) error
	Delete(ctx context.Context, userID, id string) error
}

type PgTagRepository struct {
	pool *pgxpool.Pool
}

func NewPgTagRepository(pool *pgxpool.Pool) *PgTagRepository {
	return &PgTagRepository{pool: pool}
}

func (r *PgTagRepository) Create(ctx context.Context, tag domain.Tag) error {
	const query = `
		INSERT INTO tags (id, user_id, name, color, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, tag.ID, tag.UserID, tag.Name, tag.Color, tag.CreatedAt)
	return err
}

func (r *PgTagRepository) ListByUser(ctx context.Context, userID string) ([]domain.Tag, error) {
	const query = `
		SELECT id, user_id, name, color, created_at
		FROM tags
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *PgTagRepository) Update(ctx context.Context, tag domain.Tag) error {
	const query = `
		UPDATE tags
		SET name = $3, color = $4
		WHERE id = $1 AND user_id = $2
	`
	cmd, err := r.pool.Exec(ctx, query, tag.ID, tag.UserID, tag.Name, tag.Color)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgTagRepository) Delete(ctx context.Context, userID, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Desvincula el tag de las tareas antes de borrarlo.
	if _, err := tx.Exec(ctx, `DELETE FROM task_tags WHERE tag_id = $1`, id); err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM tags WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}
