package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pomodoro-api/internal/domain"
)

// ProjectRepository expone CRUD de proyectos acotado por usuario.
type ProjectRepository interface {
	Create(ctx context.Context, project domain.Project) error
	GetByID(ctx context.Context, userID, id string) (domain.Project, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Project, error)
	Update(ctx context.Context, project domain.Project) error
	Delete(ctx context.Context, userID, id string) error
}

type PgProjectRepository struct {
	pool *pgxpool.Pool
}

func NewPgProjectRepository(pool *pgxpool.Pool) *PgProjectRepository {
	return &PgProjectRepository{pool: pool}
}

func (r *PgProjectRepository) Create(ctx context.Context, project domain.Project) error {
	const query = `
		INSERT INTO projects (id, user_id, name, color, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		project.ID,
		project.UserID,
		project.Name,
		project.Color,
		project.CreatedAt,
	)
	return err
}

func (r *PgProjectRepository) GetByID(ctx context.Context, userID, id string) (domain.Project, error) {
	const query = `
		SELECT id, user_id, name, color, created_at
		FROM projects
		WHERE id = $1 AND user_id = $2
	`
	var p domain.Project
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(&p.ID, &p.UserID, &p.Name, &p.Color, &p.CreatedAt)
	return p, err
}

func (r *PgProjectRepository) ListByUser(ctx context.Context, userID string) ([]domain.Project, error) {
	const query = `
		SELECT id, user_id, name, color, created_at
		FROM projects
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Color, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *PgProjectRepository) Update(ctx context.Context, project domain.Project) error {
	const query = `
		UPDATE projects
		SET name = $3, color = $4
		WHERE id = $1 AND user_id = $2
	`
	tag, err := r.pool.Exec(ctx, query, project.ID, project.UserID, project.Name, project.Color)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgProjectRepository) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM projects WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
