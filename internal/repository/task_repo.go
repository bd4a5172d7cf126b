package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pomodoro-api/internal/domain"
)

type TaskRepository interface {
	Create(ctx context.Context, task domain.Task) error
	GetByID(ctx context.Context, userID, id string) (domain.Task, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Task, error)
	Update(ctx context.Context, task domain.Task) error
	Delete(ctx context.Context, userID, id string) error
}

type PgTaskRepository struct {
	pool *pgxpool.Pool
}

func NewPgTaskRepository(pool *pgxpool.Pool) *PgTaskRepository {
	return &PgTaskRepository{pool: pool}
}

const taskColumns = `
	t.id, t.user_id, t.name, t.estimated_pomodoros, COALESCE(t.project_id, ''), t.color, t.status, t.created_at,
	COALESCE(array_agg(tt.tag_id) FILTER (WHERE tt.tag_id IS NOT NULL), '{}')
`

func (r *PgTaskRepository) Create(ctx context.Context, task domain.Task) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insert = `
		INSERT INTO tasks (id, user_id, name, estimated_pomodoros, project_id, color, status, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
	`
	_, err = tx.Exec(ctx, insert,
		task.ID,
		task.UserID,
		task.Name,
		task.EstimatedPomodoros,
		task.ProjectID,
		task.Color,
		task.Status,
		task.CreatedAt,
	)
	if err != nil {
		return err
	}

	for _, tagID := range task.TagIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO task_tags (task_id, tag_id) VALUES ($1, $2)`, task.ID, tagID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PgTaskRepository) GetByID(ctx context.Context, userID, id string) (domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks t
		LEFT JOIN task_tags tt ON tt.task_id = t.id
		WHERE t.id = $1 AND t.user_id = $2
		GROUP BY t.id
	`
	return scanTask(r.pool.QueryRow(ctx, query, id, userID))
}

func (r *PgTaskRepository) ListByUser(ctx context.Context, userID string) ([]domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks t
		LEFT JOIN task_tags tt ON tt.task_id = t.id
		WHERE t.user_id = $1
		GROUP BY t.id
		ORDER BY t.created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *PgTaskRepository) Update(ctx context.Context, task domain.Task) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const update = `
		UPDATE tasks
		SET name = $3, estimated_pomodoros = $4, project_id = NULLIF($5, ''), color = $6, status = $7
		WHERE id = $1 AND user_id = $2
	`
	cmd, err := tx.Exec(ctx, update,
		task.ID,
		task.UserID,
		task.Name,
		task.EstimatedPomodoros,
		task.ProjectID,
		task.Color,
		task.Status,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	// Reemplaza el conjunto completo de tags.
	if _, err := tx.Exec(ctx, `DELETE FROM task_tags WHERE task_id = $1`, task.ID); err != nil {
		return err
	}
	for _, tagID := range task.TagIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO task_tags (task_id, tag_id) VALUES ($1, $2)`, task.ID, tagID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PgTaskRepository) Delete(ctx context.Context, userID, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM task_tags WHERE task_id = $1`, id); err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

func scanTask(row pgx.Row) (domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Name,
		&t.EstimatedPomodoros,
		&t.ProjectID,
		&t.Color,
		&t.Status,
		&t.CreatedAt,
		&t.TagIDs,
	)
	return t, err
}
