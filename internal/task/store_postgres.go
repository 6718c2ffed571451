package task

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskora/taskora/internal/platform/apperr"
	"github.com/taskora/taskora/internal/platform/dberr"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) ListByOwner(context context.Context, ownerID string) ([]*Task, error) {
	const query = `
		SELECT id, userid, title, description, status, createdat, updatedat
		FROM core.task
		WHERE userid = $1
		ORDER BY id DESC`

	rows, err := repository.db.Query(context, query, ownerID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_tasks")
	}
	defer rows.Close()

	tasks := make([]*Task, 0)
	for rows.Next() {
		t := &Task{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, dberr.Wrap(err, "scan_task")
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_tasks_rows")
	}

	return tasks, nil
}

func (repository *PostgresRepository) FindByOwner(context context.Context, ownerID, taskID string) (*Task, error) {
	const query = `
		SELECT id, userid, title, description, status, createdat, updatedat
		FROM core.task
		WHERE id = $1 AND userid = $2`

	t := &Task{}
	err := repository.db.QueryRow(context, query, taskID, ownerID).Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Task")
		}
		return nil, dberr.Wrap(err, "find_task")
	}

	return t, nil
}

func (repository *PostgresRepository) Create(context context.Context, task *Task) error {
	const query = `
		INSERT INTO core.task (id, userid, title, description, status, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := repository.db.Exec(context, query,
		task.ID, task.UserID, task.Title, task.Description, task.Status, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "create_task")
	}

	return nil
}

func (repository *PostgresRepository) Update(context context.Context, task *Task) error {
	const query = `
		UPDATE core.task
		SET title = $1, description = $2, status = $3, updatedat = $4
		WHERE id = $5 AND userid = $6`

	task.UpdatedAt = time.Now()

	tag, err := repository.db.Exec(context, query,
		task.Title, task.Description, task.Status, task.UpdatedAt, task.ID, task.UserID,
	)
	if err != nil {
		return dberr.Wrap(err, "update_task")
	}

	// The row may have been deleted between read and write.
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Task")
	}

	return nil
}

func (repository *PostgresRepository) Delete(context context.Context, ownerID, taskID string) error {
	const query = `DELETE FROM core.task WHERE id = $1 AND userid = $2`

	tag, err := repository.db.Exec(context, query, taskID, ownerID)
	if err != nil {
		return dberr.Wrap(err, "delete_task")
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Task")
	}

	return nil
}
