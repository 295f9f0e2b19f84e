package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/okarpov/tasktrack/internal/models"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *taskServiceImpl) ListByOwner(ctx context.Context, userID, titlePrefix string) ([]*models.Task, error) {
	const selectTasksByUserIDQuery = `
SELECT id,
       title,
       description,
       complete,
       created_at
FROM tasks
WHERE user_id = $1 AND
      ($2 = '' OR title ILIKE $2 || '%')
ORDER BY complete ASC, created_at DESC
`
	rows, err := s.pgPool.Query(
		ctx,
		selectTasksByUserIDQuery,
		userID,
		escapeLikePattern(strings.TrimSpace(titlePrefix)),
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select tasks")
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := models.Task{
			UserID: userID,
		}
		err = rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Complete,
			&task.CreatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, &task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", userID).
		Int("count", len(tasks)).
		Msg("selected tasks")

	return tasks, nil
}

func (s *taskServiceImpl) CountIncomplete(ctx context.Context, userID string) (int64, error) {
	const countIncompleteTasksQuery = `
SELECT COUNT(*)
FROM tasks
WHERE user_id = $1 AND
      complete = FALSE
`
	var count int64
	err := s.pgPool.QueryRow(
		ctx,
		countIncompleteTasksQuery,
		userID,
	).Scan(&count)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to count incomplete tasks")
		return 0, err
	}
	s.logger.Debug().
		Str("user_id", userID).
		Int64("count", count).
		Msg("counted incomplete tasks")

	return count, nil
}

func (s *taskServiceImpl) GetByID(ctx context.Context, taskID int64, userID string) (*models.Task, error) {
	task := models.Task{
		ID:     taskID,
		UserID: userID,
	}

	const selectTaskQuery = `
SELECT title,
       description,
       complete,
       created_at
FROM tasks
WHERE id = $1 AND
      user_id = $2
`
	err := s.pgPool.QueryRow(
		ctx,
		selectTaskQuery,
		task.ID,
		task.UserID,
	).Scan(
		&task.Title,
		&task.Description,
		&task.Complete,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Int64("task_id", task.ID).
				Str("user_id", task.UserID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to select task")
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("selected task")

	return &task, nil
}

func (s *taskServiceImpl) Create(ctx context.Context, userID string, params TaskParams) (*models.Task, error) {
	task := models.Task{
		// The owner is always the requesting user.
		UserID:      userID,
		Title:       params.Title,
		Description: params.Description,
		Complete:    params.Complete,
		CreatedAt:   time.Now(),
	}

	const insertTaskQuery = `
INSERT INTO tasks (user_id,
                   title,
                   description,
                   complete,
                   created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`
	err := s.pgPool.QueryRow(
		ctx,
		insertTaskQuery,
		task.UserID,
		task.Title,
		task.Description,
		task.Complete,
		task.CreatedAt,
	).Scan(&task.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("inserted task")

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("created task")
	return &task, nil
}

func (s *taskServiceImpl) Update(ctx context.Context, taskID int64, userID string, params TaskParams) (*models.Task, error) {
	task := models.Task{
		ID:          taskID,
		UserID:      userID,
		Title:       params.Title,
		Description: params.Description,
		Complete:    params.Complete,
	}

	const updateTaskQuery = `
UPDATE tasks
SET title = $1,
    description = $2,
    complete = $3
WHERE id = $4 AND
      user_id = $5
RETURNING created_at
`
	err := s.pgPool.QueryRow(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Description,
		task.Complete,
		task.ID,
		task.UserID,
	).Scan(&task.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Int64("task_id", task.ID).
				Str("user_id", task.UserID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("updated task")
	return &task, nil
}

func (s *taskServiceImpl) Delete(ctx context.Context, taskID int64, userID string) error {
	const deleteTaskQuery = `
DELETE FROM tasks
       WHERE id = $1 AND
             user_id = $2
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteTaskQuery,
		taskID,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to delete task")
		return err
	}

	if tag.RowsAffected() == 0 {
		s.logger.Error().
			Int64("task_id", taskID).
			Str("user_id", userID).
			Msg("task not found")
		return ErrTaskNotFound
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Str("user_id", userID).
		Msg("deleted task")
	return nil
}

// escapeLikePattern neutralizes LIKE wildcards in user input so the
// prefix search stays a literal starts-with match.
func escapeLikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
