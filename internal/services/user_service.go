package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/okarpov/tasktrack/internal/models"
)

type userServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewUserService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) UserService {
	return &userServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *userServiceImpl) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	now := time.Now()
	user := models.User{
		Username: params.Username,
		Email:    params.Email,
		// Registration never produces an administrator,
		// no matter which path submitted the form.
		IsActive:    true,
		IsStaff:     false,
		IsSuperuser: false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	userUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate user uuid")
		return nil, err
	}
	user.ID = userUUID.String()

	passwordHash, err := argon2id.CreateHash(params.Password, argon2id.DefaultParams)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return nil, err
	}
	user.Password = passwordHash

	const insertUserQuery = `
INSERT INTO users (id,
                   username,
                   email,
                   password,
                   is_active,
                   is_staff,
                   is_superuser,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertUserQuery,
		user.ID,
		user.Username,
		user.Email,
		user.Password,
		user.IsActive,
		user.IsStaff,
		user.IsSuperuser,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if uniqueErr := matchUniqueViolation(err); uniqueErr != nil {
			s.logger.Error().
				Str("username", user.Username).
				Str("email", user.Email).
				Msg("user already exists")
			return nil, uniqueErr
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("inserted user")

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("registered user")
	return &user, nil
}

func (s *userServiceImpl) GetByID(ctx context.Context, id string) (*models.User, error) {
	user := models.User{
		ID: id,
	}

	const selectUserByIDQuery = `
SELECT username,
       email,
       password,
       is_active,
       is_staff,
       is_superuser,
       created_at,
       updated_at
FROM users
WHERE id = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectUserByIDQuery,
		user.ID,
	).Scan(
		&user.Username,
		&user.Email,
		&user.Password,
		&user.IsActive,
		&user.IsStaff,
		&user.IsSuperuser,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("user_id", user.ID).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to select user by id")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Msg("selected user by id")

	return &user, nil
}

func (s *userServiceImpl) ListAccounts(ctx context.Context, search string) ([]*models.User, error) {
	// Active accounts come first; username keeps the output stable.
	const selectAccountsQuery = `
SELECT id,
       username,
       email,
       is_active,
       is_staff,
       is_superuser,
       created_at,
       updated_at
FROM users
WHERE $1 = '' OR
      username ILIKE '%' || $1 || '%' OR
      email ILIKE '%' || $1 || '%'
ORDER BY is_active DESC, username ASC
`
	rows, err := s.pgPool.Query(
		ctx,
		selectAccountsQuery,
		strings.TrimSpace(search),
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select accounts")
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		err = rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.IsActive,
			&user.IsStaff,
			&user.IsSuperuser,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan account")
			return nil, err
		}
		users = append(users, &user)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(users)).
		Msg("selected accounts")

	return users, nil
}

func (s *userServiceImpl) UpdateAccount(ctx context.Context, id, username, email string) (*models.User, error) {
	user := models.User{
		ID:       id,
		Username: username,
		Email:    email,
	}

	// The duplicate check excludes the edited row, so saving an account
	// with its own current email never trips the error.
	const selectConflictQuery = `
SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2),
       EXISTS (SELECT 1 FROM users WHERE username = $3 AND id <> $2)
`
	var emailTaken, usernameTaken bool
	err := s.pgPool.QueryRow(
		ctx,
		selectConflictQuery,
		user.Email,
		user.ID,
		user.Username,
	).Scan(&emailTaken, &usernameTaken)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to check for conflicts")
		return nil, err
	}

	if emailTaken {
		s.logger.Error().
			Str("user_id", user.ID).
			Str("email", user.Email).
			Msg("email already used by another account")
		return nil, ErrEmailTaken
	}
	if usernameTaken {
		s.logger.Error().
			Str("user_id", user.ID).
			Str("username", user.Username).
			Msg("username already used by another account")
		return nil, ErrUsernameTaken
	}

	user.UpdatedAt = time.Now()

	const updateAccountQuery = `
UPDATE users
SET username = $1,
    email = $2,
    updated_at = $3
WHERE id = $4
RETURNING password, is_active, is_staff, is_superuser, created_at
`
	err = s.pgPool.QueryRow(
		ctx,
		updateAccountQuery,
		user.Username,
		user.Email,
		user.UpdatedAt,
		user.ID,
	).Scan(
		&user.Password,
		&user.IsActive,
		&user.IsStaff,
		&user.IsSuperuser,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("user_id", user.ID).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		if uniqueErr := matchUniqueViolation(err); uniqueErr != nil {
			// Lost the race against a concurrent insert.
			s.logger.Error().
				Str("user_id", user.ID).
				Msg("account conflict on update")
			return nil, uniqueErr
		}

		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to update account")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("updated account")
	return &user, nil
}

func (s *userServiceImpl) ToggleActive(ctx context.Context, id string) (*models.User, error) {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user := models.User{
		ID:        id,
		UpdatedAt: time.Now(),
	}

	const toggleActiveQuery = `
UPDATE users
SET is_active = NOT is_active,
    updated_at = $1
WHERE id = $2
RETURNING username, email, password, is_active, is_staff, is_superuser, created_at
`
	err = tx.QueryRow(
		ctx,
		toggleActiveQuery,
		user.UpdatedAt,
		user.ID,
	).Scan(
		&user.Username,
		&user.Email,
		&user.Password,
		&user.IsActive,
		&user.IsStaff,
		&user.IsSuperuser,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("user_id", user.ID).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to toggle active flag")
		return nil, err
	}

	if !user.IsActive {
		// A deactivated user must not keep an authenticated session.
		const deleteSessionsByUserIDQuery = `
DELETE FROM sessions
       WHERE user_id = $1
`
		tag, err := tx.Exec(
			ctx,
			deleteSessionsByUserIDQuery,
			user.ID,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("user_id", user.ID).
				Msg("failed to delete sessions by user id")
			return nil, err
		}
		s.logger.Debug().
			Str("user_id", user.ID).
			Int64("affected", tag.RowsAffected()).
			Msg("deleted sessions of deactivated user")
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Bool("is_active", user.IsActive).
		Msg("toggled active flag")
	return &user, nil
}

func matchUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}
	if strings.Contains(pgErr.ConstraintName, "email") {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}
