package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/okarpov/tasktrack/internal/models"
)

type authServiceImpl struct {
	logger     zerolog.Logger
	pgPool     *pgxpool.Pool
	issuer     string
	signingKey []byte
	sessionTTL time.Duration
}

func NewAuthService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	issuer string,
	signingKey []byte,
	sessionTTL time.Duration,
) AuthService {
	return &authServiceImpl{
		logger:     logger,
		pgPool:     pgPool,
		issuer:     issuer,
		signingKey: signingKey,
		sessionTTL: sessionTTL,
	}
}

func (s *authServiceImpl) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user := models.User{
		Username: username,
	}

	const selectUserByUsernameQuery = `
SELECT id,
       username,
       email,
       password,
       is_active,
       is_staff,
       is_superuser,
       created_at,
       updated_at
FROM users
WHERE username = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectUserByUsernameQuery,
		user.Username,
	).Scan(
		&user.ID,
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
				Str("username", user.Username).
				Msg("user not found")
			return nil, ErrInvalidCredentials
		}

		s.logger.Error().
			Err(err).
			Str("username", user.Username).
			Msg("failed to select user by username")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("selected user")

	match, err := argon2id.ComparePasswordAndHash(password, user.Password)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to compare password")
		return nil, err
	} else if !match {
		s.logger.Error().
			Str("user_id", user.ID).
			Msg("passwords do not match")
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.Error().
			Str("user_id", user.ID).
			Msg("user is deactivated")
		return nil, ErrInvalidCredentials
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("authenticated user")
	return &user, nil
}

func (s *authServiceImpl) CreateSession(ctx context.Context, user *models.User, fingerprint string) (*SessionToken, error) {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

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
			Msg("failed to delete sessions by user id")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Int64("affected", tag.RowsAffected()).
		Msg("deleted sessions by user id")

	now := time.Now()
	session := models.Session{
		UserID:      user.ID,
		Fingerprint: fingerprint,
		ExpiresAt:   now.Add(s.sessionTTL),
		CreatedAt:   now,
	}

	sessionUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate session uuid")
		return nil, err
	}
	session.ID = sessionUUID.String()

	const insertSessionQuery = `
INSERT INTO sessions (id,
                      user_id,
                      fingerprint,
                      expires_at,
                      created_at)
VALUES ($1, $2, $3, $4, $5)
`
	_, err = tx.Exec(
		ctx,
		insertSessionQuery,
		session.ID,
		session.UserID,
		session.Fingerprint,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert session")
		return nil, err
	}
	s.logger.Debug().
		Str("session_id", session.ID).
		Time("expires_at", session.ExpiresAt).
		Msg("inserted session")

	token, err := s.signSessionToken(session.ID, session.ExpiresAt)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to sign session token")
		return nil, err
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
		Str("session_id", session.ID).
		Msg("created session")
	return &SessionToken{
		SessionID: session.ID,
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *authServiceImpl) ResolveSession(ctx context.Context, token, fingerprint string) (*models.User, *models.Session, error) {
	claims, err := s.parseSessionToken(token)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Msg("failed to parse session token")
		return nil, nil, ErrSessionNotFound
	}

	session := models.Session{
		ID: claims.Subject,
	}

	const selectSessionByIDQuery = `
SELECT user_id,
       fingerprint,
       expires_at,
       created_at
FROM sessions
WHERE id = $1
`
	err = s.pgPool.QueryRow(
		ctx,
		selectSessionByIDQuery,
		session.ID,
	).Scan(
		&session.UserID,
		&session.Fingerprint,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Debug().
				Str("session_id", session.ID).
				Msg("session not found")
			return nil, nil, ErrSessionNotFound
		}

		s.logger.Error().
			Err(err).
			Str("session_id", session.ID).
			Msg("failed to select session by id")
		return nil, nil, err
	}

	if session.ExpiresAt.Before(time.Now()) {
		s.logger.Debug().
			Str("session_id", session.ID).
			Time("expires_at", session.ExpiresAt).
			Msg("session expired")
		return nil, nil, ErrSessionExpired
	}

	if session.Fingerprint != fingerprint {
		s.logger.Error().
			Str("session_id", session.ID).
			Msg("fingerprint mismatch")
		return nil, nil, ErrSessionNotFound
	}

	user := models.User{
		ID: session.UserID,
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
	err = s.pgPool.QueryRow(
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
				Msg("session user not found")
			return nil, nil, ErrSessionNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to select user by id")
		return nil, nil, err
	}

	if !user.IsActive {
		s.logger.Warn().
			Str("user_id", user.ID).
			Str("session_id", session.ID).
			Msg("session user is deactivated")
		return nil, nil, ErrSessionNotFound
	}

	s.logger.Debug().
		Str("user_id", user.ID).
		Str("session_id", session.ID).
		Msg("resolved session")
	return &user, &session, nil
}

func (s *authServiceImpl) DestroySession(ctx context.Context, sessionID string) error {
	const deleteSessionByIDQuery = `
DELETE FROM sessions
       WHERE id = $1
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteSessionByIDQuery,
		sessionID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("session_id", sessionID).
			Msg("failed to delete session")
		return err
	}
	s.logger.Debug().
		Str("session_id", sessionID).
		Int64("affected", tag.RowsAffected()).
		Msg("deleted session")

	s.logger.Info().
		Str("session_id", sessionID).
		Msg("destroyed session")
	return nil
}

func (s *authServiceImpl) signSessionToken(sessionID string, expiresAt time.Time) (string, error) {
	tokenUUID, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        tokenUUID.String(),
		Issuer:    s.issuer,
		Subject:   sessionID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *authServiceImpl) parseSessionToken(token string) (*jwt.RegisteredClaims, error) {
	t, err := jwt.ParseWithClaims(
		token,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := t.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, errors.New("unexpected token claims")
	}
	return claims, nil
}
