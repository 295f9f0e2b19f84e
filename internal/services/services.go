package services

import (
	"context"
	"errors"
	"time"

	"github.com/okarpov/tasktrack/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already used")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrTaskNotFound       = errors.New("task not found")
)

type AuthService interface {
	// Authenticate verifies the username/password pair.
	//
	// It returns ErrInvalidCredentials for an unknown username, a wrong
	// password, or a deactivated account. The three cases are not
	// distinguishable to the caller.
	Authenticate(ctx context.Context, username, password string) (*models.User, error)

	// CreateSession deletes the user's existing sessions, inserts a new
	// session row and returns a signed token naming it.
	CreateSession(ctx context.Context, user *models.User, fingerprint string) (*SessionToken, error)

	// ResolveSession maps a signed token back to its session row and user.
	//
	// It returns ErrSessionNotFound if the token is invalid, the row is
	// gone, the fingerprint doesn't match or the user was deactivated,
	// and ErrSessionExpired for an expired row.
	ResolveSession(ctx context.Context, token, fingerprint string) (*models.User, *models.Session, error)

	// DestroySession deletes the session row.
	DestroySession(ctx context.Context, sessionID string) error
}

type UserService interface {
	// Register creates a non-admin account. The staff and superuser flags
	// are always false regardless of what the caller submits.
	//
	// It returns ErrUsernameTaken or ErrEmailTaken on duplicates.
	Register(ctx context.Context, params RegisterParams) (*models.User, error)

	GetByID(ctx context.Context, id string) (*models.User, error)

	// ListAccounts returns every account, active ones first. A non-empty
	// search filters by case-insensitive substring over username or email.
	ListAccounts(ctx context.Context, search string) ([]*models.User, error)

	// UpdateAccount changes the username and email of an account.
	// Uniqueness checks exclude the edited row itself.
	UpdateAccount(ctx context.Context, id, username, email string) (*models.User, error)

	// ToggleActive inverts is_active and returns the updated record.
	// Deactivation also drops the user's sessions.
	ToggleActive(ctx context.Context, id string) (*models.User, error)
}

type TaskService interface {
	// ListByOwner returns the user's tasks. A non-empty titlePrefix
	// applies a case-insensitive starts-with filter on the title.
	ListByOwner(ctx context.Context, userID, titlePrefix string) ([]*models.Task, error)

	CountIncomplete(ctx context.Context, userID string) (int64, error)

	// GetByID returns the task only when it belongs to userID.
	GetByID(ctx context.Context, taskID int64, userID string) (*models.Task, error)

	Create(ctx context.Context, userID string, params TaskParams) (*models.Task, error)
	Update(ctx context.Context, taskID int64, userID string, params TaskParams) (*models.Task, error)
	Delete(ctx context.Context, taskID int64, userID string) error
}

type SessionToken struct {
	SessionID string
	Token     string
	ExpiresAt time.Time
}

type RegisterParams struct {
	Username string
	Email    string
	Password string
}

type TaskParams struct {
	Title       string
	Description string
	Complete    bool
}
