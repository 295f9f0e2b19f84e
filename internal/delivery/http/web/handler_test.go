package web

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/okarpov/tasktrack/internal/models"
	"github.com/okarpov/tasktrack/internal/services"
)

type mockAuthService struct {
	authenticateFunc   func(ctx context.Context, username, password string) (*models.User, error)
	resolveFunc        func(ctx context.Context, token, fingerprint string) (*models.User, *models.Session, error)
	authenticateCalls  int
	createSessionCalls int
	destroyCalls       int
}

func (m *mockAuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	m.authenticateCalls++
	if m.authenticateFunc != nil {
		return m.authenticateFunc(ctx, username, password)
	}
	return nil, services.ErrInvalidCredentials
}

func (m *mockAuthService) CreateSession(ctx context.Context, user *models.User, fingerprint string) (*services.SessionToken, error) {
	m.createSessionCalls++
	return &services.SessionToken{
		SessionID: "session-1",
		Token:     "signed-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (m *mockAuthService) ResolveSession(ctx context.Context, token, fingerprint string) (*models.User, *models.Session, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, token, fingerprint)
	}
	return nil, nil, services.ErrSessionNotFound
}

func (m *mockAuthService) DestroySession(ctx context.Context, sessionID string) error {
	m.destroyCalls++
	return nil
}

type mockUserService struct {
	registerFunc  func(ctx context.Context, params services.RegisterParams) (*models.User, error)
	listFunc      func(ctx context.Context, search string) ([]*models.User, error)
	getFunc       func(ctx context.Context, id string) (*models.User, error)
	updateFunc    func(ctx context.Context, id, username, email string) (*models.User, error)
	toggleFunc    func(ctx context.Context, id string) (*models.User, error)
	registerCalls int
	toggleCalls   int
	lastSearch    string
	lastRegister  services.RegisterParams
}

func (m *mockUserService) Register(ctx context.Context, params services.RegisterParams) (*models.User, error) {
	m.registerCalls++
	m.lastRegister = params
	if m.registerFunc != nil {
		return m.registerFunc(ctx, params)
	}
	return &models.User{
		ID:       "user-1",
		Username: params.Username,
		Email:    params.Email,
		IsActive: true,
	}, nil
}

func (m *mockUserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, services.ErrUserNotFound
}

func (m *mockUserService) ListAccounts(ctx context.Context, search string) ([]*models.User, error) {
	m.lastSearch = search
	if m.listFunc != nil {
		return m.listFunc(ctx, search)
	}
	return nil, nil
}

func (m *mockUserService) UpdateAccount(ctx context.Context, id, username, email string) (*models.User, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, username, email)
	}
	return nil, services.ErrUserNotFound
}

func (m *mockUserService) ToggleActive(ctx context.Context, id string) (*models.User, error) {
	m.toggleCalls++
	if m.toggleFunc != nil {
		return m.toggleFunc(ctx, id)
	}
	return nil, services.ErrUserNotFound
}

type mockTaskService struct {
	listFunc    func(ctx context.Context, userID, titlePrefix string) ([]*models.Task, error)
	countFunc   func(ctx context.Context, userID string) (int64, error)
	getFunc     func(ctx context.Context, taskID int64, userID string) (*models.Task, error)
	createFunc  func(ctx context.Context, userID string, params services.TaskParams) (*models.Task, error)
	updateFunc  func(ctx context.Context, taskID int64, userID string, params services.TaskParams) (*models.Task, error)
	deleteFunc  func(ctx context.Context, taskID int64, userID string) error
	createCalls int
	deleteCalls int
	lastUserID  string
	lastPrefix  string
}

func (m *mockTaskService) ListByOwner(ctx context.Context, userID, titlePrefix string) ([]*models.Task, error) {
	m.lastUserID = userID
	m.lastPrefix = titlePrefix
	if m.listFunc != nil {
		return m.listFunc(ctx, userID, titlePrefix)
	}
	return nil, nil
}

func (m *mockTaskService) CountIncomplete(ctx context.Context, userID string) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockTaskService) GetByID(ctx context.Context, taskID int64, userID string) (*models.Task, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, taskID, userID)
	}
	return nil, services.ErrTaskNotFound
}

func (m *mockTaskService) Create(ctx context.Context, userID string, params services.TaskParams) (*models.Task, error) {
	m.createCalls++
	m.lastUserID = userID
	if m.createFunc != nil {
		return m.createFunc(ctx, userID, params)
	}
	return &models.Task{ID: 1, UserID: userID, Title: params.Title}, nil
}

func (m *mockTaskService) Update(ctx context.Context, taskID int64, userID string, params services.TaskParams) (*models.Task, error) {
	m.lastUserID = userID
	if m.updateFunc != nil {
		return m.updateFunc(ctx, taskID, userID, params)
	}
	return nil, services.ErrTaskNotFound
}

func (m *mockTaskService) Delete(ctx context.Context, taskID int64, userID string) error {
	m.deleteCalls++
	m.lastUserID = userID
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, taskID, userID)
	}
	return nil
}

func newTestHandler(auth services.AuthService, users services.UserService, tasks services.TaskService) *handlerImpl {
	return &handlerImpl{
		logger: zerolog.Nop(),
		auth:   auth,
		users:  users,
		tasks:  tasks,
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.LoadHTMLGlob("../../../../web/templates/*.html")
	return r
}

// asUser stores the given user in the request context the way
// HandleCurrentUser would after resolving a valid session.
func asUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(currentUserCtxKey, user)
		c.Set(currentSessionCtxKey, &models.Session{ID: "session-1", UserID: user.ID})
	}
}

func regularUser() *models.User {
	return &models.User{
		ID:       "alice-id",
		Username: "alice",
		Email:    "alice@example.com",
		IsActive: true,
	}
}

func adminUser() *models.User {
	return &models.User{
		ID:       "root-id",
		Username: "root",
		Email:    "root@example.com",
		IsActive: true,
		IsStaff:  true,
	}
}
