// Package session holds the signed-in identity of the current user and its persisted form.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/store"
)

const (
	tokenKey   = "site"
	profileKey = "site.user"

	ConditionAuthRequired  = "authentication required"
	ConditionAdminRequired = "admin privileges required"

	missingFieldsMessage = "please fill in all required fields"
)

// Authenticator is the part of the backend the session talks to.
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (*api.LoginResult, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.User, error)
}

// State is an authenticated session. A user is present exactly when a token is.
type State struct {
	Token string
	User  domain.User
}

type Manager struct {
	mu       sync.RWMutex
	current  *State
	auth     Authenticator
	store    store.Store
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewManager(auth Authenticator, s store.Store, l *zap.Logger) *Manager {
	return &Manager{
		auth:     auth,
		store:    s,
		logger:   logger.OrNop(l),
		validate: apperr.NewValidator(),
		now:      time.Now,
	}
}

type loginForm struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerForm struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// persistedProfile is the stored profile blob.
type persistedProfile struct {
	ID        string    `json:"id" validate:"required"`
	Email     string    `json:"email" validate:"required"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// Rehydrate restores a persisted session. Anything unusable is cleared and the
// manager starts Anonymous; only storage failures are returned.
func (m *Manager) Rehydrate(ctx context.Context) error {
	token, tokenErr := m.store.Get(ctx, tokenKey)
	blob, blobErr := m.store.Get(ctx, profileKey)
	for _, err := range []error{tokenErr, blobErr} {
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("rehydrate session: %w", err)
		}
	}

	if tokenErr != nil && blobErr != nil {
		return nil
	}
	if tokenErr != nil || blobErr != nil {
		m.logger.Warn("discarding half-persisted session")
		return m.clearStore(ctx)
	}

	state, err := m.restore(string(token), blob)
	if err != nil {
		m.logger.Warn("discarding persisted session", zap.Error(err))
		return m.clearStore(ctx)
	}

	m.mu.Lock()
	m.current = state
	m.mu.Unlock()
	m.logger.Debug("session restored", zap.String("user_id", state.User.ID))
	return nil
}

func (m *Manager) restore(token string, blob []byte) (*State, error) {
	if err := m.checkToken(token); err != nil {
		return nil, err
	}

	var p persistedProfile
	if err := json.Unmarshal(blob, &p); err != nil {
		return nil, fmt.Errorf("unreadable profile: %w", err)
	}
	if err := m.validate.Struct(p); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}

	return &State{
		Token: token,
		User: domain.User{
			ID:        p.ID,
			Email:     p.Email,
			Username:  p.Username,
			IsAdmin:   p.IsAdmin,
			CreatedAt: p.CreatedAt,
		},
	}, nil
}

// checkToken accepts any non-empty token. Only a JWT can be judged expired; other
// tokens are opaque to the client.
func (m *Manager) checkToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("empty token")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("malformed token expiry: %w", err)
	}
	if exp != nil && !m.now().Before(exp.Time) {
		return errors.New("token expired")
	}
	return nil
}

// Login leaves the manager Anonymous on any failure, including a previously
// signed-in user.
func (m *Manager) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	if err := apperr.CheckInput(m.validate, missingFieldsMessage, loginForm(creds)); err != nil {
		return nil, err
	}

	res, err := m.auth.Login(ctx, creds)
	if err != nil {
		if clearErr := m.Logout(ctx); clearErr != nil {
			m.logger.Warn("failed to clear session after rejected login", zap.Error(clearErr))
		}
		return nil, err
	}

	if err := m.persist(ctx, res.Token, res.User); err != nil {
		if clearErr := m.Logout(ctx); clearErr != nil {
			m.logger.Warn("failed to clear partially persisted session", zap.Error(clearErr))
		}
		return nil, err
	}

	m.mu.Lock()
	m.current = &State{Token: res.Token, User: res.User}
	m.mu.Unlock()

	m.logger.Info("signed in", zap.String("user_id", res.User.ID), zap.Bool("admin", res.User.IsAdmin))
	user := res.User
	return &user, nil
}

// Register creates an account; the caller signs in afterwards.
func (m *Manager) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	if err := apperr.CheckInput(m.validate, missingFieldsMessage, registerForm(reg)); err != nil {
		return nil, err
	}
	u, err := m.auth.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	m.logger.Info("account registered", zap.String("user_id", u.ID))
	return u, nil
}

// Logout always ends the in-memory session; storage errors are still reported.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	return m.clearStore(ctx)
}

// Authorize runs fn with the current token. A 401 from fn ends the session.
func (m *Manager) Authorize(ctx context.Context, fn func(ctx context.Context, token string) error) error {
	state, ok := m.Current()
	if !ok {
		return apperr.NewPrecondition(ConditionAuthRequired)
	}

	err := fn(ctx, state.Token)
	if apperr.IsUnauthorized(err) {
		m.logger.Info("session rejected by server", zap.String("user_id", state.User.ID))
		if clearErr := m.Logout(ctx); clearErr != nil {
			m.logger.Warn("failed to clear rejected session", zap.Error(clearErr))
		}
	}
	return err
}

func (m *Manager) RequireAdmin() error {
	state, ok := m.Current()
	if !ok {
		return apperr.NewPrecondition(ConditionAuthRequired)
	}
	if !state.User.IsAdmin {
		return apperr.NewPrecondition(ConditionAdminRequired)
	}
	return nil
}

// Current returns a copy of the session.
func (m *Manager) Current() (State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return State{}, false
	}
	return *m.current, true
}

func (m *Manager) IsAuthenticated() bool {
	_, ok := m.Current()
	return ok
}

func (m *Manager) IsAdmin() bool {
	return m.RequireAdmin() == nil
}

func (m *Manager) persist(ctx context.Context, token string, u domain.User) error {
	blob, err := json.Marshal(persistedProfile{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal profile failed: %w", err)
	}
	if err := m.store.Set(ctx, tokenKey, []byte(token)); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if err := m.store.Set(ctx, profileKey, blob); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (m *Manager) clearStore(ctx context.Context) error {
	err := errors.Join(m.store.Delete(ctx, tokenKey), m.store.Delete(ctx, profileKey))
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
