package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/lendbook/internal/api/models"
	"github.com/jon4hz/lendbook/internal/cache"
	"github.com/jon4hz/lendbook/internal/database"
	"github.com/jon4hz/lendbook/internal/password"
	"gorm.io/gorm"
)

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// compareDummy spends the same time on unknown usernames as on wrong passwords.
func compareDummy(pw string, cost int) {
	dummyHashOnce.Do(func() {
		h, err := password.Hash("lendbook-dummy-password", cost)
		if err != nil {
			log.Warn("failed to create dummy password hash", "error", err)
			return
		}
		dummyHash = h
	})
	if dummyHash != "" {
		password.Check(pw, dummyHash)
	}
}

// Register creates a new account. The caller stays anonymous, logging in is a separate step.
// Asking for an admin account fails with ErrAdminSignupDisabled unless the
// auth.allow_admin_signup option is set.
func (e *Engine) Register(ctx context.Context, username, pw, confirm string, adminRequested bool) (*database.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || pw == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	if pw != confirm {
		return nil, ErrPasswordMismatch
	}
	if adminRequested && !e.cfg.Auth.AllowAdminSignup {
		log.Warn("rejected admin registration", "username", username)
		return nil, ErrAdminSignupDisabled
	}
	if len(pw) < e.cfg.Auth.MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, e.cfg.Auth.MinPasswordLength)
	}

	user, err := e.CreateUser(ctx, username, pw, adminRequested)
	if err != nil {
		return nil, err
	}

	e.CreateUserEvent(ctx, database.HistoryEventUserRegistered, user, nil)
	log.Info("registered new user", "username", user.Username, "admin", user.IsAdmin)

	return user, nil
}

// CreateUser hashes the password and stores a new account. It enforces the
// password length but skips the signup policy, so it may create admins.
// It backs both Register and the user create command.
func (e *Engine) CreateUser(ctx context.Context, username, pw string, isAdmin bool) (*database.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if len(pw) < e.cfg.Auth.MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, e.cfg.Auth.MinPasswordLength)
	}

	hash, err := password.Hash(pw, e.cfg.Auth.BcryptCost)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := e.db.CreateUser(ctx, username, hash, isAdmin)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies the credentials and returns the identity to store in the session.
// Unknown users and wrong passwords both fail with ErrInvalidCredentials.
func (e *Engine) Login(ctx context.Context, username, pw string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || pw == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := e.db.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			compareDummy(pw, e.cfg.Auth.BcryptCost)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !password.Check(pw, user.PasswordHash) {
		log.Debug("login failed", "username", username)
		return nil, ErrInvalidCredentials
	}

	e.users.Set(ctx, identityOf(user))
	return models.ToUser(user), nil
}

// CurrentUser resolves the user id stored in a session.
// It fails with ErrUnauthenticated if the account no longer exists.
// A cached identity may lag behind the store until its TTL expires, so its
// admin flag is only good for display. Use RequireAdmin to authorize.
func (e *Engine) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}

	if identity, ok := e.users.Get(ctx, userID); ok {
		return &models.User{
			ID:       identity.ID,
			Username: identity.Username,
			IsAdmin:  identity.IsAdmin,
		}, nil
	}

	user, err := e.db.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	e.users.Set(ctx, identityOf(user))
	return models.ToUser(user), nil
}

func identityOf(u *database.User) cache.Identity {
	return cache.Identity{
		ID:       u.ID,
		Username: u.Username,
		IsAdmin:  u.IsAdmin,
	}
}
