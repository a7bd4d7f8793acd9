package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/lendbook/internal/api/models"
	"github.com/jon4hz/lendbook/internal/database"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// RequireAdmin checks the admin flag of the actor against the store,
// never against the identity cache. A deleted actor is unauthenticated.
// Admin operations call it before anything else.
func (e *Engine) RequireAdmin(ctx context.Context, actor *models.User) error {
	if actor == nil {
		return ErrUnauthenticated
	}

	current, err := e.db.GetUserByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			e.users.Invalidate(ctx, actor.ID)
			return ErrUnauthenticated
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	e.users.Set(ctx, identityOf(current))

	if !current.IsAdmin {
		log.Warn("non-admin attempted an admin operation", "user", current.Username)
		return ErrForbidden
	}
	return nil
}

// AddBook adds a new, available book to the catalog. Duplicate titles are allowed.
func (e *Engine) AddBook(ctx context.Context, actor *models.User, title, author, publishDate string) (*database.Book, error) {
	if err := e.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" || author == "" {
		return nil, fmt.Errorf("%w: title and author are required", ErrInvalidInput)
	}

	book, err := e.db.CreateBook(ctx, title, author, strings.TrimSpace(publishDate))
	if err != nil {
		return nil, fmt.Errorf("failed to add book: %w", err)
	}

	e.CreateBookEvent(ctx, database.HistoryEventBookAdded, book, nil, actor)
	log.Info("book added", "title", book.Title, "id", book.ID, "admin", actor.Username)

	return book, nil
}

// DeleteBook removes a book from the catalog, even if it is currently borrowed.
func (e *Engine) DeleteBook(ctx context.Context, actor *models.User, bookID uint) (*database.Book, error) {
	if err := e.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}

	book, err := e.db.DeleteBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete book: %w", err)
	}

	e.CreateBookEvent(ctx, database.HistoryEventBookDeleted, book, nil, actor)
	if book.IsBorrowed {
		log.Info("deleted borrowed book", "title", book.Title, "id", book.ID, "admin", actor.Username)
	} else {
		log.Info("book deleted", "title", book.Title, "id", book.ID, "admin", actor.Username)
	}

	return book, nil
}

// DeleteUser removes an account. Books held by the user go back to the catalog.
func (e *Engine) DeleteUser(ctx context.Context, actor *models.User, userID uint) (*database.User, error) {
	if err := e.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}

	user, err := e.db.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	cleared, err := e.db.DeleteUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	e.users.Invalidate(ctx, userID)

	e.CreateLoanClearedEvents(ctx, cleared, user, actor)
	e.CreateUserEvent(ctx, database.HistoryEventUserDeleted, user, actor)
	log.Info("user deleted", "username", user.Username, "clearedLoans", len(cleared), "admin", actor.Username)

	return user, nil
}

// ListUsers returns all accounts.
func (e *Engine) ListUsers(ctx context.Context, actor *models.User) ([]database.User, error) {
	if err := e.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	users, err := e.db.GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// SetUserAdmin grants or revokes the admin flag of an account.
func (e *Engine) SetUserAdmin(ctx context.Context, actor *models.User, userID uint, isAdmin bool) (*database.User, error) {
	if err := e.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	return e.setUserAdmin(ctx, actor, userID, isAdmin)
}

// PromoteUser sets the admin flag by username without an acting admin.
// It is meant for the command line, where access to the database implies trust.
func (e *Engine) PromoteUser(ctx context.Context, username string, isAdmin bool) (*database.User, error) {
	user, err := e.db.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return e.setUserAdmin(ctx, nil, user.ID, isAdmin)
}

func (e *Engine) setUserAdmin(ctx context.Context, actor *models.User, userID uint, isAdmin bool) (*database.User, error) {
	if err := e.db.SetUserAdmin(ctx, userID, isAdmin); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	e.users.Invalidate(ctx, userID)

	user, err := e.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	e.CreateUserEvent(ctx, database.HistoryEventUserPromoted, user, actor)
	log.Info("updated admin flag", "username", user.Username, "admin", user.IsAdmin)

	return user, nil
}

// ListHistory returns one page of audit events, newest first, and the total number of events.
func (e *Engine) ListHistory(ctx context.Context, actor *models.User, page, pageSize int) ([]database.HistoryEvent, int64, error) {
	if err := e.RequireAdmin(ctx, actor); err != nil {
		return nil, 0, err
	}
	events, total, err := e.db.GetHistoryEvents(ctx, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list history: %w", err)
	}
	return events, total, nil
}

// Stats returns catalog statistics.
func (e *Engine) Stats(ctx context.Context, actor *models.User) (*database.CatalogStats, error) {
	if err := e.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	stats, err := e.db.GetCatalogStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}

// ManageUsersView bundles the data of the user management page.
type ManageUsersView struct {
	Users []database.User
	Stats *database.CatalogStats
}

// ManageUsers loads the account list and the catalog statistics concurrently.
func (e *Engine) ManageUsers(ctx context.Context, actor *models.User) (*ManageUsersView, error) {
	if err := e.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}

	var view ManageUsersView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if view.Users, err = e.db.GetAllUsers(gctx); err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if view.Stats, err = e.db.GetCatalogStats(gctx); err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &view, nil
}
