package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/lendbook/internal/api/models"
	"github.com/jon4hz/lendbook/internal/database"
	"gorm.io/gorm"
)

// Borrow lends an available book to the actor.
// Every failure due to the book's state satisfies errors.Is(err, ErrAlreadyBorrowedOrMissing).
func (e *Engine) Borrow(ctx context.Context, bookID uint, actor *models.User) (*database.Book, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	book, err := e.db.BorrowBook(ctx, bookID, actor.ID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			log.Debug("borrow failed, book not found", "book", bookID, "user", actor.Username)
			return nil, ErrBookNotFound
		case errors.Is(err, database.ErrBookUnavailable):
			log.Debug("borrow failed, book already borrowed", "book", bookID, "user", actor.Username)
			return nil, ErrBookAlreadyBorrowed
		case errors.Is(err, database.ErrBorrowerNotFound):
			// the account was deleted while its session was still in use
			e.users.Invalidate(ctx, actor.ID)
			return nil, ErrUnauthenticated
		default:
			return nil, fmt.Errorf("failed to borrow book: %w", err)
		}
	}

	e.CreateBookEvent(ctx, database.HistoryEventBorrowed, book, &database.User{ID: actor.ID, Username: actor.Username}, actor)
	log.Info("book borrowed", "book", book.Title, "id", book.ID, "user", actor.Username)

	return book, nil
}

// Return gives a book back. Only the current borrower can return it,
// admins included, everything else fails with ErrReturnDenied.
func (e *Engine) Return(ctx context.Context, bookID uint, actor *models.User) (*database.Book, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	book, err := e.db.ReturnBook(ctx, bookID, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, database.ErrNotBorrower) {
			log.Debug("return denied", "book", bookID, "user", actor.Username, "reason", err)
			return nil, ErrReturnDenied
		}
		return nil, fmt.Errorf("failed to return book: %w", err)
	}

	e.CreateBookEvent(ctx, database.HistoryEventReturned, book, &database.User{ID: actor.ID, Username: actor.Username}, actor)
	log.Info("book returned", "book", book.Title, "id", book.ID, "user", actor.Username)

	return book, nil
}

// ListBorrowedBy returns the books the actor currently holds.
func (e *Engine) ListBorrowedBy(ctx context.Context, actor *models.User) ([]database.Book, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	books, err := e.db.GetBooksBorrowedBy(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list borrowed books: %w", err)
	}
	return books, nil
}

// ListBooks returns the whole catalog.
func (e *Engine) ListBooks(ctx context.Context, actor *models.User) ([]database.Book, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	books, err := e.db.GetAllBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}
