package engine

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/lendbook/internal/api/models"
	"github.com/jon4hz/lendbook/internal/database"
	"github.com/samber/lo"
)

func actorID(actor *models.User) *uint {
	if actor == nil {
		return nil
	}
	return lo.ToPtr(actor.ID)
}

// recordEvent stores a history event. The operation it describes has already
// been committed, so a failure here is only logged.
func (e *Engine) recordEvent(ctx context.Context, event database.HistoryEvent) {
	if err := e.db.CreateHistoryEvent(ctx, event); err != nil {
		log.Error("failed to record history event", "type", event.EventType, "error", err)
	}
}

// CreateBookEvent creates a history event about a book, optionally borrowed by user.
func (e *Engine) CreateBookEvent(ctx context.Context, eventType database.HistoryEventType, book *database.Book, user *database.User, actor *models.User) {
	event := database.HistoryEvent{
		EventType: eventType,
		BookID:    lo.ToPtr(book.ID),
		BookTitle: book.Title,
		ActorID:   actorID(actor),
	}
	if user != nil {
		event.UserID = lo.ToPtr(user.ID)
		event.Username = user.Username
	}
	e.recordEvent(ctx, event)
}

// CreateUserEvent creates a history event about an account.
func (e *Engine) CreateUserEvent(ctx context.Context, eventType database.HistoryEventType, user *database.User, actor *models.User) {
	e.recordEvent(ctx, database.HistoryEvent{
		EventType: eventType,
		UserID:    lo.ToPtr(user.ID),
		Username:  user.Username,
		ActorID:   actorID(actor),
	})
}

// CreateLoanClearedEvents records one event per book whose loan was cleared
// because its borrower was deleted.
func (e *Engine) CreateLoanClearedEvents(ctx context.Context, books []database.Book, user *database.User, actor *models.User) {
	for i := range books {
		e.CreateBookEvent(ctx, database.HistoryEventLoanCleared, &books[i], user, actor)
	}
}
