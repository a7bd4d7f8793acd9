package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// HistoryEventType represents the type of history event.
type HistoryEventType string

const (
	// HistoryEventBookAdded indicates a book was added to the catalog.
	HistoryEventBookAdded HistoryEventType = "book_added"
	// HistoryEventBookDeleted indicates a book was removed from the catalog.
	HistoryEventBookDeleted HistoryEventType = "book_deleted"
	// HistoryEventBorrowed indicates a book was borrowed.
	HistoryEventBorrowed HistoryEventType = "borrowed"
	// HistoryEventReturned indicates a book was returned.
	HistoryEventReturned HistoryEventType = "returned"
	// HistoryEventUserRegistered indicates a new account was created.
	HistoryEventUserRegistered HistoryEventType = "user_registered"
	// HistoryEventUserDeleted indicates an account was deleted by an admin.
	HistoryEventUserDeleted HistoryEventType = "user_deleted"
	// HistoryEventUserPromoted indicates the admin flag of an account was changed.
	HistoryEventUserPromoted HistoryEventType = "user_promoted"
	// HistoryEventLoanCleared indicates a loan was cleared because its borrower was deleted.
	HistoryEventLoanCleared HistoryEventType = "loan_cleared"
)

// HistoryEvent is an append-only audit record.
// Titles and usernames are stored as snapshots and the ids carry no foreign keys,
// so events outlive the rows they describe.
type HistoryEvent struct {
	ID        uint             `gorm:"primarykey"`
	EventType HistoryEventType `gorm:"not null;index"`
	// Book the event refers to, if any
	BookID    *uint `gorm:"index"`
	BookTitle string
	// Subject user of the event, if any
	UserID   *uint `gorm:"index"`
	Username string
	// User who triggered the event (nil for cli actions)
	ActorID   *uint
	EventTime time.Time `gorm:"not null;index"`
}

// HistoryDB defines the interface for history-related database operations.
type HistoryDB interface {
	CreateHistoryEvent(ctx context.Context, event HistoryEvent) error
	GetHistoryEvents(ctx context.Context, page, pageSize int) ([]HistoryEvent, int64, error)
	GetHistoryEventsByUserID(ctx context.Context, userID uint, limit int) ([]HistoryEvent, error)
}

// CreateHistoryEvent creates a new history event.
func (c *Client) CreateHistoryEvent(ctx context.Context, event HistoryEvent) error {
	if event.EventTime.IsZero() {
		event.EventTime = time.Now()
	}

	result := c.db.WithContext(ctx).Create(&event)
	if result.Error != nil {
		log.Error("failed to create history event", "error", result.Error)
		return result.Error
	}
	return nil
}

// GetHistoryEvents retrieves paginated history events, newest first.
func (c *Client) GetHistoryEvents(ctx context.Context, page, pageSize int) ([]HistoryEvent, int64, error) {
	var events []HistoryEvent
	var total int64

	if err := c.db.WithContext(ctx).
		Model(&HistoryEvent{}).
		Count(&total).Error; err != nil {
		log.Error("failed to count history events", "error", err)
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	offset := (page - 1) * pageSize

	if err := c.db.WithContext(ctx).
		Order("event_time DESC, id DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&events).Error; err != nil {
		log.Error("failed to get history events", "error", err)
		return nil, 0, err
	}

	return events, total, nil
}

// GetHistoryEventsByUserID retrieves the most recent events where the user is the subject.
func (c *Client) GetHistoryEventsByUserID(ctx context.Context, userID uint, limit int) ([]HistoryEvent, error) {
	if limit < 1 {
		limit = DefaultPageSize
	}

	var events []HistoryEvent
	if err := c.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("event_time DESC, id DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		log.Error("failed to get history events for user", "error", err)
		return nil, err
	}
	return events, nil
}
