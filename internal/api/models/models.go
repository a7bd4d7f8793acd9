package models

import "time"

// User is the identity attached to a request after the session has been resolved.
// It is passed explicitly into every engine operation.
type User struct {
	ID       uint
	Username string
	IsAdmin  bool
}

// BookItem represents a book for display in the UI.
type BookItem struct {
	ID          uint
	Title       string
	Author      string
	PublishDate string
	IsBorrowed  bool
	// BorrowedByMe is true if the book is borrowed by the viewing user.
	BorrowedByMe bool
	BorrowedAt   *time.Time
}

// UserItem represents an account on the user management page.
type UserItem struct {
	ID        uint
	Username  string
	IsAdmin   bool
	IsSelf    bool
	CreatedAt time.Time
}

// HistoryEventItem represents an audit event on the history page.
type HistoryEventItem struct {
	ID        uint
	EventType string
	BookID    *uint
	BookTitle string
	Username  string
	EventTime time.Time
}

// StatsItem holds the counters shown to admins.
type StatsItem struct {
	TotalBooks     int64
	BorrowedBooks  int64
	AvailableBooks int64
	TotalUsers     int64
	AdminUsers     int64
}

// Flash is a one-shot notification shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}
