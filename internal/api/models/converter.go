package models

import (
	"github.com/jon4hz/lendbook/internal/database"
	"github.com/samber/lo"
)

// ToUser converts a database.User to the request identity.
func ToUser(u *database.User) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:       u.ID,
		Username: u.Username,
		IsAdmin:  u.IsAdmin,
	}
}

// ToBookItem converts a database.Book to a BookItem as seen by viewer.
// The borrower id is not exposed, only whether the viewer holds the book.
func ToBookItem(b database.Book, viewer *User) BookItem {
	item := BookItem{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		PublishDate: b.PublishDate,
		IsBorrowed:  b.IsBorrowed,
		BorrowedAt:  b.BorrowedAt,
	}
	if viewer != nil {
		item.BorrowedByMe = b.IsHeldBy(viewer.ID)
	}
	return item
}

// ToBookItems converts a slice of database.Book to BookItems.
func ToBookItems(books []database.Book, viewer *User) []BookItem {
	return lo.Map(books, func(b database.Book, _ int) BookItem {
		return ToBookItem(b, viewer)
	})
}

// ToUserItems converts a slice of database.User to UserItems.
func ToUserItems(users []database.User, viewer *User) []UserItem {
	return lo.Map(users, func(u database.User, _ int) UserItem {
		return UserItem{
			ID:        u.ID,
			Username:  u.Username,
			IsAdmin:   u.IsAdmin,
			IsSelf:    viewer != nil && viewer.ID == u.ID,
			CreatedAt: u.CreatedAt,
		}
	})
}

// ToHistoryEventItems converts a slice of database.HistoryEvent to HistoryEventItems.
func ToHistoryEventItems(events []database.HistoryEvent) []HistoryEventItem {
	return lo.Map(events, func(e database.HistoryEvent, _ int) HistoryEventItem {
		return HistoryEventItem{
			ID:        e.ID,
			EventType: string(e.EventType),
			BookID:    e.BookID,
			BookTitle: e.BookTitle,
			Username:  e.Username,
			EventTime: e.EventTime,
		}
	})
}

// ToStatsItem converts database.CatalogStats to a StatsItem.
func ToStatsItem(s *database.CatalogStats) StatsItem {
	if s == nil {
		return StatsItem{}
	}
	return StatsItem{
		TotalBooks:     s.TotalBooks,
		BorrowedBooks:  s.BorrowedBooks,
		AvailableBooks: s.AvailableBooks,
		TotalUsers:     s.TotalUsers,
		AdminUsers:     s.AdminUsers,
	}
}
