package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jon4hz/lendbook/internal/database"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

var _ database.DB = (*MockDB)(nil)

// MockDB is a mock implementation of database.DB for testing.
type MockDB struct {
	mu sync.RWMutex

	// User storage
	users      map[uint]*database.User
	nextUserID uint

	// Book storage
	books      map[uint]*database.Book
	nextBookID uint

	// History storage
	events      []database.HistoryEvent
	nextEventID uint

	// Call counters
	GetUserByIDCalls int

	// Error simulation
	CreateUserError         error
	GetUserByIDError        error
	GetUserByUsernameError  error
	GetAllUsersError        error
	SetUserAdminError       error
	DeleteUserError         error
	CreateBookError         error
	GetAllBooksError        error
	DeleteBookError         error
	BorrowBookError         error
	ReturnBookError         error
	GetCatalogStatsError    error
	CreateHistoryEventError error
	PingError               error
}

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	m := &MockDB{}
	m.Reset()
	return m
}

// Reset clears all data and errors from the mock database.
func (m *MockDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[uint]*database.User)
	m.nextUserID = 1
	m.books = make(map[uint]*database.Book)
	m.nextBookID = 1
	m.events = nil
	m.nextEventID = 1
	m.GetUserByIDCalls = 0

	m.CreateUserError = nil
	m.GetUserByIDError = nil
	m.GetUserByUsernameError = nil
	m.GetAllUsersError = nil
	m.SetUserAdminError = nil
	m.DeleteUserError = nil
	m.CreateBookError = nil
	m.GetAllBooksError = nil
	m.DeleteBookError = nil
	m.BorrowBookError = nil
	m.ReturnBookError = nil
	m.GetCatalogStatsError = nil
	m.CreateHistoryEventError = nil
	m.PingError = nil
}

func (m *MockDB) Ping(ctx context.Context) error { return m.PingError }

func (m *MockDB) Close() error { return nil }

// User operations

func (m *MockDB) CreateUser(ctx context.Context, username, passwordHash string, isAdmin bool) (*database.User, error) {
	if m.CreateUserError != nil {
		return nil, m.CreateUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			return nil, database.ErrDuplicateUsername
		}
	}

	now := time.Now()
	user := &database.User{
		ID:           m.nextUserID,
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     username,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
	}
	m.nextUserID++
	m.users[user.ID] = user

	cp := *user
	return &cp, nil
}

func (m *MockDB) GetUserByID(ctx context.Context, id uint) (*database.User, error) {
	m.mu.Lock()
	m.GetUserByIDCalls++
	m.mu.Unlock()

	if m.GetUserByIDError != nil {
		return nil, m.GetUserByIDError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *user
	return &cp, nil
}

func (m *MockDB) GetUserByUsername(ctx context.Context, username string) (*database.User, error) {
	if m.GetUserByUsernameError != nil {
		return nil, m.GetUserByUsernameError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockDB) GetAllUsers(ctx context.Context) ([]database.User, error) {
	if m.GetAllUsersError != nil {
		return nil, m.GetAllUsersError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	users := lo.MapToSlice(m.users, func(_ uint, u *database.User) database.User { return *u })
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *MockDB) SetUserAdmin(ctx context.Context, id uint, isAdmin bool) error {
	if m.SetUserAdminError != nil {
		return m.SetUserAdminError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.IsAdmin = isAdmin
	user.UpdatedAt = time.Now()
	return nil
}

func (m *MockDB) DeleteUser(ctx context.Context, id uint) ([]database.Book, error) {
	if m.DeleteUserError != nil {
		return nil, m.DeleteUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return nil, gorm.ErrRecordNotFound
	}

	var cleared []database.Book
	for _, b := range m.sortedBooks() {
		if b.BorrowedBy != nil && *b.BorrowedBy == id {
			cleared = append(cleared, *b)
			markAvailable(b)
		}
	}
	delete(m.users, id)
	return cleared, nil
}

func (m *MockDB) CountUsers(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}

// Book operations

func (m *MockDB) CreateBook(ctx context.Context, title, author, publishDate string) (*database.Book, error) {
	if m.CreateBookError != nil {
		return nil, m.CreateBookError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	book := &database.Book{
		ID:          m.nextBookID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Title:       title,
		Author:      author,
		PublishDate: publishDate,
	}
	m.nextBookID++
	m.books[book.ID] = book

	cp := *book
	return &cp, nil
}

func (m *MockDB) GetBookByID(ctx context.Context, id uint) (*database.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	book, ok := m.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *book
	return &cp, nil
}

func (m *MockDB) GetAllBooks(ctx context.Context) ([]database.Book, error) {
	if m.GetAllBooksError != nil {
		return nil, m.GetAllBooksError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return lo.Map(m.sortedBooks(), func(b *database.Book, _ int) database.Book { return *b }), nil
}

func (m *MockDB) GetBooksBorrowedBy(ctx context.Context, userID uint) ([]database.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	held := lo.Filter(m.sortedBooks(), func(b *database.Book, _ int) bool { return b.IsHeldBy(userID) })
	return lo.Map(held, func(b *database.Book, _ int) database.Book { return *b }), nil
}

func (m *MockDB) DeleteBook(ctx context.Context, id uint) (*database.Book, error) {
	if m.DeleteBookError != nil {
		return nil, m.DeleteBookError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	delete(m.books, id)
	return book, nil
}

func (m *MockDB) BorrowBook(ctx context.Context, bookID, userID uint) (*database.Book, error) {
	if m.BorrowBookError != nil {
		return nil, m.BorrowBookError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[bookID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if book.IsBorrowed {
		return nil, database.ErrBookUnavailable
	}
	if _, ok := m.users[userID]; !ok {
		return nil, database.ErrBorrowerNotFound
	}

	now := time.Now()
	book.IsBorrowed = true
	book.BorrowedBy = lo.ToPtr(userID)
	book.BorrowedAt = &now
	book.UpdatedAt = now

	cp := *book
	return &cp, nil
}

func (m *MockDB) ReturnBook(ctx context.Context, bookID, userID uint) (*database.Book, error) {
	if m.ReturnBookError != nil {
		return nil, m.ReturnBookError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[bookID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if !book.IsHeldBy(userID) {
		return nil, database.ErrNotBorrower
	}
	markAvailable(book)

	cp := *book
	return &cp, nil
}

func (m *MockDB) GetCatalogStats(ctx context.Context) (*database.CatalogStats, error) {
	if m.GetCatalogStatsError != nil {
		return nil, m.GetCatalogStatsError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &database.CatalogStats{
		TotalBooks: int64(len(m.books)),
		TotalUsers: int64(len(m.users)),
	}
	stats.BorrowedBooks = int64(lo.CountBy(lo.Values(m.books), func(b *database.Book) bool { return b.IsBorrowed }))
	stats.AdminUsers = int64(lo.CountBy(lo.Values(m.users), func(u *database.User) bool { return u.IsAdmin }))
	stats.AvailableBooks = stats.TotalBooks - stats.BorrowedBooks
	return stats, nil
}

// History operations

func (m *MockDB) CreateHistoryEvent(ctx context.Context, event database.HistoryEvent) error {
	if m.CreateHistoryEventError != nil {
		return m.CreateHistoryEventError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if event.EventTime.IsZero() {
		event.EventTime = time.Now()
	}
	event.ID = m.nextEventID
	m.nextEventID++
	m.events = append(m.events, event)
	return nil
}

func (m *MockDB) GetHistoryEvents(ctx context.Context, page, pageSize int) ([]database.HistoryEvent, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = database.DefaultPageSize
	}

	newest := lo.Reverse(append([]database.HistoryEvent(nil), m.events...))
	total := int64(len(newest))
	start := (page - 1) * pageSize
	if start >= len(newest) {
		return []database.HistoryEvent{}, total, nil
	}
	end := min(start+pageSize, len(newest))
	return newest[start:end], total, nil
}

func (m *MockDB) GetHistoryEventsByUserID(ctx context.Context, userID uint, limit int) ([]database.HistoryEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit < 1 {
		limit = database.DefaultPageSize
	}

	var events []database.HistoryEvent
	for i := len(m.events) - 1; i >= 0 && len(events) < limit; i-- {
		if e := m.events[i]; e.UserID != nil && *e.UserID == userID {
			events = append(events, e)
		}
	}
	return events, nil
}

// Events returns a copy of all recorded history events, oldest first.
func (m *MockDB) Events() []database.HistoryEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]database.HistoryEvent(nil), m.events...)
}

func (m *MockDB) sortedBooks() []*database.Book {
	books := lo.Values(m.books)
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books
}

func markAvailable(b *database.Book) {
	b.IsBorrowed = false
	b.BorrowedBy = nil
	b.BorrowedAt = nil
	b.UpdatedAt = time.Now()
}
