package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jon4hz/lendbook/internal/api/models"
	"github.com/jon4hz/lendbook/internal/config"
	"github.com/jon4hz/lendbook/internal/database"
	dbmock "github.com/jon4hz/lendbook/internal/database/mock"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct-horse"

func testConfig() *config.Config {
	return &config.Config{
		Listen:        ":0",
		SessionKey:    "0123456789abcdef0123456789abcdef",
		SessionMaxAge: 3600,
		Database:      &config.DatabaseConfig{Driver: config.DatabaseDriverSQLite},
		Cache:         &config.CacheConfig{Type: config.CacheTypeMemory, TTL: 60},
		Auth: &config.AuthConfig{
			MinPasswordLength: 8,
			BcryptCost:        bcrypt.MinCost,
		},
	}
}

// EngineTestSuite runs the engine against the in-memory database mock.
type EngineTestSuite struct {
	suite.Suite
	ctx    context.Context
	db     *dbmock.MockDB
	engine *Engine
	admin  *models.User
}

func (s *EngineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = dbmock.NewMockDB()

	e, err := New(testConfig(), s.db, nil)
	s.Require().NoError(err)
	s.engine = e

	admin, err := e.CreateUser(s.ctx, "root", testPassword, true)
	s.Require().NoError(err)
	s.admin = models.ToUser(admin)
}

func (s *EngineTestSuite) register(name string) *models.User {
	u, err := s.engine.Register(s.ctx, name, testPassword, testPassword, false)
	s.Require().NoError(err)
	return models.ToUser(u)
}

func (s *EngineTestSuite) addBook(title string) *database.Book {
	b, err := s.engine.AddBook(s.ctx, s.admin, title, "Some Author", "")
	s.Require().NoError(err)
	return b
}

func (s *EngineTestSuite) eventTypes() []database.HistoryEventType {
	return lo.Map(s.db.Events(), func(e database.HistoryEvent, _ int) database.HistoryEventType {
		return e.EventType
	})
}

func (s *EngineTestSuite) TestNew_RequiresConfigAndDB() {
	_, err := New(nil, s.db, nil)
	s.Error(err)

	_, err = New(testConfig(), nil, nil)
	s.Error(err)
}

func (s *EngineTestSuite) TestRegister() {
	u, err := s.engine.Register(s.ctx, "  alice ", testPassword, testPassword, false)
	s.Require().NoError(err)
	s.Equal("alice", u.Username)
	s.False(u.IsAdmin)
	s.NotEqual(testPassword, u.PasswordHash)
	s.Contains(s.eventTypes(), database.HistoryEventUserRegistered)
}

func (s *EngineTestSuite) TestRegister_PasswordMismatch() {
	_, err := s.engine.Register(s.ctx, "alice", "password-one", "password-two", false)
	s.ErrorIs(err, ErrPasswordMismatch)

	_, err = s.db.GetUserByUsername(s.ctx, "alice")
	s.Error(err, "no user may be created on mismatch")
}

func (s *EngineTestSuite) TestRegister_InvalidInput() {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "empty username", username: "", password: testPassword},
		{name: "blank username", username: "   ", password: testPassword},
		{name: "empty password", username: "alice", password: ""},
		{name: "short password", username: "alice", password: "short"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.engine.Register(s.ctx, tt.username, tt.password, tt.password, false)
			s.ErrorIs(err, ErrInvalidInput)
		})
	}
}

func (s *EngineTestSuite) TestCreateUser_InvalidInput() {
	_, err := s.engine.CreateUser(s.ctx, "bob", "short", true)
	s.ErrorIs(err, ErrInvalidInput)
	_, err = s.engine.CreateUser(s.ctx, "bob", "", false)
	s.ErrorIs(err, ErrInvalidInput)
	_, err = s.engine.CreateUser(s.ctx, "  ", testPassword, false)
	s.ErrorIs(err, ErrInvalidInput)

	_, err = s.db.GetUserByUsername(s.ctx, "bob")
	s.Error(err, "no user may be created with a short password")

	u, err := s.engine.CreateUser(s.ctx, " bob ", "12345678", false)
	s.Require().NoError(err)
	s.Equal("bob", u.Username)
}

func (s *EngineTestSuite) TestRegister_Duplicate() {
	s.register("alice")

	_, err := s.engine.Register(s.ctx, "alice", testPassword, testPassword, false)
	s.ErrorIs(err, ErrDuplicateUsername)
}

func (s *EngineTestSuite) TestRegister_AdminSignupDisabled() {
	_, err := s.engine.Register(s.ctx, "mallory", testPassword, testPassword, true)
	s.ErrorIs(err, ErrAdminSignupDisabled)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.db.GetUserByUsername(s.ctx, "mallory")
	s.Error(err)
}

func (s *EngineTestSuite) TestRegister_AdminSignupEnabled() {
	cfg := testConfig()
	cfg.Auth.AllowAdminSignup = true
	e, err := New(cfg, s.db, nil)
	s.Require().NoError(err)

	u, err := e.Register(s.ctx, "boss", testPassword, testPassword, true)
	s.Require().NoError(err)
	s.True(u.IsAdmin)
}

func (s *EngineTestSuite) TestLogin() {
	s.register("alice")

	u, err := s.engine.Login(s.ctx, "alice", testPassword)
	s.Require().NoError(err)
	s.Equal("alice", u.Username)

	_, err = s.engine.Login(s.ctx, "alice", "wrong-password")
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.engine.Login(s.ctx, "nobody", testPassword)
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.engine.Login(s.ctx, "", "")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *EngineTestSuite) TestCurrentUser_UsesCache() {
	alice := s.register("alice")

	u, err := s.engine.CurrentUser(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal(alice, u)
	calls := s.db.GetUserByIDCalls

	u, err = s.engine.CurrentUser(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal(alice, u)
	s.Equal(calls, s.db.GetUserByIDCalls, "second lookup must be served from the cache")
}

func (s *EngineTestSuite) TestCurrentUser_Unknown() {
	_, err := s.engine.CurrentUser(s.ctx, 0)
	s.ErrorIs(err, ErrUnauthenticated)

	_, err = s.engine.CurrentUser(s.ctx, 999)
	s.ErrorIs(err, ErrUnauthenticated)
}

func (s *EngineTestSuite) TestCurrentUser_AfterDelete() {
	carol := s.register("carol")
	_, err := s.engine.CurrentUser(s.ctx, carol.ID)
	s.Require().NoError(err)

	_, err = s.engine.DeleteUser(s.ctx, s.admin, carol.ID)
	s.Require().NoError(err)

	_, err = s.engine.CurrentUser(s.ctx, carol.ID)
	s.ErrorIs(err, ErrUnauthenticated)
}

func (s *EngineTestSuite) TestBorrowAndReturn() {
	alice := s.register("alice")
	book := s.addBook("Dune")

	borrowed, err := s.engine.Borrow(s.ctx, book.ID, alice)
	s.Require().NoError(err)
	s.True(borrowed.IsHeldBy(alice.ID))

	loans, err := s.engine.ListBorrowedBy(s.ctx, alice)
	s.Require().NoError(err)
	s.Len(loans, 1)

	returned, err := s.engine.Return(s.ctx, book.ID, alice)
	s.Require().NoError(err)
	s.False(returned.IsBorrowed)
	s.Nil(returned.BorrowedBy)

	s.Equal([]database.HistoryEventType{
		database.HistoryEventUserRegistered,
		database.HistoryEventBookAdded,
		database.HistoryEventBorrowed,
		database.HistoryEventReturned,
	}, s.eventTypes())
}

func (s *EngineTestSuite) TestBorrow_Failures() {
	alice := s.register("alice")
	bob := s.register("bob")
	book := s.addBook("Dune")

	_, err := s.engine.Borrow(s.ctx, book.ID, nil)
	s.ErrorIs(err, ErrUnauthenticated)

	_, err = s.engine.Borrow(s.ctx, 999, alice)
	s.ErrorIs(err, ErrAlreadyBorrowedOrMissing)
	s.ErrorIs(err, ErrBookNotFound)

	_, err = s.engine.Borrow(s.ctx, book.ID, alice)
	s.Require().NoError(err)

	_, err = s.engine.Borrow(s.ctx, book.ID, bob)
	s.ErrorIs(err, ErrAlreadyBorrowedOrMissing)
	s.ErrorIs(err, ErrBookAlreadyBorrowed)

	// borrowing your own book again fails the same way
	_, err = s.engine.Borrow(s.ctx, book.ID, alice)
	s.ErrorIs(err, ErrAlreadyBorrowedOrMissing)
}

func (s *EngineTestSuite) TestBorrow_DeletedActor() {
	ghost := &models.User{ID: 999, Username: "ghost"}
	book := s.addBook("Dune")

	_, err := s.engine.Borrow(s.ctx, book.ID, ghost)
	s.ErrorIs(err, ErrUnauthenticated)

	got, err := s.db.GetBookByID(s.ctx, book.ID)
	s.Require().NoError(err)
	s.False(got.IsBorrowed)
}

func (s *EngineTestSuite) TestReturn_Denied() {
	alice := s.register("alice")
	bob := s.register("bob")
	book := s.addBook("Dune")

	_, err := s.engine.Return(s.ctx, book.ID, alice)
	s.ErrorIs(err, ErrReturnDenied, "available book")

	_, err = s.engine.Return(s.ctx, 999, alice)
	s.ErrorIs(err, ErrReturnDenied, "missing book")

	_, err = s.engine.Borrow(s.ctx, book.ID, alice)
	s.Require().NoError(err)

	_, err = s.engine.Return(s.ctx, book.ID, bob)
	s.ErrorIs(err, ErrReturnDenied, "other holder")

	_, err = s.engine.Return(s.ctx, book.ID, s.admin)
	s.ErrorIs(err, ErrReturnDenied, "admins cannot force a return")

	_, err = s.engine.Return(s.ctx, book.ID, nil)
	s.ErrorIs(err, ErrUnauthenticated)

	got, err := s.db.GetBookByID(s.ctx, book.ID)
	s.Require().NoError(err)
	s.True(got.IsHeldBy(alice.ID))
}

func (s *EngineTestSuite) TestBorrow_StoreError() {
	alice := s.register("alice")
	book := s.addBook("Dune")
	s.db.BorrowBookError = errors.New("disk on fire")

	_, err := s.engine.Borrow(s.ctx, book.ID, alice)
	s.Error(err)
	s.NotErrorIs(err, ErrAlreadyBorrowedOrMissing)
}

func (s *EngineTestSuite) TestHistoryFailureIsNotFatal() {
	alice := s.register("alice")
	book := s.addBook("Dune")
	s.db.CreateHistoryEventError = errors.New("history unavailable")

	_, err := s.engine.Borrow(s.ctx, book.ID, alice)
	s.NoError(err)
}

func (s *EngineTestSuite) TestAdminOperations_Forbidden() {
	alice := s.register("alice")
	book := s.addBook("Dune")
	before := len(s.db.Events())

	_, err := s.engine.AddBook(s.ctx, alice, "Emma", "Austen", "")
	s.ErrorIs(err, ErrForbidden)
	_, err = s.engine.DeleteBook(s.ctx, alice, book.ID)
	s.ErrorIs(err, ErrForbidden)
	_, err = s.engine.DeleteUser(s.ctx, alice, s.admin.ID)
	s.ErrorIs(err, ErrForbidden)
	_, err = s.engine.ListUsers(s.ctx, alice)
	s.ErrorIs(err, ErrForbidden)
	_, err = s.engine.SetUserAdmin(s.ctx, alice, alice.ID, true)
	s.ErrorIs(err, ErrForbidden)
	_, _, err = s.engine.ListHistory(s.ctx, alice, 1, 10)
	s.ErrorIs(err, ErrForbidden)
	_, err = s.engine.Stats(s.ctx, alice)
	s.ErrorIs(err, ErrForbidden)
	_, err = s.engine.ManageUsers(s.ctx, alice)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.engine.AddBook(s.ctx, nil, "Emma", "Austen", "")
	s.ErrorIs(err, ErrUnauthenticated)

	books, err := s.db.GetAllBooks(s.ctx)
	s.Require().NoError(err)
	s.Len(books, 1)
	users, err := s.db.GetAllUsers(s.ctx)
	s.Require().NoError(err)
	s.Len(users, 2)
	got, err := s.db.GetUserByID(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.False(got.IsAdmin)
	s.Len(s.db.Events(), before)
}

func (s *EngineTestSuite) TestAddBook() {
	b, err := s.engine.AddBook(s.ctx, s.admin, " Dune ", "Frank Herbert", "1965-08-01")
	s.Require().NoError(err)
	s.Equal("Dune", b.Title)
	s.Equal("1965-08-01", b.PublishDate)
	s.False(b.IsBorrowed)

	_, err = s.engine.AddBook(s.ctx, s.admin, "Dune", "Frank Herbert", "")
	s.NoError(err, "duplicate titles are allowed")

	_, err = s.engine.AddBook(s.ctx, s.admin, "", "Frank Herbert", "")
	s.ErrorIs(err, ErrInvalidInput)
	_, err = s.engine.AddBook(s.ctx, s.admin, "Dune", " ", "")
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *EngineTestSuite) TestDeleteBook() {
	alice := s.register("alice")
	book := s.addBook("Dune")
	_, err := s.engine.Borrow(s.ctx, book.ID, alice)
	s.Require().NoError(err)

	deleted, err := s.engine.DeleteBook(s.ctx, s.admin, book.ID)
	s.Require().NoError(err)
	s.Equal(book.ID, deleted.ID)

	loans, err := s.engine.ListBorrowedBy(s.ctx, alice)
	s.Require().NoError(err)
	s.Empty(loans)

	_, err = s.engine.DeleteBook(s.ctx, s.admin, book.ID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *EngineTestSuite) TestDeleteUser_ClearsLoans() {
	carol := s.register("carol")
	b1 := s.addBook("Dune")
	b2 := s.addBook("Emma")
	_, err := s.engine.Borrow(s.ctx, b1.ID, carol)
	s.Require().NoError(err)
	_, err = s.engine.Borrow(s.ctx, b2.ID, carol)
	s.Require().NoError(err)

	deleted, err := s.engine.DeleteUser(s.ctx, s.admin, carol.ID)
	s.Require().NoError(err)
	s.Equal("carol", deleted.Username)

	books, err := s.engine.ListBooks(s.ctx, s.admin)
	s.Require().NoError(err)
	for _, b := range books {
		s.False(b.IsBorrowed)
		s.Nil(b.BorrowedBy)
	}

	cleared := lo.Filter(s.db.Events(), func(e database.HistoryEvent, _ int) bool {
		return e.EventType == database.HistoryEventLoanCleared
	})
	s.Len(cleared, 2)

	_, err = s.engine.DeleteUser(s.ctx, s.admin, carol.ID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *EngineTestSuite) TestSetUserAdmin() {
	bob := s.register("bob")
	_, err := s.engine.CurrentUser(s.ctx, bob.ID)
	s.Require().NoError(err)

	updated, err := s.engine.SetUserAdmin(s.ctx, s.admin, bob.ID, true)
	s.Require().NoError(err)
	s.True(updated.IsAdmin)

	// the cached identity must not keep the old flag
	current, err := s.engine.CurrentUser(s.ctx, bob.ID)
	s.Require().NoError(err)
	s.True(current.IsAdmin)

	_, err = s.engine.SetUserAdmin(s.ctx, s.admin, 999, true)
	s.ErrorIs(err, ErrNotFound)
}

func (s *EngineTestSuite) TestPromoteUser() {
	s.register("bob")

	u, err := s.engine.PromoteUser(s.ctx, "bob", true)
	s.Require().NoError(err)
	s.True(u.IsAdmin)

	u, err = s.engine.PromoteUser(s.ctx, "bob", false)
	s.Require().NoError(err)
	s.False(u.IsAdmin)

	_, err = s.engine.PromoteUser(s.ctx, "nobody", true)
	s.ErrorIs(err, ErrNotFound)
}

func (s *EngineTestSuite) TestManageUsers() {
	alice := s.register("alice")
	book := s.addBook("Dune")
	s.addBook("Emma")
	_, err := s.engine.Borrow(s.ctx, book.ID, alice)
	s.Require().NoError(err)

	view, err := s.engine.ManageUsers(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Len(view.Users, 2)
	s.Equal(int64(2), view.Stats.TotalBooks)
	s.Equal(int64(1), view.Stats.BorrowedBooks)
	s.Equal(int64(1), view.Stats.AdminUsers)

	s.db.GetCatalogStatsError = errors.New("boom")
	_, err = s.engine.ManageUsers(s.ctx, s.admin)
	s.Error(err)
}

func (s *EngineTestSuite) TestListHistory() {
	s.register("alice")
	s.addBook("Dune")

	events, total, err := s.engine.ListHistory(s.ctx, s.admin, 1, 1)
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(events, 1)
	s.Equal(database.HistoryEventBookAdded, events[0].EventType)
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

// TestLibraryScenario walks through the register, borrow, return and delete
// flow against a real sqlite database.
func TestLibraryScenario(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "lendbook.db")

	db, err := database.New(cfg.Database)
	require.NoError(t, err)
	e, err := New(cfg, db, nil)
	require.NoError(t, err)
	defer e.Close()

	adminUser, err := e.CreateUser(ctx, "admin", testPassword, true)
	require.NoError(t, err)
	admin := models.ToUser(adminUser)

	// alice mistypes her confirmation first
	_, err = e.Register(ctx, "alice", testPassword, "something-else", false)
	require.ErrorIs(t, err, ErrPasswordMismatch)
	_, err = e.Login(ctx, "alice", testPassword)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = e.Register(ctx, "alice", testPassword, testPassword, false)
	require.NoError(t, err)
	alice, err := e.Login(ctx, "alice", testPassword)
	require.NoError(t, err)

	_, err = e.Register(ctx, "bob", testPassword, testPassword, false)
	require.NoError(t, err)
	bob, err := e.Login(ctx, "bob", testPassword)
	require.NoError(t, err)

	dune, err := e.AddBook(ctx, admin, "Dune", "Frank Herbert", "1965")
	require.NoError(t, err)

	_, err = e.Borrow(ctx, dune.ID, alice)
	require.NoError(t, err)

	_, err = e.Borrow(ctx, dune.ID, bob)
	assert.ErrorIs(t, err, ErrAlreadyBorrowedOrMissing)

	_, err = e.Return(ctx, dune.ID, bob)
	assert.ErrorIs(t, err, ErrReturnDenied)

	_, err = e.Return(ctx, dune.ID, alice)
	require.NoError(t, err)

	// carol holds two books when she is deleted
	_, err = e.Register(ctx, "carol", testPassword, testPassword, false)
	require.NoError(t, err)
	carol, err := e.Login(ctx, "carol", testPassword)
	require.NoError(t, err)
	emma, err := e.AddBook(ctx, admin, "Emma", "Jane Austen", "")
	require.NoError(t, err)
	_, err = e.Borrow(ctx, dune.ID, carol)
	require.NoError(t, err)
	_, err = e.Borrow(ctx, emma.ID, carol)
	require.NoError(t, err)

	_, err = e.DeleteUser(ctx, admin, carol.ID)
	require.NoError(t, err)

	books, err := e.ListBooks(ctx, admin)
	require.NoError(t, err)
	for _, b := range books {
		assert.False(t, b.IsBorrowed, "book %q still borrowed", b.Title)
	}
	_, err = e.CurrentUser(ctx, carol.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// bob can now borrow what carol held
	_, err = e.Borrow(ctx, emma.ID, bob)
	require.NoError(t, err)

	events, total, err := e.ListHistory(ctx, admin, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(len(events)), total)
	assert.Equal(t, database.HistoryEventBorrowed, events[0].EventType)
}

func TestConcurrentBorrow(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "lendbook.db")

	db, err := database.New(cfg.Database)
	require.NoError(t, err)
	e, err := New(cfg, db, nil)
	require.NoError(t, err)
	defer e.Close()

	adminUser, err := e.CreateUser(ctx, "admin", testPassword, true)
	require.NoError(t, err)
	book, err := e.AddBook(ctx, models.ToUser(adminUser), "Dune", "Frank Herbert", "")
	require.NoError(t, err)

	var actors []*models.User
	for _, name := range []string{"alice", "bob", "carol", "dave"} {
		u, err := e.CreateUser(ctx, name, testPassword, false)
		require.NoError(t, err)
		actors = append(actors, models.ToUser(u))
	}

	results := make([]error, len(actors))
	var wg sync.WaitGroup
	for i, actor := range actors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = e.Borrow(ctx, book.ID, actor)
		}()
	}
	wg.Wait()

	successes := lo.CountBy(results, func(err error) bool { return err == nil })
	assert.Equal(t, 1, successes)
	for _, err := range results {
		if err != nil {
			assert.ErrorIs(t, err, ErrAlreadyBorrowedOrMissing)
		}
	}
}

// TestAdminRightsFollowTheStore runs a server and a command line engine on
// the same database file. Changes made by one must bind the other at once,
// even while its identity cache still holds the old entry.
func TestAdminRightsFollowTheStore(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "lendbook.db")

	serverDB, err := database.New(cfg.Database)
	require.NoError(t, err)
	server, err := New(cfg, serverDB, nil)
	require.NoError(t, err)
	defer server.Close()

	cliDB, err := database.New(cfg.Database)
	require.NoError(t, err)
	cli, err := New(cfg, cliDB, nil)
	require.NoError(t, err)
	defer cli.Close()

	_, err = cli.CreateUser(ctx, "root", testPassword, true)
	require.NoError(t, err)
	_, err = cli.CreateUser(ctx, "alice", testPassword, true)
	require.NoError(t, err)

	root, err := server.Login(ctx, "root", testPassword)
	require.NoError(t, err)
	alice, err := server.Login(ctx, "alice", testPassword)
	require.NoError(t, err)
	require.NoError(t, server.RequireAdmin(ctx, alice))

	_, err = cli.PromoteUser(ctx, "alice", false)
	require.NoError(t, err)

	cached, err := server.CurrentUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, cached.IsAdmin, "the server cache is not told about the revoke")

	assert.ErrorIs(t, server.RequireAdmin(ctx, cached), ErrForbidden)
	_, err = server.AddBook(ctx, cached, "Dune", "Frank Herbert", "")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = server.SetUserAdmin(ctx, cached, cached.ID, true)
	assert.ErrorIs(t, err, ErrForbidden)

	// the store check also refreshes the cached identity
	refreshed, err := server.CurrentUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, refreshed.IsAdmin)

	// a deleted admin holding a stale identity is logged out
	_, err = cli.PromoteUser(ctx, "alice", true)
	require.NoError(t, err)
	alice, err = server.CurrentUser(ctx, alice.ID)
	require.NoError(t, err)
	_, err = cli.DeleteUser(ctx, root, alice.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, server.RequireAdmin(ctx, alice), ErrUnauthenticated)
	_, err = server.DeleteUser(ctx, alice, root.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = server.CurrentUser(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	users, err := server.ListUsers(ctx, root)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
