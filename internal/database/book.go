package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// Book represents one physical copy in the catalog.
// A book is either available (IsBorrowed false, BorrowedBy nil)
// or borrowed by exactly one existing user (IsBorrowed true, BorrowedBy set).
// The foreign key keeps a user with open loans from being deleted, so
// DeleteUser has to clear them first.
type Book struct {
	ID          uint `gorm:"primarykey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Title       string `gorm:"not null"`
	Author      string `gorm:"not null"`
	PublishDate string
	IsBorrowed  bool  `gorm:"not null;default:false;index"`
	BorrowedBy  *uint `gorm:"index"`
	Borrower    *User `gorm:"foreignKey:BorrowedBy;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	BorrowedAt  *time.Time
}

// IsHeldBy reports whether the book is currently borrowed by the given user.
func (b *Book) IsHeldBy(userID uint) bool {
	return b.IsBorrowed && b.BorrowedBy != nil && *b.BorrowedBy == userID
}

// CatalogStats holds counters about the catalog and the identity store.
type CatalogStats struct {
	TotalBooks     int64
	BorrowedBooks  int64
	AvailableBooks int64
	TotalUsers     int64
	AdminUsers     int64
}

// BookDB defines the catalog store operations.
type BookDB interface {
	CreateBook(ctx context.Context, title, author, publishDate string) (*Book, error)
	GetBookByID(ctx context.Context, id uint) (*Book, error)
	GetAllBooks(ctx context.Context) ([]Book, error)
	GetBooksBorrowedBy(ctx context.Context, userID uint) ([]Book, error)
	DeleteBook(ctx context.Context, id uint) (*Book, error)
	BorrowBook(ctx context.Context, bookID, userID uint) (*Book, error)
	ReturnBook(ctx context.Context, bookID, userID uint) (*Book, error)
	GetCatalogStats(ctx context.Context) (*CatalogStats, error)
}

// availableColumns returns the column values of a book in the available state.
func availableColumns() map[string]any {
	return map[string]any{
		"is_borrowed": false,
		"borrowed_by": nil,
		"borrowed_at": nil,
	}
}

func (c *Client) CreateBook(ctx context.Context, title, author, publishDate string) (*Book, error) {
	book := Book{
		Title:       title,
		Author:      author,
		PublishDate: publishDate,
	}
	if err := c.db.WithContext(ctx).Create(&book).Error; err != nil {
		log.Error("failed to create book", "error", err)
		return nil, err
	}
	return &book, nil
}

func (c *Client) GetBookByID(ctx context.Context, id uint) (*Book, error) {
	var book Book
	if err := c.db.WithContext(ctx).First(&book, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get book by ID", "error", err)
		}
		return nil, err
	}
	return &book, nil
}

func (c *Client) GetAllBooks(ctx context.Context) ([]Book, error) {
	var books []Book
	if err := c.db.WithContext(ctx).Order("id").Find(&books).Error; err != nil {
		log.Error("failed to get all books", "error", err)
		return nil, err
	}
	return books, nil
}

func (c *Client) GetBooksBorrowedBy(ctx context.Context, userID uint) ([]Book, error) {
	var books []Book
	if err := c.db.WithContext(ctx).
		Where("is_borrowed = ? AND borrowed_by = ?", true, userID).
		Order("borrowed_at, id").
		Find(&books).Error; err != nil {
		log.Error("failed to get borrowed books", "error", err)
		return nil, err
	}
	return books, nil
}

// DeleteBook removes a book, whether it is borrowed or not, and returns the deleted record.
func (c *Client) DeleteBook(ctx context.Context, id uint) (*Book, error) {
	var book Book
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, id).Error; err != nil {
			return err
		}
		return tx.Delete(&Book{}, id).Error
	})
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to delete book", "error", err)
		}
		return nil, err
	}
	return &book, nil
}

// BorrowBook moves an available book to the borrowed state.
// The state check and the write are a single conditional update, so two
// concurrent calls for the same book can never both succeed.
func (c *Client) BorrowBook(ctx context.Context, bookID, userID uint) (*Book, error) {
	var book Book
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Book{}).
			Where("id = ? AND is_borrowed = ?", bookID, false).
			Where("EXISTS (SELECT 1 FROM users WHERE users.id = ?)", userID).
			Updates(map[string]any{
				"is_borrowed": true,
				"borrowed_by": userID,
				"borrowed_at": time.Now(),
			})
		if result.Error != nil {
			// the user was deleted between the check and the write
			if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
				return ErrBorrowerNotFound
			}
			return result.Error
		}
		if result.RowsAffected == 0 {
			return borrowFailure(tx, bookID)
		}
		return tx.First(&book, bookID).Error
	})
	if err != nil {
		if !isLoanError(err) {
			log.Error("failed to borrow book", "error", err)
		}
		return nil, err
	}
	return &book, nil
}

// borrowFailure explains why a conditional borrow update matched no row.
func borrowFailure(tx *gorm.DB, bookID uint) error {
	var book Book
	if err := tx.First(&book, bookID).Error; err != nil {
		return err
	}
	if book.IsBorrowed {
		return ErrBookUnavailable
	}
	return ErrBorrowerNotFound
}

// ReturnBook moves a book borrowed by userID back to the available state.
func (c *Client) ReturnBook(ctx context.Context, bookID, userID uint) (*Book, error) {
	var book Book
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Book{}).
			Where("id = ? AND is_borrowed = ? AND borrowed_by = ?", bookID, true, userID).
			Updates(availableColumns())
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if err := tx.First(&Book{}, bookID).Error; err != nil {
				return err
			}
			return ErrNotBorrower
		}
		return tx.First(&book, bookID).Error
	})
	if err != nil {
		if !isLoanError(err) {
			log.Error("failed to return book", "error", err)
		}
		return nil, err
	}
	return &book, nil
}

func isLoanError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, ErrBookUnavailable) ||
		errors.Is(err, ErrBorrowerNotFound) ||
		errors.Is(err, ErrNotBorrower)
}

func (c *Client) GetCatalogStats(ctx context.Context) (*CatalogStats, error) {
	var stats CatalogStats
	db := c.db.WithContext(ctx)

	if err := db.Model(&Book{}).Count(&stats.TotalBooks).Error; err != nil {
		log.Error("failed to count books", "error", err)
		return nil, err
	}
	if err := db.Model(&Book{}).Where("is_borrowed = ?", true).Count(&stats.BorrowedBooks).Error; err != nil {
		log.Error("failed to count borrowed books", "error", err)
		return nil, err
	}
	if err := db.Model(&User{}).Count(&stats.TotalUsers).Error; err != nil {
		log.Error("failed to count users", "error", err)
		return nil, err
	}
	if err := db.Model(&User{}).Where("is_admin = ?", true).Count(&stats.AdminUsers).Error; err != nil {
		log.Error("failed to count admins", "error", err)
		return nil, err
	}
	stats.AvailableBooks = stats.TotalBooks - stats.BorrowedBooks

	return &stats, nil
}
