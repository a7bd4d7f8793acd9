package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// User represents an account in the identity store.
// Users are hard deleted so a username becomes available again after deletion.
type User struct {
	ID           uint `gorm:"primarykey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	IsAdmin      bool   `gorm:"not null;default:false"`
}

// UserDB defines the identity store operations.
type UserDB interface {
	CreateUser(ctx context.Context, username, passwordHash string, isAdmin bool) (*User, error)
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetAllUsers(ctx context.Context) ([]User, error)
	SetUserAdmin(ctx context.Context, id uint, isAdmin bool) error
	DeleteUser(ctx context.Context, id uint) ([]Book, error)
	CountUsers(ctx context.Context) (int64, error)
}

// CreateUser creates a new user. It returns ErrDuplicateUsername if the username is taken.
func (c *Client) CreateUser(ctx context.Context, username, passwordHash string, isAdmin bool) (*User, error) {
	user := User{
		Username:     username,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
	}
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateUsername
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUsername
		}
		if !errors.Is(err, ErrDuplicateUsername) {
			log.Error("failed to create user", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user by ID", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user by username", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetAllUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		log.Error("failed to get all users", "error", err)
		return nil, err
	}
	return users, nil
}

// SetUserAdmin updates the admin flag of a user.
func (c *Client) SetUserAdmin(ctx context.Context, id uint, isAdmin bool) error {
	result := c.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", id).
		Update("is_admin", isAdmin)
	if result.Error != nil {
		log.Error("failed to update user admin flag", "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteUser removes a user. Every book the user still holds is returned to the
// catalog in the same transaction, so no book is left pointing at a missing user.
// The books whose loans were cleared are returned.
func (c *Client) DeleteUser(ctx context.Context, id uint) ([]Book, error) {
	var cleared []Book
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// on postgres the row lock makes concurrent borrows wait for the
		// delete and then fail the foreign key check
		var user User
		if err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).First(&user, id).Error; err != nil {
			return err
		}

		if err := tx.Where("borrowed_by = ?", id).Order("id").Find(&cleared).Error; err != nil {
			return err
		}
		if len(cleared) > 0 {
			if err := tx.Model(&Book{}).
				Where("borrowed_by = ?", id).
				Updates(availableColumns()).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&User{}, id).Error
	})
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to delete user", "error", err)
		}
		return nil, err
	}
	return cleared, nil
}

func (c *Client) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&User{}).Count(&count).Error; err != nil {
		log.Error("failed to count users", "error", err)
		return 0, err
	}
	return count, nil
}
