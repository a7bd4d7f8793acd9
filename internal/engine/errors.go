package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates a missing or malformed form value.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateUsername indicates that the requested username is taken.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrPasswordMismatch indicates that password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrInvalidCredentials is returned for an unknown user or a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnauthenticated indicates that the operation requires a logged in user.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrForbidden indicates that the actor is not an admin.
	ErrForbidden = errors.New("permission denied")
	// ErrAdminSignupDisabled is returned when an anonymous visitor asks for an admin account.
	ErrAdminSignupDisabled = fmt.Errorf("%w: admin registration is disabled", ErrForbidden)
	// ErrNotFound indicates that the targeted book or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyBorrowedOrMissing is the single error kind callers see when a borrow fails.
	ErrAlreadyBorrowedOrMissing = errors.New("book is already borrowed or does not exist")
	// ErrBookNotFound is a borrow failure for a book that does not exist.
	ErrBookNotFound = fmt.Errorf("%w: book not found", ErrAlreadyBorrowedOrMissing)
	// ErrBookAlreadyBorrowed is a borrow failure for a book someone else holds.
	ErrBookAlreadyBorrowed = fmt.Errorf("%w: book already borrowed", ErrAlreadyBorrowedOrMissing)
	// ErrReturnDenied indicates that the book is missing or not held by the actor.
	ErrReturnDenied = errors.New("book cannot be returned")
)
