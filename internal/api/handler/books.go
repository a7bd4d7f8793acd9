package handler

import (
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/lendbook/internal/api/flash"
	"github.com/jon4hz/lendbook/internal/api/models"
	"github.com/jon4hz/lendbook/internal/database"
)

// Home lists the whole catalog.
func (h *Handler) Home(c *gin.Context) {
	user := currentUser(c)

	books, err := h.engine.ListBooks(c.Request.Context(), user)
	if err != nil {
		// Log error and fall back to empty data
		log.Error("Failed to get books", "error", err)
		flash.Error(c, msgSomethingFailed)
		books = []database.Book{}
	}

	h.render(c, "index", gin.H{
		"Books": models.ToBookItems(books, user),
	})
}

func (h *Handler) Borrow(c *gin.Context) {
	bookID, ok := h.parseIDParam(c, "/")
	if !ok {
		return
	}

	book, err := h.engine.Borrow(c.Request.Context(), bookID, currentUser(c))
	if err != nil {
		h.fail(c, err, "/")
		return
	}

	flash.Success(c, "You borrowed \""+book.Title+"\".")
	h.redirect(c, "/")
}

func (h *Handler) Return(c *gin.Context) {
	bookID, ok := h.parseIDParam(c, "/user")
	if !ok {
		return
	}

	book, err := h.engine.Return(c.Request.Context(), bookID, currentUser(c))
	if err != nil {
		h.fail(c, err, "/user")
		return
	}

	flash.Success(c, "You returned \""+book.Title+"\".")
	h.redirect(c, "/user")
}

// UserPage lists the books the current user holds.
func (h *Handler) UserPage(c *gin.Context) {
	user := currentUser(c)

	books, err := h.engine.ListBorrowedBy(c.Request.Context(), user)
	if err != nil {
		log.Error("Failed to get borrowed books", "error", err)
		flash.Error(c, msgSomethingFailed)
		books = []database.Book{}
	}

	h.render(c, "user", gin.H{
		"Books": models.ToBookItems(books, user),
	})
}
