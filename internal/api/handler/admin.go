package handler

import (
	"strconv"

	"github.com/ccoveille/go-safecast"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/lendbook/internal/api/flash"
	"github.com/jon4hz/lendbook/internal/api/models"
)

const (
	defaultHistoryPageSize = 50
	maxHistoryPageSize     = 200
)

func (h *Handler) AddBookPage(c *gin.Context) {
	h.render(c, "add_book", nil)
}

func (h *Handler) AddBook(c *gin.Context) {
	book, err := h.engine.AddBook(
		c.Request.Context(),
		currentUser(c),
		c.PostForm("title"),
		c.PostForm("author"),
		c.PostForm("publish_date"),
	)
	if err != nil {
		h.fail(c, err, "/add_book")
		return
	}

	flash.Success(c, "Added \""+book.Title+"\" to the catalog.")
	h.redirect(c, "/")
}

func (h *Handler) DeleteBook(c *gin.Context) {
	bookID, ok := h.parseIDParam(c, "/")
	if !ok {
		return
	}

	book, err := h.engine.DeleteBook(c.Request.Context(), currentUser(c), bookID)
	if err != nil {
		h.fail(c, err, "/")
		return
	}

	flash.Success(c, "Deleted \""+book.Title+"\".")
	h.redirect(c, "/")
}

// ManageUsers lists all accounts together with the catalog statistics.
func (h *Handler) ManageUsers(c *gin.Context) {
	user := currentUser(c)

	view, err := h.engine.ManageUsers(c.Request.Context(), user)
	if err != nil {
		h.fail(c, err, "/")
		return
	}

	h.render(c, "manage_users", gin.H{
		"Users": models.ToUserItems(view.Users, user),
		"Stats": models.ToStatsItem(view.Stats),
	})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	userID, ok := h.parseIDParam(c, "/manage_users")
	if !ok {
		return
	}

	deleted, err := h.engine.DeleteUser(c.Request.Context(), currentUser(c), userID)
	if err != nil {
		h.fail(c, err, "/manage_users")
		return
	}

	flash.Success(c, "Deleted user "+deleted.Username+".")
	h.redirect(c, "/manage_users")
}

// PromoteUser sets the admin flag of an account from the "admin" form field.
func (h *Handler) PromoteUser(c *gin.Context) {
	userID, ok := h.parseIDParam(c, "/manage_users")
	if !ok {
		return
	}

	isAdmin, err := strconv.ParseBool(c.DefaultPostForm("admin", "true"))
	if err != nil {
		flash.Error(c, "Invalid admin value.")
		h.redirect(c, "/manage_users")
		return
	}

	updated, err := h.engine.SetUserAdmin(c.Request.Context(), currentUser(c), userID, isAdmin)
	if err != nil {
		h.fail(c, err, "/manage_users")
		return
	}

	if updated.IsAdmin {
		flash.Success(c, updated.Username+" is now an administrator.")
	} else {
		flash.Success(c, updated.Username+" is no longer an administrator.")
	}
	h.redirect(c, "/manage_users")
}

// History shows a page of audit events.
func (h *Handler) History(c *gin.Context) {
	page := 1
	pageSize := defaultHistoryPageSize

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := parseUintParam(pageStr); err == nil && p > 0 {
			if page, err = safecast.ToInt(p); err != nil {
				page = 1
			}
		}
	}
	if pageSizeStr := c.Query("pageSize"); pageSizeStr != "" {
		if ps, err := parseUintParam(pageSizeStr); err == nil && ps > 0 && ps <= maxHistoryPageSize {
			if pageSize, err = safecast.ToInt(ps); err != nil {
				pageSize = defaultHistoryPageSize
			}
		}
	}

	events, total, err := h.engine.ListHistory(c.Request.Context(), currentUser(c), page, pageSize)
	if err != nil {
		h.fail(c, err, "/")
		return
	}

	h.render(c, "history", gin.H{
		"Events":  models.ToHistoryEventItems(events),
		"Total":   total,
		"Page":    page,
		"HasMore": int64(page*pageSize) < total,
	})
}
