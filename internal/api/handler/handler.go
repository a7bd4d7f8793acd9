package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/lendbook/internal/api/auth"
	"github.com/jon4hz/lendbook/internal/api/flash"
	"github.com/jon4hz/lendbook/internal/api/middleware"
	"github.com/jon4hz/lendbook/internal/api/models"
	"github.com/jon4hz/lendbook/internal/config"
	"github.com/jon4hz/lendbook/internal/engine"
)

const (
	msgLoginRequired   = "Please log in to access this page."
	msgNoPermission    = "You do not have permission to perform this action."
	msgSomethingFailed = "Something went wrong, please try again."
)

type Handler struct {
	engine *engine.Engine
	config *config.Config
}

func New(eng *engine.Engine, cfg *config.Config) *Handler {
	return &Handler{
		engine: eng,
		config: cfg,
	}
}

// render writes a page with the current user and pending flashes.
func (h *Handler) render(c *gin.Context, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if user, ok := c.Get("user"); ok {
		data["User"] = user
	}
	data["Flashes"] = flash.Pop(c)
	c.HTML(http.StatusOK, page, data)
}

func (h *Handler) redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}

// fail reports err as a notification and redirects.
// Missing sessions go to the login page and missing permissions to the catalog,
// everything else to fallback.
func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, engine.ErrUnauthenticated):
		if err := auth.EndSession(c); err != nil {
			log.Error("failed to clear session", "error", err)
		}
		flash.Info(c, msgLoginRequired)
		h.redirect(c, "/login")
	case errors.Is(err, engine.ErrForbidden) && !errors.Is(err, engine.ErrAdminSignupDisabled):
		flash.Error(c, msgNoPermission)
		h.redirect(c, "/")
	default:
		flash.Error(c, userMessage(c, err))
		h.redirect(c, fallback)
	}
}

// userMessage translates an engine error into a notification text.
// Unexpected errors are logged and replaced by a generic message.
func userMessage(c *gin.Context, err error) string {
	switch {
	case errors.Is(err, engine.ErrPasswordMismatch):
		return "Password and confirmation do not match."
	case errors.Is(err, engine.ErrDuplicateUsername):
		return "This username is already taken."
	case errors.Is(err, engine.ErrAdminSignupDisabled):
		return "Administrator accounts cannot be created through registration."
	case errors.Is(err, engine.ErrInvalidCredentials):
		return "Invalid username or password, please try again."
	case errors.Is(err, engine.ErrAlreadyBorrowedOrMissing):
		return "This book is already borrowed or does not exist."
	case errors.Is(err, engine.ErrReturnDenied):
		return "This book cannot be returned."
	case errors.Is(err, engine.ErrNotFound):
		return "The requested item was not found."
	case errors.Is(err, engine.ErrInvalidInput):
		detail := strings.TrimPrefix(err.Error(), engine.ErrInvalidInput.Error()+": ")
		if detail == err.Error() {
			return "Invalid input."
		}
		return capitalize(detail) + "."
	default:
		log.Error("request failed", "path", c.Request.URL.Path, "request_id", middleware.GetRequestID(c), "error", err)
		return msgSomethingFailed
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet("user").(*models.User)
}

func parseUintParam(param string) (uint, error) {
	id, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		return 0, err
	}
	return safecast.Convert[uint](id)
}

// parseIDParam reads the :id path parameter. On failure it adds a notification,
// redirects to fallback and returns false.
func (h *Handler) parseIDParam(c *gin.Context, fallback string) (uint, bool) {
	id, err := parseUintParam(c.Param("id"))
	if err != nil || id == 0 {
		flash.Error(c, "Invalid id.")
		h.redirect(c, fallback)
		return 0, false
	}
	return id, true
}

// Healthz reports whether the database is reachable.
func (h *Handler) Healthz(c *gin.Context) {
	if err := h.engine.Ping(c.Request.Context()); err != nil {
		log.Error("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
