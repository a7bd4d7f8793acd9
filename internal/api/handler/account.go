package handler

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/lendbook/internal/api/auth"
	"github.com/jon4hz/lendbook/internal/api/flash"
)

func (h *Handler) RegisterPage(c *gin.Context) {
	h.render(c, "register", gin.H{
		"AllowAdminSignup":  h.config.Auth.AllowAdminSignup,
		"MinPasswordLength": h.config.Auth.MinPasswordLength,
	})
}

func (h *Handler) Register(c *gin.Context) {
	_, adminRequested := c.GetPostForm("admin")

	_, err := h.engine.Register(
		c.Request.Context(),
		c.PostForm("username"),
		c.PostForm("password"),
		c.PostForm("confirm_password"),
		adminRequested,
	)
	if err != nil {
		h.fail(c, err, "/register")
		return
	}

	flash.Success(c, "Registration successful, you can log in now.")
	h.redirect(c, "/login")
}

func (h *Handler) LoginPage(c *gin.Context) {
	h.render(c, "login", nil)
}

func (h *Handler) Login(c *gin.Context) {
	user, err := h.engine.Login(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		h.fail(c, err, "/login")
		return
	}

	if err := auth.StartSession(c, user.ID); err != nil {
		log.Error("failed to save session", "error", err)
		h.fail(c, err, "/login")
		return
	}

	log.Info("user logged in", "username", user.Username)
	h.redirect(c, "/")
}

// Logout clears the session, including notifications that were not shown yet.
func (h *Handler) Logout(c *gin.Context) {
	if err := auth.EndSession(c); err != nil {
		if err := c.AbortWithError(http.StatusInternalServerError, err); err != nil {
			log.Error("Failed to abort with error", "error", err)
		}
		return
	}
	flash.Info(c, "You have been logged out.")
	h.redirect(c, "/login")
}
