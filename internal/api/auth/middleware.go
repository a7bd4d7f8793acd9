package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/lendbook/internal/api/flash"
	"github.com/jon4hz/lendbook/internal/api/models"
	"github.com/jon4hz/lendbook/internal/engine"
)

// UserResolver resolves the user id of a session to a live identity.
type UserResolver interface {
	CurrentUser(ctx context.Context, userID uint) (*models.User, error)
}

// AdminGuard checks an identity's admin rights against the store.
type AdminGuard interface {
	RequireAdmin(ctx context.Context, actor *models.User) error
}

// RequireAuth redirects anonymous visitors to the login page.
// The identity comes from the engine's cache, so a deleted account is
// noticed once its cache entry expires or is invalidated. Admin rights
// are not decided here, see RequireAdmin.
func RequireAuth(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := SessionUserID(c)
		if !ok {
			flash.Info(c, "Please log in to access this page.")
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		user, err := resolver.CurrentUser(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, engine.ErrUnauthenticated) {
				if err := EndSession(c); err != nil {
					log.Error("failed to clear session", "error", err)
				}
				flash.Info(c, "Your session has expired, please log in again.")
				c.Redirect(http.StatusFound, "/login")
				c.Abort()
				return
			}
			log.Error("failed to resolve session user", "userID", userID, "error", err)
			c.String(http.StatusServiceUnavailable, "service unavailable")
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// RequireAdmin sends non-admins back to the catalog with a notification.
// The flag is read from the store on every request, so revocations made by
// another process take effect immediately. It must run after RequireAuth.
func RequireAdmin(guard AdminGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := c.MustGet("user").(*models.User)
		err := guard.RequireAdmin(c.Request.Context(), user)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, engine.ErrUnauthenticated):
			if err := EndSession(c); err != nil {
				log.Error("failed to clear session", "error", err)
			}
			flash.Info(c, "Your session has expired, please log in again.")
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
		case errors.Is(err, engine.ErrForbidden):
			flash.Error(c, "You do not have permission to perform this action.")
			c.Redirect(http.StatusFound, "/")
			c.Abort()
		default:
			log.Error("failed to check admin rights", "error", err)
			c.String(http.StatusServiceUnavailable, "service unavailable")
			c.Abort()
		}
	}
}

// RedirectIfLoggedIn sends authenticated visitors away from the login and register pages.
func RedirectIfLoggedIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := SessionUserID(c); ok {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}
