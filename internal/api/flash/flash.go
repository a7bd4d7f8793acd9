package flash

import (
	"encoding/gob"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/lendbook/internal/api/models"
)

// Flash categories.
const (
	CategorySuccess = "success"
	CategoryError   = "error"
	CategoryInfo    = "info"
)

func init() {
	// flashes are stored in the cookie session, which is gob encoded
	gob.Register(models.Flash{})
}

// Add queues a notification for the next rendered page and saves the session.
func Add(c *gin.Context, category, message string) {
	session := sessions.Default(c)
	session.AddFlash(models.Flash{Category: category, Message: message})
	if err := session.Save(); err != nil {
		log.Error("failed to save flash message", "error", err)
	}
}

// Success queues a success notification.
func Success(c *gin.Context, message string) { Add(c, CategorySuccess, message) }

// Error queues an error notification.
func Error(c *gin.Context, message string) { Add(c, CategoryError, message) }

// Info queues an informational notification.
func Info(c *gin.Context, message string) { Add(c, CategoryInfo, message) }

// Pop returns and removes all queued notifications.
func Pop(c *gin.Context) []models.Flash {
	session := sessions.Default(c)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(); err != nil {
		log.Error("failed to save session after reading flashes", "error", err)
	}

	flashes := make([]models.Flash, 0, len(raw))
	for _, f := range raw {
		switch v := f.(type) {
		case models.Flash:
			flashes = append(flashes, v)
		case string:
			flashes = append(flashes, models.Flash{Category: CategoryInfo, Message: v})
		}
	}
	return flashes
}
