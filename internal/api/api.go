package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/lendbook/internal/api/auth"
	"github.com/jon4hz/lendbook/internal/api/handler"
	"github.com/jon4hz/lendbook/internal/api/middleware"
	"github.com/jon4hz/lendbook/internal/api/templates"
	"github.com/jon4hz/lendbook/internal/config"
	"github.com/jon4hz/lendbook/internal/engine"
	"github.com/jon4hz/lendbook/internal/static"
)

// SessionCookieName is the name of the signed session cookie.
const SessionCookieName = "lendbook_session"

type Server struct {
	cfg        *config.Config
	ginEngine  *gin.Engine
	engine     *engine.Engine
	httpServer *http.Server
	assets     http.FileSystem
}

func New(cfg *config.Config, e *engine.Engine, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if e == nil {
		return nil, fmt.Errorf("engine is required")
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	renderer, err := templates.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	assets, err := static.FileSystem()
	if err != nil {
		return nil, err
	}

	ginEngine := gin.New()
	ginEngine.HTMLRender = renderer
	ginEngine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLog(log.WithPrefix("http")),
		middleware.SecurityHeaders(),
	)
	if cfg.Gzip {
		ginEngine.Use(gzip.Gzip(gzip.DefaultCompression))
	}

	s := &Server{
		cfg:       cfg,
		ginEngine: ginEngine,
		engine:    e,
		assets:    assets,
	}
	s.setupSession()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              cfg.Listen,
		Handler:           ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions(SessionCookieName, store))
}

func (s *Server) setupRoutes() {
	h := handler.New(s.engine, s.cfg)

	s.ginEngine.StaticFS("/static", s.assets)
	s.ginEngine.GET("/healthz", h.Healthz)

	anonymous := s.ginEngine.Group("/")
	anonymous.Use(auth.RedirectIfLoggedIn())
	anonymous.GET("/login", h.LoginPage)
	anonymous.POST("/login", h.Login)
	anonymous.GET("/register", h.RegisterPage)
	anonymous.POST("/register", h.Register)

	protected := s.ginEngine.Group("/")
	protected.Use(auth.RequireAuth(s.engine))
	protected.GET("/", h.Home)
	protected.GET("/logout", h.Logout)
	protected.GET("/borrow/:id", h.Borrow)
	protected.POST("/return/:id", h.Return)
	protected.GET("/user", h.UserPage)

	admin := protected.Group("/")
	admin.Use(auth.RequireAdmin(s.engine))
	admin.GET("/add_book", h.AddBookPage)
	admin.POST("/add_book", h.AddBook)
	admin.POST("/delete_book/:id", h.DeleteBook)
	admin.GET("/manage_users", h.ManageUsers)
	admin.POST("/delete_user/:id", h.DeleteUser)
	admin.POST("/promote_user/:id", h.PromoteUser)
	admin.GET("/history", h.History)
}

// Handler returns the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

// Run serves HTTP until Shutdown is called.
func (s *Server) Run() error {
	log.Info("starting HTTP server", "listen", s.cfg.Listen)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
