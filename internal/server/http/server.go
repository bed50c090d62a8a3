// Package http exposes the identity and follow services over a JSON HTTP
// API. All business rules live in the services; this layer only translates
// requests, principals and the error taxonomy onto the wire.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/talonmd/socialgraph/internal/logging"
	"github.com/talonmd/socialgraph/internal/server/services"
)

// UserManager is the slice of the identity service used by this layer.
type UserManager interface {
	Register(ctx context.Context, username, email, password string) error
	Login(ctx context.Context, username, password string) (*services.Principal, *services.TokenPair, error)
	Lookup(ctx context.Context, username string) (*services.Principal, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// FollowManager is the slice of the relationship service used by this layer.
type FollowManager interface {
	Follow(ctx context.Context, actorID, targetUsername string) error
	Unfollow(ctx context.Context, actorID, targetUsername string) error
	IsFollowing(ctx context.Context, followedID, visitorID string) (bool, error)
	Followers(ctx context.Context, userID string) ([]services.ProfileCard, error)
	Following(ctx context.Context, userID string) ([]services.ProfileCard, error)
	CountFollowers(ctx context.Context, userID string) (int64, error)
	CountFollowing(ctx context.Context, userID string) (int64, error)
}

type Server struct {
	address   string
	echo      *echo.Echo
	logger    logging.Logger
	users     UserManager
	follows   FollowManager
	jwtSecret []byte
}

func NewServer(address string, l logging.Logger, us UserManager, fs FollowManager, secretKey string) *Server {
	s := &Server{
		address:   address,
		logger:    l.With("module", "http_server"),
		users:     us,
		follows:   fs,
		jwtSecret: []byte(secretKey),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(s.principalMiddleware)

	api := e.Group("/api")
	api.POST("/users", s.handleRegister)
	api.POST("/sessions", s.handleLogin)
	api.POST("/sessions/refresh", s.handleRefresh)
	api.DELETE("/sessions", s.handleLogout)

	api.POST("/follows/:username", s.requireAuth(s.handleFollow))
	api.DELETE("/follows/:username", s.requireAuth(s.handleUnfollow))

	api.GET("/profiles/:username", s.handleProfile)
	api.GET("/profiles/:username/followers", s.handleFollowers)
	api.GET("/profiles/:username/following", s.handleFollowing)

	s.echo = e
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
