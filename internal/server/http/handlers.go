package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/talonmd/socialgraph/internal/common"
	"github.com/talonmd/socialgraph/internal/server/services"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	Username     string `json:"username"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type profileResponse struct {
	Username       string `json:"username"`
	FollowerCount  int64  `json:"follower_count"`
	FollowingCount int64  `json:"following_count"`
	Following      bool   `json:"following"`
}

type profileCard struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Errors []string `json:"errors"`
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if err := s.users.Register(c.Request().Context(), req.Username, req.Email, req.Password); err != nil {
		return s.writeError(c, err)
	}

	return c.NoContent(http.StatusCreated)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	principal, pair, err := s.users.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, sessionResponse{
		Username:     principal.Username,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) handleRefresh(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	pair, err := s.users.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, sessionResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) handleLogout(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if err := s.users.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return s.writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleFollow(c echo.Context) error {
	err := s.follows.Follow(c.Request().Context(), principalID(c), c.Param("username"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusCreated)
}

func (s *Server) handleUnfollow(c echo.Context) error {
	err := s.follows.Unfollow(c.Request().Context(), principalID(c), c.Param("username"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleProfile(c echo.Context) error {
	ctx := c.Request().Context()

	target, err := s.users.Lookup(ctx, c.Param("username"))
	if err != nil {
		return s.writeError(c, err)
	}

	followerCount, err := s.follows.CountFollowers(ctx, target.UserID)
	if err != nil {
		return s.writeError(c, err)
	}
	followingCount, err := s.follows.CountFollowing(ctx, target.UserID)
	if err != nil {
		return s.writeError(c, err)
	}
	following, err := s.follows.IsFollowing(ctx, target.UserID, principalID(c))
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, profileResponse{
		Username:       target.Username,
		FollowerCount:  followerCount,
		FollowingCount: followingCount,
		Following:      following,
	})
}

func (s *Server) handleFollowers(c echo.Context) error {
	return s.listProfiles(c, s.follows.Followers)
}

func (s *Server) handleFollowing(c echo.Context) error {
	return s.listProfiles(c, s.follows.Following)
}

func (s *Server) listProfiles(c echo.Context, list func(ctx context.Context, userID string) ([]services.ProfileCard, error)) error {
	ctx := c.Request().Context()

	target, err := s.users.Lookup(ctx, c.Param("username"))
	if err != nil {
		return s.writeError(c, err)
	}

	cards, err := list(ctx, target.UserID)
	if err != nil {
		return s.writeError(c, err)
	}

	out := make([]profileCard, 0, len(cards))
	for _, card := range cards {
		out = append(out, profileCard{Username: card.Username, Avatar: card.Avatar})
	}
	return c.JSON(http.StatusOK, out)
}

// writeError maps the service error taxonomy onto HTTP statuses. Validation
// batches keep their full ordered message list.
func (s *Server) writeError(c echo.Context, err error) error {
	if ve := common.AsValidationError(err); ve != nil {
		return c.JSON(http.StatusUnprocessableEntity, validationResponse{Errors: ve.Messages})
	}

	switch {
	case errors.Is(err, common.ErrorInvalidCredentials),
		errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrorUnauthorized):
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrorNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, common.ErrorConflict):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrorTransient):
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: common.ErrorTransient.Error()})
	default:
		s.logger.Error(c.Request().Context(), "internal error", "error", err.Error())
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
