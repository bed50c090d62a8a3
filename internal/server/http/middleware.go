package http

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/talonmd/socialgraph/internal/common"
	"github.com/talonmd/socialgraph/internal/server/auth"
	"github.com/talonmd/socialgraph/internal/server/services"
)

const principalKey = "principalID"

// principalMiddleware resolves an optional bearer token into a principal id.
// Requests without a token proceed as the anonymous visitor; a malformed or
// expired token is rejected rather than silently downgraded.
func (s *Server) principalMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			c.Set(principalKey, services.AnonymousVisitor)
			return next(c)
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return s.writeError(c, common.ErrorUnauthorized)
		}

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			return s.writeError(c, err)
		}

		c.Set(principalKey, userID)
		return next(c)
	}
}

// requireAuth rejects anonymous requests before the handler runs.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if principalID(c) == services.AnonymousVisitor {
			return s.writeError(c, common.ErrorUnauthorized)
		}
		return next(c)
	}
}

func principalID(c echo.Context) string {
	if id, ok := c.Get(principalKey).(string); ok {
		return id
	}
	return services.AnonymousVisitor
}
