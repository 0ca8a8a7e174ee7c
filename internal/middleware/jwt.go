package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Matipousi/UcuDB1/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores the participant id (sub) and role claims in the context.
// Handlers read them through ParticipantID and Role.  The caller's
// identity is trusted from here on.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, found := strings.CutPrefix(auth, "Bearer ")
			if !found || strings.TrimSpace(raw) == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(CtxParticipantID, claims.Subject)
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}
