package middleware

import "github.com/labstack/echo/v4"

// Context keys set by JWTAuth.
const (
	CtxParticipantID = "participant_id"
	CtxRole          = "role"
)

// ParticipantID returns the authenticated participant id, or "" when the
// request carries no valid token.
func ParticipantID(c echo.Context) string {
	s, _ := c.Get(CtxParticipantID).(string)
	return s
}

// Role returns the authenticated role claim, or "".
func Role(c echo.Context) string {
	s, _ := c.Get(CtxRole).(string)
	return s
}

// rateIdentity names the caller for rate limiting; anonymous callers
// share the "anon" bucket per IP.
func rateIdentity(c echo.Context) string {
	if id := ParticipantID(c); id != "" {
		return id
	}
	return "anon"
}
