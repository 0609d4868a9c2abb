package middleware

// identity.go resolves who is calling for keying purposes (rate limiter,
// response cache).  Anonymous callers share the "guest" identity.

import (
	"github.com/labstack/echo/v4"
)

// callerID returns the token subject stored by Guard, or "guest".
func callerID(c echo.Context) string {
	if cl := CurrentClaims(c); cl != nil && cl.Subject != "" {
		return cl.Subject
	}
	return "guest"
}
