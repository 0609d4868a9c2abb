package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/utils"
)

// Message returned when a request carries no bearer token at all.
const msgTokenRequired = "Access token required"

// Per-endpoint wording.  Clients match on these strings, so each route
// family keeps the text it has always returned.
const (
	MsgInvalidToken       = "Invalid token"
	MsgInvalidOrExpired   = "Invalid or expired token"
	MsgAdminRequired      = "Admin access required"
	MsgUsersOnlyRate      = "Only users can submit ratings"
	MsgStoreOwnerRequired = "Store owner access required"
)

// claimsKey is where Guard stores the verified claims on the echo context.
const claimsKey = "claims"

// Guard returns an Echo middleware that authenticates the bearer token and
// then authorizes the caller's role against p.  The checks always run in
// the order presence (401), validity (403), role (403).
func Guard(issuer *utils.TokenIssuer, p Policy) echo.MiddlewareFunc {
	invalid := p.InvalidMessage
	if invalid == "" {
		invalid = MsgInvalidToken
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, msgTokenRequired)
			}
			claims, err := issuer.Verify(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusForbidden, invalid)
			}
			if !p.allows(claims.Role) {
				return echo.NewHTTPError(http.StatusForbidden, p.DeniedMessage)
			}
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// bearerToken takes the second space separated part of the header, so
// both "Bearer <t>" and "bearer <t>" work while a bare token does not.
func bearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// CurrentClaims returns the claims stored by Guard, or nil on routes that
// are not guarded.
func CurrentClaims(c echo.Context) *utils.Claims {
	cl, _ := c.Get(claimsKey).(*utils.Claims)
	return cl
}
