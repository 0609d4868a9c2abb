package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/handler"
	"github.com/iliyamo/store-rating/internal/middleware"
	"github.com/iliyamo/store-rating/internal/model"
	"github.com/iliyamo/store-rating/internal/utils"
)

// RegisterUser registers the store directory and rating routes.  Listing
// is open to every role; submitting a rating is reserved for role user.
// Each route keeps its own wording for a bad token.
func RegisterUser(e *echo.Echo, s *handler.StoreHandler, r *handler.RatingHandler, iss *utils.TokenIssuer) {
	e.GET("/stores", s.List,
		middleware.Guard(iss, middleware.Authenticated(middleware.MsgInvalidOrExpired)))

	e.POST("/ratings", r.Submit,
		middleware.Guard(iss, middleware.RequireRole(middleware.MsgInvalidToken, middleware.MsgUsersOnlyRate, model.RoleUser)))
	e.GET("/ratings", r.List,
		middleware.Guard(iss, middleware.Authenticated(middleware.MsgInvalidToken)))
}
