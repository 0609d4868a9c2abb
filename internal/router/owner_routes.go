package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/handler"
	"github.com/iliyamo/store-rating/internal/middleware"
	"github.com/iliyamo/store-rating/internal/model"
	"github.com/iliyamo/store-rating/internal/utils"
)

// RegisterOwner registers store_owner-scoped endpoints under /store-owner.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, iss *utils.TokenIssuer) {
	g := e.Group("/store-owner",
		middleware.Guard(iss, middleware.RequireRole(middleware.MsgInvalidToken, middleware.MsgStoreOwnerRequired, model.RoleStoreOwner)),
	)
	g.GET("/stores", o.ListStores)
	g.GET("/analytics", o.Analytics)
}
