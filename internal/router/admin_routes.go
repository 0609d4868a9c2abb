package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/handler"
	"github.com/iliyamo/store-rating/internal/middleware"
	"github.com/iliyamo/store-rating/internal/model"
	"github.com/iliyamo/store-rating/internal/utils"
)

// RegisterAdmin registers the /admin routes.  Every route requires a valid
// token with role admin.  cache, when set, wraps the dashboard only.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, iss *utils.TokenIssuer, cache echo.MiddlewareFunc) {
	g := e.Group("/admin",
		middleware.Guard(iss, middleware.RequireRole(middleware.MsgInvalidToken, middleware.MsgAdminRequired, model.RoleAdmin)),
	)

	g.GET("/users", a.ListUsers)
	g.POST("/users", a.CreateUser)
	g.GET("/users/:id", a.GetUser)
	g.PUT("/users/:id", a.UpdateUser)
	g.DELETE("/users/:id", a.DeleteUser)

	g.GET("/stores", a.ListStores)
	g.POST("/stores", a.CreateStore)

	if cache != nil {
		g.GET("/dashboard", a.Dashboard, cache)
	} else {
		g.GET("/dashboard", a.Dashboard)
	}
}
