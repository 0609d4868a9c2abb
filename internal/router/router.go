package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/store-rating/internal/handler"
	"github.com/iliyamo/store-rating/internal/metrics"
	"github.com/iliyamo/store-rating/internal/middleware"
	"github.com/iliyamo/store-rating/internal/utils"
)

// Handlers groups the domain handlers mounted by New.
type Handlers struct {
	Auth    *handler.AuthHandler
	Admin   *handler.AdminHandler
	Stores  *handler.StoreHandler
	Ratings *handler.RatingHandler
	Owner   *handler.OwnerHandler
}

// Options carries the cross-cutting pieces.  Limiter, Cache and Invalidate
// may be nil.  Invalidate runs on every route so any write clears cached
// reads.
type Options struct {
	Issuer     *utils.TokenIssuer
	Limiter    *middleware.RateLimiter
	Cache      echo.MiddlewareFunc
	Invalidate echo.MiddlewareFunc
	Log        *zap.Logger
}

// New builds the Echo instance with the global middleware chain and every
// route registered.
func New(h Handlers, opt Options) *echo.Echo {
	log := opt.Log
	if log == nil {
		log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(log)

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Metrics())
	e.Use(echomw.Recover())
	if opt.Invalidate != nil {
		e.Use(opt.Invalidate)
	}

	RegisterRoutes(e)
	RegisterAuth(e, h.Auth, opt.Issuer, opt.Limiter)
	RegisterAdmin(e, h.Admin, opt.Issuer, opt.Cache)
	RegisterUser(e, h.Stores, h.Ratings, opt.Issuer)
	RegisterOwner(e, h.Owner, opt.Issuer)
	return e
}

// RegisterRoutes registers routes that do not require authentication:
// the health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers the /auth routes.  Register and login are public
// and rate limited; password change and profile need any valid token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, iss *utils.TokenIssuer, rl *middleware.RateLimiter) {
	g := e.Group("/auth")

	var public []echo.MiddlewareFunc
	if rl != nil {
		public = append(public, rl.Middleware())
	}
	g.POST("/register", a.Register, public...)
	g.POST("/login", a.Login, public...)

	authed := middleware.Guard(iss, middleware.Authenticated(middleware.MsgInvalidOrExpired))
	g.PUT("/password", a.ChangePassword, authed)
	g.GET("/me", a.Me, authed)
}
