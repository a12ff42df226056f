package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/emphasys/identity/internal/api/handler"
	"github.com/emphasys/identity/internal/api/middleware"
	"github.com/emphasys/identity/internal/core/ports"
	"github.com/emphasys/identity/internal/core/service"
)

// RouterDeps are the collaborators the HTTP surface is built from.
type RouterDeps struct {
	Auth     ports.AuthService
	Accounts ports.AccountService
	Gate     *service.Gate
	Roles    ports.RoleReader
	Cookies  handler.CookieConfig
	Log      zerolog.Logger
	// Activity receives refused admin requests. Optional.
	Activity ports.ActivitySink

	// Registerer receives the request metrics. Defaults to the global registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	registerer := d.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "identity",
		Registerer: registerer,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Accounts, d.Cookies)
	userHandler := handler.NewUserHandler(d.Accounts, d.Auth)
	roleHandler := handler.NewRoleHandler(d.Accounts)

	requireAuth := middleware.Auth(d.Auth, d.Cookies.Name)
	optionalAuth := middleware.OptionalAuth(d.Auth, d.Cookies.Name)
	adminOnly := middleware.RequireAdminTier(d.Gate, d.Roles, d.Activity, d.Log)

	// --- Auth routes ---
	e.POST("/login", authHandler.Login)
	e.POST("/refresh", authHandler.Refresh)
	e.POST("/logout", authHandler.Logout, requireAuth)

	api := e.Group("/api")
	api.GET("/me", authHandler.Me, requireAuth)
	api.PUT("/me/password", authHandler.ChangePassword, requireAuth)

	// --- Users ---
	// Creation stays reachable anonymously so the first account can be made.
	api.POST("/user/", userHandler.Create, optionalAuth)

	users := api.Group("/user", requireAuth, adminOnly)
	users.GET("/", userHandler.List)
	users.PATCH("/:id", userHandler.Update)
	users.PATCH("/:id/enabled", userHandler.SetEnabled)
	users.DELETE("/:id", userHandler.Delete)

	// --- Roles ---
	roles := api.Group("/role", requireAuth, adminOnly)
	roles.GET("/", roleHandler.List)
	roles.POST("/", roleHandler.Create)
	roles.DELETE("/:id", roleHandler.Delete)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
