package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/techchallenge/usuarios-api/internal/api/docs"
	"github.com/techchallenge/usuarios-api/internal/api/handler"
	"github.com/techchallenge/usuarios-api/internal/api/middleware"
	"github.com/techchallenge/usuarios-api/internal/core/policy"
	"github.com/techchallenge/usuarios-api/internal/core/ports"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Log    zerolog.Logger
	Auth   ports.AuthService
	Users  ports.UserService
	Tokens ports.TokenCodec
	// Roles, when set, resolves the caller's role from the store instead of the token.
	Roles     middleware.RoleResolver
	Readiness map[string]handler.Checker
	// CORSOrigins defaults to any origin when empty.
	CORSOrigins []string
}

// operationalPrefixes are served without a token alongside middleware.PublicPrefixes.
var operationalPrefixes = []string{"/health", "/metrics"}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(middleware.Metrics())
	e.Use(middleware.Preflight())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))
	e.Use(middleware.Auth(middleware.AuthConfig{
		Codec:  deps.Tokens,
		Public: append(append([]string{}, middleware.PublicPrefixes...), operationalPrefixes...),
		Roles:  deps.Roles,
	}))

	authHandler := handler.NewAuthHandler(deps.Auth)
	userHandler := handler.NewUserHandler(deps.Users)
	healthHandler := handler.NewHealthHandler(deps.Readiness)

	v1 := e.Group("/v1/api")

	// --- Auth routes ---
	v1.POST("/auth/login", authHandler.Login)
	v1.GET("/auth/me", authHandler.Me)

	// --- User routes ---
	adminOnly := middleware.RBAC(policy.AdminOnly...)
	anyUser := middleware.RBAC(policy.AnyUser...)

	users := v1.Group("/usuarios")
	users.POST("/registrar", userHandler.Register)
	users.GET("/todos", userHandler.ListAll, adminOnly)
	users.GET("/buscar", userHandler.Search, anyUser)
	users.PATCH("/role", userHandler.UpdateRole, adminOnly)
	users.GET("/:id", userHandler.Get, anyUser)
	users.PUT("/:id", userHandler.Update, anyUser)
	users.DELETE("/:id", userHandler.Delete, anyUser)
	users.PATCH("/:id/senha", userHandler.UpdatePassword, anyUser)

	// --- Operational routes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger-ui/*", echoSwagger.WrapHandler)
	e.GET("/v3/api-docs", handler.APIDocs)

	return e
}
