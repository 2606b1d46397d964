// Package http provides the HTTP server for the assistant API.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/auth"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/service"
	v1 "github.com/cvlhofrederic-art/fixit-production-sub002/internal/transport/http/v1"
)

// NewServer creates and configures the public HTTP server.
// Every /v1 route requires a bearer token whose owner holds the requested tenant.
func NewServer(svc *service.Service, authn auth.Authenticator, owners auth.OwnershipChecker, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("1M"))

	// Handlers
	handler := v1.NewHandler(svc, owners, logger)

	// Register Routes
	handler.RegisterRoutes(e, v1.RequireAuth(authn))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
