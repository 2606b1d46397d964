// Package v1 provides the versioned HTTP handlers of the assistant API.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/auth"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	owners  auth.OwnershipChecker
	logger  *zap.Logger
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service, owners auth.OwnershipChecker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service: service,
		owners:  owners,
		logger:  logger,
	}
}

// RegisterRoutes registers routes with the echo server. mw guards the /v1 group.
func (h *Handler) RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)

	// Assistant API
	g.POST("/assistant/turn", h.Turn)
	g.POST("/assistant/confirm", h.Confirm)

	// Tool catalog
	g.GET("/tools", h.ListTools)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// authorize checks that the request principal owns tenantID.
func (h *Handler) authorize(c echo.Context, tenantID string) error {
	return auth.Authorize(c.Request().Context(), h.owners, principalFrom(c), tenantID)
}

func (h *Handler) authError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
	case errors.Is(err, auth.ErrForbidden):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "tenant access denied"})
	default:
		h.logger.Error("authorization failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "authorization failed"})
	}
}
