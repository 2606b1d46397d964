package v1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/confirmation"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/service"
)

// Turn handles one assistant turn.
func (h *Handler) Turn(c echo.Context) error {
	var req domain.TurnRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	req.TenantID = strings.TrimSpace(req.TenantID)
	if req.TenantID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "tenant_id is required"})
	}
	if err := h.authorize(c, req.TenantID); err != nil {
		return h.authError(c, err)
	}

	resp, err := h.service.HandleTurn(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		h.logger.Error("turn failed", zap.String("tenant_id", req.TenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "turn failed"})
	}

	if resp.State == domain.TurnStateRateLimited {
		seconds := int(h.service.RetryAfter().Seconds())
		c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
		return c.JSON(http.StatusTooManyRequests, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// Confirm redeems or declines a pending confirmation.
func (h *Handler) Confirm(c echo.Context) error {
	var req domain.ConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	req.TenantID = strings.TrimSpace(req.TenantID)
	if req.TenantID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "tenant_id is required"})
	}
	if err := h.authorize(c, req.TenantID); err != nil {
		return h.authError(c, err)
	}

	resp, err := h.service.Confirm(c.Request().Context(), req)
	switch {
	case errors.Is(err, confirmation.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "confirmation belongs to another tenant"})
	case errors.Is(err, service.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case err != nil:
		h.logger.Error("confirmation failed", zap.String("tenant_id", req.TenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "confirmation failed"})
	}
	return c.JSON(http.StatusOK, resp)
}
