package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListTools returns the tool catalog.
func (h *Handler) ListTools(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"tools": h.service.Catalog(),
	})
}
