package server

import (
	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, h *Handlers) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	apiRoutes.POST("/rank", h.RankHandler)
	apiRoutes.POST("/generate", h.GenerateHandler)
	apiRoutes.POST("/dialog", h.DialogHandler)
}
