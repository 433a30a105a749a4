package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/siherrmann/kgdial/model"
)

type dialogRequest struct {
	Utterances []string            `json:"utterances" validate:"required,min=1"`
	Entities   [][]model.EntityRef `json:"entities"`
}

type dialogResponse struct {
	Replies []model.Reply `json:"replies"`
}

// DialogHandler ranks and generates in one call
func (h *Handlers) DialogHandler(c echo.Context) error {
	data := new(dialogRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	replies, err := h.dialog.Respond(c.Request().Context(), data.Utterances, data.Entities)
	if err != nil {
		h.logger.Error("dialog failed", slog.String("error", err.Error()))
		return c.JSON(errorStatus(err), map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, dialogResponse{Replies: replies})
}
