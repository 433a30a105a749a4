package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

type generateRequest struct {
	PrevUtterances []string   `json:"prev_utterances" validate:"required,min=1"`
	Triplets       [][]string `json:"triplets" validate:"required"`
	Confidences    []float64  `json:"confidences" validate:"required,dive,min=0,max=1"`
}

type generateResponse struct {
	Replies     []string  `json:"replies"`
	Confidences []float64 `json:"confidences"`
}

// GenerateHandler generates replies from already ranked evidence
func (h *Handlers) GenerateHandler(c echo.Context) error {
	data := new(generateRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	replies, confidences, err := h.dialog.Generate(c.Request().Context(), data.PrevUtterances, data.Triplets, data.Confidences)
	if err != nil {
		h.logger.Error("generate failed", slog.String("error", err.Error()))
		return c.JSON(errorStatus(err), map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, generateResponse{Replies: replies, Confidences: confidences})
}
