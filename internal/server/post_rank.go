package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/siherrmann/kgdial/model"
)

type rankRequest struct {
	Utterances []string            `json:"utterances" validate:"required,min=1"`
	Entities   [][]model.EntityRef `json:"entities"`
}

type rankResponse struct {
	Results []model.RankResult `json:"results"`
}

// RankHandler ranks a batch of utterances with their linked entities.
// Without entities every item counts as having no seed entity.
func (h *Handlers) RankHandler(c echo.Context) error {
	data := new(rankRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	entities := data.Entities
	if entities == nil {
		entities = make([][]model.EntityRef, len(data.Utterances))
	}

	results, err := h.dialog.Rank(c.Request().Context(), data.Utterances, entities)
	if err != nil {
		h.logger.Error("rank failed", slog.String("error", err.Error()))
		return c.JSON(errorStatus(err), map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, rankResponse{Results: results})
}
