package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/siherrmann/kgdial/model"
)

// Dialog is the part of kgdial.Dialog served over HTTP
type Dialog interface {
	Rank(ctx context.Context, utterances []string, entities [][]model.EntityRef) ([]model.RankResult, error)
	Generate(ctx context.Context, prevUtterances []string, triplets [][]string, confidences []float64) ([]string, []float64, error)
	Respond(ctx context.Context, utterances []string, entities [][]model.EntityRef) ([]model.Reply, error)
}

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// Handlers serves the dialog routes
type Handlers struct {
	dialog Dialog
	logger *slog.Logger
}

// New creates the echo instance with all routes registered
func New(dialog Dialog, logger *slog.Logger) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("10M"))

	RegisterRoutes(e, &Handlers{dialog: dialog, logger: logger})

	return e
}

// Run serves e on addr until ctx is done, then shuts down gracefully
func Run(ctx context.Context, e *echo.Echo, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("Starting server", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// errorStatus maps batch shape errors to 400, everything else to 500
func errorStatus(err error) int {
	if errors.Is(err, model.ErrBatchMismatch) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
