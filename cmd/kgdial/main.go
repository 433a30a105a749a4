package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/siherrmann/kgdial/helper"
)

func main() {
	logger := helper.NewLogger(os.Stderr, slog.LevelInfo)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("Command execution failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
