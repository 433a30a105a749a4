package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/siherrmann/kgdial/helper"
	"github.com/siherrmann/kgdial/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the rank, generate and dialog API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (KGDIAL_ADDR, default :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := helper.NewLogger(os.Stdout, slog.LevelInfo)
	config, err := loadConfig(cmd, logger)
	if err != nil {
		return err
	}

	addr := helper.GetEnvString("KGDIAL_ADDR", ":8080")
	if cmd.Flags().Changed("addr") {
		addr = serveAddr
	}

	d, err := openDialog(config, nil)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx, server.New(d, logger), addr, logger)
}
