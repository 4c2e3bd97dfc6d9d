package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/adampresley/photostrip/cmd/photobooth/internal/configuration"
	"github.com/gogpu/gg"
)

func setupLogger(config *configuration.Config, version string) {
	var (
		handler slog.Handler
	)

	level := slog.LevelInfo

	switch strings.ToLower(config.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	options := &slog.HandlerOptions{Level: level}

	if version == "development" {
		handler = slog.NewTextHandler(os.Stdout, options)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, options)
	}

	logger := slog.New(handler).With("version", version)

	slog.SetDefault(logger)
	gg.SetLogger(logger)
}
