package main

import (
	"github.com/thereayou/studybud/internal/config"
	"github.com/thereayou/studybud/internal/logger"
)

func main() {
	envLoaded := config.LoadEnvFiles()

	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Configure(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if !envLoaded {
		logger.Info().Msg(".env not found, using environment variables")
	}

	srv, err := NewServer(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialise server")
	}
	if err := srv.Run(); err != nil {
		logger.Fatal().Err(err).Msg("Server stopped with error")
	}
}
