package main

import (
	"os"

	"github.com/edutrack/adminportal/internal/bootstrap"
	"github.com/edutrack/adminportal/internal/pkg/logger"
	"github.com/edutrack/adminportal/internal/server"
)

// @title EduTrack Admin API
// @version 1.0
// @description Super admin API for managing EduTrack tenants and their students

// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Super admin JWT, minted with `edutrack-admin token`

func main() {
	srv, err := server.NewServer(bootstrap.ConfigPath())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
