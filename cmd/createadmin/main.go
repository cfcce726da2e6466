package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"strings"

	"github.com/thereayou/studybud/internal/apperrors"
	"github.com/thereayou/studybud/internal/config"
	"github.com/thereayou/studybud/internal/database"
	"github.com/thereayou/studybud/internal/forms"
	"github.com/thereayou/studybud/internal/logger"
	"github.com/thereayou/studybud/internal/services"
	"github.com/thereayou/studybud/internal/storage"
	ws "github.com/thereayou/studybud/internal/websocket"
)

// createadmin registers a staff account, or promotes an existing one.
func main() {
	email := flag.String("email", "", "account email")
	username := flag.String("username", "", "username for a new account")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "password for a new account (default $ADMIN_PASSWORD)")
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	files, err := storage.NewLocal(cfg.Media.Root, cfg.Media.URLPrefix)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open media storage")
	}
	svc := services.NewCommunity(db, files, ws.NewHub())

	ctx := context.Background()
	user, err := db.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(*email)))
	if errors.Is(err, apperrors.ErrNotFound) {
		user, err = svc.Register(ctx, forms.RegisterForm{
			Username:  *username,
			Email:     *email,
			Password1: *password,
			Password2: *password,
		})
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create account")
	}

	staff := true
	if err := db.SetUserFlags(ctx, user.ID, &staff, nil); err != nil {
		logger.Fatal().Err(err).Msg("Failed to grant staff access")
	}
	logger.Info().Str("user_id", user.ID.String()).Str("email", user.Email).Msg("Staff account ready")
}
