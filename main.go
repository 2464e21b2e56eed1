package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/contacts-api/internal/api"
	"github.com/isdelr/contacts-api/internal/auth"
	"github.com/isdelr/contacts-api/internal/avatar"
	"github.com/isdelr/contacts-api/internal/config"
	"github.com/isdelr/contacts-api/internal/database"
	"github.com/isdelr/contacts-api/internal/jobs"
	"github.com/isdelr/contacts-api/internal/logger"
	"github.com/isdelr/contacts-api/internal/mailer"
	"github.com/isdelr/contacts-api/internal/services"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, !cfg.IsProduction())

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	avatars, err := avatar.NewProcessor(cfg.AvatarDir, cfg.AvatarSize, avatar.WithMaxDimension(cfg.AvatarMaxDimension))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare avatar storage")
	}

	issuer, err := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up token issuer")
	}

	var sender mailer.Sender = mailer.LogSender{}
	if cfg.MailEnabled() {
		sender = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		log.Warn().Msg("SMTP not configured; verification emails will only be logged")
	}

	// Set up services
	eventService := services.NewEventService(db)
	accountService := services.NewAccountService(db, issuer, sender, eventService, services.AccountServiceConfig{
		BaseURL:         cfg.BaseURL,
		MaxActiveTokens: cfg.MaxActiveTokens,
	})
	contactService := services.NewContactService(db)

	// Set up and run the expired-token pruner
	pruner, err := jobs.NewPruner(accountService, cfg.PruneSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up token pruner")
	}
	pruner.Start()

	// Set up router
	router := api.NewRouter(api.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, issuer, accountService, contactService, eventService, avatars)

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	pruner.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
