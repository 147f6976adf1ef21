package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"infinity/config"
	"infinity/internal/database"
	"infinity/internal/logger"
	"infinity/internal/router"
	"infinity/internal/service"
	"infinity/pkg/cloudinary"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger.Setup(cfg.Log)

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	var ext router.External
	if images, err := cloudinary.NewClient(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret); err != nil {
		log.Warn().Err(err).Msg("cloudinary: avatar uploads disabled")
	} else {
		ext.Images = images
	}
	// Without SMTP the verification service logs links instead of mailing them.
	if m := service.NewMailService(cfg.Mail); m != nil {
		ext.Mailer = m
	}
	if fcm := service.NewFCMService(context.Background(), cfg.Firebase.ServiceAccountPath); fcm != nil {
		ext.Device = fcm
	}

	app := router.Setup(cfg, db, ext)

	stopSweep := make(chan struct{})
	go app.Limiter.Cleanup(stopSweep)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("env", cfg.Server.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	close(stopSweep)
	if err := app.Reputation.Drain(ctx); err != nil {
		log.Warn().Err(err).Msg("reputation: pending credits abandoned")
	}
	if err := database.Close(db); err != nil {
		log.Error().Err(err).Msg("database close")
	}
	log.Info().Msg("server stopped")
}
