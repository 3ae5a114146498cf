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

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/rekonmarkets/rekon-go/internal/config"
	"github.com/rekonmarkets/rekon-go/internal/signerd"
	"github.com/rekonmarkets/rekon-go/pkg/logger"
)

func main() {
	// Local development convenience; ignored when no .env exists
	godotenv.Load()

	log := logger.New(logger.Config{Level: os.Getenv("LOG_LEVEL")})

	cfg, err := config.Load()
	if err != nil {
		// Missing credentials are fatal: refuse to serve /sign unconfigured
		log.WithError(err).Fatal("config load failed")
	}

	srv := signerd.New(cfg.Credentials(), cfg.Server.AuthToken, log)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Engine(),
	}

	go func() {
		log.WithFields(logrus.Fields{
			"service": signerd.ServiceName,
			"port":    cfg.Server.Port,
		}).Info("HTTP server starting")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
