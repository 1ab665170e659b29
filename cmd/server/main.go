package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/safedata/safedata/internal/server"
	"github.com/safedata/safedata/internal/storage"
)

func main() {
	config := ParseFlags()

	logger := setupLogger(config.LogLevel, config.LogFormat)

	logger.WithFields(logrus.Fields{
		"version":   Version,
		"commit":    GitCommit,
		"buildDate": BuildDate,
	}).Info("Starting Safe Data server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storageCfg := &storage.FactoryConfig{
		Backend:    config.SessionBackend,
		SessionTTL: config.SessionTTL,
	}
	if config.SessionBackend == "redis" {
		storageCfg.Redis = &storage.RedisConfig{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
			TTL:      config.SessionTTL,
		}
	}

	store, err := storage.NewSessionStore(storageCfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create session store")
	}
	if err := store.Connect(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect session store")
	}
	defer store.Close()

	serverCfg := server.DefaultConfig()
	serverCfg.Host = config.Host
	serverCfg.Port = config.Port
	serverCfg.MetricsPort = config.MetricsPort
	serverCfg.EnableMetrics = config.EnableMetrics
	serverCfg.MaxUploadSize = config.MaxUploadSize
	serverCfg.TLSCertFile = config.TLSCert
	serverCfg.TLSKeyFile = config.TLSKey
	serverCfg.Storage = *storageCfg

	if err := serverCfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid server configuration")
	}

	srv, err := server.NewServer(serverCfg, store, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create server")
	}

	go func() {
		if err := srv.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.WithField("signal", sig.String()).Info("Shutdown signal received")

	if err := srv.Stop(ctx); err != nil {
		logger.WithError(err).Error("Error during shutdown")
		os.Exit(1)
	}
}

func setupLogger(level, format string) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}
