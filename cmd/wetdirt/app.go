package main

import (
	"context"
	"fmt"
	"log"

	"github.com/wetdirt/wetdirt/actor"
	"github.com/wetdirt/wetdirt/db"
	"github.com/wetdirt/wetdirt/metrics"
	"go.uber.org/zap"
)

// newLogger builds the production logger at the configured level.
func newLogger(cfg *Config) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()

	logLevel := zap.InfoLevel
	if cfg.Logging.Level != "" {
		if err := logLevel.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
			log.Printf("Invalid log level %q, using INFO: %v", cfg.Logging.Level, err)
			logLevel = zap.InfoLevel
		}
	}
	zapConfig.Level = zap.NewAtomicLevelAt(logLevel)

	return zapConfig.Build(zap.AddStacktrace(zap.ErrorLevel))
}

// connect performs the database handshake and wires the account manager.
func connect(ctx context.Context, cfg *Config, logger *zap.Logger, m metrics.Client) (*actor.Manager, error) {
	session, err := db.Connect(ctx, db.SessionConfig{
		URL:         cfg.Database.URL,
		Namespace:   cfg.Database.Namespace,
		Database:    cfg.Database.Database,
		Credentials: cfg.Database.Credentials,
	})
	if err != nil {
		return nil, fmt.Errorf("database handshake with %s: %w", cfg.Database.URL, err)
	}
	logger.Info("Connected to database",
		zap.String("url", session.URL()),
		zap.String("namespace", cfg.Database.Namespace),
		zap.String("database", cfg.Database.Database))

	client, err := db.New(db.Config{Session: session, Logger: logger, Metrics: m})
	if err != nil {
		return nil, err
	}

	hasher, err := actor.NewHasher(actor.HasherConfig{
		Params: actor.HashParams{
			Time:    cfg.Hash.Time,
			Memory:  cfg.Hash.Memory,
			Threads: cfg.Hash.Threads,
		},
		Workers: cfg.Hash.Workers,
		Metrics: m,
	})
	if err != nil {
		return nil, err
	}

	return actor.New(actor.Config{DB: client, Hasher: hasher, Logger: logger})
}
