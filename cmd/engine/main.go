package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fraudnets/detection-engine/internal/api"
	"github.com/fraudnets/detection-engine/internal/config"
	"github.com/fraudnets/detection-engine/internal/db"
	"github.com/fraudnets/detection-engine/internal/engine"
	"github.com/fraudnets/detection-engine/internal/notary"
	"github.com/fraudnets/detection-engine/internal/signal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger := newLogger(cfg.Logging)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting FraudNets detection engine")

	// The detection store is optional: without a database URL the engine
	// runs fully in-memory and every verdict is simply not persisted.
	var dbStore *db.PostgresStore
	if cfg.Database.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		dbStore, err = db.Connect(ctx, cfg.Database.URL, logger)
		cancel()
		if err != nil {
			logger.Warn("continuing without detection store", zap.Error(err))
			dbStore = nil
		} else {
			defer dbStore.Close()
			if err := dbStore.InitSchema(context.Background()); err != nil {
				logger.Warn("detection store schema init failed", zap.Error(err))
			}
		}
	}

	params := engine.Params{
		ReportingThreshold:   cfg.Detection.ReportingThreshold,
		SmurfMinCount:        cfg.Detection.SmurfMinCount,
		SmurfSumRatio:        cfg.Detection.SmurfSumRatio,
		StructuringBandRatio: cfg.Detection.StructuringBandRatio,
		StructuringMinRepeat: cfg.Detection.StructuringMinRepeat,
		MinCycleLength:       cfg.Detection.MinCycleLength,
		MaxCycleLength:       cfg.Detection.MaxCycleLength,
		MaxCycles:            cfg.Detection.MaxCycles,
	}

	wsHub := api.NewHub(logger)
	go wsHub.Run()

	opts := []engine.Option{
		engine.WithFraudCallback(api.BroadcastFraudAlert(wsHub, logger)),
	}
	if dbStore != nil {
		opts = append(opts, engine.WithStore(dbStore))
	}
	if cfg.Notary.URL != "" {
		opts = append(opts, engine.WithNotarizer(notary.NewClient(cfg.Notary.URL, cfg.Notary.Timeout, logger)))
		logger.Info("blacklist notarization enabled", zap.String("url", cfg.Notary.URL))
	}
	if cfg.Signal.Enabled {
		seed := cfg.Signal.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		opts = append(opts, engine.WithSignalProvider(signal.NewClassifier(seed, logger)))
		logger.Info("statistical signal provider enabled")
	}

	eng := engine.New(params, logger, opts...)

	r := api.SetupRouter(eng, dbStore, wsHub, cfg.Server, cfg.Signal.Enabled, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("engine listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

// newLogger builds the zap logger per configuration.
func newLogger(cfg config.LoggingConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}
