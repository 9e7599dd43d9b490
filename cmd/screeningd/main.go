// Command screeningd runs the watchlist screening and alert lifecycle
// service: it exposes health and metrics endpoints and polls for SLA
// breaches, escalating overdue alerts through the review hierarchy.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jainguruprakash/PEP-sub001/internal/compliance"
	"github.com/jainguruprakash/PEP-sub001/internal/compliance/alerts"
	"github.com/jainguruprakash/PEP-sub001/internal/compliance/screening"
	"github.com/jainguruprakash/PEP-sub001/internal/compliance/storage"
	"github.com/jainguruprakash/PEP-sub001/internal/config"
	"github.com/jainguruprakash/PEP-sub001/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "screeningd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting screening service",
		zap.String("environment", cfg.Environment))

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		return err
	}

	store := storage.New(db, log)

	var metrics *alerts.Metrics
	if cfg.Metrics.Enabled {
		metrics = alerts.NewMetrics(prometheus.DefaultRegisterer)
	}

	engine := screening.NewEngine(store.Watchlist, log, screening.EngineConfig{
		DefaultThreshold: cfg.Screening.MatchThreshold,
		BatchConcurrency: cfg.Screening.BatchConcurrency,
	})
	factory := alerts.NewFactory(compliance.SystemClock, log, alerts.FactoryConfig{
		CriticalThreshold: cfg.Screening.CriticalThreshold,
		HighThreshold:     cfg.Screening.HighThreshold,
	})
	resolver := alerts.NewResolver(store.Directory, store.Customers, log)
	sla := alerts.SLAConfig{
		CriticalHours: cfg.SLA.CriticalHours,
		HighHours:     cfg.SLA.HighHours,
		MediumHours:   cfg.SLA.MediumHours,
		DefaultHours:  cfg.SLA.DefaultHours,
	}
	service := alerts.NewService(engine, factory, resolver, store.Alerts, store.Directory, sla, compliance.SystemClock, log, metrics)
	escalator := alerts.NewEscalationEngine(store.Alerts, store.Directory, sla, compliance.SystemClock, log, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go escalator.RunPolling(ctx, cfg.Escalation.PollInterval)
	go runScreeningSweeps(ctx, service, store.Customers, cfg.Screening.SweepInterval, log)

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		metricsServer = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			log.Info("metrics server listening", zap.String("addr", cfg.Metrics.Addr))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	log.Info("shutting down")

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics server shutdown failed", zap.Error(err))
		}
	}
	return nil
}

// runScreeningSweeps periodically rescreens the full customer base so
// watchlist updates surface as new alerts without manual runs.
func runScreeningSweeps(ctx context.Context, service *alerts.Service, customers *storage.CustomerStore, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			all, err := customers.ListCustomers(ctx)
			if err != nil {
				log.Error("screening sweep: list customers failed", zap.Error(err))
				continue
			}
			created, err := service.ScreenBatch(ctx, all, 0)
			if err != nil {
				log.Error("screening sweep failed", zap.Error(err))
				continue
			}
			log.Info("screening sweep complete",
				zap.Int("customers", len(all)),
				zap.Int("alerts_created", len(created)))
		}
	}
}

func openDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}
