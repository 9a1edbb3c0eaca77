package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/pcer-project/pcer/internal/config"
	"github.com/pcer-project/pcer/internal/db"
	"github.com/pcer-project/pcer/internal/httpapi"
	"github.com/pcer-project/pcer/internal/pcer/service"
	sqlitestore "github.com/pcer-project/pcer/internal/pcer/store/sqlite"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "pcer-server ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	writer := db.NewWorker(conn)
	defer writer.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, conn, db.SeedDevOptions{}); err != nil {
			logger.Printf("dev seed: %v", err)
		}
	}

	// Stores
	registryStore := sqlitestore.NewRegistryStore(conn, writer)
	eventStore := sqlitestore.NewEventStore(conn, writer)

	// Engine
	verificationSvc := service.NewVerificationService(registryStore, eventStore)

	monitor := service.NewOverstayMonitor(eventStore, service.MonitorConfig{
		ThresholdHours: cfg.OverstayThresholdHours,
		IntervalHours:  cfg.SweepIntervalHours,
	}, logger)
	monitor.Start(ctx)
	defer monitor.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:       logger,
		Addr:         cfg.HTTPAddr,
		Verification: verificationSvc,
		Gates:        cfg.Gates,
		CORSOrigins:  cfg.CORSOrigins,
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
