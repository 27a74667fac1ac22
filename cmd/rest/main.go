package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"legal-indexer-be/internal/bootstrap"
	"legal-indexer-be/internal/config"
	"legal-indexer-be/internal/server"
	"legal-indexer-be/internal/tracer"
	"legal-indexer-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 2. Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer(cfg.Otel)
	defer shutdownTracer(context.Background())

	// 3. Database (in-memory store when no DSN is configured)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.PoolConfig{
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			LogSQL:          cfg.Database.LogSQL,
		})
		if err != nil {
			log.Fatalf("Unable to connect to GORM DB: %v", err)
		}
		defer database.Close(db)
		gormDB = db
	}

	// 4. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(gormDB, cfg)
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Jobs left behind by a previous process can never finish
	if n, err := container.JobService.RecoverOrphaned(ctx); err != nil {
		log.Printf("Job recovery failed: %v", err)
	} else if n > 0 {
		log.Printf("Marked %d interrupted jobs as failed", n)
	}

	// 6. Background Services
	go container.WebSocketHub.Run(ctx)
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Fatalf("Failed to start job consumer: %v", err)
	}

	// 7. Server
	srv := server.New(cfg, container)
	go func() {
		if err := srv.Run(); err != nil {
			log.Printf("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	if err := container.ConsumerService.Shutdown(shutdownCtx); err != nil {
		log.Printf("Jobs still running at exit: %v", err)
	}
}
