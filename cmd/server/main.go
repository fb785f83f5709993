package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"asistencia/internal/config"
	"asistencia/internal/db"
	"asistencia/internal/export"
	"asistencia/internal/handlers/api"
	"asistencia/internal/jobs"
	"asistencia/internal/metrics"
	"asistencia/internal/report"
	"asistencia/internal/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.IsDev() {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	} else {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}

	// Initialize database
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	if cfg.SeedDevData {
		if err := database.SeedDevData(ctx); err != nil {
			log.Fatalf("Failed to seed development data: %v", err)
		}
		log.Println("Development data seeded")
	}

	// Initialize Prometheus metrics
	metrics.Init()

	reports := report.NewService(database, report.Options{
		Thresholds:         cfg.Thresholds,
		LookbackDays:       cfg.LookbackDays,
		RecentSessionLimit: cfg.RecentSessionLimit,
		ScanConcurrency:    cfg.ScanConcurrency,
	})

	// Optional spreadsheet export
	var exporter api.Exporter
	if cfg.IsSheetsExportEnabled() {
		writer, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsCredentialsFile)
		if err != nil {
			log.Fatalf("Failed to initialize Google Sheets export: %v", err)
		}
		exporter = writer
		log.Println("Google Sheets export enabled")
	} else {
		log.Println("Google Sheets export disabled. Set SHEETS_SPREADSHEET_ID and SHEETS_CREDENTIALS_FILE to enable.")
	}

	// Start background alert scanner
	if cfg.IsScanEnabled() {
		loc, err := cfg.Location()
		if err != nil {
			log.Fatalf("Invalid timezone: %v", err)
		}
		scanner, err := jobs.NewAlertScanner(reports, cfg.ScanSchedule, loc)
		if err != nil {
			log.Fatalf("Failed to start alert scanner: %v", err)
		}
		go scanner.Start(ctx)
	} else {
		log.Println("Alert scanner disabled (ALERT_SCAN_SCHEDULE is empty)")
	}

	// Create and configure server
	srv := server.New(cfg)
	srv.RegisterRoutes(database, reports, exporter)

	// Graceful shutdown
	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel()
	if err := srv.Shutdown(); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
