package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grorent/api"
	"grorent/config"
	"grorent/httputil"
	"grorent/logging"
	"grorent/models"
	"grorent/scheduler"
	"grorent/scraper"
	"grorent/services"
	"grorent/storage"
	"grorent/workers"
)

var (
	ingestNow = flag.Bool("ingest", false, "Run one ingest and exit")
	addr      = flag.String("addr", "", "HTTP listen address (overrides HTTP_ADDR)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("grorent.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting grorent...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Loaded %d agency configs", len(cfg.Agencies))
	for _, id := range cfg.AgencyOrder {
		log.Printf("  - %s (%s)", cfg.Agencies[id].Name, id)
	}

	clients := httputil.NewClients()
	ctx := context.Background()

	sqliteStore, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer sqliteStore.Close()
	log.Printf("SQLite database: %s", cfg.DBPath)

	// Postgres is optional; without it the daemon serves from cache only.
	var pgStore *storage.PostgresStore
	if cfg.PostgresURL != "" {
		pgStore, err = storage.NewPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pgStore.Close()
		if err := pgStore.Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate Postgres: %v", err)
		}
		log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.PostgresURL))
	} else {
		log.Println("No DATABASE_URL set, listing persistence disabled")
	}

	orchestrator := scraper.NewOrchestrator(cfg, sqliteStore, clients)
	cache := services.NewResultCache(cfg.Cache.TTL)
	ingestService := services.NewIngestService(orchestrator, cache, pgStore)

	if *ingestNow {
		log.Println("Running ingest...")
		result, err := ingestService.Refresh(ctx)
		if err != nil {
			log.Fatalf("Ingest failed: %v", err)
		}
		log.Printf("Ingest complete: %d listings (%d synthetic, %d agencies failed)",
			len(result.Listings), result.Stats.Synthetic, result.AgenciesFailed)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(cfg, ingestService, orchestrator, sqliteStore)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	workerLog := func(level models.LogLevel, message, agencyID string) {
		sqliteStore.Log(nil, level, message, agencyID)
	}

	if pgStore != nil {
		var uploader storage.Uploader = storage.NoOpUploader{}
		if cfg.S3.Bucket != "" {
			s3Uploader, err := storage.NewS3Uploader(ctx, cfg.S3)
			if err != nil {
				log.Printf("Warning: S3 uploader unavailable: %v", err)
			} else {
				uploader = s3Uploader
			}
		}

		mediaWorker := workers.NewMediaWorker(pgStore, uploader)
		mediaWorker.SetLogger(workerLog)
		go mediaWorker.Run(ctx, 20, 2*time.Minute)
		log.Println("Media worker started")

		healthcheckWorker := workers.NewHealthcheckWorker(pgStore, 24*time.Hour)
		healthcheckWorker.SetLogger(workerLog)
		go healthcheckWorker.Run(ctx, 20, 30*time.Minute)
		log.Println("Healthcheck worker started")

		sched.SetWorkers(mediaWorker, healthcheckWorker)
	}

	listenAddr := cfg.HTTPAddr
	if *addr != "" {
		listenAddr = *addr
	}

	server := &http.Server{
		Addr:    listenAddr,
		Handler: api.NewServer(ingestService, sqliteStore).Router(),
	}

	go func() {
		log.Printf("HTTP server listening on %s", listenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	log.Println("Goodbye!")
}

// maskConnectionString masks password in connection string for logging
func maskConnectionString(connStr string) string {
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
	}
	return connStr
}
