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

	"tilefield/server/config"
	"tilefield/server/handlers"
	"tilefield/server/noise"
	"tilefield/server/persistence"
	"tilefield/server/services"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to config.yaml (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize database
	db, err := persistence.Open(cfg.DBType, cfg.StorageDSN())
	if err != nil {
		log.Fatalf("Failed to initialize persistence: %v", err)
	}
	defer db.Close()
	log.Printf("Using %s persistence", cfg.DBType)

	src, err := noise.New(cfg.Noise.Backend, cfg.Noise.Seed)
	if err != nil {
		log.Fatalf("Failed to initialize noise: %v", err)
	}
	log.Printf("Using %s noise", cfg.Noise.Backend)

	var audit *persistence.AuditLog
	if cfg.AuditDir != "" {
		audit = persistence.NewAuditLog(cfg.AuditDir)
		defer audit.Close()
		log.Printf("Writing audit log to %s", cfg.AuditDir)
	}

	// Initialize services
	worldService := services.NewWorldService(db, src, nil)
	playerService := services.NewPlayerService(worldService, db)

	if _, err := worldService.World(cfg.DefaultWorld); err != nil {
		log.Fatalf("Failed to load world %s: %v", cfg.DefaultWorld, err)
	}

	server, err := handlers.NewServer(playerService, worldService, handlers.Options{
		DefaultWorld:   cfg.DefaultWorld,
		ViewRadius:     cfg.ViewRadius,
		MaxQueryRadius: cfg.MaxQueryRadius,
		Audit:          audit,
	})
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Println("Shutting down")
		ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx2); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}
		// Sessions save their player on disconnect, so storage and the audit
		// log stay open until they are done.
		if err := server.Shutdown(ctx2, "server shutting down"); err != nil {
			log.Printf("Session shutdown: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("ListenAndServe: %v", err)
	}
	<-done
	log.Println("Server stopped")
}
