package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"shade/internal/config"
	"shade/internal/daily"
	"shade/internal/db"
	"shade/internal/party"
	"shade/internal/server"

	"github.com/robfig/cron/v3"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	var partyStore party.Store
	var dailyStore daily.Store
	if os.Getenv("DATABASE_URL") != "" {
		conn, err := db.Open(cfg)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		if err := db.Migrate(conn); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
		store := db.NewStore(conn)
		partyStore, dailyStore = store, store
	} else {
		// No database configured; run on in-memory stores. State is lost
		// on restart, which is fine for local development.
		log.Println("DATABASE_URL not set, using in-memory stores")
		partyStore = party.NewMemoryStore()
		dailyStore = daily.NewMemoryStore()
	}

	partySvc := party.NewService(partyStore, cfg)
	dailySvc := daily.NewService(dailyStore)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.CleanupSchedule, func() {
		if _, err := partySvc.CleanupInactive(context.Background(), cfg.CleanupRoomHours, cfg.CleanupPlayerHours); err != nil {
			log.Printf("scheduled cleanup failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("invalid cleanup schedule %q: %v", cfg.CleanupSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}

	srv := server.New(partySvc, dailySvc, cfg)
	log.Printf("shade server listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}
