package main

import (
	"database/sql"
	"log"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := LoadConfig()

	store := NewStore(cfg.DataFile)
	store.Load()

	var auditDB *sql.DB
	if cfg.AuditDBPath != "" {
		db, err := OpenAuditDB(cfg.AuditDBPath)
		if err != nil {
			log.Fatalf("Failed to open audit db: %v", err)
		}
		defer db.Close()
		auditDB = db
	}

	extraRules, err := LoadRoutingRules(cfg.RoutingRulesPath)
	if err != nil {
		// Already validated by LoadConfig; a failure here means the file
		// changed between validation and load.
		log.Fatalf("Failed to load routing rules: %v", err)
	}

	classifier := NewClassifier(cfg)
	router := NewRouter(extraRules)
	notifier := NewNotifier(cfg)

	StartDigestScheduler(cfg, store, notifier)

	provider := classifier.Provider()
	if provider == "" {
		provider = "local"
	}
	log.Printf("Starting feedback desk addr=%s provider=%s scorer=%s", cfg.ListenAddr, provider, cfg.SentimentScorer)

	srv := NewServer(cfg, classifier, router, notifier, store, auditDB)
	if err := srv.App().Listen(cfg.ListenAddr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
