package main

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ClassificationAudit records how a single submission was classified:
// which provider answered, or whether the local fallback had to.
type ClassificationAudit struct {
	ID           int64
	FeedbackID   int
	Provider     string // "anthropic", "openai", or "local"
	Model        string
	Category     Category
	Sentiment    Sentiment
	Confidence   float64
	Fallback     bool
	ClassifiedAt time.Time
}

func OpenAuditDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS classification_audit (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		feedback_id   INTEGER NOT NULL,
		provider      TEXT DEFAULT '',
		model         TEXT DEFAULT '',
		category      TEXT NOT NULL,
		sentiment     TEXT NOT NULL,
		confidence    REAL NOT NULL,
		fallback      INTEGER NOT NULL DEFAULT 0,
		classified_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_ca_feedback ON classification_audit(feedback_id);
	CREATE INDEX IF NOT EXISTS idx_ca_date ON classification_audit(classified_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func InsertClassificationAudit(db *sql.DB, a ClassificationAudit) error {
	_, err := db.Exec(
		`INSERT INTO classification_audit (feedback_id, provider, model, category, sentiment, confidence, fallback)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.FeedbackID, a.Provider, a.Model, string(a.Category), string(a.Sentiment), a.Confidence, a.Fallback,
	)
	return err
}

func RecentClassificationAudits(db *sql.DB, limit int) ([]ClassificationAudit, error) {
	rows, err := db.Query(
		`SELECT id, feedback_id, provider, model, category, sentiment, confidence, fallback, classified_at
		 FROM classification_audit ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var audits []ClassificationAudit
	for rows.Next() {
		var a ClassificationAudit
		var category, sentiment string
		if err := rows.Scan(&a.ID, &a.FeedbackID, &a.Provider, &a.Model,
			&category, &sentiment, &a.Confidence, &a.Fallback, &a.ClassifiedAt); err != nil {
			return nil, err
		}
		a.Category = Category(category)
		a.Sentiment = Sentiment(sentiment)
		audits = append(audits, a)
	}
	return audits, rows.Err()
}
