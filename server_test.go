package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := Config{
		DataFile:        filepath.Join(t.TempDir(), "feedbacks.json"),
		SentimentScorer: "basic",
		SMTPPort:        587,
		SMTPTLS:         "true",
	}
	store := NewStore(cfg.DataFile)
	store.Load()

	auditDB, err := OpenAuditDB(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("OpenAuditDB failed: %v", err)
	}
	t.Cleanup(func() { _ = auditDB.Close() })

	return NewServer(cfg, NewClassifier(cfg), NewRouter(nil), NewNotifier(cfg), store, auditDB)
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	return resp
}

func getPath(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	return resp
}

func decodeFeedback(t *testing.T, resp *http.Response) Feedback {
	t.Helper()
	defer resp.Body.Close()
	var fb Feedback
	if err := json.NewDecoder(resp.Body).Decode(&fb); err != nil {
		t.Fatalf("decode feedback: %v", err)
	}
	return fb
}

func TestSubmitEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	app := srv.App()

	resp := postJSON(t, app, "/api/feedback", map[string]string{
		"parent_name":  "Jane Doe",
		"student_name": "Alice",
		"student_id":   "S12345",
		"title":        "Dining concerns",
		"contact":      "jane@example.com",
		"text":         "The cafeteria food is often cold and the library hours are too short.",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	fb := decodeFeedback(t, resp)

	if fb.ID == 0 {
		t.Fatal("expected an assigned id")
	}
	// Keyword override: "cafeteria"/"food" wins regardless of the category
	// the classifier picked.
	if fb.Department != "Food Services" || fb.DepartmentEmail != "food@university.edu" {
		t.Fatalf("expected Food Services routing, got %s <%s>", fb.Department, fb.DepartmentEmail)
	}
	if fb.Sentiment != SentimentNegative && fb.Sentiment != SentimentNeutral {
		t.Fatalf("unexpected sentiment: %s", fb.Sentiment)
	}
	if fb.Notified {
		t.Fatal("expected notified=false without SMTP config")
	}
	if fb.Status != "pending" || fb.Submitted == "" {
		t.Fatalf("missing defaults: %+v", fb)
	}

	// The record shows up in a subsequent list.
	listResp := getPath(t, app, "/api/feedbacks")
	defer listResp.Body.Close()
	var items []Feedback
	if err := json.NewDecoder(listResp.Body).Decode(&items); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	found := false
	for _, item := range items {
		if item.ID == fb.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("submitted record id=%d not in list", fb.ID)
	}

	// One audit row was written for the local fallback.
	audits, err := RecentClassificationAudits(srv.auditDB, 10)
	if err != nil {
		t.Fatalf("RecentClassificationAudits failed: %v", err)
	}
	if len(audits) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(audits))
	}
	if audits[0].Provider != "local" || !audits[0].Fallback {
		t.Fatalf("expected local fallback audit, got %+v", audits[0])
	}
	if audits[0].FeedbackID != fb.ID {
		t.Fatalf("audit feedback_id=%d, want %d", audits[0].FeedbackID, fb.ID)
	}
}

func TestSubmitRequiresText(t *testing.T) {
	app := newTestServer(t).App()

	resp := postJSON(t, app, "/api/feedback", map[string]string{"parent_name": "Jane"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, app, "/api/feedback", map[string]string{"text": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank text, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestListFilters(t *testing.T) {
	app := newTestServer(t).App()

	submissions := []string{
		"The cafeteria food is cold, unacceptable",   // Food Services
		"Tuition refund has not arrived, very angry", // Finance Office
		"Thank you, the professor was excellent",     // Academic Affairs
	}
	for _, text := range submissions {
		resp := postJSON(t, app, "/api/feedback", map[string]string{"text": text})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("submit failed: %d", resp.StatusCode)
		}
		resp.Body.Close()
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?department=food+services", 1}, // case-insensitive exact match
		{"?department=Finance+Office", 1},
		{"?sentiment=negative", 2},
		{"?sentiment=positive", 1},
		{"?category=finance", 1},
		{"?category=Finance&sentiment=positive", 0},
		{"?department=Unknown+Dept", 0},
	}
	for _, tt := range tests {
		resp := getPath(t, app, "/api/feedbacks"+tt.query)
		var items []Feedback
		if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
			t.Fatalf("decode list %q: %v", tt.query, err)
		}
		resp.Body.Close()
		if len(items) != tt.want {
			t.Errorf("list %q returned %d items, want %d", tt.query, len(items), tt.want)
		}
	}
}

func TestUpdateStatusEndpoint(t *testing.T) {
	app := newTestServer(t).App()

	resp := postJSON(t, app, "/api/feedback", map[string]string{"text": "dorm heater is broken"})
	fb := decodeFeedback(t, resp)

	resp = postJSON(t, app, fmt.Sprintf("/api/feedback/%d/status", fb.ID), map[string]string{
		"status": "resolved",
		"note":   "fixed",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	updated := decodeFeedback(t, resp)
	if updated.Status != "resolved" {
		t.Fatalf("expected resolved, got %q", updated.Status)
	}
	last := updated.History[len(updated.History)-1]
	if last.To != "resolved" || last.Note != "fixed" {
		t.Fatalf("unexpected history entry: %+v", last)
	}

	resp = postJSON(t, app, "/api/feedback/99999/status", map[string]string{"status": "resolved"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, app, fmt.Sprintf("/api/feedback/%d/status", fb.ID), map[string]string{"note": "no status"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing status, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestExportEndpoint(t *testing.T) {
	app := newTestServer(t).App()

	resp := postJSON(t, app, "/api/feedback", map[string]string{"text": "line one\nline two about the cafeteria"})
	resp.Body.Close()

	resp = getPath(t, app, "/api/export")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, "attachment") {
		t.Fatalf("expected attachment disposition, got %q", got)
	}
	if got := resp.Header.Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("expected text/csv, got %q", got)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	if lines[0] != strings.Join(csvHeader, ",") {
		t.Fatalf("unexpected header row: %q", lines[0])
	}
	if len(lines) != 2 || !strings.Contains(lines[1], "line one line two") {
		t.Fatalf("unexpected export body: %q", string(body))
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	app := srv.App()

	for i := 0; i < 6; i++ {
		resp := postJSON(t, app, "/api/feedback", map[string]string{
			"text": fmt.Sprintf("feedback number %d about tuition, very angry", i),
		})
		resp.Body.Close()
	}
	srv.store.UpdateStatus(1, "resolved", "", "")

	resp := getPath(t, app, "/api/stats")
	defer resp.Body.Close()

	var stats struct {
		Total       int               `json:"total"`
		ByStatus    map[string]int    `json:"by_status"`
		BySentiment map[Sentiment]int `json:"by_sentiment"`
		Recent      []Feedback        `json:"recent"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 6 {
		t.Fatalf("expected total 6, got %d", stats.Total)
	}
	if stats.ByStatus["pending"] != 5 || stats.ByStatus["resolved"] != 1 {
		t.Fatalf("unexpected status counts: %v", stats.ByStatus)
	}
	if stats.BySentiment[SentimentNegative] != 6 {
		t.Fatalf("unexpected sentiment counts: %v", stats.BySentiment)
	}
	if len(stats.Recent) != 5 {
		t.Fatalf("expected 5 recent records, got %d", len(stats.Recent))
	}
}

func TestHealthz(t *testing.T) {
	app := newTestServer(t).App()
	resp := getPath(t, app, "/healthz")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
