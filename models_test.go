package main

import (
	"encoding/json"
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"Academics", CategoryAcademics},
		{"Facilities", CategoryFacilities},
		{"Other", CategoryOther},
		{"academics", CategoryOther}, // labels are case-sensitive
		{"Sports", CategoryOther},
		{"", CategoryOther},
	}
	for _, tt := range tests {
		if got := ParseCategory(tt.in); got != tt.want {
			t.Errorf("ParseCategory(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseSentiment(t *testing.T) {
	tests := []struct {
		in   string
		want Sentiment
	}{
		{"positive", SentimentPositive},
		{"neutral", SentimentNeutral},
		{"negative", SentimentNegative},
		{"Positive", SentimentNeutral},
		{"mixed", SentimentNeutral},
		{"", SentimentNeutral},
	}
	for _, tt := range tests {
		if got := ParseSentiment(tt.in); got != tt.want {
			t.Errorf("ParseSentiment(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestStatusChangeNoteOmittedWhenEmpty(t *testing.T) {
	data, err := json.Marshal(StatusChange{When: "2024-01-01 00:00:00", Actor: "admin", From: "pending", To: "resolved"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) == "" || json.Valid(data) == false {
		t.Fatalf("invalid json: %s", data)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["note"]; ok {
		t.Fatal("expected note key to be omitted when empty")
	}
}

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0}, {0, 0}, {0.42, 0.42}, {1, 1}, {1.7, 1},
	}
	for _, tt := range tests {
		if got := clampConfidence(tt.in); got != tt.want {
			t.Errorf("clampConfidence(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
