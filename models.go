package main

import "time"

type Category string

const (
	CategoryAcademics      Category = "Academics"
	CategoryAdministration Category = "Administration"
	CategoryHousing        Category = "Housing"
	CategoryFinance        Category = "Finance"
	CategoryFacilities     Category = "Facilities"
	CategoryOther          Category = "Other"
)

var allCategories = []Category{
	CategoryAcademics,
	CategoryAdministration,
	CategoryHousing,
	CategoryFinance,
	CategoryFacilities,
	CategoryOther,
}

// ParseCategory normalizes a raw label; anything outside the fixed set becomes Other.
func ParseCategory(s string) Category {
	for _, c := range allCategories {
		if string(c) == s {
			return c
		}
	}
	return CategoryOther
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ParseSentiment normalizes a raw label; anything outside the fixed set becomes neutral.
func ParseSentiment(s string) Sentiment {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return Sentiment(s)
	}
	return SentimentNeutral
}

// Classification is the classifier's verdict for one piece of feedback text.
type Classification struct {
	Category   Category  `json:"category"`
	Sentiment  Sentiment `json:"sentiment"`
	Confidence float64   `json:"confidence"`
}

// Department is a static routing target. Not user-mutable at runtime.
type Department struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// StatusChange is one audit entry in a feedback's history.
type StatusChange struct {
	When  string `json:"when"`
	Actor string `json:"actor"`
	From  string `json:"from"`
	To    string `json:"to"`
	Note  string `json:"note,omitempty"`
}

// Feedback is the central entity. The JSON tags define both the API shape
// and the persisted file format.
type Feedback struct {
	ID              int            `json:"id"`
	ParentName      string         `json:"parent_name"`
	StudentName     string         `json:"student_name"`
	StudentID       string         `json:"student_id"`
	Title           string         `json:"title"`
	Contact         string         `json:"contact"`
	Text            string         `json:"text"`
	Category        Category       `json:"category"`
	Sentiment       Sentiment      `json:"sentiment"`
	Confidence      float64        `json:"confidence"`
	Department      string         `json:"department"`
	DepartmentEmail string         `json:"department_email"`
	Notified        bool           `json:"notified"`
	Status          string         `json:"status"`
	Submitted       string         `json:"submitted"`
	History         []StatusChange `json:"history"`
}

const timestampLayout = "2006-01-02 15:04:05"

func utcNow() string {
	return time.Now().UTC().Format(timestampLayout)
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
