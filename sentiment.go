package main

import (
	"math"
	"strings"

	"github.com/jonreiter/govader"
)

// SentimentScorer derives a sentiment label and a confidence for raw text.
// The implementation is chosen once at startup via the sentiment_scorer
// config key.
type SentimentScorer interface {
	Score(text string) (Sentiment, float64)
}

func newSentimentScorer(name string) SentimentScorer {
	if name == "basic" {
		return wordListScorer{}
	}
	return newVaderScorer()
}

// vaderScorer maps a VADER compound score onto the three labels:
// >= 0.05 positive, <= -0.05 negative, else neutral. The compound magnitude
// becomes confidence, capped at 0.95.
type vaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func newVaderScorer() *vaderScorer {
	return &vaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (s *vaderScorer) Score(text string) (Sentiment, float64) {
	compound := s.analyzer.PolarityScores(text).Compound

	sentiment := SentimentNeutral
	switch {
	case compound >= 0.05:
		sentiment = SentimentPositive
	case compound <= -0.05:
		sentiment = SentimentNegative
	}

	confidence := 0.5 + math.Abs(compound)
	if confidence > 0.95 {
		confidence = 0.95
	}
	return sentiment, confidence
}

var negativeWords = []string{"angry", "bad", "poor", "unacceptable", "disappointed", "not happy"}
var positiveWords = []string{"great", "happy", "satisfied", "excellent", "thank"}

// wordListScorer is the crude rule-based scorer. Negative phrases are
// checked first so "not happy" beats the bare "happy".
type wordListScorer struct{}

func (wordListScorer) Score(text string) (Sentiment, float64) {
	lower := strings.ToLower(text)
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			return SentimentNegative, 0.7
		}
	}
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			return SentimentPositive, 0.7
		}
	}
	return SentimentNeutral, 0.6
}
