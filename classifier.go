package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"
const defaultOpenAIModel = "gpt-4o-mini"

const externalHTTPTimeout = 30 * time.Second

var externalHTTPClient = &http.Client{
	Timeout: externalHTTPTimeout,
}

const classifySystemPrompt = `You are an assistant that classifies parent feedback for a university.
Output must be a single valid JSON object and nothing else, with the keys:
  - category: one of [Academics, Administration, Housing, Finance, Facilities, Other]
  - sentiment: one of [positive, neutral, negative]
  - confidence: a number between 0 and 1 representing your confidence in the classification

Example output:
{"category": "Facilities", "sentiment": "negative", "confidence": 0.86}

Respond ONLY with the JSON object (no explanation, no markdown).`

// Classifier turns raw feedback text into a category/sentiment/confidence
// triple. The remote provider and the local sentiment scorer are resolved
// once at construction; per-call feature detection is deliberately avoided.
type Classifier struct {
	provider string // "anthropic", "openai", or "" for local-only
	model    string
	apiKey   string
	scorer   SentimentScorer
}

func NewClassifier(cfg Config) *Classifier {
	c := &Classifier{
		provider: cfg.LLMProvider(),
		model:    cfg.LLMModel,
		scorer:   newSentimentScorer(cfg.SentimentScorer),
	}
	switch c.provider {
	case "anthropic":
		c.apiKey = cfg.AnthropicAPIKey
		if c.model == "" {
			c.model = defaultAnthropicModel
		}
	case "openai":
		c.apiKey = cfg.OpenAIAPIKey
		if c.model == "" {
			c.model = defaultOpenAIModel
		}
	}
	return c
}

func (c *Classifier) Provider() string { return c.provider }
func (c *Classifier) Model() string    { return c.model }

// Analyze classifies text. Any remote failure is logged and answered with
// the local fallback; the caller never sees a classification error. The
// second return value reports whether the local fallback produced the
// result.
func (c *Classifier) Analyze(ctx context.Context, text string) (Classification, bool) {
	if c.provider != "" {
		cls, err := c.classifyRemote(ctx, text)
		if err == nil {
			return cls, false
		}
		log.Printf("classify remote failed provider=%s err=%v, using local fallback", c.provider, err)
	}
	return c.classifyLocal(text), true
}

func (c *Classifier) classifyRemote(ctx context.Context, text string) (Classification, error) {
	userPrompt := "Feedback: " + text

	var responseText string
	var err error
	switch c.provider {
	case "anthropic":
		responseText, err = c.callAnthropic(ctx, userPrompt)
	case "openai":
		responseText, err = c.callOpenAI(ctx, userPrompt)
	default:
		return Classification{}, fmt.Errorf("no remote provider configured")
	}
	if err != nil {
		return Classification{}, err
	}

	raw, err := extractJSONObject(responseText)
	if err != nil {
		return Classification{}, err
	}
	return parseClassification(raw)
}

// extractJSONObject cuts the substring between the first '{' and the last
// '}' so conversational wrapping around the JSON object is tolerated.
func extractJSONObject(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}

// parseClassification validates and normalizes the model output: unknown
// category becomes Other, unknown sentiment neutral, missing or non-numeric
// confidence 0.5, and confidence is clamped into [0, 1].
func parseClassification(raw string) (Classification, error) {
	var parsed struct {
		Category   string          `json:"category"`
		Sentiment  string          `json:"sentiment"`
		Confidence json.RawMessage `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Classification{}, fmt.Errorf("parsing classification response: %w", err)
	}

	return Classification{
		Category:   ParseCategory(strings.TrimSpace(parsed.Category)),
		Sentiment:  ParseSentiment(strings.TrimSpace(parsed.Sentiment)),
		Confidence: clampConfidence(confidenceFromRaw(parsed.Confidence)),
	}, nil
}

// confidenceFromRaw accepts a JSON number or a numeric string; anything
// else defaults to 0.5.
func confidenceFromRaw(raw json.RawMessage) float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return 0.5
	}
	var asFloat float64
	if err := json.Unmarshal(raw, &asFloat); err == nil {
		return asFloat
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(asString), 64); err == nil {
			return parsed
		}
	}
	return 0.5
}

// categoryKeywords drives the local fallback. Slice order breaks score
// ties: the first category reaching the maximum hit count wins. Other has
// no keywords and is the zero-hit result.
var categoryKeywords = []struct {
	category Category
	terms    []string
}{
	{CategoryAcademics, []string{"course", "exam", "professor", "grade", "curriculum", "homework", "lecture"}},
	{CategoryAdministration, []string{"admission", "admissions", "registration", "admin", "office", "policy", "staff"}},
	{CategoryHousing, []string{"dorm", "housing", "room", "apartment", "accommodation", "residence"}},
	{CategoryFinance, []string{"tuition", "fee", "fees", "payment", "scholarship", "refund"}},
	{CategoryFacilities, []string{"parking", "food", "cafeteria", "library", "facility", "maintenance", "campus"}},
}

func (c *Classifier) classifyLocal(text string) Classification {
	lower := strings.ToLower(text)

	best := CategoryOther
	bestScore := 0
	for _, entry := range categoryKeywords {
		score := 0
		for _, term := range entry.terms {
			if strings.Contains(lower, term) {
				score++
			}
		}
		if score > bestScore {
			best = entry.category
			bestScore = score
		}
	}

	sentiment, confidence := c.scorer.Score(text)
	return Classification{
		Category:   best,
		Sentiment:  sentiment,
		Confidence: clampConfidence(confidence),
	}
}

// --- Anthropic ---

func (c *Classifier) callAnthropic(ctx context.Context, userPrompt string) (string, error) {
	client := anthropic.NewClient(option.WithAPIKey(c.apiKey))

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 256,
		System: []anthropic.TextBlockParam{
			{Text: classifySystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("classify anthropic model=%s response size=%d tokens_in=%d tokens_out=%d",
				c.model, len(block.Text), message.Usage.InputTokens, message.Usage.OutputTokens)
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic response")
}

// --- OpenAI ---

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Classifier) callOpenAI(ctx context.Context, userPrompt string) (string, error) {
	reqBody := openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: classifySystemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := externalHTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(respBody, &openAIResp); err != nil {
		return "", fmt.Errorf("parsing OpenAI response: %w", err)
	}
	if openAIResp.Error != nil {
		return "", fmt.Errorf("OpenAI API error: %s", openAIResp.Error.Message)
	}
	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}

	log.Printf("classify openai model=%s response size=%d", c.model, len(openAIResp.Choices[0].Message.Content))
	return openAIResp.Choices[0].Message.Content, nil
}
