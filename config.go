package main

import (
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr  string `yaml:"listen_addr"`
	DataFile    string `yaml:"data_file"`
	AuditDBPath string `yaml:"audit_db_path"`

	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	LLMModel        string `yaml:"llm_model"`

	SentimentScorer  string `yaml:"sentiment_scorer"`
	RoutingRulesPath string `yaml:"routing_rules_path"`

	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	SMTPUser string `yaml:"smtp_user"`
	SMTPPass string `yaml:"smtp_pass"`
	SMTPTLS  string `yaml:"smtp_tls"`
	SMTPFrom string `yaml:"smtp_from"`

	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`

	DigestSchedule string `yaml:"digest_schedule"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.ListenAddr, "LISTEN_ADDR")
	envOverride(&cfg.DataFile, "DATA_FILE")
	envOverride(&cfg.AuditDBPath, "AUDIT_DB_PATH")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.SentimentScorer, "SENTIMENT_SCORER")
	envOverride(&cfg.RoutingRulesPath, "ROUTING_RULES_PATH")
	envOverride(&cfg.SMTPHost, "SMTP_HOST")
	envOverrideInt(&cfg.SMTPPort, "SMTP_PORT")
	envOverride(&cfg.SMTPUser, "SMTP_USER")
	envOverride(&cfg.SMTPPass, "SMTP_PASS")
	envOverride(&cfg.SMTPTLS, "SMTP_TLS")
	envOverride(&cfg.SMTPFrom, "SMTP_FROM")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")
	envOverride(&cfg.DigestSchedule, "DIGEST_SCHEDULE")

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.DataFile == "" {
		cfg.DataFile = "./data/feedbacks.json"
	}
	if cfg.SentimentScorer == "" {
		cfg.SentimentScorer = "vader"
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	if cfg.SMTPTLS == "" {
		cfg.SMTPTLS = "true"
	}

	// Validate
	switch cfg.SentimentScorer {
	case "vader", "basic":
	default:
		log.Fatalf("sentiment_scorer must be 'vader' or 'basic', got '%s'", cfg.SentimentScorer)
	}
	if cfg.SMTPPort < 1 || cfg.SMTPPort > 65535 {
		log.Fatalf("invalid smtp_port '%d': must be between 1 and 65535", cfg.SMTPPort)
	}
	if cfg.RoutingRulesPath != "" {
		if _, err := LoadRoutingRules(cfg.RoutingRulesPath); err != nil {
			log.Fatalf("invalid routing_rules_path '%s': %v", cfg.RoutingRulesPath, err)
		}
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

// LLMProvider resolves the remote classification provider once, at startup.
// An empty string means no remote path is configured.
func (c Config) LLMProvider() string {
	if c.AnthropicAPIKey != "" {
		return "anthropic"
	}
	if c.OpenAIAPIKey != "" {
		return "openai"
	}
	return ""
}

func (c Config) SMTPTLSEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(c.SMTPTLS)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// FromAddress returns the configured sender, falling back to the SMTP user
// and then to a noreply address at the mail host.
func (c Config) FromAddress() string {
	if c.SMTPFrom != "" {
		return c.SMTPFrom
	}
	if c.SMTPUser != "" {
		return c.SMTPUser
	}
	return "noreply@" + c.SMTPHost
}
