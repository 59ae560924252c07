package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration
type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	API      APIConfig      `yaml:"api"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// LLMConfig represents the OpenAI-compatible advisory backend
type LLMConfig struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	EmbeddingModel string        `yaml:"embedding_model"`
	Temperature    float32       `yaml:"temperature"`
	MaxTokens      int           `yaml:"max_tokens"`
	Timeout        time.Duration `yaml:"timeout"`
}

// PostgresConfig represents the pgvector knowledge store backend
type PostgresConfig struct {
	DSN       string `yaml:"dsn"`
	Table     string `yaml:"table"`
	Dimension int    `yaml:"dimension"`
}

// RedisConfig represents the advisory cache backend
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// KafkaConfig represents Kafka producer configuration
type KafkaConfig struct {
	Brokers []string      `yaml:"brokers"`
	Topic   string        `yaml:"topic"`
	Timeout time.Duration `yaml:"timeout"`
}

// APIConfig represents API gateway configuration
type APIConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	EnableCORS     bool          `yaml:"enable_cors"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// PipelineConfig represents ticket pipeline tuning
type PipelineConfig struct {
	MaxConcurrentTickets int     `yaml:"max_concurrent_tickets"`
	KnowledgeSearchLimit int     `yaml:"knowledge_search_limit"`
	MinRelevanceScore    float64 `yaml:"min_relevance_score"`
	MaxResponseLength    int     `yaml:"max_response_length"`

	// Keyword rule tables. Empty lists fall back to the built-in
	// defaults so the decision engines always have a working rule set.
	HighPriorityKeywords []string `yaml:"high_priority_keywords"`
	EscalationKeywords   []string `yaml:"escalation_keywords"`
	SecurityKeywords     []string `yaml:"security_keywords"`
}

// Load loads configuration from the given file path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Default returns a configuration with all defaults applied and no
// external backends configured.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4"
	}
	if c.LLM.EmbeddingModel == "" {
		c.LLM.EmbeddingModel = "text-embedding-ada-002"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1000
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 30 * time.Second
	}

	if c.Postgres.Table == "" {
		c.Postgres.Table = "knowledge_articles"
	}
	if c.Postgres.Dimension == 0 {
		c.Postgres.Dimension = 1536
	}

	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "ticketflow"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 5 * time.Minute
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "ticketflow-events"
	}
	if c.Kafka.Timeout == 0 {
		c.Kafka.Timeout = 10 * time.Second
	}

	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.ReadTimeout == 0 {
		c.API.ReadTimeout = 30 * time.Second
	}
	if c.API.WriteTimeout == 0 {
		c.API.WriteTimeout = 30 * time.Second
	}
	if c.API.IdleTimeout == 0 {
		c.API.IdleTimeout = 120 * time.Second
	}
	if len(c.API.AllowedOrigins) == 0 {
		c.API.AllowedOrigins = []string{"*"}
	}
	if c.API.RequestTimeout == 0 {
		c.API.RequestTimeout = 60 * time.Second
	}

	if c.Pipeline.MaxConcurrentTickets == 0 {
		c.Pipeline.MaxConcurrentTickets = 3
	}
	if c.Pipeline.KnowledgeSearchLimit == 0 {
		c.Pipeline.KnowledgeSearchLimit = 5
	}
	if c.Pipeline.MinRelevanceScore == 0 {
		c.Pipeline.MinRelevanceScore = 0.3
	}
	if c.Pipeline.MaxResponseLength == 0 {
		c.Pipeline.MaxResponseLength = 1000
	}
	if len(c.Pipeline.HighPriorityKeywords) == 0 {
		c.Pipeline.HighPriorityKeywords = []string{
			"urgent", "critical", "down", "broken", "error", "bug",
			"payment", "billing", "security", "hack", "breach",
		}
	}
	if len(c.Pipeline.EscalationKeywords) == 0 {
		c.Pipeline.EscalationKeywords = []string{
			"manager", "supervisor", "complain", "angry", "frustrated",
			"legal", "lawsuit", "refund", "cancel", "unsubscribe",
		}
	}
	if len(c.Pipeline.SecurityKeywords) == 0 {
		c.Pipeline.SecurityKeywords = []string{
			"hack", "breach", "security", "fraud", "phishing",
		}
	}
}
