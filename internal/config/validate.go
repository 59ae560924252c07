package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration after defaults have been applied.
// Optional backends (Postgres, Redis, Kafka) are only validated when
// configured.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return fmt.Errorf("llm config error: %v", err)
	}
	if err := c.validateRedis(); err != nil {
		return fmt.Errorf("redis config error: %v", err)
	}
	if err := c.validateKafka(); err != nil {
		return fmt.Errorf("kafka config error: %v", err)
	}
	if err := c.validateAPI(); err != nil {
		return fmt.Errorf("api config error: %v", err)
	}
	if err := c.validatePipeline(); err != nil {
		return fmt.Errorf("pipeline config error: %v", err)
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.LLM.EmbeddingModel == "" {
		return fmt.Errorf("embedding_model is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	return nil
}

func (c *Config) validateRedis() error {
	if c.Redis.Addr == "" {
		return nil
	}
	if !strings.Contains(c.Redis.Addr, ":") {
		return fmt.Errorf("invalid addr format: %s (expected host:port)", c.Redis.Addr)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("db must not be negative, got %d", c.Redis.DB)
	}
	return nil
}

func (c *Config) validateKafka() error {
	if len(c.Kafka.Brokers) == 0 {
		return nil
	}
	for _, broker := range c.Kafka.Brokers {
		if !strings.Contains(broker, ":") {
			return fmt.Errorf("invalid broker format: %s (expected host:port)", broker)
		}
	}
	if c.Kafka.Topic == "" {
		return fmt.Errorf("topic is required when brokers are configured")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.API.Port)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.MaxConcurrentTickets <= 0 {
		return fmt.Errorf("max_concurrent_tickets must be positive, got %d", c.Pipeline.MaxConcurrentTickets)
	}
	if c.Pipeline.KnowledgeSearchLimit <= 0 {
		return fmt.Errorf("knowledge_search_limit must be positive, got %d", c.Pipeline.KnowledgeSearchLimit)
	}
	if c.Pipeline.MinRelevanceScore < 0 || c.Pipeline.MinRelevanceScore > 1 {
		return fmt.Errorf("min_relevance_score must be between 0 and 1, got %v", c.Pipeline.MinRelevanceScore)
	}
	if c.Pipeline.MaxResponseLength <= 0 {
		return fmt.Errorf("max_response_length must be positive, got %d", c.Pipeline.MaxResponseLength)
	}
	return nil
}
