package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/prompt-general/ticketflow/internal/classify"
	"github.com/prompt-general/ticketflow/internal/config"
	"github.com/prompt-general/ticketflow/internal/escalation"
	"github.com/prompt-general/ticketflow/internal/resolution"
)

// Client wraps an OpenAI-compatible chat backend and exposes the
// advisory calls the pipeline engines consume. Malformed model output
// is absorbed into neutral defaults; only transport failures surface
// as errors.
type Client struct {
	api            *openai.Client
	model          string
	embeddingModel string
	temperature    float32
	maxTokens      int
	timeout        time.Duration
}

func NewClient(cfg config.LLMConfig) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:            openai.NewClientWithConfig(clientConfig),
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		temperature:    cfg.Temperature,
		maxTokens:      cfg.MaxTokens,
		timeout:        cfg.Timeout,
	}
}

// ClassifyTicket asks the model for a category/priority judgment.
// Unparseable responses fall back to a neutral advisory rather than an
// error so that a flaky model degrades instead of failing the stage.
func (c *Client) ClassifyTicket(ctx context.Context, subject, message string) (classify.Advisory, error) {
	prompt := fmt.Sprintf(`Analyze the following customer support ticket and classify it:

Subject: %s
Message: %s

Please classify this ticket with:
1. Category: technical, billing, general, product, or account
2. Priority: low, medium, high, or critical
3. Confidence score (0.0 to 1.0)
4. Brief reasoning

Return ONLY a JSON object with these fields:
{
    "category": "category_name",
    "priority": "priority_level",
    "confidence": 0.85,
    "reasoning": "brief explanation"
}`, subject, message)

	response, err := c.complete(ctx, prompt)
	if err != nil {
		return classify.Advisory{}, fmt.Errorf("failed to classify ticket: %v", err)
	}
	return parseClassificationAdvisory(response), nil
}

// CheckEscalation asks the model whether a ticket needs a human.
func (c *Client) CheckEscalation(ctx context.Context, req escalation.AdvisoryRequest) (escalation.Advisory, error) {
	prompt := fmt.Sprintf(`Analyze this customer support ticket to determine if it needs escalation:

Subject: %s
Message: %s
Category: %s
Priority: %s

Consider escalation if:
- Customer is angry/frustrated
- Technical issue is complex
- Billing/payment issues
- Legal threats
- Request for manager/supervisor
- High-value customer concerns

Return ONLY a JSON object:
{
    "should_escalate": true/false,
    "reason": "explanation",
    "escalation_type": "technical/billing/management/legal",
    "priority_level": "standard/urgent",
    "confidence": 0.85
}`, req.Subject, req.Message, req.Category, req.Priority)

	response, err := c.complete(ctx, prompt)
	if err != nil {
		return escalation.Advisory{}, fmt.Errorf("failed to check escalation: %v", err)
	}
	return parseEscalationAdvisory(response), nil
}

// Generate produces the body of a reply email from the ticket and the
// supplied knowledge articles. Satisfies resolution.Generator.
func (c *Client) Generate(ctx context.Context, req resolution.GenerateRequest) (string, error) {
	var articles strings.Builder
	for i, result := range req.Articles {
		if i > 0 {
			articles.WriteString("\n\n")
		}
		fmt.Fprintf(&articles, "Article %d: %s\n%s", i+1, result.Article.Title, result.Article.Content)
	}
	articlesText := articles.String()
	if strings.TrimSpace(articlesText) == "" {
		articlesText = "No relevant articles found"
	}

	prompt := fmt.Sprintf(`You are a professional customer support agent writing an email response. Generate a helpful, professional email response to this customer ticket:

Customer Ticket:
Subject: %s
Message: %s

Relevant Knowledge Base Articles:
%s

Guidelines:
- Write in professional email format (but don't include "Subject:" or "Dear [Name]" - that will be added automatically)
- Be empathetic and acknowledge the customer's concern
- Provide clear, step-by-step solutions when possible
- Reference knowledge base information when relevant
- If no complete solution is available, acknowledge this and suggest next steps
- Use a helpful, professional tone
- End with an offer for additional assistance
- Do not include email signature (will be added automatically)

Generate the email body content only (starting with acknowledgment/empathy):`, req.Subject, req.Message, articlesText)

	response, err := c.complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate resolution: %v", err)
	}
	return strings.TrimSpace(response), nil
}

// Embed generates an embedding vector for the given text. Satisfies
// knowledge.Embedder.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %v", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}
	return resp.Data[0].Embedding, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a helpful customer support assistant.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func parseClassificationAdvisory(response string) classify.Advisory {
	var advisory classify.Advisory
	if err := json.Unmarshal([]byte(extractJSON(response)), &advisory); err != nil {
		return classify.Advisory{
			Category:   "general",
			Priority:   "medium",
			Confidence: 0.5,
			Reasoning:  "Unable to parse LLM response",
		}
	}
	return advisory
}

func parseEscalationAdvisory(response string) escalation.Advisory {
	var advisory escalation.Advisory
	if err := json.Unmarshal([]byte(extractJSON(response)), &advisory); err != nil {
		return escalation.Advisory{
			ShouldEscalate: false,
			Reason:         "Unable to analyze escalation need",
			PriorityLevel:  "standard",
			Confidence:     0.5,
		}
	}
	return advisory
}

// extractJSON strips markdown code fences that chat models wrap JSON
// payloads in.
func extractJSON(response string) string {
	s := strings.TrimSpace(response)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
