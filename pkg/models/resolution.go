package models

import (
	"time"
)

// AgentType identifies which path produced a resolution
type AgentType string

const (
	AgentAI                 AgentType = "ai"
	AgentEscalation         AgentType = "escalation"
	AgentAIFallback         AgentType = "ai_fallback"
	AgentFallback           AgentType = "fallback"
	AgentEscalationFallback AgentType = "escalation_fallback"
	AgentErrorFallback      AgentType = "error_fallback"
	AgentBatchError         AgentType = "batch_error"
)

// Resolution represents the final reply produced for a ticket, either
// an automated answer or a structured hand-off message.
type Resolution struct {
	TicketID              string    `json:"ticket_id"`
	Response              string    `json:"response"`
	Confidence            float64   `json:"confidence"`
	KnowledgeArticlesUsed []string  `json:"knowledge_articles_used"`
	AgentType             AgentType `json:"agent_type"`
	CreatedAt             time.Time `json:"created_at"`
}

// Feedback represents customer feedback on a resolution, consumed by
// the learning loop.
type Feedback struct {
	TicketID       string `json:"ticket_id"`
	ResolutionID   string `json:"resolution_id,omitempty"`
	WasHelpful     bool   `json:"was_helpful"`
	CustomerRating *int   `json:"customer_rating,omitempty"` // 1-5
	FeedbackText   string `json:"feedback_text,omitempty"`
}
