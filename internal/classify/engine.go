package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/prompt-general/ticketflow/pkg/models"
)

// Advisor obtains an advisory classification from an external model.
// Advisories are untrusted input; the engine validates every field and
// falls back to defaults for anything unusable.
type Advisor interface {
	Advise(ctx context.Context, subject, message string) (Advisory, error)
}

// Advisory is the raw judgment returned by the external classifier
type Advisory struct {
	Category   string  `json:"category"`
	Priority   string  `json:"priority"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// CategoryRule raises a ticket's priority to a minimum when any of its
// trigger keywords appears in the text and the advisory category
// matches.
type CategoryRule struct {
	Keywords    []string
	MinPriority models.TicketPriority
}

// Rules holds the keyword tables the engine evaluates after the
// advisory. The tables are configuration data; the engine never
// mutates them.
type Rules struct {
	HighPriorityKeywords []string
	CategoryRules        map[models.TicketCategory]CategoryRule
	SecurityKeywords     []string
}

// DefaultRules returns the built-in rule tables
func DefaultRules() Rules {
	return Rules{
		HighPriorityKeywords: []string{
			"urgent", "critical", "down", "broken", "error", "bug",
			"payment", "billing", "security", "hack", "breach",
		},
		CategoryRules: map[models.TicketCategory]CategoryRule{
			models.CategoryBilling: {
				Keywords:    []string{"payment", "charge", "bill", "invoice"},
				MinPriority: models.PriorityMedium,
			},
			models.CategoryTechnical: {
				Keywords:    []string{"bug", "error", "crash", "broken"},
				MinPriority: models.PriorityMedium,
			},
		},
		SecurityKeywords: []string{"hack", "breach", "security", "fraud", "phishing"},
	}
}

// Engine merges the external advisory classification with the
// deterministic keyword rules.
type Engine struct {
	advisor Advisor
	rules   Rules
}

// NewEngine creates a classification engine with the given advisor and
// rule tables.
func NewEngine(advisor Advisor, rules Rules) *Engine {
	return &Engine{advisor: advisor, rules: rules}
}

// Classify assigns a category and priority to the ticket. It never
// fails: advisory errors degrade to the conservative default
// classification with the failure recorded in the reasoning trail.
func (e *Engine) Classify(ctx context.Context, ticket models.Ticket) models.Classification {
	advisory, err := e.advisor.Advise(ctx, ticket.Subject, ticket.Message)
	if err != nil {
		return models.Classification{
			Category:   models.CategoryGeneral,
			Priority:   models.PriorityMedium,
			Confidence: 0.3,
			Reasoning:  fmt.Sprintf("Classification failed: %v", err),
		}
	}

	classification := e.normalize(advisory)
	e.applyRules(ticket, &classification)
	return classification
}

// normalize converts the raw advisory into a validated classification,
// substituting defaults for unusable fields.
func (e *Engine) normalize(advisory Advisory) models.Classification {
	category := models.TicketCategory(strings.ToLower(advisory.Category))
	if !category.Valid() {
		category = models.CategoryGeneral
	}

	priority := models.TicketPriority(strings.ToLower(advisory.Priority))
	if !priority.Valid() {
		priority = models.PriorityMedium
	}

	confidence := advisory.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.5
	}

	return models.Classification{
		Category:   category,
		Priority:   priority,
		Confidence: confidence,
		Reasoning:  advisory.Reasoning,
	}
}

// applyRules adjusts the advisory classification with the keyword rule
// tables. The security rule is evaluated last so it always wins ties.
func (e *Engine) applyRules(ticket models.Ticket, c *models.Classification) {
	fullText := strings.ToLower(ticket.Subject + " " + ticket.Message)

	if containsAny(fullText, e.rules.HighPriorityKeywords) {
		if c.Priority == models.PriorityLow || c.Priority == models.PriorityMedium {
			c.Priority = models.PriorityHigh
			c.Confidence = min(c.Confidence+0.2, 1.0)
			c.AppendReasoning(" (Elevated due to urgent keywords)")
		}
	}

	if rule, ok := e.rules.CategoryRules[c.Category]; ok {
		if containsAny(fullText, rule.Keywords) && c.Priority.Level() < rule.MinPriority.Level() {
			c.Priority = rule.MinPriority
			c.AppendReasoning(fmt.Sprintf(" (Elevated for %s category)", c.Category))
		}
	}

	if containsAny(fullText, e.rules.SecurityKeywords) {
		c.Priority = models.PriorityCritical
		c.Category = models.CategoryTechnical
		c.Confidence = min(c.Confidence+0.3, 1.0)
		c.AppendReasoning(" (Security issue detected)")
	}
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
