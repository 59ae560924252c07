package escalation

import (
	"context"
	"fmt"
	"strings"

	"github.com/prompt-general/ticketflow/pkg/models"
)

// Advisor obtains an advisory escalation judgment from an external
// model. The engine merges it with the deterministic rule set and never
// lets an advisory failure escape.
type Advisor interface {
	Advise(ctx context.Context, req AdvisoryRequest) (Advisory, error)
}

// AdvisoryRequest carries the ticket context the advisor judges
type AdvisoryRequest struct {
	Subject  string
	Message  string
	Category models.TicketCategory
	Priority models.TicketPriority
}

// Advisory is the raw escalation judgment from the external model
type Advisory struct {
	ShouldEscalate bool    `json:"should_escalate"`
	Reason         string  `json:"reason"`
	EscalationType string  `json:"escalation_type"`
	PriorityLevel  string  `json:"priority_level"`
	Confidence     float64 `json:"confidence"`
}

// Rules holds the keyword tables for the deterministic escalation
// rules. The tables are configuration data injected at construction.
type Rules struct {
	EscalationKeywords       []string
	SecurityLegalKeywords    []string
	LegalKeywords            []string
	BillingHighValueKeywords []string
	FrustrationKeywords      []string
	RetryIndicators          []string
}

// DefaultRules returns the built-in escalation rule tables
func DefaultRules() Rules {
	return Rules{
		EscalationKeywords: []string{
			"manager", "supervisor", "complain", "angry", "frustrated",
			"legal", "lawsuit", "refund", "cancel", "unsubscribe",
		},
		SecurityLegalKeywords: []string{
			"legal", "lawsuit", "lawyer", "attorney", "court",
			"hack", "breach", "fraud", "scam", "theft",
		},
		LegalKeywords: []string{"legal", "lawsuit", "lawyer"},
		BillingHighValueKeywords: []string{
			"refund", "cancel", "subscription", "charge", "payment failed",
		},
		FrustrationKeywords: []string{
			"angry", "frustrated", "disappointed", "terrible", "worst",
			"unacceptable", "ridiculous", "pathetic", "hate",
		},
		RetryIndicators: []string{
			"tried multiple times", "several attempts", "contacted before",
			"still not working", "again", "repeatedly",
		},
	}
}

// Engine merges the external advisory judgment with the deterministic
// escalation rules and derives routing metadata.
type Engine struct {
	advisor Advisor
	rules   Rules
}

// NewEngine creates an escalation engine with the given advisor and
// rule tables.
func NewEngine(advisor Advisor, rules Rules) *Engine {
	return &Engine{advisor: advisor, rules: rules}
}

// Evaluate decides whether the ticket needs human escalation. It never
// fails: any advisory error degrades to the fail-safe decision of
// escalating for human review.
func (e *Engine) Evaluate(ctx context.Context, ticket models.Ticket, classification models.Classification, results []models.SearchResult) models.EscalationDecision {
	advisory, err := e.advisor.Advise(ctx, AdvisoryRequest{
		Subject:  ticket.Subject,
		Message:  ticket.Message,
		Category: classification.Category,
		Priority: classification.Priority,
	})
	if err != nil {
		decision := models.EscalationDecision{
			ShouldEscalate: true,
			Reason:         fmt.Sprintf("Escalation evaluation failed: %v", err),
			EscalationType: models.EscalationTechnical,
			PriorityLevel:  models.LevelStandard,
			Confidence:     0.3,
		}
		decision.Routing = deriveRouting(decision)
		return decision
	}

	ruleDecision := e.applyRules(ticket, classification, results)
	decision := combine(advisory, ruleDecision)
	decision.Routing = deriveRouting(decision)
	return decision
}

// ruleResult is the outcome of the deterministic rule pass. The
// escalation type stays empty unless a type-setting rule fired, so the
// advisory type can still win the merge when the rules are silent.
type ruleResult struct {
	shouldEscalate bool
	reasons        []string
	escalationType models.EscalationType
	priorityLevel  models.PriorityLevel
	confidence     float64
}

// applyRules evaluates the independent escalation rules R1-R7. Every
// rule that fires contributes a reason to the audit trail.
func (e *Engine) applyRules(ticket models.Ticket, classification models.Classification, results []models.SearchResult) ruleResult {
	fullText := strings.ToLower(ticket.Subject + " " + ticket.Message)
	decision := ruleResult{priorityLevel: models.LevelStandard}

	// R1: critical priority tickets
	if classification.Priority == models.PriorityCritical {
		decision.shouldEscalate = true
		decision.reasons = append(decision.reasons, "Critical priority ticket")
		decision.priorityLevel = models.LevelUrgent
		decision.escalationType = models.EscalationTechnical
	}

	// R2: customer explicitly asking for escalation
	if containsAny(fullText, e.rules.EscalationKeywords) {
		decision.shouldEscalate = true
		decision.reasons = append(decision.reasons, "Customer requesting escalation")
		decision.escalationType = models.EscalationManagement
	}

	// R3: security or legal concerns
	if containsAny(fullText, e.rules.SecurityLegalKeywords) {
		decision.shouldEscalate = true
		decision.reasons = append(decision.reasons, "Security or legal concern")
		decision.priorityLevel = models.LevelUrgent
		if containsAny(fullText, e.rules.LegalKeywords) {
			decision.escalationType = models.EscalationLegal
		} else {
			decision.escalationType = models.EscalationSecurity
		}
	}

	// R4: complex technical issues with no good knowledge match
	if classification.Category == models.CategoryTechnical &&
		(classification.Priority == models.PriorityHigh || classification.Priority == models.PriorityCritical) &&
		(len(results) == 0 || results[0].Score < 0.6) {
		decision.shouldEscalate = true
		decision.reasons = append(decision.reasons, "Complex technical issue with no clear solution")
		decision.escalationType = models.EscalationTechnical
	}

	// R5: high-impact billing issues
	if classification.Category == models.CategoryBilling && containsAny(fullText, e.rules.BillingHighValueKeywords) {
		decision.shouldEscalate = true
		decision.reasons = append(decision.reasons, "High-impact billing issue")
		decision.escalationType = models.EscalationBilling
	}

	// R6: at least two distinct frustration signals
	frustrationCount := 0
	for _, keyword := range e.rules.FrustrationKeywords {
		if strings.Contains(fullText, keyword) {
			frustrationCount++
		}
	}
	if frustrationCount >= 2 {
		decision.shouldEscalate = true
		decision.reasons = append(decision.reasons, "Customer showing high frustration")
		decision.escalationType = models.EscalationManagement
	}

	// R7: repeated resolution attempts; leaves the type untouched
	if containsAny(fullText, e.rules.RetryIndicators) {
		decision.shouldEscalate = true
		decision.reasons = append(decision.reasons, "Multiple failed resolution attempts")
	}

	switch {
	case len(decision.reasons) > 2:
		decision.confidence = 0.9
	case len(decision.reasons) == 2:
		decision.confidence = 0.8
	case len(decision.reasons) == 1:
		decision.confidence = 0.7
	default:
		decision.confidence = 0.5
	}

	return decision
}

// combine merges the advisory judgment with the rule outcome. Either
// source can force escalation; the rules cannot veto an advisory
// escalation.
func combine(advisory Advisory, rules ruleResult) models.EscalationDecision {
	shouldEscalate := advisory.ShouldEscalate || rules.shouldEscalate

	var reasons []string
	if advisory.Reason != "" {
		reasons = append(reasons, "AI: "+advisory.Reason)
	}
	if len(rules.reasons) > 0 {
		reasons = append(reasons, "Rules: "+strings.Join(rules.reasons, "; "))
	}
	reason := strings.Join(reasons, "; ")
	if reason == "" {
		reason = "No escalation needed"
	}

	// Rule-side type takes precedence over the advisory type
	escalationType := rules.escalationType
	if escalationType == "" {
		escalationType = models.EscalationType(strings.ToLower(advisory.EscalationType))
	}
	if escalationType == "" {
		escalationType = models.EscalationGeneral
	}

	// Highest priority level wins; ties keep the rule-side value
	priorityLevel := rules.priorityLevel
	advisoryLevel := models.PriorityLevel(strings.ToLower(advisory.PriorityLevel))
	if advisoryLevel.Rank() > priorityLevel.Rank() {
		priorityLevel = advisoryLevel
	}

	advisoryConfidence := advisory.Confidence
	if advisoryConfidence <= 0 || advisoryConfidence > 1 {
		advisoryConfidence = 0.5
	}

	return models.EscalationDecision{
		ShouldEscalate: shouldEscalate,
		Reason:         reason,
		EscalationType: escalationType,
		PriorityLevel:  priorityLevel,
		Confidence:     (advisoryConfidence + rules.confidence) / 2,
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
