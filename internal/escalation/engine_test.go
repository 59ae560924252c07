package escalation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompt-general/ticketflow/pkg/models"
)

type stubAdvisor struct {
	advisory Advisory
	err      error
}

func (s stubAdvisor) Advise(ctx context.Context, req AdvisoryRequest) (Advisory, error) {
	return s.advisory, s.err
}

func neutralAdvisor() stubAdvisor {
	return stubAdvisor{advisory: Advisory{Confidence: 0.5, PriorityLevel: "standard"}}
}

func TestEvaluateAdvisoryFailureFailsSafe(t *testing.T) {
	engine := NewEngine(stubAdvisor{err: errors.New("timeout")}, DefaultRules())

	decision := engine.Evaluate(context.Background(), models.Ticket{
		Subject: "Simple question",
		Message: "How do I change my avatar?",
	}, models.Classification{Category: models.CategoryGeneral, Priority: models.PriorityLow}, nil)

	assert.True(t, decision.ShouldEscalate)
	assert.Equal(t, models.EscalationTechnical, decision.EscalationType)
	assert.Equal(t, models.LevelStandard, decision.PriorityLevel)
	assert.Equal(t, 0.3, decision.Confidence)
	require.NotNil(t, decision.Routing)
	assert.Equal(t, models.RoutingHumanAgent, decision.Routing.Target)
}

func TestEvaluateCriticalPriorityEscalates(t *testing.T) {
	engine := NewEngine(neutralAdvisor(), DefaultRules())

	decision := engine.Evaluate(context.Background(), models.Ticket{
		Subject: "Everything stopped",
		Message: "Production system is offline",
	}, models.Classification{Category: models.CategoryTechnical, Priority: models.PriorityCritical}, nil)

	assert.True(t, decision.ShouldEscalate)
	assert.Equal(t, models.EscalationTechnical, decision.EscalationType)
	assert.Equal(t, models.LevelUrgent, decision.PriorityLevel)
	assert.Contains(t, decision.Reason, "Critical priority ticket")
}

// Frustration (R6) plus repeated attempts (R7) must escalate to
// management even with a quiet advisory.
func TestEvaluateFrustratedRetryScenario(t *testing.T) {
	engine := NewEngine(neutralAdvisor(), DefaultRules())

	decision := engine.Evaluate(context.Background(), models.Ticket{
		Subject: "Cannot log in",
		Message: "I tried resetting my password three times, still not working, very frustrated and angry",
	}, models.Classification{
		Category:   models.CategoryAccount,
		Priority:   models.PriorityMedium,
		Confidence: 0.6,
	}, nil)

	assert.True(t, decision.ShouldEscalate)
	assert.Equal(t, models.EscalationManagement, decision.EscalationType)
	assert.Contains(t, decision.Reason, "Customer showing high frustration")
	assert.Contains(t, decision.Reason, "Multiple failed resolution attempts")
}

func TestEvaluateBillingHighValueEscalates(t *testing.T) {
	engine := NewEngine(neutralAdvisor(), DefaultRules())

	// Candidate scores must not matter for R5
	goodMatch := []models.SearchResult{
		{Article: models.Article{ID: "kb-1"}, Score: 0.95},
	}

	decision := engine.Evaluate(context.Background(), models.Ticket{
		Subject: "Refund request",
		Message: "My payment failed twice and I want a refund",
	}, models.Classification{Category: models.CategoryBilling, Priority: models.PriorityMedium}, goodMatch)

	assert.True(t, decision.ShouldEscalate)
	assert.Equal(t, models.EscalationBilling, decision.EscalationType)
	assert.Contains(t, decision.Reason, "High-impact billing issue")
}

func TestEvaluateTechnicalNoKnowledgeMatch(t *testing.T) {
	engine := NewEngine(neutralAdvisor(), DefaultRules())

	tests := []struct {
		name    string
		results []models.SearchResult
		want    bool
	}{
		{"no candidates", nil, true},
		{"weak best candidate", []models.SearchResult{{Score: 0.5}}, true},
		{"strong best candidate", []models.SearchResult{{Score: 0.8}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := engine.Evaluate(context.Background(), models.Ticket{
				Subject: "Integration trouble",
				Message: "The webhook delivery stops after a while",
			}, models.Classification{Category: models.CategoryTechnical, Priority: models.PriorityHigh}, tt.results)

			assert.Equal(t, tt.want, decision.ShouldEscalate)
		})
	}
}

func TestEvaluateLegalBeatsSecurity(t *testing.T) {
	engine := NewEngine(neutralAdvisor(), DefaultRules())

	decision := engine.Evaluate(context.Background(), models.Ticket{
		Subject: "Lawsuit notice",
		Message: "My lawyer will contact you about this",
	}, models.Classification{Category: models.CategoryGeneral, Priority: models.PriorityMedium}, nil)

	assert.True(t, decision.ShouldEscalate)
	assert.Equal(t, models.EscalationLegal, decision.EscalationType)
	assert.Equal(t, models.LevelUrgent, decision.PriorityLevel)
}

func TestCombineAdvisoryCanForceEscalation(t *testing.T) {
	engine := NewEngine(stubAdvisor{advisory: Advisory{
		ShouldEscalate: true,
		Reason:         "High-value customer at churn risk",
		EscalationType: "management",
		PriorityLevel:  "urgent",
		Confidence:     0.8,
	}}, DefaultRules())

	decision := engine.Evaluate(context.Background(), models.Ticket{
		Subject: "Plan question",
		Message: "Thinking about our options going forward",
	}, models.Classification{Category: models.CategoryGeneral, Priority: models.PriorityLow}, nil)

	assert.True(t, decision.ShouldEscalate)
	assert.Equal(t, models.EscalationManagement, decision.EscalationType)
	assert.Equal(t, models.LevelUrgent, decision.PriorityLevel)
	assert.Contains(t, decision.Reason, "AI: High-value customer at churn risk")
	// Mean of advisory 0.8 and rule base 0.5
	assert.InDelta(t, 0.65, decision.Confidence, 1e-9)
}

func TestCombineConfidenceAlwaysBounded(t *testing.T) {
	engine := NewEngine(stubAdvisor{advisory: Advisory{
		ShouldEscalate: true,
		Confidence:     42, // malformed, replaced by the neutral default
	}}, DefaultRules())

	decision := engine.Evaluate(context.Background(), models.Ticket{
		Subject: "breach lawsuit refund angry frustrated",
		Message: "again and again, terrible, worst, unacceptable",
	}, models.Classification{Category: models.CategoryBilling, Priority: models.PriorityCritical}, nil)

	assert.GreaterOrEqual(t, decision.Confidence, 0.0)
	assert.LessOrEqual(t, decision.Confidence, 1.0)
}

func TestEvaluateDeterministic(t *testing.T) {
	engine := NewEngine(neutralAdvisor(), DefaultRules())
	ticket := models.Ticket{
		Subject: "Refund please",
		Message: "I am frustrated and angry, tried multiple times",
	}
	classification := models.Classification{Category: models.CategoryBilling, Priority: models.PriorityMedium}

	first := engine.Evaluate(context.Background(), ticket, classification, nil)
	second := engine.Evaluate(context.Background(), ticket, classification, nil)

	assert.Equal(t, first, second)
}

func TestDeriveRouting(t *testing.T) {
	tests := []struct {
		name           string
		decision       models.EscalationDecision
		wantTarget     string
		wantDepartment string
		wantSkill      string
		wantWait       string
	}{
		{
			name:       "no escalation routes to AI",
			decision:   models.EscalationDecision{ShouldEscalate: false},
			wantTarget: models.RoutingAIResolution,
		},
		{
			name: "urgent technical bumps skill tier",
			decision: models.EscalationDecision{
				ShouldEscalate: true,
				EscalationType: models.EscalationTechnical,
				PriorityLevel:  models.LevelUrgent,
			},
			wantTarget:     models.RoutingHumanAgent,
			wantDepartment: "Technical Support",
			wantSkill:      "senior",
			wantWait:       "15-30 minutes",
		},
		{
			name: "unknown type falls back to technical",
			decision: models.EscalationDecision{
				ShouldEscalate: true,
				EscalationType: models.EscalationType("mystery"),
				PriorityLevel:  models.LevelStandard,
			},
			wantTarget:     models.RoutingHumanAgent,
			wantDepartment: "Technical Support",
			wantSkill:      "standard",
			wantWait:       "1-2 hours",
		},
		{
			name: "urgent security is immediate",
			decision: models.EscalationDecision{
				ShouldEscalate: true,
				EscalationType: models.EscalationSecurity,
				PriorityLevel:  models.LevelUrgent,
			},
			wantTarget:     models.RoutingHumanAgent,
			wantDepartment: "Security Team",
			wantSkill:      "specialist",
			wantWait:       "Immediate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routing := deriveRouting(tt.decision)
			require.NotNil(t, routing)
			assert.Equal(t, tt.wantTarget, routing.Target)
			assert.Equal(t, tt.wantDepartment, routing.Department)
			assert.Equal(t, tt.wantSkill, routing.SkillLevel)
			assert.Equal(t, tt.wantWait, routing.EstimatedWait)
		})
	}
}
