package resolution

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompt-general/ticketflow/pkg/models"
)

type stubGenerator struct {
	response string
	err      error
	lastReq  GenerateRequest
}

func (s *stubGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	s.lastReq = req
	return s.response, s.err
}

type recordingUsage struct {
	incremented []string
	err         error
}

func (r *recordingUsage) IncrementUsage(ctx context.Context, articleID string) error {
	r.incremented = append(r.incremented, articleID)
	return r.err
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	}
}

func newTestSynthesizer(generator Generator, usage UsageRecorder) *Synthesizer {
	s := NewSynthesizer(generator, usage, 1000)
	s.now = fixedClock()
	return s
}

func testTicket() models.Ticket {
	return models.Ticket{
		ID:           "tkt-42",
		CustomerID:   "cust-1",
		CustomerName: "Ada Lovelace",
		Subject:      "Export problem",
		Message:      "Exports hang at 90 percent",
	}
}

func TestSynthesizeAIUsesTopThreeArticles(t *testing.T) {
	generator := &stubGenerator{response: "You can fix this by clearing the export queue and retrying. Please let me know if that helps."}
	usage := &recordingUsage{}
	s := newTestSynthesizer(generator, usage)

	results := []models.SearchResult{
		{Article: models.Article{ID: "kb-1"}, Score: 0.9},
		{Article: models.Article{ID: "kb-2"}, Score: 0.8},
		{Article: models.Article{ID: "kb-3"}, Score: 0.7},
		{Article: models.Article{ID: "kb-4"}, Score: 0.6},
	}

	resolution := s.SynthesizeAI(context.Background(), testTicket(), models.Classification{
		Category:   models.CategoryTechnical,
		Priority:   models.PriorityMedium,
		Confidence: 0.8,
	}, results)

	assert.Equal(t, models.AgentAI, resolution.AgentType)
	assert.Equal(t, []string{"kb-1", "kb-2", "kb-3"}, resolution.KnowledgeArticlesUsed)
	assert.Equal(t, []string{"kb-1", "kb-2", "kb-3"}, usage.incremented)
	assert.Len(t, generator.lastReq.Articles, 3)
	assert.Equal(t, "tkt-42", resolution.TicketID)
}

func TestSynthesizeAIGeneratorFailureFallsBack(t *testing.T) {
	generator := &stubGenerator{err: errors.New("model overloaded")}
	s := newTestSynthesizer(generator, nil)

	resolution := s.SynthesizeAI(context.Background(), testTicket(), models.Classification{
		Category: models.CategoryGeneral, Priority: models.PriorityLow, Confidence: 0.9,
	}, nil)

	assert.Equal(t, models.AgentAIFallback, resolution.AgentType)
	assert.Equal(t, 0.2, resolution.Confidence)
	assert.Empty(t, resolution.KnowledgeArticlesUsed)
	assert.Contains(t, resolution.Response, "Dear Ada,")
	assert.Contains(t, resolution.Response, "connecting you with one of our specialists")
}

func TestSynthesizeAIUsageFailureDoesNotPropagate(t *testing.T) {
	generator := &stubGenerator{response: "Clear the cache and retry. Please let me know if you need anything else."}
	usage := &recordingUsage{err: errors.New("store down")}
	s := newTestSynthesizer(generator, usage)

	resolution := s.SynthesizeAI(context.Background(), testTicket(), models.Classification{
		Category: models.CategoryTechnical, Priority: models.PriorityLow, Confidence: 0.5,
	}, []models.SearchResult{{Article: models.Article{ID: "kb-1"}, Score: 0.7}})

	assert.Equal(t, models.AgentAI, resolution.AgentType)
	assert.Equal(t, []string{"kb-1"}, resolution.KnowledgeArticlesUsed)
}

func TestResolutionConfidenceClamped(t *testing.T) {
	tests := []struct {
		name           string
		classification models.Classification
		results        []models.SearchResult
		responseLength int
		check          func(t *testing.T, got float64)
	}{
		{
			name: "extreme inputs stay below cap",
			classification: models.Classification{
				Category: models.CategoryGeneral, Confidence: 1.0,
			},
			results: []models.SearchResult{
				{Score: 1.0}, {Score: 1.0}, {Score: 1.0},
			},
			responseLength: 5000,
			check: func(t *testing.T, got float64) {
				assert.Equal(t, 0.95, got)
			},
		},
		{
			name: "worthless inputs stay above floor",
			classification: models.Classification{
				Category: models.CategoryTechnical, Confidence: 0,
			},
			results:        nil,
			responseLength: 0,
			check: func(t *testing.T, got float64) {
				assert.GreaterOrEqual(t, got, 0.1)
			},
		},
		{
			name: "no candidates uses low knowledge factor",
			classification: models.Classification{
				Category: models.CategoryGeneral, Confidence: 0.6,
			},
			results:        nil,
			responseLength: 300,
			check: func(t *testing.T, got float64) {
				// 0.6*0.3 + 0.1 + (300/500)*0.2 + 0.8*0.1 = 0.48
				assert.InDelta(t, 0.48, got, 1e-9)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolutionConfidence(tt.classification, tt.results, tt.responseLength)
			tt.check(t, got)
			assert.GreaterOrEqual(t, got, 0.1)
			assert.LessOrEqual(t, got, 0.95)
		})
	}
}

func TestSynthesizeEscalationTemplates(t *testing.T) {
	s := newTestSynthesizer(&stubGenerator{}, nil)

	tests := []struct {
		name     string
		decision models.EscalationDecision
		fragment string
	}{
		{
			name: "billing template",
			decision: models.EscalationDecision{
				ShouldEscalate: true,
				EscalationType: models.EscalationBilling,
				PriorityLevel:  models.LevelStandard,
			},
			fragment: "billing specialists",
		},
		{
			name: "security template",
			decision: models.EscalationDecision{
				ShouldEscalate: true,
				EscalationType: models.EscalationSecurity,
				PriorityLevel:  models.LevelUrgent,
			},
			fragment: "security team",
		},
		{
			name: "unknown type falls back to technical",
			decision: models.EscalationDecision{
				ShouldEscalate: true,
				EscalationType: models.EscalationType("mystery"),
				PriorityLevel:  models.LevelStandard,
			},
			fragment: "senior engineering team",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolution := s.SynthesizeEscalation(testTicket(), tt.decision)

			assert.Equal(t, models.AgentEscalation, resolution.AgentType)
			assert.Equal(t, 0.9, resolution.Confidence)
			assert.Empty(t, resolution.KnowledgeArticlesUsed)
			assert.Contains(t, resolution.Response, tt.fragment)
			assert.Contains(t, resolution.Response, "Dear Ada,")
			assert.Contains(t, resolution.Response, "Your ticket reference number is: tkt-42")
		})
	}
}

func TestSynthesizeEscalationUrgentContext(t *testing.T) {
	s := newTestSynthesizer(&stubGenerator{}, nil)

	urgent := s.SynthesizeEscalation(testTicket(), models.EscalationDecision{
		ShouldEscalate: true,
		EscalationType: models.EscalationTechnical,
		PriorityLevel:  models.LevelUrgent,
	})
	standard := s.SynthesizeEscalation(testTicket(), models.EscalationDecision{
		ShouldEscalate: true,
		EscalationType: models.EscalationTechnical,
		PriorityLevel:  models.LevelStandard,
	})

	assert.Contains(t, urgent.Response, "marked as urgent")
	assert.NotContains(t, standard.Response, "marked as urgent")
}

func TestSynthesizeEscalationGeneratedReference(t *testing.T) {
	s := newTestSynthesizer(&stubGenerator{}, nil)

	ticket := testTicket()
	ticket.ID = ""
	ticket.CustomerName = ""

	resolution := s.SynthesizeEscalation(ticket, models.EscalationDecision{
		ShouldEscalate: true,
		EscalationType: models.EscalationManagement,
		PriorityLevel:  models.LevelStandard,
	})

	assert.Equal(t, "generated", resolution.TicketID)
	assert.Contains(t, resolution.Response, "Dear Valued Customer,")
	assert.Contains(t, resolution.Response, "TKT-20240315103000")
}

func TestSynthesizeAILongResponseTrimmed(t *testing.T) {
	longResponse := strings.Repeat("This sentence pads the reply well past the configured cap. ", 40)
	generator := &stubGenerator{response: longResponse}
	s := newTestSynthesizer(generator, nil)

	resolution := s.SynthesizeAI(context.Background(), testTicket(), models.Classification{
		Category: models.CategoryGeneral, Priority: models.PriorityLow, Confidence: 0.5,
	}, nil)

	require.LessOrEqual(t, len(resolution.Response), 1000)
	assert.True(t, strings.HasSuffix(resolution.Response, ".") || strings.HasSuffix(resolution.Response, "..."))
}
