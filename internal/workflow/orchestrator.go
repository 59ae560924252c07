package workflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/prompt-general/ticketflow/pkg/models"
)

// Classifier assigns a category and priority to a ticket
type Classifier interface {
	Classify(ctx context.Context, ticket models.Ticket) models.Classification
}

// Searcher retrieves ranked knowledge articles for a ticket
type Searcher interface {
	Search(ctx context.Context, ticket models.Ticket, classification models.Classification) []models.SearchResult
}

// Evaluator decides whether a ticket needs human escalation
type Evaluator interface {
	Evaluate(ctx context.Context, ticket models.Ticket, classification models.Classification, results []models.SearchResult) models.EscalationDecision
}

// Resolver produces the final reply for either pipeline branch
type Resolver interface {
	SynthesizeAI(ctx context.Context, ticket models.Ticket, classification models.Classification, results []models.SearchResult) models.Resolution
	SynthesizeEscalation(ticket models.Ticket, decision models.EscalationDecision) models.Resolution
}

// Publisher receives completed workflow states, e.g. for event
// streaming. Publishing is best effort.
type Publisher interface {
	Publish(ctx context.Context, state *models.WorkflowState) error
}

// Orchestrator drives a ticket through the pipeline stages: classify,
// search knowledge, check escalation, then one of the two resolution
// branches, then finalize. Each stage runs inside its own failure
// boundary; the pipeline always reaches finalize with best-effort
// partial results.
type Orchestrator struct {
	classifier Classifier
	searcher   Searcher
	evaluator  Evaluator
	resolver   Resolver
	publisher  Publisher

	maxConcurrent int
	now           func() time.Time
}

// NewOrchestrator wires the pipeline stages together. The publisher
// may be nil; maxConcurrent bounds batch parallelism and defaults to 3.
func NewOrchestrator(classifier Classifier, searcher Searcher, evaluator Evaluator, resolver Resolver, publisher Publisher, maxConcurrent int) *Orchestrator {
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	return &Orchestrator{
		classifier:    classifier,
		searcher:      searcher,
		evaluator:     evaluator,
		resolver:      resolver,
		publisher:     publisher,
		maxConcurrent: maxConcurrent,
		now:           time.Now,
	}
}

// ProcessTicket runs one ticket through the pipeline. It never returns
// an error and never panics: anything escaping the stage boundaries is
// converted into a terminal failed state with a generic fallback
// resolution.
func (o *Orchestrator) ProcessTicket(ctx context.Context, ticket models.Ticket) (state *models.WorkflowState) {
	state = &models.WorkflowState{
		Ticket:           ticket,
		KnowledgeResults: []models.SearchResult{},
		Status:           models.WorkflowStarted,
		ErrorMessages:    []string{},
		StartedAt:        o.now(),
	}

	defer func() {
		if r := recover(); r != nil {
			errMsg := fmt.Sprintf("Workflow execution failed: %v", r)
			log.Printf("Ticket %s: %s", ticket.ID, errMsg)
			state.AddError(errMsg)
			state.Status = models.WorkflowFailed
			state.Resolution = &models.Resolution{
				TicketID:              ticket.ID,
				Response:              "I apologize for the technical difficulty. Please contact our support team directly.",
				Confidence:            0.1,
				KnowledgeArticlesUsed: []string{},
				AgentType:             models.AgentErrorFallback,
				CreatedAt:             o.now(),
			}
			state.TotalErrors = len(state.ErrorMessages)
		}
	}()

	o.classifyStage(ctx, state)
	o.searchKnowledgeStage(ctx, state)
	o.checkEscalationStage(ctx, state)

	if state.Escalation.ShouldEscalate {
		o.escalateTicketStage(ctx, state)
	} else {
		o.generateResolutionStage(ctx, state)
	}

	o.finalize(ctx, state)
	return state
}

// classifyStage assigns the ticket's classification, substituting the
// conservative default on failure.
func (o *Orchestrator) classifyStage(ctx context.Context, state *models.WorkflowState) {
	defer o.stageGuard(state, "Classification", func() {
		state.Classification = &models.Classification{
			Category:   models.CategoryGeneral,
			Priority:   models.PriorityMedium,
			Confidence: 0.3,
			Reasoning:  lastError(state),
		}
	})()

	classification := o.classifier.Classify(ctx, state.Ticket)
	state.Classification = &classification
	state.Status = models.WorkflowClassified
}

// searchKnowledgeStage retrieves ranked articles; failure yields an
// empty candidate list.
func (o *Orchestrator) searchKnowledgeStage(ctx context.Context, state *models.WorkflowState) {
	defer o.stageGuard(state, "Knowledge search", func() {
		state.KnowledgeResults = []models.SearchResult{}
	})()

	results := o.searcher.Search(ctx, state.Ticket, *state.Classification)
	if results == nil {
		results = []models.SearchResult{}
	}
	state.KnowledgeResults = results
	state.Status = models.WorkflowKnowledgeSearched
}

// checkEscalationStage evaluates the escalation rules; failure defaults
// to escalating for human review.
func (o *Orchestrator) checkEscalationStage(ctx context.Context, state *models.WorkflowState) {
	defer o.stageGuard(state, "Escalation check", func() {
		state.Escalation = &models.EscalationDecision{
			ShouldEscalate: true,
			Reason:         lastError(state),
			EscalationType: models.EscalationTechnical,
			PriorityLevel:  models.LevelStandard,
			Confidence:     0.3,
		}
	})()

	decision := o.evaluator.Evaluate(ctx, state.Ticket, *state.Classification, state.KnowledgeResults)
	state.Escalation = &decision
	state.Status = models.WorkflowEscalationChecked
}

// generateResolutionStage produces the AI-path reply
func (o *Orchestrator) generateResolutionStage(ctx context.Context, state *models.WorkflowState) {
	defer o.stageGuard(state, "Resolution generation", func() {
		state.Resolution = &models.Resolution{
			TicketID:              state.Ticket.ID,
			Response:              "I apologize, but I'm experiencing technical difficulties. A human agent will assist you shortly.",
			Confidence:            0.1,
			KnowledgeArticlesUsed: []string{},
			AgentType:             models.AgentFallback,
			CreatedAt:             o.now(),
		}
	})()

	resolution := o.resolver.SynthesizeAI(ctx, state.Ticket, *state.Classification, state.KnowledgeResults)
	state.Resolution = &resolution
	state.Status = models.WorkflowResolved
}

// escalateTicketStage produces the hand-off reply
func (o *Orchestrator) escalateTicketStage(ctx context.Context, state *models.WorkflowState) {
	defer o.stageGuard(state, "Escalation", func() {
		state.Resolution = &models.Resolution{
			TicketID:              state.Ticket.ID,
			Response:              "Your request has been escalated to our specialist team. Someone will contact you shortly.",
			Confidence:            0.8,
			KnowledgeArticlesUsed: []string{},
			AgentType:             models.AgentEscalationFallback,
			CreatedAt:             o.now(),
		}
	})()

	resolution := o.resolver.SynthesizeEscalation(state.Ticket, *state.Escalation)
	state.Resolution = &resolution
	state.Status = models.WorkflowEscalated
}

// finalize closes the run. It records the error count, marks the state
// completed, and notifies the publisher. It never fails.
func (o *Orchestrator) finalize(ctx context.Context, state *models.WorkflowState) {
	state.Status = models.WorkflowCompleted
	completedAt := o.now()
	state.CompletedAt = &completedAt
	state.TotalErrors = len(state.ErrorMessages)

	if len(state.ErrorMessages) > 0 {
		log.Printf("Ticket %s completed with %d errors", state.Ticket.ID, len(state.ErrorMessages))
	}

	if o.publisher != nil {
		if err := o.publisher.Publish(ctx, state); err != nil {
			log.Printf("Failed to publish workflow result for ticket %s: %v", state.Ticket.ID, err)
		}
	}
}

// stageGuard returns the deferred failure boundary for a stage: a panic
// is recovered, recorded in the error trail, and the stage's
// conservative default is substituted. The pipeline never aborts early.
func (o *Orchestrator) stageGuard(state *models.WorkflowState, stage string, applyDefault func()) func() {
	return func() {
		if r := recover(); r != nil {
			state.AddError(fmt.Sprintf("%s failed: %v", stage, r))
			applyDefault()
		}
	}
}

// lastError returns the most recent error message, for use in default
// reasoning fields.
func lastError(state *models.WorkflowState) string {
	if len(state.ErrorMessages) == 0 {
		return ""
	}
	return state.ErrorMessages[len(state.ErrorMessages)-1]
}
