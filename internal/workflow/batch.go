package workflow

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/prompt-general/ticketflow/pkg/models"
)

// ProcessBatch runs every ticket through the pipeline with at most
// maxConcurrent runs in flight. Results come back in input order, one
// per ticket. A run that fails despite the orchestrator's own
// boundaries is replaced by a terminal failed state; siblings are never
// cancelled.
func (o *Orchestrator) ProcessBatch(ctx context.Context, tickets []models.Ticket) []*models.WorkflowState {
	log.Printf("Processing batch of %d tickets", len(tickets))

	results := make([]*models.WorkflowState, len(tickets))
	semaphore := make(chan struct{}, o.maxConcurrent)

	var wg sync.WaitGroup
	for i, ticket := range tickets {
		wg.Add(1)
		go func(i int, ticket models.Ticket) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			defer func() {
				if r := recover(); r != nil {
					results[i] = o.batchFailureState(ticket, r)
				}
			}()

			results[i] = o.ProcessTicket(ctx, ticket)
		}(i, ticket)
	}
	wg.Wait()

	log.Printf("Batch processing complete: %d tickets processed", len(results))
	return results
}

// batchFailureState is the defensive substitute for a run that somehow
// escaped the orchestrator's own failure boundaries.
func (o *Orchestrator) batchFailureState(ticket models.Ticket, cause interface{}) *models.WorkflowState {
	state := &models.WorkflowState{
		Ticket:           ticket,
		KnowledgeResults: []models.SearchResult{},
		Status:           models.WorkflowFailed,
		ErrorMessages:    []string{fmt.Sprintf("%v", cause)},
		StartedAt:        o.now(),
		TotalErrors:      1,
	}
	state.Resolution = &models.Resolution{
		TicketID:              ticket.ID,
		Response:              "Processing failed due to technical error.",
		Confidence:            0.1,
		KnowledgeArticlesUsed: []string{},
		AgentType:             models.AgentBatchError,
		CreatedAt:             o.now(),
	}
	return state
}
