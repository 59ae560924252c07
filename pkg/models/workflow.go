package models

import (
	"time"
)

// WorkflowStatus tracks a run through the pipeline stages. Transitions
// are monotonic; once failed is reached no further stage writes occur.
type WorkflowStatus string

const (
	WorkflowStarted           WorkflowStatus = "started"
	WorkflowClassified        WorkflowStatus = "classified"
	WorkflowKnowledgeSearched WorkflowStatus = "knowledge_searched"
	WorkflowEscalationChecked WorkflowStatus = "escalation_checked"
	WorkflowResolved          WorkflowStatus = "resolved"
	WorkflowEscalated         WorkflowStatus = "escalated"
	WorkflowCompleted         WorkflowStatus = "completed"
	WorkflowFailed            WorkflowStatus = "failed"
)

// WorkflowState accumulates the results of one ticket's run through the
// pipeline. A state is created fresh per ticket at orchestration start
// and exclusively owned by its run; ErrorMessages is append-only and
// never cleared.
type WorkflowState struct {
	Ticket        Ticket              `json:"ticket"`
	Classification *Classification    `json:"classification,omitempty"`
	KnowledgeResults []SearchResult   `json:"knowledge_results"`
	Escalation    *EscalationDecision `json:"escalation_decision,omitempty"`
	Resolution    *Resolution         `json:"resolution,omitempty"`
	Status        WorkflowStatus      `json:"workflow_status"`
	ErrorMessages []string            `json:"error_messages"`
	StartedAt     time.Time           `json:"started_at"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
	TotalErrors   int                 `json:"total_errors"`
}

// AddError appends a message to the error trail
func (s *WorkflowState) AddError(msg string) {
	s.ErrorMessages = append(s.ErrorMessages, msg)
}
