package store

import (
	"context"
	"errors"

	"github.com/prompt-general/ticketflow/pkg/models"
)

// ErrTicketNotFound is returned when a ticket ID has no stored record.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketStore persists tickets and the workflow states produced for
// them.
type TicketStore interface {
	CreateTicket(ctx context.Context, ticket *models.Ticket) error
	GetTicket(ctx context.Context, id string) (*models.Ticket, error)
	UpdateTicket(ctx context.Context, ticket *models.Ticket) error
	ListTickets(ctx context.Context) ([]*models.Ticket, error)
	SaveWorkflowState(ctx context.Context, state *models.WorkflowState) error
	GetWorkflowState(ctx context.Context, ticketID string) (*models.WorkflowState, error)
}
