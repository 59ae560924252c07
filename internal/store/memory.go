package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prompt-general/ticketflow/pkg/models"
)

// MemoryStore is an in-process TicketStore. It assigns IDs on create
// and keeps workflow states keyed by ticket ID. Suitable for single
// node deployments and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]*models.Ticket
	states  map[string]*models.WorkflowState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets: make(map[string]*models.Ticket),
		states:  make(map[string]*models.WorkflowState),
	}
}

func (s *MemoryStore) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket.ID == "" {
		ticket.ID = uuid.New().String()
	}
	if ticket.Status == "" {
		ticket.Status = models.TicketStatusNew
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}

	stored := *ticket
	s.tickets[ticket.ID] = &stored
	return nil
}

func (s *MemoryStore) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, ErrTicketNotFound
	}
	copied := *ticket
	return &copied, nil
}

func (s *MemoryStore) UpdateTicket(ctx context.Context, ticket *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[ticket.ID]; !ok {
		return ErrTicketNotFound
	}
	now := time.Now()
	ticket.UpdatedAt = &now

	stored := *ticket
	s.tickets[ticket.ID] = &stored
	return nil
}

// ListTickets returns all tickets ordered by creation time, newest
// first.
func (s *MemoryStore) ListTickets(ctx context.Context) ([]*models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tickets := make([]*models.Ticket, 0, len(s.tickets))
	for _, ticket := range s.tickets {
		copied := *ticket
		tickets = append(tickets, &copied)
	}
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
	return tickets, nil
}

func (s *MemoryStore) SaveWorkflowState(ctx context.Context, state *models.WorkflowState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.Ticket.ID] = state
	return nil
}

func (s *MemoryStore) GetWorkflowState(ctx context.Context, ticketID string) (*models.WorkflowState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[ticketID]
	if !ok {
		return nil, ErrTicketNotFound
	}
	return state, nil
}
