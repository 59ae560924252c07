package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/prompt-general/ticketflow/internal/config"
	"github.com/prompt-general/ticketflow/pkg/models"
)

// Event types emitted when a workflow run finishes.
const (
	EventTicketResolved  = "ticket.resolved"
	EventTicketEscalated = "ticket.escalated"
	EventTicketFailed    = "ticket.failed"
)

// Event is the wire format for completed workflow notifications.
type Event struct {
	Type       string                `json:"type"`
	TicketID   string                `json:"ticket_id"`
	State      *models.WorkflowState `json:"state"`
	OccurredAt time.Time             `json:"occurred_at"`
}

// Publisher streams completed workflow states to Kafka, keyed by
// ticket ID so per-ticket ordering is preserved across partitions.
type Publisher struct {
	writer *kafka.Writer
	mu     sync.Mutex
	closed bool
}

func NewPublisher(cfg config.KafkaConfig) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrInvalidBrokers
	}
	if cfg.Topic == "" {
		return nil, ErrInvalidTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Compression:  kafka.Gzip,
		RequiredAcks: kafka.RequireAll,
	}
	if cfg.Timeout > 0 {
		writer.WriteTimeout = cfg.Timeout
	}

	return &Publisher{writer: writer}, nil
}

// Publish emits one event for a finished workflow state.
func (p *Publisher) Publish(ctx context.Context, state *models.WorkflowState) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPublisherClosed
	}
	p.mu.Unlock()

	event := Event{
		Type:       eventType(state),
		TicketID:   state.Ticket.ID,
		State:      state,
		OccurredAt: time.Now(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %v", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(state.Ticket.ID),
		Value: value,
	})
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

func eventType(state *models.WorkflowState) string {
	switch {
	case state.Status == models.WorkflowFailed:
		return EventTicketFailed
	case state.Escalation != nil && state.Escalation.ShouldEscalate:
		return EventTicketEscalated
	default:
		return EventTicketResolved
	}
}
