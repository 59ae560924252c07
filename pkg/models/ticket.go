package models

import (
	"time"
)

// Ticket represents an incoming customer support request. The pipeline
// never mutates a ticket; its identity is used only for correlation.
type Ticket struct {
	ID            string     `json:"id,omitempty"`
	CustomerID    string     `json:"customer_id"`
	Subject       string     `json:"subject"`
	Message       string     `json:"message"`
	CustomerName  string     `json:"customer_name,omitempty"`
	CustomerEmail string     `json:"customer_email,omitempty"`
	Status        TicketStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// TicketCategory represents ticket categories
type TicketCategory string

const (
	CategoryTechnical TicketCategory = "technical"
	CategoryBilling   TicketCategory = "billing"
	CategoryGeneral   TicketCategory = "general"
	CategoryProduct   TicketCategory = "product"
	CategoryAccount   TicketCategory = "account"
)

// Valid reports whether the category is one of the known values.
func (c TicketCategory) Valid() bool {
	switch c {
	case CategoryTechnical, CategoryBilling, CategoryGeneral, CategoryProduct, CategoryAccount:
		return true
	}
	return false
}

// TicketPriority represents ticket priorities, totally ordered from
// low to critical.
type TicketPriority string

const (
	PriorityLow      TicketPriority = "low"
	PriorityMedium   TicketPriority = "medium"
	PriorityHigh     TicketPriority = "high"
	PriorityCritical TicketPriority = "critical"
)

// Level returns the numeric rank of the priority for ordering
// comparisons. Unknown priorities rank as medium.
func (p TicketPriority) Level() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityCritical:
		return 4
	default:
		return 2
	}
}

// Valid reports whether the priority is one of the known values.
func (p TicketPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// TicketStatus represents the lifecycle status of a stored ticket
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "new"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusEscalated  TicketStatus = "escalated"
)

// FirstName returns the first token of the customer name, or empty when
// no name was provided.
func (t Ticket) FirstName() string {
	if t.CustomerName == "" {
		return ""
	}
	for i, r := range t.CustomerName {
		if r == ' ' {
			return t.CustomerName[:i]
		}
	}
	return t.CustomerName
}
