package models

// Classification represents the category and priority assigned to a
// ticket, together with a confidence score and an append-only reasoning
// trail recording every rule adjustment applied along the way.
type Classification struct {
	Category   TicketCategory `json:"category"`
	Priority   TicketPriority `json:"priority"`
	Confidence float64        `json:"confidence"`
	Reasoning  string         `json:"reasoning"`
}

// AppendReasoning adds a note to the reasoning trail. Earlier notes are
// never rewritten.
func (c *Classification) AppendReasoning(note string) {
	c.Reasoning += note
}
