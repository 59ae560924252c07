package resolution

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/prompt-general/ticketflow/pkg/models"
)

// Generator produces the reply text for the AI resolution path
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GenerateRequest carries the ticket context and the knowledge articles
// the generator may draw from. At most the top three ranked candidates
// are supplied.
type GenerateRequest struct {
	Subject  string
	Message  string
	Category models.TicketCategory
	Priority models.TicketPriority
	Articles []models.SearchResult
}

// UsageRecorder receives fire-and-forget usage notifications for
// articles consulted during synthesis.
type UsageRecorder interface {
	IncrementUsage(ctx context.Context, articleID string) error
}

// Synthesizer builds the final reply for a ticket, either an
// AI-generated answer or a hand-off message for escalations.
type Synthesizer struct {
	generator         Generator
	usage             UsageRecorder
	maxResponseLength int
	now               func() time.Time
}

// NewSynthesizer creates a synthesizer. The usage recorder may be nil
// when no knowledge backend is configured.
func NewSynthesizer(generator Generator, usage UsageRecorder, maxResponseLength int) *Synthesizer {
	return &Synthesizer{
		generator:         generator,
		usage:             usage,
		maxResponseLength: maxResponseLength,
		now:               time.Now,
	}
}

// SynthesizeAI generates an automated resolution from the generation
// advisory and the top-ranked knowledge articles. Any failure yields
// the fixed apology fallback; the method itself never fails.
func (s *Synthesizer) SynthesizeAI(ctx context.Context, ticket models.Ticket, classification models.Classification, results []models.SearchResult) models.Resolution {
	if len(results) > 3 {
		results = results[:3]
	}

	articleIDs := make([]string, 0, len(results))
	for _, result := range results {
		articleIDs = append(articleIDs, result.Article.ID)
	}

	responseText, err := s.generator.Generate(ctx, GenerateRequest{
		Subject:  ticket.Subject,
		Message:  ticket.Message,
		Category: classification.Category,
		Priority: classification.Priority,
		Articles: results,
	})
	if err != nil {
		log.Printf("Resolution generation failed for ticket %s: %v", ticket.ID, err)
		return s.fallback(ticket)
	}

	confidence := resolutionConfidence(classification, results, len(responseText))
	finalResponse := s.postProcess(responseText, ticket, classification)

	// Usage counters are best effort; a store failure never blocks the
	// resolution.
	if s.usage != nil {
		for _, articleID := range articleIDs {
			if err := s.usage.IncrementUsage(ctx, articleID); err != nil {
				log.Printf("Failed to increment usage for article %s: %v", articleID, err)
			}
		}
	}

	return models.Resolution{
		TicketID:              ticketID(ticket),
		Response:              finalResponse,
		Confidence:            confidence,
		KnowledgeArticlesUsed: articleIDs,
		AgentType:             models.AgentAI,
		CreatedAt:             s.now(),
	}
}

// SynthesizeEscalation builds the hand-off message for an escalated
// ticket from the fixed template set.
func (s *Synthesizer) SynthesizeEscalation(ticket models.Ticket, decision models.EscalationDecision) models.Resolution {
	template, ok := escalationTemplates[decision.EscalationType]
	if !ok {
		template = escalationTemplates[models.EscalationTechnical]
	}

	priorityContext := ""
	if decision.PriorityLevel == models.LevelUrgent {
		priorityContext = " This has been marked as urgent and will be prioritized accordingly."
	}

	body := fmt.Sprintf(`%s

Thank you for reaching out to us. %s I sincerely apologize for any disruption this is causing.

%s%s

%s

Your ticket reference number is: %s

If you have any immediate questions or concerns, please don't hesitate to reach out. We appreciate your patience and will ensure this matter receives the attention it deserves.

Best regards,
Customer Support Team
Technical Support Division`,
		greeting(ticket),
		template.acknowledgment,
		template.action, priorityContext,
		template.nextSteps,
		s.ticketReference(ticket),
	)

	return models.Resolution{
		TicketID:              ticketID(ticket),
		Response:              body,
		Confidence:            0.9,
		KnowledgeArticlesUsed: []string{},
		AgentType:             models.AgentEscalation,
		CreatedAt:             s.now(),
	}
}

// Fallback returns the fixed apology resolution used when the AI path
// fails entirely.
func (s *Synthesizer) Fallback(ticket models.Ticket) models.Resolution {
	return s.fallback(ticket)
}

func (s *Synthesizer) fallback(ticket models.Ticket) models.Resolution {
	body := fmt.Sprintf(`%s

Thank you for contacting us. I've received your inquiry and want to ensure you receive the best possible assistance.

Due to the specific nature of your request, I'm connecting you with one of our specialists who can provide more detailed help and ensure your concern is addressed properly.

A team member will contact you shortly to assist with your inquiry. We appreciate your patience and apologize for any inconvenience.

Best regards,
Customer Support Team`, greeting(ticket))

	return models.Resolution{
		TicketID:              ticketID(ticket),
		Response:              body,
		Confidence:            0.2,
		KnowledgeArticlesUsed: []string{},
		AgentType:             models.AgentAIFallback,
		CreatedAt:             s.now(),
	}
}

// resolutionConfidence computes the weighted confidence for an AI
// resolution, clamped to [0.1, 0.95].
func resolutionConfidence(classification models.Classification, results []models.SearchResult, responseLength int) float64 {
	confidence := classification.Confidence * 0.3

	if len(results) > 0 {
		var total float64
		for _, result := range results {
			total += result.Score
		}
		confidence += total / float64(len(results)) * 0.4
	} else {
		confidence += 0.1
	}

	completeness := 0.3
	if responseLength > 200 {
		completeness = min(float64(responseLength)/500, 1.0)
	}
	confidence += completeness * 0.2

	confidence += categoryBaseRate(classification.Category) * 0.1

	return min(max(confidence, 0.1), 0.95)
}

// categoryBaseRate reflects how often each category resolves cleanly
// without human verification.
func categoryBaseRate(category models.TicketCategory) float64 {
	switch category {
	case models.CategoryGeneral:
		return 0.8
	case models.CategoryProduct:
		return 0.7
	case models.CategoryAccount:
		return 0.75
	case models.CategoryBilling:
		return 0.6
	case models.CategoryTechnical:
		return 0.5
	default:
		return 0.6
	}
}

func ticketID(ticket models.Ticket) string {
	if ticket.ID != "" {
		return ticket.ID
	}
	return "generated"
}

// ticketReference returns the existing id or a timestamp-based token
func (s *Synthesizer) ticketReference(ticket models.Ticket) string {
	if ticket.ID != "" {
		return ticket.ID
	}
	return "TKT-" + s.now().Format("20060102150405")
}

// greeting builds the subject line and salutation for an outgoing reply
func greeting(ticket models.Ticket) string {
	name := ticket.FirstName()
	if name == "" {
		name = "Valued Customer"
	}
	return fmt.Sprintf("Subject: Re: %s\n\nDear %s,", ticket.Subject, name)
}

// escalationTemplate holds the three fixed parts of a hand-off message
type escalationTemplate struct {
	acknowledgment string
	action         string
	nextSteps      string
}

var escalationTemplates = map[models.EscalationType]escalationTemplate{
	models.EscalationTechnical: {
		acknowledgment: "I understand you're experiencing a technical issue that is impacting your operations.",
		action:         "I've immediately escalated this ticket to our senior engineering team who specialize in complex technical integrations and system issues.",
		nextSteps:      "A senior technical specialist will contact you within the next 15-30 minutes to begin immediate troubleshooting.",
	},
	models.EscalationBilling: {
		acknowledgment: "Thank you for contacting us about your billing concern.",
		action:         "I want to ensure this is handled properly, so I'm transferring you to our billing specialists who can access your account details and process any necessary adjustments.",
		nextSteps:      "A billing specialist will review your account and contact you within 30-45 minutes.",
	},
	models.EscalationManagement: {
		acknowledgment: "I understand your concern and want to ensure you receive the best possible service.",
		action:         "I'm connecting you with a customer success manager who can give your issue the personal attention it deserves.",
		nextSteps:      "A customer success manager will contact you within 45-60 minutes to address your concerns directly.",
	},
	models.EscalationLegal: {
		acknowledgment: "Thank you for bringing this matter to our attention.",
		action:         "Due to the nature of your inquiry, I'm routing this to our specialized legal affairs team who handles these types of matters.",
		nextSteps:      "A member of our legal affairs team will contact you within 2-4 hours to discuss this matter properly.",
	},
	models.EscalationSecurity: {
		acknowledgment: "I take security concerns very seriously and understand the urgency of this situation.",
		action:         "I'm immediately connecting you with our security team who can investigate and address this matter with the highest priority.",
		nextSteps:      "Our security team will contact you immediately to begin the investigation process.",
	},
}
