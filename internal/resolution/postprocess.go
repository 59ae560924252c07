package resolution

import (
	"fmt"
	"strings"

	"github.com/prompt-general/ticketflow/pkg/models"
)

var closingPhrases = []string{
	"thank you", "please let me know", "feel free to",
	"if you have", "best regards", "sincerely",
}

const (
	signatureBlock = "Best regards,\nCustomer Support Team"
	referenceLabel = "Ticket Reference:"
)

// postProcess normalizes a generated reply into a complete email:
// greeting header, closing offer of help, signature, and a ticket
// reference for high-priority tickets, then trims to the response cap.
// Applying it to an already-formatted reply is a no-op apart from the
// cap.
func (s *Synthesizer) postProcess(response string, ticket models.Ticket, classification models.Classification) string {
	lower := strings.ToLower(response)

	if !strings.HasPrefix(lower, "dear") &&
		!strings.HasPrefix(lower, "hello") &&
		!strings.HasPrefix(lower, "hi") &&
		!strings.HasPrefix(lower, "subject:") {
		response = fmt.Sprintf("%s\n\nThank you for contacting us. %s", greeting(ticket), response)
		lower = strings.ToLower(response)
	}

	hasClosing := false
	for _, phrase := range closingPhrases {
		if strings.Contains(lower, phrase) {
			hasClosing = true
			break
		}
	}
	if !hasClosing {
		response += "\n\nPlease let me know if you need any additional assistance!"
	}

	if !hasSignature(response) {
		response += "\n\n" + signatureBlock
	}

	if classification.Priority == models.PriorityHigh || classification.Priority == models.PriorityCritical {
		if !strings.Contains(response, referenceLabel) {
			response += fmt.Sprintf("\n\n%s %s", referenceLabel, s.ticketReference(ticket))
		}
	}

	if len(response) > s.maxResponseLength {
		response = trimAtSentence(response, s.maxResponseLength)
	}

	return strings.TrimSpace(response)
}

// hasSignature reports whether the reply already ends in a sign-off, so
// re-processing never stacks signature blocks.
func hasSignature(response string) bool {
	if strings.Contains(response, signatureBlock) {
		return true
	}
	trimmed := strings.TrimSpace(response)
	for _, suffix := range []string{"Best regards", "Sincerely", "Thank you"} {
		if strings.HasSuffix(trimmed, suffix) {
			return true
		}
	}
	return false
}

// trimAtSentence cuts the response at the last sentence boundary that
// fits the cap and marks the cut with an ellipsis.
func trimAtSentence(response string, maxLength int) string {
	sentences := strings.Split(response, ". ")
	var trimmed strings.Builder

	for _, sentence := range sentences {
		if trimmed.Len()+len(sentence) >= maxLength-3 {
			break
		}
		trimmed.WriteString(sentence)
		trimmed.WriteString(". ")
	}

	result := strings.TrimSpace(trimmed.String())
	if !strings.HasSuffix(result, ".") {
		result += "..."
	}
	return result
}
