package learning

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/prompt-general/ticketflow/pkg/models"
)

// RatingStore is the knowledge-base surface the learning loop adjusts.
type RatingStore interface {
	UpdateRating(ctx context.Context, articleID string, rating float64) error
}

// Insights summarizes what the agent did with one piece of feedback.
type Insights struct {
	FeedbackType           string   `json:"feedback_type"`
	ActionsTaken           []string `json:"actions_taken"`
	Recommendations        []string `json:"recommendations"`
	PotentialCauses        []string `json:"potential_causes,omitempty"`
	EscalationReviewNeeded bool     `json:"escalation_review_needed,omitempty"`
}

// Agent closes the loop between customer feedback and the knowledge
// base: positive feedback reinforces the articles that were used,
// negative feedback is analyzed for failure causes.
type Agent struct {
	ratings RatingStore
}

func NewAgent(ratings RatingStore) *Agent {
	return &Agent{ratings: ratings}
}

// ProcessFeedback applies one piece of customer feedback against the
// resolution it rates. It never fails; rating-store errors are logged
// and surfaced as recommendations.
func (a *Agent) ProcessFeedback(ctx context.Context, feedback models.Feedback, resolution models.Resolution) Insights {
	insights := Insights{
		ActionsTaken:    []string{},
		Recommendations: []string{},
	}

	if feedback.WasHelpful && feedback.CustomerRating != nil && *feedback.CustomerRating >= 4 {
		insights.FeedbackType = "positive"
		a.processPositive(ctx, feedback, resolution, &insights)
	} else {
		insights.FeedbackType = "negative"
		a.processNegative(feedback, resolution, &insights)
	}

	return insights
}

func (a *Agent) processPositive(ctx context.Context, feedback models.Feedback, resolution models.Resolution, insights *Insights) {
	for _, articleID := range resolution.KnowledgeArticlesUsed {
		if a.ratings == nil {
			break
		}
		if err := a.ratings.UpdateRating(ctx, articleID, float64(*feedback.CustomerRating)); err != nil {
			log.Printf("Failed to update rating for article %s: %v", articleID, err)
			continue
		}
		insights.ActionsTaken = append(insights.ActionsTaken,
			fmt.Sprintf("Boosted rating for article %s", articleID))
	}

	// A successful answer with no supporting article is a gap in the
	// knowledge base worth filling.
	if len(resolution.KnowledgeArticlesUsed) == 0 {
		insights.Recommendations = append(insights.Recommendations,
			"Consider creating new knowledge article")
	}
}

func (a *Agent) processNegative(feedback models.Feedback, resolution models.Resolution, insights *Insights) {
	if resolution.Confidence > 0.7 && !feedback.WasHelpful {
		insights.PotentialCauses = append(insights.PotentialCauses,
			"Overconfident AI prediction")
	}

	if len(resolution.KnowledgeArticlesUsed) == 0 {
		insights.PotentialCauses = append(insights.PotentialCauses,
			"No relevant knowledge articles found")
	} else if len(resolution.KnowledgeArticlesUsed) > 3 {
		insights.PotentialCauses = append(insights.PotentialCauses,
			"Too many knowledge articles used - may be confusing")
	}

	if feedback.FeedbackText != "" {
		text := strings.ToLower(feedback.FeedbackText)
		if strings.Contains(text, "wrong") || strings.Contains(text, "incorrect") {
			insights.PotentialCauses = append(insights.PotentialCauses,
				"Incorrect information provided")
		}
		if strings.Contains(text, "unclear") || strings.Contains(text, "confusing") {
			insights.PotentialCauses = append(insights.PotentialCauses,
				"Response was unclear or confusing")
		}
		if strings.Contains(text, "not helpful") {
			insights.PotentialCauses = append(insights.PotentialCauses,
				"Response didn't address the actual problem")
		}
	}

	// A poorly rated automated answer means the escalation rules let
	// through a ticket that needed a human.
	if resolution.AgentType == models.AgentAI &&
		feedback.CustomerRating != nil && *feedback.CustomerRating <= 2 {
		insights.Recommendations = append(insights.Recommendations,
			"Consider updating escalation rules for similar cases")
		insights.EscalationReviewNeeded = true
	}
}
