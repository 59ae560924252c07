package knowledge

import (
	"sort"

	"github.com/prompt-general/ticketflow/pkg/models"
)

// Ranker re-scores retrieved candidates against the ticket's
// classification and the article's own quality signals.
type Ranker struct {
	minRelevanceScore float64
}

// NewRanker creates a ranker with the given minimum relevance floor
func NewRanker(minRelevanceScore float64) *Ranker {
	return &Ranker{minRelevanceScore: minRelevanceScore}
}

// Rank filters candidates below the relevance floor, adjusts each raw
// score for category match, popularity and rating, and returns the
// results sorted descending by adjusted score. The sort is stable so
// tied candidates keep their retrieval order.
func (r *Ranker) Rank(results []models.SearchResult, classification models.Classification) []models.SearchResult {
	ranked := make([]models.SearchResult, 0, len(results))

	for _, result := range results {
		if result.Score < r.minRelevanceScore {
			continue
		}

		score := result.Score

		if result.Article.Category == classification.Category {
			score *= 1.2
		}

		if result.Article.ResolutionCount > 0 {
			popularityBoost := min(float64(result.Article.ResolutionCount)/100, 0.2)
			score *= 1 + popularityBoost
		}

		if result.Article.Rating != nil && *result.Article.Rating > 3.0 {
			ratingBoost := (*result.Article.Rating - 3.0) * 0.1
			score *= 1 + ratingBoost
		}

		score = min(max(score, 0), 1.0)

		ranked = append(ranked, models.SearchResult{
			Article:   result.Article,
			Score:     score,
			Relevance: relevanceLabel(score),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}

// relevanceLabel maps an adjusted score to its descriptive label
func relevanceLabel(score float64) string {
	switch {
	case score >= 0.9:
		return "Excellent"
	case score >= 0.75:
		return "Very High"
	case score >= 0.6:
		return "High"
	case score >= 0.45:
		return "Medium"
	case score >= 0.3:
		return "Low"
	default:
		return "Very Low"
	}
}
