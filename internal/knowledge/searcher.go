package knowledge

import (
	"context"
	"log"
	"strings"

	"github.com/prompt-general/ticketflow/pkg/models"
)

// Searcher builds the search query for a ticket, retrieves candidates
// from the store and ranks them. Every failure along the way degrades
// to an empty result list so the pipeline never blocks on retrieval.
type Searcher struct {
	store    Store
	embedder Embedder
	ranker   *Ranker
	topK     int
}

// NewSearcher creates a searcher over the given store and embedder
func NewSearcher(store Store, embedder Embedder, ranker *Ranker, topK int) *Searcher {
	return &Searcher{
		store:    store,
		embedder: embedder,
		ranker:   ranker,
		topK:     topK,
	}
}

// Search retrieves and ranks knowledge articles for the ticket. A nil
// store means no knowledge backend is configured and yields no results.
func (s *Searcher) Search(ctx context.Context, ticket models.Ticket, classification models.Classification) []models.SearchResult {
	if s.store == nil {
		return nil
	}

	query := buildQuery(ticket, classification)

	var embedding []float32
	if s.embedder != nil {
		var err error
		embedding, err = s.embedder.Embed(ctx, "search query: "+query)
		if err != nil {
			log.Printf("Failed to embed knowledge query: %v", err)
			embedding = nil
		}
	}

	// Only constrain the category when the classification is trusted
	var category models.TicketCategory
	if classification.Confidence > 0.7 {
		category = classification.Category
	}

	results, err := s.store.Search(ctx, query, embedding, category, s.topK)
	if err != nil {
		log.Printf("Knowledge search failed: %v", err)
		return nil
	}

	return s.ranker.Rank(results, classification)
}

// SearchArticles runs a direct query against the store, outside of any
// ticket context. Used by the knowledge search API endpoint.
func (s *Searcher) SearchArticles(ctx context.Context, query, category string, limit int) ([]models.SearchResult, error) {
	if s.store == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = s.topK
	}

	var embedding []float32
	if s.embedder != nil {
		var err error
		embedding, err = s.embedder.Embed(ctx, "search query: "+query)
		if err != nil {
			log.Printf("Failed to embed knowledge query: %v", err)
			embedding = nil
		}
	}

	return s.store.Search(ctx, query, embedding, models.TicketCategory(category), limit)
}

// buildQuery assembles the search text from the ticket and a category
// hint, capped to keep the query well-formed for the index.
func buildQuery(ticket models.Ticket, classification models.Classification) string {
	parts := []string{ticket.Subject, ticket.Message}
	if classification.Category != "" {
		parts = append(parts, "category:"+string(classification.Category))
	}
	parts = append(parts, keyPhrases(ticket.Subject+" "+ticket.Message)...)

	query := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	if len(query) > 500 {
		query = query[:500]
	}
	return query
}

// keyPhrases extracts fragments around common trouble keywords so the
// text side of the hybrid search sees their surrounding context.
func keyPhrases(text string) []string {
	var phrases []string
	lower := strings.ToLower(text)
	words := strings.Fields(lower)

	for _, pattern := range []string{"error", "bug", "issue", "problem", "fail", "crash"} {
		if !strings.Contains(lower, pattern) {
			continue
		}
		for i, word := range words {
			if strings.Contains(word, pattern) {
				start := max(0, i-2)
				end := min(len(words), i+3)
				phrases = append(phrases, strings.Join(words[start:end], " "))
			}
		}
	}

	for _, indicator := range []string{"how to", "can't", "unable", "doesn't work", "not working"} {
		if strings.Contains(lower, indicator) {
			phrases = append(phrases, indicator)
		}
	}

	if len(phrases) > 5 {
		phrases = phrases[:5]
	}
	return phrases
}
