package models

import (
	"time"
)

// Article represents a knowledge base article
type Article struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Content         string         `json:"content"`
	Category        TicketCategory `json:"category"`
	Tags            []string       `json:"tags"`
	ResolutionCount int            `json:"resolution_count"`
	Rating          *float64       `json:"rating,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       *time.Time     `json:"updated_at,omitempty"`
	Embedding       []float32      `json:"-"`
}

// SearchResult pairs an article with its relevance score. Score is the
// raw retrieval score until the ranker re-scores it.
type SearchResult struct {
	Article   Article `json:"article"`
	Score     float64 `json:"score"`
	Relevance string  `json:"relevance"`
}
