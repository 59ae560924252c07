package knowledge

import (
	"context"

	"github.com/prompt-general/ticketflow/pkg/models"
)

// Store is the knowledge-article backend. Search failures degrade to an
// empty candidate list; usage and rating updates are owned and
// serialized by the store, never by the pipeline.
type Store interface {
	Search(ctx context.Context, query string, embedding []float32, category models.TicketCategory, topK int) ([]models.SearchResult, error)
	IncrementUsage(ctx context.Context, articleID string) error
	UpdateRating(ctx context.Context, articleID string, rating float64) error
}

// Embedder produces the query vector for semantic search
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
