package knowledge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/prompt-general/ticketflow/pkg/models"
)

// PostgresStore implements Store on top of Postgres with the pgvector
// extension. Articles live in a single table with an embedding column;
// search combines cosine similarity with a text match on title and
// content.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore connects to Postgres and verifies the connection
func NewPostgresStore(ctx context.Context, dsn, table string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool, table: table}, nil
}

// Search retrieves candidate articles. With an embedding the score is
// cosine similarity; without one it falls back to a text-match score so
// retrieval still works when the embedding backend is down.
func (s *PostgresStore) Search(ctx context.Context, query string, embedding []float32, category models.TicketCategory, topK int) ([]models.SearchResult, error) {
	var (
		sql  string
		args []interface{}
	)

	if len(embedding) > 0 {
		sql = fmt.Sprintf(`
			SELECT id, title, content, category, tags, resolution_count, rating, created_at,
			       GREATEST(1 - (embedding <=> $1::vector), 0) AS score
			FROM %s
			WHERE ($2 = '' OR category = $2)
			ORDER BY embedding <=> $1::vector
			LIMIT $3`, s.table)
		args = []interface{}{pgvector.NewVector(embedding), string(category), topK}
	} else {
		sql = fmt.Sprintf(`
			SELECT id, title, content, category, tags, resolution_count, rating, created_at,
			       CASE
			           WHEN title ILIKE '%%' || $1 || '%%' THEN 0.8
			           WHEN content ILIKE '%%' || $1 || '%%' THEN 0.5
			           ELSE 0.2
			       END AS score
			FROM %s
			WHERE ($2 = '' OR category = $2)
			  AND (title ILIKE '%%' || $1 || '%%' OR content ILIKE '%%' || $1 || '%%')
			LIMIT $3`, s.table)
		args = []interface{}{query, string(category), topK}
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search articles: %w", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var (
			article models.Article
			score   float64
		)
		if err := rows.Scan(
			&article.ID, &article.Title, &article.Content, &article.Category,
			&article.Tags, &article.ResolutionCount, &article.Rating,
			&article.CreatedAt, &score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		results = append(results, models.SearchResult{Article: article, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read article rows: %w", err)
	}

	return results, nil
}

// IncrementUsage bumps the article's resolution counter
func (s *PostgresStore) IncrementUsage(ctx context.Context, articleID string) error {
	sql := fmt.Sprintf(`UPDATE %s SET resolution_count = resolution_count + 1 WHERE id = $1`, s.table)
	if _, err := s.pool.Exec(ctx, sql, articleID); err != nil {
		return fmt.Errorf("failed to increment usage for article %s: %w", articleID, err)
	}
	return nil
}

// UpdateRating folds a new customer rating into the article's
// aggregate. The first rating is taken as-is, later ones are averaged
// in.
func (s *PostgresStore) UpdateRating(ctx context.Context, articleID string, rating float64) error {
	sql := fmt.Sprintf(`UPDATE %s SET rating = CASE WHEN rating IS NULL THEN $2 ELSE (rating + $2) / 2 END WHERE id = $1`, s.table)
	if _, err := s.pool.Exec(ctx, sql, articleID, rating); err != nil {
		return fmt.Errorf("failed to update rating for article %s: %w", articleID, err)
	}
	return nil
}

// Ping verifies the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}
