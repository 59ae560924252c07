package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"time"

	"github.com/prompt-general/ticketflow/internal/classify"
	"github.com/prompt-general/ticketflow/internal/escalation"
)

// ClassificationAdvisor adapts Client to the classification engine's
// advisor contract.
type ClassificationAdvisor struct {
	client *Client
}

func NewClassificationAdvisor(client *Client) *ClassificationAdvisor {
	return &ClassificationAdvisor{client: client}
}

func (a *ClassificationAdvisor) Advise(ctx context.Context, subject, message string) (classify.Advisory, error) {
	return a.client.ClassifyTicket(ctx, subject, message)
}

// EscalationAdvisor adapts Client to the escalation engine's advisor
// contract.
type EscalationAdvisor struct {
	client *Client
}

func NewEscalationAdvisor(client *Client) *EscalationAdvisor {
	return &EscalationAdvisor{client: client}
}

func (a *EscalationAdvisor) Advise(ctx context.Context, req escalation.AdvisoryRequest) (escalation.Advisory, error) {
	return a.client.CheckEscalation(ctx, req)
}

// Cache is the subset of the cache backend the cached advisor needs.
type Cache interface {
	Get(ctx context.Context, key string, target interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedClassificationAdvisor memoizes classification advisories by
// ticket content. Identical subject/message pairs reuse the cached
// judgment instead of paying for another model call. Cache failures
// are logged and treated as misses.
type CachedClassificationAdvisor struct {
	inner classify.Advisor
	cache Cache
	ttl   time.Duration
}

func NewCachedClassificationAdvisor(inner classify.Advisor, cache Cache, ttl time.Duration) *CachedClassificationAdvisor {
	return &CachedClassificationAdvisor{inner: inner, cache: cache, ttl: ttl}
}

func (a *CachedClassificationAdvisor) Advise(ctx context.Context, subject, message string) (classify.Advisory, error) {
	key := advisoryCacheKey(subject, message)

	var cached classify.Advisory
	found, err := a.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("Classification cache lookup failed: %v", err)
	}
	if found {
		return cached, nil
	}

	advisory, err := a.inner.Advise(ctx, subject, message)
	if err != nil {
		return classify.Advisory{}, err
	}

	if err := a.cache.Set(ctx, key, advisory, a.ttl); err != nil {
		log.Printf("Classification cache store failed: %v", err)
	}
	return advisory, nil
}

func advisoryCacheKey(subject, message string) string {
	sum := sha256.Sum256([]byte(subject + "\n" + message))
	return "classification:" + hex.EncodeToString(sum[:])
}
