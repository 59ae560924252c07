package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompt-general/ticketflow/internal/classify"
)

func TestParseClassificationAdvisory(t *testing.T) {
	advisory := parseClassificationAdvisory(`{"category":"billing","priority":"high","confidence":0.9,"reasoning":"refund request"}`)

	assert.Equal(t, "billing", advisory.Category)
	assert.Equal(t, "high", advisory.Priority)
	assert.Equal(t, 0.9, advisory.Confidence)
}

func TestParseClassificationAdvisoryMalformed(t *testing.T) {
	advisory := parseClassificationAdvisory("I think this is a billing issue.")

	assert.Equal(t, "general", advisory.Category)
	assert.Equal(t, "medium", advisory.Priority)
	assert.Equal(t, 0.5, advisory.Confidence)
	assert.Equal(t, "Unable to parse LLM response", advisory.Reasoning)
}

func TestParseClassificationAdvisoryCodeFence(t *testing.T) {
	advisory := parseClassificationAdvisory("```json\n{\"category\":\"technical\",\"priority\":\"critical\",\"confidence\":0.8,\"reasoning\":\"outage\"}\n```")

	assert.Equal(t, "technical", advisory.Category)
	assert.Equal(t, "critical", advisory.Priority)
}

func TestParseEscalationAdvisoryMalformed(t *testing.T) {
	advisory := parseEscalationAdvisory("escalate? probably not")

	assert.False(t, advisory.ShouldEscalate)
	assert.Equal(t, "Unable to analyze escalation need", advisory.Reason)
	assert.Equal(t, "standard", advisory.PriorityLevel)
	assert.Equal(t, 0.5, advisory.Confidence)
}

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":                      `{"a":1}`,
		"```json\n{\"a\":1}\n```":        `{"a":1}`,
		"```\n{\"a\":1}\n```":            `{"a":1}`,
		"  {\"a\":1}\n":                  `{"a":1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, extractJSON(in))
	}
}

type fakeCache struct {
	store map[string][]byte
	sets  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string][]byte{}}
}

func (f *fakeCache) Get(ctx context.Context, key string, target interface{}) (bool, error) {
	data, ok := f.store[key]
	if !ok {
		return false, nil
	}
	adv := target.(*classify.Advisory)
	adv.Category = "billing"
	adv.Priority = "high"
	adv.Confidence = 0.9
	_ = data
	return true, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.store[key] = []byte("set")
	f.sets++
	return nil
}

type countingAdvisor struct {
	calls    int
	advisory classify.Advisory
	err      error
}

func (c *countingAdvisor) Advise(ctx context.Context, subject, message string) (classify.Advisory, error) {
	c.calls++
	return c.advisory, c.err
}

func TestCachedAdvisorMissThenStore(t *testing.T) {
	inner := &countingAdvisor{advisory: classify.Advisory{Category: "technical", Priority: "high", Confidence: 0.8}}
	cache := newFakeCache()
	advisor := NewCachedClassificationAdvisor(inner, cache, time.Minute)

	advisory, err := advisor.Advise(context.Background(), "Login broken", "Cannot sign in")

	require.NoError(t, err)
	assert.Equal(t, "technical", advisory.Category)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, cache.sets)
}

func TestCachedAdvisorHitSkipsInner(t *testing.T) {
	inner := &countingAdvisor{}
	cache := newFakeCache()
	cache.store[advisoryCacheKey("Refund", "Please refund me")] = []byte("cached")
	advisor := NewCachedClassificationAdvisor(inner, cache, time.Minute)

	advisory, err := advisor.Advise(context.Background(), "Refund", "Please refund me")

	require.NoError(t, err)
	assert.Equal(t, "billing", advisory.Category)
	assert.Zero(t, inner.calls)
}

func TestCachedAdvisorInnerErrorNotCached(t *testing.T) {
	inner := &countingAdvisor{err: errors.New("model unavailable")}
	cache := newFakeCache()
	advisor := NewCachedClassificationAdvisor(inner, cache, time.Minute)

	_, err := advisor.Advise(context.Background(), "Hello", "World")

	require.Error(t, err)
	assert.Zero(t, cache.sets)
}

func TestAdvisoryCacheKeyDistinguishesContent(t *testing.T) {
	assert.NotEqual(t,
		advisoryCacheKey("a", "b"),
		advisoryCacheKey("a", "c"),
	)
	assert.Equal(t,
		advisoryCacheKey("a", "b"),
		advisoryCacheKey("a", "b"),
	)
}
