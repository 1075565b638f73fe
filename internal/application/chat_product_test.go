package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/greenloop/internal/infrastructure/ai"
)

type fakeGenerator struct {
	reply  string
	err    error
	prompt ai.Prompt
}

func (g *fakeGenerator) Generate(_ context.Context, p ai.Prompt) (string, error) {
	g.prompt = p
	return g.reply, g.err
}

func TestChatReplyGroundsPrompt(t *testing.T) {
	a, _, userID := seededAssembler(t, nil, nil)
	gen := &fakeGenerator{reply: "  Try composting!  "}
	svc := NewChatService(a, gen, nil, nil)

	reply, err := svc.Reply(context.Background(), userID, "any tips?")
	require.NoError(t, err)
	assert.Equal(t, "Try composting!", reply)
	assert.Equal(t, "any tips?", gen.prompt.User)
	assert.Contains(t, gen.prompt.System, "The Green Man")
	assert.Contains(t, gen.prompt.System, "User: Ada (Level: Seedling, XP: 150)")
	assert.False(t, gen.prompt.JSON)
}

func TestChatModelFailureIsUnavailable(t *testing.T) {
	a, _, userID := seededAssembler(t, nil, nil)
	svc := NewChatService(a, &fakeGenerator{err: errors.New("503 from upstream")}, nil, nil)

	_, err := svc.Reply(context.Background(), userID, "hi")
	assert.ErrorIs(t, err, ErrAIUnavailable)

	_, err = NewChatService(a, nil, nil, nil).Reply(context.Background(), userID, "hi")
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestChatUnknownUser(t *testing.T) {
	a, _, _ := seededAssembler(t, nil, nil)
	_, err := NewChatService(a, &fakeGenerator{reply: "x"}, nil, nil).Reply(context.Background(), "ghost", "hi")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

type fakeClassifier struct {
	calls int
	res   *ai.Classification
	err   error
}

func (c *fakeClassifier) Classify(context.Context, string) (*ai.Classification, error) {
	c.calls++
	return c.res, c.err
}

type mapCache struct {
	mu   sync.Mutex
	vals map[string][]byte
	ttl  time.Duration
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vals[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vals == nil {
		c.vals = map[string][]byte{}
	}
	c.vals[key] = val
	c.ttl = ttl
}

func TestProductSearchCatalogFirst(t *testing.T) {
	cls := &fakeClassifier{}
	svc := NewProductService(cls, nil, time.Hour, nil, nil)

	res, err := svc.Search(context.Background(), "  Bamboo   TOOTHBRUSH ")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "catalog", res.Source)
	assert.Equal(t, "Bamboo Toothbrush", res.Swap.Name)
	assert.Equal(t, 0, cls.calls)

	// a specific keyword beats the generic "plastic" entry
	res, err = svc.Search(context.Background(), "plastic straw")
	require.NoError(t, err)
	assert.Equal(t, "Stainless Steel Straws", res.Swap.Name)
}

func TestProductSearchClassifiesAndCaches(t *testing.T) {
	cls := &fakeClassifier{res: &ai.Classification{
		IsNonSustainable: true,
		OriginalName:     "Cling film",
		Swap:             &ai.SwapSuggestion{Name: "Beeswax wraps", Description: "Reusable", EcoScore: 104.2, SearchQuery: "beeswax wrap"},
	}}
	cache := &mapCache{}
	svc := NewProductService(cls, cache, 24*time.Hour, nil, nil)

	res, err := svc.Search(context.Background(), "Cling Film")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "ai", res.Source)
	assert.Equal(t, "Cling film", res.Original.Name)
	assert.Equal(t, 100, res.Swap.EcoScore)
	assert.Equal(t, 24*time.Hour, cache.ttl)

	var cached ProductResult
	require.NoError(t, json.Unmarshal(cache.vals["product:classify:cling film"], &cached))
	assert.Equal(t, "Beeswax wraps", cached.Swap.Name)

	again, err := svc.Search(context.Background(), "cling  film")
	require.NoError(t, err)
	assert.Equal(t, "Beeswax wraps", again.Swap.Name)
	assert.Equal(t, 1, cls.calls)
}

func TestProductSearchParseFailureIsNotFound(t *testing.T) {
	// the classifier reports an unparseable reply as (nil, nil)
	svc := NewProductService(&fakeClassifier{}, &mapCache{}, time.Hour, nil, nil)

	res, err := svc.Search(context.Background(), "granite countertop")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Nil(t, res.Swap)
}

func TestProductSearchAlreadySustainable(t *testing.T) {
	svc := NewProductService(&fakeClassifier{res: &ai.Classification{IsNonSustainable: false,
		Swap: &ai.SwapSuggestion{Name: "x"}}}, nil, time.Hour, nil, nil)

	res, err := svc.Search(context.Background(), "linen towel")
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestProductSearchTransportFailure(t *testing.T) {
	svc := NewProductService(&fakeClassifier{err: errors.New("timeout")}, nil, time.Hour, nil, nil)
	_, err := svc.Search(context.Background(), "granite countertop")
	assert.ErrorIs(t, err, ErrAIUnavailable)

	_, err = NewProductService(nil, nil, time.Hour, nil, nil).Search(context.Background(), "granite")
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestProductSearchEmptyQuery(t *testing.T) {
	res, err := NewProductService(nil, nil, 0, nil, nil).Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, res.Found)
}
