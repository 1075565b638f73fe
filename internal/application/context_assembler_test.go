package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/greenloop/internal/domain/entity"
	"github.com/oksasatya/greenloop/internal/vectorbridge"
)

func seededAssembler(t *testing.T, e Embedder, v VectorStore) (*ContextAssembler, *memStore, string) {
	t.Helper()
	st := newMemStore()
	u := st.addUser("Ada")
	st.corrupt(u.ID, 150, entity.LevelSeedling)
	ctx := context.Background()
	require.NoError(t, memActions{st}.Create(ctx, &entity.Action{UserID: u.ID, Type: entity.ActionPlant, XPGained: 50,
		Details: entity.ActionDetails{PlantName: "Oak"}}))
	require.NoError(t, memSwaps{st}.Create(ctx, &entity.Swap{UserID: u.ID, Original: "Plastic bottle", Replacement: "Steel bottle", XP: 100}))
	a := NewContextAssembler(memUsers{st}, memActions{st}, memSwaps{st}, e, v, 200*time.Millisecond, 3, 0, nil, nil)
	return a, st, u.ID
}

func TestAssembleRendersAllSections(t *testing.T) {
	vectors := &fakeVectors{hits: []vectorbridge.Hit{
		{ID: "m1", Score: 0.9, Payload: map[string]any{"type": "PLANT", "text": "planted Oak"}},
	}}
	a, _, userID := seededAssembler(t, fakeEmbedder{vec: []float32{0.1, 0.2}}, vectors)

	block, err := a.Assemble(context.Background(), userID, "what should I plant next?")
	require.NoError(t, err)

	lines := strings.Split(block, "\n")
	assert.Equal(t, "User: Ada (Level: Seedling, XP: 150)", lines[0])
	assert.Contains(t, block, "Recent actions:\n- PLANT {\"plantName\":\"Oak\"} on 2026-03-10")
	assert.Contains(t, block, "Recent swaps:\n- Plastic bottle -> Steel bottle")
	assert.Contains(t, block, "Relevant memories:\n- {\"text\":\"planted Oak\",\"type\":\"PLANT\"}")

	require.Len(t, vectors.filters, 1)
	assert.Equal(t, map[string]string{"user_id": userID}, vectors.filters[0])
}

func TestAssembleWithFailingBridge(t *testing.T) {
	// a bridge failure surfaces as an empty hit list
	a, _, userID := seededAssembler(t, fakeEmbedder{vec: []float32{1}}, &fakeVectors{})

	block, err := a.Assemble(context.Background(), userID, "hello")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(block, "User: Ada"))
	assert.Contains(t, block, "Recent actions:")
	assert.Contains(t, block, "Recent swaps:")
	assert.NotContains(t, block, "Relevant memories")
}

func TestAssembleWithFailingEmbedder(t *testing.T) {
	a, _, userID := seededAssembler(t, fakeEmbedder{err: errors.New("quota")}, &fakeVectors{
		hits: []vectorbridge.Hit{{ID: "x", Payload: map[string]any{"text": "x"}}},
	})

	block, err := a.Assemble(context.Background(), userID, "hello")
	require.NoError(t, err)
	assert.Contains(t, block, "Recent swaps:")
	assert.NotContains(t, block, "Relevant memories")
}

func TestAssembleSearchTimeoutDoesNotHang(t *testing.T) {
	a, _, userID := seededAssembler(t, fakeEmbedder{vec: []float32{1}, delay: 5 * time.Second}, &fakeVectors{
		hits: []vectorbridge.Hit{{ID: "x", Payload: map[string]any{"text": "x"}}},
	})
	a.SearchTimeout = 30 * time.Millisecond

	start := time.Now()
	block, err := a.Assemble(context.Background(), userID, "hello")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.NotContains(t, block, "Relevant memories")
}

// slowUsers delays profile loads so the ledger reads outlast the search timeout.
type slowUsers struct {
	memUsers
	delay time.Duration
}

func (r slowUsers) GetByID(ctx context.Context, id string) (*entity.User, error) {
	time.Sleep(r.delay)
	return r.memUsers.GetByID(ctx, id)
}

func TestAssembleKeepsFinishedSearchAfterSlowReads(t *testing.T) {
	a, st, userID := seededAssembler(t, fakeEmbedder{vec: []float32{1}}, &fakeVectors{
		hits: []vectorbridge.Hit{{ID: "m1", Payload: map[string]any{"text": "refilled bottle"}}},
	})
	a.Users = slowUsers{memUsers: memUsers{st}, delay: 40 * time.Millisecond}
	a.SearchTimeout = 10 * time.Millisecond

	for i := 0; i < 25; i++ {
		block, err := a.Assemble(context.Background(), userID, "hello")
		require.NoError(t, err)
		assert.Contains(t, block, "Relevant memories:", "run %d", i)
	}
}

func TestAssembleWithoutVectorStore(t *testing.T) {
	a, _, userID := seededAssembler(t, nil, nil)
	block, err := a.Assemble(context.Background(), userID, "hello")
	require.NoError(t, err)
	assert.Contains(t, block, "Recent actions:")
}

func TestAssemblePrimaryReadFailure(t *testing.T) {
	a, st, userID := seededAssembler(t, nil, nil)
	st.failSwapReads = errors.New("db down")

	_, err := a.Assemble(context.Background(), userID, "hello")
	assert.Error(t, err)

	_, err = a.Assemble(context.Background(), "ghost", "hello")
	assert.Error(t, err)
}

func TestAssembleEmptyLedger(t *testing.T) {
	st := newMemStore()
	u := st.addUser("New")
	a := NewContextAssembler(memUsers{st}, memActions{st}, memSwaps{st}, nil, nil, 0, 0, 0, nil, nil)

	block, err := a.Assemble(context.Background(), u.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, "User: New (Level: Seed, XP: 0)\nRecent actions:\n- none\nRecent swaps:\n- none", block)
}

func TestAssembleRecentLimits(t *testing.T) {
	st := newMemStore()
	u := st.addUser("Ada")
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		require.NoError(t, memActions{st}.Create(ctx, &entity.Action{UserID: u.ID, Type: entity.ActionWalk, XPGained: 30}))
	}
	for i := 0; i < 7; i++ {
		require.NoError(t, memSwaps{st}.Create(ctx, &entity.Swap{UserID: u.ID, Original: "a", Replacement: "b", XP: 100}))
	}
	a := NewContextAssembler(memUsers{st}, memActions{st}, memSwaps{st}, nil, nil, 0, 0, 0, nil, nil)

	block, err := a.Assemble(ctx, u.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, 10, strings.Count(block, "- WALK"))
	assert.Equal(t, 5, strings.Count(block, "- a -> b"))
}

func TestAssembleTokenBoundDropsMemoriesFirst(t *testing.T) {
	long := strings.Repeat("compost ", 400)
	vectors := &fakeVectors{hits: []vectorbridge.Hit{{ID: "m1", Payload: map[string]any{"text": long}}}}
	a, _, userID := seededAssembler(t, fakeEmbedder{vec: []float32{1}}, vectors)
	a.MaxTokens = 120

	block, err := a.Assemble(context.Background(), userID, "hi")
	require.NoError(t, err)
	assert.NotContains(t, block, "Relevant memories")
	assert.Contains(t, block, "Recent swaps:")
}

func TestAssembleTokenBoundKeepsHeader(t *testing.T) {
	a, _, userID := seededAssembler(t, nil, nil)
	a.MaxTokens = 15

	block, err := a.Assemble(context.Background(), userID, "hi")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(block, "User: Ada (Level: Seedling, XP: 150)"))
	assert.NotContains(t, block, "Recent swaps:")
}
