package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/greenloop/internal/domain/entity"
)

type esStub struct {
	mu       sync.Mutex
	requests map[string][]byte
}

func newESStub(t *testing.T, searchBody string) (*elasticsearch.Client, *esStub) {
	t.Helper()
	stub := &esStub{requests: map[string][]byte{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		stub.mu.Lock()
		stub.requests[r.Method+" "+r.URL.Path] = b
		stub.mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/_search") {
			_, _ = io.WriteString(w, searchBody)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	}))
	t.Cleanup(srv.Close)
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return es, stub
}

func (s *esStub) body(key string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var m map[string]any
	_ = json.Unmarshal(s.requests[key], &m)
	return m
}

func TestIndexUser(t *testing.T) {
	es, stub := newESStub(t, `{}`)
	idx := NewUserIndex(es, "users", nil)

	u := &entity.User{ID: "u1", Email: "ada@example.com", Name: "Ada", Level: entity.LevelTree, TotalXP: 2100, Streak: 4}
	require.NoError(t, idx.IndexUser(context.Background(), u))

	doc := stub.body("PUT /users/_doc/u1")
	assert.Equal(t, "Tree", doc["level"])
	assert.Equal(t, 2100.0, doc["xp"])
	assert.Equal(t, true, doc["public_profile"])
}

func TestSearchUsersDropsEmail(t *testing.T) {
	es, stub := newESStub(t, `{"hits":{"hits":[{"_id":"u1","_source":{"id":"u1","name":"Ada","email":"leak@example.com","level":"Tree"}}]}}`)
	idx := NewUserIndex(es, "users", nil)

	hits, err := idx.SearchUsers(context.Background(), "ada", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Ada", hits[0]["name"])
	assert.NotContains(t, hits[0], "email")

	q := stub.body("POST /users/_search")
	assert.Equal(t, 10.0, q["size"])
}

func TestNilIndexIsNoop(t *testing.T) {
	var idx *UserIndex
	assert.NoError(t, idx.IndexUser(context.Background(), &entity.User{ID: "u1"}))
	hits, err := idx.SearchUsers(context.Background(), "x", 5)
	assert.NoError(t, err)
	assert.Empty(t, hits)
}
