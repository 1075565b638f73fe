package vectorindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	chromem "github.com/philippgille/chromem-go"

	"github.com/oksasatya/greenloop/internal/vectorbridge"
)

const payloadKey = "payload"

// ChromemConfig configures the embedded index.
type ChromemConfig struct {
	PersistPath string // empty keeps the index in memory
	Collection  string
	Dimension   int
}

// Chromem is an embedded index persisted as a gob file. Vectors are always
// supplied by the caller; the collection never embeds on its own.
type Chromem struct {
	db         *chromem.DB
	collection *chromem.Collection
	dim        int
}

func NewChromem(cfg ChromemConfig) (*Chromem, error) {
	if cfg.Collection == "" {
		cfg.Collection = "default"
	}
	var (
		db  *chromem.DB
		err error
	)
	if cfg.PersistPath != "" {
		db, err = chromem.NewPersistentDB(filepath.Join(cfg.PersistPath, "chromem.gob"), false)
		if err != nil {
			return nil, fmt.Errorf("create persistent DB: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	noEmbed := func(context.Context, string) ([]float32, error) {
		return nil, errors.New("embeddings must be supplied by the caller")
	}
	col, err := db.GetOrCreateCollection(cfg.Collection, nil, noEmbed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Chromem{db: db, collection: col, dim: cfg.Dimension}, nil
}

func (c *Chromem) Upsert(ctx context.Context, id string, vector []float32, payload map[string]any) error {
	if err := checkDim(c.dim, vector); err != nil {
		return err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	meta := map[string]string{payloadKey: string(raw)}
	for k, v := range payload {
		if s, ok := v.(string); ok {
			meta[k] = s
		}
	}
	content, _ := payload["text"].(string)
	if content == "" {
		content = id
	}

	// AddDocument replaces an existing document with the same id.
	return c.collection.AddDocument(ctx, chromem.Document{
		ID:        id,
		Content:   content,
		Embedding: vector,
		Metadata:  meta,
	})
}

func (c *Chromem) Search(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]vectorbridge.Hit, error) {
	if err := checkDim(c.dim, vector); err != nil {
		return nil, err
	}
	n := c.collection.Count()
	if n == 0 {
		return nil, nil
	}
	if topK > n {
		topK = n
	}
	results, err := c.collection.QueryEmbedding(ctx, vector, topK, filter, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	hits := make([]vectorbridge.Hit, 0, len(results))
	for _, r := range results {
		var payload map[string]any
		if err := json.Unmarshal([]byte(r.Metadata[payloadKey]), &payload); err != nil {
			continue
		}
		hits = append(hits, vectorbridge.Hit{ID: r.ID, Score: r.Similarity, Payload: payload})
	}
	return hits, nil
}

func (c *Chromem) Count() int { return c.collection.Count() }

// Close is a no-op; chromem persists on every write.
func (c *Chromem) Close() error { return nil }

var _ Index = (*Chromem)(nil)
