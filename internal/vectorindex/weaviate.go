package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/oksasatya/greenloop/internal/vectorbridge"
)

// WeaviateConfig configures the remote index.
type WeaviateConfig struct {
	URL       string
	ClassName string
	Dimension int
}

// Weaviate stores memories as objects of one class with caller-supplied
// vectors. Non-UUID ids are mapped to stable name-based UUIDs.
type Weaviate struct {
	client *weaviate.Client
	class  string
	dim    int
}

func NewWeaviate(ctx context.Context, cfg WeaviateConfig) (*Weaviate, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid weaviate url %q", cfg.URL)
	}
	client, err := weaviate.NewClient(weaviate.Config{Host: u.Host, Scheme: u.Scheme})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	w := &Weaviate{client: client, class: cfg.ClassName, dim: cfg.Dimension}
	if err := w.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Weaviate) ensureSchema(ctx context.Context) error {
	if _, err := w.client.Schema().ClassGetter().WithClassName(w.class).Do(ctx); err == nil {
		return nil
	}
	filterable := true
	class := &models.Class{
		Class:       w.class,
		Description: "Activity descriptions used as chat memories",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: "memoryId", DataType: []string{"text"}, IndexFilterable: &filterable},
			{Name: "userId", DataType: []string{"text"}, IndexFilterable: &filterable},
			{Name: "payload", DataType: []string{"text"}},
		},
	}
	if err := w.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("create class %s: %w", w.class, err)
	}
	return nil
}

func objectID(id string) string {
	if strfmt.IsUUID(id) {
		return strings.ToLower(id)
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

func (w *Weaviate) Upsert(ctx context.Context, id string, vector []float32, payload map[string]any) error {
	if err := checkDim(w.dim, vector); err != nil {
		return err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	userID, _ := payload["user_id"].(string)
	props := map[string]interface{}{
		"memoryId": id,
		"userId":   userID,
		"payload":  string(raw),
	}
	oid := objectID(id)

	exists, err := w.client.Data().Checker().WithClassName(w.class).WithID(oid).Do(ctx)
	if err != nil {
		return fmt.Errorf("check object: %w", err)
	}
	if exists {
		err = w.client.Data().Updater().
			WithClassName(w.class).
			WithID(oid).
			WithProperties(props).
			WithVector(vector).
			Do(ctx)
	} else {
		_, err = w.client.Data().Creator().
			WithClassName(w.class).
			WithID(oid).
			WithProperties(props).
			WithVector(vector).
			Do(ctx)
	}
	if err != nil {
		return fmt.Errorf("upsert object: %w", err)
	}
	return nil
}

func (w *Weaviate) Search(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]vectorbridge.Hit, error) {
	if err := checkDim(w.dim, vector); err != nil {
		return nil, err
	}
	q := w.client.GraphQL().Get().
		WithClassName(w.class).
		WithFields(
			graphql.Field{Name: "memoryId"},
			graphql.Field{Name: "payload"},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
		).
		WithNearVector(w.client.GraphQL().NearVectorArgBuilder().WithVector(vector)).
		WithLimit(topK)
	if uid, ok := filter["user_id"]; ok {
		q = q.WithWhere(filters.Where().
			WithPath([]string{"userId"}).
			WithOperator(filters.Equal).
			WithValueString(uid))
	}

	resp, err := q.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("near vector query: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("near vector query: %s", resp.Errors[0].Message)
	}
	return parseWeaviateHits(resp.Data, w.class, filter), nil
}

// parseWeaviateHits walks Get.<class>[] of a GraphQL response.
func parseWeaviateHits(data map[string]models.JSONObject, class string, filter map[string]string) []vectorbridge.Hit {
	get, _ := data["Get"].(map[string]interface{})
	items, _ := get[class].([]interface{})

	hits := make([]vectorbridge.Hit, 0, len(items))
	for _, it := range items {
		obj, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		raw, _ := obj["payload"].(string)
		var payload map[string]any
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			continue
		}
		if !matches(payload, filter) {
			continue
		}
		hit := vectorbridge.Hit{Payload: payload}
		hit.ID, _ = obj["memoryId"].(string)
		if add, ok := obj["_additional"].(map[string]interface{}); ok {
			if d, ok := add["distance"].(float64); ok {
				hit.Score = float32(1 - d)
			}
		}
		hits = append(hits, hit)
	}
	return hits
}

func (w *Weaviate) Close() error { return nil }

var _ Index = (*Weaviate)(nil)
