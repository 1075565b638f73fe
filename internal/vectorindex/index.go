// Package vectorindex holds the nearest-neighbour backends behind the
// vector bridge process and the command dispatcher that fronts them.
package vectorindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oksasatya/greenloop/internal/vectorbridge"
)

const defaultTopK = 3

// ErrDimensionMismatch is returned when a vector does not match the
// collection's configured size.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Index is a vector store keyed by caller-supplied ids.
type Index interface {
	Upsert(ctx context.Context, id string, vector []float32, payload map[string]any) error
	Search(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]vectorbridge.Hit, error)
	Close() error
}

// Handle decodes one protocol request, runs it against idx and always
// returns a response; errors are reported in-band.
func Handle(ctx context.Context, idx Index, raw []byte) vectorbridge.Response {
	if idx == nil {
		return vectorbridge.Response{Status: vectorbridge.StatusSkipped, Message: "vector index unavailable"}
	}
	var req vectorbridge.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return vectorbridge.Errorf("invalid request: " + err.Error())
	}

	switch req.Command {
	case vectorbridge.CommandSearch:
		var data vectorbridge.SearchData
		if err := json.Unmarshal(req.Data, &data); err != nil {
			return vectorbridge.Errorf("invalid search data: " + err.Error())
		}
		if len(data.Vector) == 0 {
			return vectorbridge.Errorf("search requires a vector")
		}
		if data.TopK <= 0 {
			data.TopK = defaultTopK
		}
		hits, err := idx.Search(ctx, data.Vector, data.TopK, data.Filter)
		if err != nil {
			return vectorbridge.Errorf(err.Error())
		}
		if hits == nil {
			hits = []vectorbridge.Hit{}
		}
		return vectorbridge.Response{Status: vectorbridge.StatusSuccess, Hits: hits}

	case vectorbridge.CommandUpsert:
		var data vectorbridge.UpsertData
		if err := json.Unmarshal(req.Data, &data); err != nil {
			return vectorbridge.Errorf("invalid upsert data: " + err.Error())
		}
		if data.ID == "" || len(data.Vector) == 0 {
			return vectorbridge.Errorf("upsert requires id and vector")
		}
		if err := idx.Upsert(ctx, data.ID, data.Vector, data.Payload); err != nil {
			return vectorbridge.Errorf(err.Error())
		}
		return vectorbridge.Response{Status: vectorbridge.StatusSuccess}

	default:
		return vectorbridge.Errorf(fmt.Sprintf("unknown command %q", req.Command))
	}
}

func checkDim(want int, v []float32) error {
	if want > 0 && len(v) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), want)
	}
	return nil
}

// matches reports whether every filter entry equals the payload's value.
func matches(payload map[string]any, filter map[string]string) bool {
	for k, want := range filter {
		got, ok := payload[k]
		if !ok || fmt.Sprint(got) != want {
			return false
		}
	}
	return true
}
