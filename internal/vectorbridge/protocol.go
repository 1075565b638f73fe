// Package vectorbridge speaks the one-shot JSON command protocol of the
// vector index process: one request object in, one response object out.
package vectorbridge

import "encoding/json"

const (
	CommandSearch = "search"
	CommandUpsert = "upsert"

	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Request is the envelope written to the bridge.
type Request struct {
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data"`
}

// SearchData is the payload of a search command. Filter entries must all
// match the stored payload (string equality).
type SearchData struct {
	Vector []float32         `json:"vector"`
	TopK   int               `json:"top_k"`
	Filter map[string]string `json:"filter,omitempty"`
}

// UpsertData is the payload of an upsert command.
type UpsertData struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Hit is one nearest-neighbour result.
type Hit struct {
	ID      string         `json:"id"`
	Score   float32        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Response is the envelope read back from the bridge.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Hits    []Hit  `json:"hits,omitempty"`
}

// NewRequest encodes data under command.
func NewRequest(command string, data any) (Request, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Request{}, err
	}
	return Request{Command: command, Data: raw}, nil
}

// Errorf builds an error response.
func Errorf(msg string) Response {
	return Response{Status: StatusError, Message: msg}
}
