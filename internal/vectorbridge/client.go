package vectorbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/oksasatya/greenloop/internal/observability"
)

// Transport carries one encoded request and returns the raw response body.
type Transport interface {
	RoundTrip(ctx context.Context, body []byte) ([]byte, error)
}

// Client wraps a Transport. Its methods never return errors: every failure
// is logged, counted and turned into an empty result.
type Client struct {
	transport Transport
	timeout   time.Duration
	logger    *logrus.Logger
	metrics   *observability.Metrics
}

func NewClient(t Transport, timeout time.Duration, logger *logrus.Logger, m *observability.Metrics) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{transport: t, timeout: timeout, logger: logger, metrics: m}
}

// Search returns at most topK hits, or nil on any failure.
func (c *Client) Search(ctx context.Context, vector []float32, topK int, filter map[string]string) []Hit {
	if c == nil || c.transport == nil || len(vector) == 0 {
		return nil
	}
	resp, err := c.call(ctx, CommandSearch, SearchData{Vector: vector, TopK: topK, Filter: filter})
	if err != nil {
		return nil
	}
	if len(resp.Hits) > topK && topK > 0 {
		return resp.Hits[:topK]
	}
	return resp.Hits
}

// Upsert stores vector and payload under id and reports success.
func (c *Client) Upsert(ctx context.Context, id string, vector []float32, payload map[string]any) bool {
	if c == nil || c.transport == nil || len(vector) == 0 {
		return false
	}
	_, err := c.call(ctx, CommandUpsert, UpsertData{ID: id, Vector: vector, Payload: payload})
	return err == nil
}

func (c *Client) call(ctx context.Context, command string, data any) (*Response, error) {
	ctx, span := observability.Tracer("vectorbridge").Start(ctx, "vectorbridge."+command)
	defer span.End()

	resp, outcome, err := c.roundTrip(ctx, command, data)
	c.metrics.BridgeCall(command, outcome)
	span.SetAttributes(attribute.String("bridge.outcome", outcome))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if c.logger != nil {
			c.logger.WithError(err).WithField("command", command).Warn("vector bridge call failed")
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, command string, data any) (*Response, string, error) {
	req, err := NewRequest(command, data)
	if err != nil {
		return nil, "encode_error", err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, "encode_error", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.transport.RoundTrip(ctx, body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, "timeout", fmt.Errorf("bridge timed out after %s: %w", c.timeout, err)
		}
		return nil, "transport_error", err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, "empty", errors.New("empty bridge response")
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, "malformed", fmt.Errorf("decode bridge response: %w", err)
	}
	if resp.Status != StatusSuccess {
		status := resp.Status
		if status == "" {
			status = "unknown"
		}
		return nil, status, fmt.Errorf("bridge status %q: %s", status, resp.Message)
	}
	return &resp, StatusSuccess, nil
}
