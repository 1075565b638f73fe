package vectorbridge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
)

// ExecTransport spawns Bin once per call, writes the request to its stdin,
// closes it and reads the whole stdout as the response.
type ExecTransport struct {
	Bin  string
	Args []string
}

// NewExecTransport runs "<bin> exec" unless args are given.
func NewExecTransport(bin string, args ...string) *ExecTransport {
	if len(args) == 0 {
		args = []string{"exec"}
	}
	return &ExecTransport{Bin: bin, Args: args}
}

func (t *ExecTransport) RoundTrip(ctx context.Context, body []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, t.Bin, t.Args...)
	cmd.Stdin = bytes.NewReader(body)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", t.Bin, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// HTTPTransport posts the request to URL + "/v1/command".
type HTTPTransport struct {
	URL    string
	Client *http.Client
}

func NewHTTPTransport(baseURL string) *HTTPTransport {
	return &HTTPTransport{URL: strings.TrimRight(baseURL, "/") + CommandPath, Client: http.DefaultClient}
}

// CommandPath is the route served by the bridge's HTTP mode.
const CommandPath = "/v1/command"

func (t *HTTPTransport) RoundTrip(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	out, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	// error responses still carry a JSON status body; the client decides.
	if resp.StatusCode >= 500 && len(bytes.TrimSpace(out)) == 0 {
		return nil, fmt.Errorf("bridge http status %d", resp.StatusCode)
	}
	return out, nil
}
