package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/localcortex/lattice/internal/errkit"
)

// HTTPClient calls an external embedding server's /embed endpoint, grounded
// on the teacher's local-provider HTTP client (internal/embed/client): a
// thin JSON POST wrapper with no retry logic. The indexer does not retry
// either: a failed embedding call skips that one file and the run goes on.
type HTTPClient struct {
	endpoint   string
	dimensions int
	client     *http.Client
}

// NewHTTPClient builds a client targeting endpoint (e.g.
// "http://127.0.0.1:8121/embed") producing vectors of the given dimension.
func NewHTTPClient(endpoint string, dimensions int) *HTTPClient {
	return &HTTPClient{
		endpoint:   endpoint,
		dimensions: dimensions,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

type embedRequest struct {
	Texts []string `json:"texts"`
	Mode  string   `json:"mode"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (c *HTTPClient) Embed(ctx context.Context, texts []string, mode string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Texts: texts, Mode: mode})
	if err != nil {
		return nil, errkit.Wrap(errkit.Transient, "marshal embed request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errkit.Wrap(errkit.Transient, "build embed request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errkit.Wrap(errkit.Transient, "embed request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errkit.New(errkit.Transient, fmt.Sprintf("embedding server returned status %d", resp.StatusCode))
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errkit.Wrap(errkit.Transient, "decode embed response", err)
	}
	return decoded.Embeddings, nil
}

func (c *HTTPClient) Dimensions() int { return c.dimensions }

func (c *HTTPClient) Close() error { return nil }

var _ Engine = (*HTTPClient)(nil)
