package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"
)

var ErrOracleResponse = errors.New("invalid sentiment oracle response")

// Remote asks an HTTP scoring service for the polarity of a text.
// The service receives {"text": "..."} and answers either
// {"polarity": <number>} or a bare number as text/plain.
type Remote struct {
	endpoint string
	client   *http.Client
}

// NewRemote creates an HTTP oracle with a per-request timeout
func NewRemote(endpoint string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Remote{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type remoteRequest struct {
	Text string `json:"text"`
}

type remoteResponse struct {
	Polarity json.Number `json:"polarity"`
}

func (r *Remote) Score(ctx context.Context, text string) (float64, error) {
	body, err := json.Marshal(remoteRequest{Text: text})
	if err != nil {
		return 0, fmt.Errorf("failed to encode sentiment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build sentiment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sentiment oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrOracleResponse, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return 0, fmt.Errorf("failed to read sentiment response: %w", err)
	}

	value := string(raw)
	if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType != "text/plain" {
		var decoded remoteResponse
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrOracleResponse, err)
		}
		value = decoded.Polarity.String()
	}

	polarity, ok := ParsePolarity(value)
	if !ok {
		return 0, fmt.Errorf("%w: polarity %q is not numeric", ErrOracleResponse, value)
	}
	return clamp(polarity, -1, 1), nil
}
