// Package advisory calls the external recommendation endpoint. Responses
// are parsed tolerantly: an unexpected shape is reported as a failed fetch,
// never as a panic or a propagated decode error.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"kinetic/internal/domain"
)

// ErrMalformedResponse marks a response body with no recognizable
// recommendation content.
var ErrMalformedResponse = errors.New("advisory response has no recognizable recommendations")

// Config controls the advisory endpoint client.
type Config struct {
	URL        string
	HTTPClient *http.Client
}

// Client implements ports.AdvisoryClient over HTTP.
type Client struct {
	url  string
	http *http.Client
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{url: cfg.URL, http: httpClient}
}

func (c *Client) Fetch(ctx context.Context, patientID, condition string) ([]domain.Recommendation, error) {
	if c.url == "" {
		return nil, errors.New("advisory url is not configured")
	}

	payload, err := json.Marshal(map[string]string{
		"patientId": patientID,
		"condition": condition,
	})
	if err != nil {
		return nil, fmt.Errorf("encode advisory request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build advisory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reach advisory endpoint: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read advisory response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("advisory endpoint returned status %d", resp.StatusCode)
	}

	return parseRecommendations(raw)
}

// parseRecommendations accepts either {"recommendations": [...]} or a bare
// recommendation-shaped object wrapped as a one-element list.
func parseRecommendations(raw []byte) ([]domain.Recommendation, error) {
	var envelope struct {
		Recommendations json.RawMessage `json:"recommendations"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Recommendations != nil {
		var recs []domain.Recommendation
		if err := json.Unmarshal(envelope.Recommendations, &recs); err == nil {
			return recs, nil
		}
	}

	var single domain.Recommendation
	if err := json.Unmarshal(raw, &single); err == nil && !single.IsZero() {
		return []domain.Recommendation{single}, nil
	}

	return nil, ErrMalformedResponse
}
