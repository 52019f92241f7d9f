// Package carehub is the HTTP client for the remote patient-record service.
// Assignment and progress records live under patients/{patientId}; partial
// updates are sent as JSON field maps so completed records are never
// rewritten wholesale.
package carehub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"kinetic/internal/domain"
	"kinetic/internal/logging"
)

// Config controls the record service client.
type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// Client implements ports.RecordStore against the care hub REST/SSE API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     logging.Logger
}

func New(cfg Config, log logging.Logger) *Client {
	if log == nil {
		log = logging.Nop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    httpClient,
		log:     log,
	}
}

func (c *Client) AssignedExercises(ctx context.Context, patientID string) ([]domain.AssignedExercise, error) {
	url := fmt.Sprintf("%s/patients/%s/assignedExercises", c.baseURL, patientID)
	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list assigned exercises: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp)
	}
	var assignments []domain.AssignedExercise
	if err := json.NewDecoder(resp.Body).Decode(&assignments); err != nil {
		return nil, fmt.Errorf("decode assigned exercises: %w", err)
	}
	return assignments, nil
}

func (c *Client) UpdateAssignedExercise(ctx context.Context, patientID, id string, fields map[string]any) error {
	url := fmt.Sprintf("%s/patients/%s/assignedExercises/%s", c.baseURL, patientID, id)
	return c.patch(ctx, url, fields)
}

func (c *Client) CreateExerciseProgress(ctx context.Context, patientID string, progress domain.ExerciseProgress) (string, error) {
	url := fmt.Sprintf("%s/patients/%s/exerciseProgress", c.baseURL, patientID)
	body, err := json.Marshal(progress)
	if err != nil {
		return "", fmt.Errorf("encode progress record: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("create progress record: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", decodeAPIError(resp)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode progress record: %w", err)
	}
	if created.ID == "" {
		return "", errors.New("care hub returned a progress record without an id")
	}
	return created.ID, nil
}

func (c *Client) UpdateExerciseProgress(ctx context.Context, patientID, id string, fields map[string]any) error {
	url := fmt.Sprintf("%s/patients/%s/exerciseProgress/%s", c.baseURL, patientID, id)
	return c.patch(ctx, url, fields)
}

func (c *Client) patch(ctx context.Context, url string, fields map[string]any) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, errors.New("care hub base url is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("care hub: status %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("care hub: status %d", resp.StatusCode)
}
