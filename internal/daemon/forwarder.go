package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"kinetic/internal/logging"
)

// Forwarder relays submitted JSON bodies verbatim to a fixed webhook
// endpoint. It is stateless; the response mirrors the upstream status and
// carries the parsed body, or a raw-text fallback when the body is not
// valid JSON. Nothing the upstream sends can make the relay itself fail.
type Forwarder struct {
	targetURL string
	http      *http.Client
	log       logging.Logger
}

// ForwardResult mirrors the upstream response.
type ForwardResult struct {
	Status int  `json:"status"`
	OK     bool `json:"ok"`
	Data   any  `json:"data"`
}

func NewForwarder(targetURL string, httpClient *http.Client, log logging.Logger) *Forwarder {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Forwarder{targetURL: targetURL, http: httpClient, log: log}
}

// Relay forwards body to the webhook. Only a transport failure returns an
// error; any HTTP response, whatever its status or body, yields a result.
func (f *Forwarder) Relay(ctx context.Context, body []byte, contentType string) (ForwardResult, error) {
	if f.targetURL == "" {
		return ForwardResult{}, errors.New("webhook target url is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.targetURL, bytes.NewReader(body))
	if err != nil {
		return ForwardResult{}, err
	}
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := f.http.Do(req)
	if err != nil {
		return ForwardResult{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		f.log.Warn("webhook response read failed", logging.F("error", err))
		raw = nil
	}

	var data any
	if jsonErr := json.Unmarshal(raw, &data); jsonErr != nil {
		data = map[string]string{"raw": string(raw)}
	}
	return ForwardResult{
		Status: resp.StatusCode,
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		Data:   data,
	}, nil
}

// PatientQuery is the webhook relay endpoint.
func (a *API) PatientQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}
	result, err := a.Forwarder.Relay(r.Context(), body, r.Header.Get("Content-Type"))
	if err != nil {
		a.Logger.Warn("webhook relay failed", logging.F("error", err))
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   "failed to reach webhook",
			"details": err.Error(),
		})
		return
	}
	writeJSON(w, result.Status, result)
}
