package carehub

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"kinetic/internal/domain"
	"kinetic/internal/logging"
)

// SubscribeAssignedExercises opens a server-sent-events stream of full
// assignment snapshots for the patient. Each data payload is a JSON array
// of assignment records. The channel closes when the stream ends.
func (c *Client) SubscribeAssignedExercises(ctx context.Context, patientID string) (<-chan []domain.AssignedExercise, func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	url := fmt.Sprintf("%s/patients/%s/assignedExercises/stream", c.baseURL, patientID)
	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("open assignment stream: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		cancel()
		return nil, nil, decodeAPIError(resp)
	}

	ch := make(chan []domain.AssignedExercise, 16)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		var dataLines []string

		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				if len(dataLines) == 0 {
					continue
				}
				payload := strings.Join(dataLines, "\n")
				dataLines = dataLines[:0]
				var batch []domain.AssignedExercise
				if err := json.Unmarshal([]byte(payload), &batch); err != nil {
					c.log.Warn("assignment stream payload skipped", logging.F("error", err))
					continue
				}
				select {
				case ch <- batch:
				case <-ctx.Done():
					return
				}
				continue
			}
			if strings.HasPrefix(line, "data:") {
				dataLines = append(dataLines, strings.TrimSpace(line[len("data:"):]))
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			c.log.Warn("assignment stream ended", logging.F("error", err))
		}
	}()

	return ch, cancel, nil
}
