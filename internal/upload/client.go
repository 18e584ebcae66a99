package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client sends exports to a wodlog server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the wodlog server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// ingestResponse is the subset of the server's ingest result the uploader reports.
type ingestResponse struct {
	EntriesParsed   int    `json:"entries_parsed"`
	EntriesInserted int    `json:"entries_inserted"`
	Message         string `json:"message"`
}

// SendBoard POSTs board text for one date to the board ingest endpoint.
// A board with no known exercises is reported with zero entries, not as
// an error.
func (c *Client) SendBoard(text, date string) (ingestResponse, error) {
	body, err := json.Marshal(map[string]string{"text": text, "date": date})
	if err != nil {
		return ingestResponse{}, fmt.Errorf("marshaling board: %w", err)
	}
	return c.post("/api/v1/ingest/board", "application/json", body, http.StatusUnprocessableEntity)
}

// SendFIT POSTs a raw FIT activity file to the FIT ingest endpoint.
func (c *Client) SendFIT(data []byte) (ingestResponse, error) {
	return c.post("/api/v1/ingest/fit", "application/octet-stream", data)
}

// post retries up to 3 times with exponential backoff on transport errors
// and 5xx responses. Other statuses are final; those listed in accept are
// decoded like a 200.
func (c *Client) post(path, contentType string, data []byte, accept ...int) (ingestResponse, error) {
	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			time.Sleep(c.backoff << uint(attempt-1))
		}

		req, err := http.NewRequest(http.MethodPost, c.serverURL+path, bytes.NewReader(data))
		if err != nil {
			return ingestResponse{}, err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK || contains(accept, resp.StatusCode) {
			var out ingestResponse
			if err := json.Unmarshal(body, &out); err != nil {
				return ingestResponse{}, fmt.Errorf("decoding response: %w", err)
			}
			return out, nil
		}
		lastErr = fmt.Errorf("ingest failed (status %d): %s", resp.StatusCode, bytes.TrimSpace(body))
		if resp.StatusCode < 500 {
			return ingestResponse{}, lastErr
		}
	}

	return ingestResponse{}, fmt.Errorf("after 3 attempts: %w", lastErr)
}

func contains(codes []int, code int) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
