package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/wodlog/internal/aggregate"
	"github.com/claude/wodlog/internal/catalog"
	"github.com/claude/wodlog/internal/ingest"
	"github.com/claude/wodlog/internal/ingest/board"
	"github.com/claude/wodlog/internal/models"
	"github.com/claude/wodlog/internal/tracker"
)

// HTTPClient implements DataSource by calling the wodlog REST API. Used
// when the MCP binary runs on stdio next to a client while a wodlog server
// owns the database.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// is sent as X-API-Key on every request.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// StatusError is a non-2xx API response. It unwraps to the domain error the
// server mapped to that status.
type StatusError struct {
	Path    string
	Status  int
	Message string
	// Applied is set when the server kept the change in memory but could
	// not persist it.
	Applied bool
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpclient: %s returned %d: %s", e.Path, e.Status, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.Applied:
		return tracker.ErrPersistence
	case e.Status == http.StatusBadRequest:
		return tracker.ErrInvalidEntry
	case e.Status == http.StatusNotFound:
		return tracker.ErrNotFound
	case e.Status == http.StatusUnprocessableEntity:
		return board.ErrNoEntries
	}
	return nil
}

func statusError(path string, status int, body []byte) error {
	var payload struct {
		Error   string `json:"error"`
		Applied bool   `json:"applied"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &StatusError{Path: path, Status: status, Message: msg, Applied: payload.Applied}
}

// send performs one request. Only transport failures are errors; the
// caller interprets the status.
func (c *HTTPClient) send(ctx context.Context, method, path string, params url.Values, in any) (int, []byte, error) {
	// EscapedPath keeps the default encoding so chi sees the decoded path.
	u := c.baseURL + (&url.URL{Path: path}).EscapedPath()
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("httpclient: encode %s: %w", path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("httpclient: read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// call sends a request and decodes a 2xx response into out.
func (c *HTTPClient) call(ctx context.Context, method, path string, params url.Values, in, out any) error {
	status, body, err := c.send(ctx, method, path, params, in)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return statusError(path, status, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) Catalog(ctx context.Context) ([]catalog.Exercise, error) {
	var out []catalog.Exercise
	if err := c.call(ctx, http.MethodGet, "/api/v1/catalog", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Exercise looks id up on the server. Ids outside the exercise table are
// reported as strength movements.
func (c *HTTPClient) Exercise(ctx context.Context, id string) (catalog.Exercise, error) {
	var ex catalog.Exercise
	err := c.call(ctx, http.MethodGet, "/api/v1/catalog/"+id, nil, nil, &ex)
	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return catalog.Exercise{ID: id, Category: models.CategoryStrength}, nil
	}
	return ex, err
}

func (c *HTTPClient) Profile(ctx context.Context) (models.Profile, error) {
	var p models.Profile
	err := c.call(ctx, http.MethodGet, "/api/v1/profile", nil, nil, &p)
	return p, err
}

func (c *HTTPClient) Maxes(ctx context.Context) (map[string]float64, error) {
	out := map[string]float64{}
	if err := c.call(ctx, http.MethodGet, "/api/v1/maxes", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) MaxHistory(ctx context.Context, exercise string) (MaxHistory, error) {
	var mh MaxHistory
	err := c.call(ctx, http.MethodGet, "/api/v1/maxes/"+exercise+"/history", nil, nil, &mh)
	return mh, err
}

func (c *HTTPClient) Entries(ctx context.Context) ([]models.SessionEntry, error) {
	var out []models.SessionEntry
	if err := c.call(ctx, http.MethodGet, "/api/v1/entries", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) AddEntry(ctx context.Context, in tracker.EntryInput) (models.SessionEntry, *tracker.Improvement, error) {
	var out struct {
		Entry       models.SessionEntry  `json:"entry"`
		Improvement *tracker.Improvement `json:"improvement"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/v1/entries", nil, in, &out); err != nil {
		return models.SessionEntry{}, nil, err
	}
	return out.Entry, out.Improvement, nil
}

// DaySummary fetches the summary for date; an empty date means the
// server's today.
func (c *HTTPClient) DaySummary(ctx context.Context, date string) (aggregate.DaySummary, error) {
	if date == "" {
		date = "today"
	}
	var sum aggregate.DaySummary
	err := c.call(ctx, http.MethodGet, "/api/v1/days/"+date+"/summary", nil, nil, &sum)
	return sum, err
}

func (c *HTTPClient) Performance(ctx context.Context, n int) (aggregate.Performance, error) {
	params := url.Values{}
	if n > 0 {
		params.Set("limit", strconv.Itoa(n))
	}
	var perf aggregate.Performance
	err := c.call(ctx, http.MethodGet, "/api/v1/performance", params, nil, &perf)
	return perf, err
}

func (c *HTTPClient) ParseBoard(ctx context.Context, text, date string, save bool) (*ingest.Result, error) {
	const path = "/api/v1/ingest/board"
	in := map[string]any{"text": text, "date": date, "preview": !save}
	status, body, err := c.send(ctx, http.MethodPost, path, nil, in)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK, http.StatusUnprocessableEntity:
		var res ingest.Result
		if err := json.Unmarshal(body, &res); err != nil {
			return nil, fmt.Errorf("httpclient: decode %s: %w", path, err)
		}
		if status == http.StatusUnprocessableEntity {
			return &res, fmt.Errorf("httpclient: %s: %w", path, board.ErrNoEntries)
		}
		return &res, nil
	default:
		return nil, statusError(path, status, body)
	}
}
