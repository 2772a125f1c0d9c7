package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/kcal/internal/model"
	"github.com/theirongolddev/kcal/internal/tracker"
)

const (
	requestTimeout = 5 * time.Second
	maxRespSize    = 1 << 20 // 1 MB
)

// ErrUnavailable indicates the daemon could not be reached.
var ErrUnavailable = errors.New("daemon: unavailable")

// Client talks to a running `kcal serve` over its HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the daemon listening on addr
// ("host:port" or a full http URL).
func NewClient(addr string) *Client {
	addr = strings.TrimRight(strings.TrimSpace(addr), "/")
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return &Client{
		baseURL: addr,
		http:    &http.Client{},
	}
}

// Health reports whether the daemon answers /healthz.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK)
	return err
}

// Status fetches /v1/status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.doJSON(ctx, http.MethodGet, "/v1/status", nil, http.StatusOK, &st)
	return st, err
}

// Log fetches today's log.
func (c *Client) Log(ctx context.Context) (LogState, error) {
	var state LogState
	err := c.doJSON(ctx, http.MethodGet, "/v1/log", nil, http.StatusOK, &state)
	return state, err
}

// AddEntry adds a meal. A rejected entry returns tracker.ErrInvalidEntry.
func (c *Client) AddEntry(ctx context.Context, name, calories string) (model.MealEntry, error) {
	var entry model.MealEntry
	req := map[string]string{"name": name, "calories": calories}
	err := c.doJSON(ctx, http.MethodPost, "/v1/entries", req, http.StatusCreated, &entry)
	return entry, err
}

// DeleteEntry removes a meal by id.
func (c *Client) DeleteEntry(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, "/v1/entries/"+strconv.FormatInt(id, 10), nil, http.StatusNoContent)
	return err
}

// SetGoal sets the goal from raw text, parsed leniently by the daemon.
func (c *Client) SetGoal(ctx context.Context, raw string) (LogState, error) {
	var state LogState
	err := c.doJSON(ctx, http.MethodPut, "/v1/goal", map[string]string{"goal": raw}, http.StatusOK, &state)
	return state, err
}

// Reset clears today's entries when confirm is true.
func (c *Client) Reset(ctx context.Context, confirm bool) (LogState, error) {
	var state LogState
	err := c.doJSON(ctx, http.MethodPost, "/v1/reset", map[string]bool{"confirm": confirm}, http.StatusOK, &state)
	return state, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, want int, out any) error {
	body, err := c.do(ctx, method, path, in, want)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("daemon: parsing %s response: %w", path, err)
	}
	return nil
}

// do performs a request and returns the body when the status is want.
func (c *Client) do(ctx context.Context, method, path string, in any, want int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("daemon: encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("daemon: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRespSize))
	if err != nil {
		return nil, fmt.Errorf("daemon: reading response: %w", err)
	}

	switch {
	case resp.StatusCode == want:
		return body, nil
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, tracker.ErrInvalidEntry
	}

	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		return nil, fmt.Errorf("daemon: %s %s: HTTP %d: %s", method, path, resp.StatusCode, apiErr.Error)
	}
	return nil, fmt.Errorf("daemon: %s %s: unexpected status %d", method, path, resp.StatusCode)
}
