package simview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DelaySteps are the simulation delays, in seconds, offered by the delay
// controls.
var DelaySteps = []float64{0, 0.1, 0.25, 0.5, 1, 2, 5}

// maxSnapshotBytes bounds a single GET /simulation response.
const maxSnapshotBytes = 64 << 20

// Client talks to the simulation server's REST endpoints.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the server at base. A nil httpClient uses a
// client with a 10s timeout.
func NewClient(base string, httpClient *http.Client) (*Client, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return nil, errors.New("simview: server url must not be empty")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{base: base, http: httpClient}, nil
}

// BaseURL returns the server root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.base
}

// HTTPClient returns the underlying HTTP client.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// FetchSnapshot performs GET /simulation.
func (c *Client) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/simulation", nil)
	if err != nil {
		return nil, fmt.Errorf("simview: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("simview: fetch snapshot: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("simview: fetch snapshot: server responded with status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("simview: read snapshot: %w", err)
	}
	return DecodeSnapshot(body)
}

// SetPaused performs POST /simulation/paused/{paused}.
func (c *Client) SetPaused(ctx context.Context, paused bool) error {
	return c.post(ctx, "/simulation/paused/"+strconv.FormatBool(paused))
}

// SetDelay performs POST /simulation/simulation_delay/{seconds}.
func (c *Client) SetDelay(ctx context.Context, seconds float64) error {
	if seconds < 0 {
		return fmt.Errorf("simview: simulation delay must not be negative, got %g", seconds)
	}
	return c.post(ctx, "/simulation/simulation_delay/"+strconv.FormatFloat(seconds, 'f', -1, 64))
}

func (c *Client) post(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("simview: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("simview: post %s: %w", path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("simview: post %s: server responded with status %s", path, resp.Status)
	}
	return nil
}

// NextDelay returns the nearest entry of DelaySteps above current, or below
// it when up is false. Past either end of the table current is returned
// unchanged, so a delay set outside the table never steps the wrong way.
func NextDelay(current float64, up bool) float64 {
	const eps = 1e-9
	if up {
		for _, d := range DelaySteps {
			if d > current+eps {
				return d
			}
		}
		return current
	}
	for i := len(DelaySteps) - 1; i >= 0; i-- {
		if DelaySteps[i] < current-eps {
			return DelaySteps[i]
		}
	}
	return current
}
