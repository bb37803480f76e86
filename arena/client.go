package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// searchConfig mirrors the backend's search settings on the wire.
type searchConfig struct {
	Algorithm string `json:"algorithm"`
	Depth     int    `json:"depth"`
	Caching   bool   `json:"caching"`
	Ordering  bool   `json:"ordering"`
}

type startRequest struct {
	Size         int           `json:"size"`
	Dark         *searchConfig `json:"dark"`
	Light        *searchConfig `json:"light"`
	OpeningPlies int           `json:"opening_plies"`
	Seed         uint64        `json:"seed"`
}

type statusResponse struct {
	Status    string            `json:"status"`
	Winner    int               `json:"winner"`
	Dark      int               `json:"dark"`
	Light     int               `json:"light"`
	BoardSize int               `json:"board_size"`
	History   []json.RawMessage `json:"history"`
}

type backendClient struct {
	client       *http.Client
	baseURL      string
	pollInterval time.Duration
}

func newBackendClient(baseURL string, pollInterval time.Duration) *backendClient {
	return &backendClient{
		client:       &http.Client{Timeout: 10 * time.Second},
		baseURL:      baseURL,
		pollInterval: pollInterval,
	}
}

func (c *backendClient) waitReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if err := c.ping(ctx); err == nil {
			return nil
		}
		if !sleepWithContext(ctx, c.pollInterval) {
			return ctx.Err()
		}
	}
	return errors.Errorf("backend not ready after %s", timeout)
}

func (c *backendClient) ping(ctx context.Context) error {
	var out map[string]bool
	return c.getJSON(ctx, "/api/ping", &out)
}

// playGame starts a match and polls until the backend reports it finished.
func (c *backendClient) playGame(ctx context.Context, request startRequest, timeout time.Duration) (statusResponse, error) {
	if err := c.postJSON(ctx, "/api/start", request, nil); err != nil {
		return statusResponse{}, err
	}
	deadline := time.Now().Add(timeout)
	for {
		var status statusResponse
		if err := c.getJSON(ctx, "/api/status", &status); err != nil {
			return statusResponse{}, err
		}
		if status.Status != "running" {
			return status, nil
		}
		if timeout > 0 && time.Now().After(deadline) {
			_ = c.postJSON(context.Background(), "/api/stop", map[string]any{}, nil)
			return statusResponse{}, errors.Errorf("game timeout after %s", timeout)
		}
		if !sleepWithContext(ctx, c.pollInterval) {
			_ = c.postJSON(context.Background(), "/api/stop", map[string]any{}, nil)
			return statusResponse{}, ctx.Err()
		}
	}
}

func (c *backendClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrapf(err, "GET %s", path)
	}
	return c.do(req, path, out)
}

func (c *backendClient) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "encode %s payload", path)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "POST %s", path)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *backendClient) do(req *http.Request, path string, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", req.Method, path)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("%s %s -> %d: %s", req.Method, path, resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	return errors.Wrapf(json.NewDecoder(resp.Body).Decode(out), "decode %s", path)
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
