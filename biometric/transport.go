package biometric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// The bridge sits in an interactive kiosk loop, so calls get a short bound
// rather than the default client's none.
const requestTimeout = 5 * time.Second

// Transport handles low-level HTTP against one of the biometric services.
type Transport struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewTransport(baseURL string) *Transport {
	return &Transport{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: requestTimeout},
	}
}

// Post sends a JSON POST and decodes the JSON reply into out. The remote
// services answer errors as JSON bodies on non-2xx statuses, so the body is
// decoded regardless of status; the status is returned for the caller to
// judge. A transport-level failure (unreachable, timeout) is returned as an
// error.
func (t *Transport) Post(ctx context.Context, path string, payload any, out any) (int, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		// A body that does not parse is treated as empty; the caller decides
		// based on status and the zero value.
		_ = json.NewDecoder(resp.Body).Decode(out)
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, nil
}

// Get fetches path and decodes the JSON reply into out.
func (t *Transport) Get(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.BaseURL+path, nil)
	if err != nil {
		return 0, err
	}

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, nil
}
