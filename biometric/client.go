package biometric

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

var (
	// ErrDeviceUnavailable: the capture service did not answer (down or timed
	// out). Retryable by the operator, not retried here.
	ErrDeviceUnavailable = errors.New("biometric device unavailable")
	// ErrCaptureFailed: the device answered but produced no usable template.
	ErrCaptureFailed = errors.New("fingerprint capture failed")
	// ErrNoFinger: nothing on the reader. Kiosk polling treats this as a quiet
	// miss, not a failure.
	ErrNoFinger = errors.New("no finger on reader")
)

// Remote codes the capture service uses for "nothing to capture".
const codeNoFinger = -8

// Client bridges the two biometric services: the capture service that drives
// the reader hardware, and the store service that keeps templates and does the
// 1:N / 1:1 matching.
type Client struct {
	capture *Transport
	store   *Transport
}

func NewClient(captureBase, storeBase string) *Client {
	return &Client{
		capture: NewTransport(captureBase),
		store:   NewTransport(storeBase),
	}
}

// OpenState is the normalized outcome of Open. The remote service reports an
// already-open device several different ways ("alreadyOpen", code 1, or plain
// ok); every one of them is success here so callers never special-case it.
type OpenState int

const (
	Opened OpenState = iota
	AlreadyOpen
)

type openResponse struct {
	OK          bool   `json:"ok"`
	AlreadyOpen bool   `json:"alreadyOpen"`
	Code        int    `json:"code"`
	Message     string `json:"message"`
}

// Open readies the reader. Idempotent: opening an open device succeeds.
func (c *Client) Open(ctx context.Context) (OpenState, error) {
	var resp openResponse
	status, err := c.capture.Post(ctx, "/device/open", nil, &resp)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	switch {
	case resp.AlreadyOpen || resp.Code == 1:
		return AlreadyOpen, nil
	case status < 300 && resp.OK:
		return Opened, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrDeviceUnavailable, orUnknown(resp.Message))
}

// Close releases the reader. Best-effort by contract: it runs even after a
// failed open/capture and its own failure is only logged, never surfaced, so a
// broken capture cannot leak an open device session.
func (c *Client) Close(ctx context.Context) {
	if _, err := c.capture.Post(ctx, "/device/close", nil, nil); err != nil {
		log.Printf("[BIOMETRIC] device close failed: %v", err)
	}
}

type captureResponse struct {
	OK       bool   `json:"ok"`
	Template string `json:"template"`
	Code     int    `json:"code"`
	Reason   string `json:"reason"`
	Message  string `json:"message"`
}

// Capture opens the device (retrying once, the reader can be slow to wake),
// takes one sample and returns it base64-encoded. The device is closed
// best-effort afterwards whether or not the capture worked.
func (c *Client) Capture(ctx context.Context) (string, error) {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if _, err = c.Open(ctx); err == nil {
			break
		}
		time.Sleep(200 * time.Millisecond)
	}
	if err != nil {
		c.Close(ctx)
		return "", err
	}

	template, err := c.captureSample(ctx)
	c.Close(ctx)
	return template, err
}

func (c *Client) captureSample(ctx context.Context) (string, error) {
	var resp captureResponse
	status, err := c.capture.Post(ctx, "/device/capture", nil, &resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	if status < 300 && resp.OK && resp.Template != "" {
		return resp.Template, nil
	}
	if resp.Code == codeNoFinger || resp.Reason == "NO_FINGER" {
		return "", ErrNoFinger
	}
	return "", fmt.Errorf("%w: %s", ErrCaptureFailed, orUnknown(resp.Message))
}

// IdentifyResult is the outcome of a 1:N match. Match=false is a successful
// call, not an error.
type IdentifyResult struct {
	Match     bool    `json:"match"`
	UserID    string  `json:"userId"`
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
	Message   string  `json:"message"`
}

type identifyResponse struct {
	OK        bool    `json:"ok"`
	Match     bool    `json:"match"`
	UserID    string  `json:"userId"`
	UserIDAlt string  `json:"user_id"`
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
	Message   string  `json:"message"`
}

// Identify runs the template against every enrolled user.
func (c *Client) Identify(ctx context.Context, template string) (IdentifyResult, error) {
	var resp identifyResponse
	status, err := c.store.Post(ctx, "/identify-fingerprint", map[string]string{
		"fingerprint": template,
	}, &resp)
	if err != nil {
		return IdentifyResult{}, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if status >= 300 && !resp.OK {
		return IdentifyResult{}, fmt.Errorf("identify failed: %s", orUnknown(resp.Message))
	}

	result := IdentifyResult{
		Match:     resp.OK && resp.Match,
		UserID:    resp.UserID,
		Score:     resp.Score,
		Threshold: resp.Threshold,
		Message:   resp.Message,
	}
	if result.UserID == "" {
		result.UserID = resp.UserIDAlt
	}
	if result.UserID == "" {
		result.Match = false
	}
	return result, nil
}

// VerifyResult is the outcome of a 1:1 check against a claimed identity.
type VerifyResult struct {
	Match     bool    `json:"match"`
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
	Message   string  `json:"message"`
}

// Verify confirms the template belongs to userID. Callers must capture a fresh
// template for every verify call; templates are never reused.
func (c *Client) Verify(ctx context.Context, userID, template string) (VerifyResult, error) {
	var resp struct {
		OK        bool    `json:"ok"`
		Match     bool    `json:"match"`
		Score     float64 `json:"score"`
		Threshold float64 `json:"threshold"`
		Message   string  `json:"message"`
	}
	status, err := c.store.Post(ctx, "/verify-fingerprint", map[string]string{
		"user_id":     userID,
		"fingerprint": template,
	}, &resp)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if status >= 300 {
		return VerifyResult{}, fmt.Errorf("verify failed: %s", orUnknown(resp.Message))
	}

	return VerifyResult{
		Match:     resp.Match,
		Score:     resp.Score,
		Threshold: resp.Threshold,
		Message:   resp.Message,
	}, nil
}

// Register enrolls templates for userID, replacing any previous enrollment.
// One sample goes through the single-sample path; two or more use the remote
// multi-sample merge, which is a distinct operation with better matching
// quality.
func (c *Client) Register(ctx context.Context, userID string, templates ...string) error {
	if len(templates) == 0 {
		return fmt.Errorf("register: no templates supplied")
	}

	var resp struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
	}
	var status int
	var err error
	if len(templates) == 1 {
		status, err = c.store.Post(ctx, "/register-fingerprint", map[string]any{
			"user_id":     userID,
			"fingerprint": templates[0],
		}, &resp)
	} else {
		status, err = c.store.Post(ctx, "/register-fingerprint-multi", map[string]any{
			"user_id":      userID,
			"fingerprints": templates,
		}, &resp)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if status >= 300 || !resp.OK {
		return fmt.Errorf("register failed: %s", orUnknown(resp.Message))
	}
	return nil
}

// Status reports whether userID has an enrolled template on the store service.
func (c *Client) Status(ctx context.Context, userID string) (bool, error) {
	var resp struct {
		OK             bool `json:"ok"`
		HasFingerprint bool `json:"hasFingerprint"`
	}
	status, err := c.store.Get(ctx, "/fingerprint/status/"+userID, &resp)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if status >= 300 || !resp.OK {
		return false, fmt.Errorf("fingerprint status lookup failed")
	}
	return resp.HasFingerprint, nil
}

func orUnknown(message string) string {
	if message == "" {
		return "unknown error"
	}
	return message
}
