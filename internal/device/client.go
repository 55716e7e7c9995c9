package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"aquastream/internal/models"
)

const (
	controlPath  = "/control"
	maxErrorBody = 256
)

var (
	// ErrDeviceStatus wraps any non-2xx answer from the device.
	ErrDeviceStatus = errors.New("device returned non-success status")
	// ErrNoBaseURL is returned when the device URL is not configured.
	ErrNoBaseURL = errors.New("device base url is empty")
)

// Endpoint resolves the device base URL. It is consulted on every request so
// changes to the device settings take effect without a restart.
type Endpoint interface {
	DeviceBaseURL(ctx context.Context) (string, error)
}

// Client talks to the aquarium controller over plain HTTP.
type Client struct {
	endpoint   Endpoint
	statusPath string
	h          *http.Client
}

func NewClient(endpoint Endpoint, statusPath string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   endpoint,
		statusPath: statusPath,
		h:          &http.Client{Timeout: timeout},
	}
}

// FetchStatus reads one telemetry snapshot. The returned reading has no timestamp;
// the caller stamps it with its own clock.
func (c *Client) FetchStatus(ctx context.Context) (models.SensorReading, models.ActuatorState, error) {
	base, err := c.baseURL(ctx)
	if err != nil {
		return models.SensorReading{}, models.ActuatorState{}, err
	}
	return c.fetch(ctx, base)
}

// Send writes a single actuator command as a form body "<cmd>=<0|1>".
func (c *Client) Send(ctx context.Context, cmd models.Command, on bool) error {
	if !cmd.Valid() {
		return fmt.Errorf("%w: %q", models.ErrUnknownCommand, cmd)
	}
	base, err := c.baseURL(ctx)
	if err != nil {
		return err
	}

	v := "0"
	if on {
		v = "1"
	}
	form := url.Values{}
	form.Set(string(cmd), v)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+controlPath, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build control request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.h.Do(req)
	if err != nil {
		return fmt.Errorf("send %s=%s: %w", cmd, v, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("send %s=%s: %w", cmd, v, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Ping checks the configured device answers the status endpoint with a decodable payload.
func (c *Client) Ping(ctx context.Context) error {
	base, err := c.baseURL(ctx)
	if err != nil {
		return err
	}
	_, _, err = c.fetch(ctx, base)
	return err
}

// PingURL is Ping against an explicit base URL, used to test a URL before saving it.
func (c *Client) PingURL(ctx context.Context, base string) error {
	base = normalizeBase(base)
	if base == "" {
		return ErrNoBaseURL
	}
	_, _, err := c.fetch(ctx, base)
	return err
}

func (c *Client) fetch(ctx context.Context, base string) (models.SensorReading, models.ActuatorState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+c.statusPath, nil)
	if err != nil {
		return models.SensorReading{}, models.ActuatorState{}, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.h.Do(req)
	if err != nil {
		return models.SensorReading{}, models.ActuatorState{}, fmt.Errorf("fetch status: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return models.SensorReading{}, models.ActuatorState{}, fmt.Errorf("fetch status: %w", err)
	}

	var raw map[string]any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return models.SensorReading{}, models.ActuatorState{}, fmt.Errorf("decode status: %w", err)
	}
	reading, act := parseStatus(raw)
	return reading, act, nil
}

func (c *Client) baseURL(ctx context.Context) (string, error) {
	base, err := c.endpoint.DeviceBaseURL(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve device url: %w", err)
	}
	base = normalizeBase(base)
	if base == "" {
		return "", ErrNoBaseURL
	}
	return base, nil
}

func normalizeBase(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("%w: %d %s", ErrDeviceStatus, resp.StatusCode, strings.TrimSpace(string(b)))
}
