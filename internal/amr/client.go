// Package amr talks to the MiR autonomous mobile robot REST API.
package amr

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config configures a Client.
type Config struct {
	BaseURL   string
	User      string
	Password  string
	DryRun    bool
	Timeout   time.Duration
	VerifyTLS bool
}

// Mission is an entry of the robot's mission catalog.
type Mission struct {
	GUID string `json:"guid"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Client is a thin MiR REST client. In dry-run mode no request leaves the
// process and canned answers are returned instead.
type Client struct {
	baseURL    string
	user       string
	password   string
	dryRun     bool
	httpClient *http.Client
	started    time.Time
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		user:     cfg.User,
		password: cfg.Password,
		dryRun:   cfg.DryRun,
		started:  time.Now(),
	}
	if !c.dryRun {
		if c.baseURL == "" {
			return nil, errors.New("MIR_BASE_URL is required unless MIR_DRY_RUN=true")
		}
		if c.user == "" || c.password == "" {
			return nil, errors.New("MIR_USER/MIR_PASS are required unless MIR_DRY_RUN=true")
		}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Robots ship with self-signed certificates.
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: !cfg.VerifyTLS} //nolint:gosec
	c.httpClient = &http.Client{Timeout: cfg.Timeout, Transport: transport}
	return c, nil
}

// DryRun reports whether the client is stubbed.
func (c *Client) DryRun() bool { return c.dryRun }

// Status returns the robot status document as-is.
func (c *Client) Status(ctx context.Context) (map[string]interface{}, error) {
	if c.dryRun {
		elapsed := int(time.Since(c.started).Seconds())
		executing := elapsed%10 >= 7
		state, mission := "Ready", "Waiting for new missions..."
		if executing {
			state, mission = "Executing mission", "Moving to Emballage"
		}
		battery := 100 - elapsed%100
		if battery < 5 {
			battery = 5
		}
		return map[string]interface{}{
			"dry_run":            true,
			"robot_name":         "MiR250-Demo",
			"state_text":         state,
			"mission_text":       mission,
			"battery_percentage": battery,
			"position": map[string]interface{}{
				"x": 1.0 + 0.01*float64(elapsed), "y": 2.0 + 0.02*float64(elapsed), "orientation": 0.0,
			},
		}, nil
	}

	var status map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/status", nil, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// Missions lists the missions known to the robot.
func (c *Client) Missions(ctx context.Context) ([]Mission, error) {
	if c.dryRun {
		return []Mission{
			{Name: "POSTE-PHOTO", GUID: "11111111-2222-3333-4444-555555555555"},
			{Name: "POSTE-INSPECTION", GUID: "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"},
			{Name: "POSTE-EMBALLAGE", GUID: "99999999-8888-7777-6666-555555555555"},
			{Name: "RETOUR-BASE", GUID: "bbbbbbbb-cccc-dddd-eeee-ffffffffffff"},
		}, nil
	}

	var missions []Mission
	if err := c.do(ctx, http.MethodGet, "/missions", nil, &missions); err != nil {
		return nil, err
	}
	return missions, nil
}

// StartMission queues a mission on the robot.
func (c *Client) StartMission(ctx context.Context, missionGUID string) (map[string]interface{}, error) {
	payload := map[string]interface{}{"mission_id": missionGUID}
	if c.dryRun {
		return map[string]interface{}{"dry_run": true, "endpoint": "/mission_queue", "payload": payload}, nil
	}

	result := map[string]interface{}{}
	if err := c.do(ctx, http.MethodPost, "/mission_queue", payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding %s payload: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building %s request: %w", path, err)
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "en-US")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mir %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading mir %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mir %s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding mir %s response: %w", path, err)
	}
	return nil
}
