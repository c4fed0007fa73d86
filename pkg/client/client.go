package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cuemby/maintsync/pkg/log"
	"github.com/cuemby/maintsync/pkg/metrics"
	"github.com/cuemby/maintsync/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const contentType = "application/json-rpc"

// Config configures a Client
type Config struct {
	URL                string
	Username           string
	Password           string
	InsecureSkipVerify bool
	Timeout            time.Duration

	// RequestsPerSecond paces requests; 0 disables pacing
	RequestsPerSecond float64

	// HTTPClient overrides the transport built from the fields above
	HTTPClient *http.Client
}

// Client is an authenticated Zabbix JSON-RPC client. It is not safe for
// concurrent use.
type Client struct {
	url        string
	username   string
	password   string
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	nextID     int64
	logger     zerolog.Logger
}

// NewClient creates a client. Call Login before any other method.
func NewClient(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q", cfg.URL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in for self-signed Zabbix frontends
		}
		httpClient = &http.Client{Timeout: timeout, Transport: transport}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		url:        cfg.URL,
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: httpClient,
		limiter:    limiter,
		nextID:     1,
		logger:     log.WithComponent("client"),
	}, nil
}

// Login authenticates with user.login and keeps the session token
func (c *Client) Login(ctx context.Context) error {
	c.token = ""

	var token string
	err := c.Call(ctx, "user.login", map[string]string{
		"username": c.username,
		"password": c.password,
	}, &token)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return &AuthenticationError{Username: c.username, Err: err}
		}
		return err
	}
	if token == "" {
		return &AuthenticationError{Username: c.username, Err: errors.New("empty session token")}
	}

	c.token = token
	c.logger.Debug().Str("user", c.username).Msg("authenticated")
	return nil
}

// Logout ends the session. It is a no-op when not logged in.
func (c *Client) Logout(ctx context.Context) error {
	if c.token == "" {
		return nil
	}
	var ok bool
	err := c.Call(ctx, "user.logout", []string{}, &ok)
	c.token = ""
	return err
}

// Call performs one JSON-RPC request and decodes its result into out.
// out may be nil when the result is not needed.
func (c *Client) Call(ctx context.Context, method string, params interface{}, out interface{}) (err error) {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDurationVec(metrics.APIRequestDuration, method)
		metrics.APIRequestsTotal.WithLabelValues(method, resultLabel(err)).Inc()
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Method: method, Err: err}
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID,
	})
	if err != nil {
		return fmt.Errorf("%s: failed to encode request: %w", method, err)
	}
	c.nextID++

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Method: method, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug().Str("method", method).Msg("API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Method: method, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &TransportError{Method: method, StatusCode: resp.StatusCode}
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return &TransportError{Method: method, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if rpcResp.Error != nil {
		return &APIError{
			Method:  method,
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
			Data:    rpcResp.Error.Data,
		}
	}
	if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		return &APIError{Method: method, Message: "response missing result"}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return &APIError{Method: method, Message: fmt.Sprintf("unexpected result: %v", err)}
	}
	return nil
}

func resultLabel(err error) string {
	var apiErr *APIError
	var transportErr *TransportError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &apiErr):
		return "api_error"
	case errors.As(err, &transportErr):
		return "transport_error"
	default:
		return "error"
	}
}

// GetHosts returns every host with its tags
func (c *Client) GetHosts(ctx context.Context) ([]types.Host, error) {
	return c.getHosts(ctx, nil)
}

// GetHost returns one host with its tags, or ErrHostNotFound
func (c *Client) GetHost(ctx context.Context, hostID string) (*types.Host, error) {
	hosts, err := c.getHosts(ctx, []string{hostID})
	if err != nil {
		return nil, err
	}
	for i := range hosts {
		if hosts[i].ID == hostID {
			return &hosts[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrHostNotFound, hostID)
}

func (c *Client) getHosts(ctx context.Context, hostIDs []string) ([]types.Host, error) {
	params := map[string]interface{}{
		"output":     []string{"hostid", "host"},
		"selectTags": "extend",
	}
	if hostIDs != nil {
		params["hostids"] = hostIDs
	}

	var wire []wireHost
	if err := c.Call(ctx, "host.get", params, &wire); err != nil {
		return nil, err
	}

	hosts := make([]types.Host, 0, len(wire))
	for _, h := range wire {
		hosts = append(hosts, h.toHost())
	}
	return hosts, nil
}

// UpdateHostTags replaces the complete tag set of a host
func (c *Client) UpdateHostTags(ctx context.Context, hostID string, tags []types.Tag) error {
	if tags == nil {
		tags = []types.Tag{}
	}
	return c.Call(ctx, "host.update", map[string]interface{}{
		"hostid": hostID,
		"tags":   tags,
	}, nil)
}

// CreateMaintenance creates a one-shot maintenance window and returns its ID
func (c *Client) CreateMaintenance(ctx context.Context, w *types.MaintenanceWindow) (string, error) {
	params := newMaintenanceParams(w)
	params.MaintenanceID = ""

	var result struct {
		MaintenanceIDs []flexString `json:"maintenanceids"`
	}
	if err := c.Call(ctx, "maintenance.create", params, &result); err != nil {
		return "", err
	}
	if len(result.MaintenanceIDs) == 0 {
		return "", &APIError{Method: "maintenance.create", Message: "no maintenance ID returned"}
	}
	return string(result.MaintenanceIDs[0]), nil
}

// UpdateMaintenance rewrites an existing window identified by w.ID
func (c *Client) UpdateMaintenance(ctx context.Context, w *types.MaintenanceWindow) error {
	if w.ID == "" {
		return errors.New("maintenance.update: missing maintenance ID")
	}
	return c.Call(ctx, "maintenance.update", newMaintenanceParams(w), nil)
}

// DeleteMaintenance deletes windows by ID
func (c *Client) DeleteMaintenance(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.Call(ctx, "maintenance.delete", ids, nil)
}

// GetMaintenances returns every maintenance window with its hosts
func (c *Client) GetMaintenances(ctx context.Context) ([]*types.MaintenanceWindow, error) {
	var wire []wireMaintenance
	err := c.Call(ctx, "maintenance.get", map[string]interface{}{
		"output":      "extend",
		"selectHosts": "extend",
	}, &wire)
	if err != nil {
		return nil, err
	}

	windows := make([]*types.MaintenanceWindow, 0, len(wire))
	for _, m := range wire {
		windows = append(windows, m.toWindow())
	}
	return windows, nil
}
