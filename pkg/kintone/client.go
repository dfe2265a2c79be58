package kintone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-hclog"
)

// APITokenHeader is the header kintone reads API tokens from.
const APITokenHeader = "X-Cybozu-API-Token"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// App identifies the record space a request addresses.
type App struct {
	Domain string
	AppID  string
}

// Service holds the shared HTTP client and hands out per-app clients.
type Service struct {
	config *Config
	client *http.Client
	logger hclog.Logger
}

// NewService creates a kintone service. If httpClient is nil one is built
// from cfg.
func NewService(cfg *Config, httpClient *http.Client, logger hclog.Logger) (*Service, error) {
	if cfg.TLSVerify == nil {
		cfg.TLSVerify = DefaultConfig().TLSVerify
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kintone config: %w", err)
	}

	if httpClient == nil {
		httpClient = cfg.NewHTTPClient()
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Service{
		config: cfg,
		client: httpClient,
		logger: logger,
	}, nil
}

// App returns a client bound to the given app id.
func (s *Service) App(appID string) *Client {
	return &Client{
		app: App{
			Domain: s.config.Domain,
			AppID:  appID,
		},
		baseURL: s.config.baseURL(),
		client:  s.client,
		logger:  s.logger.With("app_id", appID),
	}
}

// Client performs record operations against a single kintone app. Every
// operation is one round trip; there are no retries.
type Client struct {
	app     App
	baseURL string
	client  *http.Client
	logger  hclog.Logger
}

// Target returns the app the client addresses.
func (c *Client) Target() App {
	return c.app
}

// ListOptions narrows a List call.
type ListOptions struct {
	// Query is a kintone query string, e.g. `status = "open" order by $id`.
	Query string

	// Fields limits the returned field codes.
	Fields []string

	// TotalCount asks kintone to include the total matching count.
	TotalCount bool
}

// ListResult is the response of List.
type ListResult struct {
	Records    []Record `json:"records"`
	TotalCount *string  `json:"totalCount"`
}

// GetResult is the response of Get.
type GetResult struct {
	Record Record `json:"record"`
}

// CreateResult is the response of Create.
type CreateResult struct {
	ID       string `json:"id"`
	Revision string `json:"revision"`
}

// UpdateResult is the response of Update.
type UpdateResult struct {
	Revision string `json:"revision"`
}

// List retrieves records matching opts.
func (c *Client) List(ctx context.Context, apiToken string, opts ListOptions) (*ListResult, error) {
	params := url.Values{}
	params.Set("app", c.app.AppID)
	if opts.Query != "" {
		params.Set("query", opts.Query)
	}
	if len(opts.Fields) > 0 {
		fields, err := json.Marshal(opts.Fields)
		if err != nil {
			return nil, fmt.Errorf("failed to encode fields: %w", err)
		}
		params.Set("fields", string(fields))
	}
	if opts.TotalCount {
		params.Set("totalCount", "true")
	}

	var result ListResult
	if err := c.doRequest(ctx, http.MethodGet, "records.json", params, apiToken, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	if result.Records == nil {
		result.Records = []Record{}
	}

	return &result, nil
}

// Get retrieves a single record.
func (c *Client) Get(ctx context.Context, apiToken, id string) (*GetResult, error) {
	params := url.Values{}
	params.Set("app", c.app.AppID)
	params.Set("id", id)

	var result GetResult
	if err := c.doRequest(ctx, http.MethodGet, "record.json", params, apiToken, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return &result, nil
}

// Create adds a record.
func (c *Client) Create(ctx context.Context, apiToken string, record Record) (*CreateResult, error) {
	requestBody := struct {
		App    string `json:"app"`
		Record Record `json:"record"`
	}{
		App:    c.app.AppID,
		Record: record,
	}

	var result CreateResult
	if err := c.doRequest(ctx, http.MethodPost, "record.json", nil, apiToken, requestBody, &result); err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}

	return &result, nil
}

// Update modifies a record. A nil revision skips kintone's optimistic
// concurrency check.
func (c *Client) Update(ctx context.Context, apiToken, id string, record Record, revision *json.Number) (*UpdateResult, error) {
	requestBody := struct {
		App      string       `json:"app"`
		ID       string       `json:"id"`
		Record   Record       `json:"record"`
		Revision *json.Number `json:"revision,omitempty"`
	}{
		App:      c.app.AppID,
		ID:       id,
		Record:   record,
		Revision: revision,
	}

	var result UpdateResult
	if err := c.doRequest(ctx, http.MethodPut, "record.json", nil, apiToken, requestBody, &result); err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}

	return &result, nil
}

// Delete removes records in a single batch call and returns kintone's
// response body unchanged.
func (c *Client) Delete(ctx context.Context, apiToken string, ids []string) (json.RawMessage, error) {
	if ids == nil {
		ids = []string{}
	}
	requestBody := struct {
		App string   `json:"app"`
		IDs []string `json:"ids"`
	}{
		App: c.app.AppID,
		IDs: ids,
	}

	var result json.RawMessage
	if err := c.doRequest(ctx, http.MethodDelete, "records.json", nil, apiToken, requestBody, &result); err != nil {
		return nil, fmt.Errorf("failed to delete records: %w", err)
	}
	if len(result) == 0 {
		result = json.RawMessage("{}")
	}

	return result, nil
}

// doRequest executes one request against /k/v1/{path}.
func (c *Client) doRequest(
	ctx context.Context,
	method, path string,
	params url.Values,
	apiToken string,
	body, result interface{},
) error {
	endpoint := fmt.Sprintf("%s/k/v1/%s", c.baseURL, path)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(APITokenHeader, apiToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		upErr := newUpstreamError(resp, respBody)
		c.logger.Warn("kintone returned error status",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"code", upErr.Code,
			"message", upErr.Message,
		)
		return upErr
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("kintone request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
	)

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
