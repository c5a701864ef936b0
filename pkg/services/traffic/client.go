package traffic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/flow-atlas/pkg/models/upstream"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Endpoint names which of the two upstream URLs served (or failed) a request
type Endpoint string

const (
	EndpointPrimary Endpoint = "primary"
	EndpointBackup  Endpoint = "backup"
)

// APIError is returned when the upstream answers with a non-success status
type APIError struct {
	Endpoint   Endpoint
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s endpoint returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Client fetches the raw visitor counters. It never retries; callers pick the endpoint.
type Client interface {
	Fetch(ctx context.Context, useBackup bool) (*upstream.FlowEnvelope, error)
}

type ClientConfig struct {
	PrimaryURL string
	BackupURL  string
	Locations  []string
	UserAgent  string
	Timeout    time.Duration
}

type httpClient struct {
	primaryURL string
	backupURL  string
	payload    upstream.FlowRequest
	headers    map[string]string
	http       *http.Client
}

func NewClient(cfg ClientConfig) (Client, error) {
	if strings.TrimSpace(cfg.PrimaryURL) == "" || strings.TrimSpace(cfg.BackupURL) == "" {
		return nil, fmt.Errorf("primary and backup urls are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	return &httpClient{
		primaryURL: cfg.PrimaryURL,
		backupURL:  cfg.BackupURL,
		payload:    upstream.FlowRequest{OrgLocations: append([]string{}, cfg.Locations...)},
		headers: map[string]string{
			"Content-Type": "application/json",
			"User-Agent":   cfg.UserAgent,
		},
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *httpClient) Fetch(ctx context.Context, useBackup bool) (*upstream.FlowEnvelope, error) {
	endpoint, url := EndpointPrimary, c.primaryURL
	if useBackup {
		endpoint, url = EndpointBackup, c.backupURL
	}

	envelope, err := c.post(ctx, endpoint, url)
	if err != nil {
		zerolog.Ctx(ctx).Error().
			Err(err).
			Str("endpoint", string(endpoint)).
			Msg("traffic request failed")
		return nil, err
	}
	return envelope, nil
}

func (c *httpClient) post(ctx context.Context, endpoint Endpoint, url string) (*upstream.FlowEnvelope, error) {
	body, err := json.Marshal(c.payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s endpoint: performing request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s endpoint: reading response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	var envelope upstream.FlowEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		// well-formed JSON of the wrong shape is an answer, not a transport failure
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%s endpoint: %w: %v", endpoint, ErrMalformed, err)
		}
		return nil, fmt.Errorf("%s endpoint: decoding response: %w", endpoint, err)
	}
	return &envelope, nil
}
