package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rag-chat/internal/models"
)

const (
	contentTypeJSON = "application/json"
	userAgent       = "rag-chat/1.0"

	maxResponseSize = 10 * 1024 * 1024
	maxErrorBody    = 64 * 1024
)

type tokenTransport struct {
	Transport http.RoundTripper
	Token     string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.Token)
	return t.Transport.RoundTrip(req)
}

// DatabricksDeployment invokes Databricks model serving endpoints over REST.
type DatabricksDeployment struct {
	host   string
	client *http.Client
}

func NewDatabricksDeployment(host, token string, timeout time.Duration) (*DatabricksDeployment, error) {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return nil, errors.New("databricks host must not be empty")
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	if _, err := url.Parse(host); err != nil {
		return nil, fmt.Errorf("parse databricks host: %w", err)
	}

	var transport http.RoundTripper = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if token != "" {
		transport = &tokenTransport{Transport: transport, Token: token}
	}

	return newDatabricksDeployment(host, &http.Client{Transport: transport, Timeout: timeout}), nil
}

func newDatabricksDeployment(host string, client *http.Client) *DatabricksDeployment {
	return &DatabricksDeployment{host: host, client: client}
}

func (d *DatabricksDeployment) invocationsURL(endpoint string) string {
	return d.host + "/serving-endpoints/" + url.PathEscape(endpoint) + "/invocations"
}

// Predict posts inputs to the endpoint and returns the raw JSON response.
func (d *DatabricksDeployment) Predict(ctx context.Context, endpoint string, inputs models.EndpointRequest) (json.RawMessage, error) {
	body, err := json.Marshal(inputs)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.invocationsURL(endpoint), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("construct request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serving request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseAPIError(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("read serving response: %w", err)
	}
	if len(data) > maxResponseSize {
		return nil, fmt.Errorf("serving response exceeds %d bytes", maxResponseSize)
	}
	if !json.Valid(data) {
		return nil, errors.New("decode serving response: invalid JSON")
	}

	return json.RawMessage(data), nil
}

type apiErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func parseAPIError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("upstream error status %d and failed to read body: %w", resp.StatusCode, err)
	}

	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("serving error status %d (%s): %s", resp.StatusCode, apiErr.ErrorCode, apiErr.Message)
	}

	return fmt.Errorf("upstream error status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
