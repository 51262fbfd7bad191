package services

import (
	"context"
	"encoding/json"
	"strings"

	"rag-chat/internal/models"
)

// Deployment is the RPC mechanism used to address a hosted serving endpoint.
type Deployment interface {
	Predict(ctx context.Context, endpoint string, inputs models.EndpointRequest) (json.RawMessage, error)
}

// ServingClient queries one pre-configured serving endpoint. It holds no
// per-call state and is safe for concurrent use.
type ServingClient struct {
	endpoint         string
	defaultMaxTokens int
	deployment       Deployment
}

func NewServingClient(endpoint string, defaultMaxTokens int, deployment Deployment) *ServingClient {
	return &ServingClient{
		endpoint:         strings.TrimSpace(endpoint),
		defaultMaxTokens: defaultMaxTokens,
		deployment:       deployment,
	}
}

func (c *ServingClient) Endpoint() string {
	return c.endpoint
}

// Query sends history to the endpoint and returns the normalized reply text.
// A non-positive maxTokens falls back to the configured default.
func (c *ServingClient) Query(ctx context.Context, history []models.ChatMessage, maxTokens int) (string, error) {
	if c.endpoint == "" {
		return "", &ConfigurationError{Message: "serving endpoint is not configured (set SERVING_ENDPOINT)"}
	}
	if len(history) == 0 {
		return "", &ValidationError{Fields: map[string]string{"messages": "At least one message is required"}}
	}
	if maxTokens <= 0 {
		maxTokens = c.defaultMaxTokens
	}

	raw, err := c.deployment.Predict(ctx, c.endpoint, BuildEndpointRequest(history, maxTokens))
	if err != nil {
		return "", &TransportError{Endpoint: c.endpoint, Err: err}
	}

	return NormalizeResponse(raw)
}

// BuildEndpointRequest copies history into the request document, preserving order.
func BuildEndpointRequest(history []models.ChatMessage, maxTokens int) models.EndpointRequest {
	messages := make([]models.ChatMessage, len(history))
	copy(messages, history)

	return models.EndpointRequest{
		Messages:  messages,
		MaxTokens: maxTokens,
	}
}
