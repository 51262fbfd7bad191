package services

import (
	"errors"
	"fmt"
	"strings"
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// ConfigurationError means the serving endpoint cannot be addressed without operator action.
type ConfigurationError struct{ Message string }

func (e *ConfigurationError) Error() string { return e.Message }

// TransportError wraps a failed call to the deployment client. Err is for logs only.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("query serving endpoint %q: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SchemaError is returned when a response decodes but matches no known shape.
type SchemaError struct {
	Keys []string
}

func (e *SchemaError) Error() string {
	if len(e.Keys) == 0 {
		return "unrecognized response format: no top-level keys"
	}
	return "unrecognized response format, keys: " + strings.Join(e.Keys, ", ")
}

// EndpointError carries a user-safe message for a failed exchange.
type EndpointError struct{ Message string }

func (e *EndpointError) Error() string { return e.Message }

// UserMessage maps a query failure to text that is safe to show an end user.
func UserMessage(err error) string {
	var cfgErr *ConfigurationError
	var schemaErr *SchemaError
	var validationErr *ValidationError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return "the chat service is not configured with a serving endpoint"
	case errors.As(err, &schemaErr):
		return schemaErr.Error()
	case errors.As(err, &validationErr):
		return "the conversation is empty"
	default:
		return "the model endpoint could not be reached, please try again"
	}
}
