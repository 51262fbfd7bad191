package models

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// EndpointRequest is the input document sent to the serving endpoint.
type EndpointRequest struct {
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the reply from the serving endpoint.
type ChatResponse struct {
	Reply   string      `json:"reply"`
	Session SessionView `json:"session"`
}

type SelectQuestionRequest struct {
	Question string `json:"question"`
}

type ViewRequest struct {
	ShowAll bool `json:"show_all"`
}
