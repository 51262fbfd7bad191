package models

import "github.com/google/uuid"

// SessionState is the per-browser-session transcript plus view preferences.
type SessionState struct {
	ID               uuid.UUID     `json:"id"`
	Messages         []ChatMessage `json:"messages"`
	ShowAll          bool          `json:"show_all"`
	SelectedQuestion string        `json:"selected_question,omitempty"`
}

// RenderedMessage is a transcript entry prepared for display.
type RenderedMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	HTML    string `json:"html"`
}

type SessionView struct {
	Messages         []RenderedMessage `json:"messages"`
	Total            int               `json:"total"`
	Hidden           int               `json:"hidden"`
	ShowAll          bool              `json:"show_all"`
	Collapsible      bool              `json:"collapsible"`
	SelectedQuestion string            `json:"selected_question,omitempty"`
	Info             SessionInfo       `json:"info"`
}

type SessionInfo struct {
	MessageCount int    `json:"message_count"`
	Status       string `json:"status"`
	UserEmail    string `json:"user_email"`
	Endpoint     string `json:"endpoint"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type TranscriptUpdate struct {
	SessionID    uuid.UUID `json:"session_id"`
	MessageCount int       `json:"message_count"`
	Reason       string    `json:"reason"` // "message" | "reset" | "error"
	Error        string    `json:"error,omitempty"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
