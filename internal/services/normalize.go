package services

import (
	"encoding/json"
	"maps"
	"slices"
)

// Serving endpoints answer with one of two shapes: a chat-completion payload
// ({"choices":[{"message":{"content":...}}]}) or an agent payload
// ({"messages":[...,{"content":...}]}). Fields are decoded as raw JSON so a
// payload with unexpected types degrades to a SchemaError instead of failing
// the whole decode.

type choicesShape struct {
	Choices []json.RawMessage `json:"choices"`
}

type messagesShape struct {
	Messages []json.RawMessage `json:"messages"`
}

type choiceElement struct {
	Message json.RawMessage `json:"message"`
}

type messageElement struct {
	Content json.RawMessage `json:"content"`
}

// NormalizeResponse extracts the assistant text from a serving endpoint response.
func NormalizeResponse(raw json.RawMessage) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", &SchemaError{}
	}

	if text, ok := fromChoices(raw); ok {
		return text, nil
	}
	if text, ok := fromMessages(raw); ok {
		return text, nil
	}

	return "", &SchemaError{Keys: slices.Sorted(maps.Keys(fields))}
}

func fromChoices(raw json.RawMessage) (string, bool) {
	var shape choicesShape
	if err := json.Unmarshal(raw, &shape); err != nil || len(shape.Choices) == 0 {
		return "", false
	}

	var choice choiceElement
	if err := json.Unmarshal(shape.Choices[0], &choice); err != nil {
		return "", false
	}
	return contentOf(choice.Message)
}

func fromMessages(raw json.RawMessage) (string, bool) {
	var shape messagesShape
	if err := json.Unmarshal(raw, &shape); err != nil || len(shape.Messages) == 0 {
		return "", false
	}
	return contentOf(shape.Messages[len(shape.Messages)-1])
}

func contentOf(message json.RawMessage) (string, bool) {
	if len(message) == 0 {
		return "", false
	}

	var msg messageElement
	if err := json.Unmarshal(message, &msg); err != nil || len(msg.Content) == 0 || string(msg.Content) == "null" {
		return "", false
	}

	var content string
	if err := json.Unmarshal(msg.Content, &content); err != nil {
		return "", false
	}
	return content, true
}
