package services

import (
	"context"
	"log"
	"slices"

	"rag-chat/internal/models"
)

type endpointQuerier interface {
	Query(ctx context.Context, history []models.ChatMessage, maxTokens int) (string, error)
}

// QueryResult is the outcome of one exchange with the serving endpoint.
type QueryResult struct {
	Text string
	Err  error
}

func (r QueryResult) OK() bool {
	return r.Err == nil
}

// Message is the user-safe failure text; empty when the exchange succeeded.
func (r QueryResult) Message() string {
	return UserMessage(r.Err)
}

// ConversationService delegates a history snapshot to the endpoint client.
// It keeps no state between calls and performs no retries.
type ConversationService struct {
	client endpointQuerier
}

func NewConversationService(client endpointQuerier) *ConversationService {
	return &ConversationService{client: client}
}

func (s *ConversationService) Respond(ctx context.Context, history []models.ChatMessage, maxTokens int) QueryResult {
	text, err := s.client.Query(ctx, slices.Clone(history), maxTokens)
	if err != nil {
		log.Printf("Serving endpoint query failed: %v", err)
		return QueryResult{Err: err}
	}
	return QueryResult{Text: text}
}
