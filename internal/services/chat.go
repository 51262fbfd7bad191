package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rag-chat/internal/models"
)

type TranscriptStore interface {
	Get(ctx context.Context, sessionID uuid.UUID) (*models.SessionState, error)
	Append(ctx context.Context, sessionID uuid.UUID, msgs ...models.ChatMessage) (*models.SessionState, error)
	Reset(ctx context.Context, sessionID uuid.UUID) error
	SetShowAll(ctx context.Context, sessionID uuid.UUID, showAll bool) error
	SetSelectedQuestion(ctx context.Context, sessionID uuid.UUID, question string) error
}

type updatePublisher interface {
	Publish(ctx context.Context, sessionID uuid.UUID, msg models.WSMessage)
}

// ChatService owns the session transcript around each endpoint exchange.
type ChatService struct {
	store        TranscriptStore
	conversation *ConversationService
	questions    *QuestionCatalog
	publisher    updatePublisher

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
	maxTokens    int
	timeout      time.Duration
}

func NewChatService(
	store TranscriptStore,
	conversation *ConversationService,
	questions *QuestionCatalog,
	publisher updatePublisher,
	maxTokens int,
	timeout time.Duration,
) *ChatService {
	return &ChatService{
		store:        store,
		conversation: conversation,
		questions:    questions,
		publisher:    publisher,
		maxTokens:    maxTokens,
		timeout:      timeout,
		inflight:     make(map[uuid.UUID]struct{}),
	}
}

func (s *ChatService) Questions() []string {
	return s.questions.All()
}

func (s *ChatService) Session(ctx context.Context, sessionID uuid.UUID) (*models.SessionState, error) {
	return s.store.Get(ctx, sessionID)
}

// acquire marks an exchange in flight for the session. Only one exchange per
// session runs at a time so turns are appended in user/assistant pairs.
func (s *ChatService) acquire(sessionID uuid.UUID) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[sessionID]; busy {
		return nil, &RateLimitError{Message: "A reply is still being generated for this session"}
	}
	s.inflight[sessionID] = struct{}{}

	return func() {
		s.mu.Lock()
		delete(s.inflight, sessionID)
		s.mu.Unlock()
	}, nil
}

// Send appends the user turn, queries the endpoint with the whole transcript
// and appends the reply. On failure the user turn stays and no assistant turn
// is recorded. A second send while one is in flight gets a RateLimitError.
func (s *ChatService) Send(ctx context.Context, sessionID uuid.UUID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", &ValidationError{Fields: map[string]string{"message": "Message is required"}}
	}

	release, err := s.acquire(sessionID)
	if err != nil {
		return "", err
	}
	defer release()

	return s.exchange(ctx, sessionID, message)
}

func (s *ChatService) exchange(ctx context.Context, sessionID uuid.UUID, message string) (string, error) {
	state, err := s.store.Append(ctx, sessionID, models.ChatMessage{Role: models.RoleUser, Content: message})
	if err != nil {
		return "", err
	}
	s.notify(ctx, sessionID, len(state.Messages), "message", "")

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result := s.conversation.Respond(callCtx, state.Messages, s.maxTokens)
	if !result.OK() {
		msg := "Error getting response from endpoint: " + result.Message()
		s.notify(ctx, sessionID, len(state.Messages), "error", msg)
		return "", &EndpointError{Message: msg}
	}

	state, err = s.store.Append(ctx, sessionID, models.ChatMessage{Role: models.RoleAssistant, Content: result.Text})
	if err != nil {
		return "", err
	}
	s.notify(ctx, sessionID, len(state.Messages), "message", "")

	return result.Text, nil
}

func (s *ChatService) Reset(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.store.Reset(ctx, sessionID); err != nil {
		return err
	}
	s.notify(ctx, sessionID, 0, "reset", "")
	return nil
}

func (s *ChatService) SetShowAll(ctx context.Context, sessionID uuid.UUID, showAll bool) error {
	return s.store.SetShowAll(ctx, sessionID, showAll)
}

func (s *ChatService) SelectQuestion(ctx context.Context, sessionID uuid.UUID, question string) error {
	question = strings.TrimSpace(question)
	if !s.questions.Contains(question) {
		return &ValidationError{Fields: map[string]string{"question": "Not a suggested question"}}
	}
	return s.store.SetSelectedQuestion(ctx, sessionID, question)
}

func (s *ChatService) ClearSelection(ctx context.Context, sessionID uuid.UUID) error {
	return s.store.SetSelectedQuestion(ctx, sessionID, "")
}

// UseSelection sends the pending suggested question as the next user turn.
func (s *ChatService) UseSelection(ctx context.Context, sessionID uuid.UUID) (string, error) {
	release, err := s.acquire(sessionID)
	if err != nil {
		return "", err
	}
	defer release()

	state, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if state.SelectedQuestion == "" {
		return "", &NotFoundError{Message: "No question is selected"}
	}

	question := state.SelectedQuestion
	if err := s.store.SetSelectedQuestion(ctx, sessionID, ""); err != nil {
		return "", err
	}
	return s.exchange(ctx, sessionID, question)
}

func (s *ChatService) notify(ctx context.Context, sessionID uuid.UUID, count int, reason, errMsg string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, sessionID, models.WSMessage{
		Type: "transcript_update",
		Payload: models.TranscriptUpdate{
			SessionID:    sessionID,
			MessageCount: count,
			Reason:       reason,
			Error:        errMsg,
		},
	})
}
