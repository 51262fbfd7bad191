package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"rag-chat/internal/middleware"
	"rag-chat/internal/models"
	"rag-chat/internal/services"
)

type stubChatService struct {
	state     models.SessionState
	reply     string
	sendErr   error
	lastMsg   string
	lastID    uuid.UUID
	resets    int
	questions []string
}

func (s *stubChatService) Questions() []string { return s.questions }

func (s *stubChatService) Session(ctx context.Context, sessionID uuid.UUID) (*models.SessionState, error) {
	state := s.state
	state.ID = sessionID
	return &state, nil
}

func (s *stubChatService) Send(ctx context.Context, sessionID uuid.UUID, message string) (string, error) {
	s.lastID = sessionID
	s.lastMsg = message
	if s.sendErr != nil {
		return "", s.sendErr
	}
	s.state.Messages = append(s.state.Messages,
		models.ChatMessage{Role: models.RoleUser, Content: message},
		models.ChatMessage{Role: models.RoleAssistant, Content: s.reply},
	)
	return s.reply, nil
}

func (s *stubChatService) Reset(ctx context.Context, sessionID uuid.UUID) error {
	s.resets++
	s.state.Messages = nil
	return nil
}

func (s *stubChatService) SetShowAll(ctx context.Context, sessionID uuid.UUID, showAll bool) error {
	s.state.ShowAll = showAll
	return nil
}

func (s *stubChatService) SelectQuestion(ctx context.Context, sessionID uuid.UUID, question string) error {
	for _, q := range s.questions {
		if q == question {
			s.state.SelectedQuestion = question
			return nil
		}
	}
	return &services.ValidationError{Fields: map[string]string{"question": "Not a suggested question"}}
}

func (s *stubChatService) ClearSelection(ctx context.Context, sessionID uuid.UUID) error {
	s.state.SelectedQuestion = ""
	return nil
}

func (s *stubChatService) UseSelection(ctx context.Context, sessionID uuid.UUID) (string, error) {
	if s.state.SelectedQuestion == "" {
		return "", &services.NotFoundError{Message: "No question is selected"}
	}
	q := s.state.SelectedQuestion
	s.state.SelectedQuestion = ""
	return s.Send(ctx, sessionID, q)
}

func newRequest(method, path string, body interface{}, sessionID uuid.UUID) *http.Request {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-1")
	ctx := context.WithValue(req.Context(), middleware.SessionIDKey, sessionID)
	ctx = context.WithValue(ctx, middleware.UserEmailKey, "alice@example.com")
	return req.WithContext(ctx)
}

func newTestChatHandler(svc *stubChatService) *ChatHandler {
	return NewChatHandler(svc, services.NewMarkdownRenderer(), "rag-endpoint")
}

func TestChatHandler_SendMessage(t *testing.T) {
	svc := &stubChatService{reply: "**Lakeflow** ingests data."}
	h := newTestChatHandler(svc)
	sessionID := uuid.New()

	rr := httptest.NewRecorder()
	h.SendMessage(rr, newRequest(http.MethodPost, "/api/v1/chat", models.ChatRequest{Message: "What is Lakeflow?"}, sessionID))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	if svc.lastID != sessionID || svc.lastMsg != "What is Lakeflow?" {
		t.Fatalf("message not forwarded for session: %v %q", svc.lastID, svc.lastMsg)
	}

	var resp models.ChatResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Reply != "**Lakeflow** ingests data." {
		t.Errorf("unexpected reply %q", resp.Reply)
	}
	if resp.Session.Total != 2 || resp.Session.Info.MessageCount != 2 {
		t.Errorf("expected 2 messages, got %d", resp.Session.Total)
	}
	if resp.Session.Info.UserEmail != "alice@example.com" || resp.Session.Info.Endpoint != "rag-endpoint" {
		t.Errorf("unexpected session info %+v", resp.Session.Info)
	}
	if !strings.Contains(resp.Session.Messages[1].HTML, "<strong>Lakeflow</strong>") {
		t.Errorf("expected rendered markdown, got %q", resp.Session.Messages[1].HTML)
	}
}

func TestChatHandler_SendMessage_InvalidBody(t *testing.T) {
	h := newTestChatHandler(&stubChatService{})

	req := newRequest(http.MethodPost, "/api/v1/chat", nil, uuid.New())
	req.Body = http.NoBody
	rr := httptest.NewRecorder()
	h.SendMessage(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestChatHandler_SendMessage_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"message": "Message is required"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"endpoint", &services.EndpointError{Message: "Error getting response from endpoint: the model endpoint could not be reached, please try again"}, http.StatusBadGateway, "ENDPOINT_ERROR"},
		{"in flight", &services.RateLimitError{Message: "A reply is still being generated for this session"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"unexpected", context.DeadlineExceeded, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestChatHandler(&stubChatService{sendErr: tc.err})

			rr := httptest.NewRecorder()
			h.SendMessage(rr, newRequest(http.MethodPost, "/api/v1/chat", models.ChatRequest{Message: "hi"}, uuid.New()))

			if rr.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rr.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Error.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, resp.Error.Code)
			}
			if resp.Error.RequestID != "req-1" {
				t.Errorf("expected request id to be echoed, got %q", resp.Error.RequestID)
			}
		})
	}
}

func TestChatHandler_GetSession_RecentWindow(t *testing.T) {
	svc := &stubChatService{}
	for i := 0; i < 8; i++ {
		svc.state.Messages = append(svc.state.Messages, models.ChatMessage{Role: models.RoleUser, Content: "m"})
	}
	h := newTestChatHandler(svc)

	rr := httptest.NewRecorder()
	h.GetSession(rr, newRequest(http.MethodGet, "/api/v1/session", nil, uuid.New()))

	var view models.SessionView
	if err := json.NewDecoder(rr.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(view.Messages) != services.RecentWindow || view.Hidden != 2 || !view.Collapsible {
		t.Errorf("unexpected view: shown=%d hidden=%d collapsible=%v", len(view.Messages), view.Hidden, view.Collapsible)
	}

	rr = httptest.NewRecorder()
	h.SetView(rr, newRequest(http.MethodPut, "/api/v1/session/view", models.ViewRequest{ShowAll: true}, uuid.New()))
	view = models.SessionView{}
	json.NewDecoder(rr.Body).Decode(&view)
	if len(view.Messages) != 8 || view.Hidden != 0 || !view.ShowAll {
		t.Errorf("expected full history, got shown=%d hidden=%d", len(view.Messages), view.Hidden)
	}
}

func TestChatHandler_Reset(t *testing.T) {
	svc := &stubChatService{state: models.SessionState{Messages: []models.ChatMessage{{Role: models.RoleUser, Content: "hi"}}}}
	h := newTestChatHandler(svc)

	rr := httptest.NewRecorder()
	h.Reset(rr, newRequest(http.MethodPost, "/api/v1/session/reset", nil, uuid.New()))

	if rr.Code != http.StatusOK || svc.resets != 1 {
		t.Fatalf("expected reset to succeed, got status %d resets %d", rr.Code, svc.resets)
	}
}

func TestChatHandler_QuestionFlow(t *testing.T) {
	svc := &stubChatService{questions: []string{"What is Lakeflow and how does it work?"}, reply: "answer"}
	h := newTestChatHandler(svc)
	sessionID := uuid.New()

	rr := httptest.NewRecorder()
	h.UseQuestion(rr, newRequest(http.MethodPost, "/api/v1/questions/use", nil, sessionID))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected %d without a selection, got %d", http.StatusNotFound, rr.Code)
	}

	rr = httptest.NewRecorder()
	h.SelectQuestion(rr, newRequest(http.MethodPost, "/api/v1/questions/select", models.SelectQuestionRequest{Question: "unknown"}, sessionID))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d for unknown question, got %d", http.StatusBadRequest, rr.Code)
	}

	rr = httptest.NewRecorder()
	h.SelectQuestion(rr, newRequest(http.MethodPost, "/api/v1/questions/select", models.SelectQuestionRequest{Question: svc.questions[0]}, sessionID))
	var view models.SessionView
	json.NewDecoder(rr.Body).Decode(&view)
	if view.SelectedQuestion != svc.questions[0] {
		t.Fatalf("expected pending selection, got %q", view.SelectedQuestion)
	}

	rr = httptest.NewRecorder()
	h.UseQuestion(rr, newRequest(http.MethodPost, "/api/v1/questions/use", nil, sessionID))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if svc.lastMsg != svc.questions[0] {
		t.Errorf("selected question was not sent, got %q", svc.lastMsg)
	}

	rr = httptest.NewRecorder()
	h.ListQuestions(rr, newRequest(http.MethodGet, "/api/v1/questions", nil, sessionID))
	var listed map[string][]string
	json.NewDecoder(rr.Body).Decode(&listed)
	if len(listed["questions"]) != 1 {
		t.Errorf("expected 1 question, got %v", listed)
	}
}

func TestPageHandler_Index(t *testing.T) {
	svc := &stubChatService{questions: []string{"What is <Lakeflow>?"}}
	h := NewPageHandler(svc, "rag-endpoint")

	rr := httptest.NewRecorder()
	h.Index(rr, newRequest(http.MethodGet, "/", nil, uuid.New()))

	body := rr.Body.String()
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	for _, want := range []string{"alice@example.com", "rag-endpoint", "What is &lt;Lakeflow&gt;?", "function busy(on)"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
}
