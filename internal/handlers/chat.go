package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"rag-chat/internal/middleware"
	"rag-chat/internal/models"
	"rag-chat/internal/services"
)

type chatService interface {
	Questions() []string
	Session(ctx context.Context, sessionID uuid.UUID) (*models.SessionState, error)
	Send(ctx context.Context, sessionID uuid.UUID, message string) (string, error)
	Reset(ctx context.Context, sessionID uuid.UUID) error
	SetShowAll(ctx context.Context, sessionID uuid.UUID, showAll bool) error
	SelectQuestion(ctx context.Context, sessionID uuid.UUID, question string) error
	ClearSelection(ctx context.Context, sessionID uuid.UUID) error
	UseSelection(ctx context.Context, sessionID uuid.UUID) (string, error)
}

type ChatHandler struct {
	chat     chatService
	renderer *services.MarkdownRenderer
	endpoint string
}

func NewChatHandler(chat chatService, renderer *services.MarkdownRenderer, endpoint string) *ChatHandler {
	return &ChatHandler{
		chat:     chat,
		renderer: renderer,
		endpoint: endpoint,
	}
}

func (h *ChatHandler) sessionView(r *http.Request) (models.SessionView, error) {
	state, err := h.chat.Session(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		return models.SessionView{}, err
	}

	info := models.SessionInfo{
		Status:    "Active",
		UserEmail: middleware.GetUserEmail(r.Context()),
		Endpoint:  h.endpoint,
	}
	return services.BuildSessionView(state, info, h.renderer), nil
}

func (h *ChatHandler) writeSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionView(r)
	if err != nil {
		log.Printf("Load session failed: %v", err)
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.writeSession(w, r)
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	reply, err := h.chat.Send(r.Context(), middleware.GetSessionID(r.Context()), req.Message)
	h.writeReply(w, r, reply, err)
}

func (h *ChatHandler) UseQuestion(w http.ResponseWriter, r *http.Request) {
	reply, err := h.chat.UseSelection(r.Context(), middleware.GetSessionID(r.Context()))
	h.writeReply(w, r, reply, err)
}

func (h *ChatHandler) writeReply(w http.ResponseWriter, r *http.Request, reply string, err error) {
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	view, err := h.sessionView(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ChatResponse{Reply: reply, Session: view})
}

func (h *ChatHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.Reset(r.Context(), middleware.GetSessionID(r.Context())); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.writeSession(w, r)
}

func (h *ChatHandler) SetView(w http.ResponseWriter, r *http.Request) {
	var req models.ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.chat.SetShowAll(r.Context(), middleware.GetSessionID(r.Context()), req.ShowAll); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.writeSession(w, r)
}

func (h *ChatHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"questions": h.chat.Questions(),
	})
}

func (h *ChatHandler) SelectQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.SelectQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.chat.SelectQuestion(r.Context(), middleware.GetSessionID(r.Context()), req.Question); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.writeSession(w, r)
}

func (h *ChatHandler) ClearQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.ClearSelection(r.Context(), middleware.GetSessionID(r.Context())); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.writeSession(w, r)
}
