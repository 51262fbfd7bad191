package handlers

import (
	_ "embed"
	"html/template"
	"log"
	"net/http"

	"rag-chat/internal/middleware"
)

//go:embed templates/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

type pageData struct {
	Questions []string
	UserEmail string
	Endpoint  string
}

type PageHandler struct {
	chat     chatService
	endpoint string
}

func NewPageHandler(chat chatService, endpoint string) *PageHandler {
	return &PageHandler{chat: chat, endpoint: endpoint}
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Questions: h.chat.Questions(),
		UserEmail: middleware.GetUserEmail(r.Context()),
		Endpoint:  h.endpoint,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		log.Printf("Render index failed: %v", err)
	}
}
