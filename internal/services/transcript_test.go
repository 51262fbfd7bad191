package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-chat/internal/models"
)

func transcriptOf(n int) []models.ChatMessage {
	msgs := make([]models.ChatMessage, 0, n)
	for i := 0; i < n; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		msgs = append(msgs, models.ChatMessage{Role: role, Content: fmt.Sprintf("message %d", i)})
	}
	return msgs
}

func TestBuildSessionView_Window(t *testing.T) {
	renderer := NewMarkdownRenderer()

	tests := []struct {
		name        string
		total       int
		showAll     bool
		shown       int
		hidden      int
		collapsible bool
		first       string
	}{
		{"empty", 0, false, 0, 0, false, ""},
		{"at window", 6, false, 6, 0, false, "message 0"},
		{"over window collapsed", 10, false, 6, 4, true, "message 4"},
		{"over window expanded", 10, true, 10, 0, true, "message 0"},
		{"show all below window", 4, true, 4, 0, false, "message 0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := &models.SessionState{Messages: transcriptOf(tc.total), ShowAll: tc.showAll}

			view := BuildSessionView(state, models.SessionInfo{UserEmail: "a@b.com"}, renderer)

			require.Len(t, view.Messages, tc.shown)
			assert.Equal(t, tc.total, view.Total)
			assert.Equal(t, tc.hidden, view.Hidden)
			assert.Equal(t, tc.collapsible, view.Collapsible)
			assert.Equal(t, tc.total, view.Info.MessageCount)
			assert.Equal(t, "a@b.com", view.Info.UserEmail)
			if tc.shown > 0 {
				assert.Equal(t, tc.first, view.Messages[0].Content)
				assert.Equal(t, fmt.Sprintf("message %d", tc.total-1), view.Messages[tc.shown-1].Content)
			}
		})
	}
}

func TestMarkdownRenderer_Render(t *testing.T) {
	renderer := NewMarkdownRenderer()

	html := renderer.Render("**bold** and `code`")
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.Contains(t, html, "<code>code</code>")

	unsafe := renderer.Render("hi <script>alert(1)</script> [x](javascript:alert(1))")
	assert.NotContains(t, unsafe, "<script>")
	assert.NotContains(t, unsafe, "javascript:")
}
