package services

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"rag-chat/internal/models"
)

// RecentWindow is how many messages (three question/answer pairs) the
// collapsed transcript shows.
const RecentWindow = 6

// MarkdownRenderer turns message markdown into sanitized HTML.
type MarkdownRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
	}
}

func (r *MarkdownRenderer) Render(source string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return r.policy.Sanitize(source)
	}
	return r.policy.Sanitize(buf.String())
}

// BuildSessionView selects the visible part of the transcript. When the
// transcript is longer than RecentWindow and the session has not asked for
// full history, only the latest RecentWindow messages are returned.
func BuildSessionView(state *models.SessionState, info models.SessionInfo, renderer *MarkdownRenderer) models.SessionView {
	total := len(state.Messages)
	visible := state.Messages
	if !state.ShowAll && total > RecentWindow {
		visible = state.Messages[total-RecentWindow:]
	}

	rendered := make([]models.RenderedMessage, 0, len(visible))
	for _, msg := range visible {
		rendered = append(rendered, models.RenderedMessage{
			Role:    msg.Role,
			Content: msg.Content,
			HTML:    renderer.Render(msg.Content),
		})
	}

	info.MessageCount = total
	return models.SessionView{
		Messages:         rendered,
		Total:            total,
		Hidden:           total - len(visible),
		ShowAll:          state.ShowAll,
		Collapsible:      total > RecentWindow,
		SelectedQuestion: state.SelectedQuestion,
		Info:             info,
	}
}
