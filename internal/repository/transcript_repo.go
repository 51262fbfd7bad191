package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"rag-chat/internal/models"
)

type memorySession struct {
	state    models.SessionState
	lastSeen time.Time
}

// MemoryTranscriptRepo keeps session transcripts in process memory. Sessions
// idle for longer than ttl are dropped by a background sweep.
type MemoryTranscriptRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*memorySession
	ttl      time.Duration
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewMemoryTranscriptRepo(ttl time.Duration) *MemoryTranscriptRepo {
	r := &MemoryTranscriptRepo{
		sessions: make(map[uuid.UUID]*memorySession),
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	if ttl > 0 {
		go func() {
			ticker := time.NewTicker(sweepInterval(ttl))
			defer ticker.Stop()
			for {
				select {
				case <-r.stopChan:
					return
				case <-ticker.C:
					r.sweep()
				}
			}
		}()
	}

	return r
}

// sweepInterval ticks often enough that a session is gone within ttl plus a quarter.
func sweepInterval(ttl time.Duration) time.Duration {
	if d := ttl / 4; d >= time.Second {
		return d
	}
	return time.Second
}

func (r *MemoryTranscriptRepo) Close() {
	r.stopOnce.Do(func() { close(r.stopChan) })
}

func (r *MemoryTranscriptRepo) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}

// session returns the entry for id, creating it when missing. Callers hold mu.
func (r *MemoryTranscriptRepo) session(id uuid.UUID) *memorySession {
	s, ok := r.sessions[id]
	if !ok {
		s = &memorySession{state: models.SessionState{ID: id, Messages: []models.ChatMessage{}}}
		r.sessions[id] = s
	}
	s.lastSeen = r.now()
	return s
}

func snapshot(state models.SessionState) *models.SessionState {
	state.Messages = slices.Clone(state.Messages)
	if state.Messages == nil {
		state.Messages = []models.ChatMessage{}
	}
	return &state
}

func (r *MemoryTranscriptRepo) Get(ctx context.Context, sessionID uuid.UUID) (*models.SessionState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[sessionID]; ok {
		s.lastSeen = r.now()
		return snapshot(s.state), nil
	}
	return &models.SessionState{ID: sessionID, Messages: []models.ChatMessage{}}, nil
}

func (r *MemoryTranscriptRepo) Append(ctx context.Context, sessionID uuid.UUID, msgs ...models.ChatMessage) (*models.SessionState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.session(sessionID)
	s.state.Messages = append(s.state.Messages, msgs...)
	return snapshot(s.state), nil
}

func (r *MemoryTranscriptRepo) Reset(ctx context.Context, sessionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.session(sessionID).state.Messages = []models.ChatMessage{}
	return nil
}

func (r *MemoryTranscriptRepo) SetShowAll(ctx context.Context, sessionID uuid.UUID, showAll bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.session(sessionID).state.ShowAll = showAll
	return nil
}

func (r *MemoryTranscriptRepo) SetSelectedQuestion(ctx context.Context, sessionID uuid.UUID, question string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.session(sessionID).state.SelectedQuestion = question
	return nil
}
