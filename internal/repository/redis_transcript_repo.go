package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"rag-chat/internal/models"
)

const (
	fieldShowAll          = "show_all"
	fieldSelectedQuestion = "selected_question"
)

// RedisTranscriptRepo shares session transcripts between replicas. Every
// write refreshes the TTL so a session expires ttl after its last use.
type RedisTranscriptRepo struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisTranscriptRepo(redisClient *redis.Client, ttl time.Duration) *RedisTranscriptRepo {
	return &RedisTranscriptRepo{redis: redisClient, ttl: ttl}
}

func messagesKey(id uuid.UUID) string { return "session:" + id.String() + ":messages" }
func metaKey(id uuid.UUID) string     { return "session:" + id.String() + ":meta" }

func (r *RedisTranscriptRepo) touch(ctx context.Context, pipe redis.Pipeliner, id uuid.UUID) {
	if r.ttl > 0 {
		pipe.Expire(ctx, messagesKey(id), r.ttl)
		pipe.Expire(ctx, metaKey(id), r.ttl)
	}
}

func (r *RedisTranscriptRepo) Get(ctx context.Context, sessionID uuid.UUID) (*models.SessionState, error) {
	var listCmd *redis.StringSliceCmd
	var metaCmd *redis.MapStringStringCmd

	_, err := r.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		listCmd = pipe.LRange(ctx, messagesKey(sessionID), 0, -1)
		metaCmd = pipe.HGetAll(ctx, metaKey(sessionID))
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	state := &models.SessionState{ID: sessionID, Messages: []models.ChatMessage{}}
	for _, raw := range listCmd.Val() {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return nil, fmt.Errorf("decode session %s message: %w", sessionID, err)
		}
		state.Messages = append(state.Messages, msg)
	}

	meta := metaCmd.Val()
	state.ShowAll = meta[fieldShowAll] == "1"
	state.SelectedQuestion = meta[fieldSelectedQuestion]

	return state, nil
}

func (r *RedisTranscriptRepo) Append(ctx context.Context, sessionID uuid.UUID, msgs ...models.ChatMessage) (*models.SessionState, error) {
	values := make([]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("encode message: %w", err)
		}
		values = append(values, string(data))
	}

	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(values) > 0 {
			pipe.RPush(ctx, messagesKey(sessionID), values...)
		}
		r.touch(ctx, pipe, sessionID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("append to session %s: %w", sessionID, err)
	}

	return r.Get(ctx, sessionID)
}

func (r *RedisTranscriptRepo) Reset(ctx context.Context, sessionID uuid.UUID) error {
	return r.redis.Del(ctx, messagesKey(sessionID)).Err()
}

func (r *RedisTranscriptRepo) SetShowAll(ctx context.Context, sessionID uuid.UUID, showAll bool) error {
	val := "0"
	if showAll {
		val = "1"
	}
	return r.setMeta(ctx, sessionID, fieldShowAll, val)
}

func (r *RedisTranscriptRepo) SetSelectedQuestion(ctx context.Context, sessionID uuid.UUID, question string) error {
	if question == "" {
		return r.redis.HDel(ctx, metaKey(sessionID), fieldSelectedQuestion).Err()
	}
	return r.setMeta(ctx, sessionID, fieldSelectedQuestion, question)
}

func (r *RedisTranscriptRepo) setMeta(ctx context.Context, sessionID uuid.UUID, field, value string) error {
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, metaKey(sessionID), field, value)
		r.touch(ctx, pipe, sessionID)
		return nil
	})
	return err
}
