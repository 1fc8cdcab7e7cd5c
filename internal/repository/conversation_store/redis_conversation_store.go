// Package conversation_store is the default backing for the conversation
// collaborator. Conversations are per-tenant message lists; fork copies a
// conversation's history into a fresh identifier.
package conversation_store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/maxzillabong/encrypt-chat-ai/internal/domain"
)

type redisConversationStore struct {
	cli     *redis.Client
	keyPref string
}

func NewRedisConversationStore(addr string) *redisConversationStore {
	return &redisConversationStore{
		cli:     redis.NewClient(&redis.Options{Addr: addr}),
		keyPref: "conv:",
	}
}

func (r *redisConversationStore) key(tenantID, convID string) string {
	return fmt.Sprintf("%s%s:%s", r.keyPref, tenantID, convID)
}

func (r *redisConversationStore) Create(ctx context.Context, tenantID string) (string, error) {
	convID := uuid.NewString()
	// marker entry so an empty conversation still exists
	meta, _ := json.Marshal(domain.Message{Role: "system", Text: "", SentAt: time.Now().UnixMilli()})
	if err := r.cli.RPush(ctx, r.key(tenantID, convID), meta).Err(); err != nil {
		return "", fmt.Errorf("conversation_store: create: %w", err)
	}
	return convID, nil
}

func (r *redisConversationStore) Append(ctx context.Context, tenantID, convID string, msg domain.Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("conversation_store: marshal message: %w", err)
	}
	return r.cli.RPush(ctx, r.key(tenantID, convID), raw).Err()
}

func (r *redisConversationStore) List(ctx context.Context, tenantID, convID string) ([]domain.Message, error) {
	raws, err := r.cli.LRange(ctx, r.key(tenantID, convID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("conversation_store: list: %w", err)
	}

	msgs := make([]domain.Message, 0, len(raws))
	for _, raw := range raws {
		var m domain.Message
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("conversation_store: decode message: %w", err)
		}
		if m.Role == "system" && m.Text == "" {
			continue // creation marker
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Fork copies the source conversation's messages into a new conversation and
// returns the new identifier. The source is left untouched.
func (r *redisConversationStore) Fork(ctx context.Context, tenantID, convID string) (string, error) {
	raws, err := r.cli.LRange(ctx, r.key(tenantID, convID), 0, -1).Result()
	if err != nil {
		return "", fmt.Errorf("conversation_store: fork read: %w", err)
	}

	forkID := uuid.NewString()
	pipe := r.cli.Pipeline()
	for _, raw := range raws {
		pipe.RPush(ctx, r.key(tenantID, forkID), raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("conversation_store: fork write: %w", err)
	}
	return forkID, nil
}
