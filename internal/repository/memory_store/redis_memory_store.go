// Package memory_store is the default backing for the semantic-memory
// collaborator: store(record) plus recall(query) with a coarse token-overlap
// ranking. Embedding quality is out of scope here; callers only rely on the
// store/recall contract.
package memory_store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/maxzillabong/encrypt-chat-ai/internal/domain"
)

type redisMemoryStore struct {
	cli     *redis.Client
	keyPref string
}

func NewRedisMemoryStore(addr string) *redisMemoryStore {
	return &redisMemoryStore{
		cli:     redis.NewClient(&redis.Options{Addr: addr}),
		keyPref: "mem:",
	}
}

func (r *redisMemoryStore) key(tenantID string) string {
	return r.keyPref + tenantID
}

func (r *redisMemoryStore) Store(ctx context.Context, tenantID string, rec domain.MemoryRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("memory_store: marshal record: %w", err)
	}
	return r.cli.RPush(ctx, r.key(tenantID), raw).Err()
}

// Recall returns up to limit records ranked by shared-token count with query.
// Records with no overlap are omitted.
func (r *redisMemoryStore) Recall(ctx context.Context, tenantID, query string, limit int) ([]domain.MemoryRecord, error) {
	raws, err := r.cli.LRange(ctx, r.key(tenantID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("memory_store: recall: %w", err)
	}

	queryTokens := tokenize(query)

	type scored struct {
		rec   domain.MemoryRecord
		score int
	}
	var hits []scored
	for _, raw := range raws {
		var rec domain.MemoryRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("memory_store: decode record: %w", err)
		}
		if score := overlap(queryTokens, tokenize(rec.Text)); score > 0 {
			hits = append(hits, scored{rec: rec, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]domain.MemoryRecord, len(hits))
	for i, h := range hits {
		out[i] = h.rec
	}
	return out, nil
}

func tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tokens[strings.Trim(tok, ".,!?;:")] = struct{}{}
	}
	return tokens
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			n++
		}
	}
	return n
}
