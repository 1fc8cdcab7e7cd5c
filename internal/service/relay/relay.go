// Package relay holds the business logic between the secure channel and the
// injected collaborators: the LLM generator, the conversation store, and the
// semantic memory store. Decrypted bodies are parsed into explicit tagged
// variants immediately; unknown shapes are rejected before any collaborator
// call.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maxzillabong/encrypt-chat-ai/internal/domain"
)

var (
	ErrUnknownRequest = errors.New("unknown request type")
	ErrEmptyPrompt    = errors.New("empty prompt")
)

// Generator is the opaque LLM call. Failure and timeout semantics live behind
// it; the relay only bounds the call with its own deadline.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ConversationStore is the narrow CRUD surface of the conversation
// collaborator, including the branching fork operation.
type ConversationStore interface {
	Create(ctx context.Context, tenantID string) (string, error)
	Append(ctx context.Context, tenantID, convID string, msg domain.Message) error
	List(ctx context.Context, tenantID, convID string) ([]domain.Message, error)
	Fork(ctx context.Context, tenantID, convID string) (string, error)
}

// MemoryStore is the store/recall surface of the semantic-memory collaborator.
type MemoryStore interface {
	Store(ctx context.Context, tenantID string, rec domain.MemoryRecord) error
	Recall(ctx context.Context, tenantID, query string, limit int) ([]domain.MemoryRecord, error)
}

const recallLimit = 3

type service struct {
	gen        Generator
	convs      ConversationStore
	memories   MemoryStore
	genTimeout time.Duration
}

func NewService(gen Generator, convs ConversationStore, memories MemoryStore, genTimeout time.Duration) *service {
	return &service{
		gen:        gen,
		convs:      convs,
		memories:   memories,
		genTimeout: genTimeout,
	}
}

// request is the decrypted wire form; Type selects the variant.
type request struct {
	Type           string `json:"type"`
	Prompt         string `json:"prompt,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Query          string `json:"query,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

// Response is the plaintext the secure channel carries back: status, headers,
// and a body that is itself a JSON string from the collaborator side.
type Response struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// Handle parses one decrypted request, dispatches the tagged variant, and
// returns the plaintext response to encrypt.
func (s *service) Handle(ctx context.Context, tenantID string, plaintext []byte) ([]byte, error) {
	const op = "location internal.service.relay.Handle"

	var req request
	if err := json.Unmarshal(plaintext, &req); err != nil {
		logrus.Errorf("%s: %v", op, err)
		return nil, fmt.Errorf("%w: not a JSON object", ErrUnknownRequest)
	}

	var (
		body string
		err  error
	)
	switch req.Type {
	case "chat":
		body, err = s.chat(ctx, tenantID, req)
	case "recall":
		body, err = s.recall(ctx, tenantID, req)
	case "fork":
		body, err = s.fork(ctx, tenantID, req)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRequest, req.Type)
	}
	if err != nil {
		return nil, err
	}

	resp := Response{
		Status:  200,
		Headers: map[string]string{"content-type": "application/json"},
		Body:    body,
	}
	return json.Marshal(resp)
}

func (s *service) chat(ctx context.Context, tenantID string, req request) (string, error) {
	const op = "location internal.service.relay.chat"

	if req.Prompt == "" {
		return "", ErrEmptyPrompt
	}

	convID := req.ConversationID
	if convID == "" {
		id, err := s.convs.Create(ctx, tenantID)
		if err != nil {
			logrus.Errorf("%s: %v", op, err)
			return "", err
		}
		convID = id
	}

	// recalled memories are prepended as context; recall failure is not fatal
	prompt := req.Prompt
	if recs, err := s.memories.Recall(ctx, tenantID, req.Prompt, recallLimit); err == nil && len(recs) > 0 {
		prompt = contextualize(recs, req.Prompt)
	}

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()
	reply, err := s.gen.Generate(genCtx, prompt)
	if err != nil {
		logrus.Errorf("%s: %v", op, err)
		return "", err
	}

	now := time.Now().UnixMilli()
	if err := s.convs.Append(ctx, tenantID, convID, domain.Message{Role: "user", Text: req.Prompt, SentAt: now}); err != nil {
		logrus.Errorf("%s: %v", op, err)
		return "", err
	}
	if err := s.convs.Append(ctx, tenantID, convID, domain.Message{Role: "assistant", Text: reply, SentAt: now}); err != nil {
		logrus.Errorf("%s: %v", op, err)
		return "", err
	}
	if err := s.memories.Store(ctx, tenantID, domain.MemoryRecord{Text: req.Prompt, StoredAt: now}); err != nil {
		logrus.Errorf("%s: store memory: %v", op, err)
	}

	out, err := json.Marshal(map[string]string{
		"reply":           reply,
		"conversation_id": convID,
	})
	return string(out), err
}

func (s *service) recall(ctx context.Context, tenantID string, req request) (string, error) {
	if req.Query == "" {
		return "", fmt.Errorf("%w: recall without query", ErrUnknownRequest)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = recallLimit
	}
	recs, err := s.memories.Recall(ctx, tenantID, req.Query, limit)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(map[string]any{"records": recs})
	return string(out), err
}

func (s *service) fork(ctx context.Context, tenantID string, req request) (string, error) {
	if req.ConversationID == "" {
		return "", fmt.Errorf("%w: fork without conversation_id", ErrUnknownRequest)
	}
	forkID, err := s.convs.Fork(ctx, tenantID, req.ConversationID)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(map[string]string{"conversation_id": forkID})
	return string(out), err
}

func contextualize(recs []domain.MemoryRecord, prompt string) string {
	ctx := "Relevant context from earlier exchanges:\n"
	for _, r := range recs {
		ctx += "- " + r.Text + "\n"
	}
	return ctx + "\n" + prompt
}
