// Package generator is the default binding of the opaque LLM collaborator:
// one POST to an upstream endpoint, prompt in, text out. The upstream wire
// protocol is deliberately minimal; anything richer belongs behind the same
// Generate contract.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type HTTPGenerator struct {
	url string
	cli *http.Client
}

func NewHTTPGenerator(url string, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{
		url: url,
		cli: &http.Client{Timeout: timeout},
	}
}

type generateReq struct {
	Prompt string `json:"prompt"`
}

type generateResp struct {
	Text string `json:"text"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateReq{Prompt: prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.cli.Do(req)
	if err != nil {
		return "", fmt.Errorf("generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generator: upstream returned %d", resp.StatusCode)
	}

	var out generateResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("generator: decode response: %w", err)
	}
	return out.Text, nil
}
