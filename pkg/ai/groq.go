package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/johnquangdev/mai-recap/pkg/config"
)

// GroqClient calls Groq's OpenAI-compatible chat endpoint with key rotation
type GroqClient struct {
	keys    *KeyPool
	model   string
	baseURL string
	policy  RetryPolicy
	client  *http.Client
}

// NewGroqClient creates a Groq client from config
func NewGroqClient(cfg *config.GroqConfig, policy RetryPolicy, timeout time.Duration) *GroqClient {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	c := &GroqClient{
		keys:    NewKeyPool(),
		model:   "llama-3.3-70b-versatile",
		baseURL: "https://api.groq.com",
		policy:  policy,
		client:  &http.Client{Timeout: timeout},
	}
	if cfg != nil {
		c.keys = NewKeyPool(cfg.APIKeys...)
		if cfg.Model != "" {
			c.model = cfg.Model
		}
		if cfg.BaseURL != "" {
			c.baseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
	}
	return c
}

// Name identifies the provider in logs and metrics
func (g *GroqClient) Name() string {
	return "groq"
}

// ChatMessage is one turn of a chat completion request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends a single user prompt and returns the assistant content
func (g *GroqClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ChatRequest{
		Model:       g.model,
		Messages:    []ChatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.3,
		MaxTokens:   8000,
	})
	if err != nil {
		return "", err
	}

	var out string
	err = withRetry(ctx, g.policy, g.keys, func(ctx context.Context, key string) error {
		text, err := g.do(ctx, key, body)
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	return out, err
}

func (g *GroqClient) do(ctx context.Context, key string, body []byte) (string, error) {
	endpoint := g.baseURL + "/openai/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", statusError(g.Name(), resp)
	}

	var cr ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("failed to decode groq response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", errors.New("empty response from groq")
	}
	return cr.Choices[0].Message.Content, nil
}
