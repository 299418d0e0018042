package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/johnquangdev/mai-recap/pkg/config"
)

// TranscriptionPrompt asks for a verbatim transcript with speaker labels
const TranscriptionPrompt = "You are an expert transcriptionist specializing in public sector meetings. " +
	"Transcribe the following meeting audio accurately. " +
	"Clearly label speakers if discernible (e.g., Speaker 1:, Dr. Smith:, Ms. Jones:). " +
	"If speakers are not clearly distinguishable, use generic labels like 'Speaker A:', 'Speaker B:'."

// GeminiClient calls the Gemini generateContent endpoint with key rotation
type GeminiClient struct {
	keys    *KeyPool
	model   string
	baseURL string
	policy  RetryPolicy
	client  *http.Client
}

// NewGeminiClient creates a Gemini client from config
func NewGeminiClient(cfg *config.GeminiConfig, policy RetryPolicy, timeout time.Duration) *GeminiClient {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	c := &GeminiClient{
		keys:    NewKeyPool(),
		model:   "gemini-2.0-flash",
		baseURL: "https://generativelanguage.googleapis.com",
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
func (g *GeminiClient) Name() string {
	return "gemini"
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig map[string]any  `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate sends a text prompt and returns the model's reply
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, []geminiPart{{Text: prompt}})
}

// Transcribe sends the audio inline with the transcription prompt
func (g *GeminiClient) Transcribe(ctx context.Context, audio io.Reader, mimeType string) (string, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return "", fmt.Errorf("failed to read audio: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("audio is empty")
	}

	return g.generate(ctx, []geminiPart{
		{Text: TranscriptionPrompt},
		{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
	})
}

func (g *GeminiClient) generate(ctx context.Context, parts []geminiPart) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: map[string]any{"temperature": 0.3},
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

func (g *GeminiClient) do(ctx context.Context, key string, body []byte) (string, error) {
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", key)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(g.Name(), resp)
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("failed to decode gemini response: %w", err)
	}
	if gr.PromptFeedback.BlockReason != "" {
		return "", &StatusError{Provider: g.Name(), StatusCode: http.StatusUnprocessableEntity, Body: "prompt blocked: " + gr.PromptFeedback.BlockReason}
	}
	if len(gr.Candidates) == 0 {
		return "", errors.New("empty response from gemini")
	}

	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return "", errors.New("empty response from gemini")
	}
	return sb.String(), nil
}
