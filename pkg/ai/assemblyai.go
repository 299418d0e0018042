package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/johnquangdev/mai-recap/pkg/config"
)

// AssemblyAIClient transcribes audio through the official AssemblyAI SDK
type AssemblyAIClient struct {
	client   *aai.Client
	language string
	policy   RetryPolicy
	keys     *KeyPool
}

// NewAssemblyAIClient creates an AssemblyAI client using the provided config
func NewAssemblyAIClient(cfg *config.AssemblyAIConfig, policy RetryPolicy, opts ...aai.ClientOption) *AssemblyAIClient {
	var apiKey, language string
	if cfg != nil {
		apiKey = cfg.APIKey
		language = cfg.Language
	}

	opts = append([]aai.ClientOption{aai.WithAPIKey(apiKey)}, opts...)
	return &AssemblyAIClient{
		client:   aai.NewClientWithOptions(opts...),
		language: language,
		policy:   policy,
		keys:     NewKeyPool(apiKey),
	}
}

// Name identifies the provider in logs and metrics
func (c *AssemblyAIClient) Name() string {
	return "assemblyai"
}

// Transcribe uploads the audio, waits for the transcript and renders it as
// one "Speaker X: text" line per utterance
func (c *AssemblyAIClient) Transcribe(ctx context.Context, audio io.Reader, mimeType string) (string, error) {
	if c.keys.Len() == 0 {
		return "", ErrNoAPIKey
	}

	// uploads are not replayable, so only the transcription request is retried
	uploadURL, err := c.client.Upload(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("failed to upload to assemblyai: %w", err)
	}

	params := &aai.TranscriptOptionalParams{
		SpeakerLabels: aai.Bool(true),
	}
	if c.language != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(c.language)
	}

	var transcript aai.Transcript
	err = withRetry(ctx, c.policy, c.keys, func(ctx context.Context, _ string) error {
		t, err := c.client.Transcripts.TranscribeFromURL(ctx, uploadURL, params)
		if err != nil {
			return err
		}
		transcript = t
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe with assemblyai: %w", err)
	}

	if transcript.Status == aai.TranscriptStatusError {
		return "", fmt.Errorf("assemblyai transcription failed: %s", aai.ToString(transcript.Error))
	}

	text := FormatUtterances(transcript.Utterances)
	if text == "" {
		text = strings.TrimSpace(aai.ToString(transcript.Text))
	}
	if text == "" {
		return "", errors.New("assemblyai returned an empty transcript")
	}
	return text, nil
}

// FormatUtterances renders diarized utterances as labelled lines
func FormatUtterances(utterances []aai.TranscriptUtterance) string {
	var sb strings.Builder
	for _, u := range utterances {
		text := strings.TrimSpace(aai.ToString(u.Text))
		if text == "" {
			continue
		}
		speaker := strings.TrimSpace(aai.ToString(u.Speaker))
		if speaker == "" {
			speaker = "Unknown"
		}
		fmt.Fprintf(&sb, "Speaker %s: %s\n", speaker, text)
	}
	return sb.String()
}
