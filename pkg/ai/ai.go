// Package ai holds the clients for the hosted transcription and generation APIs.
package ai

import (
	"context"
	"io"
	"net/http"
	"strings"
)

// LLM generates text from a prompt
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Transcriber turns meeting audio into a speaker-labelled transcript
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, mimeType string) (string, error)
	Name() string
}

const maxErrorBody = 512

// statusError drains a failed response into a StatusError
func statusError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
