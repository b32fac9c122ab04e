package minutes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Fikrifrds/meeting-notes/internal/meeting"
)

// Ollama generates minutes via a local Ollama server.
type Ollama struct {
	cfg    Config
	host   string
	client *http.Client
}

// NewOllama builds an Ollama provider. host overrides cfg.OllamaHost
// for tests; empty means the configured host.
func NewOllama(cfg Config, host string) *Ollama {
	if host == "" {
		host = cfg.OllamaHost
	}
	return &Ollama{
		cfg:  cfg,
		host: host,
		// Local models can take minutes on long transcripts.
		client: &http.Client{Timeout: 10 * time.Minute},
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Generate sends the transcript to /api/generate and returns markdown
// minutes.
func (o *Ollama) Generate(ctx context.Context, transcript, language string) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:  o.cfg.OllamaModel,
		Prompt: buildPrompt(transcript, language),
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("minutes: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("minutes: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: ollama: %v", meeting.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: ollama: reading response: %v", meeting.ErrProviderFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: ollama HTTP %d: %s", meeting.ErrProviderFailure, resp.StatusCode, string(respBody))
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: ollama: parsing response: %v", meeting.ErrProviderFailure, err)
	}
	if parsed.Response == "" {
		return "", fmt.Errorf("%w: ollama: empty completion", meeting.ErrProviderFailure)
	}

	return ensureTrailer(parsed.Response), nil
}
