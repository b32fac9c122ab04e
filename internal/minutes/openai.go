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

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAI generates minutes via the chat completions API.
type OpenAI struct {
	cfg     Config
	baseURL string
	client  *http.Client
}

// NewOpenAI builds an OpenAI provider from cfg. baseURL overrides the
// API host for tests; empty means the public endpoint.
func NewOpenAI(cfg Config, baseURL string) *OpenAI {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAI{
		cfg:     cfg,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends the transcript to the chat completions endpoint and
// returns markdown minutes.
func (o *OpenAI) Generate(ctx context.Context, transcript, language string) (string, error) {
	if o.cfg.OpenAIAPIKey == "" {
		return "", fmt.Errorf("%w: OPENAI_API_KEY", meeting.ErrEnvMissing)
	}

	body, err := json.Marshal(chatRequest{
		Model: o.cfg.OpenAIModel,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(transcript, language)},
		},
		MaxTokens:   o.cfg.OpenAIMaxTokens,
		Temperature: o.cfg.OpenAITemperature,
	})
	if err != nil {
		return "", fmt.Errorf("minutes: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("minutes: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.cfg.OpenAIAPIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: openai: %v", meeting.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: openai: reading response: %v", meeting.ErrProviderFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: openai HTTP %d: %s", meeting.ErrProviderFailure, resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: openai: parsing response: %v", meeting.ErrProviderFailure, err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: openai: empty completion", meeting.ErrProviderFailure)
	}

	return ensureTrailer(parsed.Choices[0].Message.Content), nil
}
