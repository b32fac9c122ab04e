package minutes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/Fikrifrds/meeting-notes/internal/meeting"
)

func openAIConfig() Config {
	return Config{
		OpenAIAPIKey:      "test-key",
		OpenAIModel:       "gpt-4o-mini",
		OpenAIMaxTokens:   2000,
		OpenAITemperature: 0.3,
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"## Summary\n\nGood talk.\n\nKEY_TOPICS: roadmap\nSENTIMENT: positive\nENERGY: high"}}]}`)
	}))
	defer srv.Close()

	p := NewOpenAI(openAIConfig(), srv.URL)
	out, err := p.Generate(context.Background(), "we talked about the roadmap", "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(out, "KEY_TOPICS:") {
		t.Errorf("output missing trailer: %q", out)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q, want gpt-4o-mini", gotReq.Model)
	}
	if gotReq.MaxTokens != 2000 {
		t.Errorf("max_tokens = %d, want 2000", gotReq.MaxTokens)
	}
	if len(gotReq.Messages) != 1 || !strings.Contains(gotReq.Messages[0].Content, "we talked about the roadmap") {
		t.Errorf("prompt missing transcript: %+v", gotReq.Messages)
	}
}

func TestOpenAIMissingKey(t *testing.T) {
	cfg := openAIConfig()
	cfg.OpenAIAPIKey = ""
	p := NewOpenAI(cfg, "http://unused.invalid")
	_, err := p.Generate(context.Background(), "t", "")
	if !errors.Is(err, meeting.ErrEnvMissing) {
		t.Errorf("Generate() error = %v, want ErrEnvMissing", err)
	}
}

func TestOpenAIHTTPErrorPreservesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer srv.Close()

	p := NewOpenAI(openAIConfig(), srv.URL)
	_, err := p.Generate(context.Background(), "t", "")
	if !errors.Is(err, meeting.ErrProviderFailure) {
		t.Fatalf("Generate() error = %v, want ErrProviderFailure", err)
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error should carry status and body: %v", err)
	}
}

func TestOllamaGenerate(t *testing.T) {
	var gotReq ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q, want /api/generate", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaResponse{Response: "## Summary\n\nShort.\n\nKEY_TOPICS: hiring\nSENTIMENT: neutral\nENERGY: medium"})
	}))
	defer srv.Close()

	cfg := Config{OllamaModel: "llama3.1:8b"}
	p := NewOllama(cfg, srv.URL)
	out, err := p.Generate(context.Background(), "hiring sync", "de")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(out, "KEY_TOPICS:") {
		t.Errorf("output missing trailer: %q", out)
	}
	if gotReq.Stream {
		t.Error("stream should be false")
	}
	if gotReq.Model != "llama3.1:8b" {
		t.Errorf("model = %q, want llama3.1:8b", gotReq.Model)
	}
	if !strings.Contains(gotReq.Prompt, "Write the minutes in de.") {
		t.Errorf("prompt missing language hint: %q", gotReq.Prompt)
	}
}

func TestOllamaHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllama(Config{OllamaModel: "missing"}, srv.URL)
	_, err := p.Generate(context.Background(), "t", "")
	if !errors.Is(err, meeting.ErrProviderFailure) {
		t.Errorf("Generate() error = %v, want ErrProviderFailure", err)
	}
}

func TestEnsureTrailerAppendsWhenMissing(t *testing.T) {
	out := ensureTrailer("## Summary\n\nNo trailer here.\n")
	if !strings.Contains(out, "KEY_TOPICS:") || !strings.Contains(out, "SENTIMENT:") || !strings.Contains(out, "ENERGY:") {
		t.Errorf("trailer not appended: %q", out)
	}
}

func TestEnsureTrailerKeepsExisting(t *testing.T) {
	in := "Body\n\nKEY_TOPICS: a, b\nSENTIMENT: positive\nENERGY: low"
	if out := ensureTrailer(in); out != in {
		t.Errorf("existing trailer modified: %q", out)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_MAX_TOKENS",
		"OPENAI_TEMPERATURE", "OLLAMA_HOST", "OLLAMA_MODEL"} {
		t.Setenv(key, "") // registers restore
		os.Unsetenv(key)  // defaults apply only when unset
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("OpenAIModel = %q, want gpt-4o-mini", cfg.OpenAIModel)
	}
	if cfg.OpenAIMaxTokens != 2000 {
		t.Errorf("OpenAIMaxTokens = %d, want 2000", cfg.OpenAIMaxTokens)
	}
	if cfg.OllamaHost != "http://localhost:11434" {
		t.Errorf("OllamaHost = %q", cfg.OllamaHost)
	}
}
