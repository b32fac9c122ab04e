// Package minutes turns a meeting transcript into structured markdown
// minutes using an external language model provider.
package minutes

import (
	"context"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds provider settings, loaded from the environment.
type Config struct {
	OpenAIAPIKey      string  `envconfig:"OPENAI_API_KEY"`
	OpenAIModel       string  `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIMaxTokens   int     `envconfig:"OPENAI_MAX_TOKENS" default:"2000"`
	OpenAITemperature float64 `envconfig:"OPENAI_TEMPERATURE" default:"0.3"`
	OllamaHost        string  `envconfig:"OLLAMA_HOST" default:"http://localhost:11434"`
	OllamaModel       string  `envconfig:"OLLAMA_MODEL" default:"llama3.1:8b"`
}

// LoadConfig reads provider settings from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("minutes: loading config: %w", err)
	}
	return cfg, nil
}

// Provider generates meeting minutes from a transcript.
type Provider interface {
	Generate(ctx context.Context, transcript, language string) (string, error)
}

const trailerMarker = "KEY_TOPICS:"

// defaultTrailer is appended when a model ignores the trailer
// instruction, so downstream consumers can always parse one.
const defaultTrailer = "\n\nKEY_TOPICS: general discussion\nSENTIMENT: neutral\nENERGY: medium\n"

// buildPrompt produces the instruction given to either provider. The
// trailer lines are machine-read by the caller and must close the
// output.
func buildPrompt(transcript, language string) string {
	var b strings.Builder
	b.WriteString("You are an assistant that writes concise meeting minutes from a raw transcript.\n")
	b.WriteString("Produce markdown with these sections: Summary, Decisions, Action Items, Open Questions.\n")
	b.WriteString("End the output with exactly three lines in this format and nothing after them:\n")
	b.WriteString("KEY_TOPICS: <comma separated topics>\n")
	b.WriteString("SENTIMENT: <positive|neutral|negative>\n")
	b.WriteString("ENERGY: <high|medium|low>\n")
	if language != "" {
		fmt.Fprintf(&b, "Write the minutes in %s.\n", language)
	}
	b.WriteString("\nTranscript:\n\n")
	b.WriteString(transcript)
	return b.String()
}

// ensureTrailer appends a neutral trailer when the model did not emit
// one.
func ensureTrailer(text string) string {
	if strings.Contains(text, trailerMarker) {
		return text
	}
	return strings.TrimRight(text, "\n") + defaultTrailer
}
