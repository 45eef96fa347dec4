package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// ProviderOpenAI selects the OpenAI chat completions API.
	ProviderOpenAI = "openai"
	// ProviderAnthropic selects the Anthropic messages API.
	ProviderAnthropic = "anthropic"

	// OpenAIModel is the default OpenAI model.
	OpenAIModel = "gpt-4"
	// ClaudeModel is the default Anthropic model.
	ClaudeModel = "claude-sonnet-4-20250514"

	// DefaultMaxTokens bounds the length of a reply.
	DefaultMaxTokens = 4096
	// RequestTimeout bounds a single HTTP exchange with a provider.
	RequestTimeout = 120 * time.Second
)

// ChatModel sends one system and one user message and returns the text of the reply.
type ChatModel interface {
	Ask(ctx context.Context, system, user string) (reply string, err error)
	Model() (model string)
}

// Settings configures a ChatModel. Everything is explicit; nothing is read from the environment here.
type Settings struct {
	Provider string
	APIKey   string
	Model    string
	// BaseURL overrides the provider endpoint, e.g. for a proxy or a test server.
	BaseURL   string
	MaxTokens int64
	// Temperature is only sent when positive.
	Temperature float64
}

// ServiceError reports a failed exchange with a language model provider.
type ServiceError struct {
	Provider string
	// StatusCode is the HTTP status returned by the provider, or 0 when no response was received.
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() (msg string) {
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s service error (status %d): %s", e.Provider, e.StatusCode, e.Err.Error())
		return msg
	}
	msg = fmt.Sprintf("%s service error: %s", e.Provider, e.Err.Error())
	return msg
}

// Unwrap returns the underlying cause.
func (e *ServiceError) Unwrap() (err error) {
	err = e.Err
	return err
}

// NewChatModel builds the ChatModel for the configured provider.
func NewChatModel(s Settings) (model ChatModel, err error) {
	if s.APIKey == "" {
		err = errors.Errorf("API key is required for provider %q", s.Provider)
		return model, err
	}

	if s.MaxTokens <= 0 {
		s.MaxTokens = DefaultMaxTokens
	}

	httpClient := &http.Client{
		Timeout: RequestTimeout,
	}

	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "", ProviderOpenAI:
		if s.Model == "" {
			s.Model = OpenAIModel
		}
		model = newOpenAIModel(s, httpClient)
	case ProviderAnthropic, "claude":
		if s.Model == "" {
			s.Model = ClaudeModel
		}
		model = newAnthropicModel(s, httpClient)
	default:
		err = errors.Errorf("unknown provider %q (expected %s or %s)", s.Provider, ProviderOpenAI, ProviderAnthropic)
	}

	return model, err
}

// stripMarkdownCodeFences removes a surrounding ``` or ```lang fence from a reply.
func stripMarkdownCodeFences(text string) (cleaned string) {
	cleaned = strings.TrimSpace(text)

	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	// Drop the opening fence line, including any language tag
	newline := strings.Index(cleaned, "\n")
	if newline < 0 {
		cleaned = ""
		return cleaned
	}
	cleaned = cleaned[newline+1:]

	cleaned = strings.TrimRight(cleaned, " \r\n")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimRight(cleaned, " \r\n")

	return cleaned
}
