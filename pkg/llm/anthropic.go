package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"
)

type anthropicModel struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

func newAnthropicModel(s Settings, httpClient *http.Client) (m *anthropicModel) {
	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}

	m = &anthropicModel{
		client:      anthropic.NewClient(opts...),
		model:       s.Model,
		maxTokens:   s.MaxTokens,
		temperature: s.Temperature,
	}
	return m
}

func (m *anthropicModel) Model() (model string) {
	model = m.model
	return model
}

func (m *anthropicModel) Ask(ctx context.Context, system, user string) (reply string, err error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: m.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if m.temperature > 0 {
		params.Temperature = anthropic.Float(m.temperature)
	}

	var message *anthropic.Message
	message, err = m.client.Messages.New(ctx, params)
	if err != nil {
		serviceErr := &ServiceError{Provider: ProviderAnthropic, Err: errors.Wrap(err, "messages request failed")}
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			serviceErr.StatusCode = apiErr.StatusCode
		}
		err = serviceErr
		return reply, err
	}

	// Extract text content
	parts := make([]string, 0, len(message.Content))
	for _, block := range message.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}

	reply = strings.Join(parts, "")
	if strings.TrimSpace(reply) == "" {
		err = &ServiceError{Provider: ProviderAnthropic, Err: errors.New("no text content in response")}
		return reply, err
	}

	return reply, err
}
