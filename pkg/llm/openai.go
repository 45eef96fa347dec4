package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pkg/errors"
)

type openAIModel struct {
	client      openai.Client
	model       string
	maxTokens   int64
	temperature float64
}

func newOpenAIModel(s Settings, httpClient *http.Client) (m *openAIModel) {
	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}

	m = &openAIModel{
		client:      openai.NewClient(opts...),
		model:       s.Model,
		maxTokens:   s.MaxTokens,
		temperature: s.Temperature,
	}
	return m
}

func (m *openAIModel) Model() (model string) {
	model = m.model
	return model
}

func (m *openAIModel) Ask(ctx context.Context, system, user string) (reply string, err error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(user))

	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(m.model),
		Messages:  messages,
		MaxTokens: openai.Int(m.maxTokens),
	}
	if m.temperature > 0 {
		params.Temperature = openai.Float(m.temperature)
	}

	var completion *openai.ChatCompletion
	completion, err = m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		serviceErr := &ServiceError{Provider: ProviderOpenAI, Err: errors.Wrap(err, "chat completion request failed")}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			serviceErr.StatusCode = apiErr.StatusCode
		}
		err = serviceErr
		return reply, err
	}

	if len(completion.Choices) == 0 {
		err = &ServiceError{Provider: ProviderOpenAI, Err: errors.New("no choices in response")}
		return reply, err
	}

	reply = completion.Choices[0].Message.Content
	if strings.TrimSpace(reply) == "" {
		err = &ServiceError{Provider: ProviderOpenAI, Err: errors.New("empty message in response")}
		return reply, err
	}

	return reply, err
}
