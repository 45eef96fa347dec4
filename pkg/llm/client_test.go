package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestNewChatModel(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		model    string
		wantErr  bool
	}{
		{"openai default", Settings{Provider: ProviderOpenAI, APIKey: "k"}, OpenAIModel, false},
		{"empty provider is openai", Settings{APIKey: "k"}, OpenAIModel, false},
		{"anthropic default", Settings{Provider: ProviderAnthropic, APIKey: "k"}, ClaudeModel, false},
		{"explicit model", Settings{Provider: "Anthropic", APIKey: "k", Model: "claude-opus"}, "claude-opus", false},
		{"missing key", Settings{Provider: ProviderOpenAI}, "", true},
		{"unknown provider", Settings{Provider: "llama", APIKey: "k"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := NewChatModel(tt.settings)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if model.Model() != tt.model {
				t.Errorf("Expected model '%s', got '%s'", tt.model, model.Model())
			}
		})
	}
}

func TestOpenAIAsk(t *testing.T) {
	// Create test server.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request.
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}

		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}

		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("Missing or incorrect authorization header")
		}

		body, _ := io.ReadAll(r.Body)
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		err := json.Unmarshal(body, &req)
		if err != nil {
			t.Errorf("Failed to parse request: %v", err)
		}

		if req.Model != OpenAIModel {
			t.Errorf("Expected model '%s', got '%s'", OpenAIModel, req.Model)
		}

		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "Format this" {
			t.Errorf("Unexpected messages: %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "[SECTION]Role\nLead\n[/SECTION]"}}]
		}`))
	}))
	defer server.Close()

	model, err := NewChatModel(Settings{Provider: ProviderOpenAI, APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}

	reply, err := model.Ask(context.Background(), SystemPrompt, "Format this")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if reply != "[SECTION]Role\nLead\n[/SECTION]" {
		t.Errorf("Unexpected reply: %q", reply)
	}
}

func TestAnthropicAsk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}

		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Error("Missing or incorrect API key header")
		}

		body, _ := io.ReadAll(r.Body)
		var req struct {
			Model  string `json:"model"`
			System []struct {
				Text string `json:"text"`
			} `json:"system"`
		}
		err := json.Unmarshal(body, &req)
		if err != nil {
			t.Errorf("Failed to parse request: %v", err)
		}

		if req.Model != ClaudeModel {
			t.Errorf("Expected model '%s', got '%s'", ClaudeModel, req.Model)
		}

		if len(req.System) != 1 || req.System[0].Text != SystemPrompt {
			t.Errorf("Unexpected system prompt: %+v", req.System)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "**Role**\n"}, {"type": "text", "text": "Lead"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer server.Close()

	model, err := NewChatModel(Settings{Provider: ProviderAnthropic, APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}

	reply, err := model.Ask(context.Background(), SystemPrompt, "Format this")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if reply != "**Role**\nLead" {
		t.Errorf("Unexpected reply: %q", reply)
	}
}

func TestAskServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		status   int
		body     string
		code     int
	}{
		{
			name:     "openai quota",
			provider: ProviderOpenAI,
			status:   http.StatusTooManyRequests,
			body:     `{"error": {"message": "You exceeded your current quota", "type": "insufficient_quota"}}`,
			code:     http.StatusTooManyRequests,
		},
		{
			name:     "anthropic auth",
			provider: ProviderAnthropic,
			status:   http.StatusUnauthorized,
			body:     `{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`,
			code:     http.StatusUnauthorized,
		},
		{
			name:     "openai empty reply",
			provider: ProviderOpenAI,
			status:   http.StatusOK,
			body:     `{"id": "x", "object": "chat.completion", "created": 1, "model": "gpt-4", "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "  "}}]}`,
			code:     0,
		},
		{
			name:     "anthropic no text",
			provider: ProviderAnthropic,
			status:   http.StatusOK,
			body:     `{"id": "m", "type": "message", "role": "assistant", "model": "x", "content": [], "stop_reason": "end_turn", "usage": {"input_tokens": 1, "output_tokens": 0}}`,
			code:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			model, err := NewChatModel(Settings{Provider: tt.provider, APIKey: "test-key", BaseURL: server.URL})
			if err != nil {
				t.Fatalf("Failed to create model: %v", err)
			}

			_, err = model.Ask(context.Background(), "", "Format this")
			if err == nil {
				t.Fatal("Expected error, got nil")
			}

			var serviceErr *ServiceError
			if !errors.As(err, &serviceErr) {
				t.Fatalf("Expected ServiceError, got %T: %v", err, err)
			}

			if serviceErr.Provider != tt.provider {
				t.Errorf("Expected provider '%s', got '%s'", tt.provider, serviceErr.Provider)
			}

			if serviceErr.StatusCode != tt.code {
				t.Errorf("Expected status %d, got %d", tt.code, serviceErr.StatusCode)
			}

			if calls.Load() != 1 {
				t.Errorf("Expected exactly one request, got %d", calls.Load())
			}
		})
	}
}

func TestAskNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	model, err := NewChatModel(Settings{Provider: ProviderOpenAI, APIKey: "test-key", BaseURL: url})
	if err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}

	_, err = model.Ask(context.Background(), "", "Format this")

	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("Expected ServiceError, got %v", err)
	}

	if serviceErr.StatusCode != 0 {
		t.Errorf("Expected no status code, got %d", serviceErr.StatusCode)
	}
}

func TestStripMarkdownCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no fence", "[SECTION]Role\nLead\n[/SECTION]", "[SECTION]Role\nLead\n[/SECTION]"},
		{"plain fence", "```\n[SECTION]Role\n[/SECTION]\n```", "[SECTION]Role\n[/SECTION]"},
		{"language fence", "```text\n**Role**\nLead\n```\n", "**Role**\nLead"},
		{"json fence", "```json\n{\"key\": \"value\"}\n```", "{\"key\": \"value\"}"},
		{"unterminated", "```\nName: Jane", "Name: Jane"},
		{"surrounding whitespace", "\n\n  Name: Jane  \n", "Name: Jane"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := stripMarkdownCodeFences(tt.input)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}
