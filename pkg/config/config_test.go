package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nikogura/cv-convert/pkg/sections"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvOpenAIKey, "")
	t.Setenv(EnvAnthropicKey, "")
	t.Setenv(EnvTemplate, "")
}

func TestLoad(t *testing.T) {
	clearEnv(t)

	// Create a temporary config file.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	templatePath := filepath.Join(tmpDir, "template.docx")

	err := os.WriteFile(templatePath, []byte("placeholder"), 0600)
	if err != nil {
		t.Fatalf("Failed to write template: %v", err)
	}

	testConfig := Config{
		Provider:        "anthropic",
		AnthropicAPIKey: "test-key",
		Strategy:        "llm",
		Grammar:         "bold",
		TemplatePath:    templatePath,
		Defaults: DefaultConfig{
			OutputDir: "./test-output",
		},
	}

	data, err := json.MarshalIndent(testConfig, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal test config: %v", err)
	}

	err = os.WriteFile(configPath, data, 0600)
	if err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	// Test loading the config.
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.APIKey() != testConfig.AnthropicAPIKey {
		t.Errorf("Expected API key %s, got %s", testConfig.AnthropicAPIKey, cfg.APIKey())
	}

	if cfg.GrammarValue() != sections.GrammarBold {
		t.Errorf("Expected bold grammar, got %s", cfg.GrammarValue())
	}

	if cfg.TemplatePath != templatePath {
		t.Errorf("Expected template path %s, got %s", templatePath, cfg.TemplatePath)
	}

	if cfg.Server.Listen != defaultListen {
		t.Errorf("Expected default listen address %s, got %s", defaultListen, cfg.Server.Listen)
	}
}

func TestLoadNonexistent(t *testing.T) {
	clearEnv(t)

	_, err := Load("/nonexistent/path/config.json")
	if err == nil {
		t.Error("Expected error loading nonexistent config, got nil")
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvOpenAIKey, "sk-env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}

	if cfg.Provider != "openai" {
		t.Errorf("Expected provider openai, got %s", cfg.Provider)
	}

	if cfg.Strategy != "llm" {
		t.Errorf("Expected strategy llm, got %s", cfg.Strategy)
	}

	if cfg.APIKey() != "sk-env" {
		t.Errorf("Expected API key from environment, got %q", cfg.APIKey())
	}

	if cfg.RequestTimeout() != defaultRequestTimeout*time.Second {
		t.Errorf("Expected default request timeout, got %s", cfg.RequestTimeout())
	}
}

func TestLoadTemplateFromEnv(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	templatePath := filepath.Join(tmpDir, "house.docx")
	err := os.WriteFile(templatePath, []byte("placeholder"), 0600)
	if err != nil {
		t.Fatalf("Failed to write template: %v", err)
	}
	t.Setenv(EnvTemplate, templatePath)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.PipelineOptions().TemplatePath != templatePath {
		t.Errorf("Expected template path %s, got %s", templatePath, cfg.PipelineOptions().TemplatePath)
	}
}

func TestLoadMalformed(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.json")

	err := os.WriteFile(configPath, []byte("{not json"), 0600)
	if err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err = Load(configPath)
	if err == nil {
		t.Error("Expected error loading malformed config, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantError bool
	}{
		{
			name:      "empty config gets defaults",
			config:    Config{},
			wantError: false,
		},
		{
			name:      "claude alias",
			config:    Config{Provider: "Claude"},
			wantError: false,
		},
		{
			name:      "unknown provider",
			config:    Config{Provider: "gemini"},
			wantError: true,
		},
		{
			name:      "unknown strategy",
			config:    Config{Strategy: "spacy"},
			wantError: true,
		},
		{
			name:      "unknown grammar",
			config:    Config{Grammar: "yaml"},
			wantError: true,
		},
		{
			name:      "unknown mode",
			config:    Config{Mode: "overlay"},
			wantError: true,
		},
		{
			name:      "blank heading",
			config:    Config{Headings: []string{"Role", "  "}},
			wantError: true,
		},
		{
			name:      "missing template file",
			config:    Config{TemplatePath: "/nonexistent/template.docx"},
			wantError: true,
		},
		{
			name:      "regex strategy in placeholder mode",
			config:    Config{Strategy: "regex", Mode: "placeholder"},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no validation error, got %v", err)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Config{Provider: "claude"}

	err := cfg.Validate()
	if err != nil {
		t.Fatalf("Failed to validate: %v", err)
	}

	if cfg.Provider != "anthropic" {
		t.Errorf("Expected provider anthropic, got %s", cfg.Provider)
	}

	if cfg.Grammar != "tagged" {
		t.Errorf("Expected grammar tagged, got %s", cfg.Grammar)
	}

	if cfg.Defaults.OutputDir != "." {
		t.Errorf("Expected output dir '.', got %s", cfg.Defaults.OutputDir)
	}

	if cfg.Server.MaxUploadBytes != defaultMaxUploadBytes {
		t.Errorf("Expected max upload %d, got %d", defaultMaxUploadBytes, cfg.Server.MaxUploadBytes)
	}
}

func TestGetExtractionModel(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected string
	}{
		{"openai default", Config{Provider: "openai"}, "gpt-4"},
		{"anthropic default", Config{Provider: "anthropic"}, "claude-sonnet-4-20250514"},
		{"explicit model", Config{Provider: "openai", Models: ModelsConfig{Extraction: "gpt-4o"}}, "gpt-4o"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := tt.config.GetExtractionModel()
			if model != tt.expected {
				t.Errorf("Expected model %s, got %s", tt.expected, model)
			}
		})
	}
}

func TestOverrideProvider(t *testing.T) {
	tests := []struct {
		name             string
		config           Config
		provider         string
		model            string
		expectedProvider string
		expectedModel    string
	}{
		{"switch drops configured model", Config{Models: ModelsConfig{Extraction: "gpt-4o"}}, "anthropic", "", "anthropic", "claude-sonnet-4-20250514"},
		{"switch with model", Config{Models: ModelsConfig{Extraction: "gpt-4o"}}, "anthropic", "claude-test", "anthropic", "claude-test"},
		{"same provider keeps model", Config{Provider: "openai", Models: ModelsConfig{Extraction: "gpt-4o"}}, "OpenAI", "", "openai", "gpt-4o"},
		{"claude alias keeps model", Config{Provider: "anthropic", Models: ModelsConfig{Extraction: "claude-test"}}, "claude", "", "anthropic", "claude-test"},
		{"model only", Config{Provider: "openai"}, "", "gpt-4o-mini", "openai", "gpt-4o-mini"},
		{"nothing", Config{Models: ModelsConfig{Extraction: "gpt-4o"}}, "", "", "openai", "gpt-4o"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config
			cfg.OverrideProvider(tt.provider, tt.model)

			err := cfg.Validate()
			if err != nil {
				t.Fatalf("Failed to validate: %v", err)
			}

			if cfg.Provider != tt.expectedProvider {
				t.Errorf("Expected provider %s, got %s", tt.expectedProvider, cfg.Provider)
			}
			if model := cfg.GetExtractionModel(); model != tt.expectedModel {
				t.Errorf("Expected model %s, got %s", tt.expectedModel, model)
			}
		})
	}
}

func TestPipelineOptions(t *testing.T) {
	cfg := Config{
		Provider:        "anthropic",
		AnthropicAPIKey: "ak",
		OpenAIAPIKey:    "ok",
		Strategy:        "nlp",
		Grammar:         "entities",
		Headings:        []string{"Role"},
		FirstPageOnly:   true,
		FillEmpty:       true,
	}

	err := cfg.Validate()
	if err != nil {
		t.Fatalf("Failed to validate: %v", err)
	}

	opts := cfg.PipelineOptions()

	if opts.APIKey != "ak" {
		t.Errorf("Expected anthropic key, got %s", opts.APIKey)
	}

	if opts.Grammar != sections.GrammarEntities {
		t.Errorf("Expected entities grammar, got %s", opts.Grammar)
	}

	if !opts.FirstPageOnly {
		t.Error("Expected first page only to carry over")
	}

	if opts.FillEmpty != sections.NotProvided {
		t.Errorf("Expected fill text %q, got %q", sections.NotProvided, opts.FillEmpty)
	}
}

func TestInitConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	err := InitConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to init config: %v", err)
	}

	// Verify file was created.
	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	// Verify content is valid JSON.
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read created config: %v", err)
	}

	var cfg Config
	err = json.Unmarshal(data, &cfg)
	if err != nil {
		t.Errorf("Created config is not valid JSON: %v", err)
	}

	if len(cfg.Headings) != len(sections.DefaultHeadings) {
		t.Errorf("Expected %d default headings, got %d", len(sections.DefaultHeadings), len(cfg.Headings))
	}

	// Test that init fails if file exists.
	err = InitConfig(configPath)
	if err == nil {
		t.Error("Expected error when config already exists, got nil")
	}
}
