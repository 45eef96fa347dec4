package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nikogura/cv-convert/pkg/llm"
	"github.com/nikogura/cv-convert/pkg/pipeline"
	"github.com/nikogura/cv-convert/pkg/sections"
	"github.com/nikogura/cv-convert/pkg/strategy"
	"github.com/pkg/errors"
)

// Environment variables that override the config file.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvTemplate     = "CV_CONVERT_TEMPLATE"
)

const (
	defaultListen         = ":8080"
	defaultMaxUploadBytes = 10 << 20
	defaultRequestTimeout = 300
)

// Config represents the application configuration.
type Config struct {
	Provider        string        `json:"provider"`
	OpenAIAPIKey    string        `json:"openai_api_key,omitempty"`
	AnthropicAPIKey string        `json:"anthropic_api_key,omitempty"`
	Models          ModelsConfig  `json:"models,omitempty"`
	Strategy        string        `json:"strategy"`
	Grammar         string        `json:"grammar"`
	Mode            string        `json:"mode,omitempty"`
	TemplatePath    string        `json:"template_path,omitempty"`
	Headings        []string      `json:"headings,omitempty"`
	FirstPageOnly   bool          `json:"first_page_only"`
	FillEmpty       bool          `json:"fill_empty"`
	Pandoc          PandocConfig  `json:"pandoc"`
	Defaults        DefaultConfig `json:"defaults"`
	Server          ServerConfig  `json:"server"`
}

// ModelsConfig holds model selection for extraction.
type ModelsConfig struct {
	Extraction string `json:"extraction,omitempty"`
}

// PandocConfig holds pandoc-related configuration.
type PandocConfig struct {
	PDFEngine string `json:"pdf_engine,omitempty"`
}

// DefaultConfig holds default values for commands.
type DefaultConfig struct {
	OutputDir string `json:"output_dir"`
}

// ServerConfig holds settings for the HTTP service.
type ServerConfig struct {
	Listen                string `json:"listen"`
	MaxUploadBytes        int    `json:"max_upload_bytes"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

// GetExtractionModel returns the extraction model or the provider default if not specified.
func (c *Config) GetExtractionModel() (model string) {
	if c.Models.Extraction != "" {
		model = c.Models.Extraction
		return model
	}
	if strings.EqualFold(c.Provider, llm.ProviderAnthropic) {
		model = llm.ClaudeModel
		return model
	}
	model = llm.OpenAIModel
	return model
}

// OverrideProvider applies a provider and model chosen for one run. A configured model is
// dropped when the provider changes and no model is given.
func (c *Config) OverrideProvider(provider, model string) {
	if provider != "" {
		if canonicalProvider(provider) != canonicalProvider(c.Provider) {
			c.Models.Extraction = ""
		}
		c.Provider = provider
	}
	if model != "" {
		c.Models.Extraction = model
	}
}

func canonicalProvider(name string) (provider string) {
	provider = strings.ToLower(strings.TrimSpace(name))
	switch provider {
	case "":
		provider = llm.ProviderOpenAI
	case "claude":
		provider = llm.ProviderAnthropic
	}
	return provider
}

// APIKey returns the key of the configured provider.
func (c *Config) APIKey() (key string) {
	if strings.EqualFold(c.Provider, llm.ProviderAnthropic) {
		key = c.AnthropicAPIKey
		return key
	}
	key = c.OpenAIAPIKey
	return key
}

// GrammarValue returns the parsed grammar. Validate has already rejected unknown names.
func (c *Config) GrammarValue() (g sections.Grammar) {
	g, _ = sections.ParseGrammar(c.Grammar)
	return g
}

// RequestTimeout bounds one HTTP conversion.
func (c *Config) RequestTimeout() (timeout time.Duration) {
	timeout = time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
	return timeout
}

// PipelineOptions turns the configuration into per-request pipeline options.
func (c *Config) PipelineOptions() (opts pipeline.Options) {
	opts = pipeline.Options{
		Strategy:      c.Strategy,
		Grammar:       c.GrammarValue(),
		Mode:          c.Mode,
		Provider:      c.Provider,
		Model:         c.GetExtractionModel(),
		APIKey:        c.APIKey(),
		Headings:      c.Headings,
		FirstPageOnly: c.FirstPageOnly,
		TemplatePath:  c.TemplatePath,
	}
	if c.FillEmpty {
		opts.FillEmpty = sections.NotProvided
	}
	return opts
}

// DefaultPath returns ~/.cv-convert/config.json.
func DefaultPath() (path string, err error) {
	var homeDir string
	homeDir, err = os.UserHomeDir()
	if err != nil {
		err = errors.Wrap(err, "failed to get user home directory")
		return path, err
	}
	path = filepath.Join(homeDir, ".cv-convert", "config.json")
	return path, err
}

// Load reads configuration from file with environment variable overrides.
// A missing file at the default location yields the defaults; an explicit path must exist.
func Load(configPath string) (cfg Config, err error) {
	// Pick up a .env file in the working directory, if any
	_ = godotenv.Load()

	// Determine config file location
	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	// Read config file
	var data []byte
	data, err = os.ReadFile(path)
	switch {
	case err == nil:
		// Parse JSON
		err = json.Unmarshal(data, &cfg)
		if err != nil {
			err = errors.Wrapf(err, "failed to parse config file: %s", path)
			return cfg, err
		}
	case os.IsNotExist(err) && configPath == "":
		err = nil
	case os.IsNotExist(err):
		err = errors.Errorf("config file not found: %s (run 'cv-convert init' to create)", path)
		return cfg, err
	default:
		err = errors.Wrapf(err, "failed to read config file: %s", path)
		return cfg, err
	}

	// Override with environment variables if set
	if apiKey := os.Getenv(EnvOpenAIKey); apiKey != "" {
		cfg.OpenAIAPIKey = apiKey
	}
	if apiKey := os.Getenv(EnvAnthropicKey); apiKey != "" {
		cfg.AnthropicAPIKey = apiKey
	}
	if template := os.Getenv(EnvTemplate); template != "" {
		cfg.TemplatePath = template
	}

	// Validate and fill defaults
	err = cfg.Validate()
	if err != nil {
		err = errors.Wrap(err, "config validation failed")
		return cfg, err
	}

	return cfg, err
}

// Validate checks the configuration and fills defaults. API keys are not required here; the
// llm strategy checks for one per request.
func (c *Config) Validate() (err error) {
	c.Provider = canonicalProvider(c.Provider)
	switch c.Provider {
	case llm.ProviderOpenAI, llm.ProviderAnthropic:
	default:
		err = errors.Errorf("provider must be %s or %s, got %q", llm.ProviderOpenAI, llm.ProviderAnthropic, c.Provider)
		return err
	}

	c.Strategy = strings.ToLower(strings.TrimSpace(c.Strategy))
	if c.Strategy == "" {
		c.Strategy = strategy.KindLLM
	}
	known := false
	for _, k := range strategy.Kinds() {
		if c.Strategy == k {
			known = true
		}
	}
	if !known {
		err = errors.Errorf("strategy must be one of %s, got %q", strings.Join(strategy.Kinds(), ", "), c.Strategy)
		return err
	}

	var g sections.Grammar
	g, err = sections.ParseGrammar(c.Grammar)
	if err != nil {
		return err
	}
	c.Grammar = g.String()

	_, err = pipeline.ResolveMode(c.Mode, c.Strategy, g)
	if err != nil {
		return err
	}

	for _, h := range c.Headings {
		if strings.TrimSpace(h) == "" || strings.Contains(h, "\n") {
			err = errors.Errorf("headings must be single non-blank lines, got %q", h)
			return err
		}
	}

	// Check template file exists
	if c.TemplatePath != "" {
		_, err = os.Stat(c.TemplatePath)
		if os.IsNotExist(err) {
			err = errors.Errorf("template file not found: %s", c.TemplatePath)
			return err
		}
		err = nil
	}

	// Set defaults if not specified
	if c.Defaults.OutputDir == "" {
		c.Defaults.OutputDir = "."
	}
	if c.Server.Listen == "" {
		c.Server.Listen = defaultListen
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		c.Server.RequestTimeoutSeconds = defaultRequestTimeout
	}

	return err
}

// InitConfig creates a default configuration file.
func InitConfig(configPath string) (err error) {
	// Determine config file location
	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create config directory: %s", dir)
		return err
	}

	// Check if file already exists
	_, err = os.Stat(path)
	if err == nil {
		err = errors.Errorf("config file already exists: %s", path)
		return err
	}

	// Create default config
	var homeDir string
	homeDir, err = os.UserHomeDir()
	if err != nil {
		err = errors.Wrap(err, "failed to get user home directory")
		return err
	}

	defaultConfig := Config{
		Provider:     llm.ProviderOpenAI,
		OpenAIAPIKey: "sk-...",
		Strategy:     strategy.KindLLM,
		Grammar:      sections.GrammarTagged.String(),
		Headings:     sections.DefaultHeadings,
		FillEmpty:    true,
		Pandoc: PandocConfig{
			PDFEngine: "xelatex",
		},
		Defaults: DefaultConfig{
			OutputDir: filepath.Join(homeDir, "Documents", "CVs"),
		},
		Server: ServerConfig{
			Listen:                defaultListen,
			MaxUploadBytes:        defaultMaxUploadBytes,
			RequestTimeoutSeconds: defaultRequestTimeout,
		},
	}

	// Write to file
	var data []byte
	data, err = json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		err = errors.Wrap(err, "failed to marshal default config")
		return err
	}

	err = os.WriteFile(path, data, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write config file: %s", path)
		return err
	}

	return err
}
