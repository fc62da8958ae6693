package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"
	"github.com/ollama/ollama/api"

	"github.com/zhouzirui/codegen-chat/backend/internal/llm"
)

// Provider names the backend serving completions.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderArk    Provider = "ark"
	ProviderOpenAI Provider = "openai"
	ProviderEcho   Provider = "echo"

	DefaultModel      = "llama3.2"
	DefaultOllamaHost = "http://localhost:11434"
)

// Config aggregates the service configuration.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Log      LogConfig
	Metrics  MetricsConfig
	Language LanguageConfig
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	metrics, err := loadMetricsConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		AI:      ai,
		Log:     LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "info")},
		Metrics: metrics,
		Language: LanguageConfig{
			Default: strings.TrimSpace(os.Getenv("CODEGEN_DEFAULT_LANGUAGE")),
		},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are accepted verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

func loadMetricsConfig() (MetricsConfig, error) {
	enabled, err := parseBoolEnv("METRICS_ENABLED", true)
	if err != nil {
		return MetricsConfig{}, err
	}
	return MetricsConfig{Enabled: enabled}, nil
}

// LanguageConfig holds the surface policy for an empty language field.
type LanguageConfig struct {
	// Default fills an empty language at the surface; empty keeps it empty.
	Default string
}

// Resolve returns language, or the configured default when language is blank.
func (c LanguageConfig) Resolve(language string) string {
	if strings.TrimSpace(language) == "" && c.Default != "" {
		return c.Default
	}
	return language
}

// AIConfig describes the model backend.
type AIConfig struct {
	Provider    Provider
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature *float64
	TopP        *float64
	MaxTokens   *int

	// Ark credentials.
	APIKey    string
	AccessKey string
	SecretKey string
	Region    string
}

// Enabled reports whether the provider has what it needs to build a model.
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderEcho:
		return true
	case ProviderOllama, ProviderOpenAI:
		return c.Model != ""
	case ProviderArk:
		return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
	default:
		return false
	}
}

// NewChatModel creates the chat model for the configured provider.
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("model configuration incomplete for provider %q", c.Provider)
	}

	switch c.Provider {
	case ProviderOllama:
		return c.newOllamaModel(ctx)
	case ProviderArk:
		return c.newArkModel(ctx)
	case ProviderOpenAI:
		return llm.NewOpenAIChatModel(llm.OpenAIConfig{
			BaseURL:     c.BaseURL,
			APIKey:      c.APIKey,
			Model:       c.Model,
			Temperature: c.temperature32(),
			TopP:        c.topP32(),
			MaxTokens:   c.MaxTokens,
			Timeout:     c.Timeout,
		})
	case ProviderEcho:
		return llm.NewEchoModel(), nil
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", c.Provider)
	}
}

func (c AIConfig) newOllamaModel(ctx context.Context) (model.BaseChatModel, error) {
	cfg := &ollama.ChatModelConfig{
		BaseURL: c.BaseURL,
		Timeout: c.Timeout,
		Model:   c.Model,
	}

	if c.Temperature != nil || c.TopP != nil || c.MaxTokens != nil {
		opts := &api.Options{}
		if t := c.temperature32(); t != nil {
			opts.Temperature = *t
		}
		if p := c.topP32(); p != nil {
			opts.TopP = *p
		}
		if c.MaxTokens != nil {
			opts.NumPredict = *c.MaxTokens
		}
		cfg.Options = opts
	}

	chatModel, err := ollama.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return chatModel, nil
}

func (c AIConfig) newArkModel(ctx context.Context) (model.BaseChatModel, error) {
	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.temperature32(),
		TopP:        c.topP32(),
	}
	if c.Timeout > 0 {
		timeout := c.Timeout
		cfg.Timeout = &timeout
	}

	chatModel, err := ark.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return chatModel, nil
}

func (c AIConfig) temperature32() *float32 {
	if c.Temperature == nil {
		return nil
	}
	val := float32(*c.Temperature)
	return &val
}

func (c AIConfig) topP32() *float32 {
	if c.TopP == nil {
		return nil
	}
	val := float32(*c.TopP)
	return &val
}

func loadAIConfig() (AIConfig, error) {
	return LoadAIConfig(Provider(getEnvOrDefault("AI_PROVIDER", string(ProviderOllama))))
}

// LoadAIConfig reads the model settings for an explicit provider.
func LoadAIConfig(provider Provider) (AIConfig, error) {
	provider = Provider(strings.ToLower(strings.TrimSpace(string(provider))))

	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("AI_TIMEOUT", 0)
	if err != nil {
		return AIConfig{}, err
	}

	cfg := AIConfig{
		Provider:    provider,
		Timeout:     timeout,
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}

	ollamaModel := getEnvOrDefault("OLLAMA_MODEL", DefaultModel)

	switch provider {
	case ProviderOllama:
		cfg.Model = ollamaModel
		cfg.BaseURL = getEnvOrDefault("OLLAMA_HOST", DefaultOllamaHost)
	case ProviderArk:
		cfg.Model = strings.TrimSpace(os.Getenv("ARK_MODEL"))
		cfg.BaseURL = getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
		cfg.Region = getEnvOrDefault("ARK_REGION", "cn-beijing")
		cfg.APIKey = strings.TrimSpace(os.Getenv("ARK_API_KEY"))
		cfg.AccessKey = strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY"))
		cfg.SecretKey = strings.TrimSpace(os.Getenv("ARK_SECRET_KEY"))
	case ProviderOpenAI:
		cfg.Model = getEnvOrDefault("OPENAI_MODEL", ollamaModel)
		cfg.BaseURL = getEnvOrDefault("OPENAI_BASE_URL", DefaultOllamaHost+"/v1")
		cfg.APIKey = getEnvOrDefault("OPENAI_API_KEY", "ollama")
	case ProviderEcho:
		cfg.Model = "echo"
	default:
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
