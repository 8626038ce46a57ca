// Package config provides configuration for the chat server and the terminal client.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	// Server settings
	HTTPPort     int    `mapstructure:"http_port"`
	Version      string `mapstructure:"version"`
	RateLimitRPS int    `mapstructure:"rate_limit_rps"`

	// Completion providers
	Mode               string        `mapstructure:"chat_mode"`
	DefaultProvider    string        `mapstructure:"default_provider"`
	OpenAIAPIKey       string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL      string        `mapstructure:"openai_base_url"`
	OpenAIModel        string        `mapstructure:"openai_model"`
	AnthropicAPIKey    string        `mapstructure:"anthropic_api_key"`
	AnthropicBaseURL   string        `mapstructure:"anthropic_base_url"`
	AnthropicModel     string        `mapstructure:"anthropic_model"`
	GeminiAPIKey       string        `mapstructure:"gemini_api_key"`
	GeminiModel        string        `mapstructure:"gemini_model"`
	LLMTimeout         time.Duration `mapstructure:"llm_timeout"`
	MaxContextMessages int           `mapstructure:"max_context_messages"`

	// Memory service
	Mem0APIKey  string `mapstructure:"mem0_api_key"`
	Mem0BaseURL string `mapstructure:"mem0_base_url"`
	Mem0UserID  string `mapstructure:"mem0_user_id"`

	// Attachments
	CloudinaryCloudName string `mapstructure:"cloudinary_cloud_name"`
	CloudinaryAPIKey    string `mapstructure:"cloudinary_api_key"`
	CloudinaryAPISecret string `mapstructure:"cloudinary_api_secret"`
	UploadFolder        string `mapstructure:"upload_folder"`
	UploadPolicyFile    string `mapstructure:"upload_policy_file"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ClientConfig holds the terminal client configuration.
type ClientConfig struct {
	ServerURL string        `mapstructure:"server_url"`
	Transport string        `mapstructure:"transport"`
	Timeout   time.Duration `mapstructure:"client_timeout"`

	// Persistence
	StoreType      string        `mapstructure:"store_type"`
	StoreDSN       string        `mapstructure:"store_dsn"`
	StoreKey       string        `mapstructure:"store_key"`
	MaxChats       int           `mapstructure:"max_chats"`
	SyncInterval   time.Duration `mapstructure:"sync_interval"`
	StreamThrottle time.Duration `mapstructure:"stream_throttle"`

	// Completion selection forwarded with every request
	Provider string `mapstructure:"chat_provider"`
	Model    string `mapstructure:"chat_model"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Load loads the server configuration from .env files, an optional config
// file named by CONFIG_FILE, and the environment.
func Load() (*Config, error) {
	v, err := newViper(serverDefaults)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// LoadClient loads the terminal client configuration.
func LoadClient() (*ClientConfig, error) {
	v, err := newViper(clientDefaults)
	if err != nil {
		return nil, err
	}
	cfg := &ClientConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Transport = strings.ToLower(cfg.Transport)
	cfg.StoreType = strings.ToLower(cfg.StoreType)
	return cfg, nil
}

var serverDefaults = map[string]any{
	"http_port":             8080,
	"version":               "0.1.0",
	"rate_limit_rps":        10,
	"chat_mode":             "",
	"default_provider":      "openai",
	"openai_api_key":        "",
	"openai_base_url":       "https://api.openai.com",
	"openai_model":          "gpt-4o-mini",
	"anthropic_api_key":     "",
	"anthropic_base_url":    "https://api.anthropic.com",
	"anthropic_model":       "claude-3-5-sonnet-20241022",
	"gemini_api_key":        "",
	"gemini_model":          "gemini-2.0-flash",
	"llm_timeout":           5 * time.Minute,
	"max_context_messages":  50,
	"mem0_api_key":          "",
	"mem0_base_url":         "https://api.mem0.ai",
	"mem0_user_id":          "anonymous",
	"cloudinary_cloud_name": "",
	"cloudinary_api_key":    "",
	"cloudinary_api_secret": "",
	"upload_folder":         "chatgpt-clone",
	"upload_policy_file":    "",
	"log_level":             "info",
	"log_format":            "json",
}

var clientDefaults = map[string]any{
	"server_url":      "http://localhost:8080",
	"transport":       "http",
	"client_timeout":  5 * time.Minute,
	"store_type":      "file",
	"store_dsn":       ".gpt-clone",
	"store_key":       "chatgpt-clone-history",
	"max_chats":       20,
	"sync_interval":   20 * time.Second,
	"stream_throttle": 700 * time.Millisecond,
	"chat_provider":   "",
	"chat_model":      "",
	"log_level":       "warn",
	"log_format":      "console",
}

// newViper layers defaults, an optional config file and the environment.
// Values from .env.local and .env never override the real environment.
func newViper(defaults map[string]any) (*viper.Viper, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return v, nil
}
