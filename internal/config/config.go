// Package config handles loading and validating the mistyd configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/llm"
)

// Config is the root configuration for the mistyd daemon.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Transports TransportsConfig `mapstructure:"transports" yaml:"transports"`
	STT        STTConfig        `mapstructure:"stt" yaml:"stt"`
	LLM        LLMConfig        `mapstructure:"llm" yaml:"llm"`
	Speaker    SpeakerConfig    `mapstructure:"speaker" yaml:"speaker"`
	Jobs       JobsConfig       `mapstructure:"jobs" yaml:"jobs"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port" yaml:"health_port"`
}

// TransportsConfig holds the configuration for each API surface.
type TransportsConfig struct {
	HTTP HTTPConfig `mapstructure:"http" yaml:"http"`
	GRPC GRPCConfig `mapstructure:"grpc" yaml:"grpc"`
}

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	Enabled        bool  `mapstructure:"enabled" yaml:"enabled"`
	Port           int   `mapstructure:"port" yaml:"port"`
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
	MCP            bool  `mapstructure:"mcp" yaml:"mcp"` // mount the MCP endpoint at /mcp
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port"`
}

// STTConfig selects and configures the speech-to-text backend.
type STTConfig struct {
	Backend    string           `mapstructure:"backend" yaml:"backend"` // "whisper" or "whispercpp"
	Whisper    WhisperConfig    `mapstructure:"whisper" yaml:"whisper"`
	WhisperCPP WhisperCPPConfig `mapstructure:"whispercpp" yaml:"whispercpp"`
}

// WhisperConfig holds Whisper HTTP service settings.
type WhisperConfig struct {
	Endpoint  string        `mapstructure:"endpoint" yaml:"endpoint"`
	Flavor    string        `mapstructure:"flavor" yaml:"flavor"` // "openai" (default) or "asr" (ahmetoner/whisper-asr-webservice)
	Model     string        `mapstructure:"model" yaml:"model"`
	APIKey    string        `mapstructure:"api_key" yaml:"api_key"`
	Language  string        `mapstructure:"language" yaml:"language"` // ISO-639-1; empty lets the server detect
	VADFilter bool          `mapstructure:"vad_filter" yaml:"vad_filter"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// WhisperCPPConfig holds local whisper.cpp settings.
type WhisperCPPConfig struct {
	Binary    string `mapstructure:"binary" yaml:"binary"`
	FFmpeg    string `mapstructure:"ffmpeg" yaml:"ffmpeg"`
	ModelPath string `mapstructure:"model_path" yaml:"model_path"` // model file, or directory holding .bin/.gguf models
	Language  string `mapstructure:"language" yaml:"language"`
	Threads   int    `mapstructure:"threads" yaml:"threads"`
}

// LLMConfig selects and configures the LLM backend.
type LLMConfig struct {
	Backend string        `mapstructure:"backend" yaml:"backend"` // "ollama", "openai" or "gemini"
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Persona string        `mapstructure:"persona" yaml:"persona"`
	Ollama  OllamaConfig  `mapstructure:"ollama" yaml:"ollama"`
	OpenAI  OpenAIConfig  `mapstructure:"openai" yaml:"openai"`
	Gemini  GeminiConfig  `mapstructure:"gemini" yaml:"gemini"`
}

// OllamaConfig holds Ollama server settings.
type OllamaConfig struct {
	Host  string `mapstructure:"host" yaml:"host"`
	Model string `mapstructure:"model" yaml:"model"`
}

// OpenAIConfig holds settings for any OpenAI-compatible chat completions API.
type OpenAIConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	Model   string `mapstructure:"model" yaml:"model"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	Model  string `mapstructure:"model" yaml:"model"`
}

// SpeakerConfig configures speech output on the Misty robot.
type SpeakerConfig struct {
	Enabled        bool          `mapstructure:"enabled" yaml:"enabled"`
	MistyHost      string        `mapstructure:"misty_host" yaml:"misty_host"`
	SpeakResponses bool          `mapstructure:"speak_responses" yaml:"speak_responses"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// JobsConfig tunes the in-memory job tracking.
type JobsConfig struct {
	EventBuffer int `mapstructure:"event_buffer" yaml:"event_buffer"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // json, text
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8000)
	v.SetDefault("transports.http.max_upload_bytes", 25<<20)
	v.SetDefault("transports.http.mcp", true)
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("stt.backend", "whisper")
	v.SetDefault("stt.whisper.endpoint", "http://localhost:9000/v1/audio/transcriptions")
	v.SetDefault("stt.whisper.flavor", "openai")
	v.SetDefault("stt.whisper.model", "base")
	v.SetDefault("stt.whisper.api_key", "")
	v.SetDefault("stt.whisper.language", "")
	v.SetDefault("stt.whisper.vad_filter", false)
	v.SetDefault("stt.whisper.timeout", "2m")
	v.SetDefault("stt.whispercpp.binary", "whisper-cli")
	v.SetDefault("stt.whispercpp.ffmpeg", "ffmpeg")
	v.SetDefault("stt.whispercpp.model_path", "models")
	v.SetDefault("stt.whispercpp.language", "")
	v.SetDefault("stt.whispercpp.threads", 0)
	v.SetDefault("llm.backend", "ollama")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.persona", llm.DefaultPersona)
	v.SetDefault("llm.ollama.host", "http://localhost:11434")
	v.SetDefault("llm.ollama.model", "llama3")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", "gemini-2.0-flash")
	v.SetDefault("speaker.enabled", false)
	v.SetDefault("speaker.misty_host", "192.168.1.10")
	v.SetDefault("speaker.speak_responses", true)
	v.SetDefault("speaker.timeout", "5s")
	v.SetDefault("jobs.event_buffer", 500)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./mistyd.yaml, ./configs/mistyd.yaml, /etc/mistyd/mistyd.yaml.
func Load(configFile string) (*Config, error) {
	v := newViper(configFile)

	// Read config file (optional, env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return decode(v)
}

func newViper(configFile string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("mistyd")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/mistyd")
	}

	// Environment variables: MISTY_LLM_BACKEND, MISTY_STT_WHISPER_ENDPOINT, etc.
	v.SetEnvPrefix("MISTY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${OPENAI_API_KEY}")
	cfg.STT.Whisper.APIKey = resolveEnvRef(cfg.STT.Whisper.APIKey)
	cfg.LLM.OpenAI.APIKey = resolveEnvRef(cfg.LLM.OpenAI.APIKey)
	cfg.LLM.Gemini.APIKey = resolveEnvRef(cfg.LLM.Gemini.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks backend names and numeric settings.
func (c *Config) Validate() error {
	switch c.STT.Backend {
	case "whisper", "whispercpp":
	default:
		return fmt.Errorf("unknown stt backend %q", c.STT.Backend)
	}
	switch c.LLM.Backend {
	case "ollama", "openai", "gemini":
	default:
		return fmt.Errorf("unknown llm backend %q", c.LLM.Backend)
	}
	if c.STT.Whisper.Flavor != "" && c.STT.Whisper.Flavor != "openai" && c.STT.Whisper.Flavor != "asr" {
		return fmt.Errorf("unknown whisper flavor %q", c.STT.Whisper.Flavor)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive, got %s", c.LLM.Timeout)
	}
	if c.Transports.HTTP.MaxUploadBytes <= 0 {
		return fmt.Errorf("transports.http.max_upload_bytes must be positive")
	}
	if !c.Transports.HTTP.Enabled && !c.Transports.GRPC.Enabled {
		return fmt.Errorf("no transports enabled: enable at least one of transports.http, transports.grpc")
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}
