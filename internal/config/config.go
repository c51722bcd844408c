package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider identifies an LLM backend integration.
type Provider string

const (
	ProviderLocalHTTP       Provider = "local-http"
	ProviderHostedChat      Provider = "hosted-chat-api"
	ProviderVendorSDK       Provider = "vendor-sdk"
	ProviderAlternateHosted Provider = "alternate-hosted"
	ProviderAnthropic       Provider = "anthropic"
	ProviderVertex          Provider = "vertex"
)

// providerAliases maps the backend names used on the command line to variants.
var providerAliases = map[string]Provider{
	"local-http":       ProviderLocalHTTP,
	"ollama":           ProviderLocalHTTP,
	"hosted-chat-api":  ProviderHostedChat,
	"openrouter":       ProviderHostedChat,
	"groq":             ProviderHostedChat,
	"vendor-sdk":       ProviderVendorSDK,
	"bedrock":          ProviderVendorSDK,
	"alternate-hosted": ProviderAlternateHosted,
	"maia":             ProviderAlternateHosted,
	"anthropic":        ProviderAnthropic,
	"vertex":           ProviderVertex,
}

// Defaults for hosted endpoints.
const (
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultGroqBaseURL       = "https://api.groq.com/openai/v1"
	DefaultMaiaURL           = "https://maia.bib.uni-mannheim.de/api/chat/completions"
)

// Config holds all configuration values.
type Config struct {
	// Provider selection; see providerAliases for accepted names.
	Provider    string  `yaml:"provider"`
	Temperature float64 `yaml:"temperature"`
	PromptFile  string  `yaml:"prompt_file"`

	// local-http
	OllamaHost  string `yaml:"ollama_host"`
	OllamaModel string `yaml:"ollama_model"`

	// hosted-chat-api (OpenRouter, or Groq when Provider is "groq")
	OpenRouterBaseURL string `yaml:"openrouter_base_url"`
	OpenRouterAPIKey  string `yaml:"openrouter_api_key"`
	OpenRouterModel   string `yaml:"openrouter_model"`
	GroqBaseURL       string `yaml:"groq_base_url"`
	GroqAPIKey        string `yaml:"groq_api_key"`
	GroqModel         string `yaml:"groq_model"`

	// vendor-sdk
	BedrockRegion string `yaml:"bedrock_region"`
	BedrockModel  string `yaml:"bedrock_model"`

	// alternate-hosted
	MaiaURL    string `yaml:"maia_url"`
	MaiaAPIKey string `yaml:"maia_api_key"`
	MaiaModel  string `yaml:"maia_model"`

	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`

	VertexProject     string `yaml:"vertex_project"`
	VertexRegion      string `yaml:"vertex_region"`
	VertexModel       string `yaml:"vertex_model"`
	VertexCredentials string `yaml:"vertex_credentials"`

	// Chunking and scheduling
	MaxWords       int           `yaml:"max_words"`
	Overlap        int           `yaml:"overlap"`
	Mode           string        `yaml:"mode"`
	MaxConcurrent  int           `yaml:"max_concurrent"`
	MaxRetries     int           `yaml:"max_retries"`
	Backoff        time.Duration `yaml:"backoff"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ChunkDelay     time.Duration `yaml:"chunk_delay"`
	FileDelay      time.Duration `yaml:"delay_between_files"`
	RateLimit      float64       `yaml:"rate_limit"` // provider requests per second, 0 disables
	Strict         bool          `yaml:"strict"`

	SummaryDir string `yaml:"summary_dir"`

	// Logging
	LogFile      string     `yaml:"log_file"`
	LogLevelName string     `yaml:"log_level"`
	LogLevel     slog.Level `yaml:"-"`

	// SurrealDB run store
	StoreRuns          bool   `yaml:"store_runs"`
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`
}

// ConfigurationError reports an unusable configuration value.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider:    string(ProviderLocalHTTP),
		Temperature: 0.2,

		OllamaHost:  "http://localhost:11434",
		OllamaModel: "gemma3:12b",

		OpenRouterBaseURL: DefaultOpenRouterBaseURL,
		OpenRouterModel:   "tencent/hunyuan-a13b-instruct:free",
		GroqBaseURL:       DefaultGroqBaseURL,
		GroqModel:         "compound-beta",

		BedrockRegion: "eu-central-1",
		BedrockModel:  "anthropic.claude-3-haiku-20240307-v1:0",

		MaiaURL:   DefaultMaiaURL,
		MaiaModel: "mistral-small3.1:latest",

		AnthropicModel: "claude-3-5-haiku-latest",

		VertexRegion: "europe-west4",
		VertexModel:  "gemini-1.5-flash",

		MaxWords:       500,
		Overlap:        50,
		Mode:           "parallel",
		MaxConcurrent:  5,
		MaxRetries:     3,
		Backoff:        1500 * time.Millisecond,
		RequestTimeout: 180 * time.Second,
		ChunkDelay:     time.Second,
		FileDelay:      2 * time.Second,

		SummaryDir: "./logs/",

		LogFile:      "/tmp/regextract.log",
		LogLevelName: "INFO",
		LogLevel:     slog.LevelInfo,

		SurrealDBURL:       "ws://localhost:8000/rpc",
		SurrealDBNamespace: "regextract",
		SurrealDBDatabase:  "registers",
		SurrealDBUser:      "root",
		SurrealDBPass:      "root",
		SurrealDBAuthLevel: "root",
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error

	c.Provider = getEnv("REGEXTRACT_PROVIDER", c.Provider)
	c.Temperature = getEnvFloat("REGEXTRACT_TEMPERATURE", c.Temperature, &errs)
	c.PromptFile = getEnv("REGEXTRACT_PROMPT_FILE", c.PromptFile)

	c.OllamaHost = getEnv("OLLAMA_HOST", c.OllamaHost)
	c.OllamaModel = getEnv("OLLAMA_MODEL", c.OllamaModel)

	c.OpenRouterBaseURL = getEnv("OPENROUTER_BASE_URL", c.OpenRouterBaseURL)
	c.OpenRouterAPIKey = getEnv("OPENROUTER_API_KEY", c.OpenRouterAPIKey)
	c.OpenRouterModel = getEnv("OPENROUTER_MODEL", c.OpenRouterModel)
	c.GroqBaseURL = getEnv("GROQ_BASE_URL", c.GroqBaseURL)
	c.GroqAPIKey = getEnv("GROQ_API_KEY", c.GroqAPIKey)
	c.GroqModel = getEnv("GROQ_MODEL", c.GroqModel)

	c.BedrockRegion = getEnv("BEDROCK_REGION", c.BedrockRegion)
	c.BedrockModel = getEnv("BEDROCK_MODEL", c.BedrockModel)

	c.MaiaURL = getEnv("MAIA_URL", c.MaiaURL)
	c.MaiaAPIKey = getEnv("MAIA_API_KEY", c.MaiaAPIKey)
	c.MaiaModel = getEnv("MAIA_MODEL", c.MaiaModel)

	c.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	c.AnthropicModel = getEnv("ANTHROPIC_MODEL", c.AnthropicModel)

	c.VertexProject = getEnv("VERTEX_PROJECT", c.VertexProject)
	c.VertexRegion = getEnv("VERTEX_REGION", c.VertexRegion)
	c.VertexModel = getEnv("VERTEX_MODEL", c.VertexModel)
	c.VertexCredentials = getEnv("GOOGLE_APPLICATION_CREDENTIALS", c.VertexCredentials)

	c.MaxWords = getEnvInt("REGEXTRACT_MAX_WORDS", c.MaxWords, &errs)
	c.Overlap = getEnvInt("REGEXTRACT_OVERLAP", c.Overlap, &errs)
	c.Mode = getEnv("REGEXTRACT_MODE", c.Mode)
	c.MaxConcurrent = getEnvInt("REGEXTRACT_MAX_CONCURRENT", c.MaxConcurrent, &errs)
	c.MaxRetries = getEnvInt("REGEXTRACT_MAX_RETRIES", c.MaxRetries, &errs)
	c.Backoff = getEnvDuration("REGEXTRACT_BACKOFF", c.Backoff, &errs)
	c.RequestTimeout = getEnvDuration("REGEXTRACT_REQUEST_TIMEOUT", c.RequestTimeout, &errs)
	c.ChunkDelay = getEnvDuration("REGEXTRACT_CHUNK_DELAY", c.ChunkDelay, &errs)
	c.FileDelay = getEnvDuration("REGEXTRACT_FILE_DELAY", c.FileDelay, &errs)
	c.RateLimit = getEnvFloat("REGEXTRACT_RATE_LIMIT", c.RateLimit, &errs)
	c.Strict = getEnvBool("REGEXTRACT_STRICT", c.Strict, &errs)

	c.SummaryDir = getEnv("REGEXTRACT_SUMMARY_DIR", c.SummaryDir)

	c.LogFile = getEnv("REGEXTRACT_LOG_FILE", c.LogFile)
	c.LogLevelName = getEnv("REGEXTRACT_LOG_LEVEL", c.LogLevelName)
	c.LogLevel = parseLogLevel(c.LogLevelName)

	c.StoreRuns = getEnvBool("REGEXTRACT_STORE_RUNS", c.StoreRuns, &errs)
	c.SurrealDBURL = getEnv("SURREALDB_URL", c.SurrealDBURL)
	c.SurrealDBNamespace = getEnv("SURREALDB_NAMESPACE", c.SurrealDBNamespace)
	c.SurrealDBDatabase = getEnv("SURREALDB_DATABASE", c.SurrealDBDatabase)
	c.SurrealDBUser = getEnv("SURREALDB_USER", c.SurrealDBUser)
	c.SurrealDBPass = getEnv("SURREALDB_PASS", c.SurrealDBPass)
	c.SurrealDBAuthLevel = getEnv("SURREALDB_AUTH_LEVEL", c.SurrealDBAuthLevel)

	return errors.Join(errs...)
}

// ProviderKind resolves the configured provider name to its variant.
func (c Config) ProviderKind() (Provider, error) {
	p, ok := providerAliases[strings.ToLower(strings.TrimSpace(c.Provider))]
	if !ok {
		return "", invalid("provider", "unknown provider %q", c.Provider)
	}
	return p, nil
}

// Validate checks that the configuration can drive a run. All problems are
// reported; each one is a *ConfigurationError.
func (c Config) Validate() error {
	var errs []error

	kind, err := c.ProviderKind()
	if err != nil {
		errs = append(errs, err)
	}

	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, invalid(field, "required for provider %q", c.Provider))
		}
	}

	switch kind {
	case ProviderLocalHTTP:
		require("ollama_host", c.OllamaHost)
		require("ollama_model", c.OllamaModel)
	case ProviderHostedChat:
		if strings.EqualFold(c.Provider, "groq") {
			require("groq_base_url", c.GroqBaseURL)
			require("groq_api_key", c.GroqAPIKey)
			require("groq_model", c.GroqModel)
		} else {
			require("openrouter_base_url", c.OpenRouterBaseURL)
			require("openrouter_api_key", c.OpenRouterAPIKey)
			require("openrouter_model", c.OpenRouterModel)
		}
	case ProviderVendorSDK:
		require("bedrock_region", c.BedrockRegion)
		require("bedrock_model", c.BedrockModel)
	case ProviderAlternateHosted:
		require("maia_url", c.MaiaURL)
		require("maia_api_key", c.MaiaAPIKey)
		require("maia_model", c.MaiaModel)
	case ProviderAnthropic:
		require("anthropic_api_key", c.AnthropicAPIKey)
		require("anthropic_model", c.AnthropicModel)
	case ProviderVertex:
		require("vertex_project", c.VertexProject)
		require("vertex_region", c.VertexRegion)
		require("vertex_model", c.VertexModel)
	}

	if c.Temperature < 0 || c.Temperature > 1 {
		errs = append(errs, invalid("temperature", "must be between 0 and 1, got %g", c.Temperature))
	}
	if c.MaxWords < 1 {
		errs = append(errs, invalid("max_words", "must be at least 1, got %d", c.MaxWords))
	}
	if c.Overlap < 0 || c.Overlap >= c.MaxWords {
		errs = append(errs, invalid("overlap", "must satisfy 0 <= overlap < max_words (%d), got %d", c.MaxWords, c.Overlap))
	}
	switch strings.ToLower(c.Mode) {
	case "parallel", "sequential":
	default:
		errs = append(errs, invalid("mode", "must be parallel or sequential, got %q", c.Mode))
	}
	if c.MaxConcurrent < 1 {
		errs = append(errs, invalid("max_concurrent", "must be at least 1, got %d", c.MaxConcurrent))
	}
	if c.MaxRetries < 1 {
		errs = append(errs, invalid("max_retries", "must be at least 1, got %d", c.MaxRetries))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, invalid("request_timeout", "must be positive, got %s", c.RequestTimeout))
	}
	if c.Backoff < 0 || c.ChunkDelay < 0 || c.FileDelay < 0 {
		errs = append(errs, invalid("delay", "backoff and delays must not be negative"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, invalid("rate_limit", "must not be negative, got %g", c.RateLimit))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int, errs *[]error) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		*errs = append(*errs, invalid(key, "not an integer: %q", val))
		return defaultVal
	}
	return n
}

func getEnvFloat(key string, defaultVal float64, errs *[]error) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		*errs = append(*errs, invalid(key, "not a number: %q", val))
		return defaultVal
	}
	return f
}

func getEnvBool(key string, defaultVal bool, errs *[]error) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		*errs = append(*errs, invalid(key, "not a boolean: %q", val))
		return defaultVal
	}
	return b
}

// getEnvDuration accepts Go durations ("1.5s") and bare seconds ("2").
func getEnvDuration(key string, defaultVal time.Duration, errs *[]error) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	if secs, err := strconv.ParseFloat(val, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		*errs = append(*errs, invalid(key, "not a duration: %q", val))
		return defaultVal
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
