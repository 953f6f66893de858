package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Embedding backends.
const (
	EmbeddingOpenAI = "openai"
	EmbeddingBGE    = "bge"
)

// Vector store backends.
const (
	StoreQdrant = "qdrant"
	StoreChroma = "chroma"
)

// LLM providers. ProviderAuto picks OpenRouter, then OpenAI, then Gemini,
// depending on which key is present.
const (
	ProviderAuto       = "auto"
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	Port string

	LLMProvider       string
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string
	OpenAIAPIKey      string
	OpenAIModel       string
	GeminiAPIKey      string
	GeminiModel       string
	MaxTokens         int
	Temperature       float64

	EmbeddingModel       string
	OpenAIEmbeddingModel string
	BGEModelName         string
	OllamaHost           string

	VectorStore      string
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	ChromaURL        string

	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
	ElevenLabsModel   string
	ElevenLabsBaseURL string

	StaticDir            string
	UploadDir            string
	MaxFileSizeMB        int
	AudioMaxAge          time.Duration
	AudioCleanupInterval time.Duration
	WatchUploads         bool

	UnidocLicenseKey string

	LogLevel string
	LogFile  string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is fine; settings may come from the real environment.
	_ = godotenv.Load()

	cfg := &Config{
		Port: envStr("PORT", "8000"),

		LLMProvider:       strings.ToLower(envStr("LLM_PROVIDER", ProviderAuto)),
		OpenRouterAPIKey:  envStr("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: envStr("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:   envStr("OPENROUTER_MODEL", "openai/gpt-4o"),
		OpenAIAPIKey:      envStr("OPENAI_API_KEY", ""),
		OpenAIModel:       envStr("OPENAI_MODEL", "gpt-4o"),
		GeminiAPIKey:      envStr("GEMINI_API_KEY", ""),
		GeminiModel:       envStr("GEMINI_MODEL", "gemini-2.5-flash"),

		EmbeddingModel:       strings.ToLower(envStr("EMBEDDING_MODEL", EmbeddingOpenAI)),
		OpenAIEmbeddingModel: envStr("OPENAI_EMBEDDING_MODEL", "text-embedding-3-large"),
		BGEModelName:         envStr("BGE_MODEL_NAME", "bge-m3"),
		OllamaHost:           envStr("OLLAMA_HOST", "http://localhost:11434"),

		VectorStore:      strings.ToLower(envStr("VECTOR_STORE", StoreQdrant)),
		QdrantURL:        envStr("QDRANT_URL", "http://localhost:6334"),
		QdrantAPIKey:     envStr("QDRANT_API_KEY", ""),
		QdrantCollection: envStr("QDRANT_COLLECTION_NAME", "simplybot_docs"),
		ChromaURL:        envStr("CHROMA_URL", "http://localhost:8000"),

		ElevenLabsAPIKey:  envStr("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID: envStr("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
		ElevenLabsModel:   envStr("ELEVENLABS_MODEL", "eleven_multilingual_v2"),
		ElevenLabsBaseURL: envStr("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),

		StaticDir: envStr("STATIC_DIR", "static"),
		UploadDir: envStr("UPLOAD_DIR", "uploads"),

		UnidocLicenseKey: envStr("UNIDOC_LICENSE_KEY", ""),

		LogLevel: envStr("LOG_LEVEL", "info"),
		LogFile:  envStr("LOG_FILE", ""),
	}

	var err error
	if cfg.MaxTokens, err = envInt("MAX_TOKENS", 1000); err != nil {
		return nil, err
	}
	if cfg.Temperature, err = envFloat("TEMPERATURE", 0.7); err != nil {
		return nil, err
	}
	if cfg.MaxFileSizeMB, err = envInt("MAX_FILE_SIZE", 10); err != nil {
		return nil, err
	}
	if cfg.AudioMaxAge, err = envDuration("AUDIO_MAX_AGE", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AudioCleanupInterval, err = envDuration("AUDIO_CLEANUP_INTERVAL", 0); err != nil {
		return nil, err
	}
	if cfg.WatchUploads, err = envBool("WATCH_UPLOADS", false); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.ResolvedProvider(); err != nil {
		errs = append(errs, err)
	}

	switch c.EmbeddingModel {
	case EmbeddingOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for openai embeddings"))
		}
	case EmbeddingBGE:
	default:
		errs = append(errs, fmt.Errorf("EMBEDDING_MODEL must be %q or %q, got %q", EmbeddingOpenAI, EmbeddingBGE, c.EmbeddingModel))
	}

	switch c.VectorStore {
	case StoreQdrant, StoreChroma:
	default:
		errs = append(errs, fmt.Errorf("VECTOR_STORE must be %q or %q, got %q", StoreQdrant, StoreChroma, c.VectorStore))
	}

	if c.MaxTokens <= 0 {
		errs = append(errs, errors.New("MAX_TOKENS must be positive"))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, errors.New("TEMPERATURE must be within [0, 2]"))
	}
	if c.MaxFileSizeMB <= 0 {
		errs = append(errs, errors.New("MAX_FILE_SIZE must be positive"))
	}
	return errors.Join(errs...)
}

// ResolvedProvider returns the LLM provider to use. With LLM_PROVIDER=auto the
// first configured key wins: OpenRouter, then OpenAI, then Gemini.
func (c *Config) ResolvedProvider() (string, error) {
	switch c.LLMProvider {
	case ProviderAuto, "":
		switch {
		case c.OpenRouterAPIKey != "":
			return ProviderOpenRouter, nil
		case c.OpenAIAPIKey != "":
			return ProviderOpenAI, nil
		case c.GeminiAPIKey != "":
			return ProviderGemini, nil
		}
		return "", errors.New("no LLM credential: set OPENROUTER_API_KEY, OPENAI_API_KEY or GEMINI_API_KEY")
	case ProviderOpenRouter:
		if c.OpenRouterAPIKey == "" {
			return "", errors.New("OPENROUTER_API_KEY is required when LLM_PROVIDER=openrouter")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return "", errors.New("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return "", errors.New("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	default:
		return "", fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	return c.LLMProvider, nil
}

// MaxFileSizeBytes is the upload ceiling in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

func envStr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := envStr(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := envStr(key, "")
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func envBool(key string, def bool) (bool, error) {
	v := envStr(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := envStr(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
