package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/noah-isme/seoblog-api/internal/seo"
)

// AI providers selectable through ai.provider.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	ProgressChannel        string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	AIProvider      string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	GeminiAPIKey    string
	AIModel         string
	AIImageModel    string
	AIImageSize     string
	AIMaxTokens     int
	AICallTimeout   time.Duration
	AIRatePerSecond float64
	AIBurst         int

	TitleBatchSize         int
	TitleTopK              int
	TitleEvalConcurrency   int
	EvaluationContentChars int
	GenerationContentChars int

	SEOMaxAttempts int
	SEOTargets     seo.Targets

	KeywordCacheTTL  time.Duration
	PipelineTimeout  time.Duration
	TitleTimeout     time.Duration
	SSEKeepAlive     time.Duration
	MobileWidth      int
	GenerationLimit  int
	GenerationWindow time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// ImagesConfigured reports whether generated images can be stored.
func (c Config) ImagesConfigured() bool {
	return c.OpenAIAPIKey != "" && c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SEOBLOG")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return load(v)
}

func load(v *viper.Viper) (Config, error) {
	targets := seo.DefaultTargets()

	v.SetDefault("app.name", "SEO Blog API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("progress.channel", "seoblog")
	v.SetDefault("cloudinary.folder", "seoblog/images")
	v.SetDefault("ai.provider", ProviderOpenAI)
	v.SetDefault("ai.image_size", "1024x1024")
	v.SetDefault("ai.max_tokens", 4000)
	v.SetDefault("ai.call_timeout", "45s")
	v.SetDefault("ai.rate_per_second", 2.0)
	v.SetDefault("ai.burst", 5)
	v.SetDefault("titles.batch_size", 25)
	v.SetDefault("titles.top_k", 5)
	v.SetDefault("titles.eval_concurrency", 1)
	v.SetDefault("titles.timeout", "3m")
	v.SetDefault("prompt.eval_content_chars", 500)
	v.SetDefault("prompt.gen_content_chars", 1500)
	v.SetDefault("seo.max_attempts", 3)
	v.SetDefault("seo.min_chars", targets.MinChars)
	v.SetDefault("seo.max_chars", targets.MaxChars)
	v.SetDefault("seo.keyword_min", targets.KeywordMin)
	v.SetDefault("seo.keyword_max", targets.KeywordMax)
	v.SetDefault("seo.component_min", targets.ComponentMin)
	v.SetDefault("seo.component_max", targets.ComponentMax)
	v.SetDefault("seo.intro_min_ratio", targets.IntroMinRatio)
	v.SetDefault("seo.intro_max_ratio", targets.IntroMaxRatio)
	v.SetDefault("keyword.cache_ttl", "24h")
	v.SetDefault("pipeline.timeout", "5m")
	v.SetDefault("sse.keep_alive", "30s")
	v.SetDefault("mobile.width", seo.DefaultMobileWidth)
	v.SetDefault("ratelimit.generation_max", 10)
	v.SetDefault("ratelimit.generation_window", "1m")

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"ai.call_timeout",
		"titles.timeout",
		"keyword.cache_ttl",
		"pipeline.timeout",
		"sse.keep_alive",
		"ratelimit.generation_window",
	} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("%s must be positive", key)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		ProgressChannel:        v.GetString("progress.channel"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),

		AIProvider:      strings.ToLower(strings.TrimSpace(v.GetString("ai.provider"))),
		OpenAIAPIKey:    v.GetString("openai_api_key"),
		OpenAIBaseURL:   v.GetString("openai_base_url"),
		GeminiAPIKey:    v.GetString("gemini_api_key"),
		AIModel:         v.GetString("ai.model"),
		AIImageModel:    v.GetString("ai.image_model"),
		AIImageSize:     v.GetString("ai.image_size"),
		AIMaxTokens:     v.GetInt("ai.max_tokens"),
		AICallTimeout:   durations["ai.call_timeout"],
		AIRatePerSecond: v.GetFloat64("ai.rate_per_second"),
		AIBurst:         v.GetInt("ai.burst"),

		TitleBatchSize:         v.GetInt("titles.batch_size"),
		TitleTopK:              v.GetInt("titles.top_k"),
		TitleEvalConcurrency:   v.GetInt("titles.eval_concurrency"),
		EvaluationContentChars: v.GetInt("prompt.eval_content_chars"),
		GenerationContentChars: v.GetInt("prompt.gen_content_chars"),

		SEOMaxAttempts: v.GetInt("seo.max_attempts"),
		SEOTargets: seo.Targets{
			MinChars:      v.GetInt("seo.min_chars"),
			MaxChars:      v.GetInt("seo.max_chars"),
			KeywordMin:    v.GetInt("seo.keyword_min"),
			KeywordMax:    v.GetInt("seo.keyword_max"),
			ComponentMin:  v.GetInt("seo.component_min"),
			ComponentMax:  v.GetInt("seo.component_max"),
			IntroMinRatio: v.GetFloat64("seo.intro_min_ratio"),
			IntroMaxRatio: v.GetFloat64("seo.intro_max_ratio"),
		},

		KeywordCacheTTL:  durations["keyword.cache_ttl"],
		PipelineTimeout:  durations["pipeline.timeout"],
		TitleTimeout:     durations["titles.timeout"],
		SSEKeepAlive:     durations["sse.keep_alive"],
		MobileWidth:      v.GetInt("mobile.width"),
		GenerationLimit:  v.GetInt("ratelimit.generation_max"),
		GenerationWindow: durations["ratelimit.generation_window"],
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.AIProvider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return Config{}, fmt.Errorf("openai api key must be provided for provider %q", cfg.AIProvider)
		}
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return Config{}, fmt.Errorf("gemini api key must be provided for provider %q", cfg.AIProvider)
		}
	default:
		return Config{}, fmt.Errorf("unsupported ai provider %q", cfg.AIProvider)
	}

	if cfg.TitleBatchSize <= 0 || cfg.TitleTopK <= 0 {
		return Config{}, fmt.Errorf("title batch size and top k must be positive")
	}
	if cfg.TitleTopK > cfg.TitleBatchSize {
		return Config{}, fmt.Errorf("title top k %d exceeds batch size %d", cfg.TitleTopK, cfg.TitleBatchSize)
	}
	if cfg.TitleEvalConcurrency <= 0 {
		cfg.TitleEvalConcurrency = 1
	}
	if cfg.SEOMaxAttempts <= 0 {
		return Config{}, fmt.Errorf("seo max attempts must be positive")
	}
	if cfg.SEOTargets.MinChars > cfg.SEOTargets.MaxChars {
		return Config{}, fmt.Errorf("seo min chars %d exceeds max chars %d", cfg.SEOTargets.MinChars, cfg.SEOTargets.MaxChars)
	}

	return cfg, nil
}
