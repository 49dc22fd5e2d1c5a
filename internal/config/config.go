package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone       = "UTC"
	configPathEnv         = "CONTENT_CURATOR_CONFIG"
	databaseDSNEnv        = "DATABASE_DSN"
	storeDriverEnv        = "STORE_DRIVER"
	redisAddressEnv       = "REDIS_ADDRESS"
	redisPasswordEnv      = "REDIS_PASSWORD"
	geminiAPIKeyEnv       = "GEMINI_API_KEY"
	geminiModelEnv        = "GEMINI_MODEL"
	openAIAPIKeyEnv       = "OPENAI_API_KEY"
	llmProviderEnv        = "LLM_PROVIDER"
	redditClientIDEnv     = "REDDIT_CLIENT_ID"
	redditClientSecretEnv = "REDDIT_CLIENT_SECRET"
	redditUserAgentEnv    = "REDDIT_USER_AGENT"
	telegramTokenEnv      = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv     = "TELEGRAM_CHAT_ID"
	logLevelEnv           = "LOG_LEVEL"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// LLM providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds high-level settings required across the application.
type Config struct {
	Store         StoreConfig        `yaml:"store"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Ingestion     IngestionConfig    `yaml:"ingestion"`
	Sources       []SourceConfig     `yaml:"sources"`
	LLM           LLMConfig          `yaml:"llm"`
	Scoring       ScoringConfig      `yaml:"scoring"`
	Reels         ReelsConfig        `yaml:"reels"`
	Reddit        RedditConfig       `yaml:"reddit"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// StoreConfig selects and configures the document store backend.
type StoreConfig struct {
	Driver string      `yaml:"driver"`
	DSN    string      `yaml:"dsn"`
	Redis  RedisConfig `yaml:"redis"`
}

// RedisConfig is used by the redis driver.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SchedulerConfig defines when cycles run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	RunOnStart     *bool          `yaml:"runOnStart"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// ShouldRunOnStart reports whether a cycle runs before the first tick.
func (s SchedulerConfig) ShouldRunOnStart() bool {
	return s.RunOnStart == nil || *s.RunOnStart
}

// IngestionConfig tunes the per-source fetch loop.
type IngestionConfig struct {
	PerSourceLimit int      `yaml:"perSourceLimit"`
	EnableScoring  *bool    `yaml:"enableScoring"`
	Keywords       []string `yaml:"keywords"`
	MaxTags        int      `yaml:"maxTags"`
}

// ScoringEnabled reports whether new items are scored before storage.
func (i IngestionConfig) ScoringEnabled() bool {
	return i.EnableScoring == nil || *i.EnableScoring
}

// SourceConfig describes a single content source and the adapter that reads it.
type SourceConfig struct {
	Name    string            `yaml:"name"`
	Scanner string            `yaml:"scanner"`
	Target  string            `yaml:"target"`
	Options map[string]string `yaml:"options"`
}

// LLMConfig defines how to contact the generative endpoint.
type LLMConfig struct {
	Provider      string `yaml:"provider"`
	Model         string `yaml:"model"`
	Endpoint      string `yaml:"endpoint"`
	APIKey        string `yaml:"apiKey"`
	Timeout       string `yaml:"timeout"`
	ScoringPrompt string `yaml:"scoringPrompt"`
	ReelPrompt    string `yaml:"reelPrompt"`
}

// RequestTimeout parses Timeout, defaulting to 60s.
func (l LLMConfig) RequestTimeout() time.Duration {
	return parseDuration(l.Timeout, 60*time.Second)
}

// ScoringConfig holds the relevance threshold and retry budget.
type ScoringConfig struct {
	MinScore            int      `yaml:"minScore"`
	MaxContentChars     int      `yaml:"maxContentChars"`
	MaxAttempts         int      `yaml:"maxAttempts"`
	CallSpacing         string   `yaml:"callSpacing"`
	DefaultRetryDelay   string   `yaml:"defaultRetryDelay"`
	SafetyMargin        string   `yaml:"safetyMargin"`
	RateLimitIndicators []string `yaml:"rateLimitIndicators"`
}

// Spacing is the minimum interval between endpoint calls.
func (s ScoringConfig) Spacing() time.Duration {
	return parseDuration(s.CallSpacing, 30*time.Second)
}

// RetryDelay is the backoff used when no delay can be extracted.
func (s ScoringConfig) RetryDelay() time.Duration {
	return parseDuration(s.DefaultRetryDelay, 60*time.Second)
}

// Margin is added to extracted delays.
func (s ScoringConfig) Margin() time.Duration {
	return parseDuration(s.SafetyMargin, 5*time.Second)
}

// ReelsConfig controls the reel derivation stage.
type ReelsConfig struct {
	Enabled    *bool `yaml:"enabled"`
	PerIdea    int   `yaml:"perIdea"`
	BatchLimit int   `yaml:"batchLimit"`
}

// IsEnabled reports whether the reel stage runs after ingestion.
func (r ReelsConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// RedditConfig wires the social listing adapter.
type RedditConfig struct {
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	UserAgent    string `yaml:"userAgent"`
	Listing      string `yaml:"listing"`
	TimeFilter   string `yaml:"timeFilter"`
	BaseURL      string `yaml:"baseUrl"`
	TokenURL     string `yaml:"tokenUrl"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	BaseURL  string `yaml:"baseUrl"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Load reads .env and YAML configuration (if present) and applies environment overrides.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg, err := Parse(raw)
			if err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv(storeDriverEnv); v != "" {
		c.Store.Driver = strings.ToLower(v)
	}
	if v := os.Getenv(redisAddressEnv); v != "" {
		c.Store.Redis.Address = v
	}
	if v := os.Getenv(redisPasswordEnv); v != "" {
		c.Store.Redis.Password = v
	}

	if v := os.Getenv(llmProviderEnv); v != "" {
		c.LLM.Provider = strings.ToLower(v)
	}
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if v := os.Getenv(openAIAPIKeyEnv); v != "" {
			c.LLM.APIKey = v
		}
	default:
		if v := os.Getenv(geminiAPIKeyEnv); v != "" {
			c.LLM.APIKey = v
		}
		if v := os.Getenv(geminiModelEnv); v != "" {
			c.LLM.Model = v
		}
	}

	if v := os.Getenv(redditClientIDEnv); v != "" {
		c.Reddit.ClientID = v
	}
	if v := os.Getenv(redditClientSecretEnv); v != "" {
		c.Reddit.ClientSecret = v
	}
	if v := os.Getenv(redditUserAgentEnv); v != "" {
		c.Reddit.UserAgent = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Store.Driver != "" {
		base.Store.Driver = strings.ToLower(override.Store.Driver)
	}
	if override.Store.DSN != "" {
		base.Store.DSN = override.Store.DSN
	}
	if override.Store.Redis.Address != "" {
		base.Store.Redis = override.Store.Redis
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.RunOnStart != nil {
		base.Scheduler.RunOnStart = override.Scheduler.RunOnStart
	}

	if override.Ingestion.PerSourceLimit > 0 {
		base.Ingestion.PerSourceLimit = override.Ingestion.PerSourceLimit
	}
	if override.Ingestion.EnableScoring != nil {
		base.Ingestion.EnableScoring = override.Ingestion.EnableScoring
	}
	if len(override.Ingestion.Keywords) > 0 {
		base.Ingestion.Keywords = override.Ingestion.Keywords
	}
	if override.Ingestion.MaxTags > 0 {
		base.Ingestion.MaxTags = override.Ingestion.MaxTags
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	if override.LLM.Provider != "" {
		base.LLM.Provider = strings.ToLower(override.LLM.Provider)
		if override.LLM.Model == "" && base.LLM.Provider == ProviderOpenAI {
			base.LLM.Model = defaultOpenAIModel
		}
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.Timeout != "" {
		base.LLM.Timeout = override.LLM.Timeout
	}
	if override.LLM.ScoringPrompt != "" {
		base.LLM.ScoringPrompt = override.LLM.ScoringPrompt
	}
	if override.LLM.ReelPrompt != "" {
		base.LLM.ReelPrompt = override.LLM.ReelPrompt
	}

	if override.Scoring.MinScore > 0 {
		base.Scoring.MinScore = override.Scoring.MinScore
	}
	if override.Scoring.MaxContentChars > 0 {
		base.Scoring.MaxContentChars = override.Scoring.MaxContentChars
	}
	if override.Scoring.MaxAttempts > 0 {
		base.Scoring.MaxAttempts = override.Scoring.MaxAttempts
	}
	if override.Scoring.CallSpacing != "" {
		base.Scoring.CallSpacing = override.Scoring.CallSpacing
	}
	if override.Scoring.DefaultRetryDelay != "" {
		base.Scoring.DefaultRetryDelay = override.Scoring.DefaultRetryDelay
	}
	if override.Scoring.SafetyMargin != "" {
		base.Scoring.SafetyMargin = override.Scoring.SafetyMargin
	}
	if len(override.Scoring.RateLimitIndicators) > 0 {
		base.Scoring.RateLimitIndicators = override.Scoring.RateLimitIndicators
	}

	if override.Reels.Enabled != nil {
		base.Reels.Enabled = override.Reels.Enabled
	}
	if override.Reels.PerIdea > 0 {
		base.Reels.PerIdea = override.Reels.PerIdea
	}
	if override.Reels.BatchLimit > 0 {
		base.Reels.BatchLimit = override.Reels.BatchLimit
	}

	if override.Reddit.ClientID != "" {
		base.Reddit.ClientID = override.Reddit.ClientID
	}
	if override.Reddit.ClientSecret != "" {
		base.Reddit.ClientSecret = override.Reddit.ClientSecret
	}
	if override.Reddit.UserAgent != "" {
		base.Reddit.UserAgent = override.Reddit.UserAgent
	}
	if override.Reddit.Listing != "" {
		base.Reddit.Listing = override.Reddit.Listing
	}
	if override.Reddit.TimeFilter != "" {
		base.Reddit.TimeFilter = override.Reddit.TimeFilter
	}
	if override.Reddit.BaseURL != "" {
		base.Reddit.BaseURL = override.Reddit.BaseURL
	}
	if override.Reddit.TokenURL != "" {
		base.Reddit.TokenURL = override.Reddit.TokenURL
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.BaseURL != "" {
		base.Notifications.Telegram.BaseURL = override.Notifications.Telegram.BaseURL
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}
	if override.Logging.File != "" {
		base.Logging.File = override.Logging.File
	}

	return base
}

const (
	defaultGeminiModel = "gemini-2.0-flash"
	defaultOpenAIModel = "gpt-4o-mini"
)

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Store: StoreConfig{
			Driver: DriverSQLite,
			DSN:    "file:content_curator.db?_pragma=busy_timeout(5000)&_time_format=sqlite",
			Redis:  RedisConfig{Address: "localhost:6379"},
		},
		Scheduler: SchedulerConfig{CronExpression: "@every 1h", Timezone: defaultTimezone, location: tz},
		Ingestion: IngestionConfig{PerSourceLimit: 10, MaxTags: 10},
		LLM: LLMConfig{
			Provider: ProviderGemini,
			Model:    defaultGeminiModel,
			Timeout:  "60s",
		},
		Scoring: ScoringConfig{
			MinScore:          0,
			MaxContentChars:   4000,
			MaxAttempts:       3,
			CallSpacing:       "30s",
			DefaultRetryDelay: "60s",
			SafetyMargin:      "5s",
		},
		Reels:   ReelsConfig{PerIdea: 2, BatchLimit: 50},
		Reddit:  RedditConfig{UserAgent: "ContentCurator/1.0", Listing: "hot", TimeFilter: "day"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Sources: []SourceConfig{
			{Name: "openai-blog", Scanner: "rss", Target: "https://openai.com/blog/rss.xml"},
			{Name: "MachineLearning", Scanner: "reddit", Target: "MachineLearning"},
		},
	}
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("config: invalid duration %q, using %s", raw, fallback)
		return fallback
	}
	return d
}
