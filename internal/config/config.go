package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable that overrides the config path.
const EnvConfigPath = "TALENTMESH_CONFIG"

// DefaultPath is used when neither a flag nor EnvConfigPath is set.
const DefaultPath = "config.yaml"

// Config is the root configuration for TalentMesh.
type Config struct {
	Database     DatabaseConfig
	AI           AIConfig
	Retry        RetryConfig
	RateLimit    RateLimitConfig
	Scoring      ScoringConfig
	Search       SearchConfig
	Cache        CacheConfig
	Reindex      ReindexConfig
	Queue        QueueConfig
	Storage      StorageConfig
	Import       ImportConfig
	Notification NotificationConfig
	Server       ServerConfig
	Log          LogConfig
}

// DatabaseConfig selects the SQL backend.
type DatabaseConfig struct {
	Driver          string // sqlite, mysql or postgres
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// AIConfig controls the keyword extraction provider.
type AIConfig struct {
	Provider    string // openai, gemini or none
	BaseURL     string // openai-compatible endpoint
	Model       string
	APIKey      string // expanded from env var by Load
	Timeout     time.Duration
	MaxKeywords int
}

// RetryConfig is the retry policy around provider calls.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     float64
}

// RateLimitConfig spaces calls to the same provider.
type RateLimitConfig struct {
	MinDelay          time.Duration
	ProviderOverrides map[string]time.Duration
}

// MinDelayFor returns the configured delay for the given provider, falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(provider string) time.Duration {
	if d, ok := r.ProviderOverrides[provider]; ok {
		return d
	}
	return r.MinDelay
}

// ScoringConfig holds the point budgets of the compatibility score.
type ScoringConfig struct {
	Overlap      float64
	Diversity    float64
	Completeness float64
	Location     float64
	Premium      float64
}

// SearchConfig tunes org search, peer matching and history retention.
type SearchConfig struct {
	DefaultLimit         int
	PeerLimit            int
	MinDescriptionLength int
	PersistTimeout       time.Duration
	HistoryRetention     time.Duration
}

// CacheConfig configures the profile cache. RedisURL enables the shared tier.
type CacheConfig struct {
	Disabled   bool
	TTL        time.Duration
	MaxEntries int
	RedisURL   string
}

// ReindexConfig controls background profile refresh.
type ReindexConfig struct {
	Interval      time.Duration // zero disables the stale refresher
	PruneInterval time.Duration // zero disables history pruning
	Concurrency   int
	StaleBatch    int
}

// QueueConfig configures the RabbitMQ reindex worker. An empty URL disables it.
type QueueConfig struct {
	URL      string
	Queue    string
	Exchange string
	Workers  int
	Timeout  time.Duration
}

// StorageConfig configures S3-compatible object storage for uploaded files.
// An empty Bucket disables it.
type StorageConfig struct {
	Bucket    string
	AccountID string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	MaxBytes  int64
}

// BoardConfig is one public job board imported as job profiles.
type BoardConfig struct {
	Name             string   `yaml:"name"`
	ATS              string   `yaml:"ats"` // greenhouse, lever or ashby
	BoardToken       string   `yaml:"board_token"`
	OrgID            string   `yaml:"org_id"`
	Locations        []string `yaml:"locations"`
	ExcludeLocations []string `yaml:"exclude_locations"`
}

// ImportConfig controls the job board importer. A zero Interval disables the
// background import; `talentmesh import` still runs it on demand.
type ImportConfig struct {
	Interval   time.Duration
	Notify     bool // search the org pool for each new posting and notify
	MatchLimit int
	Boards     []BoardConfig
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
	TopN       int    `yaml:"top_n"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Database struct {
		Driver          string `yaml:"driver"`
		DSN             string `yaml:"dsn"`
		MaxOpenConns    int    `yaml:"max_open_conns"`
		MaxIdleConns    int    `yaml:"max_idle_conns"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime"`
	} `yaml:"database"`
	AI struct {
		Provider    string `yaml:"provider"`
		BaseURL     string `yaml:"base_url"`
		Model       string `yaml:"model"`
		APIKey      string `yaml:"api_key"`
		Timeout     string `yaml:"timeout"`
		MaxKeywords int    `yaml:"max_keywords"`
	} `yaml:"ai"`
	Retry struct {
		MaxRetries *int     `yaml:"max_retries"`
		BaseDelay  string   `yaml:"base_delay"`
		MaxDelay   string   `yaml:"max_delay"`
		Jitter     *float64 `yaml:"jitter"`
	} `yaml:"retry"`
	RateLimit struct {
		MinDelay          string            `yaml:"min_delay"`
		ProviderOverrides map[string]string `yaml:"provider_overrides"`
	} `yaml:"rate_limit"`
	Scoring *struct {
		Overlap      float64 `yaml:"overlap"`
		Diversity    float64 `yaml:"diversity"`
		Completeness float64 `yaml:"completeness"`
		Location     float64 `yaml:"location"`
		Premium      float64 `yaml:"premium"`
	} `yaml:"scoring"`
	Search struct {
		DefaultLimit         int    `yaml:"default_limit"`
		PeerLimit            int    `yaml:"peer_limit"`
		MinDescriptionLength int    `yaml:"min_description_length"`
		PersistTimeout       string `yaml:"persist_timeout"`
		HistoryRetention     string `yaml:"history_retention"`
	} `yaml:"search"`
	Cache struct {
		Disabled   bool   `yaml:"disabled"`
		TTL        string `yaml:"ttl"`
		MaxEntries int    `yaml:"max_entries"`
		RedisURL   string `yaml:"redis_url"`
	} `yaml:"cache"`
	Reindex struct {
		Interval      string `yaml:"interval"`
		PruneInterval string `yaml:"prune_interval"`
		Concurrency   int    `yaml:"concurrency"`
		StaleBatch    int    `yaml:"stale_batch"`
	} `yaml:"reindex"`
	Queue struct {
		URL      string `yaml:"url"`
		Queue    string `yaml:"queue"`
		Exchange string `yaml:"exchange"`
		Workers  int    `yaml:"workers"`
		Timeout  string `yaml:"timeout"`
	} `yaml:"queue"`
	Storage struct {
		Bucket    string `yaml:"bucket"`
		AccountID string `yaml:"account_id"`
		Endpoint  string `yaml:"endpoint"`
		Region    string `yaml:"region"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		MaxBytes  int64  `yaml:"max_bytes"`
	} `yaml:"storage"`
	Import struct {
		Interval   string        `yaml:"interval"`
		Notify     bool          `yaml:"notify"`
		MatchLimit int           `yaml:"match_limit"`
		Boards     []BoardConfig `yaml:"boards"`
	} `yaml:"import"`
	Notification NotificationConfig `yaml:"notification"`
	Server       struct {
		Addr            string `yaml:"addr"`
		RequestTimeout  string `yaml:"request_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log LogConfig `yaml:"log"`
}

// ResolvePath picks the config file: the flag value, then EnvConfigPath,
// then DefaultPath. explicit reports whether the caller asked for the path.
func ResolvePath(flagValue string) (path string, explicit bool) {
	if flagValue != "" {
		return flagValue, true
	}
	if v := os.Getenv(EnvConfigPath); v != "" {
		return v, true
	}
	return DefaultPath, false
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env")
// into the environment without overriding variables that are already set.
// Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return build(raw)
}

// Default returns the configuration used when no config file exists: a local
// SQLite database and no AI provider.
func Default() *Config {
	cfg, err := build(rawConfig{})
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return cfg
}

// durations parses duration strings, falling back to defaults for empty
// values and keeping the first parse error.
type durations struct {
	err error
}

func (d *durations) parse(field, value string, def time.Duration) time.Duration {
	if value == "" || d.err != nil {
		return def
	}
	v, err := time.ParseDuration(value)
	if err != nil {
		d.err = fmt.Errorf("parse %s %q: %w", field, value, err)
		return def
	}
	return v
}

func build(raw rawConfig) (*Config, error) {
	var d durations

	cfg := &Config{
		Database: DatabaseConfig{
			Driver:          orDefault(strings.ToLower(raw.Database.Driver), "sqlite"),
			DSN:             raw.Database.DSN,
			MaxOpenConns:    raw.Database.MaxOpenConns,
			MaxIdleConns:    raw.Database.MaxIdleConns,
			ConnMaxLifetime: d.parse("database.conn_max_lifetime", raw.Database.ConnMaxLifetime, time.Hour),
		},
		AI: AIConfig{
			Provider:    orDefault(strings.ToLower(raw.AI.Provider), "none"),
			BaseURL:     raw.AI.BaseURL,
			Model:       raw.AI.Model,
			APIKey:      raw.AI.APIKey,
			Timeout:     d.parse("ai.timeout", raw.AI.Timeout, 30*time.Second),
			MaxKeywords: orDefaultInt(raw.AI.MaxKeywords, 40),
		},
		Retry: RetryConfig{
			MaxRetries: 2,
			BaseDelay:  d.parse("retry.base_delay", raw.Retry.BaseDelay, 2*time.Second),
			MaxDelay:   d.parse("retry.max_delay", raw.Retry.MaxDelay, 30*time.Second),
			Jitter:     0.3,
		},
		RateLimit: RateLimitConfig{
			MinDelay:          d.parse("rate_limit.min_delay", raw.RateLimit.MinDelay, 500*time.Millisecond),
			ProviderOverrides: make(map[string]time.Duration),
		},
		Scoring: ScoringConfig{Overlap: 55, Diversity: 15, Completeness: 10, Location: 10, Premium: 5},
		Search: SearchConfig{
			DefaultLimit:         orDefaultInt(raw.Search.DefaultLimit, 50),
			PeerLimit:            orDefaultInt(raw.Search.PeerLimit, 20),
			MinDescriptionLength: orDefaultInt(raw.Search.MinDescriptionLength, 50),
			PersistTimeout:       d.parse("search.persist_timeout", raw.Search.PersistTimeout, 5*time.Second),
			HistoryRetention:     d.parse("search.history_retention", raw.Search.HistoryRetention, 90*24*time.Hour),
		},
		Cache: CacheConfig{
			Disabled:   raw.Cache.Disabled,
			TTL:        d.parse("cache.ttl", raw.Cache.TTL, 15*time.Minute),
			MaxEntries: orDefaultInt(raw.Cache.MaxEntries, 10000),
			RedisURL:   raw.Cache.RedisURL,
		},
		Reindex: ReindexConfig{
			Interval:      d.parse("reindex.interval", raw.Reindex.Interval, 0),
			PruneInterval: d.parse("reindex.prune_interval", raw.Reindex.PruneInterval, 0),
			Concurrency:   orDefaultInt(raw.Reindex.Concurrency, 4),
			StaleBatch:    orDefaultInt(raw.Reindex.StaleBatch, 100),
		},
		Queue: QueueConfig{
			URL:      raw.Queue.URL,
			Queue:    orDefault(raw.Queue.Queue, "profile.reindex"),
			Exchange: orDefault(raw.Queue.Exchange, "profile_updates"),
			Workers:  orDefaultInt(raw.Queue.Workers, 2),
			Timeout:  d.parse("queue.timeout", raw.Queue.Timeout, 2*time.Minute),
		},
		Storage: StorageConfig{
			Bucket:    raw.Storage.Bucket,
			AccountID: raw.Storage.AccountID,
			Endpoint:  raw.Storage.Endpoint,
			Region:    orDefault(raw.Storage.Region, "auto"),
			AccessKey: raw.Storage.AccessKey,
			SecretKey: raw.Storage.SecretKey,
			MaxBytes:  raw.Storage.MaxBytes,
		},
		Import: ImportConfig{
			Interval:   d.parse("import.interval", raw.Import.Interval, 0),
			Notify:     raw.Import.Notify,
			MatchLimit: orDefaultInt(raw.Import.MatchLimit, 10),
			Boards:     raw.Import.Boards,
		},
		Notification: NotificationConfig{
			Type:       orDefault(raw.Notification.Type, "log"),
			WebhookURL: raw.Notification.WebhookURL,
			TopN:       orDefaultInt(raw.Notification.TopN, 10),
		},
		Server: ServerConfig{
			Addr:            orDefault(raw.Server.Addr, ":8080"),
			RequestTimeout:  d.parse("server.request_timeout", raw.Server.RequestTimeout, 60*time.Second),
			ShutdownTimeout: d.parse("server.shutdown_timeout", raw.Server.ShutdownTimeout, 10*time.Second),
		},
		Log: LogConfig{
			Level:  orDefault(strings.ToLower(raw.Log.Level), "info"),
			Format: orDefault(strings.ToLower(raw.Log.Format), "text"),
		},
	}
	if d.err != nil {
		return nil, d.err
	}

	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "talentmesh.db"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = defaultModels[cfg.AI.Provider]
	}
	if cfg.AI.BaseURL == "" && cfg.AI.Provider == "openai" {
		cfg.AI.BaseURL = defaultOpenAIBaseURL
	}
	if raw.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *raw.Retry.MaxRetries
	}
	if raw.Retry.Jitter != nil {
		cfg.Retry.Jitter = *raw.Retry.Jitter
	}
	for provider, v := range raw.RateLimit.ProviderOverrides {
		cfg.RateLimit.ProviderOverrides[provider] = d.parse("rate_limit.provider_overrides["+provider+"]", v, 0)
	}
	if d.err != nil {
		return nil, d.err
	}
	if s := raw.Scoring; s != nil {
		cfg.Scoring = ScoringConfig{
			Overlap:      s.Overlap,
			Diversity:    s.Diversity,
			Completeness: s.Completeness,
			Location:     s.Location,
			Premium:      s.Premium,
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

var defaultModels = map[string]string{
	"openai": "gpt-4o-mini",
	"gemini": "gemini-2.5-flash",
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite, mysql or postgres, got %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %q", cfg.Database.Driver)
	}

	switch cfg.AI.Provider {
	case "none":
	case "openai", "gemini":
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.provider is %q", cfg.AI.Provider)
		}
	default:
		return fmt.Errorf("ai.provider must be openai, gemini or none, got %q", cfg.AI.Provider)
	}
	if cfg.AI.MaxKeywords < 0 {
		return fmt.Errorf("ai.max_keywords must not be negative, got %d", cfg.AI.MaxKeywords)
	}

	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.Jitter < 0 || cfg.Retry.Jitter > 1 {
		return fmt.Errorf("retry.jitter must be between 0 and 1, got %v", cfg.Retry.Jitter)
	}

	s := cfg.Scoring
	for name, v := range map[string]float64{
		"overlap": s.Overlap, "diversity": s.Diversity, "completeness": s.Completeness,
		"location": s.Location, "premium": s.Premium,
	} {
		if v < 0 {
			return fmt.Errorf("scoring.%s must not be negative, got %v", name, v)
		}
	}
	if sum := s.Overlap + s.Diversity + s.Completeness + s.Location + s.Premium; sum > 100 {
		return fmt.Errorf("scoring budgets must sum to at most 100, got %v", sum)
	}

	if cfg.Search.DefaultLimit < 0 || cfg.Search.PeerLimit < 0 {
		return fmt.Errorf("search limits must not be negative")
	}
	if cfg.Search.MinDescriptionLength < 1 {
		return fmt.Errorf("search.min_description_length must be positive, got %d", cfg.Search.MinDescriptionLength)
	}

	if cfg.Reindex.Interval < 0 || cfg.Reindex.PruneInterval < 0 {
		return fmt.Errorf("reindex intervals must not be negative")
	}
	if cfg.Reindex.Concurrency < 1 {
		return fmt.Errorf("reindex.concurrency must be at least 1, got %d", cfg.Reindex.Concurrency)
	}

	if cfg.Queue.URL != "" && cfg.Queue.Workers < 1 {
		return fmt.Errorf("queue.workers must be at least 1, got %d", cfg.Queue.Workers)
	}

	if cfg.Storage.Bucket != "" {
		if cfg.Storage.AccessKey == "" || cfg.Storage.SecretKey == "" {
			return fmt.Errorf("storage.access_key and storage.secret_key are required when storage.bucket is set")
		}
	}

	if cfg.Import.Interval < 0 {
		return fmt.Errorf("import.interval must not be negative")
	}
	seen := make(map[string]bool)
	for i, b := range cfg.Import.Boards {
		if b.Name == "" {
			return fmt.Errorf("import.boards[%d]: name is required", i)
		}
		if seen[b.Name] {
			return fmt.Errorf("import.boards[%d]: duplicate name %q", i, b.Name)
		}
		seen[b.Name] = true
		switch b.ATS {
		case "greenhouse", "lever", "ashby":
		default:
			return fmt.Errorf("import.boards[%d] (%s): ats must be greenhouse, lever or ashby, got %q", i, b.Name, b.ATS)
		}
		if b.BoardToken == "" {
			return fmt.Errorf("import.boards[%d] (%s): board_token is required", i, b.Name)
		}
		if b.OrgID == "" {
			return fmt.Errorf("import.boards[%d] (%s): org_id is required", i, b.Name)
		}
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be log or slack, got %q", cfg.Notification.Type)
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}

	return nil
}
