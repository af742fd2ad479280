package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server          ServerConfig
	Database        DatabaseConfig
	JWT             JWTConfig
	Storage         StorageConfig
	Tracing         TracingConfig `mapstructure:"tracing"`
	Redis           RedisConfig
	AI              AIConfig
	Log             LogConfig             `mapstructure:"log"`
	CORS            CORSConfig            `mapstructure:"cors"`
	RateLimit       RateLimitConfig       `mapstructure:"rate_limit"`
	Personalization PersonalizationConfig `mapstructure:"personalization"`
	Jobs            JobsConfig            `mapstructure:"jobs"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

// LogConfig 为空的 Level 按 server.mode 推断，File 为空时只输出到控制台
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Console    bool   `mapstructure:"console"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxAgeSeconds  int      `mapstructure:"max_age_seconds"`
}

type RateLimitConfig struct {
	MaxRequests   int      `mapstructure:"max_requests"`
	WindowMinutes int      `mapstructure:"window_minutes"`
	ExemptPaths   []string `mapstructure:"exempt_paths"`
}

func (r RateLimitConfig) Window() time.Duration {
	if r.WindowMinutes <= 0 {
		return time.Minute
	}
	return time.Duration(r.WindowMinutes) * time.Minute
}

// AIConfig points at an OpenAI-compatible chat completion endpoint used for journal sentiment.
type AIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

func (c AIConfig) Enabled() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// PersonalizationConfig tunes the recommendation ladder and the review scheduler.
// Goal names are matched case-insensitively (viper lowercases map keys).
type PersonalizationConfig struct {
	GoalCategories     map[string]string `mapstructure:"goal_categories"`
	DefaultCategory    string            `mapstructure:"default_category"`
	ExplorationSeed    int64             `mapstructure:"exploration_seed"`
	DueCardLimit       int               `mapstructure:"due_card_limit"`
	PopularCacheTTL    time.Duration     `mapstructure:"popular_cache_ttl"`
	CountBadgeRules    []CountBadgeRule  `mapstructure:"count_badge_rules"`
	MaxRecommendations int               `mapstructure:"max_recommendations"`
}

// CountBadgeRule ties an activity-count badge to the completions that advance it.
// Exactly one of ContentType or Category is expected to be set.
type CountBadgeRule struct {
	BadgeType   string `mapstructure:"badge_type"`
	ContentType string `mapstructure:"content_type"`
	Category    string `mapstructure:"category"`
}

type JobsConfig struct {
	SentimentIntervalMinutes int    `mapstructure:"sentiment_interval_minutes"`
	StreakMaintenanceAt      string `mapstructure:"streak_maintenance_at"`
}

// GoalCategory resolves a declared goal name to its category tag.
func (p PersonalizationConfig) GoalCategory(goalName string) string {
	if c, ok := p.GoalCategories[strings.ToLower(strings.TrimSpace(goalName))]; ok {
		return c
	}
	return p.DefaultCategory
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("jwt.expire_hours", 72)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "uploads")
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("rate_limit.exempt_paths", []string{"/health", "/api/health", "/metrics"})
	v.SetDefault("cors.max_age_seconds", 600)

	v.SetDefault("log.file", "logs/uplook.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.console", true)

	v.SetDefault("personalization.default_category", "self_confidence")
	v.SetDefault("personalization.goal_categories", map[string]string{
		"reduce stress":    "anxiety",
		"improve sleep":    "sleep",
		"self-improvement": "self_confidence",
		"be more mindful":  "anxiety",
		"feel better":      "self_confidence",
	})
	v.SetDefault("personalization.exploration_seed", 0)
	v.SetDefault("personalization.due_card_limit", 50)
	v.SetDefault("personalization.popular_cache_ttl", 10*time.Minute)
	v.SetDefault("personalization.max_recommendations", 10)
	v.SetDefault("personalization.count_badge_rules", []map[string]string{
		{"badge_type": "meditation_master", "content_type": "meditation"},
		{"badge_type": "sleep_expert", "category": "sleep"},
		{"badge_type": "stress_warrior", "category": "anxiety"},
	})

	v.SetDefault("jobs.sentiment_interval_minutes", 5)
	v.SetDefault("jobs.streak_maintenance_at", "00:05")
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("UPLOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("log.level", "LOG_LEVEL")

	// AI
	v.BindEnv("ai.base_url", "AI_BASE_URL")
	v.BindEnv("ai.api_key", "AI_API_KEY")
	v.BindEnv("ai.model", "AI_MODEL")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")
	v.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "OSS_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.Personalization.normalize()

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

// 推荐条数上限，max_recommendations 只能在此范围内调小
const maxRecommendations = 10

func (p *PersonalizationConfig) normalize() {
	normalized := make(map[string]string, len(p.GoalCategories))
	for name, category := range p.GoalCategories {
		normalized[strings.ToLower(strings.TrimSpace(name))] = strings.ToLower(category)
	}
	p.GoalCategories = normalized
	p.DefaultCategory = strings.ToLower(p.DefaultCategory)
	if p.MaxRecommendations <= 0 || p.MaxRecommendations > maxRecommendations {
		p.MaxRecommendations = maxRecommendations
	}
	if p.DueCardLimit <= 0 {
		p.DueCardLimit = 50
	}
}
