package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Tokens      TokenConfig
	Mentor      MentorConfig
	Uploads     UploadConfig
	Leaderboard LeaderboardConfig
	Statements  StatementConfig
	Badges      BadgeConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	NonceTTL          time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TokenConfig holds the canonical amounts of the token economy.
//
// The legacy product copy advertised two different teacher welcome bonuses
// (2 and 1000). The ledger treats 2 as canonical; the amounts stay
// configurable so operators can diverge without a deploy.
type TokenConfig struct {
	TaskCreationCost    decimal.Decimal
	MentorAnswerReward  decimal.Decimal
	WelcomeBonusTeacher decimal.Decimal
	WelcomeBonusStudent decimal.Decimal
}

// MentorConfig defines the mentor upgrade gate.
type MentorConfig struct {
	MinRating         float64
	MinCompletedCount int
}

// UploadConfig controls file upload storage and signed downloads.
type UploadConfig struct {
	StorageDir       string
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// LeaderboardConfig governs leaderboard exposure and cache tuning.
type LeaderboardConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// StatementConfig toggles ledger statement and certificate exports.
type StatementConfig struct {
	Enabled bool
}

// BadgeConfig controls badge awarding and the mint queue.
type BadgeConfig struct {
	Enabled     bool
	MintWorkers int
	MintRetries int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		NonceTTL:          parseDuration(v.GetString("LOGIN_NONCE_TTL"), 5*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Tokens = TokenConfig{
		TaskCreationCost:    parseDecimal(v.GetString("TOKEN_TASK_CREATION_COST"), "1"),
		MentorAnswerReward:  parseDecimal(v.GetString("TOKEN_MENTOR_ANSWER_REWARD"), "0.5"),
		WelcomeBonusTeacher: parseDecimal(v.GetString("TOKEN_WELCOME_BONUS_TEACHER"), "2"),
		WelcomeBonusStudent: parseDecimal(v.GetString("TOKEN_WELCOME_BONUS_STUDENT"), "1"),
	}

	cfg.Mentor = MentorConfig{
		MinRating:         v.GetFloat64("MENTOR_MIN_RATING"),
		MinCompletedCount: v.GetInt("MENTOR_MIN_COMPLETED"),
	}

	maxUploadSize := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxUploadSize <= 0 {
		maxUploadSize = 20 * 1024 * 1024
	}
	cfg.Uploads = UploadConfig{
		StorageDir:       v.GetString("UPLOADS_STORAGE_DIR"),
		SignedURLSecret:  v.GetString("UPLOADS_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("UPLOADS_SIGNED_URL_TTL"), 30*time.Minute),
		MaxFileSizeBytes: maxUploadSize,
		AllowedMIMEs:     splitAndTrim(v.GetString("UPLOADS_ALLOWED_MIME_TYPES")),
	}

	cfg.Leaderboard = LeaderboardConfig{
		Enabled:  v.GetBool("ENABLE_LEADERBOARD"),
		CacheTTL: parseDuration(v.GetString("LEADERBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Statements = StatementConfig{
		Enabled: v.GetBool("ENABLE_STATEMENTS"),
	}

	cfg.Badges = BadgeConfig{
		Enabled:     v.GetBool("ENABLE_BADGES"),
		MintWorkers: v.GetInt("BADGE_MINT_WORKERS"),
		MintRetries: v.GetInt("BADGE_MINT_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "educhain")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("LOGIN_NONCE_TTL", "5m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TOKEN_TASK_CREATION_COST", "1")
	v.SetDefault("TOKEN_MENTOR_ANSWER_REWARD", "0.5")
	v.SetDefault("TOKEN_WELCOME_BONUS_TEACHER", "2")
	v.SetDefault("TOKEN_WELCOME_BONUS_STUDENT", "1")

	v.SetDefault("MENTOR_MIN_RATING", 4.0)
	v.SetDefault("MENTOR_MIN_COMPLETED", 3)

	v.SetDefault("UPLOADS_STORAGE_DIR", "./uploads")
	v.SetDefault("UPLOADS_SIGNED_URL_SECRET", "dev_uploads_secret")
	v.SetDefault("UPLOADS_SIGNED_URL_TTL", "30m")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 20*1024*1024)
	v.SetDefault("UPLOADS_ALLOWED_MIME_TYPES", "application/pdf,application/zip,image/png,image/jpeg,text/plain")

	v.SetDefault("ENABLE_LEADERBOARD", true)
	v.SetDefault("LEADERBOARD_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_STATEMENTS", true)

	v.SetDefault("ENABLE_BADGES", true)
	v.SetDefault("BADGE_MINT_WORKERS", 1)
	v.SetDefault("BADGE_MINT_RETRIES", 3)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func parseDecimal(raw, fallback string) decimal.Decimal {
	if raw != "" {
		if d, err := decimal.NewFromString(raw); err == nil {
			return d
		}
	}
	return decimal.RequireFromString(fallback)
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
