package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
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

	Redis    RedisConfig
	Cache    CacheConfig
	CORS     CORSConfig
	Log      LogConfig
	Solver   SolverConfig
	Calendar CalendarConfig

	// RoomPrefixes maps a building name to the abbreviation shown before room numbers.
	RoomPrefixes map[string]string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig toggles memoisation of solver results in Redis.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SolverConfig tunes the schedule search.
type SolverConfig struct {
	Mode      string
	MaxNodes  int
	ResultTTL time.Duration
}

// CalendarConfig controls iCalendar export.
type CalendarConfig struct {
	Timezone string
	Weeks    int
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 10*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxNodes := v.GetInt("SOLVER_MAX_NODES")
	if maxNodes < 0 {
		maxNodes = 0
	}
	cfg.Solver = SolverConfig{
		Mode:      strings.ToLower(strings.TrimSpace(v.GetString("SOLVER_MODE"))),
		MaxNodes:  maxNodes,
		ResultTTL: parseDuration(v.GetString("SCHEDULE_RESULT_TTL"), 30*time.Minute),
	}

	weeks := v.GetInt("CALENDAR_WEEKS")
	if weeks <= 0 {
		weeks = 12
	}
	cfg.Calendar = CalendarConfig{
		Timezone: v.GetString("CALENDAR_TIMEZONE"),
		Weeks:    weeks,
	}

	cfg.RoomPrefixes = parsePairs(v.GetString("ROOM_PREFIXES"))

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "10m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SOLVER_MODE", "first")
	v.SetDefault("SOLVER_MAX_NODES", 0)
	v.SetDefault("SCHEDULE_RESULT_TTL", "30m")

	v.SetDefault("CALENDAR_TIMEZONE", "America/Toronto")
	v.SetDefault("CALENDAR_WEEKS", 12)
	v.SetDefault("ROOM_PREFIXES", "Shawenjigewining Hall=SHA")
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

// parsePairs reads "Key=Value,Key2=Value2"; malformed entries are skipped.
func parsePairs(raw string) map[string]string {
	result := make(map[string]string)
	for _, part := range splitAndTrim(raw) {
		key, value, ok := strings.Cut(part, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			continue
		}
		result[key] = value
	}
	return result
}
