package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultTokenTTL = 24 * time.Hour
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabaseDriver    string
	DatabasePath      string
	JWTSecret         string
	TokenTTL          time.Duration
	SessionSecret     string
	GinMode           string
	LogLevel          string
	LogFile           string
	GoalSweepInterval time.Duration
	StatsLocation     *time.Location
	SuperRootEmail    string
	SuperRootPassword string

	// Warnings 记录解析失败后回退到默认值的配置项，由调用方决定如何输出。
	Warnings []string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	cfg := AppConfig{}

	cfg.Port = envOr("PORT", "8080")
	cfg.ListenAddr = envOr("LISTEN_ADDR", fmt.Sprintf(":%s", cfg.Port))

	cfg.DatabaseDriver = strings.ToLower(envOr("DATABASE_DRIVER", "sqlite"))
	if cfg.DatabaseDriver != "sqlite" && cfg.DatabaseDriver != "postgres" {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("unsupported DATABASE_DRIVER %q, using sqlite", cfg.DatabaseDriver))
		cfg.DatabaseDriver = "sqlite"
	}
	cfg.DatabasePath = envOr("DATABASE_PATH", "fittrack.db")

	cfg.JWTSecret = envOr("JWT_SECRET", "fittrack-dev-secret")
	cfg.SessionSecret = envOr("SESSION_SECRET", "fittrack-session-secret")
	cfg.GinMode = envOr("GIN_MODE", "release")
	cfg.LogLevel = strings.ToLower(envOr("LOG_LEVEL", "info"))
	cfg.LogFile = strings.TrimSpace(os.Getenv("LOG_FILE"))

	cfg.TokenTTL = cfg.durationOr("TOKEN_TTL", defaultTokenTTL)
	if cfg.TokenTTL <= 0 {
		cfg.Warnings = append(cfg.Warnings, "TOKEN_TTL must be positive, using 24h")
		cfg.TokenTTL = defaultTokenTTL
	}
	cfg.GoalSweepInterval = cfg.durationOr("GOAL_SWEEP_INTERVAL", 0)

	cfg.StatsLocation = time.Local
	if name := strings.TrimSpace(os.Getenv("STATS_TIMEZONE")); name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("unknown STATS_TIMEZONE %q, using Local", name))
		} else {
			cfg.StatsLocation = loc
		}
	}

	cfg.SuperRootEmail = strings.TrimSpace(os.Getenv("SUPER_ROOT_EMAIL"))
	cfg.SuperRootPassword = strings.TrimSpace(os.Getenv("SUPER_ROOT_PASSWORD"))

	return cfg
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func (cfg *AppConfig) durationOr(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("invalid %s %q, using %s", key, raw, fallback))
		return fallback
	}
	return d
}
