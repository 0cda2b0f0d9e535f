package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the bot and the reminder engine.
type Config struct {
	TelegramToken   string
	DatabaseURL     string
	ReportInterval  time.Duration
	DigestTime      string
	Location        *time.Location
	MetricsAddr     string
	RedisURL        string
	EnrichmentURL   string
	EnrichmentRPS   float64
	CatalogFile     string
	DispatchWorkers int
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken:   strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ReportInterval:  parseInterval(strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS"))),
		DigestTime:      strings.TrimSpace(os.Getenv("DIGEST_TIME")),
		MetricsAddr:     strings.TrimSpace(os.Getenv("METRICS_ADDR")),
		RedisURL:        strings.TrimSpace(os.Getenv("REDIS_URL")),
		EnrichmentURL:   strings.TrimSpace(os.Getenv("ENRICHMENT_URL")),
		EnrichmentRPS:   parseFloat(strings.TrimSpace(os.Getenv("ENRICHMENT_RPS"))),
		CatalogFile:     strings.TrimSpace(os.Getenv("CATALOG_FILE")),
		DispatchWorkers: parseInt(strings.TrimSpace(os.Getenv("DISPATCH_WORKERS"))),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "carkeeper.db"
	}

	if cfg.DigestTime == "" && cfg.ReportInterval == 0 {
		cfg.DigestTime = "08:00"
	}

	if cfg.EnrichmentRPS <= 0 {
		cfg.EnrichmentRPS = 2
	}

	if cfg.DispatchWorkers <= 0 {
		cfg.DispatchWorkers = 4
	}

	loc := time.Local
	if tz := strings.TrimSpace(os.Getenv("TIMEZONE")); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return cfg, fmt.Errorf("TIMEZONE %q: %w", tz, err)
		}
		loc = l
	}
	cfg.Location = loc

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func parseFloat(raw string) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(raw string) int {
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}
