// Package config loads process configuration from the environment and the
// per-adapter YAML registry, mirroring the teacher's env-var-plus-YAML-scan
// pattern.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the process-wide configuration, assembled once at startup.
type Config struct {
	DatabaseURL         string
	SQLitePath          string
	ListenPort          int
	LogPath             string
	LogLevel            string

	RiskService         RiskServiceConfig
	RateLimitPerMinute  int
	CircuitBreakerPct   float64 // fraction of rows missing critical fields that trips the breaker
	YieldThresholdPct   float64 // fraction of 30-day average below which a batch is rejected
	ReconciliationHour  int     // local hour of day the reconciliation job runs, default 18
	AlertDelayMinutes   int     // minutes after orchestrator finish before the alert engine runs

	Adapters map[string]*AdapterConfig
	States   map[string]*StateProfile
}

// RiskServiceConfig holds the credential and endpoint for the external
// risk-analysis service (§6 "external risk-service credential").
type RiskServiceConfig struct {
	URL   string
	Token string
}

// AdapterConfig is one entry in the adapter registry (renamed from the
// teacher's SiteConfig), loaded from config/adapters/*.yaml.
type AdapterConfig struct {
	ID          string   `yaml:"id"`
	Label       string   `yaml:"label"`
	Handler     string   `yaml:"handler"` // "html-table" | "browser" | "csv-import"
	StateScope  []string `yaml:"state_scope"`
	Reliability float64  `yaml:"reliability"`
	Endpoint    string   `yaml:"endpoint"`
	RateLimitMS int      `yaml:"rate_limit_ms"`
}

// StateProfile carries the per-state extension data named by the adapter
// registry's extension hook (spec 4.1) and the state-expansion Open
// Question decision recorded in DESIGN.md.
type StateProfile struct {
	StateCode           string              `yaml:"state_code"`
	StageKeywords       map[string][]string `yaml:"stage_keywords"`
	MinViableEquityPct  float64             `yaml:"min_viable_equity_pct"`
	UrgencyWindowDays   int                 `yaml:"urgency_window_days"`
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// Load builds the Config from environment variables (via .env, if present)
// and the adapter/state YAML registries.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getEnv("SQLITE_PATH", "operational.db"),
		ListenPort:  getEnvInt("LISTEN_PORT", 8080),
		LogPath:     getEnv("LOG_PATH", "daemon.log"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		RiskService: RiskServiceConfig{
			URL:   os.Getenv("RISK_SERVICE_URL"),
			Token: os.Getenv("RISK_SERVICE_TOKEN"),
		},
		RateLimitPerMinute: getEnvInt("ENRICHMENT_RATE_LIMIT_PER_MINUTE", 10),
		CircuitBreakerPct:  getEnvFloat("CIRCUIT_BREAKER_MISSING_FIELD_PCT", 0.20),
		YieldThresholdPct:  getEnvFloat("YIELD_THRESHOLD_PCT", 0.10),
		ReconciliationHour: getEnvInt("RECONCILIATION_HOUR", 18),
		AlertDelayMinutes:  getEnvInt("ALERT_DELAY_MINUTES", 15),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	adapters, err := loadAdapterConfigs("config/adapters")
	if err != nil {
		return nil, fmt.Errorf("load adapter configs: %w", err)
	}
	cfg.Adapters = adapters

	states, err := loadStateProfiles("config/states")
	if err != nil {
		return nil, fmt.Errorf("load state profiles: %w", err)
	}
	cfg.States = states

	return cfg, nil
}

func loadAdapterConfigs(dir string) (map[string]*AdapterConfig, error) {
	result := make(map[string]*AdapterConfig)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		var ac AdapterConfig
		if err := yaml.Unmarshal(data, &ac); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		if ac.ID == "" {
			return nil, fmt.Errorf("%s: adapter missing id", entry.Name())
		}
		result[ac.ID] = &ac
	}
	return result, nil
}

func loadStateProfiles(dir string) (map[string]*StateProfile, error) {
	result := make(map[string]*StateProfile)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		var sp StateProfile
		if err := yaml.Unmarshal(data, &sp); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		if sp.StateCode == "" {
			return nil, fmt.Errorf("%s: state profile missing state_code", entry.Name())
		}
		result[sp.StateCode] = &sp
	}
	return result, nil
}

// MaskDSN masks the password segment of a database connection string for
// safe logging, mirroring the teacher's maskConnectionString helper.
func MaskDSN(dsn string) string {
	atIdx := -1
	colonIdx := -1
	for i, c := range dsn {
		if c == ':' && colonIdx == -1 && i > 0 {
			colonIdx = i
		}
		if c == '@' {
			atIdx = i
		}
	}
	if colonIdx == -1 || atIdx == -1 || atIdx < colonIdx {
		return dsn
	}
	return dsn[:colonIdx+1] + "****" + dsn[atIdx:]
}
