package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"courtparser-engine/internal/scrape/decision"
)

//go:embed default.yml
var defaultYAML []byte

type ScheduleEntry struct {
	Name    string   `yaml:"name" json:"name"`
	Regions []string `yaml:"regions" json:"regions"`
	Every   string   `yaml:"every" json:"every"`
}

type Config struct {
	App struct {
		Addr    string `yaml:"addr" json:"addr"`
		DataDir string `yaml:"data_dir" json:"data_dir"`

		// Browser origins allowed to call the API. Empty means loopback only.
		CorsOrigins []string `yaml:"cors_origins" json:"cors_origins"`
	} `yaml:"app" json:"app"`

	Site struct {
		Origin           string `yaml:"origin" json:"origin"`
		SearchPath       string `yaml:"search_path" json:"search_path"`
		CaseType         string `yaml:"case_type" json:"case_type"`
		Category         string `yaml:"category" json:"category"`
		Subcategory      string `yaml:"subcategory" json:"subcategory"`
		CategoryLabel    string `yaml:"category_label" json:"category_label"`
		SubcategoryLabel string `yaml:"subcategory_label" json:"subcategory_label"`
	} `yaml:"site" json:"site"`

	Browser struct {
		Headless       bool   `yaml:"headless" json:"headless"`
		ExecutablePath string `yaml:"executable_path" json:"executable_path"`
		TimeoutMs      int    `yaml:"timeout_ms" json:"timeout_ms"`
		UserAgent      string `yaml:"user_agent" json:"user_agent"`
		InstallDriver  bool   `yaml:"install_driver" json:"install_driver"`
	} `yaml:"browser" json:"browser"`

	Crawl struct {
		MaxPages          int `yaml:"max_pages" json:"max_pages"`
		ParallelUnits     int `yaml:"parallel_units" json:"parallel_units"`
		CaseDelayMs       int `yaml:"case_delay_ms" json:"case_delay_ms"`
		PageDelayMs       int `yaml:"page_delay_ms" json:"page_delay_ms"`
		ParseAttempts     int `yaml:"parse_attempts" json:"parse_attempts"`
		ParseRetryDelayMs int `yaml:"parse_retry_delay_ms" json:"parse_retry_delay_ms"`
		SettleTimeoutMs   int `yaml:"settle_timeout_ms" json:"settle_timeout_ms"`
		BackoffInitialMs  int `yaml:"backoff_initial_ms" json:"backoff_initial_ms"`
		BackoffMaxMs      int `yaml:"backoff_max_ms" json:"backoff_max_ms"`
	} `yaml:"crawl" json:"crawl"`

	// Decision overrides decision.DefaultRules field by field.
	Decision decision.Rules `yaml:"decision" json:"decision"`

	Schedule struct {
		Units           []ScheduleEntry `yaml:"units" json:"units"`
		AllRegions      bool            `yaml:"all_regions" json:"all_regions"`
		AllRegionsEvery string          `yaml:"all_regions_every" json:"all_regions_every"`
	} `yaml:"schedule" json:"schedule"`

	Sink struct {
		Topic          string `yaml:"topic" json:"topic"`
		Partitions     int    `yaml:"partitions" json:"partitions"`
		Replication    int    `yaml:"replication" json:"replication"`
		RetentionHours int    `yaml:"retention_hours" json:"retention_hours"`
		MaxRetries     int    `yaml:"max_retries" json:"max_retries"`
		RetryBackoffMs int    `yaml:"retry_backoff_ms" json:"retry_backoff_ms"`
	} `yaml:"sink" json:"sink"`

	Sudact struct {
		Enabled bool   `yaml:"enabled" json:"enabled"`
		BaseURL string `yaml:"base_url" json:"base_url"`
		Query   string `yaml:"query" json:"query"`
		Every   string `yaml:"every" json:"every"`
	} `yaml:"sudact" json:"sudact"`

	Archive struct {
		Enabled        bool   `yaml:"enabled" json:"enabled"`
		Type           string `yaml:"type" json:"type"`
		LocalPath      string `yaml:"local_path" json:"local_path"`
		S3Bucket       string `yaml:"s3_bucket" json:"s3_bucket"`
		S3Region       string `yaml:"s3_region" json:"s3_region"`
		S3Endpoint     string `yaml:"s3_endpoint" json:"s3_endpoint"`
		S3AccessKeyID  string `yaml:"s3_access_key_id" json:"s3_access_key_id"`
		KeyringAccount string `yaml:"keyring_account" json:"keyring_account"`
	} `yaml:"archive" json:"archive"`
}

// Default returns the embedded default configuration.
func Default() Config {
	cfg, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("config: embedded default invalid: %v", err))
	}
	return cfg
}

func Parse(b []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Load reads the config file and merges config.local.yml next to it, if any.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(b)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := OverlayLocal(&cfg, LocalPath(path)); err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg)
	return cfg, nil
}

// Every parses a schedule duration, falling back to def when empty or invalid.
func Every(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func Ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
