package config

import (
	"fmt"
	"os"
	"strings"

	"dario.cat/mergo"
)

// OverlayLocal merges a local override file over cfg. Non-empty values in the
// override win; a missing file is not an error. mergo skips zero values, so
// the override cannot switch a boolean off.
func OverlayLocal(cfg *Config, localPath string) error {
	b, err := os.ReadFile(localPath)
	if err != nil {
		return nil
	}
	local, err := Parse(b)
	if err != nil {
		return fmt.Errorf("%s: %w", localPath, err)
	}
	if err := mergo.Merge(cfg, local, mergo.WithOverride); err != nil {
		return fmt.Errorf("merge %s: %w", localPath, err)
	}
	return nil
}

// ApplyEnv lets the environment (or .env) pick the address, data dir and browser binary.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("COURTPARSER_ADDR")); v != "" {
		cfg.App.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("COURTPARSER_DATA_DIR")); v != "" {
		cfg.App.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("COURTPARSER_BROWSER_PATH")); v != "" {
		cfg.Browser.ExecutablePath = v
	}
	if v := strings.TrimSpace(os.Getenv("AWS_S3_BUCKET")); v != "" && cfg.Archive.S3Bucket == "" {
		cfg.Archive.S3Bucket = v
	}
	if v := strings.TrimSpace(os.Getenv("AWS_REGION")); v != "" && cfg.Archive.S3Region == "" {
		cfg.Archive.S3Region = v
	}
	if v := strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID")); v != "" && cfg.Archive.S3AccessKeyID == "" {
		cfg.Archive.S3AccessKeyID = v
	}
}
