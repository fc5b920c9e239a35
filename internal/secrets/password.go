package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"courtparser-engine/internal/config"
)

const (
	// Service groups the engine's secrets in the OS keychain.
	KeyringService = "courtparser"
)

var ErrSecretNotFound = errors.New("S3 secret key not found (set it in keychain or via AWS_SECRET_ACCESS_KEY)")

func GetS3Secret(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		pw, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	return "", ErrSecretNotFound
}

func SetS3Secret(keyringAccount string, secret string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(secret) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, secret)
}

func DeleteS3Secret(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

// S3KeyringAccount names the keychain entry for the archive bucket credentials.
func S3KeyringAccount(cfg config.Config) string {
	if a := strings.TrimSpace(cfg.Archive.KeyringAccount); a != "" {
		return a
	}
	return fmt.Sprintf("courtparser:s3:%s@%s", cfg.Archive.S3AccessKeyID, cfg.Archive.S3Bucket)
}
