package secrets

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"courtparser-engine/internal/config"
)

func TestS3SecretRoundTrip(t *testing.T) {
	keyring.MockInit()

	_, err := GetS3Secret("acct")
	require.ErrorIs(t, err, ErrSecretNotFound)

	require.Error(t, SetS3Secret("", "x"))
	require.Error(t, SetS3Secret("acct", " "))

	require.NoError(t, SetS3Secret("acct", "s3cr3t"))
	got, err := GetS3Secret("acct")
	require.NoError(t, err)
	require.Equal(t, "s3cr3t", got)

	require.NoError(t, DeleteS3Secret("acct"))
	_, err = GetS3Secret("acct")
	require.Error(t, err)
}

func TestS3KeyringAccount(t *testing.T) {
	var cfg config.Config
	cfg.Archive.S3Bucket = "decisions"
	cfg.Archive.S3AccessKeyID = "AKIA1"
	require.Equal(t, "courtparser:s3:AKIA1@decisions", S3KeyringAccount(cfg))

	cfg.Archive.KeyringAccount = "custom"
	require.Equal(t, "custom", S3KeyringAccount(cfg))
}
