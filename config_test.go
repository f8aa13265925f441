package pathwise_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pathwise "github.com/pathwise-edu/pathwise"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  signing_key: "file-signing-key"
`)

	cfg, err := pathwise.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "file-signing-key", cfg.GetSigningKey())
	assert.Equal(t, "HS256", cfg.GetSigningMethod())
	assert.Equal(t, 168, cfg.GetTokenExpiration())
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL())
	assert.Equal(t, "Bearer", cfg.GetAuthScheme())
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestLoadConfigFileValues(t *testing.T) {
	path := writeConfigFile(t, `
server:
  address: ":9090"
auth:
  signing_key: "file-signing-key"
  token_expiration: 24
  issuer: "my-issuer"
database:
  dsn: "file:test.db"
cdn:
  bucket: "assets"
  public_url: "https://cdn.example.com/"
`)

	cfg, err := pathwise.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 24, cfg.GetTokenExpiration())
	assert.Equal(t, "my-issuer", cfg.GetIssuer())
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
	assert.Equal(t, "assets", cfg.CDN.Bucket)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  signing_key: "file-signing-key"
`)

	t.Setenv("PATHWISE_SIGNING_KEY", "env-signing-key")
	t.Setenv("PATHWISE_SERVER_ADDRESS", ":7070")
	t.Setenv("PATHWISE_TOKEN_EXPIRATION", "48")

	cfg, err := pathwise.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-signing-key", cfg.GetSigningKey())
	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, 48, cfg.GetTokenExpiration())
}

func TestLoadConfigMissingFileUsesEnv(t *testing.T) {
	t.Setenv("PATHWISE_SIGNING_KEY", "env-only-key")

	cfg, err := pathwise.LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	require.NoError(t, err)
	assert.Equal(t, "env-only-key", cfg.GetSigningKey())
}

func TestLoadConfigRequiresSigningKey(t *testing.T) {
	t.Setenv("PATHWISE_SIGNING_KEY", "")

	path := writeConfigFile(t, `
server:
  address: ":9090"
`)

	_, err := pathwise.LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "auth: [not: valid")

	_, err := pathwise.LoadConfig(path)
	assert.Error(t, err)
}
