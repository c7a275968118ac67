package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const minimalConfig = `{
	"port": 8080,
	"jwt_secret": "env:DOCQA_TEST_SECRET",
	"admin": {"username": "admin", "password_hash": "$2a$10$abc"},
	"ai": {
		"providers": {"main": {"type": "openai", "data": {"api_key": "k"}}},
		"embed": [{"provider": "main", "model": "text-embedding-3-small"}],
		"answer": [{"provider": "main", "model": "gpt-4o-mini"}],
		"entity": [{"provider": "main", "model": "gpt-4o-mini"}]
	}
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DOCQA_TEST_SECRET", "s3cret")
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	require.Equal(t, "s3cret", cfg.JWTSecret)
	require.Equal(t, 30, cfg.JWTTTLMinutes)
	require.Equal(t, "memory", cfg.DocStore.Type)
	require.Equal(t, "memory", cfg.Index.Journal.Type)
	require.Equal(t, "pdftotext", cfg.Extract.PDF.Type)
	require.Equal(t, "tesseract", cfg.Extract.Image.Type)
	require.Equal(t, 5, cfg.RateLimit.UploadPerMinute)
	require.Equal(t, 10, cfg.RateLimit.AskPerMinute)
	require.Equal(t, 60, cfg.AI.Timeout)
	require.Equal(t, "info", cfg.LogConfig.Level)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("DOCQA_TEST_SECRET", "")
	_, err := Load(writeConfig(t, minimalConfig))
	require.Error(t, err)
}

func TestLoad_UnknownProviderReference(t *testing.T) {
	content := `{
		"port": 8080,
		"jwt_secret": "x",
		"admin": {"username": "admin", "password_hash": "h"},
		"ai": {
			"providers": {"main": {"type": "openai"}},
			"embed": [{"provider": "other", "model": "m"}],
			"answer": [{"provider": "main", "model": "m"}],
			"entity": [{"provider": "main", "model": "m"}]
		}
	}`
	_, err := Load(writeConfig(t, content))
	require.ErrorContains(t, err, "unknown provider")
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOCQA_ENV_FILE_KEY=from-file\n"), 0o644))
	t.Setenv("DOCQA_ENV_FILE_KEY", "")
	require.NoError(t, os.Unsetenv("DOCQA_ENV_FILE_KEY"))
	require.NoError(t, LoadEnv(path))
	require.Equal(t, "from-file", Resolve("env:DOCQA_ENV_FILE_KEY"))
	require.Equal(t, "literal", Resolve(" literal "))
}
