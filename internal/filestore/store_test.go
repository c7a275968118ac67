package filestore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docqa/internal/config"
)

func TestArchiveKey(t *testing.T) {
	key := ArchiveKey("reports/2024/q1.pdf")
	require.True(t, strings.HasSuffix(key, "_q1.pdf"))
	require.Len(t, strings.SplitN(key, "_", 2)[0], 16)
	require.NotContains(t, key, "/")
	require.NotEqual(t, key, ArchiveKey("reports/2023/q1.pdf"))
	require.Equal(t, key, ArchiveKey("reports/2024/q1.pdf"))
	require.NotContains(t, ArchiveKey(`c:\scans\a.png`), `\`)
}

func TestLocalStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	store, err := New(config.PluginConfig{Type: "LOCAL", Data: map[string]interface{}{"dir": dir}})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())

	key := ArchiveKey("a.pdf")
	require.NoError(t, store.Save(context.Background(), key, []byte("%PDF-1.4")))
	data, err := os.ReadFile(filepath.Join(dir, key))
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4", string(data))

	require.Error(t, store.Save(context.Background(), "../escape", []byte("x")))
}

func TestNew_Errors(t *testing.T) {
	_, err := New(config.PluginConfig{})
	require.Error(t, err)
	_, err = New(config.PluginConfig{Type: "ftp"})
	require.ErrorContains(t, err, "unsupported file store type")
	_, err = New(config.PluginConfig{Type: "local", Data: map[string]interface{}{}})
	require.ErrorContains(t, err, "dir is required")
	_, err = New(config.PluginConfig{Type: "s3", Data: map[string]interface{}{"bucket": "b"}})
	require.ErrorContains(t, err, "required")
}
