package filestore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/xxxsen/docqa/internal/config"
)

// Store archives the raw bytes of uploaded documents.
type Store interface {
	Type() string
	Save(ctx context.Context, key string, data []byte) error
}

type Factory func(args interface{}) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.PluginConfig) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("file_store.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported file store type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

// ArchiveKey derives a flat, collision-resistant object key from a document identifier.
func ArchiveKey(identifier string) string {
	sum := sha256.Sum256([]byte(identifier))
	base := path.Base(strings.ReplaceAll(identifier, "\\", "/"))
	if base == "." || base == "/" {
		base = "document"
	}
	return hex.EncodeToString(sum[:])[:16] + "_" + base
}

type byteReader struct {
	*bytes.Reader
}

func (byteReader) Close() error { return nil }

func newByteReader(data []byte) byteReader {
	return byteReader{Reader: bytes.NewReader(data)}
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode store config: %w", err)
	}
	return nil
}
