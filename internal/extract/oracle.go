package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/docqa/internal/config"
)

type Factory func(args interface{}) (Extractor, error)

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

func NewExtractor(cfg config.PluginConfig) (Extractor, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("extractor type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported extractor type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

// NewDispatcherFromConfig builds the pdf and image oracles named in cfg.
func NewDispatcherFromConfig(cfg config.ExtractConfig) (*Dispatcher, error) {
	pdf, err := NewExtractor(cfg.PDF)
	if err != nil {
		return nil, fmt.Errorf("init pdf extractor: %w", err)
	}
	image, err := NewExtractor(cfg.Image)
	if err != nil {
		return nil, fmt.Errorf("init image extractor: %w", err)
	}
	return NewDispatcher(map[Kind]Extractor{
		KindPDF:   pdf,
		KindImage: image,
	})
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode extractor config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode extractor config: %w", err)
	}
	return nil
}
