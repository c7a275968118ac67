package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/docqa/internal/config"
	"github.com/xxxsen/docqa/internal/model"
)

// ErrPositionTaken is returned by Journal.Append when the position already holds a record.
var ErrPositionTaken = errors.New("position already journaled")

// Journal durably records appended index records and replays them in position order.
type Journal interface {
	Load(ctx context.Context, fn func(model.Record) error) error
	Append(ctx context.Context, rec model.Record) error
	Close() error
}

type JournalFactory func(args interface{}) (Journal, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]JournalFactory{}
)

func RegisterJournal(name string, factory JournalFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func NewJournal(cfg config.PluginConfig) (Journal, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("index.journal.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported index journal type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

type memoryJournal struct{}

func init() {
	RegisterJournal("memory", func(args interface{}) (Journal, error) {
		return memoryJournal{}, nil
	})
}

func (memoryJournal) Load(ctx context.Context, fn func(model.Record) error) error {
	return nil
}

func (memoryJournal) Append(ctx context.Context, rec model.Record) error {
	return nil
}

func (memoryJournal) Close() error {
	return nil
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode journal config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode journal config: %w", err)
	}
	return nil
}
