package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/docqa/internal/config"
	"github.com/xxxsen/docqa/internal/model"
)

type ManagerConfig struct {
	Timeout       int
	MaxInputChars int
}

// Manager bounds every oracle call by the configured timeout and input size.
type Manager struct {
	embedder   IEmbedder
	answerer   IAnswerer
	recognizer IEntityRecognizer
	cfg        ManagerConfig
}

func NewManager(embedder IEmbedder, answerer IAnswerer, recognizer IEntityRecognizer, cfg ManagerConfig) *Manager {
	return &Manager{
		embedder:   embedder,
		answerer:   answerer,
		recognizer: recognizer,
		cfg:        cfg,
	}
}

// NewManagerFromConfig builds providers once and wires a fallback group per role.
func NewManagerFromConfig(cfg config.AIConfig) (*Manager, error) {
	providers := make(map[string]IProvider, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		p, err := NewProvider(pc.Type, pc.Data)
		if err != nil {
			return nil, fmt.Errorf("init ai provider %s: %w", name, err)
		}
		providers[name] = p
	}
	embedEntries := make([]EmbedderEntry, 0, len(cfg.Embed))
	for _, ref := range cfg.Embed {
		p, ok := providers[ref.Provider]
		if !ok {
			return nil, fmt.Errorf("unknown ai provider: %s", ref.Provider)
		}
		embedEntries = append(embedEntries, EmbedderEntry{Name: ref.Provider + "/" + ref.Model, Embedder: NewEmbedder(p, ref.Model)})
	}
	answerGen, err := buildGroupGenerator(providers, cfg.Answer)
	if err != nil {
		return nil, err
	}
	entityGen, err := buildGroupGenerator(providers, cfg.Entity)
	if err != nil {
		return nil, err
	}
	emb := NewGroupEmbedder(embedEntries)
	if emb == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	emb = WrapLruCacheToEmbedder(emb, cfg.EmbedCache.Size, time.Duration(cfg.EmbedCache.TTLSeconds)*time.Second)
	return NewManager(emb, NewAnswerer(answerGen), NewEntityRecognizer(entityGen), ManagerConfig{
		Timeout:       cfg.Timeout,
		MaxInputChars: cfg.MaxInputChars,
	}), nil
}

func buildGroupGenerator(providers map[string]IProvider, refs []config.ModelRef) (IGenerator, error) {
	entries := make([]GeneratorEntry, 0, len(refs))
	for _, ref := range refs {
		p, ok := providers[ref.Provider]
		if !ok {
			return nil, fmt.Errorf("unknown ai provider: %s", ref.Provider)
		}
		entries = append(entries, GeneratorEntry{Name: ref.Provider + "/" + ref.Model, Generator: NewGenerator(p, ref.Model)})
	}
	gen := NewGroupGenerator(entries)
	if gen == nil {
		return nil, fmt.Errorf("generator not configured")
	}
	return gen, nil
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
	}
	return context.WithCancel(ctx)
}

func (m *Manager) truncate(text string) string {
	if m.cfg.MaxInputChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= m.cfg.MaxInputChars {
		return text
	}
	return string(runes[:m.cfg.MaxInputChars])
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	vec, err := m.embedder.Embed(ctx, m.truncate(text), taskType)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("empty embedding")
	}
	return vec, nil
}

func (m *Manager) Answer(ctx context.Context, question string, passage string) (*model.Answer, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return m.answerer.Answer(ctx, question, m.truncate(passage))
}

func (m *Manager) Recognize(ctx context.Context, text string) ([]model.Entity, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return m.recognizer.Recognize(ctx, m.truncate(text))
}

func (m *Manager) EmbeddingModelName() string {
	return m.embedder.ModelName()
}
