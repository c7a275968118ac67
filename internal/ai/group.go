package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type GeneratorEntry struct {
	Name      string
	Generator IGenerator
}

type EmbedderEntry struct {
	Name     string
	Embedder IEmbedder
}

// firstSuccess calls fn for each entry in order and returns the first successful result.
func firstSuccess[T any](ctx context.Context, kind string, names []string, fn func(i int) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for i, name := range names {
		res, err := fn(i)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return zero, err
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn(kind+" failed, trying next", zap.Int("index", i), zap.String("name", name), zap.Error(err))
	}
	if lastErr == nil {
		return zero, fmt.Errorf("%s not configured", kind)
	}
	return zero, lastErr
}

type groupGenerator struct {
	items []GeneratorEntry
	names []string
}

func NewGroupGenerator(items []GeneratorEntry) IGenerator {
	valid := make([]GeneratorEntry, 0, len(items))
	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.Generator == nil {
			continue
		}
		valid = append(valid, item)
		names = append(names, item.Name)
	}
	if len(valid) == 0 {
		return nil
	}
	return &groupGenerator{items: valid, names: names}
}

func (g *groupGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return firstSuccess(ctx, "generator", g.names, func(i int) (string, error) {
		return g.items[i].Generator.Generate(ctx, prompt)
	})
}

// groupEmbedder falls back across embedders. All members must produce vectors of the
// same dimension since the index dimension is fixed.
type groupEmbedder struct {
	items []EmbedderEntry
	names []string
}

func NewGroupEmbedder(items []EmbedderEntry) IEmbedder {
	valid := make([]EmbedderEntry, 0, len(items))
	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.Embedder == nil {
			continue
		}
		valid = append(valid, item)
		names = append(names, item.Name)
	}
	if len(valid) == 0 {
		return nil
	}
	return &groupEmbedder{items: valid, names: names}
}

func (g *groupEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return firstSuccess(ctx, "embedder", g.names, func(i int) ([]float32, error) {
		return g.items[i].Embedder.Embed(ctx, text, taskType)
	})
}

func (g *groupEmbedder) ModelName() string {
	return strings.Join(g.names, "|")
}
