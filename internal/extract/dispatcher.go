package extract

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
)

// Extractor turns raw file bytes into text. An empty result is valid output.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// KindReader is implemented by extractors that only read some kinds.
type KindReader interface {
	Reads(kind Kind) bool
}

type Dispatcher struct {
	extractors map[Kind]Extractor
}

func NewDispatcher(extractors map[Kind]Extractor) (*Dispatcher, error) {
	for _, kind := range []Kind{KindPDF, KindImage} {
		if extractors[kind] == nil {
			return nil, fmt.Errorf("no extractor configured for kind %s", kind)
		}
	}
	table := make(map[Kind]Extractor, len(extractors))
	for kind, e := range extractors {
		if r, ok := e.(KindReader); ok && !r.Reads(kind) {
			return nil, fmt.Errorf("extractor configured for kind %s cannot read %s documents", kind, kind)
		}
		table[kind] = e
	}
	return &Dispatcher{extractors: table}, nil
}

func (d *Dispatcher) Extract(ctx context.Context, identifier string, data []byte) (string, error) {
	kind, err := KindFromIdentifier(identifier)
	if err != nil {
		return "", err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("identifier", identifier), zap.String("kind", kind.String()))
	text, err := d.extractors[kind].Extract(ctx, data)
	if err != nil {
		logger.Error("extraction failed", zap.Int("size", len(data)), zap.Error(err))
		return "", fmt.Errorf("extract %s: %w: %w", identifier, appErr.ErrExtractionFailed, err)
	}
	logger.Debug("extraction finished", zap.Int("size", len(data)), zap.Int("text_len", len(text)))
	return text, nil
}
