package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
)

const journalWriteTimeout = 10 * time.Second

// Index is an append-only store of embedded documents addressed by position.
// The identifier and the vector of a position live in the same record, so the
// vector count and the identifier count can never diverge.
type Index struct {
	mu        sync.RWMutex
	dimension int
	records   []model.Record
	journal   Journal
}

// New returns an index without durable backing. A zero dimension is fixed by the first append.
func New(dimension int) *Index {
	return &Index{dimension: dimension, journal: memoryJournal{}}
}

// Open builds an index and replays every record already held by the journal.
func Open(ctx context.Context, dimension int, journal Journal) (*Index, error) {
	if dimension < 0 {
		return nil, fmt.Errorf("invalid index dimension: %d", dimension)
	}
	if journal == nil {
		journal = memoryJournal{}
	}
	x := &Index{dimension: dimension, journal: journal}
	err := journal.Load(ctx, func(rec model.Record) error {
		if rec.Position != len(x.records) {
			return fmt.Errorf("journal gap: expected position %d, got %d", len(x.records), rec.Position)
		}
		if err := x.checkDimensionLocked(rec.Vector); err != nil {
			return fmt.Errorf("journal record %d: %w", rec.Position, err)
		}
		x.records = append(x.records, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("replay index journal: %w", err)
	}
	logutil.GetLogger(ctx).Info("vector index loaded",
		zap.Int("records", len(x.records)),
		zap.Int("dimension", x.dimension),
	)
	return x, nil
}

func (x *Index) checkDimensionLocked(vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector", appErr.ErrDimensionMismatch)
	}
	if x.dimension == 0 {
		x.dimension = len(vector)
		return nil
	}
	if len(vector) != x.dimension {
		return fmt.Errorf("%w: expected %d, got %d", appErr.ErrDimensionMismatch, x.dimension, len(vector))
	}
	return nil
}

// Append stores identifier and vector at the next position and returns that position.
// The journal is written before the record becomes visible; on journal failure the record is not
// appended. Records found already journaled past the in-memory tail are adopted first.
func (x *Index) Append(ctx context.Context, identifier string, vector []float32) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	learned := x.dimension == 0
	if err := x.checkDimensionLocked(vector); err != nil {
		return -1, err
	}
	rec := model.Record{
		Position:   len(x.records),
		Identifier: identifier,
		Vector:     append([]float32(nil), vector...),
	}
	err := x.writeJournal(ctx, rec)
	if errors.Is(err, ErrPositionTaken) {
		// An earlier write reached the journal but reported failure.
		if err = x.reloadTailLocked(ctx); err == nil {
			last := x.records[len(x.records)-1]
			if sameRecord(last, rec) {
				return last.Position, nil
			}
			rec.Position = len(x.records)
			err = x.writeJournal(ctx, rec)
		}
	}
	if err != nil {
		if learned && len(x.records) == 0 {
			x.dimension = 0
		}
		return -1, fmt.Errorf("journal append: %w: %w", appErr.ErrStorageUnavailable, err)
	}
	x.records = append(x.records, rec)
	return rec.Position, nil
}

// writeJournal detaches the write from request cancellation so a cancelled
// request cannot leave a record journaled but unacknowledged.
func (x *Index) writeJournal(ctx context.Context, rec model.Record) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalWriteTimeout)
	defer cancel()
	return x.journal.Append(ctx, rec)
}

// reloadTailLocked adopts every journaled record past the in-memory tail.
func (x *Index) reloadTailLocked(ctx context.Context) error {
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalWriteTimeout)
	defer cancel()
	adopted := make([]model.Record, 0, 1)
	err := x.journal.Load(loadCtx, func(rec model.Record) error {
		next := len(x.records) + len(adopted)
		if rec.Position < len(x.records) {
			return nil
		}
		if rec.Position != next {
			return fmt.Errorf("journal gap: expected position %d, got %d", next, rec.Position)
		}
		if err := x.checkDimensionLocked(rec.Vector); err != nil {
			return fmt.Errorf("journal record %d: %w", rec.Position, err)
		}
		adopted = append(adopted, rec)
		return nil
	})
	if err != nil {
		return fmt.Errorf("reload journal tail: %w", err)
	}
	if len(adopted) == 0 {
		return fmt.Errorf("journal reported a taken position but holds no new records")
	}
	for _, rec := range adopted {
		logutil.GetLogger(ctx).Warn("adopted journaled record missing from memory",
			zap.Int("position", rec.Position),
			zap.String("identifier", rec.Identifier),
		)
	}
	x.records = append(x.records, adopted...)
	return nil
}

func sameRecord(a, b model.Record) bool {
	if a.Identifier != b.Identifier || len(a.Vector) != len(b.Vector) {
		return false
	}
	for i := range a.Vector {
		if a.Vector[i] != b.Vector[i] {
			return false
		}
	}
	return true
}

// Search returns up to k hits ordered by ascending squared euclidean distance.
// Equal distances keep append order. An empty index yields an empty slice.
func (x *Index) Search(query []float32, k int) ([]model.Hit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if k <= 0 || len(x.records) == 0 {
		return []model.Hit{}, nil
	}
	if len(query) != x.dimension {
		return nil, fmt.Errorf("%w: query has %d, index has %d", appErr.ErrDimensionMismatch, len(query), x.dimension)
	}
	if k == 1 {
		best := model.Hit{Position: 0, Distance: squaredEuclidean(query, x.records[0].Vector)}
		for i := 1; i < len(x.records); i++ {
			d := squaredEuclidean(query, x.records[i].Vector)
			if d < best.Distance {
				best = model.Hit{Position: i, Distance: d}
			}
		}
		return []model.Hit{best}, nil
	}
	hits := make([]model.Hit, len(x.records))
	for i, rec := range x.records {
		hits[i] = model.Hit{Position: i, Distance: squaredEuclidean(query, rec.Vector)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Lookup returns the identifier stored at position, or false when out of range.
func (x *Index) Lookup(position int) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if position < 0 || position >= len(x.records) {
		return "", false
	}
	return x.records[position].Identifier, true
}

func (x *Index) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.records)
}

func (x *Index) Dimension() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dimension
}

// Identifiers returns the identifier of every position, in position order.
func (x *Index) Identifiers() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	ids := make([]string, len(x.records))
	for i, rec := range x.records {
		ids[i] = rec.Identifier
	}
	return ids
}

func (x *Index) Close() error {
	return x.journal.Close()
}

func squaredEuclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
