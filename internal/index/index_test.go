package index

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docqa/internal/config"
	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
)

type failingJournal struct {
	memoryJournal
	err error
}

func (f failingJournal) Append(ctx context.Context, rec model.Record) error {
	return f.err
}

type sliceJournal struct {
	memoryJournal
	records []model.Record
}

func (s *sliceJournal) Load(ctx context.Context, fn func(model.Record) error) error {
	for _, rec := range s.records {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// lossyAckJournal keeps records in memory. While failAfterSave is set, an
// append is stored and then reported as failed.
type lossyAckJournal struct {
	mu            sync.Mutex
	records       []model.Record
	failAfterSave error
	ctxErrs       []error
}

func (j *lossyAckJournal) Load(ctx context.Context, fn func(model.Record) error) error {
	j.mu.Lock()
	records := append([]model.Record(nil), j.records...)
	j.mu.Unlock()
	for _, rec := range records {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func (j *lossyAckJournal) Append(ctx context.Context, rec model.Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ctxErrs = append(j.ctxErrs, ctx.Err())
	if rec.Position < len(j.records) {
		return fmt.Errorf("position %d: %w", rec.Position, ErrPositionTaken)
	}
	j.records = append(j.records, rec)
	if err := j.failAfterSave; err != nil {
		j.failAfterSave = nil
		return err
	}
	return nil
}

func (j *lossyAckJournal) Close() error {
	return nil
}

func TestAppend_RecoversFromSavedButFailedJournalWrite(t *testing.T) {
	journal := &lossyAckJournal{failAfterSave: context.DeadlineExceeded}
	x, err := Open(context.Background(), 0, journal)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = x.Append(ctx, "lost-ack.pdf", []float32{1, 1})
	require.ErrorIs(t, err, appErr.ErrStorageUnavailable)
	require.Zero(t, x.Size())

	for i, id := range []string{"b.pdf", "c.pdf", "d.pdf"} {
		pos, err := x.Append(ctx, id, []float32{float32(i), 0})
		require.NoError(t, err)
		require.Equal(t, i+1, pos)
	}
	require.Equal(t, []string{"lost-ack.pdf", "b.pdf", "c.pdf", "d.pdf"}, x.Identifiers())
	require.Len(t, journal.records, x.Size())

	reopened, err := Open(ctx, 0, journal)
	require.NoError(t, err)
	require.Equal(t, x.Identifiers(), reopened.Identifiers())
}

func TestAppend_RetryOfSavedRecordIsNotDuplicated(t *testing.T) {
	journal := &lossyAckJournal{failAfterSave: errors.New("connection reset")}
	x, err := Open(context.Background(), 2, journal)
	require.NoError(t, err)

	_, err = x.Append(context.Background(), "a.pdf", []float32{1, 2})
	require.Error(t, err)

	pos, err := x.Append(context.Background(), "a.pdf", []float32{1, 2})
	require.NoError(t, err)
	require.Equal(t, 0, pos)
	require.Equal(t, 1, x.Size())
	require.Len(t, journal.records, 1)
}

func TestAppend_JournalWriteIgnoresRequestCancel(t *testing.T) {
	journal := &lossyAckJournal{}
	x, err := Open(context.Background(), 1, journal)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = x.Append(ctx, "a.pdf", []float32{1})
	require.NoError(t, err)
	require.Equal(t, []error{nil}, journal.ctxErrs)
}

func TestSearch_EmptyIndex(t *testing.T) {
	x := New(3)
	hits, err := x.Search([]float32{1, 2, 3}, 1)
	require.NoError(t, err)
	require.NotNil(t, hits)
	require.Empty(t, hits)
}

func TestAppend_AssignsPositionsInOrder(t *testing.T) {
	x := New(2)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		pos, err := x.Append(ctx, fmt.Sprintf("doc-%d.pdf", i), []float32{float32(i), 0})
		require.NoError(t, err)
		require.Equal(t, i, pos)
		require.Equal(t, i+1, x.Size())
		require.Len(t, x.Identifiers(), x.Size())
	}
	id, ok := x.Lookup(3)
	require.True(t, ok)
	require.Equal(t, "doc-3.pdf", id)
}

func TestAppend_DimensionMismatch(t *testing.T) {
	x := New(3)
	_, err := x.Append(context.Background(), "a.pdf", []float32{1, 2})
	require.ErrorIs(t, err, appErr.ErrDimensionMismatch)
	_, err = x.Append(context.Background(), "a.pdf", nil)
	require.ErrorIs(t, err, appErr.ErrDimensionMismatch)
	require.Zero(t, x.Size())
}

func TestAppend_LearnsDimensionFromFirstVector(t *testing.T) {
	x := New(0)
	_, err := x.Append(context.Background(), "a.pdf", []float32{1, 2, 3, 4})
	require.NoError(t, err)
	require.Equal(t, 4, x.Dimension())
	_, err = x.Append(context.Background(), "b.pdf", []float32{1, 2, 3})
	require.ErrorIs(t, err, appErr.ErrDimensionMismatch)
}

func TestAppend_CopiesVector(t *testing.T) {
	x := New(2)
	vec := []float32{1, 1}
	_, err := x.Append(context.Background(), "a.pdf", vec)
	require.NoError(t, err)
	vec[0] = 100
	hits, err := x.Search([]float32{1, 1}, 1)
	require.NoError(t, err)
	require.Equal(t, 0.0, hits[0].Distance)
}

func TestAppend_JournalFailureLeavesIndexUnchanged(t *testing.T) {
	cause := errors.New("disk full")
	x, err := Open(context.Background(), 0, failingJournal{err: cause})
	require.NoError(t, err)

	_, err = x.Append(context.Background(), "a.pdf", []float32{1, 2})
	require.ErrorIs(t, err, appErr.ErrStorageUnavailable)
	require.ErrorIs(t, err, cause)
	require.Zero(t, x.Size())
	require.Empty(t, x.Identifiers())
	require.Zero(t, x.Dimension())
}

func TestSearch_NearestBySquaredEuclidean(t *testing.T) {
	x := New(2)
	ctx := context.Background()
	_, err := x.Append(ctx, "far.pdf", []float32{10, 10})
	require.NoError(t, err)
	_, err = x.Append(ctx, "near.pdf", []float32{1, 2})
	require.NoError(t, err)

	hits, err := x.Search([]float32{0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Position)
	assert.Equal(t, 5.0, hits[0].Distance)
}

func TestSearch_TieResolvesToLowerPosition(t *testing.T) {
	x := New(2)
	ctx := context.Background()
	_, err := x.Append(ctx, "first.pdf", []float32{1, 0})
	require.NoError(t, err)
	_, err = x.Append(ctx, "second.pdf", []float32{-1, 0})
	require.NoError(t, err)
	_, err = x.Append(ctx, "third.pdf", []float32{0, 1})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		hits, err := x.Search([]float32{0, 0}, 1)
		require.NoError(t, err)
		require.Equal(t, 0, hits[0].Position)
	}

	hits, err := x.Search([]float32{0, 0}, 3)
	require.NoError(t, err)
	require.Equal(t, []model.Hit{
		{Position: 0, Distance: 1},
		{Position: 1, Distance: 1},
		{Position: 2, Distance: 1},
	}, hits)
}

func TestSearch_TopKOrderAndBounds(t *testing.T) {
	x := New(1)
	ctx := context.Background()
	for _, v := range []float32{5, 1, 3} {
		_, err := x.Append(ctx, fmt.Sprintf("%v.pdf", v), []float32{v})
		require.NoError(t, err)
	}
	hits, err := x.Search([]float32{0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, []int{1, 2, 0}, []int{hits[0].Position, hits[1].Position, hits[2].Position})

	hits, err = x.Search([]float32{0}, 0)
	require.NoError(t, err)
	require.Empty(t, hits)

	_, err = x.Search([]float32{0, 0}, 1)
	require.ErrorIs(t, err, appErr.ErrDimensionMismatch)
}

func TestLookup_OutOfRange(t *testing.T) {
	x := New(1)
	_, err := x.Append(context.Background(), "a.pdf", []float32{1})
	require.NoError(t, err)
	for _, pos := range []int{-1, 1, 100} {
		_, ok := x.Lookup(pos)
		require.False(t, ok, "position %d", pos)
	}
}

func TestOpen_ReplaysJournal(t *testing.T) {
	journal := &sliceJournal{records: []model.Record{
		{Position: 0, Identifier: "a.pdf", Vector: []float32{0, 0}},
		{Position: 1, Identifier: "b.png", Vector: []float32{5, 5}},
	}}
	x, err := Open(context.Background(), 0, journal)
	require.NoError(t, err)
	require.Equal(t, 2, x.Size())
	require.Equal(t, 2, x.Dimension())
	id, ok := x.Lookup(1)
	require.True(t, ok)
	require.Equal(t, "b.png", id)
}

func TestOpen_RejectsGapsAndMismatches(t *testing.T) {
	_, err := Open(context.Background(), 0, &sliceJournal{records: []model.Record{
		{Position: 1, Identifier: "a.pdf", Vector: []float32{0}},
	}})
	require.ErrorContains(t, err, "journal gap")

	_, err = Open(context.Background(), 3, &sliceJournal{records: []model.Record{
		{Position: 0, Identifier: "a.pdf", Vector: []float32{0}},
	}})
	require.ErrorIs(t, err, appErr.ErrDimensionMismatch)
}

func TestBoltJournal_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "records.db")
	journal, err := NewJournal(config.PluginConfig{Type: "bolt", Data: map[string]interface{}{"path": path}})
	require.NoError(t, err)

	ctx := context.Background()
	x, err := Open(ctx, 2, journal)
	require.NoError(t, err)
	for i := 0; i < 300; i++ {
		_, err := x.Append(ctx, fmt.Sprintf("doc-%03d.pdf", i), []float32{float32(i), float32(-i)})
		require.NoError(t, err)
	}
	require.NoError(t, x.Close())

	journal, err = OpenBoltJournal(path)
	require.NoError(t, err)
	reopened, err := Open(ctx, 2, journal)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, 300, reopened.Size())
	id, ok := reopened.Lookup(257)
	require.True(t, ok)
	require.Equal(t, "doc-257.pdf", id)

	hits, err := reopened.Search([]float32{42, -42}, 1)
	require.NoError(t, err)
	require.Equal(t, 42, hits[0].Position)

	pos, err := reopened.Append(ctx, "next.pdf", []float32{1, 1})
	require.NoError(t, err)
	require.Equal(t, 300, pos)
}

func TestBoltJournal_RejectsDuplicatePosition(t *testing.T) {
	journal, err := OpenBoltJournal(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	defer journal.Close()
	rec := model.Record{Position: 0, Identifier: "a.pdf", Vector: []float32{1}}
	require.NoError(t, journal.Append(context.Background(), rec))
	require.ErrorIs(t, journal.Append(context.Background(), rec), ErrPositionTaken)
}

func TestNewJournal_UnknownType(t *testing.T) {
	_, err := NewJournal(config.PluginConfig{Type: "faiss"})
	require.ErrorContains(t, err, "unsupported index journal type")
}

func TestConcurrentAppendAndSearch(t *testing.T) {
	x := New(2)
	ctx := context.Background()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, err := x.Append(ctx, fmt.Sprintf("w%d-%d.pdf", w, i), []float32{float32(w), float32(i)})
				assert.NoError(t, err)
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				hits, err := x.Search([]float32{3, 3}, 1)
				assert.NoError(t, err)
				for _, hit := range hits {
					_, ok := x.Lookup(hit.Position)
					assert.True(t, ok)
				}
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 400, x.Size())
	ids := x.Identifiers()
	require.Len(t, ids, 400)
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		require.False(t, seen[id])
		seen[id] = true
	}
}
