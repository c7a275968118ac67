package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/docstore"
	"github.com/xxxsen/docqa/internal/filestore"
	"github.com/xxxsen/docqa/internal/index"
	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/pkg/sanitize"
)

type DocumentExtractor interface {
	Extract(ctx context.Context, identifier string, data []byte) (string, error)
}

type TextEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
}

// RetrievalService owns the document store and the vector index and answers
// questions from the single nearest document.
type RetrievalService struct {
	extractor      DocumentExtractor
	docs           docstore.Store
	index          *index.Index
	embedder       TextEmbedder
	answerer       ai.IAnswerer
	recognizer     ai.IEntityRecognizer
	archive        filestore.Store
	extractTimeout time.Duration
}

func NewRetrievalService(extractor DocumentExtractor, docs docstore.Store, idx *index.Index, embedder TextEmbedder, answerer ai.IAnswerer, recognizer ai.IEntityRecognizer, archive filestore.Store, extractTimeout time.Duration) *RetrievalService {
	return &RetrievalService{
		extractor:      extractor,
		docs:           docs,
		index:          idx,
		embedder:       embedder,
		answerer:       answerer,
		recognizer:     recognizer,
		archive:        archive,
		extractTimeout: extractTimeout,
	}
}

// Ingest extracts, stores and indexes one document. A failure after the
// document store write leaves the text stored but unindexed; the audit job
// reports such entries.
func (s *RetrievalService) Ingest(ctx context.Context, identifier string, data []byte) (*model.IngestResult, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("identifier", identifier))
	text, err := s.extract(ctx, identifier, data)
	if err != nil {
		return nil, err
	}
	s.archiveRaw(ctx, identifier, data)
	if err := s.docs.Put(ctx, identifier, text); err != nil {
		return nil, err
	}
	vec, err := s.embedder.Embed(ctx, text, ai.TaskDocument)
	if err != nil {
		logger.Error("embed document failed, document stored but not indexed", zap.Error(err))
		return nil, fmt.Errorf("embed document: %w", err)
	}
	pos, err := s.index.Append(ctx, identifier, vec)
	if err != nil {
		logger.Error("index append failed, document stored but not indexed", zap.Error(err))
		return nil, err
	}
	logger.Info("document ingested", zap.Int("position", pos), zap.Int("text_len", len(text)))
	return &model.IngestResult{Identifier: identifier, Text: text, Position: pos}, nil
}

func (s *RetrievalService) extract(ctx context.Context, identifier string, data []byte) (string, error) {
	if s.extractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.extractTimeout)
		defer cancel()
	}
	return s.extractor.Extract(ctx, identifier, data)
}

func (s *RetrievalService) archiveRaw(ctx context.Context, identifier string, data []byte) {
	if s.archive == nil {
		return
	}
	key := filestore.ArchiveKey(identifier)
	if err := s.archive.Save(ctx, key, data); err != nil {
		logutil.GetLogger(ctx).Warn("archive upload failed", zap.String("identifier", identifier), zap.String("key", key), zap.Error(err))
	}
}

// RetrieveContext returns the stored text of the document nearest to the
// question. found is false when the index is empty, the position has no
// identifier, or the stored text is missing or empty.
func (s *RetrievalService) RetrieveContext(ctx context.Context, question string) (string, bool, error) {
	vec, err := s.embedder.Embed(ctx, question, ai.TaskQuery)
	if err != nil {
		return "", false, fmt.Errorf("embed question: %w", err)
	}
	hits, err := s.index.Search(vec, 1)
	if err != nil {
		return "", false, err
	}
	if len(hits) == 0 {
		return "", false, nil
	}
	identifier, ok := s.index.Lookup(hits[0].Position)
	if !ok {
		return "", false, nil
	}
	text, ok, err := s.docs.Get(ctx, identifier)
	if err != nil {
		return "", false, err
	}
	if !ok || text == "" {
		return "", false, nil
	}
	logutil.GetLogger(ctx).Debug("context retrieved", zap.String("identifier", identifier), zap.Float64("distance", hits[0].Distance))
	return text, true, nil
}

func (s *RetrievalService) Answer(ctx context.Context, question string) (*model.QueryResult, error) {
	question = sanitize.Question(question)
	if question == "" {
		return nil, appErr.ErrInvalid
	}
	passage, found, err := s.RetrieveContext(ctx, question)
	if err != nil {
		return nil, err
	}
	if !found {
		return &model.QueryResult{Question: question, Answer: model.NoContextAnswer, Entities: []model.Entity{}}, nil
	}
	ans, err := s.answerer.Answer(ctx, question, passage)
	if err != nil {
		return nil, fmt.Errorf("answer question: %w", err)
	}
	entities, err := s.recognizer.Recognize(ctx, ans.Text)
	if err != nil {
		return nil, fmt.Errorf("recognize entities: %w", err)
	}
	if entities == nil {
		entities = []model.Entity{}
	}
	logutil.GetLogger(ctx).Info("question answered", zap.Float64("confidence", ans.Confidence), zap.Int("entities", len(entities)))
	return &model.QueryResult{Question: question, Answer: ans.Text, Entities: entities}, nil
}

func (s *RetrievalService) Stats(ctx context.Context) (*model.IndexStats, error) {
	count, err := s.docs.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &model.IndexStats{
		Documents: count,
		Vectors:   s.index.Size(),
		Dimension: s.index.Dimension(),
	}, nil
}

// Audit lists indexed identifiers whose text is absent from the document store.
func (s *RetrievalService) Audit(ctx context.Context) (*model.AuditReport, error) {
	ids := s.index.Identifiers()
	report := &model.AuditReport{Vectors: len(ids), Missing: []string{}}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok, err := s.docs.Get(ctx, id); err != nil {
			return nil, err
		} else if !ok {
			report.Missing = append(report.Missing, id)
		}
	}
	report.Identifiers = len(seen)
	return report, nil
}
