package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/model"
)

type Auditor interface {
	Audit(ctx context.Context) (*model.AuditReport, error)
}

// IndexAuditJob reports indexed identifiers that have no stored text. It never repairs.
type IndexAuditJob struct {
	auditor Auditor
	maxLog  int
}

func NewIndexAuditJob(auditor Auditor) *IndexAuditJob {
	return &IndexAuditJob{auditor: auditor, maxLog: 20}
}

func (j *IndexAuditJob) Name() string {
	return "index_audit"
}

func (j *IndexAuditJob) Run(ctx context.Context) error {
	report, err := j.auditor.Audit(ctx)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx).With(
		zap.Int("vectors", report.Vectors),
		zap.Int("identifiers", report.Identifiers),
		zap.Int("missing", len(report.Missing)),
	)
	if len(report.Missing) == 0 {
		logger.Debug("index audit clean")
		return nil
	}
	sample := report.Missing
	if len(sample) > j.maxLog {
		sample = sample[:j.maxLog]
	}
	logger.Warn("index references documents missing from store", zap.Strings("sample", sample))
	return nil
}
