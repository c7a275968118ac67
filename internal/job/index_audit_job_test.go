package job

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docqa/internal/model"
)

type fakeAuditor struct {
	report *model.AuditReport
	err    error
	calls  int
}

func (f *fakeAuditor) Audit(ctx context.Context) (*model.AuditReport, error) {
	f.calls++
	return f.report, f.err
}

func TestIndexAuditJob_Run(t *testing.T) {
	missing := make([]string, 30)
	for i := range missing {
		missing[i] = "doc.pdf"
	}
	auditor := &fakeAuditor{report: &model.AuditReport{Vectors: 40, Identifiers: 35, Missing: missing}}
	job := NewIndexAuditJob(auditor)
	require.Equal(t, "index_audit", job.Name())
	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, 1, auditor.calls)
	require.Len(t, auditor.report.Missing, 30)

	clean := &fakeAuditor{report: &model.AuditReport{Missing: []string{}}}
	require.NoError(t, NewIndexAuditJob(clean).Run(context.Background()))
}

func TestIndexAuditJob_PropagatesError(t *testing.T) {
	cause := errors.New("redis down")
	err := NewIndexAuditJob(&fakeAuditor{err: cause}).Run(context.Background())
	require.ErrorIs(t, err, cause)
}
