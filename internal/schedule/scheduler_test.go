package schedule

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingJob struct {
	mu    sync.Mutex
	runs  int
	block chan struct{}
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.mu.Lock()
	j.runs++
	j.mu.Unlock()
	if j.block != nil {
		<-j.block
	}
	return nil
}

func TestCronScheduler_AddJob(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{}
	require.NoError(t, s.AddJob(job, "*/30 * * * *"))
	require.Error(t, s.AddJob(job, "@every 1m"))
	require.Error(t, s.AddJob(&namedJob{name: "bad"}, "not a spec"))
	require.NoError(t, s.AddJob(&namedJob{name: "hourly"}, "@hourly"))
}

func TestCronScheduler_WrapSkipsOverlappingRuns(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{block: make(chan struct{})}
	run := s.wrap(job, "@every 1m")

	done := make(chan struct{})
	go func() {
		run()
		close(done)
	}()
	for {
		job.mu.Lock()
		started := job.runs == 1
		job.mu.Unlock()
		if started {
			break
		}
	}
	run()
	close(job.block)
	<-done

	require.Equal(t, 1, job.runs)
}

func TestCronScheduler_StartStop(t *testing.T) {
	s := NewCronScheduler()
	s.Start(context.Background())
	ctx := s.jobContext()
	s.Stop()
	require.Error(t, ctx.Err())
}

type namedJob struct {
	name string
}

func (j *namedJob) Name() string                  { return j.name }
func (j *namedJob) Run(ctx context.Context) error { return nil }
