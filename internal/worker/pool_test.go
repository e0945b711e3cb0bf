package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/quizforge/internal/models"
)

type funcJob struct {
	name string
	fn   func(context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

func TestPool_RunsSubmittedJobs(t *testing.T) {
	p := NewPool("test", 3, 10)
	p.Start(context.Background())

	var ran atomic.Int32
	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		require.NoError(t, p.Submit(funcJob{name: "count", fn: func(context.Context) error {
			defer wg.Done()
			ran.Add(1)
			return nil
		}}))
	}
	wg.Wait()
	p.Stop()

	assert.Equal(t, int32(5), ran.Load())
}

func TestPool_SubmitRejectsWhenFull(t *testing.T) {
	p := NewPool("test", 1, 1)
	// Not started, so nothing drains the queue.
	noop := funcJob{name: "noop", fn: func(context.Context) error { return nil }}

	require.NoError(t, p.Submit(noop))
	assert.ErrorIs(t, p.Submit(noop), ErrQueueFull)
	assert.Equal(t, 1, p.QueueSize())
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := NewPool("test", 1, 1)
	p.Start(context.Background())
	p.Stop()
	p.Stop()

	err := p.Submit(funcJob{name: "late", fn: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrPoolStopped)
}

func TestPool_SurvivesFailingAndPanickingJobs(t *testing.T) {
	p := NewPool("test", 1, 4)
	p.Start(context.Background())
	defer p.Stop()

	done := make(chan struct{})
	require.NoError(t, p.Submit(funcJob{name: "fail", fn: func(context.Context) error { return errors.New("boom") }}))
	require.NoError(t, p.Submit(funcJob{name: "panic", fn: func(context.Context) error { panic("bad") }}))
	require.NoError(t, p.Submit(funcJob{name: "after", fn: func(context.Context) error {
		close(done)
		return nil
	}}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not recover from failing jobs")
	}
}

type importerFunc func(ctx context.Context, jobID string, req models.ImportRequest) error

func (f importerFunc) Process(ctx context.Context, jobID string, req models.ImportRequest) error {
	return f(ctx, jobID, req)
}

type refresherFunc func(ctx context.Context, userID int64, at time.Time) error

func (f refresherFunc) Refresh(ctx context.Context, userID int64, at time.Time) error {
	return f(ctx, userID, at)
}

func TestJobs_Delegate(t *testing.T) {
	var gotJob string
	imp := &ImportQuizJob{
		Importer: importerFunc(func(_ context.Context, jobID string, req models.ImportRequest) error {
			gotJob = jobID
			assert.Equal(t, "quiz.docx", req.Filename)
			return nil
		}),
		JobID:   "job-1",
		Request: models.ImportRequest{OwnerID: 1, Filename: "quiz.docx"},
	}
	require.NoError(t, imp.Run(context.Background()))
	assert.Equal(t, "job-1", gotJob)
	assert.Equal(t, "import_quiz", imp.Name())

	at := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	refreshErr := errors.New("db down")
	ref := &RefreshLeaderboardJob{
		Refresher: refresherFunc(func(_ context.Context, userID int64, when time.Time) error {
			assert.Equal(t, int64(7), userID)
			assert.True(t, when.Equal(at))
			return refreshErr
		}),
		UserID: 7,
		At:     at,
	}
	assert.ErrorIs(t, ref.Run(context.Background()), refreshErr)
}
