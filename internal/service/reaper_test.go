package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/pressqueue/config"
	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/domain/model"
	"github.com/target/pressqueue/internal/observability/statsd"
)

// mockReaperRepo returns its configured count on the first call of each task and 0 afterwards.
type mockReaperRepo struct {
	mu sync.Mutex

	failStaleCalled int
	failStaleCount  int64
	failStaleError  error
	failStaleMaxAge time.Duration

	deleteJobsCalls  map[model.ContentJobStatus]int
	deleteJobsCounts map[model.ContentJobStatus]int64
	deleteJobsError  error

	deleteAuditCalled int
	deleteAuditCount  int64
}

func (m *mockReaperRepo) FailStaleJobs(_ context.Context, maxAge time.Duration, _ int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failStaleCalled++
	m.failStaleMaxAge = maxAge
	if m.failStaleError != nil {
		return 0, m.failStaleError
	}
	if m.failStaleCalled == 1 {
		return m.failStaleCount, nil
	}
	return 0, nil
}

func (m *mockReaperRepo) DeleteOldJobs(_ context.Context, params core.DeleteOldJobsParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteJobsCalls == nil {
		m.deleteJobsCalls = make(map[model.ContentJobStatus]int)
	}
	m.deleteJobsCalls[params.Status]++
	if m.deleteJobsError != nil {
		return 0, m.deleteJobsError
	}
	if m.deleteJobsCalls[params.Status] == 1 {
		return m.deleteJobsCounts[params.Status], nil
	}
	return 0, nil
}

func (m *mockReaperRepo) DeleteOldAuditEvents(_ context.Context, _ time.Duration, _ int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteAuditCalled++
	if m.deleteAuditCalled == 1 {
		return m.deleteAuditCount, nil
	}
	return 0, nil
}

func (m *mockReaperRepo) staleCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failStaleCalled
}

func testReaperConfig() config.ReaperConfig {
	return config.ReaperConfig{
		Interval:        5 * time.Minute,
		StaleJobMaxAge:  time.Hour,
		CompletedMaxAge: 30 * 24 * time.Hour,
		FailedMaxAge:    30 * 24 * time.Hour,
		AuditMaxAge:     90 * 24 * time.Hour,
		BatchSize:       1000,
	}
}

func TestNewReaperService(t *testing.T) {
	t.Run("creates service with valid options", func(t *testing.T) {
		svc, err := NewReaperService(ReaperServiceOptions{
			Repo:   &mockReaperRepo{},
			Config: testReaperConfig(),
			Logger: slog.Default(),
		})
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("returns error when repo is nil", func(t *testing.T) {
		_, err := NewReaperService(ReaperServiceOptions{Config: testReaperConfig()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ReaperRepository is required")
	})
}

func TestReaperService_RunOnce(t *testing.T) {
	t.Run("runs every task until batches drain", func(t *testing.T) {
		repo := &mockReaperRepo{
			failStaleCount: 5,
			deleteJobsCounts: map[model.ContentJobStatus]int64{
				model.ContentJobStatusCompleted: 10,
				model.ContentJobStatusFailed:    3,
			},
			deleteAuditCount: 7,
		}
		rec := &statsd.Recorder{}
		svc, err := NewReaperService(ReaperServiceOptions{Repo: repo, Config: testReaperConfig(), Metrics: rec})
		require.NoError(t, err)

		require.NoError(t, svc.RunOnce(context.Background()))

		assert.Equal(t, 2, repo.failStaleCalled)
		assert.Equal(t, time.Hour, repo.failStaleMaxAge)
		assert.Equal(t, 2, repo.deleteJobsCalls[model.ContentJobStatusCompleted])
		assert.Equal(t, 2, repo.deleteJobsCalls[model.ContentJobStatusFailed])
		assert.Equal(t, 2, repo.deleteAuditCalled)

		rows := map[string]float64{}
		for _, m := range rec.Named("reaper.rows") {
			rows[m.Tags["task"]] = m.Value
			assert.Equal(t, "success", m.Tags["result"])
		}
		assert.Equal(t, map[string]float64{
			"fail_stale":       5,
			"delete_completed": 10,
			"delete_failed":    3,
			"delete_audit":     7,
		}, rows)
		assert.Len(t, rec.Named("reaper.last_success_epoch"), 1)
	})

	t.Run("continues on partial errors", func(t *testing.T) {
		repo := &mockReaperRepo{
			failStaleError: errors.New("fail error"),
			deleteJobsCounts: map[model.ContentJobStatus]int64{
				model.ContentJobStatusCompleted: 10,
			},
		}
		rec := &statsd.Recorder{}
		svc, err := NewReaperService(ReaperServiceOptions{Repo: repo, Config: testReaperConfig(), Metrics: rec})
		require.NoError(t, err)

		err = svc.RunOnce(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "fail stale jobs")
		assert.Equal(t, 1, repo.failStaleCalled)
		assert.Equal(t, 2, repo.deleteJobsCalls[model.ContentJobStatusCompleted])
		assert.Equal(t, 1, repo.deleteJobsCalls[model.ContentJobStatusFailed])
		assert.Equal(t, 1, repo.deleteAuditCalled)
		assert.Empty(t, rec.Named("reaper.last_success_epoch"))
	})

	t.Run("skips tasks with retention disabled", func(t *testing.T) {
		repo := &mockReaperRepo{}
		cfg := testReaperConfig()
		cfg.AuditMaxAge = 0
		svc, err := NewReaperService(ReaperServiceOptions{Repo: repo, Config: cfg})
		require.NoError(t, err)

		require.NoError(t, svc.RunOnce(context.Background()))
		assert.Zero(t, repo.deleteAuditCalled)
		assert.Equal(t, 1, repo.failStaleCalled)
	})

	t.Run("cancellation is reported as context.Canceled", func(t *testing.T) {
		repo := &mockReaperRepo{failStaleError: context.Canceled, deleteJobsError: context.Canceled}
		cfg := testReaperConfig()
		cfg.AuditMaxAge = 0
		svc, err := NewReaperService(ReaperServiceOptions{Repo: repo, Config: cfg})
		require.NoError(t, err)

		err = svc.RunOnce(context.Background())
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestReaperService_Run(t *testing.T) {
	t.Run("stops on context cancellation", func(t *testing.T) {
		repo := &mockReaperRepo{}
		cfg := testReaperConfig()
		cfg.Interval = 100 * time.Millisecond
		svc, err := NewReaperService(ReaperServiceOptions{Repo: repo, Config: cfg})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- svc.Run(ctx)
		}()

		time.Sleep(150 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("Run did not stop after context cancellation")
		}
		assert.GreaterOrEqual(t, repo.staleCalls(), 1)
	})

	t.Run("continues running despite cleanup errors", func(t *testing.T) {
		repo := &mockReaperRepo{failStaleError: errors.New("test error")}
		cfg := testReaperConfig()
		cfg.Interval = 50 * time.Millisecond
		svc, err := NewReaperService(ReaperServiceOptions{Repo: repo, Config: cfg})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		err = svc.Run(ctx)

		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.GreaterOrEqual(t, repo.staleCalls(), 2)
	})
}
