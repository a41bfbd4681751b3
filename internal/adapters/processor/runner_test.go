package processor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/pressqueue/config"
	"github.com/target/pressqueue/internal/domain/model"
	"github.com/target/pressqueue/internal/mocks"
)

func TestNewRunner_RequiresDatabase(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database connection is required")
}

func TestNewRunner_RequiresGeneratorKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	_, err := NewRunner(RunnerOptions{
		Schedule: mocks.NewMockScheduleStore(ctrl),
		Ledger:   mocks.NewMockJobLedger(ctrl),
		Sites:    mocks.NewMockSiteResolver(ctrl),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create content generator")
}

func TestRunner_IdleCycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	schedule := mocks.NewMockScheduleStore(ctrl)
	schedule.EXPECT().FindDueCampaigns(gomock.Any(), gomock.Any(), 50).Return([]*model.Campaign{}, nil)

	r, err := NewRunner(RunnerOptions{
		Schedule:      schedule,
		Ledger:        mocks.NewMockJobLedger(ctrl),
		Sites:         mocks.NewMockSiteResolver(ctrl),
		ContentClient: mocks.NewMockContentGenerator(ctrl),
		Publish:       mocks.NewMockPublisher(ctrl),
		Config:        config.ProcessorConfig{Interval: time.Minute, BatchSize: 50},
	})
	require.NoError(t, err)

	res, err := r.Processor().RunCycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Due)
	assert.False(t, res.Skipped)
}
