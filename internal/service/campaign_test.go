package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/domain/model"
	apperrors "github.com/target/pressqueue/internal/errors"
	"github.com/target/pressqueue/internal/mocks"
	"github.com/target/pressqueue/internal/testutil"
)

func TestCampaignService_CreateScheduleBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		hours   float64
		wantErr bool
	}{
		{"minimum accepted", 0.10, false},
		{"maximum accepted", 168.00, false},
		{"below minimum", 0.05, true},
		{"above maximum", 200.00, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockCampaignRepository(ctrl)
			svc := NewCampaignService(CampaignServiceOptions{Repo: repo})

			if !tt.wantErr {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, c *model.Campaign) (*model.Campaign, error) {
						return c, nil
					})
			}

			c, err := svc.Create(context.Background(), &model.CreateCampaignRequest{
				Topic:         "home espresso",
				IntervalHours: testutil.Float64Ptr(tt.hours),
			})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsValidation(err))
				assert.Equal(t, "interval_hours", apperrors.GetField(err))
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.hours, c.IntervalHours.Hours(), 0.0001)
		})
	}
}

func TestCampaignService_CreateNormalizesLegacySchedule(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockCampaignRepository(ctrl)
	svc := NewCampaignService(CampaignServiceOptions{Repo: repo})

	var stored *model.Campaign
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, c *model.Campaign) (*model.Campaign, error) {
			stored = c
			return c, nil
		})

	_, err := svc.Create(context.Background(), &model.CreateCampaignRequest{
		Topic:        "  home espresso ",
		Schedule:     testutil.StringPtr("24.00h"),
		ContentTypes: []string{" Listicle "},
		SiteID:       testutil.StringPtr(" "),
	})
	require.NoError(t, err)

	require.NotNil(t, stored.IntervalHours)
	assert.Equal(t, model.IntervalHours(2400), *stored.IntervalHours)
	assert.Nil(t, stored.LegacySchedule)
	assert.Equal(t, "home espresso", stored.Topic)
	assert.Equal(t, []string{"listicle"}, stored.ContentTypes)
	assert.Nil(t, stored.SiteID)
	assert.True(t, stored.Active)
	assert.True(t, stored.NextDueAt.IsZero(), "repository stamps now")
}

func TestCampaignService_CreateRejectsUnknownContentTypes(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewCampaignService(CampaignServiceOptions{Repo: mocks.NewMockCampaignRepository(ctrl)})

	_, err := svc.Create(context.Background(), &model.CreateCampaignRequest{
		Topic:         "x",
		IntervalHours: testutil.Float64Ptr(1),
		ContentTypes:  []string{"listicle", "sonnet"},
	})
	require.Error(t, err)
	assert.Equal(t, "content_types", apperrors.GetField(err))
	assert.Contains(t, err.Error(), "sonnet")
}

func TestCampaignService_CreateRequiresSchedule(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewCampaignService(CampaignServiceOptions{Repo: mocks.NewMockCampaignRepository(ctrl)})

	_, err := svc.Create(context.Background(), &model.CreateCampaignRequest{Topic: "x"})
	require.ErrorIs(t, err, model.ErrScheduleNotConfigured)
	assert.True(t, apperrors.IsValidation(err))
}

func TestCampaignService_UpdateSchedule(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockCampaignRepository(ctrl)
	svc := NewCampaignService(CampaignServiceOptions{Repo: repo})

	updated := testutil.NewCampaign().WithInterval(2.5).Build()
	repo.EXPECT().UpdateInterval(gomock.Any(), "camp-1", model.IntervalHours(250)).Return(updated, nil)

	c, err := svc.UpdateSchedule(context.Background(), "camp-1", &model.UpdateScheduleRequest{
		IntervalHours: testutil.Float64Ptr(2.5),
	})
	require.NoError(t, err)
	assert.Equal(t, updated, c)

	_, err = svc.UpdateSchedule(context.Background(), "camp-1", &model.UpdateScheduleRequest{
		Schedule: testutil.StringPtr("169h"),
	})
	assert.ErrorIs(t, err, model.ErrIntervalOutOfRange)
}

func TestCampaignService_NotFoundIsMapped(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockCampaignRepository(ctrl)
	svc := NewCampaignService(CampaignServiceOptions{Repo: repo})

	repo.EXPECT().SetActive(gomock.Any(), "missing", false).Return(nil, core.ErrCampaignNotFound)

	_, err := svc.Deactivate(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.ErrorIs(t, err, core.ErrCampaignNotFound)
}

func TestCampaignService_DeactivatedCampaignIsNotPickedUp(t *testing.T) {
	c := testutil.NewCampaign().Build()
	h := newHarness(c)

	ctrl := gomock.NewController(t)
	repo := mocks.NewMockCampaignRepository(ctrl)
	repo.EXPECT().SetActive(gomock.Any(), c.ID, false).DoAndReturn(
		func(context.Context, string, bool) (*model.Campaign, error) {
			h.schedule.mu.Lock()
			h.schedule.campaigns[c.ID].Active = false
			h.schedule.mu.Unlock()
			return c, nil
		})
	svc := NewCampaignService(CampaignServiceOptions{Repo: repo})

	_, err := svc.Deactivate(context.Background(), c.ID)
	require.NoError(t, err)

	h.clock.AddTime(time.Hour)
	res, err := h.processor().RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Due)
}
