package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/domain/model"
	"github.com/target/pressqueue/internal/mocks"
)

// scriptedTitles returns titles in order and repeats the last one.
type scriptedTitles struct {
	fakeGenerator
	titles []string
	n      int
}

func (g *scriptedTitles) GenerateTitle(context.Context, *model.Campaign) (string, error) {
	t := g.titles[min(g.n, len(g.titles)-1)]
	g.n++
	return t, nil
}

func newTitleService(t *testing.T, gen core.ContentGenerator, cache core.CacheRepository) *TitleService {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockCampaignRepository(ctrl)
	repo.EXPECT().GetByID(gomock.Any(), "camp-1").
		Return(&model.Campaign{ID: "camp-1", Topic: "coffee"}, nil).AnyTimes()
	repo.EXPECT().GetByID(gomock.Any(), gomock.Not("camp-1")).
		Return(nil, core.ErrCampaignNotFound).AnyTimes()

	var history *core.TitleHistory
	if cache != nil {
		history = core.NewTitleHistory(cache, core.TitleHistoryConfig{TTL: time.Hour})
	}
	svc, err := NewTitleService(TitleServiceOptions{Campaigns: repo, Generator: gen, History: history})
	require.NoError(t, err)
	return svc
}

func TestTitleService_Suggest(t *testing.T) {
	t.Run("drops duplicates within one request", func(t *testing.T) {
		gen := &scriptedTitles{titles: []string{"Espresso basics", " espresso BASICS ", "", "Milk steaming"}}
		svc := newTitleService(t, gen, nil)

		titles, err := svc.Suggest(context.Background(), "camp-1", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"Espresso basics", "Milk steaming"}, titles)
	})

	t.Run("skips titles claimed by an earlier request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cache := core.NewMockCacheRepository(ctrl)
		gomock.InOrder(
			cache.EXPECT().SetIfNotExists(gomock.Any(), gomock.Any(), []byte("Old news"), time.Hour).Return(false, nil),
			cache.EXPECT().SetIfNotExists(gomock.Any(), gomock.Any(), []byte("Fresh take"), time.Hour).Return(true, nil),
		)
		gen := &scriptedTitles{titles: []string{"Old news", "Fresh take"}}
		svc := newTitleService(t, gen, cache)

		titles, err := svc.Suggest(context.Background(), "camp-1", 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"Fresh take"}, titles)
	})

	t.Run("cache errors do not block suggestions", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cache := core.NewMockCacheRepository(ctrl)
		cache.EXPECT().SetIfNotExists(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(false, errors.New("redis down"))
		gen := &scriptedTitles{titles: []string{"Only one"}}
		svc := newTitleService(t, gen, cache)

		titles, err := svc.Suggest(context.Background(), "camp-1", 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"Only one"}, titles)
	})

	t.Run("gives up after repeated duplicates", func(t *testing.T) {
		gen := &scriptedTitles{titles: []string{"Same"}}
		svc := newTitleService(t, gen, nil)

		titles, err := svc.Suggest(context.Background(), "camp-1", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"Same"}, titles)
		assert.Equal(t, 9, gen.n)
	})

	t.Run("unknown campaign", func(t *testing.T) {
		svc := newTitleService(t, &scriptedTitles{titles: []string{"x"}}, nil)
		_, err := svc.Suggest(context.Background(), "missing", 1)
		require.ErrorIs(t, err, core.ErrCampaignNotFound)
	})

	t.Run("zero requested", func(t *testing.T) {
		svc := newTitleService(t, &scriptedTitles{titles: []string{"x"}}, nil)
		titles, err := svc.Suggest(context.Background(), "camp-1", 0)
		require.NoError(t, err)
		assert.Empty(t, titles)
	})
}
