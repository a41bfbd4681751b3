package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/data/cryptoutil"
	"github.com/target/pressqueue/internal/domain/model"
	"github.com/target/pressqueue/internal/testutil"
)

func TestSiteRepo_CreateGetDelete(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		enc, err := cryptoutil.NewAESGCMEncryptor([]byte("0123456789abcdef0123456789abcdef"))
		require.NoError(t, err)
		repo := NewSiteRepo(db, enc)

		name := testutil.UniqueName("blog")
		site, err := repo.Create(ctx, &model.CreateSiteRequest{
			Name:        name,
			BaseURL:     "https://blog.example.com/",
			Username:    "editor",
			AppPassword: "abcd efgh ijkl",
			CategoryIDs: []int64{3, 7},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://blog.example.com", site.BaseURL)
		assert.Equal(t, model.PostStatusPublish, site.DefaultStatus)

		var stored string
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT app_password_encrypted FROM sites WHERE id = $1`, site.ID).Scan(&stored))
		assert.NotContains(t, stored, "abcd")

		got, err := repo.GetSite(ctx, site.ID)
		require.NoError(t, err)
		assert.Equal(t, "abcd efgh ijkl", got.AppPassword)
		assert.Equal(t, []int64{3, 7}, got.CategoryIDs)

		_, err = repo.Create(ctx, &model.CreateSiteRequest{
			Name: name, BaseURL: "https://other.example.com", Username: "u", AppPassword: "p",
		})
		assert.ErrorIs(t, err, ErrSiteNameExists)

		deleted, err := repo.Delete(ctx, site.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = repo.GetSite(ctx, site.ID)
		assert.ErrorIs(t, err, core.ErrSiteNotFound)
	})
}
