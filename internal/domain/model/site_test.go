package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostStatusValid(t *testing.T) {
	assert.True(t, PostStatusPublish.Valid())
	assert.True(t, PostStatusDraft.Valid())
	assert.False(t, PostStatus("private").Valid())
	assert.False(t, PostStatus("").Valid())
}

func TestCreateSiteRequestNormalize(t *testing.T) {
	req := CreateSiteRequest{
		Name:          "  Blog ",
		BaseURL:       " https://blog.example.com/ ",
		Username:      " editor ",
		AppPassword:   " abcd efgh ",
		DefaultStatus: " Draft ",
	}
	req.Normalize()

	assert.Equal(t, "Blog", req.Name)
	assert.Equal(t, "https://blog.example.com", req.BaseURL)
	assert.Equal(t, "editor", req.Username)
	assert.Equal(t, "abcd efgh", req.AppPassword)
	assert.Equal(t, PostStatusDraft, req.DefaultStatus)

	empty := CreateSiteRequest{}
	empty.Normalize()
	assert.Equal(t, PostStatusPublish, empty.DefaultStatus)
}

func TestCreateSiteRequestValidate(t *testing.T) {
	valid := func() CreateSiteRequest {
		return CreateSiteRequest{
			Name:          "Blog",
			BaseURL:       "https://blog.example.com",
			Username:      "editor",
			AppPassword:   "secret",
			DefaultStatus: PostStatusPublish,
		}
	}

	req := valid()
	require.NoError(t, req.Validate())

	tests := []struct {
		name   string
		mutate func(*CreateSiteRequest)
		want   string
	}{
		{"missing name", func(r *CreateSiteRequest) { r.Name = "" }, "name is required"},
		{"long name", func(r *CreateSiteRequest) { r.Name = strings.Repeat("a", 256) }, "255 characters"},
		{"relative url", func(r *CreateSiteRequest) { r.BaseURL = "blog.example.com" }, "base_url"},
		{"ftp url", func(r *CreateSiteRequest) { r.BaseURL = "ftp://blog.example.com" }, "base_url"},
		{"missing password", func(r *CreateSiteRequest) { r.AppPassword = "" }, "app_password"},
		{"bad status", func(r *CreateSiteRequest) { r.DefaultStatus = "private" }, "default_status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
