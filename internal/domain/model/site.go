//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxSiteNameLen = 255
)

// PostStatus is the WordPress status new posts are created with.
type PostStatus string

const (
	PostStatusPublish PostStatus = "publish"
	PostStatusDraft   PostStatus = "draft"
)

// Valid reports whether the post status is supported.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusPublish, PostStatusDraft:
		return true
	default:
		return false
	}
}

// normalizePostStatus trims and lowercases the input, defaulting to publish when empty.
func normalizePostStatus(v PostStatus) PostStatus {
	normalized := PostStatus(strings.ToLower(strings.TrimSpace(string(v))))
	if normalized == "" {
		return PostStatusPublish
	}
	return normalized
}

// Site is a connected WordPress publishing target.
// AppPassword is held decrypted in memory only; repositories encrypt it at rest.
type Site struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	BaseURL       string     `json:"base_url"`
	Username      string     `json:"username"`
	AppPassword   string     `json:"-"`
	DefaultStatus PostStatus `json:"default_status"`
	CategoryIDs   []int64    `json:"category_ids,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CreateSiteRequest is the input for registering a site.
type CreateSiteRequest struct {
	Name          string     `json:"name"`
	BaseURL       string     `json:"base_url"`
	Username      string     `json:"username"`
	AppPassword   string     `json:"app_password"`
	DefaultStatus PostStatus `json:"default_status,omitempty"`
	CategoryIDs   []int64    `json:"category_ids,omitempty"`
}

// Normalize trims inputs and applies defaults.
func (r *CreateSiteRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.BaseURL = strings.TrimRight(strings.TrimSpace(r.BaseURL), "/")
	r.Username = strings.TrimSpace(r.Username)
	r.AppPassword = strings.TrimSpace(r.AppPassword)
	r.DefaultStatus = normalizePostStatus(r.DefaultStatus)
}

// Validate checks required fields.
func (r *CreateSiteRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if utf8.RuneCountInString(r.Name) > maxSiteNameLen {
		return errors.New("name must be 255 characters or less")
	}
	u, err := url.Parse(r.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("base_url must be an absolute http(s) URL")
	}
	if r.Username == "" || r.AppPassword == "" {
		return errors.New("username and app_password are required")
	}
	if !r.DefaultStatus.Valid() {
		return errors.New("default_status must be publish or draft")
	}
	return nil
}
