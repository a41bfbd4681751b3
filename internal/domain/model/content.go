package model

import (
	"errors"
	"strings"
)

// ErrMalformedContent is returned when a generator produced unusable output.
var ErrMalformedContent = errors.New("generated content is missing a title or body")

// GenerationRequest carries everything a content generator needs for one body.
type GenerationRequest struct {
	Campaign     *Campaign
	ContentType  string
	TemplateName string
	Prompt       string
	Variables    map[string]string
}

// GeneratedContent is the generator output persisted on the content job.
type GeneratedContent struct {
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	Keywords    []string `json:"keywords"`
	ImagePrompt string   `json:"image_prompt"`
	// ImageURL is set by the image step; empty means publish without a featured image.
	ImageURL string `json:"-"`
}

// Validate rejects output that cannot be published.
func (c *GeneratedContent) Validate() error {
	if c == nil || strings.TrimSpace(c.Title) == "" || strings.TrimSpace(c.Body) == "" {
		return ErrMalformedContent
	}
	return nil
}

// PublishResult identifies the remote post created by a publisher.
type PublishResult struct {
	RemotePostID  string `json:"remote_post_id"`
	RemotePostURL string `json:"remote_post_url"`
}
