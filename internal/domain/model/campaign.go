// Package model defines the core data types shared by the pressqueue processor, repositories and adapters.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxTopicLen = 500
	// MaxCampaignContentTypes caps how many templates a campaign may select.
	MaxCampaignContentTypes = 5
)

// Campaign is a recurring content-production directive.
type Campaign struct {
	ID             string            `json:"id"`
	Topic          string            `json:"topic"`
	Audience       string            `json:"audience"`
	Tone           string            `json:"tone"`
	ContentTypes   []string          `json:"content_types"`
	Variables      map[string]string `json:"variables,omitempty"`
	IntervalHours  *IntervalHours    `json:"interval_hours,omitempty"`
	LegacySchedule *string           `json:"schedule,omitempty"`
	NextDueAt      time.Time         `json:"next_due_at"`
	Active         bool              `json:"active"`
	SiteID         *string           `json:"site_id,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Interval resolves the campaign's schedule interval.
func (c *Campaign) Interval() (IntervalHours, error) {
	return ResolveInterval(c.IntervalHours, c.LegacySchedule)
}

// Publishable reports whether the campaign can be picked up by the processor.
func (c *Campaign) Publishable() bool {
	return c.Active && c.SiteID != nil && strings.TrimSpace(*c.SiteID) != ""
}

// CreateCampaignRequest is the write-boundary input for a new campaign.
type CreateCampaignRequest struct {
	Topic         string            `json:"topic"`
	Audience      string            `json:"audience"`
	Tone          string            `json:"tone"`
	ContentTypes  []string          `json:"content_types"`
	Variables     map[string]string `json:"variables,omitempty"`
	IntervalHours *float64          `json:"interval_hours,omitempty"`
	Schedule      *string           `json:"schedule,omitempty"`
	SiteID        *string           `json:"site_id,omitempty"`
	Active        *bool             `json:"active,omitempty"`
}

// Normalize trims string inputs.
func (r *CreateCampaignRequest) Normalize() {
	r.Topic = strings.TrimSpace(r.Topic)
	r.Audience = strings.TrimSpace(r.Audience)
	r.Tone = strings.TrimSpace(r.Tone)
	for i, k := range r.ContentTypes {
		r.ContentTypes[i] = strings.ToLower(strings.TrimSpace(k))
	}
	if r.SiteID != nil {
		v := strings.TrimSpace(*r.SiteID)
		r.SiteID = &v
	}
}

// Validate checks required fields and the schedule range.
func (r *CreateCampaignRequest) Validate() error {
	if r.Topic == "" {
		return errors.New("topic is required")
	}
	if utf8.RuneCountInString(r.Topic) > maxTopicLen {
		return fmt.Errorf("topic must be %d characters or less", maxTopicLen)
	}
	if len(r.ContentTypes) > MaxCampaignContentTypes {
		return fmt.Errorf("at most %d content types may be selected", MaxCampaignContentTypes)
	}
	_, err := r.Interval()
	return err
}

// Interval converts the requested schedule into its canonical numeric form.
// The numeric field wins when both are supplied.
func (r *CreateCampaignRequest) Interval() (IntervalHours, error) {
	return scheduleFromInput(r.IntervalHours, r.Schedule)
}

// UpdateScheduleRequest changes a campaign's interval.
type UpdateScheduleRequest struct {
	IntervalHours *float64 `json:"interval_hours,omitempty"`
	Schedule      *string  `json:"schedule,omitempty"`
}

// Interval converts the requested schedule into its canonical numeric form.
func (r *UpdateScheduleRequest) Interval() (IntervalHours, error) {
	return scheduleFromInput(r.IntervalHours, r.Schedule)
}

func scheduleFromInput(hours *float64, schedule *string) (IntervalHours, error) {
	if hours != nil {
		return NewIntervalHours(*hours)
	}
	if schedule != nil && strings.TrimSpace(*schedule) != "" {
		return ParseLegacySchedule(*schedule)
	}
	return 0, ErrScheduleNotConfigured
}

// CampaignListOptions controls listing campaigns for operator tooling.
type CampaignListOptions struct {
	Limit      int
	Offset     int
	ActiveOnly bool
	DueBefore  *time.Time
}
