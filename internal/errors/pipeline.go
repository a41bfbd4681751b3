package errors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DiscoveryError means the schedule store could not be read at cycle start. It aborts the cycle.
type DiscoveryError struct {
	Cause error
}

func (e *DiscoveryError) Error() string { return "discover due campaigns: " + e.Cause.Error() }
func (e *DiscoveryError) Unwrap() error { return e.Cause }

// GenerationError means the content generator failed or returned unusable output.
// It fails the current job; the campaign still reschedules.
type GenerationError struct {
	ContentType string
	Cause       error
}

func (e *GenerationError) Error() string {
	if e.ContentType == "" {
		return "generate content: " + e.Cause.Error()
	}
	return fmt.Sprintf("generate %s content: %v", e.ContentType, e.Cause)
}
func (e *GenerationError) Unwrap() error { return e.Cause }

// ImageGenerationError means the featured image could not be produced. It is never fatal.
type ImageGenerationError struct {
	Cause error
}

func (e *ImageGenerationError) Error() string { return "generate image: " + e.Cause.Error() }
func (e *ImageGenerationError) Unwrap() error { return e.Cause }

// PublishReason narrows down why publishing failed.
type PublishReason string

const (
	PublishReasonSiteNotFound PublishReason = "site_not_found"
	PublishReasonAuth         PublishReason = "auth"
	PublishReasonRejected     PublishReason = "rejected"
	PublishReasonNetwork      PublishReason = "network"
	PublishReasonTimeout      PublishReason = "timeout"
)

// PublishError means the post could not be published. It fails the current job.
type PublishError struct {
	Reason PublishReason
	SiteID string
	Cause  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to site %s (%s): %v", e.SiteID, e.Reason, e.Cause)
}
func (e *PublishError) Unwrap() error { return e.Cause }

// LedgerWriteError means a content job transition was not persisted. It is logged and the attempt continues.
type LedgerWriteError struct {
	Op    string
	JobID string
	Cause error
}

func (e *LedgerWriteError) Error() string {
	return fmt.Sprintf("ledger %s for job %s: %v", e.Op, e.JobID, e.Cause)
}
func (e *LedgerWriteError) Unwrap() error { return e.Cause }

// ConfigurationError means a campaign cannot be processed as configured (e.g. no schedule interval).
type ConfigurationError struct {
	CampaignID string
	Cause      error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("campaign %s misconfigured: %v", e.CampaignID, e.Cause)
}
func (e *ConfigurationError) Unwrap() error { return e.Cause }

// DescribeTimeout rewrites deadline errors into a readable "timed out after" detail.
func DescribeTimeout(err error, limit time.Duration) error {
	if err == nil || !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("timed out after %s: %w", limit, err)
}
