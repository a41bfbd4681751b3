package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/domain/model"
	apperrors "github.com/target/pressqueue/internal/errors"
	obserrors "github.com/target/pressqueue/internal/observability/errors"
	"github.com/target/pressqueue/internal/observability/metrics"
	"github.com/target/pressqueue/internal/observability/notify"
)

// campaignAttempt carries the state of one campaign through a cycle.
type campaignAttempt struct {
	p        *QueueProcessor
	campaign *model.Campaign
	logger   *slog.Logger

	jobID       string
	persisted   bool
	contentType string
	startedAt   time.Time
}

// attempt runs one campaign and never panics into the cycle: a panicking collaborator fails
// this attempt only.
func (p *QueueProcessor) attempt(ctx context.Context, c *model.Campaign) (result core.AttemptResult) {
	a := &campaignAttempt{
		p:         p,
		campaign:  c,
		logger:    p.logger.With("campaign_id", c.ID),
		startedAt: time.Now(),
	}
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("campaign attempt panicked: %v", r)
			a.logger.ErrorContext(ctx, "campaign attempt panicked", "panic", r, "job_id", a.jobID)
			if a.jobID != "" {
				a.writeLedger(ctx, "set_failed", func(ctx context.Context) error {
					return p.ledger.SetFailed(ctx, a.jobID, err.Error())
				})
			}
			result = core.AttemptResult{
				CampaignID: c.ID,
				JobID:      a.jobID,
				Outcome:    core.AttemptFailed,
				Error:      err.Error(),
			}
			if interval, ierr := c.Interval(); ierr == nil && a.jobID != "" {
				next := model.NextDue(p.clock.Now(), interval)
				if werr := p.schedule.WriteNextDue(ctx, c.ID, next); werr == nil {
					result.NextDueAt = &next
				}
			}
		}
	}()
	return a.run(ctx)
}

func (a *campaignAttempt) run(ctx context.Context) core.AttemptResult {
	c := a.campaign
	res := core.AttemptResult{CampaignID: c.ID}

	// The interval is resolved up front so a misconfigured campaign never gets a job it
	// could not reschedule.
	interval, err := c.Interval()
	if err != nil {
		cerr := &apperrors.ConfigurationError{CampaignID: c.ID, Cause: err}
		a.logger.ErrorContext(ctx, "campaign has no usable schedule", "error", cerr)
		a.recordAudit(ctx, model.AuditEventConfigurationError, cerr.Error())
		a.notify(ctx, notify.StageConfiguration, cerr)
		res.Outcome = core.AttemptMisconfigured
		res.Error = cerr.Error()
		return res
	}

	jobID, err := a.p.ledger.CreateJob(ctx, c.ID)
	switch {
	case errors.Is(err, core.ErrActiveJobExists):
		a.logger.InfoContext(ctx, "campaign already has an active content job, skipping")
		res.Outcome = core.AttemptSkipped
		res.Error = err.Error()
		return res
	case err != nil:
		jobID = uuid.NewString()
		a.logger.ErrorContext(ctx, "content job not persisted, continuing untracked",
			"job_id", jobID,
			"error", &apperrors.LedgerWriteError{Op: "create", JobID: jobID, Cause: err},
		)
	default:
		a.persisted = true
	}
	a.jobID = jobID
	a.logger = a.logger.With("job_id", jobID)
	res.JobID = jobID

	a.writeLedger(ctx, "set_status", func(ctx context.Context) error {
		return a.p.ledger.SetStatus(ctx, jobID, model.ContentJobStatusInProgress)
	})

	if err := a.produce(ctx); err != nil {
		a.fail(ctx, err)
		res.Outcome = core.AttemptFailed
		res.Error = err.Error()
	} else {
		res.Outcome = core.AttemptPublished
	}

	next := model.NextDue(a.p.clock.Now(), interval)
	if err := a.p.schedule.WriteNextDue(ctx, c.ID, next); err != nil {
		a.logger.ErrorContext(ctx, "failed to reschedule campaign", "next_due_at", next, "error", err)
		return res
	}
	res.NextDueAt = &next
	return res
}

// produce generates, illustrates and publishes one post. It returns a GenerationError or a
// PublishError; anything else is handled inside.
func (a *campaignAttempt) produce(ctx context.Context) error {
	c := a.campaign
	tmpl := a.p.selector.Pick(c.ContentTypes)
	a.contentType = string(tmpl.Key)

	vars, err := a.p.registry.Resolve(tmpl, c)
	if err != nil {
		return &apperrors.GenerationError{ContentType: a.contentType, Cause: err}
	}
	prompt, err := tmpl.Render(vars)
	if err != nil {
		return &apperrors.GenerationError{ContentType: a.contentType, Cause: err}
	}

	content, err := a.generate(ctx, model.GenerationRequest{
		Campaign:     c,
		ContentType:  a.contentType,
		TemplateName: tmpl.Name,
		Prompt:       prompt,
		Variables:    vars,
	})
	if err != nil {
		return err
	}

	a.writeLedger(ctx, "set_content", func(ctx context.Context) error {
		return a.p.ledger.SetContent(ctx, a.jobID, core.SetContentParams{
			ContentType: a.contentType,
			Title:       content.Title,
			Body:        content.Body,
			Keywords:    content.Keywords,
		})
	})

	a.illustrate(ctx, content)

	result, err := a.publish(ctx, content)
	if err != nil {
		return err
	}

	a.writeLedger(ctx, "set_published", func(ctx context.Context) error {
		return a.p.ledger.SetPublished(ctx, a.jobID, *result)
	})
	a.logger.InfoContext(ctx, "content published",
		"content_type", a.contentType,
		"remote_post_id", result.RemotePostID,
		"remote_post_url", result.RemotePostURL,
	)
	a.recordAudit(ctx, model.AuditEventContentPublished,
		fmt.Sprintf("published %q (%s) to %s", content.Title, a.contentType, result.RemotePostURL))
	metrics.EmitJobLifecycle(a.p.metrics, metrics.JobMetric{
		ContentType: a.contentType,
		Transition:  "completed",
		Result:      metrics.ResultSuccess,
		Duration:    time.Since(a.startedAt),
	})
	return nil
}

func (a *campaignAttempt) generate(ctx context.Context, req model.GenerationRequest) (*model.GeneratedContent, error) {
	limit := a.p.cfg.GenerationTimeout
	callCtx, cancel := withTimeout(ctx, limit)
	defer cancel()

	content, err := a.p.generator.GenerateBody(callCtx, req)
	if err != nil {
		return nil, &apperrors.GenerationError{ContentType: a.contentType, Cause: apperrors.DescribeTimeout(err, limit)}
	}
	if err := content.Validate(); err != nil {
		return nil, &apperrors.GenerationError{ContentType: a.contentType, Cause: err}
	}
	return content, nil
}

// illustrate attaches a featured image when possible. Failures only downgrade the post.
func (a *campaignAttempt) illustrate(ctx context.Context, content *model.GeneratedContent) {
	if a.p.images == nil || content.ImagePrompt == "" {
		return
	}
	limit := a.p.cfg.ImageTimeout
	callCtx, cancel := withTimeout(ctx, limit)
	defer cancel()

	url, err := a.p.images.GenerateImage(callCtx, content.ImagePrompt)
	if err == nil && url == "" {
		err = errors.New("image generator returned no url")
	}
	if err != nil {
		ierr := &apperrors.ImageGenerationError{Cause: apperrors.DescribeTimeout(err, limit)}
		a.logger.WarnContext(ctx, "publishing without featured image", "error", ierr)
		a.recordAudit(ctx, model.AuditEventImageSkipped, ierr.Error())
		if a.p.metrics != nil {
			a.p.metrics.Count("content_job.image_skipped", 1, map[string]string{"content_type": a.contentType})
		}
		return
	}

	content.ImageURL = url
	a.writeLedger(ctx, "set_image", func(ctx context.Context) error {
		return a.p.ledger.SetImage(ctx, a.jobID, url)
	})
}

func (a *campaignAttempt) publish(ctx context.Context, content *model.GeneratedContent) (*model.PublishResult, error) {
	siteID := ""
	if a.campaign.SiteID != nil {
		siteID = *a.campaign.SiteID
	}
	limit := a.p.cfg.PublishTimeout
	callCtx, cancel := withTimeout(ctx, limit)
	defer cancel()

	site, err := a.p.sites.GetSite(callCtx, siteID)
	if err != nil {
		reason := apperrors.PublishReasonNetwork
		if errors.Is(err, core.ErrSiteNotFound) {
			reason = apperrors.PublishReasonSiteNotFound
		}
		return nil, &apperrors.PublishError{Reason: reason, SiteID: siteID, Cause: err}
	}

	result, err := a.p.publisher.Publish(callCtx, site, content)
	if err != nil {
		return nil, publishFailure(err, siteID, limit)
	}
	if result == nil {
		return nil, &apperrors.PublishError{
			Reason: apperrors.PublishReasonRejected,
			SiteID: siteID,
			Cause:  errors.New("publisher returned no result"),
		}
	}
	return result, nil
}

// publishFailure normalizes publisher errors into a PublishError with a reason.
func publishFailure(err error, siteID string, limit time.Duration) *apperrors.PublishError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &apperrors.PublishError{
			Reason: apperrors.PublishReasonTimeout,
			SiteID: siteID,
			Cause:  apperrors.DescribeTimeout(err, limit),
		}
	}
	var pe *apperrors.PublishError
	if errors.As(err, &pe) {
		if pe.SiteID == "" {
			pe.SiteID = siteID
		}
		return pe
	}
	return &apperrors.PublishError{Reason: apperrors.PublishReasonNetwork, SiteID: siteID, Cause: err}
}

// fail records a fatal attempt error on the job and fans it out.
func (a *campaignAttempt) fail(ctx context.Context, err error) {
	a.logger.ErrorContext(ctx, "content job failed",
		"content_type", a.contentType,
		"error_class", obserrors.Classify(err),
		"error", err,
	)
	a.writeLedger(ctx, "set_failed", func(ctx context.Context) error {
		return a.p.ledger.SetFailed(ctx, a.jobID, err.Error())
	})
	a.recordAudit(ctx, model.AuditEventContentFailed, err.Error())

	stage := notify.StageGeneration
	var pe *apperrors.PublishError
	if errors.As(err, &pe) {
		stage = notify.StagePublish
	}
	a.notify(ctx, stage, err)

	metrics.EmitJobLifecycle(a.p.metrics, metrics.JobMetric{
		ContentType: a.contentType,
		Transition:  "failed",
		Result:      metrics.ResultError,
		Duration:    time.Since(a.startedAt),
		Err:         err,
	})
}

// writeLedger persists one transition. Failures are logged as LedgerWriteError and never
// abort the attempt. Untracked jobs skip the ledger entirely.
func (a *campaignAttempt) writeLedger(ctx context.Context, op string, fn func(context.Context) error) {
	if !a.persisted {
		return
	}
	if err := fn(ctx); err != nil {
		lerr := &apperrors.LedgerWriteError{Op: op, JobID: a.jobID, Cause: err}
		a.logger.ErrorContext(ctx, "ledger write failed", "op", op, "error", lerr)
		if a.p.metrics != nil {
			a.p.metrics.Count("content_job.ledger_error", 1, map[string]string{"op": op})
		}
	}
}

func (a *campaignAttempt) recordAudit(ctx context.Context, eventType model.AuditEventType, message string) {
	if a.p.audit == nil {
		return
	}
	event := model.AuditEvent{
		CampaignID: a.campaign.ID,
		Type:       eventType,
		Message:    message,
		CreatedAt:  a.p.clock.Now(),
	}
	if a.jobID != "" {
		id := a.jobID
		event.JobID = &id
	}
	if err := a.p.audit.Record(ctx, event); err != nil {
		a.logger.WarnContext(ctx, "audit event not recorded", "event_type", eventType, "error", err)
	}
}

func (a *campaignAttempt) notify(ctx context.Context, stage notify.Stage, err error) {
	if a.p.notifier == nil {
		return
	}
	payload := notify.ContentFailurePayload{
		CampaignID:  a.campaign.ID,
		JobID:       a.jobID,
		Topic:       a.campaign.Topic,
		ContentType: a.contentType,
		Stage:       stage,
		Error:       err.Error(),
		ErrorClass:  obserrors.Classify(err),
		OccurredAt:  a.p.clock.Now(),
	}
	if a.campaign.SiteID != nil {
		payload.SiteID = *a.campaign.SiteID
	}
	a.p.notifier.NotifyContentFailure(ctx, payload)
}
