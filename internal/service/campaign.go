package service

import (
	"context"
	"errors"
	"strings"

	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/domain/contenttype"
	"github.com/target/pressqueue/internal/domain/model"
	apperrors "github.com/target/pressqueue/internal/errors"
)

// CampaignServiceOptions groups dependencies for CampaignService.
type CampaignServiceOptions struct {
	Repo     core.CampaignRepository // Required
	Registry *contenttype.Registry   // Optional: defaults to the embedded registry
}

// CampaignService is the write boundary for campaigns. Schedule range checks happen here
// (and in the database) so the processor can trust stored intervals.
type CampaignService struct {
	repo     core.CampaignRepository
	registry *contenttype.Registry
}

// NewCampaignService constructs a CampaignService.
func NewCampaignService(opts CampaignServiceOptions) *CampaignService {
	reg := opts.Registry
	if reg == nil {
		reg = contenttype.Default()
	}
	return &CampaignService{repo: opts.Repo, registry: reg}
}

// Create validates the request and stores a campaign that is due immediately.
// A text schedule is converted to the numeric interval on the way in.
func (s *CampaignService) Create(ctx context.Context, req *model.CreateCampaignRequest) (*model.Campaign, error) {
	if req == nil {
		return nil, apperrors.Validation("campaign request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	if unknown := s.registry.UnknownKeys(req.ContentTypes); len(unknown) > 0 {
		return nil, apperrors.ValidationField("content_types",
			"unknown content types: "+strings.Join(unknown, ", "))
	}
	interval, err := req.Interval()
	if err != nil {
		return nil, validationError(err)
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	c := &model.Campaign{
		Topic:         req.Topic,
		Audience:      req.Audience,
		Tone:          req.Tone,
		ContentTypes:  req.ContentTypes,
		Variables:     req.Variables,
		IntervalHours: &interval,
		Active:        active,
	}
	if req.SiteID != nil && *req.SiteID != "" {
		c.SiteID = req.SiteID
	}
	return s.repo.Create(ctx, c)
}

// UpdateSchedule replaces a campaign's interval. The next due time is left alone; the new
// interval applies from the next reschedule.
func (s *CampaignService) UpdateSchedule(
	ctx context.Context,
	id string,
	req *model.UpdateScheduleRequest,
) (*model.Campaign, error) {
	if req == nil {
		return nil, apperrors.Validation("schedule request is required")
	}
	interval, err := req.Interval()
	if err != nil {
		return nil, validationError(err)
	}
	return s.mapNotFound(s.repo.UpdateInterval(ctx, id, interval))
}

// Deactivate pauses a campaign. A job already in flight finishes normally.
func (s *CampaignService) Deactivate(ctx context.Context, id string) (*model.Campaign, error) {
	return s.mapNotFound(s.repo.SetActive(ctx, id, false))
}

// Activate resumes a paused campaign.
func (s *CampaignService) Activate(ctx context.Context, id string) (*model.Campaign, error) {
	return s.mapNotFound(s.repo.SetActive(ctx, id, true))
}

// Get loads a campaign.
func (s *CampaignService) Get(ctx context.Context, id string) (*model.Campaign, error) {
	return s.mapNotFound(s.repo.GetByID(ctx, id))
}

// List returns campaigns ordered by next due time.
func (s *CampaignService) List(ctx context.Context, opts model.CampaignListOptions) ([]*model.Campaign, error) {
	return s.repo.List(ctx, opts)
}

func (s *CampaignService) mapNotFound(c *model.Campaign, err error) (*model.Campaign, error) {
	if errors.Is(err, core.ErrCampaignNotFound) {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeNotFound, "campaign not found")
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func validationError(err error) error {
	switch {
	case errors.Is(err, model.ErrIntervalOutOfRange),
		errors.Is(err, model.ErrScheduleNotConfigured),
		errors.Is(err, model.ErrInvalidSchedule):
		return &apperrors.AppError{
			Code:    apperrors.ErrCodeValidation,
			Message: err.Error(),
			Field:   "interval_hours",
			Cause:   err,
		}
	default:
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid campaign")
	}
}
