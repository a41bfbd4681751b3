package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	ErrCampaignIDRequired = errors.New("campaign_id is required")
	ErrJobIDRequired      = errors.New("job_id is required")
	ErrSiteNameExists     = errors.New("site name already exists")
	ErrInvalidStatus      = errors.New("invalid content job status")
)
