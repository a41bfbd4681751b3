package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/target/pressqueue/internal/core"
)

const maxTitleSuggestions = 20

// TitleServiceOptions groups dependencies for TitleService.
type TitleServiceOptions struct {
	Campaigns core.CampaignRepository // Required
	Generator core.ContentGenerator   // Required
	History   *core.TitleHistory      // Optional: nil disables deduplication
	Logger    *slog.Logger
}

// TitleService proposes candidate titles for a campaign, skipping titles it suggested recently.
type TitleService struct {
	campaigns core.CampaignRepository
	generator core.ContentGenerator
	history   *core.TitleHistory
	logger    *slog.Logger
}

// NewTitleService constructs a TitleService.
func NewTitleService(opts TitleServiceOptions) (*TitleService, error) {
	if opts.Campaigns == nil || opts.Generator == nil {
		return nil, errors.New("campaign repository and generator are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TitleService{
		campaigns: opts.Campaigns,
		generator: opts.Generator,
		history:   opts.History,
		logger:    logger.With("component", "title_service"),
	}, nil
}

// Suggest returns up to n fresh titles. It makes at most 3n generator calls, so fewer titles
// come back when the generator keeps repeating itself.
func (s *TitleService) Suggest(ctx context.Context, campaignID string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	n = min(n, maxTitleSuggestions)

	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("load campaign: %w", err)
	}

	titles := make([]string, 0, n)
	seen := make(map[string]bool, n)
	for i := 0; i < n*3 && len(titles) < n; i++ {
		title, err := s.generator.GenerateTitle(ctx, campaign)
		if err != nil {
			return titles, fmt.Errorf("generate title: %w", err)
		}
		title = strings.TrimSpace(title)
		key := strings.ToLower(title)
		if title == "" || seen[key] {
			continue
		}
		seen[key] = true

		fresh, err := s.history.Claim(ctx, campaign.ID, title)
		if err != nil {
			// Cache trouble should not block suggestions.
			s.logger.WarnContext(ctx, "title history unavailable", "campaign_id", campaign.ID, "error", err)
			fresh = true
		}
		if !fresh {
			s.logger.DebugContext(ctx, "skipping recently used title", "campaign_id", campaign.ID, "title", title)
			continue
		}
		titles = append(titles, title)
	}
	return titles, nil
}
