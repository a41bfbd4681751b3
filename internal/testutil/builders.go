package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/target/pressqueue/internal/domain/model"
)

// CampaignBuilder builds campaigns for tests with sensible defaults.
type CampaignBuilder struct {
	c model.Campaign
}

// NewCampaign starts a campaign that is active, due at TestTime and scheduled every 24 hours.
func NewCampaign() *CampaignBuilder {
	interval := model.IntervalHours(2400)
	return &CampaignBuilder{c: model.Campaign{
		ID:            "camp-1",
		Topic:         "home espresso",
		Audience:      "coffee hobbyists",
		Tone:          "friendly",
		ContentTypes:  []string{"how_to_guide"},
		IntervalHours: &interval,
		NextDueAt:     TestTime(),
		Active:        true,
		SiteID:        StringPtr("site-1"),
	}}
}

// WithID sets the campaign id.
func (b *CampaignBuilder) WithID(id string) *CampaignBuilder {
	b.c.ID = id
	return b
}

// WithInterval sets the numeric interval in hours.
func (b *CampaignBuilder) WithInterval(hours float64) *CampaignBuilder {
	h, err := model.NewIntervalHours(hours)
	if err != nil {
		panic(err)
	}
	b.c.IntervalHours = &h
	return b
}

// WithLegacySchedule clears the numeric interval and sets the text schedule.
func (b *CampaignBuilder) WithLegacySchedule(s string) *CampaignBuilder {
	b.c.IntervalHours = nil
	b.c.LegacySchedule = &s
	return b
}

// WithoutSchedule clears both schedule representations.
func (b *CampaignBuilder) WithoutSchedule() *CampaignBuilder {
	b.c.IntervalHours = nil
	b.c.LegacySchedule = nil
	return b
}

// WithSite sets or clears (nil) the linked site.
func (b *CampaignBuilder) WithSite(id *string) *CampaignBuilder {
	b.c.SiteID = id
	return b
}

// WithContentTypes sets the configured template keys.
func (b *CampaignBuilder) WithContentTypes(keys ...string) *CampaignBuilder {
	b.c.ContentTypes = keys
	return b
}

// WithNextDue sets the next due time.
func (b *CampaignBuilder) WithNextDue(t time.Time) *CampaignBuilder {
	b.c.NextDueAt = t
	return b
}

// Inactive marks the campaign paused.
func (b *CampaignBuilder) Inactive() *CampaignBuilder {
	b.c.Active = false
	return b
}

// Build returns a copy of the campaign.
func (b *CampaignBuilder) Build() *model.Campaign {
	c := b.c
	c.ContentTypes = append([]string(nil), b.c.ContentTypes...)
	return &c
}

// InsertSite writes a bare site row and returns its id. The password column holds a noop ciphertext
// of "secret".
func InsertSite(t TestingTB, db *sql.DB, name string) string {
	t.Helper()
	var id string
	err := db.QueryRowContext(context.Background(), `
		INSERT INTO sites (name, base_url, username, app_password_encrypted)
		VALUES ($1, 'https://blog.example.com', 'editor', 'noop:c2VjcmV0')
		RETURNING id::text
	`, name).Scan(&id)
	if err != nil {
		t.Fatalf("insert site %s: %v", name, err)
	}
	return id
}

// UniqueName returns prefix suffixed with a nanosecond timestamp.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
