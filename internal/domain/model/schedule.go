package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// MinIntervalHours is the smallest accepted schedule interval (0.10h = 6 minutes).
	MinIntervalHours IntervalHours = 10
	// MaxIntervalHours is the largest accepted schedule interval (168.00h = one week).
	MaxIntervalHours IntervalHours = 16800

	hundredthOfHour = 36 * time.Second
)

var (
	// ErrIntervalOutOfRange is returned when an interval falls outside [0.10, 168.00] hours.
	ErrIntervalOutOfRange = errors.New("schedule interval must be between 0.10 and 168.00 hours")
	// ErrScheduleNotConfigured is returned when neither the numeric interval nor the legacy
	// schedule string is present on a campaign.
	ErrScheduleNotConfigured = errors.New("campaign has no schedule interval configured")
	// ErrInvalidSchedule is returned when a legacy schedule string cannot be parsed.
	ErrInvalidSchedule = errors.New("invalid schedule")
)

// IntervalHours is a schedule interval stored as hundredths of an hour so two-decimal
// values round-trip exactly.
type IntervalHours int64

// NewIntervalHours converts decimal hours into an IntervalHours, rounding to two decimals.
// The range is checked on the raw value so nothing outside it can round into it.
func NewIntervalHours(hours float64) (IntervalHours, error) {
	if math.IsNaN(hours) || hours < MinIntervalHours.Hours() || hours > MaxIntervalHours.Hours() {
		return 0, ErrIntervalOutOfRange
	}
	h := IntervalHours(math.Round(hours * 100))
	if err := h.Validate(); err != nil {
		return 0, err
	}
	return h, nil
}

// ParseLegacySchedule parses the legacy schedule descriptor ("24", "24h", "24.00h").
func ParseLegacySchedule(s string) (IntervalHours, error) {
	v := strings.TrimSpace(strings.ToLower(s))
	v = strings.TrimSpace(strings.TrimSuffix(v, "h"))
	if v == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSchedule, s)
	}
	hours, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSchedule, s)
	}
	return NewIntervalHours(hours)
}

// ResolveInterval picks the canonical numeric interval when present and falls back to the
// legacy schedule string. It never defaults: a campaign with neither is a configuration error.
func ResolveInterval(numeric *IntervalHours, legacy *string) (IntervalHours, error) {
	if numeric != nil {
		if err := numeric.Validate(); err != nil {
			return 0, err
		}
		return *numeric, nil
	}
	if legacy != nil && strings.TrimSpace(*legacy) != "" {
		return ParseLegacySchedule(*legacy)
	}
	return 0, ErrScheduleNotConfigured
}

// Validate reports whether the interval is within the accepted range.
func (h IntervalHours) Validate() error {
	if h < MinIntervalHours || h > MaxIntervalHours {
		return ErrIntervalOutOfRange
	}
	return nil
}

// Hours returns the interval as decimal hours.
func (h IntervalHours) Hours() float64 {
	return float64(h) / 100
}

// Duration returns the interval as a time.Duration.
func (h IntervalHours) Duration() time.Duration {
	return time.Duration(h) * hundredthOfHour
}

// String renders the display form used by the legacy schedule column, e.g. "24.00h".
func (h IntervalHours) String() string {
	return strconv.FormatFloat(h.Hours(), 'f', 2, 64) + "h"
}

// NextDue computes the next due time from the moment an attempt finished.
func NextDue(finishedAt time.Time, h IntervalHours) time.Time {
	return finishedAt.Add(h.Duration())
}
